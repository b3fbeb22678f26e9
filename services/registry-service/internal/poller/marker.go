package poller

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Marker persists the instant of the last successful notification in a small
// JSON file owned by the poller, so the cooldown survives restarts without
// touching application configuration.
type Marker struct {
	mu   sync.Mutex
	path string
	last time.Time
}

type markerFile struct {
	LastNotified time.Time `json:"last_notified"`
}

// OpenMarker loads the marker file, treating a missing file as "never
// notified".
func OpenMarker(path string) (*Marker, error) {
	m := &Marker{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, nil
		}
		return nil, err
	}

	var file markerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	m.last = file.LastNotified
	return m, nil
}

// Last returns the last successful notification time; ok is false when no
// notification was ever sent.
func (m *Marker) Last() (last time.Time, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.last, !m.last.IsZero()
}

// Set records a successful notification and persists it. The file is written
// to a temporary name and renamed so a crash cannot leave it half-written.
func (m *Marker) Set(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.Marshal(markerFile{LastNotified: t})
	if err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return err
	}

	m.last = t
	return nil
}
