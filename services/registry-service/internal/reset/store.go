// Package reset holds single-use, time-bounded password-reset tokens. A
// token bridges "proved knowledge of the security answer" to "may set a new
// password" without keeping the caller authenticated in between.
package reset

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 15 * time.Minute

// TokenStore issues, resolves, and consumes password-reset tokens.
type TokenStore interface {
	// Issue creates an opaque token bound to the user id. Multiple
	// outstanding tokens per user are permitted.
	Issue(userID int64) string

	// Resolve returns the bound user id while the token is live. Expired
	// tokens are deleted as a side effect and reported as absent.
	Resolve(token string) (int64, bool)

	// Consume deletes the token, making it single-use. It reports whether
	// this call removed a live token; under concurrent consumption of the
	// same token exactly one caller wins.
	Consume(token string) bool
}

type entry struct {
	userID  int64
	expires time.Time
}

// MemoryStore is the in-memory TokenStore. All operations are atomic with
// respect to each other, so two concurrent resets cannot both spend the same
// token.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore with the given token lifetime; a zero
// ttl means DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl == 0 {
		ttl = DefaultTTL
	}

	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Issue(userID int64) string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[token] = entry{
		userID:  userID,
		expires: s.now().Add(s.ttl),
	}

	return token
}

func (s *MemoryStore) Resolve(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return 0, false
	}

	if s.now().After(e.expires) {
		delete(s.entries, token)
		return 0, false
	}

	return e.userID, true
}

func (s *MemoryStore) Consume(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[token]
	if !ok {
		return false
	}
	delete(s.entries, token)

	return !s.now().After(e.expires)
}
