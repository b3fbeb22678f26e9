package usecase

import "sync"

// PendingSecrets holds plaintext credentials for the duration of a single
// remote create call: the remote store hashes server-side, so the plaintext
// must survive until the call returns, and not a moment longer. Entries are
// keyed by the proposed username and removed unconditionally when the create
// completes, whatever the outcome. Nothing here is ever written to durable
// storage.
type PendingSecrets struct {
	mu      sync.Mutex
	secrets map[string]string
}

// NewPendingSecrets creates an empty PendingSecrets map.
func NewPendingSecrets() *PendingSecrets {
	return &PendingSecrets{secrets: make(map[string]string)}
}

// Put parks the plaintext credential under the username.
func (p *PendingSecrets) Put(username, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.secrets[username] = password
}

// Remove drops the entry for the username, if any.
func (p *PendingSecrets) Remove(username string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.secrets, username)
}

// Has reports whether an entry exists for the username.
func (p *PendingSecrets) Has(username string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.secrets[username]
	return ok
}
