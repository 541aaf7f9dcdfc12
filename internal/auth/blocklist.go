package auth

import "sync"

// Blocklist is the set of revoked token identifiers (jti claims). It lives
// in process memory only: a restart silently un-revokes everything. There
// is no removal operation and no expiry cleanup.
type Blocklist struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

// NewBlocklist creates an empty blocklist.
func NewBlocklist() *Blocklist {
	return &Blocklist{revoked: make(map[string]struct{})}
}

// Revoke adds a token identifier to the set. Idempotent.
func (b *Blocklist) Revoke(jti string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = struct{}{}
}

// IsRevoked reports whether a token identifier has been revoked.
func (b *Blocklist) IsRevoked(jti string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.revoked[jti]
	return ok
}

// Len returns the number of revoked identifiers.
func (b *Blocklist) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.revoked)
}
