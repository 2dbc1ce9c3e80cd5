package session

import (
	"sync"
	"time"
)

// pruneEvery is the number of bounded inserts between lazy prunes.
const pruneEvery = 256

// RevocationRegistry is the set of token strings that must be rejected
// regardless of signature validity. One instance is shared by every request
// of the process; each operation is a single critical section.
//
// Entries added with RevokeUntil carry the token's own expiry and are
// dropped once that moment passes, since the verifier rejects them anyway.
// Entries added with Revoke are kept for the life of the process.
type RevocationRegistry struct {
	mu      sync.Mutex
	entries map[string]time.Time // zero value: keep forever
	bounded int
	now     func() time.Time
}

// RegistryOption configures a RevocationRegistry.
type RegistryOption func(*RevocationRegistry)

// WithRegistryClock overrides the clock used for lazy pruning.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *RevocationRegistry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRevocationRegistry returns an empty registry.
func NewRevocationRegistry(opts ...RegistryOption) *RevocationRegistry {
	r := &RevocationRegistry{
		entries: make(map[string]time.Time),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Revoke marks token as revoked. Revoking a present token is a no-op.
func (r *RevocationRegistry) Revoke(token string) {
	if token == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[token]; ok {
		return
	}
	r.entries[token] = time.Time{}
}

// RevokeUntil marks token as revoked until expiresAt, after which the entry
// may be pruned. An existing unbounded entry stays unbounded.
func (r *RevocationRegistry) RevokeUntil(token string, expiresAt time.Time) {
	if token == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.entries[token]; ok && (prev.IsZero() || !prev.Before(expiresAt)) {
		return
	}
	r.entries[token] = expiresAt
	r.bounded++
	if r.bounded%pruneEvery == 0 {
		r.pruneLocked(r.now())
	}
}

// IsRevoked reports whether token is in the registry.
func (r *RevocationRegistry) IsRevoked(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.entries[token]
	return ok
}

// Len returns the number of entries currently held.
func (r *RevocationRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Prune drops bounded entries whose expiry is at or before now and returns
// how many were removed.
func (r *RevocationRegistry) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pruneLocked(now)
}

func (r *RevocationRegistry) pruneLocked(now time.Time) int {
	removed := 0
	for tok, exp := range r.entries {
		if !exp.IsZero() && !now.Before(exp) {
			delete(r.entries, tok)
			removed++
		}
	}
	return removed
}
