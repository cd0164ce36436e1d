package session

import (
	"sync"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
)

// SaltCache remembers the PRF parameters last confirmed for an email address,
// letting a returning user's sign-in request PRF evaluation inline with the
// passkey assertion instead of paying a second authenticator round trip.
//
// Entries are a latency optimization only. A cached entry may be stale (the
// server's copy wins after a credential reset), so every key derived from a
// cached salt must be re-validated against the server before use.
type SaltCache struct {
	mu      sync.Mutex
	entries map[string]e2eeDomain.PRFParams
}

// NewSaltCache creates an empty SaltCache.
func NewSaltCache() *SaltCache {
	return &SaltCache{entries: make(map[string]e2eeDomain.PRFParams)}
}

// Put stores the PRF parameters for an email, replacing any previous entry.
func (s *SaltCache) Put(email string, params e2eeDomain.PRFParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[email] = params
}

// Get returns the cached PRF parameters for an email.
func (s *SaltCache) Get(email string) (e2eeDomain.PRFParams, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	params, ok := s.entries[email]
	return params, ok
}

// Delete drops the entry for an email. Called when the cached parameters turn
// out to be stale.
func (s *SaltCache) Delete(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, email)
}

// Clear drops all entries.
func (s *SaltCache) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]e2eeDomain.PRFParams)
}
