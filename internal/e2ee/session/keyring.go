// Package session holds the in-memory, per-process caches of the encryption
// subsystem: the master keyring and the PRF parameter cache. Nothing in this
// package touches disk; all contents vanish with the process.
package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
)

// Keyring caches the session master key in memory. It holds at most one key
// at a time: a session serves one authenticated account, and storing a key
// for a new account replaces (and zeroizes) the previous one.
//
// Get fails closed: asking for a key under the wrong account identity
// destroys the cached key rather than returning it.
type Keyring struct {
	mu     sync.Mutex
	key    *e2eeDomain.MasterKey
	logger *slog.Logger
}

// NewKeyring creates an empty Keyring.
func NewKeyring(logger *slog.Logger) *Keyring {
	return &Keyring{logger: logger}
}

// Store caches the master key for the session, replacing and zeroizing any
// previously cached key.
func (k *Keyring) Store(key *e2eeDomain.MasterKey) error {
	if key == nil || len(key.Key) != e2eeDomain.MasterKeySize {
		return e2eeDomain.ErrInvalidKeySize
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key != nil {
		k.key.Destroy()
	}
	k.key = key
	return nil
}

// Get returns the cached master key for userID.
//
// Returns ErrKeyUnavailable when no key is cached, and ErrAccountMismatch
// when the cached key belongs to a different account. In the mismatch case
// the stale key is destroyed before returning: key material must never
// outlive the account switch that invalidated it.
func (k *Keyring) Get(userID uuid.UUID) (*e2eeDomain.MasterKey, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key == nil {
		return nil, e2eeDomain.ErrKeyUnavailable
	}

	if k.key.UserID != userID {
		k.logger.Warn("cached master key does not match requested account, destroying it",
			"cached_user_id", k.key.UserID,
			"requested_user_id", userID,
		)
		k.key.Destroy()
		k.key = nil
		return nil, e2eeDomain.ErrAccountMismatch
	}

	return k.key, nil
}

// Has reports whether a key is cached for userID without the destructive
// mismatch handling of Get.
func (k *Keyring) Has(userID uuid.UUID) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.key != nil && k.key.UserID == userID
}

// Clear zeroizes and drops the cached key. Safe to call when empty.
// Called on sign-out and on session expiry.
func (k *Keyring) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.key != nil {
		k.key.Destroy()
		k.key = nil
	}
}
