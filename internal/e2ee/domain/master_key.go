package domain

import (
	"github.com/google/uuid"
)

// MasterKey is the symmetric key all field encryption and decryption draws
// from, derived from a passkey PRF output for exactly one user.
//
// It lives only in memory for the session lifetime: never serialized, never
// written to durable storage, never transmitted to the server. The UserID
// binding lets the session keyring fail closed if a key is requested under a
// different authenticated identity.
type MasterKey struct {
	UserID uuid.UUID
	Key    []byte
}

// NewMasterKey builds a MasterKey after checking the key material size.
func NewMasterKey(userID uuid.UUID, key []byte) (*MasterKey, error) {
	if len(key) != MasterKeySize {
		return nil, ErrInvalidKeySize
	}
	return &MasterKey{UserID: userID, Key: key}, nil
}

// Destroy zeroes the key material. The MasterKey must not be used afterwards.
func (m *MasterKey) Destroy() {
	if m == nil {
		return
	}
	Zero(m.Key)
	m.Key = nil
}
