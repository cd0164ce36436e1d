package domain

import (
	"encoding/json"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	apperrors "github.com/sealkeep/sealkeep/internal/errors"
)

// PasskeyCredential is a stored WebAuthn credential. The go-webauthn
// credential structure is persisted as JSON alongside the raw credential ID,
// which is indexed separately for assertion lookups.
type PasskeyCredential struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	CredentialID []byte
	Credential   webauthn.Credential
	CreatedAt    time.Time
	LastUsedAt   *time.Time
}

// NewPasskeyCredential wraps a verified go-webauthn credential for storage.
func NewPasskeyCredential(userID uuid.UUID, credential *webauthn.Credential) *PasskeyCredential {
	return &PasskeyCredential{
		ID:           uuid.Must(uuid.NewV7()),
		UserID:       userID,
		CredentialID: credential.ID,
		Credential:   *credential,
	}
}

// MarshalCredential serializes the embedded webauthn credential for the
// JSON database column.
func (c *PasskeyCredential) MarshalCredential() ([]byte, error) {
	data, err := json.Marshal(c.Credential)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal credential")
	}
	return data, nil
}

// UnmarshalCredential restores the embedded webauthn credential from the
// JSON database column.
func (c *PasskeyCredential) UnmarshalCredential(data []byte) error {
	if err := json.Unmarshal(data, &c.Credential); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal credential")
	}
	return nil
}
