package domain

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"github.com/sealkeep/sealkeep/internal/errors"
)

// PRFParams are the per-user parameters fed into master key derivation: the
// salt handed to the authenticator's PRF extension and the derivation version.
//
// Salts are not secret; they are persisted server-side in the clear and may
// be cached locally. One active record exists per user, created when the user
// first links a passkey for encryption and immutable except through a
// rotation that re-encrypts every field.
type PRFParams struct {
	// Salt is the 32-byte PRF evaluation salt, also used as HKDF salt.
	Salt []byte
	// CredentialID identifies the passkey credential the salt was evaluated with.
	CredentialID []byte
	// Version is the derivation version. Bumping it changes the derived key
	// even for an identical PRF output, so rotation never reuses keys.
	Version int
}

// prfParamsJSON is the persisted/wire form: salt is standard base64,
// credential_id is unpadded base64url (the WebAuthn convention).
type prfParamsJSON struct {
	Salt         string `json:"salt"`
	CredentialID string `json:"credential_id"`
	Version      int    `json:"version"`
}

// MarshalJSON encodes the params in the persisted wire shape.
func (p PRFParams) MarshalJSON() ([]byte, error) {
	return json.Marshal(prfParamsJSON{
		Salt:         base64.StdEncoding.EncodeToString(p.Salt),
		CredentialID: base64.RawURLEncoding.EncodeToString(p.CredentialID),
		Version:      p.Version,
	})
}

// UnmarshalJSON decodes the persisted wire shape.
func (p *PRFParams) UnmarshalJSON(data []byte) error {
	var raw prfParamsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "malformed prf params")
	}

	salt, err := base64.StdEncoding.DecodeString(raw.Salt)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "malformed prf params salt")
	}

	credentialID, err := base64.RawURLEncoding.DecodeString(raw.CredentialID)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "malformed prf params credential id")
	}

	p.Salt = salt
	p.CredentialID = credentialID
	p.Version = raw.Version
	return nil
}

// Equal reports whether two parameter sets would derive the same key space.
func (p PRFParams) Equal(other PRFParams) bool {
	return p.Version == other.Version && bytes.Equal(p.Salt, other.Salt)
}
