package domain

import (
	"encoding/base64"
	"encoding/json"

	"github.com/sealkeep/sealkeep/internal/errors"
)

// EncryptedEnvelope is the wire and storage representation of one encrypted
// field: a fresh initialization vector, the AEAD ciphertext (authentication
// tag included), and the schema version that produced it.
//
// The JSON shape {"iv": base64, "ciphertext": base64, "version": int} is a
// de facto wire contract; other services that round-trip encrypted columns
// must preserve it byte-compatibly.
type EncryptedEnvelope struct {
	IV         []byte
	Ciphertext []byte
	Version    int
}

// envelopeJSON is the serialized form of EncryptedEnvelope.
type envelopeJSON struct {
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	Version    int    `json:"version"`
}

// MarshalJSON encodes the envelope with standard-base64 binary fields.
func (e EncryptedEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(envelopeJSON{
		IV:         base64.StdEncoding.EncodeToString(e.IV),
		Ciphertext: base64.StdEncoding.EncodeToString(e.Ciphertext),
		Version:    e.Version,
	})
}

// UnmarshalJSON decodes the envelope wire shape.
func (e *EncryptedEnvelope) UnmarshalJSON(data []byte) error {
	var raw envelopeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "malformed envelope")
	}

	iv, err := base64.StdEncoding.DecodeString(raw.IV)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "malformed envelope iv")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(raw.Ciphertext)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "malformed envelope ciphertext")
	}

	e.IV = iv
	e.Ciphertext = ciphertext
	e.Version = raw.Version
	return nil
}
