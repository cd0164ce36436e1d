// Package service implements the cryptographic services of the encryption
// subsystem: AEAD ciphers, master key derivation from PRF outputs, and the
// authenticated field codec used for every encrypted column.
package service

import (
	"context"

	"github.com/google/uuid"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg e2eeDomain.Algorithm) (AEAD, error)
}

// KeyDeriver turns a PRF extension output plus stored parameters into a
// session master key. Implementations are pure: no I/O, deterministic for a
// fixed input.
type KeyDeriver interface {
	// DeriveMasterKey derives the 256-bit master key for userID from the raw
	// PRF output and the user's stored parameters.
	DeriveMasterKey(
		userID uuid.UUID,
		prfOutput []byte,
		params e2eeDomain.PRFParams,
	) (*e2eeDomain.MasterKey, error)
}

// FieldCodec encrypts and decrypts individual structured fields, binding each
// ciphertext to its owning record via AAD.
type FieldCodec interface {
	// EncryptField seals one plaintext field into an envelope under the
	// current schema version.
	EncryptField(
		plaintext []byte,
		key *e2eeDomain.MasterKey,
		aad e2eeDomain.AADContext,
	) (e2eeDomain.EncryptedEnvelope, error)

	// DecryptField opens one envelope. Any integrity failure (wrong key,
	// tampered data, mismatched AAD, unknown version) returns an error and
	// no plaintext.
	DecryptField(
		envelope e2eeDomain.EncryptedEnvelope,
		key *e2eeDomain.MasterKey,
		aad e2eeDomain.AADContext,
	) ([]byte, error)

	// EncryptObject seals each field of a structured object independently,
	// scoping the AAD to (record, field name) so partial updates re-encrypt
	// only the touched fields.
	EncryptObject(
		fields map[string][]byte,
		key *e2eeDomain.MasterKey,
		base e2eeDomain.AADContext,
	) (map[string]e2eeDomain.EncryptedEnvelope, error)

	// DecryptObject opens each field independently. Failed fields carry the
	// opaque placeholder instead of aborting the whole object; the count of
	// failures is returned for logging.
	DecryptObject(
		envelopes map[string]e2eeDomain.EncryptedEnvelope,
		key *e2eeDomain.MasterKey,
		base e2eeDomain.AADContext,
	) (fields map[string][]byte, failed int)

	// DecryptBatch decrypts a list of independent records concurrently.
	// Results are positional; a corrupt envelope fails only its own slot.
	DecryptBatch(
		ctx context.Context,
		key *e2eeDomain.MasterKey,
		records []BatchRecord,
	) []BatchResult
}
