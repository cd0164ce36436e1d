// Package domain defines the core types of the passkey-derived encryption
// subsystem: PRF parameters, the session master key, encrypted field
// envelopes, and the record-identity context bound into every ciphertext.
package domain

// Algorithm represents the AEAD algorithm used for field encryption.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

const (
	// MasterKeySize is the size in bytes of the derived symmetric master key (256 bits).
	MasterKeySize = 32

	// PRFSaltSize is the size in bytes of the salt handed to the authenticator's
	// PRF extension and to the key derivation step.
	PRFSaltSize = 32

	// PRFOutputSize is the expected size in bytes of the authenticator's PRF
	// extension output (first 32 bytes of an HMAC-SHA256 evaluation).
	PRFOutputSize = 32
)

// Envelope schema versions. The version stored in an envelope selects the
// AEAD algorithm at decryption time; an unknown version is a hard failure,
// never a fallback.
const (
	// EnvelopeV1 encrypts with AES-256-GCM.
	EnvelopeV1 = 1

	// EnvelopeV2 encrypts with ChaCha20-Poly1305.
	EnvelopeV2 = 2

	// CurrentEnvelopeVersion is the schema version used for new envelopes.
	CurrentEnvelopeVersion = EnvelopeV1
)

// AlgorithmForVersion maps an envelope schema version to its AEAD algorithm.
// Returns false for versions this build does not understand.
func AlgorithmForVersion(version int) (Algorithm, bool) {
	switch version {
	case EnvelopeV1:
		return AESGCM, true
	case EnvelopeV2:
		return ChaCha20, true
	default:
		return "", false
	}
}

// EncryptedPlaceholder is the opaque value surfaced for a field that failed
// to decrypt. One unreadable field must not block rendering of its siblings.
const EncryptedPlaceholder = "(encrypted)"

// BlobFieldName is the reserved AAD field name under which opaque attachments
// are sealed, keeping blob envelopes distinct from structured field envelopes.
const BlobFieldName = "blob"
