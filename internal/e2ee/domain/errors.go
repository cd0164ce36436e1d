package domain

import (
	"github.com/sealkeep/sealkeep/internal/errors"
)

// Encryption subsystem error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// so the HTTP layer can map them without knowing cryptographic detail.
var (
	// ErrUnsupportedAlgorithm indicates the requested AEAD algorithm is not supported.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key or salt of incorrect length was provided.
	// Master keys and PRF salts must both be exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrDecryptionFailed indicates an AEAD open failed: wrong key, tampered
	// ciphertext or IV, or mismatched record context (AAD). The specific cause
	// is deliberately not disclosed.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrUnknownEnvelopeVersion indicates an envelope carries a schema version
	// this build does not understand. Treated as a hard decryption failure.
	ErrUnknownEnvelopeVersion = errors.Wrap(errors.ErrInvalidInput, "unknown envelope version")

	// ErrPRFUnsupported indicates the authenticator did not produce a PRF
	// extension output. Callers must fall back to the manual unlock path
	// instead of deriving a key from empty input.
	ErrPRFUnsupported = errors.Wrap(errors.ErrInvalidInput, "authenticator does not support the PRF extension")

	// ErrKeyUnavailable indicates no master key is cached for the session.
	// Callers must treat this as a blocking precondition, not best-effort.
	ErrKeyUnavailable = errors.Wrap(errors.ErrUnauthorized, "master key unavailable")

	// ErrAccountMismatch indicates cached key material belongs to a different
	// account than the one currently authenticated. The cache fails closed.
	ErrAccountMismatch = errors.Wrap(errors.ErrForbidden, "cached key material belongs to a different account")
)
