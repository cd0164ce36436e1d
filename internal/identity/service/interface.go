// Package service implements the identity-side services: OTP generation and
// verification, WebAuthn ceremony handling with the PRF extension, and
// outbound mail.
package service

import (
	"context"
	"net/http"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	"github.com/sealkeep/sealkeep/internal/identity/domain"
)

// OTPService generates and verifies email verification codes. Codes are
// hashed before storage; the plaintext never touches the database or logs.
type OTPService interface {
	// GenerateCode returns a fresh numeric code of the configured length.
	GenerateCode() (string, error)

	// HashCode hashes a code for at-rest storage.
	HashCode(code string) (string, error)

	// VerifyCode checks a submitted code against a stored hash.
	VerifyCode(code, hash string) (bool, error)
}

// Mailer delivers verification codes to users.
type Mailer interface {
	// SendVerificationCode delivers a code to the given address.
	SendVerificationCode(ctx context.Context, email, code string) error
}

// CeremonyService runs WebAuthn registration and login ceremonies, requesting
// the PRF extension so authenticators return key material to the client.
// Implementations enforce at most one outstanding ceremony per user.
type CeremonyService interface {
	// BeginRegistration starts a credential creation ceremony. The PRF salt
	// is embedded in the extension inputs so a supporting authenticator
	// evaluates it during the same touch.
	BeginRegistration(
		user *domain.WebAuthnUser,
		prfSalt []byte,
	) (*protocol.CredentialCreation, error)

	// FinishRegistration verifies the attestation response and returns the
	// new credential.
	FinishRegistration(
		user *domain.WebAuthnUser,
		request *http.Request,
	) (*webauthn.Credential, error)

	// BeginLogin starts an assertion ceremony. A non-nil prfSalt requests
	// inline PRF evaluation (the single-touch optimization); nil skips the
	// extension.
	BeginLogin(
		user *domain.WebAuthnUser,
		prfSalt []byte,
	) (*protocol.CredentialAssertion, error)

	// FinishLogin verifies the assertion response and returns the credential
	// that signed it.
	FinishLogin(
		user *domain.WebAuthnUser,
		request *http.Request,
	) (*webauthn.Credential, error)

	// Cancel drops any pending ceremony for the user. Safe when none exists.
	Cancel(userID uuid.UUID)
}
