package authflow

import (
	"context"

	"github.com/google/uuid"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
)

// AccountStatus is the read-only answer to "does this email have an account,
// and does that account have a passkey".
type AccountStatus struct {
	Exists     bool
	HasPasskey bool
}

// VerifiedIdentity is the outcome of a successful code verification: the
// account plus the facts that decide the next step.
type VerifiedIdentity struct {
	UserID       uuid.UUID
	Email        string
	HasPasskey   bool
	HasPRFParams bool
}

// Directory answers account questions and stores PRF parameters server-side.
type Directory interface {
	// CheckEmail reports whether an account exists for the email and whether
	// it has a registered passkey. Read-only; never creates anything.
	CheckEmail(ctx context.Context, email string) (*AccountStatus, error)

	// GetPRFParams returns the stored PRF parameters for a user. Absence is
	// reported through the errors.ErrNotFound chain.
	GetPRFParams(ctx context.Context, userID uuid.UUID) (e2eeDomain.PRFParams, error)

	// SavePRFParams upserts the PRF parameters for a user. Salts are not
	// secret; the record is stored ciphertext-free.
	SavePRFParams(ctx context.Context, userID uuid.UUID, params e2eeDomain.PRFParams) error
}

// Verifier drives the email OTP path.
type Verifier interface {
	// StartVerification dispatches a code to an existing account.
	StartVerification(ctx context.Context, email string) error

	// ConfirmGeo records the jurisdictional confirmation, creating the
	// account if it does not exist, and dispatches the first code.
	ConfirmGeo(ctx context.Context, email string) error

	// VerifyCode checks a submitted code and returns the verified identity.
	VerifyCode(ctx context.Context, email, code string) (*VerifiedIdentity, error)

	// ResendCode requests a fresh code, subject to a cooldown.
	ResendCode(ctx context.Context, email string) error
}

// Challenge is the server's half of a WebAuthn ceremony: an opaque payload
// the authenticator signs, plus the PRF salt to evaluate alongside it (nil
// when the extension is not requested).
type Challenge struct {
	Payload []byte
	PRFSalt []byte
}

// CeremonyResponse is the authenticator's half: the signed payload forwarded
// verbatim to the server, and the PRF output, which stays client-side and is
// never transmitted.
type CeremonyResponse struct {
	Payload      []byte
	CredentialID []byte
	PRFOutput    []byte
}

// CeremonyResult is the server-verified outcome of a finished ceremony.
type CeremonyResult struct {
	UserID       uuid.UUID
	Email        string
	CredentialID []byte
}

// CeremonyService runs the server side of WebAuthn ceremonies. Implementations
// must release any server-side ceremony reservation when a begun ceremony is
// abandoned without a finish.
type CeremonyService interface {
	BeginRegistration(ctx context.Context, userID uuid.UUID, prfSalt []byte) (*Challenge, error)
	FinishRegistration(ctx context.Context, userID uuid.UUID, payload []byte) (*CeremonyResult, error)
	BeginLogin(ctx context.Context, email string, prfSalt []byte) (*Challenge, error)
	FinishLogin(ctx context.Context, email string, payload []byte) (*CeremonyResult, error)
}

// Authenticator models the user's device. Both calls block until the user
// completes or dismisses the prompt; cancellation and timeouts surface as
// errors and the flow stays on its current step.
type Authenticator interface {
	// Create answers a registration challenge with a new credential.
	Create(ctx context.Context, challenge Challenge) (*CeremonyResponse, error)

	// Assert answers a login challenge with an existing credential.
	Assert(ctx context.Context, challenge Challenge) (*CeremonyResponse, error)
}
