package domain

import (
	"github.com/sealkeep/sealkeep/internal/errors"
)

// Identity domain error definitions.
var (
	// ErrUserNotFound indicates no account exists for the given identifier.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates an account already exists for the email.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrGeoConfirmationRequired indicates account creation was attempted
	// before the jurisdictional confirmation step.
	ErrGeoConfirmationRequired = errors.Wrap(errors.ErrForbidden, "geographic confirmation required")

	// ErrOTPNotFound indicates no active verification code exists for the user.
	ErrOTPNotFound = errors.Wrap(errors.ErrNotFound, "verification code not found")

	// ErrOTPExpired indicates the verification code has passed its expiry.
	ErrOTPExpired = errors.Wrap(errors.ErrUnauthorized, "verification code expired")

	// ErrOTPConsumed indicates the verification code was already used.
	ErrOTPConsumed = errors.Wrap(errors.ErrUnauthorized, "verification code already used")

	// ErrInvalidCode indicates the submitted code does not match.
	ErrInvalidCode = errors.Wrap(errors.ErrUnauthorized, "invalid verification code")

	// ErrTooManyAttempts indicates the attempt budget for the active code is spent.
	ErrTooManyAttempts = errors.Wrap(errors.ErrForbidden, "too many verification attempts")

	// ErrResendCooldown indicates a resend was requested before the cooldown elapsed.
	ErrResendCooldown = errors.Wrap(errors.ErrForbidden, "resend requested too soon")

	// ErrCredentialNotFound indicates no passkey credential matches.
	ErrCredentialNotFound = errors.Wrap(errors.ErrNotFound, "passkey credential not found")

	// ErrCredentialAlreadyExists indicates the credential ID is already registered.
	ErrCredentialAlreadyExists = errors.Wrap(errors.ErrConflict, "passkey credential already exists")

	// ErrPRFParamsNotFound indicates the user has no stored PRF parameters.
	ErrPRFParamsNotFound = errors.Wrap(errors.ErrNotFound, "prf parameters not found")

	// ErrCeremonyOutstanding indicates a WebAuthn ceremony is already pending
	// for the session. Only one ceremony may be outstanding at a time.
	ErrCeremonyOutstanding = errors.Wrap(errors.ErrConflict, "a webauthn ceremony is already in progress")

	// ErrCeremonyNotFound indicates a finish was attempted with no pending ceremony.
	ErrCeremonyNotFound = errors.Wrap(errors.ErrNotFound, "no pending webauthn ceremony")
)
