package authflow

import (
	"github.com/sealkeep/sealkeep/internal/errors"
)

// Flow error definitions.
var (
	// ErrInvalidTransition indicates an operation was invoked from a step
	// that does not define it. The flow stays where it is.
	ErrInvalidTransition = errors.Wrap(errors.ErrConflict, "operation not available in current step")

	// ErrCeremonyOutstanding indicates a WebAuthn ceremony is already in
	// flight for this flow. Only one may be outstanding at a time.
	ErrCeremonyOutstanding = errors.Wrap(errors.ErrConflict, "a ceremony is already in progress")

	// ErrCeremonyFailed indicates the authenticator ceremony was cancelled,
	// timed out, or failed verification. The flow stays on its current step.
	ErrCeremonyFailed = errors.Wrap(errors.ErrUnauthorized, "ceremony did not complete")
)
