package app

import (
	"fmt"

	"github.com/sealkeep/sealkeep/internal/authflow"
	"github.com/sealkeep/sealkeep/internal/e2ee/session"
)

// NewAuthFlow assembles a sign-in flow over the identity use cases. Unlike the
// other accessors this is not a singleton: each call returns an independent
// flow with its own keyring and salt cache, scoped to one sign-in attempt.
// The authenticator is supplied by the caller because it represents the user's
// device, not an application component.
func (c *Container) NewAuthFlow(authenticator authflow.Authenticator) (*authflow.Flow, error) {
	verificationUseCase, err := c.VerificationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification use case for auth flow: %w", err)
	}

	passkeyUseCase, err := c.PasskeyUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passkey use case for auth flow: %w", err)
	}

	keyDeriver, err := c.KeyDeriver()
	if err != nil {
		return nil, fmt.Errorf("failed to get key deriver for auth flow: %w", err)
	}

	logger := c.Logger()
	return authflow.NewFlow(
		authflow.NewIdentityDirectory(verificationUseCase, passkeyUseCase),
		authflow.NewIdentityVerifier(verificationUseCase, passkeyUseCase),
		authflow.NewIdentityCeremonies(passkeyUseCase),
		authenticator,
		keyDeriver,
		session.NewKeyring(logger),
		session.NewSaltCache(),
		logger,
	), nil
}
