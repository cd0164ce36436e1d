package app

import (
	"fmt"

	identityHTTP "github.com/sealkeep/sealkeep/internal/identity/http"
	identityRepository "github.com/sealkeep/sealkeep/internal/identity/repository"
	identityService "github.com/sealkeep/sealkeep/internal/identity/service"
	identityUseCase "github.com/sealkeep/sealkeep/internal/identity/usecase"
)

// UserRepository returns the user repository instance.
func (c *Container) UserRepository() (identityUseCase.UserRepository, error) {
	c.userRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["userRepo"] = fmt.Errorf("failed to get database for user repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.userRepo = identityRepository.NewMySQLUserRepository(db)
		case "postgres":
			c.userRepo = identityRepository.NewPostgreSQLUserRepository(db)
		default:
			c.initErrors["userRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// OTPRepository returns the email OTP repository instance.
func (c *Container) OTPRepository() (identityUseCase.OTPRepository, error) {
	c.otpRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["otpRepo"] = fmt.Errorf("failed to get database for otp repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.otpRepo = identityRepository.NewMySQLOTPRepository(db)
		case "postgres":
			c.otpRepo = identityRepository.NewPostgreSQLOTPRepository(db)
		default:
			c.initErrors["otpRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["otpRepo"]; exists {
		return nil, storedErr
	}
	return c.otpRepo, nil
}

// CredentialRepository returns the passkey credential repository instance.
func (c *Container) CredentialRepository() (identityUseCase.CredentialRepository, error) {
	c.credentialRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["credentialRepo"] = fmt.Errorf("failed to get database for credential repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.credentialRepo = identityRepository.NewMySQLCredentialRepository(db)
		case "postgres":
			c.credentialRepo = identityRepository.NewPostgreSQLCredentialRepository(db)
		default:
			c.initErrors["credentialRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["credentialRepo"]; exists {
		return nil, storedErr
	}
	return c.credentialRepo, nil
}

// PRFParamsRepository returns the PRF parameters repository instance.
func (c *Container) PRFParamsRepository() (identityUseCase.PRFParamsRepository, error) {
	c.prfParamsRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["prfParamsRepo"] = fmt.Errorf("failed to get database for prf params repository: %w", err)
			return
		}

		switch c.config.DBDriver {
		case "mysql":
			c.prfParamsRepo = identityRepository.NewMySQLPRFParamsRepository(db)
		case "postgres":
			c.prfParamsRepo = identityRepository.NewPostgreSQLPRFParamsRepository(db)
		default:
			c.initErrors["prfParamsRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["prfParamsRepo"]; exists {
		return nil, storedErr
	}
	return c.prfParamsRepo, nil
}

// OTPService returns the verification code service instance.
func (c *Container) OTPService() (identityService.OTPService, error) {
	c.otpServiceInit.Do(func() {
		otpService, err := identityService.NewOTPService(c.config.OTPLength)
		if err != nil {
			c.initErrors["otpService"] = fmt.Errorf("failed to create otp service: %w", err)
			return
		}
		c.otpService = otpService
	})
	if storedErr, exists := c.initErrors["otpService"]; exists {
		return nil, storedErr
	}
	return c.otpService, nil
}

// CeremonyService returns the WebAuthn ceremony service instance.
func (c *Container) CeremonyService() (identityService.CeremonyService, error) {
	c.ceremonyServiceInit.Do(func() {
		ceremonyService, err := identityService.NewWebAuthnService(
			c.config.RPID,
			c.config.RPDisplayName,
			c.config.RPOriginList(),
			c.config.CeremonyTimeout,
			c.Logger(),
		)
		if err != nil {
			c.initErrors["ceremonyService"] = fmt.Errorf("failed to create webauthn service: %w", err)
			return
		}
		c.ceremonyService = ceremonyService
	})
	if storedErr, exists := c.initErrors["ceremonyService"]; exists {
		return nil, storedErr
	}
	return c.ceremonyService, nil
}

// Mailer returns the verification code mailer instance.
func (c *Container) Mailer() (identityService.Mailer, error) {
	c.mailerInit.Do(func() {
		c.mailer = identityService.NewLogMailer(c.Logger())
	})
	return c.mailer, nil
}

// VerificationUseCase returns the email verification use case instance.
func (c *Container) VerificationUseCase() (identityUseCase.VerificationUseCase, error) {
	c.verificationUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["verificationUseCase"] = fmt.Errorf("failed to get tx manager for verification use case: %w", err)
			return
		}

		userRepo, err := c.UserRepository()
		if err != nil {
			c.initErrors["verificationUseCase"] = fmt.Errorf("failed to get user repository for verification use case: %w", err)
			return
		}

		otpRepo, err := c.OTPRepository()
		if err != nil {
			c.initErrors["verificationUseCase"] = fmt.Errorf("failed to get otp repository for verification use case: %w", err)
			return
		}

		credentialRepo, err := c.CredentialRepository()
		if err != nil {
			c.initErrors["verificationUseCase"] = fmt.Errorf("failed to get credential repository for verification use case: %w", err)
			return
		}

		prfParamsRepo, err := c.PRFParamsRepository()
		if err != nil {
			c.initErrors["verificationUseCase"] = fmt.Errorf("failed to get prf params repository for verification use case: %w", err)
			return
		}

		otpService, err := c.OTPService()
		if err != nil {
			c.initErrors["verificationUseCase"] = fmt.Errorf("failed to get otp service for verification use case: %w", err)
			return
		}

		mailer, err := c.Mailer()
		if err != nil {
			c.initErrors["verificationUseCase"] = fmt.Errorf("failed to get mailer for verification use case: %w", err)
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["verificationUseCase"] = fmt.Errorf("failed to get business metrics for verification use case: %w", err)
			return
		}

		c.verificationUseCase = identityUseCase.NewVerificationUseCaseWithMetrics(
			identityUseCase.NewEmailVerificationUseCase(
				txManager,
				userRepo,
				otpRepo,
				credentialRepo,
				prfParamsRepo,
				otpService,
				mailer,
				identityUseCase.VerificationConfig{
					CodeLength:     c.config.OTPLength,
					CodeExpiration: c.config.OTPExpiration,
					MaxAttempts:    c.config.OTPMaxAttempts,
					ResendCooldown: c.config.OTPResendCooldown,
				},
				c.Logger(),
				businessMetrics,
			),
			businessMetrics,
		)
	})
	if storedErr, exists := c.initErrors["verificationUseCase"]; exists {
		return nil, storedErr
	}
	return c.verificationUseCase, nil
}

// PasskeyUseCase returns the passkey use case instance.
func (c *Container) PasskeyUseCase() (identityUseCase.PasskeyUseCase, error) {
	c.passkeyUseCaseInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["passkeyUseCase"] = fmt.Errorf("failed to get tx manager for passkey use case: %w", err)
			return
		}

		userRepo, err := c.UserRepository()
		if err != nil {
			c.initErrors["passkeyUseCase"] = fmt.Errorf("failed to get user repository for passkey use case: %w", err)
			return
		}

		credentialRepo, err := c.CredentialRepository()
		if err != nil {
			c.initErrors["passkeyUseCase"] = fmt.Errorf("failed to get credential repository for passkey use case: %w", err)
			return
		}

		prfParamsRepo, err := c.PRFParamsRepository()
		if err != nil {
			c.initErrors["passkeyUseCase"] = fmt.Errorf("failed to get prf params repository for passkey use case: %w", err)
			return
		}

		ceremonies, err := c.CeremonyService()
		if err != nil {
			c.initErrors["passkeyUseCase"] = fmt.Errorf("failed to get ceremony service for passkey use case: %w", err)
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["passkeyUseCase"] = fmt.Errorf("failed to get business metrics for passkey use case: %w", err)
			return
		}

		c.passkeyUseCase = identityUseCase.NewPasskeyUseCaseWithMetrics(
			identityUseCase.NewWebAuthnPasskeyUseCase(
				txManager,
				userRepo,
				credentialRepo,
				prfParamsRepo,
				ceremonies,
				c.Logger(),
			),
			businessMetrics,
		)
	})
	if storedErr, exists := c.initErrors["passkeyUseCase"]; exists {
		return nil, storedErr
	}
	return c.passkeyUseCase, nil
}

// AuthHandler returns the email verification HTTP handler.
func (c *Container) AuthHandler() (*identityHTTP.AuthHandler, error) {
	c.authHandlerInit.Do(func() {
		verificationUseCase, err := c.VerificationUseCase()
		if err != nil {
			c.initErrors["authHandler"] = fmt.Errorf("failed to get verification use case for auth handler: %w", err)
			return
		}
		c.authHandler = identityHTTP.NewAuthHandler(verificationUseCase, c.Logger())
	})
	if storedErr, exists := c.initErrors["authHandler"]; exists {
		return nil, storedErr
	}
	return c.authHandler, nil
}

// PasskeyHandler returns the passkey HTTP handler.
func (c *Container) PasskeyHandler() (*identityHTTP.PasskeyHandler, error) {
	c.passkeyHandlerInit.Do(func() {
		passkeyUseCase, err := c.PasskeyUseCase()
		if err != nil {
			c.initErrors["passkeyHandler"] = fmt.Errorf("failed to get passkey use case for passkey handler: %w", err)
			return
		}
		c.passkeyHandler = identityHTTP.NewPasskeyHandler(passkeyUseCase, c.Logger())
	})
	if storedErr, exists := c.initErrors["passkeyHandler"]; exists {
		return nil, storedErr
	}
	return c.passkeyHandler, nil
}
