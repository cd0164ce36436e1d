// Package usecase implements the identity business logic: enumeration-safe
// email verification and passkey ceremony orchestration.
package usecase

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/sealkeep/sealkeep/internal/database"
	apperrors "github.com/sealkeep/sealkeep/internal/errors"
	"github.com/sealkeep/sealkeep/internal/identity/domain"
	"github.com/sealkeep/sealkeep/internal/identity/service"
	"github.com/sealkeep/sealkeep/internal/metrics"
	appValidation "github.com/sealkeep/sealkeep/internal/validation"
)

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// OTPRepository defines email OTP persistence operations.
type OTPRepository interface {
	Create(ctx context.Context, otp *domain.EmailOTP) error
	GetLatestByUserID(ctx context.Context, userID uuid.UUID) (*domain.EmailOTP, error)
	Update(ctx context.Context, otp *domain.EmailOTP) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// CredentialRepository defines passkey credential persistence operations.
type CredentialRepository interface {
	Create(ctx context.Context, credential *domain.PasskeyCredential) error
	GetByUserID(ctx context.Context, userID uuid.UUID) ([]domain.PasskeyCredential, error)
	Update(ctx context.Context, credential *domain.PasskeyCredential) error
}

// PRFParamsRepository defines PRF parameter persistence operations.
// One row per user, upserted.
type PRFParamsRepository interface {
	Upsert(ctx context.Context, record *domain.PRFParamsRecord) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.PRFParamsRecord, error)
}

// CheckEmailOutput is the read-only existence probe result.
type CheckEmailOutput struct {
	AccountExists bool
	HasPasskey    bool
}

// VerifyCodeOutput carries the verified user plus the facts the flow needs
// to pick its next step.
type VerifyCodeOutput struct {
	User         *domain.User
	HasPasskey   bool
	HasPRFParams bool
}

// VerificationUseCase defines the email verification business logic.
type VerificationUseCase interface {
	CheckEmail(ctx context.Context, email string) (*CheckEmailOutput, error)
	StartVerification(ctx context.Context, email string) error
	ConfirmGeo(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*VerifyCodeOutput, error)
	ResendCode(ctx context.Context, email string) error
}

// VerificationConfig holds the tunable parameters of the verification flow.
type VerificationConfig struct {
	CodeLength     int
	CodeExpiration time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
}

// EmailVerificationUseCase implements VerificationUseCase.
//
// Enumeration prevention: StartVerification and ResendCode report success
// even when the account does not exist or an internal step failed; the only
// observable difference would otherwise reveal whether an email is
// registered. Failures are logged and counted, never surfaced.
type EmailVerificationUseCase struct {
	txManager      database.TxManager
	userRepo       UserRepository
	otpRepo        OTPRepository
	credentialRepo CredentialRepository
	prfParamsRepo  PRFParamsRepository
	otpService     service.OTPService
	mailer         service.Mailer
	config         VerificationConfig
	logger         *slog.Logger

	// metrics is used directly only for the send path: those failures are
	// deliberately invisible in return values, so a decorator cannot see them.
	metrics metrics.BusinessMetrics

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewEmailVerificationUseCase creates a new EmailVerificationUseCase.
func NewEmailVerificationUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	otpRepo OTPRepository,
	credentialRepo CredentialRepository,
	prfParamsRepo PRFParamsRepository,
	otpService service.OTPService,
	mailer service.Mailer,
	config VerificationConfig,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *EmailVerificationUseCase {
	return &EmailVerificationUseCase{
		txManager:      txManager,
		userRepo:       userRepo,
		otpRepo:        otpRepo,
		credentialRepo: credentialRepo,
		prfParamsRepo:  prfParamsRepo,
		otpService:     otpService,
		mailer:         mailer,
		config:         config,
		logger:         logger,
		metrics:        businessMetrics,
		limiters:       make(map[string]*rate.Limiter),
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (uc *EmailVerificationUseCase) validateEmail(email string) error {
	err := validation.Validate(email,
		validation.Required.Error("email is required"),
		appValidation.NotBlank,
		appValidation.Email,
		validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
	)
	return appValidation.WrapValidationError(err)
}

// CheckEmail probes whether an account exists and has a passkey on file.
// Lookup failures degrade to "does not exist" so the error shape never
// leaks account existence.
func (uc *EmailVerificationUseCase) CheckEmail(ctx context.Context, email string) (*CheckEmailOutput, error) {
	if err := uc.validateEmail(email); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)

	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			uc.logger.ErrorContext(ctx, "email existence check failed", "error", err)
		}
		return &CheckEmailOutput{}, nil
	}

	credentials, err := uc.credentialRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		uc.logger.ErrorContext(ctx, "credential lookup failed", "error", err)
		return &CheckEmailOutput{AccountExists: true}, nil
	}

	return &CheckEmailOutput{
		AccountExists: true,
		HasPasskey:    len(credentials) > 0,
	}, nil
}

// StartVerification issues an OTP to an existing account. For unknown emails
// it reports success without dispatching anything: account creation requires
// the geographic confirmation step first.
func (uc *EmailVerificationUseCase) StartVerification(ctx context.Context, email string) error {
	if err := uc.validateEmail(email); err != nil {
		return err
	}
	email = normalizeEmail(email)

	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			uc.logger.ErrorContext(ctx, "user lookup failed during verification start", "error", err)
		}
		return nil
	}

	uc.issueCode(ctx, user)
	return nil
}

// ConfirmGeo records the jurisdictional confirmation, creating the account
// if it does not exist yet, then issues the first OTP. This is the only path
// that creates an account record.
func (uc *EmailVerificationUseCase) ConfirmGeo(ctx context.Context, email string) error {
	if err := uc.validateEmail(email); err != nil {
		return err
	}
	email = normalizeEmail(email)

	var user *domain.User
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		existing, err := uc.userRepo.GetByEmail(ctx, email)
		if err == nil {
			user = existing
			return nil
		}
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		user = &domain.User{
			ID:             uuid.Must(uuid.NewV7()),
			Email:          email,
			GeoConfirmedAt: &now,
		}
		return uc.userRepo.Create(ctx, user)
	})
	if err != nil {
		return err
	}

	uc.issueCode(ctx, user)
	return nil
}

// VerifyCode checks a submitted code against the user's latest active OTP.
// Attempt counting, expiry, and single-use consumption happen inside one
// transaction so concurrent submissions cannot double-spend a code.
func (uc *EmailVerificationUseCase) VerifyCode(ctx context.Context, email, code string) (*VerifyCodeOutput, error) {
	if err := uc.validateEmail(email); err != nil {
		return nil, err
	}
	if err := appValidation.WrapValidationError(validation.Validate(code,
		validation.Required.Error("code is required"),
		appValidation.NumericCode(uc.config.CodeLength),
	)); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)

	var user *domain.User
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = uc.userRepo.GetByEmail(ctx, email)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				// Indistinguishable from a wrong code.
				return domain.ErrInvalidCode
			}
			return err
		}

		otp, err := uc.otpRepo.GetLatestByUserID(ctx, user.ID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return domain.ErrInvalidCode
			}
			return err
		}

		if otp.IsConsumed() {
			return domain.ErrOTPConsumed
		}
		if otp.IsExpired(time.Now().UTC()) {
			return domain.ErrOTPExpired
		}
		if otp.Attempts >= uc.config.MaxAttempts {
			return domain.ErrTooManyAttempts
		}

		otp.Attempts++
		if err := uc.otpRepo.Update(ctx, otp); err != nil {
			return err
		}

		ok, err := uc.otpService.VerifyCode(code, otp.CodeHash)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidCode
		}

		now := time.Now().UTC()
		otp.ConsumedAt = &now
		if err := uc.otpRepo.Update(ctx, otp); err != nil {
			return err
		}

		user.EmailVerifiedAt = &now
		return uc.userRepo.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	credentials, err := uc.credentialRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	hasPRFParams := true
	if _, err := uc.prfParamsRepo.GetByUserID(ctx, user.ID); err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		hasPRFParams = false
	}

	return &VerifyCodeOutput{
		User:         user,
		HasPasskey:   len(credentials) > 0,
		HasPRFParams: hasPRFParams,
	}, nil
}

// ResendCode re-issues a code for an existing account, gated by a per-email
// cooldown.
func (uc *EmailVerificationUseCase) ResendCode(ctx context.Context, email string) error {
	if err := uc.validateEmail(email); err != nil {
		return err
	}
	email = normalizeEmail(email)

	if !uc.limiter(email).Allow() {
		return domain.ErrResendCooldown
	}

	return uc.StartVerification(ctx, email)
}

// limiter returns the cooldown limiter for an email, creating it on first use.
func (uc *EmailVerificationUseCase) limiter(email string) *rate.Limiter {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	limiter, ok := uc.limiters[email]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(uc.config.ResendCooldown), 1)
		uc.limiters[email] = limiter
	}
	return limiter
}

// issueCode generates, stores, and dispatches a fresh OTP. Failures are
// logged and swallowed: the caller always reports generic success.
func (uc *EmailVerificationUseCase) issueCode(ctx context.Context, user *domain.User) {
	code, err := uc.otpService.GenerateCode()
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to generate verification code", "error", err)
		uc.metrics.RecordOperation(ctx, "identity", "otp_send", "error")
		return
	}

	hash, err := uc.otpService.HashCode(code)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to hash verification code", "error", err)
		uc.metrics.RecordOperation(ctx, "identity", "otp_send", "error")
		return
	}

	otp := &domain.EmailOTP{
		ID:        uuid.Must(uuid.NewV7()),
		UserID:    user.ID,
		CodeHash:  hash,
		ExpiresAt: time.Now().UTC().Add(uc.config.CodeExpiration),
	}
	if err := uc.otpRepo.Create(ctx, otp); err != nil {
		uc.logger.ErrorContext(ctx, "failed to store verification code", "error", err)
		uc.metrics.RecordOperation(ctx, "identity", "otp_send", "error")
		return
	}

	if err := uc.mailer.SendVerificationCode(ctx, user.Email, code); err != nil {
		uc.logger.ErrorContext(ctx, "failed to dispatch verification code", "error", err)
		uc.metrics.RecordOperation(ctx, "identity", "otp_send", "error")
		return
	}

	uc.metrics.RecordOperation(ctx, "identity", "otp_send", "success")
}
