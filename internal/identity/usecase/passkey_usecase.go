package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/uuid"

	"github.com/sealkeep/sealkeep/internal/database"
	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
	apperrors "github.com/sealkeep/sealkeep/internal/errors"
	"github.com/sealkeep/sealkeep/internal/identity/domain"
	"github.com/sealkeep/sealkeep/internal/identity/service"
)

// UpsertPRFParamsInput carries new PRF parameters for a user. The server
// stores them verbatim: salts are generated client-side and are not secret.
type UpsertPRFParamsInput struct {
	UserID       uuid.UUID
	Salt         []byte
	CredentialID []byte
	Version      int
}

// PasskeyUseCase defines the passkey ceremony and PRF parameter business logic.
type PasskeyUseCase interface {
	BeginRegistration(ctx context.Context, userID uuid.UUID, prfSalt []byte) (*protocol.CredentialCreation, error)
	FinishRegistration(ctx context.Context, userID uuid.UUID, request *http.Request) (*domain.PasskeyCredential, error)
	BeginLogin(ctx context.Context, email string, prfSalt []byte) (*protocol.CredentialAssertion, error)
	FinishLogin(ctx context.Context, email string, request *http.Request) (*domain.User, error)
	GetPRFParams(ctx context.Context, userID uuid.UUID) (*domain.PRFParamsRecord, error)
	UpsertPRFParams(ctx context.Context, input UpsertPRFParamsInput) (*domain.PRFParamsRecord, error)
}

// WebAuthnPasskeyUseCase implements PasskeyUseCase.
type WebAuthnPasskeyUseCase struct {
	txManager      database.TxManager
	userRepo       UserRepository
	credentialRepo CredentialRepository
	prfParamsRepo  PRFParamsRepository
	ceremonies     service.CeremonyService
	logger         *slog.Logger
}

// NewWebAuthnPasskeyUseCase creates a new WebAuthnPasskeyUseCase.
func NewWebAuthnPasskeyUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	credentialRepo CredentialRepository,
	prfParamsRepo PRFParamsRepository,
	ceremonies service.CeremonyService,
	logger *slog.Logger,
) *WebAuthnPasskeyUseCase {
	return &WebAuthnPasskeyUseCase{
		txManager:      txManager,
		userRepo:       userRepo,
		credentialRepo: credentialRepo,
		prfParamsRepo:  prfParamsRepo,
		ceremonies:     ceremonies,
		logger:         logger,
	}
}

// loadWebAuthnUser assembles the ceremony-side view of a user.
func (uc *WebAuthnPasskeyUseCase) loadWebAuthnUser(ctx context.Context, user *domain.User) (*domain.WebAuthnUser, error) {
	credentials, err := uc.credentialRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &domain.WebAuthnUser{User: user, Credentials: credentials}, nil
}

// BeginRegistration starts a credential creation ceremony. Registration
// requires a verified email: the flow reaches this point only after OTP
// verification.
func (uc *WebAuthnPasskeyUseCase) BeginRegistration(
	ctx context.Context,
	userID uuid.UUID,
	prfSalt []byte,
) (*protocol.CredentialCreation, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified() {
		return nil, apperrors.Wrap(apperrors.ErrForbidden, "email not verified")
	}

	webAuthnUser, err := uc.loadWebAuthnUser(ctx, user)
	if err != nil {
		return nil, err
	}

	creation, err := uc.ceremonies.BeginRegistration(webAuthnUser, prfSalt)
	if err != nil {
		return nil, err
	}
	return creation, nil
}

// FinishRegistration verifies the attestation response and persists the new
// credential.
func (uc *WebAuthnPasskeyUseCase) FinishRegistration(
	ctx context.Context,
	userID uuid.UUID,
	request *http.Request,
) (*domain.PasskeyCredential, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	webAuthnUser, err := uc.loadWebAuthnUser(ctx, user)
	if err != nil {
		return nil, err
	}

	credential, err := uc.ceremonies.FinishRegistration(webAuthnUser, request)
	if err != nil {
		return nil, err
	}

	stored := domain.NewPasskeyCredential(user.ID, credential)
	if err := uc.credentialRepo.Create(ctx, stored); err != nil {
		return nil, err
	}

	return stored, nil
}

// BeginLogin starts an assertion ceremony for the account behind an email.
func (uc *WebAuthnPasskeyUseCase) BeginLogin(
	ctx context.Context,
	email string,
	prfSalt []byte,
) (*protocol.CredentialAssertion, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	webAuthnUser, err := uc.loadWebAuthnUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(webAuthnUser.Credentials) == 0 {
		return nil, domain.ErrCredentialNotFound
	}

	assertion, err := uc.ceremonies.BeginLogin(webAuthnUser, prfSalt)
	if err != nil {
		return nil, err
	}
	return assertion, nil
}

// FinishLogin verifies the assertion response, bumps the credential usage
// metadata, and returns the authenticated user.
func (uc *WebAuthnPasskeyUseCase) FinishLogin(
	ctx context.Context,
	email string,
	request *http.Request,
) (*domain.User, error) {
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	webAuthnUser, err := uc.loadWebAuthnUser(ctx, user)
	if err != nil {
		return nil, err
	}

	credential, err := uc.ceremonies.FinishLogin(webAuthnUser, request)
	if err != nil {
		return nil, err
	}

	for i := range webAuthnUser.Credentials {
		stored := &webAuthnUser.Credentials[i]
		if string(stored.CredentialID) != string(credential.ID) {
			continue
		}
		now := time.Now().UTC()
		stored.Credential = *credential
		stored.LastUsedAt = &now
		if err := uc.credentialRepo.Update(ctx, stored); err != nil {
			uc.logger.ErrorContext(ctx, "failed to update credential usage", "error", err)
		}
		break
	}

	return user, nil
}

// GetPRFParams returns the user's stored PRF parameters.
func (uc *WebAuthnPasskeyUseCase) GetPRFParams(ctx context.Context, userID uuid.UUID) (*domain.PRFParamsRecord, error) {
	return uc.prfParamsRepo.GetByUserID(ctx, userID)
}

// UpsertPRFParams stores PRF parameters for a user, replacing any previous
// row. Version must move forward: re-running encryption setup increments it,
// and a stale write may not roll it back.
func (uc *WebAuthnPasskeyUseCase) UpsertPRFParams(ctx context.Context, input UpsertPRFParamsInput) (*domain.PRFParamsRecord, error) {
	if len(input.Salt) != e2eeDomain.PRFSaltSize {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "prf salt must be 32 bytes")
	}
	if len(input.CredentialID) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "credential id is required")
	}
	if input.Version < 1 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "version must be positive")
	}

	record := &domain.PRFParamsRecord{
		UserID:       input.UserID,
		Salt:         input.Salt,
		CredentialID: input.CredentialID,
		Version:      input.Version,
	}

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		existing, err := uc.prfParamsRepo.GetByUserID(ctx, input.UserID)
		if err == nil && existing.Version > input.Version {
			return apperrors.Wrap(apperrors.ErrConflict, "prf params version regression")
		}
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return uc.prfParamsRepo.Upsert(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}
