package authflow

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
	apperrors "github.com/sealkeep/sealkeep/internal/errors"
	identityUseCase "github.com/sealkeep/sealkeep/internal/identity/usecase"
)

// IdentityDirectory adapts the identity use cases to the flow's Directory
// interface for in-process wiring.
type IdentityDirectory struct {
	verification identityUseCase.VerificationUseCase
	passkeys     identityUseCase.PasskeyUseCase
}

// NewIdentityDirectory creates a Directory backed by the identity context.
func NewIdentityDirectory(
	verification identityUseCase.VerificationUseCase,
	passkeys identityUseCase.PasskeyUseCase,
) *IdentityDirectory {
	return &IdentityDirectory{verification: verification, passkeys: passkeys}
}

// CheckEmail implements Directory.
func (d *IdentityDirectory) CheckEmail(ctx context.Context, email string) (*AccountStatus, error) {
	output, err := d.verification.CheckEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &AccountStatus{
		Exists:     output.AccountExists,
		HasPasskey: output.HasPasskey,
	}, nil
}

// GetPRFParams implements Directory.
func (d *IdentityDirectory) GetPRFParams(ctx context.Context, userID uuid.UUID) (e2eeDomain.PRFParams, error) {
	record, err := d.passkeys.GetPRFParams(ctx, userID)
	if err != nil {
		return e2eeDomain.PRFParams{}, err
	}
	return record.ToParams(), nil
}

// SavePRFParams implements Directory.
func (d *IdentityDirectory) SavePRFParams(ctx context.Context, userID uuid.UUID, params e2eeDomain.PRFParams) error {
	_, err := d.passkeys.UpsertPRFParams(ctx, identityUseCase.UpsertPRFParamsInput{
		UserID:       userID,
		Salt:         params.Salt,
		CredentialID: params.CredentialID,
		Version:      params.Version,
	})
	return err
}

// IdentityVerifier adapts the verification use case to the flow's Verifier
// interface for in-process wiring.
type IdentityVerifier struct {
	verification identityUseCase.VerificationUseCase
	passkeys     identityUseCase.PasskeyUseCase
}

// NewIdentityVerifier creates a Verifier backed by the identity context.
func NewIdentityVerifier(
	verification identityUseCase.VerificationUseCase,
	passkeys identityUseCase.PasskeyUseCase,
) *IdentityVerifier {
	return &IdentityVerifier{verification: verification, passkeys: passkeys}
}

// StartVerification implements Verifier.
func (v *IdentityVerifier) StartVerification(ctx context.Context, email string) error {
	return v.verification.StartVerification(ctx, email)
}

// ConfirmGeo implements Verifier.
func (v *IdentityVerifier) ConfirmGeo(ctx context.Context, email string) error {
	return v.verification.ConfirmGeo(ctx, email)
}

// VerifyCode implements Verifier.
func (v *IdentityVerifier) VerifyCode(ctx context.Context, email, code string) (*VerifiedIdentity, error) {
	output, err := v.verification.VerifyCode(ctx, email, code)
	if err != nil {
		return nil, err
	}
	return &VerifiedIdentity{
		UserID:       output.User.ID,
		Email:        output.User.Email,
		HasPasskey:   output.HasPasskey,
		HasPRFParams: output.HasPRFParams,
	}, nil
}

// ResendCode implements Verifier.
func (v *IdentityVerifier) ResendCode(ctx context.Context, email string) error {
	return v.verification.ResendCode(ctx, email)
}

// IdentityCeremonies adapts the passkey use case to the flow's CeremonyService
// interface for in-process wiring. Challenge payloads are the JSON-encoded
// WebAuthn options; finish payloads are replayed to the use case as request
// bodies, the same shape the HTTP handlers accept.
type IdentityCeremonies struct {
	passkeys identityUseCase.PasskeyUseCase
}

// NewIdentityCeremonies creates a CeremonyService backed by the identity context.
func NewIdentityCeremonies(passkeys identityUseCase.PasskeyUseCase) *IdentityCeremonies {
	return &IdentityCeremonies{passkeys: passkeys}
}

// BeginRegistration implements CeremonyService.
func (c *IdentityCeremonies) BeginRegistration(ctx context.Context, userID uuid.UUID, prfSalt []byte) (*Challenge, error) {
	creation, err := c.passkeys.BeginRegistration(ctx, userID, prfSalt)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(creation)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode registration challenge")
	}
	return &Challenge{Payload: payload, PRFSalt: prfSalt}, nil
}

// FinishRegistration implements CeremonyService.
func (c *IdentityCeremonies) FinishRegistration(ctx context.Context, userID uuid.UUID, payload []byte) (*CeremonyResult, error) {
	request, err := ceremonyRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	credential, err := c.passkeys.FinishRegistration(ctx, userID, request)
	if err != nil {
		return nil, err
	}
	return &CeremonyResult{
		UserID:       userID,
		CredentialID: credential.CredentialID,
	}, nil
}

// BeginLogin implements CeremonyService.
func (c *IdentityCeremonies) BeginLogin(ctx context.Context, email string, prfSalt []byte) (*Challenge, error) {
	assertion, err := c.passkeys.BeginLogin(ctx, email, prfSalt)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(assertion)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to encode login challenge")
	}
	return &Challenge{Payload: payload, PRFSalt: prfSalt}, nil
}

// FinishLogin implements CeremonyService.
func (c *IdentityCeremonies) FinishLogin(ctx context.Context, email string, payload []byte) (*CeremonyResult, error) {
	request, err := ceremonyRequest(ctx, payload)
	if err != nil {
		return nil, err
	}

	user, err := c.passkeys.FinishLogin(ctx, email, request)
	if err != nil {
		return nil, err
	}
	return &CeremonyResult{
		UserID: user.ID,
		Email:  user.Email,
	}, nil
}

// ceremonyRequest wraps a finish payload in the request shape the WebAuthn
// response parsers expect.
func ceremonyRequest(ctx context.Context, payload []byte) (*http.Request, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to build ceremony request")
	}
	request.Header.Set("Content-Type", "application/json")
	return request, nil
}
