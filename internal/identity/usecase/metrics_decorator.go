package usecase

import (
	"context"
	"net/http"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/google/uuid"

	"github.com/sealkeep/sealkeep/internal/identity/domain"
	"github.com/sealkeep/sealkeep/internal/metrics"
)

// verificationUseCaseWithMetrics decorates VerificationUseCase with metrics instrumentation.
type verificationUseCaseWithMetrics struct {
	next    VerificationUseCase
	metrics metrics.BusinessMetrics
}

// NewVerificationUseCaseWithMetrics wraps a VerificationUseCase with metrics recording.
func NewVerificationUseCaseWithMetrics(useCase VerificationUseCase, m metrics.BusinessMetrics) VerificationUseCase {
	return &verificationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// CheckEmail records metrics for account existence probes.
func (v *verificationUseCaseWithMetrics) CheckEmail(ctx context.Context, email string) (*CheckEmailOutput, error) {
	start := time.Now()
	output, err := v.next.CheckEmail(ctx, email)

	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, "identity", "email_check", status)
	v.metrics.RecordDuration(ctx, "identity", "email_check", time.Since(start), status)

	return output, err
}

// StartVerification records metrics for verification start operations.
func (v *verificationUseCaseWithMetrics) StartVerification(ctx context.Context, email string) error {
	start := time.Now()
	err := v.next.StartVerification(ctx, email)

	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, "identity", "verification_start", status)
	v.metrics.RecordDuration(ctx, "identity", "verification_start", time.Since(start), status)

	return err
}

// ConfirmGeo records metrics for jurisdictional confirmation operations.
func (v *verificationUseCaseWithMetrics) ConfirmGeo(ctx context.Context, email string) error {
	start := time.Now()
	err := v.next.ConfirmGeo(ctx, email)

	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, "identity", "geo_confirm", status)
	v.metrics.RecordDuration(ctx, "identity", "geo_confirm", time.Since(start), status)

	return err
}

// VerifyCode records metrics for code verification operations.
func (v *verificationUseCaseWithMetrics) VerifyCode(ctx context.Context, email, code string) (*VerifyCodeOutput, error) {
	start := time.Now()
	output, err := v.next.VerifyCode(ctx, email, code)

	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, "identity", "otp_verify", status)
	v.metrics.RecordDuration(ctx, "identity", "otp_verify", time.Since(start), status)

	return output, err
}

// ResendCode records metrics for code resend operations.
func (v *verificationUseCaseWithMetrics) ResendCode(ctx context.Context, email string) error {
	start := time.Now()
	err := v.next.ResendCode(ctx, email)

	status := "success"
	if err != nil {
		status = "error"
	}

	v.metrics.RecordOperation(ctx, "identity", "otp_resend", status)
	v.metrics.RecordDuration(ctx, "identity", "otp_resend", time.Since(start), status)

	return err
}

// passkeyUseCaseWithMetrics decorates PasskeyUseCase with metrics instrumentation.
type passkeyUseCaseWithMetrics struct {
	next    PasskeyUseCase
	metrics metrics.BusinessMetrics
}

// NewPasskeyUseCaseWithMetrics wraps a PasskeyUseCase with metrics recording.
func NewPasskeyUseCaseWithMetrics(useCase PasskeyUseCase, m metrics.BusinessMetrics) PasskeyUseCase {
	return &passkeyUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// BeginRegistration records metrics for registration ceremony starts.
func (p *passkeyUseCaseWithMetrics) BeginRegistration(
	ctx context.Context,
	userID uuid.UUID,
	prfSalt []byte,
) (*protocol.CredentialCreation, error) {
	start := time.Now()
	creation, err := p.next.BeginRegistration(ctx, userID, prfSalt)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "identity", "ceremony_register_begin", status)
	p.metrics.RecordDuration(ctx, "identity", "ceremony_register_begin", time.Since(start), status)

	return creation, err
}

// FinishRegistration records metrics for registration ceremony finishes.
func (p *passkeyUseCaseWithMetrics) FinishRegistration(
	ctx context.Context,
	userID uuid.UUID,
	request *http.Request,
) (*domain.PasskeyCredential, error) {
	start := time.Now()
	credential, err := p.next.FinishRegistration(ctx, userID, request)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "identity", "ceremony_register_finish", status)
	p.metrics.RecordDuration(ctx, "identity", "ceremony_register_finish", time.Since(start), status)

	return credential, err
}

// BeginLogin records metrics for login ceremony starts.
func (p *passkeyUseCaseWithMetrics) BeginLogin(
	ctx context.Context,
	email string,
	prfSalt []byte,
) (*protocol.CredentialAssertion, error) {
	start := time.Now()
	assertion, err := p.next.BeginLogin(ctx, email, prfSalt)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "identity", "ceremony_login_begin", status)
	p.metrics.RecordDuration(ctx, "identity", "ceremony_login_begin", time.Since(start), status)

	return assertion, err
}

// FinishLogin records metrics for login ceremony finishes.
func (p *passkeyUseCaseWithMetrics) FinishLogin(
	ctx context.Context,
	email string,
	request *http.Request,
) (*domain.User, error) {
	start := time.Now()
	user, err := p.next.FinishLogin(ctx, email, request)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "identity", "ceremony_login_finish", status)
	p.metrics.RecordDuration(ctx, "identity", "ceremony_login_finish", time.Since(start), status)

	return user, err
}

// GetPRFParams records metrics for PRF parameter reads.
func (p *passkeyUseCaseWithMetrics) GetPRFParams(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.PRFParamsRecord, error) {
	start := time.Now()
	record, err := p.next.GetPRFParams(ctx, userID)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "identity", "prf_params_get", status)
	p.metrics.RecordDuration(ctx, "identity", "prf_params_get", time.Since(start), status)

	return record, err
}

// UpsertPRFParams records metrics for PRF parameter writes.
func (p *passkeyUseCaseWithMetrics) UpsertPRFParams(
	ctx context.Context,
	input UpsertPRFParamsInput,
) (*domain.PRFParamsRecord, error) {
	start := time.Now()
	record, err := p.next.UpsertPRFParams(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	p.metrics.RecordOperation(ctx, "identity", "prf_params_upsert", status)
	p.metrics.RecordDuration(ctx, "identity", "prf_params_upsert", time.Since(start), status)

	return record, err
}
