// Package http provides HTTP handlers for the authentication flow endpoints.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sealkeep/sealkeep/internal/httputil"
	"github.com/sealkeep/sealkeep/internal/identity/http/dto"
	identityUseCase "github.com/sealkeep/sealkeep/internal/identity/usecase"
	customValidation "github.com/sealkeep/sealkeep/internal/validation"
)

// AuthHandler handles the email verification endpoints of the flow.
type AuthHandler struct {
	verificationUseCase identityUseCase.VerificationUseCase
	logger              *slog.Logger
}

// NewAuthHandler creates a new auth handler with required dependencies.
func NewAuthHandler(
	verificationUseCase identityUseCase.VerificationUseCase,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		verificationUseCase: verificationUseCase,
		logger:              logger,
	}
}

// SubmitEmailHandler handles the first step of the flow.
// POST /v1/auth/email - Returns the branch the client should take. For an
// existing passkey-less account it also dispatches an OTP.
func (h *AuthHandler) SubmitEmailHandler(c *gin.Context) {
	var req dto.SubmitEmailRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.verificationUseCase.CheckEmail(c.Request.Context(), req.Email)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	// Existing account without a passkey goes down the OTP path immediately.
	if output.AccountExists && !output.HasPasskey {
		if err := h.verificationUseCase.StartVerification(c.Request.Context(), req.Email); err != nil {
			httputil.HandleErrorGin(c, err, h.logger)
			return
		}
	}

	c.JSON(http.StatusOK, dto.SubmitEmailResponse{
		HasPasskey:              output.HasPasskey,
		RequiresGeoConfirmation: !output.AccountExists,
	})
}

// ConfirmGeoHandler handles the jurisdictional confirmation step.
// POST /v1/auth/geo-confirm - Creates the account (if new) and dispatches the
// first OTP. Declining is a client-side non-action; this endpoint is only
// called on an affirmative answer.
func (h *AuthHandler) ConfirmGeoHandler(c *gin.Context) {
	var req dto.ConfirmGeoRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}
	if !req.Confirmed {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("confirmation is required"),
			h.logger)
		return
	}

	if err := h.verificationUseCase.ConfirmGeo(c.Request.Context(), req.Email); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.OKStatus())
}

// VerifyCodeHandler handles code verification.
// POST /v1/auth/verify-code - Returns the verified user and the facts needed
// to pick the next step.
func (h *AuthHandler) VerifyCodeHandler(c *gin.Context) {
	var req dto.VerifyCodeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	output, err := h.verificationUseCase.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.VerifyCodeResponse{
		UserID:       output.User.ID.String(),
		HasPasskey:   output.HasPasskey,
		HasPRFParams: output.HasPRFParams,
	})
}

// ResendCodeHandler handles resend requests.
// POST /v1/auth/resend-code - Subject to a per-email cooldown; otherwise
// always acknowledges generically.
func (h *AuthHandler) ResendCodeHandler(c *gin.Context) {
	var req dto.ResendCodeRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	if err := h.verificationUseCase.ResendCode(c.Request.Context(), req.Email); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.OKStatus())
}
