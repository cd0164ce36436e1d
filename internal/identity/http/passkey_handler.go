package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sealkeep/sealkeep/internal/httputil"
	"github.com/sealkeep/sealkeep/internal/identity/http/dto"
	identityUseCase "github.com/sealkeep/sealkeep/internal/identity/usecase"
	customValidation "github.com/sealkeep/sealkeep/internal/validation"
)

// PasskeyHandler handles the WebAuthn ceremony and PRF parameter endpoints.
//
// Finish endpoints receive the raw WebAuthn response JSON as the request
// body (go-webauthn parses it directly), so their identifying parameters
// travel in the query string.
type PasskeyHandler struct {
	passkeyUseCase identityUseCase.PasskeyUseCase
	logger         *slog.Logger
}

// NewPasskeyHandler creates a new passkey handler with required dependencies.
func NewPasskeyHandler(
	passkeyUseCase identityUseCase.PasskeyUseCase,
	logger *slog.Logger,
) *PasskeyHandler {
	return &PasskeyHandler{
		passkeyUseCase: passkeyUseCase,
		logger:         logger,
	}
}

// BeginRegistrationHandler starts a passkey registration ceremony.
// POST /v1/auth/passkey/register/begin
func (h *PasskeyHandler) BeginRegistrationHandler(c *gin.Context) {
	var req dto.BeginRegistrationRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid user_id format: must be a valid UUID"),
			h.logger)
		return
	}

	prfSalt, err := decodeOptionalBase64(req.PRFSalt)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	creation, err := h.passkeyUseCase.BeginRegistration(c.Request.Context(), userID, prfSalt)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, creation)
}

// FinishRegistrationHandler verifies the attestation response and persists
// the credential.
// POST /v1/auth/passkey/register/finish?user_id=...
func (h *PasskeyHandler) FinishRegistrationHandler(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid user_id format: must be a valid UUID"),
			h.logger)
		return
	}

	credential, err := h.passkeyUseCase.FinishRegistration(c.Request.Context(), userID, c.Request)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCredentialResponse(credential))
}

// BeginLoginHandler starts a passkey login ceremony.
// POST /v1/auth/passkey/login/begin
func (h *PasskeyHandler) BeginLoginHandler(c *gin.Context) {
	var req dto.BeginLoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	prfSalt, err := decodeOptionalBase64(req.PRFSalt)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}

	assertion, err := h.passkeyUseCase.BeginLogin(c.Request.Context(), req.Email, prfSalt)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, assertion)
}

// FinishLoginHandler verifies the assertion response and returns the
// authenticated user.
// POST /v1/auth/passkey/login/finish?email=...
func (h *PasskeyHandler) FinishLoginHandler(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("email is required"), h.logger)
		return
	}

	user, err := h.passkeyUseCase.FinishLogin(c.Request.Context(), email, c.Request)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// GetPRFParamsHandler returns the stored PRF parameters for a user.
// GET /v1/auth/prf-params?user_id=...
func (h *PasskeyHandler) GetPRFParamsHandler(c *gin.Context) {
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid user_id format: must be a valid UUID"),
			h.logger)
		return
	}

	record, err := h.passkeyUseCase.GetPRFParams(c.Request.Context(), userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToPRFParamsResponse(record))
}

// UpsertPRFParamsHandler stores PRF parameters for a user.
// PUT /v1/auth/prf-params
func (h *PasskeyHandler) UpsertPRFParamsHandler(c *gin.Context) {
	var req dto.UpsertPRFParamsRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httputil.HandleValidationErrorGin(c,
			fmt.Errorf("invalid user_id format: must be a valid UUID"),
			h.logger)
		return
	}

	salt, err := base64.StdEncoding.DecodeString(req.Salt)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid salt encoding"), h.logger)
		return
	}

	credentialID, err := base64.RawURLEncoding.DecodeString(req.CredentialID)
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid credential_id encoding"), h.logger)
		return
	}

	record, err := h.passkeyUseCase.UpsertPRFParams(c.Request.Context(), identityUseCase.UpsertPRFParamsInput{
		UserID:       userID,
		Salt:         salt,
		CredentialID: credentialID,
		Version:      req.Version,
	})
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ToPRFParamsResponse(record))
}

// decodeOptionalBase64 decodes a base64 value, treating empty as nil.
func decodeOptionalBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 value")
	}
	return data, nil
}
