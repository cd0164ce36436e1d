// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/sealkeep/sealkeep/internal/validation"
)

// SubmitEmailRequest contains the email submitted at the start of the flow.
type SubmitEmailRequest struct {
	Email string `json:"email"`
}

// Validate checks if the submit email request is valid.
func (r *SubmitEmailRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Email,
			validation.Length(5, 255),
		),
	)
}

// ConfirmGeoRequest contains the jurisdictional confirmation for an email.
type ConfirmGeoRequest struct {
	Email     string `json:"email"`
	Confirmed bool   `json:"confirmed"`
}

// Validate checks if the confirm geo request is valid.
func (r *ConfirmGeoRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Email,
			validation.Length(5, 255),
		),
	)
}

// VerifyCodeRequest contains a submitted verification code.
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Validate checks if the verify code request is valid.
func (r *VerifyCodeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Email,
		),
		validation.Field(&r.Code,
			validation.Required,
			customValidation.NotBlank,
		),
	)
}

// ResendCodeRequest asks for a fresh verification code.
type ResendCodeRequest struct {
	Email string `json:"email"`
}

// Validate checks if the resend code request is valid.
func (r *ResendCodeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Email,
		),
	)
}

// BeginRegistrationRequest starts a passkey registration ceremony. PRFSalt is
// the base64-encoded salt the client wants evaluated during the ceremony;
// empty skips the extension.
type BeginRegistrationRequest struct {
	UserID  string `json:"user_id"`
	PRFSalt string `json:"prf_salt"`
}

// Validate checks if the begin registration request is valid.
func (r *BeginRegistrationRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.PRFSalt,
			customValidation.Base64,
		),
	)
}

// BeginLoginRequest starts a passkey login ceremony for an email.
type BeginLoginRequest struct {
	Email   string `json:"email"`
	PRFSalt string `json:"prf_salt"`
}

// Validate checks if the begin login request is valid.
func (r *BeginLoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Email,
		),
		validation.Field(&r.PRFSalt,
			customValidation.Base64,
		),
	)
}

// UpsertPRFParamsRequest stores PRF parameters for a user. Salt is base64;
// CredentialID is base64url, matching the persisted wire contract.
type UpsertPRFParamsRequest struct {
	UserID       string `json:"user_id"`
	Salt         string `json:"salt"`
	CredentialID string `json:"credential_id"`
	Version      int    `json:"version"`
}

// Validate checks if the upsert PRF params request is valid.
func (r *UpsertPRFParamsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID,
			validation.Required,
			customValidation.NotBlank,
		),
		validation.Field(&r.Salt,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
		validation.Field(&r.CredentialID,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64URL,
		),
		validation.Field(&r.Version,
			validation.Required,
			validation.Min(1),
		),
	)
}
