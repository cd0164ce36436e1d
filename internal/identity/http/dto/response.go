package dto

import (
	"encoding/base64"
	"time"

	"github.com/sealkeep/sealkeep/internal/identity/domain"
)

// StatusResponse is the generic acknowledgement returned by operations that
// must not reveal whether anything happened (enumeration prevention).
type StatusResponse struct {
	Status string `json:"status"`
}

// OKStatus returns the generic success acknowledgement.
func OKStatus() StatusResponse {
	return StatusResponse{Status: "ok"}
}

// SubmitEmailResponse tells the flow which step comes next.
type SubmitEmailResponse struct {
	HasPasskey              bool `json:"has_passkey"`
	RequiresGeoConfirmation bool `json:"requires_geo_confirmation"`
}

// VerifyCodeResponse carries the facts the flow needs after a successful
// verification.
type VerifyCodeResponse struct {
	UserID       string `json:"user_id"`
	HasPasskey   bool   `json:"has_passkey"`
	HasPRFParams bool   `json:"has_prf_params"`
}

// UserResponse is the authenticated user representation.
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ToUserResponse converts a domain user to its response DTO.
func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID.String(),
		Email: user.Email,
	}
}

// CredentialResponse is the stored-credential representation returned after
// registration.
type CredentialResponse struct {
	ID           string    `json:"id"`
	CredentialID string    `json:"credential_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToCredentialResponse converts a stored credential to its response DTO.
func ToCredentialResponse(credential *domain.PasskeyCredential) CredentialResponse {
	return CredentialResponse{
		ID:           credential.ID.String(),
		CredentialID: base64.RawURLEncoding.EncodeToString(credential.CredentialID),
		CreatedAt:    credential.CreatedAt,
	}
}

// PRFParamsResponse is the persisted PRF parameter wire shape:
// salt base64, credential_id base64url, version integer.
type PRFParamsResponse struct {
	Salt         string `json:"salt"`
	CredentialID string `json:"credential_id"`
	Version      int    `json:"version"`
}

// ToPRFParamsResponse converts a PRF parameter record to its response DTO.
func ToPRFParamsResponse(record *domain.PRFParamsRecord) PRFParamsResponse {
	return PRFParamsResponse{
		Salt:         base64.StdEncoding.EncodeToString(record.Salt),
		CredentialID: base64.RawURLEncoding.EncodeToString(record.CredentialID),
		Version:      record.Version,
	}
}
