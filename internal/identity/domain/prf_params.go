package domain

import (
	"time"

	"github.com/google/uuid"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
)

// PRFParamsRecord is the persisted form of a user's PRF parameters: exactly
// one row per user, upserted. Salts are not secret; the row is stored
// ciphertext-free.
type PRFParamsRecord struct {
	UserID       uuid.UUID
	Salt         []byte
	CredentialID []byte
	Version      int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ToParams converts the record into the derivation-side value type.
func (r *PRFParamsRecord) ToParams() e2eeDomain.PRFParams {
	return e2eeDomain.PRFParams{
		Salt:         r.Salt,
		CredentialID: r.CredentialID,
		Version:      r.Version,
	}
}
