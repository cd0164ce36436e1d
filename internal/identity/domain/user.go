// Package domain defines the identity entities: users, email OTPs, passkey
// credentials and their stored PRF parameters.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the identity backend. Accounts are created
// only after the jurisdictional confirmation step, never on a bare email
// submission.
type User struct {
	ID              uuid.UUID
	Email           string
	EmailVerifiedAt *time.Time
	GeoConfirmedAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EmailVerified reports whether the user has completed OTP verification.
func (u *User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}
