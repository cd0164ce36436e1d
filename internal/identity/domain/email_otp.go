package domain

import (
	"time"

	"github.com/google/uuid"
)

// EmailOTP is one issued verification code. Only the hash of the code is
// stored; the plaintext exists solely in the outbound email.
type EmailOTP struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CodeHash   string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	Attempts   int
	CreatedAt  time.Time
}

// IsExpired reports whether the code has passed its expiry.
func (o *EmailOTP) IsExpired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// IsConsumed reports whether the code was already used. Codes are single-use.
func (o *EmailOTP) IsConsumed() bool {
	return o.ConsumedAt != nil
}
