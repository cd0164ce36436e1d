package service

import (
	"crypto/rand"
	"math/big"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/sealkeep/sealkeep/internal/errors"
)

// PwdhashOTPService implements OTPService with crypto/rand code generation
// and pwdhash (argon2id) hashing at rest.
type PwdhashOTPService struct {
	length int
	hasher *pwdhash.PasswordHasher
}

// NewOTPService creates a new PwdhashOTPService issuing codes of the given length.
func NewOTPService(length int) (*PwdhashOTPService, error) {
	// Interactive policy: codes are short-lived and verified at most a
	// handful of times, so the lighter parameters are appropriate.
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create code hasher")
	}

	return &PwdhashOTPService{
		length: length,
		hasher: hasher,
	}, nil
}

// GenerateCode returns a fresh numeric code. Each digit is drawn uniformly
// from crypto/rand; leading zeros are valid.
func (s *PwdhashOTPService) GenerateCode() (string, error) {
	digits := make([]byte, s.length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", apperrors.Wrap(err, "failed to generate verification code")
		}
		digits[i] = byte('0') + byte(n.Int64())
	}
	return string(digits), nil
}

// HashCode hashes a code for at-rest storage.
func (s *PwdhashOTPService) HashCode(code string) (string, error) {
	hash, err := s.hasher.Hash([]byte(code))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash verification code")
	}
	return hash, nil
}

// VerifyCode checks a submitted code against a stored hash.
func (s *PwdhashOTPService) VerifyCode(code, hash string) (bool, error) {
	ok, err := s.hasher.Verify([]byte(code), hash)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to verify verification code")
	}
	return ok, nil
}
