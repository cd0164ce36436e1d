package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/sealkeep/sealkeep/internal/errors"
)

func TestEmail(t *testing.T) {
	t.Run("valid addresses", func(t *testing.T) {
		for _, s := range []string{"a@b.co", "user.name+tag@example.com", "x_y@sub.domain.org"} {
			assert.NoError(t, Email.Validate(s), s)
		}
	})

	t.Run("invalid addresses", func(t *testing.T) {
		for _, s := range []string{"plain", "@nouser.com", "user@", "user@domain", "user @example.com"} {
			assert.Error(t, Email.Validate(s), s)
		}
	})

	t.Run("empty string is left to Required", func(t *testing.T) {
		assert.NoError(t, Email.Validate(""))
	})

	t.Run("non-string value", func(t *testing.T) {
		assert.Error(t, Email.Validate(42))
	})
}

func TestNotBlank(t *testing.T) {
	assert.NoError(t, NotBlank.Validate("value"))
	assert.Error(t, NotBlank.Validate("   "))
	assert.Error(t, NotBlank.Validate(""))
}

func TestNumericCode(t *testing.T) {
	rule := NumericCode(6)

	t.Run("valid code", func(t *testing.T) {
		assert.NoError(t, rule.Validate("123456"))
	})

	t.Run("wrong length", func(t *testing.T) {
		assert.Error(t, rule.Validate("12345"))
		assert.Error(t, rule.Validate("1234567"))
	})

	t.Run("non-digits", func(t *testing.T) {
		assert.Error(t, rule.Validate("12a456"))
		assert.Error(t, rule.Validate("12 456"))
	})

	t.Run("empty string is left to Required", func(t *testing.T) {
		assert.NoError(t, rule.Validate(""))
	})
}

func TestBase64(t *testing.T) {
	assert.NoError(t, Base64.Validate("aGVsbG8="))
	assert.Error(t, Base64.Validate("not-base64!!"))
	assert.NoError(t, Base64.Validate(""))
}

func TestBase64URL(t *testing.T) {
	assert.NoError(t, Base64URL.Validate("aGVsbG8"))
	assert.Error(t, Base64URL.Validate("has/slash=="))
	assert.NoError(t, Base64URL.Validate(""))
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))
	err := WrapValidationError(apperrors.New("field is bad"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
