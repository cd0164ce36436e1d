package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		err := Wrap(ErrNotFound, "user lookup")
		assert.EqualError(t, err, "user lookup: not found")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "anything"))
	})

	t.Run("chain survives multiple wraps", func(t *testing.T) {
		err := Wrap(Wrap(ErrInvalidInput, "inner"), "outer")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("context: %w", ErrConflict)
	assert.True(t, Is(err, ErrConflict))
	assert.False(t, Is(err, ErrNotFound))
}

func TestNew(t *testing.T) {
	err := New("boom")
	assert.EqualError(t, err, "boom")
}
