package session

import (
	"crypto/rand"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
)

func newKey(t *testing.T, userID uuid.UUID) *e2eeDomain.MasterKey {
	t.Helper()
	material := make([]byte, e2eeDomain.MasterKeySize)
	_, err := rand.Read(material)
	require.NoError(t, err)
	key, err := e2eeDomain.NewMasterKey(userID, material)
	require.NoError(t, err)
	return key
}

func newKeyring() *Keyring {
	return NewKeyring(slog.New(slog.DiscardHandler))
}

func TestKeyringStoreAndGet(t *testing.T) {
	keyring := newKeyring()
	userID := uuid.Must(uuid.NewV7())
	key := newKey(t, userID)

	require.NoError(t, keyring.Store(key))
	assert.True(t, keyring.Has(userID))

	got, err := keyring.Get(userID)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestKeyringGetEmpty(t *testing.T) {
	keyring := newKeyring()
	_, err := keyring.Get(uuid.Must(uuid.NewV7()))
	assert.ErrorIs(t, err, e2eeDomain.ErrKeyUnavailable)
}

func TestKeyringStoreRejectsInvalidKey(t *testing.T) {
	keyring := newKeyring()
	assert.ErrorIs(t, keyring.Store(nil), e2eeDomain.ErrInvalidKeySize)
	assert.ErrorIs(t, keyring.Store(&e2eeDomain.MasterKey{
		UserID: uuid.Must(uuid.NewV7()),
		Key:    make([]byte, 16),
	}), e2eeDomain.ErrInvalidKeySize)
}

func TestKeyringAccountMismatchFailsClosed(t *testing.T) {
	keyring := newKeyring()
	key := newKey(t, uuid.Must(uuid.NewV7()))
	require.NoError(t, keyring.Store(key))

	otherUser := uuid.Must(uuid.NewV7())
	_, err := keyring.Get(otherUser)
	assert.ErrorIs(t, err, e2eeDomain.ErrAccountMismatch)

	// The stale key was destroyed, not just withheld.
	assert.Nil(t, key.Key)
	_, err = keyring.Get(key.UserID)
	assert.ErrorIs(t, err, e2eeDomain.ErrKeyUnavailable)
}

func TestKeyringStoreReplacesAndZeroizes(t *testing.T) {
	keyring := newKeyring()
	first := newKey(t, uuid.Must(uuid.NewV7()))
	require.NoError(t, keyring.Store(first))

	second := newKey(t, uuid.Must(uuid.NewV7()))
	require.NoError(t, keyring.Store(second))

	assert.Nil(t, first.Key)
	assert.True(t, keyring.Has(second.UserID))
	assert.False(t, keyring.Has(first.UserID))
}

func TestKeyringClear(t *testing.T) {
	keyring := newKeyring()
	key := newKey(t, uuid.Must(uuid.NewV7()))
	require.NoError(t, keyring.Store(key))

	keyring.Clear()
	assert.Nil(t, key.Key)
	assert.False(t, keyring.Has(key.UserID))

	// Clearing an empty keyring is a no-op.
	keyring.Clear()
}
