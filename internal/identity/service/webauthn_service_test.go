package service

import (
	"log/slog"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
	"github.com/sealkeep/sealkeep/internal/identity/domain"
)

func newCeremonyService(t *testing.T) *WebAuthnService {
	t.Helper()
	svc, err := NewWebAuthnService(
		"localhost",
		"sealkeep",
		[]string{"http://localhost:8080"},
		5*time.Minute,
		slog.New(slog.DiscardHandler),
	)
	require.NoError(t, err)
	return svc
}

func newWebAuthnUser(withCredential bool) *domain.WebAuthnUser {
	user := &domain.WebAuthnUser{
		User: &domain.User{
			ID:    uuid.Must(uuid.NewV7()),
			Email: "user@example.com",
		},
	}
	if withCredential {
		user.Credentials = []domain.PasskeyCredential{
			{CredentialID: []byte("cred-1"), Credential: webauthn.Credential{ID: []byte("cred-1")}},
		}
	}
	return user
}

func TestBeginRegistrationRequestsPRF(t *testing.T) {
	svc := newCeremonyService(t)
	user := newWebAuthnUser(false)
	salt := make([]byte, e2eeDomain.PRFSaltSize)

	creation, err := svc.BeginRegistration(user, salt)
	require.NoError(t, err)
	require.NotNil(t, creation)

	extensions := creation.Response.Extensions
	require.Contains(t, extensions, "prf")
	prf, ok := extensions["prf"].(map[string]interface{})
	require.True(t, ok)
	eval, ok := prf["eval"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, protocol.URLEncodedBase64(salt), eval["first"])
}

func TestBeginLoginWithoutSaltSkipsPRF(t *testing.T) {
	svc := newCeremonyService(t)
	user := newWebAuthnUser(true)

	assertion, err := svc.BeginLogin(user, nil)
	require.NoError(t, err)
	assert.NotContains(t, assertion.Response.Extensions, "prf")
}

func TestBeginLoginWithSaltRequestsPRF(t *testing.T) {
	svc := newCeremonyService(t)
	user := newWebAuthnUser(true)
	salt := make([]byte, e2eeDomain.PRFSaltSize)

	assertion, err := svc.BeginLogin(user, salt)
	require.NoError(t, err)
	assert.Contains(t, assertion.Response.Extensions, "prf")
}

func TestSingleOutstandingCeremony(t *testing.T) {
	svc := newCeremonyService(t)
	user := newWebAuthnUser(true)

	_, err := svc.BeginLogin(user, nil)
	require.NoError(t, err)

	// A second ceremony of any kind is rejected while one is pending.
	_, err = svc.BeginLogin(user, nil)
	assert.ErrorIs(t, err, domain.ErrCeremonyOutstanding)
	_, err = svc.BeginRegistration(user, nil)
	assert.ErrorIs(t, err, domain.ErrCeremonyOutstanding)

	// Cancelling frees the slot.
	svc.Cancel(user.User.ID)
	_, err = svc.BeginLogin(user, nil)
	assert.NoError(t, err)
}

func TestAbandonedCeremonyFreesSlotAfterExpiry(t *testing.T) {
	svc, err := NewWebAuthnService(
		"localhost",
		"sealkeep",
		[]string{"http://localhost:8080"},
		20*time.Millisecond,
		slog.New(slog.DiscardHandler),
	)
	require.NoError(t, err)
	user := newWebAuthnUser(true)

	// Begin a ceremony and walk away without finishing it.
	_, err = svc.BeginLogin(user, nil)
	require.NoError(t, err)
	_, err = svc.BeginLogin(user, nil)
	require.ErrorIs(t, err, domain.ErrCeremonyOutstanding)

	// Once the abandoned session expires, a fresh ceremony must start; the
	// dismissed prompt may not lock the user out.
	time.Sleep(100 * time.Millisecond)
	_, err = svc.BeginLogin(user, nil)
	assert.NoError(t, err)

	_, err = svc.BeginRegistration(user, nil)
	assert.ErrorIs(t, err, domain.ErrCeremonyOutstanding)
}

func TestFinishWithoutPendingCeremony(t *testing.T) {
	svc := newCeremonyService(t)
	user := newWebAuthnUser(true)

	_, err := svc.FinishLogin(user, nil)
	assert.ErrorIs(t, err, domain.ErrCeremonyNotFound)
	_, err = svc.FinishRegistration(user, nil)
	assert.ErrorIs(t, err, domain.ErrCeremonyNotFound)
}

func TestFinishKindMismatch(t *testing.T) {
	svc := newCeremonyService(t)
	user := newWebAuthnUser(true)

	_, err := svc.BeginLogin(user, nil)
	require.NoError(t, err)

	// A login session cannot satisfy a registration finish.
	_, err = svc.FinishRegistration(user, nil)
	assert.ErrorIs(t, err, domain.ErrCeremonyNotFound)
}
