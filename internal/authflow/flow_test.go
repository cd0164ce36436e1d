package authflow

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
	e2eeService "github.com/sealkeep/sealkeep/internal/e2ee/service"
	"github.com/sealkeep/sealkeep/internal/e2ee/session"
	apperrors "github.com/sealkeep/sealkeep/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testCode = "123456"

// fakeAccount is one account in the fake backend.
type fakeAccount struct {
	id           uuid.UUID
	email        string
	credentialID []byte
	params       *e2eeDomain.PRFParams
	code         string
	codeSent     int
}

// fakeBackend simulates the identity server: directory, verifier, and
// ceremony service in one.
type fakeBackend struct {
	mu           sync.Mutex
	accounts     map[string]*fakeAccount
	byCredential map[string]*fakeAccount
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		accounts:     make(map[string]*fakeAccount),
		byCredential: make(map[string]*fakeAccount),
	}
}

func (b *fakeBackend) addAccount(email string, credentialID []byte, params *e2eeDomain.PRFParams) *fakeAccount {
	b.mu.Lock()
	defer b.mu.Unlock()

	account := &fakeAccount{
		id:           uuid.Must(uuid.NewV7()),
		email:        email,
		credentialID: credentialID,
		params:       params,
	}
	b.accounts[email] = account
	if credentialID != nil {
		b.byCredential[string(credentialID)] = account
	}
	return account
}

func (b *fakeBackend) CheckEmail(_ context.Context, email string) (*AccountStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, ok := b.accounts[email]
	return &AccountStatus{
		Exists:     ok,
		HasPasskey: ok && account.credentialID != nil,
	}, nil
}

func (b *fakeBackend) GetPRFParams(_ context.Context, userID uuid.UUID) (e2eeDomain.PRFParams, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, account := range b.accounts {
		if account.id == userID && account.params != nil {
			return *account.params, nil
		}
	}
	return e2eeDomain.PRFParams{}, apperrors.Wrap(apperrors.ErrNotFound, "prf params not found")
}

func (b *fakeBackend) SavePRFParams(_ context.Context, userID uuid.UUID, params e2eeDomain.PRFParams) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, account := range b.accounts {
		if account.id == userID {
			saved := params
			account.params = &saved
			return nil
		}
	}
	return apperrors.Wrap(apperrors.ErrNotFound, "user not found")
}

func (b *fakeBackend) StartVerification(_ context.Context, email string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if account, ok := b.accounts[email]; ok {
		account.code = testCode
		account.codeSent++
	}
	return nil
}

func (b *fakeBackend) ConfirmGeo(_ context.Context, email string) error {
	b.mu.Lock()
	account, ok := b.accounts[email]
	if !ok {
		account = &fakeAccount{id: uuid.Must(uuid.NewV7()), email: email}
		b.accounts[email] = account
	}
	account.code = testCode
	account.codeSent++
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) VerifyCode(_ context.Context, email, code string) (*VerifiedIdentity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, ok := b.accounts[email]
	if !ok || account.code == "" || account.code != code {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "invalid verification code")
	}
	account.code = ""
	return &VerifiedIdentity{
		UserID:       account.id,
		Email:        account.email,
		HasPasskey:   account.credentialID != nil,
		HasPRFParams: account.params != nil,
	}, nil
}

func (b *fakeBackend) ResendCode(ctx context.Context, email string) error {
	return b.StartVerification(ctx, email)
}

func (b *fakeBackend) BeginRegistration(_ context.Context, userID uuid.UUID, prfSalt []byte) (*Challenge, error) {
	return &Challenge{
		Payload: []byte("register:" + userID.String()),
		PRFSalt: prfSalt,
	}, nil
}

func (b *fakeBackend) FinishRegistration(_ context.Context, userID uuid.UUID, payload []byte) (*CeremonyResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, account := range b.accounts {
		if account.id == userID {
			account.credentialID = payload
			b.byCredential[string(payload)] = account
			return &CeremonyResult{
				UserID:       account.id,
				Email:        account.email,
				CredentialID: payload,
			}, nil
		}
	}
	return nil, apperrors.Wrap(apperrors.ErrNotFound, "user not found")
}

func (b *fakeBackend) BeginLogin(_ context.Context, email string, prfSalt []byte) (*Challenge, error) {
	return &Challenge{
		Payload: []byte("login:" + email),
		PRFSalt: prfSalt,
	}, nil
}

func (b *fakeBackend) FinishLogin(_ context.Context, _ string, payload []byte) (*CeremonyResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Identity comes from the signed credential, not the entered email.
	account, ok := b.byCredential[string(payload)]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "unknown credential")
	}
	return &CeremonyResult{
		UserID:       account.id,
		Email:        account.email,
		CredentialID: account.credentialID,
	}, nil
}

// fakeAuthenticator is a PRF-capable device: the PRF output is
// HMAC-SHA256(deviceSecret, credentialID || salt), deterministic per device
// and credential like a real hmac-secret evaluation.
type fakeAuthenticator struct {
	secret       []byte
	credentialID []byte
	failure      error
	entered      chan struct{}
	block        chan struct{}
}

func newFakeAuthenticator(t *testing.T) *fakeAuthenticator {
	t.Helper()
	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err)
	return &fakeAuthenticator{secret: secret}
}

func (a *fakeAuthenticator) prf(credentialID, salt []byte) []byte {
	if len(salt) == 0 {
		return nil
	}
	mac := hmac.New(sha256.New, a.secret)
	mac.Write(credentialID)
	mac.Write(salt)
	return mac.Sum(nil)
}

func (a *fakeAuthenticator) Create(_ context.Context, challenge Challenge) (*CeremonyResponse, error) {
	if a.failure != nil {
		return nil, a.failure
	}
	credentialID := make([]byte, 16)
	if _, err := rand.Read(credentialID); err != nil {
		return nil, err
	}
	a.credentialID = credentialID
	return &CeremonyResponse{
		Payload:      credentialID,
		CredentialID: credentialID,
		PRFOutput:    a.prf(credentialID, challenge.PRFSalt),
	}, nil
}

func (a *fakeAuthenticator) Assert(_ context.Context, challenge Challenge) (*CeremonyResponse, error) {
	if a.entered != nil {
		a.entered <- struct{}{}
	}
	if a.block != nil {
		<-a.block
	}
	if a.failure != nil {
		return nil, a.failure
	}
	return &CeremonyResponse{
		Payload:      a.credentialID,
		CredentialID: a.credentialID,
		PRFOutput:    a.prf(a.credentialID, challenge.PRFSalt),
	}, nil
}

type flowFixture struct {
	backend       *fakeBackend
	authenticator *fakeAuthenticator
	keyring       *session.Keyring
	saltCache     *session.SaltCache
	flow          *Flow
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	backend := newFakeBackend()
	authenticator := newFakeAuthenticator(t)
	logger := slog.New(slog.DiscardHandler)
	keyring := session.NewKeyring(logger)
	saltCache := session.NewSaltCache()

	flow := NewFlow(
		backend,
		backend,
		backend,
		authenticator,
		e2eeService.NewKDF(),
		keyring,
		saltCache,
		logger,
	)

	return &flowFixture{
		backend:       backend,
		authenticator: authenticator,
		keyring:       keyring,
		saltCache:     saltCache,
		flow:          flow,
	}
}

func randomParams(t *testing.T, credentialID []byte, version int) *e2eeDomain.PRFParams {
	t.Helper()
	salt := make([]byte, e2eeDomain.PRFSaltSize)
	_, err := rand.Read(salt)
	require.NoError(t, err)
	return &e2eeDomain.PRFParams{Salt: salt, CredentialID: credentialID, Version: version}
}

func TestFlowHappyPathNewUser(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	step, err := f.flow.SubmitEmail(ctx, "New@Example.com")
	require.NoError(t, err)
	assert.Equal(t, StepGeoConfirmation, step)

	step, err = f.flow.ConfirmGeo(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepVerifyCode, step)

	step, err = f.flow.VerifyCode(ctx, testCode)
	require.NoError(t, err)
	assert.Equal(t, StepEncryptionSetup, step)

	step, err = f.flow.SetUpEncryption(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepComplete, step)

	userID := f.flow.UserID()
	key, err := f.keyring.Get(userID)
	require.NoError(t, err)
	assert.Len(t, key.Key, e2eeDomain.MasterKeySize)

	saved, err := f.backend.GetPRFParams(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)
	assert.Len(t, saved.Salt, e2eeDomain.PRFSaltSize)

	cached, ok := f.saltCache.Get("new@example.com")
	require.True(t, ok)
	assert.Equal(t, saved.Salt, cached.Salt)
}

func TestFlowReturningUserSkipsOTP(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	credentialID := []byte("device-credential")
	f.authenticator.credentialID = credentialID
	params := randomParams(t, credentialID, 1)
	account := f.backend.addAccount("user@example.com", credentialID, params)
	f.saltCache.Put("user@example.com", *params)

	step, err := f.flow.SubmitEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, StepPasskeySignIn, step)
	assert.Zero(t, account.codeSent, "passkey path must not dispatch a code")

	step, err = f.flow.SignInWithPasskey(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepComplete, step)

	// One touch authenticated and unlocked: the key is already cached.
	key, err := f.keyring.Get(account.id)
	require.NoError(t, err)
	assert.Len(t, key.Key, e2eeDomain.MasterKeySize)
}

func TestFlowCrossAccountSaltConfusion(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	// The device holds account B's credential, but the local cache still has
	// account A's parameters under the entered email (stale after a reset on
	// a shared device).
	credentialID := []byte("account-b-credential")
	f.authenticator.credentialID = credentialID
	paramsB := randomParams(t, credentialID, 2)
	accountB := f.backend.addAccount("b@example.com", credentialID, paramsB)

	staleParamsA := randomParams(t, []byte("account-a-credential"), 1)
	f.saltCache.Put("b@example.com", *staleParamsA)

	step, err := f.flow.SubmitEmail(ctx, "b@example.com")
	require.NoError(t, err)
	require.Equal(t, StepPasskeySignIn, step)

	step, err = f.flow.SignInWithPasskey(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepComplete, step)

	// The stale salt fed the ceremony, so its PRF output must be discarded:
	// no key derived from A's parameters may be cached for B's session.
	_, err = f.keyring.Get(accountB.id)
	assert.ErrorIs(t, err, e2eeDomain.ErrKeyUnavailable)

	_, ok := f.saltCache.Get("b@example.com")
	assert.False(t, ok, "stale cached salt must be discarded")
}

func TestFlowSignInWithoutCachedSalt(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	credentialID := []byte("device-credential")
	f.authenticator.credentialID = credentialID
	params := randomParams(t, credentialID, 1)
	account := f.backend.addAccount("user@example.com", credentialID, params)

	_, err := f.flow.SubmitEmail(ctx, "user@example.com")
	require.NoError(t, err)

	step, err := f.flow.SignInWithPasskey(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepComplete, step)

	// No inline PRF without a cached salt: sign-in completes key-less, but
	// the server's parameters are now cached for the next attempt.
	_, err = f.keyring.Get(account.id)
	assert.ErrorIs(t, err, e2eeDomain.ErrKeyUnavailable)

	cached, ok := f.saltCache.Get("user@example.com")
	require.True(t, ok)
	assert.Equal(t, params.Salt, cached.Salt)
}

func TestFlowCeremonyCancellation(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	credentialID := []byte("device-credential")
	f.authenticator.credentialID = credentialID
	account := f.backend.addAccount("user@example.com", credentialID, randomParams(t, credentialID, 1))

	_, err := f.flow.SubmitEmail(ctx, "user@example.com")
	require.NoError(t, err)

	f.authenticator.failure = fmt.Errorf("user dismissed the prompt")
	step, err := f.flow.SignInWithPasskey(ctx)
	assert.ErrorIs(t, err, ErrCeremonyFailed)
	assert.Equal(t, StepPasskeySignIn, step)
	assert.Equal(t, StepPasskeySignIn, f.flow.Step(), "cancellation stays on the originating step")

	_, err = f.keyring.Get(account.id)
	assert.ErrorIs(t, err, e2eeDomain.ErrKeyUnavailable, "cancellation must not leave partial key material")

	// The same step is retryable once the user is ready.
	f.authenticator.failure = nil
	step, err = f.flow.SignInWithPasskey(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepComplete, step)
}

func TestFlowSingleOutstandingCeremony(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	credentialID := []byte("device-credential")
	f.authenticator.credentialID = credentialID
	f.backend.addAccount("user@example.com", credentialID, randomParams(t, credentialID, 1))

	_, err := f.flow.SubmitEmail(ctx, "user@example.com")
	require.NoError(t, err)

	f.authenticator.entered = make(chan struct{})
	f.authenticator.block = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.flow.SignInWithPasskey(ctx)
		done <- err
	}()

	// Wait for the first ceremony to reach the authenticator prompt, then
	// try to start a second one while it is still open.
	<-f.authenticator.entered
	_, err = f.flow.SignInWithPasskey(ctx)
	assert.ErrorIs(t, err, ErrCeremonyOutstanding)

	close(f.authenticator.block)
	require.NoError(t, <-done)
	assert.Equal(t, StepComplete, f.flow.Step())
}

func TestFlowInvalidTransitions(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	_, err := f.flow.VerifyCode(ctx, testCode)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.flow.ConfirmGeo(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.flow.SignInWithPasskey(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.flow.SubmitEmail(ctx, "user@example.com")
	require.NoError(t, err)

	_, err = f.flow.SubmitEmail(ctx, "other@example.com")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFlowWrongCodeStaysOnVerify(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	f.backend.addAccount("user@example.com", nil, nil)

	step, err := f.flow.SubmitEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, StepVerifyCode, step)

	step, err = f.flow.VerifyCode(ctx, "000000")
	require.Error(t, err)
	assert.Equal(t, StepVerifyCode, step)

	require.NoError(t, f.flow.ResendCode(ctx))

	step, err = f.flow.VerifyCode(ctx, testCode)
	require.NoError(t, err)
	assert.Equal(t, StepEncryptionSetup, step)
}

func TestFlowSetupBumpsVersion(t *testing.T) {
	f := newFlowFixture(t)
	ctx := context.Background()

	// Credential was reset: parameters survive at version 2, passkey gone.
	account := f.backend.addAccount("user@example.com", nil, randomParams(t, []byte("old-credential"), 2))

	step, err := f.flow.SubmitEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.Equal(t, StepVerifyCode, step)

	step, err = f.flow.VerifyCode(ctx, testCode)
	require.NoError(t, err)
	require.Equal(t, StepEncryptionSetup, step)

	step, err = f.flow.SetUpEncryption(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepComplete, step)

	saved, err := f.backend.GetPRFParams(ctx, account.id)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Version, "setup must increment the parameter version")
	assert.NotEqual(t, []byte("old-credential"), saved.CredentialID)
}
