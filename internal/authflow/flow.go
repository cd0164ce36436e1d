package authflow

import (
	"bytes"
	"context"
	"crypto/rand"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	e2eeDomain "github.com/sealkeep/sealkeep/internal/e2ee/domain"
	e2eeService "github.com/sealkeep/sealkeep/internal/e2ee/service"
	"github.com/sealkeep/sealkeep/internal/e2ee/session"
	apperrors "github.com/sealkeep/sealkeep/internal/errors"
)

// Flow is one authentication attempt. It owns its step, the identity facts
// gathered along the way, and the session caches the rest of the application
// reads keys from.
//
// Methods that talk to the network or the authenticator may suspend for as
// long as the user takes; the flow never times out internally. A failed or
// cancelled operation leaves the flow on its current step with no partial key
// material cached.
type Flow struct {
	directory     Directory
	verifier      Verifier
	ceremonies    CeremonyService
	authenticator Authenticator
	deriver       e2eeService.KeyDeriver
	keyring       *session.Keyring
	saltCache     *session.SaltCache
	logger        *slog.Logger

	mu              sync.Mutex
	step            Step
	email           string
	userID          uuid.UUID
	ceremonyPending bool
}

// NewFlow creates a flow at StepEmail. The keyring and salt cache are owned
// by the caller so they can outlive the flow (the CRUD layer keeps reading
// keys after StepComplete).
func NewFlow(
	directory Directory,
	verifier Verifier,
	ceremonies CeremonyService,
	authenticator Authenticator,
	deriver e2eeService.KeyDeriver,
	keyring *session.Keyring,
	saltCache *session.SaltCache,
	logger *slog.Logger,
) *Flow {
	return &Flow{
		directory:     directory,
		verifier:      verifier,
		ceremonies:    ceremonies,
		authenticator: authenticator,
		deriver:       deriver,
		keyring:       keyring,
		saltCache:     saltCache,
		logger:        logger,
		step:          StepEmail,
	}
}

// Step returns the current step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Email returns the email the flow is operating on.
func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// UserID returns the authenticated account id. Zero until VerifyCode or
// SignInWithPasskey succeeds.
func (f *Flow) UserID() uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userID
}

// Keys returns the keyring holding the session master key.
func (f *Flow) Keys() *session.Keyring {
	return f.keyring
}

// SubmitEmail starts the flow. The branch taken depends on what the
// directory knows about the email:
//
//   - account with a passkey: jump to StepPasskeySignIn, no OTP round trip
//   - no account: StepGeoConfirmation, nothing is created yet
//   - account without a passkey: dispatch a code, StepVerifyCode
func (f *Flow) SubmitEmail(ctx context.Context, email string) (Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepEmail {
		return f.step, ErrInvalidTransition
	}

	email = strings.ToLower(strings.TrimSpace(email))

	status, err := f.directory.CheckEmail(ctx, email)
	if err != nil {
		return f.step, apperrors.Wrap(err, "failed to check email")
	}

	f.email = email

	switch {
	case status.Exists && status.HasPasskey:
		f.step = StepPasskeySignIn
	case !status.Exists:
		f.step = StepGeoConfirmation
	default:
		if err := f.verifier.StartVerification(ctx, email); err != nil {
			return f.step, apperrors.Wrap(err, "failed to start verification")
		}
		f.step = StepVerifyCode
	}

	return f.step, nil
}

// ConfirmGeo records the affirmative jurisdictional answer, creating the
// account and dispatching the first code. Declining is not a transition: the
// caller simply never invokes this and the flow stays put.
func (f *Flow) ConfirmGeo(ctx context.Context) (Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepGeoConfirmation {
		return f.step, ErrInvalidTransition
	}

	if err := f.verifier.ConfirmGeo(ctx, f.email); err != nil {
		return f.step, apperrors.Wrap(err, "failed to confirm eligibility")
	}

	f.step = StepVerifyCode
	return f.step, nil
}

// VerifyCode submits the emailed code. Failure stays on StepVerifyCode so
// the user can retry; success branches on whether the account already has
// both a passkey and PRF parameters.
func (f *Flow) VerifyCode(ctx context.Context, code string) (Step, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepVerifyCode {
		return f.step, ErrInvalidTransition
	}

	identity, err := f.verifier.VerifyCode(ctx, f.email, code)
	if err != nil {
		return f.step, err
	}

	f.userID = identity.UserID
	f.email = identity.Email

	if identity.HasPasskey && identity.HasPRFParams {
		f.step = StepPasskeySignIn
	} else {
		f.step = StepEncryptionSetup
	}
	return f.step, nil
}

// ResendCode asks for a fresh code. Subject to the verifier's cooldown; no
// transition either way.
func (f *Flow) ResendCode(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepVerifyCode {
		return ErrInvalidTransition
	}
	return f.verifier.ResendCode(ctx, f.email)
}

// SignInWithPasskey runs the login ceremony. When the salt cache holds
// parameters for the entered email, the ceremony requests the PRF extension
// inline so one touch both authenticates and unlocks encryption.
//
// Any PRF output obtained this way is only trusted after the authenticated
// user's parameters are re-fetched and found to match the cached ones; a
// cached salt that belongs to a different account is discarded and the flow
// completes without a cached key (the user unlocks manually later).
func (f *Flow) SignInWithPasskey(ctx context.Context) (Step, error) {
	email, err := f.beginCeremony(StepPasskeySignIn)
	if err != nil {
		return f.Step(), err
	}
	defer f.endCeremony()

	cached, hasCached := f.saltCache.Get(email)
	var prfSalt []byte
	if hasCached {
		prfSalt = cached.Salt
	}

	challenge, err := f.ceremonies.BeginLogin(ctx, email, prfSalt)
	if err != nil {
		return StepPasskeySignIn, apperrors.Wrap(err, "failed to begin login ceremony")
	}

	response, err := f.authenticator.Assert(ctx, *challenge)
	if err != nil {
		f.logger.Warn("passkey assertion did not complete", "error", err)
		return StepPasskeySignIn, ErrCeremonyFailed
	}

	result, err := f.ceremonies.FinishLogin(ctx, email, response.Payload)
	if err != nil {
		return StepPasskeySignIn, apperrors.Wrap(err, "failed to finish login ceremony")
	}

	f.cacheKeyAfterSignIn(ctx, email, cached, hasCached, response, result)

	f.mu.Lock()
	f.userID = result.UserID
	f.email = result.Email
	f.step = StepComplete
	f.mu.Unlock()
	return StepComplete, nil
}

// cacheKeyAfterSignIn decides what to do with a PRF output obtained during
// sign-in. The cached salt was chosen before authentication, so it may belong
// to someone else; only a salt confirmed against the authenticated user's
// stored parameters may feed key derivation. Every failure here is soft: the
// sign-in itself already succeeded.
func (f *Flow) cacheKeyAfterSignIn(
	ctx context.Context,
	enteredEmail string,
	cached e2eeDomain.PRFParams,
	hasCached bool,
	response *CeremonyResponse,
	result *CeremonyResult,
) {
	if len(response.PRFOutput) == 0 {
		// No inline PRF this time. Remember the server's parameters so the
		// next sign-in can request the extension in one touch.
		if server, err := f.directory.GetPRFParams(ctx, result.UserID); err == nil {
			f.saltCache.Put(result.Email, server)
		}
		return
	}

	if !hasCached {
		return
	}

	server, err := f.directory.GetPRFParams(ctx, result.UserID)
	if err != nil {
		f.logger.Warn("could not confirm prf parameters after sign-in, discarding cached salt",
			"error", err)
		f.saltCache.Delete(enteredEmail)
		return
	}

	if result.Email != enteredEmail ||
		!bytes.Equal(server.Salt, cached.Salt) ||
		server.Version != cached.Version {
		f.logger.Warn("cached prf salt does not belong to the authenticated account, discarding it",
			"user_id", result.UserID)
		f.saltCache.Delete(enteredEmail)
		return
	}

	key, err := f.deriver.DeriveMasterKey(result.UserID, response.PRFOutput, server)
	if err != nil {
		f.logger.Warn("master key derivation failed after sign-in", "error", err)
		return
	}
	if err := f.keyring.Store(key); err != nil {
		f.logger.Warn("failed to cache master key", "error", err)
	}
}

// SetUpEncryption runs the registration ceremony with the PRF extension,
// persists fresh PRF parameters under an incremented version, and derives
// and caches the master key. Re-running setup for an account that already
// has parameters bumps the version rather than reusing the old salt.
func (f *Flow) SetUpEncryption(ctx context.Context) (Step, error) {
	email, err := f.beginCeremony(StepEncryptionSetup)
	if err != nil {
		return f.Step(), err
	}
	defer f.endCeremony()

	f.mu.Lock()
	userID := f.userID
	f.mu.Unlock()

	version := 1
	existing, err := f.directory.GetPRFParams(ctx, userID)
	switch {
	case err == nil:
		version = existing.Version + 1
	case apperrors.Is(err, apperrors.ErrNotFound):
	default:
		return StepEncryptionSetup, apperrors.Wrap(err, "failed to get prf params")
	}

	salt := make([]byte, e2eeDomain.PRFSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return StepEncryptionSetup, apperrors.Wrap(err, "failed to generate prf salt")
	}

	challenge, err := f.ceremonies.BeginRegistration(ctx, userID, salt)
	if err != nil {
		return StepEncryptionSetup, apperrors.Wrap(err, "failed to begin registration ceremony")
	}

	response, err := f.authenticator.Create(ctx, *challenge)
	if err != nil {
		f.logger.Warn("passkey registration did not complete", "error", err)
		return StepEncryptionSetup, ErrCeremonyFailed
	}

	result, err := f.ceremonies.FinishRegistration(ctx, userID, response.Payload)
	if err != nil {
		return StepEncryptionSetup, apperrors.Wrap(err, "failed to finish registration ceremony")
	}

	params := e2eeDomain.PRFParams{
		Salt:         salt,
		CredentialID: result.CredentialID,
		Version:      version,
	}
	if err := f.directory.SavePRFParams(ctx, userID, params); err != nil {
		return StepEncryptionSetup, apperrors.Wrap(err, "failed to save prf params")
	}

	if len(response.PRFOutput) == 0 {
		// Authenticator has no PRF support. The credential and parameters are
		// in place; encrypted data stays locked until a manual unlock.
		f.logger.Warn("authenticator returned no prf output during setup", "user_id", userID)
	} else if key, err := f.deriver.DeriveMasterKey(userID, response.PRFOutput, params); err != nil {
		f.logger.Warn("master key derivation failed during setup", "error", err)
	} else if err := f.keyring.Store(key); err != nil {
		f.logger.Warn("failed to cache master key", "error", err)
	} else {
		f.saltCache.Put(email, params)
	}

	f.mu.Lock()
	f.step = StepComplete
	f.mu.Unlock()
	return StepComplete, nil
}

// beginCeremony checks the flow is on the expected step with no ceremony in
// flight, and reserves the ceremony slot. Returns the flow email.
func (f *Flow) beginCeremony(expected Step) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != expected {
		return "", ErrInvalidTransition
	}
	if f.ceremonyPending {
		return "", ErrCeremonyOutstanding
	}
	f.ceremonyPending = true
	return f.email, nil
}

func (f *Flow) endCeremony() {
	f.mu.Lock()
	f.ceremonyPending = false
	f.mu.Unlock()
}
