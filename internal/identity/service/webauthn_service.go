package service

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"

	apperrors "github.com/sealkeep/sealkeep/internal/errors"
	"github.com/sealkeep/sealkeep/internal/identity/domain"
)

// ceremonyKind discriminates pending ceremony types so a registration finish
// can never consume a login session or vice versa.
type ceremonyKind string

const (
	ceremonyRegistration ceremonyKind = "registration"
	ceremonyLogin        ceremonyKind = "login"
)

type pendingCeremony struct {
	kind    ceremonyKind
	session *webauthn.SessionData
}

// WebAuthnService implements CeremonyService on top of go-webauthn. Pending
// ceremony sessions live in memory keyed by user ID; at most one ceremony may
// be outstanding per user, and beginning a second one is rejected rather than
// replacing the first.
type WebAuthnService struct {
	webAuthn *webauthn.WebAuthn
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]pendingCeremony
}

// NewWebAuthnService creates a WebAuthnService for the given relying party.
// ceremonyTimeout bounds how long a begun ceremony stays valid.
func NewWebAuthnService(
	rpID, rpDisplayName string,
	rpOrigins []string,
	ceremonyTimeout time.Duration,
	logger *slog.Logger,
) (*WebAuthnService, error) {
	timeout := webauthn.TimeoutConfig{
		Enforce:    true,
		Timeout:    ceremonyTimeout,
		TimeoutUVD: ceremonyTimeout,
	}
	webAuthn, err := webauthn.New(&webauthn.Config{
		RPID:          rpID,
		RPDisplayName: rpDisplayName,
		RPOrigins:     rpOrigins,
		Timeouts: webauthn.TimeoutsConfig{
			Login:        timeout,
			Registration: timeout,
		},
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create webauthn relying party")
	}

	return &WebAuthnService{
		webAuthn: webAuthn,
		logger:   logger,
		pending:  make(map[uuid.UUID]pendingCeremony),
	}, nil
}

// prfExtension builds the client extension inputs requesting PRF evaluation
// of a single salt during the ceremony.
func prfExtension(salt []byte) protocol.AuthenticationExtensions {
	return protocol.AuthenticationExtensions{
		"prf": map[string]interface{}{
			"eval": map[string]interface{}{
				"first": protocol.URLEncodedBase64(salt),
			},
		},
	}
}

// BeginRegistration starts a credential creation ceremony for the user.
func (s *WebAuthnService) BeginRegistration(
	user *domain.WebAuthnUser,
	prfSalt []byte,
) (*protocol.CredentialCreation, error) {
	userID := user.User.ID
	if err := s.reserve(userID); err != nil {
		return nil, err
	}

	opts := []webauthn.RegistrationOption{}
	if len(prfSalt) > 0 {
		opts = append(opts, webauthn.WithExtensions(prfExtension(prfSalt)))
	}

	creation, session, err := s.webAuthn.BeginRegistration(user, opts...)
	if err != nil {
		s.release(userID)
		return nil, apperrors.Wrap(err, "failed to begin registration ceremony")
	}

	s.store(userID, ceremonyRegistration, session)
	return creation, nil
}

// FinishRegistration verifies the attestation response against the pending
// session. The session is consumed whether or not verification succeeds.
func (s *WebAuthnService) FinishRegistration(
	user *domain.WebAuthnUser,
	request *http.Request,
) (*webauthn.Credential, error) {
	session, err := s.take(user.User.ID, ceremonyRegistration)
	if err != nil {
		return nil, err
	}

	credential, err := s.webAuthn.FinishRegistration(user, *session, request)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "registration ceremony verification failed")
	}
	return credential, nil
}

// BeginLogin starts an assertion ceremony for the user.
func (s *WebAuthnService) BeginLogin(
	user *domain.WebAuthnUser,
	prfSalt []byte,
) (*protocol.CredentialAssertion, error) {
	userID := user.User.ID
	if err := s.reserve(userID); err != nil {
		return nil, err
	}

	opts := []webauthn.LoginOption{}
	if len(prfSalt) > 0 {
		opts = append(opts, webauthn.WithAssertionExtensions(prfExtension(prfSalt)))
	}

	assertion, session, err := s.webAuthn.BeginLogin(user, opts...)
	if err != nil {
		s.release(userID)
		return nil, apperrors.Wrap(err, "failed to begin login ceremony")
	}

	s.store(userID, ceremonyLogin, session)
	return assertion, nil
}

// FinishLogin verifies the assertion response against the pending session.
// The session is consumed whether or not verification succeeds.
func (s *WebAuthnService) FinishLogin(
	user *domain.WebAuthnUser,
	request *http.Request,
) (*webauthn.Credential, error) {
	session, err := s.take(user.User.ID, ceremonyLogin)
	if err != nil {
		return nil, err
	}

	credential, err := s.webAuthn.FinishLogin(user, *session, request)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrUnauthorized, "login ceremony verification failed")
	}
	return credential, nil
}

// Cancel drops any pending ceremony for the user.
func (s *WebAuthnService) Cancel(userID uuid.UUID) {
	s.release(userID)
}

// reserve marks a ceremony slot for the user, rejecting a second outstanding
// ceremony. A pending entry whose session has already expired is an abandoned
// ceremony (the user dismissed the prompt and never finished); its slot is
// reclaimed so the user can begin again.
func (s *WebAuthnService) reserve(userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pending, exists := s.pending[userID]; exists {
		if !ceremonyExpired(pending) {
			return domain.ErrCeremonyOutstanding
		}
		delete(s.pending, userID)
	}
	// Placeholder entry until Begin* stores the real session.
	s.pending[userID] = pendingCeremony{}
	return nil
}

// ceremonyExpired reports whether a pending entry is past its session expiry.
// Placeholder entries and sessions without an expiry never expire here.
func ceremonyExpired(pending pendingCeremony) bool {
	if pending.session == nil || pending.session.Expires.IsZero() {
		return false
	}
	return time.Now().After(pending.session.Expires)
}

func (s *WebAuthnService) store(userID uuid.UUID, kind ceremonyKind, session *webauthn.SessionData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] = pendingCeremony{kind: kind, session: session}
}

func (s *WebAuthnService) take(userID uuid.UUID, kind ceremonyKind) (*webauthn.SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, exists := s.pending[userID]
	if !exists || pending.session == nil || pending.kind != kind {
		return nil, domain.ErrCeremonyNotFound
	}
	delete(s.pending, userID)
	return pending.session, nil
}

func (s *WebAuthnService) release(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
}
