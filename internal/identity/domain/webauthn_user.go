package domain

import (
	"github.com/go-webauthn/webauthn/webauthn"
)

// WebAuthnUser adapts a User plus their stored credentials to the interface
// go-webauthn ceremonies operate on.
type WebAuthnUser struct {
	User        *User
	Credentials []PasskeyCredential
}

// WebAuthnID returns the user handle: the raw UUID bytes, stable for the
// account's lifetime.
func (w *WebAuthnUser) WebAuthnID() []byte {
	return w.User.ID[:]
}

// WebAuthnName returns the account's login name.
func (w *WebAuthnUser) WebAuthnName() string {
	return w.User.Email
}

// WebAuthnDisplayName returns the name shown in authenticator prompts.
func (w *WebAuthnUser) WebAuthnDisplayName() string {
	return w.User.Email
}

// WebAuthnCredentials returns the user's registered credentials.
func (w *WebAuthnUser) WebAuthnCredentials() []webauthn.Credential {
	credentials := make([]webauthn.Credential, 0, len(w.Credentials))
	for _, c := range w.Credentials {
		credentials = append(credentials, c.Credential)
	}
	return credentials
}
