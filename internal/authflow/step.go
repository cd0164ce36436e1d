// Package authflow implements the authentication flow as an explicit state
// machine. A Flow walks a user from an email address to an authenticated
// session with a cached master key, branching between the OTP path for new or
// passkey-less accounts and the passkey path for returning users.
//
// The flow is lifecycle-scoped: each sign-in attempt constructs its own Flow
// with its own Keyring and SaltCache, so nothing here is process-global.
package authflow

// Step identifies a state of the authentication flow.
type Step string

// Flow steps in the order a new user encounters them. A returning user with a
// passkey on file jumps from StepEmail straight to StepPasskeySignIn.
const (
	StepEmail           Step = "email"
	StepGeoConfirmation Step = "geo_confirmation"
	StepVerifyCode      Step = "verify_code"
	StepPasskeySignIn   Step = "passkey_signin"
	StepEncryptionSetup Step = "encryption_setup"
	StepComplete        Step = "complete"
)

// String implements fmt.Stringer.
func (s Step) String() string {
	return string(s)
}
