package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for credential lifecycle failures.
// Use errors.Is(err, auth.ErrNoSession) to check.
var (
	// ErrNoSession: a refresh was attempted with no session on record.
	ErrNoSession = errors.New("auth: no session on record")

	// ErrSessionExpired: the session cookie itself was rejected by the
	// renewal endpoint. A brand-new session must be established from fresh
	// manual tokens.
	ErrSessionExpired = errors.New("auth: session expired")

	// ErrSessionCreationFailed: the provided tokens were rejected when
	// establishing a session.
	ErrSessionCreationFailed = errors.New("auth: session creation failed")

	// ErrPersistence: the durable credential record could not be written.
	// The in-memory credentials are left unchanged so store and memory
	// never diverge.
	ErrPersistence = errors.New("auth: persisting credential record")
)

// Remediation texts shown to the user when the lifecycle cannot recover on
// its own. The MCP frontend renders these verbatim so an agent can relay
// actionable next steps.
const (
	remediationNoSession = "No session cookies stored. Run initial setup first:\n" +
		"  1. Provide authToken/contextToken in the credential file\n" +
		"  2. Call the 'setup_session' tool to create a long-lived session"

	remediationSessionExpired = "Session cookie has expired. You need to re-authenticate:\n" +
		"  1. Log into the Halo LMS in your browser\n" +
		"  2. Update authToken/contextToken in the credential file\n" +
		"  3. Call the 'setup_session' tool to create a new session"

	remediationCreationFailed = "Failed to obtain session cookies. " +
		"The provided tokens may be invalid — copy fresh authToken/contextToken " +
		"values from your browser and update the credential file."
)

// Error wraps a lifecycle sentinel with the failed operation and a
// human-readable remediation so a user-facing layer can render actionable
// guidance rather than a raw failure.
type Error struct {
	Op          string // "renew", "establish", "refresh"
	Remediation string
	Err         error // sentinel, for errors.Is()
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v (op: %s)", e.Err, e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError builds an *Error for the given sentinel, selecting the matching
// remediation text.
func newError(op string, sentinel error) *Error {
	var remediation string

	switch {
	case errors.Is(sentinel, ErrNoSession):
		remediation = remediationNoSession
	case errors.Is(sentinel, ErrSessionExpired):
		remediation = remediationSessionExpired
	case errors.Is(sentinel, ErrSessionCreationFailed):
		remediation = remediationCreationFailed
	}

	return &Error{Op: op, Remediation: remediation, Err: sentinel}
}

// RemediationFor returns the remediation text carried by err, or the empty
// string if err is not a lifecycle *Error.
func RemediationFor(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Remediation
	}

	return ""
}
