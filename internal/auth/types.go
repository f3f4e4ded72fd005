// Package auth implements the credential lifecycle for the Halo API: the
// in-memory credential store mirrored to a durable record, the next-auth
// session registry used to mint fresh tokens without user input, and the
// single-flight coordinator that serializes token renewal.
package auth

import "time"

// CredentialSet is the short-lived token pair plus the tenant/user transaction
// identifier attached to every Halo API call. It is an immutable value —
// a refresh produces a new CredentialSet rather than mutating fields, so
// in-flight readers never observe a half-updated set.
type CredentialSet struct {
	AccessToken   string
	ContextToken  string
	TransactionID string
}

// Valid reports whether both tokens are present. TransactionID may be empty
// (the request layer falls back to a bare per-request UUID).
func (c CredentialSet) Valid() bool {
	return c.AccessToken != "" && c.ContextToken != ""
}

// sessionTokenCookie is the next-auth cookie that carries the actual session.
// A SessionHandle without it is unusable for renewal.
const sessionTokenCookie = "__Secure-next-auth.session-token"

// SessionCookieNames lists every cookie needed for a valid Halo session.
// TE1TX0FVVEg and TE1TX0NPTlRFWFQ are base64 for LMS_AUTH and LMS_CONTEXT.
var SessionCookieNames = []string{
	"__Host-next-auth.csrf-token",
	"__Secure-next-auth.callback-url",
	sessionTokenCookie,
	"TE1TX0FVVEg",
	"TE1TX0NPTlRFWFQ",
}

// SessionHandle is the long-lived cookie set used to mint fresh CredentialSets
// without manual intervention. It lasts about 30 days. Renew and Establish
// replace the whole handle; ExpiresAt is never silently extended.
type SessionHandle struct {
	Cookies   map[string]string
	ExpiresAt time.Time
}

// Usable reports whether the handle carries the session-token cookie required
// for renewal.
func (h SessionHandle) Usable() bool {
	return h.Cookies[sessionTokenCookie] != ""
}
