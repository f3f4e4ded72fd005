package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"time"
)

// next-auth endpoint paths on the Halo portal.
const (
	csrfPath     = "/api/auth/csrf"
	callbackPath = "/api/auth/callback/tokens"
	sessionPath  = "/api/auth/session"
)

// Registry establishes and renews the long-lived next-auth session. The
// session cookie set acts as a refresh token: as long as it is valid, fresh
// token pairs can be obtained without user interaction.
type Registry struct {
	baseURL    string
	httpClient *http.Client
	store      *Store
	logger     *slog.Logger
}

// NewRegistry creates a session registry against the given Halo portal base
// URL. The http.Client's timeout bounds every session call so a hung renewal
// cannot block joined callers indefinitely.
func NewRegistry(baseURL string, httpClient *http.Client, store *Store, logger *slog.Logger) *Registry {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		store:      store,
		logger:     logger,
	}
}

// sessionResponse is the JSON body of GET /api/auth/session. An empty userId
// means the session (or the tokens used to create it) is not valid.
type sessionResponse struct {
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	Expires      string `json:"expires"`
	AuthToken    string `json:"authToken"`
	ContextToken string `json:"contextToken"`
}

// Establish creates a next-auth session from the given token pair:
//  1. GET the CSRF token
//  2. POST the tokens to the sign-in callback
//  3. Collect the session cookies the portal sets
//  4. GET the session to validate and pick up fresh tokens
//
// On success the handle and any fresher tokens are persisted via the Store
// and the handle is returned. Invalid tokens fail with
// ErrSessionCreationFailed.
func (r *Registry) Establish(ctx context.Context, creds CredentialSet) (SessionHandle, error) {
	r.logger.Info("establishing session", slog.String("base_url", r.baseURL))

	jar, err := cookiejar.New(nil)
	if err != nil {
		return SessionHandle{}, fmt.Errorf("auth: creating cookie jar: %w", err)
	}

	// Clone the client so the jar is scoped to this establish cycle.
	client := *r.httpClient
	client.Jar = jar

	csrfToken, err := r.fetchCSRFToken(ctx, &client)
	if err != nil {
		return SessionHandle{}, err
	}

	if err := r.signIn(ctx, &client, csrfToken, creds); err != nil {
		return SessionHandle{}, err
	}

	cookies := r.collectSessionCookies(jar)
	if cookies[sessionTokenCookie] == "" {
		return SessionHandle{}, newError("establish", ErrSessionCreationFailed)
	}

	// Validate the session and pick up the tokens it carries.
	sess, err := r.fetchSession(ctx, &client, nil)
	if err != nil {
		return SessionHandle{}, err
	}

	if sess.UserID == "" {
		r.logger.Warn("session created but no user data returned")
		return SessionHandle{}, newError("establish", ErrSessionCreationFailed)
	}

	handle := SessionHandle{
		Cookies:   cookies,
		ExpiresAt: parseExpires(sess.Expires),
	}

	fresh := CredentialSet{
		AccessToken:   sess.AuthToken,
		ContextToken:  sess.ContextToken,
		TransactionID: creds.TransactionID,
	}
	if fresh.AccessToken == "" {
		fresh.AccessToken = creds.AccessToken
	}

	if fresh.ContextToken == "" {
		fresh.ContextToken = creds.ContextToken
	}

	if err := r.store.ReplaceSession(fresh, handle); err != nil {
		return SessionHandle{}, err
	}

	r.logger.Info("session established",
		slog.String("username", sess.Username),
		slog.Time("expires", handle.ExpiresAt),
	)

	return handle, nil
}

// Renew uses the session cookies to request a fresh CredentialSet from the
// session endpoint. A rejected cookie fails with ErrSessionExpired — the
// session itself has lapsed and must be re-established from fresh manual
// tokens. On success the new CredentialSet is persisted via the Store.
func (r *Registry) Renew(ctx context.Context, handle SessionHandle) (CredentialSet, error) {
	r.logger.Info("renewing tokens via session cookie")

	sess, err := r.fetchSession(ctx, r.httpClient, handle.Cookies)
	if err != nil {
		return CredentialSet{}, err
	}

	if sess.UserID == "" {
		r.logger.Warn("session cookie rejected by renewal endpoint")
		return CredentialSet{}, newError("renew", ErrSessionExpired)
	}

	if sess.AuthToken == "" || sess.ContextToken == "" {
		return CredentialSet{}, fmt.Errorf("auth: session valid but no tokens returned")
	}

	creds := CredentialSet{
		AccessToken:   sess.AuthToken,
		ContextToken:  sess.ContextToken,
		TransactionID: r.store.Current().TransactionID,
	}

	if err := r.store.Replace(creds); err != nil {
		return CredentialSet{}, err
	}

	r.logger.Info("tokens renewed",
		slog.String("username", sess.Username),
		slog.String("session_expires", sess.Expires),
	)

	return creds, nil
}

// fetchCSRFToken retrieves the CSRF token required by the sign-in callback.
func (r *Registry) fetchCSRFToken(ctx context.Context, client *http.Client) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+csrfPath, nil)
	if err != nil {
		return "", fmt.Errorf("auth: creating csrf request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth: csrf request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth: csrf request returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("auth: decoding csrf response: %w", err)
	}

	return body.CSRFToken, nil
}

// signIn posts the token pair to the next-auth callback. The interesting
// output is the cookies the portal sets on the jar, not the response body.
func (r *Registry) signIn(ctx context.Context, client *http.Client, csrfToken string, creds CredentialSet) error {
	form := url.Values{
		"csrfToken":    {csrfToken},
		"authToken":    {creds.AccessToken},
		"contextToken": {creds.ContextToken},
		"json":         {"true"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+callbackPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("auth: creating sign-in request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: sign-in request: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		r.logger.Warn("sign-in callback rejected", slog.Int("status", resp.StatusCode))
		return newError("establish", ErrSessionCreationFailed)
	}

	return nil
}

// fetchSession GETs /api/auth/session. When cookies is non-nil they are sent
// via an explicit Cookie header (renewal path); otherwise the client's jar
// supplies them (establish path).
func (r *Registry) fetchSession(ctx context.Context, client *http.Client, cookies map[string]string) (*sessionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+sessionPath, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: creating session request: %w", err)
	}

	if cookies != nil {
		req.Header.Set("Cookie", cookieHeader(cookies))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: session request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: session request returned HTTP %d", resp.StatusCode)
	}

	var sess sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("auth: decoding session response: %w", err)
	}

	return &sess, nil
}

// collectSessionCookies extracts the named session cookies from the jar.
func (r *Registry) collectSessionCookies(jar http.CookieJar) map[string]string {
	base, err := url.Parse(r.baseURL)
	if err != nil {
		return nil
	}

	cookies := make(map[string]string)

	for _, c := range jar.Cookies(base) {
		if slices.Contains(SessionCookieNames, c.Name) {
			cookies[c.Name] = c.Value
		}
	}

	return cookies
}

// cookieHeader serializes cookies as a single Cookie header value.
func cookieHeader(cookies map[string]string) string {
	pairs := make([]string, 0, len(cookies))
	for k, v := range cookies {
		pairs = append(pairs, k+"="+v)
	}

	slices.Sort(pairs) // deterministic header for tests and logs

	return strings.Join(pairs, "; ")
}

// parseExpires parses the ISO 8601 expiry next-auth reports. A malformed or
// empty value yields the zero time — the handle still works, it just has no
// known expiry.
func parseExpires(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}

	return t
}
