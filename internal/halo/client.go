package halo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"halomcp/internal/auth"
)

const userAgent = "halomcp/0.1"

// CredentialSource provides the current committed CredentialSet. Defined at
// the consumer per Go convention "accept interfaces, return structs"; the
// auth.Store is the real implementation.
type CredentialSource interface {
	Current() auth.CredentialSet
}

// Refresher performs a coordinated, single-flight token renewal and returns
// the newly committed CredentialSet. The auth.Coordinator is the real
// implementation.
type Refresher interface {
	Refresh(ctx context.Context) (auth.CredentialSet, error)
}

// Client executes Halo API calls with the detect-expiry → refresh → retry-once
// protocol. GraphQL operations go to the gateway URL; orchestration REST and
// form posts go to the portal base URL.
type Client struct {
	gatewayURL string
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
	refresher  Refresher
	logger     *slog.Logger
}

// NewClient creates a Halo API client.
func NewClient(gatewayURL, baseURL string, httpClient *http.Client, creds CredentialSource, refresher Refresher, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		gatewayURL: gatewayURL,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		creds:      creds,
		refresher:  refresher,
		logger:     logger,
	}
}

// issueFunc performs a single attempt of a logical call with the given
// credentials attached.
type issueFunc func(ctx context.Context, creds auth.CredentialSet) (json.RawMessage, error)

// withRetry runs the one-refresh-one-retry state machine around issue:
// attach current credentials and send; on the expiry signal perform exactly
// one coordinated refresh and re-issue once with the new credentials, whose
// outcome is final. Every other failure passes straight through, and a
// failed refresh surfaces the auth error unwrapped so the caller can present
// actionable guidance.
func (c *Client) withRetry(ctx context.Context, operation string, issue issueFunc) (json.RawMessage, error) {
	data, err := issue(ctx, c.creds.Current())
	if err == nil || !errors.Is(err, ErrTokenExpired) {
		return data, err
	}

	c.logger.Info("token expired mid-request, refreshing",
		slog.String("operation", operation),
	)

	fresh, refreshErr := c.refresher.Refresh(ctx)
	if refreshErr != nil {
		return nil, refreshErr
	}

	c.logger.Info("retrying with refreshed credentials",
		slog.String("operation", operation),
	)

	return issue(ctx, fresh)
}

// graphResponse is the GraphQL envelope returned by the gateway.
type graphResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphError    `json:"errors"`
}

// Query executes a GraphQL request and returns the response's data member.
// Expired credentials are refreshed transparently (once) before the error
// surfaces.
func (c *Client) Query(ctx context.Context, r *Request) (json.RawMessage, error) {
	if r.query == "" {
		return nil, fmt.Errorf("halo: no query set for operation %q", r.operation)
	}

	return c.withRetry(ctx, r.operation, func(ctx context.Context, creds auth.CredentialSet) (json.RawMessage, error) {
		payload := map[string]any{
			"operationName": r.operation,
			"query":         r.query,
			"variables":     r.variables,
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("halo: encoding %s payload: %w", r.operation, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("halo: creating %s request: %w", r.operation, err)
		}

		c.setHeaders(req, r, creds)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("halo: %s: %w", r.operation, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("halo: reading %s response: %w", r.operation, err)
		}

		if sentinel := classifyStatus(resp.StatusCode); sentinel != nil {
			return nil, &APIError{
				Operation:  r.operation,
				StatusCode: resp.StatusCode,
				Messages:   []string{strings.TrimSpace(string(raw))},
				Err:        sentinel,
			}
		}

		var envelope graphResponse
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("halo: decoding %s response: %w", r.operation, err)
		}

		if len(envelope.Errors) > 0 {
			apiErr := &APIError{
				Operation:  r.operation,
				StatusCode: resp.StatusCode,
				Messages:   errorMessages(envelope.Errors),
			}
			if isExpiryError(envelope.Errors) {
				apiErr.Err = ErrTokenExpired
			}

			return nil, apiErr
		}

		c.logger.Debug("graphql operation succeeded",
			slog.String("operation", r.operation),
		)

		return envelope.Data, nil
	})
}

// PostJSON executes an orchestration REST post with a JSON body and returns
// the raw response body. Same refresh/retry protocol as Query.
func (c *Client) PostJSON(ctx context.Context, path string, r *Request) (json.RawMessage, error) {
	return c.withRetry(ctx, r.operation, func(ctx context.Context, creds auth.CredentialSet) (json.RawMessage, error) {
		body, err := json.Marshal(r.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("halo: encoding %s body: %w", r.operation, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("halo: creating %s request: %w", r.operation, err)
		}

		c.setHeaders(req, r, creds)
		req.Header.Set("Content-Type", "application/json")

		return c.doRest(req, r.operation)
	})
}

// PostForm executes an orchestration form post (application/x-www-form-urlencoded)
// and returns the raw response body. Same refresh/retry protocol as Query.
func (c *Client) PostForm(ctx context.Context, path string, r *Request) (json.RawMessage, error) {
	return c.withRetry(ctx, r.operation, func(ctx context.Context, creds auth.CredentialSet) (json.RawMessage, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+path, strings.NewReader(r.form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("halo: creating %s request: %w", r.operation, err)
		}

		c.setHeaders(req, r, creds)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		return c.doRest(req, r.operation)
	})
}

// doRest sends a prepared REST request and classifies the response.
func (c *Client) doRest(req *http.Request, operation string) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("halo: %s: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("halo: reading %s response: %w", operation, err)
	}

	if sentinel := classifyStatus(resp.StatusCode); sentinel != nil {
		return nil, &APIError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Messages:   []string{strings.TrimSpace(string(raw))},
			Err:        sentinel,
		}
	}

	c.logger.Debug("rest operation succeeded",
		slog.String("operation", operation),
		slog.Int("status", resp.StatusCode),
	)

	return raw, nil
}

// Upload PUTs raw bytes to an absolute URL (presigned storage upload).
// No credentials are attached — the URL itself carries the authorization.
func (c *Client) Upload(ctx context.Context, uploadURL, contentType string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("halo: creating upload request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("halo: upload: %w", err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("halo: upload failed with HTTP %d", resp.StatusCode)
	}

	return nil
}

// setHeaders attaches the credential and context headers to a request. The
// transaction id combines the tenant/user identifier with a per-request UUID.
func (c *Client) setHeaders(req *http.Request, r *Request, creds auth.CredentialSet) {
	txn := uuid.NewString()
	if creds.TransactionID != "" {
		txn = creds.TransactionID + "-" + txn
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("transaction-id", txn)
	req.Header.Set("authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("contexttoken", "Bearer "+creds.ContextToken)

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
}
