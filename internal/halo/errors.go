// Package halo provides an HTTP client for the Halo LMS GraphQL and
// orchestration APIs with automatic credential attachment and a transparent
// refresh-and-retry-once protocol on token expiry.
package halo

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for response classification.
// Use errors.Is(err, halo.ErrTokenExpired) to check.
var (
	// ErrTokenExpired is the expiry signal: the attached credentials were
	// rejected. It is the only failure the client recovers from locally,
	// via one refresh and one retry.
	ErrTokenExpired = errors.New("halo: token expired")

	ErrBadRequest  = errors.New("halo: bad request")
	ErrForbidden   = errors.New("halo: forbidden")
	ErrNotFound    = errors.New("halo: not found")
	ErrThrottled   = errors.New("halo: throttled")
	ErrServerError = errors.New("halo: server error")
)

// APIError wraps a sentinel error with the failed operation, HTTP status,
// and the API error messages for debugging.
type APIError struct {
	Operation  string
	StatusCode int
	Messages   []string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("halo: %s: %s", e.Operation, strings.Join(e.Messages, "; "))
	}

	return fmt.Sprintf("halo: %s: HTTP %d", e.Operation, e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes. 401 is the expiry signal.
func classifyStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrTokenExpired
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}

// graphError is a single entry of a GraphQL response's errors array.
type graphError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// isExpiryError reports whether a GraphQL-level error indicates expired or
// invalid credentials. The gateway answers 200 with an UNAUTHENTICATED error
// entry rather than a bare 401.
func isExpiryError(errs []graphError) bool {
	for _, e := range errs {
		if e.Extensions.Code == "UNAUTHENTICATED" {
			return true
		}

		msg := strings.ToLower(e.Message)
		if strings.Contains(msg, "jwt expired") ||
			(strings.Contains(msg, "token") && strings.Contains(msg, "expired")) {
			return true
		}
	}

	return false
}

// errorMessages flattens GraphQL errors to their message strings.
func errorMessages(errs []graphError) []string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Message == "" {
			msgs = append(msgs, "unknown error")
			continue
		}

		msgs = append(msgs, e.Message)
	}

	return msgs
}
