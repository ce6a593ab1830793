package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrTransientNetwork marks a connection or timeout failure while calling the
// token endpoint. The retry policy retries errors that wrap it.
var ErrTransientNetwork = errors.New("transient network error")

// StatusError reports a non-2xx response from the token endpoint.
type StatusError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d", e.StatusCode)
}

// IsNotFound reports whether the endpoint answered 404, which is retried to
// ride out rolling deployments of the identity provider.
func (e *StatusError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// MalformedResponseError reports a 2xx response that is not a JSON object or
// lacks required fields.
type MalformedResponseError struct {
	Missing []string
	Err     error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	if len(e.Missing) > 0 {
		return "token response missing required fields: " + strings.Join(e.Missing, ", ")
	}
	if e.Err != nil {
		return "malformed token response: " + e.Err.Error()
	}
	return "malformed token response"
}

// Unwrap returns the underlying decode or parse error.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ParseError reports a field that is present but cannot be interpreted, such
// as a non-integer expires_in or a stored expires_at that is not a timestamp.
type ParseError struct {
	Field string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a token endpoint result should be retried: a
// transient network failure, a 404, a 408, or any 5xx.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransientNetwork) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return isRetryableStatus(statusErr.StatusCode)
	}
	return false
}

func isRetryableStatus(code int) bool {
	return code == http.StatusNotFound ||
		code == http.StatusRequestTimeout ||
		code >= http.StatusInternalServerError
}
