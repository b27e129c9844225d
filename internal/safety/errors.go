package safety

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies a failed API call.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindRateLimit      ErrorKind = "rate_limit"
	KindValidation     ErrorKind = "validation"
	KindNotFound       ErrorKind = "not_found"
	KindServer         ErrorKind = "server"
	KindTimeout        ErrorKind = "timeout"
	KindNetwork        ErrorKind = "network"
)

// Sentinels for errors.Is against an *APIError of the matching kind.
var (
	ErrAuthentication = errors.New("safety: authentication failed")
	ErrRateLimit      = errors.New("safety: rate limit exceeded")
	ErrValidation     = errors.New("safety: invalid request")
	ErrNotFound       = errors.New("safety: not found")
	ErrServer         = errors.New("safety: server error")
	ErrTimeout        = errors.New("safety: request timed out")
	ErrNetwork        = errors.New("safety: network error")

	// ErrMissingCredential is returned by New when no credential is supplied.
	ErrMissingCredential = errors.New("safety: credential required")
)

var kindSentinels = map[ErrorKind]error{
	KindAuthentication: ErrAuthentication,
	KindRateLimit:      ErrRateLimit,
	KindValidation:     ErrValidation,
	KindNotFound:       ErrNotFound,
	KindServer:         ErrServer,
	KindTimeout:        ErrTimeout,
	KindNetwork:        ErrNetwork,
}

// APIError is a failed call to the safety API.
type APIError struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int // zero for transport failures
	Message    string
	RequestID  string
	RetryAfter time.Duration // set for rate limits when the server sends Retry-After
	Err        error         // underlying transport error, if any
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("safety: %s: %s (HTTP %d): %s", e.Endpoint, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("safety: %s: %s: %s", e.Endpoint, e.Kind, e.Message)
}

// Unwrap returns the transport error, if any.
func (e *APIError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's kind.
func (e *APIError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Retryable reports whether the call may succeed if repeated.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindServer, KindTimeout, KindNetwork:
		return true
	}
	return false
}

// kindForStatus maps an HTTP status code onto the error taxonomy.
func kindForStatus(code int) ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return KindAuthentication
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	case code >= 500:
		return KindServer
	default:
		return KindValidation
	}
}
