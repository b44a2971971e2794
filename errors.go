package exnest

import (
	"fmt"
	"net/http"
	"strings"
)

// Canonical error classifications used when the engine itself produces the
// failure rather than the backend.
const (
	ErrCodeNetwork   = "network_error"
	ErrCodeMalformed = "malformed_response"

	ErrTypeClient = "client_error"
)

// ErrorCategory classifies a failure for callers deciding how to react.
type ErrorCategory int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown ErrorCategory = iota

	// CategoryUser indicates a client-side problem with the request.
	CategoryUser

	// CategoryAuth indicates an invalid or expired credential.
	CategoryAuth

	// CategoryQuota indicates rate limiting or exhausted quota.
	CategoryQuota

	// CategoryTransient indicates a temporary server-side failure.
	CategoryTransient

	// CategoryNotFound indicates a missing resource (unknown model, path).
	CategoryNotFound

	// CategoryNetwork indicates the request never produced a backend answer.
	CategoryNetwork
)

// String returns the category's wire-friendly name.
func (c ErrorCategory) String() string {
	switch c {
	case CategoryUser:
		return "user_error"
	case CategoryAuth:
		return "auth_error"
	case CategoryQuota:
		return "quota_error"
	case CategoryTransient:
		return "transient"
	case CategoryNotFound:
		return "not_found"
	case CategoryNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// CategorizeStatus maps an HTTP status code onto an ErrorCategory.
func CategorizeStatus(statusCode int) ErrorCategory {
	switch statusCode {
	case http.StatusBadRequest:
		return CategoryUser
	case http.StatusUnauthorized:
		return CategoryAuth
	case http.StatusPaymentRequired, http.StatusForbidden:
		return CategoryQuota
	case http.StatusNotFound:
		return CategoryNotFound
	case http.StatusTooManyRequests:
		return CategoryQuota
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return CategoryTransient
	default:
		if statusCode >= 400 && statusCode < 500 {
			return CategoryUser
		}
		if statusCode >= 500 {
			return CategoryTransient
		}
		return CategoryUnknown
	}
}

// CategorizeError refines CategorizeStatus using the error message, since
// gateways frequently return quota and validation failures under generic
// status codes.
func CategorizeError(statusCode int, message string) ErrorCategory {
	if isQuotaMessage(message) {
		return CategoryQuota
	}
	if isUserMessage(message) {
		return CategoryUser
	}
	return CategorizeStatus(statusCode)
}

func isQuotaMessage(msg string) bool {
	if msg == "" {
		return false
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "resource_exhausted") ||
		strings.Contains(lower, "quota") ||
		strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests")
}

func isUserMessage(msg string) bool {
	if msg == "" {
		return false
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "invalid_argument") ||
		strings.Contains(lower, "invalid request") ||
		strings.Contains(lower, "malformed") ||
		strings.Contains(lower, "missing required") ||
		strings.Contains(lower, "must be non-empty") ||
		strings.Contains(lower, "cannot be empty")
}

// APIError is the structured error carried on a failed Response. Code, Type
// and Message are preserved verbatim from backend envelopes; Details holds
// any provider-specific fields as opaque key/value data.
type APIError struct {
	Code     string         `json:"code,omitempty"`
	Type     string         `json:"type,omitempty"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
	Category ErrorCategory  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("exnest: %s (%s)", e.Message, e.Code)
	}
	return "exnest: " + e.Message
}

// IsAuth reports whether the error looks like a credential problem.
func (e *APIError) IsAuth() bool { return e.Category == CategoryAuth }

// IsRateLimited reports whether the error is a quota or rate-limit rejection.
func (e *APIError) IsRateLimited() bool { return e.Category == CategoryQuota }

// ValidationError reports malformed caller input. It fails fast: no network
// call is made and nothing is retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("exnest: invalid %s: %s", e.Field, e.Reason)
}

// transportError marks a low-level network failure (connection refused,
// timeout, TLS, DNS) that is eligible for retry.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return "transport: " + e.err.Error()
}

func (e *transportError) Unwrap() error { return e.err }

// backendStatusError carries a fully-received non-2xx response. It is
// terminal: the body's own error envelope is authoritative, never the status
// code, so the retry controller hands it straight to the normalizer.
type backendStatusError struct {
	status int
	body   []byte
}

func (e *backendStatusError) Error() string {
	return fmt.Sprintf("backend status %d", e.status)
}
