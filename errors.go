package llm

import (
	"errors"
	"fmt"
	"time"
)

// Category classifies an Error for routing and retry decisions.
type Category string

const (
	CategoryConfiguration  Category = "configuration"
	CategoryNetwork        Category = "network"
	CategoryProvider       Category = "provider"
	CategoryRateLimit      Category = "rate_limit"
	CategoryAuthentication Category = "authentication"
	CategoryValidation     Category = "validation"
	CategoryResponseParse  Category = "response_parse"
	// CategoryCancelled marks a call that ended because its context was
	// cancelled or timed out, not because the provider or network failed.
	// It is deliberately outside the circuit breaker's counted categories
	// (CategoryNetwork/CategoryRateLimit/CategoryProvider): a caller giving
	// up on a call is not evidence the provider is unhealthy.
	CategoryCancelled Category = "cancelled"
)

// Error is the single tagged error type every operation in this package
// returns. Construct one with the New* helpers rather than the struct
// literal directly; the unexported fields keep category/retryability
// consistent with each other.
type Error struct {
	category      Category
	message       string
	underlying    error
	provider      string
	statusCode    int
	hasStatus     bool
	retryAfter    time.Duration
	hasRetryAfter bool
}

func (e *Error) Error() string {
	if e.provider != "" {
		if e.hasStatus {
			return fmt.Sprintf("%s: %s (provider=%s status=%d)", e.category, e.message, e.provider, e.statusCode)
		}
		return fmt.Sprintf("%s: %s (provider=%s)", e.category, e.message, e.provider)
	}
	return fmt.Sprintf("%s: %s", e.category, e.message)
}

func (e *Error) Unwrap() error { return e.underlying }

// Category returns the error's classification.
func (e *Error) Category() Category { return e.category }

// StatusCode returns the HTTP status code that produced this error, if any.
func (e *Error) StatusCode() (int, bool) { return e.statusCode, e.hasStatus }

// IsRetryable reports whether the retry wrapper should attempt this call
// again. Network and RateLimit are always retryable; Provider is retryable
// only for 5xx; everything else is not.
func (e *Error) IsRetryable() bool {
	switch e.category {
	case CategoryNetwork, CategoryRateLimit:
		return true
	case CategoryProvider:
		return e.hasStatus && e.statusCode >= 500 && e.statusCode < 600
	default:
		return false
	}
}

// IsCancelled reports whether this error represents context cancellation or
// deadline expiry rather than a provider/network failure.
func (e *Error) IsCancelled() bool { return e.category == CategoryCancelled }

// RetryAfter returns the provider-suggested delay before retrying, if any.
func (e *Error) RetryAfter() (time.Duration, bool) { return e.retryAfter, e.hasRetryAfter }

// UserMessage returns a fixed, redacted string safe to show end users: no
// raw provider payloads, stack traces, or secrets.
func (e *Error) UserMessage() string {
	switch e.category {
	case CategoryConfiguration:
		return "the request could not be sent due to a configuration problem."
	case CategoryNetwork:
		return "a network error occurred while contacting the model provider."
	case CategoryRateLimit:
		return "the model provider is rate-limiting requests; please try again shortly."
	case CategoryAuthentication:
		return "authentication with the model provider failed."
	case CategoryValidation:
		return "the request was invalid."
	case CategoryResponseParse:
		return "the model provider returned an unexpected response."
	case CategoryProvider:
		return "the model provider returned an error."
	case CategoryCancelled:
		return "the request was cancelled or timed out."
	default:
		return "an unexpected error occurred."
	}
}

// NewConfigurationError reports invalid or missing configuration. Never
// retried.
func NewConfigurationError(message string) *Error {
	return &Error{category: CategoryConfiguration, message: message}
}

// NewValidationError reports a client-side invalid request, detected before
// any network I/O.
func NewValidationError(message string) *Error {
	return &Error{category: CategoryValidation, message: message}
}

// NewNetworkError wraps a transport-level failure.
func NewNetworkError(underlying error) *Error {
	msg := "network error"
	if underlying != nil {
		msg = underlying.Error()
	}
	return &Error{category: CategoryNetwork, message: msg, underlying: underlying}
}

// NewCancelledError wraps a context cancellation or deadline expiry. Never
// retried, and never counted as a circuit-breaker failure.
func NewCancelledError(underlying error) *Error {
	msg := "request cancelled"
	if underlying != nil {
		msg = underlying.Error()
	}
	return &Error{category: CategoryCancelled, message: msg, underlying: underlying}
}

// NewAuthenticationError reports a 401/403 response.
func NewAuthenticationError(provider, message string) *Error {
	return &Error{category: CategoryAuthentication, message: message, provider: provider}
}

// NewRateLimitError reports a 429 response, optionally carrying the
// provider's Retry-After hint.
func NewRateLimitError(provider string, retryAfter time.Duration, hasRetryAfter bool) *Error {
	return &Error{
		category:      CategoryRateLimit,
		message:       "rate limited",
		provider:      provider,
		statusCode:    429,
		hasStatus:     true,
		retryAfter:    retryAfter,
		hasRetryAfter: hasRetryAfter,
	}
}

// NewProviderError reports an HTTP status >= 400 not more specifically
// classified, i.e. not 401/403/429.
func NewProviderError(provider, message string, statusCode int, underlying error) *Error {
	return &Error{
		category:   CategoryProvider,
		message:    message,
		provider:   provider,
		statusCode: statusCode,
		hasStatus:  statusCode != 0,
		underlying: underlying,
	}
}

// NewResponseParseError reports a body that did not match the expected
// shape.
func NewResponseParseError(provider, message string, underlying error) *Error {
	return &Error{category: CategoryResponseParse, message: message, provider: provider, underlying: underlying}
}

// AsError attempts to view err as an *Error, unwrapping as needed.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
