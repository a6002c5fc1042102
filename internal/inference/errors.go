package inference

import (
	"context"
	"errors"
	"fmt"
	"net"

	"stockscan/internal/retry"
)

// Kind classifies inference failures. Every error returned by a Client
// must be classifiable so the retry policy can decide what to do with it.
type Kind int

const (
	// KindRateLimited means the backend rejected the call for quota
	// pacing reasons (HTTP 429). Retryable.
	KindRateLimited Kind = iota

	// KindTimeout means the call exceeded its deadline. Retryable.
	KindTimeout

	// KindConnReset means the connection failed mid-flight. Retryable.
	KindConnReset

	// KindAuth means the credential was rejected (HTTP 401/403). Fatal.
	KindAuth

	// KindQuotaExhausted means the quota is permanently spent for this
	// billing period. Fatal.
	KindQuotaExhausted

	// KindInvalidRequest means the request was malformed (HTTP 400).
	// Fatal: retrying the same request cannot succeed.
	KindInvalidRequest

	// KindUnknown is any unclassified failure. Treated as retryable so a
	// flaky backend gets the benefit of the doubt.
	KindUnknown
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindConnReset:
		return "connection_reset"
	case KindAuth:
		return "auth"
	case KindQuotaExhausted:
		return "quota_exhausted"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Retryable reports whether failures of this kind are worth retrying.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindConnReset, KindUnknown:
		return true
	default:
		return false
	}
}

// Error is an inference failure with a machine-readable kind.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// Message describes the failure for humans.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("inference %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("inference %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an inference error of the given kind.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the failure kind from an error chain. Deadline and
// network errors from the transport layer are recognized even when they
// were not wrapped in an *Error.
func KindOf(err error) Kind {
	var infErr *Error
	if errors.As(err, &infErr) {
		return infErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindConnReset
	}
	return KindUnknown
}

// ClassifyRetry is the retry.Classifier for inference errors. This is
// the single classification rule shared by every call site.
func ClassifyRetry(err error) retry.Class {
	if KindOf(err).Retryable() {
		return retry.ClassRetryable
	}
	return retry.ClassFatal
}
