package guard

import (
	"context"
	"errors"

	"github.com/jonwraymond/toolguard/parallel"
	"github.com/jonwraymond/toolguard/resilience"
)

var (
	// ErrInvalidConfig wraps every Config validation and decoding failure.
	ErrInvalidConfig = errors.New("guard: invalid config")

	// ErrMissingEnv indicates the config references unset environment variables.
	ErrMissingEnv = errors.New("guard: missing environment variables")

	// ErrNilFunc indicates Do was called without a function.
	ErrNilFunc = errors.New("guard: function is nil")
)

// Kind classifies the outcome of a guarded call.
type Kind int

const (
	// KindNone means the call succeeded.
	KindNone Kind = iota
	// KindUpstream is an error returned by the wrapped function itself.
	KindUpstream
	// KindCircuitOpen means the breaker rejected the call.
	KindCircuitOpen
	// KindRetryExhausted means every retry attempt failed.
	KindRetryExhausted
	// KindTimeout means the guard stopped waiting at its deadline.
	KindTimeout
	// KindRejected means a rate limit or bulkhead refused the call.
	KindRejected
	// KindStopped means a batch stopped after another item failed.
	KindStopped
	// KindCanceled means the caller's context ended the call.
	KindCanceled
)

// String returns the kind name used in log fields.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindUpstream:
		return "upstream"
	case KindCircuitOpen:
		return "circuit_open"
	case KindRetryExhausted:
		return "retry_exhausted"
	case KindTimeout:
		return "timeout"
	case KindRejected:
		return "rejected"
	case KindStopped:
		return "stopped"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Classify maps err to the policy that produced it. Exhausted retries are
// reported as KindRetryExhausted even when the last attempt timed out.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, resilience.ErrMaxRetriesExceeded):
		return KindRetryExhausted
	case errors.Is(err, resilience.ErrCircuitOpen):
		return KindCircuitOpen
	case errors.Is(err, resilience.ErrTimeout):
		return KindTimeout
	case errors.Is(err, resilience.ErrRateLimitExceeded), errors.Is(err, resilience.ErrBulkheadFull):
		return KindRejected
	case errors.Is(err, parallel.ErrStopped):
		return KindStopped
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUpstream
	}
}

// IsPolicyRejection reports whether err means the upstream was never called:
// an open circuit, a rate limit or a full bulkhead.
func IsPolicyRejection(err error) bool {
	switch Classify(err) {
	case KindCircuitOpen, KindRejected:
		return true
	default:
		return false
	}
}
