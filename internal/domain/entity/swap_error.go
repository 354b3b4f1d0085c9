package entity

import "fmt"

// ErrorKind classifies a swap failure. Every failure crossing a component
// boundary is converted to one of these kinds before it reaches the
// orchestrator; raw transport or wallet errors never leak to callers.
type ErrorKind string

const (
	// ErrValidation marks missing or malformed request parameters. Never retried.
	ErrValidation ErrorKind = "validation"
	// ErrUpstreamRejected marks a non-success aggregator response. The upstream
	// reason is surfaced verbatim together with its status code.
	ErrUpstreamRejected ErrorKind = "upstream_rejected"
	// ErrRetrieval marks a network/transport failure reaching the aggregator.
	ErrRetrieval ErrorKind = "retrieval_failure"
	// ErrNoRoute marks a success response without a usable buy amount.
	ErrNoRoute ErrorKind = "no_route"
	// ErrInsufficientBalance marks a zero sell-token balance.
	ErrInsufficientBalance ErrorKind = "insufficient_balance"
	// ErrInsufficientGas marks a native balance that cannot cover network fees.
	ErrInsufficientGas ErrorKind = "insufficient_gas"
	// ErrApprovalFailed marks a rejected or unbroadcast approval transaction.
	ErrApprovalFailed ErrorKind = "approval_failed"
	// ErrSignatureRejected marks a declined or failed structured-data signature.
	ErrSignatureRejected ErrorKind = "signature_rejected"
	// ErrSubmissionFailed marks a swap transaction that was rejected or failed
	// to broadcast.
	ErrSubmissionFailed ErrorKind = "submission_failed"
)

// SwapError is the single error type crossing component boundaries.
type SwapError struct {
	Kind    ErrorKind
	Message string
	Status  int // upstream HTTP status for ErrUpstreamRejected, 0 otherwise
	Cause   error
}

func (e *SwapError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SwapError) Unwrap() error { return e.Cause }

// AllowsOverride reports whether the user may proceed with a swap despite this
// error. Only quote-retrieval failures are overridable; balance, approval and
// signature errors always block.
func (e *SwapError) AllowsOverride() bool {
	switch e.Kind {
	case ErrUpstreamRejected, ErrRetrieval, ErrNoRoute:
		return true
	default:
		return false
	}
}

// NewSwapError builds a SwapError without an upstream status.
func NewSwapError(kind ErrorKind, message string, cause error) *SwapError {
	return &SwapError{Kind: kind, Message: message, Cause: cause}
}

// NewUpstreamRejected builds an ErrUpstreamRejected carrying the upstream's
// human-readable reason and status code.
func NewUpstreamRejected(status int, reason string) *SwapError {
	return &SwapError{Kind: ErrUpstreamRejected, Message: reason, Status: status}
}

// AsSwapError converts any error to a *SwapError, wrapping unknown errors
// under the given fallback kind.
func AsSwapError(err error, fallback ErrorKind) *SwapError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*SwapError); ok {
		return se
	}
	return &SwapError{Kind: fallback, Message: err.Error(), Cause: err}
}
