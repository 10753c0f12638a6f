package upstream

import (
	"fmt"

	"github.com/rohmanhakim/ghibli-proxy/pkg/failure"
)

type ApiErrorCause string

const (
	ErrCauseConnection     = "connection failure"
	ErrCauseStatus         = "non-success status"
	ErrCauseUndecodable    = "undecodable payload"
	ErrCauseNoRecordParsed = "had records, but none parsed"
)

// ApiError is the catchall error raised when we fail to talk to Studio
// Ghibli's API. This could be them having downtime, network problems
// between us, or their schema drifting away from ours. Every ApiError
// counts as the partner being unavailable; Retryable additionally
// marks the subset worth retrying at the transport level.
type ApiError struct {
	Endpoint   string
	StatusCode int
	Cause      ApiErrorCause
	Retryable  bool
	Err        error
}

func (e *ApiError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("ghibli api failure: %s: %s (status %d)", e.Endpoint, e.Cause, e.StatusCode)
	}
	return fmt.Sprintf("ghibli api failure: %s: %s", e.Endpoint, e.Cause)
}

// Severity is judged from the orchestrator's point of view: partner
// failures are always recoverable there, via stale fallback.
func (e *ApiError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

func (e *ApiError) PartnerUnavailable() bool {
	return true
}

// IsRetryable returns whether this error is retryable
func (e *ApiError) IsRetryable() bool {
	return e.Retryable
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is to match ApiError types
func (e *ApiError) Is(target error) bool {
	_, ok := target.(*ApiError)
	return ok
}

// RequestCancelledError reports that the caller's context ended while
// we were talking to the partner. Deliberately NOT an ApiError: a
// caller that gave up must get its own cancellation back, not a stale
// snapshot dressed up as best-effort.
type RequestCancelledError struct {
	Endpoint string
	Err      error
}

func (e *RequestCancelledError) Error() string {
	return fmt.Sprintf("request cancelled: %s: %v", e.Endpoint, e.Err)
}

func (e *RequestCancelledError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *RequestCancelledError) IsRetryable() bool {
	return false
}

func (e *RequestCancelledError) Unwrap() error {
	return e.Err
}
