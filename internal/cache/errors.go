package cache

import (
	"fmt"

	"github.com/rohmanhakim/ghibli-proxy/pkg/failure"
)

// NotCacheableError reports a programming error: an operation was
// passed to the orchestrator (or to StoreFor) without ever being bound
// to a store. It is always fatal to the call and never retried.
type NotCacheableError struct {
	Operation string
}

func (e *NotCacheableError) Error() string {
	return fmt.Sprintf("operation %q must be bound with Bind before cached use", e.Operation)
}

func (e *NotCacheableError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// Is allows errors.Is to match NotCacheableError types
func (e *NotCacheableError) Is(target error) bool {
	_, ok := target.(*NotCacheableError)
	return ok
}

// AlreadyBoundError reports a second Bind call for the same operation.
// Bindings are static: established once at startup, never per call.
type AlreadyBoundError struct {
	Operation string
}

func (e *AlreadyBoundError) Error() string {
	return fmt.Sprintf("operation %q is already bound", e.Operation)
}

func (e *AlreadyBoundError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// Is allows errors.Is to match AlreadyBoundError types
func (e *AlreadyBoundError) Is(target error) bool {
	_, ok := target.(*AlreadyBoundError)
	return ok
}
