package forwarder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vyrodovalexey/avrelay/circuitbreaker"
	"github.com/vyrodovalexey/avrelay/validate"
)

// Sentinel errors for forwarding operations.
var (
	// ErrClosed indicates the forwarder has been closed.
	ErrClosed = errors.New("forwarder is closed")

	// ErrDispatchFailed indicates the outbound call failed.
	ErrDispatchFailed = errors.New("dispatch failed")
)

// DispatchError represents an outbound network failure.
type DispatchError struct {
	Target string
	Cause  error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("dispatch to %s failed: %v", e.Target, e.Cause)
	}
	return fmt.Sprintf("dispatch failed: %v", e.Cause)
}

// Unwrap returns the underlying error.
func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *DispatchError) Is(target error) bool {
	if target == ErrDispatchFailed {
		return true
	}
	_, ok := target.(*DispatchError)
	return ok || errors.Is(e.Cause, target)
}

// UpstreamStatusError is raised synthetically for 5xx upstream
// statuses so the circuit breaker counts them as failures even though
// no transport error occurred.
type UpstreamStatusError struct {
	Target     string
	StatusCode int
}

// Error implements the error interface.
func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Target, e.StatusCode)
}

// Is checks if the error matches the target.
func (e *UpstreamStatusError) Is(target error) bool {
	if target == ErrDispatchFailed {
		return true
	}
	_, ok := target.(*UpstreamStatusError)
	return ok
}

// TimeoutError represents an expired per-call deadline on the outbound
// call.
type TimeoutError struct {
	Target  string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %v", e.Target, e.Timeout)
}

// Is checks if the error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if target == context.DeadlineExceeded {
		return true
	}
	_, ok := target.(*TimeoutError)
	return ok
}

// HookError represents a caller-supplied hook that failed or panicked.
// Hook failures are folded into the dispatch failure class.
type HookError struct {
	Hook  string
	Cause error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("hook %s failed: %v", e.Hook, e.Cause)
}

// Unwrap returns the underlying error.
func (e *HookError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *HookError) Is(target error) bool {
	if target == ErrDispatchFailed {
		return true
	}
	_, ok := target.(*HookError)
	return ok || errors.Is(e.Cause, target)
}

// StatusForError classifies a pipeline error into the HTTP status of
// the synthesized response: validation failures map to 400, breaker
// refusal to 503, timeouts to 504, and everything else (network
// failures, hook failures, synthesized 5xx) to 502.
func StatusForError(err error) int {
	// Hook failures classify as dispatch failures regardless of what
	// the hook returned.
	var hookErr *HookError
	if errors.As(err, &hookErr) {
		return http.StatusBadGateway
	}
	if _, ok := validate.IsValidationError(err); ok {
		return http.StatusBadRequest
	}
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, circuitbreaker.ErrExecutionTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
