package forwarder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vyrodovalexey/avrelay/circuitbreaker"
)

// BeforeRequestHook runs before any validation or dispatch work.
type BeforeRequestHook func(ctx context.Context, req *http.Request) error

// BeforeCircuitBreakerHook runs immediately before the breaker-guarded
// dispatch.
type BeforeCircuitBreakerHook func(ctx context.Context, req *http.Request) error

// AfterResponseHook runs only after a successful dispatch. It receives
// the inbound request, the upstream response, and the response body
// stream.
type AfterResponseHook func(ctx context.Context, req *http.Request, resp *http.Response, body io.Reader) error

// AfterCircuitBreakerHook runs after every breaker execution,
// regardless of outcome.
type AfterCircuitBreakerHook func(ctx context.Context, req *http.Request, result ExecutionResult) error

// ErrorHook runs when the pipeline fails, before the error is
// classified into a synthesized response.
type ErrorHook func(ctx context.Context, req *http.Request, err error)

// Hooks holds the optional caller-supplied lifecycle callbacks. Each
// slot is invoked only if present; hook failures are contained and
// classified, never propagated past Proxy.
type Hooks struct {
	BeforeRequest        BeforeRequestHook
	BeforeCircuitBreaker BeforeCircuitBreakerHook
	AfterResponse        AfterResponseHook
	AfterCircuitBreaker  AfterCircuitBreakerHook
	OnError              ErrorHook
}

// ExecutionResult is the record handed to the AfterCircuitBreaker
// hook so monitoring integrations observe every outcome exactly once.
type ExecutionResult struct {
	Success  bool
	Err      error
	State    circuitbreaker.State
	Failures int
	Duration time.Duration
}

// mergeHooks overlays request-level hooks over instance-level hooks,
// slot by slot.
func mergeHooks(instance, request Hooks) Hooks {
	merged := instance
	if request.BeforeRequest != nil {
		merged.BeforeRequest = request.BeforeRequest
	}
	if request.BeforeCircuitBreaker != nil {
		merged.BeforeCircuitBreaker = request.BeforeCircuitBreaker
	}
	if request.AfterResponse != nil {
		merged.AfterResponse = request.AfterResponse
	}
	if request.AfterCircuitBreaker != nil {
		merged.AfterCircuitBreaker = request.AfterCircuitBreaker
	}
	if request.OnError != nil {
		merged.OnError = request.OnError
	}
	return merged
}

// runHook invokes fn, converting a returned error or panic into a
// HookError named after the hook.
func runHook(name string, fn func() error) error {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		err = fn()
	}()
	if err != nil {
		recordHookFailure(name)
		return &HookError{Hook: name, Cause: err}
	}
	return nil
}
