package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vyrodovalexey/avrelay/observability"
)

// State represents the state of a circuit breaker.
type State int

const (
	// StateClosed indicates the circuit is closed and requests are allowed.
	StateClosed State = iota

	// StateOpen indicates the circuit is open and requests fail fast.
	StateOpen

	// StateHalfOpen indicates the circuit is probing whether the
	// target has recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned when the circuit is open and the reset
// window has not elapsed; the operation is not invoked.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// ErrExecutionTimeout is returned when the internal timer fires before
// the operation settles.
var ErrExecutionTimeout = errors.New("circuit breaker timeout")

// Breaker implements the circuit breaker pattern around an arbitrary
// operation. A Breaker is owned by exactly one forwarder instance;
// its counters are never shared across instances.
type Breaker struct {
	name   string
	config *Config
	logger observability.Logger

	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
}

// New creates a new circuit breaker.
func New(name string, config *Config, logger observability.Logger) *Breaker {
	if config == nil {
		config = DefaultConfig()
	}
	_ = config.Validate()

	if logger == nil {
		logger = observability.NopLogger()
	}

	return &Breaker{
		name:   name,
		config: config,
		logger: logger,
		state:  StateClosed,
	}
}

// Execute runs op with circuit breaker protection. When the breaker is
// disabled, op runs directly with no state tracking. When the circuit
// is open and the reset window has not elapsed, Execute fails with
// ErrCircuitOpen without invoking op. Otherwise op races an internal
// timer; timer expiry yields ErrExecutionTimeout and counts as a
// failure, and any op error is recorded and re-raised unchanged.
func (b *Breaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if !b.config.Enabled {
		return op(ctx)
	}

	if err := b.allow(); err != nil {
		return err
	}

	err := b.run(ctx, op)
	if err != nil {
		b.recordFailure()
		return err
	}

	b.recordSuccess()
	return nil
}

// allow decides whether an execution may proceed, transitioning
// open to half-open when the reset window has elapsed.
func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.lastFailure) > b.config.ResetTimeout {
			b.transitionTo(StateHalfOpen)
			return nil
		}
		RecordRejection(b.name)
		return ErrCircuitOpen
	}
	return nil
}

// run races op against the execution timer. The timer is stopped on
// the non-timeout path so no timer outlives the call. The operation
// goroutine writes to a buffered channel, so it never blocks after a
// timeout wins the race.
func (b *Breaker) run(ctx context.Context, op func(context.Context) error) error {
	if b.config.Timeout <= 0 {
		return op(ctx)
	}

	timer := time.NewTimer(b.config.Timeout)
	defer timer.Stop()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrExecutionTimeout
	}
}

// recordSuccess records a successful execution. A success in half-open
// state resets the failure counter and closes the circuit.
func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	RecordSuccess(b.name)

	if b.state == StateHalfOpen {
		b.failures = 0
		b.transitionTo(StateClosed)
	}
}

// recordFailure increments the failure counter, notes the failure time
// unless the circuit is already open, and opens the circuit once the
// threshold is reached.
func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state != StateOpen {
		b.lastFailure = time.Now()
	}

	RecordFailure(b.name)

	if b.failures >= b.config.FailureThreshold && b.state != StateOpen {
		b.transitionTo(StateOpen)
	}
}

// transitionTo moves the breaker to a new state. Must be called with
// the lock held.
func (b *Breaker) transitionTo(newState State) {
	oldState := b.state
	b.state = newState

	RecordStateChange(b.name, oldState, newState)

	b.logger.Info("circuit breaker state changed",
		observability.String("name", b.name),
		observability.String("from", oldState.String()),
		observability.String("to", newState.String()),
	)

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(oldState, newState)
	}
}

// State returns the current state. Inspection can itself advance the
// machine: when the circuit is open and the reset window has elapsed,
// the breaker moves to half-open before reporting.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && time.Since(b.lastFailure) > b.config.ResetTimeout {
		b.transitionTo(StateHalfOpen)
	}
	return b.state
}

// Failures returns the current failure count. Unlike State, this is a
// pure read.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset returns the breaker to the closed state with zero failures.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.lastFailure = time.Time{}
	if b.state != StateClosed {
		b.transitionTo(StateClosed)
	}
}

// Name returns the name of the circuit breaker.
func (b *Breaker) Name() string {
	return b.name
}
