// Package circuitbreaker provides failure isolation for outbound
// dispatch. It implements a three-state machine (closed, open,
// half-open) with a per-call execution timeout raced against the
// wrapped operation.
package circuitbreaker

import (
	"time"
)

// Config holds configuration for a circuit breaker.
type Config struct {
	// Enabled controls whether the breaker tracks state at all. When
	// false, Execute runs the operation directly.
	Enabled bool

	// FailureThreshold is the number of recorded failures at which the
	// circuit opens.
	FailureThreshold int

	// Timeout bounds a single execution: the operation races an
	// internal timer of this duration and loses if the timer fires
	// first.
	Timeout time.Duration

	// ResetTimeout is how long the circuit stays open before a state
	// inspection or execution attempt moves it to half-open.
	ResetTimeout time.Duration

	// OnStateChange is called when the breaker changes state.
	OnStateChange func(from, to State)
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Enabled:          true,
		FailureThreshold: 5,
		Timeout:          10 * time.Second,
		ResetTimeout:     30 * time.Second,
	}
}

// Validate normalizes out-of-range values.
func (c *Config) Validate() error {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 5
	}
	if c.Timeout < time.Millisecond {
		c.Timeout = 10 * time.Second
	}
	if c.ResetTimeout < time.Millisecond {
		c.ResetTimeout = 30 * time.Second
	}
	return nil
}

// WithFailureThreshold sets the failure threshold.
func (c *Config) WithFailureThreshold(n int) *Config {
	c.FailureThreshold = n
	return c
}

// WithTimeout sets the execution timeout.
func (c *Config) WithTimeout(d time.Duration) *Config {
	c.Timeout = d
	return c
}

// WithResetTimeout sets the open-state cooldown.
func (c *Config) WithResetTimeout(d time.Duration) *Config {
	c.ResetTimeout = d
	return c
}

// WithOnStateChange sets the state change callback.
func (c *Config) WithOnStateChange(fn func(from, to State)) *Config {
	c.OnStateChange = fn
	return c
}
