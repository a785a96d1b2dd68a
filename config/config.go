// Package config loads forwarder configuration from YAML files for
// embedding hosts that prefer file-based wiring over programmatic
// construction.
package config

import (
	"fmt"

	"github.com/vyrodovalexey/avrelay/circuitbreaker"
	"github.com/vyrodovalexey/avrelay/forwarder"
	"github.com/vyrodovalexey/avrelay/observability"
	"github.com/vyrodovalexey/avrelay/validate"
)

// ForwarderConfig is the file representation of a forwarder instance.
type ForwarderConfig struct {
	// Base is the default target base URL.
	Base string `yaml:"base"`

	// Timeout bounds each outbound call.
	Timeout Duration `yaml:"timeout"`

	// Headers are default outbound headers.
	Headers map[string]string `yaml:"headers"`

	// CacheCapacity is the target URL cache capacity; 0 disables
	// caching.
	CacheCapacity int `yaml:"cacheCapacity"`

	// FollowRedirects controls outbound redirect following.
	FollowRedirects bool `yaml:"followRedirects"`

	// CircuitBreaker configures the failure-isolation breaker.
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// CircuitBreakerConfig is the file representation of breaker settings.
type CircuitBreakerConfig struct {
	Enabled          *bool    `yaml:"enabled"`
	FailureThreshold int      `yaml:"failureThreshold"`
	Timeout          Duration `yaml:"timeout"`
	ResetTimeout     Duration `yaml:"resetTimeout"`
}

// LoggingConfig is the file representation of logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Validate checks the configuration for structural problems.
func (c *ForwarderConfig) Validate() error {
	if c.Base != "" {
		if _, err := validate.BuildURL(c.Base, ""); err != nil {
			return fmt.Errorf("base: %w", err)
		}
	}
	if c.CacheCapacity < 0 {
		return fmt.Errorf("cacheCapacity cannot be negative: %d", c.CacheCapacity)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative: %v", c.Timeout.Duration())
	}
	for name, value := range c.Headers {
		if err := validate.ValidateHeaderName(name); err != nil {
			return fmt.Errorf("headers: %w", err)
		}
		if err := validate.ValidateHeaderValue(name, value); err != nil {
			return fmt.Errorf("headers: %w", err)
		}
	}
	return nil
}

// ToForwarderConfig converts the file representation into a
// forwarder.Config.
func (c *ForwarderConfig) ToForwarderConfig() forwarder.Config {
	breaker := circuitbreaker.DefaultConfig()
	if c.CircuitBreaker.Enabled != nil {
		breaker.Enabled = *c.CircuitBreaker.Enabled
	}
	if c.CircuitBreaker.FailureThreshold > 0 {
		breaker.FailureThreshold = c.CircuitBreaker.FailureThreshold
	}
	if c.CircuitBreaker.Timeout > 0 {
		breaker.Timeout = c.CircuitBreaker.Timeout.Duration()
	}
	if c.CircuitBreaker.ResetTimeout > 0 {
		breaker.ResetTimeout = c.CircuitBreaker.ResetTimeout.Duration()
	}

	cfg := forwarder.Config{
		Base:            c.Base,
		Timeout:         c.Timeout.Duration(),
		Headers:         c.Headers,
		CacheCapacity:   c.CacheCapacity,
		FollowRedirects: c.FollowRedirects,
		CircuitBreaker:  breaker,
	}
	return cfg
}

// LogConfig converts the logging section into an observability
// LogConfig, filling defaults for unset fields.
func (c *ForwarderConfig) LogConfig() observability.LogConfig {
	cfg := observability.DefaultLogConfig()
	if c.Logging.Level != "" {
		cfg.Level = c.Logging.Level
	}
	if c.Logging.Format != "" {
		cfg.Format = c.Logging.Format
	}
	if c.Logging.Output != "" {
		cfg.Output = c.Logging.Output
	}
	return cfg
}
