package forwarder

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/avrelay/circuitbreaker"
	"github.com/vyrodovalexey/avrelay/observability"
)

// Config holds the immutable per-instance defaults of a Forwarder.
// It is fixed at construction and never mutated afterwards.
type Config struct {
	// Base is the default target base URL. When Proxy is called
	// without a source, the base is used verbatim as the target.
	Base string

	// Timeout bounds each outbound call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Headers are default outbound headers, applied over the inbound
	// headers and under any request-level overrides.
	Headers map[string]string

	// CacheCapacity is the target URL cache capacity; 0 disables
	// caching.
	CacheCapacity int

	// FollowRedirects controls whether the outbound client follows
	// redirects. When false, redirect responses are returned as-is.
	FollowRedirects bool

	// CircuitBreaker configures the per-instance breaker. Nil means
	// circuitbreaker.DefaultConfig.
	CircuitBreaker *circuitbreaker.Config

	// Hooks are instance-level lifecycle callbacks. Request-level
	// hooks override them slot by slot.
	Hooks Hooks
}

// DefaultTimeout is the outbound call timeout applied when none is
// configured.
const DefaultTimeout = 30 * time.Second

// DefaultCacheCapacity is the target URL cache capacity applied by
// DefaultConfig.
const DefaultCacheCapacity = 256

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Timeout:        DefaultTimeout,
		CacheCapacity:  DefaultCacheCapacity,
		CircuitBreaker: circuitbreaker.DefaultConfig(),
	}
}

// RequestOptions carries per-call overrides. Request-level values win
// over the instance defaults.
type RequestOptions struct {
	// Base overrides the instance base target.
	Base string

	// Timeout overrides the outbound call timeout.
	Timeout time.Duration

	// Headers are request-level header overrides; they win over both
	// inbound headers and instance defaults.
	Headers map[string]string

	// QueryString is a query-string addition: either a raw string or
	// a key-to-value(s) mapping (see validate.BuildQueryString). It is
	// appended to any pre-existing query on the resolved target.
	QueryString interface{}

	// Hooks are request-level lifecycle callbacks.
	Hooks Hooks
}

// resolvedOptions is the per-call merge of RequestOptions over the
// instance Config.
type resolvedOptions struct {
	base        string
	timeout     time.Duration
	headers     map[string]string
	queryString interface{}
}

// Option is a functional option for configuring a Forwarder.
type Option func(*Forwarder)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(f *Forwarder) {
		f.logger = logger
	}
}

// WithEventSink sets the security event observer.
func WithEventSink(sink observability.EventSink) Option {
	return func(f *Forwarder) {
		f.sink = sink
	}
}

// WithHTTPClient sets the outbound HTTP client. The client's redirect
// policy is still adjusted according to Config.FollowRedirects.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Forwarder) {
		f.client = client
	}
}

// WithRateLimiter sets an optional outbound rate limiter. Dispatch
// waits on the limiter within the per-call deadline before issuing
// the network call.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(f *Forwarder) {
		f.limiter = limiter
	}
}
