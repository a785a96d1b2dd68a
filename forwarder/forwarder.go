// Package forwarder implements the request-forwarding pipeline: it
// validates an inbound HTTP message, resolves and validates a target,
// dispatches the outbound call through a failure-isolating circuit
// breaker, and returns the resulting response while invoking
// caller-supplied lifecycle hooks at fixed points.
//
// The forwarder is an embeddable core: it does not listen, terminate
// TLS, or load balance. The host process owns the server surface and
// hands requests to Proxy.
package forwarder

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/vyrodovalexey/avrelay/circuitbreaker"
	"github.com/vyrodovalexey/avrelay/observability"
	"github.com/vyrodovalexey/avrelay/targetcache"
	"github.com/vyrodovalexey/avrelay/validate"
)

// tracerName is the OpenTelemetry tracer name for dispatch spans.
const tracerName = "avrelay/forwarder"

// hopHeaders are headers that should not be forwarded.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// bodilessMethods never carry a request body; their body-length header
// is stripped before dispatch.
var bodilessMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// Forwarder orchestrates the forwarding pipeline. Breaker state and
// the target URL cache are owned exclusively by one Forwarder
// instance; there is no process-wide sharing.
type Forwarder struct {
	config    Config
	logger    observability.Logger
	sink      observability.EventSink
	client    *http.Client
	breaker   *circuitbreaker.Breaker
	resolver  *targetcache.Resolver
	validator *validate.Validator
	limiter   *rate.Limiter
	closed    atomic.Bool
}

// New creates a Forwarder with the given configuration.
func New(cfg Config, opts ...Option) *Forwarder {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CircuitBreaker == nil {
		cfg.CircuitBreaker = circuitbreaker.DefaultConfig()
	}

	f := &Forwarder{
		config: cfg,
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = &http.Client{}
	}
	if !cfg.FollowRedirects {
		// Shallow copy so the caller's client keeps its own policy.
		client := *f.client
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		f.client = &client
	}

	f.breaker = circuitbreaker.New("forwarder", cfg.CircuitBreaker, f.logger)
	f.resolver = targetcache.NewResolver(cfg.CacheCapacity, f.logger)
	f.validator = validate.NewValidator(f.sink)

	return f
}

// Proxy forwards the inbound request to the resolved target and
// returns the upstream response. It never returns an error: every
// failure path yields a synthesized response (400 for validation
// failures, 503 when the circuit is open, 504 for timeouts, 502 for
// everything else). source may be an absolute URL or a path; when
// empty, the configured base is used verbatim as the target.
func (f *Forwarder) Proxy(ctx context.Context, inbound *http.Request, source string, opts *RequestOptions) *http.Response {
	start := time.Now()
	correlationID := uuid.New().String()
	ctx = observability.ContextWithCorrelationID(ctx, correlationID)

	var reqOpts RequestOptions
	if opts != nil {
		reqOpts = *opts
	}
	ro := f.resolveOptions(&reqOpts)
	hooks := mergeHooks(f.config.Hooks, reqOpts.Hooks)

	resp, err := f.run(ctx, inbound, source, ro, hooks, correlationID)
	if err != nil {
		if hooks.OnError != nil {
			f.invokeOnError(ctx, hooks.OnError, inbound, err)
		}

		status := StatusForError(err)
		f.logger.WithContext(ctx).Warn("forwarding failed",
			observability.String("source", source),
			observability.Int("status", status),
			observability.Error(err),
		)
		observability.SafeLogEvent(f.sink, "forward.error", correlationID, err.Error(),
			map[string]interface{}{"status": status})
		recordRequest(false, status, time.Since(start))
		return synthesizeResponse(status, err.Error(), correlationID)
	}

	f.logger.WithContext(ctx).Debug("forwarding succeeded",
		observability.String("source", source),
		observability.Int("status", resp.StatusCode),
		observability.Duration("elapsed", time.Since(start)),
	)
	recordRequest(true, resp.StatusCode, time.Since(start))
	return resp
}

// run executes the hook-ordered pipeline and returns the upstream
// response or the first surfaced error. Hook failures do not stop the
// afterCircuitBreakerExecution hook from running, but they are
// surfaced as the call's failure.
func (f *Forwarder) run(ctx context.Context, inbound *http.Request, source string, ro resolvedOptions, hooks Hooks, correlationID string) (*http.Response, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}

	var hookErr error
	if hooks.BeforeRequest != nil {
		hookErr = runHook("beforeRequest", func() error {
			return hooks.BeforeRequest(ctx, inbound)
		})
	}
	if hooks.BeforeCircuitBreaker != nil {
		if err := runHook("beforeCircuitBreakerExecution", func() error {
			return hooks.BeforeCircuitBreaker(ctx, inbound)
		}); err != nil && hookErr == nil {
			hookErr = err
		}
	}

	execStart := time.Now()

	// The breaker races the operation against its timer, so the
	// operation may still be running when Execute returns; the
	// response is handed over atomically. An abandoned response is
	// harmless: dispatch buffers the body and closes the transport
	// stream before returning.
	var respPtr atomic.Pointer[http.Response]

	pipelineErr := hookErr
	if pipelineErr == nil {
		pipelineErr = f.breaker.Execute(ctx, func(ctx context.Context) error {
			r, err := f.dispatch(ctx, inbound, source, ro, correlationID)
			if err != nil {
				return err
			}
			respPtr.Store(r)
			return nil
		})
	}

	var resp *http.Response
	if pipelineErr == nil {
		resp = respPtr.Load()
	}

	if pipelineErr == nil && hooks.AfterResponse != nil {
		if err := runHook("afterResponse", func() error {
			return hooks.AfterResponse(ctx, inbound, resp, resp.Body)
		}); err != nil {
			pipelineErr = err
		}
	}

	result := ExecutionResult{
		Success:  pipelineErr == nil,
		Err:      pipelineErr,
		State:    f.breaker.State(),
		Failures: f.breaker.Failures(),
		Duration: time.Since(execStart),
	}
	if hooks.AfterCircuitBreaker != nil {
		if err := runHook("afterCircuitBreakerExecution", func() error {
			return hooks.AfterCircuitBreaker(ctx, inbound, result)
		}); err != nil && pipelineErr == nil {
			pipelineErr = err
		}
	}

	if pipelineErr != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, pipelineErr
	}
	return resp, nil
}

// dispatch performs the breaker-guarded inner operation: validation,
// target resolution, header and query preparation, and the outbound
// call. Any 5xx upstream status is raised as a synthetic failure so
// the breaker counts it.
func (f *Forwarder) dispatch(ctx context.Context, inbound *http.Request, source string, ro resolvedOptions, correlationID string) (*http.Response, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "forwarder.dispatch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("correlation.id", correlationID)),
	)
	defer span.End()

	method, err := f.validator.Method(correlationID, inbound.Method)
	if err != nil {
		return nil, err
	}

	target, err := f.resolveTarget(correlationID, source, ro.base)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.full", target.String()),
	)

	headers, err := f.buildHeaders(correlationID, inbound, ro, method)
	if err != nil {
		return nil, err
	}

	if ro.queryString != nil {
		qs, err := f.validator.QueryString(correlationID, ro.queryString)
		if err != nil {
			return nil, err
		}
		appendQuery(target, qs)
	}

	callCtx, cancel := context.WithTimeout(ctx, ro.timeout)
	defer cancel()

	if f.limiter != nil {
		if err := f.limiter.Wait(callCtx); err != nil {
			return nil, &DispatchError{Target: target.String(), Cause: err}
		}
	}

	var body io.Reader
	if inbound.Body != nil && !bodilessMethods[method] {
		body = inbound.Body
	}

	req, err := http.NewRequestWithContext(callCtx, method, target.String(), body)
	if err != nil {
		return nil, &DispatchError{Target: target.String(), Cause: err}
	}
	req.Header = headers

	resp, err := f.client.Do(req)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Target: target.String(), Timeout: ro.timeout}
		}
		return nil, &DispatchError{Target: target.String(), Cause: err}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		_ = resp.Body.Close()
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		return nil, &UpstreamStatusError{Target: target.String(), StatusCode: resp.StatusCode}
	}

	// The body is buffered before the per-call context is released so
	// the stream stays readable by hooks and the embedding host.
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Target: target.String(), Timeout: ro.timeout}
		}
		return nil, &DispatchError{Target: target.String(), Cause: err}
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	resp.ContentLength = int64(len(data))

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, nil
}

// resolveTarget resolves the target URL. An absent source means the
// configured base is used verbatim (still subject to the scheme gate);
// otherwise resolution goes through the caching resolver.
func (f *Forwarder) resolveTarget(correlationID, source, base string) (*url.URL, error) {
	if source == "" {
		if base == "" {
			err := validate.NewValidationError(validate.CategoryProtocol, "no source given and no base target configured")
			f.validator.Report(correlationID, err, nil)
			return nil, err
		}
		target, err := validate.BuildURL(base, "")
		if err != nil {
			f.validator.Report(correlationID, err, map[string]interface{}{"base": base})
			return nil, err
		}
		return target, nil
	}

	target, err := f.resolver.Resolve(source, base)
	if err != nil {
		f.validator.Report(correlationID, err, map[string]interface{}{
			"source": source,
			"base":   base,
		})
		return nil, err
	}
	return target, nil
}

// buildHeaders merges outbound headers: inbound headers first, then
// instance defaults, then request-level overrides, later wins.
// Hop-by-hop headers are dropped, a forwarding marker carrying the
// original host is injected, and the body-length header is stripped
// for bodiless methods.
func (f *Forwarder) buildHeaders(correlationID string, inbound *http.Request, ro resolvedOptions, method string) (http.Header, error) {
	headers := make(http.Header, len(inbound.Header))
	for name, values := range inbound.Header {
		for _, v := range values {
			headers.Add(name, v)
		}
	}
	for _, h := range hopHeaders {
		headers.Del(h)
	}

	for name, value := range f.config.Headers {
		if err := f.validator.Header(correlationID, name, value); err != nil {
			return nil, err
		}
		headers.Set(name, value)
	}
	for name, value := range ro.headers {
		if err := f.validator.Header(correlationID, name, value); err != nil {
			return nil, err
		}
		headers.Set(name, value)
	}

	if inbound.Host != "" {
		headers.Set("X-Forwarded-Host", inbound.Host)
	}
	if bodilessMethods[method] {
		headers.Del("Content-Length")
	}

	return headers, nil
}

// resolveOptions merges request options over the instance defaults.
func (f *Forwarder) resolveOptions(opts *RequestOptions) resolvedOptions {
	ro := resolvedOptions{
		base:        f.config.Base,
		timeout:     f.config.Timeout,
		headers:     opts.Headers,
		queryString: opts.QueryString,
	}
	if opts.Base != "" {
		ro.base = opts.Base
	}
	if opts.Timeout > 0 {
		ro.timeout = opts.Timeout
	}
	return ro
}

// appendQuery appends a validated query-string addition to the target,
// concatenating with any pre-existing query rather than re-encoding it
// (already-validated values must not be decoded twice).
func appendQuery(target *url.URL, qs string) {
	addition := strings.TrimPrefix(qs, "?")
	if addition == "" {
		return
	}
	if target.RawQuery != "" {
		target.RawQuery = target.RawQuery + "&" + addition
	} else {
		target.RawQuery = addition
	}
}

// invokeOnError runs the onError hook with panic containment; a
// misbehaving observer cannot break request handling.
func (f *Forwarder) invokeOnError(ctx context.Context, hook ErrorHook, req *http.Request, err error) {
	defer func() {
		if r := recover(); r != nil {
			recordHookFailure("onError")
			f.logger.Warn("onError hook panicked", observability.Any("panic", r))
		}
	}()
	hook(ctx, req, err)
}

// CircuitBreakerState returns the breaker state. Reading the state can
// advance an open circuit to half-open when the reset window has
// elapsed.
func (f *Forwarder) CircuitBreakerState() circuitbreaker.State {
	return f.breaker.State()
}

// CircuitBreakerFailures returns the breaker's failure count.
func (f *Forwarder) CircuitBreakerFailures() int {
	return f.breaker.Failures()
}

// ClearURLCache empties the target URL cache.
func (f *Forwarder) ClearURLCache() {
	f.resolver.Clear()
}

// Close releases the target URL cache. Close is idempotent; a closed
// forwarder refuses further calls.
func (f *Forwarder) Close() error {
	if f.closed.CompareAndSwap(false, true) {
		f.resolver.Clear()
	}
	return nil
}
