package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EventSink receives structured pipeline and security events. Sinks are
// purely observational: a failing or panicking sink must never affect
// the outcome of the call that emitted the event.
type EventSink interface {
	LogEvent(kind, correlationID, message string, metadata map[string]interface{})
}

// eventsTotal counts emitted events by kind.
var eventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "forwarder_events_total",
		Help: "Total number of pipeline and security events emitted",
	},
	[]string{"kind"},
)

// SafeLogEvent invokes the sink, recovering panics so a misbehaving
// observer cannot break request handling. A nil sink is a no-op.
func SafeLogEvent(sink EventSink, kind, correlationID, message string, metadata map[string]interface{}) {
	if sink == nil {
		return
	}
	eventsTotal.WithLabelValues(kind).Inc()
	defer func() {
		_ = recover()
	}()
	sink.LogEvent(kind, correlationID, message, metadata)
}

// logEventSink writes events to a Logger.
type logEventSink struct {
	logger Logger
}

// NewLogEventSink returns an EventSink that writes each event as a
// structured log entry.
func NewLogEventSink(logger Logger) EventSink {
	if logger == nil {
		logger = NopLogger()
	}
	return &logEventSink{logger: logger}
}

func (s *logEventSink) LogEvent(kind, correlationID, message string, metadata map[string]interface{}) {
	fields := []Field{
		String("kind", kind),
		String("correlation_id", correlationID),
	}
	for k, v := range metadata {
		fields = append(fields, Any(k, v))
	}
	s.logger.Warn(message, fields...)
}

// nopEventSink discards all events.
type nopEventSink struct{}

// NopEventSink returns an EventSink that discards all events.
func NopEventSink() EventSink {
	return nopEventSink{}
}

func (nopEventSink) LogEvent(string, string, string, map[string]interface{}) {}
