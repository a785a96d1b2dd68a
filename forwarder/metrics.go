package forwarder

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts forwarded requests by synthesized or
	// upstream status class.
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forwarder_requests_total",
			Help: "Total number of forwarded requests",
		},
		[]string{"outcome", "status"},
	)

	// requestDuration observes end-to-end pipeline latency.
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forwarder_request_duration_seconds",
			Help:    "End-to-end forwarding latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// hookFailuresTotal counts contained hook failures by hook name.
	hookFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forwarder_hook_failures_total",
			Help: "Total number of contained hook failures",
		},
		[]string{"hook"},
	)
)

// recordRequest records a completed call.
func recordRequest(success bool, status int, elapsed time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	requestsTotal.WithLabelValues(outcome, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// recordHookFailure records a contained hook failure.
func recordHookFailure(hook string) {
	hookFailuresTotal.WithLabelValues(hook).Inc()
}
