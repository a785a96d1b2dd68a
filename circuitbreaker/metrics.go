package circuitbreaker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// breakerState shows the current state of circuit breakers.
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=open, 2=half-open)",
		},
		[]string{"name"},
	)

	// breakerFailuresTotal counts failures recorded by circuit breakers.
	breakerFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures recorded by circuit breakers",
		},
		[]string{"name"},
	)

	// breakerSuccessesTotal counts successes recorded by circuit breakers.
	breakerSuccessesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_successes_total",
			Help: "Total number of successes recorded by circuit breakers",
		},
		[]string{"name"},
	)

	// breakerStateChangesTotal counts state changes.
	breakerStateChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_changes_total",
			Help: "Total number of circuit breaker state changes",
		},
		[]string{"name", "from", "to"},
	)

	// breakerRejectedTotal counts executions rejected due to an open circuit.
	breakerRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_rejected_total",
			Help: "Total number of executions rejected due to open circuit",
		},
		[]string{"name"},
	)
)

// RecordFailure records a failure.
func RecordFailure(name string) {
	breakerFailuresTotal.WithLabelValues(name).Inc()
}

// RecordSuccess records a success.
func RecordSuccess(name string) {
	breakerSuccessesTotal.WithLabelValues(name).Inc()
}

// RecordRejection records a fast-failed execution.
func RecordRejection(name string) {
	breakerRejectedTotal.WithLabelValues(name).Inc()
}

// RecordStateChange records a state change.
func RecordStateChange(name string, from, to State) {
	breakerStateChangesTotal.WithLabelValues(name, from.String(), to.String()).Inc()
	breakerState.WithLabelValues(name).Set(float64(to))
}
