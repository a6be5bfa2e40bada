// Package metrics exposes Prometheus instrumentation for the accelerator
// model: completed operations, their latency in clock ticks, and bus
// protocol events that hit a fixed misuse policy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all accelerator metrics
	Namespace = "shamir_accel"

	// Label names
	LabelMode    = "mode"
	LabelField   = "field"
	LabelOutcome = "outcome"
	LabelEvent   = "event"

	// Outcome values
	OutcomeFound     = "found"
	OutcomeExhausted = "exhausted"
	OutcomeComplete  = "complete"
	OutcomeAborted   = "aborted"
	OutcomeConfigErr = "config_error"

	// Protocol events
	EventStartWhileBusy = "start_while_busy"
	EventAbortIdle      = "abort_idle"
	EventUnmappedRead   = "unmapped_read"
	EventUnmappedWrite  = "unmapped_write"
	EventReadOnlyWrite  = "read_only_write"
)

var (
	// OperationsTotal counts completed operations by mode, field and outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of accelerator operations by mode, field and outcome",
		},
		[]string{LabelMode, LabelField, LabelOutcome},
	)

	// OperationCycles records the CYCLES register value at completion.
	// Brute-force latency spans the whole field, hence the wide buckets.
	OperationCycles = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_cycles",
			Help:      "Clock ticks spent per accelerator operation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 17),
		},
		[]string{LabelMode, LabelField},
	)

	// ProtocolEventsTotal counts bus transactions handled by a misuse policy.
	ProtocolEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "bus",
			Name:      "protocol_events_total",
			Help:      "Bus transactions resolved by a fixed protocol policy",
		},
		[]string{LabelEvent},
	)
)

// RecordOperation records one completed operation.
func RecordOperation(mode, field, outcome string, cycles uint32) {
	OperationsTotal.WithLabelValues(mode, field, outcome).Inc()
	OperationCycles.WithLabelValues(mode, field).Observe(float64(cycles))
}

// RecordProtocolEvent records one policy-handled bus event.
func RecordProtocolEvent(event string) {
	ProtocolEventsTotal.WithLabelValues(event).Inc()
}
