// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"robodelivery/internal/core/domain/model/order"
)

// Outcome labels used by the dispatch counter.
const (
	DispatchAssigned  = "assigned"
	DispatchNoRobot   = "no_robot"
	DispatchLostClaim = "lost_claim"
	DispatchSkipped   = "skipped"
)

// Metrics groups the business counters. A nil *Metrics records nothing.
type Metrics struct {
	transitions       *prometheus.CounterVec
	rejected          *prometheus.CounterVec
	dispatch          *prometheus.CounterVec
	codeChecks        *prometheus.CounterVec
	notifierFailures  prometheus.Counter
	telemetryReadings prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions:       NewOrderTransitionsTotal(),
		rejected:          NewOrderTransitionsRejectedTotal(),
		dispatch:          NewDispatchAttemptsTotal(),
		codeChecks:        NewDeliveryCodeChecksTotal(),
		notifierFailures:  NewNotifierFailuresTotal(),
		telemetryReadings: NewTelemetryReadingsTotal(),
	}

	reg.MustRegister(
		m.transitions,
		m.rejected,
		m.dispatch,
		m.codeChecks,
		m.notifierFailures,
		m.telemetryReadings,
	)
	return m
}

// NewOrderTransitionsTotal returns a counter of applied order status transitions
func NewOrderTransitionsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Total number of applied order status transitions",
	}, []string{"from", "to"})
}

// NewOrderTransitionsRejectedTotal returns a counter of refused order status transitions
func NewOrderTransitionsRejectedTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_rejected_total",
		Help: "Total number of refused order status transitions",
	}, []string{"to", "reason"})
}

// NewDispatchAttemptsTotal returns a counter of robot dispatch attempts by outcome
func NewDispatchAttemptsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_attempts_total",
		Help: "Total number of robot dispatch attempts by outcome",
	}, []string{"outcome"})
}

// NewDeliveryCodeChecksTotal returns a counter of delivery code verifications by result
func NewDeliveryCodeChecksTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_code_checks_total",
		Help: "Total number of delivery code verifications by result",
	}, []string{"result"})
}

// NewNotifierFailuresTotal returns a counter of notifications that could not be delivered
func NewNotifierFailuresTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifier_failures_total",
		Help: "Total number of order notifications that could not be delivered",
	})
}

// NewTelemetryReadingsTotal returns a counter of accepted robot telemetry readings
func NewTelemetryReadingsTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "robot_telemetry_readings_total",
		Help: "Total number of accepted robot telemetry readings",
	})
}

func (m *Metrics) TransitionApplied(from, to order.Status) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *Metrics) TransitionRejected(to order.Status, reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(to.String(), reason).Inc()
}

func (m *Metrics) DispatchOutcome(outcome string) {
	if m == nil {
		return
	}
	m.dispatch.WithLabelValues(outcome).Inc()
}

func (m *Metrics) DeliveryCodeChecked(result string) {
	if m == nil {
		return
	}
	m.codeChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) NotifierFailed() {
	if m == nil {
		return
	}
	m.notifierFailures.Inc()
}

func (m *Metrics) TelemetryRecorded() {
	if m == nil {
		return
	}
	m.telemetryReadings.Inc()
}
