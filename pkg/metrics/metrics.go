// Package metrics exposes Prometheus instrumentation for the proxy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// actionsTotal counts dispatched actions by name and outcome.
	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lmodproxy_actions_total",
			Help: "Total gradebook actions dispatched, by action and outcome",
		},
		[]string{"action", "outcome"}, // outcome: "success", "failure"
	)

	// authFailures counts rejected basic-auth attempts.
	authFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lmodproxy_auth_failures_total",
			Help: "Total rejected basic-auth attempts",
		},
	)

	// validationFailures counts POSTs rejected by form validation.
	validationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lmodproxy_validation_failures_total",
			Help: "Total requests rejected by form validation",
		},
	)
)

// ObserveAction records one dispatched action and its in-band outcome.
func ObserveAction(action string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	actionsTotal.WithLabelValues(action, outcome).Inc()
}

// IncAuthFailure records one rejected authentication attempt.
func IncAuthFailure() {
	authFailures.Inc()
}

// IncValidationFailure records one request rejected by validation.
func IncValidationFailure() {
	validationFailures.Inc()
}
