// Package metrics exposes the engine state to prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Operation metrics
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multisig_operations_total",
		Help: "Total number of engine operations",
	}, []string{"operation", "status"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "multisig_events_total",
		Help: "Total number of dispatched notifications",
	}, []string{"type"})

	executionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "multisig_execution_duration_seconds",
		Help:    "Duration of mutating operations including the executed actions",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	// Gauge metrics, one series per engine instance
	quorumGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "multisig_quorum",
		Help: "Current confirmation quorum",
	}, []string{"engine"})

	ownersGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "multisig_owners",
		Help: "Current number of owners",
	}, []string{"engine"})

	trustedOwnersGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "multisig_trusted_owners",
		Help: "Current number of trusted owners",
	}, []string{"engine"})

	transactionsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "multisig_transactions",
		Help: "Current number of transactions in the ledger",
	}, []string{"engine"})
)

// RecordOperation records a finished operation with its outcome
func RecordOperation(operation string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "rejected"
	}
	operationsTotal.WithLabelValues(operation, status).Inc()
	executionDuration.Observe(elapsed.Seconds())
}

// RecordEvent counts a dispatched notification
func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

// UpdateState refreshes the state gauges of one engine
func UpdateState(engine string, quorum, owners, trusted, transactions int) {
	quorumGauge.WithLabelValues(engine).Set(float64(quorum))
	ownersGauge.WithLabelValues(engine).Set(float64(owners))
	trustedOwnersGauge.WithLabelValues(engine).Set(float64(trusted))
	transactionsGauge.WithLabelValues(engine).Set(float64(transactions))
}
