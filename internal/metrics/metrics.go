// Package metrics exposes Prometheus instrumentation for the service
// gateway, fallback chain and circuit breakers. Collectors register on the
// default registry; the run command optionally serves them over HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CallsTotal counts gateway calls by service class and outcome. Outcome
	// is "success" or the failure class.
	CallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parley",
		Subsystem: "gateway",
		Name:      "calls_total",
		Help:      "Gateway calls by service class and outcome.",
	}, []string{"service", "outcome"})

	// AttemptsTotal counts individual call attempts, including retries.
	AttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parley",
		Subsystem: "gateway",
		Name:      "attempts_total",
		Help:      "Individual call attempts by service class.",
	}, []string{"service"})

	// RetriesTotal counts retries scheduled after transient failures.
	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parley",
		Subsystem: "gateway",
		Name:      "retries_total",
		Help:      "Retries scheduled by service class.",
	}, []string{"service"})

	// BreakerState reports the current breaker state per service class
	// (0 closed, 1 half_open, 2 open).
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "parley",
		Subsystem: "circuit",
		Name:      "breaker_state",
		Help:      "Circuit breaker state per service class (0 closed, 1 half_open, 2 open).",
	}, []string{"service"})

	// QuotaUsed reports current quota consumption per service class.
	QuotaUsed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "parley",
		Subsystem: "quota",
		Name:      "used",
		Help:      "Quota units consumed in the current window.",
	}, []string{"service"})

	// FallbacksTotal counts results produced by fallback producers.
	FallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parley",
		Subsystem: "fallback",
		Name:      "productions_total",
		Help:      "Results produced by fallback producers.",
	}, []string{"service", "producer"})

	// RoundsTotal counts closed discussion rounds.
	RoundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "parley",
		Subsystem: "discussion",
		Name:      "rounds_total",
		Help:      "Discussion rounds closed.",
	})

	// ConsensusScore reports the most recent round's consensus score.
	ConsensusScore = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "parley",
		Subsystem: "discussion",
		Name:      "consensus_score",
		Help:      "Consensus score of the most recently closed round.",
	})
)

// BreakerStateValue maps a breaker state name to its gauge value.
func BreakerStateValue(state string) float64 {
	switch state {
	case "half_open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
