// Package metrics exposes prometheus instrumentation for the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksProcessed counts completed ticks across all games.
	TicksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "statecraft",
		Name:      "ticks_processed_total",
		Help:      "Completed tick executions.",
	})

	// TickDuration observes wall time per tick, advisor calls included.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "statecraft",
		Name:      "tick_duration_seconds",
		Help:      "Wall time of one full tick execution.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	// AdvisorFallbacks counts stage fallbacks by stage name.
	AdvisorFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "statecraft",
		Name:      "advisor_fallbacks_total",
		Help:      "Advisor stage executions that degraded to the fallback.",
	}, []string{"stage"})

	// ActionsResolved counts resolved player actions by outcome.
	ActionsResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "statecraft",
		Name:      "actions_resolved_total",
		Help:      "Player actions processed per tick phase.",
	}, []string{"outcome"})

	// HTTPRequests counts API requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "statecraft",
		Name:      "http_requests_total",
		Help:      "API requests served.",
	}, []string{"route", "code"})
)
