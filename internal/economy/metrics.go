package economy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var resetRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "waystone",
	Subsystem: "reset",
	Name:      "runs_total",
	Help:      "Weekly reset runs by outcome (ok, partial, error).",
}, []string{"outcome"})

var resetDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "waystone",
	Subsystem: "reset",
	Name:      "duration_seconds",
	Help:      "Wall time of one guild's weekly reset run.",
	Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
})

var resetEntityFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "waystone",
	Subsystem: "reset",
	Name:      "entity_failures_total",
	Help:      "Per-entity update failures tolerated during reset passes.",
}, []string{"entity"})

var resetRulesPruned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "waystone",
	Subsystem: "reset",
	Name:      "stipend_rules_pruned_total",
	Help:      "Stipend rules deleted because their role no longer exists.",
})

var schedulerTicks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "waystone",
	Subsystem: "scheduler",
	Name:      "ticks_total",
	Help:      "Scheduler polls by outcome (ok, fetch_error).",
}, []string{"outcome"})
