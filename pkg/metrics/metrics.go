// Package metrics exposes the process-wide prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Subsystem: "supervisor",
		Name:      "requests_total",
		Help:      "Requests handled, labeled by routing strategy or terminal outcome.",
	}, []string{"strategy"})

	AgentTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Subsystem: "supervisor",
		Name:      "agent_timeouts_total",
		Help:      "Agents skipped because their dispatch deadline elapsed.",
	}, []string{"agent"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Subsystem: "tool",
		Name:      "cache_lookups_total",
		Help:      "Tool-layer cache lookups by category and outcome (hit/miss).",
	}, []string{"category", "outcome"})

	UpstreamFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "atlas",
		Subsystem: "tool",
		Name:      "upstream_failures_total",
		Help:      "Backing store failures by store name.",
	}, []string{"store"})

	FallbackExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "atlas",
		Subsystem: "tool",
		Name:      "fallback_exhausted_total",
		Help:      "Tool invocations that ran the whole ladder and returned not-found.",
	})
)
