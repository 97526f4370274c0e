// Package metrics registers the process-level Prometheus collectors exposed
// on /metrics. Collectors are package-level: the engine and dispatcher record
// into them directly, and the default registry serves them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbesTotal counts completed probes by protocol and outcome.
	ProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netwatch",
		Name:      "probes_total",
		Help:      "Completed probes by protocol and outcome.",
	}, []string{"protocol", "outcome"})

	// ProbeLatency observes successful probe latencies in seconds.
	ProbeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "netwatch",
		Name:      "probe_latency_seconds",
		Help:      "Latency of successful probes.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"protocol"})

	// StateTransitionsTotal counts debounced state changes by direction.
	StateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netwatch",
		Name:      "state_transitions_total",
		Help:      "Debounced target state transitions.",
	}, []string{"state"})

	// WebhookDeliveriesTotal counts webhook POST attempts by result.
	WebhookDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netwatch",
		Name:      "webhook_deliveries_total",
		Help:      "Webhook delivery attempts by result.",
	}, []string{"result"})

	// StreamDroppedTotal counts status snapshots dropped for lagging
	// subscribers.
	StreamDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "netwatch",
		Name:      "stream_dropped_total",
		Help:      "Status snapshots dropped due to slow SSE subscribers.",
	})

	// ConfigSavesTotal counts config rewrites by result.
	ConfigSavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netwatch",
		Name:      "config_saves_total",
		Help:      "Config file rewrites by result.",
	}, []string{"result"})
)
