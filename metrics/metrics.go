// Package metrics holds the Prometheus collectors shared by the service.
// They are registered on the default registry via promauto and exposed by
// the server's /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hreflangd"

var (
	// GhostRequests counts Ghost API calls.
	//
	// Labels:
	//   - api: "content" or "admin"
	//   - status: HTTP status code as text, or "error" for transport failures
	GhostRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ghost",
		Name:      "requests_total",
		Help:      "Total Ghost API requests by API and status.",
	}, []string{"api", "status"})

	// RecomputeTotal counts related-posts recompute cycles.
	//
	// Labels:
	//   - status: "success" or "error"
	RecomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "related",
		Name:      "recompute_total",
		Help:      "Total related-posts recompute cycles by outcome.",
	}, []string{"status"})

	RecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "related",
		Name:      "recompute_duration_seconds",
		Help:      "Duration of related-posts recompute cycles in seconds.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	SnapshotPosts = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "related",
		Name:      "snapshot_posts",
		Help:      "Number of posts in the currently served related-posts snapshot.",
	})

	TriggersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "related",
		Name:      "triggers_total",
		Help:      "Recompute notifications received, before debouncing.",
	})

	// WebhooksTotal counts hreflang handler outcomes.
	//
	// Labels:
	//   - status: "matched", "no-match", "ignored" or "error"
	WebhooksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hreflang",
		Name:      "webhooks_total",
		Help:      "Hreflang pairing runs by outcome.",
	}, []string{"status"})

	// InjectionsTotal counts per-post metadata injections.
	//
	// Labels:
	//   - outcome: "injected", "skipped" or "error"
	InjectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "hreflang",
		Name:      "injections_total",
		Help:      "Per-post head injections by outcome.",
	}, []string{"outcome"})
)
