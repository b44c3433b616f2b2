package deploy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"

	"github.com/bayleafwalker/nodeselect/internal/resolver"
)

var (
	resolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeselect_resolutions_total",
			Help: "Number of node.js runtime resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	resolutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nodeselect_resolution_duration_seconds",
			Help:    "Time taken to read deployment configuration and resolve the node.js runtime.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		resolutionsTotal,
		resolutionDuration,
	)
}

func observeResolution(outcome resolver.Outcome, elapsed time.Duration) {
	resolutionsTotal.WithLabelValues(string(outcome)).Inc()
	resolutionDuration.Observe(elapsed.Seconds())
}
