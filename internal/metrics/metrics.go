// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WriteOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_write_outcomes_total",
			Help: "Total batch write items by record kind and outcome",
		},
		[]string{"kind", "action"},
	)

	PaymentAmount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portal_payment_amount",
			Help:    "Distribution of recorded fee payment amounts",
			Buckets: prometheus.ExponentialBuckets(500, 2, 10),
		},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
