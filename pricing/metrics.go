package pricing

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Quotes partitioned by outcome
	quotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staybook",
			Name:      "pricing_quotes_total",
			Help:      "Total number of booking price calculations by outcome",
		},
		[]string{"outcome"},
	)

	// End-to-end quote latency in seconds
	quoteDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "staybook",
			Name:      "pricing_quote_duration_seconds",
			Help:      "Booking price calculation latencies in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// Latency of the concurrent seasonal/fee/rule fetch
	supportingFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "staybook",
			Name:      "pricing_supporting_fetch_duration_seconds",
			Help:      "Latency of loading seasonal prices, fees and rules in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// Cache lookups partitioned by record kind and result
	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "staybook",
			Name:      "pricing_cache_lookups_total",
			Help:      "Pricing data cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)
)

func observeQuote(start time.Time, err error) {
	quotesTotal.WithLabelValues(outcomeOf(err)).Inc()
	quoteDuration.Observe(time.Since(start).Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrInvalidOccupancy):
		return "invalid_request"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	default:
		return "upstream_error"
	}
}
