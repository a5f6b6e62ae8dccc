package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	providerFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "aggregator",
		Subsystem: "provider",
		Name:      "fetch_duration_seconds",
		Help:      "Latency of individual upstream platform fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"platform", "metric"})
	providerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aggregator",
		Subsystem: "provider",
		Name:      "fetch_failures_total",
		Help:      "Upstream platform fetches that ended in an error, by platform.",
	}, []string{"platform"})
	aggregationRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aggregator",
		Subsystem: "api",
		Name:      "aggregation_requests_total",
		Help:      "Aggregation requests served, by metric kind.",
	}, []string{"metric"})
)

func init() {
	prometheus.MustRegister(providerFetchDuration, providerFailures, aggregationRequests)
}

// ObserveProviderFetch records the duration of one platform fetch.
func ObserveProviderFetch(platform, metric string, d time.Duration) {
	providerFetchDuration.WithLabelValues(platform, metric).Observe(d.Seconds())
}

// RecordProviderFailure counts a failed platform fetch.
func RecordProviderFailure(platform string) {
	providerFailures.WithLabelValues(platform).Inc()
}

// RecordAggregationRequest counts one aggregation request.
func RecordAggregationRequest(metric string) {
	aggregationRequests.WithLabelValues(metric).Inc()
}
