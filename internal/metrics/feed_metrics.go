// Package metrics defines feed-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Feed counter vectors
var (
	FeedRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_tipster",
		Name:      "feed_requests_total",
		Help:      "Total number of match feed requests by status",
	}, []string{"status"})

	FeedEntriesDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clever_tipster",
		Name:      "feed_entries_dropped_total",
		Help:      "Total number of feed entries dropped during decoding by kind",
	}, []string{"kind"})
)

// Feed histograms
var (
	FeedRequestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "clever_tipster",
		Name:      "feed_request_duration_seconds",
		Help:      "Duration of match feed requests in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// RecordFeedRequest records a feed request and its duration.
func RecordFeedRequest(status string, durationSeconds float64) {
	FeedRequestsTotal.WithLabelValues(status).Inc()
	FeedRequestDuration.Observe(durationSeconds)
}

// RecordFeedEntryDropped records a dropped feed entry.
func RecordFeedEntryDropped(kind string) {
	FeedEntriesDroppedTotal.WithLabelValues(kind).Inc()
}
