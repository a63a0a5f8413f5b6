package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedRequests counts feed pages served, by strategy.
	FeedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_requests_total",
		Help: "Feed pages served, by strategy.",
	}, []string{"strategy"})

	// FeedDegraded counts reads that fell back to an empty or smaller page.
	FeedDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feed_degraded_total",
		Help: "Feed reads degraded because a backend failed, by source.",
	}, []string{"source"})

	// BloomOperations counts bloom filter calls by operation and result.
	BloomOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bloom_operations_total",
		Help: "Bloom filter operations, by op and result.",
	}, []string{"op", "result"})

	// ActivityTrackFailures counts swallowed activity tracking errors.
	ActivityTrackFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "activity_track_failures_total",
		Help: "Activity tracking writes that failed and were ignored.",
	})
)
