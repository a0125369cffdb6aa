package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		listingsIngestedTotal,
		listingsSkippedTotal,
		listingsPurgedTotal,
		sourceFetchFailuresTotal,
	)
}

var (
	listingsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_ingested_total",
			Help: "Total number of new listings stored, labeled by source.",
		},
		[]string{"source"}, // 'remoteok', 'hackernews', 'github'
	)

	listingsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listings_skipped_total",
			Help: "Total number of listings skipped as duplicates, labeled by source.",
		},
		[]string{"source"},
	)

	listingsPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "listings_purged_total",
			Help: "Total number of stale listings removed by the retention pass.",
		},
	)

	sourceFetchFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_failures_total",
			Help: "Total number of failed source fetch attempts, labeled by source.",
		},
		[]string{"source"},
	)
)

func IncListingsIngested(source string) {
	listingsIngestedTotal.WithLabelValues(norm(source)).Inc()
}

func IncListingsSkipped(source string) {
	listingsSkippedTotal.WithLabelValues(norm(source)).Inc()
}

func AddListingsPurged(count int) {
	listingsPurgedTotal.Add(float64(count))
}

func IncSourceFetchFailures(source string) {
	sourceFetchFailuresTotal.WithLabelValues(norm(source)).Inc()
}
