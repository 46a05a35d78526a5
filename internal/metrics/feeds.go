// Package metrics provides Prometheus metrics for the feed poller
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusStale   = "stale"
)

// FeedMetrics contains Prometheus metrics for feed refreshes
type FeedMetrics struct {
	fetchesTotal  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cyclesTotal   *prometheus.CounterVec
	rangeChanges  *prometheus.CounterVec
	inFlight      prometheus.Gauge
}

// NewFeedMetrics creates and registers the feed metrics
func NewFeedMetrics(registry prometheus.Registerer) (*FeedMetrics, error) {
	m := &FeedMetrics{
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "station_feed_fetches_total",
				Help: "Total number of feed fetches by outcome",
			},
			[]string{"feed", "status"}, // status: success, error, stale
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "station_feed_fetch_duration_seconds",
				Help:    "Time from issuing a feed request to applying its result",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"feed"},
		),
		cyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "station_refresh_cycles_total",
				Help: "Total number of refresh cycles by trigger",
			},
			[]string{"trigger"}, // trigger: start, interval
		),
		rangeChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "station_range_selections_total",
				Help: "Total number of user range selections",
			},
			[]string{"range"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "station_feed_fetches_in_flight",
				Help: "Feed fetches issued and not yet settled",
			},
		),
	}

	collectors := []prometheus.Collector{m.fetchesTotal, m.fetchDuration, m.cyclesTotal, m.rangeChanges, m.inFlight}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordFetch records a settled fetch
func (m *FeedMetrics) RecordFetch(feed, status string, seconds float64) {
	m.fetchesTotal.WithLabelValues(feed, status).Inc()
	if status != StatusStale {
		m.fetchDuration.WithLabelValues(feed).Observe(seconds)
	}
}

// RecordCycle counts a refresh cycle
func (m *FeedMetrics) RecordCycle(trigger string) {
	m.cyclesTotal.WithLabelValues(trigger).Inc()
}

// RecordRangeSelection counts a user range selection
func (m *FeedMetrics) RecordRangeSelection(rng string) {
	m.rangeChanges.WithLabelValues(rng).Inc()
}

// FetchStarted marks a fetch as in flight
func (m *FeedMetrics) FetchStarted() {
	m.inFlight.Inc()
}

// FetchSettled marks an in-flight fetch as settled
func (m *FeedMetrics) FetchSettled() {
	m.inFlight.Dec()
}
