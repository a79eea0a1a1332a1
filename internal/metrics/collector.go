package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "claimresolver"

// Collector exposes an Aggregator to Prometheus. Values are read from a
// snapshot on every scrape, so a Reset is visible as counters dropping to
// zero.
type Collector struct {
	agg *Aggregator

	requests       *prometheus.Desc
	rateLimitHits  *prometheus.Desc
	mockRequests   *prometheus.Desc
	avgProcessing  *prometheus.Desc
	avgTokens      *prometheus.Desc
	lastResetEpoch *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector reading from agg.
func NewCollector(agg *Aggregator) *Collector {
	return &Collector{
		agg: agg,
		requests: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "requests_total"),
			"Resolution attempts since the last reset, by outcome.",
			[]string{"outcome"}, nil,
		),
		rateLimitHits: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "rate_limit_hits_total"),
			"Live-mode calls rejected by the rate limiter since the last reset.",
			nil, nil,
		),
		mockRequests: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "mock_requests_total"),
			"Successful mock-mode resolutions since the last reset.",
			nil, nil,
		),
		avgProcessing: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "avg_processing_ms"),
			"Mean processing time of successful resolutions in milliseconds.",
			nil, nil,
		),
		avgTokens: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "avg_tokens"),
			"Mean token count of successful resolutions.",
			nil, nil,
		),
		lastResetEpoch: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "last_reset_timestamp_seconds"),
			"Unix time of the last metrics reset.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.requests
	ch <- c.rateLimitHits
	ch <- c.mockRequests
	ch <- c.avgProcessing
	ch <- c.avgTokens
	ch <- c.lastResetEpoch
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.agg.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(s.SuccessfulRequests), "success")
	ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(s.FailedRequests), "failure")
	ch <- prometheus.MustNewConstMetric(c.rateLimitHits, prometheus.CounterValue, float64(s.RateLimitHits))
	ch <- prometheus.MustNewConstMetric(c.mockRequests, prometheus.CounterValue, float64(s.MockModeRequests))
	ch <- prometheus.MustNewConstMetric(c.avgProcessing, prometheus.GaugeValue, s.AverageProcessingTimeMs)
	ch <- prometheus.MustNewConstMetric(c.avgTokens, prometheus.GaugeValue, s.AverageTokenCount)
	ch <- prometheus.MustNewConstMetric(c.lastResetEpoch, prometheus.GaugeValue, float64(s.LastResetAt.Unix()))
}
