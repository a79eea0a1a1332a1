// Package metrics aggregates counters and running means over resolution
// attempts.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of the aggregate.
type Snapshot struct {
	TotalRequests           int64     `json:"totalRequests"`
	SuccessfulRequests      int64     `json:"successfulRequests"`
	FailedRequests          int64     `json:"failedRequests"`
	AverageProcessingTimeMs float64   `json:"averageProcessingTimeMs"`
	AverageTokenCount       float64   `json:"averageTokenCount"`
	RateLimitHits           int64     `json:"rateLimitHits"`
	MockModeRequests        int64     `json:"mockModeRequests"`
	LastResetAt             time.Time `json:"lastResetAt"`
}

// Aggregator is safe for concurrent use. Means are updated incrementally
// over successful requests only.
type Aggregator struct {
	mu  sync.Mutex
	s   Snapshot
	now func() time.Time
}

// NewAggregator returns a zeroed aggregator.
func NewAggregator() *Aggregator {
	a := &Aggregator{now: time.Now}
	a.s.LastResetAt = a.now().UTC()
	return a
}

// RecordSuccess counts a successful resolution.
func (a *Aggregator) RecordSuccess(durationMs, tokenCount int, mock bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.s.TotalRequests++
	a.s.SuccessfulRequests++
	if mock {
		a.s.MockModeRequests++
	}
	n := float64(a.s.SuccessfulRequests)
	a.s.AverageProcessingTimeMs = (a.s.AverageProcessingTimeMs*(n-1) + float64(durationMs)) / n
	a.s.AverageTokenCount = (a.s.AverageTokenCount*(n-1) + float64(tokenCount)) / n
}

// RecordFailure counts a failed resolution.
func (a *Aggregator) RecordFailure() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.s.TotalRequests++
	a.s.FailedRequests++
}

// RecordRateLimitHit counts a call rejected by the rate limiter. The
// rejection is also a failure and must be recorded with RecordFailure.
func (a *Aggregator) RecordRateLimitHit() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.s.RateLimitHits++
}

// Snapshot returns a copy of the current values.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.s
}

// Reset zeroes every counter and mean and returns the values held just
// before the reset.
func (a *Aggregator) Reset() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.s
	a.s = Snapshot{LastResetAt: a.now().UTC()}
	return prev
}
