package protsplit

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/protsplit/split"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAttempt is called after each split attempt.
	RecordAttempt(reason split.Reason)

	// RecordSplit is called after each Engine.Split call. loaded reports
	// whether an existing split record was reused, attempts is the number of
	// generation attempts, err is nil if successful.
	RecordSplit(loaded bool, attempts int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAttempt(split.Reason)                  {}
func (NoopMetricsCollector) RecordSplit(bool, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SplitCount      atomic.Int64
	SplitErrors     atomic.Int64
	SplitTotalNanos atomic.Int64
	LoadedCount     atomic.Int64
	AttemptCount    atomic.Int64
	AttemptFailures atomic.Int64
}

// RecordAttempt implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAttempt(reason split.Reason) {
	b.AttemptCount.Add(1)
	if reason != split.ReasonNone {
		b.AttemptFailures.Add(1)
	}
}

// RecordSplit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSplit(loaded bool, _ int, duration time.Duration, err error) {
	b.SplitCount.Add(1)
	b.SplitTotalNanos.Add(duration.Nanoseconds())
	if loaded {
		b.LoadedCount.Add(1)
	}
	if err != nil {
		b.SplitErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SplitCount:      b.SplitCount.Load(),
		SplitErrors:     b.SplitErrors.Load(),
		SplitAvgNanos:   b.getAvgSplitNanos(),
		LoadedCount:     b.LoadedCount.Load(),
		AttemptCount:    b.AttemptCount.Load(),
		AttemptFailures: b.AttemptFailures.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSplitNanos() int64 {
	count := b.SplitCount.Load()
	if count == 0 {
		return 0
	}
	return b.SplitTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SplitCount      int64
	SplitErrors     int64
	SplitAvgNanos   int64
	LoadedCount     int64
	AttemptCount    int64
	AttemptFailures int64
}
