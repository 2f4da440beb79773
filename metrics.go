package persist

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    acquireCounter prometheus.Counter
//	    saveHistogram  prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordAcquire(duration time.Duration, err error) {
//	    p.acquireCounter.Inc()
//	}
type MetricsCollector interface {
	// RecordAcquire is called after each pool acquisition.
	RecordAcquire(duration time.Duration, err error)

	// RecordRelease is called after each slot is returned to the pool.
	RecordRelease(err error)

	// RecordRefill is called when the pool grows by added slots.
	RecordRefill(added int)

	// RecordSave is called after each save. count is the number of
	// objects attempted.
	RecordSave(count int, duration time.Duration, err error)

	// RecordLoad is called after each load. count is the number of
	// objects attempted.
	RecordLoad(count int, duration time.Duration, err error)

	// RecordCheckpoint is called after each generator checkpoint.
	RecordCheckpoint(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAcquire(time.Duration, error)    {}
func (NoopMetricsCollector) RecordRelease(error)                   {}
func (NoopMetricsCollector) RecordRefill(int)                      {}
func (NoopMetricsCollector) RecordSave(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordCheckpoint(time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AcquireCount      atomic.Int64
	AcquireErrors     atomic.Int64
	AcquireTotalNanos atomic.Int64
	ReleaseCount      atomic.Int64
	ReleaseErrors     atomic.Int64
	RefillCount       atomic.Int64
	RefillSlots       atomic.Int64
	SaveCount         atomic.Int64
	SaveObjects       atomic.Int64
	SaveErrors        atomic.Int64
	SaveTotalNanos    atomic.Int64
	LoadCount         atomic.Int64
	LoadObjects       atomic.Int64
	LoadErrors        atomic.Int64
	LoadTotalNanos    atomic.Int64
	CheckpointCount   atomic.Int64
	CheckpointErrors  atomic.Int64
}

// RecordAcquire implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAcquire(duration time.Duration, err error) {
	b.AcquireCount.Add(1)
	b.AcquireTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AcquireErrors.Add(1)
	}
}

// RecordRelease implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRelease(err error) {
	b.ReleaseCount.Add(1)
	if err != nil {
		b.ReleaseErrors.Add(1)
	}
}

// RecordRefill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRefill(added int) {
	b.RefillCount.Add(1)
	b.RefillSlots.Add(int64(added))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(count int, duration time.Duration, err error) {
	b.SaveCount.Add(1)
	b.SaveObjects.Add(int64(count))
	b.SaveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(count int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadObjects.Add(int64(count))
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// RecordCheckpoint implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCheckpoint(_ time.Duration, err error) {
	b.CheckpointCount.Add(1)
	if err != nil {
		b.CheckpointErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AcquireCount:     b.AcquireCount.Load(),
		AcquireErrors:    b.AcquireErrors.Load(),
		AcquireAvgNanos:  avg(b.AcquireTotalNanos.Load(), b.AcquireCount.Load()),
		ReleaseCount:     b.ReleaseCount.Load(),
		ReleaseErrors:    b.ReleaseErrors.Load(),
		RefillCount:      b.RefillCount.Load(),
		RefillSlots:      b.RefillSlots.Load(),
		SaveCount:        b.SaveCount.Load(),
		SaveObjects:      b.SaveObjects.Load(),
		SaveErrors:       b.SaveErrors.Load(),
		SaveAvgNanos:     avg(b.SaveTotalNanos.Load(), b.SaveCount.Load()),
		LoadCount:        b.LoadCount.Load(),
		LoadObjects:      b.LoadObjects.Load(),
		LoadErrors:       b.LoadErrors.Load(),
		LoadAvgNanos:     avg(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
		CheckpointCount:  b.CheckpointCount.Load(),
		CheckpointErrors: b.CheckpointErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AcquireCount     int64
	AcquireErrors    int64
	AcquireAvgNanos  int64
	ReleaseCount     int64
	ReleaseErrors    int64
	RefillCount      int64
	RefillSlots      int64
	SaveCount        int64
	SaveObjects      int64
	SaveErrors       int64
	SaveAvgNanos     int64
	LoadCount        int64
	LoadObjects      int64
	LoadErrors       int64
	LoadAvgNanos     int64
	CheckpointCount  int64
	CheckpointErrors int64
}
