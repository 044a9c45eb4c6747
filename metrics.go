package chainmap

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hupe1980/chainmap/memory"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordStore is called after each row append.
	RecordStore(duration time.Duration, err error)

	// RecordScan is called after each scan; rows is the number of matches.
	RecordScan(rows int, duration time.Duration, err error)

	// RecordUnlink is called after each unlink.
	RecordUnlink(duration time.Duration, err error)

	// RecordLockWait is called whenever a table hands out an accessor;
	// wait is the time spent acquiring its lock token.
	RecordLockWait(mode memory.Mode, wait time.Duration)

	// RecordRemap is called after every attempt to grow a table's mapping.
	RecordRemap(from, to int, duration time.Duration, err error)

	// RecordFlush is called after each flush.
	RecordFlush(bytes int, duration time.Duration, err error)

	// RecordSnapshot is called after each backup; bytes is the stored size.
	RecordSnapshot(bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordStore(time.Duration, error)           {}
func (NoopMetricsCollector) RecordScan(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordUnlink(time.Duration, error)          {}
func (NoopMetricsCollector) RecordLockWait(memory.Mode, time.Duration)  {}
func (NoopMetricsCollector) RecordRemap(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFlush(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordSnapshot(int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	StoreCount      atomic.Int64
	StoreErrors     atomic.Int64
	StoreTotalNanos atomic.Int64
	ScanCount       atomic.Int64
	ScanErrors      atomic.Int64
	ScanRows        atomic.Int64
	ScanTotalNanos  atomic.Int64
	UnlinkCount     atomic.Int64
	UnlinkErrors    atomic.Int64
	ReadAccesses    atomic.Int64
	WriteAccesses   atomic.Int64
	LockWaitNanos   atomic.Int64
	RemapCount      atomic.Int64
	RemapErrors     atomic.Int64
	RemapTotalNanos atomic.Int64
	MappedBytes     atomic.Int64
	FlushCount      atomic.Int64
	FlushErrors     atomic.Int64
	FlushBytes      atomic.Int64
	SnapshotCount   atomic.Int64
	SnapshotErrors  atomic.Int64
	SnapshotBytes   atomic.Int64
}

// RecordStore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStore(duration time.Duration, err error) {
	b.StoreCount.Add(1)
	b.StoreTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.StoreErrors.Add(1)
	}
}

// RecordScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScan(rows int, duration time.Duration, err error) {
	b.ScanCount.Add(1)
	b.ScanTotalNanos.Add(duration.Nanoseconds())
	b.ScanRows.Add(int64(rows))
	if err != nil {
		b.ScanErrors.Add(1)
	}
}

// RecordUnlink implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUnlink(duration time.Duration, err error) {
	b.UnlinkCount.Add(1)
	if err != nil {
		b.UnlinkErrors.Add(1)
	}
}

// RecordLockWait implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLockWait(mode memory.Mode, wait time.Duration) {
	if mode == memory.Shared {
		b.ReadAccesses.Add(1)
	} else {
		b.WriteAccesses.Add(1)
	}
	b.LockWaitNanos.Add(wait.Nanoseconds())
}

// RecordRemap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemap(from, to int, duration time.Duration, err error) {
	b.RemapCount.Add(1)
	b.RemapTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RemapErrors.Add(1)
		return
	}
	b.MappedBytes.Add(int64(to - from))
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(bytes int, duration time.Duration, err error) {
	b.FlushCount.Add(1)
	b.FlushBytes.Add(int64(bytes))
	if err != nil {
		b.FlushErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(bytes int64, _ time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		StoreCount:     b.StoreCount.Load(),
		StoreErrors:    b.StoreErrors.Load(),
		StoreAvgNanos:  avg(b.StoreTotalNanos.Load(), b.StoreCount.Load()),
		ScanCount:      b.ScanCount.Load(),
		ScanErrors:     b.ScanErrors.Load(),
		ScanRows:       b.ScanRows.Load(),
		ScanAvgNanos:   avg(b.ScanTotalNanos.Load(), b.ScanCount.Load()),
		UnlinkCount:    b.UnlinkCount.Load(),
		UnlinkErrors:   b.UnlinkErrors.Load(),
		ReadAccesses:   b.ReadAccesses.Load(),
		WriteAccesses:  b.WriteAccesses.Load(),
		LockWaitNanos:  b.LockWaitNanos.Load(),
		RemapCount:     b.RemapCount.Load(),
		RemapErrors:    b.RemapErrors.Load(),
		RemapAvgNanos:  avg(b.RemapTotalNanos.Load(), b.RemapCount.Load()),
		MappedBytes:    b.MappedBytes.Load(),
		FlushCount:     b.FlushCount.Load(),
		FlushErrors:    b.FlushErrors.Load(),
		FlushBytes:     b.FlushBytes.Load(),
		SnapshotCount:  b.SnapshotCount.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
		SnapshotBytes:  b.SnapshotBytes.Load(),
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
	StoreCount     int64
	StoreErrors    int64
	StoreAvgNanos  int64
	ScanCount      int64
	ScanErrors     int64
	ScanRows       int64
	ScanAvgNanos   int64
	UnlinkCount    int64
	UnlinkErrors   int64
	ReadAccesses   int64
	WriteAccesses  int64
	LockWaitNanos  int64
	RemapCount     int64
	RemapErrors    int64
	RemapAvgNanos  int64
	MappedBytes    int64
	FlushCount     int64
	FlushErrors    int64
	FlushBytes     int64
	SnapshotCount  int64
	SnapshotErrors int64
	SnapshotBytes  int64
}

// regionObserver feeds region events into the collector and the logger.
type regionObserver struct {
	metrics MetricsCollector
	logger  *Logger
}

func (o regionObserver) OnAccess(mode memory.Mode, wait time.Duration) {
	o.metrics.RecordLockWait(mode, wait)
}

func (o regionObserver) OnRemap(from, to int, duration time.Duration, err error) {
	o.metrics.RecordRemap(from, to, duration, err)
	o.logger.LogRemap(context.Background(), from, to, err)
}

func (o regionObserver) OnFlush(bytes int, duration time.Duration, err error) {
	o.metrics.RecordFlush(bytes, duration, err)
}

var _ memory.MetricsObserver = regionObserver{}
