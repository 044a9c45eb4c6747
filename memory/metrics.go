package memory

import "time"

// MetricsObserver receives region events.
type MetricsObserver interface {
	// OnAccess is called when an accessor is issued; wait is the time
	// spent acquiring its lock token.
	OnAccess(mode Mode, wait time.Duration)

	// OnRemap is called after every remap attempt.
	OnRemap(from, to int, duration time.Duration, err error)

	// OnFlush is called after Flush.
	OnFlush(bytes int, duration time.Duration, err error)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnAccess(Mode, time.Duration)           {}
func (NoopMetricsObserver) OnRemap(int, int, time.Duration, error) {}
func (NoopMetricsObserver) OnFlush(int, time.Duration, error)      {}
