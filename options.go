package chainmap

import (
	"log/slog"

	"github.com/hupe1980/chainmap/memory"
	"github.com/hupe1980/chainmap/snapshot"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	memoryLimit      int64
	flushRate        int64
	growthFactor     float64
	minCapacity      int
	backupCodec      snapshot.Compression
}

// Option configures Open.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &chainmap.BasicMetricsCollector{}
//	db, _ := chainmap.Open(dir, chainmap.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Remaps: %d, lock wait: %dns\n", stats.RemapCount, stats.LockWaitNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMemoryLimit caps the total mapped bytes across all tables.
// Growth beyond the limit fails with ErrMemoryLimitExceeded. 0 means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithFlushRateLimit paces Flush to at most bytesPerSec. 0 means unlimited.
func WithFlushRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.flushRate = bytesPerSec
	}
}

// WithGrowthFactor sets the capacity multiplier applied when a table's
// mapping has to grow. Values below 1 are ignored.
func WithGrowthFactor(factor float64) Option {
	return func(o *options) {
		o.growthFactor = factor
	}
}

// WithMinimumCapacity sets the smallest mapping a table grows to.
func WithMinimumCapacity(bytes int) Option {
	return func(o *options) {
		o.minCapacity = bytes
	}
}

// WithBackupCompression selects the codec Backup uses. Default: zstd.
func WithBackupCompression(c snapshot.Compression) Option {
	return func(o *options) {
		o.backupCodec = c
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		growthFactor:     memory.DefaultGrowthFactor,
		backupCodec:      snapshot.CompressionZSTD,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
