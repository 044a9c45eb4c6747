package memory

import (
	"log/slog"

	"github.com/hupe1980/chainmap/internal/fs"
	"github.com/hupe1980/chainmap/internal/resource"
)

// DefaultGrowthFactor is the capacity multiplier applied on each remap.
const DefaultGrowthFactor = 1.5

type options struct {
	logger       *slog.Logger
	metrics      MetricsObserver
	resources    *resource.Controller
	growthFactor float64
	minCapacity  int
	fs           fs.FileSystem
	trimOnClose  bool
	advice       AccessPattern
}

func defaultOptions() options {
	return options{
		logger:       slog.New(slog.DiscardHandler),
		metrics:      NoopMetricsObserver{},
		growthFactor: DefaultGrowthFactor,
		fs:           fs.Default,
		trimOnClose:  true,
	}
}

// Option configures a Region.
type Option func(*options)

// WithLogger sets the logger for the region.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsObserver sets the metrics observer for the region.
func WithMetricsObserver(observer MetricsObserver) Option {
	return func(o *options) {
		if observer != nil {
			o.metrics = observer
		}
	}
}

// WithResourceController charges mapped bytes and flush IO to rc.
// Share one controller between regions to enforce a global budget.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithMemoryLimit limits the mapped size of this region in bytes.
// If set to 0, memory is unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.resources = resource.NewController(resource.Config{
			MemoryLimitBytes: bytes,
		})
	}
}

// WithGrowthFactor sets how much capacity grows on a remap relative to the
// current capacity. Values below 1 are ignored.
func WithGrowthFactor(factor float64) Option {
	return func(o *options) {
		if factor >= 1 {
			o.growthFactor = factor
		}
	}
}

// WithMinimumCapacity sets the smallest capacity the first remap allocates.
func WithMinimumCapacity(bytes int) Option {
	return func(o *options) {
		if bytes > 0 {
			o.minCapacity = bytes
		}
	}
}

// WithFileSystem sets the filesystem OpenFile uses.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithTrimOnClose controls whether Close truncates the backing file to the
// logical size. Enabled by default.
func WithTrimOnClose(trim bool) Option {
	return func(o *options) {
		o.trimOnClose = trim
	}
}

// WithAccessPattern passes a paging hint to mappers that implement Adviser.
func WithAccessPattern(p AccessPattern) Option {
	return func(o *options) {
		o.advice = p
	}
}
