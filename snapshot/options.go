package snapshot

import (
	"log/slog"

	"github.com/hupe1980/chainmap/internal/resource"
)

type options struct {
	compression Compression
	level       int
	chunkSize   int
	logger      *slog.Logger
	resources   *resource.Controller
}

// Option configures Write and Restore.
type Option func(*options)

func defaultOptions() options {
	return options{
		compression: CompressionZSTD,
		level:       3,
		chunkSize:   1 << 20,
		logger:      slog.New(slog.DiscardHandler),
	}
}

// WithCompression selects the body codec. Default: CompressionZSTD.
func WithCompression(c Compression) Option {
	return func(o *options) {
		if c.valid() {
			o.compression = c
		}
	}
}

// WithZstdLevel sets the zstd level (1 fastest, 22 smallest). Default: 3.
func WithZstdLevel(level int) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithResourceController paces blob IO by rc's IO limit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}
