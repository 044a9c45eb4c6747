package chainmap

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/chainmap/internal/fs"
	"github.com/hupe1980/chainmap/internal/resource"
	"github.com/hupe1980/chainmap/memory"
	"github.com/hupe1980/chainmap/stealth"
)

// StealthTable is the file name of the stealth row table.
const StealthTable = "stealth_rows"

type (
	// Row is one stealth payment entry.
	Row = stealth.Row
	// Filter selects rows by the leading bits of their prefix.
	Filter = stealth.Filter
)

// ParseFilter parses a bit string such as "101" into a Filter.
func ParseFilter(s string) (Filter, error) {
	f, err := stealth.ParseFilter(s)
	return f, translateError(err)
}

// NewFilter returns the filter matching the low bits bits of value:
// NewFilter(3, 0b101) selects the same rows as ParseFilter("101").
func NewFilter(bits int, value uint32) (Filter, error) {
	f, err := stealth.NewFilter(bits, value)
	return f, translateError(err)
}

// DB is an open chainmap directory. It is safe for concurrent use: any
// number of scans run in parallel with one writer.
type DB struct {
	dir       string
	opts      options
	resources *resource.Controller
	stealth   *stealth.Store

	closeOnce sync.Once
	closeErr  error
}

// Open opens the database in dir, creating the directory and its tables
// if they do not exist.
func Open(dir string, optFns ...Option) (*DB, error) {
	o := applyOptions(optFns)

	db, err := open(dir, o)
	rows := 0
	if err == nil {
		rows, err = db.stealth.Count()
		if err != nil {
			_ = db.stealth.Close()
		}
	}
	o.logger.LogOpen(context.Background(), dir, rows, err)
	if err != nil {
		return nil, translateError(err)
	}
	return db, nil
}

func open(dir string, o options) (*DB, error) {
	if err := fs.Default.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("chainmap: create %s: %w", dir, err)
	}

	// One controller per database, so the memory limit spans all tables.
	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		IOLimitBytesPerSec: o.flushRate,
	})

	logger := o.logger.WithTable(StealthTable)
	table, err := stealth.Open(filepath.Join(dir, StealthTable),
		memory.WithLogger(logger.Logger),
		memory.WithMetricsObserver(regionObserver{metrics: o.metricsCollector, logger: logger}),
		memory.WithResourceController(rc),
		memory.WithGrowthFactor(o.growthFactor),
		memory.WithMinimumCapacity(o.minCapacity),
		memory.WithAccessPattern(memory.AccessSequential),
	)
	if err != nil {
		return nil, err
	}

	return &DB{
		dir:       dir,
		opts:      o,
		resources: rc,
		stealth:   table,
	}, nil
}

// Dir returns the database directory.
func (db *DB) Dir() string {
	return db.dir
}

// Stealth returns the stealth row table.
func (db *DB) Stealth() *stealth.Store {
	return db.stealth
}

// Store appends a row to the stealth table. Heights must not decrease.
func (db *DB) Store(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := db.stealth.Store(row)
	db.opts.metricsCollector.RecordStore(time.Since(start), err)
	if err != nil {
		db.opts.logger.DebugContext(ctx, "store failed", "height", row.Height, "error", err)
	}
	return translateError(err)
}

// Scan returns the rows at or above fromHeight whose prefix matches filter,
// in ascending height order.
func (db *DB) Scan(ctx context.Context, filter Filter, fromHeight uint32) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := db.stealth.Scan(filter, fromHeight)
	db.opts.metricsCollector.RecordScan(len(rows), time.Since(start), err)
	return rows, translateError(err)
}

// Unlink drops every stealth row at or above fromHeight.
func (db *DB) Unlink(ctx context.Context, fromHeight uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	dropped, err := db.stealth.Unlink(fromHeight)
	db.opts.metricsCollector.RecordUnlink(time.Since(start), err)
	db.opts.logger.LogUnlink(ctx, fromHeight, dropped, err)
	return translateError(err)
}

// Count returns the number of stealth rows.
func (db *DB) Count() (int, error) {
	n, err := db.stealth.Count()
	return n, translateError(err)
}

// MemoryUsage returns the number of mapped bytes across all tables.
func (db *DB) MemoryUsage() int64 {
	return db.resources.MemoryUsage()
}

// Flush writes every table's dirty pages to disk, paced by the flush rate
// limit if one is configured.
func (db *DB) Flush(ctx context.Context) error {
	return translateError(db.stealth.Region().Flush(ctx))
}
