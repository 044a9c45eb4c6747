package chainmap_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/chainmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(prefix, height uint32) chainmap.Row {
	r := chainmap.Row{Prefix: prefix, Height: height}
	r.TransactionHash[0] = byte(height)
	return r
}

func TestOpen_StoreScanReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "db")

	db, err := chainmap.Open(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, db.Dir())

	require.NoError(t, db.Store(ctx, row(0b101<<29, 999)))
	require.NoError(t, db.Store(ctx, row(0b101<<29, 1000)))
	require.NoError(t, db.Store(ctx, row(0b110<<29, 1001)))
	require.NoError(t, db.Store(ctx, row(0b1010<<28, 1002)))

	filter, err := chainmap.ParseFilter("101")
	require.NoError(t, err)
	rows, err := db.Scan(ctx, filter, 1000)
	require.NoError(t, err)
	assert.Equal(t, []chainmap.Row{row(0b101<<29, 1000), row(0b1010<<28, 1002)}, rows)
	require.NoError(t, db.Close())

	info, err := os.Stat(filepath.Join(dir, chainmap.StealthTable))
	require.NoError(t, err)
	assert.Equal(t, int64(8+4*92), info.Size())

	db, err = chainmap.Open(dir)
	require.NoError(t, err)
	defer db.Close()

	n, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	rows, err = db.Scan(ctx, filter, 1003)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestDB_Close(t *testing.T) {
	ctx := context.Background()
	db, err := chainmap.Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	assert.ErrorIs(t, db.Store(ctx, row(0, 1)), chainmap.ErrClosed)
	_, err = db.Scan(ctx, chainmap.Filter{}, 0)
	assert.ErrorIs(t, err, chainmap.ErrClosed)
	_, err = db.Count()
	assert.ErrorIs(t, err, chainmap.ErrClosed)
	assert.ErrorIs(t, db.Unlink(ctx, 0), chainmap.ErrClosed)
	assert.ErrorIs(t, db.Flush(ctx), chainmap.ErrClosed)

	var nilDB *chainmap.DB
	assert.NoError(t, nilDB.Close())
}

func TestDB_Errors(t *testing.T) {
	ctx := context.Background()
	db, err := chainmap.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Store(ctx, row(0, 10)))
	assert.ErrorIs(t, db.Store(ctx, row(0, 9)), chainmap.ErrHeightOrder)

	_, err = chainmap.ParseFilter("12")
	assert.ErrorIs(t, err, chainmap.ErrInvalidFilter)

	_, err = db.Scan(ctx, chainmap.Filter{Bits: 40}, 0)
	assert.ErrorIs(t, err, chainmap.ErrInvalidFilter)

	_, err = db.Scan(ctx, chainmap.Filter{Bits: 3, Value: 0b101}, 0)
	assert.ErrorIs(t, err, chainmap.ErrInvalidFilter)

	_, err = chainmap.NewFilter(3, 0b1000)
	assert.ErrorIs(t, err, chainmap.ErrInvalidFilter)

	f, err := chainmap.NewFilter(3, 0b101)
	require.NoError(t, err)
	parsed, err := chainmap.ParseFilter("101")
	require.NoError(t, err)
	assert.Equal(t, parsed, f)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, db.Store(canceled, row(0, 11)), context.Canceled)
	_, err = db.Scan(canceled, chainmap.Filter{}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDB_MemoryLimit(t *testing.T) {
	ctx := context.Background()
	page := os.Getpagesize()
	metrics := &chainmap.BasicMetricsCollector{}

	// Capacities go 1, 2, 4 pages; the step to 8 exceeds the limit.
	db, err := chainmap.Open(t.TempDir(),
		chainmap.WithMemoryLimit(int64(4*page)),
		chainmap.WithGrowthFactor(2),
		chainmap.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	defer db.Close()

	var stored int
	for ; stored < 10*page; stored++ {
		if err = db.Store(ctx, row(0, uint32(stored))); err != nil {
			break
		}
	}
	require.Error(t, err)
	assert.ErrorIs(t, err, chainmap.ErrMemoryLimitExceeded)
	var re *chainmap.ErrResize
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 4*page, re.From)
	assert.Equal(t, int64(4*page), db.MemoryUsage())

	n, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, stored, n)
	assert.Equal(t, (4*page-8)/92, n)

	rows, err := db.Scan(ctx, chainmap.Filter{}, 0)
	require.NoError(t, err)
	assert.Len(t, rows, stored)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.RemapErrors)
	assert.Equal(t, int64(1), stats.StoreErrors)
	assert.Equal(t, int64(4*page), stats.MappedBytes)
}

func TestDB_Unlink(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := chainmap.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	db, err := chainmap.Open(t.TempDir(), chainmap.WithLogger(logger))
	require.NoError(t, err)
	defer db.Close()

	for h := uint32(100); h < 110; h++ {
		require.NoError(t, db.Store(ctx, row(h, h)))
	}
	require.NoError(t, db.Unlink(ctx, 105))

	n, err := db.Count()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Contains(t, buf.String(), `"msg":"rows unlinked"`)
	assert.Contains(t, buf.String(), `"dropped":5`)

	// Store resumes at the cut after a reorganization.
	require.NoError(t, db.Store(ctx, row(1, 105)))
}

func TestDB_LoggingAndMetrics(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := chainmap.NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := &chainmap.BasicMetricsCollector{}

	db, err := chainmap.Open(t.TempDir(),
		chainmap.WithLogger(logger),
		chainmap.WithMetricsCollector(metrics),
		chainmap.WithFlushRateLimit(1<<20),
	)
	require.NoError(t, err)

	require.NoError(t, db.Store(ctx, row(1, 1)))
	_, err = db.Scan(ctx, chainmap.Filter{}, 0)
	require.NoError(t, err)
	require.NoError(t, db.Flush(ctx))
	require.NoError(t, db.Close())

	out := buf.String()
	assert.Contains(t, out, `"msg":"database opened"`)
	assert.Contains(t, out, `"msg":"remap completed"`)
	assert.Contains(t, out, `"table":"stealth_rows"`)
	assert.Contains(t, out, `"msg":"database closed"`)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.StoreCount)
	assert.Equal(t, int64(1), stats.ScanCount)
	assert.Equal(t, int64(1), stats.ScanRows)
	assert.GreaterOrEqual(t, stats.RemapCount, int64(1))
	assert.GreaterOrEqual(t, stats.WriteAccesses, int64(2))
	assert.GreaterOrEqual(t, stats.ReadAccesses, int64(2))
	assert.Equal(t, int64(2), stats.FlushCount)
	assert.Equal(t, int64(2*(8+92)), stats.FlushBytes)
}
