package chainmap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hupe1980/chainmap/blobstore"
	"github.com/hupe1980/chainmap/internal/fs"
	"github.com/hupe1980/chainmap/internal/resource"
	"github.com/hupe1980/chainmap/memory"
	"github.com/hupe1980/chainmap/snapshot"
	"github.com/hupe1980/chainmap/stealth"
)

// BackupName returns the blob name Backup uses for a snapshot taken at t.
// Names sort in time order.
func BackupName(t time.Time) string {
	return fmt.Sprintf("%s/%020d.snap", StealthTable, t.UnixNano())
}

// Backup writes a snapshot of the stealth table to store. Scans continue
// while it runs; appends wait. If catalog is non-nil the snapshot is
// committed to it as the latest backup.
func (db *DB) Backup(ctx context.Context, store blobstore.BlobStore, catalog blobstore.Catalog) (snapshot.Info, error) {
	if err := ctx.Err(); err != nil {
		return snapshot.Info{}, err
	}

	name := BackupName(time.Now())
	logger := db.opts.logger.WithTable(StealthTable)
	start := time.Now()

	info, err := snapshot.Write(ctx, db.stealth.Region(), store, name,
		snapshot.WithCompression(db.opts.backupCodec),
		snapshot.WithLogger(logger.Logger),
		snapshot.WithResourceController(db.resources),
	)
	if err == nil && catalog != nil {
		if _, cerr := catalog.Commit(ctx, name); cerr != nil {
			err = fmt.Errorf("chainmap: commit %s: %w", name, cerr)
		}
	}

	db.opts.metricsCollector.RecordSnapshot(info.Stored, time.Since(start), err)
	logger.LogBackup(ctx, name, info.Size, info.Stored, err)
	if err != nil {
		return snapshot.Info{}, translateError(err)
	}
	return info, nil
}

// Restore recreates the stealth table in dir from the snapshot name and
// opens the database. The table must not exist yet or must be empty.
func Restore(ctx context.Context, dir string, store blobstore.BlobStore, name string, optFns ...Option) (*DB, error) {
	o := applyOptions(optFns)

	err := restoreTable(ctx, dir, store, name, o)
	o.logger.LogRestore(ctx, dir, name, err)
	if err != nil {
		return nil, translateError(err)
	}
	return Open(dir, optFns...)
}

// RestoreLatest is Restore with the snapshot most recently committed to
// catalog. It returns ErrNoBackup if nothing was committed.
func RestoreLatest(ctx context.Context, dir string, store blobstore.BlobStore, catalog blobstore.Catalog, optFns ...Option) (*DB, error) {
	latest, err := catalog.Latest(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return Restore(ctx, dir, store, latest.Name, optFns...)
}

func restoreTable(ctx context.Context, dir string, store blobstore.BlobStore, name string, o options) (err error) {
	if err := fs.Default.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("chainmap: create %s: %w", dir, err)
	}

	path := filepath.Join(dir, StealthTable)
	fi, statErr := fs.Default.Stat(path)
	created := errors.Is(statErr, os.ErrNotExist)
	wasEmpty := statErr == nil && fi.Size() == 0

	logger := o.logger.WithTable(StealthTable)
	region, err := memory.OpenFile(path,
		memory.WithLogger(logger.Logger),
		memory.WithGrowthFactor(o.growthFactor),
		memory.WithMinimumCapacity(o.minCapacity),
	)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := region.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		switch {
		case err == nil || errors.Is(err, snapshot.ErrNotEmpty):
		case created:
			_ = fs.Default.Remove(path)
		case wasEmpty:
			_ = fs.Default.Truncate(path, 0)
		}
	}()

	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: o.flushRate})
	if _, err := snapshot.Restore(ctx, store, name, region,
		snapshot.WithLogger(logger.Logger),
		snapshot.WithResourceController(rc),
	); err != nil {
		return err
	}
	// The image must hold a valid table. The deferred Close releases the region.
	if _, err := stealth.New(region); err != nil {
		return err
	}
	return region.Flush(ctx)
}
