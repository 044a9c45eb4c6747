package chainmap

import (
	"errors"
	"fmt"

	"github.com/hupe1980/chainmap/blobstore"
	"github.com/hupe1980/chainmap/memory"
	"github.com/hupe1980/chainmap/snapshot"
	"github.com/hupe1980/chainmap/stealth"
)

var (
	// ErrClosed is returned by operations on a closed database.
	ErrClosed = errors.New("database is closed")

	// ErrMemoryLimitExceeded is returned when growing a table would exceed
	// the configured memory limit.
	ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

	// ErrHeightOrder is returned when a row is older than the last stored row.
	ErrHeightOrder = errors.New("row height out of order")

	// ErrInvalidFilter is returned for malformed prefix filters.
	ErrInvalidFilter = errors.New("invalid prefix filter")

	// ErrCorrupt is returned when a table file is inconsistent.
	ErrCorrupt = errors.New("corrupt table")

	// ErrTableExists is returned when restoring over a table that has data.
	ErrTableExists = errors.New("table already exists")

	// ErrNoBackup is returned by RestoreLatest when the catalog is empty.
	ErrNoBackup = errors.New("no backup committed")
)

// ErrResize indicates that a table's mapping could not be grown.
// The table is unchanged and remains usable.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrResize struct {
	From  int
	To    int
	cause error
}

func (e *ErrResize) Error() string {
	return fmt.Sprintf("resize %d -> %d bytes: %v", e.From, e.To, e.cause)
}

func (e *ErrResize) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, memory.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	var re *memory.ResizeError
	if errors.As(err, &re) {
		cause := err
		if errors.Is(err, memory.ErrMemoryLimitExceeded) {
			cause = fmt.Errorf("%w: %w", ErrMemoryLimitExceeded, err)
		}
		return &ErrResize{From: re.From, To: re.To, cause: cause}
	}

	switch {
	case errors.Is(err, stealth.ErrHeightOrder):
		return fmt.Errorf("%w: %w", ErrHeightOrder, err)
	case errors.Is(err, stealth.ErrInvalidFilter):
		return fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	case errors.Is(err, stealth.ErrCorrupt),
		errors.Is(err, snapshot.ErrChecksum),
		errors.Is(err, snapshot.ErrFormat):
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	case errors.Is(err, snapshot.ErrNotEmpty):
		return fmt.Errorf("%w: %w", ErrTableExists, err)
	case errors.Is(err, blobstore.ErrNoCommit):
		return fmt.Errorf("%w: %w", ErrNoBackup, err)
	}

	return err
}
