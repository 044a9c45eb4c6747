package memory

import (
	"errors"
	"fmt"

	"github.com/hupe1980/chainmap/internal/resource"
)

var (
	// ErrClosed is returned when accessing a closed region.
	ErrClosed = errors.New("memory: region is closed")
	// ErrNotUpgradeable is returned when Reserve gets an accessor that does
	// not hold this region's upgradeable token.
	ErrNotUpgradeable = errors.New("memory: accessor is not upgradeable")
	// ErrInvalidSize is returned for negative sizes.
	ErrInvalidSize = errors.New("memory: invalid size")
	// ErrMemoryLimitExceeded is returned when a remap would exceed the
	// configured mapped-memory budget.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// ResizeError reports a failed remap. The region is unchanged: the old
// mapping, size and generation stay in effect and the lock is demoted.
type ResizeError struct {
	From int // capacity before the attempt
	To   int // capacity requested from the mapper
	Err  error
}

func (e *ResizeError) Error() string {
	return fmt.Sprintf("memory: resize %d -> %d bytes: %v", e.From, e.To, e.Err)
}

func (e *ResizeError) Unwrap() error { return e.Err }

// StaleAccessorError is the panic value raised when an accessor is used
// after a remap it did not take part in.
type StaleAccessorError struct {
	Issued  uint64
	Current uint64
}

func (e *StaleAccessorError) Error() string {
	return fmt.Sprintf("memory: stale accessor: issued at generation %d, region at %d", e.Issued, e.Current)
}

// errReleased is the panic value raised when a released accessor is used.
var errReleased = errors.New("memory: accessor used after release")
