package memory

import (
	"github.com/hupe1980/chainmap/internal/mmap"
)

// Mapper is the mapping primitive a Region drives.
//
// Resize must either succeed and return the new view, or fail and leave
// the previous view valid. The region calls Resize and Close only while it
// holds the lock exclusively.
type Mapper interface {
	Bytes() []byte
	Resize(size int) ([]byte, error)
	Sync(off, n int) error
	Close() error
}

// Truncater is implemented by mappers that can trim their backing store.
// A region closes by truncating to its logical size when this is available.
type Truncater interface {
	Truncate(size int) error
}

// Adviser is implemented by mappers that accept kernel access hints.
// The hint is reapplied after every remap.
type Adviser interface {
	Advise(pattern AccessPattern) error
}

// AccessPattern is a paging hint for the mapped range.
type AccessPattern = mmap.AccessPattern

// Access patterns understood by the default file mapper.
const (
	AccessDefault    = mmap.AccessDefault
	AccessSequential = mmap.AccessSequential
	AccessRandom     = mmap.AccessRandom
)

var (
	_ Mapper    = (*mmap.Mapping)(nil)
	_ Adviser   = (*mmap.Mapping)(nil)
	_ Truncater = (*mmap.Mapping)(nil)
	_ Mapper    = (*mmap.Anon)(nil)
)
