package stealth

import (
	"fmt"
	"sort"

	"github.com/hupe1980/chainmap/memory"
)

// Store is the stealth row table.
type Store struct {
	region *memory.Region
}

// Open opens the table file at path, creating and initializing it if needed.
func Open(path string, optFns ...memory.Option) (*Store, error) {
	r, err := memory.OpenFile(path, optFns...)
	if err != nil {
		return nil, err
	}
	s, err := New(r)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return s, nil
}

// New builds a table on r, writing an empty header if r is empty.
// The table owns r afterwards.
func New(r *memory.Region) (*Store, error) {
	err := r.Update(func(acc *memory.Accessor) error {
		switch size := r.Size(); {
		case size == 0:
			// Fresh bytes are zero, which is an empty header.
			if err := r.Reserve(acc, headerSize); err != nil {
				return err
			}
		case size < headerSize:
			return fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, size)
		}
		return checkCount(acc.Buffer(), r.Size())
	})
	if err != nil {
		return nil, fmt.Errorf("stealth: init: %w", err)
	}
	return &Store{region: r}, nil
}

func checkCount(buf []byte, size int) error {
	n := loadCount(buf)
	if n > uint64(size-headerSize)/RowSize {
		return fmt.Errorf("%w: %d rows do not fit %d bytes", ErrCorrupt, n, size)
	}
	return nil
}

// Region returns the region backing the table.
func (s *Store) Region() *memory.Region {
	return s.region
}

// Store appends row. Heights must not decrease.
func (s *Store) Store(row Row) error {
	return s.region.Update(func(acc *memory.Accessor) error {
		buf := acc.Buffer()
		n := loadCount(buf)
		if n > 0 {
			last := buf[headerSize+(n-1)*RowSize:]
			if h := rowHeight(last); row.Height < h {
				return fmt.Errorf("%w: %d < %d", ErrHeightOrder, row.Height, h)
			}
		}

		end := headerSize + int(n+1)*RowSize
		if err := s.region.Reserve(acc, end); err != nil {
			return err
		}
		// Reserve may have remapped; take a fresh slice.
		buf = acc.Buffer()
		encodeRow(buf[end-RowSize:end], &row)
		storeCount(buf, n+1)
		return nil
	})
}

// Unlink drops every row at or above fromHeight, for example after a
// chain reorganization, and returns how many rows it dropped. It waits for
// running scans, so none of them can read a row slot that a later Store
// reuses.
func (s *Store) Unlink(fromHeight uint32) (int, error) {
	var dropped int
	err := s.region.Update(func(acc *memory.Accessor) error {
		return s.region.Exclusive(acc, func() error {
			buf := acc.Buffer()
			n := int(loadCount(buf))
			keep := sort.Search(n, func(i int) bool {
				return rowHeight(buf[headerSize+i*RowSize:]) >= fromHeight
			})
			storeCount(buf, uint64(keep))
			dropped = n - keep
			return nil
		})
	})
	return dropped, err
}

// Count returns the number of stored rows.
func (s *Store) Count() (int, error) {
	var n uint64
	err := s.region.View(func(v memory.View) error {
		n = loadCount(v.Buffer())
		return nil
	})
	return int(n), err
}

// Scan returns the rows at or above fromHeight whose prefix matches filter,
// in ascending height order. It returns an empty slice when nothing matches.
func (s *Store) Scan(filter Filter, fromHeight uint32) ([]Row, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	rows := []Row{}
	err := s.region.View(func(v memory.View) error {
		return scan(v, filter, fromHeight, func(r Row) { rows = append(rows, r) })
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// scan walks v with its cursor; it only relies on the View contract.
func scan(v memory.View, filter Filter, fromHeight uint32, yield func(Row)) error {
	buf := v.Buffer()
	n := loadCount(buf)
	if headerSize+n*RowSize > uint64(len(buf)) {
		return fmt.Errorf("%w: %d rows do not fit %d bytes", ErrCorrupt, n, len(buf))
	}
	count := int(n)

	first := sort.Search(count, func(i int) bool {
		return rowHeight(buf[headerSize+i*RowSize:]) >= fromHeight
	})

	v.Advance(headerSize + first*RowSize)
	for i := first; i < count; i++ {
		rec := v.Buffer()[:RowSize]
		if filter.Match(rowPrefix(rec)) {
			yield(decodeRow(rec))
		}
		v.Advance(RowSize)
	}
	return nil
}

// Close closes the backing region.
func (s *Store) Close() error {
	return s.region.Close()
}
