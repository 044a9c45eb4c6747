package mmap

import (
	"sync/atomic"
)

// Anon is an anonymous mapping with the same resize contract as Mapping.
// Resize copies the live bytes into the new view, so it behaves like a file
// that never leaves memory.
type Anon struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// NewAnon returns an empty anonymous mapping.
func NewAnon() *Anon {
	return &Anon{}
}

// Bytes returns the current view.
func (a *Anon) Bytes() []byte {
	if a.closed.Load() {
		return nil
	}
	return a.data
}

// Size returns the size of the current view in bytes.
func (a *Anon) Size() int {
	return len(a.data)
}

// Resize replaces the view with one of size bytes, preserving the common prefix.
func (a *Anon) Resize(size int) ([]byte, error) {
	if a.closed.Load() {
		return a.data, ErrClosed
	}
	if size < 0 {
		return a.data, ErrInvalidSize
	}
	if size == len(a.data) {
		return a.data, nil
	}

	var (
		data      []byte
		unmapFunc func([]byte) error
	)
	if size > 0 {
		var err error
		data, unmapFunc, err = osMapAnon(size)
		if err != nil {
			return a.data, err
		}
		copy(data, a.data)
	}

	if a.unmap != nil && a.data != nil {
		if err := a.unmap(a.data); err != nil {
			if unmapFunc != nil {
				_ = unmapFunc(data)
			}
			return a.data, err
		}
	}
	a.data = data
	a.unmap = unmapFunc
	return a.data, nil
}

// Sync is a no-op; anonymous memory has no backing file.
func (a *Anon) Sync(off, n int) error {
	if a.closed.Load() {
		return ErrClosed
	}
	if off < 0 || n < 0 || off+n > len(a.data) {
		return ErrOutOfBounds
	}
	return nil
}

// Close releases the memory. It is idempotent.
func (a *Anon) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	if a.unmap == nil || a.data == nil {
		return nil
	}
	err := a.unmap(a.data)
	a.data = nil
	return err
}
