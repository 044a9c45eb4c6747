package mmap

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/hupe1980/chainmap/internal/fs"
)

// Mapping is a read-write shared mapping of a file.
// It owns both the file handle and the current view.
//
// Mapping is not safe for concurrent Resize; callers serialize remaps.
type Mapping struct {
	file   fs.File
	data   []byte
	closed atomic.Bool
	// unmap is the platform-specific function to unmap data.
	unmap func([]byte) error
}

// OpenFile opens path through fsys and maps its current contents.
// An empty file yields a mapping with a nil view; grow it with Resize.
func OpenFile(fsys fs.FileSystem, path string, flag int, perm os.FileMode) (*Mapping, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size < 0 || int64(int(size)) != size {
		f.Close()
		return nil, ErrInvalidSize
	}

	m := &Mapping{file: f}
	if size == 0 {
		return m, nil
	}

	data, unmapFunc, err := osMap(f.Fd(), int(size))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap: map %s: %w", path, err)
	}
	m.data = data
	m.unmap = unmapFunc
	return m, nil
}

// Bytes returns the current view.
// Warning: The slice is valid only until the next Resize, Truncate or Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the current view in bytes.
func (m *Mapping) Size() int {
	return len(m.data)
}

// Name returns the name of the mapped file.
func (m *Mapping) Name() string {
	return m.file.Name()
}

// Resize changes the file size to size bytes and returns the new view.
//
// The file is resized first, then the new view is mapped, then the old one
// is unmapped. If resizing the file or mapping fails, the old view is still
// valid and is returned unchanged.
func (m *Mapping) Resize(size int) ([]byte, error) {
	if m.closed.Load() {
		return m.data, ErrClosed
	}
	if size < 0 {
		return m.data, ErrInvalidSize
	}
	if size == len(m.data) {
		return m.data, nil
	}

	if err := m.file.Truncate(int64(size)); err != nil {
		return m.data, fmt.Errorf("mmap: resize file to %d: %w", size, err)
	}

	var (
		data      []byte
		unmapFunc func([]byte) error
	)
	if size > 0 {
		var err error
		data, unmapFunc, err = osMap(m.file.Fd(), size)
		if err != nil {
			return m.data, fmt.Errorf("mmap: map %d bytes: %w", size, err)
		}
	}

	if err := m.release(); err != nil {
		if unmapFunc != nil {
			_ = unmapFunc(data)
		}
		return m.data, err
	}
	m.data = data
	m.unmap = unmapFunc
	return m.data, nil
}

// Sync flushes n bytes starting at off to the file.
func (m *Mapping) Sync(off, n int) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if off < 0 || n < 0 || off+n > len(m.data) {
		return ErrOutOfBounds
	}
	if n == 0 {
		return nil
	}
	// msync wants a page-aligned start; the view itself is page aligned.
	start := off &^ (os.Getpagesize() - 1)
	return osSync(m.data[start : off+n])
}

// Truncate unmaps the view and sets the file size to size.
// Only Close is valid afterwards.
func (m *Mapping) Truncate(size int) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if size < 0 {
		return ErrInvalidSize
	}
	if err := m.release(); err != nil {
		return err
	}
	return m.file.Truncate(int64(size))
}

// Close unmaps the memory and closes the file. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil // Already closed
	}
	err := m.release()
	if closeErr := m.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// Advise provides hints to the kernel about how the memory will be accessed.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (n int, err error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *Mapping) release() error {
	if m.unmap == nil || m.data == nil {
		m.data = nil
		return nil
	}
	if err := m.unmap(m.data); err != nil {
		return fmt.Errorf("mmap: unmap: %w", err)
	}
	m.data = nil
	m.unmap = nil
	return nil
}
