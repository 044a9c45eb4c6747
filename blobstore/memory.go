package blobstore

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps snapshot images in process memory. Backups to it are
// lost on exit; tests and dry runs use it.
type MemoryStore struct {
	mu     sync.RWMutex
	images map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{images: make(map[string][]byte)}
}

func (m *MemoryStore) image(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.images[name]
	return img, ok
}

// Open returns a reader over the image saved as name. Images are replaced,
// never edited, so the reader sees a stable copy.
func (m *MemoryStore) Open(_ context.Context, name string) (Blob, error) {
	img, ok := m.image(name)
	if !ok {
		return nil, ErrNotFound
	}
	return &memoryImage{r: bytes.NewReader(img)}, nil
}

// Create starts an upload that becomes visible under name on Close.
func (m *MemoryStore) Create(_ context.Context, name string) (WritableBlob, error) {
	return &memoryUpload{store: m, name: name}, nil
}

// Put saves a copy of data under name, replacing any earlier image.
func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	m.save(name, bytes.Clone(data))
	return nil
}

func (m *MemoryStore) save(name string, img []byte) {
	m.mu.Lock()
	m.images[name] = img
	m.mu.Unlock()
}

// Delete drops name. Dropping an unknown name succeeds.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	delete(m.images, name)
	m.mu.Unlock()
	return nil
}

// List returns the saved names under prefix in lexical order.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	names := make([]string, 0, len(m.images))
	for name := range m.images {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	m.mu.RUnlock()

	slices.Sort(names)
	return names, nil
}

type memoryImage struct {
	r *bytes.Reader
}

func (b *memoryImage) Size() int64 { return b.r.Size() }

// ReadAt follows io.ReaderAt: a short read reports io.EOF.
func (b *memoryImage) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return b.r.ReadAt(p, off)
}

func (b *memoryImage) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	off = min(max(off, 0), b.r.Size())
	length = min(max(length, 0), b.r.Size()-off)
	return io.NopCloser(io.NewSectionReader(b.r, off, length)), nil
}

func (b *memoryImage) Close() error { return nil }

type memoryUpload struct {
	store  *MemoryStore
	name   string
	buf    bytes.Buffer
	closed bool
}

func (u *memoryUpload) Write(p []byte) (int, error) {
	if u.closed {
		return 0, io.ErrClosedPipe
	}
	return u.buf.Write(p)
}

// Close publishes the buffered image.
func (u *memoryUpload) Close() error {
	if u.closed {
		return io.ErrClosedPipe
	}
	u.closed = true
	u.store.save(u.name, bytes.Clone(u.buf.Bytes()))
	return nil
}

// Abort discards the buffer. After Close it has nothing left to undo.
func (u *memoryUpload) Abort() error {
	u.closed = true
	u.buf.Reset()
	return nil
}
