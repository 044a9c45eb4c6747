package blobstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrNoCommit is returned by Latest when nothing has been committed.
	ErrNoCommit = errors.New("blobstore: no commit")
	// ErrConcurrentCommit is returned when another writer committed the
	// same version first.
	ErrConcurrentCommit = errors.New("blobstore: concurrent commit")
)

// Commit is one entry in a catalog.
type Commit struct {
	Version uint64
	Name    string
}

// Catalog records which blob is current. Versions start at 1 and increase
// by one per commit.
type Catalog interface {
	Commit(ctx context.Context, name string) (Commit, error)
	Latest(ctx context.Context) (Commit, error)
}

// CurrentBlob is the blob BlobCatalog keeps its pointer in.
const CurrentBlob = "CURRENT"

// BlobCatalog stores the pointer in a blob of the store itself. Object
// stores offer no compare-and-swap, so it is only safe with one writer.
type BlobCatalog struct {
	store  BlobStore
	prefix string
	mu     sync.Mutex
}

// NewBlobCatalog returns a catalog whose pointer is prefix/CURRENT.
func NewBlobCatalog(store BlobStore, prefix string) *BlobCatalog {
	return &BlobCatalog{store: store, prefix: prefix}
}

func (c *BlobCatalog) name() string {
	if c.prefix == "" {
		return CurrentBlob
	}
	return strings.TrimSuffix(c.prefix, "/") + "/" + CurrentBlob
}

// Commit makes name the current blob.
func (c *BlobCatalog) Commit(ctx context.Context, name string) (Commit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, err := c.Latest(ctx)
	if err != nil && !errors.Is(err, ErrNoCommit) {
		return Commit{}, err
	}
	next := Commit{Version: prev.Version + 1, Name: name}
	if err := c.store.Put(ctx, c.name(), []byte(fmt.Sprintf("%d %s\n", next.Version, next.Name))); err != nil {
		return Commit{}, err
	}
	return next, nil
}

// Latest returns the current commit.
func (c *BlobCatalog) Latest(ctx context.Context) (Commit, error) {
	data, err := ReadAll(ctx, c.store, c.name())
	if errors.Is(err, ErrNotFound) {
		return Commit{}, ErrNoCommit
	}
	if err != nil {
		return Commit{}, err
	}
	var cm Commit
	if _, err := fmt.Sscanf(string(data), "%d %s", &cm.Version, &cm.Name); err != nil {
		return Commit{}, fmt.Errorf("blobstore: parse %s: %w", c.name(), err)
	}
	return cm, nil
}
