package memory

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/hupe1980/chainmap/internal/lock"
	"github.com/hupe1980/chainmap/internal/mmap"
)

// Region owns a mapping and the lock that makes remapping it safe.
//
// The mapping (base slice and capacity) is replaced only while the lock is
// held exclusively. Everything else reads it through an Accessor.
type Region struct {
	mu     *lock.UpgradeMutex
	mapper Mapper
	opts   options

	// base is written only under Exclusive.
	base       []byte
	size       atomic.Int64 // logical size
	capacity   atomic.Int64 // len(base)
	generation atomic.Uint64
	charged    int64 // bytes charged to opts.resources; guarded like base
	closed     atomic.Bool
}

// Open takes ownership of m and returns a region over its current view.
// The logical size starts at the size of the view.
func Open(m Mapper, optFns ...Option) (*Region, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return newRegion(m, o)
}

// OpenFile maps the file at path, creating it if it does not exist.
func OpenFile(path string, optFns ...Option) (*Region, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	m, err := mmap.OpenFile(o.fs, path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("memory: open %s: %w", path, err)
	}
	return newRegion(m, o)
}

// OpenAnon returns a region over anonymous memory. Its contents are lost
// on Close.
func OpenAnon(optFns ...Option) (*Region, error) {
	return Open(mmap.NewAnon(), optFns...)
}

func newRegion(m Mapper, o options) (*Region, error) {
	base := m.Bytes()
	if err := o.resources.AcquireMemory(int64(len(base))); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("memory: map %d bytes: %w", len(base), err)
	}

	r := &Region{
		mu:      lock.New(),
		mapper:  m,
		opts:    o,
		base:    base,
		charged: int64(len(base)),
	}
	r.size.Store(int64(len(base)))
	r.capacity.Store(int64(len(base)))
	r.advise()
	r.opts.logger.Debug("region opened", "size", len(base))
	return r, nil
}

// advise is best effort.
func (r *Region) advise() {
	a, ok := r.mapper.(Adviser)
	if !ok || r.opts.advice == AccessDefault || len(r.base) == 0 {
		return
	}
	if err := a.Advise(r.opts.advice); err != nil {
		r.opts.logger.Debug("access hint rejected", "error", err)
	}
}

// Read returns an accessor holding a Shared token.
// It blocks while a remap is in progress or pending.
func (r *Region) Read() (*Accessor, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	start := time.Now()
	r.mu.RLock()
	if r.closed.Load() {
		r.mu.RUnlock()
		return nil, ErrClosed
	}
	r.opts.metrics.OnAccess(Shared, time.Since(start))
	return r.issue(Shared), nil
}

// Grow returns an accessor holding the Upgradeable token, which Reserve
// can promote. It blocks while another upgradeable accessor is live.
func (r *Region) Grow() (*Accessor, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	start := time.Now()
	r.mu.ULock()
	if r.closed.Load() {
		r.mu.UUnlock()
		return nil, ErrClosed
	}
	r.opts.metrics.OnAccess(Upgradeable, time.Since(start))
	return r.issue(Upgradeable), nil
}

func (r *Region) issue(mode Mode) *Accessor {
	return &Accessor{
		region: r,
		lock:   r.mu,
		mode:   mode,
		base:   r.base,
		gen:    r.generation.Load(),
	}
}

// View runs fn with a Shared accessor and releases it on every exit path.
func (r *Region) View(fn func(View) error) error {
	acc, err := r.Read()
	if err != nil {
		return err
	}
	defer acc.Release()
	return fn(acc)
}

// Update runs fn with an Upgradeable accessor and releases it on every
// exit path. fn may call Reserve on the accessor.
func (r *Region) Update(fn func(*Accessor) error) error {
	acc, err := r.Grow()
	if err != nil {
		return err
	}
	defer acc.Release()
	return fn(acc)
}

// Reserve makes at least size bytes addressable through acc and raises the
// logical size to size if it is smaller.
//
// If the mapping is already large enough no lock transition happens.
// Otherwise the region promotes acc's token (waiting for every reader),
// grows the mapping by the growth factor, increments the generation,
// rebases acc and demotes again. Slices obtained from acc before the call
// must not be used afterwards.
//
// On failure the returned *ResizeError leaves mapping, size and generation
// unchanged, and the token is back in Upgradeable mode.
func (r *Region) Reserve(acc *Accessor, size int) error {
	if acc == nil || acc.region != r || acc.mode != Upgradeable || acc.released {
		return ErrNotUpgradeable
	}
	acc.mustBeLive()
	if size < 0 {
		return ErrInvalidSize
	}

	if size <= len(r.base) {
		r.raiseSize(size)
		return nil
	}
	return r.remap(acc.privileged(), size, r.growTarget(size))
}

// Exclusive promotes acc's token, runs fn once every reader has released,
// and demotes again. No accessor can observe the buffer while fn runs.
func (r *Region) Exclusive(acc *Accessor, fn func() error) error {
	if acc == nil || acc.region != r || acc.mode != Upgradeable || acc.released {
		return ErrNotUpgradeable
	}
	acc.mustBeLive()

	tok := acc.privileged().upgradeToken()
	start := time.Now()
	tok.Promote()
	defer tok.Demote()
	r.opts.metrics.OnAccess(Exclusive, time.Since(start))
	return fn()
}

func (r *Region) remap(h remapHandle, size, target int) (err error) {
	from := len(r.base)
	start := time.Now()
	defer func() {
		r.opts.metrics.OnRemap(from, target, time.Since(start), err)
	}()

	delta := int64(target - from)
	if err := r.opts.resources.AcquireMemory(delta); err != nil {
		r.opts.logger.Warn("region growth refused", "from", from, "to", target, "error", err)
		return &ResizeError{From: from, To: target, Err: err}
	}

	tok := h.upgradeToken()
	tok.Promote()
	defer tok.Demote()

	data, resizeErr := r.mapper.Resize(target)
	if resizeErr != nil {
		r.opts.resources.ReleaseMemory(delta)
		r.opts.logger.Warn("region growth failed", "from", from, "to", target, "error", resizeErr)
		return &ResizeError{From: from, To: target, Err: resizeErr}
	}

	r.base = data
	r.charged += delta
	r.capacity.Store(int64(len(data)))
	gen := r.generation.Add(1)
	r.raiseSize(size)
	h.setBase(data, gen)
	r.advise()

	r.opts.logger.Debug("region remapped", "from", from, "to", len(data), "generation", gen)
	return nil
}

func (r *Region) growTarget(size int) int {
	target := max(int(float64(len(r.base))*r.opts.growthFactor), size, r.opts.minCapacity)
	page := os.Getpagesize()
	return (target + page - 1) &^ (page - 1)
}

// raiseSize is called with the upgradeable token held, so there is a
// single writer.
func (r *Region) raiseSize(size int) {
	if int64(size) > r.size.Load() {
		r.size.Store(int64(size))
	}
}

// Size returns the logical size: the largest size reserved so far, or the
// initial mapping size.
func (r *Region) Size() int {
	return int(r.size.Load())
}

// Capacity returns the number of mapped bytes.
func (r *Region) Capacity() int {
	return int(r.capacity.Load())
}

// Generation returns the number of successful remaps.
func (r *Region) Generation() uint64 {
	return r.generation.Load()
}

// Flush writes dirty pages in the logical range to the backing store.
// When the resource controller limits IO, pages are flushed in chunks paced
// by its token bucket.
func (r *Region) Flush(ctx context.Context) (err error) {
	acc, err := r.Read()
	if err != nil {
		return err
	}
	defer acc.Release()

	n := r.Size()
	start := time.Now()
	defer func() {
		r.opts.metrics.OnFlush(n, time.Since(start), err)
	}()

	chunk := r.opts.resources.IOBurst()
	if chunk <= 0 {
		chunk = n
	}
	for off := 0; off < n; off += chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := min(chunk, n-off)
		if err := r.opts.resources.AcquireIO(ctx, c); err != nil {
			return err
		}
		if err := r.mapper.Sync(off, c); err != nil {
			return fmt.Errorf("memory: flush %d bytes at %d: %w", c, off, err)
		}
	}
	return nil
}

// Close waits for every accessor to be released, trims the backing store to
// the logical size and unmaps it. It is idempotent.
//
// An accessor that is never released blocks Close forever.
func (r *Region) Close() error {
	if r.closed.Load() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed.Swap(true) {
		return nil
	}

	var err error
	if t, ok := r.mapper.(Truncater); ok && r.opts.trimOnClose {
		err = t.Truncate(r.Size())
	}
	if closeErr := r.mapper.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	r.base = nil
	r.capacity.Store(0)
	r.opts.resources.ReleaseMemory(r.charged)
	r.charged = 0

	r.opts.logger.Debug("region closed", "size", r.Size(), "generation", r.Generation())
	if err != nil {
		return fmt.Errorf("memory: close: %w", err)
	}
	return nil
}
