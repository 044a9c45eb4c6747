package memory

import (
	"github.com/hupe1980/chainmap/internal/lock"
)

// Mode is the kind of lock token an accessor holds.
type Mode = lock.Mode

const (
	// Shared is held by read accessors.
	Shared = lock.Shared
	// Upgradeable is held by growth accessors.
	Upgradeable = lock.Upgradeable
	// Exclusive is reported while a promoted token runs an exclusive section.
	Exclusive = lock.Exclusive
)

// noCopy lets `go vet` (copylocks) flag accessors copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Accessor is a short-lived handle on a region's mapping.
//
// It holds one lock token from construction until Release. It is not safe
// for concurrent use and must not be copied; pass *Accessor.
type Accessor struct {
	_ noCopy

	region   *Region
	lock     *lock.UpgradeMutex // borrowed from region
	mode     Mode
	base     []byte
	cursor   int
	gen      uint64
	released bool
}

// Buffer returns the mapped bytes from the cursor to the end of the mapping.
//
// The slice is valid until Release or the next Reserve on this accessor.
// Buffer panics if the accessor was released or is stale.
func (a *Accessor) Buffer() []byte {
	a.mustBeLive()
	return a.base[a.cursor:]
}

// Advance moves the cursor forward n bytes. The cursor is not checked
// against the mapping size; a following Buffer call traps an overrun.
func (a *Accessor) Advance(n int) {
	a.mustBeLive()
	if n < 0 {
		panic("memory: negative advance")
	}
	a.cursor += n
}

// Offset returns the cursor position relative to the mapping base.
func (a *Accessor) Offset() int {
	return a.cursor
}

// Mode returns the lock token the accessor holds.
func (a *Accessor) Mode() Mode {
	return a.mode
}

// Generation returns the region generation the accessor's base belongs to.
func (a *Accessor) Generation() uint64 {
	return a.gen
}

// Release ends the accessor's lock participation. It is idempotent and
// safe on a nil accessor, so it can always be deferred.
func (a *Accessor) Release() {
	if a == nil || a.released {
		return
	}
	a.released = true
	a.base = nil
	switch a.mode {
	case Shared:
		a.lock.RUnlock()
	case Upgradeable:
		a.lock.UUnlock()
	}
}

func (a *Accessor) mustBeLive() {
	if a.released {
		panic(errReleased)
	}
	if cur := a.region.generation.Load(); cur != a.gen {
		panic(&StaleAccessorError{Issued: a.gen, Current: cur})
	}
}

func (a *Accessor) privileged() remapHandle {
	return remapHandle{acc: a}
}

// remapHandle is the region's private channel into an accessor.
// Ordinary callers never obtain one.
type remapHandle struct {
	acc *Accessor
}

// upgradeToken returns the lock the accessor holds Upgradeable on.
func (h remapHandle) upgradeToken() *lock.UpgradeMutex {
	if h.acc.mode != Upgradeable || h.acc.released {
		panic("memory: remap through an accessor without an upgradeable token")
	}
	return h.acc.lock
}

// setBase points the accessor at a new mapping. The caller holds the
// token exclusively.
func (h remapHandle) setBase(data []byte, gen uint64) {
	h.acc.base = data
	h.acc.gen = gen
}
