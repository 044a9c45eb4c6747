package lock

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds the number of concurrent Shared holders.
const maxReaders = 1 << 30

// Mode is the kind of token a holder owns.
type Mode uint8

const (
	// Shared allows concurrent readers.
	Shared Mode = iota + 1
	// Upgradeable coexists with Shared and can be promoted to Exclusive.
	Upgradeable
	// Exclusive excludes every other holder.
	Exclusive
)

func (m Mode) String() string {
	switch m {
	case Shared:
		return "shared"
	case Upgradeable:
		return "upgradeable"
	case Exclusive:
		return "exclusive"
	default:
		return "unlocked"
	}
}

// UpgradeMutex is a reader/writer lock with a single upgradeable slot.
//
// A Shared holder takes one unit of rw. The Upgradeable holder takes the
// upgrade slot plus one unit of rw, and promotes by taking the remaining
// maxReaders-1 units.
type UpgradeMutex struct {
	rw      *semaphore.Weighted
	upgrade *semaphore.Weighted

	readers   atomic.Int64
	upgraded  atomic.Bool
	exclusive atomic.Bool
}

// New returns an unlocked UpgradeMutex.
func New() *UpgradeMutex {
	return &UpgradeMutex{
		rw:      semaphore.NewWeighted(maxReaders),
		upgrade: semaphore.NewWeighted(1),
	}
}

// RLock acquires a Shared token, blocking while Exclusive is held or pending.
func (m *UpgradeMutex) RLock() {
	_ = m.rw.Acquire(context.Background(), 1)
	m.readers.Add(1)
}

// TryRLock acquires a Shared token without blocking.
func (m *UpgradeMutex) TryRLock() bool {
	if !m.rw.TryAcquire(1) {
		return false
	}
	m.readers.Add(1)
	return true
}

// RUnlock releases a Shared token.
func (m *UpgradeMutex) RUnlock() {
	if m.readers.Add(-1) < 0 {
		m.readers.Add(1)
		panic("lock: RUnlock of unlocked UpgradeMutex")
	}
	m.rw.Release(1)
}

// ULock acquires the Upgradeable token. It waits for the current
// Upgradeable or Exclusive holder, never for Shared holders.
func (m *UpgradeMutex) ULock() {
	_ = m.upgrade.Acquire(context.Background(), 1)
	_ = m.rw.Acquire(context.Background(), 1)
	m.upgraded.Store(true)
}

// TryULock acquires the Upgradeable token without blocking.
func (m *UpgradeMutex) TryULock() bool {
	if !m.upgrade.TryAcquire(1) {
		return false
	}
	if !m.rw.TryAcquire(1) {
		m.upgrade.Release(1)
		return false
	}
	m.upgraded.Store(true)
	return true
}

// UUnlock releases the Upgradeable token.
func (m *UpgradeMutex) UUnlock() {
	if m.exclusive.Load() {
		panic("lock: UUnlock while promoted")
	}
	if !m.upgraded.Swap(false) {
		panic("lock: UUnlock of unlocked UpgradeMutex")
	}
	m.rw.Release(1)
	m.upgrade.Release(1)
}

// Promote turns the Upgradeable token into Exclusive.
// It returns once every Shared holder has released.
func (m *UpgradeMutex) Promote() {
	if !m.upgraded.Load() || m.exclusive.Load() {
		panic("lock: Promote without Upgradeable token")
	}
	_ = m.rw.Acquire(context.Background(), maxReaders-1)
	m.exclusive.Store(true)
}

// Demote turns Exclusive back into Upgradeable.
func (m *UpgradeMutex) Demote() {
	if !m.upgraded.Load() || !m.exclusive.Swap(false) {
		panic("lock: Demote without promoted token")
	}
	m.rw.Release(maxReaders - 1)
}

// Lock acquires Exclusive directly.
func (m *UpgradeMutex) Lock() {
	_ = m.upgrade.Acquire(context.Background(), 1)
	_ = m.rw.Acquire(context.Background(), maxReaders)
	m.exclusive.Store(true)
}

// Unlock releases an Exclusive token taken by Lock.
func (m *UpgradeMutex) Unlock() {
	if m.upgraded.Load() {
		panic("lock: Unlock of promoted token; use Demote")
	}
	if !m.exclusive.Swap(false) {
		panic("lock: Unlock of unlocked UpgradeMutex")
	}
	m.rw.Release(maxReaders)
	m.upgrade.Release(1)
}

// Readers returns the number of live Shared tokens.
func (m *UpgradeMutex) Readers() int64 {
	return m.readers.Load()
}

// Held reports the strongest mode currently held, or 0 if none.
func (m *UpgradeMutex) Held() Mode {
	switch {
	case m.exclusive.Load():
		return Exclusive
	case m.upgraded.Load():
		return Upgradeable
	case m.readers.Load() > 0:
		return Shared
	default:
		return 0
	}
}
