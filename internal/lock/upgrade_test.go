package lock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const blockWindow = 50 * time.Millisecond

// blocks reports whether fn is still running after blockWindow.
// The returned channel is closed once fn returns.
func blocks(fn func()) (bool, <-chan struct{}) {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	select {
	case <-done:
		return false, done
	case <-time.After(blockWindow):
		return true, done
	}
}

func TestUpgradeMutex_SharedCoexist(t *testing.T) {
	m := New()

	var g errgroup.Group
	var peak atomic.Int64
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			<-start
			m.RLock()
			defer m.RUnlock()
			if n := m.Readers(); n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(10 * time.Millisecond)
			return nil
		})
	}
	close(start)
	require.NoError(t, g.Wait())

	assert.Greater(t, peak.Load(), int64(1))
	assert.Zero(t, m.Readers())
	assert.Equal(t, Mode(0), m.Held())
}

func TestUpgradeMutex_UpgradeableCoexistsWithShared(t *testing.T) {
	m := New()

	m.RLock()
	require.True(t, m.TryULock())
	require.True(t, m.TryRLock())
	assert.Equal(t, Upgradeable, m.Held())
	assert.Equal(t, int64(2), m.Readers())

	m.RUnlock()
	m.RUnlock()
	m.UUnlock()
	assert.Equal(t, Mode(0), m.Held())
}

func TestUpgradeMutex_SingleUpgrader(t *testing.T) {
	m := New()
	m.ULock()

	assert.False(t, m.TryULock())

	blocked, done := blocks(m.ULock)
	assert.True(t, blocked, "second ULock must wait for the first")

	m.UUnlock()
	<-done
	assert.Equal(t, Upgradeable, m.Held())
	m.UUnlock()
}

func TestUpgradeMutex_PromoteWaitsForReaders(t *testing.T) {
	m := New()
	m.RLock()
	m.RLock()
	m.ULock()

	blocked, done := blocks(m.Promote)
	require.True(t, blocked, "Promote must wait for Shared holders")

	m.RUnlock()
	select {
	case <-done:
		t.Fatal("Promote returned with a Shared holder left")
	case <-time.After(blockWindow):
	}

	m.RUnlock()
	<-done
	assert.Equal(t, Exclusive, m.Held())
	assert.Zero(t, m.Readers())

	m.Demote()
	m.UUnlock()
}

func TestUpgradeMutex_ExclusiveExcludesEveryone(t *testing.T) {
	m := New()
	m.ULock()
	m.Promote()

	assert.False(t, m.TryRLock())
	assert.False(t, m.TryULock())

	blockedReader, readerDone := blocks(m.RLock)
	assert.True(t, blockedReader)

	// Demote lets the queued reader in while the upgrader keeps its slot.
	m.Demote()
	<-readerDone
	assert.Equal(t, int64(1), m.Readers())
	assert.False(t, m.TryULock())

	m.RUnlock()
	m.UUnlock()
	assert.True(t, m.TryULock())
	m.UUnlock()
}

func TestUpgradeMutex_PendingPromoteBlocksNewReaders(t *testing.T) {
	m := New()
	m.RLock()
	m.ULock()

	promoted := make(chan struct{})
	go func() {
		m.Promote()
		close(promoted)
	}()

	// Wait until the promotion is queued behind the reader.
	require.Eventually(t, func() bool {
		if m.TryRLock() {
			m.RUnlock()
			return false
		}
		return true
	}, time.Second, time.Millisecond)

	m.RUnlock()
	<-promoted
	assert.Equal(t, Exclusive, m.Held())

	m.Demote()
	m.UUnlock()
}

func TestUpgradeMutex_LockUnlock(t *testing.T) {
	m := New()
	m.RLock()

	blocked, done := blocks(m.Lock)
	require.True(t, blocked)

	m.RUnlock()
	<-done
	assert.Equal(t, Exclusive, m.Held())
	assert.False(t, m.TryULock())
	assert.False(t, m.TryRLock())

	m.Unlock()
	assert.True(t, m.TryRLock())
	m.RUnlock()
}

func TestUpgradeMutex_Misuse(t *testing.T) {
	m := New()
	assert.Panics(t, m.RUnlock)
	assert.Panics(t, m.UUnlock)
	assert.Panics(t, m.Promote)
	assert.Panics(t, m.Demote)
	assert.Panics(t, m.Unlock)

	m.ULock()
	m.Promote()
	assert.Panics(t, m.Promote)
	assert.Panics(t, m.UUnlock)
	assert.Panics(t, m.Unlock)
	m.Demote()
	m.UUnlock()
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "shared", Shared.String())
	assert.Equal(t, "upgradeable", Upgradeable.String())
	assert.Equal(t, "exclusive", Exclusive.String())
	assert.Equal(t, "unlocked", Mode(0).String())
}
