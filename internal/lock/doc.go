// Package lock provides a reader/writer lock with an upgradeable mode.
//
// # Modes
//
//	Unlocked ──RLock──▶ Shared        (any number of holders)
//	Unlocked ──ULock──▶ Upgradeable   (one holder, coexists with Shared)
//	Upgradeable ──Promote──▶ Exclusive (waits until every Shared holder leaves)
//	Exclusive ──Demote──▶ Upgradeable
//	Unlocked ──Lock──▶ Exclusive
//
// Only one goroutine can hold Upgradeable at a time, so two growth intents
// never wait on each other's readers: the second one queues for the
// Upgradeable slot instead of deadlocking against the first.
//
// # Fairness
//
// The lock is built on golang.org/x/sync/semaphore, which serves waiters in
// FIFO order. A pending Promote therefore blocks readers that arrive after
// it, and a steady stream of readers cannot starve a grower. A reader that
// never releases still blocks Promote forever; acquisitions are not
// cancellable.
//
// A goroutine that holds Shared and then calls Promote on a lock it also
// holds Upgradeable on deadlocks against itself.
package lock
