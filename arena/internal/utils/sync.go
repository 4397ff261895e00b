package utils

import "sync"

// StateGuard enforces an exclusive-access discipline on state that is mutated
// behind a shared handle. It is not a synchronization primitive: the guard
// never blocks, and a failed acquire means the same logical owner re-entered
// the state while a mutation was already in progress, which is a caller bug.
// The guard panics in that case rather than let two mutations interleave.
type StateGuard struct {
	mutex sync.RWMutex
}

// Acquire takes the guard for a mutation. It panics if any other acquire,
// exclusive or shared, is still outstanding.
func (g *StateGuard) Acquire() {
	if !g.mutex.TryLock() {
		panic("arena: re-entrant mutation of arena state")
	}
}

// Release ends a mutation started with Acquire.
func (g *StateGuard) Release() {
	g.mutex.Unlock()
}

// AcquireShared takes the guard for a read. It panics if an exclusive acquire
// is still outstanding. Multiple shared acquires may coexist.
func (g *StateGuard) AcquireShared() {
	if !g.mutex.TryRLock() {
		panic("arena: state read during an in-progress mutation")
	}
}

// ReleaseShared ends a read started with AcquireShared.
func (g *StateGuard) ReleaseShared() {
	g.mutex.RUnlock()
}
