// Package arena implements a typed bump-pointer arena allocator. An Arena
// hands out long-lived, individually addressable slots for values of a single
// element type, carving them out of coarse blocks requested from the runtime
// allocator in bulk. All slots share the arena's lifetime and are finalized
// together when the arena is destroyed.
package arena

import (
	"strconv"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/memtoolkit/typedarena/arena/internal/utils"
	"github.com/memtoolkit/typedarena/memcore"
	"github.com/pkg/errors"
)

// ErrDestroyed is returned from Destroy when the arena has already been
// destroyed.
var ErrDestroyed = errors.New("arena has already been destroyed")

// Arena is a typed bump-pointer arena allocator for values of type T.
//
// The arena is the sole owner of all backing memory. Pointers returned from
// Alloc grant exclusive access to the logical value but must not be used
// after Destroy; that obligation is the caller's, since Go cannot express the
// lifetime relationship statically.
//
// An Arena may be shared freely as a handle, but it is not safe for
// concurrent use: internal bookkeeping is protected only by a runtime guard
// that panics on re-entrant access. The guard exists to fail loudly on
// misuse within a single goroutine (for example, calling Alloc from inside a
// finalizer during Destroy); it does not make concurrent Alloc calls from
// multiple goroutines safe.
type Arena[T any] struct {
	guard utils.StateGuard
	state arenaState[T]
}

var _ memcore.Validatable = (*Arena[int])(nil)

// Alloc constructs value in place in the next free slot and returns the
// slot's address. The returned pointer is distinct from that of every other
// Alloc call (for element types of nonzero size), never moves, and remains
// valid until the arena is destroyed.
//
// Alloc acquires a new block from the runtime allocator when the current
// block cannot fit another element; the acquisition is tallied into the
// cumulative byte counter. Alloc panics if the arena has been destroyed.
func (a *Arena[T]) Alloc(value T) *T {
	a.guard.Acquire()
	defer a.guard.Release()

	return a.state.alloc(value)
}

// BytesAllocated returns the cumulative number of bytes ever requested from
// the runtime allocator across all blocks. It is a high-water-style counter
// that only grows; it does not report bytes currently occupied by elements.
func (a *Arena[T]) BytesAllocated() int {
	a.guard.AcquireShared()
	defer a.guard.ReleaseShared()

	return a.state.bytes
}

// AllocationCount returns the number of elements constructed in the arena.
func (a *Arena[T]) AllocationCount() int {
	a.guard.AcquireShared()
	defer a.guard.ReleaseShared()

	return a.state.allocationCount()
}

// BlockCount returns the number of blocks currently backing the arena.
func (a *Arena[T]) BlockCount() int {
	a.guard.AcquireShared()
	defer a.guard.ReleaseShared()

	return len(a.state.blocks)
}

// Destroy tears the arena down: for each block in creation order, the
// finalizer provided at creation (if any) runs once for every constructed
// element in construction order, and the block's memory is then released.
// The transition is one-way; a second Destroy returns ErrDestroyed and any
// later Alloc panics.
func (a *Arena[T]) Destroy() error {
	a.guard.Acquire()
	defer a.guard.Release()

	return a.state.destroy()
}

// Validate performs internal consistency checks on the arena's bookkeeping.
// When the implementation is functioning correctly it should not be possible
// for this method to return an error, but it may assist in diagnosing issues.
func (a *Arena[T]) Validate() error {
	a.guard.AcquireShared()
	defer a.guard.ReleaseShared()

	return a.state.Validate()
}

// AddStatistics sums this arena's block and allocation statistics into the
// statistics currently present in the provided memcore.Statistics object.
func (a *Arena[T]) AddStatistics(stats *memcore.Statistics) {
	a.guard.AcquireShared()
	defer a.guard.ReleaseShared()

	a.state.addStatistics(stats)
}

// AddDetailedStatistics sums this arena's block and allocation statistics,
// including unused-space accounting, into the statistics currently present
// in the provided memcore.DetailedStatistics object.
func (a *Arena[T]) AddDetailedStatistics(stats *memcore.DetailedStatistics) {
	a.guard.AcquireShared()
	defer a.guard.ReleaseShared()

	a.state.addDetailedStatistics(stats)
}

// BuildStatsString returns a JSON dump of the arena's state for diagnostic
// purposes. When detailed is true, per-block capacity and element accounting
// is included.
func (a *Arena[T]) BuildStatsString(detailed bool) string {
	a.guard.AcquireShared()
	defer a.guard.ReleaseShared()

	writer := jwriter.NewWriter()
	rootObj := writer.Object()

	generalObj := rootObj.Name("General").Object()
	generalObj.Name("ElementSize").Int(a.state.elemSize)
	generalObj.Name("ChunkSize").Int(a.state.chunkSize)
	generalObj.Name("BlockCount").Int(len(a.state.blocks))
	generalObj.Name("AllocationCount").Int(a.state.allocationCount())
	generalObj.Name("BytesAllocated").Int(a.state.bytes)
	generalObj.End()

	if detailed {
		blocksObj := rootObj.Name("Blocks").Object()
		for _, block := range a.state.blocks {
			blockObj := blocksObj.Name(strconv.Itoa(block.id)).Object()
			block.blockJsonData(blockObj, a.state.slotSize)
			blockObj.End()
		}
		blocksObj.End()
	}

	rootObj.End()
	return string(writer.Bytes())
}
