package arena

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
)

// typedBlock is one contiguous region acquired from the runtime allocator,
// subdivided into element slots by the arena. The backing slice is typed
// rather than raw bytes so that pointer fields inside constructed elements
// stay visible to the garbage collector. It is allocated once at full
// capacity and never reallocated, so every slot address is stable for the
// life of the arena.
type typedBlock[T any] struct {
	// elems has len equal to the number of constructed elements and cap
	// equal to the block's slot capacity.
	elems []T
	id    int
	// capacityBytes is the full byte capacity requested for this block. It
	// may exceed cap(elems) times the slot size when the element size does
	// not divide the chunk size; the difference is an unusable tail.
	capacityBytes int
}

func (b *typedBlock[T]) init(id int, slotCapacity int, capacityBytes int) {
	if b.elems != nil {
		panic("arena: initializing a block that is already in use")
	}

	b.id = id
	b.elems = make([]T, 0, slotCapacity)
	b.capacityBytes = capacityBytes
}

func (b *typedBlock[T]) elementCount() int { return len(b.elems) }
func (b *typedBlock[T]) slotCapacity() int { return cap(b.elems) }

// carve constructs value in place in the next free slot and returns the
// slot's address.
func (b *typedBlock[T]) carve(value T) *T {
	index := len(b.elems)
	b.elems = b.elems[:index+1]
	b.elems[index] = value
	return &b.elems[index]
}

// destroy runs finalize over every constructed slot in construction order,
// then releases the backing memory. Constructed slots are zeroed before the
// slice is dropped so the garbage collector can reclaim anything they
// referenced even if a stale element pointer is still held somewhere.
func (b *typedBlock[T]) destroy(finalize func(*T)) {
	if finalize != nil {
		for i := range b.elems {
			finalize(&b.elems[i])
		}
	}

	clear(b.elems)
	b.elems = nil
}

func (b *typedBlock[T]) validate() error {
	if b.elems == nil {
		return errors.Errorf("block %d has no backing memory", b.id)
	}
	if cap(b.elems) < 1 {
		return errors.Errorf("block %d has an invalid slot capacity", b.id)
	}
	if b.capacityBytes < 1 {
		return errors.Errorf("block %d has an invalid byte capacity", b.id)
	}

	return nil
}

// blockJsonData populates a json object with this block's capacity and
// element accounting. slotSize is the per-slot byte footprint.
func (b *typedBlock[T]) blockJsonData(json jwriter.ObjectState, slotSize int) {
	json.Name("TotalBytes").Int(b.capacityBytes)
	json.Name("UnusedBytes").Int(b.capacityBytes - len(b.elems)*slotSize)
	json.Name("Allocations").Int(len(b.elems))
}
