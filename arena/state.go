package arena

import (
	"context"
	"log/slog"

	"github.com/memtoolkit/typedarena/memcore"
	"github.com/pkg/errors"
)

// arenaState is the mutable bookkeeping behind an Arena handle: the ordered
// block list, the bump budget of the current block, and the cumulative byte
// counter. Every access goes through the handle's StateGuard.
type arenaState[T any] struct {
	blocks []*typedBlock[T]

	// bytes is the cumulative number of bytes ever requested from the
	// runtime allocator. It only grows.
	bytes int
	// bytesRemaining is the unconstructed byte budget of the current block
	// only. Completed blocks never contribute to it.
	bytesRemaining int

	// elemSize is the true size of T; slotSize is elemSize clamped to a
	// minimum of one byte so capacity and byte accounting stay meaningful
	// for zero-size element types.
	elemSize int
	slotSize int

	chunkSize int
	finalizer func(*T)
	callbacks blockCallbacks
	logger    *slog.Logger
	destroyed bool
}

func (s *arenaState[T]) currentBlock() *typedBlock[T] {
	if len(s.blocks) == 0 {
		return nil
	}
	return s.blocks[len(s.blocks)-1]
}

func (s *arenaState[T]) allocationCount() int {
	count := 0
	for _, block := range s.blocks {
		count += block.elementCount()
	}
	return count
}

// grow acquires a fresh block sized max(chunk size, one element), appends it
// to the block list, and makes it the current block. When the element size
// does not divide the chunk size, the full chunk is still requested and
// counted; the sub-element tail is an unusable remainder.
func (s *arenaState[T]) grow() *typedBlock[T] {
	memcore.DebugCheckPow2(s.chunkSize, "chunkSize")

	slots := s.chunkSize / s.slotSize
	if slots < 1 {
		// Oversized element: a dedicated single-slot block.
		slots = 1
	}

	sizeBytes := max(s.chunkSize, s.slotSize)
	block := &typedBlock[T]{}
	block.init(len(s.blocks), slots, sizeBytes)
	s.blocks = append(s.blocks, block)

	s.bytes += sizeBytes
	s.bytesRemaining = sizeBytes

	s.callbacks.Acquire(block.id, sizeBytes)
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "acquired arena block",
		slog.Int("block", block.id),
		slog.Int("sizeBytes", sizeBytes),
		slog.Int("slots", slots))

	return block
}

func (s *arenaState[T]) alloc(value T) *T {
	if s.destroyed {
		panic("arena: Alloc on a destroyed arena")
	}

	block := s.currentBlock()
	if block == nil || s.bytesRemaining < s.slotSize {
		block = s.grow()
	}

	s.bytesRemaining -= s.slotSize
	slot := block.carve(value)
	memcore.DebugValidate(s)

	return slot
}

func (s *arenaState[T]) destroy() error {
	if s.destroyed {
		return ErrDestroyed
	}
	s.destroyed = true

	blockCount := len(s.blocks)
	for _, block := range s.blocks {
		id := block.id
		sizeBytes := block.capacityBytes
		block.destroy(s.finalizer)
		s.callbacks.Release(id, sizeBytes)
	}
	s.blocks = nil
	s.bytesRemaining = 0
	memcore.DebugValidate(s)

	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "arena destroyed",
		slog.Int("blocks", blockCount),
		slog.Int("cumulativeBytes", s.bytes))

	return nil
}

// Validate performs internal consistency checks on the bookkeeping. The
// caller must already hold the handle's StateGuard; DebugValidate invokes
// this from inside mutations under the debug_mem_core build tag.
func (s *arenaState[T]) Validate() error {
	if s.destroyed {
		if len(s.blocks) != 0 {
			return errors.New("destroyed arena still holds blocks")
		}
		return nil
	}

	blockBytes := 0
	for i, block := range s.blocks {
		if err := block.validate(); err != nil {
			return err
		}
		if block.id != i {
			return errors.Errorf("block at position %d carries id %d; the block list is out of creation order", i, block.id)
		}
		if block.elementCount() > block.slotCapacity() {
			return errors.Errorf("block %d holds %d elements but only has room for %d", block.id, block.elementCount(), block.slotCapacity())
		}
		if block.elementCount()*s.slotSize > block.capacityBytes {
			return errors.Errorf("block %d's constructed elements occupy %d bytes, exceeding its %d-byte capacity", block.id, block.elementCount()*s.slotSize, block.capacityBytes)
		}
		blockBytes += block.capacityBytes
	}

	if blockBytes != s.bytes {
		return errors.Errorf("the cumulative byte counter is %d, but live blocks account for %d bytes", s.bytes, blockBytes)
	}

	current := s.currentBlock()
	if current == nil {
		if s.bytesRemaining != 0 {
			return errors.Errorf("no blocks exist, but %d bytes are marked remaining", s.bytesRemaining)
		}
		return nil
	}

	expectedRemaining := current.capacityBytes - current.elementCount()*s.slotSize
	if s.bytesRemaining != expectedRemaining {
		return errors.Errorf("the current block has %d unconstructed bytes, but the remaining budget is %d", expectedRemaining, s.bytesRemaining)
	}

	return nil
}

func (s *arenaState[T]) addStatistics(stats *memcore.Statistics) {
	for _, block := range s.blocks {
		stats.BlockCount++
		stats.BlockBytes += block.capacityBytes
		stats.AllocationCount += block.elementCount()
		stats.AllocationBytes += block.elementCount() * s.slotSize
	}
}

func (s *arenaState[T]) addDetailedStatistics(stats *memcore.DetailedStatistics) {
	for _, block := range s.blocks {
		stats.BlockCount++
		stats.BlockBytes += block.capacityBytes
		stats.AddAllocations(block.elementCount(), s.slotSize)

		unused := block.capacityBytes - block.elementCount()*s.slotSize
		if unused > 0 {
			stats.AddUnusedRange(unused)
		}
	}
}
