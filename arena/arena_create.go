package arena

import (
	"io"
	"log/slog"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/memtoolkit/typedarena/memcore"
)

// DefaultChunkSize is the byte capacity requested for each new block when no
// ChunkSize option is provided. An element larger than the chunk size gets a
// dedicated block sized to fit it.
const DefaultChunkSize = 4096

// CreateOptions contains optional settings when creating an arena. It is
// valid to leave all the fields blank.
type CreateOptions[T any] struct {
	// ChunkSize is the byte capacity of each backing block. It must be a
	// power of two. Leave it zero to use DefaultChunkSize.
	ChunkSize int

	// Finalizer, if non-nil, is invoked exactly once for every constructed
	// element during Destroy, in block-creation order and within each block
	// in construction order. It is the Go stand-in for per-element
	// destructors; the arena never runs cleanup implicitly.
	Finalizer func(*T)

	// BlockCallbacks is an optional set of callbacks executed when backing
	// blocks are acquired and released.
	BlockCallbacks *BlockCallbackOptions
}

// New creates an empty, active arena for element type T.
//
// logger may be nil, in which case log output is discarded. Block
// acquisitions and teardown are logged at debug level.
func New[T any](logger *slog.Logger, options CreateOptions[T]) (*Arena[T], error) {
	chunkSize := options.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if err := memcore.CheckPow2(chunkSize, "options.ChunkSize"); err != nil {
		return nil, errors.Wrap(err, "invalid arena chunk size")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	elemSize := int(unsafe.Sizeof(*new(T)))
	slotSize := elemSize
	if slotSize < 1 {
		// Zero-size element types still consume one accounting byte per
		// slot so capacity math and the byte counter stay meaningful.
		slotSize = 1
	}

	return &Arena[T]{
		state: arenaState[T]{
			elemSize:  elemSize,
			slotSize:  slotSize,
			chunkSize: chunkSize,
			finalizer: options.Finalizer,
			callbacks: blockCallbacks{Callbacks: options.BlockCallbacks},
			logger:    logger,
		},
	}, nil
}
