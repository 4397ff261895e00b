package arena

// AcquireBlockCallback is executed after the arena acquires a new block from
// the runtime allocator. blockIndex is the block's position in creation
// order and sizeBytes is its full byte capacity.
type AcquireBlockCallback func(blockIndex int, sizeBytes int, userData interface{})

// ReleaseBlockCallback is executed after a block's elements have been
// finalized and its memory released during teardown.
type ReleaseBlockCallback func(blockIndex int, sizeBytes int, userData interface{})

// BlockCallbackOptions is an optional set of callbacks that will be executed
// when the arena acquires or releases backing blocks. Element allocations do
// not map 1:1 with block acquisitions, so these fire far less often than
// Alloc is called.
type BlockCallbackOptions struct {
	Acquire  AcquireBlockCallback
	Release  ReleaseBlockCallback
	UserData interface{}
}

type blockCallbacks struct {
	Callbacks *BlockCallbackOptions
}

func (c *blockCallbacks) Acquire(blockIndex, sizeBytes int) {
	if c.Callbacks != nil && c.Callbacks.Acquire != nil {
		c.Callbacks.Acquire(blockIndex, sizeBytes, c.Callbacks.UserData)
	}
}

func (c *blockCallbacks) Release(blockIndex, sizeBytes int) {
	if c.Callbacks != nil && c.Callbacks.Release != nil {
		c.Callbacks.Release(blockIndex, sizeBytes, c.Callbacks.UserData)
	}
}
