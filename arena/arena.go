package arena

import (
	"fmt"
	"unsafe"
)

// Arena is a frame-scoped bump allocator over a chain of pooled blocks.
//
// Pointers returned by Allocate, Alloc and AllocSlice stay valid until the
// next Reset. The Arena is not safe for concurrent use.
type Arena struct {
	pool *BlockPool

	// blocks are the fixed blocks used this frame; the last one is current.
	blocks [][]byte
	// offset is the bump offset inside the current block.
	offset uintptr

	// large are one-off blocks for requests that do not fit a fixed block.
	large [][]byte

	peak uintptr
}

// New creates an arena drawing blocks from pool.
// If pool is nil, DefaultPool is used.
func New(pool *BlockPool) *Arena {
	if pool == nil {
		pool = DefaultPool
	}
	return &Arena{pool: pool}
}

// Pool returns the block pool backing the arena.
func (a *Arena) Pool() *BlockPool {
	return a.pool
}

// Allocate returns size bytes aligned to align. align must be a power of two;
// 0 is treated as 1. The memory is not zeroed.
//
// Requests that cannot fit a fixed block, padding included, receive a
// dedicated block of size+align bytes. Otherwise the current block is used,
// and when it is exhausted a new block is appended and the allocation retried
// once. Allocate panics with ErrOutOfMemory if the pool is over budget.
func (a *Arena) Allocate(size, align uintptr) unsafe.Pointer {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		panic(fmt.Sprintf("arena: alignment %d is not a power of two", align))
	}
	if size == 0 {
		size = 1
	}

	if size+align > uintptr(a.pool.blockSize) {
		return a.allocateLarge(size, align)
	}

	if len(a.blocks) > 0 {
		if p := a.bump(size, align); p != nil {
			return p
		}
	}

	a.blocks = append(a.blocks, a.pool.get())
	a.offset = 0
	if p := a.bump(size, align); p != nil {
		return p
	}
	panic(fmt.Errorf("%w: %d bytes aligned to %d do not fit a fresh block", ErrOutOfMemory, size, align))
}

// bump carves size bytes out of the current block, or returns nil.
func (a *Arena) bump(size, align uintptr) unsafe.Pointer {
	blk := a.blocks[len(a.blocks)-1]
	base := unsafe.Pointer(unsafe.SliceData(blk))
	addr := uintptr(base) + a.offset
	start := alignUp(addr, align) - uintptr(base)
	end := start + size
	if end > uintptr(len(blk)) {
		return nil
	}
	a.offset = end
	return unsafe.Add(base, start)
}

func (a *Arena) allocateLarge(size, align uintptr) unsafe.Pointer {
	blk := a.pool.getLarge(int(size + align))
	a.large = append(a.large, blk)
	base := unsafe.Pointer(unsafe.SliceData(blk))
	return unsafe.Add(base, alignUp(uintptr(base), align)-uintptr(base))
}

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}

// Reset returns every fixed block used this frame to the pool and drops the
// oversized ones. Memory is not zeroed; all pointers handed out before the
// call become invalid.
func (a *Arena) Reset() {
	if used := a.Used(); used > a.peak {
		a.peak = used
	}
	if len(a.blocks) > 0 || len(a.large) > 0 {
		slogger().Debug("arena: reset",
			"blocks", len(a.blocks), "large", len(a.large), "used", a.Used())
	}

	for i, blk := range a.blocks {
		a.pool.put(blk)
		a.blocks[i] = nil
	}
	a.blocks = a.blocks[:0]
	a.offset = 0

	for i, blk := range a.large {
		a.pool.releaseLarge(len(blk))
		a.large[i] = nil
	}
	a.large = a.large[:0]
}

// Used returns the number of bytes consumed this frame, including alignment
// padding and the unused tails of exhausted blocks.
func (a *Arena) Used() uintptr {
	var total uintptr
	if n := len(a.blocks); n > 0 {
		total = uintptr(n-1)*uintptr(a.pool.blockSize) + a.offset
	}
	for _, blk := range a.large {
		total += uintptr(len(blk))
	}
	return total
}

// Peak returns the high-water mark of Used across resets.
func (a *Arena) Peak() uintptr {
	if used := a.Used(); used > a.peak {
		return used
	}
	return a.peak
}

// Blocks returns the number of fixed and oversized blocks in use.
func (a *Arena) Blocks() (fixed, large int) {
	return len(a.blocks), len(a.large)
}
