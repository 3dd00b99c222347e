package arena

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultBlockSize is the size of a fixed arena block (256 KiB).
const DefaultBlockSize = 256 * 1024

// ErrOutOfMemory is the panic value (wrapped) raised when a BlockPool cannot
// produce a block within its byte limit. Frame memory budgets are expected to
// be sized up front, so there is no graceful degradation.
var ErrOutOfMemory = errors.New("arena: out of memory")

// PoolOption configures a BlockPool.
type PoolOption func(*BlockPool)

// WithByteLimit caps the number of bytes a pool may hand out at once, counting
// fixed blocks (pooled or in use) and live oversized blocks.
// A limit of 0 means unlimited.
func WithByteLimit(limit int64) PoolOption {
	return func(p *BlockPool) {
		p.limit = limit
	}
}

// BlockPool is a free list of fixed-size blocks shared by many arenas.
//
// Fixed blocks are created on demand and never released back to the runtime
// unless Trim is called; oversized blocks are only accounted for.
//
// BlockPool is safe for concurrent use.
type BlockPool struct {
	mu        sync.Mutex
	free      [][]byte
	blockSize int
	limit     int64

	// reserved counts fixed blocks ever created (minus trimmed ones) plus
	// oversized blocks currently held by arenas.
	reserved int64
}

// NewBlockPool creates a pool handing out blocks of blockSize bytes.
// If blockSize is 0 or negative, DefaultBlockSize is used.
func NewBlockPool(blockSize int, opts ...PoolOption) *BlockPool {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	p := &BlockPool{blockSize: blockSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultPool is the process-wide pool used by arenas that do not name one.
var DefaultPool = NewBlockPool(DefaultBlockSize)

// BlockSize returns the size of the fixed blocks handed out by the pool.
func (p *BlockPool) BlockSize() int {
	return p.blockSize
}

// get pops a fixed block from the free list or creates a new one.
func (p *BlockPool) get() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := len(p.free); n > 0 {
		b := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return b
	}
	p.reserveLocked(int64(p.blockSize))
	return make([]byte, p.blockSize)
}

// put returns a fixed block to the free list. Contents are left untouched.
func (p *BlockPool) put(b []byte) {
	p.mu.Lock()
	p.free = append(p.free, b)
	p.mu.Unlock()
}

// getLarge creates a one-off block of size bytes. Oversized blocks are never
// pooled; releaseLarge only gives back their share of the byte limit.
func (p *BlockPool) getLarge(size int) []byte {
	func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.reserveLocked(int64(size))
	}()

	slogger().Warn("arena: oversized block", "size", size, "blockSize", p.blockSize)
	return make([]byte, size)
}

func (p *BlockPool) releaseLarge(size int) {
	p.mu.Lock()
	p.reserved -= int64(size)
	p.mu.Unlock()
}

// reserveLocked accounts for n more bytes. The caller must hold p.mu.
func (p *BlockPool) reserveLocked(n int64) {
	if p.limit > 0 && p.reserved+n > p.limit {
		panic(fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrOutOfMemory, n, p.reserved, p.limit))
	}
	p.reserved += n
}

// FreeBlocks returns the number of fixed blocks waiting in the free list.
func (p *BlockPool) FreeBlocks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Reserved returns the number of bytes currently accounted to the pool.
func (p *BlockPool) Reserved() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reserved
}

// Trim drops every block in the free list so the garbage collector can
// reclaim it. Blocks held by arenas are unaffected.
func (p *BlockPool) Trim() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reserved -= int64(len(p.free)) * int64(p.blockSize)
	clear(p.free)
	p.free = p.free[:0]
}
