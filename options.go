package renderqueue

import "github.com/gogpu/renderqueue/arena"

// Option configures a RenderQueue during creation.
//
// Example:
//
//	q := renderqueue.New(
//	    renderqueue.WithInitialCapacity(4096),
//	    renderqueue.WithWorkers(4),
//	)
type Option func(*options)

// options holds optional configuration for RenderQueue creation.
type options struct {
	pool     *arena.BlockPool
	capacity int
	workers  int
}

// defaultOptions returns the default queue options.
func defaultOptions() options {
	return options{
		pool:     nil, // arena.DefaultPool
		capacity: 256,
		workers:  0, // GOMAXPROCS, started on first DispatchParallel
	}
}

// WithBlockPool sets the block pool backing the queue's arena.
// Queues created without it share arena.DefaultPool.
func WithBlockPool(p *arena.BlockPool) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithInitialCapacity pre-sizes every queue for n entries.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithWorkers sets the number of goroutines DispatchParallel replays on.
// 0 or negative means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}
