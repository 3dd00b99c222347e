package renderqueue

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/gogpu/renderqueue/arena"
	"github.com/gogpu/renderqueue/internal/parallel"
)

// RenderQueue is a set of QueueCount named queues sharing one frame arena
// and one state-blob deduplication table.
//
// RenderQueue is not safe for concurrent pushes. See the package
// documentation for the supported parallel patterns.
type RenderQueue struct {
	arena  *arena.Arena
	queues [QueueCount]queue

	// blobs maps instanceHash(instanceKey, routine) to the canonical state
	// blob allocated in arena.
	blobs map[uint64]unsafe.Pointer

	opts options

	poolMu sync.Mutex
	pool   *parallel.WorkerPool
	closed bool
}

// queue is one append-only entry array plus its lifecycle state.
type queue struct {
	entries []Entry

	// state holds a QueueState. Atomic because concurrent DispatchSubset
	// calls all mark the queue dispatched.
	state atomic.Uint32
}

func (qu *queue) loadState() QueueState {
	return QueueState(qu.state.Load())
}

// markDispatched moves Sorted to Dispatched; other states are left alone.
func (qu *queue) markDispatched() {
	qu.state.CompareAndSwap(uint32(QueueSorted), uint32(QueueDispatched))
}

// New creates an empty RenderQueue.
func New(opts ...Option) *RenderQueue {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	q := &RenderQueue{
		arena: arena.New(o.pool),
		blobs: make(map[uint64]unsafe.Pointer, o.capacity),
		opts:  o,
	}
	for i := range q.queues {
		q.queues[i].entries = make([]Entry, 0, o.capacity)
	}
	return q
}

// Arena returns the frame arena backing state blobs and instance data.
func (q *RenderQueue) Arena() *arena.Arena {
	return q.arena
}

// Allocate returns size bytes aligned to align from the queue's arena,
// valid until the next Reset.
func (q *RenderQueue) Allocate(size, align uintptr) unsafe.Pointer {
	return q.arena.Allocate(size, align)
}

// AllocateOne returns a zeroed *T from q's arena, valid until the next Reset.
// T must be pointer-free.
func AllocateOne[T any](q *RenderQueue) *T {
	return arena.Alloc[T](q.arena)
}

// AllocateMany returns a zeroed []T of length n from q's arena, valid until
// the next Reset. T must be pointer-free.
func AllocateMany[T any](q *RenderQueue, n int) []T {
	return arena.AllocSlice[T](q.arena, n)
}

// Push appends an entry to queue id.
//
// instanceKey and sortKey must be non-zero, r must be non-nil and the queue
// must not have been sorted since the last Reset; violations panic.
// state and instance are stored as given and must stay valid until Reset.
func (q *RenderQueue) Push(id QueueID, instanceKey, sortKey uint64, r *Routine, state, instance unsafe.Pointer) {
	qu := q.checkPush(id, instanceKey, sortKey, r)
	qu.entries = append(qu.entries, Entry{
		Routine:  r,
		State:    state,
		Instance: instance,
		SortKey:  sortKey,
	})
}

// Register looks up the state blob for (instanceKey, r) and enqueues an
// entry referencing it with the given instance data.
//
// The first call for a combination in a frame allocates a zeroed T in the
// arena and returns it so the caller can populate it. Later calls return nil:
// the blob already exists and must not be re-initialized, although the new
// entry still references it. Every population of the same combination must
// write identical bytes. T must be pointer-free.
//
// Register panics under the same conditions as Push.
func Register[T, I any](q *RenderQueue, id QueueID, instanceKey, sortKey uint64, r *Routine, instance *I) *T {
	qu := q.checkPush(id, instanceKey, sortKey, r)
	h := instanceHash(instanceKey, r)

	blob, seen := q.blobs[h]
	var t *T
	if !seen {
		t = arena.Alloc[T](q.arena)
		blob = unsafe.Pointer(t)
		q.blobs[h] = blob
	}

	qu.entries = append(qu.entries, Entry{
		Routine:  r,
		State:    blob,
		Instance: unsafe.Pointer(instance),
		SortKey:  sortKey,
		hash:     h,
	})
	return t
}

// checkPush validates a push and moves the queue to Accumulating.
func (q *RenderQueue) checkPush(id QueueID, instanceKey, sortKey uint64, r *Routine) *queue {
	if id >= QueueCount {
		panic(fmt.Errorf("%w: %v", ErrUnknownQueue, id))
	}
	if instanceKey == 0 {
		panic(fmt.Errorf("%w: instance key pushed to %v", ErrZeroKey, id))
	}
	if sortKey == 0 {
		panic(fmt.Errorf("%w: sort key pushed to %v", ErrZeroKey, id))
	}
	if r == nil {
		panic(fmt.Errorf("%w: pushed to %v", ErrNilRoutine, id))
	}

	qu := &q.queues[id]
	q.beginAccumulating(id, qu)
	return qu
}

func (q *RenderQueue) beginAccumulating(id QueueID, qu *queue) {
	switch s := qu.loadState(); s {
	case QueueEmpty:
		qu.state.Store(uint32(QueueAccumulating))
	case QueueAccumulating:
	default:
		panic(fmt.Errorf("%w: %v is %v", ErrQueueSealed, id, s))
	}
}

// Combine appends every entry of other to the matching queue of q. This is
// the merge step after parallel producers filled their own queues.
//
// Registered entries are rebound to q's blob for the same instance key and
// routine, so the merged queue holds one blob per combination and instancing
// works across producers. A combination q has not seen yet adopts other's
// blob. Entries and adopted blobs keep pointing into other's arena, so other
// must not be reset until q has been dispatched.
func (q *RenderQueue) Combine(other *RenderQueue) {
	if other == nil || other == q {
		return
	}
	for id := range QueueCount {
		src := other.queues[id].entries
		if len(src) == 0 {
			continue
		}
		dst := &q.queues[id]
		q.beginAccumulating(id, dst)

		start := len(dst.entries)
		dst.entries = append(dst.entries, src...)
		for i := start; i < len(dst.entries); i++ {
			e := &dst.entries[i]
			if e.hash == 0 {
				continue
			}
			if blob, ok := q.blobs[e.hash]; ok {
				e.State = blob
			} else {
				q.blobs[e.hash] = e.State
			}
		}
	}
}

// Sort stably sorts every accumulating queue by ascending sort key. Entries
// with equal keys keep their push order. Sorting an already sorted queue is
// a no-op.
func (q *RenderQueue) Sort() {
	for id := range QueueCount {
		qu := &q.queues[id]
		if qu.loadState() != QueueAccumulating {
			continue
		}
		slices.SortStableFunc(qu.entries, func(a, b Entry) int {
			return cmp.Compare(a.SortKey, b.SortKey)
		})
		qu.state.Store(uint32(QueueSorted))

		Logger().Debug("renderqueue: sorted", "queue", id, "entries", len(qu.entries))
	}
}

// Reset discards every entry and blob and resets the arena. It is valid in
// any state and must be called before the next frame's pushes.
func (q *RenderQueue) Reset() {
	for id := range QueueCount {
		qu := &q.queues[id]
		clear(qu.entries)
		qu.entries = qu.entries[:0]
		qu.state.Store(uint32(QueueEmpty))
	}
	clear(q.blobs)
	q.arena.Reset()
}

// ResetAndReclaim is Reset that also drops the queues' entry arrays and the
// dedup table, for when a frame was unusually large.
func (q *RenderQueue) ResetAndReclaim() {
	q.Reset()
	for id := range QueueCount {
		q.queues[id].entries = make([]Entry, 0, q.opts.capacity)
	}
	q.blobs = make(map[uint64]unsafe.Pointer, q.opts.capacity)
}

// Len returns the number of entries in queue id.
func (q *RenderQueue) Len(id QueueID) int {
	if id >= QueueCount {
		return 0
	}
	return len(q.queues[id].entries)
}

// Entries returns the entries of queue id in their current order.
// The slice is owned by the queue: do not modify it or keep it past Reset.
func (q *RenderQueue) Entries(id QueueID) []Entry {
	if id >= QueueCount {
		return nil
	}
	return q.queues[id].entries
}

// State returns the lifecycle state of queue id.
func (q *RenderQueue) State(id QueueID) QueueState {
	if id >= QueueCount {
		return QueueEmpty
	}
	return q.queues[id].loadState()
}

// Blobs returns the number of distinct state blobs registered this frame.
func (q *RenderQueue) Blobs() int {
	return len(q.blobs)
}

// Close stops the worker pool started by DispatchParallel, if any.
// The queue remains usable; a later DispatchParallel replays inline.
func (q *RenderQueue) Close() {
	q.poolMu.Lock()
	defer q.poolMu.Unlock()
	q.closed = true
	if q.pool != nil {
		q.pool.Close()
	}
}

// workerPool returns the dispatch pool, starting it on first use. It returns
// nil once the queue is closed.
func (q *RenderQueue) workerPool() *parallel.WorkerPool {
	q.poolMu.Lock()
	defer q.poolMu.Unlock()
	if q.closed {
		return nil
	}
	if q.pool == nil {
		q.pool = parallel.NewWorkerPool(q.opts.workers)
	}
	return q.pool
}
