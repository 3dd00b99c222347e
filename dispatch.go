package renderqueue

import (
	"fmt"

	"github.com/gogpu/renderqueue/internal/parallel"
)

// Dispatch replays the whole of queue id into cmd. See DispatchRange.
func (q *RenderQueue) Dispatch(id QueueID, cmd any) error {
	return q.DispatchRange(id, cmd, 0, q.Len(id))
}

// DispatchRange replays entries [begin, end) of a sorted queue into cmd.
//
// Every maximal run of adjacent entries sharing both routine and state blob
// is replayed as one routine call whose batch holds the whole run; this is
// the automatic instancing contract. Dispatching an empty queue does nothing.
func (q *RenderQueue) DispatchRange(id QueueID, cmd any, begin, end int) error {
	qu, err := q.sortedQueue(id)
	if err != nil {
		return err
	}
	if begin < 0 || end < begin || end > len(qu.entries) {
		return fmt.Errorf("%w: [%d, %d) of %v with %d entries",
			ErrRangeOutOfBounds, begin, end, id, len(qu.entries))
	}

	replay(qu.entries[begin:end], cmd)
	qu.markDispatched()
	return nil
}

// DispatchSubset replays partition index of numIndices of queue id into cmd.
// Partitions are contiguous and cover the sorted queue exactly once; a run
// that straddles a partition boundary is replayed as two batches.
//
// DispatchSubset only reads the queue, so different partitions may be
// dispatched concurrently into independent recorders.
func (q *RenderQueue) DispatchSubset(id QueueID, cmd any, index, numIndices int) error {
	if numIndices < 1 || index < 0 || index >= numIndices {
		return fmt.Errorf("%w: index %d of %d", ErrInvalidPartition, index, numIndices)
	}
	qu, err := q.sortedQueue(id)
	if err != nil {
		return err
	}

	begin, end := PartitionRange(len(qu.entries), index, numIndices)
	replay(qu.entries[begin:end], cmd)
	qu.markDispatched()
	return nil
}

// DispatchParallel splits queue id into len(cmds) partitions and replays
// partition i into cmds[i], concurrently on the queue's worker pool. It
// returns once every partition has been replayed.
func (q *RenderQueue) DispatchParallel(id QueueID, cmds []any) error {
	if len(cmds) == 0 {
		return fmt.Errorf("%w: no recorders", ErrInvalidPartition)
	}
	qu, err := q.sortedQueue(id)
	if err != nil {
		return err
	}

	entries := qu.entries
	n := len(cmds)
	part := func(i int) {
		begin, end := PartitionRange(len(entries), i, n)
		replay(entries[begin:end], cmds[i])
	}
	var pool *parallel.WorkerPool
	if n > 1 && len(entries) > 0 {
		pool = q.workerPool()
	}
	if pool != nil {
		pool.Run(n, part)
	} else {
		for i := range n {
			part(i)
		}
	}

	qu.markDispatched()
	return nil
}

// Batches returns the number of routine calls a full Dispatch of queue id
// would issue in its current order.
func (q *RenderQueue) Batches(id QueueID) int {
	entries := q.Entries(id)
	batches := 0
	for i := 0; i < len(entries); i = runEnd(entries, i) {
		batches++
	}
	return batches
}

// PartitionRange returns the half-open range [size*index/numIndices,
// size*(index+1)/numIndices). Over index = 0..numIndices-1 the ranges tile
// [0, size) with no gaps or overlap. It panics if numIndices < 1 or index
// is out of range.
func PartitionRange(size, index, numIndices int) (begin, end int) {
	if numIndices < 1 || index < 0 || index >= numIndices || size < 0 {
		panic(fmt.Sprintf("renderqueue: partition %d of %d over %d entries", index, numIndices, size))
	}
	s, i, n := uint64(size), uint64(index), uint64(numIndices)
	return int(s * i / n), int(s * (i + 1) / n)
}

// sortedQueue returns queue id if it may be dispatched.
func (q *RenderQueue) sortedQueue(id QueueID) (*queue, error) {
	if id >= QueueCount {
		return nil, fmt.Errorf("%w: %v", ErrUnknownQueue, id)
	}
	qu := &q.queues[id]
	if qu.loadState() == QueueAccumulating {
		return nil, fmt.Errorf("dispatch %v: %w", id, ErrNotSorted)
	}
	return qu, nil
}

// replay issues one routine call per run of entries sharing routine and state.
func replay(entries []Entry, cmd any) {
	for i := 0; i < len(entries); {
		j := runEnd(entries, i)
		entries[i].Routine.fn(cmd, entries[i:j:j])
		i = j
	}
}

// runEnd returns the end of the batch starting at i.
func runEnd(entries []Entry, i int) int {
	r, s := entries[i].Routine, entries[i].State
	j := i + 1
	for j < len(entries) && entries[j].Routine == r && entries[j].State == s {
		j++
	}
	return j
}
