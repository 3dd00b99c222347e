// Package renderqueue collects per-object draw requests for one frame, sorts
// them and replays them as automatically instanced draw calls.
//
// # Overview
//
// A frame goes through four phases:
//
//  1. Push: producers register shared state blobs and push entries
//     (routine, state, per-instance data, sort key) into named queues.
//  2. Sort: every queue is stably sorted by ascending sort key.
//  3. Dispatch: adjacent entries sharing both routine and state blob are
//     merged into one routine call carrying all of their instances.
//  4. Reset: all entries, blobs and arena memory are discarded at once.
//
// # Quick Start
//
//	drawMesh := renderqueue.NewRoutine("mesh", func(cb *recording.CommandBuffer, batch []renderqueue.Entry) {
//	    st := renderqueue.StateOf[MeshState](batch[0])
//	    cb.BindPipeline(st.Pipeline)
//	    _ = cb.Draw(st.VertexCount, uint32(len(batch)))
//	})
//
//	q := renderqueue.New()
//	inst := renderqueue.AllocateOne[MeshInstance](q)
//	if st := renderqueue.Register[MeshState](q, renderqueue.Opaque, materialHash, key, drawMesh, inst); st != nil {
//	    *st = MeshState{...} // first observation only
//	}
//	q.Sort()
//	_ = q.Dispatch(renderqueue.Opaque, cb)
//	q.Reset()
//
// # State Blobs
//
// Register combines the caller's instance key with the routine identity and
// allocates the state blob only the first time that combination is seen in a
// frame; later calls return nil but still enqueue an entry referencing the
// same blob. Blobs and instance data live in the queue's arena and must be
// pointer-free (see package arena).
//
// # Sort Keys
//
// Keys come from package sortkey. The value 0 is reserved; pushing it panics.
//
// # Concurrency
//
// A RenderQueue is not safe for concurrent pushes. Parallel producers each
// fill their own queue and one goroutine merges them with Combine before
// Sort. Combine rebinds registered entries to one blob per instance key and
// routine, so instancing works across producers. Dispatch, DispatchRange and DispatchSubset only read the sorted
// entries, so disjoint subsets may be replayed concurrently into independent
// recorders; DispatchParallel does exactly that on an internal worker pool.
//
// # Logging
//
// The package is silent by default. SetLogger enables log/slog output for
// renderqueue and arena.
package renderqueue
