package renderqueue

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// RenderFunc issues the drawing work for a batch of entries that share a
// routine and state blob. cmd is the caller's command recorder, passed
// through unmodified; len(batch) is the instance count.
type RenderFunc func(cmd any, batch []Entry)

// Routine is a registered render routine. Its identity, not its name, is what
// the queue compares when batching and hashes when deduplicating state, so a
// routine should be created once (typically as a package-level variable) and
// reused every frame.
type Routine struct {
	id   uint64
	name string
	fn   RenderFunc
}

// routineIDs hands out process-unique routine identities.
var routineIDs atomic.Uint64

// NewRoutine registers fn as a render routine. C is the recorder type the
// routine expects; dispatching with any other recorder type panics.
func NewRoutine[C any](name string, fn func(cmd C, batch []Entry)) *Routine {
	if fn == nil {
		panic(fmt.Errorf("%w: %q", ErrNilRoutine, name))
	}
	return &Routine{
		id:   routineIDs.Add(1),
		name: name,
		fn: func(cmd any, batch []Entry) {
			c, ok := cmd.(C)
			if !ok {
				var want C
				panic(fmt.Sprintf("renderqueue: routine %q wants recorder %T, got %T", name, want, cmd))
			}
			fn(c, batch)
		},
	}
}

// NewUntypedRoutine registers fn as a render routine that accepts any recorder.
func NewUntypedRoutine(name string, fn RenderFunc) *Routine {
	if fn == nil {
		panic(fmt.Errorf("%w: %q", ErrNilRoutine, name))
	}
	return &Routine{id: routineIDs.Add(1), name: name, fn: fn}
}

// ID returns the routine's process-unique identity.
func (r *Routine) ID() uint64 { return r.id }

// Name returns the debug name given at registration.
func (r *Routine) Name() string { return r.name }

// String implements fmt.Stringer.
func (r *Routine) String() string {
	return fmt.Sprintf("%s#%d", r.name, r.id)
}

// Entry is one queued draw request. Entries are immutable once pushed and
// live until the owning queue is reset.
type Entry struct {
	// Routine replays the entry.
	Routine *Routine

	// State points at the shared state blob. Entries with equal State and
	// Routine that end up adjacent after sorting are batched together.
	State unsafe.Pointer

	// Instance points at per-instance data; its layout is the routine's
	// business.
	Instance unsafe.Pointer

	// SortKey orders the entry within its queue. Never 0.
	SortKey uint64

	// hash is the dedup table key of a Register entry, 0 for Push.
	hash uint64
}

// StateOf returns e's state blob as a *T.
func StateOf[T any](e Entry) *T {
	return (*T)(e.State)
}

// InstanceOf returns e's instance data as a *T.
func InstanceOf[T any](e Entry) *T {
	return (*T)(e.Instance)
}

// instanceHash folds an instance key and a routine identity into the dedup
// table key (FNV-1a over both words). It is never 0.
func instanceHash(instanceKey uint64, r *Routine) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for _, w := range [2]uint64{instanceKey, r.id} {
		for i := 0; i < 8; i++ {
			h ^= w & 0xff
			h *= prime64
			w >>= 8
		}
	}
	if h == 0 {
		h = 1
	}
	return h
}
