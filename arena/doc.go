// Package arena provides the frame-scoped bump allocator used by the render
// queue.
//
// An Arena serves allocations from a chain of fixed-size blocks obtained from
// a shared BlockPool. Requests that do not fit a fixed block get a dedicated
// one-off block. Nothing is ever freed individually: Reset hands every fixed
// block back to the pool in one step and the arena starts over. Memory is not
// zeroed on Reset, so raw allocations after a reset have unspecified contents.
//
// # Pointer-free values
//
// Arena blocks are plain byte slices which the garbage collector does not
// scan. Values placed in an arena must therefore not contain Go pointers
// (pointers, slices, strings, maps, channels, funcs or interfaces). Alloc and
// AllocSlice check this once per type and panic with ErrPointerType otherwise.
//
// # Concurrency
//
// An Arena is not safe for concurrent use; give each producer goroutine its
// own. A BlockPool is safe for concurrent use and is normally shared by every
// arena in the process through DefaultPool.
//
//	a := arena.New(arena.DefaultPool)
//	v := arena.Alloc[Vertex](a)
//	vs := arena.AllocSlice[Vertex](a, 64)
//	// ... end of frame
//	a.Reset()
package arena
