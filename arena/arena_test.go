package arena

import (
	"errors"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recoverError runs fn and returns the error it panicked with, if any.
func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = errors.New("non-error panic")
		}
	}()
	fn()
	return nil
}

func TestArena_AllocateAlignment(t *testing.T) {
	a := New(NewBlockPool(4096))
	for _, align := range []uintptr{1, 2, 4, 8, 16, 32, 64, 128} {
		// Misalign the bump pointer first.
		a.Allocate(3, 1)
		p := a.Allocate(24, align)
		assert.Zero(t, uintptr(p)%align, "align %d", align)
	}
}

func TestArena_AllocateZeroAlignment(t *testing.T) {
	a := New(NewBlockPool(1024))
	assert.NotNil(t, a.Allocate(8, 0))
}

func TestArena_AllocateBadAlignmentPanics(t *testing.T) {
	a := New(NewBlockPool(1024))
	assert.Panics(t, func() { a.Allocate(8, 3) })
}

func TestArena_SmallAllocationsShareBlock(t *testing.T) {
	a := New(NewBlockPool(1024))
	p1 := a.Allocate(100, 8)
	p2 := a.Allocate(100, 8)

	fixed, large := a.Blocks()
	assert.Equal(t, 1, fixed)
	assert.Equal(t, 0, large)
	assert.NotEqual(t, p1, p2)
	assert.GreaterOrEqual(t, uintptr(p2)-uintptr(p1), uintptr(100))
}

func TestArena_NewBlockWhenExhausted(t *testing.T) {
	a := New(NewBlockPool(1024))
	a.Allocate(600, 8)
	a.Allocate(600, 8)

	fixed, _ := a.Blocks()
	assert.Equal(t, 2, fixed)
	assert.Equal(t, uintptr(1024+600), a.Used())
}

func TestArena_OversizedAllocation(t *testing.T) {
	pool := NewBlockPool(1024)
	a := New(pool)

	p := a.Allocate(5000, 64)
	require.NotNil(t, p)
	assert.Zero(t, uintptr(p)%64)

	fixed, large := a.Blocks()
	assert.Equal(t, 0, fixed)
	assert.Equal(t, 1, large)
	assert.Equal(t, int64(5064), pool.Reserved())

	// The oversized block is dedicated; small requests still get a fixed block.
	a.Allocate(16, 8)
	fixed, _ = a.Blocks()
	assert.Equal(t, 1, fixed)

	a.Reset()
	assert.Equal(t, int64(1024), pool.Reserved())
	assert.Equal(t, 1, pool.FreeBlocks())
}

func TestArena_ResetRecyclesBlocks(t *testing.T) {
	pool := NewBlockPool(1024)
	a := New(pool)

	before := a.Allocate(64, 16)
	*(*uint64)(before) = 0xdeadbeef
	a.Reset()

	assert.Equal(t, 1, pool.FreeBlocks())
	fixed, _ := a.Blocks()
	assert.Equal(t, 0, fixed)

	after := a.Allocate(64, 16)
	assert.Equal(t, before, after, "reset block should be reused")
	// Reset does not touch memory.
	assert.Equal(t, uint64(0xdeadbeef), *(*uint64)(after))
	assert.Equal(t, 0, pool.FreeBlocks())
}

func TestArena_ResetSharedBetweenArenas(t *testing.T) {
	pool := NewBlockPool(1024)
	a := New(pool)
	b := New(pool)

	p := a.Allocate(32, 8)
	a.Reset()
	q := b.Allocate(32, 8)
	assert.Equal(t, p, q)
}

func TestArena_Peak(t *testing.T) {
	a := New(NewBlockPool(1024))
	a.Allocate(512, 1)
	a.Reset()
	a.Allocate(100, 1)

	assert.Equal(t, uintptr(100), a.Used())
	assert.Equal(t, uintptr(512), a.Peak())
}

func TestArena_OutOfMemory(t *testing.T) {
	pool := NewBlockPool(1024, WithByteLimit(1024))
	a := New(pool)
	a.Allocate(800, 8)

	err := recoverError(func() { a.Allocate(800, 8) })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	err = recoverError(func() { a.Allocate(4096, 8) })
	assert.ErrorIs(t, err, ErrOutOfMemory)

	// The pool stays usable after a failed request.
	a.Reset()
	assert.NotPanics(t, func() { a.Allocate(800, 8) })
	assert.Equal(t, int64(1024), pool.Reserved())
}

func TestArena_DefaultPool(t *testing.T) {
	a := New(nil)
	assert.Same(t, DefaultPool, a.Pool())
	assert.Equal(t, DefaultBlockSize, a.Pool().BlockSize())
}

func TestBlockPool_Trim(t *testing.T) {
	pool := NewBlockPool(1024)
	a := New(pool)
	a.Allocate(1000, 1)
	a.Allocate(1000, 1)
	a.Reset()

	assert.Equal(t, 2, pool.FreeBlocks())
	pool.Trim()
	assert.Equal(t, 0, pool.FreeBlocks())
	assert.Equal(t, int64(0), pool.Reserved())
}

func TestBlockPool_Concurrent(t *testing.T) {
	pool := NewBlockPool(4096)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a := New(pool)
			for frame := 0; frame < 50; frame++ {
				for i := 0; i < 20; i++ {
					p := (*uint32)(a.Allocate(512, 4))
					*p = uint32(i)
				}
				a.Reset()
			}
		}()
	}
	wg.Wait()

	// Every block ever created is back in the free list.
	assert.Equal(t, pool.Reserved(), int64(pool.FreeBlocks())*4096)
}

type vertex struct {
	Pos   [3]float32
	Color uint32
}

func TestAlloc_Zeroed(t *testing.T) {
	pool := NewBlockPool(1024)
	a := New(pool)

	raw := a.Allocate(unsafe.Sizeof(vertex{}), 4)
	(*vertex)(raw).Color = 7
	a.Reset()

	v := Alloc[vertex](a)
	assert.Equal(t, vertex{}, *v)
}

func TestAllocSlice(t *testing.T) {
	a := New(NewBlockPool(4096))

	vs := AllocSlice[vertex](a, 10)
	require.Len(t, vs, 10)
	for i := range vs {
		vs[i].Color = uint32(i)
	}
	assert.Equal(t, uint32(9), vs[9].Color)
	assert.Zero(t, uintptr(unsafe.Pointer(&vs[0]))%unsafe.Alignof(vertex{}))

	assert.Nil(t, AllocSlice[vertex](a, 0))
	assert.Panics(t, func() { AllocSlice[vertex](a, -1) })
}

func TestPointerFree(t *testing.T) {
	tests := []struct {
		name string
		got  bool
		want bool
	}{
		{"int", PointerFree[int](), true},
		{"array", PointerFree[[16]float32](), true},
		{"struct", PointerFree[vertex](), true},
		{"empty struct", PointerFree[struct{}](), true},
		{"pointer", PointerFree[*int](), false},
		{"string", PointerFree[string](), false},
		{"slice", PointerFree[[]byte](), false},
		{"nested string", PointerFree[struct{ A [2]struct{ S string } }](), false},
		{"interface", PointerFree[any](), false},
		{"func", PointerFree[func()](), false},
		{"zero-length array of pointers", PointerFree[[0]*int](), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestAlloc_PointerTypePanics(t *testing.T) {
	a := New(NewBlockPool(1024))

	err := recoverError(func() { Alloc[struct{ Name string }](a) })
	assert.ErrorIs(t, err, ErrPointerType)

	err = recoverError(func() { AllocSlice[*vertex](a, 4) })
	assert.ErrorIs(t, err, ErrPointerType)
}
