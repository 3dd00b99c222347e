package arena

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// ErrPointerType is the panic value (wrapped) raised when a type holding Go
// pointers is allocated in an arena.
var ErrPointerType = errors.New("arena: type contains Go pointers")

// pointerFree caches the result of the per-type check (reflect.Type -> bool).
var pointerFree sync.Map

// Alloc returns a zeroed *T carved out of a. T must be pointer-free.
func Alloc[T any](a *Arena) *T {
	mustBePointerFree[T]()
	var zero T
	p := (*T)(a.Allocate(unsafe.Sizeof(zero), unsafe.Alignof(zero)))
	*p = zero
	return p
}

// AllocSlice returns a zeroed []T of length n carved out of a.
// T must be pointer-free. n == 0 returns nil.
func AllocSlice[T any](a *Arena, n int) []T {
	mustBePointerFree[T]()
	if n < 0 {
		panic(fmt.Sprintf("arena: negative slice length %d", n))
	}
	if n == 0 {
		return nil
	}
	var zero T
	p := (*T)(a.Allocate(unsafe.Sizeof(zero)*uintptr(n), unsafe.Alignof(zero)))
	s := unsafe.Slice(p, n)
	clear(s)
	return s
}

// PointerFree reports whether values of T can live in an arena.
func PointerFree[T any]() bool {
	t := reflect.TypeFor[T]()
	if v, ok := pointerFree.Load(t); ok {
		return v.(bool)
	}
	ok := !hasPointers(t)
	pointerFree.Store(t, ok)
	return ok
}

func mustBePointerFree[T any]() {
	if !PointerFree[T]() {
		panic(fmt.Errorf("%w: %v", ErrPointerType, reflect.TypeFor[T]()))
	}
}

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return true
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
