package recording

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownBackend is returned when no backend is registered under a name.
var ErrUnknownBackend = errors.New("recording: unknown backend")

// Factory creates a fresh playback backend.
type Factory func() Backend

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available under name. Backend packages call it
// from init, so importing the package for its side effect is enough:
//
//	import _ "github.com/gogpu/renderqueue/recording/backends/stats"
//
// Register panics if factory is nil or name is already taken.
func Register(name string, factory Factory) {
	if factory == nil {
		panic("recording: Register factory is nil for " + name)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("recording: Register called twice for " + name)
	}
	registry[name] = factory
}

// NewBackend returns a new instance of the backend registered under name.
func NewBackend(name string) (Backend, error) {
	registryMu.RLock()
	factory := registry[name]
	registryMu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("%w %q (registered: %s)",
			ErrUnknownBackend, name, strings.Join(Backends(), ", "))
	}
	return factory(), nil
}

// Backends returns the registered backend names in sorted order.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}

// Playback joins recs in submission order and replays the result into a new
// backend registered under name. The backend is returned for inspection.
func Playback(name string, recs ...*Recording) (Backend, error) {
	b, err := NewBackend(name)
	if err != nil {
		return nil, err
	}
	if err := Join(recs...).Playback(b); err != nil {
		return nil, fmt.Errorf("recording: %s: %w", name, err)
	}
	return b, nil
}
