package recording

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/renderqueue/pipeline"
)

// mockBackend records what is played back to it.
type mockBackend struct {
	name       string
	beginCalls int
	endCalls   int
	format     gputypes.TextureFormat
	binds      []pipeline.State
	draws      []DrawCommand
	beginErr   error
}

func newMockBackend(name string) *mockBackend {
	return &mockBackend{name: name}
}

func (b *mockBackend) Begin(format gputypes.TextureFormat) error {
	b.beginCalls++
	b.format = format
	return b.beginErr
}

func (b *mockBackend) End() error {
	b.endCalls++
	return nil
}

func (b *mockBackend) BindPipeline(s pipeline.State) { b.binds = append(b.binds, s) }
func (b *mockBackend) Draw(cmd DrawCommand)          { b.draws = append(b.draws, cmd) }

// withRegistry swaps in an empty registry for the duration of the test.
func withRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := registry
	registry = make(map[string]Factory)
	registryMu.Unlock()

	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})
}

func TestRegisterAndNewBackend(t *testing.T) {
	withRegistry(t)
	Register("mock", func() Backend { return newMockBackend("mock") })

	a, err := NewBackend("mock")
	require.NoError(t, err)
	b, err := NewBackend("mock")
	require.NoError(t, err)
	assert.NotSame(t, a, b, "NewBackend should return a fresh backend per call")

	mock, ok := a.(*mockBackend)
	require.True(t, ok)
	assert.Equal(t, "mock", mock.name)
}

func TestNewBackendUnknown(t *testing.T) {
	withRegistry(t)
	Register("alpha", func() Backend { return newMockBackend("alpha") })

	_, err := NewBackend("missing")
	require.ErrorIs(t, err, ErrUnknownBackend)
	assert.Contains(t, err.Error(), "alpha", "error should list registered backends")
}

func TestRegisterPanics(t *testing.T) {
	tests := []struct {
		name    string
		factory Factory
	}{
		{"nil factory", nil},
		{"duplicate", func() Backend { return newMockBackend("dup") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withRegistry(t)
			Register("dup", func() Backend { return newMockBackend("dup") })
			assert.Panics(t, func() { Register("dup", tt.factory) })
		})
	}
}

func TestBackendsSorted(t *testing.T) {
	withRegistry(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		Register(name, func() Backend { return newMockBackend(name) })
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, Backends())
}

func TestRegistryPlayback(t *testing.T) {
	withRegistry(t)
	Register("mock", func() Backend { return newMockBackend("mock") })

	first := NewCommandBuffer(nil)
	first.BindPipeline(testState(1))
	require.NoError(t, first.Draw(3, 2))
	second := NewCommandBuffer(nil)
	second.BindPipeline(testState(1))
	require.NoError(t, second.Draw(3, 4))

	b, err := Playback("mock", first.Finish(), nil, second.Finish())
	require.NoError(t, err)
	mock := b.(*mockBackend)
	assert.Equal(t, 1, mock.beginCalls, "recordings are joined into one playback")
	assert.Equal(t, 1, mock.endCalls)
	assert.Len(t, mock.binds, 1)
	assert.Len(t, mock.draws, 2)

	_, err = Playback("missing", first.Finish())
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRegistryPlaybackBeginError(t *testing.T) {
	withRegistry(t)
	errBusy := errors.New("busy")
	Register("busy", func() Backend {
		b := newMockBackend("busy")
		b.beginErr = errBusy
		return b
	})

	_, err := Playback("busy", NewCommandBuffer(nil).Finish())
	assert.ErrorIs(t, err, errBusy)
}

func TestConcurrentRegistration(t *testing.T) {
	withRegistry(t)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("backend-%d", i)
			Register(name, func() Backend { return newMockBackend(name) })
			_, err := NewBackend(name)
			assert.NoError(t, err)
			_ = Backends()
		}()
	}
	wg.Wait()

	assert.Len(t, Backends(), 20)
}
