// Package stats provides a playback backend that counts what a recording
// would submit to a GPU.
//
// # Example
//
//	// Import to register the backend
//	import _ "github.com/gogpu/renderqueue/recording/backends/stats"
//
//	// Create via registry
//	backend, _ := recording.NewBackend("stats")
//
//	// Or create directly
//	backend := stats.NewBackend()
//
//	rec.Playback(backend)
//	fmt.Println(backend.Stats())
package stats

import (
	"errors"
	"fmt"
	"io"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/renderqueue/pipeline"
	"github.com/gogpu/renderqueue/recording"
)

func init() {
	recording.Register("stats", func() recording.Backend {
		return NewBackend()
	})
}

var (
	// ErrNotStarted is returned by End without a matching Begin.
	ErrNotStarted = errors.New("stats: End without Begin")

	// ErrAlreadyStarted is returned by Begin while a playback is in progress.
	ErrAlreadyStarted = errors.New("stats: Begin while playback in progress")
)

// Stats is a snapshot of the counters.
type Stats struct {
	// Recordings is the number of completed Begin/End pairs.
	Recordings int

	// Binds is the number of pipeline binds.
	Binds int

	// Draws is the number of draw calls.
	Draws int

	// Instances is the total instance count over all draws.
	Instances uint64

	// Vertices is the total number of vertices processed
	// (vertex count times instance count).
	Vertices uint64

	// Pipelines is the number of distinct pipeline states bound.
	Pipelines int

	// Transparent is the number of draws issued with a blending pipeline.
	Transparent int
}

// InstancesPerDraw returns the average batch size.
func (s Stats) InstancesPerDraw() float64 {
	if s.Draws == 0 {
		return 0
	}
	return float64(s.Instances) / float64(s.Draws)
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("binds=%d draws=%d instances=%d vertices=%d pipelines=%d transparent=%d",
		s.Binds, s.Draws, s.Instances, s.Vertices, s.Pipelines, s.Transparent)
}

// Backend accumulates Stats over every recording played back to it until
// Reset. It implements recording.Backend and recording.WriterBackend.
type Backend struct {
	stats     Stats
	format    gputypes.TextureFormat
	current   pipeline.State
	pipelines map[uint64]struct{}
	active    bool
}

// Ensure Backend implements all required interfaces.
var (
	_ recording.Backend       = (*Backend)(nil)
	_ recording.WriterBackend = (*Backend)(nil)
)

// NewBackend creates an empty stats backend.
func NewBackend() *Backend {
	return &Backend{pipelines: make(map[uint64]struct{})}
}

// Begin implements recording.Backend.
func (b *Backend) Begin(format gputypes.TextureFormat) error {
	if b.active {
		return ErrAlreadyStarted
	}
	b.active = true
	b.format = format
	b.current = pipeline.State{}
	return nil
}

// BindPipeline implements recording.Backend.
func (b *Backend) BindPipeline(s pipeline.State) {
	b.stats.Binds++
	b.current = s
	b.pipelines[s.Hash()] = struct{}{}
	b.stats.Pipelines = len(b.pipelines)
}

// Draw implements recording.Backend.
func (b *Backend) Draw(cmd recording.DrawCommand) {
	b.stats.Draws++
	b.stats.Instances += uint64(cmd.InstanceCount)
	b.stats.Vertices += uint64(cmd.VertexCount) * uint64(cmd.InstanceCount)
	if b.current.Blend.Transparent() {
		b.stats.Transparent++
	}
}

// End implements recording.Backend.
func (b *Backend) End() error {
	if !b.active {
		return ErrNotStarted
	}
	b.active = false
	b.stats.Recordings++
	return nil
}

// Stats returns the counters accumulated so far.
func (b *Backend) Stats() Stats {
	return b.stats
}

// Format returns the surface format of the last recording begun.
func (b *Backend) Format() gputypes.TextureFormat {
	return b.format
}

// Reset zeroes the counters.
func (b *Backend) Reset() {
	b.stats = Stats{}
	b.active = false
	clear(b.pipelines)
}

// WriteTo writes a summary line to w.
func (b *Backend) WriteTo(w io.Writer) (int64, error) {
	n, err := fmt.Fprintf(w, "recordings=%d %v instances/draw=%.2f\n",
		b.stats.Recordings, b.stats, b.stats.InstancesPerDraw())
	return int64(n), err
}
