package recording

import (
	"io"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/renderqueue/pipeline"
)

// Backend is the interface that all playback backends must implement.
// Backends receive recorded commands in order and translate them to their
// target: a GPU device, a validation layer, frame statistics.
//
// Backends are created via the registry using NewBackend(name) and
// registered via Register() in their init() functions.
//
// # Implementation Contract
//
// Each backend must:
//  1. Register in init() using recording.Register()
//  2. Accept any number of Begin/End pairs
//  3. Treat BindPipeline as making the state current for following draws
//
// # Example Backend Registration
//
//	func init() {
//	    recording.Register("validate", func() recording.Backend {
//	        return NewValidator()
//	    })
//	}
type Backend interface {
	// Begin starts playback of a recording made for the given surface format.
	// Returns an error if the backend cannot accept a recording now.
	Begin(format gputypes.TextureFormat) error

	// BindPipeline makes s the current pipeline state.
	BindPipeline(s pipeline.State)

	// Draw issues an instanced draw with the current pipeline.
	Draw(cmd DrawCommand)

	// End finishes playback of the current recording.
	End() error
}

// WriterBackend extends Backend with the ability to write its output to an
// io.Writer, e.g. a report of what was played back.
type WriterBackend interface {
	Backend

	// WriteTo writes the backend's output to the given writer.
	// This should only be called after End().
	WriteTo(w io.Writer) (int64, error)
}
