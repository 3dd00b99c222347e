package recording

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/renderqueue/pipeline"
)

// ErrNoPipeline is returned by Draw when no pipeline has been bound.
var ErrNoPipeline = errors.New("recording: draw without a bound pipeline")

// ErrInvalidRef is returned by Playback when a command references a
// pipeline that is not in the recording's resource pool.
var ErrInvalidRef = errors.New("recording: invalid pipeline reference")

// CommandBuffer records pipeline binds and instanced draws.
//
// Binding the pipeline that is already current records nothing, so render
// routines can bind unconditionally at the start of every batch.
//
// Example:
//
//	cmd := recording.NewCommandBuffer(device)
//	cmd.BindPipeline(state)
//	_ = cmd.Draw(6, 128)
//	rec := cmd.Finish()
//
// The CommandBuffer is not safe for concurrent use.
type CommandBuffer struct {
	device    DeviceHandle
	format    gputypes.TextureFormat
	commands  []Command
	resources *ResourcePool

	// bound is the current pipeline, InvalidRef until the first bind.
	bound PipelineRef

	// instances is the FirstInstance of the next draw.
	instances uint32
}

// NewCommandBuffer creates a command buffer recording for device.
// A nil device records against NullDeviceHandle.
func NewCommandBuffer(device DeviceHandle) *CommandBuffer {
	if device == nil {
		device = NullDeviceHandle{}
	}
	return &CommandBuffer{
		device:    device,
		format:    device.SurfaceFormat(),
		commands:  make([]Command, 0, 256),
		resources: NewResourcePool(),
		bound:     PipelineRef(InvalidRef),
	}
}

// Device returns the device the buffer records for.
func (b *CommandBuffer) Device() DeviceHandle {
	return b.device
}

// Format returns the surface format substituted for undefined color formats.
func (b *CommandBuffer) Format() gputypes.TextureFormat {
	return b.format
}

// BindPipeline makes s the current pipeline. An undefined color format is
// replaced by the device's surface format. Rebinding the current pipeline
// is filtered out.
func (b *CommandBuffer) BindPipeline(s pipeline.State) {
	ref := b.resources.AddPipeline(s.WithColorFormat(b.format))
	if ref == b.bound {
		return
	}
	b.bound = ref
	b.commands = append(b.commands, BindPipelineCommand{Pipeline: ref})
}

// Draw records an instanced draw with the current pipeline. Instances are
// numbered consecutively across the buffer's draws. A draw with no vertices
// or no instances records nothing.
func (b *CommandBuffer) Draw(vertexCount, instanceCount uint32) error {
	if !b.bound.IsValid() {
		return ErrNoPipeline
	}
	if vertexCount == 0 || instanceCount == 0 {
		return nil
	}
	b.commands = append(b.commands, DrawCommand{
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
		FirstInstance: b.instances,
	})
	b.instances += instanceCount
	return nil
}

// Len returns the number of recorded commands.
func (b *CommandBuffer) Len() int {
	return len(b.commands)
}

// Instances returns the number of instances drawn so far.
func (b *CommandBuffer) Instances() uint32 {
	return b.instances
}

// Finish returns the recorded commands as an immutable Recording and resets
// the buffer for reuse. The buffer keeps its pool storage for the next
// frame; the recording gets a copy.
func (b *CommandBuffer) Finish() *Recording {
	rec := &Recording{
		format:    b.format,
		commands:  b.commands,
		resources: b.resources.Clone(),
	}
	b.commands = make([]Command, 0, cap(b.commands))
	b.resources.Clear()
	b.bound = PipelineRef(InvalidRef)
	b.instances = 0
	return rec
}

// Recording is an immutable sequence of commands and the pipeline states
// they reference.
type Recording struct {
	format    gputypes.TextureFormat
	commands  []Command
	resources *ResourcePool
}

// Format returns the surface format the recording was made for.
func (r *Recording) Format() gputypes.TextureFormat {
	return r.format
}

// Commands returns the recorded commands.
func (r *Recording) Commands() []Command {
	return r.commands
}

// Resources returns the recording's resource pool.
func (r *Recording) Resources() *ResourcePool {
	return r.resources
}

// Join concatenates recordings in order into one recording, as if their
// commands had been recorded into a single buffer: pipeline references are
// remapped and a bind that repeats the pipeline current at the seam is
// dropped. Draw numbering is kept per source recording. Nil recordings are
// skipped. The format is taken from the first non-nil recording.
func Join(recs ...*Recording) *Recording {
	out := &Recording{resources: NewResourcePool()}
	first := true
	bound := PipelineRef(InvalidRef)

	for _, rec := range recs {
		if rec == nil {
			continue
		}
		if first {
			out.format = rec.format
			first = false
		}
		for _, cmd := range rec.commands {
			if c, ok := cmd.(BindPipelineCommand); ok {
				s, ok := rec.resources.GetPipeline(c.Pipeline)
				if !ok {
					// Keep the broken reference for Playback to report.
					out.commands = append(out.commands, BindPipelineCommand{Pipeline: PipelineRef(InvalidRef)})
					bound = PipelineRef(InvalidRef)
					continue
				}
				ref := out.resources.AddPipeline(s)
				if ref == bound {
					continue
				}
				bound = ref
				cmd = BindPipelineCommand{Pipeline: ref}
			}
			out.commands = append(out.commands, cmd)
		}
	}
	return out
}

// Playback replays the recording to the given backend.
func (r *Recording) Playback(backend Backend) error {
	if err := backend.Begin(r.format); err != nil {
		return fmt.Errorf("recording: begin playback: %w", err)
	}

	for i, cmd := range r.commands {
		switch c := cmd.(type) {
		case BindPipelineCommand:
			s, ok := r.resources.GetPipeline(c.Pipeline)
			if !ok {
				return fmt.Errorf("%w: command %d references pipeline %d of %d",
					ErrInvalidRef, i, c.Pipeline, r.resources.PipelineCount())
			}
			backend.BindPipeline(s)
		case DrawCommand:
			backend.Draw(c)
		}
	}

	if err := backend.End(); err != nil {
		return fmt.Errorf("recording: end playback: %w", err)
	}
	return nil
}
