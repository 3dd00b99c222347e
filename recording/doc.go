// Package recording provides a reference GPU command recorder for render
// queue dispatch.
//
// Render routines receive a *CommandBuffer as their recorder and translate a
// batch of queue entries into pipeline binds and instanced draws. Finished
// buffers become immutable Recordings that can be joined in submission order
// and played back to any Backend.
//
// # Architecture
//
// The system follows a Command Pattern with three main components:
//
//   - CommandBuffer: Captures BindPipeline and Draw commands
//   - Recording: Stores commands and pipeline states for playback
//   - Backend: Consumes commands (statistics, validation, a real device)
//
// # Basic Usage
//
//	cmd := recording.NewCommandBuffer(device)
//	cmd.BindPipeline(state)
//	if err := cmd.Draw(36, uint32(len(batch))); err != nil {
//	    // no pipeline bound
//	}
//	rec := cmd.Finish()
//
// Parallel dispatch gives each partition its own CommandBuffer. Join the
// results in partition order before playback:
//
//	rec := recording.Join(partitions...)
//	if err := rec.Playback(backend); err != nil {
//	    // ...
//	}
//
// or, to play back into a freshly created registered backend:
//
//	backend, err := recording.Playback("stats", partitions...)
//
// # Backend Registration
//
// Backends register themselves by name in init(), following the
// database/sql driver pattern:
//
//	import _ "github.com/gogpu/renderqueue/recording/backends/stats"
//
//	backend, err := recording.NewBackend("stats")
//
// # Thread Safety
//
// CommandBuffer and Recording are not safe for concurrent use. The backend
// registry is safe for concurrent use.
package recording
