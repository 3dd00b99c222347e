package recording

import (
	"maps"
	"slices"

	"github.com/gogpu/renderqueue/pipeline"
)

// ResourcePool stores the pipeline states referenced by BindPipeline
// commands. Equal states share a reference.
//
// ResourcePool is not safe for concurrent use. If concurrent access is needed,
// external synchronization must be provided.
type ResourcePool struct {
	pipelines []pipeline.State
	index     map[uint64]PipelineRef
}

// NewResourcePool creates an empty resource pool with pre-allocated capacity.
func NewResourcePool() *ResourcePool {
	return &ResourcePool{
		pipelines: make([]pipeline.State, 0, 16),
		index:     make(map[uint64]PipelineRef, 16),
	}
}

// AddPipeline adds a state to the pool and returns its reference. Adding a
// state equal to one already pooled returns the existing reference.
func (p *ResourcePool) AddPipeline(s pipeline.State) PipelineRef {
	h := s.Hash()
	if ref, ok := p.index[h]; ok {
		return ref
	}
	p.pipelines = append(p.pipelines, s)
	// #nosec G115 -- pool size is bounded by available memory, well under uint32 max
	ref := PipelineRef(uint32(len(p.pipelines) - 1))
	p.index[h] = ref
	return ref
}

// GetPipeline returns the state for the given reference.
// Returns false if the reference is invalid.
func (p *ResourcePool) GetPipeline(ref PipelineRef) (pipeline.State, bool) {
	if int(ref) >= len(p.pipelines) {
		return pipeline.State{}, false
	}
	return p.pipelines[ref], true
}

// PipelineCount returns the number of pipeline states in the pool.
func (p *ResourcePool) PipelineCount() int {
	return len(p.pipelines)
}

// Clear removes all states from the pool, keeping its storage for reuse.
func (p *ResourcePool) Clear() {
	p.pipelines = p.pipelines[:0]
	clear(p.index)
}

// Clone returns an independent copy of the pool.
func (p *ResourcePool) Clone() *ResourcePool {
	return &ResourcePool{
		pipelines: slices.Clone(p.pipelines),
		index:     maps.Clone(p.index),
	}
}
