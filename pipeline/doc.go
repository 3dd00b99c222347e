// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipeline describes the fixed-function and shader state a draw is
// issued with, in a form that can live in a frame arena.
//
// A State is pointer-free so producers can register it as a state blob with
// renderqueue.Register. Its Hash identifies the state for caching, and its
// SortHash is the 32-bit value folded into sort keys so that draws sharing a
// pipeline cluster together after sorting.
//
//	st := pipeline.State{
//	    Shader:       meshShader,
//	    Topology:     gputypes.PrimitiveTopologyTriangleList,
//	    CullMode:     gputypes.CullModeNone,
//	    ColorFormat:  gputypes.TextureFormatBGRA8Unorm,
//	    DepthFormat:  gputypes.TextureFormatDepth24PlusStencil8,
//	    DepthWrite:   true,
//	    DepthCompare: gputypes.CompareFunctionAlways,
//	    Blend:        pipeline.BlendOpaque,
//	    SampleCount:  1,
//	}
//	key := sortkey.Depth(sortkey.Opaque, st.SortHash(), drawHash, depth, sortkey.LayerDefault)
//
// Cache interns states and hands out small stable IDs, the way a GPU backend
// caches compiled pipelines by descriptor hash.
package pipeline
