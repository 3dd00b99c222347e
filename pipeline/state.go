// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/gogpu/gputypes"
)

// ShaderID identifies a compiled shader program. 0 means no shader.
type ShaderID uint64

// BlendMode selects one of the blend configurations the renderer supports.
type BlendMode uint8

const (
	// BlendOpaque writes source color unchanged.
	BlendOpaque BlendMode = iota

	// BlendAlpha is premultiplied source-over.
	BlendAlpha

	// BlendAdditive adds source to destination.
	BlendAdditive

	// BlendMultiply multiplies source with destination.
	BlendMultiply
)

// String returns the string representation of BlendMode.
func (m BlendMode) String() string {
	switch m {
	case BlendOpaque:
		return "Opaque"
	case BlendAlpha:
		return "Alpha"
	case BlendAdditive:
		return "Additive"
	case BlendMultiply:
		return "Multiply"
	default:
		return fmt.Sprintf("BlendMode(%d)", m)
	}
}

// Transparent reports whether the mode reads the destination and therefore
// needs back-to-front ordering.
func (m BlendMode) Transparent() bool {
	return m != BlendOpaque
}

// State is the complete pipeline state of a draw. It contains no pointers
// and can be stored in a frame arena.
type State struct {
	// Shader is the shader program.
	Shader ShaderID

	// Topology is the primitive type.
	Topology gputypes.PrimitiveTopology

	// FrontFace defines which face is considered front-facing.
	FrontFace gputypes.FrontFace

	// CullMode defines which faces to cull.
	CullMode gputypes.CullMode

	// ColorFormat is the color attachment format. Undefined means the
	// surface format of the device the state is bound on.
	ColorFormat gputypes.TextureFormat

	// DepthFormat is the depth attachment format, Undefined for none.
	DepthFormat gputypes.TextureFormat

	// DepthWrite enables depth writes.
	DepthWrite bool

	// DepthCompare is the depth test function.
	DepthCompare gputypes.CompareFunction

	// Blend selects the blend configuration.
	Blend BlendMode

	// SampleCount is the MSAA sample count. 0 is treated as 1.
	SampleCount uint32
}

// Hash computes an FNV-1a hash over every field of s that affects rendering.
// Equal states hash equal; SampleCount 0 and 1 hash the same.
func (s State) Hash() uint64 {
	h := fnv.New64a()

	hashWriteUint64(h, uint64(s.Shader))

	// Primitive state
	hashWriteUint32(h, uint32(s.Topology))
	hashWriteUint32(h, uint32(s.FrontFace))
	hashWriteUint32(h, uint32(s.CullMode))

	// Formats
	hashWriteUint32(h, uint32(s.ColorFormat))
	hashWriteUint32(h, uint32(s.DepthFormat))

	// Depth state
	hashWriteBool(h, s.DepthWrite)
	hashWriteUint32(h, uint32(s.DepthCompare))

	hashWriteUint32(h, uint32(s.Blend))
	hashWriteUint32(h, s.samples())

	return h.Sum64()
}

// SortHash folds Hash into the 32 bits a sort key reserves for pipeline
// state. Only its high 16 bits survive sortkey's pipeline/draw fold, so the
// fold mixes both halves of the 64-bit hash into them.
func (s State) SortHash() uint32 {
	h := s.Hash()
	return uint32(h>>32) ^ uint32(h)
}

// WithColorFormat returns a copy of s with an Undefined color format
// replaced by format.
func (s State) WithColorFormat(format gputypes.TextureFormat) State {
	if s.ColorFormat == gputypes.TextureFormatUndefined {
		s.ColorFormat = format
	}
	return s
}

func (s State) samples() uint32 {
	if s.SampleCount == 0 {
		return 1
	}
	return s.SampleCount
}

// String returns a short description for logs.
func (s State) String() string {
	return fmt.Sprintf("pipeline{shader=%d blend=%v depthWrite=%t samples=%d}",
		s.Shader, s.Blend, s.DepthWrite, s.samples())
}

// hashWriteUint32 writes a uint32 to the hash.
func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteUint64 writes a uint64 to the hash.
func hashWriteUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

// hashWriteBool writes a bool to the hash.
func hashWriteBool(h hash.Hash64, v bool) {
	if v {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
}
