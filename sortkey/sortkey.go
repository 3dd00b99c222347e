// Package sortkey encodes 64-bit draw ordering keys.
//
// Lower keys replay earlier. High bits carry coarse ordering (static layer,
// pipeline hash), low bits carry fine ordering (quantized depth). Opaque
// draws sort front-to-back to maximize early depth rejection; transparent
// draws sort back-to-front for correct blending.
//
// Depth ordering relies on the fact that the IEEE-754 bit patterns of
// non-negative floats are monotonic with their numeric value, so a depth can
// be compared as a plain unsigned integer.
//
// A key of 0 is reserved to mean "unassigned" and is never returned.
package sortkey

import (
	"math"

	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"
)

// Class selects the monotonicity rule of a key.
type Class uint8

const (
	// Opaque keys order by static layer, then pipeline, then ascending depth.
	Opaque Class = iota

	// Transparent keys order by descending depth, then pipeline.
	Transparent
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case Opaque:
		return "Opaque"
	case Transparent:
		return "Transparent"
	default:
		return "Unknown"
	}
}

// StaticLayer is a 2-bit priority band that overrides pipeline and depth
// ordering for opaque draws. Lower layers replay first.
type StaticLayer uint8

const (
	LayerFront StaticLayer = iota
	LayerDefault
	LayerBack
	LayerLast
)

// Ordering selects how opaque keys trade state clustering against depth.
type Ordering uint8

const (
	// StateFirst places the pipeline hash above depth, so draws sharing a
	// pipeline cluster together and are front-to-back only within it.
	StateFirst Ordering = iota

	// DepthFirst places depth above the pipeline hash: strict front-to-back
	// with the pipeline only breaking ties.
	DepthFirst
)

// Encoder produces sort keys with a fixed opaque Ordering.
// The zero value uses StateFirst.
type Encoder struct {
	Ordering Ordering
}

// Camera is the viewpoint used to derive depth from world positions.
// Forward is expected to be normalized.
type Camera struct {
	Position f32.Vec3
	Forward  f32.Vec3
}

var defaultEncoder Encoder

// opaqueBackground sets every high bit so opaque backgrounds replay last.
const opaqueBackground uint64 = 0xffffffff_00000000

// Background returns a key that pushes a background draw to the far end of
// its class: last among opaque draws, first among transparent ones.
func Background(c Class, pipelineHash, drawHash uint32) uint64 {
	return defaultEncoder.Background(c, pipelineHash, drawHash)
}

// Depth returns a key for a draw at the given non-negative view depth.
func Depth(c Class, pipelineHash, drawHash uint32, depth float32, layer StaticLayer) uint64 {
	return defaultEncoder.Depth(c, pipelineHash, drawHash, depth, layer)
}

// WorldPosition returns a key for a draw centered at pos as seen from cam.
func WorldPosition(c Class, cam Camera, pos f32.Vec3, pipelineHash, drawHash uint32, layer StaticLayer) uint64 {
	return defaultEncoder.WorldPosition(c, cam, pos, pipelineHash, drawHash, layer)
}

// Background implements the package-level Background.
func (Encoder) Background(c Class, pipelineHash, drawHash uint32) uint64 {
	h := uint64(foldHash(pipelineHash, drawHash))
	if c == Transparent {
		return nonZero(h)
	}
	return opaqueBackground | h
}

// Depth implements the package-level Depth.
//
// Opaque (StateFirst):  layer[63:62] pipeline[61:30] depth>>1[29:0]
// Opaque (DepthFirst):  layer[63:62] depth>>1[61:32] pipeline[31:0]
// Transparent:          ^depth[63:32] pipeline[31:0]
func (e Encoder) Depth(c Class, pipelineHash, drawHash uint32, depth float32, layer StaticLayer) uint64 {
	h := uint64(foldHash(pipelineHash, drawHash))
	d := DepthBits(depth)

	if c == Transparent {
		return nonZero(uint64(^d)<<32 | h)
	}

	// Sign bit is always clear, so d>>1 fits in 30 bits.
	q := uint64(d >> 1)
	l := uint64(layer&3) << 62
	if e.Ordering == DepthFirst {
		return nonZero(l | q<<32 | h)
	}
	return nonZero(l | h<<30 | q)
}

// WorldPosition implements the package-level WorldPosition.
func (e Encoder) WorldPosition(c Class, cam Camera, pos f32.Vec3, pipelineHash, drawHash uint32, layer StaticLayer) uint64 {
	return e.Depth(c, pipelineHash, drawHash, ViewDepth(cam, pos), layer)
}

// ViewDepth projects pos onto the camera's forward axis.
func ViewDepth(cam Camera, pos f32.Vec3) float32 {
	return (pos[0]-cam.Position[0])*cam.Forward[0] +
		(pos[1]-cam.Position[1])*cam.Forward[1] +
		(pos[2]-cam.Position[2])*cam.Forward[2]
}

// DepthBits reinterprets a depth as an unsigned integer that orders the same
// way. Negative depths, -0 and NaN clamp to 0; +Inf clamps to MaxFloat32.
func DepthBits(depth float32) uint32 {
	switch {
	case math32.IsNaN(depth) || depth <= 0:
		return 0
	case math32.IsInf(depth, 1):
		depth = math32.MaxFloat32
	}
	return math.Float32bits(depth)
}

// foldHash keeps the high half of the pipeline hash and the low half of the
// per-draw hash.
func foldHash(pipelineHash, drawHash uint32) uint32 {
	return pipelineHash&0xffff0000 | drawHash&0xffff
}

func nonZero(k uint64) uint64 {
	if k == 0 {
		return 1
	}
	return k
}
