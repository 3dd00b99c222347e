package sortkey

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f32"
)

func TestDepthBits_Monotonic(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	scales := []float32{1e-30, 1e-3, 1, 1e3, 1e30}

	for i := 0; i < 20000; i++ {
		s := scales[i%len(scales)]
		x := rng.Float32() * s
		y := x + rng.Float32()*s
		if !(x < y) {
			continue
		}
		require.Less(t, DepthBits(x), DepthBits(y), "x=%g y=%g", x, y)
	}

	// Adjacent representable values stay strictly ordered.
	for _, x := range []float32{0, math.SmallestNonzeroFloat32, 1, 1000, math.MaxFloat32 / 2} {
		y := math.Nextafter32(x, math.MaxFloat32)
		assert.Less(t, DepthBits(x), DepthBits(y), "x=%g", x)
	}
}

func TestDepthBits_RoundTrip(t *testing.T) {
	for _, x := range []float32{0, math.SmallestNonzeroFloat32, 0.5, 1, 42.25, 1e20, math.MaxFloat32} {
		assert.Equal(t, x, math.Float32frombits(DepthBits(x)))
		assert.Equal(t, math.Float32bits(x), DepthBits(x))
	}
}

func TestDepthBits_Clamp(t *testing.T) {
	tests := []struct {
		name  string
		depth float32
		want  uint32
	}{
		{"negative", -5, 0},
		{"negative zero", float32(math.Copysign(0, -1)), 0},
		{"nan", float32(math.NaN()), 0},
		{"negative inf", float32(math.Inf(-1)), 0},
		{"positive inf", float32(math.Inf(1)), math.Float32bits(math.MaxFloat32)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DepthBits(tt.depth))
		})
	}
}

func TestDepth_OpaqueFrontToBack(t *testing.T) {
	depths := []float32{10, 5, 8}
	keys := make([]uint64, len(depths))
	for i, d := range depths {
		keys[i] = Depth(Opaque, 0xAAAA0000, 0x1234, d, LayerDefault)
	}
	assert.Less(t, keys[1], keys[2])
	assert.Less(t, keys[2], keys[0])
}

func TestDepth_OpaqueQuantizedOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	type draw struct {
		depth float32
		key   uint64
	}
	draws := make([]draw, 500)
	for i := range draws {
		d := rng.Float32() * 100
		draws[i] = draw{d, Depth(Opaque, 0x55550000, 7, d, LayerBack)}
	}
	slices.SortStableFunc(draws, func(a, b draw) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})
	for i := 1; i < len(draws); i++ {
		assert.LessOrEqual(t, DepthBits(draws[i-1].depth)>>1, DepthBits(draws[i].depth)>>1)
	}
}

func TestDepth_TransparentBackToFront(t *testing.T) {
	near := Depth(Transparent, 0x10000000, 1, 2, LayerDefault)
	far := Depth(Transparent, 0x10000000, 1, 50, LayerDefault)
	assert.Less(t, far, near)

	// Depth outranks the pipeline for transparent draws.
	farOtherPipeline := Depth(Transparent, 0xffff0000, 1, 50, LayerDefault)
	assert.Less(t, farOtherPipeline, near)
}

func TestDepth_StaticLayerDominates(t *testing.T) {
	frontFar := Depth(Opaque, 0xffff0000, 0xffff, 1e6, LayerFront)
	backNear := Depth(Opaque, 0, 0, 0.1, LayerBack)
	assert.Less(t, frontFar, backNear)

	assert.Less(t, Depth(Opaque, 1<<16, 0, 1, LayerDefault), Depth(Opaque, 1<<16, 0, 1, LayerLast))
}

func TestEncoder_Ordering(t *testing.T) {
	const pipeA, pipeB = 0x10000000, 0x20000000

	stateFirst := Encoder{Ordering: StateFirst}
	assert.Less(t,
		stateFirst.Depth(Opaque, pipeA, 0, 100, LayerDefault),
		stateFirst.Depth(Opaque, pipeB, 0, 1, LayerDefault),
		"state-first clusters by pipeline before depth")

	depthFirst := Encoder{Ordering: DepthFirst}
	assert.Less(t,
		depthFirst.Depth(Opaque, pipeB, 0, 1, LayerDefault),
		depthFirst.Depth(Opaque, pipeA, 0, 100, LayerDefault),
		"depth-first sorts front-to-back before pipeline")

	// Pipeline breaks depth ties.
	assert.Less(t,
		depthFirst.Depth(Opaque, pipeA, 0, 1, LayerDefault),
		depthFirst.Depth(Opaque, pipeB, 0, 1, LayerDefault))

	// The default encoder is state-first.
	assert.Equal(t,
		stateFirst.Depth(Opaque, pipeA, 3, 9, LayerFront),
		Depth(Opaque, pipeA, 3, 9, LayerFront))
}

func TestBackground(t *testing.T) {
	opaqueBG := Background(Opaque, 0xabcd0000, 0x1234)
	assert.Equal(t, uint64(0xffffffff_abcd1234), opaqueBG)
	assert.Greater(t, opaqueBG, Depth(Opaque, 0xabcd0000, 0x1234, math.MaxFloat32, LayerBack))

	transparentBG := Background(Transparent, 0xabcd0000, 0x1234)
	assert.Equal(t, uint64(0xabcd1234), transparentBG)
	assert.Less(t, transparentBG, Depth(Transparent, 0, 0, math.MaxFloat32, LayerDefault))
}

func TestKeysNeverZero(t *testing.T) {
	assert.Equal(t, uint64(1), Depth(Opaque, 0, 0, 0, LayerFront))
	assert.Equal(t, uint64(1), Encoder{Ordering: DepthFirst}.Depth(Opaque, 0, 0, -1, LayerFront))
	assert.Equal(t, uint64(1), Background(Transparent, 0, 0))
	assert.NotZero(t, Depth(Transparent, 0, 0, 0, LayerFront))
}

func TestViewDepth(t *testing.T) {
	cam := Camera{Position: f32.Vec3{1, 2, 3}, Forward: f32.Vec3{0, 0, -1}}
	assert.InDelta(t, 7, ViewDepth(cam, f32.Vec3{1, 2, -4}), 1e-6)
	assert.InDelta(t, -2, ViewDepth(cam, f32.Vec3{5, 5, 5}), 1e-6)
}

func TestWorldPosition(t *testing.T) {
	cam := Camera{Forward: f32.Vec3{0, 0, 1}}
	near := WorldPosition(Opaque, cam, f32.Vec3{3, 0, 5}, 0x10000000, 0, LayerDefault)
	far := WorldPosition(Opaque, cam, f32.Vec3{-3, 0, 10}, 0x10000000, 0, LayerDefault)
	behind := WorldPosition(Opaque, cam, f32.Vec3{0, 0, -10}, 0x10000000, 0, LayerDefault)

	assert.Less(t, near, far)
	assert.Less(t, behind, near, "points behind the camera clamp to depth 0")
	assert.Equal(t, Depth(Opaque, 0x10000000, 0, 5, LayerDefault), near)

	tNear := WorldPosition(Transparent, cam, f32.Vec3{0, 0, 5}, 0x10000000, 0, LayerDefault)
	tFar := WorldPosition(Transparent, cam, f32.Vec3{0, 0, 10}, 0x10000000, 0, LayerDefault)
	assert.Less(t, tFar, tNear)
}

func TestClass_String(t *testing.T) {
	assert.Equal(t, "Opaque", Opaque.String())
	assert.Equal(t, "Transparent", Transparent.String())
	assert.Equal(t, "Unknown", Class(9).String())
}
