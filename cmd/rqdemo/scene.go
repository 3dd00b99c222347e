package main

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/renderqueue"
	"github.com/gogpu/renderqueue/pipeline"
	"github.com/gogpu/renderqueue/sortkey"
)

// Arena-resident state blobs and instance data. All pointer-free.

// MeshState is shared by every object drawn with one material.
type MeshState struct {
	Pipeline    pipeline.State
	PipelineID  pipeline.ID
	Material    uint32
	VertexCount uint32
}

// MeshInstance is the per-object payload of a mesh draw.
type MeshInstance struct {
	Model f32.Mat4
	Tint  [4]float32
}

// SpriteState is shared by every sprite from one atlas.
type SpriteState struct {
	Pipeline pipeline.State
	Atlas    uint32
}

// SpriteInstance is a camera-facing quad.
type SpriteInstance struct {
	Center f32.Vec3
	Size   float32
	Color  [4]float32
}

// LightState is shared by every light volume.
type LightState struct {
	Pipeline pipeline.State
}

// LightInstance is a point light volume.
type LightInstance struct {
	Center f32.Vec3
	Radius float32
	Color  [3]float32
}

// BackgroundState is the full-screen sky draw.
type BackgroundState struct {
	Pipeline pipeline.State
}

const (
	cubeVertices       = 36
	quadVertices       = 6
	fullscreenVertices = 3
	spriteAtlases      = 4
)

// Shader programs of the demo.
const (
	shaderMesh pipeline.ShaderID = iota + 1
	shaderEmissive
	shaderGlass
	shaderSprite
	shaderLight
	shaderSky
)

type material struct {
	index       uint32
	state       pipeline.State
	pipelineID  pipeline.ID
	queue       renderqueue.QueueID
	vertexCount uint32
}

type object struct {
	position f32.Vec3
	scale    float32
	material int
	tint     [4]float32
}

type sprite struct {
	center f32.Vec3
	size   float32
	atlas  int
	color  [4]float32
}

type light struct {
	center f32.Vec3
	radius float32
	color  [3]float32
}

// Scene is the immutable world the producers read every frame.
type Scene struct {
	camera    sortkey.Camera
	encoder   sortkey.Encoder
	materials []material
	objects   []object
	sprites   []sprite
	lights    []light

	spriteState pipeline.State
	lightState  pipeline.State
	skyState    pipeline.State
}

// NewScene generates a deterministic scene from cfg, interning every
// pipeline state in cache. cfg must be valid.
func NewScene(cfg Config, cache *pipeline.Cache) *Scene {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	ordering, _ := cfg.SortOrdering()

	s := &Scene{
		camera: sortkey.Camera{
			Position: f32.Vec3(cfg.Camera.Position),
			Forward:  f32.Vec3(cfg.Camera.Forward),
		},
		encoder: sortkey.Encoder{Ordering: ordering},
	}

	base := pipeline.State{
		Topology:     gputypes.PrimitiveTopologyTriangleList,
		CullMode:     gputypes.CullModeNone,
		DepthFormat:  gputypes.TextureFormatDepth24PlusStencil8,
		DepthCompare: gputypes.CompareFunctionAlways,
		SampleCount:  1,
	}

	s.materials = make([]material, cfg.Materials)
	for i := range s.materials {
		st := base
		m := material{
			index:       uint32(i), //nolint:gosec // material count is small
			queue:       renderqueue.Opaque,
			vertexCount: cubeVertices * uint32(1+i%3),
		}
		switch i % 6 {
		case 4:
			st.Shader = shaderEmissive
			m.queue = renderqueue.OpaqueEmissive
		case 5:
			st.Shader = shaderGlass
			st.Blend = pipeline.BlendAlpha
			m.queue = renderqueue.Transparent
		default:
			st.Shader = shaderMesh
		}
		st.DepthWrite = !st.Blend.Transparent()
		m.state = st
		m.pipelineID = cache.Intern(st)
		s.materials[i] = m
	}

	s.spriteState = base
	s.spriteState.Shader = shaderSprite
	s.spriteState.Blend = pipeline.BlendAlpha
	s.spriteState.DepthFormat = gputypes.TextureFormatUndefined
	cache.Intern(s.spriteState)

	s.lightState = base
	s.lightState.Shader = shaderLight
	s.lightState.Blend = pipeline.BlendAdditive
	cache.Intern(s.lightState)

	s.skyState = base
	s.skyState.Shader = shaderSky
	s.skyState.DepthCompare = gputypes.CompareFunctionNotEqual
	cache.Intern(s.skyState)

	s.objects = make([]object, cfg.Objects)
	for i := range s.objects {
		s.objects[i] = object{
			position: randomPosition(rng, 100),
			scale:    0.5 + rng.Float32()*2,
			material: rng.IntN(cfg.Materials),
			tint:     [4]float32{rng.Float32(), rng.Float32(), rng.Float32(), 1},
		}
	}

	s.sprites = make([]sprite, cfg.Sprites)
	for i := range s.sprites {
		s.sprites[i] = sprite{
			center: randomPosition(rng, 80),
			size:   0.25 + rng.Float32(),
			atlas:  rng.IntN(spriteAtlases),
			color:  [4]float32{1, 1, 1, 0.25 + rng.Float32()*0.75},
		}
	}

	s.lights = make([]light, cfg.Lights)
	for i := range s.lights {
		s.lights[i] = light{
			center: randomPosition(rng, 90),
			radius: 2 + rng.Float32()*8,
			color:  [3]float32{rng.Float32(), rng.Float32(), rng.Float32()},
		}
	}
	return s
}

// Draws returns the number of instances one frame of the scene pushes.
func (s *Scene) Draws() int {
	return len(s.objects) + len(s.sprites) + len(s.lights) + 1
}

// Produce pushes partition part of parts of the scene into q. Partition 0
// also pushes the background.
func (s *Scene) Produce(q *renderqueue.RenderQueue, part, parts int) {
	begin, end := renderqueue.PartitionRange(len(s.objects), part, parts)
	for i := begin; i < end; i++ {
		s.pushObject(q, &s.objects[i])
	}

	begin, end = renderqueue.PartitionRange(len(s.sprites), part, parts)
	for i := begin; i < end; i++ {
		s.pushSprite(q, &s.sprites[i])
	}

	begin, end = renderqueue.PartitionRange(len(s.lights), part, parts)
	for i := begin; i < end; i++ {
		s.pushLight(q, &s.lights[i])
	}

	if part == 0 {
		s.pushBackground(q)
	}
}

func (s *Scene) pushObject(q *renderqueue.RenderQueue, o *object) {
	m := &s.materials[o.material]

	inst := renderqueue.AllocateOne[MeshInstance](q)
	inst.Model = translateScale(o.position, o.scale)
	inst.Tint = o.tint

	key := s.encoder.WorldPosition(m.queue.Class(), s.camera, o.position,
		m.state.SortHash(), m.index, sortkey.LayerDefault)
	st := renderqueue.Register[MeshState](q, m.queue, uint64(m.index)+1, key, meshRoutine, inst)
	if st != nil {
		*st = MeshState{
			Pipeline:    m.state,
			PipelineID:  m.pipelineID,
			Material:    m.index,
			VertexCount: m.vertexCount,
		}
	}
}

func (s *Scene) pushSprite(q *renderqueue.RenderQueue, sp *sprite) {
	inst := renderqueue.AllocateOne[SpriteInstance](q)
	*inst = SpriteInstance{Center: sp.center, Size: sp.size, Color: sp.color}

	key := s.encoder.WorldPosition(sortkey.Transparent, s.camera, sp.center,
		s.spriteState.SortHash(), uint32(sp.atlas), sortkey.LayerDefault) //nolint:gosec // atlas < spriteAtlases
	st := renderqueue.Register[SpriteState](q, renderqueue.Transparent, uint64(sp.atlas)+1, key, spriteRoutine, inst)
	if st != nil {
		*st = SpriteState{Pipeline: s.spriteState, Atlas: uint32(sp.atlas)} //nolint:gosec // atlas < spriteAtlases
	}
}

func (s *Scene) pushLight(q *renderqueue.RenderQueue, l *light) {
	inst := renderqueue.AllocateOne[LightInstance](q)
	*inst = LightInstance{Center: l.center, Radius: l.radius, Color: l.color}

	key := s.encoder.WorldPosition(sortkey.Opaque, s.camera, l.center,
		s.lightState.SortHash(), 0, sortkey.LayerDefault)
	st := renderqueue.Register[LightState](q, renderqueue.Light, 1, key, lightRoutine, inst)
	if st != nil {
		st.Pipeline = s.lightState
	}
}

func (s *Scene) pushBackground(q *renderqueue.RenderQueue) {
	key := s.encoder.Background(sortkey.Opaque, s.skyState.SortHash(), 0)
	st := renderqueue.Register[BackgroundState, struct{}](q, renderqueue.Opaque, 1, key, backgroundRoutine, nil)
	if st != nil {
		st.Pipeline = s.skyState
	}
}

func randomPosition(rng *rand.Rand, extent float32) f32.Vec3 {
	return f32.Vec3{
		(rng.Float32()*2 - 1) * extent,
		(rng.Float32()*2 - 1) * extent * 0.2,
		(rng.Float32()*2 - 1) * extent,
	}
}

// translateScale returns a row-major model matrix.
func translateScale(t f32.Vec3, s float32) f32.Mat4 {
	s = math32.Max(s, 0)
	return f32.Mat4{
		s, 0, 0, t[0],
		0, s, 0, t[1],
		0, 0, s, t[2],
		0, 0, 0, 1,
	}
}
