package main

import (
	"github.com/gogpu/renderqueue"
	"github.com/gogpu/renderqueue/recording"
)

// Render routines. Each receives one batch of entries sharing a state blob
// and issues a single instanced draw for it.
var (
	meshRoutine       = renderqueue.NewRoutine("mesh", drawMeshes)
	spriteRoutine     = renderqueue.NewRoutine("sprite", drawSprites)
	lightRoutine      = renderqueue.NewRoutine("light", drawLights)
	backgroundRoutine = renderqueue.NewRoutine("background", drawBackground)
)

func drawMeshes(cmd *recording.CommandBuffer, batch []renderqueue.Entry) {
	st := renderqueue.StateOf[MeshState](batch[0])
	cmd.BindPipeline(st.Pipeline)
	mustDraw(cmd.Draw(st.VertexCount, instances(batch)))
}

func drawSprites(cmd *recording.CommandBuffer, batch []renderqueue.Entry) {
	st := renderqueue.StateOf[SpriteState](batch[0])
	cmd.BindPipeline(st.Pipeline)
	mustDraw(cmd.Draw(quadVertices, instances(batch)))
}

func drawLights(cmd *recording.CommandBuffer, batch []renderqueue.Entry) {
	st := renderqueue.StateOf[LightState](batch[0])
	cmd.BindPipeline(st.Pipeline)
	mustDraw(cmd.Draw(cubeVertices, instances(batch)))
}

func drawBackground(cmd *recording.CommandBuffer, batch []renderqueue.Entry) {
	st := renderqueue.StateOf[BackgroundState](batch[0])
	cmd.BindPipeline(st.Pipeline)
	mustDraw(cmd.Draw(fullscreenVertices, instances(batch)))
}

func instances(batch []renderqueue.Entry) uint32 {
	return uint32(len(batch)) //nolint:gosec // batch length is bounded by the queue size
}

// mustDraw panics on a draw error; every routine binds before drawing.
func mustDraw(err error) {
	if err != nil {
		panic(err)
	}
}
