package recording

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/renderqueue/pipeline"
)

// testDevice implements DeviceHandle with a fixed surface format.
type testDevice struct {
	NullDeviceHandle
	format gputypes.TextureFormat
}

func (d testDevice) SurfaceFormat() gputypes.TextureFormat { return d.format }

var _ gpucontext.DeviceProvider = testDevice{}

func testState(shader pipeline.ShaderID) pipeline.State {
	return pipeline.State{
		Shader:       shader,
		Topology:     gputypes.PrimitiveTopologyTriangleList,
		CullMode:     gputypes.CullModeNone,
		ColorFormat:  gputypes.TextureFormatRGBA8Unorm,
		DepthCompare: gputypes.CompareFunctionAlways,
		SampleCount:  1,
	}
}

func TestCommandBufferRedundantBind(t *testing.T) {
	cmd := NewCommandBuffer(nil)
	cmd.BindPipeline(testState(1))
	cmd.BindPipeline(testState(1))
	cmd.BindPipeline(testState(2))
	cmd.BindPipeline(testState(1))

	rec := cmd.Finish()
	require.Len(t, rec.Commands(), 3)
	assert.Equal(t, 2, rec.Resources().PipelineCount())
	for i, c := range rec.Commands() {
		assert.Equal(t, CmdBindPipeline, c.Type(), "command %d", i)
	}
}

func TestCommandBufferDraw(t *testing.T) {
	cmd := NewCommandBuffer(nil)
	require.ErrorIs(t, cmd.Draw(6, 1), ErrNoPipeline)

	cmd.BindPipeline(testState(1))
	for _, n := range []uint32{4, 0, 3} {
		require.NoError(t, cmd.Draw(6, n))
	}
	require.NoError(t, cmd.Draw(0, 5))
	assert.Equal(t, uint32(7), cmd.Instances())

	want := []Command{
		BindPipelineCommand{Pipeline: 0},
		DrawCommand{VertexCount: 6, InstanceCount: 4, FirstInstance: 0},
		DrawCommand{VertexCount: 6, InstanceCount: 3, FirstInstance: 4},
	}
	assert.Equal(t, want, cmd.Finish().Commands())
}

func TestCommandBufferFinishResets(t *testing.T) {
	cmd := NewCommandBuffer(nil)
	cmd.BindPipeline(testState(1))
	require.NoError(t, cmd.Draw(3, 1))
	first := cmd.Finish()

	require.Zero(t, cmd.Len())
	require.Zero(t, cmd.Instances())
	assert.ErrorIs(t, cmd.Draw(3, 1), ErrNoPipeline, "binding must not survive Finish")

	cmd.BindPipeline(testState(2))
	require.NoError(t, cmd.Draw(3, 1))
	assert.Len(t, first.Commands(), 2, "Finish result modified by later recording")

	// The buffer reuses its pool; the recording keeps its own copy.
	s, ok := first.Resources().GetPipeline(0)
	require.True(t, ok)
	assert.Equal(t, pipeline.ShaderID(1), s.Shader)
	assert.Equal(t, 1, first.Resources().PipelineCount())
}

func TestCommandBufferSurfaceFormat(t *testing.T) {
	dev := testDevice{format: gputypes.TextureFormatBGRA8Unorm}
	cmd := NewCommandBuffer(dev)
	assert.Equal(t, DeviceHandle(dev), cmd.Device())

	s := testState(1)
	s.ColorFormat = gputypes.TextureFormatUndefined
	cmd.BindPipeline(s)
	cmd.BindPipeline(testState(2))

	rec := cmd.Finish()
	assert.Equal(t, gputypes.TextureFormatBGRA8Unorm, rec.Format())
	got, _ := rec.Resources().GetPipeline(0)
	assert.Equal(t, gputypes.TextureFormatBGRA8Unorm, got.ColorFormat, "undefined color format not replaced")
	got, _ = rec.Resources().GetPipeline(1)
	assert.Equal(t, gputypes.TextureFormatRGBA8Unorm, got.ColorFormat, "explicit color format replaced")
}

func TestNullDeviceHandle(t *testing.T) {
	var h NullDeviceHandle
	assert.Nil(t, h.Device())
	assert.Nil(t, h.Queue())
	assert.Nil(t, h.Adapter())
	assert.Equal(t, gpucontext.AdapterTypeUnknown, h.AdapterInfo().Type)
	assert.Equal(t, gputypes.TextureFormatUndefined, NewCommandBuffer(nil).Format())
}

func TestRecordingPlayback(t *testing.T) {
	cmd := NewCommandBuffer(testDevice{format: gputypes.TextureFormatRGBA8Unorm})
	cmd.BindPipeline(testState(1))
	require.NoError(t, cmd.Draw(36, 10))
	cmd.BindPipeline(testState(2))
	require.NoError(t, cmd.Draw(6, 1))

	b := newMockBackend("mock")
	require.NoError(t, cmd.Finish().Playback(b))

	assert.Equal(t, 1, b.beginCalls)
	assert.Equal(t, 1, b.endCalls)
	assert.Equal(t, gputypes.TextureFormatRGBA8Unorm, b.format)
	require.Len(t, b.binds, 2)
	assert.Equal(t, pipeline.ShaderID(2), b.binds[1].Shader)
	require.Len(t, b.draws, 2)
	assert.Equal(t, uint32(10), b.draws[0].InstanceCount)
	assert.Equal(t, uint32(10), b.draws[1].FirstInstance)
}

func TestRecordingPlaybackInvalidRef(t *testing.T) {
	rec := &Recording{
		commands:  []Command{BindPipelineCommand{Pipeline: 3}},
		resources: NewResourcePool(),
	}
	b := newMockBackend("mock")
	assert.ErrorIs(t, rec.Playback(b), ErrInvalidRef)
	assert.Zero(t, b.endCalls, "End must not be called after a failed playback")
}

func TestJoin(t *testing.T) {
	a := NewCommandBuffer(nil)
	a.BindPipeline(testState(1))
	require.NoError(t, a.Draw(6, 2))
	a.BindPipeline(testState(2))
	require.NoError(t, a.Draw(6, 3))

	// Starts with the pipeline a ended on: the seam bind is dropped.
	b := NewCommandBuffer(nil)
	b.BindPipeline(testState(2))
	require.NoError(t, b.Draw(6, 4))
	b.BindPipeline(testState(1))
	require.NoError(t, b.Draw(6, 5))

	joined := Join(a.Finish(), nil, b.Finish())
	assert.Equal(t, 2, joined.Resources().PipelineCount())

	var types []CommandType
	var instances uint32
	for _, c := range joined.Commands() {
		types = append(types, c.Type())
		if d, ok := c.(DrawCommand); ok {
			instances += d.InstanceCount
		}
	}
	want := []CommandType{CmdBindPipeline, CmdDraw, CmdBindPipeline, CmdDraw, CmdDraw, CmdBindPipeline, CmdDraw}
	require.Equal(t, want, types)
	assert.Equal(t, uint32(14), instances)

	last := joined.Commands()[5].(BindPipelineCommand)
	s, _ := joined.Resources().GetPipeline(last.Pipeline)
	assert.Equal(t, pipeline.ShaderID(1), s.Shader)

	assert.Empty(t, Join().Commands())
}

func TestCommandTypeString(t *testing.T) {
	tests := []struct {
		c    CommandType
		want string
	}{
		{CmdBindPipeline, "BindPipeline"},
		{CmdDraw, "Draw"},
		{CommandType(200), "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.c.String())
	}
	assert.False(t, PipelineRef(InvalidRef).IsValid())
	assert.True(t, PipelineRef(0).IsValid())
}
