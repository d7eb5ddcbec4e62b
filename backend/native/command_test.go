package native

import (
	"image"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/batch2d/gfx"
)

const testShader = `
@vertex
fn vs_main(@location(0) pos: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`

func newTestPipeline(t *testing.T, env *testEnv, pass gfx.RenderPass, restart bool) gfx.Pipeline {
	t.Helper()
	shader, err := env.dev.CreateShader(&gfx.ShaderDescriptor{Label: "test", WGSL: testShader})
	require.NoError(t, err)
	t.Cleanup(shader.Destroy)
	layout, err := env.dev.CreateDescriptorSetLayout(&gfx.DescriptorSetLayoutDescriptor{Label: "test"})
	require.NoError(t, err)
	t.Cleanup(layout.Destroy)

	topology := gputypes.PrimitiveTopologyTriangleList
	if restart {
		topology = gputypes.PrimitiveTopologyLineStrip
	}
	p, err := env.dev.CreatePipeline(&gfx.PipelineDescriptor{
		Label:         "test",
		Shader:        shader,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Layout:        layout,
		Pass:          pass,
		Vertex: gputypes.VertexBufferLayout{
			ArrayStride: 8,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, ShaderLocation: 0},
			},
		},
		Topology:         topology,
		PrimitiveRestart: restart,
		DynamicLineWidth: restart,
	})
	require.NoError(t, err)
	t.Cleanup(p.Destroy)
	return p
}

func TestCommandBufferDrawSubmits(t *testing.T) {
	env := newTestEnv(t)
	pass := env.pass(t)
	fb := env.target(t, pass, 64, 64)
	pipeline := newTestPipeline(t, env, pass, false)

	staging := env.buffer(t, "staging", 24, gfx.MemoryHostVisible)
	vertices := env.buffer(t, "vertices", 24, gfx.MemoryDeviceLocal)
	indexStaging := env.buffer(t, "index_staging", 12, gfx.MemoryHostVisible)
	indices := env.buffer(t, "indices", 12, gfx.MemoryDeviceLocal)
	for i := range staging.Map() {
		staging.Map()[i] = byte(i)
	}

	cmd, err := env.dev.CreateCommandBuffer()
	require.NoError(t, err)
	defer cmd.Destroy()
	fence, err := env.dev.CreateFence(false)
	require.NoError(t, err)
	signal, err := env.dev.CreateSemaphore()
	require.NoError(t, err)

	cmd.Reset()
	cmd.Begin()
	cmd.Copy(staging, vertices, 24)
	cmd.Copy(indexStaging, indices, 12)
	cmd.SetScissor(image.Rect(0, 0, 64, 64))
	cmd.SetViewport(0, 0, 64, 64)
	cmd.BindPipeline(pipeline)
	cmd.BeginRenderPass(pass, fb)
	cmd.BindVertexBuffer(vertices)
	cmd.BindIndexBuffer(indices, gputypes.IndexFormatUint32)
	cmd.DrawIndexed(3)
	cmd.EndRenderPass()
	require.NoError(t, cmd.End())

	require.NoError(t, env.dev.Queue().Execute(cmd, nil, signal, fence))
	assert.Equal(t, 1, env.queue.submits)
	assert.Equal(t, 2, env.queue.writes, "noop queue has no command buffer copies")
	assert.Equal(t, staging.Map(), env.contents(t, vertices))
	assert.NotZero(t, signal.(*Semaphore).SignaledBy())
	require.NoError(t, fence.Wait())

	// Submitted buffers cannot be submitted again until reset.
	fence.Reset()
	assert.ErrorIs(t, env.dev.Queue().Execute(cmd, nil, nil, fence), ErrNotExecutable)
}

func TestCommandBufferEncodesCopiesWhenSupported(t *testing.T) {
	env := newTestEnvWithQueue(t, spyQueue{copies: true})
	require.True(t, env.dev.Queue().(*Queue).copies)
	staging := env.buffer(t, "staging", 8, gfx.MemoryHostVisible)
	vertices := env.buffer(t, "vertices", 8, gfx.MemoryDeviceLocal)

	cmd, err := env.dev.CreateCommandBuffer()
	require.NoError(t, err)
	defer cmd.Destroy()
	cmd.Begin()
	cmd.Copy(staging, vertices, 8)
	require.NoError(t, cmd.End())
	assert.Zero(t, env.queue.writes)
}

func TestCommandBufferRecordingErrors(t *testing.T) {
	env := newTestEnv(t)
	pass := env.pass(t)
	fb := env.target(t, pass, 8, 8)
	staging := env.buffer(t, "staging", 8, gfx.MemoryHostVisible)
	vertices := env.buffer(t, "vertices", 8, gfx.MemoryDeviceLocal)

	tests := []struct {
		name   string
		record func(cmd gfx.CommandBuffer)
		want   error
	}{
		{"vertex buffer outside pass", func(cmd gfx.CommandBuffer) {
			cmd.BindVertexBuffer(vertices)
		}, gfx.ErrRenderPassState},
		{"copy inside pass", func(cmd gfx.CommandBuffer) {
			cmd.BeginRenderPass(pass, fb)
			cmd.Copy(staging, vertices, 8)
			cmd.EndRenderPass()
		}, gfx.ErrRenderPassState},
		{"unterminated pass", func(cmd gfx.CommandBuffer) {
			cmd.BeginRenderPass(pass, fb)
		}, gfx.ErrRenderPassState},
		{"copy out of range", func(cmd gfx.CommandBuffer) {
			cmd.Copy(staging, vertices, 16)
		}, gfx.ErrOutOfRange},
		{"draw without pipeline", func(cmd gfx.CommandBuffer) {
			cmd.BeginRenderPass(pass, fb)
			cmd.DrawIndexed(3)
			cmd.EndRenderPass()
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := env.dev.CreateCommandBuffer()
			require.NoError(t, err)
			defer cmd.Destroy()
			cmd.Begin()
			tt.record(cmd)
			err = cmd.End()
			if tt.want == nil {
				assert.Error(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	cmd, err := env.dev.CreateCommandBuffer()
	require.NoError(t, err)
	defer cmd.Destroy()
	assert.ErrorIs(t, cmd.End(), gfx.ErrNotRecording)
	assert.ErrorIs(t, env.dev.Queue().Execute(cmd, nil, nil, nil), ErrNotExecutable)
}

func TestPipelinePrimitiveRestart(t *testing.T) {
	env := newTestEnv(t)
	pass := env.pass(t)
	newTestPipeline(t, env, pass, false)
	newTestPipeline(t, env, pass, true)

	require.Len(t, env.spy.pipelines, 2)
	assert.Nil(t, env.spy.pipelines[0].Primitive.StripIndexFormat)
	strip := env.spy.pipelines[1].Primitive.StripIndexFormat
	require.NotNil(t, strip)
	assert.Equal(t, gputypes.IndexFormatUint32, *strip)
	assert.Equal(t, gputypes.TextureFormatBGRA8Unorm, env.spy.pipelines[1].Fragment.Targets[0].Format)
}

func TestShaderSource(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.dev.CreateShader(&gfx.ShaderDescriptor{Label: "wgsl", WGSL: testShader})
	require.NoError(t, err)

	spirv := newTestEnv(t, WithSPIRV())
	_, err = spirv.dev.CreateShader(&gfx.ShaderDescriptor{Label: "spirv", WGSL: testShader})
	require.NoError(t, err)

	require.Len(t, env.spy.shaders, 1)
	assert.Equal(t, testShader, env.spy.shaders[0].Source.WGSL)
	require.Len(t, spirv.spy.shaders, 1)
	words := spirv.spy.shaders[0].Source.SPIRV
	require.NotEmpty(t, words)
	assert.Equal(t, uint32(0x07230203), words[0], "SPIR-V magic number")
}
