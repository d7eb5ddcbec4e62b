package native

import (
	"testing"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/batch2d/gfx"
)

// createNoopDevice opens a device on the noop HAL backend.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	instance, err := noop.API{}.CreateInstance(nil)
	require.NoError(t, err)
	adapters := instance.EnumerateAdapters(nil)
	require.NotEmpty(t, adapters)
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		open.Device.Destroy()
		instance.Destroy()
	})
	return open.Device, open.Queue
}

// spyDevice observes calls into a HAL device.
type spyDevice struct {
	hal.Device

	unmappable bool
	bindGroups int
	pipelines  []hal.RenderPipelineDescriptor
	shaders    []hal.ShaderModuleDescriptor
}

func (d *spyDevice) MapBuffer(b hal.Buffer, offset, size uint64) (hal.BufferMapping, error) {
	if d.unmappable {
		return hal.BufferMapping{}, hal.ErrInvalidMapRange
	}
	return d.Device.MapBuffer(b, offset, size)
}

func (d *spyDevice) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	d.bindGroups++
	return d.Device.CreateBindGroup(desc)
}

func (d *spyDevice) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	d.pipelines = append(d.pipelines, *desc)
	return d.Device.CreateRenderPipeline(desc)
}

func (d *spyDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	d.shaders = append(d.shaders, *desc)
	return d.Device.CreateShaderModule(desc)
}

// spyQueue observes calls into a HAL queue. lag makes that many
// PollCompleted calls report the latest submission as still running.
type spyQueue struct {
	hal.Queue

	copies  bool
	writes  int
	submits int
	lag     int
}

func (q *spyQueue) SupportsCommandBufferCopies() bool { return q.copies }

func (q *spyQueue) WriteBuffer(b hal.Buffer, offset uint64, data []byte) error {
	q.writes++
	return q.Queue.WriteBuffer(b, offset, data)
}

func (q *spyQueue) Submit(cbs []hal.CommandBuffer) (uint64, error) {
	q.submits++
	return q.Queue.Submit(cbs)
}

func (q *spyQueue) PollCompleted() uint64 {
	done := q.Queue.PollCompleted()
	if q.lag > 0 {
		q.lag--
		return done - 1
	}
	return done
}

type testEnv struct {
	dev   *Device
	spy   *spyDevice
	queue *spyQueue
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	return newTestEnvWithQueue(t, spyQueue{}, opts...)
}

// newTestEnvWithQueue wraps the noop queue in q. Fields New reads once,
// such as copies, must be set here.
func newTestEnvWithQueue(t *testing.T, q spyQueue, opts ...Option) *testEnv {
	t.Helper()
	raw, rawQueue := createNoopDevice(t)
	q.Queue = rawQueue
	env := &testEnv{spy: &spyDevice{Device: raw}, queue: &q}
	dev, err := New(env.spy, env.queue, opts...)
	require.NoError(t, err)
	env.dev = dev
	return env
}

// contents reads a buffer through a fresh HAL mapping. The noop backend
// maps every buffer, device-local ones included.
func (e *testEnv) contents(t *testing.T, buf gfx.Buffer) []byte {
	t.Helper()
	b := buf.(*Buffer)
	m, err := e.spy.Device.MapBuffer(b.raw, 0, b.size)
	require.NoError(t, err)
	return append([]byte(nil), unsafe.Slice((*byte)(m.Ptr), b.size)...)
}

func (e *testEnv) buffer(t *testing.T, label string, size uint64, mem gfx.MemoryKind) gfx.Buffer {
	t.Helper()
	usage := gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	if mem == gfx.MemoryHostVisible {
		usage = gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc
	}
	buf, err := e.dev.CreateBuffer(&gfx.BufferDescriptor{Label: label, Size: size, Memory: mem, Usage: usage})
	require.NoError(t, err)
	t.Cleanup(buf.Destroy)
	return buf
}

func (e *testEnv) target(t *testing.T, pass gfx.RenderPass, w, h uint32) gfx.Framebuffer {
	t.Helper()
	tex, err := e.dev.CreateTexture(&gfx.TextureDescriptor{
		Label:  "target",
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatBGRA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	require.NoError(t, err)
	t.Cleanup(tex.Destroy)
	fb, err := e.dev.CreateFramebuffer(pass, tex)
	require.NoError(t, err)
	t.Cleanup(fb.Destroy)
	return fb
}

func (e *testEnv) pass(t *testing.T) gfx.RenderPass {
	t.Helper()
	pass, err := e.dev.CreateRenderPass(&gfx.RenderPassDescriptor{
		Label:  "main",
		Format: gputypes.TextureFormatBGRA8Unorm,
		LoadOp: gputypes.LoadOpClear,
	})
	require.NoError(t, err)
	return pass
}
