// Package gfxtest provides a recording fake gfx.Device.
//
// By default the fake executes submissions synchronously: Execute performs
// the recorded buffer copies, snapshots the geometry bound for drawing and
// signals the fence before returning. SetDeferredCompletion keeps work
// pending until its fence is waited on, which exposes CPU writes to memory
// the GPU has not consumed yet. The fake enforces the synchronization rules
// a real GPU API would fail on (submitting with a signaled fence, waiting on
// a semaphore nobody signaled, signaling a semaphore twice, drawing outside
// a render pass) and reports violations as errors from End or Execute.
package gfxtest

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/batch2d/gfx"
)

// Errors reported for synchronization misuse.
var (
	// ErrFenceSignaled is returned by Execute when the fence was not reset.
	ErrFenceSignaled = errors.New("gfxtest: submitting with a signaled fence")

	// ErrWaitUnsignaled is returned by Execute when the wait semaphore has no
	// pending signal.
	ErrWaitUnsignaled = errors.New("gfxtest: waiting on a semaphore that is never signaled")

	// ErrSemaphoreSignaled is returned by Execute when the signal semaphore
	// already carries an unconsumed signal.
	ErrSemaphoreSignaled = errors.New("gfxtest: signaling a semaphore that is already signaled")

	// ErrNotExecutable is returned by Execute for a command buffer that has
	// not been ended.
	ErrNotExecutable = errors.New("gfxtest: command buffer is not executable")

	// ErrLineWidthUnset is returned by End when a pipeline with dynamic line
	// width draws before SetLineWidth.
	ErrLineWidthUnset = errors.New("gfxtest: draw with dynamic line width but no SetLineWidth")

	// ErrIncompleteSet is returned by End when a bound descriptor set has
	// bindings that were never updated.
	ErrIncompleteSet = errors.New("gfxtest: descriptor set has unset bindings")

	// ErrDestroyed is recorded when a resource is destroyed twice.
	ErrDestroyed = errors.New("gfxtest: resource destroyed twice")

	// ErrInFlight is returned or recorded when a resource is submitted,
	// reset or updated while a pending submission still uses it.
	ErrInFlight = errors.New("gfxtest: resource used by a pending submission")

	// ErrStagingOverwritten is recorded when a copy source changed between
	// submission and completion.
	ErrStagingOverwritten = errors.New("gfxtest: staging memory written while in flight")
)

// EventKind classifies an entry of Device.Trace.
type EventKind uint8

// Trace events.
const (
	EventCopy     EventKind = iota + 1 // a copy was recorded
	EventExecute                       // a command buffer was submitted
	EventComplete                      // a submission finished
	EventWait                          // a fence was waited on
)

func (k EventKind) String() string {
	switch k {
	case EventCopy:
		return "copy"
	case EventExecute:
		return "execute"
	case EventComplete:
		return "complete"
	case EventWait:
		return "wait"
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Device is a recording fake gfx.Device. The zero value is not usable; use
// NewDevice.
type Device struct {
	queue *Queue

	live     int
	failures map[string]error
	misuse   []error
	deferred bool

	// Buffers lists every buffer created, in creation order.
	Buffers []*Buffer

	// Submissions lists every successful Execute, in order. Vertices and
	// Indices are filled in when the submission completes.
	Submissions []*Submission

	// Trace lists copies, submissions, completions and fence waits in the
	// order they happened.
	Trace []EventKind
}

var _ gfx.Device = (*Device)(nil)

// NewDevice creates a fake device.
func NewDevice() *Device {
	d := &Device{failures: make(map[string]error)}
	d.queue = &Queue{dev: d}
	return d
}

// FailOn makes the next call to the named Create method (for example
// "CreatePipeline") fail with err.
func (d *Device) FailOn(method string, err error) {
	d.failures[method] = err
}

// SetDeferredCompletion controls whether submissions stay pending until
// their fence is waited on.
func (d *Device) SetDeferredCompletion(on bool) {
	d.deferred = on
}

// Pending returns the number of submissions that have not completed.
func (d *Device) Pending() int {
	return len(d.queue.pending)
}

// Live returns the number of resources created and not yet destroyed.
func (d *Device) Live() int {
	return d.live
}

// Misuse returns lifecycle errors observed outside of End and Execute,
// such as double destroys.
func (d *Device) Misuse() []error {
	return d.misuse
}

// Reset forgets recorded submissions and the trace.
func (d *Device) Reset() {
	d.Submissions = nil
	d.Trace = nil
}

func (d *Device) trace(k EventKind) {
	d.Trace = append(d.Trace, k)
}

// NewSemaphore creates a semaphore outside of any renderer, optionally
// carrying a pending signal (as if a previous submission signaled it).
func (d *Device) NewSemaphore(signaled bool) *Semaphore {
	s := &Semaphore{signaled: signaled}
	d.track(&s.resource)
	return s
}

// NewTarget creates a render pass compatible framebuffer of the given size.
func (d *Device) NewTarget(pass gfx.RenderPass, width, height uint32) *Framebuffer {
	tex := &Texture{Width: width, Height: height, Format: gputypes.TextureFormatBGRA8Unorm}
	d.track(&tex.resource)
	fb := &Framebuffer{Pass: asPass(pass), Texture: tex, width: width, height: height}
	d.track(&fb.resource)
	return fb
}

// Queue returns the device queue.
func (d *Device) Queue() gfx.Queue {
	return d.queue
}

// CreateBuffer creates a buffer backed by Go memory.
func (d *Device) CreateBuffer(desc *gfx.BufferDescriptor) (gfx.Buffer, error) {
	if err := d.fail("CreateBuffer"); err != nil {
		return nil, err
	}
	b := &Buffer{
		Label:  desc.Label,
		Usage:  desc.Usage,
		memory: desc.Memory,
		data:   make([]byte, desc.Size),
	}
	d.track(&b.resource)
	d.Buffers = append(d.Buffers, b)
	return b, nil
}

// CreateTexture creates a texture.
func (d *Device) CreateTexture(desc *gfx.TextureDescriptor) (gfx.Texture, error) {
	if err := d.fail("CreateTexture"); err != nil {
		return nil, err
	}
	t := &Texture{Label: desc.Label, Width: desc.Width, Height: desc.Height, Format: desc.Format}
	d.track(&t.resource)
	return t, nil
}

// CreateSampler creates a sampler.
func (d *Device) CreateSampler(desc *gfx.SamplerDescriptor) (gfx.Sampler, error) {
	if err := d.fail("CreateSampler"); err != nil {
		return nil, err
	}
	s := &Sampler{Filter: desc.Filter}
	d.track(&s.resource)
	return s, nil
}

// CreateShader creates a shader holding the source.
func (d *Device) CreateShader(desc *gfx.ShaderDescriptor) (gfx.Shader, error) {
	if err := d.fail("CreateShader"); err != nil {
		return nil, err
	}
	s := &Shader{Label: desc.Label, WGSL: desc.WGSL}
	d.track(&s.resource)
	return s, nil
}

// CreateDescriptorSetLayout creates a layout.
func (d *Device) CreateDescriptorSetLayout(desc *gfx.DescriptorSetLayoutDescriptor) (gfx.DescriptorSetLayout, error) {
	if err := d.fail("CreateDescriptorSetLayout"); err != nil {
		return nil, err
	}
	l := &DescriptorSetLayout{Bindings: append([]gfx.DescriptorBinding(nil), desc.Bindings...)}
	d.track(&l.resource)
	return l, nil
}

// CreateDescriptorSet creates an empty descriptor set.
func (d *Device) CreateDescriptorSet(layout gfx.DescriptorSetLayout) (gfx.DescriptorSet, error) {
	if err := d.fail("CreateDescriptorSet"); err != nil {
		return nil, err
	}
	l, ok := layout.(*DescriptorSetLayout)
	if !ok {
		return nil, gfx.ErrForeignResource
	}
	s := &DescriptorSet{
		Layout:   l,
		Uniforms: make(map[uint32]*Buffer),
		Textures: make(map[uint32]*Texture),
		Samplers: make(map[uint32]*Sampler),
	}
	d.track(&s.resource)
	return s, nil
}

// CreatePipeline creates a pipeline holding a copy of desc.
func (d *Device) CreatePipeline(desc *gfx.PipelineDescriptor) (gfx.Pipeline, error) {
	if err := d.fail("CreatePipeline"); err != nil {
		return nil, err
	}
	p := &Pipeline{Desc: *desc}
	d.track(&p.resource)
	return p, nil
}

// CreateRenderPass creates a render pass.
func (d *Device) CreateRenderPass(desc *gfx.RenderPassDescriptor) (gfx.RenderPass, error) {
	if err := d.fail("CreateRenderPass"); err != nil {
		return nil, err
	}
	p := &RenderPass{Desc: *desc}
	d.track(&p.resource)
	return p, nil
}

// CreateFramebuffer creates a framebuffer over the attachment.
func (d *Device) CreateFramebuffer(pass gfx.RenderPass, attachment gfx.Texture) (gfx.Framebuffer, error) {
	if err := d.fail("CreateFramebuffer"); err != nil {
		return nil, err
	}
	t, ok := attachment.(*Texture)
	if !ok {
		return nil, gfx.ErrForeignResource
	}
	fb := &Framebuffer{Pass: asPass(pass), Texture: t, width: t.Width, height: t.Height}
	d.track(&fb.resource)
	return fb, nil
}

// CreateCommandBuffer creates a command buffer.
func (d *Device) CreateCommandBuffer() (gfx.CommandBuffer, error) {
	if err := d.fail("CreateCommandBuffer"); err != nil {
		return nil, err
	}
	c := &CommandBuffer{}
	d.track(&c.resource)
	return c, nil
}

// CreateFence creates a fence.
func (d *Device) CreateFence(signaled bool) (gfx.Fence, error) {
	if err := d.fail("CreateFence"); err != nil {
		return nil, err
	}
	f := &Fence{signaled: signaled}
	d.track(&f.resource)
	return f, nil
}

// CreateSemaphore creates an unsignaled semaphore.
func (d *Device) CreateSemaphore() (gfx.Semaphore, error) {
	if err := d.fail("CreateSemaphore"); err != nil {
		return nil, err
	}
	return d.NewSemaphore(false), nil
}

func (d *Device) fail(method string) error {
	err, ok := d.failures[method]
	if !ok {
		return nil
	}
	delete(d.failures, method)
	return fmt.Errorf("gfxtest: %s: %w", method, err)
}

func (d *Device) track(r *resource) {
	r.dev = d
	d.live++
}

// resource tracks the live count of the owning device.
type resource struct {
	dev       *Device
	destroyed bool
}

// Destroy releases the resource.
func (r *resource) Destroy() {
	if r.destroyed {
		r.dev.misuse = append(r.dev.misuse, ErrDestroyed)
		return
	}
	r.destroyed = true
	r.dev.live--
}

// Destroyed reports whether Destroy was called.
func (r *resource) Destroyed() bool {
	return r.destroyed
}

func asPass(p gfx.RenderPass) *RenderPass {
	rp, _ := p.(*RenderPass)
	return rp
}
