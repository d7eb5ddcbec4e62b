package batch2d

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/batch2d/gfx"
	"github.com/gogpu/batch2d/internal/ring"
)

// shapeConfig is the fixed configuration of one primitive kind.
type shapeConfig struct {
	name       string
	shader     string
	stride     int
	attributes []gputypes.VertexAttribute
	topology   gputypes.PrimitiveTopology
	restart    bool
	lineWidth  bool

	// bindings lists the descriptor bindings after the projection uniform.
	bindings []gfx.DescriptorBinding

	// capacity returns the vertex and index capacity of a batch holding n
	// primitives.
	capacity func(n int) (vertices, indices int)
}

// shape is the per-primitive strategy of a renderer. Everything that
// differs between rects, lines and circles lives behind it; the session,
// flush and synchronization logic is shared.
type shape[P any] interface {
	config() shapeConfig

	// create allocates resources the shape owns and binds them into set.
	create(dev gfx.Device, set gfx.DescriptorSet) error
	release()

	// geometry returns the number of vertices and indices p appends.
	geometry(p *P) (vertices, indices int)

	// mustFlush reports a draw-state conflict between p and the batch.
	mustFlush(b *batch, p *P) bool

	// emit appends p to the batch. The batch has room for it.
	emit(b *batch, p *P, xf vertexTransform)

	// prepare updates per-batch descriptor bindings before recording.
	prepare(b *batch, set gfx.DescriptorSet)

	// record adds per-batch dynamic state before the render pass begins.
	record(b *batch, cmd gfx.CommandBuffer)
}

// Stats counts renderer activity since creation.
type Stats struct {
	// Flushes is the number of submissions, empty ones included.
	Flushes uint64

	// Draws is the number of submissions that issued a draw call.
	Draws uint64

	// Primitives is the number of primitives accepted by draw calls.
	Primitives uint64
}

// renderer is the batching engine shared by every primitive kind.
//
// A renderer owns a ring of two batches, a three-slot semaphore ring for
// chaining submissions within a session, one fence guarding reuse of its
// command buffer and descriptor set, and the pipeline objects of its shape.
// It is not safe for concurrent use.
type renderer[P any] struct {
	shape shape[P]
	cfg   shapeConfig
	log   *slog.Logger
	label string

	dev   gfx.Device
	queue gfx.Queue
	pass  gfx.RenderPass

	shader    gfx.Shader
	setLayout gfx.DescriptorSetLayout
	pipeline  gfx.Pipeline
	uniform   gfx.Buffer
	set       gfx.DescriptorSet
	cmd       gfx.CommandBuffer
	fence     gfx.Fence
	sems      *ring.SemaphoreRing
	batches   *ring.Ring[*batch]
	created   bool

	drawing  bool
	target   gfx.Framebuffer
	width    uint32
	height   uint32
	viewport Viewport
	xf       vertexTransform
	matrices [matricesSize]byte
	err      error
	stats    Stats
}

// newRenderer creates every GPU object of a renderer. On failure the
// objects created so far are released.
func newRenderer[P any](dev gfx.Device, pass gfx.RenderPass, s shape[P], o options) (r *renderer[P], err error) {
	if dev == nil || pass == nil {
		return nil, ErrNilDevice
	}

	cfg := s.config()
	r = &renderer[P]{
		shape: s,
		cfg:   cfg,
		log:   o.logger.With("renderer", cfg.name),
		label: cfg.name,
		dev:   dev,
		queue: dev.Queue(),
		pass:  pass,
	}
	if o.label != "" {
		r.label = o.label + "_" + cfg.name
	}

	defer func() {
		if err != nil {
			r.release()
			r = nil
		}
	}()

	if err = r.createPipeline(); err != nil {
		return r, err
	}

	r.uniform, err = dev.CreateBuffer(&gfx.BufferDescriptor{
		Label:  r.label + "_matrices",
		Size:   matricesSize,
		Memory: gfx.MemoryDeviceLocal,
		Usage:  gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return r, fmt.Errorf("batch2d: %s: create uniform buffer: %w", cfg.name, err)
	}

	r.set, err = dev.CreateDescriptorSet(r.setLayout)
	if err != nil {
		return r, fmt.Errorf("batch2d: %s: create descriptor set: %w", cfg.name, err)
	}
	r.set.UpdateUniformBinding(0, r.uniform)

	if err = s.create(dev, r.set); err != nil {
		return r, fmt.Errorf("batch2d: %s: %w", cfg.name, err)
	}
	r.created = true

	r.cmd, err = dev.CreateCommandBuffer()
	if err != nil {
		return r, fmt.Errorf("batch2d: %s: create command buffer: %w", cfg.name, err)
	}

	// Signaled so the first flush does not wait.
	r.fence, err = dev.CreateFence(true)
	if err != nil {
		return r, fmt.Errorf("batch2d: %s: create fence: %w", cfg.name, err)
	}

	r.sems, err = ring.NewSemaphoreRing(dev)
	if err != nil {
		return r, fmt.Errorf("batch2d: %s: %w", cfg.name, err)
	}

	vertices, indices := cfg.capacity(o.maxPrimitives)
	r.batches, err = ring.New(func(i int) (*batch, error) {
		return newBatch(dev, batchConfig{
			label:         fmt.Sprintf("%s_batch%d", r.label, i),
			stride:        cfg.stride,
			maxVertices:   vertices,
			maxIndices:    indices,
			maxPrimitives: o.maxPrimitives,
			maxTextures:   o.maxTextures,
		})
	}, (*batch).destroy)
	if err != nil {
		return r, fmt.Errorf("batch2d: %s: create batches: %w", cfg.name, err)
	}

	r.log.Debug("renderer created",
		"max_primitives", o.maxPrimitives,
		"max_vertices", vertices,
		"max_indices", indices)
	return r, nil
}

// createPipeline creates the shader, descriptor layout and pipeline.
func (r *renderer[P]) createPipeline() error {
	var err error
	cfg := r.cfg

	r.shader, err = r.dev.CreateShader(&gfx.ShaderDescriptor{
		Label: r.label + "_shader",
		WGSL:  cfg.shader,
	})
	if err != nil {
		return fmt.Errorf("batch2d: %s: create shader: %w", cfg.name, err)
	}

	bindings := make([]gfx.DescriptorBinding, 0, 1+len(cfg.bindings))
	bindings = append(bindings, gfx.DescriptorBinding{
		Binding: 0,
		Kind:    gfx.BindingUniform,
		Stages:  gputypes.ShaderStageVertex,
	})
	bindings = append(bindings, cfg.bindings...)

	r.setLayout, err = r.dev.CreateDescriptorSetLayout(&gfx.DescriptorSetLayoutDescriptor{
		Label:    r.label + "_layout",
		Bindings: bindings,
	})
	if err != nil {
		return fmt.Errorf("batch2d: %s: create descriptor set layout: %w", cfg.name, err)
	}

	r.pipeline, err = r.dev.CreatePipeline(&gfx.PipelineDescriptor{
		Label:         r.label + "_pipeline",
		Shader:        r.shader,
		VertexEntry:   "vs_main",
		FragmentEntry: "fs_main",
		Layout:        r.setLayout,
		Pass:          r.pass,
		Vertex: gputypes.VertexBufferLayout{
			ArrayStride: uint64(cfg.stride),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  cfg.attributes,
		},
		Topology:         cfg.topology,
		PrimitiveRestart: cfg.restart,
		DynamicLineWidth: cfg.lineWidth,
		Blend:            blendPremultiplied(),
	})
	if err != nil {
		return fmt.Errorf("batch2d: %s: create pipeline: %w", cfg.name, err)
	}
	return nil
}

// release destroys every GPU object in reverse creation order. Objects
// never created are skipped.
func (r *renderer[P]) release() {
	if r.batches != nil {
		r.batches.Destroy((*batch).destroy)
		r.batches = nil
	}
	if r.sems != nil {
		r.sems.Destroy()
		r.sems = nil
	}
	if r.fence != nil {
		r.fence.Destroy()
		r.fence = nil
	}
	if r.cmd != nil {
		r.cmd.Destroy()
		r.cmd = nil
	}
	if r.created {
		r.shape.release()
		r.created = false
	}
	if r.set != nil {
		r.set.Destroy()
		r.set = nil
	}
	if r.uniform != nil {
		r.uniform.Destroy()
		r.uniform = nil
	}
	if r.pipeline != nil {
		r.pipeline.Destroy()
		r.pipeline = nil
	}
	if r.setLayout != nil {
		r.setLayout.Destroy()
		r.setLayout = nil
	}
	if r.shader != nil {
		r.shader.Destroy()
		r.shader = nil
	}
}

// destroy waits for the last submission and releases the renderer.
func (r *renderer[P]) destroy() {
	if r.drawing {
		panic("batch2d: Destroy called during a drawing session")
	}
	if r.fence != nil {
		if err := r.fence.Wait(); err != nil {
			r.log.Warn("wait for last submission", "err", err)
		}
	}
	r.release()
	r.log.Debug("renderer destroyed")
}

// begin opens a drawing session on target.
func (r *renderer[P]) begin(wait gfx.Semaphore, target gfx.Framebuffer, vp *Viewport) error {
	if r.drawing {
		panic("batch2d: BeginDrawing called while a drawing session is open")
	}
	if target == nil {
		return ErrInvalidTarget
	}
	w, h := target.Size()
	if w == 0 || h == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidTarget, w, h)
	}

	// TODO: reject framebuffers created for a different render pass once
	// gfx.Framebuffer exposes its pass.
	v := DefaultViewport(target)
	if vp != nil {
		v = vp.normalize(w, h)
	}

	r.target = target
	r.width, r.height = w, h
	r.viewport = v
	r.xf = newTransform(v, w, h)
	putMat4(r.matrices[:], projection(w, h))
	r.err = nil

	r.batches.Current().reset()
	r.sems.Begin(wait)
	r.drawing = true
	return nil
}

// draw appends one primitive, flushing first when it does not fit or
// conflicts with the batch's draw state.
func (r *renderer[P]) draw(p *P) {
	if !r.drawing {
		panic("batch2d: draw called outside a drawing session")
	}
	if r.err != nil {
		return
	}

	v, i := r.shape.geometry(p)
	b := r.batches.Current()
	if !b.fits(v, i) || r.shape.mustFlush(b, p) {
		r.flushImplicit()
		if r.err != nil {
			return
		}
		b = r.batches.Current()
		if !b.fits(v, i) {
			panic(fmt.Sprintf("batch2d: %s primitive of %d vertices does not fit an empty batch", r.cfg.name, v))
		}
	}

	r.shape.emit(b, p, r.xf)
	b.count++
	r.stats.Primitives++
}

// flushImplicit submits the current batch mid-session, chaining it
// between the current and next ring semaphores.
func (r *renderer[P]) flushImplicit() {
	err := r.flush(r.sems.Current(), r.sems.Next())
	r.sems.Advance()
	if err != nil {
		if r.err == nil {
			r.err = err
		}
		r.log.Error("flush failed", "err", err)
	}
}

// end submits the remaining batch, signaling signal, and closes the
// session. It returns the first error of the session.
func (r *renderer[P]) end(signal gfx.Semaphore) error {
	if !r.drawing {
		panic("batch2d: EndDrawing called without BeginDrawing")
	}

	err := r.err
	if err == nil {
		err = r.flush(r.sems.Current(), signal)
	} else {
		r.batches.Current().reset()
	}

	r.sems.End()
	r.drawing = false
	r.target = nil
	r.err = nil
	return err
}

// flush records and submits the current batch. An empty batch still
// submits an empty command buffer so wait and signal stay balanced.
func (r *renderer[P]) flush(wait, signal gfx.Semaphore) error {
	b := r.batches.Current()
	fail := func(err error) error {
		b.reset()
		return err
	}

	if err := r.fence.Wait(); err != nil {
		return fail(fmt.Errorf("batch2d: %s: wait for previous submission: %w", r.cfg.name, err))
	}

	if b.indexCount > 0 {
		if err := r.uniform.Copy(r.matrices[:]); err != nil {
			return fail(fmt.Errorf("batch2d: %s: upload projection: %w", r.cfg.name, err))
		}
		r.shape.prepare(b, r.set)
	}

	r.cmd.Reset()
	r.cmd.Begin()
	if b.indexCount > 0 {
		r.recordDraw(b)
	}
	if err := r.cmd.End(); err != nil {
		return fail(fmt.Errorf("batch2d: %s: record: %w", r.cfg.name, err))
	}

	r.fence.Reset()
	if err := r.queue.Execute(r.cmd, wait, signal, r.fence); err != nil {
		return fail(fmt.Errorf("batch2d: %s: submit: %w", r.cfg.name, err))
	}

	r.stats.Flushes++
	if b.indexCount > 0 {
		r.stats.Draws++
	}
	r.log.Debug("flush",
		"primitives", b.count,
		"vertices", b.vertexCount,
		"indices", b.indexCount,
		"textures", len(b.textures),
		"slot", r.batches.Index())

	b.reset()
	r.batches.Advance()
	return nil
}

// recordDraw records the copies and the draw of a non-empty batch.
func (r *renderer[P]) recordDraw(b *batch) {
	cmd := r.cmd
	cmd.Copy(b.vertexStaging, b.vertices, uint64(b.vertexCount*b.stride))
	cmd.Copy(b.indexStaging, b.indices, uint64(b.indexCount*indexSize))

	vr := r.viewport.Rect
	cmd.SetScissor(r.viewport.scissor(r.width, r.height))
	cmd.SetViewport(float32(vr.Min.X), float32(vr.Min.Y), float32(vr.Dx()), float32(vr.Dy()))
	r.shape.record(b, cmd)

	cmd.BindPipeline(r.pipeline)
	cmd.BindDescriptorSet(r.set)
	cmd.BeginRenderPass(r.pass, r.target)
	cmd.BindVertexBuffer(b.vertices)
	cmd.BindIndexBuffer(b.indices, gputypes.IndexFormatUint32)
	cmd.DrawIndexed(uint32(b.indexCount))
	cmd.EndRenderPass()
}

// blendPremultiplied returns the blend state for premultiplied shader
// output.
func blendPremultiplied() *gputypes.BlendState {
	s := gputypes.BlendStatePremultiplied()
	return &s
}
