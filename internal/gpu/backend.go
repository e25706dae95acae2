package gpu

import (
	"errors"
	"fmt"
)

type backendState uint8

const (
	stateUninitialized backendState = iota
	stateRecording
	stateFailed
	stateShutdown
)

// deferredRelease runs fn once the fence passes value.
type deferredRelease struct {
	fence uint64
	fn    func()
}

// Stats is a snapshot of backend counters.
type Stats struct {
	Frames         uint64
	Dropped        uint64
	Draws          uint64
	FenceWaits     uint64
	Kicks          uint64
	Barriers       uint64
	BarrierFlushes uint64
	PSOHits        uint64
	PSOMisses      uint64
	PSOCount       int
	RingWraps      uint64
	Descriptors    map[DescriptorType][2]uint32
	Memory         MemoryStats
}

// Backend owns the device objects of one presentation surface and drives
// the frame state machine. After Init it is always recording: EndFrame
// submits, presents and begins the next frame before returning.
//
// Backend is not safe for concurrent use.
type Backend struct {
	cfg    Config
	device Device
	state  backendState

	queue       CommandQueue
	fence       Fence
	fenceValues []uint64
	frameIndex  uint32
	allocators  []CommandAllocator
	list        CommandList

	swapChain   SwapChain
	backBuffers []*Resource
	rtvs        []DescriptorHandle
	depth       *Resource
	dsv         DescriptorHandle
	viewport    Viewport

	heaps   *DescriptorAllocator
	rootSig *RootSignature
	psos    *PipelineCache
	ring    *UploadRing
	frameCB *Buffer
	tracker *StateTracker

	samplers       map[SamplerDesc]DescriptorHandle
	defaultTexture *Texture
	memory         *MemoryBudget

	matrices       *MatrixStacks
	constants      FrameConstants
	constantsDirty bool

	key          PSOKey
	texture      *Texture
	boundPSO     NativePipeline
	boundTex     *Texture
	boundVersion uint32
	boundSampler DescriptorHandle
	vb           VertexBufferView
	edges        []Vertex

	deferred []deferredRelease
	failure  error

	frames     uint64
	dropped    uint64
	draws      uint64
	fenceWaits uint64
	kicks      uint64
}

// NewBackend returns an uninitialized backend for device.
func NewBackend(device Device, cfg Config) *Backend {
	return &Backend{
		cfg:       cfg,
		device:    device,
		matrices:  NewMatrixStacks(),
		constants: DefaultFrameConstants(),
		key:       DefaultPSOKey(),
	}
}

// Init creates every device object, begins the first frame and uploads the
// default texture into it. Any failure leaves the backend uninitialized with all
// partial objects released.
func (b *Backend) Init() (err error) {
	if b.state != stateUninitialized {
		return ErrAlreadyInitialized
	}
	defer func() {
		if err != nil {
			b.release()
			b.state = stateUninitialized
			err = fmt.Errorf("%w: %w", ErrInit, err)
		}
	}()
	if err = b.cfg.Validate(); err != nil {
		return err
	}
	shaders := DefaultShaders()
	if b.cfg.Shaders != nil {
		shaders = *b.cfg.Shaders
	}
	if b.cfg.PrecompileShaders {
		if shaders, err = CompileShaders(shaders); err != nil {
			return err
		}
	}

	if b.queue, err = b.device.CreateCommandQueue(); err != nil {
		return fmt.Errorf("create command queue: %w", err)
	}
	if b.fence, err = b.device.CreateFence(0); err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	b.swapChain, err = b.device.CreateSwapChain(b.queue, SwapChainDesc{
		Width:       b.cfg.Width,
		Height:      b.cfg.Height,
		BufferCount: b.cfg.Frames,
		Format:      b.cfg.BackBufferFormat,
	})
	if err != nil {
		return fmt.Errorf("create swap chain: %w", err)
	}
	if b.heaps, err = NewDescriptorAllocator(b.device, b.cfg.Heaps); err != nil {
		return err
	}
	b.memory = NewMemoryBudget(b.cfg.TextureBudgetMB)
	if b.rtvs, err = b.allocRTVs(); err != nil {
		return err
	}
	if b.dsv, err = b.heaps.Alloc(DescriptorDSV, 1); err != nil {
		return err
	}
	if err = b.createRenderTargets(); err != nil {
		return err
	}

	b.rootSig = FixedFunctionRootSignature()
	if err = b.rootSig.Finalize(b.device); err != nil {
		return err
	}
	b.psos = NewPipelineCache(b.device, b.rootSig, shaders, b.cfg.BackBufferFormat, FormatDepth32)

	if b.ring, err = NewUploadRing(b.device, b.cfg.UploadRingSize); err != nil {
		return err
	}
	if b.cfg.GuardUploads {
		b.ring.SetGuard(b.fence)
	}
	cbSize := uint64(FrameConstantsStride) * uint64(b.cfg.Frames)
	if b.frameCB, err = NewBuffer(b.device, "frame-constants", cbSize, HeapUpload, StateGenericRead); err != nil {
		return err
	}

	b.fenceValues = make([]uint64, b.cfg.Frames)
	b.allocators = make([]CommandAllocator, b.cfg.Frames)
	for i := range b.allocators {
		if b.allocators[i], err = b.device.CreateCommandAllocator(); err != nil {
			return fmt.Errorf("create command allocator %d: %w", i, err)
		}
	}
	b.frameIndex = b.swapChain.CurrentBackBufferIndex()
	b.fenceValues[b.frameIndex] = 1
	if b.list, err = b.device.CreateCommandList(b.allocators[b.frameIndex]); err != nil {
		return fmt.Errorf("create command list: %w", err)
	}
	b.tracker = NewStateTracker(b.cfg.BarrierBatch)
	b.tracker.Bind(b.list)

	if err = b.createSamplers(); err != nil {
		return err
	}
	b.viewport = Viewport{Width: float32(b.cfg.Width), Height: float32(b.cfg.Height), MaxDepth: 1}
	b.state = stateRecording
	if err = b.BeginFrame(); err != nil {
		return err
	}
	// The default texture is uploaded inside the first frame so its ring
	// span belongs to that frame.
	b.defaultTexture, err = b.CreateTexture("default-white", 1, 1, [][]byte{{0xFF, 0xFF, 0xFF, 0xFF}})
	if err != nil {
		return err
	}
	b.defaultTexture.Sampler = SamplerDesc{MinFilter: FilterPoint, MagFilter: FilterPoint}

	slogger().Info("gpu: backend initialized",
		"width", b.cfg.Width, "height", b.cfg.Height,
		"frames", b.cfg.Frames, "ring", b.cfg.UploadRingSize, "guarded", b.cfg.GuardUploads)
	return nil
}

func (b *Backend) allocRTVs() ([]DescriptorHandle, error) {
	first, err := b.heaps.Alloc(DescriptorRTV, b.cfg.Frames)
	if err != nil {
		return nil, err
	}
	inc := b.heaps.Heap(DescriptorRTV).Increment()
	out := make([]DescriptorHandle, b.cfg.Frames)
	for i := range out {
		out[i] = first.Offset(i, inc)
	}
	return out, nil
}

// createRenderTargets wraps the swap-chain buffers and creates the depth
// buffer, writing their views into the slots allocated once at Init.
func (b *Backend) createRenderTargets() error {
	n := b.swapChain.BufferCount()
	if n != uint32(len(b.rtvs)) {
		return fmt.Errorf("swap chain has %d buffers, want %d", n, len(b.rtvs))
	}
	rtvHeap := b.heaps.Heap(DescriptorRTV)
	b.backBuffers = make([]*Resource, n)
	for i := range n {
		native := b.swapChain.BackBuffer(i)
		b.backBuffers[i] = NewResource(native, fmt.Sprintf("back-buffer-%d", i), StatePresent)
		if err := rtvHeap.WriteView(b.rtvs[i], View{Kind: ViewRTV, Resource: native, Format: b.cfg.BackBufferFormat}); err != nil {
			return err
		}
	}
	native, err := b.device.CreateTexture(TextureDesc{
		Label:        "depth",
		Width:        b.cfg.Width,
		Height:       b.cfg.Height,
		MipLevels:    1,
		Format:       FormatDepth32,
		DepthStencil: true,
		InitialState: StateDepthWrite,
	})
	if err != nil {
		return fmt.Errorf("create depth buffer: %w", err)
	}
	b.depth = NewResource(native, "depth", StateDepthWrite)
	return b.heaps.Heap(DescriptorDSV).WriteView(b.dsv, View{Kind: ViewDSV, Resource: native, Format: FormatDepth32})
}

// createSamplers writes one descriptor per expressible sampler state.
func (b *Backend) createSamplers() error {
	descs := AllSamplerDescs()
	first, err := b.heaps.Alloc(DescriptorSampler, uint32(len(descs)))
	if err != nil {
		return err
	}
	heap := b.heaps.Heap(DescriptorSampler)
	b.samplers = make(map[SamplerDesc]DescriptorHandle, len(descs))
	for i, d := range descs {
		h := first.Offset(i, heap.Increment())
		if err := heap.WriteView(h, View{Kind: ViewSampler, Sampler: d}); err != nil {
			return err
		}
		b.samplers[d] = h
	}
	return nil
}

func (b *Backend) ready() error {
	switch b.state {
	case stateUninitialized:
		return ErrNotInitialized
	case stateFailed:
		return fmt.Errorf("%w: %w", ErrBackendFailed, b.failure)
	case stateShutdown:
		return fmt.Errorf("%w: backend shut down", ErrNotInitialized)
	}
	return nil
}

// broken moves the backend to the failed state. Only Shutdown is accepted
// afterwards.
func (b *Backend) broken(err error) error {
	b.state = stateFailed
	b.failure = err
	slogger().Error("gpu: backend failed", "err", err)
	return err
}

// BeginFrame prepares the current back buffer for rendering and binds the
// per-frame state. EndFrame calls it, so callers only need it after Init
// failures are handled by hand.
func (b *Backend) BeginFrame() error {
	if err := b.ready(); err != nil {
		return err
	}
	b.tracker.TransitionResource(b.backBuffers[b.frameIndex], StateRenderTarget, true)
	b.ring.Reset()
	b.vb = VertexBufferView{}
	b.bindFrameState()
	b.writeFrameConstants()
	return nil
}

// bindFrameState records everything a freshly reset list needs before the
// first draw.
func (b *Backend) bindFrameState() {
	dsv := b.dsv
	b.list.SetRenderTargets(b.rtvs[b.frameIndex], &dsv)
	b.list.SetViewport(b.viewport)
	b.list.SetScissorRect(Rect{Right: int32(b.cfg.Width), Bottom: int32(b.cfg.Height)})
	b.list.SetDescriptorHeaps(b.heaps.ShaderVisibleHeaps()...)
	b.list.SetGraphicsRootSignature(b.rootSig.Native())
	b.boundPSO = nil
	b.boundTex = nil
	b.boundSampler = DescriptorHandle{}
}

// writeFrameConstants fills this frame's slot of the constant buffer.
func (b *Backend) writeFrameConstants() {
	if b.matrices.Dirty() {
		b.matrices.Clean(&b.constants)
	}
	off := uint64(b.frameIndex) * FrameConstantsStride
	b.constants.Pack(b.frameCB.Mapped()[off:])
	b.frameCB.Flush(off, FrameConstantsSize)
	b.list.SetGraphicsRootConstantBufferView(RootFrameConstants, b.frameCB.GPUAddress()+off)
	b.constantsDirty = false
}

// EndFrame transitions the back buffer for presentation, submits the frame,
// presents it and moves on to the next frame.
//
// A frame whose list fails to close, execute or present is dropped: the
// error is returned, but the backend still moves on and the next frame
// records into a fresh list. Only a failure to begin the next frame leaves
// the backend failed.
func (b *Backend) EndFrame() error {
	if err := b.ready(); err != nil {
		return err
	}
	b.tracker.TransitionResource(b.backBuffers[b.frameIndex], StatePresent, false)
	err := b.submit()
	if err == nil {
		if perr := b.swapChain.Present(b.cfg.VSync); perr != nil {
			err = fmt.Errorf("gpu: present: %w", perr)
		}
	}
	if err != nil {
		b.dropped++
		slogger().Warn("gpu: frame dropped", "frame", b.frames, "err", err)
	} else {
		b.frames++
	}
	if merr := b.MoveToNextFrame(); merr != nil {
		return errors.Join(err, b.broken(merr))
	}
	return err
}

// submit flushes pending barriers, closes the list and executes it. A list
// that fails to close is not executed. The list is closed afterwards either
// way.
func (b *Backend) submit() error {
	b.tracker.FlushResourceBarriers()
	if err := b.list.Close(); err != nil {
		return fmt.Errorf("gpu: close command list: %w", err)
	}
	if err := b.queue.ExecuteCommandLists(b.list); err != nil {
		return fmt.Errorf("gpu: execute: %w", err)
	}
	return nil
}

// MoveToNextFrame signals the fence for the submitted frame, waits until
// the next frame slot is free on the GPU, resets its allocator and begins
// recording into it.
func (b *Backend) MoveToNextFrame() error {
	current := b.fenceValues[b.frameIndex]
	if err := b.queue.Signal(b.fence, current); err != nil {
		return fmt.Errorf("gpu: signal fence: %w", err)
	}
	b.ring.Retire(current)

	b.frameIndex = b.swapChain.CurrentBackBufferIndex()
	if b.fence.CompletedValue() < b.fenceValues[b.frameIndex] {
		b.fenceWaits++
		if err := b.fence.Wait(b.fenceValues[b.frameIndex]); err != nil {
			return fmt.Errorf("gpu: wait for frame %d: %w", b.frameIndex, err)
		}
	}
	b.fenceValues[b.frameIndex] = current + 1
	b.runDeferred(b.fence.CompletedValue())

	if err := b.resetList(); err != nil {
		return err
	}
	return b.BeginFrame()
}

func (b *Backend) resetList() error {
	alloc := b.allocators[b.frameIndex]
	if err := alloc.Reset(); err != nil {
		return fmt.Errorf("gpu: reset allocator %d: %w", b.frameIndex, err)
	}
	if err := b.list.Reset(alloc); err != nil {
		return fmt.Errorf("gpu: reset command list: %w", err)
	}
	return nil
}

// WaitForGpu blocks until every submitted command has executed.
func (b *Backend) WaitForGpu() error {
	if b.queue == nil || b.fence == nil {
		return nil
	}
	v := b.fenceValues[b.frameIndex]
	if err := b.queue.Signal(b.fence, v); err != nil {
		return fmt.Errorf("gpu: signal fence: %w", err)
	}
	if b.ring != nil {
		b.ring.Retire(v)
	}
	if err := b.fence.Wait(v); err != nil {
		return fmt.Errorf("gpu: wait for idle: %w", err)
	}
	b.fenceValues[b.frameIndex]++
	b.runDeferred(v)
	return nil
}

// kick submits what has been recorded so far, waits for it and reopens the
// list with the frame state rebound. It makes room in a guarded ring when a
// single frame uploads more than the ring holds.
//
// If the submit fails, the commands recorded so far are lost but the list
// is still reopened, and the error is returned.
func (b *Backend) kick() error {
	err := b.submit()
	if werr := b.WaitForGpu(); werr != nil {
		return errors.Join(err, b.broken(werr))
	}
	if rerr := b.resetList(); rerr != nil {
		return errors.Join(err, b.broken(rerr))
	}
	b.kicks++
	slogger().Debug("gpu: mid-frame submit", "frame", b.frames, "kicks", b.kicks)
	b.bindFrameState()
	b.writeFrameConstants()
	if b.vb.Size != 0 {
		b.list.SetVertexBuffer(b.vb)
	}
	return err
}

// allocUpload allocates from the ring, submitting the frame so far once if
// the frame has filled the ring.
func (b *Backend) allocUpload(size, alignment uint64) (Allocation, error) {
	a, err := b.ring.Allocate(size, alignment)
	if errors.Is(err, ErrUploadRingOverflow) {
		if err := b.kick(); err != nil {
			return Allocation{}, err
		}
		a, err = b.ring.Allocate(size, alignment)
	}
	return a, err
}

// Defer schedules fn to run after the GPU finishes the frame being recorded.
func (b *Backend) Defer(fn func()) {
	if b.state != stateRecording {
		fn()
		return
	}
	b.deferred = append(b.deferred, deferredRelease{fence: b.fenceValues[b.frameIndex], fn: fn})
}

func (b *Backend) runDeferred(completed uint64) {
	keep := b.deferred[:0]
	for _, d := range b.deferred {
		if d.fence <= completed {
			d.fn()
			continue
		}
		keep = append(keep, d)
	}
	clear(b.deferred[len(keep):])
	b.deferred = keep
}

// Resize recreates the back buffers and depth buffer at a new size. The
// frame recorded so far is submitted first.
func (b *Backend) Resize(width, height uint32) error {
	if err := b.ready(); err != nil {
		return err
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("gpu: resize to %dx%d: %w", width, height, ErrZeroSize)
	}
	if width == b.cfg.Width && height == b.cfg.Height {
		return nil
	}
	b.tracker.TransitionResource(b.backBuffers[b.frameIndex], StatePresent, false)
	serr := b.submit()
	if serr != nil {
		b.dropped++
		slogger().Warn("gpu: frame dropped by resize", "frame", b.frames, "err", serr)
	}
	if err := b.WaitForGpu(); err != nil {
		return errors.Join(serr, b.broken(err))
	}
	for i := range b.fenceValues {
		b.fenceValues[i] = b.fenceValues[b.frameIndex]
	}
	for _, bb := range b.backBuffers {
		bb.native = nil
	}
	b.depth.Destroy()
	if err := b.swapChain.Resize(width, height); err != nil {
		return errors.Join(serr, b.broken(fmt.Errorf("gpu: resize swap chain: %w", err)))
	}
	b.cfg.Width, b.cfg.Height = width, height
	if err := b.createRenderTargets(); err != nil {
		return errors.Join(serr, b.broken(fmt.Errorf("gpu: resize: %w", err)))
	}
	b.viewport = Viewport{Width: float32(width), Height: float32(height), MaxDepth: 1}
	b.frameIndex = b.swapChain.CurrentBackBufferIndex()
	slogger().Info("gpu: resized", "width", width, "height", height)
	if err := b.resetList(); err != nil {
		return errors.Join(serr, b.broken(err))
	}
	if err := b.BeginFrame(); err != nil {
		return errors.Join(serr, b.broken(err))
	}
	return serr
}

// Clear clears the current render target and depth buffer.
func (b *Backend) Clear(color, depth bool) {
	if color {
		b.list.ClearRenderTargetView(b.rtvs[b.frameIndex], b.cfg.ClearColor)
	}
	if depth {
		b.list.ClearDepthStencilView(b.dsv, b.cfg.ClearDepth, 0)
	}
}

// SetClearColor sets the color used by Clear.
func (b *Backend) SetClearColor(c [4]float32) { b.cfg.ClearColor = c }

// SetClearDepth sets the depth used by Clear.
func (b *Backend) SetClearDepth(d float32) { b.cfg.ClearDepth = d }

// SetViewport sets the viewport for this and later frames.
func (b *Backend) SetViewport(v Viewport) {
	b.viewport = v
	b.list.SetViewport(v)
}

// SetRenderState selects the render state of later draws. The topology
// class is taken from each draw.
func (b *Backend) SetRenderState(k PSOKey) { b.key = k }

// RenderState returns the current render state.
func (b *Backend) RenderState() PSOKey { return b.key }

// Wireframe reports whether triangles are drawn as their edges.
func (b *Backend) Wireframe() bool { return b.key.Fill == FillWireframe }

// SetTexture binds t for later draws; nil selects the default white
// texture.
func (b *Backend) SetTexture(t *Texture) { b.texture = t }

// Constants returns the fixed-function constants. Call MarkConstantsDirty
// after changing them.
func (b *Backend) Constants() *FrameConstants { return &b.constants }

// MarkConstantsDirty makes the next draw upload fresh constants.
func (b *Backend) MarkConstantsDirty() { b.constantsDirty = true }

// Matrices returns the legacy matrix stacks.
func (b *Backend) Matrices() *MatrixStacks { return b.matrices }

// BindVertexBuffer binds v. A mid-frame submit binds it again on the
// reopened list.
func (b *Backend) BindVertexBuffer(v VertexBufferView) {
	b.vb = v
	b.list.SetVertexBuffer(v)
}

// CommandList returns the list being recorded.
func (b *Backend) CommandList() CommandList { return b.list }

// PrepareDraw binds the pipeline, texture, sampler and constants the next
// draw of topology t needs, flushes pending barriers and sets the
// primitive topology. Only state that changed is rebound.
func (b *Backend) PrepareDraw(t Topology) error {
	if err := b.ready(); err != nil {
		return err
	}
	if err := b.prepare(t); err != nil {
		return err
	}
	b.draws++
	return nil
}

// prepare uploads constants before binding anything: the upload may submit
// the frame so far and reopen the list with nothing bound.
func (b *Backend) prepare(t Topology) error {
	if b.constantsDirty || b.matrices.Dirty() {
		if err := b.uploadConstants(); err != nil {
			return err
		}
	}
	key := b.key
	key.Topology = t.Class()
	pso, err := b.psos.GetOrCreatePSO(key)
	if err != nil {
		return err
	}
	if pso != b.boundPSO {
		b.list.SetPipelineState(pso)
		b.boundPSO = pso
	}

	tex := b.texture
	if tex == nil || tex.res.Native() == nil {
		tex = b.defaultTexture
	}
	if tex != b.boundTex || tex.res.Version() != b.boundVersion {
		b.tracker.TransitionResource(tex.res, StatePixelShaderResource, false)
		b.list.SetGraphicsRootDescriptorTable(RootTextureTable, tex.srv)
		b.boundTex = tex
		b.boundVersion = tex.res.Version()
	}
	sampler, ok := b.samplers[tex.Sampler]
	if !ok {
		return fmt.Errorf("gpu: no sampler for %+v", tex.Sampler)
	}
	if sampler != b.boundSampler {
		b.list.SetGraphicsRootDescriptorTable(RootSamplerTable, sampler)
		b.boundSampler = sampler
	}

	b.tracker.FlushResourceBarriers()
	b.list.SetPrimitiveTopology(t)
	return nil
}

func (b *Backend) uploadConstants() error {
	b.matrices.Clean(&b.constants)
	a, err := b.allocUpload(FrameConstantsSize, ConstantBufferAlignment)
	if err != nil {
		return err
	}
	b.constants.Pack(a.CPU)
	b.ring.Flush(a)
	b.list.SetGraphicsRootConstantBufferView(RootFrameConstants, a.Address)
	b.constantsDirty = false
	return nil
}

// DrawVertices draws vs with topology t, staging them through the upload
// ring. Under a wireframe render state triangles are drawn as a line list
// of their edges.
func (b *Backend) DrawVertices(t Topology, vs []Vertex) error {
	if err := b.ready(); err != nil {
		return err
	}
	if b.Wireframe() && t.Class() == ClassTriangle {
		b.edges = TriangleEdges(b.edges[:0], t, vs)
		t, vs = TopologyLineList, b.edges
	}
	if len(vs) == 0 {
		return nil
	}
	if err := b.prepare(t); err != nil {
		return err
	}
	data := VertexBytes(vs)
	kicks := b.kicks
	a, err := b.allocUpload(uint64(len(data)), 16)
	if err != nil {
		return fmt.Errorf("gpu: stage %d vertices: %w", len(vs), err)
	}
	copy(a.CPU, data)
	b.ring.Flush(a)
	if b.kicks != kicks {
		if err := b.prepare(t); err != nil {
			return err
		}
	}
	b.draws++
	b.BindVertexBuffer(VertexBufferView{Address: a.Address, Size: uint32(len(data)), Stride: VertexStride})
	b.list.DrawInstanced(uint32(len(vs)), 1, 0, 0)
	return nil
}

// UploadBuffer creates a default-heap buffer holding data, staged through
// the ring and left in the vertex-and-constant-buffer state.
func (b *Backend) UploadBuffer(label string, data []byte) (*Buffer, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	buf, err := NewBuffer(b.device, label, uint64(len(data)), HeapDefault, StateCopyDest)
	if err != nil {
		return nil, err
	}
	chunk := b.ring.Size() / 2
	for off := uint64(0); off < uint64(len(data)); off += chunk {
		part := data[off:min(off+chunk, uint64(len(data)))]
		a, err := b.allocUpload(uint64(len(part)), 16)
		if err != nil {
			buf.Destroy()
			return nil, fmt.Errorf("gpu: upload %q: %w", label, err)
		}
		copy(a.CPU, part)
		b.ring.Flush(a)
		b.list.CopyBufferRegion(buf.native, off, b.ring.buf.native, a.Offset, uint64(len(part)))
	}
	b.tracker.TransitionResource(&buf.Resource, StateVertexAndConstantBuffer, true)
	return buf, nil
}

// ReleaseBuffer destroys buf once the frames that may read it have retired.
func (b *Backend) ReleaseBuffer(buf *Buffer) {
	if buf != nil {
		b.Defer(buf.Destroy)
	}
}

// DefaultTexture returns the 1×1 white texture.
func (b *Backend) DefaultTexture() *Texture { return b.defaultTexture }

// FrameIndex returns the swap-chain slot being recorded.
func (b *Backend) FrameIndex() uint32 { return b.frameIndex }

// Tracker returns the barrier tracker bound to the command list.
func (b *Backend) Tracker() *StateTracker { return b.tracker }

// Descriptors returns the descriptor allocator.
func (b *Backend) Descriptors() *DescriptorAllocator { return b.heaps }

// Pipelines returns the pipeline cache.
func (b *Backend) Pipelines() *PipelineCache { return b.psos }

// Ring returns the upload ring.
func (b *Backend) Ring() *UploadRing { return b.ring }

// Config returns the validated configuration.
func (b *Backend) Config() Config { return b.cfg }

// Stats returns current counters.
func (b *Backend) Stats() Stats {
	s := Stats{
		Frames:     b.frames,
		Dropped:    b.dropped,
		Draws:      b.draws,
		FenceWaits: b.fenceWaits,
		Kicks:      b.kicks,
	}
	if b.tracker != nil {
		s.Barriers = b.tracker.Emitted()
		s.BarrierFlushes = b.tracker.Flushes()
	}
	if b.psos != nil {
		s.PSOHits, s.PSOMisses = b.psos.Stats()
		s.PSOCount = b.psos.Size()
	}
	if b.ring != nil {
		s.RingWraps = b.ring.Wraps()
	}
	if b.heaps != nil {
		s.Descriptors = b.heaps.Usage()
	}
	if b.memory != nil {
		s.Memory = b.memory.Stats()
	}
	return s
}

// Shutdown waits for the GPU and releases every device object. It is safe
// to call on a backend that never initialized.
func (b *Backend) Shutdown() error {
	if b.state != stateRecording && b.state != stateFailed {
		return nil
	}
	err := b.WaitForGpu()
	if err != nil {
		slogger().Warn("gpu: shutdown wait failed", "err", err)
	}
	b.release()
	b.state = stateShutdown
	slogger().Info("gpu: backend shut down", "frames", b.frames, "draws", b.draws)
	return err
}

// release destroys whatever has been created, newest first.
func (b *Backend) release() {
	for _, d := range b.deferred {
		d.fn()
	}
	b.deferred = nil
	if b.defaultTexture != nil {
		b.defaultTexture.res.Destroy()
		b.memory.Free(b.defaultTexture.bytes)
		b.defaultTexture = nil
	}
	if b.psos != nil {
		b.psos.DestroyAll()
	}
	if b.rootSig != nil {
		b.rootSig.Release()
	}
	if b.frameCB != nil {
		b.frameCB.Destroy()
	}
	if b.ring != nil {
		b.ring.Release()
	}
	if b.depth != nil {
		b.depth.Destroy()
	}
	b.backBuffers = nil
	if b.heaps != nil {
		b.heaps.Release()
	}
	for _, a := range b.allocators {
		if a != nil {
			a.Release()
		}
	}
	b.allocators = nil
	if b.swapChain != nil {
		b.swapChain.Release()
		b.swapChain = nil
	}
	if b.fence != nil {
		b.fence.Release()
		b.fence = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	b.list = nil
}
