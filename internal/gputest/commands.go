package gputest

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/gogpu/glimm/internal/gpu"
)

// Queue records submissions and tags the allocators of submitted lists with
// the next signaled fence value.
type Queue struct {
	device      *Device
	inflight    []*Allocator
	Submissions int
	Released    bool
}

// ExecuteCommandLists implements gpu.CommandQueue. Lists must be closed.
func (q *Queue) ExecuteCommandLists(lists ...gpu.CommandList) error {
	if err := q.device.fail("ExecuteCommandLists"); err != nil {
		return err
	}
	for _, l := range lists {
		cl := l.(*CommandList)
		if !cl.closed {
			return errors.New("gputest: executing an open command list")
		}
		cl.alloc.submitted = true
		q.inflight = append(q.inflight, cl.alloc)
		cl.Executions++
	}
	q.Submissions++
	return nil
}

// Signal implements gpu.CommandQueue.
func (q *Queue) Signal(f gpu.Fence, value uint64) error {
	fence := f.(*Fence)
	fence.signal(value)
	for _, a := range q.inflight {
		a.fence = fence
		a.value = value
		a.submitted = false
	}
	q.inflight = q.inflight[:0]
	return nil
}

// Release implements gpu.CommandQueue.
func (q *Queue) Release() { q.Released = true }

// Fence is a timeline that completes on Signal unless the device was
// created with ManualFence.
type Fence struct {
	mu        sync.Mutex
	completed uint64
	signaled  uint64
	manual    bool

	// Waits counts Wait calls that had to block.
	Waits    int
	Released bool
}

// CompletedValue implements gpu.Fence.
func (f *Fence) CompletedValue() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Wait implements gpu.Fence. Waiting for a value that was never signaled
// would block forever on a real device and is reported as an error.
func (f *Fence) Wait(value uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed >= value {
		return nil
	}
	if value > f.signaled {
		return fmt.Errorf("gputest: deadlock: waiting for %d, last signaled %d", value, f.signaled)
	}
	f.Waits++
	f.completed = value
	return nil
}

// Complete marks every value up to v as done, as if the GPU caught up.
func (f *Fence) Complete(v uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = max(f.completed, min(v, f.signaled))
}

// Signaled returns the last signaled value.
func (f *Fence) Signaled() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signaled
}

func (f *Fence) signal(v uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signaled = v
	if !f.manual {
		f.completed = max(f.completed, v)
	}
}

// Release implements gpu.Fence.
func (f *Fence) Release() { f.Released = true }

// Allocator refuses to reset while commands recorded into it may still be
// executing.
type Allocator struct {
	submitted bool
	fence     *Fence
	value     uint64
	Resets    int
	Released  bool
}

// Reset implements gpu.CommandAllocator.
func (a *Allocator) Reset() error {
	if a.submitted {
		return errors.New("gputest: allocator reset before its work was fenced")
	}
	if a.fence != nil && a.fence.CompletedValue() < a.value {
		return fmt.Errorf("gputest: allocator reset while fence value %d is in flight", a.value)
	}
	a.Resets++
	return nil
}

// Release implements gpu.CommandAllocator.
func (a *Allocator) Release() { a.Released = true }

// Draw is one recorded DrawInstanced with the state it was issued under.
type Draw struct {
	Topology      gpu.Topology
	VertexCount   uint32
	StartVertex   uint32
	InstanceCount uint32
	VertexBuffer  gpu.VertexBufferView
	Pipeline      *Pipeline
	// Tables holds the root descriptor tables bound on the current list.
	Tables map[uint32]gpu.DescriptorHandle
}

// BufferCopy is one recorded CopyBufferRegion.
type BufferCopy struct {
	Dst, Src          *Resource
	DstOffset, Offset uint64
	Size              uint64
}

// CommandList records commands. Records accumulate across Reset until
// ClearRecords.
type CommandList struct {
	device *Device
	alloc  *Allocator
	closed bool

	topology gpu.Topology
	vb       gpu.VertexBufferView
	pipeline *Pipeline
	tables   map[uint32]gpu.DescriptorHandle

	Resets     int
	Executions int

	BarrierCalls  [][]gpu.Barrier
	VertexBuffers []gpu.VertexBufferView
	Draws         []Draw
	PipelineBinds int
	RootCBVs      []uint64
	Tables        map[uint32]gpu.DescriptorHandle
	RenderTargets []gpu.DescriptorHandle
	ColorClears   [][4]float32
	DepthClears   []float32
	Viewports     []gpu.Viewport
	BufferCopies  []BufferCopy
	HeapBinds     int

	// Errors collects commands recorded into a closed list.
	Errors []error
}

// ClearRecords drops everything recorded so far.
func (l *CommandList) ClearRecords() {
	*l = CommandList{device: l.device, alloc: l.alloc, closed: l.closed, topology: l.topology, vb: l.vb, pipeline: l.pipeline, tables: l.tables}
}

// Barriers returns every barrier recorded, flattened.
func (l *CommandList) Barriers() []gpu.Barrier {
	var out []gpu.Barrier
	for _, c := range l.BarrierCalls {
		out = append(out, c...)
	}
	return out
}

func (l *CommandList) check(op string) {
	if l.closed {
		l.Errors = append(l.Errors, fmt.Errorf("gputest: %s on closed list", op))
	}
}

// Reset implements gpu.CommandList.
func (l *CommandList) Reset(alloc gpu.CommandAllocator) error {
	if !l.closed {
		return errors.New("gputest: reset of an open command list")
	}
	l.alloc = alloc.(*Allocator)
	l.closed = false
	l.Resets++
	l.pipeline = nil
	l.tables = nil
	l.vb = gpu.VertexBufferView{}
	return nil
}

// Close implements gpu.CommandList. An injected failure still closes the
// list, as a device reporting a recording error does.
func (l *CommandList) Close() error {
	if l.closed {
		return errors.New("gputest: close of a closed command list")
	}
	l.closed = true
	return l.device.fail("Close")
}

// Closed reports whether the list is closed.
func (l *CommandList) Closed() bool { return l.closed }

// ResourceBarrier implements gpu.CommandList.
func (l *CommandList) ResourceBarrier(barriers []gpu.Barrier) {
	l.check("ResourceBarrier")
	l.BarrierCalls = append(l.BarrierCalls, append([]gpu.Barrier(nil), barriers...))
}

// SetDescriptorHeaps implements gpu.CommandList.
func (l *CommandList) SetDescriptorHeaps(...gpu.NativeHeap) {
	l.check("SetDescriptorHeaps")
	l.HeapBinds++
}

// SetGraphicsRootSignature implements gpu.CommandList.
func (l *CommandList) SetGraphicsRootSignature(gpu.NativeRootSignature) {
	l.check("SetGraphicsRootSignature")
}

// SetPipelineState implements gpu.CommandList.
func (l *CommandList) SetPipelineState(p gpu.NativePipeline) {
	l.check("SetPipelineState")
	l.pipeline = p.(*Pipeline)
	l.PipelineBinds++
}

// SetGraphicsRootConstantBufferView implements gpu.CommandList.
func (l *CommandList) SetGraphicsRootConstantBufferView(_ uint32, address uint64) {
	l.check("SetGraphicsRootConstantBufferView")
	l.RootCBVs = append(l.RootCBVs, address)
}

// SetGraphicsRootDescriptorTable implements gpu.CommandList.
func (l *CommandList) SetGraphicsRootDescriptorTable(param uint32, base gpu.DescriptorHandle) {
	l.check("SetGraphicsRootDescriptorTable")
	if l.Tables == nil {
		l.Tables = make(map[uint32]gpu.DescriptorHandle)
	}
	l.Tables[param] = base
	if l.tables == nil {
		l.tables = make(map[uint32]gpu.DescriptorHandle)
	}
	l.tables[param] = base
}

// SetRenderTargets implements gpu.CommandList.
func (l *CommandList) SetRenderTargets(rtv gpu.DescriptorHandle, _ *gpu.DescriptorHandle) {
	l.check("SetRenderTargets")
	l.RenderTargets = append(l.RenderTargets, rtv)
}

// ClearRenderTargetView implements gpu.CommandList.
func (l *CommandList) ClearRenderTargetView(_ gpu.DescriptorHandle, color [4]float32) {
	l.check("ClearRenderTargetView")
	l.ColorClears = append(l.ColorClears, color)
}

// ClearDepthStencilView implements gpu.CommandList.
func (l *CommandList) ClearDepthStencilView(_ gpu.DescriptorHandle, depth float32, _ uint8) {
	l.check("ClearDepthStencilView")
	l.DepthClears = append(l.DepthClears, depth)
}

// SetViewport implements gpu.CommandList.
func (l *CommandList) SetViewport(v gpu.Viewport) {
	l.check("SetViewport")
	l.Viewports = append(l.Viewports, v)
}

// SetScissorRect implements gpu.CommandList.
func (l *CommandList) SetScissorRect(gpu.Rect) { l.check("SetScissorRect") }

// SetPrimitiveTopology implements gpu.CommandList.
func (l *CommandList) SetPrimitiveTopology(t gpu.Topology) {
	l.check("SetPrimitiveTopology")
	l.topology = t
}

// SetVertexBuffer implements gpu.CommandList.
func (l *CommandList) SetVertexBuffer(v gpu.VertexBufferView) {
	l.check("SetVertexBuffer")
	l.vb = v
	l.VertexBuffers = append(l.VertexBuffers, v)
}

// DrawInstanced implements gpu.CommandList.
func (l *CommandList) DrawInstanced(vertexCount, instanceCount, startVertex, _ uint32) {
	l.check("DrawInstanced")
	l.Draws = append(l.Draws, Draw{
		Topology:      l.topology,
		VertexCount:   vertexCount,
		StartVertex:   startVertex,
		InstanceCount: instanceCount,
		VertexBuffer:  l.vb,
		Pipeline:      l.pipeline,
		Tables:        maps.Clone(l.tables),
	})
}

// CopyBufferRegion implements gpu.CommandList. The bytes are copied at
// record time.
func (l *CommandList) CopyBufferRegion(dst gpu.NativeResource, dstOffset uint64, src gpu.NativeResource, srcOffset, size uint64) {
	l.check("CopyBufferRegion")
	d, s := asResource(dst), asResource(src)
	copy(d.Data[dstOffset:dstOffset+size], s.Data[srcOffset:srcOffset+size])
	l.BufferCopies = append(l.BufferCopies, BufferCopy{Dst: d, Src: s, DstOffset: dstOffset, Offset: srcOffset, Size: size})
}

// CopyBufferToTexture implements gpu.CommandList.
func (l *CommandList) CopyBufferToTexture(dst gpu.NativeResource, mipLevel uint32, _ gpu.NativeResource, layout gpu.TextureCopyLayout) {
	l.check("CopyBufferToTexture")
	d := asResource(dst)
	d.Uploads = append(d.Uploads, TextureUpload{Level: mipLevel, Layout: layout})
}

func asResource(r gpu.NativeResource) *Resource {
	switch v := r.(type) {
	case *Resource:
		return v
	case *MappedResource:
		return v.Resource
	}
	panic(fmt.Sprintf("gputest: foreign resource %T", r))
}

// SwapChain rotates through its buffers on Present.
type SwapChain struct {
	device   *Device
	desc     gpu.SwapChainDesc
	buffers  []*Resource
	index    uint32
	Presents int
	Resizes  int
	Released bool
}

func (s *SwapChain) createBuffers() {
	s.buffers = make([]*Resource, s.desc.BufferCount)
	for i := range s.buffers {
		s.buffers[i] = &Resource{
			Label: fmt.Sprintf("swapchain-%d", i),
			Texture: gpu.TextureDesc{
				Width:        s.desc.Width,
				Height:       s.desc.Height,
				MipLevels:    1,
				Format:       s.desc.Format,
				RenderTarget: true,
			},
			addr: gpu.AddressUnknown,
		}
	}
}

// BufferCount implements gpu.SwapChain.
func (s *SwapChain) BufferCount() uint32 { return uint32(len(s.buffers)) }

// CurrentBackBufferIndex implements gpu.SwapChain.
func (s *SwapChain) CurrentBackBufferIndex() uint32 { return s.index }

// BackBuffer implements gpu.SwapChain.
func (s *SwapChain) BackBuffer(i uint32) gpu.NativeResource { return s.buffers[i] }

// Present implements gpu.SwapChain.
func (s *SwapChain) Present(bool) error {
	if err := s.device.fail("Present"); err != nil {
		return err
	}
	s.Presents++
	s.index = (s.index + 1) % uint32(len(s.buffers))
	return nil
}

// Resize implements gpu.SwapChain.
func (s *SwapChain) Resize(width, height uint32) error {
	s.desc.Width, s.desc.Height = width, height
	s.createBuffers()
	s.index = 0
	s.Resizes++
	return nil
}

// Size returns the current back buffer size.
func (s *SwapChain) Size() (uint32, uint32) { return s.desc.Width, s.desc.Height }

// Release implements gpu.SwapChain.
func (s *SwapChain) Release() { s.Released = true }

// Heap stores written views by slot.
type Heap struct {
	Desc     gpu.HeapDesc
	Views    []gpu.View
	Written  []bool
	Released bool

	cpuStart uint64
	gpuStart uint64
}

// HeapIncrement is the slot stride of every test heap.
const HeapIncrement = 32

// CPUStart implements gpu.NativeHeap.
func (h *Heap) CPUStart() uint64 { return h.cpuStart }

// GPUStart implements gpu.NativeHeap.
func (h *Heap) GPUStart() uint64 { return h.gpuStart }

// Increment implements gpu.NativeHeap.
func (h *Heap) Increment() uint32 { return HeapIncrement }

// WriteView implements gpu.NativeHeap.
func (h *Heap) WriteView(i uint32, v gpu.View) error {
	if int(i) >= len(h.Views) {
		return fmt.Errorf("gputest: slot %d of %d", i, len(h.Views))
	}
	h.Views[i] = v
	h.Written[i] = true
	return nil
}

// CopyFrom implements gpu.NativeHeap.
func (h *Heap) CopyFrom(dst uint32, src gpu.NativeHeap, srcIndex, count uint32) error {
	s := src.(*Heap)
	copy(h.Views[dst:dst+count], s.Views[srcIndex:srcIndex+count])
	copy(h.Written[dst:dst+count], s.Written[srcIndex:srcIndex+count])
	return nil
}

// Release implements gpu.NativeHeap.
func (h *Heap) Release() { h.Released = true }
