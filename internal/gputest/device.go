// Package gputest provides a CPU-only gpu.Device that records every command
// it is given, for tests that assert on the command stream.
package gputest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/glimm/internal/gpu"
)

// ErrInjected is returned by calls named in Device.Fail.
var ErrInjected = errors.New("gputest: injected failure")

// Device records created objects. Its zero value is not usable; call
// NewDevice.
type Device struct {
	mu sync.Mutex

	// Fail makes the named Create method (e.g. "CreateSwapChain") fail, as
	// well as "Close", "ExecuteCommandLists" and "Present".
	Fail map[string]bool

	// ManualFence leaves signaled fence values pending until the fence is
	// advanced by Fence.Complete or by a Wait.
	ManualFence bool

	nextAddr uint64
	nextHeap uint64

	Queue      *Queue
	Fences     []*Fence
	SwapChain  *SwapChain
	Allocators []*Allocator
	Lists      []*CommandList
	Heaps      []*Heap
	Buffers    []*Resource
	Textures   []*Resource
	RootSigs   []*RootSignature
	Pipelines  []*Pipeline
}

// NewDevice returns a device whose fences complete as soon as they are
// signaled.
func NewDevice() *Device {
	return &Device{nextAddr: 0x10000, Fail: map[string]bool{}}
}

func (d *Device) fail(name string) error {
	if d != nil && d.Fail[name] {
		return fmt.Errorf("%w: %s", ErrInjected, name)
	}
	return nil
}

// CreateCommandQueue implements gpu.Device.
func (d *Device) CreateCommandQueue() (gpu.CommandQueue, error) {
	if err := d.fail("CreateCommandQueue"); err != nil {
		return nil, err
	}
	d.Queue = &Queue{device: d}
	return d.Queue, nil
}

// CreateCommandAllocator implements gpu.Device.
func (d *Device) CreateCommandAllocator() (gpu.CommandAllocator, error) {
	if err := d.fail("CreateCommandAllocator"); err != nil {
		return nil, err
	}
	a := &Allocator{}
	d.Allocators = append(d.Allocators, a)
	return a, nil
}

// CreateCommandList implements gpu.Device.
func (d *Device) CreateCommandList(alloc gpu.CommandAllocator) (gpu.CommandList, error) {
	if err := d.fail("CreateCommandList"); err != nil {
		return nil, err
	}
	l := &CommandList{device: d, alloc: alloc.(*Allocator)}
	d.Lists = append(d.Lists, l)
	return l, nil
}

// CreateFence implements gpu.Device.
func (d *Device) CreateFence(initial uint64) (gpu.Fence, error) {
	if err := d.fail("CreateFence"); err != nil {
		return nil, err
	}
	f := &Fence{completed: initial, signaled: initial, manual: d.ManualFence}
	d.Fences = append(d.Fences, f)
	return f, nil
}

// CreateSwapChain implements gpu.Device.
func (d *Device) CreateSwapChain(_ gpu.CommandQueue, desc gpu.SwapChainDesc) (gpu.SwapChain, error) {
	if err := d.fail("CreateSwapChain"); err != nil {
		return nil, err
	}
	sc := &SwapChain{device: d, desc: desc}
	sc.createBuffers()
	d.SwapChain = sc
	return sc, nil
}

// CreateDescriptorHeap implements gpu.Device.
func (d *Device) CreateDescriptorHeap(desc gpu.HeapDesc) (gpu.NativeHeap, error) {
	if err := d.fail("CreateDescriptorHeap"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.nextHeap++
	id := d.nextHeap
	d.mu.Unlock()
	h := &Heap{
		Desc:     desc,
		Views:    make([]gpu.View, desc.Count),
		Written:  make([]bool, desc.Count),
		cpuStart: id << 32,
		gpuStart: gpu.AddressUnknown,
	}
	if desc.ShaderVisible {
		h.gpuStart = id<<32 | 1<<31
	}
	d.Heaps = append(d.Heaps, h)
	return h, nil
}

// CreateBuffer implements gpu.Device. Upload buffers are returned as
// *MappedResource.
func (d *Device) CreateBuffer(desc gpu.BufferDesc) (gpu.NativeResource, error) {
	if err := d.fail("CreateBuffer"); err != nil {
		return nil, err
	}
	r := &Resource{Label: desc.Label, Size: desc.Size, Data: make([]byte, desc.Size), addr: d.alloc(desc.Size)}
	d.Buffers = append(d.Buffers, r)
	if desc.Heap == gpu.HeapUpload {
		return &MappedResource{Resource: r}, nil
	}
	return r, nil
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.NativeResource, error) {
	if err := d.fail("CreateTexture"); err != nil {
		return nil, err
	}
	r := &Resource{Label: desc.Label, Texture: desc, addr: gpu.AddressUnknown}
	d.Textures = append(d.Textures, r)
	return r, nil
}

// CreateRootSignature implements gpu.Device.
func (d *Device) CreateRootSignature(desc *gpu.RootSignatureDesc) (gpu.NativeRootSignature, error) {
	if err := d.fail("CreateRootSignature"); err != nil {
		return nil, err
	}
	rs := &RootSignature{Desc: *desc}
	d.RootSigs = append(d.RootSigs, rs)
	return rs, nil
}

// CreatePipelineState implements gpu.Device.
func (d *Device) CreatePipelineState(desc *gpu.PipelineDesc) (gpu.NativePipeline, error) {
	if err := d.fail("CreatePipelineState"); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	p := &Pipeline{Desc: *desc}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

// PipelineCount returns the number of pipelines compiled so far.
func (d *Device) PipelineCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Pipelines)
}

// LiveBuffers returns the number of buffers not yet released.
func (d *Device) LiveBuffers() int {
	n := 0
	for _, b := range d.Buffers {
		if !b.Released {
			n++
		}
	}
	return n
}

func (d *Device) alloc(size uint64) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	addr := d.nextAddr
	d.nextAddr += (size + 0xFFFF) &^ 0xFFFF
	return addr
}

// Resource is a recorded buffer or texture.
type Resource struct {
	Label    string
	Size     uint64
	Texture  gpu.TextureDesc
	Data     []byte
	Released bool

	// Uploads lists the texture copies recorded into this texture.
	Uploads []TextureUpload

	addr uint64
}

// TextureUpload is one CopyBufferToTexture into a Resource.
type TextureUpload struct {
	Level  uint32
	Layout gpu.TextureCopyLayout
}

// GPUAddress implements gpu.NativeResource.
func (r *Resource) GPUAddress() uint64 { return r.addr }

// Release implements gpu.NativeResource.
func (r *Resource) Release() { r.Released = true }

// MappedResource is an upload buffer.
type MappedResource struct {
	*Resource
	Flushes [][2]uint64
}

// Mapped implements gpu.MappedResource.
func (m *MappedResource) Mapped() []byte { return m.Data }

// Flush implements gpu.MappedResource.
func (m *MappedResource) Flush(offset, size uint64) {
	m.Flushes = append(m.Flushes, [2]uint64{offset, size})
}

// RootSignature is a recorded root signature.
type RootSignature struct {
	Desc     gpu.RootSignatureDesc
	Released bool
}

// Release implements gpu.NativeRootSignature.
func (r *RootSignature) Release() { r.Released = true }

// Pipeline is a recorded pipeline.
type Pipeline struct {
	Desc     gpu.PipelineDesc
	Released bool
}

// Release implements gpu.NativePipeline.
func (p *Pipeline) Release() { p.Released = true }
