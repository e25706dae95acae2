package gpu

import (
	"fmt"
	"sync"
)

// DescriptorType is the kind of view a heap stores.
type DescriptorType uint8

// Descriptor types.
const (
	DescriptorCBVSRVUAV DescriptorType = iota
	DescriptorSampler
	DescriptorRTV
	DescriptorDSV

	descriptorTypeCount
)

func (t DescriptorType) String() string {
	switch t {
	case DescriptorCBVSRVUAV:
		return "cbv-srv-uav"
	case DescriptorSampler:
		return "sampler"
	case DescriptorRTV:
		return "rtv"
	case DescriptorDSV:
		return "dsv"
	}
	return fmt.Sprintf("DescriptorType(%d)", t)
}

// HeapDesc describes a descriptor heap to create.
type HeapDesc struct {
	Label         string
	Type          DescriptorType
	Count         uint32
	ShaderVisible bool
}

// NativeHeap is a device descriptor heap. Handles into it are
// CPUStart()+i*Increment() and, when shader visible, GPUStart()+i*Increment().
type NativeHeap interface {
	CPUStart() uint64

	// GPUStart returns AddressUnknown for heaps shaders cannot see.
	GPUStart() uint64

	Increment() uint32
	WriteView(index uint32, v View) error
	CopyFrom(dstIndex uint32, src NativeHeap, srcIndex, count uint32) error
	Release()
}

// ViewKind selects the interpretation of a View.
type ViewKind uint8

// View kinds.
const (
	ViewCBV ViewKind = iota
	ViewSRV
	ViewSampler
	ViewRTV
	ViewDSV
)

// View is the payload written into one descriptor slot.
type View struct {
	Kind      ViewKind
	Resource  NativeResource
	Offset    uint64
	Size      uint64
	Format    TextureFormat
	MipLevels uint32
	Sampler   SamplerDesc
}

// DescriptorHandle addresses one slot. It owns nothing and is never freed.
type DescriptorHandle struct {
	CPU uint64
	GPU uint64
}

// IsShaderVisible reports whether the handle has a GPU address.
func (h DescriptorHandle) IsShaderVisible() bool { return h.GPU != AddressUnknown }

// IsNull reports whether h is the zero handle.
func (h DescriptorHandle) IsNull() bool { return h.CPU == 0 }

// Offset returns the handle n slots further on. Bounds are not checked here;
// use DescriptorHeap.ValidateHandle.
func (h DescriptorHandle) Offset(n int, increment uint32) DescriptorHandle {
	d := int64(n) * int64(increment)
	out := DescriptorHandle{CPU: uint64(int64(h.CPU) + d), GPU: AddressUnknown}
	if h.IsShaderVisible() {
		out.GPU = uint64(int64(h.GPU) + d)
	}
	return out
}

// DescriptorHeap is a fixed-capacity bump allocator over a NativeHeap.
type DescriptorHeap struct {
	typ       DescriptorType
	native    NativeHeap
	capacity  uint32
	next      uint32
	free      uint32
	increment uint32
	cpuStart  uint64
	gpuStart  uint64
}

// CreateDescriptorHeap creates a heap of maxCount slots. Sampler and
// CBV/SRV/UAV heaps are shader visible unless forceCPU is set; RTV and DSV
// heaps never are.
func CreateDescriptorHeap(device Device, typ DescriptorType, maxCount uint32, forceCPU bool) (*DescriptorHeap, error) {
	if maxCount == 0 {
		return nil, fmt.Errorf("gpu: create %s heap: %w", typ, ErrZeroSize)
	}
	visible := !forceCPU && (typ == DescriptorCBVSRVUAV || typ == DescriptorSampler)
	label := typ.String()
	if forceCPU && typ == DescriptorCBVSRVUAV {
		label += "-staging"
	}
	native, err := device.CreateDescriptorHeap(HeapDesc{
		Label:         label,
		Type:          typ,
		Count:         maxCount,
		ShaderVisible: visible,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s heap: %w", label, err)
	}
	h := &DescriptorHeap{
		typ:       typ,
		native:    native,
		capacity:  maxCount,
		free:      maxCount,
		increment: native.Increment(),
		cpuStart:  native.CPUStart(),
		gpuStart:  AddressUnknown,
	}
	if visible {
		h.gpuStart = native.GPUStart()
	}
	return h, nil
}

// Type returns the descriptor kind.
func (h *DescriptorHeap) Type() DescriptorType { return h.typ }

// Native returns the device heap.
func (h *DescriptorHeap) Native() NativeHeap { return h.native }

// ShaderVisible reports whether handles carry GPU addresses.
func (h *DescriptorHeap) ShaderVisible() bool { return h.gpuStart != AddressUnknown }

// Capacity returns the slot count fixed at creation.
func (h *DescriptorHeap) Capacity() uint32 { return h.capacity }

// Free returns the number of unallocated slots.
func (h *DescriptorHeap) Free() uint32 { return h.free }

// Increment returns the byte stride between slots.
func (h *DescriptorHeap) Increment() uint32 { return h.increment }

// HasAvailableSpace reports whether Alloc(count) would succeed.
func (h *DescriptorHeap) HasAvailableSpace(count uint32) bool { return count <= h.free }

// Alloc returns the first of count contiguous slots.
func (h *DescriptorHeap) Alloc(count uint32) (DescriptorHandle, error) {
	if count == 0 || !h.HasAvailableSpace(count) {
		return DescriptorHandle{}, fmt.Errorf("%w: %s heap: want %d, %d of %d free",
			ErrDescriptorHeapExhausted, h.typ, count, h.free, h.capacity)
	}
	handle := h.handleAt(h.next)
	h.next += count
	h.free -= count
	return handle, nil
}

// MustAlloc is Alloc for callers that cannot recover from exhaustion.
func (h *DescriptorHeap) MustAlloc(count uint32) DescriptorHandle {
	handle, err := h.Alloc(count)
	if err != nil {
		panic(err)
	}
	return handle
}

// Index returns the slot index of h after validating it.
func (h *DescriptorHeap) Index(handle DescriptorHandle) (uint32, error) {
	if err := h.ValidateHandle(handle); err != nil {
		return 0, err
	}
	return uint32((handle.CPU - h.cpuStart) / uint64(h.increment)), nil
}

// ValidateHandle checks that handle points at an allocated slot and that its
// GPU address agrees with its CPU address.
func (h *DescriptorHeap) ValidateHandle(handle DescriptorHandle) error {
	if handle.CPU < h.cpuStart {
		return fmt.Errorf("%w: cpu %#x below heap start %#x", ErrInvalidHandle, handle.CPU, h.cpuStart)
	}
	off := handle.CPU - h.cpuStart
	if off%uint64(h.increment) != 0 {
		return fmt.Errorf("%w: cpu %#x not slot aligned", ErrInvalidHandle, handle.CPU)
	}
	if off/uint64(h.increment) >= uint64(h.next) {
		return fmt.Errorf("%w: slot %d not allocated (%d in use)", ErrInvalidHandle, off/uint64(h.increment), h.next)
	}
	if !h.ShaderVisible() {
		if handle.GPU != AddressUnknown {
			return fmt.Errorf("%w: gpu address on non shader-visible heap", ErrInvalidHandle)
		}
		return nil
	}
	if handle.GPU < h.gpuStart || handle.GPU-h.gpuStart != off {
		return fmt.Errorf("%w: gpu %#x does not match cpu offset %d", ErrInvalidHandle, handle.GPU, off)
	}
	return nil
}

// WriteView stores v in the slot addressed by handle.
func (h *DescriptorHeap) WriteView(handle DescriptorHandle, v View) error {
	idx, err := h.Index(handle)
	if err != nil {
		return err
	}
	return h.native.WriteView(idx, v)
}

// CopyDescriptors copies count slots starting at src in heap from into the
// slots starting at dst in h.
func (h *DescriptorHeap) CopyDescriptors(dst DescriptorHandle, from *DescriptorHeap, src DescriptorHandle, count uint32) error {
	di, err := h.Index(dst)
	if err != nil {
		return err
	}
	si, err := from.Index(src)
	if err != nil {
		return err
	}
	if di+count > h.next || si+count > from.next {
		return fmt.Errorf("%w: copy of %d slots crosses allocated range", ErrInvalidHandle, count)
	}
	return h.native.CopyFrom(di, from.native, si, count)
}

// Reset returns every slot to the heap. Only Shutdown calls it.
func (h *DescriptorHeap) Reset() {
	h.next = 0
	h.free = h.capacity
}

// Release destroys the device heap.
func (h *DescriptorHeap) Release() {
	if h.native != nil {
		h.native.Release()
		h.native = nil
	}
}

func (h *DescriptorHeap) handleAt(index uint32) DescriptorHandle {
	d := uint64(index) * uint64(h.increment)
	out := DescriptorHandle{CPU: h.cpuStart + d, GPU: AddressUnknown}
	if h.ShaderVisible() {
		out.GPU = h.gpuStart + d
	}
	return out
}

// HeapSizes holds the capacity of every heap the allocator creates.
type HeapSizes struct {
	CBVSRVUAV uint32
	Sampler   uint32
	RTV       uint32
	DSV       uint32
	Staging   uint32
}

// DefaultHeapSizes returns capacities that fit a legacy title with a few
// thousand textures.
func DefaultHeapSizes() HeapSizes {
	return HeapSizes{
		CBVSRVUAV: 4096,
		Sampler:   128,
		RTV:       16,
		DSV:       4,
		Staging:   256,
	}
}

// DescriptorAllocator owns one heap per descriptor type plus a CPU-only
// staging heap. It is owned by the Backend and handed to whoever needs it.
//
// Allocation is single threaded; mu only guards the heap table against
// lookups racing Release.
type DescriptorAllocator struct {
	mu      sync.Mutex
	heaps   [descriptorTypeCount]*DescriptorHeap
	staging *DescriptorHeap
}

// NewDescriptorAllocator creates every heap up front.
func NewDescriptorAllocator(device Device, sizes HeapSizes) (*DescriptorAllocator, error) {
	a := &DescriptorAllocator{}
	counts := [descriptorTypeCount]uint32{
		DescriptorCBVSRVUAV: sizes.CBVSRVUAV,
		DescriptorSampler:   sizes.Sampler,
		DescriptorRTV:       sizes.RTV,
		DescriptorDSV:       sizes.DSV,
	}
	for typ, n := range counts {
		h, err := CreateDescriptorHeap(device, DescriptorType(typ), n, false)
		if err != nil {
			a.Release()
			return nil, err
		}
		a.heaps[typ] = h
	}
	if sizes.Staging > 0 {
		h, err := CreateDescriptorHeap(device, DescriptorCBVSRVUAV, sizes.Staging, true)
		if err != nil {
			a.Release()
			return nil, err
		}
		a.staging = h
	}
	return a, nil
}

// Heap returns the heap for typ.
func (a *DescriptorAllocator) Heap(typ DescriptorType) *DescriptorHeap {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.heaps[typ]
}

// Staging returns the CPU-only CBV/SRV/UAV heap, or nil if none was sized.
func (a *DescriptorAllocator) Staging() *DescriptorHeap {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.staging
}

// Alloc allocates count slots of typ.
func (a *DescriptorAllocator) Alloc(typ DescriptorType, count uint32) (DescriptorHandle, error) {
	h := a.Heap(typ)
	if h == nil {
		return DescriptorHandle{}, fmt.Errorf("gpu: no %s heap", typ)
	}
	return h.Alloc(count)
}

// ShaderVisibleHeaps returns the heaps bound at the start of every frame.
func (a *DescriptorAllocator) ShaderVisibleHeaps() []NativeHeap {
	a.mu.Lock()
	defer a.mu.Unlock()
	return []NativeHeap{a.heaps[DescriptorCBVSRVUAV].native, a.heaps[DescriptorSampler].native}
}

// Usage reports used and total slots per type, for statistics.
func (a *DescriptorAllocator) Usage() map[DescriptorType][2]uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[DescriptorType][2]uint32, len(a.heaps))
	for typ, h := range a.heaps {
		if h != nil {
			out[DescriptorType(typ)] = [2]uint32{h.capacity - h.free, h.capacity}
		}
	}
	return out
}

// Release destroys every heap.
func (a *DescriptorAllocator) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, h := range a.heaps {
		if h != nil {
			h.Release()
			a.heaps[i] = nil
		}
	}
	if a.staging != nil {
		a.staging.Release()
		a.staging = nil
	}
}
