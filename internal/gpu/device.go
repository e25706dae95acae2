package gpu

// AddressUnknown is the GPU address reported for descriptors that live in a
// heap the shaders cannot see, and for resources with no GPU virtual address.
const AddressUnknown uint64 = ^uint64(0)

// Device is the explicit graphics API this package drives. It mirrors the
// object model of a D3D12-class API: everything is created up front and
// state is changed only through command lists.
//
// internal/halgpu implements Device on top of gogpu/wgpu/hal;
// internal/gputest provides a recording implementation for tests.
type Device interface {
	CreateCommandQueue() (CommandQueue, error)
	CreateCommandAllocator() (CommandAllocator, error)

	// CreateCommandList returns a list that is already open for recording
	// into alloc.
	CreateCommandList(alloc CommandAllocator) (CommandList, error)

	CreateFence(initialValue uint64) (Fence, error)
	CreateSwapChain(queue CommandQueue, desc SwapChainDesc) (SwapChain, error)
	CreateDescriptorHeap(desc HeapDesc) (NativeHeap, error)
	CreateBuffer(desc BufferDesc) (NativeResource, error)
	CreateTexture(desc TextureDesc) (NativeResource, error)
	CreateRootSignature(desc *RootSignatureDesc) (NativeRootSignature, error)
	CreatePipelineState(desc *PipelineDesc) (NativePipeline, error)
}

// CommandQueue executes closed command lists in submission order.
type CommandQueue interface {
	ExecuteCommandLists(lists ...CommandList) error

	// Signal sets fence to value once all previously executed work is done.
	Signal(fence Fence, value uint64) error

	Release()
}

// CommandAllocator backs the memory of recorded commands. It may only be
// reset after the GPU has finished every list recorded into it.
type CommandAllocator interface {
	Reset() error
	Release()
}

// Fence is a monotonically increasing GPU timeline value.
type Fence interface {
	CompletedValue() uint64

	// Wait blocks until CompletedValue reaches value. There is no timeout.
	Wait(value uint64) error

	Release()
}

// SwapChainDesc describes the presentation buffers.
type SwapChainDesc struct {
	Width       uint32
	Height      uint32
	BufferCount uint32
	Format      TextureFormat
}

// SwapChain owns the back buffers handed out for rendering.
type SwapChain interface {
	BufferCount() uint32
	CurrentBackBufferIndex() uint32
	BackBuffer(index uint32) NativeResource
	Present(vsync bool) error

	// Resize recreates the back buffers. Callers must release every
	// reference to the previous back buffers first.
	Resize(width, height uint32) error

	Release()
}

// NativeResource is a device-owned buffer or texture.
type NativeResource interface {
	// GPUAddress returns the virtual address of the first byte of a buffer,
	// or AddressUnknown for textures.
	GPUAddress() uint64
	Release()
}

// MappedResource is a NativeResource in an upload heap whose memory stays
// mapped for its whole life.
type MappedResource interface {
	NativeResource
	Mapped() []byte

	// Flush makes CPU writes to [offset, offset+size) visible to the GPU
	// before the next ExecuteCommandLists. Coherent heaps may ignore it.
	Flush(offset, size uint64)
}

// HeapType selects the memory pool of a buffer.
type HeapType uint8

// Heap types.
const (
	HeapDefault HeapType = iota // GPU local, written by copies
	HeapUpload                  // CPU writable, persistently mapped
)

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	Label        string
	Size         uint64
	Heap         HeapType
	InitialState ResourceState
}

// TextureFormat is the pixel format of a texture or render target.
type TextureFormat uint8

// Texture formats.
const (
	FormatUnknown TextureFormat = iota
	FormatRGBA8
	FormatBGRA8
	FormatDepth32
)

// BytesPerPixel returns the size of one texel, or 0 for unknown formats.
func (f TextureFormat) BytesPerPixel() uint32 {
	switch f {
	case FormatRGBA8, FormatBGRA8, FormatDepth32:
		return 4
	}
	return 0
}

// TextureDesc describes a 2D texture to create.
type TextureDesc struct {
	Label        string
	Width        uint32
	Height       uint32
	MipLevels    uint32
	Format       TextureFormat
	RenderTarget bool
	DepthStencil bool
	InitialState ResourceState
}

// NativeRootSignature is a compiled root signature.
type NativeRootSignature interface {
	Release()
}

// NativePipeline is a compiled pipeline state object.
type NativePipeline interface {
	Release()
}

// BarrierKind distinguishes state transitions from UAV ordering barriers.
type BarrierKind uint8

// Barrier kinds.
const (
	BarrierTransition BarrierKind = iota
	BarrierUAV
)

// BarrierFlags marks the halves of a split barrier.
type BarrierFlags uint8

// Barrier flags.
const (
	BarrierFlagNone BarrierFlags = iota
	BarrierFlagBeginOnly
	BarrierFlagEndOnly
)

// Barrier is one entry of a ResourceBarrier call.
type Barrier struct {
	Kind     BarrierKind
	Flags    BarrierFlags
	Resource NativeResource
	Before   ResourceState
	After    ResourceState
}

// Viewport is a render target rectangle with a depth range.
type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

// Rect is a scissor rectangle in pixels.
type Rect struct {
	Left, Top, Right, Bottom int32
}

// VertexBufferView points a draw at a range of a buffer.
type VertexBufferView struct {
	Address uint64
	Size    uint32
	Stride  uint32
}

// TextureCopyLayout describes a band of rows of one mip level staged in a
// buffer, landing at row Y of the level. RowPitch is a multiple of
// TextureRowPitchAlignment.
type TextureCopyLayout struct {
	Offset   uint64
	Y        uint32
	Width    uint32
	Height   uint32
	RowPitch uint32
}

// CommandList records GPU commands. Lists are created open; Close ends
// recording and Reset reopens the list against an allocator.
type CommandList interface {
	Reset(alloc CommandAllocator) error
	Close() error

	ResourceBarrier(barriers []Barrier)

	SetDescriptorHeaps(heaps ...NativeHeap)
	SetGraphicsRootSignature(rs NativeRootSignature)
	SetPipelineState(p NativePipeline)
	SetGraphicsRootConstantBufferView(param uint32, address uint64)
	SetGraphicsRootDescriptorTable(param uint32, base DescriptorHandle)

	SetRenderTargets(rtv DescriptorHandle, dsv *DescriptorHandle)
	ClearRenderTargetView(rtv DescriptorHandle, color [4]float32)
	ClearDepthStencilView(dsv DescriptorHandle, depth float32, stencil uint8)
	SetViewport(v Viewport)
	SetScissorRect(r Rect)

	SetPrimitiveTopology(t Topology)
	SetVertexBuffer(v VertexBufferView)
	DrawInstanced(vertexCount, instanceCount, startVertex, startInstance uint32)

	CopyBufferRegion(dst NativeResource, dstOffset uint64, src NativeResource, srcOffset, size uint64)
	CopyBufferToTexture(dst NativeResource, mipLevel uint32, src NativeResource, layout TextureCopyLayout)
}
