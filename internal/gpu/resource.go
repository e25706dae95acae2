package gpu

import (
	"fmt"
	"sync/atomic"
)

// ResourceState is the usage a resource is currently prepared for.
type ResourceState uint8

// Resource states.
const (
	StateCommon ResourceState = iota
	StateVertexAndConstantBuffer
	StateIndexBuffer
	StateRenderTarget
	StateUnorderedAccess
	StateDepthWrite
	StateDepthRead
	StateNonPixelShaderResource
	StatePixelShaderResource
	StateCopyDest
	StateCopySource
	StatePresent
	StateGenericRead

	// StateInvalid marks "no transition outstanding".
	StateInvalid ResourceState = 0xFF
)

var stateNames = [...]string{
	StateCommon:                  "common",
	StateVertexAndConstantBuffer: "vertex-constant-buffer",
	StateIndexBuffer:             "index-buffer",
	StateRenderTarget:            "render-target",
	StateUnorderedAccess:         "unordered-access",
	StateDepthWrite:              "depth-write",
	StateDepthRead:               "depth-read",
	StateNonPixelShaderResource:  "non-pixel-shader-resource",
	StatePixelShaderResource:     "pixel-shader-resource",
	StateCopyDest:                "copy-dest",
	StateCopySource:              "copy-source",
	StatePresent:                 "present",
	StateGenericRead:             "generic-read",
}

func (s ResourceState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	if s == StateInvalid {
		return "invalid"
	}
	return fmt.Sprintf("ResourceState(%d)", s)
}

// Valid reports whether s names a real usage state.
func (s ResourceState) Valid() bool { return int(s) < len(stateNames) }

// Resource owns one native resource and its last known usage state.
// Only a StateTracker changes the state fields.
type Resource struct {
	native        NativeResource
	label         string
	current       ResourceState
	transitioning ResourceState
	version       atomic.Uint32
}

// NewResource wraps native, which must already be in state.
func NewResource(native NativeResource, label string, state ResourceState) *Resource {
	return &Resource{
		native:        native,
		label:         label,
		current:       state,
		transitioning: StateInvalid,
	}
}

// Native returns the wrapped resource, or nil after Destroy.
func (r *Resource) Native() NativeResource { return r.native }

// Label returns the debug name given at creation.
func (r *Resource) Label() string { return r.label }

// State returns the state the last flushed or queued transition left it in.
func (r *Resource) State() ResourceState { return r.current }

// TransitioningState returns the target of an outstanding split barrier,
// or StateInvalid.
func (r *Resource) TransitioningState() ResourceState { return r.transitioning }

// GPUAddress returns the native resource's virtual address.
func (r *Resource) GPUAddress() uint64 {
	if r.native == nil {
		return AddressUnknown
	}
	return r.native.GPUAddress()
}

// Version increments every time the resource is destroyed, letting holders
// of a stale view notice that the native object is gone.
func (r *Resource) Version() uint32 { return r.version.Load() }

// Destroy releases the native resource. It is safe to call more than once.
func (r *Resource) Destroy() {
	if r.native == nil {
		return
	}
	r.native.Release()
	r.native = nil
	r.current = StateCommon
	r.transitioning = StateInvalid
	r.version.Add(1)
}

// Buffer is a Resource with a size and, for upload heaps, mapped memory.
type Buffer struct {
	Resource
	size   uint64
	mapped []byte
	flush  func(offset, size uint64)
}

// NewBuffer creates a buffer of size bytes on device.
func NewBuffer(device Device, label string, size uint64, heap HeapType, state ResourceState) (*Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("gpu: create buffer %q: %w", label, ErrZeroSize)
	}
	native, err := device.CreateBuffer(BufferDesc{
		Label:        label,
		Size:         size,
		Heap:         heap,
		InitialState: state,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create buffer %q: %w", label, err)
	}
	b := &Buffer{size: size}
	b.native = native
	b.label = label
	b.current = state
	b.transitioning = StateInvalid
	if heap == HeapUpload {
		m, ok := native.(MappedResource)
		if !ok {
			native.Release()
			return nil, fmt.Errorf("gpu: create buffer %q: %w", label, ErrNotMappable)
		}
		b.mapped = m.Mapped()
		b.flush = m.Flush
	}
	return b, nil
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.size }

// Mapped returns the persistently mapped bytes of an upload buffer, or nil.
func (b *Buffer) Mapped() []byte { return b.mapped }

// Flush publishes CPU writes in the given range to the GPU.
func (b *Buffer) Flush(offset, size uint64) {
	if b.flush != nil && size > 0 {
		b.flush(offset, size)
	}
}

// VertexView returns a view of the whole buffer with the given stride.
func (b *Buffer) VertexView(stride uint32) VertexBufferView {
	return VertexBufferView{Address: b.GPUAddress(), Size: uint32(b.size), Stride: stride}
}

// Destroy releases the buffer and drops the mapping.
func (b *Buffer) Destroy() {
	b.mapped = nil
	b.flush = nil
	b.Resource.Destroy()
}
