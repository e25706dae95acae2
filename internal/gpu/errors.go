package gpu

import "errors"

// Package errors.
var (
	// ErrDescriptorHeapExhausted is returned when an allocation asks for more
	// slots than a heap has left. Heaps never grow.
	ErrDescriptorHeapExhausted = errors.New("gpu: descriptor heap exhausted")

	// ErrInvalidHandle is returned by ValidateHandle for handles outside the
	// allocated range of a heap.
	ErrInvalidHandle = errors.New("gpu: descriptor handle outside heap")

	// ErrUploadTooLarge is returned when a single upload exceeds the ring.
	ErrUploadTooLarge = errors.New("gpu: upload larger than ring buffer")

	// ErrUploadRingOverflow is returned by a guarded ring when wrapping would
	// overwrite data written earlier in the same frame.
	ErrUploadRingOverflow = errors.New("gpu: upload ring overflow within one frame")

	// ErrRootSignatureFinalized is returned by a second Finalize call.
	ErrRootSignatureFinalized = errors.New("gpu: root signature already finalized")

	// ErrRecorderCompiled is returned when a recorder is used after Compile.
	ErrRecorderCompiled = errors.New("gpu: display list recorder already compiled")

	// ErrNoCommandList is the panic value for barrier flushes without a bound
	// command list.
	ErrNoCommandList = errors.New("gpu: no command list bound")

	// ErrNotInitialized is returned by Backend methods called before Init.
	ErrNotInitialized = errors.New("gpu: backend not initialized")

	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = errors.New("gpu: backend already initialized")

	// ErrBackendFailed is returned by every Backend call after the frame
	// loop could not recover from a device error.
	ErrBackendFailed = errors.New("gpu: backend failed")

	// ErrInit wraps every failure inside Backend.Init.
	ErrInit = errors.New("gpu: initialization failed")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("gpu: invalid config")

	// ErrZeroSize is returned when creating an empty buffer or texture.
	ErrZeroSize = errors.New("gpu: zero size")

	// ErrNotMappable is returned when an upload-heap buffer has no mapping.
	ErrNotMappable = errors.New("gpu: upload buffer is not mappable")

	// ErrResourceDestroyed is returned when a destroyed resource is used.
	ErrResourceDestroyed = errors.New("gpu: resource destroyed")

	// ErrMatrixStackOverflow and ErrMatrixStackUnderflow report push and pop
	// past the stack limits.
	ErrMatrixStackOverflow  = errors.New("gpu: matrix stack overflow")
	ErrMatrixStackUnderflow = errors.New("gpu: matrix stack underflow")
)
