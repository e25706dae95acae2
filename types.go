package glimm

import (
	"github.com/gogpu/glimm/internal/gpu"
	"github.com/gogpu/glimm/internal/halgpu"
)

// Frame is a presented back buffer as passed to a Presenter. Its texture
// stays valid until the swap chain reuses the slot; Context.ReadFrame
// copies it to the CPU.
type Frame = halgpu.Frame

// Presenter receives every frame passed to SwapBuffers, after its commands
// have been submitted.
type Presenter = halgpu.Presenter

// Stats is a snapshot of frame, draw, barrier, pipeline, descriptor and
// texture memory counters.
type Stats = gpu.Stats

// MemoryStats reports texture memory use against the budget set with
// WithTextureBudget.
type MemoryStats = gpu.MemoryStats

// DescriptorType keys Stats.Descriptors.
type DescriptorType = gpu.DescriptorType

// Descriptor heaps reported in Stats.Descriptors.
const (
	DescriptorCBVSRVUAV = gpu.DescriptorCBVSRVUAV
	DescriptorSampler   = gpu.DescriptorSampler
	DescriptorRTV       = gpu.DescriptorRTV
	DescriptorDSV       = gpu.DescriptorDSV
)

// ShaderBytecode is the vertex and pixel program pair passed to
// WithShaders.
type ShaderBytecode = gpu.ShaderBytecode

// ShaderFormat is the encoding of ShaderBytecode.
type ShaderFormat = gpu.ShaderFormat

// Shader encodings.
const (
	ShaderWGSL  = gpu.ShaderWGSL
	ShaderSPIRV = gpu.ShaderSPIRV
)

// DefaultShaders returns the built-in fixed-function program as WGSL.
func DefaultShaders() ShaderBytecode { return gpu.DefaultShaders() }

// Device is the explicit graphics device a Context renders through when
// created with WithDevice.
type Device = gpu.Device
