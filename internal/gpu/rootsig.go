package gpu

import (
	"fmt"
	"runtime"
	"sync/atomic"
)

// Filter is a texture filtering mode.
type Filter uint8

// Filters.
const (
	FilterPoint Filter = iota
	FilterLinear
)

// AddressMode selects how coordinates outside [0,1] are resolved.
type AddressMode uint8

// Address modes.
const (
	AddressWrap AddressMode = iota
	AddressClamp
)

// SamplerDesc is the full sampler state. It is comparable and used as a map
// key for the pre-created sampler descriptors.
type SamplerDesc struct {
	MinFilter Filter
	MagFilter Filter
	MipFilter Filter
	Mipmaps   bool
	AddressU  AddressMode
	AddressV  AddressMode
}

// AllSamplerDescs enumerates every sampler state the legacy API can
// express: 2 mag filters, 6 min filters and 2 wrap modes per axis.
func AllSamplerDescs() []SamplerDesc {
	out := make([]SamplerDesc, 0, 48)
	for _, mag := range []Filter{FilterPoint, FilterLinear} {
		for _, minf := range []Filter{FilterPoint, FilterLinear} {
			for _, mip := range []struct {
				on     bool
				filter Filter
			}{{false, FilterPoint}, {true, FilterPoint}, {true, FilterLinear}} {
				for _, u := range []AddressMode{AddressWrap, AddressClamp} {
					for _, v := range []AddressMode{AddressWrap, AddressClamp} {
						out = append(out, SamplerDesc{
							MinFilter: minf,
							MagFilter: mag,
							MipFilter: mip.filter,
							Mipmaps:   mip.on,
							AddressU:  u,
							AddressV:  v,
						})
					}
				}
			}
		}
	}
	return out
}

// ShaderVisibility limits a root parameter to a pipeline stage.
type ShaderVisibility uint8

// Visibilities.
const (
	VisibilityAll ShaderVisibility = iota
	VisibilityVertex
	VisibilityPixel
)

// RootParamKind is the binding shape of a root parameter.
type RootParamKind uint8

// Root parameter kinds.
const (
	RootParamCBV RootParamKind = iota
	RootParamSRVTable
	RootParamSamplerTable
)

// RootParam is one entry of a root signature.
type RootParam struct {
	Kind           RootParamKind
	Register       uint32
	NumDescriptors uint32
	Visibility     ShaderVisibility
}

// StaticSampler is a sampler baked into the root signature.
type StaticSampler struct {
	Register uint32
	Desc     SamplerDesc
}

// RootSignatureDesc is the binding contract between pipelines and commands.
type RootSignatureDesc struct {
	Params         []RootParam
	StaticSamplers []StaticSampler
}

// Root parameter slots of the fixed-function signature.
const (
	RootFrameConstants uint32 = iota
	RootTextureTable
	RootSamplerTable
)

// FixedFunctionRootSignature returns the signature every pipeline uses:
// a constant buffer at b0, one texture at t0, one sampler at s0, plus
// static clamp and wrap samplers at s1..s4.
func FixedFunctionRootSignature() *RootSignature {
	rs := NewRootSignature()
	rs.AddParam(RootParam{Kind: RootParamCBV, Register: 0, Visibility: VisibilityAll})
	rs.AddParam(RootParam{Kind: RootParamSRVTable, Register: 0, NumDescriptors: 1, Visibility: VisibilityPixel})
	rs.AddParam(RootParam{Kind: RootParamSamplerTable, Register: 0, NumDescriptors: 1, Visibility: VisibilityPixel})
	for i, d := range []SamplerDesc{
		{MinFilter: FilterPoint, MagFilter: FilterPoint, AddressU: AddressClamp, AddressV: AddressClamp},
		{MinFilter: FilterLinear, MagFilter: FilterLinear, AddressU: AddressClamp, AddressV: AddressClamp},
		{MinFilter: FilterPoint, MagFilter: FilterPoint, AddressU: AddressWrap, AddressV: AddressWrap},
		{MinFilter: FilterLinear, MagFilter: FilterLinear, AddressU: AddressWrap, AddressV: AddressWrap},
	} {
		rs.AddStaticSampler(StaticSampler{Register: uint32(i + 1), Desc: d})
	}
	return rs
}

const (
	rootBuilding uint32 = iota
	rootFinalizing
	rootFinalized
)

// RootSignature is built with AddParam/AddStaticSampler, then published once
// by Finalize. After that it is immutable and safe for concurrent readers.
type RootSignature struct {
	desc   RootSignatureDesc
	native NativeRootSignature
	state  atomic.Uint32
}

// NewRootSignature returns an empty signature in the building state.
func NewRootSignature() *RootSignature { return &RootSignature{} }

// AddParam appends a root parameter. It panics after Finalize.
func (rs *RootSignature) AddParam(p RootParam) {
	rs.mustBuild()
	rs.desc.Params = append(rs.desc.Params, p)
}

// AddStaticSampler appends a static sampler. It panics after Finalize.
func (rs *RootSignature) AddStaticSampler(s StaticSampler) {
	rs.mustBuild()
	rs.desc.StaticSamplers = append(rs.desc.StaticSamplers, s)
}

// Finalize creates the native signature and publishes it.
func (rs *RootSignature) Finalize(device Device) error {
	if !rs.state.CompareAndSwap(rootBuilding, rootFinalizing) {
		return ErrRootSignatureFinalized
	}
	native, err := device.CreateRootSignature(&rs.desc)
	if err != nil {
		rs.state.Store(rootBuilding)
		return fmt.Errorf("gpu: create root signature: %w", err)
	}
	rs.native = native
	rs.state.Store(rootFinalized)
	return nil
}

// Finalized reports whether Finalize has completed.
func (rs *RootSignature) Finalized() bool { return rs.state.Load() == rootFinalized }

// Native returns the compiled signature, spinning while another goroutine
// is finalizing it. It returns nil if Finalize was never started.
func (rs *RootSignature) Native() NativeRootSignature {
	for {
		switch rs.state.Load() {
		case rootFinalized:
			return rs.native
		case rootBuilding:
			return nil
		}
		runtime.Gosched()
	}
}

// Desc returns the parameter layout. Callers must not modify it.
func (rs *RootSignature) Desc() *RootSignatureDesc { return &rs.desc }

// Release destroys the native signature.
func (rs *RootSignature) Release() {
	if rs.Native() != nil {
		rs.native.Release()
		rs.native = nil
		rs.state.Store(rootBuilding)
	}
}

func (rs *RootSignature) mustBuild() {
	if rs.state.Load() != rootBuilding {
		panic(ErrRootSignatureFinalized)
	}
}
