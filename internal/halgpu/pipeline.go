// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glimm/internal/gpu"
)

// pipeline holds one hal render pipeline per primitive topology of its
// class, since hal bakes the topology into the pipeline.
type pipeline struct {
	dev      *Device
	label    string
	variants map[gpu.Topology]hal.RenderPipeline
}

var classTopologies = map[gpu.TopologyClass][]gpu.Topology{
	gpu.ClassTriangle: {gpu.TopologyTriangleList, gpu.TopologyTriangleStrip},
	gpu.ClassLine:     {gpu.TopologyLineList, gpu.TopologyLineStrip},
	gpu.ClassPoint:    {gpu.TopologyPointList},
}

func primitiveTopology(t gpu.Topology) gputypes.PrimitiveTopology {
	switch t {
	case gpu.TopologyTriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip
	case gpu.TopologyLineList:
		return gputypes.PrimitiveTopologyLineList
	case gpu.TopologyLineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	case gpu.TopologyPointList:
		return gputypes.PrimitiveTopologyPointList
	}
	return gputypes.PrimitiveTopologyTriangleList
}

func cullMode(c gpu.CullMode) gputypes.CullMode {
	switch c {
	case gpu.CullFront:
		return gputypes.CullModeFront
	case gpu.CullBack:
		return gputypes.CullModeBack
	}
	return gputypes.CullModeNone
}

func frontFace(f gpu.FrontFace) gputypes.FrontFace {
	if f == gpu.FrontCW {
		return gputypes.FrontFaceCW
	}
	return gputypes.FrontFaceCCW
}

func compareFunction(c gpu.CompareFunc) gputypes.CompareFunction {
	switch c {
	case gpu.CompareNever:
		return gputypes.CompareFunctionNever
	case gpu.CompareLess:
		return gputypes.CompareFunctionLess
	case gpu.CompareEqual:
		return gputypes.CompareFunctionEqual
	case gpu.CompareLessEqual:
		return gputypes.CompareFunctionLessEqual
	case gpu.CompareGreater:
		return gputypes.CompareFunctionGreater
	case gpu.CompareNotEqual:
		return gputypes.CompareFunctionNotEqual
	case gpu.CompareGreaterEqual:
		return gputypes.CompareFunctionGreaterEqual
	}
	return gputypes.CompareFunctionAlways
}

func blendFactor(f gpu.BlendFactor) gputypes.BlendFactor {
	switch f {
	case gpu.BlendZero:
		return gputypes.BlendFactorZero
	case gpu.BlendSrcColor:
		return gputypes.BlendFactorSrc
	case gpu.BlendInvSrcColor:
		return gputypes.BlendFactorOneMinusSrc
	case gpu.BlendSrcAlpha:
		return gputypes.BlendFactorSrcAlpha
	case gpu.BlendInvSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha
	case gpu.BlendDstAlpha:
		return gputypes.BlendFactorDstAlpha
	case gpu.BlendInvDstAlpha:
		return gputypes.BlendFactorOneMinusDstAlpha
	case gpu.BlendDstColor:
		return gputypes.BlendFactorDst
	case gpu.BlendInvDstColor:
		return gputypes.BlendFactorOneMinusDst
	case gpu.BlendSrcAlphaSat:
		return gputypes.BlendFactorSrcAlphaSaturated
	}
	return gputypes.BlendFactorOne
}

func vertexFormat(f gpu.InputFormat) gputypes.VertexFormat {
	switch f {
	case gpu.InputFloat2:
		return gputypes.VertexFormatFloat32x2
	case gpu.InputUnorm8x4:
		return gputypes.VertexFormatUnorm8x4
	}
	return gputypes.VertexFormatFloat32x3
}

// shaderModule returns the cached module for code, creating it on first
// use. WGSL is handed to hal as source; SPIR-V as little-endian words.
func (d *Device) shaderModule(format gpu.ShaderFormat, code []byte, label string) (hal.ShaderModule, error) {
	key := string(rune('0'+format)) + string(code)
	d.mu.Lock()
	defer d.mu.Unlock()
	if m, ok := d.modules[key]; ok {
		return m, nil
	}
	var src hal.ShaderSource
	switch format {
	case gpu.ShaderWGSL:
		src.WGSL = string(code)
	case gpu.ShaderSPIRV:
		if len(code)%4 != 0 {
			return nil, fmt.Errorf("halgpu: SPIR-V of %d bytes", len(code))
		}
		words := make([]uint32, len(code)/4)
		for i := range words {
			words[i] = uint32(code[i*4]) |
				uint32(code[i*4+1])<<8 |
				uint32(code[i*4+2])<<16 |
				uint32(code[i*4+3])<<24
		}
		src.SPIRV = words
	default:
		return nil, fmt.Errorf("halgpu: unknown shader format %d", format)
	}
	m, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{Label: label, Source: src})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create shader module %s: %w", label, err)
	}
	d.modules[key] = m
	return m, nil
}

func newPipeline(d *Device, desc *gpu.PipelineDesc) (*pipeline, error) {
	rs, ok := desc.RootSignature.(*rootSignature)
	if !ok || rs.layout == nil {
		return nil, fmt.Errorf("%w: root signature %T", ErrForeignObject, desc.RootSignature)
	}
	vs, err := d.shaderModule(desc.Shaders.Format, desc.Shaders.Vertex, "fixedfunc-vs")
	if err != nil {
		return nil, err
	}
	ps, err := d.shaderModule(desc.Shaders.Format, desc.Shaders.Pixel, "fixedfunc-ps")
	if err != nil {
		return nil, err
	}
	rtFormat, err := textureFormat(desc.RTFormat)
	if err != nil {
		return nil, err
	}
	dsFormat, err := textureFormat(desc.DSFormat)
	if err != nil {
		return nil, err
	}

	attrs := make([]gputypes.VertexAttribute, len(desc.InputLayout))
	for i, e := range desc.InputLayout {
		attrs[i] = gputypes.VertexAttribute{
			Format:         vertexFormat(e.Format),
			Offset:         uint64(e.Offset),
			ShaderLocation: e.Location,
		}
	}
	vertexBufferLayout := []gputypes.VertexBufferLayout{
		{
			ArrayStride: uint64(desc.VertexStride),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  attrs,
		},
	}

	key := desc.Key
	var blend *gputypes.BlendState
	if key.BlendEnable {
		component := gputypes.BlendComponent{
			SrcFactor: blendFactor(key.SrcBlend),
			DstFactor: blendFactor(key.DstBlend),
			Operation: gputypes.BlendOperationAdd,
		}
		blend = &gputypes.BlendState{Color: component, Alpha: component}
	}
	// Depth writes only happen where the depth test runs.
	depthCompare := gputypes.CompareFunctionAlways
	if key.DepthTest {
		depthCompare = compareFunction(key.DepthFunc)
	}
	stencil := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}

	p := &pipeline{dev: d, label: desc.Label, variants: make(map[gpu.Topology]hal.RenderPipeline)}
	for _, t := range classTopologies[key.Topology] {
		raw, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
			Label:  desc.Label,
			Layout: rs.layout,
			Vertex: hal.VertexState{
				Module:     vs,
				EntryPoint: desc.Shaders.VertexEntry,
				Buffers:    vertexBufferLayout,
			},
			Fragment: &hal.FragmentState{
				Module:     ps,
				EntryPoint: desc.Shaders.PixelEntry,
				Targets: []gputypes.ColorTargetState{
					{
						Format:    rtFormat,
						Blend:     blend,
						WriteMask: gputypes.ColorWriteMaskAll,
					},
				},
			},
			DepthStencil: &hal.DepthStencilState{
				Format:            dsFormat,
				DepthWriteEnabled: key.DepthTest && key.DepthWrite,
				DepthCompare:      depthCompare,
				StencilFront:      stencil,
				StencilBack:       stencil,
			},
			Primitive: gputypes.PrimitiveState{
				Topology:  primitiveTopology(t),
				FrontFace: frontFace(key.Front),
				CullMode:  cullMode(key.Cull),
			},
			Multisample: gputypes.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
		})
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("halgpu: create pipeline %s: %w", desc.Label, err)
		}
		p.variants[t] = raw
	}
	return p, nil
}

// variant returns the pipeline compiled for t, or nil when t is not in the
// pipeline's topology class.
func (p *pipeline) variant(t gpu.Topology) hal.RenderPipeline { return p.variants[t] }

// Release implements gpu.NativePipeline.
func (p *pipeline) Release() {
	for t, raw := range p.variants {
		p.dev.device.DestroyRenderPipeline(raw)
		delete(p.variants, t)
	}
}
