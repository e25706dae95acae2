// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glimm/internal/gpu"
)

// rootSignature is a pipeline layout with one bind group per root
// parameter, in parameter order. Static samplers are created with it and
// live as long as it does.
type rootSignature struct {
	dev    *Device
	layout hal.PipelineLayout
	params []gpu.RootParam
	static []hal.Sampler
}

func newRootSignature(d *Device, desc *gpu.RootSignatureDesc) (*rootSignature, error) {
	groups := make([]hal.BindGroupLayout, len(desc.Params))
	for i, p := range desc.Params {
		l, err := d.layout(p.Kind)
		if err != nil {
			return nil, err
		}
		groups[i] = l
	}
	layout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "root-signature",
		BindGroupLayouts: groups,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create pipeline layout: %w", err)
	}
	rs := &rootSignature{dev: d, layout: layout, params: desc.Params}
	for _, s := range desc.StaticSamplers {
		sampler, err := d.device.CreateSampler(samplerDescriptor(fmt.Sprintf("static-s%d", s.Register), s.Desc))
		if err != nil {
			rs.Release()
			return nil, fmt.Errorf("halgpu: create static sampler s%d: %w", s.Register, err)
		}
		rs.static = append(rs.static, sampler)
	}
	return rs, nil
}

// Release implements gpu.NativeRootSignature.
func (rs *rootSignature) Release() {
	for _, s := range rs.static {
		rs.dev.device.DestroySampler(s)
	}
	rs.static = nil
	if rs.layout != nil {
		rs.dev.device.DestroyPipelineLayout(rs.layout)
		rs.layout = nil
	}
}
