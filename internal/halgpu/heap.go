// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glimm/internal/gpu"
)

// descriptorIncrement is the handle stride between slots.
const descriptorIncrement = 32

// gpuHandleBit separates the GPU handle range of a heap from its CPU range.
const gpuHandleBit = 1 << 31

// heap is a table of slots. Handles are the heap ID in the high 32 bits and
// the slot offset in the low bits.
type heap struct {
	dev   *Device
	id    uint32
	desc  gpu.HeapDesc
	slots []slot
}

// slot holds the hal objects built from one written view. Shader-visible
// SRV and sampler slots also own the bind group a descriptor table binds.
type slot struct {
	heap    *heap
	view    gpu.View
	written bool
	tex     *texture
	texView hal.TextureView
	sampler hal.Sampler
	group   hal.BindGroup
}

var _ gpu.NativeHeap = (*heap)(nil)

// CreateDescriptorHeap implements gpu.Device.
func (d *Device) CreateDescriptorHeap(desc gpu.HeapDesc) (gpu.NativeHeap, error) {
	if desc.Count == 0 || uint64(desc.Count)*descriptorIncrement >= gpuHandleBit {
		return nil, fmt.Errorf("halgpu: heap %q of %d descriptors", desc.Label, desc.Count)
	}
	h := &heap{dev: d, desc: desc, slots: make([]slot, desc.Count)}
	for i := range h.slots {
		h.slots[i].heap = h
	}
	d.mu.Lock()
	d.nextHeap++
	h.id = d.nextHeap
	d.heaps[h.id] = h
	d.mu.Unlock()
	return h, nil
}

// CPUStart implements gpu.NativeHeap.
func (h *heap) CPUStart() uint64 { return uint64(h.id) << 32 }

// GPUStart implements gpu.NativeHeap.
func (h *heap) GPUStart() uint64 {
	if !h.desc.ShaderVisible {
		return gpu.AddressUnknown
	}
	return uint64(h.id)<<32 | gpuHandleBit
}

// Increment implements gpu.NativeHeap.
func (h *heap) Increment() uint32 { return descriptorIncrement }

// WriteView implements gpu.NativeHeap. Any objects built for the previous
// contents of the slot are destroyed first.
func (h *heap) WriteView(index uint32, v gpu.View) error {
	if index >= uint32(len(h.slots)) {
		return fmt.Errorf("%w: slot %d of %d", ErrUnknownHandle, index, len(h.slots))
	}
	s := &h.slots[index]
	s.clear()
	var err error
	switch v.Kind {
	case gpu.ViewRTV, gpu.ViewDSV, gpu.ViewSRV:
		err = s.writeTexture(v)
	case gpu.ViewSampler:
		err = s.writeSampler(v.Sampler)
	case gpu.ViewCBV:
		_, err = asBuffer(v.Resource)
	default:
		err = fmt.Errorf("halgpu: unknown view kind %d", v.Kind)
	}
	if err != nil {
		s.clear()
		return fmt.Errorf("halgpu: write %s slot %d: %w", h.desc.Label, index, err)
	}
	s.view = v
	s.written = true
	return nil
}

func (s *slot) writeTexture(v gpu.View) error {
	t, err := asTexture(v.Resource)
	if err != nil {
		return err
	}
	levels := uint32(1)
	if v.Kind == gpu.ViewSRV {
		levels = t.desc.MipLevels
		if v.MipLevels != 0 {
			levels = min(v.MipLevels, levels)
		}
	}
	view, err := s.heap.dev.device.CreateTextureView(t.raw, &hal.TextureViewDescriptor{
		Label:         t.desc.Label,
		Format:        t.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: levels,
	})
	if err != nil {
		return err
	}
	s.tex = t
	s.texView = view
	t.views[s] = struct{}{}
	if v.Kind != gpu.ViewSRV || !s.heap.desc.ShaderVisible {
		return nil
	}
	layout, err := s.heap.dev.layout(gpu.RootParamSRVTable)
	if err != nil {
		return err
	}
	s.group, err = s.heap.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  t.desc.Label + "-srv",
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
		},
	})
	return err
}

func addressMode(m gpu.AddressMode) gputypes.AddressMode {
	if m == gpu.AddressClamp {
		return gputypes.AddressModeClampToEdge
	}
	return gputypes.AddressModeRepeat
}

func filterMode(f gpu.Filter) gputypes.FilterMode {
	if f == gpu.FilterLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

// samplerDescriptor maps legacy sampler state. Without mipmaps the mip
// filter is nearest; the textures such samplers meet have one level.
func samplerDescriptor(label string, d gpu.SamplerDesc) *hal.SamplerDescriptor {
	mip := gputypes.FilterModeNearest
	if d.Mipmaps {
		mip = filterMode(d.MipFilter)
	}
	return &hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: addressMode(d.AddressU),
		AddressModeV: addressMode(d.AddressV),
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filterMode(d.MagFilter),
		MinFilter:    filterMode(d.MinFilter),
		MipmapFilter: mip,
	}
}

func (s *slot) writeSampler(d gpu.SamplerDesc) error {
	dev := s.heap.dev
	sampler, err := dev.device.CreateSampler(samplerDescriptor("sampler", d))
	if err != nil {
		return err
	}
	s.sampler = sampler
	if !s.heap.desc.ShaderVisible {
		return nil
	}
	layout, err := dev.layout(gpu.RootParamSamplerTable)
	if err != nil {
		return err
	}
	s.group, err = dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sampler-table",
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
		},
	})
	return err
}

// clear destroys whatever the slot built and forgets its view.
func (s *slot) clear() {
	dev := s.heap.dev
	if s.group != nil {
		dev.device.DestroyBindGroup(s.group)
		s.group = nil
	}
	if s.texView != nil {
		dev.device.DestroyTextureView(s.texView)
		s.texView = nil
	}
	if s.tex != nil {
		delete(s.tex.views, s)
		s.tex = nil
	}
	if s.sampler != nil {
		dev.device.DestroySampler(s.sampler)
		s.sampler = nil
	}
	s.view = gpu.View{}
	s.written = false
}

// CopyFrom implements gpu.NativeHeap by rewriting each source view into
// the destination slots.
func (h *heap) CopyFrom(dstIndex uint32, src gpu.NativeHeap, srcIndex, count uint32) error {
	from, ok := src.(*heap)
	if !ok || from.dev != h.dev {
		return fmt.Errorf("%w: heap %T", ErrForeignObject, src)
	}
	if srcIndex+count > uint32(len(from.slots)) || dstIndex+count > uint32(len(h.slots)) {
		return fmt.Errorf("%w: copy of %d slots", ErrUnknownHandle, count)
	}
	for i := range count {
		s := &from.slots[srcIndex+i]
		if !s.written {
			h.slots[dstIndex+i].clear()
			continue
		}
		if err := h.WriteView(dstIndex+i, s.view); err != nil {
			return err
		}
	}
	return nil
}

// Release implements gpu.NativeHeap.
func (h *heap) Release() {
	for i := range h.slots {
		h.slots[i].clear()
	}
	h.dev.mu.Lock()
	delete(h.dev.heaps, h.id)
	h.dev.mu.Unlock()
}

// lookup returns the written slot a handle addresses.
func (d *Device) lookup(handle gpu.DescriptorHandle) (*slot, error) {
	d.mu.Lock()
	h := d.heaps[uint32(handle.CPU>>32)]
	d.mu.Unlock()
	if h == nil {
		return nil, fmt.Errorf("%w: %#x", ErrUnknownHandle, handle.CPU)
	}
	off := handle.CPU & (gpuHandleBit - 1)
	i := off / descriptorIncrement
	if off%descriptorIncrement != 0 || i >= uint64(len(h.slots)) || !h.slots[i].written {
		return nil, fmt.Errorf("%w: %s slot at %#x", ErrUnknownHandle, h.desc.Label, handle.CPU)
	}
	return &h.slots[i], nil
}
