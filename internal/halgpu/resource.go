// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glimm/internal/gpu"
)

// buffer is a hal buffer registered under an ID that forms the high half of
// its GPU addresses. Upload buffers keep a CPU copy whose flushed ranges
// are written through the queue before the next submission.
type buffer struct {
	dev    *Device
	id     uint32
	raw    hal.Buffer
	label  string
	size   uint64
	upload bool
	shadow []byte

	dirtyLo, dirtyHi uint64

	// uniform binds the buffer as a root constant buffer with a dynamic
	// offset. Created on first use.
	uniform hal.BindGroup
}

var (
	_ gpu.MappedResource = (*buffer)(nil)
	_ gpu.NativeResource = (*texture)(nil)
)

// Every buffer is a copy source and destination; upload buffers receive
// their CPU copy through queue writes.
var bufferUsage = gputypes.BufferUsageVertex | gputypes.BufferUsageUniform |
	gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc

// CreateBuffer implements gpu.Device.
func (d *Device) CreateBuffer(desc gpu.BufferDesc) (gpu.NativeResource, error) {
	size := (desc.Size + 3) &^ 3
	raw, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  size,
		Usage: bufferUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create buffer %q: %w", desc.Label, err)
	}
	b := &buffer{
		dev:    d,
		raw:    raw,
		label:  desc.Label,
		size:   size,
		upload: desc.Heap == gpu.HeapUpload,
	}
	if b.upload {
		b.shadow = make([]byte, size)
	}
	d.mu.Lock()
	d.nextBuffer++
	b.id = d.nextBuffer
	d.buffers[b.id] = b
	d.mu.Unlock()
	return b, nil
}

// GPUAddress implements gpu.NativeResource.
func (b *buffer) GPUAddress() uint64 { return uint64(b.id) << 32 }

// Mapped implements gpu.MappedResource. Default-heap buffers return nil.
func (b *buffer) Mapped() []byte { return b.shadow }

// Flush implements gpu.MappedResource.
func (b *buffer) Flush(offset, size uint64) {
	if !b.upload || size == 0 {
		return
	}
	lo := offset &^ 3
	hi := min((offset+size+3)&^3, b.size)
	if b.dirtyHi == 0 {
		b.dirtyLo, b.dirtyHi = lo, hi
		return
	}
	b.dirtyLo = min(b.dirtyLo, lo)
	b.dirtyHi = max(b.dirtyHi, hi)
}

// writeDirty publishes the flushed range.
func (b *buffer) writeDirty(q hal.Queue) {
	if b.dirtyHi <= b.dirtyLo {
		return
	}
	q.WriteBuffer(b.raw, b.dirtyLo, b.shadow[b.dirtyLo:b.dirtyHi])
	b.dirtyLo, b.dirtyHi = 0, 0
}

// uniformGroup returns the bind group that exposes b at group 0 with a
// dynamic offset.
func (b *buffer) uniformGroup() (hal.BindGroup, error) {
	if b.uniform != nil {
		return b.uniform, nil
	}
	layout, err := b.dev.layout(gpu.RootParamCBV)
	if err != nil {
		return nil, err
	}
	size := min(uint64(gpu.FrameConstantsSize), b.size)
	g, err := b.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  b.label + "-cbv",
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: b.raw.NativeHandle(), Offset: 0, Size: size}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: bind %q as constants: %w", b.label, err)
	}
	b.uniform = g
	return g, nil
}

// Release implements gpu.NativeResource.
func (b *buffer) Release() {
	if b.raw == nil {
		return
	}
	b.dev.mu.Lock()
	delete(b.dev.buffers, b.id)
	b.dev.mu.Unlock()
	if b.uniform != nil {
		b.dev.device.DestroyBindGroup(b.uniform)
		b.uniform = nil
	}
	b.dev.device.DestroyBuffer(b.raw)
	b.raw = nil
	b.shadow = nil
}

// resolve splits a GPU address into its buffer and byte offset.
func (d *Device) resolve(address uint64) (*buffer, uint64, error) {
	d.mu.Lock()
	b := d.buffers[uint32(address>>32)]
	d.mu.Unlock()
	off := address & 0xFFFFFFFF
	if b == nil || off >= b.size {
		return nil, 0, fmt.Errorf("%w: %#x", ErrUnknownAddress, address)
	}
	return b, off, nil
}

// flushUploads writes every dirty upload range before a submission.
func (d *Device) flushUploads() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range d.buffers {
		if b.upload {
			b.writeDirty(d.queue)
		}
	}
}

// texture is a hal texture plus every view written into a descriptor heap
// from it, so Release can drop them first.
type texture struct {
	dev    *Device
	raw    hal.Texture
	desc   gpu.TextureDesc
	format gputypes.TextureFormat
	views  map[*slot]struct{}
}

func textureFormat(f gpu.TextureFormat) (gputypes.TextureFormat, error) {
	switch f {
	case gpu.FormatRGBA8:
		return gputypes.TextureFormatRGBA8Unorm, nil
	case gpu.FormatBGRA8:
		return gputypes.TextureFormatBGRA8Unorm, nil
	case gpu.FormatDepth32:
		return gputypes.TextureFormatDepth32Float, nil
	}
	return gputypes.TextureFormatUndefined, fmt.Errorf("halgpu: unsupported texture format %d", f)
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(desc gpu.TextureDesc) (gpu.NativeResource, error) {
	return d.createTexture(desc, 0)
}

func (d *Device) createTexture(desc gpu.TextureDesc, extra gputypes.TextureUsage) (*texture, error) {
	format, err := textureFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	usage := gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | extra
	switch {
	case desc.DepthStencil:
		usage = gputypes.TextureUsageRenderAttachment
	case desc.RenderTarget:
		usage |= gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc
	}
	levels := max(desc.MipLevels, 1)
	raw, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: levels,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create texture %q: %w", desc.Label, err)
	}
	desc.MipLevels = levels
	return &texture{
		dev:    d,
		raw:    raw,
		desc:   desc,
		format: format,
		views:  make(map[*slot]struct{}),
	}, nil
}

// GPUAddress implements gpu.NativeResource.
func (t *texture) GPUAddress() uint64 { return gpu.AddressUnknown }

// Release destroys the views written from t, then t.
func (t *texture) Release() {
	if t.raw == nil {
		return
	}
	for s := range t.views {
		s.clear()
	}
	t.dev.device.DestroyTexture(t.raw)
	t.raw = nil
}

func asTexture(r gpu.NativeResource) (*texture, error) {
	t, ok := r.(*texture)
	if !ok || t.raw == nil {
		return nil, fmt.Errorf("%w: %T is not a live texture", ErrForeignObject, r)
	}
	return t, nil
}

func asBuffer(r gpu.NativeResource) (*buffer, error) {
	b, ok := r.(*buffer)
	if !ok || b.raw == nil {
		return nil, fmt.Errorf("%w: %T is not a live buffer", ErrForeignObject, r)
	}
	return b, nil
}
