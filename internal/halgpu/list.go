// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glimm/internal/gpu"
)

type dirtyFlags uint8

const (
	dirtyPipeline dirtyFlags = 1 << iota
	dirtyViewport
	dirtyScissor
	dirtyGroups
	dirtyVertexBuffer

	dirtyAll = dirtyPipeline | dirtyViewport | dirtyScissor | dirtyGroups | dirtyVertexBuffer
)

// commandList records into a hal command encoder. Draw state is kept on
// the list and replayed whenever a render pass begins; passes begin at the
// first draw after the targets change and end at barriers, copies and
// Close. Clears become the load operations of the next pass.
type commandList struct {
	dev       *Device
	alloc     *allocator
	enc       hal.CommandEncoder
	recording bool
	done      hal.CommandBuffer
	err       error

	pass  hal.RenderPassEncoder
	dirty dirtyFlags

	rtv, dsv     *slot
	clearColor   *[4]float32
	clearDepth   *float32
	clearStencil uint8

	viewport gpu.Viewport
	scissor  gpu.Rect
	topology gpu.Topology
	pipeline *pipeline
	bound    hal.RenderPipeline

	groups    [3]hal.BindGroup
	cbvOffset uint32

	vb       *buffer
	vbOffset uint64
}

var _ gpu.CommandList = (*commandList)(nil)

// fail remembers the first recording error; Close returns it.
func (l *commandList) fail(err error) {
	slogger().Debug("halgpu: recording error", "err", err)
	if l.err == nil {
		l.err = err
	}
}

// Reset implements gpu.CommandList.
func (l *commandList) Reset(alloc gpu.CommandAllocator) error {
	a, ok := alloc.(*allocator)
	if !ok || a.dev != l.dev {
		return fmt.Errorf("%w: allocator %T", ErrForeignObject, alloc)
	}
	if l.recording {
		l.pass = nil
		l.enc.DiscardEncoding()
	}
	enc, err := l.dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "glimm-frame"})
	if err != nil {
		return fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("glimm-frame"); err != nil {
		return fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	*l = commandList{
		dev:       l.dev,
		alloc:     a,
		enc:       enc,
		recording: true,
		done:      l.done,
		topology:  gpu.TopologyTriangleList,
		dirty:     dirtyAll,
	}
	return nil
}

// Close implements gpu.CommandList.
func (l *commandList) Close() error {
	if !l.recording {
		return ErrListClosed
	}
	l.endPass()
	l.flushClears()
	cb, err := l.enc.EndEncoding()
	l.recording = false
	if err != nil {
		return fmt.Errorf("halgpu: end encoding: %w", err)
	}
	l.alloc.buffers = append(l.alloc.buffers, cb)
	l.done = cb
	if l.err != nil {
		err, l.err = l.err, nil
		return err
	}
	return nil
}

// take hands the closed command buffer to the queue.
func (l *commandList) take() (hal.CommandBuffer, error) {
	if l.recording || l.done == nil {
		return nil, errors.New("halgpu: execute of a list that is not closed")
	}
	cb := l.done
	l.done = nil
	return cb, nil
}

func (l *commandList) endPass() {
	if l.pass != nil {
		l.pass.End()
		l.pass = nil
		l.dirty = dirtyAll
	}
}

// flushClears runs an empty pass for clears no draw has consumed.
func (l *commandList) flushClears() {
	if l.clearColor == nil && l.clearDepth == nil {
		return
	}
	if l.beginPass() {
		l.endPass()
	}
}

// beginPass opens a pass on the bound targets, consuming pending clears.
func (l *commandList) beginPass() bool {
	if l.pass != nil {
		return true
	}
	if l.rtv == nil || l.rtv.texView == nil {
		l.fail(errors.New("halgpu: draw without a render target"))
		return false
	}
	color := hal.RenderPassColorAttachment{
		View:    l.rtv.texView,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if c := l.clearColor; c != nil {
		color.LoadOp = gputypes.LoadOpClear
		color.ClearValue = gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
	}
	desc := &hal.RenderPassDescriptor{
		Label:            "glimm-pass",
		ColorAttachments: []hal.RenderPassColorAttachment{color},
	}
	if l.dsv != nil && l.dsv.texView != nil {
		ds := &hal.RenderPassDepthStencilAttachment{
			View:         l.dsv.texView,
			DepthLoadOp:  gputypes.LoadOpLoad,
			DepthStoreOp: gputypes.StoreOpStore,
		}
		if d := l.clearDepth; d != nil {
			ds.DepthLoadOp = gputypes.LoadOpClear
			ds.DepthClearValue = *d
		}
		desc.DepthStencilAttachment = ds
	}
	l.clearColor, l.clearDepth = nil, nil
	l.pass = l.enc.BeginRenderPass(desc)
	l.dirty = dirtyAll
	return true
}

// textureUsage maps a resource state to the hal usage a barrier names.
// States with no single usage map to zero and are not transitioned.
func textureUsage(s gpu.ResourceState) gputypes.TextureUsage {
	switch s {
	case gpu.StateRenderTarget, gpu.StateDepthWrite, gpu.StateDepthRead:
		return gputypes.TextureUsageRenderAttachment
	case gpu.StatePixelShaderResource, gpu.StateNonPixelShaderResource:
		return gputypes.TextureUsageTextureBinding
	case gpu.StateCopyDest:
		return gputypes.TextureUsageCopyDst
	case gpu.StateCopySource, gpu.StatePresent:
		return gputypes.TextureUsageCopySrc
	}
	return 0
}

// ResourceBarrier implements gpu.CommandList. Buffer and UAV barriers need
// nothing on hal; texture transitions end the current pass. The begin half
// of a split barrier is dropped and its end half issues the transition.
func (l *commandList) ResourceBarrier(barriers []gpu.Barrier) {
	var out []hal.TextureBarrier
	for _, b := range barriers {
		if b.Kind != gpu.BarrierTransition || b.Flags == gpu.BarrierFlagBeginOnly {
			continue
		}
		t, ok := b.Resource.(*texture)
		if !ok || t.raw == nil {
			continue
		}
		from, to := textureUsage(b.Before), textureUsage(b.After)
		if from == 0 || to == 0 || from == to {
			continue
		}
		out = append(out, hal.TextureBarrier{
			Texture: t.raw,
			Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: to},
		})
	}
	if len(out) == 0 {
		return
	}
	l.endPass()
	l.flushClears()
	l.enc.TransitionTextures(out)
}

// SetDescriptorHeaps implements gpu.CommandList. Tables carry their heap
// in the handle, so there is nothing to bind.
func (l *commandList) SetDescriptorHeaps(...gpu.NativeHeap) {}

// SetGraphicsRootSignature implements gpu.CommandList. Pipelines carry
// their layout; binding a signature drops the root bindings.
func (l *commandList) SetGraphicsRootSignature(rs gpu.NativeRootSignature) {
	if _, ok := rs.(*rootSignature); !ok {
		l.fail(fmt.Errorf("%w: root signature %T", ErrForeignObject, rs))
		return
	}
	l.groups = [3]hal.BindGroup{}
	l.dirty |= dirtyGroups
}

// SetPipelineState implements gpu.CommandList.
func (l *commandList) SetPipelineState(p gpu.NativePipeline) {
	pp, ok := p.(*pipeline)
	if !ok {
		l.fail(fmt.Errorf("%w: pipeline %T", ErrForeignObject, p))
		return
	}
	l.pipeline = pp
	l.dirty |= dirtyPipeline
}

// SetGraphicsRootConstantBufferView implements gpu.CommandList by binding
// the buffer's constant group with the address offset as dynamic offset.
func (l *commandList) SetGraphicsRootConstantBufferView(param uint32, address uint64) {
	b, off, err := l.dev.resolve(address)
	if err != nil {
		l.fail(err)
		return
	}
	g, err := b.uniformGroup()
	if err != nil {
		l.fail(err)
		return
	}
	if param >= uint32(len(l.groups)) {
		l.fail(fmt.Errorf("halgpu: root parameter %d", param))
		return
	}
	l.groups[param] = g
	l.cbvOffset = uint32(off)
	l.dirty |= dirtyGroups
}

// SetGraphicsRootDescriptorTable implements gpu.CommandList.
func (l *commandList) SetGraphicsRootDescriptorTable(param uint32, base gpu.DescriptorHandle) {
	s, err := l.dev.lookup(base)
	if err != nil {
		l.fail(err)
		return
	}
	if s.group == nil || param >= uint32(len(l.groups)) {
		l.fail(fmt.Errorf("halgpu: slot %#x cannot back table %d", base.CPU, param))
		return
	}
	l.groups[param] = s.group
	l.dirty |= dirtyGroups
}

// SetRenderTargets implements gpu.CommandList.
func (l *commandList) SetRenderTargets(rtv gpu.DescriptorHandle, dsv *gpu.DescriptorHandle) {
	rs, err := l.dev.lookup(rtv)
	if err != nil {
		l.fail(err)
		return
	}
	var ds *slot
	if dsv != nil {
		if ds, err = l.dev.lookup(*dsv); err != nil {
			l.fail(err)
			return
		}
	}
	if rs == l.rtv && ds == l.dsv {
		return
	}
	l.endPass()
	l.flushClears()
	l.rtv, l.dsv = rs, ds
}

// ClearRenderTargetView implements gpu.CommandList. Clearing a target
// other than the bound one runs a pass of its own.
func (l *commandList) ClearRenderTargetView(rtv gpu.DescriptorHandle, color [4]float32) {
	s, err := l.dev.lookup(rtv)
	if err != nil {
		l.fail(err)
		return
	}
	l.endPass()
	if s != l.rtv {
		l.flushClears()
		saved, savedDS := l.rtv, l.dsv
		l.rtv, l.dsv = s, nil
		l.clearColor = &color
		l.flushClears()
		l.rtv, l.dsv = saved, savedDS
		return
	}
	l.clearColor = &color
}

// ClearDepthStencilView implements gpu.CommandList.
func (l *commandList) ClearDepthStencilView(dsv gpu.DescriptorHandle, depth float32, stencil uint8) {
	s, err := l.dev.lookup(dsv)
	if err != nil {
		l.fail(err)
		return
	}
	if s != l.dsv {
		l.fail(errors.New("halgpu: clear of a depth buffer that is not bound"))
		return
	}
	l.endPass()
	l.clearDepth = &depth
	l.clearStencil = stencil
}

// SetViewport implements gpu.CommandList.
func (l *commandList) SetViewport(v gpu.Viewport) {
	l.viewport = v
	l.dirty |= dirtyViewport
}

// SetScissorRect implements gpu.CommandList.
func (l *commandList) SetScissorRect(r gpu.Rect) {
	l.scissor = r
	l.dirty |= dirtyScissor
}

// SetPrimitiveTopology implements gpu.CommandList.
func (l *commandList) SetPrimitiveTopology(t gpu.Topology) {
	if t != l.topology {
		l.topology = t
		l.dirty |= dirtyPipeline
	}
}

// SetVertexBuffer implements gpu.CommandList.
func (l *commandList) SetVertexBuffer(v gpu.VertexBufferView) {
	b, off, err := l.dev.resolve(v.Address)
	if err != nil {
		l.fail(err)
		return
	}
	l.vb, l.vbOffset = b, off
	l.dirty |= dirtyVertexBuffer
}

// apply replays the state that changed since the pass last saw it.
func (l *commandList) apply() bool {
	if l.dirty&dirtyPipeline != 0 {
		if l.pipeline == nil {
			l.fail(errors.New("halgpu: draw without a pipeline"))
			return false
		}
		raw := l.pipeline.variant(l.topology)
		if raw == nil {
			l.fail(fmt.Errorf("halgpu: pipeline %s has no topology %d", l.pipeline.label, l.topology))
			return false
		}
		l.pass.SetPipeline(raw)
	}
	if l.dirty&dirtyViewport != 0 {
		v := l.viewport
		l.pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
	}
	if l.dirty&dirtyScissor != 0 {
		r := l.scissor
		if r.Right > r.Left && r.Bottom > r.Top {
			l.pass.SetScissorRect(uint32(max(r.Left, 0)), uint32(max(r.Top, 0)), uint32(r.Right-max(r.Left, 0)), uint32(r.Bottom-max(r.Top, 0)))
		}
	}
	if l.dirty&dirtyGroups != 0 {
		for i, g := range l.groups {
			if g == nil {
				l.fail(fmt.Errorf("halgpu: root parameter %d not bound", i))
				return false
			}
			var offsets []uint32
			if i == int(gpu.RootFrameConstants) {
				offsets = []uint32{l.cbvOffset}
			}
			l.pass.SetBindGroup(uint32(i), g, offsets)
		}
	}
	if l.dirty&dirtyVertexBuffer != 0 && l.vb != nil {
		l.pass.SetVertexBuffer(0, l.vb.raw, l.vbOffset)
	}
	l.dirty = 0
	return true
}

// DrawInstanced implements gpu.CommandList.
func (l *commandList) DrawInstanced(vertexCount, instanceCount, startVertex, startInstance uint32) {
	if !l.recording {
		l.fail(ErrListClosed)
		return
	}
	if !l.beginPass() || !l.apply() {
		return
	}
	l.pass.Draw(vertexCount, instanceCount, startVertex, startInstance)
}

// CopyBufferRegion implements gpu.CommandList.
func (l *commandList) CopyBufferRegion(dst gpu.NativeResource, dstOffset uint64, src gpu.NativeResource, srcOffset, size uint64) {
	d, err := asBuffer(dst)
	if err != nil {
		l.fail(err)
		return
	}
	s, err := asBuffer(src)
	if err != nil {
		l.fail(err)
		return
	}
	l.endPass()
	l.flushClears()
	l.enc.CopyBufferToBuffer(s.raw, d.raw, []hal.BufferCopy{{SrcOffset: srcOffset, DstOffset: dstOffset, Size: size}})
}

// CopyBufferToTexture implements gpu.CommandList.
func (l *commandList) CopyBufferToTexture(dst gpu.NativeResource, mipLevel uint32, src gpu.NativeResource, layout gpu.TextureCopyLayout) {
	t, err := asTexture(dst)
	if err != nil {
		l.fail(err)
		return
	}
	s, err := asBuffer(src)
	if err != nil {
		l.fail(err)
		return
	}
	l.endPass()
	l.flushClears()
	l.enc.CopyBufferToTexture(s.raw, t.raw, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: layout.Offset, BytesPerRow: layout.RowPitch, RowsPerImage: layout.Height},
		TextureBase: hal.ImageCopyTexture{
			Texture:  t.raw,
			MipLevel: mipLevel,
			Origin:   hal.Origin3D{X: 0, Y: layout.Y, Z: 0},
		},
		Size: hal.Extent3D{Width: layout.Width, Height: layout.Height, DepthOrArrayLayers: 1},
	}})
}
