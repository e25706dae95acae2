// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glimm/internal/gpu"
)

// Frame is a presented back buffer. The texture is in copy-source usage
// and stays valid until the swap chain hands the same index out again.
type Frame struct {
	Texture hal.Texture
	Width   uint32
	Height  uint32
	Format  gputypes.TextureFormat
	Index   uint32
	Serial  uint64
}

// Presenter receives every presented frame after its commands have been
// submitted. A host compositing into a window copies the texture onto its
// surface; offscreen users read it back with Device.ReadFrame.
type Presenter func(Frame) error

// swapChain rotates through offscreen render targets. hal surfaces belong
// to the host window, so presentation is delegated to the Presenter.
type swapChain struct {
	dev     *Device
	desc    gpu.SwapChainDesc
	buffers []*texture
	current uint32
	serial  uint64
}

var _ gpu.SwapChain = (*swapChain)(nil)

// CreateSwapChain implements gpu.Device.
func (d *Device) CreateSwapChain(q gpu.CommandQueue, desc gpu.SwapChainDesc) (gpu.SwapChain, error) {
	if qq, ok := q.(*queue); !ok || qq.dev != d {
		return nil, fmt.Errorf("%w: queue %T", ErrForeignObject, q)
	}
	if desc.BufferCount == 0 {
		return nil, errors.New("halgpu: swap chain needs at least one buffer")
	}
	sc := &swapChain{dev: d, desc: desc}
	if err := sc.createBuffers(); err != nil {
		return nil, err
	}
	slogger().Debug("halgpu: swap chain created",
		"width", desc.Width, "height", desc.Height, "buffers", desc.BufferCount)
	return sc, nil
}

func (sc *swapChain) createBuffers() error {
	sc.buffers = make([]*texture, sc.desc.BufferCount)
	for i := range sc.buffers {
		t, err := sc.dev.createTexture(gpu.TextureDesc{
			Label:        fmt.Sprintf("back-buffer-%d", i),
			Width:        sc.desc.Width,
			Height:       sc.desc.Height,
			MipLevels:    1,
			Format:       sc.desc.Format,
			RenderTarget: true,
			InitialState: gpu.StatePresent,
		}, 0)
		if err != nil {
			sc.releaseBuffers()
			return err
		}
		sc.buffers[i] = t
	}
	sc.current = 0
	return nil
}

func (sc *swapChain) releaseBuffers() {
	for _, t := range sc.buffers {
		if t != nil {
			t.Release()
		}
	}
	sc.buffers = nil
}

// BufferCount implements gpu.SwapChain.
func (sc *swapChain) BufferCount() uint32 { return uint32(len(sc.buffers)) }

// CurrentBackBufferIndex implements gpu.SwapChain.
func (sc *swapChain) CurrentBackBufferIndex() uint32 { return sc.current }

// BackBuffer implements gpu.SwapChain.
func (sc *swapChain) BackBuffer(index uint32) gpu.NativeResource { return sc.buffers[index] }

// Present implements gpu.SwapChain. vsync is up to the presenter's
// surface; the offscreen chain never blocks on it.
func (sc *swapChain) Present(bool) error {
	t := sc.buffers[sc.current]
	sc.serial++
	if p := sc.dev.presenter; p != nil {
		err := p(Frame{
			Texture: t.raw,
			Width:   sc.desc.Width,
			Height:  sc.desc.Height,
			Format:  t.format,
			Index:   sc.current,
			Serial:  sc.serial,
		})
		if err != nil {
			return fmt.Errorf("halgpu: present frame %d: %w", sc.serial, err)
		}
	}
	sc.current = (sc.current + 1) % uint32(len(sc.buffers))
	return nil
}

// Resize implements gpu.SwapChain.
func (sc *swapChain) Resize(width, height uint32) error {
	if err := sc.dev.WaitIdle(); err != nil {
		return err
	}
	sc.releaseBuffers()
	sc.desc.Width, sc.desc.Height = width, height
	return sc.createBuffers()
}

// Release implements gpu.SwapChain.
func (sc *swapChain) Release() {
	if err := sc.dev.WaitIdle(); err != nil {
		slogger().Warn("halgpu: swap chain release wait failed", "err", err)
	}
	sc.releaseBuffers()
}

// ReadFrame copies a presented frame back to the CPU. Call it from the
// Presenter, before the back buffer is rendered into again.
func (d *Device) ReadFrame(f Frame) (*image.RGBA, error) {
	if f.Texture == nil || f.Width == 0 || f.Height == 0 {
		return nil, errors.New("halgpu: read of an empty frame")
	}
	const bytesPerPixel = 4
	bytesPerRow := f.Width * bytesPerPixel
	alignedBytesPerRow := (bytesPerRow + 255) &^ 255
	size := uint64(alignedBytesPerRow) * uint64(f.Height)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "frame-readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create readback buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "frame-readback"})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame-readback"); err != nil {
		return nil, fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	encoder.CopyTextureToBuffer(f.Texture, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: f.Height},
		TextureBase:  hal.ImageCopyTexture{Texture: f.Texture, MipLevel: 0},
		Size:         hal.Extent3D{Width: f.Width, Height: f.Height, DepthOrArrayLayers: 1},
	}})
	cb, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("halgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cb)

	fence, err := d.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("halgpu: create readback fence: %w", err)
	}
	defer d.device.DestroyFence(fence)
	if err := d.queue.Submit([]hal.CommandBuffer{cb}, fence, 1); err != nil {
		return nil, fmt.Errorf("halgpu: submit readback: %w", err)
	}
	if err := waitFence(d.device, fence, 1); err != nil {
		return nil, err
	}

	data := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, data); err != nil {
		return nil, fmt.Errorf("halgpu: read back frame: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, int(f.Width), int(f.Height)))
	swap := f.Format == gputypes.TextureFormatBGRA8Unorm
	for y := range int(f.Height) {
		src := data[y*int(alignedBytesPerRow) : y*int(alignedBytesPerRow)+int(bytesPerRow)]
		dst := img.Pix[y*img.Stride : y*img.Stride+int(bytesPerRow)]
		copy(dst, src)
		if swap {
			for i := 0; i < len(dst); i += bytesPerPixel {
				dst[i], dst[i+2] = dst[i+2], dst[i]
			}
		}
	}
	return img, nil
}
