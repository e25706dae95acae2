package gpu

import "fmt"

// Copy alignments of the explicit API.
const (
	TextureRowPitchAlignment  = 256
	TexturePlacementAlignment = 512
)

// Texture is a sampled RGBA8 texture with its shader resource view and the
// sampler state chosen for it.
type Texture struct {
	res     *Resource
	srv     DescriptorHandle
	width   uint32
	height  uint32
	levels  uint32
	bytes   uint64
	Sampler SamplerDesc
}

// Width returns the width of level 0.
func (t *Texture) Width() uint32 { return t.width }

// Height returns the height of level 0.
func (t *Texture) Height() uint32 { return t.height }

// Levels returns the mip level count.
func (t *Texture) Levels() uint32 { return t.levels }

// Resource returns the wrapped texture resource.
func (t *Texture) Resource() *Resource { return t.res }

// SRV returns the shader-visible descriptor of the texture.
func (t *Texture) SRV() DescriptorHandle { return t.srv }

// CreateTexture creates an RGBA8 texture and records the upload of levels,
// which hold tightly packed rows of successive mip levels. The texture is
// left in the pixel-shader-resource state. The texture counts against the
// texture memory budget until it is released.
func (b *Backend) CreateTexture(label string, width, height uint32, levels [][]byte) (_ *Texture, err error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	if width == 0 || height == 0 || len(levels) == 0 {
		return nil, fmt.Errorf("gpu: create texture %q: %w", label, ErrZeroSize)
	}
	for i, px := range levels {
		w, h := mipSize(width, i), mipSize(height, i)
		if len(px) < int(w*h*4) {
			return nil, fmt.Errorf("gpu: create texture %q: level %d has %d bytes, want %d", label, i, len(px), w*h*4)
		}
	}
	size := textureBytes(width, height, uint32(len(levels)))
	if err := b.memory.Reserve(size); err != nil {
		return nil, fmt.Errorf("gpu: create texture %q: %w", label, err)
	}
	deferred := false
	defer func() {
		if err != nil && !deferred {
			b.memory.Free(size)
		}
	}()
	native, err := b.device.CreateTexture(TextureDesc{
		Label:        label,
		Width:        width,
		Height:       height,
		MipLevels:    uint32(len(levels)),
		Format:       FormatRGBA8,
		InitialState: StateCopyDest,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create texture %q: %w", label, err)
	}
	t := &Texture{
		res:     NewResource(native, label, StateCopyDest),
		width:   width,
		height:  height,
		levels:  uint32(len(levels)),
		bytes:   size,
		Sampler: SamplerDesc{MinFilter: FilterLinear, MagFilter: FilterLinear},
	}
	srv, err := b.heaps.Alloc(DescriptorCBVSRVUAV, 1)
	if err != nil {
		t.res.Destroy()
		return nil, fmt.Errorf("gpu: create texture %q: %w", label, err)
	}
	t.srv = srv
	view := View{Kind: ViewSRV, Resource: native, Format: FormatRGBA8, MipLevels: t.levels}
	if err := b.heaps.Heap(DescriptorCBVSRVUAV).WriteView(srv, view); err != nil {
		t.res.Destroy()
		return nil, fmt.Errorf("gpu: create texture %q: %w", label, err)
	}
	for i, px := range levels {
		if err := b.uploadLevel(t, uint32(i), px); err != nil {
			// Copies recorded so far still reference the texture.
			deferred = true
			b.Defer(func() {
				t.res.Destroy()
				b.memory.Free(size)
			})
			return nil, fmt.Errorf("gpu: upload texture %q: %w", label, err)
		}
	}
	b.tracker.TransitionResource(t.res, StatePixelShaderResource, true)
	return t, nil
}

// uploadLevel stages one level through the ring in bands of rows that fit a
// quarter of the ring, so large textures never need one huge allocation.
func (b *Backend) uploadLevel(t *Texture, level uint32, pixels []byte) error {
	w, h := mipSize(t.width, int(level)), mipSize(t.height, int(level))
	rowBytes := uint64(w) * 4
	pitch := alignUp(rowBytes, TextureRowPitchAlignment)
	band := uint32(max(b.ring.Size()/4/pitch, 1))
	b.tracker.TransitionResource(t.res, StateCopyDest, true)
	for y := uint32(0); y < h; y += band {
		rows := min(band, h-y)
		alloc, err := b.allocUpload(pitch*uint64(rows), TexturePlacementAlignment)
		if err != nil {
			return err
		}
		for r := range uint64(rows) {
			src := (uint64(y) + r) * rowBytes
			copy(alloc.CPU[r*pitch:], pixels[src:src+rowBytes])
		}
		b.ring.Flush(alloc)
		b.list.CopyBufferToTexture(t.res.native, level, b.ring.buf.native, TextureCopyLayout{
			Offset:   alloc.Offset,
			Y:        y,
			Width:    w,
			Height:   rows,
			RowPitch: uint32(pitch),
		})
	}
	return nil
}

// ReleaseTexture destroys t once the frames that may sample it have retired.
func (b *Backend) ReleaseTexture(t *Texture) {
	if t == nil || t == b.defaultTexture {
		return
	}
	if b.boundTex == t {
		b.boundTex = nil
	}
	if b.texture == t {
		b.texture = nil
	}
	b.Defer(func() {
		t.res.Destroy()
		b.memory.Free(t.bytes)
	})
}

func mipSize(base uint32, level int) uint32 {
	return max(base>>uint(level), 1)
}
