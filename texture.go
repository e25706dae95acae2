package glimm

import (
	"fmt"
	"image"
	"math/bits"

	"golang.org/x/image/draw"

	"github.com/gogpu/glimm/internal/gpu"
)

// textureObject is a texture name with its sampler parameters. tex is nil
// until an image is specified.
type textureObject struct {
	id        uint32
	tex       *gpu.Texture
	minFilter Enum
	magFilter Enum
	wrapS     Enum
	wrapT     Enum
}

func newTextureObject(id uint32) *textureObject {
	return &textureObject{
		id:        id,
		minFilter: NearestMipmapLinear,
		magFilter: Linear,
		wrapS:     Repeat,
		wrapT:     Repeat,
	}
}

func filter(f Enum) gpu.Filter {
	switch f {
	case Nearest, NearestMipmapNearest, NearestMipmapLinear:
		return gpu.FilterPoint
	}
	return gpu.FilterLinear
}

func addressMode(w Enum) gpu.AddressMode {
	if w == Repeat {
		return gpu.AddressWrap
	}
	return gpu.AddressClamp
}

// sampler maps the parameters onto one of the pre-created samplers. A
// mipmapped min filter on a single-level texture samples level 0 only.
func (t *textureObject) sampler() gpu.SamplerDesc {
	d := gpu.SamplerDesc{
		MinFilter: filter(t.minFilter),
		MagFilter: filter(t.magFilter),
		MipFilter: gpu.FilterPoint,
		AddressU:  addressMode(t.wrapS),
		AddressV:  addressMode(t.wrapT),
	}
	if t.tex == nil || t.tex.Levels() < 2 {
		return d
	}
	switch t.minFilter {
	case NearestMipmapNearest, LinearMipmapNearest:
		d.Mipmaps = true
	case NearestMipmapLinear, LinearMipmapLinear:
		d.Mipmaps = true
		d.MipFilter = gpu.FilterLinear
	}
	return d
}

// GenTextures returns n unused texture names.
func (c *Context) GenTextures(n int) []uint32 {
	if n < 0 {
		c.setError(InvalidValue, "GenTextures")
		return nil
	}
	if !c.usable("GenTextures") {
		return nil
	}
	ids := make([]uint32, n)
	for i := range ids {
		c.nextTexture++
		for c.textures[c.nextTexture] != nil || c.nextTexture == 0 {
			c.nextTexture++
		}
		ids[i] = c.nextTexture
		c.textures[c.nextTexture] = newTextureObject(c.nextTexture)
	}
	return ids
}

// IsTexture reports whether id names a texture.
func (c *Context) IsTexture(id uint32) bool {
	return id != 0 && c.textures[id] != nil
}

// BindTexture makes id the current texture. Name 0 selects the default
// white texture. Binding a name that GenTextures did not return is an
// invalid operation.
func (c *Context) BindTexture(target Enum, id uint32) {
	if !c.usable("BindTexture") {
		return
	}
	if target != Texture2D {
		c.setError(InvalidEnum, "BindTexture")
		return
	}
	if id == 0 {
		c.bound = nil
		return
	}
	t := c.textures[id]
	if t == nil {
		c.setError(InvalidOperation, "BindTexture")
		return
	}
	c.bound = t
}

// boundTexture returns the texture target names, or records an error.
func (c *Context) boundTexture(op string, target Enum) *textureObject {
	if !c.usable(op) {
		return nil
	}
	if target != Texture2D {
		c.setError(InvalidEnum, op)
		return nil
	}
	if c.bound == nil {
		c.setError(InvalidOperation, op)
		return nil
	}
	return c.bound
}

// TexImage2D specifies level 0 of the bound texture from tightly packed
// RGBA8 rows. Sizes that are not powers of two are rescaled up to the next
// power of two.
func (c *Context) TexImage2D(target Enum, level, width, height int, pixels []byte) {
	t := c.boundTexture("TexImage2D", target)
	if t == nil {
		return
	}
	if level != 0 || width <= 0 || height <= 0 || len(pixels) < width*height*4 {
		c.setError(InvalidValue, "TexImage2D")
		return
	}
	img := &image.RGBA{
		Pix:    pixels[:width*height*4],
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
	c.specify("TexImage2D", t, [][]byte{potRGBA(img).Pix}, img.Rect.Size())
}

// TexImage specifies level 0 of the bound texture from any image.
func (c *Context) TexImage(target Enum, img image.Image) {
	t := c.boundTexture("TexImage", target)
	if t == nil {
		return
	}
	if img == nil || img.Bounds().Empty() {
		c.setError(InvalidValue, "TexImage")
		return
	}
	c.specify("TexImage", t, [][]byte{potRGBA(img).Pix}, img.Bounds().Size())
}

// BuildMipmaps rescales img to powers of two and specifies it with a full
// mip chain down to 1x1.
func (c *Context) BuildMipmaps(target Enum, img image.Image) {
	t := c.boundTexture("BuildMipmaps", target)
	if t == nil {
		return
	}
	if img == nil || img.Bounds().Empty() {
		c.setError(InvalidValue, "BuildMipmaps")
		return
	}
	c.specify("BuildMipmaps", t, mipChain(potRGBA(img)), img.Bounds().Size())
}

// specify replaces the storage of t. The old texture is released once the
// frames that sample it retire.
func (c *Context) specify(op string, t *textureObject, levels [][]byte, src image.Point) {
	w, h := nextPow2(src.X), nextPow2(src.Y)
	tex, err := c.backend.CreateTexture(fmt.Sprintf("glimm-texture-%d", t.id), uint32(w), uint32(h), levels)
	if err != nil {
		c.fail(op, err)
		return
	}
	if t.tex != nil {
		c.backend.ReleaseTexture(t.tex)
	}
	t.tex = tex
}

// TexParameteri sets a sampler parameter of the bound texture.
func (c *Context) TexParameteri(target, pname, value Enum) {
	t := c.boundTexture("TexParameteri", target)
	if t == nil {
		return
	}
	switch pname {
	case TextureMagFilter:
		if value != Nearest && value != Linear {
			c.setError(InvalidEnum, "TexParameteri")
			return
		}
		t.magFilter = value
	case TextureMinFilter:
		switch value {
		case Nearest, Linear, NearestMipmapNearest, LinearMipmapNearest,
			NearestMipmapLinear, LinearMipmapLinear:
			t.minFilter = value
		default:
			c.setError(InvalidEnum, "TexParameteri")
		}
	case TextureWrapS, TextureWrapT:
		if value != Repeat && value != Clamp && value != ClampToEdge {
			c.setError(InvalidEnum, "TexParameteri")
			return
		}
		if pname == TextureWrapS {
			t.wrapS = value
		} else {
			t.wrapT = value
		}
	default:
		c.setError(InvalidEnum, "TexParameteri")
	}
}

// DeleteTextures releases the named textures. Unknown names and 0 are
// ignored; a deleted bound texture reverts the binding to 0.
func (c *Context) DeleteTextures(ids []uint32) {
	if !c.usable("DeleteTextures") {
		return
	}
	for _, id := range ids {
		t := c.textures[id]
		if t == nil {
			continue
		}
		if t.tex != nil {
			c.backend.ReleaseTexture(t.tex)
			t.tex = nil
		}
		if c.bound == t {
			c.bound = nil
		}
		delete(c.textures, id)
	}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// potRGBA converts img to RGBA with power-of-two dimensions.
func potRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	w, h := nextPow2(b.Dx()), nextPow2(b.Dy())
	if rgba, ok := img.(*image.RGBA); ok && w == b.Dx() && h == b.Dy() && rgba.Stride == w*4 && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Rect, img, b, draw.Src, nil)
	return dst
}

// mipChain returns base followed by successively halved levels down to 1x1.
func mipChain(base *image.RGBA) [][]byte {
	levels := [][]byte{base.Pix}
	prev := base
	for prev.Rect.Dx() > 1 || prev.Rect.Dy() > 1 {
		w, h := max(prev.Rect.Dx()/2, 1), max(prev.Rect.Dy()/2, 1)
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(next, next.Rect, prev, prev.Rect, draw.Src, nil)
		levels = append(levels, next.Pix)
		prev = next
	}
	return levels
}
