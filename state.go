package glimm

import (
	"math"

	"github.com/gogpu/glimm/internal/gpu"
)

// Enable turns on a capability.
func (c *Context) Enable(cap Enum) { c.setCap("Enable", cap, true) }

// Disable turns off a capability.
func (c *Context) Disable(cap Enum) { c.setCap("Disable", cap, false) }

func (c *Context) setCap(op string, cap Enum, on bool) {
	if !c.usable(op) {
		return
	}
	fc := c.backend.Constants()
	switch {
	case cap == DepthTest:
		c.key.DepthTest = on
	case cap == CullFaceMode:
		c.cull = on
	case cap == Blend:
		c.blend = on
	case cap == Texture2D:
		c.texture2D = on
		fc.TextureEnabled = on
	case cap == Lighting:
		fc.LightingEnabled = on
	case cap == Fog:
		fc.FogEnabled = on
	case cap == AlphaTest:
		c.alphaTest = on
	case cap == ColorMaterial:
		fc.ColorMaterial = on
	case cap >= Light0 && cap < Light0+gpu.MaxLights:
		fc.Lights[cap-Light0].Enabled = on
	default:
		c.setError(InvalidEnum, op)
		return
	}
	c.syncState()
}

// IsEnabled reports whether a capability is on.
func (c *Context) IsEnabled(cap Enum) bool {
	fc := c.backend.Constants()
	switch {
	case cap == DepthTest:
		return c.key.DepthTest
	case cap == CullFaceMode:
		return c.cull
	case cap == Blend:
		return c.blend
	case cap == Texture2D:
		return c.texture2D
	case cap == Lighting:
		return fc.LightingEnabled
	case cap == Fog:
		return fc.FogEnabled
	case cap == AlphaTest:
		return c.alphaTest
	case cap == ColorMaterial:
		return fc.ColorMaterial
	case cap >= Light0 && cap < Light0+gpu.MaxLights:
		return fc.Lights[cap-Light0].Enabled
	}
	c.setError(InvalidEnum, "IsEnabled")
	return false
}

// syncState folds the capability flags into the pipeline key and the
// fixed-function constants.
func (c *Context) syncState() {
	k := c.key
	k.Cull = gpu.CullNone
	c.cullBoth = false
	if c.cull {
		switch c.cullFace {
		case Front:
			k.Cull = gpu.CullFront
		case Back:
			k.Cull = gpu.CullBack
		case FrontAndBack:
			c.cullBoth = true
		}
	}
	k.BlendEnable = c.blend
	c.key = k
	c.backend.SetRenderState(k)

	fc := c.backend.Constants()
	fc.AlphaTest = c.alphaTest && c.alphaFunc != Always
	c.backend.MarkConstantsDirty()
}

// syncTexture binds the texture the next draw samples.
func (c *Context) syncTexture() {
	if c.texture2D && c.bound != nil && c.bound.tex != nil {
		c.bound.tex.Sampler = c.bound.sampler()
		c.backend.SetTexture(c.bound.tex)
		return
	}
	c.backend.SetTexture(nil)
}

func compareFunc(f Enum) (gpu.CompareFunc, bool) {
	if f < Never || f > Always {
		return 0, false
	}
	return gpu.CompareNever + gpu.CompareFunc(f-Never), true
}

func blendFactor(f Enum) (gpu.BlendFactor, bool) {
	switch {
	case f == Zero:
		return gpu.BlendZero, true
	case f == One:
		return gpu.BlendOne, true
	case f >= SrcColor && f <= SrcAlphaSaturate:
		return gpu.BlendSrcColor + gpu.BlendFactor(f-SrcColor), true
	}
	return 0, false
}

// DepthFunc sets the depth comparison.
func (c *Context) DepthFunc(f Enum) {
	if !c.usable("DepthFunc") {
		return
	}
	cf, ok := compareFunc(f)
	if !ok {
		c.setError(InvalidEnum, "DepthFunc")
		return
	}
	c.key.DepthFunc = cf
	c.syncState()
}

// DepthMask enables or disables depth writes.
func (c *Context) DepthMask(on bool) {
	if !c.usable("DepthMask") {
		return
	}
	c.key.DepthWrite = on
	c.syncState()
}

// BlendFunc sets the source and destination blend factors.
func (c *Context) BlendFunc(src, dst Enum) {
	if !c.usable("BlendFunc") {
		return
	}
	s, ok1 := blendFactor(src)
	d, ok2 := blendFactor(dst)
	if !ok1 || !ok2 || dst == SrcAlphaSaturate {
		c.setError(InvalidEnum, "BlendFunc")
		return
	}
	c.key.SrcBlend, c.key.DstBlend = s, d
	c.syncState()
}

// CullFace selects the faces discarded while CullFaceMode is enabled.
// FrontAndBack discards every polygon; points and lines still draw.
func (c *Context) CullFace(mode Enum) {
	if !c.usable("CullFace") {
		return
	}
	switch mode {
	case Front, Back, FrontAndBack:
		c.cullFace = mode
		c.syncState()
	default:
		c.setError(InvalidEnum, "CullFace")
	}
}

// FrontFace sets the winding of front-facing polygons.
func (c *Context) FrontFace(mode Enum) {
	if !c.usable("FrontFace") {
		return
	}
	switch mode {
	case CCW:
		c.key.Front = gpu.FrontCCW
	case CW:
		c.key.Front = gpu.FrontCW
	default:
		c.setError(InvalidEnum, "FrontFace")
		return
	}
	c.syncState()
}

// PolygonMode selects filled or outlined polygons. The mode applies to
// both faces; Point is drawn as Line.
func (c *Context) PolygonMode(face, mode Enum) {
	if !c.usable("PolygonMode") {
		return
	}
	switch face {
	case Front, Back, FrontAndBack:
	default:
		c.setError(InvalidEnum, "PolygonMode")
		return
	}
	switch mode {
	case Fill:
		c.key.Fill = gpu.FillSolid
	case Line, Point:
		c.key.Fill = gpu.FillWireframe
	default:
		c.setError(InvalidEnum, "PolygonMode")
		return
	}
	c.syncState()
}

// AlphaFunc sets the alpha test. Fragments pass when their alpha is
// greater than ref; Gequal is treated as Greater, Never rejects every
// fragment and Always disables the test. Other functions log and fall back
// to Greater.
func (c *Context) AlphaFunc(f Enum, ref float32) {
	if !c.usable("AlphaFunc") {
		return
	}
	if _, ok := compareFunc(f); !ok {
		c.setError(InvalidEnum, "AlphaFunc")
		return
	}
	ref = min(max(ref, 0), 1)
	switch f {
	case Greater, Gequal, Always:
	case Never:
		ref = float32(math.Inf(1))
	default:
		Logger().Debug("glimm: alpha function not supported, using Greater", "func", f)
	}
	c.alphaFunc = f
	c.backend.Constants().AlphaRef = ref
	c.syncState()
}

// ClearColor sets the color Clear writes.
func (c *Context) ClearColor(r, g, b, a float32) {
	if !c.usable("ClearColor") {
		return
	}
	c.backend.SetClearColor([4]float32{r, g, b, a})
}

// ClearDepth sets the depth Clear writes, clamped to [0, 1].
func (c *Context) ClearDepth(d float32) {
	if !c.usable("ClearDepth") {
		return
	}
	c.backend.SetClearDepth(min(max(d, 0), 1))
}

// Clear clears the buffers named by mask, a combination of ColorBufferBit
// and DepthBufferBit.
func (c *Context) Clear(mask Enum) {
	if !c.usable("Clear") {
		return
	}
	if mask&^(ColorBufferBit|DepthBufferBit) != 0 {
		c.setError(InvalidValue, "Clear")
		return
	}
	c.backend.Clear(mask&ColorBufferBit != 0, mask&DepthBufferBit != 0)
}

// Viewport sets the viewport in window coordinates, with the origin at the
// lower left corner.
func (c *Context) Viewport(x, y, width, height int) {
	if !c.usable("Viewport") {
		return
	}
	if width < 0 || height < 0 {
		c.setError(InvalidValue, "Viewport")
		return
	}
	_, fbHeight := c.Size()
	c.backend.SetViewport(gpu.Viewport{
		X:        float32(x),
		Y:        float32(fbHeight - (y + height)),
		Width:    float32(width),
		Height:   float32(height),
		MinDepth: 0,
		MaxDepth: 1,
	})
}
