package glimm

import "github.com/gogpu/glimm/internal/gpu"

// Begin starts a primitive of the given mode. Vertices are collected until
// End.
func (c *Context) Begin(mode Enum) {
	if !c.usable("Begin") {
		return
	}
	if !validMode(mode) {
		c.setError(InvalidEnum, "Begin")
		return
	}
	c.inBegin = true
	c.mode = mode
	c.verts = c.verts[:0]
}

// End assembles the vertices since Begin and draws them, or records them
// into the open display list.
func (c *Context) End() {
	if c.closed || !c.inBegin {
		c.setError(InvalidOperation, "End")
		return
	}
	c.inBegin = false

	if c.cullBoth && isTriangleMode(c.mode) {
		return
	}
	topo, vs := assemble(c.mode, c.verts, c.scratch)
	if converts(c.mode) {
		c.scratch = vs
	}
	if len(vs) == 0 {
		return
	}
	if c.recording != nil {
		if err := c.recording.rec.RecordDraw(topo, vs, len(vs)); err != nil {
			c.fail("End", err)
		}
		return
	}
	c.syncTexture()
	if err := c.backend.DrawVertices(topo, vs); err != nil {
		c.fail("End", err)
	}
}

func (c *Context) vertex(x, y, z float32) {
	if !c.inBegin {
		c.setError(InvalidOperation, "Vertex")
		return
	}
	v := c.current
	v.Position = [3]float32{x, y, z}
	c.verts = append(c.verts, v)
}

// Vertex2f emits a vertex at (x, y, 0) carrying the current attributes.
func (c *Context) Vertex2f(x, y float32) { c.vertex(x, y, 0) }

// Vertex3f emits a vertex carrying the current attributes.
func (c *Context) Vertex3f(x, y, z float32) { c.vertex(x, y, z) }

// Vertex3fv is Vertex3f taking an array.
func (c *Context) Vertex3fv(v [3]float32) { c.vertex(v[0], v[1], v[2]) }

// Color3f sets the current color with alpha 1.
func (c *Context) Color3f(r, g, b float32) { c.Color4f(r, g, b, 1) }

// Color4f sets the current color. Components are clamped to [0, 1].
func (c *Context) Color4f(r, g, b, a float32) {
	c.current.Color = gpu.PackColor(r, g, b, a)
}

// Color3ub sets the current color from bytes with alpha 255.
func (c *Context) Color3ub(r, g, b uint8) { c.Color4ub(r, g, b, 255) }

// Color4ub sets the current color from bytes.
func (c *Context) Color4ub(r, g, b, a uint8) {
	c.current.Color = uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

// Normal3f sets the current normal. It is not normalized.
func (c *Context) Normal3f(x, y, z float32) {
	c.current.Normal = [3]float32{x, y, z}
}

// TexCoord2f sets the texture coordinate of unit 0.
func (c *Context) TexCoord2f(s, t float32) {
	c.current.TexCoord0 = [2]float32{s, t}
}

// MultiTexCoord2f sets the texture coordinate of Texture0 or Texture1.
func (c *Context) MultiTexCoord2f(unit Enum, s, t float32) {
	switch unit {
	case Texture0:
		c.current.TexCoord0 = [2]float32{s, t}
	case Texture1:
		c.current.TexCoord1 = [2]float32{s, t}
	default:
		c.setError(InvalidEnum, "MultiTexCoord2f")
	}
}
