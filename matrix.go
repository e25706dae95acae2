package glimm

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/glimm/internal/gpu"
)

// MatrixMode selects the stack that later matrix calls operate on.
func (c *Context) MatrixMode(mode Enum) {
	if !c.usable("MatrixMode") {
		return
	}
	switch mode {
	case ModelView:
		c.matrixMode = gpu.MatrixModelView
	case Projection:
		c.matrixMode = gpu.MatrixProjection
	case Texture:
		c.matrixMode = gpu.MatrixTexture
	default:
		c.setError(InvalidEnum, "MatrixMode")
	}
}

// load replaces the current matrix, or records the load in the open list.
func (c *Context) load(op string, m mgl32.Mat4) {
	if !c.usable(op) {
		return
	}
	if c.recording != nil {
		if err := c.recording.rec.RecordLoadMatrix(c.matrixMode, m); err != nil {
			c.fail(op, err)
		}
		return
	}
	c.backend.Matrices().Load(c.matrixMode, m)
}

// mult post-multiplies the current matrix by m, or records it.
func (c *Context) mult(op string, m mgl32.Mat4) {
	if !c.usable(op) {
		return
	}
	if c.recording != nil {
		if err := c.recording.rec.RecordMultiplyMatrix(c.matrixMode, m); err != nil {
			c.fail(op, err)
		}
		return
	}
	c.backend.Matrices().Multiply(c.matrixMode, m)
}

// LoadIdentity replaces the current matrix with identity.
func (c *Context) LoadIdentity() { c.load("LoadIdentity", mgl32.Ident4()) }

// LoadMatrixf replaces the current matrix with m, given column-major.
func (c *Context) LoadMatrixf(m [16]float32) { c.load("LoadMatrixf", mgl32.Mat4(m)) }

// MultMatrixf multiplies the current matrix by m, given column-major.
func (c *Context) MultMatrixf(m [16]float32) { c.mult("MultMatrixf", mgl32.Mat4(m)) }

// Translatef multiplies the current matrix by a translation.
func (c *Context) Translatef(x, y, z float32) {
	c.mult("Translatef", mgl32.Translate3D(x, y, z))
}

// Scalef multiplies the current matrix by a scale.
func (c *Context) Scalef(x, y, z float32) {
	c.mult("Scalef", mgl32.Scale3D(x, y, z))
}

// Rotatef multiplies the current matrix by a rotation of angle degrees
// about (x, y, z). A zero axis leaves the matrix unchanged.
func (c *Context) Rotatef(angle, x, y, z float32) {
	axis := mgl32.Vec3{x, y, z}
	if axis.Len() == 0 {
		c.mult("Rotatef", mgl32.Ident4())
		return
	}
	c.mult("Rotatef", mgl32.HomogRotate3D(mgl32.DegToRad(angle), axis.Normalize()))
}

// Ortho multiplies the current matrix by a parallel projection.
func (c *Context) Ortho(left, right, bottom, top, near, far float32) {
	if left == right || bottom == top || near == far {
		c.setError(InvalidValue, "Ortho")
		return
	}
	c.mult("Ortho", mgl32.Ortho(left, right, bottom, top, near, far))
}

// Frustum multiplies the current matrix by a perspective projection.
func (c *Context) Frustum(left, right, bottom, top, near, far float32) {
	if near <= 0 || far <= 0 || left == right || bottom == top || near == far {
		c.setError(InvalidValue, "Frustum")
		return
	}
	c.mult("Frustum", mgl32.Frustum(left, right, bottom, top, near, far))
}

// Perspective multiplies the current matrix by a symmetric perspective
// projection with a vertical field of view of fovy degrees.
func (c *Context) Perspective(fovy, aspect, near, far float32) {
	if fovy <= 0 || aspect <= 0 || near <= 0 || far <= near {
		c.setError(InvalidValue, "Perspective")
		return
	}
	c.mult("Perspective", mgl32.Perspective(mgl32.DegToRad(fovy), aspect, near, far))
}

// PushMatrix duplicates the top of the current stack.
func (c *Context) PushMatrix() {
	if !c.usable("PushMatrix") {
		return
	}
	if c.recording != nil {
		if err := c.recording.rec.RecordPushMatrix(c.matrixMode); err != nil {
			c.fail("PushMatrix", err)
		}
		return
	}
	if err := c.backend.Matrices().Push(c.matrixMode); err != nil {
		c.fail("PushMatrix", err)
	}
}

// PopMatrix discards the top of the current stack.
func (c *Context) PopMatrix() {
	if !c.usable("PopMatrix") {
		return
	}
	if c.recording != nil {
		if err := c.recording.rec.RecordPopMatrix(c.matrixMode); err != nil {
			c.fail("PopMatrix", err)
		}
		return
	}
	if err := c.backend.Matrices().Pop(c.matrixMode); err != nil {
		c.fail("PopMatrix", err)
	}
}

// CurrentMatrix returns the top of the stack selected by mode.
func (c *Context) CurrentMatrix(mode Enum) [16]float32 {
	switch mode {
	case ModelView:
		return c.backend.Matrices().Stack(gpu.MatrixModelView).Top()
	case Projection:
		return c.backend.Matrices().Stack(gpu.MatrixProjection).Top()
	case Texture:
		return c.backend.Matrices().Stack(gpu.MatrixTexture).Top()
	}
	c.setError(InvalidEnum, "CurrentMatrix")
	return mgl32.Ident4()
}
