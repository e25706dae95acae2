package glimm

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/glimm/internal/gpu"
)

func vec4(p []float32) (mgl32.Vec4, bool) {
	if len(p) < 4 {
		return mgl32.Vec4{}, false
	}
	return mgl32.Vec4{p[0], p[1], p[2], p[3]}, true
}

// Lightfv sets a vector or scalar parameter of a light. Position is
// transformed by the current model-view matrix, as in the legacy API.
func (c *Context) Lightfv(light, pname Enum, params []float32) {
	if !c.usable("Lightfv") {
		return
	}
	if light < Light0 || light >= Light0+gpu.MaxLights {
		c.setError(InvalidEnum, "Lightfv")
		return
	}
	if len(params) == 0 {
		c.setError(InvalidValue, "Lightfv")
		return
	}
	l := &c.backend.Constants().Lights[light-Light0]
	switch pname {
	case Ambient, Diffuse, Specular, Position:
		v, ok := vec4(params)
		if !ok {
			c.setError(InvalidValue, "Lightfv")
			return
		}
		switch pname {
		case Ambient:
			l.Ambient = v
		case Diffuse:
			l.Diffuse = v
		case Specular:
			l.Specular = v
		case Position:
			l.Position = c.backend.Matrices().Stack(gpu.MatrixModelView).Top().Mul4x1(v)
		}
	case ConstantAttenuation, LinearAttenuation, QuadraticAttenuation:
		if params[0] < 0 {
			c.setError(InvalidValue, "Lightfv")
			return
		}
		l.Attenuation[pname-ConstantAttenuation] = params[0]
	default:
		c.setError(InvalidEnum, "Lightfv")
		return
	}
	c.backend.MarkConstantsDirty()
}

// Lightf sets a scalar parameter of a light.
func (c *Context) Lightf(light, pname Enum, v float32) {
	switch pname {
	case ConstantAttenuation, LinearAttenuation, QuadraticAttenuation:
		c.Lightfv(light, pname, []float32{v})
	default:
		c.setError(InvalidEnum, "Lightf")
	}
}

// Materialfv sets a material parameter. The material is shared by both
// faces, so face only has to be valid.
func (c *Context) Materialfv(face, pname Enum, params []float32) {
	if !c.usable("Materialfv") {
		return
	}
	switch face {
	case Front, Back, FrontAndBack:
	default:
		c.setError(InvalidEnum, "Materialfv")
		return
	}
	m := &c.backend.Constants().Material
	if pname == Shininess {
		if len(params) == 0 || params[0] < 0 || params[0] > 128 {
			c.setError(InvalidValue, "Materialfv")
			return
		}
		m.Shininess = params[0]
		c.backend.MarkConstantsDirty()
		return
	}
	v, ok := vec4(params)
	if !ok {
		c.setError(InvalidValue, "Materialfv")
		return
	}
	switch pname {
	case Ambient:
		m.Ambient = v
	case Diffuse:
		m.Diffuse = v
	case AmbientAndDiffuse:
		m.Ambient, m.Diffuse = v, v
	case Specular:
		m.Specular = v
	case Emission:
		m.Emission = v
	default:
		c.setError(InvalidEnum, "Materialfv")
		return
	}
	c.backend.MarkConstantsDirty()
}

// Materialf sets the shininess exponent, in [0, 128].
func (c *Context) Materialf(face, pname Enum, v float32) {
	if pname != Shininess {
		c.setError(InvalidEnum, "Materialf")
		return
	}
	c.Materialfv(face, pname, []float32{v})
}

// LightModelAmbient sets the scene ambient color.
func (c *Context) LightModelAmbient(r, g, b, a float32) {
	if !c.usable("LightModelAmbient") {
		return
	}
	c.backend.Constants().GlobalAmbient = mgl32.Vec4{r, g, b, a}
	c.backend.MarkConstantsDirty()
}

// Fogf sets a scalar fog parameter.
func (c *Context) Fogf(pname Enum, v float32) {
	if !c.usable("Fogf") {
		return
	}
	f := &c.backend.Constants().Fog
	switch pname {
	case FogDensity:
		if v < 0 {
			c.setError(InvalidValue, "Fogf")
			return
		}
		f.Density = v
	case FogStart:
		f.Start = v
	case FogEnd:
		f.End = v
	case FogMode:
		c.Fogi(pname, Enum(v))
		return
	default:
		c.setError(InvalidEnum, "Fogf")
		return
	}
	c.backend.MarkConstantsDirty()
}

// Fogi sets the fog mode to Linear, Exp or Exp2.
func (c *Context) Fogi(pname, mode Enum) {
	if !c.usable("Fogi") {
		return
	}
	if pname != FogMode {
		c.setError(InvalidEnum, "Fogi")
		return
	}
	f := &c.backend.Constants().Fog
	switch mode {
	case Linear:
		f.Mode = gpu.FogLinear
	case Exp:
		f.Mode = gpu.FogExp
	case Exp2:
		f.Mode = gpu.FogExp2
	default:
		c.setError(InvalidEnum, "Fogi")
		return
	}
	c.backend.MarkConstantsDirty()
}

// Fogfv sets the fog color, or any scalar parameter from params[0].
func (c *Context) Fogfv(pname Enum, params []float32) {
	if pname != FogColor {
		if len(params) == 0 {
			c.setError(InvalidValue, "Fogfv")
			return
		}
		c.Fogf(pname, params[0])
		return
	}
	if !c.usable("Fogfv") {
		return
	}
	v, ok := vec4(params)
	if !ok {
		c.setError(InvalidValue, "Fogfv")
		return
	}
	c.backend.Constants().Fog.Color = v
	c.backend.MarkConstantsDirty()
}
