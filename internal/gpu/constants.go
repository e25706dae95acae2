package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLights is the number of light slots in FrameConstants.
const MaxLights = 8

// ConstantBufferAlignment is the placement alignment of constant buffer
// views, and so the stride between frame slots.
const ConstantBufferAlignment = 256

// Byte offsets of FrameConstants fields. They match struct Frame in
// shaders/fixedfunc.wgsl.
const (
	offWorld         = 0
	offProjection    = 64
	offTexture       = 128
	offNormal        = 192
	offLights        = 256
	lightSize        = 80
	offMaterial      = offLights + MaxLights*lightSize // 896
	offGlobalAmbient = offMaterial + 80                // 976
	offFogColor      = offGlobalAmbient + 16
	offFogParams     = offFogColor + 16
	offFlags         = offFogParams + 16
	offLightMask     = offFlags + 16
	offAlphaRef      = offLightMask + 4
	offColorMaterial = offAlphaRef + 4

	// FrameConstantsSize is the packed size of FrameConstants.
	FrameConstantsSize = offColorMaterial + 8 // 1056
)

// FrameConstantsStride is FrameConstantsSize rounded up to the constant
// buffer alignment.
const FrameConstantsStride = (FrameConstantsSize + ConstantBufferAlignment - 1) &^ (ConstantBufferAlignment - 1)

// Light is one fixed-function light. Position is in eye space; W == 0 makes
// it directional.
type Light struct {
	Enabled     bool
	Position    mgl32.Vec4
	Ambient     mgl32.Vec4
	Diffuse     mgl32.Vec4
	Specular    mgl32.Vec4
	Attenuation mgl32.Vec3 // constant, linear, quadratic
}

// Material is the fixed-function surface description.
type Material struct {
	Ambient   mgl32.Vec4
	Diffuse   mgl32.Vec4
	Specular  mgl32.Vec4
	Emission  mgl32.Vec4
	Shininess float32
}

// FogMode selects the fog falloff.
type FogMode uint32

// Fog modes.
const (
	FogLinear FogMode = iota + 1
	FogExp
	FogExp2
)

// Fog is the fixed-function fog description.
type Fog struct {
	Color   mgl32.Vec4
	Start   float32
	End     float32
	Density float32
	Mode    FogMode
}

// FrameConstants is everything the fixed-function shader reads from b0.
type FrameConstants struct {
	World      mgl32.Mat4
	Projection mgl32.Mat4
	Texture    mgl32.Mat4

	Lights        [MaxLights]Light
	Material      Material
	GlobalAmbient mgl32.Vec4
	Fog           Fog

	TextureEnabled  bool
	LightingEnabled bool
	FogEnabled      bool
	AlphaTest       bool
	AlphaRef        float32
	ColorMaterial   bool
}

// DefaultFrameConstants returns the legacy API's initial state.
func DefaultFrameConstants() FrameConstants {
	fc := FrameConstants{
		World:      mgl32.Ident4(),
		Projection: mgl32.Ident4(),
		Texture:    mgl32.Ident4(),
		Material: Material{
			Ambient:  mgl32.Vec4{0.2, 0.2, 0.2, 1},
			Diffuse:  mgl32.Vec4{0.8, 0.8, 0.8, 1},
			Specular: mgl32.Vec4{0, 0, 0, 1},
			Emission: mgl32.Vec4{0, 0, 0, 1},
		},
		GlobalAmbient: mgl32.Vec4{0.2, 0.2, 0.2, 1},
		Fog: Fog{
			Color:   mgl32.Vec4{0, 0, 0, 0},
			End:     1,
			Density: 1,
			Mode:    FogExp,
		},
	}
	for i := range fc.Lights {
		fc.Lights[i] = Light{
			Position:    mgl32.Vec4{0, 0, 1, 0},
			Ambient:     mgl32.Vec4{0, 0, 0, 1},
			Attenuation: mgl32.Vec3{1, 0, 0},
		}
	}
	fc.Lights[0].Diffuse = mgl32.Vec4{1, 1, 1, 1}
	fc.Lights[0].Specular = mgl32.Vec4{1, 1, 1, 1}
	return fc
}

// NormalMatrix returns the inverse transpose of World, or identity when
// World is singular.
func (fc *FrameConstants) NormalMatrix() mgl32.Mat4 {
	if fc.World.Det() == 0 {
		return mgl32.Ident4()
	}
	return fc.World.Inv().Transpose()
}

// Pack writes the shader layout of fc into dst, which must hold at least
// FrameConstantsSize bytes. Bytes between fields are zeroed.
func (fc *FrameConstants) Pack(dst []byte) {
	dst = dst[:FrameConstantsSize]
	clear(dst)
	putMat(dst[offWorld:], fc.World)
	putMat(dst[offProjection:], fc.Projection)
	putMat(dst[offTexture:], fc.Texture)
	putMat(dst[offNormal:], fc.NormalMatrix())

	for i, l := range fc.Lights {
		o := offLights + i*lightSize
		putVec4(dst[o:], l.Position)
		putVec4(dst[o+16:], l.Ambient)
		putVec4(dst[o+32:], l.Diffuse)
		putVec4(dst[o+48:], l.Specular)
		putVec4(dst[o+64:], mgl32.Vec4{l.Attenuation[0], l.Attenuation[1], l.Attenuation[2], 0})
	}

	m := fc.Material
	putVec4(dst[offMaterial:], m.Ambient)
	putVec4(dst[offMaterial+16:], m.Diffuse)
	putVec4(dst[offMaterial+32:], m.Specular)
	putVec4(dst[offMaterial+48:], m.Emission)
	putF32(dst[offMaterial+64:], m.Shininess)

	putVec4(dst[offGlobalAmbient:], fc.GlobalAmbient)
	putVec4(dst[offFogColor:], fc.Fog.Color)
	putVec4(dst[offFogParams:], mgl32.Vec4{fc.Fog.Start, fc.Fog.End, fc.Fog.Density, float32(fc.Fog.Mode)})

	putBool(dst[offFlags:], fc.TextureEnabled)
	putBool(dst[offFlags+4:], fc.LightingEnabled)
	putBool(dst[offFlags+8:], fc.FogEnabled)
	putBool(dst[offFlags+12:], fc.AlphaTest)
	binary.LittleEndian.PutUint32(dst[offLightMask:], fc.LightMask())
	putF32(dst[offAlphaRef:], fc.AlphaRef)
	putBool(dst[offColorMaterial:], fc.ColorMaterial)
}

// LightMask returns bit i set for every enabled light i.
func (fc *FrameConstants) LightMask() uint32 {
	var mask uint32
	for i, l := range fc.Lights {
		if l.Enabled {
			mask |= 1 << i
		}
	}
	return mask
}

func putF32(b []byte, v float32) { binary.LittleEndian.PutUint32(b, math.Float32bits(v)) }

func putBool(b []byte, v bool) {
	if v {
		binary.LittleEndian.PutUint32(b, 1)
	}
}

func putVec4(b []byte, v mgl32.Vec4) {
	for i := range 4 {
		putF32(b[i*4:], v[i])
	}
}

func putMat(b []byte, m mgl32.Mat4) {
	for i := range 16 {
		putF32(b[i*4:], m[i])
	}
}
