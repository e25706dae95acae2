package glimm

// Enum is a legacy API constant. Values match the classic numbering so
// code ported from the C API keeps its literals.
type Enum uint32

// Primitive modes accepted by Begin.
const (
	Points        Enum = 0x0000
	Lines         Enum = 0x0001
	LineLoop      Enum = 0x0002
	LineStrip     Enum = 0x0003
	Triangles     Enum = 0x0004
	TriangleStrip Enum = 0x0005
	TriangleFan   Enum = 0x0006
	Quads         Enum = 0x0007
	QuadStrip     Enum = 0x0008
	Polygon       Enum = 0x0009
)

// Comparison functions for DepthFunc and AlphaFunc.
const (
	Never    Enum = 0x0200
	Less     Enum = 0x0201
	Equal    Enum = 0x0202
	Lequal   Enum = 0x0203
	Greater  Enum = 0x0204
	Notequal Enum = 0x0205
	Gequal   Enum = 0x0206
	Always   Enum = 0x0207
)

// Blend factors.
const (
	Zero             Enum = 0
	One              Enum = 1
	SrcColor         Enum = 0x0300
	OneMinusSrcColor Enum = 0x0301
	SrcAlpha         Enum = 0x0302
	OneMinusSrcAlpha Enum = 0x0303
	DstAlpha         Enum = 0x0304
	OneMinusDstAlpha Enum = 0x0305
	DstColor         Enum = 0x0306
	OneMinusDstColor Enum = 0x0307
	SrcAlphaSaturate Enum = 0x0308
)

// Faces, windings and polygon modes.
const (
	Front        Enum = 0x0404
	Back         Enum = 0x0405
	FrontAndBack Enum = 0x0408
	CW           Enum = 0x0900
	CCW          Enum = 0x0901
	Point        Enum = 0x1B00
	Line         Enum = 0x1B01
	Fill         Enum = 0x1B02
)

// Capabilities for Enable and Disable.
const (
	CullFaceMode  Enum = 0x0B44
	Lighting      Enum = 0x0B50
	ColorMaterial Enum = 0x0B57
	Fog           Enum = 0x0B60
	DepthTest     Enum = 0x0B71
	AlphaTest     Enum = 0x0BC0
	Blend         Enum = 0x0BE2
	Texture2D     Enum = 0x0DE1
	Light0        Enum = 0x4000
)

// Light and material parameters.
const (
	Ambient              Enum = 0x1200
	Diffuse              Enum = 0x1201
	Specular             Enum = 0x1202
	Position             Enum = 0x1203
	ConstantAttenuation  Enum = 0x1207
	LinearAttenuation    Enum = 0x1208
	QuadraticAttenuation Enum = 0x1209
	Emission             Enum = 0x1600
	Shininess            Enum = 0x1601
	AmbientAndDiffuse    Enum = 0x1602
)

// Fog parameters and modes.
const (
	FogDensity Enum = 0x0B62
	FogStart   Enum = 0x0B63
	FogEnd     Enum = 0x0B64
	FogMode    Enum = 0x0B65
	FogColor   Enum = 0x0B66
	Exp        Enum = 0x0800
	Exp2       Enum = 0x0801
)

// Matrix modes.
const (
	ModelView  Enum = 0x1700
	Projection Enum = 0x1701
	Texture    Enum = 0x1702
)

// Texture parameters and their values. Linear doubles as the linear fog
// mode.
const (
	TextureMagFilter     Enum = 0x2800
	TextureMinFilter     Enum = 0x2801
	TextureWrapS         Enum = 0x2802
	TextureWrapT         Enum = 0x2803
	Nearest              Enum = 0x2600
	Linear               Enum = 0x2601
	NearestMipmapNearest Enum = 0x2700
	LinearMipmapNearest  Enum = 0x2701
	NearestMipmapLinear  Enum = 0x2702
	LinearMipmapLinear   Enum = 0x2703
	Clamp                Enum = 0x2900
	Repeat               Enum = 0x2901
	ClampToEdge          Enum = 0x812F
)

// Texture units for MultiTexCoord2f.
const (
	Texture0 Enum = 0x84C0
	Texture1 Enum = 0x84C1
)

// Display list modes.
const (
	Compile           Enum = 0x1300
	CompileAndExecute Enum = 0x1301
)

// Clear mask bits.
const (
	DepthBufferBit Enum = 0x00000100
	ColorBufferBit Enum = 0x00004000
)
