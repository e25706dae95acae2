package gpu

import (
	"unsafe"

	"honnef.co/go/safeish"
)

// Vertex is the interleaved layout every pipeline reads. Its memory layout
// is uploaded as is; changing it means changing VertexLayout too.
type Vertex struct {
	Position  [3]float32
	Normal    [3]float32
	Color     uint32
	TexCoord0 [2]float32
	TexCoord1 [2]float32
}

// VertexStride is the byte size of Vertex.
const VertexStride = uint32(unsafe.Sizeof(Vertex{}))

// VertexLayout describes Vertex to the input assembler.
func VertexLayout() []InputElement {
	return []InputElement{
		{Semantic: "POSITION", Location: 0, Format: InputFloat3, Offset: uint32(unsafe.Offsetof(Vertex{}.Position))},
		{Semantic: "NORMAL", Location: 1, Format: InputFloat3, Offset: uint32(unsafe.Offsetof(Vertex{}.Normal))},
		{Semantic: "COLOR", Location: 2, Format: InputUnorm8x4, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
		{Semantic: "TEXCOORD0", Location: 3, Format: InputFloat2, Offset: uint32(unsafe.Offsetof(Vertex{}.TexCoord0))},
		{Semantic: "TEXCOORD1", Location: 4, Format: InputFloat2, Offset: uint32(unsafe.Offsetof(Vertex{}.TexCoord1))},
	}
}

// VertexBytes reinterprets vs as raw bytes without copying.
func VertexBytes(vs []Vertex) []byte {
	return safeish.SliceCast[[]byte](vs)
}

// PackColor packs normalized RGBA into the R8G8B8A8 layout of Vertex.Color.
func PackColor(r, g, b, a float32) uint32 {
	return uint32(unorm8(r)) | uint32(unorm8(g))<<8 | uint32(unorm8(b))<<16 | uint32(unorm8(a))<<24
}

// UnpackColor is the inverse of PackColor.
func UnpackColor(c uint32) (r, g, b, a float32) {
	return float32(c&0xFF) / 255, float32(c>>8&0xFF) / 255, float32(c>>16&0xFF) / 255, float32(c>>24) / 255
}

func unorm8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
