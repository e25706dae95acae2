package gpu_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/glimm/internal/gpu"
)

func TestVertexLayout(t *testing.T) {
	if gpu.VertexStride != 44 {
		t.Errorf("VertexStride = %d, want 44", gpu.VertexStride)
	}
	want := []struct {
		location uint32
		offset   uint32
		format   gpu.InputFormat
	}{
		{0, 0, gpu.InputFloat3},
		{1, 12, gpu.InputFloat3},
		{2, 24, gpu.InputUnorm8x4},
		{3, 28, gpu.InputFloat2},
		{4, 36, gpu.InputFloat2},
	}
	got := gpu.VertexLayout()
	if len(got) != len(want) {
		t.Fatalf("%d elements, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Location != w.location || got[i].Offset != w.offset || got[i].Format != w.format {
			t.Errorf("element %d = %+v, want location %d offset %d format %d", i, got[i], w.location, w.offset, w.format)
		}
	}
}

func TestVertexBytes(t *testing.T) {
	vs := []gpu.Vertex{
		{Position: [3]float32{1, 2, 3}, Color: gpu.PackColor(1, 0, 0, 1)},
		{Position: [3]float32{4, 5, 6}, TexCoord1: [2]float32{0.5, 0.75}},
	}
	b := gpu.VertexBytes(vs)
	if len(b) != 2*int(gpu.VertexStride) {
		t.Fatalf("%d bytes, want %d", len(b), 2*gpu.VertexStride)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[44+8:])); got != 6 {
		t.Errorf("second vertex z = %v, want 6", got)
	}
	if got := binary.LittleEndian.Uint32(b[24:]); got != 0xFF0000FF {
		t.Errorf("first vertex color = %#x, want 0xff0000ff", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(b[44+40:])); got != 0.75 {
		t.Errorf("second vertex t1.y = %v, want 0.75", got)
	}
}

func TestPackColor(t *testing.T) {
	tests := []struct {
		r, g, b, a float32
		want       uint32
	}{
		{0, 0, 0, 0, 0},
		{1, 1, 1, 1, 0xFFFFFFFF},
		{1, 0, 0, 1, 0xFF0000FF},
		{0, 0, 1, 0, 0x00FF0000},
		{2, -1, 0.5, 1, 0xFF8000FF},
	}
	for _, tt := range tests {
		if got := gpu.PackColor(tt.r, tt.g, tt.b, tt.a); got != tt.want {
			t.Errorf("PackColor(%v,%v,%v,%v) = %#x, want %#x", tt.r, tt.g, tt.b, tt.a, got, tt.want)
		}
	}
	r, g, b, a := gpu.UnpackColor(0xFF0000FF)
	if r != 1 || g != 0 || b != 0 || a != 1 {
		t.Errorf("UnpackColor = %v %v %v %v, want 1 0 0 1", r, g, b, a)
	}
}
