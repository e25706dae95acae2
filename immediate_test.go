package glimm

import (
	"testing"

	"github.com/gogpu/glimm/internal/gpu"
)

func numbered(n int) []gpu.Vertex {
	vs := make([]gpu.Vertex, n)
	for i := range vs {
		vs[i].Position[0] = float32(i)
	}
	return vs
}

func TestAssemble(t *testing.T) {
	tests := []struct {
		mode      Enum
		in        int
		wantTopo  gpu.Topology
		wantCount int
	}{
		{Points, 3, gpu.TopologyPointList, 3},
		{Lines, 5, gpu.TopologyLineList, 4},
		{LineStrip, 1, gpu.TopologyLineStrip, 0},
		{LineStrip, 4, gpu.TopologyLineStrip, 4},
		{LineLoop, 3, gpu.TopologyLineStrip, 4},
		{Triangles, 7, gpu.TopologyTriangleList, 6},
		{TriangleStrip, 2, gpu.TopologyTriangleStrip, 0},
		{TriangleStrip, 5, gpu.TopologyTriangleStrip, 5},
		{TriangleFan, 5, gpu.TopologyTriangleList, 9},
		{Polygon, 4, gpu.TopologyTriangleList, 6},
		{Quads, 9, gpu.TopologyTriangleList, 12},
		{QuadStrip, 3, gpu.TopologyTriangleList, 0},
		{QuadStrip, 6, gpu.TopologyTriangleList, 12},
	}
	for _, tt := range tests {
		topo, out := assemble(tt.mode, numbered(tt.in), nil)
		if topo != tt.wantTopo || len(out) != tt.wantCount {
			t.Errorf("assemble(%#x, %d vertices) = %v with %d vertices, want %v with %d",
				uint32(tt.mode), tt.in, topo, len(out), tt.wantTopo, tt.wantCount)
		}
	}
}

func TestAssembleOrder(t *testing.T) {
	tests := []struct {
		mode Enum
		in   int
		want []float32
	}{
		{Quads, 4, []float32{0, 1, 2, 0, 2, 3}},
		{QuadStrip, 4, []float32{0, 1, 3, 0, 3, 2}},
		{TriangleFan, 4, []float32{0, 1, 2, 0, 2, 3}},
		{LineLoop, 3, []float32{0, 1, 2, 0}},
	}
	for _, tt := range tests {
		_, out := assemble(tt.mode, numbered(tt.in), nil)
		if len(out) != len(tt.want) {
			t.Errorf("mode %#x: got %d vertices, want %d", uint32(tt.mode), len(out), len(tt.want))
			continue
		}
		for i, v := range out {
			if v.Position[0] != tt.want[i] {
				t.Errorf("mode %#x: vertex %d is input %v, want %v", uint32(tt.mode), i, v.Position[0], tt.want[i])
			}
		}
	}
}

func TestImmediateTriangle(t *testing.T) {
	c, _ := newTestContext(t)
	list := recorded(c)
	list.ClearRecords()

	triangle(c)

	if len(list.Draws) != 1 {
		t.Fatalf("recorded %d draws, want 1", len(list.Draws))
	}
	d := list.Draws[0]
	if d.Topology != gpu.TopologyTriangleList || d.VertexCount != 3 || d.StartVertex != 0 {
		t.Errorf("draw %+v, want 3 triangle-list vertices from 0", d)
	}
	if d.VertexBuffer.Size != 3*gpu.VertexStride || d.VertexBuffer.Stride != gpu.VertexStride {
		t.Errorf("vertex buffer %+v, want 3 vertices of stride %d", d.VertexBuffer, gpu.VertexStride)
	}
}

func TestImmediateQuad(t *testing.T) {
	c, _ := newTestContext(t)
	list := recorded(c)
	list.ClearRecords()

	c.Begin(Quads)
	c.TexCoord2f(0, 0)
	c.Vertex2f(0, 0)
	c.TexCoord2f(1, 0)
	c.Vertex2f(1, 0)
	c.TexCoord2f(1, 1)
	c.Vertex2f(1, 1)
	c.TexCoord2f(0, 1)
	c.Vertex2f(0, 1)
	c.End()

	if len(list.Draws) != 1 {
		t.Fatalf("recorded %d draws, want 1", len(list.Draws))
	}
	if got := list.Draws[0]; got.VertexCount != 6 || got.Topology != gpu.TopologyTriangleList {
		t.Errorf("draw %+v, want 6 triangle-list vertices", got)
	}
}

func TestCurrentAttributes(t *testing.T) {
	c, _ := newTestContext(t)

	c.Begin(Points)
	c.Vertex3f(1, 2, 3)
	c.Color3ub(255, 0, 0)
	c.Normal3f(0, 1, 0)
	c.MultiTexCoord2f(Texture1, 0.25, 0.5)
	c.Vertex3fv([3]float32{4, 5, 6})
	c.End()

	if len(c.verts) != 2 {
		t.Fatalf("collected %d vertices, want 2", len(c.verts))
	}
	first, second := c.verts[0], c.verts[1]
	if first.Color != gpu.PackColor(1, 1, 1, 1) || first.Normal != [3]float32{0, 0, 1} {
		t.Errorf("first vertex %+v, want white with normal +Z", first)
	}
	if second.Color != gpu.PackColor(1, 0, 0, 1) {
		t.Errorf("second color %#x, want %#x", second.Color, gpu.PackColor(1, 0, 0, 1))
	}
	if second.Normal != [3]float32{0, 1, 0} || second.TexCoord1 != [2]float32{0.25, 0.5} {
		t.Errorf("second vertex %+v, want normal +Y and texcoord1 (0.25, 0.5)", second)
	}
	if second.Position != [3]float32{4, 5, 6} {
		t.Errorf("second position %v, want (4, 5, 6)", second.Position)
	}

	c.MultiTexCoord2f(Enum(0x84C7), 0, 0)
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("GetError() = %v, want %v", got, InvalidEnum)
	}
}

func TestBeginErrors(t *testing.T) {
	c, _ := newTestContext(t)

	c.End()
	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("End without Begin: GetError() = %v, want %v", got, InvalidOperation)
	}

	c.Begin(Lines)
	c.Begin(Lines)
	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("nested Begin: GetError() = %v, want %v", got, InvalidOperation)
	}
	c.End()
	if got := c.GetError(); got != NoError {
		t.Errorf("End after nested Begin: GetError() = %v, want %v", got, NoError)
	}
}

func TestCullFrontAndBack(t *testing.T) {
	c, _ := newTestContext(t)
	list := recorded(c)
	list.ClearRecords()

	c.Enable(CullFaceMode)
	c.CullFace(FrontAndBack)
	triangle(c)
	if len(list.Draws) != 0 {
		t.Fatalf("recorded %d draws with both faces culled, want 0", len(list.Draws))
	}

	c.Begin(Points)
	c.Vertex2f(0, 0)
	c.End()
	if len(list.Draws) != 1 {
		t.Errorf("recorded %d point draws, want 1", len(list.Draws))
	}
}

func TestManyBlocksShareScratch(t *testing.T) {
	c, _ := newTestContext(t)
	list := recorded(c)
	list.ClearRecords()

	for range 4 {
		c.Begin(Polygon)
		for i := range 5 {
			c.Vertex2f(float32(i), 0)
		}
		c.End()
		triangle(c)
	}

	if got := len(list.Draws); got != 8 {
		t.Fatalf("recorded %d draws, want 8", got)
	}
	for i, d := range list.Draws {
		want := uint32(9)
		if i%2 == 1 {
			want = 3
		}
		if d.VertexCount != want {
			t.Errorf("draw %d has %d vertices, want %d", i, d.VertexCount, want)
		}
	}
}
