package glimm

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestMatrixStackErrors(t *testing.T) {
	c, _ := newTestContext(t)

	c.PopMatrix()
	if got := c.GetError(); got != StackUnderflow {
		t.Errorf("PopMatrix on fresh stack: GetError() = %v, want %v", got, StackUnderflow)
	}

	for i := range 31 {
		c.PushMatrix()
		if got := c.GetError(); got != NoError {
			t.Fatalf("push %d: GetError() = %v", i, got)
		}
	}
	c.PushMatrix()
	if got := c.GetError(); got != StackOverflow {
		t.Errorf("33rd model-view entry: GetError() = %v, want %v", got, StackOverflow)
	}

	c.MatrixMode(Projection)
	for range 3 {
		c.PushMatrix()
	}
	c.PushMatrix()
	if got := c.GetError(); got != StackOverflow {
		t.Errorf("5th projection entry: GetError() = %v, want %v", got, StackOverflow)
	}

	c.MatrixMode(Enum(0x1234))
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("MatrixMode(0x1234): GetError() = %v, want %v", got, InvalidEnum)
	}
}

func TestMatrixTransforms(t *testing.T) {
	c, _ := newTestContext(t)

	c.Translatef(1, 2, 3)
	c.PushMatrix()
	c.Scalef(2, 2, 2)
	scaled := mgl32.Mat4(c.CurrentMatrix(ModelView)).Mul4x1(mgl32.Vec4{1, 1, 1, 1})
	if want := (mgl32.Vec4{3, 4, 5, 1}); !scaled.ApproxEqual(want) {
		t.Errorf("translate then scale maps (1,1,1) to %v, want %v", scaled, want)
	}
	c.PopMatrix()

	got := mgl32.Mat4(c.CurrentMatrix(ModelView))
	if want := mgl32.Translate3D(1, 2, 3); !got.ApproxEqual(want) {
		t.Errorf("after PopMatrix top is %v, want %v", got, want)
	}

	c.LoadIdentity()
	c.Rotatef(90, 0, 0, 2)
	p := mgl32.Mat4(c.CurrentMatrix(ModelView)).Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if want := (mgl32.Vec4{0, 1, 0, 1}); !p.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("Rotatef(90) about Z maps +X to %v, want %v", p, want)
	}

	c.Rotatef(45, 0, 0, 0)
	if got := c.GetError(); got != NoError {
		t.Errorf("Rotatef with zero axis: GetError() = %v, want %v", got, NoError)
	}
}

func TestProjectionErrors(t *testing.T) {
	c, _ := newTestContext(t)
	c.MatrixMode(Projection)

	tests := []struct {
		name string
		call func()
	}{
		{"Ortho zero width", func() { c.Ortho(1, 1, 0, 1, -1, 1) }},
		{"Frustum negative near", func() { c.Frustum(-1, 1, -1, 1, -1, 10) }},
		{"Perspective far before near", func() { c.Perspective(60, 1, 10, 1) }},
	}
	for _, tt := range tests {
		tt.call()
		if got := c.GetError(); got != InvalidValue {
			t.Errorf("%s: GetError() = %v, want %v", tt.name, got, InvalidValue)
		}
	}

	if got := mgl32.Mat4(c.CurrentMatrix(Projection)); got != mgl32.Ident4() {
		t.Errorf("rejected projections changed the matrix to %v", got)
	}

	c.Perspective(90, 1, 1, 100)
	want := mgl32.Perspective(mgl32.DegToRad(90), 1, 1, 100)
	if got := mgl32.Mat4(c.CurrentMatrix(Projection)); !got.ApproxEqual(want) {
		t.Errorf("Perspective set %v, want %v", got, want)
	}
}

func TestMatrixUploadedOnDraw(t *testing.T) {
	c, _ := newTestContext(t)
	list := recorded(c)

	triangle(c)
	before := len(list.RootCBVs)
	triangle(c)
	if got := len(list.RootCBVs); got != before {
		t.Errorf("unchanged state uploaded constants again: %d binds, want %d", got, before)
	}

	c.Translatef(0, 0, -1)
	triangle(c)
	if got := len(list.RootCBVs); got != before+1 {
		t.Errorf("after Translatef %d constant binds, want %d", got, before+1)
	}
	if got := c.backend.Constants().World; !got.ApproxEqual(mgl32.Translate3D(0, 0, -1)) {
		t.Errorf("world matrix %v, want translation by -1 in Z", got)
	}
}
