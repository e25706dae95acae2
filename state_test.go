package glimm

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/glimm/internal/gpu"
)

func TestEnableDisable(t *testing.T) {
	c, _ := newTestContext(t)

	caps := []Enum{DepthTest, CullFaceMode, Blend, Texture2D, Lighting, Fog, AlphaTest, ColorMaterial, Light0 + 3}
	for _, cp := range caps {
		if c.IsEnabled(cp) {
			t.Errorf("capability %#x enabled initially", uint32(cp))
		}
		c.Enable(cp)
		if !c.IsEnabled(cp) {
			t.Errorf("capability %#x not enabled after Enable", uint32(cp))
		}
	}
	if got := c.GetError(); got != NoError {
		t.Fatalf("GetError() = %v, want %v", got, NoError)
	}

	fc := c.backend.Constants()
	if !fc.LightingEnabled || !fc.FogEnabled || !fc.TextureEnabled || !fc.Lights[3].Enabled {
		t.Errorf("constants do not reflect enabled capabilities: %+v", fc)
	}
	k := c.backend.RenderState()
	if !k.DepthTest || !k.BlendEnable || k.Cull != gpu.CullBack {
		t.Errorf("render state %+v, want depth test, blending and back-face culling", k)
	}

	c.Disable(CullFaceMode)
	if got := c.backend.RenderState().Cull; got != gpu.CullNone {
		t.Errorf("cull mode %v after Disable, want none", got)
	}

	c.Enable(Light0 + gpu.MaxLights)
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("Enable(Light8): GetError() = %v, want %v", got, InvalidEnum)
	}
}

func TestRenderStateCalls(t *testing.T) {
	c, _ := newTestContext(t)

	c.DepthFunc(Lequal)
	c.DepthMask(false)
	c.BlendFunc(SrcAlpha, OneMinusSrcAlpha)
	c.FrontFace(CW)
	c.PolygonMode(FrontAndBack, Line)
	c.Enable(CullFaceMode)
	c.CullFace(Front)

	want := gpu.DefaultPSOKey()
	want.DepthFunc = gpu.CompareLessEqual
	want.DepthWrite = false
	want.SrcBlend = gpu.BlendSrcAlpha
	want.DstBlend = gpu.BlendInvSrcAlpha
	want.Front = gpu.FrontCW
	want.Fill = gpu.FillWireframe
	want.Cull = gpu.CullFront
	if got := c.backend.RenderState(); got != want {
		t.Errorf("render state %+v, want %+v", got, want)
	}
	if got := c.GetError(); got != NoError {
		t.Errorf("GetError() = %v, want %v", got, NoError)
	}

	tests := []struct {
		name string
		call func()
	}{
		{"DepthFunc", func() { c.DepthFunc(Blend) }},
		{"BlendFunc", func() { c.BlendFunc(One, SrcAlphaSaturate) }},
		{"FrontFace", func() { c.FrontFace(Front) }},
		{"CullFace", func() { c.CullFace(CW) }},
		{"PolygonMode", func() { c.PolygonMode(Fill, Fill) }},
	}
	for _, tt := range tests {
		tt.call()
		if got := c.GetError(); got != InvalidEnum {
			t.Errorf("%s: GetError() = %v, want %v", tt.name, got, InvalidEnum)
		}
	}
	if got := c.backend.RenderState(); got != want {
		t.Errorf("rejected calls changed render state to %+v", got)
	}
}

func TestPolygonModeLineDrawsEdges(t *testing.T) {
	c, _ := newTestContext(t)
	id := c.GenLists(1)
	c.NewList(id, Compile)
	triangle(c)
	c.EndList()

	list := recorded(c)
	list.ClearRecords()
	c.PolygonMode(FrontAndBack, Line)
	c.Begin(Quads)
	c.Vertex2f(0, 0)
	c.Vertex2f(1, 0)
	c.Vertex2f(1, 1)
	c.Vertex2f(0, 1)
	c.End()
	c.CallList(id)

	if len(list.Draws) != 2 {
		t.Fatalf("%d draws, want 2", len(list.Draws))
	}
	if d := list.Draws[0]; d.Topology != gpu.TopologyLineList || d.VertexCount != 12 {
		t.Errorf("wireframe quad drawn as %v with %d vertices, want a line list of 12", d.Topology, d.VertexCount)
	}
	if d := list.Draws[1]; d.Topology != gpu.TopologyLineList || d.VertexCount != 6 {
		t.Errorf("wireframe list triangle drawn as %v with %d vertices, want a line list of 6", d.Topology, d.VertexCount)
	}

	c.PolygonMode(FrontAndBack, Fill)
	triangle(c)
	if d := list.Draws[len(list.Draws)-1]; d.Topology != gpu.TopologyTriangleList || d.VertexCount != 3 {
		t.Errorf("filled triangle drawn as %v with %d vertices, want a triangle list of 3", d.Topology, d.VertexCount)
	}
}

func TestPipelineCacheReuse(t *testing.T) {
	c, dev := newTestContext(t)

	triangle(c)
	c.Enable(Blend)
	triangle(c)
	c.Disable(Blend)
	triangle(c)

	s := c.Stats()
	if s.PSOMisses != 2 {
		t.Errorf("%d pipeline compiles, want 2", s.PSOMisses)
	}
	if got := len(dev.Pipelines); got != 2 {
		t.Errorf("device created %d pipelines, want 2", got)
	}
}

func TestAlphaFunc(t *testing.T) {
	c, _ := newTestContext(t)
	fc := c.backend.Constants()

	c.Enable(AlphaTest)
	if fc.AlphaTest {
		t.Error("alpha test active with the initial Always function")
	}

	c.AlphaFunc(Greater, 0.5)
	if !fc.AlphaTest || fc.AlphaRef != 0.5 {
		t.Errorf("alpha test %v ref %v, want true and 0.5", fc.AlphaTest, fc.AlphaRef)
	}

	c.AlphaFunc(Greater, 3)
	if fc.AlphaRef != 1 {
		t.Errorf("alpha ref %v, want clamped to 1", fc.AlphaRef)
	}

	c.AlphaFunc(Always, 0.5)
	if fc.AlphaTest {
		t.Error("alpha test active with Always")
	}

	c.AlphaFunc(Fog, 0)
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("AlphaFunc(Fog): GetError() = %v, want %v", got, InvalidEnum)
	}
}

func TestClear(t *testing.T) {
	c, _ := newTestContext(t)
	list := recorded(c)
	list.ClearRecords()

	c.ClearColor(0.25, 0.5, 0.75, 1)
	c.ClearDepth(2)
	c.Clear(ColorBufferBit | DepthBufferBit)

	if len(list.ColorClears) != 1 || list.ColorClears[0] != [4]float32{0.25, 0.5, 0.75, 1} {
		t.Errorf("color clears %v, want one of (0.25, 0.5, 0.75, 1)", list.ColorClears)
	}
	if len(list.DepthClears) != 1 || list.DepthClears[0] != 1 {
		t.Errorf("depth clears %v, want one of 1", list.DepthClears)
	}

	c.Clear(ColorBufferBit | 0x1)
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("Clear with unknown bit: GetError() = %v, want %v", got, InvalidValue)
	}
	if len(list.ColorClears) != 1 {
		t.Errorf("rejected Clear recorded %d color clears, want 1", len(list.ColorClears))
	}
}

func TestViewportOrigin(t *testing.T) {
	c, _ := newTestContext(t, WithSize(640, 480))
	list := recorded(c)
	list.ClearRecords()

	c.Viewport(10, 20, 100, 50)

	if len(list.Viewports) != 1 {
		t.Fatalf("recorded %d viewports, want 1", len(list.Viewports))
	}
	want := gpu.Viewport{X: 10, Y: 410, Width: 100, Height: 50, MaxDepth: 1}
	if got := list.Viewports[0]; got != want {
		t.Errorf("viewport %+v, want %+v", got, want)
	}

	c.Viewport(0, 0, -1, 10)
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("negative width: GetError() = %v, want %v", got, InvalidValue)
	}
}

func TestLighting(t *testing.T) {
	c, _ := newTestContext(t)
	fc := c.backend.Constants()

	c.Translatef(1, 2, 3)
	c.Lightfv(Light0+1, Position, []float32{0, 0, 0, 1})
	if want := (mgl32.Vec4{1, 2, 3, 1}); !fc.Lights[1].Position.ApproxEqual(want) {
		t.Errorf("light position %v, want eye-space %v", fc.Lights[1].Position, want)
	}

	c.Lightfv(Light0, Diffuse, []float32{0.5, 0.25, 1, 1})
	c.Lightf(Light0, LinearAttenuation, 0.1)
	if fc.Lights[0].Diffuse != (mgl32.Vec4{0.5, 0.25, 1, 1}) || fc.Lights[0].Attenuation[1] != 0.1 {
		t.Errorf("light 0 %+v, want diffuse (0.5, 0.25, 1, 1) and linear attenuation 0.1", fc.Lights[0])
	}

	c.Materialfv(FrontAndBack, AmbientAndDiffuse, []float32{0.1, 0.2, 0.3, 1})
	c.Materialf(Front, Shininess, 32)
	m := fc.Material
	if m.Ambient != m.Diffuse || m.Diffuse != (mgl32.Vec4{0.1, 0.2, 0.3, 1}) || m.Shininess != 32 {
		t.Errorf("material %+v", m)
	}

	c.LightModelAmbient(0.3, 0.3, 0.3, 1)
	if fc.GlobalAmbient != (mgl32.Vec4{0.3, 0.3, 0.3, 1}) {
		t.Errorf("global ambient %v", fc.GlobalAmbient)
	}

	tests := []struct {
		name string
		call func()
		want ErrorCode
	}{
		{"Lightfv bad light", func() { c.Lightfv(Fog, Diffuse, []float32{1, 1, 1, 1}) }, InvalidEnum},
		{"Lightfv short vector", func() { c.Lightfv(Light0, Ambient, []float32{1}) }, InvalidValue},
		{"Lightf vector parameter", func() { c.Lightf(Light0, Diffuse, 1) }, InvalidEnum},
		{"Materialf too shiny", func() { c.Materialf(Front, Shininess, 200) }, InvalidValue},
		{"Materialfv bad face", func() { c.Materialfv(CW, Diffuse, []float32{1, 1, 1, 1}) }, InvalidEnum},
	}
	for _, tt := range tests {
		tt.call()
		if got := c.GetError(); got != tt.want {
			t.Errorf("%s: GetError() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFog(t *testing.T) {
	c, _ := newTestContext(t)
	f := &c.backend.Constants().Fog

	c.Fogi(FogMode, Linear)
	c.Fogf(FogStart, 5)
	c.Fogf(FogEnd, 50)
	c.Fogfv(FogColor, []float32{0.5, 0.5, 0.5, 1})
	c.Fogfv(FogDensity, []float32{0.25})

	want := gpu.Fog{Color: mgl32.Vec4{0.5, 0.5, 0.5, 1}, Start: 5, End: 50, Density: 0.25, Mode: gpu.FogLinear}
	if *f != want {
		t.Errorf("fog %+v, want %+v", *f, want)
	}

	c.Fogf(FogMode, float32(Exp2))
	if f.Mode != gpu.FogExp2 {
		t.Errorf("fog mode %v, want exp2", f.Mode)
	}

	c.Fogi(FogMode, Nearest)
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("Fogi(Nearest): GetError() = %v, want %v", got, InvalidEnum)
	}
	c.Fogf(FogDensity, -1)
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("negative density: GetError() = %v, want %v", got, InvalidValue)
	}
}
