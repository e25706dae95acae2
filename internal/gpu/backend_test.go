package gpu_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/glimm/internal/gpu"
	"github.com/gogpu/glimm/internal/gputest"
)

func testConfig() gpu.Config {
	cfg := gpu.DefaultConfig()
	cfg.PrecompileShaders = false
	cfg.UploadRingSize = 256 << 10
	return cfg
}

func newBackend(t *testing.T, dev *gputest.Device, cfg gpu.Config) *gpu.Backend {
	t.Helper()
	b := gpu.NewBackend(dev, cfg)
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = b.Shutdown() })
	return b
}

func recordedList(b *gpu.Backend) *gputest.CommandList {
	return b.CommandList().(*gputest.CommandList)
}

func triangle() []gpu.Vertex {
	white := gpu.PackColor(1, 1, 1, 1)
	return []gpu.Vertex{
		{Position: [3]float32{0, 1, 0}, Color: white},
		{Position: [3]float32{-1, -1, 0}, Color: white},
		{Position: [3]float32{1, -1, 0}, Color: white},
	}
}

func TestBackendInit(t *testing.T) {
	dev := gputest.NewDevice()
	b := newBackend(t, dev, testConfig())
	list := recordedList(b)

	if list.Closed() {
		t.Fatal("command list closed after Init")
	}
	if got := len(dev.Heaps); got != 5 {
		t.Errorf("created %d descriptor heaps, want 5", got)
	}
	if list.HeapBinds != 1 || len(list.RenderTargets) != 1 {
		t.Errorf("heap binds %d, render target binds %d, want 1 and 1", list.HeapBinds, len(list.RenderTargets))
	}

	var sawRT bool
	for _, br := range list.Barriers() {
		if br.Resource == dev.SwapChain.BackBuffer(0) && br.Before == gpu.StatePresent && br.After == gpu.StateRenderTarget {
			sawRT = true
		}
	}
	if !sawRT {
		t.Error("back buffer 0 was not transitioned from present to render target")
	}

	def := b.DefaultTexture()
	if def == nil || def.Width() != 1 || def.Height() != 1 {
		t.Fatalf("default texture = %+v, want 1x1", def)
	}
	if def.Resource().State() != gpu.StatePixelShaderResource {
		t.Errorf("default texture state = %v, want pixel-shader-resource", def.Resource().State())
	}
	native := def.Resource().Native().(*gputest.Resource)
	if len(native.Uploads) != 1 || native.Uploads[0].Layout.RowPitch%gpu.TextureRowPitchAlignment != 0 {
		t.Errorf("default texture uploads = %+v", native.Uploads)
	}

	samplers := b.Descriptors().Usage()[gpu.DescriptorSampler]
	if samplers[0] != 48 {
		t.Errorf("%d sampler descriptors, want 48", samplers[0])
	}
	if len(list.RootCBVs) != 1 {
		t.Errorf("%d root constant buffer binds after Init, want 1", len(list.RootCBVs))
	}
}

func TestBackendInitTwice(t *testing.T) {
	b := newBackend(t, gputest.NewDevice(), testConfig())
	if err := b.Init(); !errors.Is(err, gpu.ErrAlreadyInitialized) {
		t.Errorf("second Init: err = %v, want ErrAlreadyInitialized", err)
	}
}

func TestBackendInitFailure(t *testing.T) {
	for _, call := range []string{
		"CreateCommandQueue",
		"CreateFence",
		"CreateSwapChain",
		"CreateDescriptorHeap",
		"CreateTexture",
		"CreateRootSignature",
		"CreateBuffer",
		"CreateCommandAllocator",
		"CreateCommandList",
	} {
		t.Run(call, func(t *testing.T) {
			dev := gputest.NewDevice()
			dev.Fail[call] = true
			b := gpu.NewBackend(dev, testConfig())

			err := b.Init()
			if !errors.Is(err, gpu.ErrInit) || !errors.Is(err, gputest.ErrInjected) {
				t.Fatalf("Init: err = %v, want ErrInit wrapping the injected failure", err)
			}
			if err := b.EndFrame(); !errors.Is(err, gpu.ErrNotInitialized) {
				t.Errorf("EndFrame after failed Init: err = %v, want ErrNotInitialized", err)
			}
			if dev.Queue != nil && !dev.Queue.Released {
				t.Error("queue leaked")
			}
			for i, h := range dev.Heaps {
				if !h.Released {
					t.Errorf("heap %d leaked", i)
				}
			}
			for i, r := range dev.Buffers {
				if !r.Released {
					t.Errorf("buffer %d (%s) leaked", i, r.Label)
				}
			}
		})
	}
}

func TestBackendInitInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Width = 0
	err := gpu.NewBackend(gputest.NewDevice(), cfg).Init()
	if !errors.Is(err, gpu.ErrInit) || !errors.Is(err, gpu.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInit wrapping ErrInvalidConfig", err)
	}
}

func TestFrameLifecycle(t *testing.T) {
	tests := []struct {
		name      string
		frames    uint32
		manual    bool
		wantWaits func(n int) int
	}{
		{"double buffered, idle GPU", 2, false, func(int) int { return 0 }},
		{"double buffered, GPU behind", 2, true, func(n int) int { return n - 1 }},
		{"triple buffered, GPU behind", 3, true, func(n int) int { return n - 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := gputest.NewDevice()
			dev.ManualFence = tt.manual
			cfg := testConfig()
			cfg.Frames = tt.frames
			b := newBackend(t, dev, cfg)

			n := 2 * int(tt.frames) * 3
			for i := range n {
				if want := uint32(i) % tt.frames; b.FrameIndex() != want {
					t.Fatalf("frame %d: FrameIndex() = %d, want %d", i, b.FrameIndex(), want)
				}
				b.Clear(true, true)
				if err := b.EndFrame(); err != nil {
					t.Fatalf("frame %d: EndFrame: %v", i, err)
				}
			}

			s := b.Stats()
			if s.Frames != uint64(n) {
				t.Errorf("Frames = %d, want %d", s.Frames, n)
			}
			if got, want := int(s.FenceWaits), tt.wantWaits(n); got != want {
				t.Errorf("frame fence waits = %d, want %d", got, want)
			}
			if dev.SwapChain.Presents != n {
				t.Errorf("Presents = %d, want %d", dev.SwapChain.Presents, n)
			}
			if dev.Queue.Submissions != n {
				t.Errorf("Submissions = %d, want %d", dev.Queue.Submissions, n)
			}
			list := recordedList(b)
			if len(list.Errors) != 0 {
				t.Errorf("commands recorded into a closed list: %v", list.Errors)
			}
			if list.Closed() {
				t.Error("list closed between frames")
			}
			var resets int
			for _, a := range dev.Allocators {
				resets += a.Resets
			}
			if resets != n {
				t.Errorf("allocator resets = %d, want %d", resets, n)
			}
		})
	}
}

func TestFrameLifecycleWithUploads(t *testing.T) {
	dev := gputest.NewDevice()
	dev.ManualFence = true
	b := newBackend(t, dev, testConfig())

	const n = 12
	for i := range n {
		for range 4 {
			if err := b.DrawVertices(gpu.TopologyTriangleList, triangle()); err != nil {
				t.Fatalf("frame %d: draw: %v", i, err)
			}
		}
		if err := b.EndFrame(); err != nil {
			t.Fatalf("frame %d: EndFrame: %v", i, err)
		}
	}
	// The ring reuses offsets every frame, so each frame after the first
	// waits once for its predecessor, either in the ring or at the frame
	// boundary.
	if got := dev.Fences[0].Waits; got != n-1 {
		t.Errorf("fence waits = %d, want %d", got, n-1)
	}
	if got := dev.Fences[0].Signaled(); got != n {
		t.Errorf("last signaled value = %d, want %d", got, n)
	}
}

func TestEndFramePresentsBackBuffer(t *testing.T) {
	dev := gputest.NewDevice()
	b := newBackend(t, dev, testConfig())
	list := recordedList(b)
	bb := dev.SwapChain.BackBuffer(0)

	if err := b.EndFrame(); err != nil {
		t.Fatal(err)
	}
	var toPresent bool
	for _, br := range list.Barriers() {
		if br.Resource == bb && br.After == gpu.StatePresent {
			toPresent = true
		}
	}
	if !toPresent {
		t.Error("back buffer 0 not transitioned to present before submit")
	}
}

func TestDrawVertices(t *testing.T) {
	dev := gputest.NewDevice()
	b := newBackend(t, dev, testConfig())
	list := recordedList(b)

	if err := b.DrawVertices(gpu.TopologyTriangleList, triangle()); err != nil {
		t.Fatal(err)
	}
	if err := b.DrawVertices(gpu.TopologyTriangleStrip, triangle()); err != nil {
		t.Fatal(err)
	}
	if err := b.DrawVertices(gpu.TopologyLineStrip, triangle()); err != nil {
		t.Fatal(err)
	}

	if len(list.Draws) != 3 {
		t.Fatalf("%d draws, want 3", len(list.Draws))
	}
	d := list.Draws[0]
	if d.VertexCount != 3 || d.StartVertex != 0 || d.InstanceCount != 1 {
		t.Errorf("draw = %+v, want 3 vertices from 0", d)
	}
	ring := b.Ring().Buffer()
	if d.VertexBuffer.Stride != gpu.VertexStride || d.VertexBuffer.Size != 3*gpu.VertexStride {
		t.Errorf("vertex buffer view = %+v", d.VertexBuffer)
	}
	if d.VertexBuffer.Address < ring.GPUAddress() || d.VertexBuffer.Address >= ring.GPUAddress()+ring.Size() {
		t.Errorf("vertices at %#x, outside the upload ring", d.VertexBuffer.Address)
	}
	if list.Draws[1].Topology != gpu.TopologyTriangleStrip {
		t.Errorf("second draw topology = %d, want triangle strip", list.Draws[1].Topology)
	}
	// Triangle list and strip share a pipeline; the line strip needs its own.
	if dev.PipelineCount() != 2 || list.PipelineBinds != 2 {
		t.Errorf("compiled %d pipelines with %d binds, want 2 and 2", dev.PipelineCount(), list.PipelineBinds)
	}
	if list.Draws[0].Pipeline != list.Draws[1].Pipeline || list.Draws[2].Pipeline == list.Draws[0].Pipeline {
		t.Error("draws bound to the wrong pipelines")
	}
	if b.Stats().Draws != 3 {
		t.Errorf("Stats().Draws = %d, want 3", b.Stats().Draws)
	}
}

func TestDrawUploadsChangedConstants(t *testing.T) {
	dev := gputest.NewDevice()
	b := newBackend(t, dev, testConfig())
	list := recordedList(b)
	before := len(list.RootCBVs)

	if err := b.DrawVertices(gpu.TopologyTriangleList, triangle()); err != nil {
		t.Fatal(err)
	}
	if len(list.RootCBVs) != before {
		t.Errorf("constants rebound without a change")
	}

	b.Matrices().Load(gpu.MatrixModelView, mgl32.Translate3D(0, 0, -5))
	if err := b.DrawVertices(gpu.TopologyTriangleList, triangle()); err != nil {
		t.Fatal(err)
	}
	b.Constants().FogEnabled = true
	b.MarkConstantsDirty()
	if err := b.DrawVertices(gpu.TopologyTriangleList, triangle()); err != nil {
		t.Fatal(err)
	}
	if got := len(list.RootCBVs) - before; got != 2 {
		t.Fatalf("%d constant uploads, want 2", got)
	}
	for _, addr := range list.RootCBVs[before:] {
		if addr%gpu.ConstantBufferAlignment != 0 {
			t.Errorf("constants at %#x, not %d-aligned", addr, gpu.ConstantBufferAlignment)
		}
	}
}

func TestSetTextureBindsDescriptors(t *testing.T) {
	dev := gputest.NewDevice()
	b := newBackend(t, dev, testConfig())
	list := recordedList(b)

	tex, err := b.CreateTexture("checker", 2, 2, [][]byte{make([]byte, 16), make([]byte, 4)})
	if err != nil {
		t.Fatal(err)
	}
	tex.Sampler = gpu.SamplerDesc{MinFilter: gpu.FilterLinear, MagFilter: gpu.FilterLinear, Mipmaps: true, MipFilter: gpu.FilterLinear}
	b.SetTexture(tex)
	if err := b.DrawVertices(gpu.TopologyTriangleList, triangle()); err != nil {
		t.Fatal(err)
	}
	if got := list.Tables[gpu.RootTextureTable]; got != tex.SRV() {
		t.Errorf("texture table = %+v, want %+v", got, tex.SRV())
	}
	if list.Tables[gpu.RootSamplerTable].IsNull() {
		t.Error("sampler table not bound")
	}

	b.SetTexture(nil)
	if err := b.DrawVertices(gpu.TopologyTriangleList, triangle()); err != nil {
		t.Fatal(err)
	}
	if got := list.Tables[gpu.RootTextureTable]; got != b.DefaultTexture().SRV() {
		t.Errorf("nil texture bound %+v, want the default texture", got)
	}
}

func TestCreateTextureLevels(t *testing.T) {
	dev := gputest.NewDevice()
	b := newBackend(t, dev, testConfig())

	levels := [][]byte{make([]byte, 8*4*4), make([]byte, 4*2*4), make([]byte, 2*1*4), make([]byte, 4)}
	tex, err := b.CreateTexture("mips", 8, 4, levels)
	if err != nil {
		t.Fatal(err)
	}
	native := tex.Resource().Native().(*gputest.Resource)
	if native.Texture.MipLevels != 4 {
		t.Errorf("MipLevels = %d, want 4", native.Texture.MipLevels)
	}
	wantW := []uint32{8, 4, 2, 1}
	wantH := []uint32{4, 2, 1, 1}
	if len(native.Uploads) != 4 {
		t.Fatalf("%d uploads, want 4", len(native.Uploads))
	}
	for i, u := range native.Uploads {
		if u.Level != uint32(i) || u.Layout.Width != wantW[i] || u.Layout.Height != wantH[i] {
			t.Errorf("upload %d = %+v, want level %d %dx%d", i, u, i, wantW[i], wantH[i])
		}
		if u.Layout.Offset%gpu.TexturePlacementAlignment != 0 {
			t.Errorf("upload %d at offset %d, not placement aligned", i, u.Layout.Offset)
		}
	}
}

func TestCreateTextureBands(t *testing.T) {
	dev := gputest.NewDevice()
	b := newBackend(t, dev, testConfig())

	const w, h = 300, 300
	tex, err := b.CreateTexture("large", w, h, [][]byte{make([]byte, w*h*4)})
	if err != nil {
		t.Fatal(err)
	}
	uploads := tex.Resource().Native().(*gputest.Resource).Uploads
	if len(uploads) < 2 {
		t.Fatalf("%d uploads, want the level split into bands", len(uploads))
	}
	var next uint32
	for i, u := range uploads {
		if u.Layout.Y != next {
			t.Errorf("band %d starts at row %d, want %d", i, u.Layout.Y, next)
		}
		if u.Layout.RowPitch != 1280 {
			t.Errorf("band %d pitch %d, want 1280", i, u.Layout.RowPitch)
		}
		next += u.Layout.Height
	}
	if next != h {
		t.Errorf("bands cover %d rows, want %d", next, h)
	}
}

func TestCreateTextureShortLevel(t *testing.T) {
	b := newBackend(t, gputest.NewDevice(), testConfig())
	if _, err := b.CreateTexture("short", 4, 4, [][]byte{make([]byte, 10)}); err == nil {
		t.Error("CreateTexture accepted a level that is too short")
	}
	if _, err := b.CreateTexture("empty", 0, 4, [][]byte{nil}); !errors.Is(err, gpu.ErrZeroSize) {
		t.Errorf("zero width: err = %v, want ErrZeroSize", err)
	}
}

func TestReleaseTextureWaitsForFrame(t *testing.T) {
	dev := gputest.NewDevice()
	b := newBackend(t, dev, testConfig())
	tex, err := b.CreateTexture("t", 1, 1, [][]byte{{1, 2, 3, 4}})
	if err != nil {
		t.Fatal(err)
	}
	native := tex.Resource().Native().(*gputest.Resource)

	b.ReleaseTexture(tex)
	if native.Released {
		t.Fatal("texture released while its frame is still recording")
	}
	if err := b.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if !native.Released {
		t.Error("texture not released after its frame retired")
	}
}

func TestCreateTextureUploadFailureDefersRelease(t *testing.T) {
	dev := gputest.NewDevice()
	cfg := testConfig()
	cfg.UploadRingSize = 64 << 10
	b := newBackend(t, dev, cfg)
	used := b.Stats().Memory.UsedBytes

	dev.Fail["ExecuteCommandLists"] = true
	const size = 256
	if _, err := b.CreateTexture("big", size, size, [][]byte{make([]byte, size*size*4)}); !errors.Is(err, gputest.ErrInjected) {
		t.Fatalf("CreateTexture with a failing mid-upload submit: err = %v, want ErrInjected", err)
	}
	delete(dev.Fail, "ExecuteCommandLists")

	native := dev.Textures[len(dev.Textures)-1]
	if native.Label != "big" {
		t.Fatalf("last texture is %q, want big", native.Label)
	}
	if native.Released {
		t.Fatal("texture released while recorded copies still reference it")
	}
	if err := b.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if !native.Released {
		t.Error("texture not released after its frame retired")
	}
	if got := b.Stats().Memory.UsedBytes; got != used {
		t.Errorf("texture memory %d after the failed upload, want %d", got, used)
	}
}

func TestUploadBuffer(t *testing.T) {
	dev := gputest.NewDevice()
	b := newBackend(t, dev, testConfig())
	data := bytes.Repeat([]byte{1, 2, 3, 4, 5}, 1000)

	buf, err := b.UploadBuffer("vb", data)
	if err != nil {
		t.Fatal(err)
	}
	native := buf.Native().(*gputest.Resource)
	if !bytes.Equal(native.Data, data) {
		t.Error("default buffer does not hold the uploaded bytes")
	}
	if buf.State() != gpu.StateVertexAndConstantBuffer {
		t.Errorf("state = %v, want vertex-constant-buffer", buf.State())
	}
}

func TestRingOverflowSubmitsEarly(t *testing.T) {
	dev := gputest.NewDevice()
	cfg := testConfig()
	cfg.UploadRingSize = 64 << 10
	b := newBackend(t, dev, cfg)
	list := recordedList(b)

	big := make([]gpu.Vertex, 1000)
	for i := range 3 {
		if err := b.DrawVertices(gpu.TopologyPointList, big); err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
	}
	s := b.Stats()
	if s.Kicks == 0 {
		t.Error("no early submit although the frame outgrew the ring")
	}
	if len(list.Draws) != 3 {
		t.Errorf("%d draws, want 3", len(list.Draws))
	}
	if len(list.Errors) != 0 {
		t.Errorf("commands recorded into a closed list: %v", list.Errors)
	}
	if list.Draws[2].Pipeline == nil {
		t.Error("draw after early submit has no pipeline bound")
	}
	if err := b.EndFrame(); err != nil {
		t.Fatal(err)
	}
}

func TestRingOverflowDuringConstantsUpload(t *testing.T) {
	dev := gputest.NewDevice()
	cfg := testConfig()
	cfg.UploadRingSize = 64 << 10
	b := newBackend(t, dev, cfg)
	list := recordedList(b)

	if err := b.DrawVertices(gpu.TopologyPointList, make([]gpu.Vertex, 1466)); err != nil {
		t.Fatal(err)
	}
	ring := b.Ring()
	if b.Stats().Kicks != 0 || ring.Size()-ring.Offset() >= gpu.FrameConstantsSize {
		t.Fatalf("ring at %d of %d after %d kicks, want too little room for constants", ring.Offset(), ring.Size(), b.Stats().Kicks)
	}

	b.MarkConstantsDirty()
	if err := b.DrawVertices(gpu.TopologyTriangleList, triangle()); err != nil {
		t.Fatal(err)
	}
	if got := b.Stats().Kicks; got != 1 {
		t.Fatalf("%d early submits, want 1", got)
	}
	if len(list.Errors) != 0 {
		t.Errorf("commands recorded into a closed list: %v", list.Errors)
	}
	d := list.Draws[len(list.Draws)-1]
	if d.Pipeline == nil {
		t.Error("draw after a submit inside the constants upload has no pipeline bound")
	}
	for _, param := range []uint32{gpu.RootTextureTable, gpu.RootSamplerTable} {
		if _, ok := d.Tables[param]; !ok {
			t.Errorf("draw after the submit has no table bound at root parameter %d", param)
		}
	}
	if err := b.EndFrame(); err != nil {
		t.Fatal(err)
	}
}

func TestEndFrameRecoversFromSubmitFailure(t *testing.T) {
	for _, step := range []string{"Close", "ExecuteCommandLists", "Present"} {
		t.Run(step, func(t *testing.T) {
			dev := gputest.NewDevice()
			b := newBackend(t, dev, testConfig())
			list := recordedList(b)

			if err := b.DrawVertices(gpu.TopologyTriangleList, triangle()); err != nil {
				t.Fatal(err)
			}
			dev.Fail[step] = true
			if err := b.EndFrame(); !errors.Is(err, gputest.ErrInjected) {
				t.Fatalf("EndFrame with failing %s: err = %v, want ErrInjected", step, err)
			}
			delete(dev.Fail, step)

			for i := range 3 {
				if err := b.DrawVertices(gpu.TopologyTriangleList, triangle()); err != nil {
					t.Fatalf("draw %d after the failed frame: %v", i, err)
				}
				if err := b.EndFrame(); err != nil {
					t.Fatalf("frame %d after the failed frame: %v", i, err)
				}
			}
			if len(list.Errors) != 0 {
				t.Errorf("commands recorded into a closed list: %v", list.Errors)
			}
			s := b.Stats()
			if s.Frames != 3 || s.Dropped != 1 {
				t.Errorf("frames %d dropped %d, want 3 and 1", s.Frames, s.Dropped)
			}
		})
	}
}

func TestResize(t *testing.T) {
	dev := gputest.NewDevice()
	b := newBackend(t, dev, testConfig())
	oldDepth := dev.Textures[0]

	if err := b.Resize(800, 600); err != nil {
		t.Fatal(err)
	}
	if dev.SwapChain.Resizes != 1 {
		t.Errorf("swap chain resized %d times, want 1", dev.SwapChain.Resizes)
	}
	if w, h := dev.SwapChain.Size(); w != 800 || h != 600 {
		t.Errorf("swap chain size %dx%d, want 800x600", w, h)
	}
	if !oldDepth.Released {
		t.Error("old depth buffer not released")
	}
	list := recordedList(b)
	vp := list.Viewports[len(list.Viewports)-1]
	if vp.Width != 800 || vp.Height != 600 {
		t.Errorf("viewport %vx%v, want 800x600", vp.Width, vp.Height)
	}
	for range 4 {
		if err := b.EndFrame(); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Resize(800, 600); err != nil {
		t.Errorf("resize to the same size: %v", err)
	}
	if dev.SwapChain.Resizes != 1 {
		t.Error("resize to the same size recreated the swap chain")
	}
}

func TestClear(t *testing.T) {
	b := newBackend(t, gputest.NewDevice(), testConfig())
	list := recordedList(b)
	b.SetClearColor([4]float32{0.1, 0.2, 0.3, 1})
	b.SetClearDepth(0.5)

	b.Clear(true, false)
	b.Clear(false, true)

	if len(list.ColorClears) != 1 || list.ColorClears[0] != [4]float32{0.1, 0.2, 0.3, 1} {
		t.Errorf("color clears = %v", list.ColorClears)
	}
	if len(list.DepthClears) != 1 || list.DepthClears[0] != 0.5 {
		t.Errorf("depth clears = %v", list.DepthClears)
	}
}

func TestShutdown(t *testing.T) {
	dev := gputest.NewDevice()
	b := gpu.NewBackend(dev, testConfig())
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	if err := b.DrawVertices(gpu.TopologyTriangleList, triangle()); err != nil {
		t.Fatal(err)
	}
	if err := b.Shutdown(); err != nil {
		t.Fatal(err)
	}

	if !dev.Queue.Released || !dev.SwapChain.Released || !dev.Fences[0].Released {
		t.Error("queue, swap chain or fence not released")
	}
	for i, p := range dev.Pipelines {
		if !p.Released {
			t.Errorf("pipeline %d not released", i)
		}
	}
	for i, r := range dev.Buffers {
		if !r.Released {
			t.Errorf("buffer %d (%s) not released", i, r.Label)
		}
	}
	for i, r := range dev.Textures {
		if !r.Released {
			t.Errorf("texture %d (%s) not released", i, r.Label)
		}
	}
	if err := b.Shutdown(); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
	if err := b.EndFrame(); !errors.Is(err, gpu.ErrNotInitialized) {
		t.Errorf("EndFrame after Shutdown: err = %v, want ErrNotInitialized", err)
	}
}
