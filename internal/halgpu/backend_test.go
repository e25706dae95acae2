package halgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/glimm/internal/gpu"
)

func newTestBackend(t *testing.T, d *Device) *gpu.Backend {
	t.Helper()
	cfg := gpu.DefaultConfig()
	cfg.Width, cfg.Height = 64, 48
	cfg.UploadRingSize = 1 << 20
	cfg.PrecompileShaders = false
	b := gpu.NewBackend(d, cfg)
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() {
		if err := b.Shutdown(); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})
	return b
}

func TestBackendFrames(t *testing.T) {
	d := newNoopDevice(t)
	var frames []Frame
	d.SetPresenter(func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	b := newTestBackend(t, d)

	tri := []gpu.Vertex{
		{Position: [3]float32{0, 1, 0}, Color: gpu.PackColor(1, 0, 0, 1)},
		{Position: [3]float32{-1, -1, 0}, Color: gpu.PackColor(0, 1, 0, 1)},
		{Position: [3]float32{1, -1, 0}, Color: gpu.PackColor(0, 0, 1, 1)},
	}
	for i := range 3 {
		b.Clear(true, true)
		if err := b.DrawVertices(gpu.TopologyTriangleList, tri); err != nil {
			t.Fatalf("frame %d: DrawVertices: %v", i, err)
		}
		if err := b.DrawVertices(gpu.TopologyLineStrip, tri); err != nil {
			t.Fatalf("frame %d: DrawVertices: %v", i, err)
		}
		if err := b.EndFrame(); err != nil {
			t.Fatalf("frame %d: EndFrame: %v", i, err)
		}
	}

	if len(frames) != 3 {
		t.Fatalf("presented %d frames, want 3", len(frames))
	}
	for i, f := range frames {
		if f.Index != uint32(i%2) {
			t.Errorf("frame %d presented buffer %d, want %d", i, f.Index, i%2)
		}
		if f.Width != 64 || f.Height != 48 {
			t.Errorf("frame %d is %dx%d, want 64x48", i, f.Width, f.Height)
		}
	}
	if got := b.Stats().Frames; got != 3 {
		t.Errorf("Stats().Frames = %d, want 3", got)
	}
}

func TestBackendResize(t *testing.T) {
	d := newNoopDevice(t)
	var last Frame
	d.SetPresenter(func(f Frame) error {
		last = f
		return nil
	})
	b := newTestBackend(t, d)
	if err := b.Resize(32, 16); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	b.Clear(true, true)
	if err := b.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if last.Width != 32 || last.Height != 16 {
		t.Errorf("presented %dx%d after resize, want 32x16", last.Width, last.Height)
	}
}

func TestBackendTexture(t *testing.T) {
	d := newNoopDevice(t)
	b := newTestBackend(t, d)
	px := make([]byte, 4*4*4)
	tex, err := b.CreateTexture("checker", 4, 4, [][]byte{px, px[:2*2*4], px[:4]})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	tex.Sampler = gpu.SamplerDesc{MinFilter: gpu.FilterLinear, MagFilter: gpu.FilterLinear, Mipmaps: true}
	b.SetTexture(tex)
	quad := make([]gpu.Vertex, 4)
	if err := b.DrawVertices(gpu.TopologyTriangleStrip, quad); err != nil {
		t.Fatalf("DrawVertices: %v", err)
	}
	if err := b.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	b.ReleaseTexture(tex)
}

func TestPresenterError(t *testing.T) {
	d := newNoopDevice(t)
	errLost := errors.New("surface lost")
	d.SetPresenter(func(Frame) error { return errLost })
	b := newTestBackend(t, d)
	if err := b.EndFrame(); !errors.Is(err, errLost) {
		t.Errorf("EndFrame: got %v, want surface lost", err)
	}
	d.SetPresenter(nil)
}

func TestListRecordingErrors(t *testing.T) {
	d := newNoopDevice(t)
	alloc, err := d.CreateCommandAllocator()
	if err != nil {
		t.Fatalf("CreateCommandAllocator: %v", err)
	}
	defer alloc.Release()
	l, err := d.CreateCommandList(alloc)
	if err != nil {
		t.Fatalf("CreateCommandList: %v", err)
	}

	l.SetRenderTargets(gpu.DescriptorHandle{CPU: 0xdead << 32}, nil)
	l.DrawInstanced(3, 1, 0, 0)
	if err := l.Close(); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Close: got %v, want ErrUnknownHandle", err)
	}
	if err := l.Close(); !errors.Is(err, ErrListClosed) {
		t.Errorf("second Close: got %v, want ErrListClosed", err)
	}

	if err := l.Reset(alloc); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close of an empty list: %v", err)
	}
}

func TestTextureUsage(t *testing.T) {
	tests := []struct {
		state gpu.ResourceState
		want  bool
	}{
		{gpu.StateRenderTarget, true},
		{gpu.StatePixelShaderResource, true},
		{gpu.StateCopyDest, true},
		{gpu.StatePresent, true},
		{gpu.StateCommon, false},
		{gpu.StateGenericRead, false},
	}
	for _, tt := range tests {
		if got := textureUsage(tt.state) != 0; got != tt.want {
			t.Errorf("textureUsage(%v) mapped = %v, want %v", tt.state, got, tt.want)
		}
	}
}
