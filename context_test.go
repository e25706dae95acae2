package glimm

import (
	"errors"
	"testing"

	"github.com/gogpu/glimm/internal/gpu"
	"github.com/gogpu/glimm/internal/gputest"
)

// noPrecompile keeps tests from translating the built-in shaders.
func noPrecompile(o *options) {
	o.cfg.PrecompileShaders = false
}

func newTestContext(t *testing.T, opts ...Option) (*Context, *gputest.Device) {
	t.Helper()
	dev := gputest.NewDevice()
	opts = append([]Option{WithDevice(dev), WithUploadRingSize(1 << 20), noPrecompile}, opts...)
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, dev
}

func recorded(c *Context) *gputest.CommandList {
	return c.backend.CommandList().(*gputest.CommandList)
}

func triangle(c *Context) {
	c.Begin(Triangles)
	c.Vertex2f(0, 1)
	c.Vertex2f(-1, -1)
	c.Vertex2f(1, -1)
	c.End()
}

func TestNew(t *testing.T) {
	c, dev := newTestContext(t, WithSize(320, 200))

	if w, h := c.Size(); w != 320 || h != 200 {
		t.Errorf("Size() = %dx%d, want 320x200", w, h)
	}
	if dev.SwapChain == nil {
		t.Fatal("no swap chain created")
	}
	if got := c.GetError(); got != NoError {
		t.Errorf("GetError() = %v after New, want %v", got, NoError)
	}
	if c.Adapter() != "" {
		t.Errorf("Adapter() = %q for a supplied device, want empty", c.Adapter())
	}
	if got := c.backend.RenderState(); got != gpu.DefaultPSOKey() {
		t.Errorf("initial render state %+v, want default", got)
	}
}

func TestNewInitFailure(t *testing.T) {
	dev := gputest.NewDevice()
	dev.Fail["CreateSwapChain"] = true

	_, err := New(WithDevice(dev), noPrecompile)
	if !errors.Is(err, gputest.ErrInjected) {
		t.Fatalf("New() error = %v, want %v", err, gputest.ErrInjected)
	}
}

func TestGetErrorSticky(t *testing.T) {
	c, _ := newTestContext(t)

	c.Vertex3f(0, 0, 0)
	c.Begin(Enum(0x99))
	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("first GetError() = %v, want %v", got, InvalidOperation)
	}
	if got := c.GetError(); got != NoError {
		t.Errorf("second GetError() = %v, want %v", got, NoError)
	}

	c.Begin(Enum(0x99))
	if got := c.GetError(); got != InvalidEnum {
		t.Errorf("GetError() = %v, want %v", got, InvalidEnum)
	}
}

func TestCallsInsideBegin(t *testing.T) {
	c, _ := newTestContext(t)

	c.Begin(Points)
	c.Enable(DepthTest)
	c.PushMatrix()
	c.Vertex2f(0, 0)
	c.End()

	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("GetError() = %v, want %v", got, InvalidOperation)
	}
	if c.IsEnabled(DepthTest) {
		t.Error("Enable inside Begin took effect")
	}
	if got := len(recorded(c).Draws); got != 1 {
		t.Errorf("recorded %d draws, want 1", got)
	}
}

func TestSwapBuffers(t *testing.T) {
	c, dev := newTestContext(t)

	for i := range 3 {
		c.Clear(ColorBufferBit | DepthBufferBit)
		triangle(c)
		if err := c.SwapBuffers(); err != nil {
			t.Fatalf("SwapBuffers %d: %v", i, err)
		}
	}

	if got := dev.SwapChain.Presents; got != 3 {
		t.Errorf("presented %d frames, want 3", got)
	}
	s := c.Stats()
	if s.Frames != 3 || s.Draws != 3 {
		t.Errorf("stats frames %d draws %d, want 3 and 3", s.Frames, s.Draws)
	}
}

func TestResize(t *testing.T) {
	c, dev := newTestContext(t)

	if err := c.Resize(800, 600); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := c.Size(); w != 800 || h != 600 {
		t.Errorf("Size() = %dx%d, want 800x600", w, h)
	}
	if dev.SwapChain.Resizes != 1 {
		t.Errorf("swap chain resized %d times, want 1", dev.SwapChain.Resizes)
	}

	if err := c.Resize(0, 10); err != nil {
		t.Fatalf("Resize(0, 10): %v", err)
	}
	if got := c.GetError(); got != InvalidValue {
		t.Errorf("GetError() = %v, want %v", got, InvalidValue)
	}
}

func TestClose(t *testing.T) {
	c, dev := newTestContext(t)
	ids := c.GenTextures(1)
	c.BindTexture(Texture2D, ids[0])
	c.TexImage2D(Texture2D, 0, 1, 1, []byte{1, 2, 3, 4})

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := c.SwapBuffers(); !errors.Is(err, ErrClosed) {
		t.Errorf("SwapBuffers after Close = %v, want %v", err, ErrClosed)
	}
	if !dev.Queue.Released {
		t.Error("queue not released")
	}
	c.Begin(Points)
	if got := c.GetError(); got != InvalidOperation {
		t.Errorf("GetError() after Close = %v, want %v", got, InvalidOperation)
	}
}

func TestErrorCodeString(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{NoError, "no error"},
		{InvalidEnum, "invalid enum"},
		{StackUnderflow, "stack underflow"},
		{OutOfMemory, "out of memory"},
		{ErrorCode(0x9999), "ErrorCode(0x9999)"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("%#x.String() = %q, want %q", uint32(tt.code), got, tt.want)
		}
	}
}
