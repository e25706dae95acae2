package glimm

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/glimm/internal/gpu"
	"github.com/gogpu/glimm/internal/halgpu"
)

// Context is one legacy rendering context bound to one presentation
// surface. Calls record into the frame being built; SwapBuffers submits it.
//
// Like the API it emulates, a Context is bound to the goroutine that uses
// it and is not safe for concurrent use.
type Context struct {
	backend *gpu.Backend
	hal     *halgpu.Device
	closed  bool

	err       ErrorCode
	deviceErr error

	inBegin bool
	mode    Enum
	verts   []gpu.Vertex
	scratch []gpu.Vertex
	current gpu.Vertex

	matrixMode gpu.MatrixMode

	key       gpu.PSOKey
	cull      bool
	cullFace  Enum
	cullBoth  bool
	blend     bool
	alphaTest bool
	alphaFunc Enum
	texture2D bool

	textures    map[uint32]*textureObject
	nextTexture uint32
	bound       *textureObject

	lists     map[uint32]*gpu.DisplayList
	nextList  uint32
	listBase  uint32
	recording *listRecording
}

// New opens a device, creates every GPU object a frame needs and begins
// the first frame. Without WithDevice or WithDeviceProvider the best
// hardware adapter is opened.
func New(opts ...Option) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}
	if o.device != nil && o.provider != nil {
		return nil, ErrConflictingDevices
	}

	dev := o.device
	var hd *halgpu.Device
	if dev == nil {
		var err error
		hopts := halgpu.Options{AllowNullFallback: o.null, Presenter: o.presenter}
		if o.provider != nil {
			hd, err = halgpu.NewFromProvider(o.provider, hopts)
			if f := halgpu.SurfaceFormat(o.provider); f != gpu.FormatUnknown {
				o.cfg.BackBufferFormat = f
			}
		} else {
			hd, err = halgpu.Open(hopts)
		}
		if err != nil {
			return nil, fmt.Errorf("glimm: open device: %w", err)
		}
		dev = hd
	}

	b := gpu.NewBackend(dev, o.cfg)
	if err := b.Init(); err != nil {
		if hd != nil {
			hd.Close()
		}
		return nil, fmt.Errorf("glimm: %w", err)
	}
	c := &Context{
		backend:   b,
		hal:       hd,
		key:       gpu.DefaultPSOKey(),
		cullFace:  Back,
		alphaFunc: Always,
		textures:  make(map[uint32]*textureObject),
		lists:     make(map[uint32]*gpu.DisplayList),
		current: gpu.Vertex{
			Normal: [3]float32{0, 0, 1},
			Color:  gpu.PackColor(1, 1, 1, 1),
		},
	}
	b.SetRenderState(c.key)
	cfg := b.Config()
	Logger().Info("glimm: context ready", "width", cfg.Width, "height", cfg.Height, "vsync", cfg.VSync)
	return c, nil
}

// Close waits for the GPU, releases every texture and display list and
// destroys the device objects. The device itself is closed only if New
// opened it.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	for id, t := range c.textures {
		c.backend.ReleaseTexture(t.tex)
		delete(c.textures, id)
	}
	for id, dl := range c.lists {
		if dl != nil {
			dl.Release(c.backend)
		}
		delete(c.lists, id)
	}
	err := c.backend.Shutdown()
	if c.hal != nil {
		c.hal.Close()
	}
	return err
}

// setError records code unless an earlier error is still unread. The call
// that caused it is ignored by the caller.
func (c *Context) setError(code ErrorCode, op string) {
	Logger().Debug("glimm: legacy API error", "op", op, "error", code)
	if c.err == NoError {
		c.err = code
	}
}

// GetError returns the oldest unread error and clears it.
func (c *Context) GetError() ErrorCode {
	e := c.err
	c.err = NoError
	return e
}

// usable reports whether op may run now: outside Begin/End on an open
// context.
func (c *Context) usable(op string) bool {
	if c.closed {
		c.setError(InvalidOperation, op)
		return false
	}
	if c.inBegin {
		c.setError(InvalidOperation, op)
		return false
	}
	return true
}

// fail maps a backend error onto the legacy error model. Capacity errors
// become OutOfMemory; anything else is also kept for SwapBuffers to return.
func (c *Context) fail(op string, err error) {
	switch {
	case errors.Is(err, gpu.ErrUploadTooLarge),
		errors.Is(err, gpu.ErrUploadRingOverflow),
		errors.Is(err, gpu.ErrDescriptorHeapExhausted),
		errors.Is(err, gpu.ErrMemoryBudgetExceeded):
		c.setError(OutOfMemory, op)
	case errors.Is(err, gpu.ErrMatrixStackOverflow):
		c.setError(StackOverflow, op)
	case errors.Is(err, gpu.ErrMatrixStackUnderflow):
		c.setError(StackUnderflow, op)
	default:
		c.setError(InvalidOperation, op)
		if c.deviceErr == nil {
			c.deviceErr = fmt.Errorf("glimm: %s: %w", op, err)
		}
	}
}

// Flush sends queued resource barriers to the command list.
func (c *Context) Flush() {
	if !c.usable("Flush") {
		return
	}
	c.backend.Tracker().FlushResourceBarriers()
}

// SwapBuffers submits the frame, presents it and begins the next one. It
// returns the first device error since the previous SwapBuffers.
func (c *Context) SwapBuffers() error {
	if c.closed {
		return ErrClosed
	}
	if !c.usable("SwapBuffers") {
		return nil
	}
	err := c.backend.EndFrame()
	if c.deviceErr != nil {
		err = errors.Join(c.deviceErr, err)
		c.deviceErr = nil
	}
	return err
}

// Resize changes the back buffer size. The frame recorded so far is
// submitted first.
func (c *Context) Resize(width, height int) error {
	if c.closed {
		return ErrClosed
	}
	if width <= 0 || height <= 0 {
		c.setError(InvalidValue, "Resize")
		return nil
	}
	if !c.usable("Resize") {
		return nil
	}
	return c.backend.Resize(uint32(width), uint32(height))
}

// Size returns the back buffer size.
func (c *Context) Size() (width, height int) {
	cfg := c.backend.Config()
	return int(cfg.Width), int(cfg.Height)
}

// Stats returns frame, draw, barrier, pipeline and descriptor counters.
func (c *Context) Stats() Stats { return c.backend.Stats() }

// ReadFrame copies a presented frame to the CPU. Call it from the
// presenter installed with WithPresenter.
func (c *Context) ReadFrame(f Frame) (*image.RGBA, error) {
	if c.hal == nil {
		return nil, errors.New("glimm: ReadFrame needs a hal device")
	}
	return c.hal.ReadFrame(f)
}

// Adapter returns the name of the GPU adapter in use, or "" for devices
// supplied with WithDevice.
func (c *Context) Adapter() string {
	if c.hal == nil {
		return ""
	}
	return c.hal.Adapter()
}
