package glimm

import (
	"log/slog"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/glimm/internal/gpu"
)

// Option configures a Context during creation.
//
// Example:
//
//	ctx, err := glimm.New(
//	    glimm.WithSize(1280, 720),
//	    glimm.WithVSync(false),
//	)
type Option func(*options)

type options struct {
	cfg       gpu.Config
	provider  gpucontext.DeviceProvider
	device    Device
	logger    *slog.Logger
	presenter Presenter
	null      bool
}

func defaultOptions() options {
	return options{cfg: gpu.DefaultConfig()}
}

// WithSize sets the back buffer size. The default is 640×480.
func WithSize(width, height int) Option {
	return func(o *options) {
		o.cfg.Width = uint32(max(width, 0))
		o.cfg.Height = uint32(max(height, 0))
	}
}

// WithVSync selects whether SwapBuffers waits for vertical sync.
func WithVSync(on bool) Option {
	return func(o *options) {
		o.cfg.VSync = on
	}
}

// WithHeapSizes sets the descriptor capacity of each heap. The heaps never
// grow, so this bounds the number of live textures.
func WithHeapSizes(cbvSRV, samplers, rtv, dsv uint32) Option {
	return func(o *options) {
		o.cfg.Heaps.CBVSRVUAV = cbvSRV
		o.cfg.Heaps.Sampler = samplers
		o.cfg.Heaps.RTV = rtv
		o.cfg.Heaps.DSV = dsv
	}
}

// WithUploadRingSize sets the size in bytes of the ring that stages
// vertices, constants and texture data.
func WithUploadRingSize(n uint64) Option {
	return func(o *options) {
		o.cfg.UploadRingSize = n
	}
}

// WithTextureBudget bounds the memory of live textures in megabytes.
// Textures beyond it are refused with OutOfMemory.
func WithTextureBudget(megabytes int) Option {
	return func(o *options) {
		o.cfg.TextureBudgetMB = megabytes
	}
}

// WithBarrierBatch sets how many resource barriers are queued before a
// flush is forced.
func WithBarrierBatch(n int) Option {
	return func(o *options) {
		o.cfg.BarrierBatch = n
	}
}

// WithUploadGuard enables or disables fence-guarded reuse of the upload
// ring. It is on by default.
func WithUploadGuard(on bool) Option {
	return func(o *options) {
		o.cfg.GuardUploads = on
	}
}

// WithDeviceProvider renders with the GPU device of a host application,
// for example a gogpu window. The provider must expose its hal device.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithDevice renders through an explicit device implementation instead of
// opening one.
func WithDevice(d Device) Option {
	return func(o *options) {
		o.device = d
	}
}

// WithLogger sets the package logger, as SetLogger does, when the context
// is created.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithPresenter installs the callback that receives every frame passed to
// SwapBuffers.
func WithPresenter(p Presenter) Option {
	return func(o *options) {
		o.presenter = p
	}
}

// WithNullFallback lets New fall back to a device that draws nothing when
// no GPU can be opened.
func WithNullFallback(on bool) Option {
	return func(o *options) {
		o.null = on
	}
}

// WithShaders replaces the built-in fixed-function shaders.
func WithShaders(sb ShaderBytecode) Option {
	return func(o *options) {
		o.cfg.Shaders = &sb
	}
}
