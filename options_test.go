package glimm

import (
	"errors"
	"testing"

	"github.com/gogpu/glimm/internal/gpu"
	"github.com/gogpu/glimm/internal/gputest"
)

func TestOptions(t *testing.T) {
	o := defaultOptions()
	for _, opt := range []Option{
		WithSize(1280, 720),
		WithVSync(false),
		WithHeapSizes(512, 64, 8, 2),
		WithUploadRingSize(4 << 20),
		WithBarrierBatch(32),
		WithUploadGuard(false),
		WithNullFallback(true),
	} {
		opt(&o)
	}

	cfg := o.cfg
	if cfg.Width != 1280 || cfg.Height != 720 || cfg.VSync {
		t.Errorf("size %dx%d vsync %v, want 1280x720 without vsync", cfg.Width, cfg.Height, cfg.VSync)
	}
	want := gpu.HeapSizes{CBVSRVUAV: 512, Sampler: 64, RTV: 8, DSV: 2, Staging: gpu.DefaultConfig().Heaps.Staging}
	if cfg.Heaps != want {
		t.Errorf("heaps %+v, want %+v", cfg.Heaps, want)
	}
	if cfg.UploadRingSize != 4<<20 || cfg.BarrierBatch != 32 || cfg.GuardUploads {
		t.Errorf("ring %d batch %d guard %v", cfg.UploadRingSize, cfg.BarrierBatch, cfg.GuardUploads)
	}
	if !o.null {
		t.Error("WithNullFallback(true) not applied")
	}

	WithSize(-5, 10)(&o)
	if o.cfg.Width != 0 {
		t.Errorf("negative width stored as %d, want 0", o.cfg.Width)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(WithDevice(gputest.NewDevice()), WithSize(0, 0), noPrecompile)
	if !errors.Is(err, gpu.ErrInvalidConfig) {
		t.Fatalf("New with a zero size: error = %v, want %v", err, gpu.ErrInvalidConfig)
	}
}
