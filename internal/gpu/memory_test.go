package gpu_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/glimm/internal/gpu"
	"github.com/gogpu/glimm/internal/gputest"
)

func TestMemoryBudget(t *testing.T) {
	m := gpu.NewMemoryBudget(1)
	if got := m.Stats().TotalBytes; got != gpu.MinTextureBudgetMB<<20 {
		t.Fatalf("budget %d bytes, want the %d MB minimum", got, gpu.MinTextureBudgetMB)
	}

	if err := m.Reserve(10 << 20); err != nil {
		t.Fatalf("Reserve(10 MB): %v", err)
	}
	if err := m.Reserve(7 << 20); !errors.Is(err, gpu.ErrMemoryBudgetExceeded) {
		t.Fatalf("Reserve(7 MB) over budget: error = %v, want %v", err, gpu.ErrMemoryBudgetExceeded)
	}
	if err := m.Reserve(6 << 20); err != nil {
		t.Fatalf("Reserve(6 MB): %v", err)
	}

	s := m.Stats()
	if s.UsedBytes != 16<<20 || s.AvailableBytes != 0 || s.TextureCount != 2 || s.Rejected != 1 {
		t.Errorf("stats %+v, want 16 MB used by 2 textures with 1 rejected", s)
	}
	if s.Utilization != 1 {
		t.Errorf("utilization %v, want 1", s.Utilization)
	}
	if !strings.Contains(s.String(), "100.0% used") {
		t.Errorf("String() = %q", s.String())
	}

	m.Free(10 << 20)
	m.Free(6 << 20)
	m.Free(1)
	if s := m.Stats(); s.UsedBytes != 0 || s.TextureCount != 0 {
		t.Errorf("after freeing everything: %+v", s)
	}
}

func TestTextureBudgetEnforced(t *testing.T) {
	dev := gputest.NewDevice()
	cfg := testConfig()
	cfg.TextureBudgetMB = gpu.MinTextureBudgetMB
	b := newBackend(t, dev, cfg)

	before := b.Stats().Memory
	if before.TextureCount != 1 || before.UsedBytes != 4 {
		t.Fatalf("after Init: %+v, want the 1x1 default texture", before)
	}

	const side = 1024
	level := make([]byte, side*side*4)
	tex, err := b.CreateTexture("big", side, side, [][]byte{level})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	for i := range 2 {
		if _, err := b.CreateTexture("filler", side, side, [][]byte{level}); err != nil {
			t.Fatalf("filler %d: %v", i, err)
		}
	}
	if _, err := b.CreateTexture("over", side, side, [][]byte{level}); !errors.Is(err, gpu.ErrMemoryBudgetExceeded) {
		t.Fatalf("texture over budget: error = %v, want %v", err, gpu.ErrMemoryBudgetExceeded)
	}

	b.ReleaseTexture(tex)
	for range 3 {
		if err := b.EndFrame(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := b.CreateTexture("after-release", side, side, [][]byte{level}); err != nil {
		t.Errorf("CreateTexture after a release retired: %v", err)
	}
}
