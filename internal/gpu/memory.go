package gpu

import (
	"errors"
	"fmt"
	"sync"
)

// Memory budget errors.
var (
	// ErrMemoryBudgetExceeded is returned when a texture would exceed the
	// texture memory budget.
	ErrMemoryBudgetExceeded = errors.New("gpu: texture memory budget exceeded")
)

// Texture memory limits.
const (
	// DefaultTextureBudgetMB is the default texture memory budget (256 MB).
	DefaultTextureBudgetMB = 256

	// MinTextureBudgetMB is the smallest accepted budget (16 MB).
	MinTextureBudgetMB = 16
)

// MemoryStats contains texture memory usage statistics.
type MemoryStats struct {
	// TotalBytes is the budget in bytes.
	TotalBytes uint64

	// UsedBytes is the size of every live texture, mips included.
	UsedBytes uint64

	// AvailableBytes is the remaining budget.
	AvailableBytes uint64

	// TextureCount is the number of live textures.
	TextureCount int

	// Rejected counts textures refused for lack of budget.
	Rejected uint64

	// Utilization is the fraction of the budget in use (0.0 to 1.0).
	Utilization float64
}

// String returns a human-readable string of memory stats.
func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d MB, %d textures, %d rejected]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.TotalBytes/(1024*1024),
		s.TextureCount,
		s.Rejected)
}

// MemoryBudget accounts texture memory against a fixed budget. Textures
// belong to the application, so nothing is ever evicted: a texture that
// does not fit is refused.
//
// MemoryBudget is safe for concurrent use; textures are released from
// deferred callbacks.
type MemoryBudget struct {
	mu       sync.Mutex
	total    uint64
	used     uint64
	count    int
	rejected uint64
}

// NewMemoryBudget returns a budget of megabytes, clamped to
// MinTextureBudgetMB.
func NewMemoryBudget(megabytes int) *MemoryBudget {
	megabytes = max(megabytes, MinTextureBudgetMB)
	return &MemoryBudget{total: uint64(megabytes) << 20}
}

// Reserve accounts a texture of size bytes.
func (m *MemoryBudget) Reserve(size uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.used+size > m.total {
		m.rejected++
		return fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrMemoryBudgetExceeded, size, m.used, m.total)
	}
	m.used += size
	m.count++
	return nil
}

// Free returns a texture of size bytes to the budget.
func (m *MemoryBudget) Free(size uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used -= min(size, m.used)
	if m.count > 0 {
		m.count--
	}
}

// Stats returns current usage.
func (m *MemoryBudget) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := MemoryStats{
		TotalBytes:     m.total,
		UsedBytes:      m.used,
		AvailableBytes: m.total - m.used,
		TextureCount:   m.count,
		Rejected:       m.rejected,
	}
	if m.total > 0 {
		s.Utilization = float64(m.used) / float64(m.total)
	}
	return s
}

// textureBytes is the size of an RGBA8 texture with levels mips.
func textureBytes(width, height, levels uint32) uint64 {
	var n uint64
	for i := range int(levels) {
		n += uint64(mipSize(width, i)) * uint64(mipSize(height, i)) * 4
	}
	return n
}
