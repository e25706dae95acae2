package gpu

import "fmt"

// FrameCount is the number of frames in flight, one per swap-chain buffer.
const FrameCount = 2

// Config is validated once at startup; sizes never change afterwards.
type Config struct {
	Width  uint32
	Height uint32
	VSync  bool

	// Frames is the swap-chain depth. Zero selects FrameCount.
	Frames uint32

	Heaps          HeapSizes
	UploadRingSize uint64
	BarrierBatch   int

	// GuardUploads makes the upload ring wait on the frame fence instead of
	// trusting frame pacing.
	GuardUploads bool

	ClearColor [4]float32
	ClearDepth float32

	// Shaders overrides the built-in fixed-function program.
	Shaders *ShaderBytecode

	// PrecompileShaders turns WGSL shaders into SPIR-V before pipeline
	// creation.
	PrecompileShaders bool

	BackBufferFormat TextureFormat

	// TextureBudgetMB bounds the memory of live textures.
	TextureBudgetMB int
}

// DefaultConfig returns a 640×480 configuration with generous heaps.
func DefaultConfig() Config {
	return Config{
		Width:             640,
		Height:            480,
		VSync:             true,
		Frames:            FrameCount,
		Heaps:             DefaultHeapSizes(),
		UploadRingSize:    8 << 20,
		BarrierBatch:      DefaultBarrierBatch,
		GuardUploads:      true,
		ClearColor:        [4]float32{0, 0, 0, 1},
		ClearDepth:        1,
		PrecompileShaders: true,
		BackBufferFormat:  FormatBGRA8,
		TextureBudgetMB:   DefaultTextureBudgetMB,
	}
}

// minRingSize leaves room for one frame constants block and a texture row.
const minRingSize = 64 << 10

// Validate fills the optional zero fields and checks every size against
// conservative bounds.
func (c *Config) Validate() error {
	if c.Frames == 0 {
		c.Frames = FrameCount
	}
	if c.BarrierBatch == 0 {
		c.BarrierBatch = DefaultBarrierBatch
	}
	if c.TextureBudgetMB == 0 {
		c.TextureBudgetMB = DefaultTextureBudgetMB
	}
	if c.BackBufferFormat == FormatUnknown {
		c.BackBufferFormat = FormatBGRA8
	}
	switch {
	case c.Width == 0 || c.Height == 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.Frames < 2 || c.Frames > 3:
		return fmt.Errorf("%w: %d frames in flight, want 2 or 3", ErrInvalidConfig, c.Frames)
	case c.Heaps.CBVSRVUAV < 2:
		return fmt.Errorf("%w: cbv/srv/uav heap of %d", ErrInvalidConfig, c.Heaps.CBVSRVUAV)
	case c.Heaps.Sampler < uint32(len(AllSamplerDescs())):
		return fmt.Errorf("%w: sampler heap of %d, need %d", ErrInvalidConfig, c.Heaps.Sampler, len(AllSamplerDescs()))
	case c.Heaps.RTV < c.Frames:
		return fmt.Errorf("%w: rtv heap of %d for %d back buffers", ErrInvalidConfig, c.Heaps.RTV, c.Frames)
	case c.Heaps.DSV < 1:
		return fmt.Errorf("%w: empty dsv heap", ErrInvalidConfig)
	case c.UploadRingSize < minRingSize:
		return fmt.Errorf("%w: upload ring of %d bytes, need %d", ErrInvalidConfig, c.UploadRingSize, minRingSize)
	case c.BarrierBatch < 1 || c.BarrierBatch > 256:
		return fmt.Errorf("%w: barrier batch of %d", ErrInvalidConfig, c.BarrierBatch)
	case c.TextureBudgetMB < MinTextureBudgetMB:
		return fmt.Errorf("%w: texture budget of %d MB, need %d", ErrInvalidConfig, c.TextureBudgetMB, MinTextureBudgetMB)
	case c.BackBufferFormat != FormatBGRA8 && c.BackBufferFormat != FormatRGBA8:
		return fmt.Errorf("%w: back buffer format %d", ErrInvalidConfig, c.BackBufferFormat)
	}
	return nil
}
