package gpu

import "github.com/go-gl/mathgl/mgl32"

// MatrixMode names one of the legacy matrix stacks.
type MatrixMode uint8

// Matrix stacks.
const (
	MatrixModelView MatrixMode = iota
	MatrixProjection
	MatrixTexture

	matrixModeCount
)

// Stack depths of the legacy API.
var matrixDepth = [matrixModeCount]int{
	MatrixModelView:  32,
	MatrixProjection: 4,
	MatrixTexture:    4,
}

// MatrixStack is a bounded stack whose top is the current matrix.
type MatrixStack struct {
	stack []mgl32.Mat4
	limit int
}

// NewMatrixStack returns a stack holding identity with room for depth
// entries.
func NewMatrixStack(depth int) *MatrixStack {
	s := &MatrixStack{stack: make([]mgl32.Mat4, 1, depth), limit: depth}
	s.stack[0] = mgl32.Ident4()
	return s
}

// Top returns the current matrix.
func (s *MatrixStack) Top() mgl32.Mat4 { return s.stack[len(s.stack)-1] }

// Depth returns the number of entries, at least 1.
func (s *MatrixStack) Depth() int { return len(s.stack) }

// Load replaces the current matrix.
func (s *MatrixStack) Load(m mgl32.Mat4) { s.stack[len(s.stack)-1] = m }

// Multiply post-multiplies the current matrix by m.
func (s *MatrixStack) Multiply(m mgl32.Mat4) {
	i := len(s.stack) - 1
	s.stack[i] = s.stack[i].Mul4(m)
}

// Push duplicates the current matrix.
func (s *MatrixStack) Push() error {
	if len(s.stack) == s.limit {
		return ErrMatrixStackOverflow
	}
	s.stack = append(s.stack, s.Top())
	return nil
}

// Pop discards the current matrix.
func (s *MatrixStack) Pop() error {
	if len(s.stack) == 1 {
		return ErrMatrixStackUnderflow
	}
	s.stack = s.stack[:len(s.stack)-1]
	return nil
}

// MatrixStacks holds the model-view, projection and texture stacks and
// remembers whether any top changed since the last Clean.
type MatrixStacks struct {
	stacks [matrixModeCount]*MatrixStack
	dirty  bool
}

// NewMatrixStacks returns three identity stacks with legacy depths.
func NewMatrixStacks() *MatrixStacks {
	ms := &MatrixStacks{dirty: true}
	for i := range ms.stacks {
		ms.stacks[i] = NewMatrixStack(matrixDepth[i])
	}
	return ms
}

// Stack returns the stack for mode.
func (ms *MatrixStacks) Stack(mode MatrixMode) *MatrixStack { return ms.stacks[mode] }

// Load replaces the top of mode.
func (ms *MatrixStacks) Load(mode MatrixMode, m mgl32.Mat4) {
	ms.stacks[mode].Load(m)
	ms.dirty = true
}

// Multiply post-multiplies the top of mode.
func (ms *MatrixStacks) Multiply(mode MatrixMode, m mgl32.Mat4) {
	ms.stacks[mode].Multiply(m)
	ms.dirty = true
}

// Push duplicates the top of mode.
func (ms *MatrixStacks) Push(mode MatrixMode) error { return ms.stacks[mode].Push() }

// Pop discards the top of mode.
func (ms *MatrixStacks) Pop(mode MatrixMode) error {
	if err := ms.stacks[mode].Pop(); err != nil {
		return err
	}
	ms.dirty = true
	return nil
}

// Dirty reports whether a top changed since Clean.
func (ms *MatrixStacks) Dirty() bool { return ms.dirty }

// Clean copies the tops into fc and clears the dirty flag.
func (ms *MatrixStacks) Clean(fc *FrameConstants) {
	fc.World = ms.stacks[MatrixModelView].Top()
	fc.Projection = ms.stacks[MatrixProjection].Top()
	fc.Texture = ms.stacks[MatrixTexture].Top()
	ms.dirty = false
}
