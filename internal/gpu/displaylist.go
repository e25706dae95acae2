package gpu

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// CommandType identifies a display list command.
type CommandType uint8

// Display list commands.
const (
	CmdDraw CommandType = iota
	CmdLoadMatrix
	CmdMultiplyMatrix
	CmdPushMatrix
	CmdPopMatrix
)

var commandTypeNames = [...]string{
	CmdDraw:           "Draw",
	CmdLoadMatrix:     "LoadMatrix",
	CmdMultiplyMatrix: "MultiplyMatrix",
	CmdPushMatrix:     "PushMatrix",
	CmdPopMatrix:      "PopMatrix",
}

func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is one recorded display list operation. The set of commands is
// closed; DisplayList.Draw switches over the concrete types below.
type Command interface {
	Type() CommandType
}

// DrawCommand draws Count vertices of the list's buffer from Start. For
// triangle topologies EdgeStart and EdgeCount locate the same triangles as
// a line list in the list's edge buffer.
type DrawCommand struct {
	Topology  Topology
	Start     uint32
	Count     uint32
	EdgeStart uint32
	EdgeCount uint32
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// LoadMatrixCommand replaces the top of a matrix stack.
type LoadMatrixCommand struct {
	Mode   MatrixMode
	Matrix mgl32.Mat4
}

// Type implements Command.
func (LoadMatrixCommand) Type() CommandType { return CmdLoadMatrix }

// MultiplyMatrixCommand post-multiplies the top of a matrix stack.
type MultiplyMatrixCommand struct {
	Mode   MatrixMode
	Matrix mgl32.Mat4
}

// Type implements Command.
func (MultiplyMatrixCommand) Type() CommandType { return CmdMultiplyMatrix }

// PushMatrixCommand duplicates the top of a matrix stack.
type PushMatrixCommand struct {
	Mode MatrixMode
}

// Type implements Command.
func (PushMatrixCommand) Type() CommandType { return CmdPushMatrix }

// PopMatrixCommand discards the top of a matrix stack.
type PopMatrixCommand struct {
	Mode MatrixMode
}

// Type implements Command.
func (PopMatrixCommand) Type() CommandType { return CmdPopMatrix }

// Executor is what a display list replays against.
type Executor interface {
	CommandList() CommandList
	Matrices() *MatrixStacks

	// BindVertexBuffer binds v for the draws that follow.
	BindVertexBuffer(v VertexBufferView)

	// PrepareDraw binds the pipeline and root state for a draw of t.
	PrepareDraw(t Topology) error

	// Wireframe reports whether triangles are drawn as their edges.
	Wireframe() bool
}

// Recorder accumulates commands and their vertices until Compile.
type Recorder struct {
	commands []Command
	vertices []Vertex
	edges    []Vertex
	compiled bool
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// RecordDraw appends the first count vertices of vs and a draw of them.
func (r *Recorder) RecordDraw(t Topology, vs []Vertex, count int) error {
	if r.compiled {
		return ErrRecorderCompiled
	}
	if count <= 0 {
		return nil
	}
	if count > len(vs) {
		return fmt.Errorf("gpu: record draw of %d vertices from %d", count, len(vs))
	}
	cmd := DrawCommand{Topology: t, Start: uint32(len(r.vertices)), Count: uint32(count)}
	r.vertices = append(r.vertices, vs[:count]...)
	if t.Class() == ClassTriangle {
		cmd.EdgeStart = uint32(len(r.edges))
		r.edges = TriangleEdges(r.edges, t, vs[:count])
		cmd.EdgeCount = uint32(len(r.edges)) - cmd.EdgeStart
	}
	r.commands = append(r.commands, cmd)
	return nil
}

// RecordLoadMatrix records a load of m into mode.
func (r *Recorder) RecordLoadMatrix(mode MatrixMode, m mgl32.Mat4) error {
	return r.record(LoadMatrixCommand{Mode: mode, Matrix: m})
}

// RecordMultiplyMatrix records a post-multiply of mode by m.
func (r *Recorder) RecordMultiplyMatrix(mode MatrixMode, m mgl32.Mat4) error {
	return r.record(MultiplyMatrixCommand{Mode: mode, Matrix: m})
}

// RecordPushMatrix records a push of mode.
func (r *Recorder) RecordPushMatrix(mode MatrixMode) error {
	return r.record(PushMatrixCommand{Mode: mode})
}

// RecordPopMatrix records a pop of mode.
func (r *Recorder) RecordPopMatrix(mode MatrixMode) error {
	return r.record(PopMatrixCommand{Mode: mode})
}

func (r *Recorder) record(c Command) error {
	if r.compiled {
		return ErrRecorderCompiled
	}
	r.commands = append(r.commands, c)
	return nil
}

// Len returns the number of recorded commands.
func (r *Recorder) Len() int { return len(r.commands) }

// VertexCount returns the number of recorded vertices.
func (r *Recorder) VertexCount() int { return len(r.vertices) }

// Compile uploads every recorded vertex into one GPU buffer and returns the
// immutable list. The recorder cannot be used afterwards.
func (r *Recorder) Compile(b *Backend) (*DisplayList, error) {
	if r.compiled {
		return nil, ErrRecorderCompiled
	}
	r.compiled = true
	dl := &DisplayList{commands: r.commands}
	r.commands = nil
	if len(r.vertices) > 0 {
		buf, err := b.UploadBuffer("display-list", VertexBytes(r.vertices))
		if err != nil {
			return nil, fmt.Errorf("gpu: compile display list: %w", err)
		}
		dl.buffer = buf
		dl.vertices = uint32(len(r.vertices))
	}
	if len(r.edges) > 0 {
		buf, err := b.UploadBuffer("display-list-edges", VertexBytes(r.edges))
		if err != nil {
			dl.Release(b)
			return nil, fmt.Errorf("gpu: compile display list edges: %w", err)
		}
		dl.edges = buf
	}
	r.vertices, r.edges = nil, nil
	slogger().Debug("gpu: compiled display list", "commands", len(dl.commands), "vertices", dl.vertices)
	return dl, nil
}

// DisplayList is a compiled, replayable command sequence.
type DisplayList struct {
	commands []Command
	buffer   *Buffer
	edges    *Buffer
	vertices uint32
}

// Commands returns the recorded commands. Callers must not modify them.
func (d *DisplayList) Commands() []Command { return d.commands }

// VertexCount returns the number of vertices in the list's buffer.
func (d *DisplayList) VertexCount() uint32 { return d.vertices }

// Buffer returns the vertex buffer, or nil for a list without draws.
func (d *DisplayList) Buffer() *Buffer { return d.buffer }

// EdgeBuffer returns the line-list buffer used for wireframe replays, or
// nil for a list without triangles.
func (d *DisplayList) EdgeBuffer() *Buffer { return d.edges }

// Draw binds the vertex buffer once and replays every command in order.
// Pipeline and descriptor state come from x; the list does no state
// tracking of its own. When x is in wireframe mode triangle draws read
// the edge buffer instead.
func (d *DisplayList) Draw(x Executor) error {
	list := x.CommandList()
	for _, buf := range []*Buffer{d.buffer, d.edges} {
		if buf != nil && buf.Native() == nil {
			return ErrResourceDestroyed
		}
	}
	var bound *Buffer
	bind := func(buf *Buffer) {
		if buf != bound {
			x.BindVertexBuffer(buf.VertexView(VertexStride))
			bound = buf
		}
	}
	if d.buffer != nil {
		bind(d.buffer)
	}
	wireframe := x.Wireframe()
	ms := x.Matrices()
	for _, cmd := range d.commands {
		switch c := cmd.(type) {
		case DrawCommand:
			if wireframe && c.Topology.Class() == ClassTriangle {
				if c.EdgeCount == 0 {
					continue
				}
				bind(d.edges)
				if err := x.PrepareDraw(TopologyLineList); err != nil {
					return err
				}
				list.DrawInstanced(c.EdgeCount, 1, c.EdgeStart, 0)
				continue
			}
			bind(d.buffer)
			if err := x.PrepareDraw(c.Topology); err != nil {
				return err
			}
			list.DrawInstanced(c.Count, 1, c.Start, 0)
		case LoadMatrixCommand:
			ms.Load(c.Mode, c.Matrix)
		case MultiplyMatrixCommand:
			ms.Multiply(c.Mode, c.Matrix)
		case PushMatrixCommand:
			if err := ms.Push(c.Mode); err != nil {
				return err
			}
		case PopMatrixCommand:
			if err := ms.Pop(c.Mode); err != nil {
				return err
			}
		default:
			return fmt.Errorf("gpu: unknown display list command %s", cmd.Type())
		}
	}
	return nil
}

// Release schedules the vertex buffer for destruction after the frames that
// may read it retire.
func (d *DisplayList) Release(b *Backend) {
	if d.buffer != nil {
		b.ReleaseBuffer(d.buffer)
		d.buffer = nil
	}
	if d.edges != nil {
		b.ReleaseBuffer(d.edges)
		d.edges = nil
	}
	d.commands = nil
}
