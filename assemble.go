package glimm

import "github.com/gogpu/glimm/internal/gpu"

// assemble converts the vertices of one Begin/End pair into a primitive
// list the device can draw. Quads, quad strips, fans and polygons become
// triangle lists and a line loop becomes a closed strip. Trailing vertices
// that do not complete a primitive are dropped. The result may alias in or
// scratch.
func assemble(mode Enum, in, scratch []gpu.Vertex) (gpu.Topology, []gpu.Vertex) {
	out := scratch[:0]
	switch mode {
	case Points:
		return gpu.TopologyPointList, in
	case Lines:
		return gpu.TopologyLineList, in[:len(in)&^1]
	case LineStrip:
		if len(in) < 2 {
			return gpu.TopologyLineStrip, nil
		}
		return gpu.TopologyLineStrip, in
	case LineLoop:
		if len(in) < 2 {
			return gpu.TopologyLineStrip, nil
		}
		out = append(out, in...)
		out = append(out, in[0])
		return gpu.TopologyLineStrip, out
	case Triangles:
		return gpu.TopologyTriangleList, in[:len(in)-len(in)%3]
	case TriangleStrip:
		if len(in) < 3 {
			return gpu.TopologyTriangleStrip, nil
		}
		return gpu.TopologyTriangleStrip, in
	case TriangleFan, Polygon:
		for i := 1; i+1 < len(in); i++ {
			out = append(out, in[0], in[i], in[i+1])
		}
	case Quads:
		for i := 0; i+3 < len(in); i += 4 {
			out = append(out, in[i], in[i+1], in[i+2], in[i], in[i+2], in[i+3])
		}
	case QuadStrip:
		for i := 0; i+3 < len(in); i += 2 {
			out = append(out, in[i], in[i+1], in[i+3], in[i], in[i+3], in[i+2])
		}
	}
	return gpu.TopologyTriangleList, out
}

func validMode(mode Enum) bool { return mode <= Polygon }

// converts reports whether assemble builds a new vertex slice for mode
// rather than returning a prefix of its input.
func converts(mode Enum) bool { return mode == LineLoop || mode >= TriangleFan }

func isTriangleMode(mode Enum) bool { return mode >= Triangles }
