package gpu

// The target API has no polygon fill mode. Triangles drawn under a
// FillWireframe key are drawn as a line list of their edges instead.

// TriangleEdges appends to dst the edges of the triangles that vs forms
// under topology t, as a line list of six vertices per triangle.
// Incomplete triangles and non-triangle topologies add nothing.
func TriangleEdges(dst []Vertex, t Topology, vs []Vertex) []Vertex {
	for i := range triangleCount(t, len(vs)) {
		a, b, c := 3*i, 3*i+1, 3*i+2
		if t == TopologyTriangleStrip {
			a, b, c = i, i+1, i+2
		}
		dst = append(dst, vs[a], vs[b], vs[b], vs[c], vs[c], vs[a])
	}
	return dst
}

func triangleCount(t Topology, n int) int {
	switch t {
	case TopologyTriangleList:
		return n / 3
	case TopologyTriangleStrip:
		return max(n-2, 0)
	}
	return 0
}
