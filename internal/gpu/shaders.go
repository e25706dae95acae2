package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed shaders/fixedfunc.wgsl
var fixedFunctionWGSL string

// DefaultShaders returns the fixed-function program as WGSL source.
func DefaultShaders() ShaderBytecode {
	return ShaderBytecode{
		Format:      ShaderWGSL,
		Vertex:      []byte(fixedFunctionWGSL),
		Pixel:       []byte(fixedFunctionWGSL),
		VertexEntry: "vs_main",
		PixelEntry:  "fs_main",
	}
}

// CompileShaders turns WGSL bytecode into SPIR-V. SPIR-V input is returned
// unchanged. When both stages share one source it is compiled once.
func CompileShaders(src ShaderBytecode) (ShaderBytecode, error) {
	if src.Format != ShaderWGSL {
		return src, nil
	}
	vs, err := naga.Compile(string(src.Vertex))
	if err != nil {
		return ShaderBytecode{}, fmt.Errorf("gpu: compile vertex shader: %w", err)
	}
	ps := vs
	if string(src.Pixel) != string(src.Vertex) {
		ps, err = naga.Compile(string(src.Pixel))
		if err != nil {
			return ShaderBytecode{}, fmt.Errorf("gpu: compile pixel shader: %w", err)
		}
	}
	out := src
	out.Format = ShaderSPIRV
	out.Vertex = vs
	out.Pixel = ps
	return out, nil
}
