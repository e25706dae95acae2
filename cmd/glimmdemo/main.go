// Command glimmdemo renders a spinning lit quad and a display-list
// triangle through the legacy API and prints the backend statistics.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/glimm"
)

func main() {
	var (
		width   = flag.Int("width", 640, "back buffer width")
		height  = flag.Int("height", 480, "back buffer height")
		frames  = flag.Int("frames", 120, "frames to render")
		output  = flag.String("output", "", "write the last frame to this PNG file")
		null    = flag.Bool("null", true, "fall back to a device that draws nothing when no GPU is found")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var ctx *glimm.Context
	last := uint64(*frames)
	present := func(f glimm.Frame) error {
		if *output == "" || f.Serial != last {
			return nil
		}
		img, err := ctx.ReadFrame(f)
		if err != nil {
			return err
		}
		out, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer out.Close()
		return png.Encode(out, img)
	}

	ctx, err := glimm.New(
		glimm.WithSize(*width, *height),
		glimm.WithLogger(logger),
		glimm.WithNullFallback(*null),
		glimm.WithPresenter(present),
	)
	if err != nil {
		log.Fatalf("glimmdemo: %v", err)
	}
	defer ctx.Close()

	setup(ctx, float32(*width)/float32(*height))
	tri := buildTriangleList(ctx)

	for i := range *frames {
		drawFrame(ctx, tri, float32(i)*3)
		if err := ctx.SwapBuffers(); err != nil {
			log.Fatalf("glimmdemo: frame %d: %v", i, err)
		}
		if code := ctx.GetError(); code != glimm.NoError {
			log.Fatalf("glimmdemo: frame %d: %v", i, code)
		}
	}

	s := ctx.Stats()
	fmt.Printf("adapter:     %s\n", ctx.Adapter())
	fmt.Printf("frames:      %d\n", s.Frames)
	fmt.Printf("draws:       %d\n", s.Draws)
	fmt.Printf("fence waits: %d\n", s.FenceWaits)
	fmt.Printf("barriers:    %d in %d flushes\n", s.Barriers, s.BarrierFlushes)
	fmt.Printf("pipelines:   %d (%d hits, %d misses)\n", s.PSOCount, s.PSOHits, s.PSOMisses)
	fmt.Printf("ring wraps:  %d\n", s.RingWraps)
	if *output != "" {
		fmt.Printf("wrote %s\n", *output)
	}
}

func setup(ctx *glimm.Context, aspect float32) {
	ctx.ClearColor(0.1, 0.1, 0.15, 1)
	ctx.Enable(glimm.DepthTest)
	ctx.DepthFunc(glimm.Lequal)

	ctx.MatrixMode(glimm.Projection)
	ctx.LoadIdentity()
	ctx.Perspective(60, aspect, 0.1, 100)
	ctx.MatrixMode(glimm.ModelView)
	ctx.LoadIdentity()

	ctx.Enable(glimm.Lighting)
	ctx.Enable(glimm.Light0)
	ctx.Enable(glimm.ColorMaterial)
	ctx.Lightfv(glimm.Light0, glimm.Position, []float32{1, 1, 2, 0})
	ctx.Materialf(glimm.FrontAndBack, glimm.Shininess, 24)
	ctx.Materialfv(glimm.FrontAndBack, glimm.Specular, []float32{0.6, 0.6, 0.6, 1})

	ids := ctx.GenTextures(1)
	ctx.BindTexture(glimm.Texture2D, ids[0])
	ctx.TexParameteri(glimm.Texture2D, glimm.TextureMinFilter, glimm.LinearMipmapLinear)
	ctx.BuildMipmaps(glimm.Texture2D, checkerboard(64, 8))
}

func buildTriangleList(ctx *glimm.Context) uint32 {
	id := ctx.GenLists(1)
	ctx.NewList(id, glimm.Compile)
	ctx.Begin(glimm.Triangles)
	ctx.Normal3f(0, 0, 1)
	ctx.Color3f(1, 0.3, 0.2)
	ctx.Vertex3f(0, 0.5, 0)
	ctx.Color3f(0.2, 1, 0.3)
	ctx.Vertex3f(-0.5, -0.5, 0)
	ctx.Color3f(0.2, 0.3, 1)
	ctx.Vertex3f(0.5, -0.5, 0)
	ctx.End()
	ctx.EndList()
	return id
}

func drawFrame(ctx *glimm.Context, tri uint32, angle float32) {
	ctx.Clear(glimm.ColorBufferBit | glimm.DepthBufferBit)

	ctx.PushMatrix()
	ctx.Translatef(-0.8, 0, -3)
	ctx.Rotatef(angle, 0, 1, 0)
	ctx.Enable(glimm.Texture2D)
	ctx.Color3f(1, 1, 1)
	ctx.Begin(glimm.Quads)
	ctx.Normal3f(0, 0, 1)
	ctx.TexCoord2f(0, 1)
	ctx.Vertex3f(-0.6, -0.6, 0)
	ctx.TexCoord2f(1, 1)
	ctx.Vertex3f(0.6, -0.6, 0)
	ctx.TexCoord2f(1, 0)
	ctx.Vertex3f(0.6, 0.6, 0)
	ctx.TexCoord2f(0, 0)
	ctx.Vertex3f(-0.6, 0.6, 0)
	ctx.End()
	ctx.Disable(glimm.Texture2D)
	ctx.PopMatrix()

	ctx.PushMatrix()
	ctx.Translatef(0.9, 0, -3)
	ctx.Rotatef(-angle, 0, 0, 1)
	ctx.CallList(tri)
	ctx.PopMatrix()
}
