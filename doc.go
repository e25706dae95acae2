// Package glimm emulates a legacy immediate-mode graphics API on top of an
// explicit GPU device.
//
// Programs written against the classic call-by-call model (bind a texture,
// push a matrix, emit vertices between Begin and End, compile display
// lists) run unchanged in structure. Underneath, every call is turned into
// explicit work: pipeline state objects looked up by a packed render-state
// key, resource barriers batched per command list, vertices and constants
// staged through a fence-guarded upload ring, and frames paced by a fence
// per back buffer.
//
// # Quick Start
//
//	ctx, err := glimm.New(glimm.WithSize(800, 600))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	ctx.ClearColor(0.1, 0.1, 0.2, 1)
//	ctx.Clear(glimm.ColorBufferBit | glimm.DepthBufferBit)
//	ctx.Begin(glimm.Triangles)
//	ctx.Color3f(1, 0, 0)
//	ctx.Vertex2f(-0.5, -0.5)
//	ctx.Vertex2f(0.5, -0.5)
//	ctx.Vertex2f(0, 0.5)
//	ctx.End()
//	if err := ctx.SwapBuffers(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Errors
//
// Misuse of the legacy API never panics. The offending call is ignored and
// an error code is kept until GetError reads it, exactly one at a time.
// Device failures are also returned by SwapBuffers.
//
// # Devices
//
// By default New opens the best GPU adapter through the wgpu hal. A host
// window can share its device with WithDeviceProvider, and tests supply
// their own implementation with WithDevice.
//
// # Logging
//
// Nothing is logged unless SetLogger or WithLogger installs a logger.
package glimm
