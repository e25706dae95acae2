// Package gpu translates legacy immediate-mode rendering onto an explicit,
// D3D12-style graphics API.
//
// The package never talks to a driver directly. It drives a Device, an
// interface shaped like the explicit API's object model, which
// internal/halgpu implements on top of gogpu/wgpu's HAL and
// internal/gputest implements as a recorder for tests.
//
// # Components
//
//   - Resource and Buffer own one native resource and its usage state.
//   - StateTracker batches state-transition, split and UAV barriers and
//     hands them to the command list only in FlushResourceBarriers.
//   - DescriptorHeap and DescriptorAllocator bump-allocate descriptor slots
//     from heaps sized once at startup. Slots are never freed.
//   - UploadRing stages vertex, constant and texture data through one
//     persistently mapped buffer.
//   - RootSignature describes the binding contract; PipelineCache compiles
//     one pipeline per distinct PSOKey and never evicts.
//   - Backend owns the device objects and the frame state machine.
//   - Recorder and DisplayList capture draws and matrix operations once and
//     replay them from a single GPU vertex buffer.
//
// # Frames
//
// After Init the backend is always recording. EndFrame transitions the back
// buffer to present, submits, presents and calls MoveToNextFrame, which
// signals the fence, waits only if the next frame slot is still in flight
// on the GPU, resets that slot's allocator and begins the next frame.
//
// # Upload ring reuse
//
// Reset rewinds the ring every frame and an allocation that does not fit
// the tail wraps to zero. With Config.GuardUploads the ring also records
// which frame wrote each range and waits on the fence before reusing a
// range the GPU may still read; an allocation that would overwrite data of
// the frame being recorded makes the backend submit the frame so far and
// continue in a fresh list.
package gpu
