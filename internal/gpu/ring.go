package gpu

import "fmt"

// Allocation is a span of the upload ring. It stays valid until the ring
// wraps past Offset.
type Allocation struct {
	CPU     []byte
	Address uint64
	Offset  uint64
}

// span is a written range of the ring and the fence value that retires it.
// fence is zero while the span belongs to the frame being recorded.
type span struct {
	start, end uint64
	fence      uint64
}

// UploadRing is a wraparound allocator over one persistently mapped upload
// buffer. Reset is called once per frame; an allocation that does not fit
// in the tail wraps to offset zero.
//
// Without a guard the ring trusts the frame fence to keep the GPU away from
// reused bytes. With a guard (SetGuard) it records the spans of each frame
// and waits on the fence before handing out bytes the GPU may still read.
type UploadRing struct {
	buf    *Buffer
	offset uint64
	wraps  uint64

	guard Fence
	spans []span
}

// NewUploadRing creates a ring of size bytes.
func NewUploadRing(device Device, size uint64) (*UploadRing, error) {
	buf, err := NewBuffer(device, "upload-ring", size, HeapUpload, StateGenericRead)
	if err != nil {
		return nil, err
	}
	return &UploadRing{buf: buf}, nil
}

// SetGuard enables fence-guarded reuse. A nil fence disables it.
func (r *UploadRing) SetGuard(f Fence) {
	r.guard = f
	r.spans = r.spans[:0]
}

// Buffer returns the backing buffer.
func (r *UploadRing) Buffer() *Buffer { return r.buf }

// Size returns the capacity in bytes.
func (r *UploadRing) Size() uint64 { return r.buf.Size() }

// Offset returns the next free byte before alignment.
func (r *UploadRing) Offset() uint64 { return r.offset }

// Wraps returns how many allocations restarted at zero.
func (r *UploadRing) Wraps() uint64 { return r.wraps }

// Reset rewinds the ring to zero.
func (r *UploadRing) Reset() { r.offset = 0 }

// Allocate reserves size bytes aligned to alignment, a power of two.
func (r *UploadRing) Allocate(size, alignment uint64) (Allocation, error) {
	capacity := r.buf.Size()
	if size > capacity {
		return Allocation{}, fmt.Errorf("%w: %d > %d", ErrUploadTooLarge, size, capacity)
	}
	if alignment == 0 {
		alignment = 1
	}
	start := alignUp(r.offset, alignment)
	wrapped := start+size > capacity
	if wrapped {
		start = 0
	}
	end := start + size
	if r.guard != nil {
		if err := r.claim(start, end); err != nil {
			return Allocation{}, err
		}
	}
	if wrapped {
		r.wraps++
		slogger().Debug("gpu: upload ring wrapped", "size", size, "capacity", capacity)
	}
	r.offset = end
	return Allocation{
		CPU:     r.buf.mapped[start:end:end],
		Address: r.buf.GPUAddress() + start,
		Offset:  start,
	}, nil
}

// Write copies data into a fresh allocation and flushes it.
func (r *UploadRing) Write(data []byte, alignment uint64) (Allocation, error) {
	a, err := r.Allocate(uint64(len(data)), alignment)
	if err != nil {
		return Allocation{}, err
	}
	copy(a.CPU, data)
	r.buf.Flush(a.Offset, uint64(len(data)))
	return a, nil
}

// Flush publishes writes made through a.CPU.
func (r *UploadRing) Flush(a Allocation) {
	r.buf.Flush(a.Offset, uint64(len(a.CPU)))
}

// Retire tags every span written since the last Retire with fenceValue.
func (r *UploadRing) Retire(fenceValue uint64) {
	for i := range r.spans {
		if r.spans[i].fence == 0 {
			r.spans[i].fence = fenceValue
		}
	}
}

// claim waits until [start, end) is free of unretired GPU reads and records
// it as written by the current frame.
func (r *UploadRing) claim(start, end uint64) error {
	completed := r.guard.CompletedValue()
	var waitFor uint64
	for _, s := range r.spans {
		if s.start >= end || start >= s.end {
			continue
		}
		if s.fence == 0 {
			return fmt.Errorf("%w: [%d,%d) overlaps [%d,%d)", ErrUploadRingOverflow, start, end, s.start, s.end)
		}
		if s.fence > completed {
			waitFor = max(waitFor, s.fence)
		}
	}
	if waitFor != 0 {
		slogger().Debug("gpu: upload ring waiting for GPU", "fence", waitFor)
		if err := r.guard.Wait(waitFor); err != nil {
			return fmt.Errorf("gpu: upload ring wait: %w", err)
		}
		completed = r.guard.CompletedValue()
	}
	live := r.spans[:0]
	for _, s := range r.spans {
		if s.fence == 0 || s.fence > completed {
			live = append(live, s)
		}
	}
	r.spans = live
	if n := len(r.spans); n > 0 && r.spans[n-1].fence == 0 && r.spans[n-1].end == start {
		r.spans[n-1].end = end
		return nil
	}
	r.spans = append(r.spans, span{start: start, end: end})
	return nil
}

func alignUp(v, alignment uint64) uint64 {
	return (v + alignment - 1) &^ (alignment - 1)
}

// Release destroys the backing buffer.
func (r *UploadRing) Release() {
	r.buf.Destroy()
}
