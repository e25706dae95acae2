// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package halgpu

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/glimm/internal/gpu"
)

// waitSlice is how long one hal wait may block before the wait is logged
// and retried.
const waitSlice = 5 * time.Second

// queue submits command buffers as soon as their lists are executed,
// signalling an internal fence, so presented frames are always submitted.
type queue struct {
	dev    *Device
	fence  hal.Fence
	serial uint64
}

// ExecuteCommandLists implements gpu.CommandQueue.
func (q *queue) ExecuteCommandLists(lists ...gpu.CommandList) error {
	cbs := make([]hal.CommandBuffer, 0, len(lists))
	for _, l := range lists {
		cl, ok := l.(*commandList)
		if !ok || cl.dev != q.dev {
			return fmt.Errorf("%w: command list %T", ErrForeignObject, l)
		}
		cb, err := cl.take()
		if err != nil {
			return err
		}
		cbs = append(cbs, cb)
	}
	q.dev.flushUploads()
	q.serial++
	if err := q.dev.queue.Submit(cbs, q.fence, q.serial); err != nil {
		return fmt.Errorf("halgpu: submit: %w", err)
	}
	return nil
}

// Signal implements gpu.CommandQueue with an empty submission that
// signals f once everything before it has executed.
func (q *queue) Signal(f gpu.Fence, value uint64) error {
	fc, ok := f.(*fence)
	if !ok || fc.dev != q.dev {
		return fmt.Errorf("%w: fence %T", ErrForeignObject, f)
	}
	q.dev.flushUploads()
	if err := q.dev.queue.Submit(nil, fc.raw, value); err != nil {
		return fmt.Errorf("halgpu: signal fence to %d: %w", value, err)
	}
	if value > fc.signaled.Load() {
		fc.signaled.Store(value)
	}
	return nil
}

func (q *queue) waitIdle() error {
	return waitFence(q.dev.device, q.fence, q.serial)
}

// Release implements gpu.CommandQueue.
func (q *queue) Release() {
	if q.fence == nil {
		return
	}
	if err := q.waitIdle(); err != nil {
		slogger().Warn("halgpu: queue release wait failed", "err", err)
	}
	q.dev.device.DestroyFence(q.fence)
	q.fence = nil
	q.dev.mu.Lock()
	if q.dev.submit == q {
		q.dev.submit = nil
	}
	q.dev.mu.Unlock()
}

// waitFence blocks until raw reaches value, logging every waitSlice.
func waitFence(device hal.Device, raw hal.Fence, value uint64) error {
	if value == 0 {
		return nil
	}
	start := time.Now()
	for {
		ok, err := device.Wait(raw, value, waitSlice)
		if err != nil {
			return fmt.Errorf("halgpu: wait for fence value %d: %w", value, err)
		}
		if ok {
			return nil
		}
		slogger().Warn("halgpu: GPU is slow to reach fence value", "value", value, "waited", time.Since(start))
	}
}

// fence tracks the highest value signaled through a queue and the highest
// value known to be complete.
type fence struct {
	dev       *Device
	raw       hal.Fence
	signaled  atomic.Uint64
	completed atomic.Uint64
}

// CompletedValue implements gpu.Fence. It polls the hal fence for the
// latest signaled value without blocking.
func (f *fence) CompletedValue() uint64 {
	done, want := f.completed.Load(), f.signaled.Load()
	if done >= want {
		return done
	}
	ok, err := f.dev.device.Wait(f.raw, want, 0)
	if err == nil && ok {
		f.completed.Store(want)
		return want
	}
	return done
}

// Wait implements gpu.Fence.
func (f *fence) Wait(value uint64) error {
	if value <= f.completed.Load() {
		return nil
	}
	if value > f.signaled.Load() {
		return fmt.Errorf("%w: %d, last signaled %d", ErrFenceNotSignaled, value, f.signaled.Load())
	}
	if err := waitFence(f.dev.device, f.raw, value); err != nil {
		return err
	}
	if value > f.completed.Load() {
		f.completed.Store(value)
	}
	return nil
}

// Release implements gpu.Fence.
func (f *fence) Release() {
	if f.raw != nil {
		f.dev.device.DestroyFence(f.raw)
		f.raw = nil
	}
}

// allocator owns the command buffers of the lists recorded into it and
// frees them on Reset.
type allocator struct {
	dev     *Device
	buffers []hal.CommandBuffer
}

// Reset implements gpu.CommandAllocator. The caller guarantees the GPU has
// finished every buffer.
func (a *allocator) Reset() error {
	for _, cb := range a.buffers {
		a.dev.device.FreeCommandBuffer(cb)
	}
	clear(a.buffers)
	a.buffers = a.buffers[:0]
	return nil
}

// Release implements gpu.CommandAllocator.
func (a *allocator) Release() {
	_ = a.Reset()
}
