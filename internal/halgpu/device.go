// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halgpu implements the explicit device model of internal/gpu on
// top of gogpu/wgpu/hal.
//
// The hal API is render-pass based, so command lists open render passes
// lazily and end them at barriers, copies and Close. Descriptor heaps are
// tables of pre-built bind groups; GPU addresses are buffer IDs in the high
// 32 bits and byte offsets in the low 32 bits.
package halgpu

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/glimm/internal/gpu"
)

// Options configures Open and NewFromProvider.
type Options struct {
	// AllowNullFallback opens the hal/noop backend when no hardware adapter
	// can be opened. Every call succeeds but nothing is drawn.
	AllowNullFallback bool

	// Presenter receives every presented back buffer.
	Presenter Presenter
}

// instanceCreator is satisfied by registered hal backends and noop.API.
type instanceCreator interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// halProvider is gpucontext.HalProvider: a host that exposes its hal
// device and queue.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// Device implements gpu.Device. It is created by Open, NewFromProvider or
// NewFromHAL and destroyed by Close.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	owned    bool
	adapter  string
	null     bool

	presenter Presenter

	mu         sync.Mutex
	layouts    [3]hal.BindGroupLayout
	modules    map[string]hal.ShaderModule
	buffers    map[uint32]*buffer
	heaps      map[uint32]*heap
	nextBuffer uint32
	nextHeap   uint32

	submit *queue
}

var _ gpu.Device = (*Device)(nil)

// Open creates an instance on the Vulkan backend and opens the best
// adapter: discrete, then integrated, then whatever else is listed. When
// none opens and opts.AllowNullFallback is set, the noop backend is used.
func Open(opts Options) (*Device, error) {
	var hwErr error
	if backend, ok := hal.GetBackend(gputypes.BackendVulkan); ok {
		d, err := openInstance(backend)
		if err == nil {
			d.presenter = opts.Presenter
			return d, nil
		}
		hwErr = err
		slogger().Warn("halgpu: hardware backend failed", "err", err)
	} else {
		hwErr = errors.New("vulkan backend not available")
		slogger().Warn("halgpu: vulkan backend not registered")
	}
	if !opts.AllowNullFallback {
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, hwErr)
	}
	d, err := openInstance(&noop.API{})
	if err != nil {
		return nil, fmt.Errorf("halgpu: null backend: %w", err)
	}
	d.null = true
	d.presenter = opts.Presenter
	slogger().Warn("halgpu: using null backend, nothing will be drawn")
	return d, nil
}

func openInstance(api instanceCreator) (*Device, error) {
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	d, err := openAdapters(instance)
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	return d, nil
}

// adapterRank orders adapters for selection.
func adapterRank(t gputypes.DeviceType) int {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return 0
	case gputypes.DeviceTypeIntegratedGPU:
		return 1
	}
	return 2
}

func openAdapters(instance hal.Instance) (*Device, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}
	order := make([]int, len(adapters))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return adapterRank(adapters[a].Info.DeviceType) - adapterRank(adapters[b].Info.DeviceType)
	})

	var errs []error
	for _, i := range order {
		selected := &adapters[i]
		openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
		if err != nil {
			slogger().Warn("halgpu: adapter failed to open", "adapter", selected.Info.Name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", selected.Info.Name, err))
			continue
		}
		slogger().Info("halgpu: opened adapter",
			"adapter", selected.Info.Name, "type", selected.Info.DeviceType, "rank", adapterRank(selected.Info.DeviceType))
		d := newDevice(openDev.Device, openDev.Queue)
		d.instance = instance
		d.owned = true
		d.adapter = selected.Info.Name
		return d, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrNoAdapter, errors.Join(errs...))
}

// NewFromProvider shares the device of a host application. The provider
// must also implement gpucontext.HalProvider. The device is not destroyed
// by Close.
func NewFromProvider(p gpucontext.DeviceProvider, opts Options) (*Device, error) {
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNotHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNotHAL, hp.HalQueue())
	}
	d := NewFromHAL(device, queue)
	d.adapter = "provider"
	d.presenter = opts.Presenter
	slogger().Info("halgpu: using provider device", "surface", p.SurfaceFormat())
	return d, nil
}

// NewFromHAL wraps an already opened device and queue. The caller keeps
// ownership of both.
func NewFromHAL(device hal.Device, queue hal.Queue) *Device {
	return newDevice(device, queue)
}

func newDevice(device hal.Device, queue hal.Queue) *Device {
	return &Device{
		device:  device,
		queue:   queue,
		modules: make(map[string]hal.ShaderModule),
		buffers: make(map[uint32]*buffer),
		heaps:   make(map[uint32]*heap),
	}
}

// SurfaceFormat maps a provider's surface format to a back buffer format.
// Formats the fixed-function pipeline cannot render to yield
// gpu.FormatUnknown, which Config.Validate replaces with BGRA8.
func SurfaceFormat(p gpucontext.DeviceProvider) gpu.TextureFormat {
	switch p.SurfaceFormat() {
	case gputypes.TextureFormatBGRA8Unorm:
		return gpu.FormatBGRA8
	case gputypes.TextureFormatRGBA8Unorm:
		return gpu.FormatRGBA8
	}
	return gpu.FormatUnknown
}

// SetPresenter replaces the callback that receives presented frames.
func (d *Device) SetPresenter(p Presenter) { d.presenter = p }

// Adapter returns the name of the opened adapter.
func (d *Device) Adapter() string { return d.adapter }

// Null reports whether the device runs on the noop backend.
func (d *Device) Null() bool { return d.null }

// HAL returns the wrapped device and queue.
func (d *Device) HAL() (hal.Device, hal.Queue) { return d.device, d.queue }

// Close destroys the shared layouts and shader modules and, for devices
// opened by Open, the device and instance. Every object created through d
// must have been released.
func (d *Device) Close() {
	d.mu.Lock()
	for _, m := range d.modules {
		d.device.DestroyShaderModule(m)
	}
	clear(d.modules)
	for i, l := range d.layouts {
		if l != nil {
			d.device.DestroyBindGroupLayout(l)
			d.layouts[i] = nil
		}
	}
	d.mu.Unlock()
	if !d.owned {
		return
	}
	d.device.Destroy()
	if d.instance != nil {
		d.instance.Destroy()
	}
	d.owned = false
}

// layout returns the bind group layout shared by every root parameter and
// descriptor of kind.
func (d *Device) layout(kind gpu.RootParamKind) (hal.BindGroupLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l := d.layouts[kind]; l != nil {
		return l, nil
	}
	entry := gputypes.BindGroupLayoutEntry{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
	}
	var label string
	switch kind {
	case gpu.RootParamCBV:
		label = "root-cbv-layout"
		entry.Buffer = &gputypes.BufferBindingLayout{
			Type:             gputypes.BufferBindingTypeUniform,
			HasDynamicOffset: true,
		}
	case gpu.RootParamSRVTable:
		label = "srv-table-layout"
		entry.Visibility = gputypes.ShaderStageFragment
		entry.Texture = &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	case gpu.RootParamSamplerTable:
		label = "sampler-table-layout"
		entry.Visibility = gputypes.ShaderStageFragment
		entry.Sampler = &gputypes.SamplerBindingLayout{
			Type: gputypes.SamplerBindingTypeFiltering,
		}
	default:
		return nil, fmt.Errorf("halgpu: unknown root parameter kind %d", kind)
	}
	l, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: []gputypes.BindGroupLayoutEntry{entry},
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create %s: %w", label, err)
	}
	d.layouts[kind] = l
	return l, nil
}

// CreateCommandQueue implements gpu.Device. The hal queue is shared, so
// every call returns a wrapper around the same queue.
func (d *Device) CreateCommandQueue() (gpu.CommandQueue, error) {
	fence, err := d.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("halgpu: create submit fence: %w", err)
	}
	q := &queue{dev: d, fence: fence}
	d.mu.Lock()
	d.submit = q
	d.mu.Unlock()
	return q, nil
}

// CreateCommandAllocator implements gpu.Device.
func (d *Device) CreateCommandAllocator() (gpu.CommandAllocator, error) {
	return &allocator{dev: d}, nil
}

// CreateCommandList implements gpu.Device.
func (d *Device) CreateCommandList(alloc gpu.CommandAllocator) (gpu.CommandList, error) {
	l := &commandList{dev: d}
	if err := l.Reset(alloc); err != nil {
		return nil, err
	}
	return l, nil
}

// CreateFence implements gpu.Device.
func (d *Device) CreateFence(initialValue uint64) (gpu.Fence, error) {
	raw, err := d.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("halgpu: create fence: %w", err)
	}
	f := &fence{dev: d, raw: raw}
	f.completed.Store(initialValue)
	f.signaled.Store(initialValue)
	return f, nil
}

// CreateRootSignature implements gpu.Device.
func (d *Device) CreateRootSignature(desc *gpu.RootSignatureDesc) (gpu.NativeRootSignature, error) {
	return newRootSignature(d, desc)
}

// CreatePipelineState implements gpu.Device.
func (d *Device) CreatePipelineState(desc *gpu.PipelineDesc) (gpu.NativePipeline, error) {
	return newPipeline(d, desc)
}

// WaitIdle blocks until every command list executed so far has finished.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	q := d.submit
	d.mu.Unlock()
	if q == nil {
		return nil
	}
	return q.waitIdle()
}
