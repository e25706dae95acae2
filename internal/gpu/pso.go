package gpu

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

// CullMode selects which faces are discarded.
type CullMode uint8

// Cull modes.
const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// FillMode selects solid or wireframe rasterization.
type FillMode uint8

// Fill modes.
const (
	FillSolid FillMode = iota
	FillWireframe
)

// FrontFace sets the winding of front-facing triangles.
type FrontFace uint8

// Windings.
const (
	FrontCCW FrontFace = iota
	FrontCW
)

// CompareFunc is a depth comparison.
type CompareFunc uint8

// Comparison functions, in legacy API order.
const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// BlendFactor is a source or destination blend weight.
type BlendFactor uint8

// Blend factors.
const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
	BlendDstAlpha
	BlendInvDstAlpha
	BlendDstColor
	BlendInvDstColor
	BlendSrcAlphaSat
)

// TopologyClass is the primitive family a pipeline is compiled for.
type TopologyClass uint8

// Topology classes.
const (
	ClassTriangle TopologyClass = iota
	ClassLine
	ClassPoint
)

// Topology is the primitive assembly mode of a draw.
type Topology uint8

// Topologies.
const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyLineStrip
	TopologyPointList
)

// Class returns the pipeline family of t.
func (t Topology) Class() TopologyClass {
	switch t {
	case TopologyLineList, TopologyLineStrip:
		return ClassLine
	case TopologyPointList:
		return ClassPoint
	}
	return ClassTriangle
}

// PSOKeySize is the byte size of a packed PSOKey.
const PSOKeySize = 16

// PSOKey is the render state that selects a compiled pipeline. Its packed
// form is exactly PSOKeySize bytes with zeroed padding, so byte-equal keys
// always describe the same pipeline.
type PSOKey struct {
	Cull        CullMode
	Fill        FillMode
	Front       FrontFace
	DepthTest   bool
	DepthWrite  bool
	DepthFunc   CompareFunc
	BlendEnable bool
	SrcBlend    BlendFactor
	DstBlend    BlendFactor
	Topology    TopologyClass
	_           [6]byte
}

// DefaultPSOKey is the state of a freshly created legacy context.
func DefaultPSOKey() PSOKey {
	return PSOKey{
		Cull:       CullNone,
		Fill:       FillSolid,
		Front:      FrontCCW,
		DepthWrite: true,
		DepthFunc:  CompareLess,
		SrcBlend:   BlendOne,
		DstBlend:   BlendZero,
		Topology:   ClassTriangle,
	}
}

// Bytes returns the packed key.
func (k PSOKey) Bytes() [PSOKeySize]byte {
	var b [PSOKeySize]byte
	b[0] = byte(k.Cull)
	b[1] = byte(k.Fill)
	b[2] = byte(k.Front)
	b[3] = boolByte(k.DepthTest)
	b[4] = boolByte(k.DepthWrite)
	b[5] = byte(k.DepthFunc)
	b[6] = boolByte(k.BlendEnable)
	b[7] = byte(k.SrcBlend)
	b[8] = byte(k.DstBlend)
	b[9] = byte(k.Topology)
	return b
}

// Hash returns FNV-1a over the packed key.
func (k PSOKey) Hash() uint64 {
	b := k.Bytes()
	h := fnv.New64a()
	_, _ = h.Write(b[:])
	return h.Sum64()
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// ShaderFormat tells the device how to read ShaderBytecode.
type ShaderFormat uint8

// Shader formats.
const (
	ShaderWGSL ShaderFormat = iota
	ShaderSPIRV
)

// ShaderBytecode is the opaque vertex and pixel program pair every pipeline
// shares.
type ShaderBytecode struct {
	Format      ShaderFormat
	Vertex      []byte
	Pixel       []byte
	VertexEntry string
	PixelEntry  string
}

// InputFormat is the type of one vertex attribute.
type InputFormat uint8

// Input formats.
const (
	InputFloat2 InputFormat = iota
	InputFloat3
	InputUnorm8x4
)

// InputElement is one attribute of the vertex layout.
type InputElement struct {
	Semantic string
	Location uint32
	Format   InputFormat
	Offset   uint32
}

// PipelineDesc is the full description a pipeline is compiled from.
type PipelineDesc struct {
	Label         string
	RootSignature NativeRootSignature
	Shaders       ShaderBytecode
	InputLayout   []InputElement
	VertexStride  uint32
	Key           PSOKey
	RTFormat      TextureFormat
	DSFormat      TextureFormat
}

type psoEntry struct {
	key      [PSOKeySize]byte
	pipeline NativePipeline
}

// PipelineCache compiles a pipeline per distinct PSOKey and keeps it for the
// life of the cache. Lookups hash the key and then compare packed bytes, so
// a hash collision can never return another key's pipeline.
type PipelineCache struct {
	mu       sync.RWMutex
	device   Device
	rootSig  *RootSignature
	shaders  ShaderBytecode
	rtFormat TextureFormat
	dsFormat TextureFormat
	buckets  map[uint64][]psoEntry
	size     int
	hash     func(PSOKey) uint64

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewPipelineCache returns an empty cache that compiles against rootSig.
func NewPipelineCache(device Device, rootSig *RootSignature, shaders ShaderBytecode, rtFormat, dsFormat TextureFormat) *PipelineCache {
	return &PipelineCache{
		device:   device,
		rootSig:  rootSig,
		shaders:  shaders,
		rtFormat: rtFormat,
		dsFormat: dsFormat,
		buckets:  make(map[uint64][]psoEntry),
		hash:     PSOKey.Hash,
	}
}

// GetOrCreatePSO returns the pipeline for key, compiling it on first use.
func (c *PipelineCache) GetOrCreatePSO(key PSOKey) (NativePipeline, error) {
	packed := key.Bytes()
	h := c.hash(key)

	c.mu.RLock()
	if p := lookup(c.buckets[h], packed); p != nil {
		c.mu.RUnlock()
		c.hits.Add(1)
		return p, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if p := lookup(c.buckets[h], packed); p != nil {
		c.hits.Add(1)
		return p, nil
	}

	desc := c.describe(key)
	p, err := c.device.CreatePipelineState(desc)
	if err != nil {
		return nil, fmt.Errorf("gpu: compile pipeline %s: %w", desc.Label, err)
	}
	c.misses.Add(1)
	c.buckets[h] = append(c.buckets[h], psoEntry{key: packed, pipeline: p})
	c.size++
	slogger().Debug("gpu: compiled pipeline", "key", desc.Label, "hash", h, "cached", c.size)
	return p, nil
}

func (c *PipelineCache) describe(key PSOKey) *PipelineDesc {
	packed := key.Bytes()
	return &PipelineDesc{
		Label:         fmt.Sprintf("pso-%x", packed[:10]),
		RootSignature: c.rootSig.Native(),
		Shaders:       c.shaders,
		InputLayout:   VertexLayout(),
		VertexStride:  VertexStride,
		Key:           key,
		RTFormat:      c.rtFormat,
		DSFormat:      c.dsFormat,
	}
}

func lookup(bucket []psoEntry, packed [PSOKeySize]byte) NativePipeline {
	for i := range bucket {
		if bytes.Equal(bucket[i].key[:], packed[:]) {
			return bucket[i].pipeline
		}
	}
	return nil
}

// Stats returns the hit and miss counters. Misses equal compiles.
func (c *PipelineCache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (c *PipelineCache) HitRate() float64 {
	hits, misses := c.Stats()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// Size returns the number of cached pipelines.
func (c *PipelineCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// DestroyAll releases every pipeline and empties the cache.
func (c *PipelineCache) DestroyAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for h, bucket := range c.buckets {
		for _, e := range bucket {
			e.pipeline.Release()
		}
		delete(c.buckets, h)
	}
	c.size = 0
}
