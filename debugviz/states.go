//go:build !nogpu

package debugviz

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/internal/cache"
)

// StencilTest is the depth/stencil state baked into an overlay pipeline.
// Depth testing and all writes are always off.
type StencilTest struct {
	Enabled  bool
	Compare  gputypes.CompareFunction
	ReadMask uint32
}

// Fixed names the stencil states built at startup.
type Fixed int

// Fixed states.
const (
	// FixedDisabled has no depth/stencil attachment; the opaque depth view
	// uses it.
	FixedDisabled Fixed = iota
	FixedAlways
	FixedNotEqualZero
	fixedCount
)

func (f Fixed) test() StencilTest {
	switch f {
	case FixedAlways:
		return StencilTest{Enabled: true, Compare: gputypes.CompareFunctionAlways, ReadMask: 0xFF}
	case FixedNotEqualZero:
		return StencilTest{Enabled: true, Compare: gputypes.CompareFunctionNotEqual, ReadMask: 0xFF}
	default:
		return StencilTest{}
	}
}

func equalTest() StencilTest {
	return StencilTest{Enabled: true, Compare: gputypes.CompareFunctionEqual, ReadMask: 0xFF}
}

func bitTest(bit int) StencilTest {
	return StencilTest{Enabled: true, Compare: gputypes.CompareFunctionNotEqual, ReadMask: 1 << bit}
}

// PipelineBuilder creates the pipeline for one stencil test.
type PipelineBuilder func(StencilTest) (hal.RenderPipeline, error)

// StatesStats reports lookups per key domain.
type StatesStats struct {
	Equal   cache.Stats
	Bits    cache.Stats
	Fixed   cache.Stats
	Sampled cache.Stats
}

// Creations is the total number of pipelines built.
func (s StatesStats) Creations() uint64 {
	return s.Equal.Creations + s.Bits.Creations + s.Fixed.Creations + s.Sampled.Creations
}

// StencilStates owns every overlay pipeline, one per key in a bounded
// domain. A pipeline, once built, is returned for every later lookup of the
// same key until Destroy. Each stencil reference owns its EQUAL pipeline
// even though the reference itself is set per draw.
type StencilStates struct {
	build   PipelineBuilder
	sampled func() (hal.RenderPipeline, error)

	equal      *cache.Slots[hal.RenderPipeline] // by reference, lazy
	bits       *cache.Slots[hal.RenderPipeline] // by bit, eager
	fixed      *cache.Slots[hal.RenderPipeline] // by Fixed, eager
	sampledArr *cache.Slots[hal.RenderPipeline] // single, lazy
}

// NewStencilStates builds the fixed and per-bit states immediately. The
// per-reference and sampled pipelines are built on first use. sampled may be
// nil when the multisampled path is unsupported.
func NewStencilStates(build PipelineBuilder, sampled func() (hal.RenderPipeline, error)) (*StencilStates, error) {
	s := &StencilStates{
		build:      build,
		sampled:    sampled,
		equal:      cache.NewSlots[hal.RenderPipeline](256),
		bits:       cache.NewSlots[hal.RenderPipeline](8),
		fixed:      cache.NewSlots[hal.RenderPipeline](int(fixedCount)),
		sampledArr: cache.NewSlots[hal.RenderPipeline](1),
	}
	for f := Fixed(0); f < fixedCount; f++ {
		if _, err := s.Fixed(f); err != nil {
			return nil, fmt.Errorf("fixed stencil state %d: %w", f, err)
		}
	}
	for bit := 0; bit < 8; bit++ {
		if _, err := s.Bit(bit); err != nil {
			return nil, fmt.Errorf("stencil bit state %d: %w", bit, err)
		}
	}
	return s, nil
}

// Equal returns the pipeline passing where stencil == ref.
func (s *StencilStates) Equal(ref int) (hal.RenderPipeline, error) {
	return s.equal.GetOrCreate(ref, func() (hal.RenderPipeline, error) {
		return s.build(equalTest())
	})
}

// Bit returns the pipeline passing where stencil bit is set.
func (s *StencilStates) Bit(bit int) (hal.RenderPipeline, error) {
	return s.bits.GetOrCreate(bit, func() (hal.RenderPipeline, error) {
		return s.build(bitTest(bit))
	})
}

// Fixed returns one of the startup states.
func (s *StencilStates) Fixed(f Fixed) (hal.RenderPipeline, error) {
	return s.fixed.GetOrCreate(int(f), func() (hal.RenderPipeline, error) {
		return s.build(f.test())
	})
}

// Sampled returns the pipeline that tests the stencil in the shader, used
// when the stencil source is multisampled.
func (s *StencilStates) Sampled() (hal.RenderPipeline, error) {
	return s.sampledArr.GetOrCreate(0, func() (hal.RenderPipeline, error) {
		if s.sampled == nil {
			return nil, fmt.Errorf("debugviz: sampled stencil pipeline unsupported")
		}
		return s.sampled()
	})
}

// Stats returns lookup counters for every domain.
func (s *StencilStates) Stats() StatesStats {
	return StatesStats{
		Equal:   s.equal.Stats(),
		Bits:    s.bits.Stats(),
		Fixed:   s.fixed.Stats(),
		Sampled: s.sampledArr.Stats(),
	}
}

// Destroy passes every built pipeline to release and empties the arenas.
func (s *StencilStates) Destroy(release func(hal.RenderPipeline)) {
	s.sampledArr.Clear(release)
	s.equal.Clear(release)
	s.bits.Clear(release)
	s.fixed.Clear(release)
}
