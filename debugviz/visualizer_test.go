//go:build !nogpu

package debugviz

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/depth"
	"github.com/gogpu/screenfx/internal/gputest"
	"github.com/gogpu/screenfx/internal/shaders"
)

func newVisualizer(t *testing.T, mutate func(*Options)) (*Visualizer, *gputest.Device, *gputest.Queue) {
	t.Helper()
	dev, q := gputest.NewDevice(t)
	sh := shaders.NewProvider(dev, shaders.FormatWGSL)
	t.Cleanup(sh.Destroy)

	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	v, err := New(dev, q, sh, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(v.Destroy)
	return v, dev, q
}

func view(id uint64) hal.TextureView {
	return &gputest.Handle{Kind: gputest.KindTextureView, ID: id}
}

func frameInputs(samples uint32) Inputs {
	in := Inputs{
		Output:         view(9001),
		NearDepth:      view(9002),
		FarDepth:       view(9003),
		DepthStencil:   view(9004),
		StencilSamples: samples,
		NearProj:       depth.PerspectiveZO(mgl32.DegToRad(60), 16.0/9, 0.1, 100),
		FarProj:        depth.PerspectiveZO(mgl32.DegToRad(60), 16.0/9, 50, 20000),
		Width:          1280,
		Height:         720,
	}
	if samples > 1 {
		in.StencilSampled = view(9005)
	}
	return in
}

func render(v *Visualizer, mode Mode, in Inputs) *gputest.Encoder {
	enc := gputest.NewEncoder()
	v.State().Set(mode)
	v.Render(enc, in, nil)
	return enc
}

func TestNewBuildsFixedStates(t *testing.T) {
	_, dev, _ := newVisualizer(t, nil)
	if got := dev.Created(gputest.KindRenderPipeline); got != int(fixedCount)+8 {
		t.Fatalf("pipelines at startup = %d, want %d", got, int(fixedCount)+8)
	}
}

func TestNoneDrawsNothing(t *testing.T) {
	v, _, _ := newVisualizer(t, nil)
	enc := render(v, ModeNone, frameInputs(1))
	if len(enc.Events) != 0 {
		t.Fatalf("mode none recorded %d events", len(enc.Events))
	}
}

func TestDepthModesSingleOpaqueDraw(t *testing.T) {
	v, dev, _ := newVisualizer(t, nil)
	for _, m := range []Mode{ModeDepthLinear, ModeDepthLog, ModeDepthRaw} {
		t.Run(m.String(), func(t *testing.T) {
			enc := render(v, m, frameInputs(1))
			passes := enc.Passes()
			if len(passes) != 1 || passes[0] != "debugviz_depth" {
				t.Fatalf("passes = %v", passes)
			}
			if n := enc.Count(gputest.OpDraw); n != 1 {
				t.Fatalf("draws = %d, want 1", n)
			}
			if enc.Events[0].Pass.DepthStencilAttachment != nil {
				t.Error("depth view pass has a depth/stencil attachment")
			}
			p := enc.Filter(gputest.OpSetPipeline)[0].Pipeline
			desc := dev.PipelineDesc(p)
			if desc == nil || desc.DepthStencil != nil {
				t.Fatalf("depth pipeline desc = %+v", desc)
			}
			if desc.Fragment.Targets[0].Blend != nil {
				t.Error("depth view should be opaque")
			}
		})
	}
}

func TestStencilValuesLookupOrder(t *testing.T) {
	v, _, _ := newVisualizer(t, func(o *Options) { o.Config.StencilMaxRef = 3 })

	before := v.Stats().Equal.Lookups()
	enc := render(v, ModeStencilValues, frameInputs(1))
	if got := v.Stats().Equal.Lookups() - before; got != 3 {
		t.Fatalf("EQUAL lookups = %d, want 3", got)
	}

	events := enc.Filter(gputest.OpSetPipeline, gputest.OpStencilRef, gputest.OpDraw)
	if len(events) != 9 {
		t.Fatalf("got %d pipeline/ref/draw events, want 9", len(events))
	}
	var prevID uint64
	for i := 0; i < 3; i++ {
		ref := i + 1
		set, sref, draw := events[3*i], events[3*i+1], events[3*i+2]
		want, ok := v.states.equal.Get(ref)
		if !ok {
			t.Fatalf("EQUAL state %d not cached", ref)
		}
		if set.Op != gputest.OpSetPipeline || set.Pipeline != want {
			t.Errorf("draw %d: pipeline event %+v, want EQUAL state for ref %d", i, set, ref)
		}
		if sref.Op != gputest.OpStencilRef || sref.Ref != uint32(ref) {
			t.Errorf("draw %d: stencil ref event %+v, want %d", i, sref, ref)
		}
		if draw.Op != gputest.OpDraw || draw.Vertices != 3 {
			t.Errorf("draw %d: %+v", i, draw)
		}
		id := want.(*gputest.Handle).ID
		if id <= prevID {
			t.Errorf("ref %d state created out of order", ref)
		}
		prevID = id
	}

	// Reuse: same lookups, no new states.
	created := v.Stats().Equal.Creations
	render(v, ModeStencilValues, frameInputs(1))
	if v.Stats().Equal.Creations != created {
		t.Error("second frame created new EQUAL states")
	}
}

func TestStencilPassAttachesReadOnlyDepthStencil(t *testing.T) {
	v, _, _ := newVisualizer(t, nil)
	in := frameInputs(1)
	enc := render(v, ModeStencilNonzero, in)
	if n := enc.Count(gputest.OpDraw); n != 1 {
		t.Fatalf("draws = %d, want 1", n)
	}
	ds := enc.Events[0].Pass.DepthStencilAttachment
	if ds == nil || ds.View != in.DepthStencil || !ds.StencilReadOnly || !ds.DepthReadOnly {
		t.Fatalf("depth/stencil attachment = %+v", ds)
	}
}

func TestStencilBitsReadMasks(t *testing.T) {
	v, dev, _ := newVisualizer(t, nil)
	enc := render(v, ModeStencilBits, frameInputs(1))
	sets := enc.Filter(gputest.OpSetPipeline)
	if len(sets) != 8 || enc.Count(gputest.OpDraw) != 8 {
		t.Fatalf("pipelines %d draws %d, want 8 each", len(sets), enc.Count(gputest.OpDraw))
	}
	for bit, ev := range sets {
		ds := dev.PipelineDesc(ev.Pipeline).DepthStencil
		if ds.StencilReadMask != 1<<bit || ds.StencilFront.Compare != gputypes.CompareFunctionNotEqual {
			t.Errorf("bit %d: mask %#x compare %v", bit, ds.StencilReadMask, ds.StencilFront.Compare)
		}
		if ds.StencilWriteMask != 0 || ds.DepthWriteEnabled {
			t.Errorf("bit %d: overlay writes depth/stencil", bit)
		}
	}
}

func TestNonzeroAlwaysPassDiagnostic(t *testing.T) {
	v, dev, _ := newVisualizer(t, func(o *Options) { o.Config.StencilAlwaysPass = true })
	enc := render(v, ModeStencilNonzero, frameInputs(1))
	p := enc.Filter(gputest.OpSetPipeline)[0].Pipeline
	if got := dev.PipelineDesc(p).DepthStencil.StencilFront.Compare; got != gputypes.CompareFunctionAlways {
		t.Fatalf("compare = %v, want always", got)
	}
}

func TestCombinedDrawsDepthThenOverlay(t *testing.T) {
	v, _, _ := newVisualizer(t, nil)
	enc := render(v, ModeCombined, frameInputs(1))
	passes := enc.Passes()
	if len(passes) != 2 || passes[0] != "debugviz_depth" || passes[1] != "debugviz_stencil" {
		t.Fatalf("passes = %v", passes)
	}
	if n := enc.Count(gputest.OpDraw); n != 1+8 {
		t.Fatalf("draws = %d, want 9", n)
	}
}

func TestMSAAGuard(t *testing.T) {
	v, _, _ := newVisualizer(t, nil)

	for _, m := range []Mode{ModeStencilNonzero, ModeStencilValues, ModeStencilBits} {
		enc := render(v, m, frameInputs(4))
		if len(enc.Events) != 0 {
			t.Errorf("%v over MSAA recorded %d events, want none", m, len(enc.Events))
		}
		if !v.LastFrame().StencilSkipped || !v.MSAAWarning() {
			t.Errorf("%v: skip not reported", m)
		}
	}

	equalBefore := v.Stats().Equal.Lookups()
	enc := render(v, ModeCombined, frameInputs(4))
	passes := enc.Passes()
	if len(passes) != 2 {
		t.Fatalf("combined over MSAA passes = %v", passes)
	}
	if n := enc.Count(gputest.OpDraw); n != 1+8 {
		t.Fatalf("combined over MSAA draws = %d, want 9", n)
	}
	if enc.Filter(gputest.OpBeginPass)[1].Pass.DepthStencilAttachment != nil {
		t.Error("sampled overlay must not attach the multisampled depth/stencil")
	}
	if enc.Count(gputest.OpStencilRef) != 0 {
		t.Error("sampled overlay set a stencil reference")
	}
	if v.Stats().Equal.Lookups() != equalBefore {
		t.Error("sampled overlay used hardware EQUAL states")
	}
	if v.Stats().Sampled.Creations != 1 {
		t.Errorf("sampled pipeline creations = %d", v.Stats().Sampled.Creations)
	}
	if v.MSAAWarning() {
		t.Error("combined mode should not warn")
	}
}

func TestCombinedMSAAWithoutSampledView(t *testing.T) {
	v, _, _ := newVisualizer(t, nil)
	in := frameInputs(4)
	in.StencilSampled = nil

	enc := render(v, ModeCombined, in)
	if passes := enc.Passes(); len(passes) != 1 || passes[0] != "debugviz_depth" {
		t.Fatalf("passes = %v, want the depth pass only", passes)
	}
	if !v.LastFrame().StencilSkipped || !v.MSAAWarning() {
		t.Error("dropped overlay not reported")
	}

	render(v, ModeCombined, frameInputs(4))
	if v.MSAAWarning() {
		t.Error("warning should clear once the sampled view is provided")
	}
}

func TestDepthBrightnessUploadedForEveryDepthMode(t *testing.T) {
	v, _, q := newVisualizer(t, func(o *Options) { o.Config.DepthBrightness = 0.4 })
	for _, m := range []Mode{ModeDepthLinear, ModeDepthLog, ModeDepthRaw, ModeCombined} {
		render(v, m, frameInputs(1))
		data := q.LastWrite(v.globals)
		if len(data) < 76 {
			t.Fatalf("%v: globals write is %d bytes", m, len(data))
		}
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[72:]))
		if got != 0.4 {
			t.Errorf("%v: brightness = %v, want 0.4", m, got)
		}
	}
}

func TestMissingViewsSkipDraws(t *testing.T) {
	v, _, _ := newVisualizer(t, nil)

	in := frameInputs(1)
	in.NearDepth = nil
	if enc := render(v, ModeDepthLinear, in); len(enc.Events) != 0 {
		t.Errorf("depth without a depth view recorded %d events", len(enc.Events))
	}

	in = frameInputs(1)
	in.DepthStencil = nil
	if enc := render(v, ModeStencilValues, in); len(enc.Events) != 0 {
		t.Errorf("stencil without an attachment recorded %d events", len(enc.Events))
	}
	enc := render(v, ModeCombined, in)
	if n := enc.Count(gputest.OpDraw); n != 1 {
		t.Errorf("combined without stencil draws = %d, want the depth draw only", n)
	}

	in = frameInputs(1)
	in.Output = nil
	if enc := render(v, ModeCombined, in); len(enc.Events) != 0 {
		t.Error("no output target should record nothing")
	}
}

func TestWriteFailureDrawsStale(t *testing.T) {
	v, _, q := newVisualizer(t, nil)
	q.FailWrites(10)
	enc := render(v, ModeCombined, frameInputs(1))
	if n := enc.Count(gputest.OpDraw); n != 9 {
		t.Fatalf("draws after failed uploads = %d, want 9", n)
	}
	if q.Writes() != 0 {
		t.Fatalf("writes = %d, want all failed", q.Writes())
	}
}

func TestFrameBindGroupsReleased(t *testing.T) {
	v, dev, _ := newVisualizer(t, nil)
	base := dev.Live(gputest.KindBindGroup)
	render(v, ModeDepthLinear, frameInputs(1))
	render(v, ModeDepthLinear, frameInputs(1))
	if got := dev.Live(gputest.KindBindGroup) - base; got != 1 {
		t.Fatalf("live per-frame bind groups = %d, want 1", got)
	}
	v.BeginFrame()
	if got := dev.Live(gputest.KindBindGroup); got != base {
		t.Fatalf("live after BeginFrame = %d, want %d", got, base)
	}
}

func TestStartupFailureLeavesNothing(t *testing.T) {
	dev, q := gputest.NewDevice(t)
	sh := shaders.NewProvider(dev, shaders.FormatWGSL)
	defer sh.Destroy()
	dev.Fail(gputest.KindRenderPipeline, 1)

	v, err := New(dev, q, sh, DefaultOptions())
	if err == nil {
		t.Fatal("expected an error")
	}
	if v.Enabled() {
		t.Fatal("failed visualizer reports enabled")
	}
	v.Render(gputest.NewEncoder(), frameInputs(1), nil)
	for _, kind := range []string{
		gputest.KindBuffer, gputest.KindBindGroup, gputest.KindBindGroupLayout,
		gputest.KindPipelineLayout, gputest.KindRenderPipeline,
	} {
		if n := dev.Live(kind); n != 0 {
			t.Errorf("%s leaked: %d live", kind, n)
		}
	}
}

func TestHandleInput(t *testing.T) {
	v, _, _ := newVisualizer(t, nil)
	down := map[gpucontext.Key]bool{gpucontext.KeyF10: true}
	if !v.HandleInput(func(k gpucontext.Key) bool { return down[k] }) {
		t.Fatal("F10 did not change the mode")
	}
	if v.Mode() != ModeDepthLinear {
		t.Fatalf("mode = %v", v.Mode())
	}
}

func TestNilVisualizerIsInert(t *testing.T) {
	var v *Visualizer
	v.Render(gputest.NewEncoder(), frameInputs(1), nil)
	v.BeginFrame()
	v.Destroy()
	if v.Enabled() || v.HandleInput(nil) || v.Mode() != ModeNone {
		t.Fatal("nil visualizer should be inert")
	}
}
