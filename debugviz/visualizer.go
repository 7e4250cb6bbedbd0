// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package debugviz

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/depth"
	"github.com/gogpu/screenfx/internal/logging"
	"github.com/gogpu/screenfx/internal/shaders"
	"github.com/gogpu/screenfx/internal/uniform"
	"github.com/gogpu/screenfx/profiler"
)

// Uniform layouts, matching debug_visualizer.wgsl.
const (
	globalsSize    = 96 // 4 x vec4 + 8 x 4-byte scalars
	drawParamsSize = 32 // vec4 color + ref, mask, func, pad
	drawSlots      = 64 // depth draw + up to 32 values or 8 bits per frame
)

// Stencil tests evaluated by fs_stencil_sampled.
const (
	sampledAlways  uint32 = 0
	sampledEqual   uint32 = 1
	sampledMaskSet uint32 = 2
)

// ErrNilDevice is returned by New without a device or queue.
var ErrNilDevice = errors.New("debugviz: nil device or queue")

// Options configures a Visualizer at creation.
type Options struct {
	OutputFormat       gputypes.TextureFormat
	DepthStencilFormat gputypes.TextureFormat
	Config             Config
	Mode               Mode
	Bindings           Bindings
}

// DefaultOptions targets a BGRA8 swapchain with a 24/8 depth-stencil buffer.
func DefaultOptions() Options {
	return Options{
		OutputFormat:       gputypes.TextureFormatBGRA8Unorm,
		DepthStencilFormat: gputypes.TextureFormatDepth24PlusStencil8,
		Config:             DefaultConfig(),
		Bindings:           DefaultBindings(),
	}
}

// Inputs are the per-frame views the visualizer reads. Any nil view skips
// the draws that need it.
type Inputs struct {
	// Output is the color target drawn over.
	Output hal.TextureView
	// NearDepth and FarDepth are single-sampled depth-aspect views.
	NearDepth hal.TextureView
	FarDepth  hal.TextureView
	// DepthStencil is attached read-only for hardware stencil tests.
	DepthStencil   hal.TextureView
	StencilSamples uint32
	// StencilSampled is a stencil-aspect view of a multisampled
	// depth-stencil texture. Combined mode needs it when StencilSamples > 1
	// and drops the overlay without it.
	StencilSampled hal.TextureView

	NearProj mgl32.Mat4
	FarProj  mgl32.Mat4
	Width    uint32
	Height   uint32
}

// FrameStats describes the work recorded by the last Render.
type FrameStats struct {
	Mode           Mode
	Passes         int
	Draws          int
	StencilSkipped bool // stencil overlay dropped for a multisampled source
}

type drawKind uint8

const (
	drawFixed drawKind = iota
	drawEqual
	drawBit
)

type stencilDraw struct {
	kind  drawKind
	key   int
	ref   uint32
	color mgl32.Vec4
	fn    uint32
	mask  uint32
}

// Visualizer renders the active debug view onto an output target.
type Visualizer struct {
	device hal.Device
	queue  hal.Queue
	opts   Options
	cfg    Config

	state   *State
	hotkeys *Hotkeys

	vs        shaders.Shader
	fsDepth   shaders.Shader
	fsStencil shaders.Shader
	fsSampled shaders.Shader

	drawLayout  hal.BindGroupLayout
	depthLayout hal.BindGroupLayout
	msLayout    hal.BindGroupLayout
	depthPL     hal.PipelineLayout
	stencilPL   hal.PipelineLayout
	sampledPL   hal.PipelineLayout

	states    *StencilStates
	globals   hal.Buffer
	draws     *uniform.Ring
	drawGroup hal.BindGroup

	frameGroups []hal.BindGroup
	plan        []stencilDraw
	w           *uniform.Writer

	frame FrameStats
}

// New compiles the shaders and builds the fixed pipelines. On error nothing
// is leaked and the visualizer must not be used; every method of a nil
// *Visualizer is a no-op.
func New(device hal.Device, queue hal.Queue, sh *shaders.Provider, opts Options) (*Visualizer, error) {
	if device == nil || queue == nil || sh == nil {
		return nil, ErrNilDevice
	}
	v := &Visualizer{
		device:  device,
		queue:   queue,
		opts:    opts,
		cfg:     opts.Config.Normalized(),
		state:   NewState(opts.Mode),
		hotkeys: NewHotkeys(opts.Bindings),
		w:       uniform.NewWriter(globalsSize),
	}
	if err := v.init(sh); err != nil {
		v.Destroy()
		return nil, fmt.Errorf("debugviz: %w", err)
	}
	logging.Logger().Debug("debugviz: ready",
		"output", opts.OutputFormat, "depth_stencil", opts.DepthStencilFormat)
	return v, nil
}

func (v *Visualizer) init(sh *shaders.Provider) error { //nolint:funlen // layout and pipeline descriptors are verbose
	var err error
	group := shaders.GroupDebugVisualizer
	if v.vs, err = sh.VertexShader(group, "vs_fullscreen"); err != nil {
		return err
	}
	if v.fsDepth, err = sh.PixelShader(group, "fs_depth"); err != nil {
		return err
	}
	if v.fsStencil, err = sh.PixelShader(group, "fs_stencil"); err != nil {
		return err
	}
	if v.fsSampled, err = sh.PixelShader(group, "fs_stencil_sampled"); err != nil {
		return err
	}

	v.drawLayout, err = v.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "debugviz_draw_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type:             gputypes.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   drawParamsSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create draw layout: %w", err)
	}

	depthTex := &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeDepth,
		ViewDimension: gputypes.TextureViewDimension2D,
	}
	v.depthLayout, err = v.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "debugviz_depth_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform, MinBindingSize: globalsSize},
			},
			{Binding: 1, Visibility: gputypes.ShaderStageFragment, Texture: depthTex},
			{Binding: 2, Visibility: gputypes.ShaderStageFragment, Texture: depthTex},
		},
	})
	if err != nil {
		return fmt.Errorf("create depth layout: %w", err)
	}

	v.msLayout, err = v.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "debugviz_stencil_ms_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeUint,
					ViewDimension: gputypes.TextureViewDimension2D,
					Multisampled:  true,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create stencil sample layout: %w", err)
	}

	if v.depthPL, err = v.pipelineLayout("debugviz_depth_pl", v.drawLayout, v.depthLayout); err != nil {
		return err
	}
	if v.stencilPL, err = v.pipelineLayout("debugviz_stencil_pl", v.drawLayout); err != nil {
		return err
	}
	if v.sampledPL, err = v.pipelineLayout("debugviz_sampled_pl", v.drawLayout, v.msLayout); err != nil {
		return err
	}

	v.globals, err = v.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "debugviz_globals",
		Size:  globalsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create globals buffer: %w", err)
	}

	v.draws, err = uniform.NewRing(v.device, "debugviz_draws", drawParamsSize, drawSlots)
	if err != nil {
		return err
	}
	v.drawGroup, err = v.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "debugviz_draw_group",
		Layout: v.drawLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: v.draws.Buffer().NativeHandle(),
				Size:   v.draws.BindingSize(),
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create draw bind group: %w", err)
	}

	v.states, err = NewStencilStates(v.buildPipeline, v.buildSampledPipeline)
	return err
}

func (v *Visualizer) pipelineLayout(label string, layouts ...hal.BindGroupLayout) (hal.PipelineLayout, error) {
	pl, err := v.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return pl, nil
}

func (v *Visualizer) buildPipeline(t StencilTest) (hal.RenderPipeline, error) {
	desc := &hal.RenderPipelineDescriptor{
		Vertex: hal.VertexState{Module: v.vs.Module, EntryPoint: v.vs.Entry},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	}

	if !t.Enabled {
		// Opaque depth view, no depth/stencil attachment.
		desc.Label = "debugviz_depth"
		desc.Layout = v.depthPL
		desc.Fragment = &hal.FragmentState{
			Module:     v.fsDepth.Module,
			EntryPoint: v.fsDepth.Entry,
			Targets: []gputypes.ColorTargetState{
				{Format: v.opts.OutputFormat, WriteMask: gputypes.ColorWriteMaskAll},
			},
		}
	} else {
		blend := gputypes.BlendStateAlpha()
		face := hal.StencilFaceState{
			Compare:     t.Compare,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		desc.Label = fmt.Sprintf("debugviz_stencil_cmp%d_mask%02x", uint32(t.Compare), t.ReadMask)
		desc.Layout = v.stencilPL
		desc.Fragment = &hal.FragmentState{
			Module:     v.fsStencil.Module,
			EntryPoint: v.fsStencil.Entry,
			Targets: []gputypes.ColorTargetState{
				{Format: v.opts.OutputFormat, Blend: &blend, WriteMask: gputypes.ColorWriteMaskAll},
			},
		}
		desc.DepthStencil = &hal.DepthStencilState{
			Format:            v.opts.DepthStencilFormat,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionAlways,
			StencilFront:      face,
			StencilBack:       face,
			StencilReadMask:   t.ReadMask,
			StencilWriteMask:  0,
		}
	}

	p, err := v.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", desc.Label, err)
	}
	logging.Logger().Debug("debugviz: pipeline created", "label", desc.Label)
	return p, nil
}

func (v *Visualizer) buildSampledPipeline() (hal.RenderPipeline, error) {
	blend := gputypes.BlendStateAlpha()
	p, err := v.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "debugviz_stencil_sampled",
		Layout: v.sampledPL,
		Vertex: hal.VertexState{Module: v.vs.Module, EntryPoint: v.vs.Entry},
		Fragment: &hal.FragmentState{
			Module:     v.fsSampled.Module,
			EntryPoint: v.fsSampled.Entry,
			Targets: []gputypes.ColorTargetState{
				{Format: v.opts.OutputFormat, Blend: &blend, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("create sampled stencil pipeline: %w", err)
	}
	return p, nil
}

// Enabled reports whether v can draw.
func (v *Visualizer) Enabled() bool { return v != nil && v.states != nil }

// State returns the mode automaton.
func (v *Visualizer) State() *State {
	if v == nil {
		return &State{}
	}
	return v.state
}

// Mode returns the active mode.
func (v *Visualizer) Mode() Mode { return v.State().Mode() }

// Config returns the normalized configuration.
func (v *Visualizer) Config() Config {
	if v == nil {
		return DefaultConfig()
	}
	return v.cfg
}

// SetConfig replaces the configuration, clamping out-of-range fields.
func (v *Visualizer) SetConfig(c Config) {
	if v == nil {
		return
	}
	v.cfg = c.Normalized()
}

// HandleInput polls the hotkeys and updates the mode. It reports whether the
// mode changed.
func (v *Visualizer) HandleInput(isDown func(gpucontext.Key) bool) bool {
	if v == nil {
		return false
	}
	if !v.hotkeys.Apply(v.state, isDown) {
		return false
	}
	logging.Logger().Info("debugviz: mode changed", "mode", v.state.Mode().String())
	return true
}

// MSAAWarning reports whether the last frame dropped its stencil overlay
// because the source is multisampled. Standalone stencil modes always do;
// combined mode does only when Inputs.StencilSampled is missing.
func (v *Visualizer) MSAAWarning() bool {
	return v != nil && v.frame.StencilSkipped
}

// Stats returns the pipeline cache counters.
func (v *Visualizer) Stats() StatesStats {
	if !v.Enabled() {
		return StatesStats{}
	}
	return v.states.Stats()
}

// LastFrame describes what the last Render recorded.
func (v *Visualizer) LastFrame() FrameStats {
	if v == nil {
		return FrameStats{}
	}
	return v.frame
}

// BeginFrame releases the bind groups of the previous frame.
func (v *Visualizer) BeginFrame() {
	if v == nil {
		return
	}
	for _, g := range v.frameGroups {
		v.device.DestroyBindGroup(g)
	}
	v.frameGroups = v.frameGroups[:0]
}

// Render records the active view into enc. It never fails: missing inputs
// and unavailable states skip the affected draws.
func (v *Visualizer) Render(enc hal.CommandEncoder, in Inputs, prof profiler.Group) {
	if !v.Enabled() {
		return
	}
	mode := v.state.Mode()
	v.frame = FrameStats{Mode: mode}
	if mode == ModeNone || enc == nil || in.Output == nil {
		return
	}

	scope := profiler.OrNop(prof).Start("debug_visualizer")
	defer scope.End()

	v.BeginFrame()
	v.draws.Reset()

	if mode.IsDepth() {
		v.renderDepth(enc, in, mode)
	}
	if mode.IsStencil() {
		v.renderStencil(enc, in, mode)
	}

	// Queue writes land before the command buffer that holds these draws.
	if err := v.draws.Flush(v.queue); err != nil {
		logging.Logger().Debug("debugviz: draw params upload failed, drawing stale data", "err", err)
	}
}

func (v *Visualizer) renderDepth(enc hal.CommandEncoder, in Inputs, mode Mode) {
	if in.NearDepth == nil {
		return
	}
	pipeline, err := v.states.Fixed(FixedDisabled)
	if err != nil {
		logging.Logger().Debug("debugviz: depth pipeline unavailable", "err", err)
		return
	}

	far := in.FarDepth
	dual := v.cfg.ViewSource() != 0
	if far == nil {
		far = in.NearDepth
		dual = false
	}
	v.writeGlobals(in, mode, dual)

	group, err := v.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "debugviz_depth_group",
		Layout: v.depthLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: v.globals.NativeHandle(), Size: globalsSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: in.NearDepth.NativeHandle()}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: far.NativeHandle()}},
		},
	})
	if err != nil {
		logging.Logger().Debug("debugviz: depth bind group failed", "err", err)
		return
	}
	v.frameGroups = append(v.frameGroups, group)

	off, err := v.draws.Push(make([]byte, drawParamsSize))
	if err != nil {
		logging.Logger().Debug("debugviz: draw slot unavailable", "err", err)
		return
	}

	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "debugviz_depth",
		ColorAttachments: []hal.RenderPassColorAttachment{loadAttachment(in.Output)},
	})
	v.frame.Passes++
	setViewport(pass, in)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, v.drawGroup, []uint32{off})
	pass.SetBindGroup(1, group, nil)
	pass.Draw(3, 1, 0, 0)
	v.frame.Draws++
	pass.End()
}

func (v *Visualizer) writeGlobals(in Inputs, mode Mode, dual bool) {
	pair := depth.NewPair(in.NearProj, in.FarProj)
	var dualFlag uint32
	if dual {
		dualFlag = 1
	}
	v.w.Reset().
		Vec4(pair.Vec4()).
		Vec4(rgba(v.cfg.NearColor, 1)).
		Vec4(rgba(v.cfg.FarColor, 1)).
		Vec4(rgba(v.cfg.SkyColor, 1)).
		F32(v.cfg.MaxDepthDistance).
		F32(v.cfg.LogScale).
		F32(v.cfg.DepthBrightness).
		F32(v.cfg.SkyThreshold).
		U32(mode.DepthView()).
		U32(v.cfg.ViewSource()).
		U32(dualFlag).
		U32(0)
	if err := v.queue.WriteBuffer(v.globals, 0, v.w.Bytes()); err != nil {
		logging.Logger().Debug("debugviz: globals upload failed, drawing stale data", "err", err)
	}
}

func (v *Visualizer) renderStencil(enc hal.CommandEncoder, in Inputs, mode Mode) {
	msaa := in.StencilSamples > 1
	if msaa && mode != ModeCombined {
		v.frame.StencilSkipped = true
		return
	}

	desc := &hal.RenderPassDescriptor{
		Label:            "debugviz_stencil",
		ColorAttachments: []hal.RenderPassColorAttachment{loadAttachment(in.Output)},
	}
	var msGroup hal.BindGroup
	if msaa {
		if in.StencilSampled == nil {
			v.frame.StencilSkipped = true
			return
		}
		g, err := v.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "debugviz_stencil_ms_group",
			Layout: v.msLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 3, Resource: gputypes.TextureViewBinding{TextureView: in.StencilSampled.NativeHandle()}},
			},
		})
		if err != nil {
			logging.Logger().Debug("debugviz: stencil sample bind group failed", "err", err)
			return
		}
		v.frameGroups = append(v.frameGroups, g)
		msGroup = g
	} else {
		if in.DepthStencil == nil {
			return
		}
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:            in.DepthStencil,
			DepthReadOnly:   true,
			StencilReadOnly: true,
		}
	}

	v.planStencil(mode.stencilSubMode(v.cfg.CombinedStencil))

	pass := enc.BeginRenderPass(desc)
	v.frame.Passes++
	setViewport(pass, in)
	for _, d := range v.plan {
		pipeline, err := v.lookup(d, msaa)
		if err != nil {
			logging.Logger().Debug("debugviz: stencil pipeline unavailable", "key", d.key, "err", err)
			continue
		}
		v.w.Reset().Vec4(d.color).U32(d.ref).U32(d.mask).U32(d.fn).U32(0)
		off, err := v.draws.Push(v.w.Bytes())
		if err != nil {
			logging.Logger().Debug("debugviz: draw slot unavailable", "err", err)
			continue
		}
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, v.drawGroup, []uint32{off})
		if msaa {
			pass.SetBindGroup(1, msGroup, nil)
		} else {
			pass.SetStencilReference(d.ref)
		}
		pass.Draw(3, 1, 0, 0)
		v.frame.Draws++
	}
	pass.End()
}

// planStencil lists the overlay draws for sub in submission order.
func (v *Visualizer) planStencil(sub CombinedSubMode) {
	alpha := v.cfg.StencilOverlayAlpha
	v.plan = v.plan[:0]
	switch sub {
	case SubModeNonzero:
		d := stencilDraw{
			kind:  drawFixed,
			key:   int(FixedNotEqualZero),
			color: NonzeroColor(v.cfg.StencilAlwaysPass, alpha),
			fn:    sampledMaskSet,
			mask:  0xFF,
		}
		if v.cfg.StencilAlwaysPass {
			d.key = int(FixedAlways)
			d.fn = sampledAlways
		}
		v.plan = append(v.plan, d)
	case SubModeValues:
		for ref := 1; ref <= v.cfg.StencilMaxRef; ref++ {
			v.plan = append(v.plan, stencilDraw{
				kind:  drawEqual,
				key:   ref,
				ref:   uint32(ref),
				color: ValueColor(ref, alpha),
				fn:    sampledEqual,
				mask:  0xFF,
			})
		}
	case SubModeBitmask:
		for bit := 0; bit < 8; bit++ {
			v.plan = append(v.plan, stencilDraw{
				kind:  drawBit,
				key:   bit,
				color: BitColor(bit, alpha),
				fn:    sampledMaskSet,
				mask:  1 << bit,
			})
		}
	}
}

func (v *Visualizer) lookup(d stencilDraw, msaa bool) (hal.RenderPipeline, error) {
	if msaa {
		return v.states.Sampled()
	}
	switch d.kind {
	case drawEqual:
		return v.states.Equal(d.key)
	case drawBit:
		return v.states.Bit(d.key)
	default:
		return v.states.Fixed(Fixed(d.key))
	}
}

func loadAttachment(view hal.TextureView) hal.RenderPassColorAttachment {
	return hal.RenderPassColorAttachment{
		View:    view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
}

func setViewport(pass hal.RenderPassEncoder, in Inputs) {
	if in.Width == 0 || in.Height == 0 {
		return
	}
	pass.SetViewport(0, 0, float32(in.Width), float32(in.Height), 0, 1)
}

// Destroy releases every GPU resource. Shader modules belong to the
// provider.
func (v *Visualizer) Destroy() {
	if v == nil {
		return
	}
	v.BeginFrame()
	if v.states != nil {
		v.states.Destroy(v.device.DestroyRenderPipeline)
		v.states = nil
	}
	if v.drawGroup != nil {
		v.device.DestroyBindGroup(v.drawGroup)
		v.drawGroup = nil
	}
	if v.draws != nil {
		v.draws.Destroy()
		v.draws = nil
	}
	if v.globals != nil {
		v.device.DestroyBuffer(v.globals)
		v.globals = nil
	}
	for _, pl := range []hal.PipelineLayout{v.depthPL, v.stencilPL, v.sampledPL} {
		if pl != nil {
			v.device.DestroyPipelineLayout(pl)
		}
	}
	v.depthPL, v.stencilPL, v.sampledPL = nil, nil, nil
	for _, l := range []hal.BindGroupLayout{v.drawLayout, v.depthLayout, v.msLayout} {
		if l != nil {
			v.device.DestroyBindGroupLayout(l)
		}
	}
	v.drawLayout, v.depthLayout, v.msLayout = nil, nil, nil
}
