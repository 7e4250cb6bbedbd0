// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package fog

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/camera"
	"github.com/gogpu/screenfx/internal/logging"
	"github.com/gogpu/screenfx/internal/shaders"
	"github.com/gogpu/screenfx/internal/uniform"
	"github.com/gogpu/screenfx/profiler"
)

// uniformSize matches FogUniforms in fog.wgsl.
const uniformSize = 144

// ErrNilDevice is returned by New without a device, queue or shader provider.
var ErrNilDevice = errors.New("fog: nil device or queue")

// Inputs are the per-frame resources the pass reads.
type Inputs struct {
	Output hal.TextureView
	// Depth is a single-sampled depth-aspect view of the scene.
	Depth  hal.TextureView
	Camera camera.Camera
	Width  uint32
	Height uint32
}

// Pass draws fog over the output with alpha blending.
type Pass struct {
	device hal.Device
	queue  hal.Queue
	params Params

	layout   hal.BindGroupLayout
	pl       hal.PipelineLayout
	pipeline hal.RenderPipeline
	uniforms hal.Buffer
	w        *uniform.Writer

	frameGroups []hal.BindGroup
	draws       int
}

// New builds the fog pipeline for the given output format. On error the
// returned pass is nil; a nil *Pass draws nothing.
func New(device hal.Device, queue hal.Queue, sh *shaders.Provider, format gputypes.TextureFormat, params Params) (*Pass, error) {
	if device == nil || queue == nil || sh == nil {
		return nil, ErrNilDevice
	}
	p := &Pass{
		device: device,
		queue:  queue,
		params: params.Normalized(),
		w:      uniform.NewWriter(uniformSize),
	}
	if err := p.init(sh, format); err != nil {
		p.Destroy()
		return nil, fmt.Errorf("fog: %w", err)
	}
	return p, nil
}

func (p *Pass) init(sh *shaders.Provider, format gputypes.TextureFormat) error {
	vs, err := sh.VertexShader(shaders.GroupFog, "vs_fullscreen")
	if err != nil {
		return err
	}
	fs, err := sh.PixelShader(shaders.GroupFog, "fs_fog")
	if err != nil {
		return err
	}

	p.layout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "fog_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform, MinBindingSize: uniformSize},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeDepth,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create layout: %w", err)
	}
	p.pl, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "fog_pl",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	blend := gputypes.BlendStateAlpha()
	p.pipeline, err = p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "fog",
		Layout: p.pl,
		Vertex: hal.VertexState{Module: vs.Module, EntryPoint: vs.Entry},
		Fragment: &hal.FragmentState{
			Module:     fs.Module,
			EntryPoint: fs.Entry,
			Targets: []gputypes.ColorTargetState{
				{Format: format, Blend: &blend, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	p.uniforms, err = p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "fog_uniforms",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	return nil
}

// Ready reports whether the pass was built successfully.
func (p *Pass) Ready() bool { return p != nil && p.pipeline != nil }

// Enabled reports whether Render draws anything.
func (p *Pass) Enabled() bool { return p.Ready() && p.params.Enabled }

// Params returns the normalized parameters.
func (p *Pass) Params() Params {
	if p == nil {
		return DefaultParams()
	}
	return p.params
}

// SetParams replaces the parameters.
func (p *Pass) SetParams(params Params) {
	if p == nil {
		return
	}
	p.params = params.Normalized()
}

// Draws returns the number of draws recorded by the last Render.
func (p *Pass) Draws() int {
	if p == nil {
		return 0
	}
	return p.draws
}

// BeginFrame releases the bind groups of the previous frame.
func (p *Pass) BeginFrame() {
	if p == nil {
		return
	}
	for _, g := range p.frameGroups {
		p.device.DestroyBindGroup(g)
	}
	p.frameGroups = p.frameGroups[:0]
}

// Render blends fog over in.Output. Missing views or an invalid camera skip
// the frame.
func (p *Pass) Render(enc hal.CommandEncoder, in Inputs, prof profiler.Group) {
	if !p.Enabled() {
		return
	}
	p.draws = 0
	if enc == nil || in.Output == nil || in.Depth == nil || !in.Camera.Valid() {
		return
	}

	scope := profiler.OrNop(prof).Start("fog")
	defer scope.End()

	p.BeginFrame()
	if err := p.queue.WriteBuffer(p.uniforms, 0, p.pack(in.Camera)); err != nil {
		logging.Logger().Debug("fog: uniform upload failed, drawing stale data", "err", err)
	}

	group, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "fog_group",
		Layout: p.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: p.uniforms.NativeHandle(), Size: uniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: in.Depth.NativeHandle()}},
		},
	})
	if err != nil {
		logging.Logger().Debug("fog: bind group failed", "err", err)
		return
	}
	p.frameGroups = append(p.frameGroups, group)

	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "fog",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{View: in.Output, LoadOp: gputypes.LoadOpLoad, StoreOp: gputypes.StoreOpStore},
		},
	})
	if in.Width > 0 && in.Height > 0 {
		pass.SetViewport(0, 0, float32(in.Width), float32(in.Height), 0, 1)
	}
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, group, nil)
	pass.Draw(3, 1, 0, 0)
	p.draws++
	pass.End()
}

func (p *Pass) pack(cam camera.Camera) []byte {
	prm := p.params
	dp := cam.Depth()
	c := prm.Color
	return p.w.Reset().
		Mat4(cam.InvViewProj()).
		Vec4(cam.Position.Vec4(1)).
		Vec4(mgl32.Vec4{float32(c.R), float32(c.G), float32(c.B), prm.MaxOpacity}).
		Vec4(mgl32.Vec4{prm.Density, prm.HeightFalloff, prm.Start, prm.BaseHeight}).
		Vec4(mgl32.Vec4{dp.Mul, dp.Add, prm.SkyThreshold, prm.DebugMaxDistance}).
		U32(uint32(prm.Debug)).
		U32(0).U32(0).U32(0).
		Bytes()
}

// Destroy releases every GPU resource.
func (p *Pass) Destroy() {
	if p == nil {
		return
	}
	p.BeginFrame()
	if p.uniforms != nil {
		p.device.DestroyBuffer(p.uniforms)
		p.uniforms = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pl != nil {
		p.device.DestroyPipelineLayout(p.pl)
		p.pl = nil
	}
	if p.layout != nil {
		p.device.DestroyBindGroupLayout(p.layout)
		p.layout = nil
	}
}
