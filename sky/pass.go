// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package sky

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/camera"
	"github.com/gogpu/screenfx/internal/logging"
	"github.com/gogpu/screenfx/internal/shaders"
	"github.com/gogpu/screenfx/internal/textures"
	"github.com/gogpu/screenfx/internal/uniform"
	"github.com/gogpu/screenfx/profiler"
)

// uniformSize matches SkyUniforms in sky.wgsl.
const uniformSize = 208

// DefaultCubemap is the texture name tried after Params.AtmosphereTexture.
// Hosts register their atmosphere cube under it with
// Compositor.RegisterTexture.
const DefaultCubemap = textures.NameSkyAtmosphere

// ErrNilDevice is returned by New without a device, queue, shader or
// texture provider.
var ErrNilDevice = errors.New("sky: nil device or queue")

// Inputs are the per-frame resources the pass reads.
type Inputs struct {
	Output hal.TextureView
	// NearDepth is required. FarDepth is optional; when set, a pixel must
	// be at the far plane in both.
	NearDepth hal.TextureView
	FarDepth  hal.TextureView
	Camera    camera.Camera
	Width     uint32
	Height    uint32
}

// Pass draws the atmosphere dome behind the scene.
type Pass struct {
	device hal.Device
	queue  hal.Queue
	tex    *textures.Provider
	params Params

	layout   hal.BindGroupLayout
	pl       hal.PipelineLayout
	pipeline hal.RenderPipeline
	uniforms hal.Buffer
	w        *uniform.Writer

	frameGroups []hal.BindGroup
	draws       int
	cubemap     string
}

// New builds the sky pipeline for the given output format. On error the
// returned pass is nil; a nil *Pass draws nothing.
func New(device hal.Device, queue hal.Queue, sh *shaders.Provider, tex *textures.Provider, format gputypes.TextureFormat, params Params) (*Pass, error) {
	if device == nil || queue == nil || sh == nil || tex == nil {
		return nil, ErrNilDevice
	}
	p := &Pass{
		device: device,
		queue:  queue,
		tex:    tex,
		params: params.Normalized(),
		w:      uniform.NewWriter(uniformSize),
	}
	if err := p.init(sh, format); err != nil {
		p.Destroy()
		return nil, fmt.Errorf("sky: %w", err)
	}
	return p, nil
}

func (p *Pass) init(sh *shaders.Provider, format gputypes.TextureFormat) error {
	vs, err := sh.VertexShader(shaders.GroupSky, "vs_fullscreen")
	if err != nil {
		return err
	}
	fs, err := sh.PixelShader(shaders.GroupSky, "fs_sky")
	if err != nil {
		return err
	}

	frag := gputypes.ShaderStageFragment
	depthTex := &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeDepth,
		ViewDimension: gputypes.TextureViewDimension2D,
	}
	p.layout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sky_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: frag, Buffer: &gputypes.BufferBindingLayout{
				Type: gputypes.BufferBindingTypeUniform, MinBindingSize: uniformSize,
			}},
			{Binding: 1, Visibility: frag, Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimensionCube,
			}},
			{Binding: 2, Visibility: frag, Sampler: &gputypes.SamplerBindingLayout{
				Type: gputypes.SamplerBindingTypeFiltering,
			}},
			{Binding: 3, Visibility: frag, Texture: depthTex},
			{Binding: 4, Visibility: frag, Texture: depthTex},
		},
	})
	if err != nil {
		return fmt.Errorf("create layout: %w", err)
	}
	p.pl, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sky_pl",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	blend := gputypes.BlendStatePremultiplied()
	p.pipeline, err = p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "sky_dome",
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
		Label: "sky_uniforms",
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

// Cubemap returns the texture name the last draw sampled, empty when the
// last Render drew nothing.
func (p *Pass) Cubemap() string {
	if p == nil {
		return ""
	}
	return p.cubemap
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

// Render composites the dome into in.Output wherever the scene depth is at
// the far plane. A missing cubemap, depth view or output skips the frame.
func (p *Pass) Render(enc hal.CommandEncoder, in Inputs, prof profiler.Group) {
	if !p.Enabled() {
		return
	}
	p.draws = 0
	p.cubemap = ""
	if enc == nil || in.Output == nil || in.NearDepth == nil || !in.Camera.Valid() {
		return
	}
	cube, name, ok := p.tex.FindFirst(p.params.AtmosphereTexture, DefaultCubemap)
	if !ok {
		return
	}
	sampler, err := p.tex.Sampler(textures.LinearClamp)
	if err != nil {
		logging.Logger().Debug("sky: sampler unavailable", "err", err)
		return
	}

	scope := profiler.OrNop(prof).Start("sky_dome")
	defer scope.End()

	p.BeginFrame()
	far := in.FarDepth
	dual := far != nil
	if !dual {
		far = in.NearDepth
	}
	if err := p.queue.WriteBuffer(p.uniforms, 0, p.pack(in.Camera, dual)); err != nil {
		logging.Logger().Debug("sky: uniform upload failed, drawing stale data", "err", err)
	}

	group, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sky_group",
		Layout: p.layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: p.uniforms.NativeHandle(), Size: uniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: cube.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
			{Binding: 3, Resource: gputypes.TextureViewBinding{TextureView: in.NearDepth.NativeHandle()}},
			{Binding: 4, Resource: gputypes.TextureViewBinding{TextureView: far.NativeHandle()}},
		},
	})
	if err != nil {
		logging.Logger().Debug("sky: bind group failed", "err", err)
		return
	}
	p.frameGroups = append(p.frameGroups, group)

	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sky_dome",
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
	p.cubemap = name
	pass.End()
}

func (p *Pass) pack(cam camera.Camera, dual bool) []byte {
	prm := p.params
	var dualFlag float32
	if dual {
		dualFlag = 1
	}
	rot := prm.CubemapRotation()
	t := prm.Tint
	return p.w.Reset().
		Mat4(cam.InvViewProj()).
		Vec4(cam.Position.Vec4(prm.Density)).
		Vec4(mgl32.Vec4{prm.HorizonShift, prm.HorizonStart, prm.HorizonBlend, prm.SkyThreshold}).
		Vec4(mgl32.Vec4{prm.FadeStartHeight, prm.FadeEndHeight, dualFlag, 0}).
		Vec4(mgl32.Vec4{float32(t.R), float32(t.G), float32(t.B), 1}).
		Vec4(rot.Col(0).Vec4(0)).
		Vec4(rot.Col(1).Vec4(0)).
		Vec4(rot.Col(2).Vec4(0)).
		Vec4(prm.Scale.Vec4(0)).
		Vec4(prm.Offset.Vec4(0)).
		Bytes()
}

// Destroy releases every GPU resource. The texture provider is shared and
// left alone.
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
