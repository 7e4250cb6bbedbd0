// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package clouds

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/camera"
	"github.com/gogpu/screenfx/depth"
	"github.com/gogpu/screenfx/internal/logging"
	"github.com/gogpu/screenfx/internal/rtpool"
	"github.com/gogpu/screenfx/internal/shaders"
	"github.com/gogpu/screenfx/internal/textures"
	"github.com/gogpu/screenfx/internal/uniform"
	"github.com/gogpu/screenfx/oit"
	"github.com/gogpu/screenfx/profiler"
)

// Uniform layouts, matching clouds.wgsl and clouds_upsample.wgsl.
const (
	cloudUniformSize    = 208 // mat4 + 9 x vec4
	upsampleUniformSize = 64  // 3 x vec2 + 2 x f32 + 2 x vec4
)

const (
	// LowResDivisor is the per-axis reduction of the cloud target.
	LowResDivisor = 4
	// LowResFormat is the format of the cloud target.
	LowResFormat = gputypes.TextureFormatRGBA16Float

	particleTextureSize = 64
)

// ErrNilDevice is returned by New without a device, queue or providers.
var ErrNilDevice = errors.New("clouds: nil device or providers")

// FirstPerson describes a second depth range packed into the scene depth
// buffer for the viewer's own model.
type FirstPerson struct {
	Proj mgl32.Mat4
	// Split is the raw depth below which samples use Proj.
	Split float32
}

// Inputs are the per-frame resources and camera for Render.
type Inputs struct {
	Output hal.TextureView
	// Depth is the full-resolution scene depth.
	Depth       hal.TextureView
	Camera      camera.Camera
	FirstPerson *FirstPerson

	// SunDirection points toward the sun.
	SunDirection mgl32.Vec3
	SunColor     mgl32.Vec3
	Time         float32

	Width  uint32
	Height uint32

	// OIT receives the upsampled clouds when complete and sized to the frame.
	OIT oit.Layers
}

// LowResSize returns the cloud target size for a frame.
func LowResSize(width, height uint32) (uint32, uint32) {
	return max(1, width/LowResDivisor), max(1, height/LowResDivisor)
}

// FrameStats describes the work recorded by the last Render.
type FrameStats struct {
	Particles int
	LowWidth  uint32
	LowHeight uint32
	Passes    int
	Draws     int
	UsedOIT   bool
	NoiseName string
}

// Renderer draws clouds for one device.
type Renderer struct {
	device hal.Device
	queue  hal.Queue
	tex    *textures.Provider
	pool   *rtpool.Pool

	tracker Tracker
	sun     *SunCache

	cloudLayout hal.BindGroupLayout
	upLayout    hal.BindGroupLayout
	oitLayout   hal.BindGroupLayout
	cloudPL     hal.PipelineLayout
	upPL        hal.PipelineLayout
	upOITPL     hal.PipelineLayout

	cloudPipeline hal.RenderPipeline
	upPipeline    hal.RenderPipeline
	upOITPipeline hal.RenderPipeline

	cloudUniforms hal.Buffer
	upUniforms    hal.Buffer
	particles     hal.Buffer
	particleCap   int

	staging     []byte
	w           *uniform.Writer
	frameGroups []hal.BindGroup
	frame       FrameStats
}

// New builds the cloud and upsample pipelines. The particle texture is
// registered with tex when missing. Particles are generated from params
// immediately; the particle buffer is allocated on the first frame that has
// particles.
func New(device hal.Device, queue hal.Queue, sh *shaders.Provider, tex *textures.Provider,
	pool *rtpool.Pool, format gputypes.TextureFormat, params Params,
) (*Renderer, error) {
	if device == nil || queue == nil || sh == nil || tex == nil || pool == nil {
		return nil, ErrNilDevice
	}
	r := &Renderer{
		device: device,
		queue:  queue,
		tex:    tex,
		pool:   pool,
		sun:    NewSunCache(),
		w:      uniform.NewWriter(cloudUniformSize),
	}
	if err := r.init(sh, format); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("clouds: %w", err)
	}
	if _, ok := tex.Find(textures.NameCloudParticle); !ok {
		if err := tex.RegisterImage(textures.NameCloudParticle, textures.ParticleImage(128), particleTextureSize); err != nil {
			r.Destroy()
			return nil, fmt.Errorf("clouds: %w", err)
		}
	}
	r.tracker.Update(params.Normalized())
	logging.Logger().Debug("clouds: ready", "particles", len(r.tracker.Particles()))
	return r, nil
}

func (r *Renderer) init(sh *shaders.Provider, format gputypes.TextureFormat) error { //nolint:funlen // descriptors
	cloudVS, err := sh.VertexShader(shaders.GroupClouds, "cloud_vs")
	if err != nil {
		return err
	}
	cloudFS, err := sh.PixelShader(shaders.GroupClouds, "cloud_ps")
	if err != nil {
		return err
	}
	upVS, err := sh.VertexShader(shaders.GroupCloudsUpsample, "vs_fullscreen")
	if err != nil {
		return err
	}
	upFS, err := sh.PixelShader(shaders.GroupCloudsUpsample, "upsample_ps")
	if err != nil {
		return err
	}
	upOITFS, err := sh.PixelShader(shaders.GroupCloudsUpsample, "upsample_oit_ps")
	if err != nil {
		return err
	}

	vf := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	frag := gputypes.ShaderStageFragment
	depthTex := &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeDepth,
		ViewDimension: gputypes.TextureViewDimension2D,
	}
	colorTex := &gputypes.TextureBindingLayout{
		SampleType:    gputypes.TextureSampleTypeFloat,
		ViewDimension: gputypes.TextureViewDimension2D,
	}

	r.cloudLayout, err = r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "clouds_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: vf, Buffer: &gputypes.BufferBindingLayout{
				Type: gputypes.BufferBindingTypeUniform, MinBindingSize: cloudUniformSize,
			}},
			{Binding: 1, Visibility: gputypes.ShaderStageVertex, Buffer: &gputypes.BufferBindingLayout{
				Type: gputypes.BufferBindingTypeReadOnlyStorage, MinBindingSize: ParticleStride,
			}},
			{Binding: 2, Visibility: frag, Texture: depthTex},
			{Binding: 3, Visibility: frag, Texture: colorTex},
			{Binding: 4, Visibility: frag, Texture: colorTex},
			{Binding: 5, Visibility: frag, Sampler: &gputypes.SamplerBindingLayout{
				Type: gputypes.SamplerBindingTypeFiltering,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create cloud layout: %w", err)
	}

	r.upLayout, err = r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "clouds_upsample_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: frag, Buffer: &gputypes.BufferBindingLayout{
				Type: gputypes.BufferBindingTypeUniform, MinBindingSize: upsampleUniformSize,
			}},
			{Binding: 1, Visibility: frag, Texture: colorTex},
			{Binding: 2, Visibility: frag, Texture: depthTex},
		},
	})
	if err != nil {
		return fmt.Errorf("create upsample layout: %w", err)
	}

	rw := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}
	r.oitLayout, err = r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "clouds_oit_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: frag, Buffer: rw},
			{Binding: 1, Visibility: frag, Buffer: rw},
			{Binding: 2, Visibility: frag, Buffer: rw},
		},
	})
	if err != nil {
		return fmt.Errorf("create oit layout: %w", err)
	}

	if r.cloudPL, err = r.pipelineLayout("clouds_pl", r.cloudLayout); err != nil {
		return err
	}
	if r.upPL, err = r.pipelineLayout("clouds_upsample_pl", r.upLayout); err != nil {
		return err
	}
	if r.upOITPL, err = r.pipelineLayout("clouds_upsample_oit_pl", r.upLayout, r.oitLayout); err != nil {
		return err
	}

	premul := gputypes.BlendStatePremultiplied()
	if r.cloudPipeline, err = r.pipeline("clouds_lowres", r.cloudPL, cloudVS, cloudFS,
		gputypes.ColorTargetState{Format: LowResFormat, Blend: &premul, WriteMask: gputypes.ColorWriteMaskAll},
	); err != nil {
		return err
	}
	if r.upPipeline, err = r.pipeline("clouds_upsample", r.upPL, upVS, upFS,
		gputypes.ColorTargetState{Format: format, Blend: &premul, WriteMask: gputypes.ColorWriteMaskAll},
	); err != nil {
		return err
	}
	// The OIT variant only writes the layers; the frame is composited at
	// resolve.
	if r.upOITPipeline, err = r.pipeline("clouds_upsample_oit", r.upOITPL, upVS, upOITFS,
		gputypes.ColorTargetState{Format: format, WriteMask: gputypes.ColorWriteMaskNone},
	); err != nil {
		return err
	}

	if r.cloudUniforms, err = r.uniformBuffer("clouds_uniforms", cloudUniformSize); err != nil {
		return err
	}
	r.upUniforms, err = r.uniformBuffer("clouds_upsample_uniforms", upsampleUniformSize)
	return err
}

func (r *Renderer) pipelineLayout(label string, layouts ...hal.BindGroupLayout) (hal.PipelineLayout, error) {
	pl, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return pl, nil
}

func (r *Renderer) pipeline(label string, layout hal.PipelineLayout, vs, fs shaders.Shader,
	target gputypes.ColorTargetState,
) (hal.RenderPipeline, error) {
	p, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: layout,
		Vertex: hal.VertexState{Module: vs.Module, EntryPoint: vs.Entry},
		Fragment: &hal.FragmentState{
			Module:     fs.Module,
			EntryPoint: fs.Entry,
			Targets:    []gputypes.ColorTargetState{target},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s pipeline: %w", label, err)
	}
	return p, nil
}

func (r *Renderer) uniformBuffer(label string, size uint64) (hal.Buffer, error) {
	b, err := r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return b, nil
}

// Ready reports whether the renderer was built successfully.
func (r *Renderer) Ready() bool { return r != nil && r.upPipeline != nil }

// Enabled reports whether Render draws anything.
func (r *Renderer) Enabled() bool { return r.Ready() && r.tracker.params.Enabled }

// Params returns the current parameters.
func (r *Renderer) Params() Params {
	if r == nil {
		return DefaultParams()
	}
	return r.tracker.Params()
}

// SetParams replaces the parameters and reports whether the particles were
// regenerated.
func (r *Renderer) SetParams(p Params) bool {
	if r == nil {
		return false
	}
	return r.tracker.Update(p.Normalized())
}

// Particles returns the particles currently drawn.
func (r *Renderer) Particles() []GPUParticle {
	if r == nil {
		return nil
	}
	return r.tracker.Particles()
}

// Sun returns the shading sun cache.
func (r *Renderer) Sun() *SunCache {
	if r == nil {
		return NewSunCache()
	}
	return r.sun
}

// LastFrame describes what the last Render recorded.
func (r *Renderer) LastFrame() FrameStats {
	if r == nil {
		return FrameStats{}
	}
	return r.frame
}

// BeginFrame releases the bind groups of the previous frame. Pooled targets
// are recycled by the pool owner.
func (r *Renderer) BeginFrame() {
	if r == nil {
		return
	}
	for _, g := range r.frameGroups {
		r.device.DestroyBindGroup(g)
	}
	r.frameGroups = r.frameGroups[:0]
}

// Render draws the clouds into a pooled low-resolution target and upsamples
// them onto in.Output, or into in.OIT when those layers are usable. Frames
// with no particles, no noise texture or missing views are skipped.
func (r *Renderer) Render(enc hal.CommandEncoder, in Inputs, prof profiler.Group) {
	if r == nil {
		return
	}
	r.frame = FrameStats{}
	if !r.Enabled() {
		return
	}
	particles := r.tracker.Particles()
	if len(particles) == 0 {
		return
	}
	if enc == nil || in.Output == nil || in.Depth == nil || in.Width == 0 || in.Height == 0 || !in.Camera.Valid() {
		return
	}
	noise, noiseName, ok := r.tex.FindFirst(textures.NameCloudNoise, textures.NameWhite)
	if !ok {
		return
	}
	particleTex, ok := r.tex.Find(textures.NameCloudParticle)
	if !ok {
		return
	}
	sampler, err := r.tex.Sampler(textures.LinearRepeat)
	if err != nil {
		logging.Logger().Debug("clouds: sampler unavailable", "err", err)
		return
	}
	if err := r.uploadParticles(particles); err != nil {
		logging.Logger().Debug("clouds: particle buffer unavailable", "err", err)
		return
	}

	r.BeginFrame()
	r.sun.Update(in.SunDirection, in.SunColor)
	r.frame.Particles = len(particles)
	r.frame.NoiseName = noiseName

	lw, lh := LowResSize(in.Width, in.Height)
	target, err := r.pool.Acquire(rtpool.Key{
		Format: LowResFormat,
		Width:  lw,
		Height: lh,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		logging.Logger().Debug("clouds: low-res target unavailable", "err", err)
		return
	}
	r.frame.LowWidth, r.frame.LowHeight = lw, lh

	if !r.renderLowRes(enc, in, target, noise, particleTex, sampler, len(particles), prof) {
		return
	}
	r.renderUpsample(enc, in, target, prof)
}

func (r *Renderer) uploadParticles(ps []GPUParticle) error {
	need := len(ps)
	if r.particles == nil || r.particleCap < need {
		if r.particles != nil {
			r.device.DestroyBuffer(r.particles)
			r.particles = nil
		}
		buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "clouds_particles",
			Size:  uint64(need) * ParticleStride,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			r.particleCap = 0
			return fmt.Errorf("create particle buffer: %w", err)
		}
		r.particles = buf
		r.particleCap = need
		r.tracker.MarkDirty()
	}
	if !r.tracker.TakeDirty() {
		return nil
	}
	r.staging = AppendBytes(r.staging[:0], ps)
	if err := r.queue.WriteBuffer(r.particles, 0, r.staging); err != nil {
		logging.Logger().Debug("clouds: particle upload failed, drawing stale data", "err", err)
		r.tracker.MarkDirty()
	}
	return nil
}

func (r *Renderer) renderLowRes(enc hal.CommandEncoder, in Inputs, target *rtpool.Target,
	noise, particleTex hal.TextureView, sampler hal.Sampler, count int, prof profiler.Group,
) bool {
	scope := profiler.OrNop(prof).Start("clouds_lowres")
	defer scope.End()

	if err := r.queue.WriteBuffer(r.cloudUniforms, 0, r.packClouds(in, target.Key)); err != nil {
		logging.Logger().Debug("clouds: uniform upload failed, drawing stale data", "err", err)
	}
	group, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "clouds_group",
		Layout: r.cloudLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: r.cloudUniforms.NativeHandle(), Size: cloudUniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: r.particles.NativeHandle(), Size: uint64(count) * ParticleStride}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: in.Depth.NativeHandle()}},
			{Binding: 3, Resource: gputypes.TextureViewBinding{TextureView: noise.NativeHandle()}},
			{Binding: 4, Resource: gputypes.TextureViewBinding{TextureView: particleTex.NativeHandle()}},
			{Binding: 5, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
		},
	})
	if err != nil {
		logging.Logger().Debug("clouds: bind group failed", "err", err)
		return false
	}
	r.frameGroups = append(r.frameGroups, group)

	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "clouds_lowres",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target.View,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{},
		}},
	})
	r.frame.Passes++
	pass.SetViewport(0, 0, float32(target.Key.Width), float32(target.Key.Height), 0, 1)
	pass.SetPipeline(r.cloudPipeline)
	pass.SetBindGroup(0, group, nil)
	pass.Draw(6, uint32(count), 0, 0)
	r.frame.Draws++
	// The target is sampled by the upsample, so this pass ends first.
	pass.End()
	return true
}

func (r *Renderer) renderUpsample(enc hal.CommandEncoder, in Inputs, target *rtpool.Target, prof profiler.Group) {
	scope := profiler.OrNop(prof).Start("clouds_upsample")
	defer scope.End()

	if err := r.queue.WriteBuffer(r.upUniforms, 0, r.packUpsample(in, target.Key)); err != nil {
		logging.Logger().Debug("clouds: upsample uniform upload failed, drawing stale data", "err", err)
	}
	group, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "clouds_upsample_group",
		Layout: r.upLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: r.upUniforms.NativeHandle(), Size: upsampleUniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: target.View.NativeHandle()}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: in.Depth.NativeHandle()}},
		},
	})
	if err != nil {
		logging.Logger().Debug("clouds: upsample bind group failed", "err", err)
		return
	}
	r.frameGroups = append(r.frameGroups, group)

	pipeline := r.upPipeline
	var oitGroup hal.BindGroup
	if useOIT(in) {
		oitGroup, err = r.oitGroup(in.OIT)
		if err != nil {
			logging.Logger().Debug("clouds: oit bind group failed, blending directly", "err", err)
		} else {
			pipeline = r.upOITPipeline
			r.frame.UsedOIT = true
		}
	}

	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "clouds_upsample",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{View: in.Output, LoadOp: gputypes.LoadOpLoad, StoreOp: gputypes.StoreOpStore},
		},
	})
	r.frame.Passes++
	pass.SetViewport(0, 0, float32(in.Width), float32(in.Height), 0, 1)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, group, nil)
	if r.frame.UsedOIT {
		pass.SetBindGroup(1, oitGroup, nil)
	}
	pass.Draw(3, 1, 0, 0)
	r.frame.Draws++
	pass.End()
}

func useOIT(in Inputs) bool {
	return in.OIT.Complete() && in.OIT.Width == in.Width && in.OIT.Height == in.Height
}

func (r *Renderer) oitGroup(l oit.Layers) (hal.BindGroup, error) {
	sizes := l.Sizes()
	entries := make([]gputypes.BindGroupEntry, 0, 3)
	for i, b := range l.Buffers() {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i),
			Resource: gputypes.BufferBinding{Buffer: b.NativeHandle(), Size: sizes[i]},
		})
	}
	g, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "clouds_oit_group",
		Layout:  r.oitLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	r.frameGroups = append(r.frameGroups, g)
	return g, nil
}

func (r *Renderer) packClouds(in Inputs, low rtpool.Key) []byte {
	p := &r.tracker.params
	cam := in.Camera
	dp := cam.Depth()
	sunDir := r.sun.Direction()
	sunColor := r.sun.Color()
	amb := p.ColorAmbient
	return r.w.Reset().
		Mat4(cam.ViewProj()).
		Vec4(cam.Right().Vec4(0)).
		Vec4(cam.Up().Vec4(0)).
		Vec4(cam.Position.Vec4(1)).
		Vec4(sunDir.Vec4(p.SunIntensity)).
		Vec4(sunColor.Vec4(1)).
		Vec4(mgl32.Vec4{
			float32(amb.R) * p.AmbientIntensity,
			float32(amb.G) * p.AmbientIntensity,
			float32(amb.B) * p.AmbientIntensity,
			1,
		}).
		Vec4(mgl32.Vec4{dp.Mul, dp.Add, 0, 0}).
		Vec4(mgl32.Vec4{float32(in.Width), float32(in.Height), float32(low.Width), float32(low.Height)}).
		Vec4(mgl32.Vec4{p.GlobalAlpha, p.NoiseScale, p.DepthSoftness, in.Time * p.NoiseAnimationSpeed}).
		Bytes()
}

func (r *Renderer) packUpsample(in Inputs, low rtpool.Key) []byte {
	sharpness := r.tracker.params.UpsampleSharpness
	dp := in.Camera.Depth()
	var fp depth.Params
	var fpFlag, split float32
	if in.FirstPerson != nil {
		fp = depth.FromProjection(in.FirstPerson.Proj)
		fpFlag, split = 1, in.FirstPerson.Split
	}
	return r.w.Reset().
		Vec2(mgl32.Vec2{float32(low.Width), float32(low.Height)}).
		Vec2(mgl32.Vec2{float32(in.Width), float32(in.Height)}).
		Vec2(mgl32.Vec2{1 / float32(low.Width), 1 / float32(low.Height)}).
		F32(DepthThreshold).
		F32(sharpness).
		Vec4(mgl32.Vec4{dp.Mul, dp.Add, fp.Mul, fp.Add}).
		Vec4(mgl32.Vec4{fpFlag, split, 0, 0}).
		Bytes()
}

// Destroy releases every GPU resource. Pooled targets belong to the pool.
func (r *Renderer) Destroy() {
	if r == nil {
		return
	}
	r.BeginFrame()
	for _, b := range []hal.Buffer{r.particles, r.cloudUniforms, r.upUniforms} {
		if b != nil {
			r.device.DestroyBuffer(b)
		}
	}
	r.particles, r.cloudUniforms, r.upUniforms = nil, nil, nil
	r.particleCap = 0
	for _, p := range []hal.RenderPipeline{r.cloudPipeline, r.upPipeline, r.upOITPipeline} {
		if p != nil {
			r.device.DestroyRenderPipeline(p)
		}
	}
	r.cloudPipeline, r.upPipeline, r.upOITPipeline = nil, nil, nil
	for _, pl := range []hal.PipelineLayout{r.cloudPL, r.upPL, r.upOITPL} {
		if pl != nil {
			r.device.DestroyPipelineLayout(pl)
		}
	}
	r.cloudPL, r.upPL, r.upOITPL = nil, nil, nil
	for _, l := range []hal.BindGroupLayout{r.cloudLayout, r.upLayout, r.oitLayout} {
		if l != nil {
			r.device.DestroyBindGroupLayout(l)
		}
	}
	r.cloudLayout, r.upLayout, r.oitLayout = nil, nil, nil
}
