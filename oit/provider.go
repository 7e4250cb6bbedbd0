// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package oit

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/fog"
	"github.com/gogpu/screenfx/internal/logging"
	"github.com/gogpu/screenfx/internal/shaders"
	"github.com/gogpu/screenfx/internal/uniform"
	"github.com/gogpu/screenfx/profiler"
)

// resolveSize matches ResolveUniforms in oit.wgsl.
const resolveSize = 48

// ErrNilDevice is returned by NewProvider without a device, queue or
// shader provider.
var ErrNilDevice = errors.New("oit: nil device or queue")

// ErrInvalidSize is returned by Prepare for an empty frame.
var ErrInvalidSize = errors.New("oit: invalid layer size")

// compositeBlend adds the resolved color over the frame scaled by the
// revealage carried in alpha.
var compositeBlend = gputypes.BlendState{
	Color: gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: gputypes.BlendFactorSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	},
	Alpha: gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: gputypes.BlendFactorSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	},
}

const compositeWriteMask = gputypes.ColorWriteMaskRed | gputypes.ColorWriteMaskGreen | gputypes.ColorWriteMaskBlue

// Provider allocates the layers at frame size, clears them each frame and
// resolves them onto the output.
type Provider struct {
	device hal.Device
	queue  hal.Queue

	layout   hal.BindGroupLayout
	pl       hal.PipelineLayout
	pipeline hal.RenderPipeline
	uniforms hal.Buffer
	w        *uniform.Writer

	layers Layers
	group  hal.BindGroup

	resolves int
}

// NewProvider builds the resolve pipeline for the given output format.
// Layers are allocated by Prepare.
func NewProvider(device hal.Device, queue hal.Queue, sh *shaders.Provider, format gputypes.TextureFormat) (*Provider, error) {
	if device == nil || queue == nil || sh == nil {
		return nil, ErrNilDevice
	}
	p := &Provider{device: device, queue: queue, w: uniform.NewWriter(resolveSize)}
	if err := p.init(sh, format); err != nil {
		p.Destroy()
		return nil, fmt.Errorf("oit: %w", err)
	}
	return p, nil
}

func (p *Provider) init(sh *shaders.Provider, format gputypes.TextureFormat) error {
	vs, err := sh.VertexShader(shaders.GroupOIT, "vs_fullscreen")
	if err != nil {
		return err
	}
	fs, err := sh.PixelShader(shaders.GroupOIT, "fs_resolve")
	if err != nil {
		return err
	}

	storage := &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
	p.layout, err = p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "oit_resolve_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform, MinBindingSize: resolveSize},
			},
			{Binding: 1, Visibility: gputypes.ShaderStageFragment, Buffer: storage},
			{Binding: 2, Visibility: gputypes.ShaderStageFragment, Buffer: storage},
			{Binding: 3, Visibility: gputypes.ShaderStageFragment, Buffer: storage},
		},
	})
	if err != nil {
		return fmt.Errorf("create layout: %w", err)
	}
	p.pl, err = p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "oit_resolve_pl",
		BindGroupLayouts: []hal.BindGroupLayout{p.layout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	blend := compositeBlend
	p.pipeline, err = p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "oit_resolve",
		Layout: p.pl,
		Vertex: hal.VertexState{Module: vs.Module, EntryPoint: vs.Entry},
		Fragment: &hal.FragmentState{
			Module:     fs.Module,
			EntryPoint: fs.Entry,
			Targets: []gputypes.ColorTargetState{
				{Format: format, Blend: &blend, WriteMask: compositeWriteMask},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("create resolve pipeline: %w", err)
	}

	p.uniforms, err = p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "oit_resolve_uniforms",
		Size:  resolveSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}
	return nil
}

// Prepare makes sure the layers match the frame size, reallocating them
// when it changes.
func (p *Provider) Prepare(width, height uint32) error {
	if p == nil || p.pipeline == nil {
		return ErrNilDevice
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if p.layers.Complete() && p.layers.Width == width && p.layers.Height == height {
		return nil
	}
	p.Clear()

	next := Layers{Width: width, Height: height}
	sizes := next.Sizes()
	bufs := [3]hal.Buffer{}
	labels := [3]string{"oit_depth", "oit_color", "oit_aux"}
	for i := range bufs {
		b, err := p.device.CreateBuffer(&hal.BufferDescriptor{
			Label: labels[i],
			Size:  sizes[i],
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			for _, made := range bufs[:i] {
				p.device.DestroyBuffer(made)
			}
			return fmt.Errorf("oit: create %s: %w", labels[i], err)
		}
		bufs[i] = b
	}
	next.Depth, next.Color, next.Aux = bufs[0], bufs[1], bufs[2]

	entries := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{Buffer: p.uniforms.NativeHandle(), Size: resolveSize}},
	}
	for i, b := range bufs {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i + 1),
			Resource: gputypes.BufferBinding{Buffer: b.NativeHandle(), Size: sizes[i]},
		})
	}
	group, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "oit_resolve_group",
		Layout:  p.layout,
		Entries: entries,
	})
	if err != nil {
		for _, b := range bufs {
			p.device.DestroyBuffer(b)
		}
		return fmt.Errorf("oit: create resolve bind group: %w", err)
	}

	p.layers = next
	p.group = group
	logging.Logger().Debug("oit: layers allocated", "width", width, "height", height)
	return nil
}

// Clear releases the layers. Enabled reports false until the next Prepare.
func (p *Provider) Clear() {
	if p == nil {
		return
	}
	if p.group != nil {
		p.device.DestroyBindGroup(p.group)
		p.group = nil
	}
	for _, b := range p.layers.Buffers() {
		if b != nil {
			p.device.DestroyBuffer(b)
		}
	}
	p.layers = Layers{}
}

// Enabled reports whether the layers are allocated and can be written.
func (p *Provider) Enabled() bool {
	return p != nil && p.pipeline != nil && p.layers.Complete()
}

// Layers returns the current layers; the zero value when disabled.
func (p *Provider) Layers() Layers {
	if !p.Enabled() {
		return Layers{}
	}
	return p.layers
}

// UAVs returns the depth, color and aux buffers in binding order.
func (p *Provider) UAVs() [3]hal.Buffer {
	return p.Layers().Buffers()
}

// Resolves returns the number of resolve draws recorded so far.
func (p *Provider) Resolves() int {
	if p == nil {
		return 0
	}
	return p.resolves
}

// BeginFrame zeroes every layer.
func (p *Provider) BeginFrame(enc hal.CommandEncoder) {
	if !p.Enabled() || enc == nil {
		return
	}
	sizes := p.layers.Sizes()
	for i, b := range p.layers.Buffers() {
		enc.ClearBuffer(b, 0, sizes[i])
	}
}

// Resolve composites the layers over output. When fogParams is non-nil and
// enabled, distance fog is applied to the transparent color first.
func (p *Provider) Resolve(enc hal.CommandEncoder, output hal.TextureView, fogParams *fog.Params, prof profiler.Group) {
	if !p.Enabled() || enc == nil || output == nil {
		return
	}

	scope := profiler.OrNop(prof).Start("oit_resolve")
	defer scope.End()

	if err := p.queue.WriteBuffer(p.uniforms, 0, p.pack(fogParams)); err != nil {
		logging.Logger().Debug("oit: uniform upload failed, drawing stale data", "err", err)
	}

	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "oit_resolve",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{View: output, LoadOp: gputypes.LoadOpLoad, StoreOp: gputypes.StoreOpStore},
		},
	})
	pass.SetViewport(0, 0, float32(p.layers.Width), float32(p.layers.Height), 0, 1)
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, p.group, nil)
	pass.Draw(3, 1, 0, 0)
	p.resolves++
	pass.End()
}

func (p *Provider) pack(fp *fog.Params) []byte {
	p.w.Reset().Vec2(mgl32.Vec2{float32(p.layers.Width), float32(p.layers.Height)})
	if fp == nil || !fp.Enabled {
		return p.w.U32(0).U32(0).Vec4(mgl32.Vec4{}).Vec4(mgl32.Vec4{}).Bytes()
	}
	f := fp.Normalized()
	return p.w.U32(1).U32(0).
		Vec4(mgl32.Vec4{float32(f.Color.R), float32(f.Color.G), float32(f.Color.B), f.MaxOpacity}).
		Vec4(mgl32.Vec4{f.Density, f.HeightFalloff, f.Start, f.BaseHeight}).
		Bytes()
}

// Destroy releases the layers and the resolve pipeline.
func (p *Provider) Destroy() {
	if p == nil {
		return
	}
	p.Clear()
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
