// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package screenfx

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/clouds"
	"github.com/gogpu/screenfx/debugviz"
	"github.com/gogpu/screenfx/fog"
	"github.com/gogpu/screenfx/internal/logging"
	"github.com/gogpu/screenfx/internal/rtpool"
	"github.com/gogpu/screenfx/internal/shaders"
	"github.com/gogpu/screenfx/internal/textures"
	"github.com/gogpu/screenfx/oit"
	"github.com/gogpu/screenfx/profiler"
	"github.com/gogpu/screenfx/sky"
)

// Procedural cloud noise: cell count and upload size.
const (
	noiseCells = 8
	noiseSize  = 128
)

// Stats describes the work recorded by the last Render.
type Stats struct {
	Visualizer  debugviz.FrameStats
	Clouds      clouds.FrameStats
	SkyDraws    int
	FogDraws    int
	OITResolves int

	// Pooled render target counters since creation.
	TargetAllocations int
	TargetReuses      int
}

// Compositor owns every effect for one device and records them into the
// host's command encoder.
type Compositor struct {
	device hal.Device
	queue  hal.Queue
	opts   options

	shaders  *shaders.Provider
	textures *textures.Provider
	pool     *rtpool.Pool

	visualizer *debugviz.Visualizer
	clouds     *clouds.Renderer
	sky        *sky.Pass
	fog        *fog.Pass
	oit        *oit.Provider

	skyDraws int
	fogDraws int
	resolves int
}

// New builds the shared resources and every effect on device. Only a nil
// device or queue, or failing to create the shared texture set, is an
// error; effects that fail to build are logged and left disabled.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Compositor, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newCompositor(device, queue, o)
}

// NewFromProvider builds a compositor on the device of a host application.
// The provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Compositor, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, ErrNoHAL
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, ErrNoHAL
	}

	o := defaultOptions()
	if f := provider.SurfaceFormat(); f != gputypes.TextureFormatUndefined {
		o.outputFormat = f
	}
	for _, opt := range opts {
		opt(&o)
	}
	info := provider.AdapterInfo()
	logging.Logger().Info("screenfx: using host device", "adapter", info.Name, "format", o.outputFormat)
	return newCompositor(device, queue, o)
}

func newCompositor(device hal.Device, queue hal.Queue, o options) (*Compositor, error) {
	c := &Compositor{
		device: device,
		queue:  queue,
		opts:   o,
		pool:   rtpool.New(device),
	}
	format := shaders.FormatSPIRV
	if o.shaderFormat == ShaderWGSL {
		format = shaders.FormatWGSL
	}
	c.shaders = shaders.NewProvider(device, format)

	tex, err := textures.New(device, queue)
	if err != nil {
		c.Destroy()
		return nil, fmt.Errorf("screenfx: %w", err)
	}
	c.textures = tex
	if err := tex.RegisterImage(textures.NameCloudNoise,
		textures.NoiseImage(o.noiseSeed, noiseCells, noiseSize), noiseSize); err != nil {
		logging.Logger().Warn("screenfx: cloud noise unavailable, using white", "err", err)
	}

	c.visualizer, err = debugviz.New(device, queue, c.shaders, debugviz.Options{
		OutputFormat:       o.outputFormat,
		DepthStencilFormat: o.depthStencilFormat,
		Config:             o.visualizer,
		Mode:               o.mode,
		Bindings:           o.bindings,
	})
	warnDisabled("debug visualizer", err)

	c.clouds, err = clouds.New(device, queue, c.shaders, c.textures, c.pool, o.outputFormat, o.clouds)
	warnDisabled("clouds", err)

	c.sky, err = sky.New(device, queue, c.shaders, c.textures, o.outputFormat, o.sky)
	warnDisabled("sky", err)

	c.fog, err = fog.New(device, queue, c.shaders, o.outputFormat, o.fog)
	warnDisabled("fog", err)

	if o.oit {
		c.oit, err = oit.NewProvider(device, queue, c.shaders, o.outputFormat)
		warnDisabled("oit", err)
	}

	logging.Logger().Info("screenfx: compositor ready",
		"format", o.outputFormat,
		"visualizer", c.visualizer != nil,
		"clouds", c.clouds != nil,
		"sky", c.sky != nil,
		"fog", c.fog != nil,
		"oit", c.oit != nil)
	return c, nil
}

func warnDisabled(effect string, err error) {
	if err != nil {
		logging.Logger().Warn("screenfx: effect disabled", "effect", effect, "err", err)
	}
}

// Visualizer returns the debug visualizer, nil when it failed to build.
func (c *Compositor) Visualizer() *debugviz.Visualizer { return c.visualizer }

// Clouds returns the cloud renderer, nil when it failed to build.
func (c *Compositor) Clouds() *clouds.Renderer { return c.clouds }

// Sky returns the sky dome pass, nil when it failed to build.
func (c *Compositor) Sky() *sky.Pass { return c.sky }

// Fog returns the fog pass, nil when it failed to build.
func (c *Compositor) Fog() *fog.Pass { return c.fog }

// OIT returns the transparency layer provider, nil when disabled or failed.
// Host shaders that write transparent surfaces bind its UAVs.
func (c *Compositor) OIT() *oit.Provider { return c.oit }

// RegisterTexture makes a host view available to the effects under name,
// replacing any built-in texture of the same name.
func (c *Compositor) RegisterTexture(name string, view hal.TextureView) {
	c.textures.Register(name, view)
}

// HandleInput polls the debug view hotkeys. isDown is usually
// (*debugviz.KeyState).IsDown. It reports whether the view changed.
func (c *Compositor) HandleInput(isDown func(gpucontext.Key) bool) bool {
	return c.visualizer.HandleInput(isDown)
}

// BeginFrame recycles pooled targets and releases the previous frame's
// bind groups early. Render does the same on entry, so calling it is
// optional.
func (c *Compositor) BeginFrame() {
	c.pool.Recycle()
	c.visualizer.BeginFrame()
	c.clouds.BeginFrame()
	c.sky.BeginFrame()
	c.fog.BeginFrame()
}

// Render records every enabled effect into enc. It does not fail: effects
// whose inputs are missing skip the frame.
func (c *Compositor) Render(enc hal.CommandEncoder, f Frame) {
	if enc == nil || f.Output == nil {
		return
	}
	c.pool.Recycle()
	prof := profiler.OrNop(c.opts.profiler)
	c.resolves = 0

	var layers oit.Layers
	if c.oit != nil && f.Width > 0 && f.Height > 0 {
		if err := c.oit.Prepare(f.Width, f.Height); err != nil {
			logging.Logger().Debug("screenfx: oit layers unavailable", "err", err)
		}
		if c.oit.Enabled() {
			c.oit.BeginFrame(enc)
			layers = c.oit.Layers()
		}
	}

	c.sky.Render(enc, sky.Inputs{
		Output:    f.Output,
		NearDepth: f.Depth,
		FarDepth:  f.FarDepth,
		Camera:    f.Camera,
		Width:     f.Width,
		Height:    f.Height,
	}, prof)
	c.skyDraws = c.sky.Draws()

	c.clouds.Render(enc, clouds.Inputs{
		Output:       f.Output,
		Depth:        f.Depth,
		Camera:       f.Camera,
		FirstPerson:  f.FirstPerson,
		SunDirection: f.SunDirection,
		SunColor:     f.SunColor,
		Time:         f.Time,
		Width:        f.Width,
		Height:       f.Height,
		OIT:          layers,
	}, prof)

	before := c.fog.Draws()
	c.fog.Render(enc, fog.Inputs{
		Output: f.Output,
		Depth:  f.Depth,
		Camera: f.Camera,
		Width:  f.Width,
		Height: f.Height,
	}, prof)
	c.fogDraws = c.fog.Draws() - before

	if layers.Complete() {
		var fp *fog.Params
		if c.fog.Enabled() {
			p := c.fog.Params()
			fp = &p
		}
		n := c.oit.Resolves()
		c.oit.Resolve(enc, f.Output, fp, prof)
		c.resolves = c.oit.Resolves() - n
	}

	c.visualizer.Render(enc, debugviz.Inputs{
		Output:         f.Output,
		NearDepth:      f.Depth,
		FarDepth:       f.FarDepth,
		DepthStencil:   f.DepthStencil,
		StencilSamples: f.StencilSamples,
		StencilSampled: f.StencilSampled,
		NearProj:       f.Camera.Proj,
		FarProj:        f.farProj(),
		Width:          f.Width,
		Height:         f.Height,
	}, prof)
}

// LastFrame describes what the last Render recorded.
func (c *Compositor) LastFrame() Stats {
	ps := c.pool.Stats()
	return Stats{
		Visualizer:        c.visualizer.LastFrame(),
		Clouds:            c.clouds.LastFrame(),
		SkyDraws:          c.skyDraws,
		FogDraws:          c.fogDraws,
		OITResolves:       c.resolves,
		TargetAllocations: ps.Allocations,
		TargetReuses:      ps.Reuses,
	}
}

// Destroy releases every effect and shared resource. The compositor must
// not be used afterwards.
func (c *Compositor) Destroy() {
	if c == nil {
		return
	}
	c.visualizer.Destroy()
	c.clouds.Destroy()
	c.sky.Destroy()
	c.fog.Destroy()
	c.oit.Destroy()
	c.visualizer, c.clouds, c.sky, c.fog, c.oit = nil, nil, nil, nil, nil
	if c.pool != nil {
		c.pool.Destroy()
	}
	if c.textures != nil {
		c.textures.Destroy()
		c.textures = nil
	}
	if c.shaders != nil {
		c.shaders.Destroy()
		c.shaders = nil
	}
}
