// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package textures resolves named shader resources for the effects.
//
// The host registers the views it loads; a few procedural built-ins are
// generated on the CPU. Lookups never fail loudly: a missing name is an
// unavailable feature for the current frame.
package textures

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"golang.org/x/image/draw"

	"github.com/gogpu/screenfx/internal/cache"
	"github.com/gogpu/screenfx/internal/logging"
)

// Built-in resource names.
const (
	NameWhite         = "white"
	NameCloudNoise    = "cloud_noise"
	NameCloudParticle = "cloud_particle"
	// NameSkyAtmosphere is the fallback atmosphere cubemap. It is never
	// generated; hosts register it.
	NameSkyAtmosphere = "sky_atmosphere"
)

// ErrTextureNotFound is returned by Require for an unregistered name.
var ErrTextureNotFound = errors.New("textures: not found")

type entry struct {
	view    hal.TextureView
	texture hal.Texture // nil for host-owned views
}

// SamplerKey selects a shared sampler.
type SamplerKey struct {
	Filter  gputypes.FilterMode
	Address gputypes.AddressMode
}

// Common samplers.
var (
	LinearClamp  = SamplerKey{Filter: gputypes.FilterModeLinear, Address: gputypes.AddressModeClampToEdge}
	LinearRepeat = SamplerKey{Filter: gputypes.FilterModeLinear, Address: gputypes.AddressModeRepeat}
	PointClamp   = SamplerKey{Filter: gputypes.FilterModeNearest, Address: gputypes.AddressModeClampToEdge}
)

// Provider maps names to texture views.
type Provider struct {
	device   hal.Device
	queue    hal.Queue
	views    *cache.Cache[string, entry]
	samplers *cache.Cache[SamplerKey, hal.Sampler]
}

// New creates a provider with the white placeholder registered.
func New(device hal.Device, queue hal.Queue) (*Provider, error) {
	p := &Provider{
		device:   device,
		queue:    queue,
		views:    cache.New[string, entry](),
		samplers: cache.New[SamplerKey, hal.Sampler](),
	}
	if err := p.RegisterImage(NameWhite, WhiteImage(), 4); err != nil {
		return nil, err
	}
	return p, nil
}

// Register adds a host-owned view under name, replacing any previous entry.
func (p *Provider) Register(name string, view hal.TextureView) {
	p.Remove(name)
	p.views.Set(name, entry{view: view})
}

// RegisterImage uploads img scaled to size×size and registers it under name.
func (p *Provider) RegisterImage(name string, img image.Image, size int) error {
	if size <= 0 {
		return fmt.Errorf("textures: invalid size %d for %q", size, name)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	if img.Bounds().Dx() == size && img.Bounds().Dy() == size {
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, img.Bounds(), draw.Src, nil)
	}

	tex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "screenfx_" + name,
		Size:          hal.Extent3D{Width: uint32(size), Height: uint32(size), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("textures: create %s: %w", name, err)
	}
	if err := p.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		rgba.Pix,
		&hal.ImageDataLayout{BytesPerRow: uint32(rgba.Stride), RowsPerImage: uint32(size)},
		&hal.Extent3D{Width: uint32(size), Height: uint32(size), DepthOrArrayLayers: 1},
	); err != nil {
		p.device.DestroyTexture(tex)
		return fmt.Errorf("textures: upload %s: %w", name, err)
	}
	view, err := p.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "screenfx_" + name + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		p.device.DestroyTexture(tex)
		return fmt.Errorf("textures: view %s: %w", name, err)
	}

	p.Remove(name)
	p.views.Set(name, entry{view: view, texture: tex})
	logging.Logger().Debug("textures: registered", "name", name, "size", size)
	return nil
}

// Find returns the view registered under name.
func (p *Provider) Find(name string) (hal.TextureView, bool) {
	e, ok := p.views.Get(name)
	if !ok {
		return nil, false
	}
	return e.view, true
}

// FindFirst walks a fallback chain and returns the first registered view
// together with the name that matched.
func (p *Provider) FindFirst(names ...string) (hal.TextureView, string, bool) {
	for _, n := range names {
		if v, ok := p.Find(n); ok {
			return v, n, true
		}
	}
	return nil, "", false
}

// Require is Find with an error for missing names.
func (p *Provider) Require(name string) (hal.TextureView, error) {
	if v, ok := p.Find(name); ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrTextureNotFound, name)
}

// Remove drops name, destroying the texture if the provider created it.
func (p *Provider) Remove(name string) {
	e, ok := p.views.Get(name)
	if !ok {
		return
	}
	p.views.Delete(name)
	p.release(e)
}

func (p *Provider) release(e entry) {
	if e.texture == nil {
		return
	}
	p.device.DestroyTextureView(e.view)
	p.device.DestroyTexture(e.texture)
}

// Sampler returns a shared sampler for key.
func (p *Provider) Sampler(key SamplerKey) (hal.Sampler, error) {
	return p.samplers.GetOrCreate(key, func() (hal.Sampler, error) {
		s, err := p.device.CreateSampler(&hal.SamplerDescriptor{
			Label:        "screenfx_sampler",
			AddressModeU: key.Address,
			AddressModeV: key.Address,
			AddressModeW: key.Address,
			MagFilter:    key.Filter,
			MinFilter:    key.Filter,
			MipmapFilter: gputypes.FilterModeNearest,
			LodMinClamp:  0,
			LodMaxClamp:  32,
			Anisotropy:   1,
		})
		if err != nil {
			return nil, fmt.Errorf("textures: create sampler: %w", err)
		}
		return s, nil
	})
}

// Destroy releases every provider-owned texture and sampler.
func (p *Provider) Destroy() {
	p.views.Clear(p.release)
	p.samplers.Clear(func(s hal.Sampler) { p.device.DestroySampler(s) })
}
