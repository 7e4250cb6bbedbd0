// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package rtpool recycles transient render targets across frames.
//
// Targets are checked out for a single frame with Acquire and returned in
// bulk by Recycle at the start of the next frame. A consumer must not keep a
// Target after the frame that acquired it.
package rtpool

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/internal/cache"
	"github.com/gogpu/screenfx/internal/logging"
)

// ErrInvalidSize is returned when a zero-sized target is requested.
var ErrInvalidSize = errors.New("rtpool: invalid target size")

// Key identifies interchangeable targets.
type Key struct {
	Format gputypes.TextureFormat
	Width  uint32
	Height uint32
	Usage  gputypes.TextureUsage
}

// Target is a pooled texture and its default view.
type Target struct {
	Key     Key
	Texture hal.Texture
	View    hal.TextureView
}

// freeList holds the idle targets for one key.
type freeList struct {
	idle []*Target
}

// Stats reports pool activity.
type Stats struct {
	Allocations int
	Reuses      int
	InUse       int
	Idle        int
}

// Pool owns every target it hands out.
type Pool struct {
	device hal.Device
	free   *cache.Cache[Key, *freeList]
	inUse  []*Target
	stats  Stats
}

// New creates an empty pool.
func New(device hal.Device) *Pool {
	return &Pool{
		device: device,
		free:   cache.New[Key, *freeList](),
	}
}

// Acquire returns an idle target for key or allocates one.
func (p *Pool) Acquire(key Key) (*Target, error) {
	if key.Width == 0 || key.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, key.Width, key.Height)
	}
	fl, _ := p.free.GetOrCreate(key, func() (*freeList, error) { return &freeList{}, nil })
	if n := len(fl.idle); n > 0 {
		t := fl.idle[n-1]
		fl.idle = fl.idle[:n-1]
		p.inUse = append(p.inUse, t)
		p.stats.Reuses++
		return t, nil
	}

	t, err := p.allocate(key)
	if err != nil {
		return nil, err
	}
	p.inUse = append(p.inUse, t)
	p.stats.Allocations++
	logging.Logger().Debug("rtpool: allocated target",
		"format", key.Format, "width", key.Width, "height", key.Height)
	return t, nil
}

func (p *Pool) allocate(key Key) (*Target, error) {
	tex, err := p.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "rtpool_target",
		Size:          hal.Extent3D{Width: key.Width, Height: key.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        key.Format,
		Usage:         key.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create pooled texture: %w", err)
	}
	view, err := p.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "rtpool_target_view",
		Format:        key.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		p.device.DestroyTexture(tex)
		return nil, fmt.Errorf("create pooled texture view: %w", err)
	}
	return &Target{Key: key, Texture: tex, View: view}, nil
}

// Recycle returns every checked-out target to its free list.
func (p *Pool) Recycle() {
	for _, t := range p.inUse {
		fl, _ := p.free.GetOrCreate(t.Key, func() (*freeList, error) { return &freeList{}, nil })
		fl.idle = append(fl.idle, t)
	}
	p.inUse = p.inUse[:0]
}

// Stats returns allocation counters.
func (p *Pool) Stats() Stats {
	s := p.stats
	s.InUse = len(p.inUse)
	p.free.Range(func(_ Key, fl *freeList) bool {
		s.Idle += len(fl.idle)
		return true
	})
	return s
}

// Destroy releases every target, idle or checked out.
func (p *Pool) Destroy() {
	p.Recycle()
	p.free.Clear(func(fl *freeList) {
		for _, t := range fl.idle {
			p.device.DestroyTextureView(t.View)
			p.device.DestroyTexture(t.Texture)
		}
	})
}
