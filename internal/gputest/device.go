//go:build !nogpu

// Package gputest provides instrumented hal devices and encoders for tests.
//
// The noop backend hands out zero-sized resources, so two handles can compare
// equal. Device wraps a noop device and returns a distinct Handle for every
// creation, counts creations per kind, and can inject failures.
package gputest

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Resource kinds tracked by Device.
const (
	KindBuffer          = "buffer"
	KindTexture         = "texture"
	KindTextureView     = "texture_view"
	KindSampler         = "sampler"
	KindBindGroupLayout = "bind_group_layout"
	KindBindGroup       = "bind_group"
	KindPipelineLayout  = "pipeline_layout"
	KindShaderModule    = "shader_module"
	KindRenderPipeline  = "render_pipeline"
)

// ErrInjected is returned by creations that were told to fail.
var ErrInjected = errors.New("gputest: injected failure")

// Handle is a distinct resource usable as any hal resource type.
type Handle struct {
	Kind string
	ID   uint64
}

// Destroy is a no-op; Device counts destruction.
func (h *Handle) Destroy() {}

// NativeHandle returns the handle ID.
func (h *Handle) NativeHandle() uintptr { return uintptr(h.ID) }

// CurrentUsage reports no tracked usage.
func (h *Handle) CurrentUsage() gputypes.TextureUsage { return 0 }

// AddPendingRef is a no-op.
func (h *Handle) AddPendingRef() {}

// DecPendingRef is a no-op.
func (h *Handle) DecPendingRef() {}

// Device is a counting hal.Device.
type Device struct {
	hal.Device

	mu        sync.Mutex
	next      uint64
	created   map[string]int
	destroyed map[string]int
	fail      map[string]int
	pipelines map[hal.RenderPipeline]*hal.RenderPipelineDescriptor
	textures  map[hal.Texture]*hal.TextureDescriptor
}

// NewNoop opens a noop device. Resources are released at test cleanup.
func NewNoop(t testing.TB) (hal.Device, hal.Queue) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return openDev.Device, openDev.Queue
}

// NewDevice returns a counting device over a fresh noop device, and a
// recording queue.
func NewDevice(t testing.TB) (*Device, *Queue) {
	t.Helper()
	inner, q := NewNoop(t)
	return Wrap(inner), &Queue{Queue: q}
}

// Wrap instruments an existing device.
func Wrap(inner hal.Device) *Device {
	return &Device{
		Device:    inner,
		created:   make(map[string]int),
		destroyed: make(map[string]int),
		fail:      make(map[string]int),
		pipelines: make(map[hal.RenderPipeline]*hal.RenderPipelineDescriptor),
		textures:  make(map[hal.Texture]*hal.TextureDescriptor),
	}
}

// Fail makes the next n creations of kind return ErrInjected.
func (d *Device) Fail(kind string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[kind] = n
}

// Created returns how many resources of kind were created.
func (d *Device) Created(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[kind]
}

// Destroyed returns how many resources of kind were destroyed.
func (d *Device) Destroyed(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed[kind]
}

// Live returns created minus destroyed for kind.
func (d *Device) Live(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.created[kind] - d.destroyed[kind]
}

// TotalCreated sums creations over every kind.
func (d *Device) TotalCreated() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.created {
		n += c
	}
	return n
}

// PipelineDesc returns the descriptor a pipeline was created with.
func (d *Device) PipelineDesc(p hal.RenderPipeline) *hal.RenderPipelineDescriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pipelines[p]
}

// TextureDesc returns the descriptor a texture was created with.
func (d *Device) TextureDesc(t hal.Texture) *hal.TextureDescriptor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.textures[t]
}

func (d *Device) create(kind string) (*Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail[kind] > 0 {
		d.fail[kind]--
		return nil, fmt.Errorf("%s: %w", kind, ErrInjected)
	}
	d.next++
	d.created[kind]++
	return &Handle{Kind: kind, ID: d.next}, nil
}

func (d *Device) destroy(kind string, r any) {
	if r == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed[kind]++
}

func (d *Device) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	if desc == nil {
		return nil, errors.New("gputest: nil buffer descriptor")
	}
	h, err := d.create(KindBuffer)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (d *Device) DestroyBuffer(b hal.Buffer) { d.destroy(KindBuffer, b) }

func (d *Device) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if desc == nil {
		return nil, errors.New("gputest: nil texture descriptor")
	}
	h, err := d.create(KindTexture)
	if err != nil {
		return nil, err
	}
	cp := *desc
	d.mu.Lock()
	d.textures[h] = &cp
	d.mu.Unlock()
	return h, nil
}

func (d *Device) DestroyTexture(t hal.Texture) { d.destroy(KindTexture, t) }

func (d *Device) CreateTextureView(_ hal.Texture, _ *hal.TextureViewDescriptor) (hal.TextureView, error) {
	h, err := d.create(KindTextureView)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (d *Device) DestroyTextureView(v hal.TextureView) { d.destroy(KindTextureView, v) }

func (d *Device) CreateSampler(_ *hal.SamplerDescriptor) (hal.Sampler, error) {
	h, err := d.create(KindSampler)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (d *Device) DestroySampler(s hal.Sampler) { d.destroy(KindSampler, s) }

func (d *Device) CreateBindGroupLayout(_ *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	h, err := d.create(KindBindGroupLayout)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (d *Device) DestroyBindGroupLayout(l hal.BindGroupLayout) { d.destroy(KindBindGroupLayout, l) }

func (d *Device) CreateBindGroup(_ *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	h, err := d.create(KindBindGroup)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (d *Device) DestroyBindGroup(g hal.BindGroup) { d.destroy(KindBindGroup, g) }

func (d *Device) CreatePipelineLayout(_ *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	h, err := d.create(KindPipelineLayout)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (d *Device) DestroyPipelineLayout(l hal.PipelineLayout) { d.destroy(KindPipelineLayout, l) }

func (d *Device) CreateShaderModule(_ *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	h, err := d.create(KindShaderModule)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (d *Device) DestroyShaderModule(m hal.ShaderModule) { d.destroy(KindShaderModule, m) }

func (d *Device) CreateRenderPipeline(desc *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	h, err := d.create(KindRenderPipeline)
	if err != nil {
		return nil, err
	}
	cp := *desc
	if desc.DepthStencil != nil {
		ds := *desc.DepthStencil
		cp.DepthStencil = &ds
	}
	d.mu.Lock()
	d.pipelines[h] = &cp
	d.mu.Unlock()
	return h, nil
}

func (d *Device) DestroyRenderPipeline(p hal.RenderPipeline) { d.destroy(KindRenderPipeline, p) }
