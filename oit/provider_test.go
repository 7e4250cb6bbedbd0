//go:build !nogpu

package oit

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/fog"
	"github.com/gogpu/screenfx/internal/gputest"
	"github.com/gogpu/screenfx/internal/shaders"
)

func newProvider(t *testing.T) (*Provider, *gputest.Device, *gputest.Queue) {
	t.Helper()
	dev, q := gputest.NewDevice(t)
	sh := shaders.NewProvider(dev, shaders.FormatWGSL)
	t.Cleanup(sh.Destroy)
	p, err := NewProvider(dev, q, sh, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	t.Cleanup(p.Destroy)
	return p, dev, q
}

var output = &gputest.Handle{Kind: gputest.KindTextureView, ID: 700}

func TestDisabledUntilPrepared(t *testing.T) {
	p, _, _ := newProvider(t)
	if p.Enabled() {
		t.Fatal("enabled without layers")
	}
	if p.UAVs() != [3]hal.Buffer{} {
		t.Fatal("UAVs before Prepare")
	}
	enc := gputest.NewEncoder()
	p.BeginFrame(enc)
	p.Resolve(enc, output, nil, nil)
	if len(enc.Events) != 0 {
		t.Fatalf("recorded %d events while disabled", len(enc.Events))
	}
}

func TestPrepareReusesSameSize(t *testing.T) {
	p, dev, _ := newProvider(t)
	base := dev.Created(gputest.KindBuffer)
	if err := p.Prepare(64, 32); err != nil {
		t.Fatal(err)
	}
	if err := p.Prepare(64, 32); err != nil {
		t.Fatal(err)
	}
	if got := dev.Created(gputest.KindBuffer) - base; got != 3 {
		t.Fatalf("allocated %d layer buffers, want 3", got)
	}
	if err := p.Prepare(128, 32); err != nil {
		t.Fatal(err)
	}
	if got := dev.Live(gputest.KindBuffer) - 1; got != 3 {
		t.Fatalf("live layer buffers after resize = %d, want 3", got)
	}
	if l := p.Layers(); !l.Complete() || l.Width != 128 {
		t.Fatalf("layers = %+v", l)
	}
	if err := p.Prepare(0, 10); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("err = %v, want ErrInvalidSize", err)
	}
}

func TestPrepareFailureLeavesDisabled(t *testing.T) {
	p, dev, _ := newProvider(t)
	base := dev.Live(gputest.KindBuffer)
	dev.Fail(gputest.KindBindGroup, 1)
	if err := p.Prepare(8, 8); !errors.Is(err, gputest.ErrInjected) {
		t.Fatalf("err = %v", err)
	}
	if p.Enabled() {
		t.Fatal("enabled after failed Prepare")
	}
	if dev.Live(gputest.KindBuffer) != base {
		t.Fatal("layer buffers leaked")
	}
}

func TestBeginFrameClearsLayers(t *testing.T) {
	p, _, _ := newProvider(t)
	if err := p.Prepare(16, 16); err != nil {
		t.Fatal(err)
	}
	enc := gputest.NewEncoder()
	p.BeginFrame(enc)
	if got := enc.Count(gputest.OpClearBuffer); got != 3 {
		t.Fatalf("clears = %d, want 3", got)
	}
}

func TestResolve(t *testing.T) {
	p, dev, q := newProvider(t)
	if err := p.Prepare(16, 16); err != nil {
		t.Fatal(err)
	}
	desc := dev.PipelineDesc(p.pipeline)
	target := desc.Fragment.Targets[0]
	if target.WriteMask != compositeWriteMask || target.Blend.Color.DstFactor != gputypes.BlendFactorSrcAlpha {
		t.Fatalf("resolve target = %+v", target)
	}

	fp := fog.DefaultParams()
	fp.Enabled = true
	enc := gputest.NewEncoder()
	p.Resolve(enc, output, &fp, nil)
	if got := enc.Passes(); len(got) != 1 || got[0] != "oit_resolve" {
		t.Fatalf("passes = %v", got)
	}
	if enc.Count(gputest.OpDraw) != 1 || p.Resolves() != 1 {
		t.Fatal("expected one resolve draw")
	}
	if q.Writes() != 1 {
		t.Fatalf("uniform writes = %d", q.Writes())
	}
	if n := len(p.pack(nil)); n != resolveSize {
		t.Fatalf("packed %d bytes without fog", n)
	}
	if n := len(p.pack(&fp)); n != resolveSize {
		t.Fatalf("packed %d bytes with fog", n)
	}
}

func TestStartupFailure(t *testing.T) {
	dev, q := gputest.NewDevice(t)
	sh := shaders.NewProvider(dev, shaders.FormatWGSL)
	t.Cleanup(sh.Destroy)
	dev.Fail(gputest.KindBuffer, 1)
	p, err := NewProvider(dev, q, sh, gputypes.TextureFormatBGRA8Unorm)
	if !errors.Is(err, gputest.ErrInjected) || p != nil {
		t.Fatalf("NewProvider = %v, %v", p, err)
	}
	if dev.Live(gputest.KindRenderPipeline) != 0 {
		t.Fatal("pipeline leaked")
	}
	var nilProvider *Provider
	if nilProvider.Enabled() || nilProvider.Prepare(4, 4) == nil {
		t.Fatal("nil provider should be inert")
	}
}
