//go:build !nogpu

package fog

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/screenfx/camera"
	"github.com/gogpu/screenfx/internal/gputest"
	"github.com/gogpu/screenfx/internal/shaders"
	"github.com/gogpu/screenfx/profiler"
)

func newPass(t *testing.T, enabled bool) (*Pass, *gputest.Device, *gputest.Queue) {
	t.Helper()
	dev, q := gputest.NewDevice(t)
	sh := shaders.NewProvider(dev, shaders.FormatWGSL)
	t.Cleanup(sh.Destroy)
	params := DefaultParams()
	params.Enabled = enabled
	p, err := New(dev, q, sh, gputypes.TextureFormatBGRA8Unorm, params)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(p.Destroy)
	return p, dev, q
}

func inputs() Inputs {
	return Inputs{
		Output: &gputest.Handle{Kind: gputest.KindTextureView, ID: 500},
		Depth:  &gputest.Handle{Kind: gputest.KindTextureView, ID: 501},
		Camera: camera.LookAt(mgl32.Vec3{0, 10, 50}, mgl32.Vec3{}, 1, 16.0/9, 0.1, 5000),
		Width:  1920,
		Height: 1080,
	}
}

func TestRenderSingleFullscreenDraw(t *testing.T) {
	p, _, q := newPass(t, true)
	enc := gputest.NewEncoder()
	rec := profiler.NewRecorder()
	p.Render(enc, inputs(), rec)

	draws := enc.Filter(gputest.OpDraw)
	if len(draws) != 1 || draws[0].Vertices != 3 {
		t.Fatalf("draws = %+v, want one 3-vertex draw", draws)
	}
	if got := enc.Passes(); len(got) != 1 || got[0] != "fog" {
		t.Fatalf("passes = %v", got)
	}
	if q.Writes() != 1 {
		t.Errorf("uniform writes = %d, want 1", q.Writes())
	}
	res := rec.Results()
	if len(res) != 1 || res[0].Label != "fog" {
		t.Errorf("profiler results = %v", res)
	}
}

func TestRenderBlendsOverOutput(t *testing.T) {
	p, dev, _ := newPass(t, true)
	desc := dev.PipelineDesc(p.pipeline)
	if desc == nil || desc.Fragment == nil || desc.Fragment.Targets[0].Blend == nil {
		t.Fatal("fog pipeline is not blended")
	}
	enc := gputest.NewEncoder()
	p.Render(enc, inputs(), nil)
	pass := enc.Events[0].Pass
	if pass.ColorAttachments[0].LoadOp != gputypes.LoadOpLoad {
		t.Error("fog pass clears the frame")
	}
	if pass.DepthStencilAttachment != nil {
		t.Error("fog pass attaches depth")
	}
}

func TestRenderSkips(t *testing.T) {
	tests := []struct {
		name   string
		on     bool
		mutate func(*Inputs)
	}{
		{"disabled", false, nil},
		{"no depth", true, func(in *Inputs) { in.Depth = nil }},
		{"no output", true, func(in *Inputs) { in.Output = nil }},
		{"zero camera", true, func(in *Inputs) { in.Camera = camera.Camera{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := newPass(t, tt.on)
			in := inputs()
			if tt.mutate != nil {
				tt.mutate(&in)
			}
			enc := gputest.NewEncoder()
			p.Render(enc, in, nil)
			if len(enc.Events) != 0 || p.Draws() != 0 {
				t.Fatalf("recorded %d events", len(enc.Events))
			}
		})
	}
}

func TestUploadFailureStillDraws(t *testing.T) {
	p, _, q := newPass(t, true)
	q.FailWrites(1)
	enc := gputest.NewEncoder()
	p.Render(enc, inputs(), nil)
	if enc.Count(gputest.OpDraw) != 1 {
		t.Fatal("write failure dropped the draw")
	}
}

func TestUniformLayout(t *testing.T) {
	p, _, _ := newPass(t, true)
	in := inputs()
	b := p.pack(in.Camera)
	if len(b) != uniformSize {
		t.Fatalf("packed %d bytes, want %d", len(b), uniformSize)
	}
}

func TestFrameGroupsReleased(t *testing.T) {
	p, dev, _ := newPass(t, true)
	for i := 0; i < 3; i++ {
		p.Render(gputest.NewEncoder(), inputs(), nil)
	}
	if live := dev.Live(gputest.KindBindGroup); live != 1 {
		t.Fatalf("live bind groups = %d, want 1", live)
	}
}

func TestStartupFailure(t *testing.T) {
	dev, q := gputest.NewDevice(t)
	sh := shaders.NewProvider(dev, shaders.FormatWGSL)
	t.Cleanup(sh.Destroy)
	dev.Fail(gputest.KindRenderPipeline, 1)

	p, err := New(dev, q, sh, gputypes.TextureFormatBGRA8Unorm, DefaultParams())
	if !errors.Is(err, gputest.ErrInjected) {
		t.Fatalf("err = %v, want injected", err)
	}
	if p != nil {
		t.Fatal("failed pass should be nil")
	}
	for _, kind := range []string{gputest.KindBindGroupLayout, gputest.KindPipelineLayout, gputest.KindBuffer} {
		if dev.Live(kind) != 0 {
			t.Errorf("%s leaked", kind)
		}
	}

	var nilPass *Pass
	nilPass.Render(gputest.NewEncoder(), inputs(), nil)
	if nilPass.Enabled() || nilPass.Draws() != 0 {
		t.Error("nil pass should be inert")
	}
}
