// Command screenfx-demo drives every screenfx effect headlessly on the noop
// backend and prints what each frame recorded.
//
// The debug view is cycled with scripted F10 presses, so one run visits
// every visualization mode. With -preview it also renders the cloud field on
// the CPU, upsamples it against a synthetic depth buffer and writes a PNG.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/screenfx"
	"github.com/gogpu/screenfx/camera"
	"github.com/gogpu/screenfx/debugviz"
	"github.com/gogpu/screenfx/fog"
	"github.com/gogpu/screenfx/sky"
)

func main() {
	var (
		width   = flag.Int("width", 1280, "frame width")
		height  = flag.Int("height", 720, "frame height")
		shader  = flag.String("shaders", "spirv", "shader modules: spirv or wgsl")
		samples = flag.Uint("samples", 1, "depth-stencil sample count")
		fogHex  = flag.String("fog", "#99a6b3", "fog color, empty disables fog")
		skyDome = flag.Bool("sky", true, "composite an atmosphere cubemap behind the scene")
		verbose = flag.Bool("v", false, "debug logging")
		preview = flag.String("preview", "", "write a CPU cloud preview PNG to this file")
		pwidth  = flag.Int("preview-width", 640, "preview image width")
	)
	flag.Parse()

	if *verbose {
		screenfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	if *width <= 0 || *height <= 0 {
		log.Fatalf("invalid frame size %dx%d", *width, *height)
	}

	dev, err := openNoop()
	if err != nil {
		log.Fatalf("open noop device: %v", err)
	}
	defer dev.close()

	opts := []screenfx.Option{screenfx.WithOutputFormat(gputypes.TextureFormatBGRA8Unorm)}
	if *shader == "wgsl" {
		opts = append(opts, screenfx.WithShaderFormat(screenfx.ShaderWGSL))
	}
	if *fogHex != "" {
		fp := fog.DefaultParams()
		fp.Enabled = true
		if err := fp.SetColor(*fogHex); err != nil {
			log.Fatalf("fog color: %v", err)
		}
		opts = append(opts, screenfx.WithFogParams(fp))
	}

	if *skyDome {
		sp := sky.DefaultParams()
		sp.Enabled = true
		opts = append(opts, screenfx.WithSkyParams(sp))
	}

	fx, err := screenfx.New(dev.device, dev.queue, opts...)
	if err != nil {
		log.Fatalf("create compositor: %v", err)
	}
	defer fx.Destroy()

	if *skyDome {
		cube, err := dev.cubemap("sky_atmosphere", 64)
		if err != nil {
			log.Fatalf("create sky cubemap: %v", err)
		}
		fx.RegisterTexture(sky.DefaultCubemap, cube)
	}

	w, h := uint32(*width), uint32(*height)
	frame, err := dev.frame(w, h, uint32(*samples))
	if err != nil {
		log.Fatalf("create frame targets: %v", err)
	}
	cam := camera.LookAt(mgl32.Vec3{0, 120, -2500}, mgl32.Vec3{0, 450, 0},
		mgl32.DegToRad(60), float32(w)/float32(h), 0.5, 20000)
	frame.Camera = cam
	frame.SunDirection = mgl32.Vec3{0.4, 0.8, 0.3}
	frame.SunColor = mgl32.Vec3{1, 0.95, 0.85}

	fmt.Printf("%-16s %6s %6s %9s %4s %5s %5s %4s %s\n",
		"mode", "passes", "draws", "particles", "sky", "fog", "oit", "rt", "notes")
	for i := 0; i < 2*int(debugviz.ModeCount); i++ {
		// Even frames press F10, odd frames release it.
		down := i%2 == 0
		fx.HandleInput(func(k gpucontext.Key) bool { return down && k == gpucontext.KeyF10 })
		if !down {
			continue
		}
		frame.Time = float32(i) / 60

		stats, err := dev.record(fx, frame)
		if err != nil {
			log.Fatalf("frame %d: %v", i, err)
		}
		note := ""
		if fx.Visualizer().MSAAWarning() {
			note = "stencil view needs single-sampled depth"
		}
		v := stats.Visualizer
		fmt.Printf("%-16s %6d %6d %9d %4d %5d %5d %4d %s\n",
			v.Mode, v.Passes+stats.Clouds.Passes, v.Draws+stats.Clouds.Draws,
			stats.Clouds.Particles, stats.SkyDraws, stats.FogDraws, stats.OITResolves, stats.TargetAllocations, note)
	}

	if *preview != "" {
		if err := writePreview(*preview, fx.Clouds().Particles(), cam, int(w), int(h), *pwidth); err != nil {
			log.Fatalf("preview: %v", err)
		}
		log.Printf("Preview saved to %s", *preview)
	}
}

type noopDevice struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	owned    []func()
}

func openNoop() (*noopDevice, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, err
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	return &noopDevice{instance: instance, device: open.Device, queue: open.Queue}, nil
}

func (d *noopDevice) close() {
	for i := len(d.owned) - 1; i >= 0; i-- {
		d.owned[i]()
	}
	d.device.Destroy()
	d.instance.Destroy()
}

// target creates a texture and its default view, released by close.
func (d *noopDevice) target(label string, format gputypes.TextureFormat, w, h, samples uint32,
	aspect gputypes.TextureAspect,
) (hal.TextureView, error) {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, err
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        aspect,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, err
	}
	d.owned = append(d.owned, func() {
		d.device.DestroyTextureView(view)
		d.device.DestroyTexture(tex)
	})
	return view, nil
}

// cubemap creates an empty six-face color cube, released by close.
func (d *noopDevice) cubemap(label string, size uint32) (hal.TextureView, error) {
	format := gputypes.TextureFormatRGBA8Unorm
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 6},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           label + "_view",
		Format:          format,
		Dimension:       gputypes.TextureViewDimensionCube,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 6,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, err
	}
	d.owned = append(d.owned, func() {
		d.device.DestroyTextureView(view)
		d.device.DestroyTexture(tex)
	})
	return view, nil
}

// frame builds the host targets a renderer would own: a swapchain image,
// a depth-stencil buffer and its depth and stencil aspect views.
func (d *noopDevice) frame(w, h, samples uint32) (screenfx.Frame, error) {
	samples = max(samples, 1)
	f := screenfx.Frame{Width: w, Height: h, StencilSamples: samples}
	var err error
	if f.Output, err = d.target("swapchain", gputypes.TextureFormatBGRA8Unorm, w, h, 1, gputypes.TextureAspectAll); err != nil {
		return f, err
	}
	ds := gputypes.TextureFormatDepth24PlusStencil8
	if f.DepthStencil, err = d.target("depth_stencil", ds, w, h, samples, gputypes.TextureAspectAll); err != nil {
		return f, err
	}
	if f.Depth, err = d.target("scene_depth", ds, w, h, 1, gputypes.TextureAspectDepthOnly); err != nil {
		return f, err
	}
	if samples > 1 {
		f.StencilSampled, err = d.target("stencil_sampled", ds, w, h, samples, gputypes.TextureAspectStencilOnly)
	}
	return f, err
}

// record encodes and submits one frame.
func (d *noopDevice) record(fx *screenfx.Compositor, f screenfx.Frame) (screenfx.Stats, error) {
	fx.BeginFrame()
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "screenfx_demo"})
	if err != nil {
		return screenfx.Stats{}, err
	}
	if err := enc.BeginEncoding("screenfx_demo"); err != nil {
		return screenfx.Stats{}, err
	}
	fx.Render(enc, f)
	cmd, err := enc.EndEncoding()
	if err != nil {
		return screenfx.Stats{}, err
	}
	defer d.device.FreeCommandBuffer(cmd)
	if _, err := d.queue.Submit([]hal.CommandBuffer{cmd}); err != nil {
		return screenfx.Stats{}, err
	}
	return fx.LastFrame(), nil
}
