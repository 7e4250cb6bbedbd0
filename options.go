package screenfx

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/screenfx/clouds"
	"github.com/gogpu/screenfx/debugviz"
	"github.com/gogpu/screenfx/fog"
	"github.com/gogpu/screenfx/profiler"
	"github.com/gogpu/screenfx/sky"
)

// ShaderFormat selects how shader sources reach the device.
type ShaderFormat int

const (
	// ShaderSPIRV compiles the embedded WGSL to SPIR-V with naga.
	ShaderSPIRV ShaderFormat = iota
	// ShaderWGSL hands the WGSL source to the backend as-is.
	ShaderWGSL
)

// Option configures a Compositor during creation.
//
// Example:
//
//	fx, err := screenfx.New(device, queue,
//		screenfx.WithOutputFormat(gputypes.TextureFormatRGBA8Unorm),
//		screenfx.WithVisualizerMode(debugviz.ModeCombined),
//	)
type Option func(*options)

// options holds optional configuration for Compositor creation.
type options struct {
	outputFormat       gputypes.TextureFormat
	depthStencilFormat gputypes.TextureFormat
	shaderFormat       ShaderFormat

	visualizer debugviz.Config
	mode       debugviz.Mode
	bindings   debugviz.Bindings

	clouds clouds.Params
	sky    sky.Params
	fog    fog.Params
	oit    bool

	noiseSeed uint64
	profiler  profiler.Group
}

// defaultOptions returns the default compositor options.
func defaultOptions() options {
	return options{
		outputFormat:       gputypes.TextureFormatBGRA8Unorm,
		depthStencilFormat: gputypes.TextureFormatDepth24PlusStencil8,
		shaderFormat:       ShaderSPIRV,
		visualizer:         debugviz.DefaultConfig(),
		bindings:           debugviz.DefaultBindings(),
		clouds:             clouds.DefaultParams(),
		sky:                sky.DefaultParams(),
		fog:                fog.DefaultParams(),
		oit:                true,
		noiseSeed:          7,
	}
}

// WithOutputFormat sets the format of the color target the effects draw to.
// When creating from a DeviceProvider the surface format is used unless
// this option is given.
func WithOutputFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.outputFormat = f
	}
}

// WithDepthStencilFormat sets the format of the host depth-stencil buffer
// used by the stencil debug views.
func WithDepthStencilFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.depthStencilFormat = f
	}
}

// WithShaderFormat selects SPIR-V (default) or WGSL shader modules.
func WithShaderFormat(f ShaderFormat) Option {
	return func(o *options) {
		o.shaderFormat = f
	}
}

// WithVisualizerConfig sets the debug visualizer configuration.
func WithVisualizerConfig(c debugviz.Config) Option {
	return func(o *options) {
		o.visualizer = c
	}
}

// WithVisualizerMode sets the initial debug view.
func WithVisualizerMode(m debugviz.Mode) Option {
	return func(o *options) {
		o.mode = m
	}
}

// WithBindings sets the debug view hotkeys.
func WithBindings(b debugviz.Bindings) Option {
	return func(o *options) {
		o.bindings = b
	}
}

// WithCloudParams sets the initial cloud parameters.
func WithCloudParams(p clouds.Params) Option {
	return func(o *options) {
		o.clouds = p
	}
}

// WithSkyParams sets the initial sky dome parameters. The dome also needs
// a cubemap registered with RegisterTexture.
func WithSkyParams(p sky.Params) Option {
	return func(o *options) {
		o.sky = p
	}
}

// WithFogParams sets the initial fog parameters.
func WithFogParams(p fog.Params) Option {
	return func(o *options) {
		o.fog = p
	}
}

// WithOIT enables or disables the transparency layers. Enabled by default.
func WithOIT(enabled bool) Option {
	return func(o *options) {
		o.oit = enabled
	}
}

// WithNoiseSeed sets the seed of the procedural cloud noise texture.
func WithNoiseSeed(seed uint64) Option {
	return func(o *options) {
		o.noiseSeed = seed
	}
}

// WithProfiler sets the profiler that receives per-pass scopes.
func WithProfiler(p profiler.Group) Option {
	return func(o *options) {
		o.profiler = p
	}
}
