// Package screenfx provides screen-space rendering effects for a host
// renderer built on gogpu/wgpu.
//
// # Overview
//
// screenfx draws on top of an existing frame. The host owns the swapchain,
// its depth-stencil buffer and the command encoder; screenfx records its
// passes into that encoder after the scene pass. Nothing is submitted by
// this package.
//
// # Quick Start
//
//	import "github.com/gogpu/screenfx"
//
//	fx, err := screenfx.New(device, queue,
//		screenfx.WithOutputFormat(gputypes.TextureFormatBGRA8Unorm),
//		screenfx.WithFogParams(fogParams),
//	)
//	if err != nil {
//		return err
//	}
//	defer fx.Destroy()
//
//	// Every frame:
//	fx.HandleInput(keys.IsDown)
//	fx.Render(encoder, screenfx.Frame{
//		Output: swapchainView,
//		Depth:  depthView,
//		Camera: cam,
//		Width:  width,
//		Height: height,
//	})
//
// # Effects
//
// Effects are recorded in a fixed order:
//   - transparency layer clear (oit)
//   - atmosphere cubemap behind the scene (sky)
//   - low-resolution clouds with depth-aware upsample (clouds)
//   - height and distance fog (fog)
//   - transparency resolve, fogged when fog is on (oit)
//   - depth and stencil debug views (debugviz)
//
// Each effect is built once at New. An effect that fails to build is logged
// at warn level and stays disabled; the others keep working.
//
// # Sub-packages
//
//   - depth: raw to linear depth conversion
//   - camera: view and projection helpers
//   - debugviz: depth and stencil visualization modes and hotkeys
//   - clouds: particle clouds, field generation and the CPU upsampler
//   - sky: sky dome parameters and the depth-gated cubemap pass
//   - fog: fog parameters and the fullscreen fog pass
//   - oit: order-independent transparency layers and resolve
//   - profiler: per-pass timing scopes
//
// # Logging
//
// screenfx is silent by default. See [SetLogger].
package screenfx

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
