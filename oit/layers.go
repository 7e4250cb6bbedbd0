// Package oit owns the order-independent transparency layers.
//
// Transparent passes accumulate into three per-pixel storage buffers:
// nearest inverse depth, weighted color and an aux record holding the
// optical depth and fragment count. Resolve composites them over the frame
// once all transparent work has been recorded.
package oit

import "github.com/gogpu/wgpu/hal"

// Per-pixel strides of the layer buffers, in bytes.
const (
	DepthStride = 4  // f32 inverse depth
	ColorStride = 16 // vec4 weighted premultiplied color
	AuxStride   = 16 // vec4 optical depth, count, unused, unused
)

// Layers are the storage buffers writers bind read-write.
type Layers struct {
	Depth  hal.Buffer
	Color  hal.Buffer
	Aux    hal.Buffer
	Width  uint32
	Height uint32
}

// Complete reports whether all three layers are present.
func (l Layers) Complete() bool {
	return l.Depth != nil && l.Color != nil && l.Aux != nil && l.Width > 0 && l.Height > 0
}

// Pixels is the number of elements in each layer.
func (l Layers) Pixels() uint64 { return uint64(l.Width) * uint64(l.Height) }

// Sizes returns the byte size of the depth, color and aux layers.
func (l Layers) Sizes() [3]uint64 {
	n := l.Pixels()
	return [3]uint64{n * DepthStride, n * ColorStride, n * AuxStride}
}

// Buffers returns the layers in binding order.
func (l Layers) Buffers() [3]hal.Buffer {
	return [3]hal.Buffer{l.Depth, l.Color, l.Aux}
}
