// Package uniform packs shader constants and manages per-frame constant
// buffers.
package uniform

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Writer appends little-endian shader constants to a byte slice.
// Callers are responsible for WGSL alignment (vec3 fields are padded by
// writing a trailing scalar or an explicit Pad).
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with capacity for n bytes.
func NewWriter(n int) *Writer {
	return &Writer{buf: make([]byte, 0, n)}
}

// Reset truncates the writer for reuse.
func (w *Writer) Reset() *Writer {
	w.buf = w.buf[:0]
	return w
}

// Bytes returns the packed data.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written.
func (w *Writer) Len() int { return len(w.buf) }

// F32 appends one float.
func (w *Writer) F32(v float32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
	return w
}

// U32 appends one unsigned integer.
func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

// Vec2 appends two floats.
func (w *Writer) Vec2(v mgl32.Vec2) *Writer { return w.F32(v[0]).F32(v[1]) }

// Vec3 appends three floats without padding.
func (w *Writer) Vec3(v mgl32.Vec3) *Writer { return w.F32(v[0]).F32(v[1]).F32(v[2]) }

// Vec4 appends four floats.
func (w *Writer) Vec4(v mgl32.Vec4) *Writer {
	return w.F32(v[0]).F32(v[1]).F32(v[2]).F32(v[3])
}

// Mat4 appends a column-major 4x4 matrix.
func (w *Writer) Mat4(m mgl32.Mat4) *Writer {
	for _, v := range m {
		w.F32(v)
	}
	return w
}

// Pad appends zero bytes until the length is a multiple of align.
func (w *Writer) Pad(align int) *Writer {
	for len(w.buf)%align != 0 {
		w.buf = append(w.buf, 0)
	}
	return w
}
