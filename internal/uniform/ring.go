//go:build !nogpu

package uniform

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// SlotAlign is the dynamic-offset alignment for uniform bindings
// (minUniformBufferOffsetAlignment in the WebGPU default limits).
const SlotAlign = 256

// ErrRingFull is returned by Push when every slot is taken this frame.
var ErrRingFull = errors.New("uniform: ring full")

// Ring is a uniform buffer split into fixed-size slots addressed by dynamic
// offsets. Slots are filled on the CPU during a frame and uploaded with a
// single write, so the buffer is always rewritten in full before any draw
// reads it.
type Ring struct {
	device   hal.Device
	buf      hal.Buffer
	stride   uint64
	slotSize uint64
	slots    int
	staging  []byte
	used     int
}

// NewRing allocates a ring with slots entries of slotSize bytes each.
func NewRing(device hal.Device, label string, slotSize uint64, slots int) (*Ring, error) {
	if slotSize == 0 || slots <= 0 {
		return nil, fmt.Errorf("uniform: invalid ring shape %dx%d", slots, slotSize)
	}
	stride := (slotSize + SlotAlign - 1) / SlotAlign * SlotAlign
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  stride * uint64(slots),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	return &Ring{
		device:   device,
		buf:      buf,
		stride:   stride,
		slotSize: slotSize,
		slots:    slots,
		staging:  make([]byte, 0, stride*uint64(slots)),
	}, nil
}

// Reset discards the slots pushed this frame.
func (r *Ring) Reset() {
	r.staging = r.staging[:0]
	r.used = 0
}

// Push stores data in the next slot and returns its dynamic offset.
func (r *Ring) Push(data []byte) (uint32, error) {
	if r.used >= r.slots {
		return 0, ErrRingFull
	}
	if uint64(len(data)) > r.slotSize {
		return 0, fmt.Errorf("uniform: %d bytes exceed slot size %d", len(data), r.slotSize)
	}
	off := uint64(r.used) * r.stride
	r.staging = append(r.staging, data...)
	for uint64(len(r.staging)) < off+r.stride {
		r.staging = append(r.staging, 0)
	}
	r.used++
	return uint32(off), nil
}

// Used returns the number of slots pushed since the last Reset.
func (r *Ring) Used() int { return r.used }

// Flush uploads every pushed slot in one write.
func (r *Ring) Flush(queue hal.Queue) error {
	if r.used == 0 {
		return nil
	}
	return queue.WriteBuffer(r.buf, 0, r.staging)
}

// Buffer returns the backing GPU buffer.
func (r *Ring) Buffer() hal.Buffer { return r.buf }

// BindingSize is the size to declare in the bind group entry.
func (r *Ring) BindingSize() uint64 { return r.slotSize }

// Destroy releases the GPU buffer.
func (r *Ring) Destroy() {
	if r.buf != nil {
		r.device.DestroyBuffer(r.buf)
		r.buf = nil
	}
}
