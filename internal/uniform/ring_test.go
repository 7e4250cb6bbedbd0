//go:build !nogpu

package uniform

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
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
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

type recordingQueue struct {
	hal.Queue
	writes [][]byte
}

func (q *recordingQueue) WriteBuffer(_ hal.Buffer, _ uint64, data []byte) error {
	q.writes = append(q.writes, append([]byte(nil), data...))
	return nil
}

func TestRingOffsetsAreAligned(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	r, err := NewRing(device, "test_ring", 32, 4)
	if err != nil {
		t.Fatalf("NewRing: %v", err)
	}
	defer r.Destroy()

	for i := 0; i < 4; i++ {
		off, err := r.Push(make([]byte, 32))
		if err != nil {
			t.Fatalf("Push %d: %v", i, err)
		}
		if off != uint32(i*SlotAlign) {
			t.Errorf("slot %d offset = %d, want %d", i, off, i*SlotAlign)
		}
	}
	if _, err := r.Push(make([]byte, 32)); !errors.Is(err, ErrRingFull) {
		t.Errorf("expected ErrRingFull, got %v", err)
	}

	rq := &recordingQueue{Queue: queue}
	if err := r.Flush(rq); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(rq.writes) != 1 || len(rq.writes[0]) != 4*SlotAlign {
		t.Fatalf("expected one full write of %d bytes, got %d writes", 4*SlotAlign, len(rq.writes))
	}

	r.Reset()
	if r.Used() != 0 {
		t.Errorf("Reset should clear slot count")
	}
	if err := r.Flush(rq); err != nil || len(rq.writes) != 1 {
		t.Errorf("empty flush should not write")
	}
}

func TestRingRejectsOversizedSlot(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	r, err := NewRing(device, "small", 16, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Push(make([]byte, 17)); err == nil {
		t.Error("expected error for oversized data")
	}
	if _, err := NewRing(device, "bad", 0, 1); err == nil {
		t.Error("expected error for zero slot size")
	}
}
