//go:build !nogpu

package gputest

import (
	"errors"
	"sync"

	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Operations recorded by Encoder.
const (
	OpBeginPass   = "begin_pass"
	OpEndPass     = "end_pass"
	OpSetPipeline = "set_pipeline"
	OpSetBind     = "set_bind_group"
	OpStencilRef  = "stencil_ref"
	OpDraw        = "draw"
	OpClearBuffer = "clear_buffer"
)

// Event is one recorded encoder call.
type Event struct {
	Op        string
	Label     string
	Pipeline  hal.RenderPipeline
	Ref       uint32
	Vertices  uint32
	Instances uint32
	Pass      *hal.RenderPassDescriptor
}

// Encoder is a hal.CommandEncoder that records render-pass activity.
type Encoder struct {
	hal.CommandEncoder
	Events []Event
}

// NewEncoder returns a recording encoder over a noop encoder.
func NewEncoder() *Encoder {
	return &Encoder{CommandEncoder: &noop.CommandEncoder{}}
}

// BeginRenderPass records the descriptor and returns a recording pass.
func (e *Encoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	label := ""
	if desc != nil {
		label = desc.Label
	}
	e.Events = append(e.Events, Event{Op: OpBeginPass, Label: label, Pass: desc})
	return &Pass{RenderPassEncoder: &noop.RenderPassEncoder{}, enc: e}
}

// ClearBuffer records a buffer clear.
func (e *Encoder) ClearBuffer(_ hal.Buffer, _, _ uint64) {
	e.Events = append(e.Events, Event{Op: OpClearBuffer})
}

// Count returns how many events have the given op.
func (e *Encoder) Count(op string) int {
	n := 0
	for _, ev := range e.Events {
		if ev.Op == op {
			n++
		}
	}
	return n
}

// Filter returns the events with any of the given ops, in order.
func (e *Encoder) Filter(ops ...string) []Event {
	var out []Event
	for _, ev := range e.Events {
		for _, op := range ops {
			if ev.Op == op {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}

// Passes returns the labels of every render pass begun.
func (e *Encoder) Passes() []string {
	var out []string
	for _, ev := range e.Events {
		if ev.Op == OpBeginPass {
			out = append(out, ev.Label)
		}
	}
	return out
}

// Reset drops recorded events.
func (e *Encoder) Reset() { e.Events = nil }

// Pass is a recording render pass encoder.
type Pass struct {
	hal.RenderPassEncoder
	enc *Encoder
}

func (p *Pass) End() { p.enc.Events = append(p.enc.Events, Event{Op: OpEndPass}) }

func (p *Pass) SetPipeline(pipeline hal.RenderPipeline) {
	p.enc.Events = append(p.enc.Events, Event{Op: OpSetPipeline, Pipeline: pipeline})
}

func (p *Pass) SetBindGroup(index uint32, _ hal.BindGroup, _ []uint32) {
	p.enc.Events = append(p.enc.Events, Event{Op: OpSetBind, Ref: index})
}

func (p *Pass) SetStencilReference(reference uint32) {
	p.enc.Events = append(p.enc.Events, Event{Op: OpStencilRef, Ref: reference})
}

func (p *Pass) Draw(vertexCount, instanceCount, _, _ uint32) {
	p.enc.Events = append(p.enc.Events, Event{Op: OpDraw, Vertices: vertexCount, Instances: instanceCount})
}

// Queue records buffer and texture writes and can fail them on request.
type Queue struct {
	hal.Queue

	mu            sync.Mutex
	BufferWrites  int
	TextureWrites int
	failWrites    int
	last          map[hal.Buffer][]byte
}

// ErrWriteFailed is returned by injected write failures.
var ErrWriteFailed = errors.New("gputest: write failed")

// FailWrites makes the next n buffer writes fail.
func (q *Queue) FailWrites(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failWrites = n
}

func (q *Queue) WriteBuffer(b hal.Buffer, _ uint64, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failWrites > 0 {
		q.failWrites--
		return ErrWriteFailed
	}
	q.BufferWrites++
	if q.last == nil {
		q.last = make(map[hal.Buffer][]byte)
	}
	q.last[b] = append([]byte(nil), data...)
	return nil
}

// LastWrite returns a copy of the bytes most recently written to b.
func (q *Queue) LastWrite(b hal.Buffer) []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last[b]
}

func (q *Queue) WriteTexture(_ *hal.ImageCopyTexture, _ []byte, _ *hal.ImageDataLayout, _ *hal.Extent3D) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.TextureWrites++
	return nil
}

// Writes returns the number of successful buffer writes.
func (q *Queue) Writes() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.BufferWrites
}
