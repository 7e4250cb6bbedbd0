//go:build !nogpu

package debugviz

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/screenfx/internal/cache"
	"github.com/gogpu/screenfx/internal/gputest"
)

type recordingBuilder struct {
	tests []StencilTest
	fail  int
	next  uint64
}

func (b *recordingBuilder) build(t StencilTest) (hal.RenderPipeline, error) {
	if b.fail > 0 {
		b.fail--
		return nil, gputest.ErrInjected
	}
	b.tests = append(b.tests, t)
	b.next++
	return &gputest.Handle{Kind: gputest.KindRenderPipeline, ID: b.next}, nil
}

func TestStencilStatesEagerDomains(t *testing.T) {
	b := &recordingBuilder{}
	s, err := NewStencilStates(b.build, nil)
	if err != nil {
		t.Fatalf("NewStencilStates: %v", err)
	}
	if len(b.tests) != int(fixedCount)+8 {
		t.Fatalf("built %d pipelines at startup, want %d", len(b.tests), int(fixedCount)+8)
	}
	if b.tests[FixedDisabled].Enabled {
		t.Error("disabled state has stencil enabled")
	}
	for bit := 0; bit < 8; bit++ {
		got := b.tests[int(fixedCount)+bit]
		if got.Compare != gputypes.CompareFunctionNotEqual || got.ReadMask != 1<<bit {
			t.Errorf("bit %d state = %+v", bit, got)
		}
	}
	if st := s.Stats(); st.Equal.Creations != 0 || st.Sampled.Creations != 0 {
		t.Errorf("lazy domains populated at startup: %+v", st)
	}
}

func TestStencilStatesEqualIdentity(t *testing.T) {
	b := &recordingBuilder{}
	s, err := NewStencilStates(b.build, nil)
	if err != nil {
		t.Fatal(err)
	}
	startup := len(b.tests)

	first := make(map[int]hal.RenderPipeline)
	for ref := 0; ref < 256; ref++ {
		p, err := s.Equal(ref)
		if err != nil {
			t.Fatalf("Equal(%d): %v", ref, err)
		}
		first[ref] = p
	}
	for ref := 0; ref < 256; ref++ {
		p, _ := s.Equal(ref)
		if p != first[ref] {
			t.Fatalf("Equal(%d) returned a different handle on reuse", ref)
		}
	}
	if created := len(b.tests) - startup; created != 256 {
		t.Fatalf("created %d EQUAL states, want 256", created)
	}
	if got := s.Stats().Equal.Creations; got != 256 {
		t.Errorf("Creations = %d", got)
	}
	if _, err := s.Equal(256); !errors.Is(err, cache.ErrKeyRange) {
		t.Errorf("Equal(256) err = %v, want ErrKeyRange", err)
	}
}

func TestStencilStatesFailureRetries(t *testing.T) {
	b := &recordingBuilder{}
	s, err := NewStencilStates(b.build, nil)
	if err != nil {
		t.Fatal(err)
	}
	b.fail = 1
	if _, err := s.Equal(4); !errors.Is(err, gputest.ErrInjected) {
		t.Fatalf("err = %v, want injected", err)
	}
	p, err := s.Equal(4)
	if err != nil || p == nil {
		t.Fatalf("retry failed: %v", err)
	}
	st := s.Stats().Equal
	if st.Failures != 1 || st.Creations != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestStencilStatesStartupFailure(t *testing.T) {
	b := &recordingBuilder{fail: 1}
	if _, err := NewStencilStates(b.build, nil); !errors.Is(err, gputest.ErrInjected) {
		t.Fatalf("err = %v, want injected", err)
	}
}

func TestStencilStatesSampledUnsupported(t *testing.T) {
	b := &recordingBuilder{}
	s, err := NewStencilStates(b.build, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Sampled(); err == nil {
		t.Fatal("Sampled without a builder should fail")
	}
}

func TestStencilStatesDestroy(t *testing.T) {
	b := &recordingBuilder{}
	s, err := NewStencilStates(b.build, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Equal(1)
	s.Equal(2)
	released := 0
	s.Destroy(func(hal.RenderPipeline) { released++ })
	if want := int(fixedCount) + 8 + 2; released != want {
		t.Fatalf("released %d, want %d", released, want)
	}
	if s.Stats().Equal.Len != 0 {
		t.Error("arena not empty after Destroy")
	}
}
