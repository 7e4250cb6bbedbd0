package debugviz

import (
	"testing"

	"github.com/gogpu/gpucontext"
)

type keyboard map[gpucontext.Key]bool

func (k keyboard) isDown(key gpucontext.Key) bool { return k[key] }

func TestHotkeysRisingEdge(t *testing.T) {
	h := NewHotkeys(DefaultBindings())
	kb := keyboard{}

	if toggle, cycle := h.Poll(kb.isDown); toggle || cycle {
		t.Fatal("no keys held, got an event")
	}

	kb[gpucontext.KeyF9] = true
	if toggle, _ := h.Poll(kb.isDown); !toggle {
		t.Fatal("F9 press not reported")
	}
	for i := 0; i < 3; i++ {
		if toggle, _ := h.Poll(kb.isDown); toggle {
			t.Fatal("held F9 reported again")
		}
	}

	kb[gpucontext.KeyF9] = false
	h.Poll(kb.isDown)
	kb[gpucontext.KeyF9] = true
	if toggle, _ := h.Poll(kb.isDown); !toggle {
		t.Fatal("second F9 press not reported")
	}
}

func TestHotkeysApply(t *testing.T) {
	h := NewHotkeys(DefaultBindings())
	s := &State{}
	kb := keyboard{gpucontext.KeyF10: true}

	if !h.Apply(s, kb.isDown) || s.Mode() != ModeDepthLinear {
		t.Fatalf("cycle from none = %v", s.Mode())
	}
	kb[gpucontext.KeyF10] = false
	kb[gpucontext.KeyF9] = true
	h.Apply(s, kb.isDown)
	if s.Mode() != ModeNone || s.LastActive() != ModeDepthLinear {
		t.Fatalf("toggle off: mode %v last %v", s.Mode(), s.LastActive())
	}
	if h.Apply(s, kb.isDown) {
		t.Fatal("held key changed the mode")
	}
}

func TestHotkeysUnboundKeyIgnored(t *testing.T) {
	h := NewHotkeys(Bindings{Cycle: gpucontext.KeyF10})
	calls := 0
	toggle, _ := h.Poll(func(k gpucontext.Key) bool {
		if k == gpucontext.KeyUnknown {
			calls++
		}
		return true
	})
	if toggle || calls != 0 {
		t.Fatalf("unbound toggle polled %d times, toggle=%v", calls, toggle)
	}
}

type fakeSource struct {
	press, release func(gpucontext.Key, gpucontext.Modifiers)
}

func (f *fakeSource) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers))   { f.press = fn }
func (f *fakeSource) OnKeyRelease(fn func(gpucontext.Key, gpucontext.Modifiers)) { f.release = fn }

func TestKeyStateFollowsEvents(t *testing.T) {
	src := &fakeSource{}
	ks := TrackKeys(src)
	h := NewHotkeys(DefaultBindings())
	s := &State{}

	src.press(gpucontext.KeyF9, 0)
	h.Apply(s, ks.IsDown)
	if s.Mode() != ModeDepthLinear {
		t.Fatalf("after F9 press mode = %v", s.Mode())
	}
	src.release(gpucontext.KeyF9, 0)
	if ks.IsDown(gpucontext.KeyF9) {
		t.Fatal("F9 still down after release")
	}
	h.Apply(s, ks.IsDown)
	src.press(gpucontext.KeyF9, 0)
	h.Apply(s, ks.IsDown)
	if s.Mode() != ModeNone {
		t.Fatalf("after second F9 press mode = %v", s.Mode())
	}
}
