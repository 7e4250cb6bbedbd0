package debugviz

import (
	"sync"

	"github.com/gogpu/gpucontext"
)

// Bindings assigns the automaton's keys. gpucontext.KeyUnknown disables a
// binding.
type Bindings struct {
	Toggle gpucontext.Key
	Cycle  gpucontext.Key
}

// DefaultBindings returns F9 to toggle and F10 to cycle.
func DefaultBindings() Bindings {
	return Bindings{Toggle: gpucontext.KeyF9, Cycle: gpucontext.KeyF10}
}

// Hotkeys turns polled key states into press events.
type Hotkeys struct {
	bindings Bindings
	down     map[gpucontext.Key]bool
}

// NewHotkeys creates a detector for b.
func NewHotkeys(b Bindings) *Hotkeys {
	return &Hotkeys{bindings: b, down: make(map[gpucontext.Key]bool, 2)}
}

// Bindings returns the configured keys.
func (h *Hotkeys) Bindings() Bindings { return h.bindings }

// Poll samples both bound keys and reports which went from up to down since
// the previous poll. Holding a key reports it once.
func (h *Hotkeys) Poll(isDown func(gpucontext.Key) bool) (toggle, cycle bool) {
	toggle = h.pressed(h.bindings.Toggle, isDown)
	cycle = h.pressed(h.bindings.Cycle, isDown)
	return toggle, cycle
}

// Apply polls and feeds the events to s, toggle first. It reports whether
// the mode changed.
func (h *Hotkeys) Apply(s *State, isDown func(gpucontext.Key) bool) bool {
	before := s.Mode()
	toggle, cycle := h.Poll(isDown)
	if toggle {
		s.Toggle()
	}
	if cycle {
		s.Cycle()
	}
	return s.Mode() != before
}

func (h *Hotkeys) pressed(key gpucontext.Key, isDown func(gpucontext.Key) bool) bool {
	if key == gpucontext.KeyUnknown || isDown == nil {
		return false
	}
	now := isDown(key)
	was := h.down[key]
	h.down[key] = now
	return now && !was
}

// KeySource delivers key events. gpucontext.EventSource satisfies it.
type KeySource interface {
	OnKeyPress(func(key gpucontext.Key, mods gpucontext.Modifiers))
	OnKeyRelease(func(key gpucontext.Key, mods gpucontext.Modifiers))
}

// KeyState mirrors which keys are held, fed by a KeySource. Its IsDown
// method is the poll function Hotkeys expects.
type KeyState struct {
	mu   sync.Mutex
	down map[gpucontext.Key]bool
}

// TrackKeys subscribes to src and returns the tracked state.
func TrackKeys(src KeySource) *KeyState {
	k := &KeyState{down: make(map[gpucontext.Key]bool)}
	src.OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) { k.set(key, true) })
	src.OnKeyRelease(func(key gpucontext.Key, _ gpucontext.Modifiers) { k.set(key, false) })
	return k
}

func (k *KeyState) set(key gpucontext.Key, down bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.down[key] = down
}

// IsDown reports whether key is held.
func (k *KeyState) IsDown(key gpucontext.Key) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.down[key]
}
