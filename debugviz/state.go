package debugviz

// State is the mode automaton. The zero value starts disabled and restores
// ModeDepthLinear on the first toggle.
type State struct {
	mode Mode
	last Mode
}

// NewState returns a state showing mode. Invalid modes start disabled.
func NewState(mode Mode) *State {
	s := &State{}
	s.Set(mode)
	return s
}

// Mode returns the active mode.
func (s *State) Mode() Mode { return s.mode }

// Active reports whether anything is drawn.
func (s *State) Active() bool { return s.mode != ModeNone }

// LastActive returns the mode a toggle from none restores.
func (s *State) LastActive() Mode {
	if s.last == ModeNone {
		return ModeDepthLinear
	}
	return s.last
}

// Set selects a mode directly. Invalid modes disable the visualizer.
func (s *State) Set(m Mode) {
	if !m.Valid() {
		m = ModeNone
	}
	s.mode = m
}

// Toggle turns the visualizer off, remembering the current mode, or back on
// with the remembered mode.
func (s *State) Toggle() {
	if s.mode == ModeNone {
		s.mode = s.LastActive()
		return
	}
	s.last = s.mode
	s.mode = ModeNone
}

// Cycle advances to the next mode, wrapping after ModeCombined to ModeNone.
func (s *State) Cycle() {
	s.mode = (s.mode + 1) % ModeCount
}
