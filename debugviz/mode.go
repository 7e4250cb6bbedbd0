// Package debugviz draws depth and stencil debug views over a finished frame.
//
// The package has two halves. The automaton (Mode, State, Hotkeys, Config)
// is pure and decides what to show. The Visualizer turns the current mode
// into a fixed, small number of fullscreen draws on the GPU.
package debugviz

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects what the visualizer shows.
type Mode uint8

// Visualization modes in cycle order.
const (
	ModeNone Mode = iota
	ModeDepthLinear
	ModeDepthLog
	ModeDepthRaw
	ModeStencilNonzero
	ModeStencilValues
	ModeStencilBits
	ModeCombined

	// ModeCount is the number of modes. It is not a valid mode.
	ModeCount
)

var modeNames = [ModeCount]string{
	"none",
	"depth_linear",
	"depth_log",
	"depth_raw",
	"stencil_nonzero",
	"stencil_values",
	"stencil_bits",
	"combined",
}

var modeTitles = [ModeCount]string{
	"None",
	"Depth (Linear)",
	"Depth (Logarithmic)",
	"Depth (Raw)",
	"Stencil (Non-Zero)",
	"Stencil (Values)",
	"Stencil (Bitmask)",
	"Combined",
}

// ErrUnknownMode is returned by ParseMode.
var ErrUnknownMode = errors.New("debugviz: unknown mode")

// String returns the snake_case mode name.
func (m Mode) String() string {
	if m < ModeCount {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Title returns a human readable mode name for overlays and logs.
func (m Mode) Title() string {
	if m < ModeCount {
		return modeTitles[m]
	}
	return m.String()
}

// Valid reports whether m is a real mode.
func (m Mode) Valid() bool { return m < ModeCount }

// IsDepth reports whether the mode draws the depth view.
func (m Mode) IsDepth() bool {
	switch m {
	case ModeDepthLinear, ModeDepthLog, ModeDepthRaw, ModeCombined:
		return true
	}
	return false
}

// IsStencil reports whether the mode draws a stencil overlay.
func (m Mode) IsStencil() bool {
	switch m {
	case ModeStencilNonzero, ModeStencilValues, ModeStencilBits, ModeCombined:
		return true
	}
	return false
}

// DepthView is the depth mapping selector uploaded to the shader:
// 0 linear, 1 logarithmic, 2 raw.
func (m Mode) DepthView() uint32 {
	switch m {
	case ModeDepthLog:
		return 1
	case ModeDepthRaw:
		return 2
	default:
		return 0
	}
}

// stencilSubMode maps a stencil mode to its overlay kind. Combined uses the
// configured sub-mode.
func (m Mode) stencilSubMode(combined CombinedSubMode) CombinedSubMode {
	switch m {
	case ModeStencilNonzero:
		return SubModeNonzero
	case ModeStencilValues:
		return SubModeValues
	case ModeStencilBits:
		return SubModeBitmask
	default:
		return combined
	}
}

// ParseMode accepts a mode name as printed by String, case-insensitively.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return ModeNone, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// CombinedSubMode is the stencil overlay used in combined mode.
type CombinedSubMode uint8

// Combined-mode stencil overlays.
const (
	SubModeNonzero CombinedSubMode = iota
	SubModeValues
	SubModeBitmask
)

func (c CombinedSubMode) String() string {
	switch c {
	case SubModeNonzero:
		return "nonzero"
	case SubModeValues:
		return "values"
	case SubModeBitmask:
		return "bitmask"
	default:
		return fmt.Sprintf("CombinedSubMode(%d)", uint8(c))
	}
}
