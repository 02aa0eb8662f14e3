package core

import (
	"fmt"
	"strings"
)

// Mode selects the filter applied to each frame.
type Mode int32

const (
	ModeGrayscale Mode = iota
	ModeEdgeDetect
	ModeBlur
	ModePassthrough
)

// DefaultMode is the mode of a freshly created engine.
const DefaultMode = ModeGrayscale

var modeNames = map[Mode]string{
	ModeGrayscale:   "grayscale",
	ModeEdgeDetect:  "edge",
	ModeBlur:        "blur",
	ModePassthrough: "passthrough",
}

// Modes lists every valid mode in numeric order.
func Modes() []Mode {
	return []Mode{ModeGrayscale, ModeEdgeDetect, ModeBlur, ModePassthrough}
}

// Valid reports whether m is one of the four known modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int32(m))
}

// ModeFromInt maps a raw integer onto the enumeration.
func ModeFromInt(v int) (Mode, error) {
	m := Mode(v)
	if v < 0 || v > int(ModePassthrough) {
		return m, fmt.Errorf("mode out of range: %d", v)
	}
	return m, nil
}

// ParseMode accepts a mode name ("edge", "canny" and "original" are aliases) or its number.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "canny", "edgedetect", "edge_detect":
		return ModeEdgeDetect, nil
	case "original", "none":
		return ModePassthrough, nil
	case "gray":
		return ModeGrayscale, nil
	}

	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}

	var v int
	if _, err := fmt.Sscanf(name, "%d", &v); err == nil && fmt.Sprint(v) == name {
		return ModeFromInt(v)
	}

	return DefaultMode, fmt.Errorf("unknown mode: %q", s)
}
