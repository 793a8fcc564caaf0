package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff   Level = iota // no tracing
	LevelRun                // run boundaries + divergences
	LevelLine               // one event per line pair
	LevelField              // per-field values
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelRun:
		return "run"
	case LevelLine:
		return "line"
	case LevelField:
		return "field"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff, nil
	case "run":
		return LevelRun, nil
	case "line":
		return LevelLine, nil
	case "field":
		return LevelField, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|run|line|field)", s)
	}
}

// ShouldEmit returns true if the given scope should emit at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelRun:
		return scope <= ScopeRun
	case LevelLine:
		return scope <= ScopeLine
	case LevelField:
		return true
	}
	return false
}
