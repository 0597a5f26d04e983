package gesture

import (
	"fmt"
	"strings"
	"time"
)

// Phase is the lifecycle step of a pointer sample.
type Phase int

const (
	// PhaseDown starts a pointer contact.
	PhaseDown Phase = iota
	// PhaseMove updates a pointer position.
	PhaseMove
	// PhaseUp ends a pointer contact.
	PhaseUp
	// PhaseCancel aborts a pointer contact.
	PhaseCancel
)

// String returns the lower-case phase name.
func (p Phase) String() string {
	switch p {
	case PhaseDown:
		return "down"
	case PhaseMove:
		return "move"
	case PhaseUp:
		return "up"
	case PhaseCancel:
		return "cancel"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ParsePhase parses a phase name as returned by Phase.String.
func ParsePhase(s string) (Phase, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "down":
		return PhaseDown, nil
	case "move":
		return PhaseMove, nil
	case "up":
		return PhaseUp, nil
	case "cancel":
		return PhaseCancel, nil
	default:
		return 0, fmt.Errorf("unknown phase %q", s)
	}
}

// Sample is one raw pointer observation. X and Y are normalized to [0..1]
// with the origin at the top-left corner of the surface.
type Sample struct {
	Phase   Phase
	Pointer int
	X       float64
	Y       float64
	At      time.Time
}

// SampleSink consumes raw pointer samples.
type SampleSink interface {
	Feed(s Sample)
}
