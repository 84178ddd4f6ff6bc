// Package gestures defines pointer gesture events, the listener contract and
// the active-listener set that keeps a gesture attached to the listener that
// accepted it.
package gestures

import (
	"fmt"

	"github.com/go-drift/drawn/pkg/graphics"
)

// Phase is the stage of a gesture an event reports.
type Phase int

const (
	// PhaseDown is the first contact of a pointer.
	PhaseDown Phase = iota
	// PhasePanning reports pointer movement while in contact.
	PhasePanning
	// PhaseWheel reports a scroll wheel or trackpad scroll.
	PhaseWheel
	// PhaseUp is the pointer leaving the surface.
	PhaseUp
	// PhaseTapped reports a completed tap.
	PhaseTapped
	// PhaseLongPressing reports a press held past the long-press delay.
	PhaseLongPressing
	// PhasePinching reports a two-finger scale gesture.
	PhasePinching
	// PhaseCancel aborts the gesture. Listeners treat it like PhaseUp.
	PhaseCancel
)

func (p Phase) String() string {
	switch p {
	case PhaseDown:
		return "down"
	case PhasePanning:
		return "panning"
	case PhaseWheel:
		return "wheel"
	case PhaseUp:
		return "up"
	case PhaseTapped:
		return "tapped"
	case PhaseLongPressing:
		return "long_pressing"
	case PhasePinching:
		return "pinching"
	case PhaseCancel:
		return "cancel"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Starts reports whether a listener accepting the phase joins the active set.
func (p Phase) Starts() bool {
	return p == PhaseDown || p == PhasePanning
}

// Continues reports whether the phase is a follow-up of a gesture in
// progress. Such phases go to the active set instead of being hit-tested.
func (p Phase) Continues() bool {
	return p == PhasePanning || p == PhaseWheel || p == PhaseUp || p == PhaseCancel
}

// Ends reports whether the phase terminates the gesture and clears the
// active set.
func (p Phase) Ends() bool {
	return p == PhaseUp || p == PhaseCancel
}

// Event is a pointer gesture in device pixels, relative to the root surface.
type Event struct {
	// Pointer identifies the contact for multi-touch input.
	Pointer int64
	Phase   Phase
	// Position is the pointer location.
	Position graphics.Offset
	// Delta is the movement since the previous event (Panning, Wheel).
	Delta graphics.Offset
	// Scale is the cumulative pinch factor (Pinching).
	Scale float64
}

// Info accompanies an event as it travels down the tree.
type Info struct {
	// Position is the event location in the receiving node's coordinates.
	Position graphics.Offset
	// Drift is the accumulated translation introduced by cached ancestors.
	Drift graphics.Offset
	// Candidates are the listeners hit so far, topmost first.
	Candidates []Listener
}

// WithPosition returns a copy of info with a new local position.
func (i Info) WithPosition(p graphics.Offset) Info {
	i.Position = p
	return i
}

// Listener receives gesture events. Implementations are compared by
// identity, so they must be comparable (typically a pointer).
type Listener interface {
	// OnGesture handles the event and reports whether it was consumed.
	OnGesture(event Event, info Info) bool
}

// Handler adapts a function to Listener. Use a *Handler so each handler
// has its own identity.
type Handler struct {
	Name string
	Fn   func(event Event, info Info) bool
}

// OnGesture calls h.Fn.
func (h *Handler) OnGesture(event Event, info Info) bool {
	if h.Fn == nil {
		return false
	}
	return h.Fn(event, info)
}

func (h *Handler) String() string {
	return h.Name
}
