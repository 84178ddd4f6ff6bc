package testbed

import "github.com/go-drift/drawn/pkg/gestures"

// Counter is a gesture listener that counts taps and tracks panning.
type Counter struct {
	Taps   int
	Downs  int
	Panned float64
	Ended  int
}

// OnGesture implements gestures.Listener. Every phase is consumed.
func (c *Counter) OnGesture(event gestures.Event, _ gestures.Info) bool {
	switch event.Phase {
	case gestures.PhaseDown:
		c.Downs++
	case gestures.PhaseTapped:
		c.Taps++
	case gestures.PhasePanning:
		c.Panned += event.Delta.X
	case gestures.PhaseUp, gestures.PhaseCancel:
		c.Ended++
	}
	return true
}
