package scene

import (
	stderrors "errors"

	"github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/gestures"
	"github.com/go-drift/drawn/pkg/graphics"
)

// ErrDetached is reported when a gesture reaches a node that is not attached
// to a scene.
var ErrDetached = stderrors.New("scene: node is not attached to a scene")

type hit struct {
	listener gestures.Listener
	info     gestures.Info
}

// OnGestureEvent routes event into the subtree and returns the listener
// that consumed it, or nil. info.Position is in the node's coordinates.
//
// While a gesture is in progress the listeners that accepted its Down or
// Panning phase receive the follow-up phases (Panning, Wheel, Up, Cancel)
// directly, wherever the pointer is. Up and Cancel go to every such listener
// once and end the gesture. Other events, Tapped and LongPressing included,
// are hit-tested against the last rendered snapshot, topmost
// child first, and offered to each listener hit until one consumes it.
func (n *Node) OnGestureEvent(event gestures.Event, info gestures.Info) gestures.Listener {
	s := n.Scene()
	if s == nil || n.disposed {
		errors.Report(&errors.SceneError{
			Op:   "scene.OnGestureEvent",
			Kind: errors.KindGesture,
			Node: n.Tag,
			Err:  ErrDetached,
		})
		return nil
	}

	if event.Phase.Continues() && n.active.Len() > 0 {
		if event.Phase.Ends() {
			var consumer gestures.Listener
			for _, l := range n.active.Drain() {
				if l.OnGesture(event, info) && consumer == nil {
					consumer = l
				}
			}
			return consumer
		}
		for _, l := range n.active.Snapshot() {
			if l.OnGesture(event, info) {
				return l
			}
		}
	}

	hits := n.hitTest(info.Position, info.Drift, nil)
	candidates := make([]gestures.Listener, len(hits))
	for i, h := range hits {
		candidates[i] = h.listener
	}
	if event.Phase == gestures.PhaseDown {
		s.dropFocusUnlessHit(candidates)
	}

	for _, h := range hits {
		hi := h.info
		hi.Candidates = candidates
		if h.listener.OnGesture(event, hi) {
			if event.Phase.Starts() {
				n.active.Add(h.listener)
			}
			return h.listener
		}
	}
	if len(hits) == 0 {
		errors.Logger().Debug("gesture hit nothing", "node", n.Tag, "phase", event.Phase.String())
	}
	return nil
}

// hitTest collects the listeners under p, deepest and topmost first. p is in
// the node's coordinates. drift accumulates the offset introduced by nodes
// that were drawn from a cache after moving: their snapshot still holds the
// positions of the frame the cache was written in.
func (n *Node) hitTest(p, drift graphics.Offset, out []hit) []hit {
	local := p
	if snap := n.snapshot.Load(); snap != nil {
		if d := n.drawingRect.Origin().Sub(snap.origin); !d.IsZero() {
			p = p.Sub(d)
			drift = drift.Add(d)
		}
		for i := len(snap.children) - 1; i >= 0; i-- {
			rc := snap.children[i]
			c := rc.Node
			if c.disposed || c.InputTransparent.Get() {
				continue
			}
			inv, ok := rc.Transform.Invert()
			if !ok {
				continue
			}
			q, ok := inv.MapPoint(p)
			if !ok || !rc.DrawnRect.Contains(q) {
				continue
			}
			out = c.hitTest(q, drift, out)
		}
	}
	if n.listener != nil && n.drawingRect.Contains(local) {
		out = append(out, hit{listener: n.listener, info: gestures.Info{Position: local, Drift: drift}})
	}
	return out
}

func (s *Scene) dropFocusUnlessHit(candidates []gestures.Listener) {
	s.focusMu.Lock()
	defer s.focusMu.Unlock()
	if s.focus == nil {
		return
	}
	for _, c := range candidates {
		if c == s.focus {
			return
		}
	}
	errors.Logger().Debug("focus cleared")
	s.focus = nil
}
