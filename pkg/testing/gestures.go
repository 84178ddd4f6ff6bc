package testing

import (
	"fmt"

	"github.com/go-drift/drawn/pkg/gestures"
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/scene"
)

// nextPointerID is incremented for each new pointer to avoid collisions.
var nextPointerID int64

func allocPointerID() int64 {
	nextPointerID++
	return nextPointerID
}

// Tap simulates a tap at the center of the first node matched by finder
// and returns the listener that consumed the Tapped phase.
func (t *SceneTester) Tap(finder Finder) (gestures.Listener, error) {
	center, err := t.centerOf("Tap", finder)
	if err != nil {
		return nil, err
	}
	return t.TapAt(center), nil
}

// TapAt sends Down, Up and Tapped at pos. It returns the consumer of Tapped.
func (t *SceneTester) TapAt(pos graphics.Offset) gestures.Listener {
	id := allocPointerID()
	t.SendDown(pos, id)
	t.SendUp(pos, id)
	return t.send(gestures.Event{Pointer: id, Phase: gestures.PhaseTapped, Position: pos})
}

// Drag simulates a drag by delta from the center of the first node matched
// by finder.
func (t *SceneTester) Drag(finder Finder, delta graphics.Offset) error {
	start, err := t.centerOf("Drag", finder)
	if err != nil {
		return err
	}
	t.DragFrom(start, delta, 1)
	return nil
}

// DragFrom sends a Down at start, steps Panning moves toward start+delta
// and an Up at the end.
func (t *SceneTester) DragFrom(start, delta graphics.Offset, steps int) {
	if steps < 1 {
		steps = 1
	}
	id := allocPointerID()
	t.SendDown(start, id)
	for i := 1; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		t.SendMove(graphics.Offset{X: start.X + delta.X*frac, Y: start.Y + delta.Y*frac}, id)
	}
	t.SendUp(start.Add(delta), id)
}

// SendDown sends a Down for pointer at pos.
func (t *SceneTester) SendDown(pos graphics.Offset, pointer int64) gestures.Listener {
	t.pointers[pointer] = pos
	return t.send(gestures.Event{Pointer: pointer, Phase: gestures.PhaseDown, Position: pos})
}

// SendMove sends a Panning for pointer at pos.
func (t *SceneTester) SendMove(pos graphics.Offset, pointer int64) gestures.Listener {
	delta := pos.Sub(t.pointers[pointer])
	t.pointers[pointer] = pos
	return t.send(gestures.Event{Pointer: pointer, Phase: gestures.PhasePanning, Position: pos, Delta: delta})
}

// SendUp sends an Up for pointer at pos.
func (t *SceneTester) SendUp(pos graphics.Offset, pointer int64) gestures.Listener {
	delete(t.pointers, pointer)
	return t.send(gestures.Event{Pointer: pointer, Phase: gestures.PhaseUp, Position: pos})
}

// SendCancel cancels the gesture of pointer at its last position.
func (t *SceneTester) SendCancel(pointer int64) gestures.Listener {
	pos := t.pointers[pointer]
	delete(t.pointers, pointer)
	return t.send(gestures.Event{Pointer: pointer, Phase: gestures.PhaseCancel, Position: pos})
}

func (t *SceneTester) send(event gestures.Event) gestures.Listener {
	return t.scene.OnGestureEvent(event)
}

func (t *SceneTester) centerOf(op string, finder Finder) (graphics.Offset, error) {
	result := t.Find(finder)
	if !result.Exists() {
		return graphics.Offset{}, fmt.Errorf("%s: finder matched no nodes: %s", op, finder.Description())
	}
	n := result.First()
	if !n.IsDrawable() {
		return graphics.Offset{}, fmt.Errorf("%s: node %q was not drawn", op, n.Tag)
	}
	return NodeCenter(n), nil
}

// NodeCenter returns the center of n's drawing rectangle in root surface
// pixels, mapped through the transforms of n and its ancestors as of the
// last frame.
func NodeCenter(n *scene.Node) graphics.Offset {
	p := n.DrawingRect().Center()
	for cur := n; cur != nil; cur = cur.Parent() {
		if q, ok := cur.Transform().MapPoint(p); ok {
			p = q
		}
	}
	return p
}
