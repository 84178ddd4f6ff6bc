// Package testbed provides internal behaviors for the testing framework.
package testbed

import (
	"sync/atomic"

	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/scene"
)

// Swatch fills the drawing rectangle with a color and counts its paints.
// Children are painted on top.
type Swatch struct {
	Color  graphics.Color
	paints atomic.Int64
}

// Paint implements scene.Paintable.
func (s *Swatch) Paint(n *scene.Node, ctx *scene.DrawingContext) {
	s.paints.Add(1)
	ctx.Canvas.DrawRect(ctx.Rect, graphics.FillPaint(s.Color))
	n.PaintChildren(ctx)
}

// Paints returns how many times Paint ran.
func (s *Swatch) Paints() int64 {
	return s.paints.Load()
}

// NewSwatch returns a fixed-size node painted by a Swatch.
func NewSwatch(tag string, w, h float64, color graphics.Color) (*scene.Node, *Swatch) {
	n := scene.NewNode(tag)
	n.Width.Set(w)
	n.Height.Set(h)
	sw := &Swatch{Color: color}
	n.SetBehavior(sw)
	return n, sw
}
