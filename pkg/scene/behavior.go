package scene

import (
	"math"

	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/layout"
)

// Measurable computes the size of a node's content.
type Measurable interface {
	// MeasureContent returns the pixel size of the content, padding
	// excluded. constraints.Content is the area offered to children.
	MeasureContent(n *Node, constraints layout.MeasuringConstraints, scale float64) graphics.Size
}

// Arrangeable positions a node inside its destination.
type Arrangeable interface {
	// ArrangeBox returns the arranged rectangle, margins included, for a
	// node measured at (width, height) pixels, margins included.
	ArrangeBox(n *Node, dest graphics.Rect, width, height, scale float64) graphics.Rect
}

// Paintable draws a node's content.
type Paintable interface {
	// Paint draws into ctx. ctx.Rect is the node's drawing rectangle.
	Paint(n *Node, ctx *DrawingContext)
}

// DrawingContext is handed to Paint.
type DrawingContext struct {
	Canvas graphics.Canvas
	// Rect is the drawing rectangle of the node being painted.
	Rect  graphics.Rect
	Scale float64
}

// AbsoluteLayout is the default behavior: children are stacked on top of
// each other inside the content rectangle and each aligns itself.
type AbsoluteLayout struct{}

var (
	_ Measurable  = AbsoluteLayout{}
	_ Arrangeable = AbsoluteLayout{}
	_ Paintable   = AbsoluteLayout{}
)

// MeasureContent measures children in two passes. Children that do not
// fill either axis are measured first against the content rectangle. Fill
// children are then measured against the largest extent found on each axis,
// or against the whole content rectangle when the first pass found nothing
// on that axis.
func (AbsoluteLayout) MeasureContent(n *Node, c layout.MeasuringConstraints, scale float64) graphics.Size {
	return MeasureChildren(n, c.Content.Width(), c.Content.Height(), scale)
}

// MeasureChildren runs the two-pass absolute measurement over n's children.
func MeasureChildren(n *Node, width, height, scale float64) graphics.Size {
	var maxW, maxH float64
	var deferred []*Node
	for _, child := range n.children {
		if child.fillsWidth() || child.fillsHeight() {
			deferred = append(deferred, child)
			continue
		}
		s := child.Measure(width, height, scale)
		maxW = math.Max(maxW, s.Pixels.Width)
		maxH = math.Max(maxH, s.Pixels.Height)
	}

	fillW, fillH := width, height
	if maxW > 0 {
		fillW = maxW
	}
	if maxH > 0 {
		fillH = maxH
	}
	for _, child := range deferred {
		s := child.Measure(fillW, fillH, scale)
		maxW = math.Max(maxW, s.Pixels.Width)
		maxH = math.Max(maxH, s.Pixels.Height)
	}
	return graphics.Size{Width: maxW, Height: maxH}
}

// ArrangeBox aligns the node inside dest on both axes.
func (AbsoluteLayout) ArrangeBox(n *Node, dest graphics.Rect, width, height, scale float64) graphics.Rect {
	m := n.Margin.Get().Scale(scale)
	x, w := layout.AlignAxis(layout.AxisLayout{
		Start:    dest.Left + m.Left,
		Extent:   dest.Width() - m.Horizontal(),
		Measured: width - m.Horizontal(),
		Align:    n.HorizontalAlign.Get(),
		Fixed:    n.Width.Get() >= 0,
		Offset:   n.OffsetX.Get(),
	})
	y, h := layout.AlignAxis(layout.AxisLayout{
		Start:    dest.Top + m.Top,
		Extent:   dest.Height() - m.Vertical(),
		Measured: height - m.Vertical(),
		Align:    n.VerticalAlign.Get(),
		Fixed:    n.Height.Get() >= 0,
		Offset:   n.OffsetY.Get(),
	})
	return graphics.RectFromLTWH(x-m.Left, y-m.Top, w+m.Horizontal(), h+m.Vertical())
}

// Paint fills the background and renders the children.
func (AbsoluteLayout) Paint(n *Node, ctx *DrawingContext) {
	n.PaintBackground(ctx)
	n.PaintChildren(ctx)
}

// PaintBackground fills the drawing rectangle with the Background color.
func (n *Node) PaintBackground(ctx *DrawingContext) {
	bg := n.Background.Get()
	if bg.Alpha() == 0 {
		return
	}
	ctx.Canvas.DrawRect(ctx.Rect, graphics.FillPaint(bg))
}

// ContentRect returns the drawing rectangle minus padding.
func (n *Node) ContentRect(scale float64) graphics.Rect {
	return n.drawingRect.Deflate(n.Padding.Get().Scale(scale))
}

func (n *Node) measurable() Measurable {
	if m, ok := n.behavior.(Measurable); ok {
		return m
	}
	return AbsoluteLayout{}
}

func (n *Node) arrangeable() Arrangeable {
	if a, ok := n.behavior.(Arrangeable); ok {
		return a
	}
	return AbsoluteLayout{}
}

func (n *Node) paintable() Paintable {
	if p, ok := n.behavior.(Paintable); ok {
		return p
	}
	return AbsoluteLayout{}
}
