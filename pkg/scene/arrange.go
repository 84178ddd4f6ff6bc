package scene

import (
	"math"

	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/layout"
)

// arrangeState holds the inputs of the last full arrange and its result
// relative to the destination origin.
type arrangeState struct {
	valid     bool
	destSize  graphics.Size
	width     float64
	height    float64
	scale     float64
	viewportW float64
	viewportH float64
	local     graphics.Rect
}

// Arrange positions the node inside dest. width and height are the pixel
// size to arrange, margins included; pass the measured size.
//
// The arranged rectangle is recomputed only when the layout is dirty or the
// scale, viewport limits, requested size or destination size changed by more
// than one pixel. Otherwise the cached rectangle is translated to the new
// destination origin.
func (n *Node) Arrange(dest graphics.Rect, width, height, scale float64) graphics.Rect {
	if dest.IsEmpty() || !finiteOrigin(dest) {
		n.arranged = graphics.Rect{Left: dest.Left, Top: dest.Top, Right: dest.Left, Bottom: dest.Top}
		n.drawingRect = n.arranged
		n.drawable = false
		n.arrange.valid = false
		return n.arranged
	}

	var rect graphics.Rect
	if n.canReuseArrange(dest, width, height, scale) {
		rect = n.arrange.local.Translate(dest.Left, dest.Top)
	} else {
		n.arrangeCount++
		rect = n.arrangeable().ArrangeBox(n, dest, width, height, scale)
		n.arrange = arrangeState{
			valid:     true,
			destSize:  dest.Size(),
			width:     width,
			height:    height,
			scale:     scale,
			viewportW: n.ViewportWidth.Get(),
			viewportH: n.ViewportHeight.Get(),
			local:     rect.Translate(-dest.Left, -dest.Top),
		}
		n.isLayoutDirty = false
	}

	n.arranged = rect
	n.drawingRect = rect.Deflate(n.Margin.Get().Scale(scale))
	n.drawable = !n.drawingRect.IsEmpty() && n.drawingRect.IsFinite()
	return rect
}

func (n *Node) canReuseArrange(dest graphics.Rect, width, height, scale float64) bool {
	a := n.arrange
	if !a.valid || n.isLayoutDirty {
		return false
	}
	return a.scale == scale &&
		a.viewportW == n.ViewportWidth.Get() &&
		a.viewportH == n.ViewportHeight.Get() &&
		near(a.width, width) &&
		near(a.height, height) &&
		near(a.destSize.Width, dest.Width()) &&
		near(a.destSize.Height, dest.Height())
}

func near(a, b float64) bool {
	if math.IsInf(a, 1) && math.IsInf(b, 1) {
		return true
	}
	return math.Abs(a-b) <= layout.Tolerance
}

func finiteOrigin(r graphics.Rect) bool {
	return graphics.IsFinite(r.Left) && graphics.IsFinite(r.Top)
}
