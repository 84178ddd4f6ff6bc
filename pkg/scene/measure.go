package scene

import (
	"math"

	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/layout"
	"github.com/go-drift/drawn/pkg/property"
)

// Measure computes the node's size for the given pixel constraints and
// rendering scale. The result includes margins.
//
// When nothing invalidated the node since the last call and the request is
// identical, the stored size is returned without recomputing.
func (n *Node) Measure(widthConstraint, heightConstraint, scale float64) layout.ScaledSize {
	req := layout.MeasureRequest{
		WidthConstraint:  widthConstraint,
		HeightConstraint: heightConstraint,
		Scale:            scale,
	}
	if n.hasMeasured && !n.needMeasure && req.Equal(n.lastRequest) {
		req.IsSame = true
		n.lastRequest = req
		return n.measured
	}

	n.measureCount++
	var size layout.ScaledSize
	if n.Visible.Get() {
		size = n.measureVisible(widthConstraint, heightConstraint, scale)
	} else {
		size = layout.EmptySize(scale)
	}

	if size != n.measured {
		n.isLayoutDirty = true
	}
	n.measured = size
	n.lastRequest = req
	n.hasMeasured = true
	n.needMeasure = false
	if n.dirtyKind == property.Measure {
		n.clearDirtyMark()
	}
	return size
}

func (n *Node) measureVisible(widthConstraint, heightConstraint, scale float64) layout.ScaledSize {
	if !(scale > 0) || math.IsNaN(widthConstraint) || math.IsNaN(heightConstraint) {
		return layout.EmptySize(scale)
	}
	req := n.sizeRequest()
	padding := n.Padding.Get().Scale(scale)
	mc := layout.Adapt(widthConstraint, heightConstraint, scale, req, n.Margin.Get(), n.Padding.Get())
	if degenerate(mc.Request.Width()) || degenerate(mc.Request.Height()) {
		return layout.EmptySize(scale)
	}

	content := n.measurable().MeasureContent(n, mc, scale)

	w, wCut := layout.ResolveAxis(mc.Request.Width(), content.Width, padding.Horizontal(), mc.Available.Width,
		req.HasFixedWidth(), n.fillsWidth(), req.MinWidth, req.MaxWidth, scale)
	h, hCut := layout.ResolveAxis(mc.Request.Height(), content.Height, padding.Vertical(), mc.Available.Height,
		req.HasFixedHeight(), n.fillsHeight(), req.MinHeight, req.MaxHeight, scale)

	w, vwCut := layout.ApplyViewportLimit(w, n.ViewportWidth.Get(), scale)
	h, vhCut := layout.ApplyViewportLimit(h, n.ViewportHeight.Get(), scale)
	w, h = layout.LockRatio(w, h, req.LockRatio)

	if !graphics.IsFinite(w) || !graphics.IsFinite(h) || w < 0 || h < 0 {
		return layout.EmptySize(scale)
	}

	size := layout.NewScaledSize(w+mc.Margins.Horizontal(), h+mc.Margins.Vertical(), scale)
	size.WidthCut = wCut || vwCut
	size.HeightCut = hCut || vhCut
	return size
}

// degenerate reports a request extent that leaves nothing to draw.
func degenerate(v float64) bool {
	return math.IsNaN(v) || v <= 0
}
