package layout

import (
	"math"

	"github.com/go-drift/drawn/pkg/graphics"
)

// AxisLayout describes one axis of an arrange pass.
type AxisLayout struct {
	// Start and Extent locate the destination slot on this axis.
	Start  float64
	Extent float64
	// Measured is the node's measured extent, margins excluded.
	Measured float64
	Align    Alignment
	// Fixed reports an explicit size request on this axis.
	Fixed bool
	// Offset is a fractional shift applied after alignment, in units of
	// Measured (0.5 moves the box by half its own size).
	Offset float64
}

// AlignAxis returns the position and extent of a box on one axis.
//
// Fill without an explicit size takes the whole slot; Fill with an explicit
// size behaves like Start. Center and End never place the box before Start.
// An unbounded slot collapses to the measured extent at Start.
func AlignAxis(a AxisLayout) (pos, extent float64) {
	extent = a.Measured
	align := a.Align
	if !graphics.IsFinite(a.Extent) {
		align = AlignStart
	}
	switch align {
	case AlignFill:
		if !a.Fixed {
			extent = a.Extent
		}
		pos = a.Start
	case AlignCenter:
		pos = math.Max(a.Start, a.Start+(a.Extent-extent)/2)
	case AlignEnd:
		pos = math.Max(a.Start, a.Start+a.Extent-extent)
	default:
		pos = a.Start
	}
	if a.Offset != 0 {
		pos += a.Offset * extent
	}
	return pos, extent
}
