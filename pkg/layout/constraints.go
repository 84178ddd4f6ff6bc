// Package layout holds the constraint arithmetic shared by the measure and
// arrange passes: measure requests, scaled sizes, constraint adaptation and
// per-axis alignment.
//
// Sizes come in two units. Logical units are the scale-independent values
// used by public size properties; device pixels are logical units multiplied
// by the rendering scale. Every function here takes constraints in pixels
// and size requests in logical units.
package layout

import (
	"math"

	"github.com/go-drift/drawn/pkg/graphics"
)

// Unset marks an optional logical size (auto size, no min, no max, no limit).
const Unset = -1.0

// Tolerance is the float tolerance used when deciding whether an arrange
// input changed, in pixels.
const Tolerance = 1.0

// Alignment positions a box along one axis inside its destination.
type Alignment int

const (
	// AlignStart pins the box to the leading edge.
	AlignStart Alignment = iota
	// AlignCenter centers the box.
	AlignCenter
	// AlignEnd pins the box to the trailing edge.
	AlignEnd
	// AlignFill stretches the box over the available space.
	AlignFill
)

func (a Alignment) String() string {
	switch a {
	case AlignStart:
		return "start"
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	case AlignFill:
		return "fill"
	default:
		return "unknown"
	}
}

// MeasureRequest is the input of one measure pass.
type MeasureRequest struct {
	WidthConstraint  float64
	HeightConstraint float64
	Scale            float64
	// IsSame is set when the request is identical to the previous one.
	IsSame bool
}

// Equal reports whether two requests carry the same constraints and scale.
// Infinite constraints compare equal to each other.
func (r MeasureRequest) Equal(other MeasureRequest) bool {
	return sameFloat(r.WidthConstraint, other.WidthConstraint) &&
		sameFloat(r.HeightConstraint, other.HeightConstraint) &&
		sameFloat(r.Scale, other.Scale)
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return a == b
}

// ScaledSize is a measured size in both pixels and logical units.
type ScaledSize struct {
	Pixels graphics.Size
	Units  graphics.Size
	Scale  float64
	// WidthCut and HeightCut report that content exceeded the constraint
	// on that axis and was clipped.
	WidthCut  bool
	HeightCut bool
}

// NewScaledSize builds a ScaledSize from pixel dimensions.
func NewScaledSize(width, height, scale float64) ScaledSize {
	s := ScaledSize{
		Pixels: graphics.Size{Width: width, Height: height},
		Scale:  scale,
	}
	if scale > 0 {
		s.Units = graphics.Size{Width: width / scale, Height: height / scale}
	}
	return s
}

// EmptySize returns a zero-sized measurement at the given scale.
func EmptySize(scale float64) ScaledSize {
	return NewScaledSize(0, 0, scale)
}

// IsEmpty reports whether either pixel dimension is zero.
func (s ScaledSize) IsEmpty() bool {
	return s.Pixels.IsEmpty()
}

// SizeRequest carries the logical size properties of a node. Negative
// values mean unset.
type SizeRequest struct {
	Width     float64
	Height    float64
	MinWidth  float64
	MaxWidth  float64
	MinHeight float64
	MaxHeight float64
	// LockRatio forces a square box: positive picks the larger side,
	// negative the smaller, zero disables the lock.
	LockRatio float64
}

// AutoSize returns a request with every field unset.
func AutoSize() SizeRequest {
	return SizeRequest{
		Width: Unset, Height: Unset,
		MinWidth: Unset, MaxWidth: Unset,
		MinHeight: Unset, MaxHeight: Unset,
	}
}

// HasFixedWidth reports whether an explicit width is set.
func (r SizeRequest) HasFixedWidth() bool {
	return r.Width >= 0
}

// HasFixedHeight reports whether an explicit height is set.
func (r SizeRequest) HasFixedHeight() bool {
	return r.Height >= 0
}

// MeasuringConstraints is the adapted form of a measure request.
type MeasuringConstraints struct {
	// Margins in pixels.
	Margins graphics.Thickness
	// TotalMargins is margins plus padding, in pixels.
	TotalMargins graphics.Thickness
	// Request is the adapted box (margins excluded), positioned after the
	// leading margins.
	Request graphics.Rect
	// Content is the area available to children: Request minus padding.
	Content graphics.Rect
	// Available is the incoming constraint minus margins, per axis.
	Available graphics.Size
}

// Adapt turns incoming pixel constraints into MeasuringConstraints.
//
// An explicit size overrides the constraint, min/max clamp the result, and
// the ratio lock squares the box. Infinite constraints stay infinite unless
// an explicit size replaces them.
func Adapt(widthConstraint, heightConstraint, scale float64, size SizeRequest, margins, padding graphics.Thickness) MeasuringConstraints {
	marginsPx := margins.Scale(scale)
	paddingPx := padding.Scale(scale)

	availW := available(widthConstraint, marginsPx.Horizontal())
	availH := available(heightConstraint, marginsPx.Vertical())

	w := availW
	if size.HasFixedWidth() {
		w = size.Width * scale
	}
	h := availH
	if size.HasFixedHeight() {
		h = size.Height * scale
	}
	w = Clamp(w, size.MinWidth, size.MaxWidth, scale)
	h = Clamp(h, size.MinHeight, size.MaxHeight, scale)
	w, h = LockRatio(w, h, size.LockRatio)

	request := graphics.RectFromLTWH(marginsPx.Left, marginsPx.Top, w, h)
	content := graphics.Rect{
		Left:   request.Left + paddingPx.Left,
		Top:    request.Top + paddingPx.Top,
		Right:  request.Left + paddingPx.Left + math.Max(0, w-paddingPx.Horizontal()),
		Bottom: request.Top + paddingPx.Top + math.Max(0, h-paddingPx.Vertical()),
	}

	return MeasuringConstraints{
		Margins:      marginsPx,
		TotalMargins: marginsPx.Add(paddingPx),
		Request:      request,
		Content:      content,
		Available:    graphics.Size{Width: availW, Height: availH},
	}
}

func available(constraint, margins float64) float64 {
	if math.IsInf(constraint, 1) {
		return constraint
	}
	return constraint - margins
}

// Clamp applies logical min/max limits (unset when negative) to a pixel value.
func Clamp(v, minUnits, maxUnits, scale float64) float64 {
	if maxUnits >= 0 {
		v = math.Min(v, maxUnits*scale)
	}
	if minUnits >= 0 {
		v = math.Max(v, minUnits*scale)
	}
	return v
}

// LockRatio squares (w, h) according to ratio. Infinite sides are ignored
// when choosing, so a finite side always wins against an infinite one.
func LockRatio(w, h, ratio float64) (float64, float64) {
	if ratio == 0 {
		return w, h
	}
	wInf, hInf := math.IsInf(w, 1), math.IsInf(h, 1)
	var side float64
	switch {
	case wInf && hInf:
		return w, h
	case wInf:
		side = h
	case hInf:
		side = w
	case ratio > 0:
		side = math.Max(w, h)
	default:
		side = math.Min(w, h)
	}
	return side, side
}

// ResolveAxis computes the final pixel extent of one axis after content
// has been measured.
//
// request is the adapted request on that axis, contentPx the measured
// content (padding excluded), paddingPx the padding on that axis and
// availablePx the incoming constraint minus margins. The second result
// reports whether content exceeded the available space.
func ResolveAxis(request, contentPx, paddingPx, availablePx float64, fixed, fill bool, minUnits, maxUnits, scale float64) (float64, bool) {
	want := contentPx + paddingPx
	finite := graphics.IsFinite(availablePx)
	cut := finite && want > availablePx+0.5

	var size float64
	switch {
	case fixed:
		size = request
	case fill && finite:
		size = request
	default:
		size = Clamp(want, minUnits, maxUnits, scale)
		if finite && size > availablePx {
			size = math.Max(0, availablePx)
		}
	}
	if fixed || (fill && finite) {
		cut = cut || want > size+0.5
	}
	return size, cut
}

// ApplyViewportLimit clamps a pixel extent to a logical viewport limit
// (unset when negative). The second result reports a clamp.
func ApplyViewportLimit(size, limitUnits, scale float64) (float64, bool) {
	if limitUnits < 0 {
		return size, false
	}
	limit := limitUnits * scale
	if size > limit {
		return limit, true
	}
	return size, false
}
