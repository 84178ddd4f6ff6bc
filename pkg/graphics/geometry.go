package graphics

import "math"

// epsilon is the tolerance for floating-point comparisons.
const epsilon = 0.0001

// Offset represents a 2D point or vector in pixel coordinates.
type Offset struct {
	X float64
	Y float64
}

// Add returns the component-wise sum of o and other.
func (o Offset) Add(other Offset) Offset {
	return Offset{X: o.X + other.X, Y: o.Y + other.Y}
}

// Sub returns the component-wise difference of o and other.
func (o Offset) Sub(other Offset) Offset {
	return Offset{X: o.X - other.X, Y: o.Y - other.Y}
}

// IsZero reports whether both components are zero.
func (o Offset) IsZero() bool {
	return o.X == 0 && o.Y == 0
}

// Size represents width and height dimensions in pixels.
type Size struct {
	Width  float64
	Height float64
}

// IsEmpty reports whether either dimension is zero or negative.
func (s Size) IsEmpty() bool {
	return !(s.Width > 0) || !(s.Height > 0)
}

// Rect represents a rectangle using left, top, right, bottom coordinates.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// RectFromLTWH constructs a Rect from left, top, width, height values.
func RectFromLTWH(left, top, width, height float64) Rect {
	return Rect{
		Left:   left,
		Top:    top,
		Right:  left + width,
		Bottom: top + height,
	}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Size returns the size of the rectangle.
func (r Rect) Size() Size {
	return Size{Width: r.Width(), Height: r.Height()}
}

// Origin returns the top-left corner.
func (r Rect) Origin() Offset {
	return Offset{X: r.Left, Y: r.Top}
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Offset {
	return Offset{
		X: (r.Left + r.Right) * 0.5,
		Y: (r.Top + r.Bottom) * 0.5,
	}
}

// Contains reports whether the point lies inside the rectangle.
// Edges are inclusive on all four sides.
func (r Rect) Contains(p Offset) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// Intersect returns the intersection of two rectangles.
// Returns empty rect if they don't overlap.
func (r Rect) Intersect(other Rect) Rect {
	left := math.Max(r.Left, other.Left)
	top := math.Max(r.Top, other.Top)
	right := math.Min(r.Right, other.Right)
	bottom := math.Min(r.Bottom, other.Bottom)
	if left >= right || top >= bottom {
		return Rect{} // Empty
	}
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

// IsEmpty returns true if the rectangle has zero or negative area.
// NaN coordinates also count as empty.
func (r Rect) IsEmpty() bool {
	return !(r.Right > r.Left) || !(r.Bottom > r.Top)
}

// IsFinite reports whether all four edges are finite numbers.
func (r Rect) IsFinite() bool {
	return IsFinite(r.Left) && IsFinite(r.Top) && IsFinite(r.Right) && IsFinite(r.Bottom)
}

// Translate returns a new rect offset by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{
		Left:   r.Left + dx,
		Top:    r.Top + dy,
		Right:  r.Right + dx,
		Bottom: r.Bottom + dy,
	}
}

// Union returns the smallest rect containing both r and other.
// An empty operand is ignored.
func (r Rect) Union(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Rect{
		Left:   math.Min(r.Left, other.Left),
		Top:    math.Min(r.Top, other.Top),
		Right:  math.Max(r.Right, other.Right),
		Bottom: math.Max(r.Bottom, other.Bottom),
	}
}

// Deflate shrinks the rectangle by the given insets.
func (r Rect) Deflate(t Thickness) Rect {
	return Rect{
		Left:   r.Left + t.Left,
		Top:    r.Top + t.Top,
		Right:  r.Right - t.Right,
		Bottom: r.Bottom - t.Bottom,
	}
}

// Inflate grows the rectangle by the given insets.
func (r Rect) Inflate(t Thickness) Rect {
	return Rect{
		Left:   r.Left - t.Left,
		Top:    r.Top - t.Top,
		Right:  r.Right + t.Right,
		Bottom: r.Bottom + t.Bottom,
	}
}

// ApproxEqual reports whether every edge of r is within tolerance of other.
func (r Rect) ApproxEqual(other Rect, tolerance float64) bool {
	return math.Abs(r.Left-other.Left) <= tolerance &&
		math.Abs(r.Top-other.Top) <= tolerance &&
		math.Abs(r.Right-other.Right) <= tolerance &&
		math.Abs(r.Bottom-other.Bottom) <= tolerance
}

// Thickness holds per-edge insets, used for margins and padding.
type Thickness struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// UniformThickness returns a Thickness with the same inset on all edges.
func UniformThickness(v float64) Thickness {
	return Thickness{Left: v, Top: v, Right: v, Bottom: v}
}

// Horizontal returns the sum of the left and right insets.
func (t Thickness) Horizontal() float64 {
	return t.Left + t.Right
}

// Vertical returns the sum of the top and bottom insets.
func (t Thickness) Vertical() float64 {
	return t.Top + t.Bottom
}

// Add returns the edge-wise sum of two thicknesses.
func (t Thickness) Add(other Thickness) Thickness {
	return Thickness{
		Left:   t.Left + other.Left,
		Top:    t.Top + other.Top,
		Right:  t.Right + other.Right,
		Bottom: t.Bottom + other.Bottom,
	}
}

// Scale multiplies every edge by s.
func (t Thickness) Scale(s float64) Thickness {
	return Thickness{Left: t.Left * s, Top: t.Top * s, Right: t.Right * s, Bottom: t.Bottom * s}
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// floatEqual returns true if two float64 values are approximately equal.
func floatEqual(a, b float64) bool {
	return math.Abs(a-b) <= epsilon
}
