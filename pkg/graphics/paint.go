package graphics

import "fmt"

// PaintStyle describes how shapes are filled or stroked.
type PaintStyle int

const (
	// PaintStyleFill fills the shape interior.
	PaintStyleFill PaintStyle = iota

	// PaintStyleStroke draws only the outline.
	PaintStyleStroke

	// PaintStyleFillAndStroke fills and then strokes the outline.
	PaintStyleFillAndStroke
)

// String returns a human-readable representation of the paint style.
func (s PaintStyle) String() string {
	switch s {
	case PaintStyleFill:
		return "fill"
	case PaintStyleStroke:
		return "stroke"
	case PaintStyleFillAndStroke:
		return "fill_and_stroke"
	default:
		return fmt.Sprintf("PaintStyle(%d)", int(s))
	}
}

// Paint describes how to draw a shape on the canvas.
type Paint struct {
	Color       Color
	Style       PaintStyle // Fill, stroke, or both
	StrokeWidth float64    // Width of stroke in pixels
	Alpha       float64    // Overall opacity 0.0-1.0; negative defaults to 1.0
}

// DefaultPaint returns a basic opaque white fill paint.
func DefaultPaint() Paint {
	return Paint{
		Color:       ColorWhite,
		Style:       PaintStyleFill,
		StrokeWidth: 1,
		Alpha:       1.0,
	}
}

// FillPaint returns an opaque fill paint of the given color.
func FillPaint(c Color) Paint {
	p := DefaultPaint()
	p.Color = c
	return p
}

// effectiveColor folds Alpha into the color's alpha channel.
func (p Paint) effectiveColor() Color {
	if p.Alpha < 0 || p.Alpha >= 1 {
		return p.Color
	}
	a := float64(p.Color.Alpha()) * p.Alpha
	return p.Color.WithAlpha(uint8(a + 0.5))
}
