package graphics

import (
	"image"
	"math"

	"github.com/go-drift/drawn/pkg/errors"
	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
)

// RasterCanvas implements Canvas on top of a gg software context.
//
// Perspective terms passed to Concat are dropped: gg only expresses affine
// transforms, so projected content is drawn with its affine approximation.
//
// gg reports fill and stroke failures as errors; they are logged at warn
// level and counted by Failures instead of interrupting the frame.
type RasterCanvas struct {
	ctx      *gg.Context
	failures int
}

// NewRasterCanvas wraps an existing gg context.
func NewRasterCanvas(ctx *gg.Context) *RasterCanvas {
	return &RasterCanvas{ctx: ctx}
}

// NewRasterCanvasSize allocates a fresh context of the given pixel size.
func NewRasterCanvasSize(width, height int) *RasterCanvas {
	return NewRasterCanvas(gg.NewContext(width, height))
}

// Context exposes the underlying gg context.
func (c *RasterCanvas) Context() *gg.Context {
	return c.ctx
}

// Image returns a copy of the current pixels.
func (c *RasterCanvas) Image() image.Image {
	return c.ctx.Image()
}

// SavePNG writes the current pixels to path.
func (c *RasterCanvas) SavePNG(path string) error {
	return c.ctx.SavePNG(path)
}

func (c *RasterCanvas) Save() {
	c.ctx.Push()
}

func (c *RasterCanvas) Restore() {
	c.ctx.Pop()
}

func (c *RasterCanvas) Translate(dx, dy float64) {
	c.ctx.Translate(dx, dy)
}

func (c *RasterCanvas) Concat(m Matrix) {
	if m.IsIdentity() {
		return
	}
	c.ctx.Transform(m.Affine())
}

func (c *RasterCanvas) ClipRect(rect Rect) {
	c.ctx.ClipRect(rect.Left, rect.Top, rect.Width(), rect.Height())
}

func (c *RasterCanvas) Clear(color Color) {
	c.ctx.ClearWithColor(toRGBA(color))
}

func (c *RasterCanvas) DrawRect(rect Rect, paint Paint) {
	c.ctx.DrawRectangle(rect.Left, rect.Top, rect.Width(), rect.Height())
	c.ctx.SetColor(paint.effectiveColor().NRGBA())
	switch paint.Style {
	case PaintStyleStroke:
		c.ctx.SetLineWidth(paint.StrokeWidth)
		c.report("stroke", c.ctx.Stroke())
	case PaintStyleFillAndStroke:
		c.report("fill", c.ctx.FillPreserve())
		c.ctx.SetLineWidth(paint.StrokeWidth)
		c.report("stroke", c.ctx.Stroke())
	default:
		c.report("fill", c.ctx.Fill())
	}
}

// DrawImage blits img at dst's origin. When dst's pixel size differs from
// the image, img is first resampled with bilinear filtering.
func (c *RasterCanvas) DrawImage(img image.Image, dst Rect) {
	if img == nil || dst.IsEmpty() {
		return
	}
	src := img.Bounds()
	w := int(math.Ceil(dst.Width()))
	h := int(math.Ceil(dst.Height()))
	if src.Dx() != w || src.Dy() != h {
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(scaled, scaled.Bounds(), img, src, draw.Src, nil)
		img = scaled
	}
	c.ctx.DrawImage(gg.ImageBufFromImage(img), dst.Left, dst.Top)
}

func (c *RasterCanvas) DrawPicture(list *DisplayList) {
	if list == nil {
		return
	}
	c.Save()
	list.Paint(c)
	c.Restore()
}

func (c *RasterCanvas) Size() Size {
	return Size{Width: float64(c.ctx.Width()), Height: float64(c.ctx.Height())}
}

// Failures returns how many fill or stroke calls gg rejected.
func (c *RasterCanvas) Failures() int {
	return c.failures
}

func (c *RasterCanvas) report(op string, err error) {
	if err == nil {
		return
	}
	c.failures++
	errors.Logger().Warn("raster draw failed", "op", op, "err", err)
}

func toRGBA(c Color) gg.RGBA {
	r, g, b, a := c.RGBAF()
	return gg.RGBA{R: r, G: g, B: b, A: a}
}
