package testing

import (
	"fmt"
	"image"
	"math"

	"github.com/go-drift/drawn/pkg/graphics"
)

// DisplayOp is one serialized canvas operation.
type DisplayOp struct {
	Op     string         `json:"op"`
	Params map[string]any `json:"params,omitempty"`
}

// serializingCanvas implements graphics.Canvas by recording DisplayOps.
// Pictures are expanded inline between a drawPicture marker and its
// matching restore.
type serializingCanvas struct {
	ops  []DisplayOp
	size graphics.Size
}

var _ graphics.Canvas = (*serializingCanvas)(nil)

func (c *serializingCanvas) add(op string, kvs ...any) {
	var p map[string]any
	if len(kvs) > 0 {
		p = kv(kvs...)
	}
	c.ops = append(c.ops, DisplayOp{Op: op, Params: p})
}

func (c *serializingCanvas) Save() { c.add("save") }

func (c *serializingCanvas) Restore() { c.add("restore") }

func (c *serializingCanvas) Translate(dx, dy float64) {
	c.add("translate", "dx", round2(dx), "dy", round2(dy))
}

func (c *serializingCanvas) Concat(m graphics.Matrix) {
	c.add("concat", "matrix", []float64{
		round2(m.ScaleX), round2(m.SkewX), round2(m.TransX),
		round2(m.SkewY), round2(m.ScaleY), round2(m.TransY),
		round2(m.Persp0), round2(m.Persp1), round2(m.Persp2),
	})
}

func (c *serializingCanvas) ClipRect(rect graphics.Rect) {
	c.add("clipRect", "rect", serializeRect(rect))
}

func (c *serializingCanvas) Clear(color graphics.Color) {
	c.add("clear", "color", serializeColor(color))
}

func (c *serializingCanvas) DrawRect(rect graphics.Rect, paint graphics.Paint) {
	c.add("drawRect", "rect", serializeRect(rect), "color", serializeColor(paint.Color))
}

func (c *serializingCanvas) DrawImage(img image.Image, dst graphics.Rect) {
	w, h := 0, 0
	if img != nil {
		w, h = img.Bounds().Dx(), img.Bounds().Dy()
	}
	c.add("drawImage", "dst", serializeRect(dst), "width", w, "height", h)
}

func (c *serializingCanvas) DrawPicture(list *graphics.DisplayList) {
	c.add("drawPicture", "ops", list.Len())
	c.Save()
	list.Paint(c)
	c.Restore()
}

func (c *serializingCanvas) Size() graphics.Size {
	return c.size
}

// count returns how many recorded ops have the given name.
func (c *serializingCanvas) count(op string) int {
	n := 0
	for _, o := range c.ops {
		if o.Op == op {
			n++
		}
	}
	return n
}

func serializeRect(r graphics.Rect) map[string]any {
	return kv(
		"left", round2(r.Left),
		"top", round2(r.Top),
		"right", round2(r.Right),
		"bottom", round2(r.Bottom),
	)
}

func serializeColor(c graphics.Color) string {
	return fmt.Sprintf("0x%08X", uint32(c))
}

// round2 rounds a float64 to 2 decimal places.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// kv builds a map from alternating key-value pairs. JSON encoding
// sorts the keys.
func kv(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		m[kvs[i].(string)] = kvs[i+1]
	}
	return m
}
