package cache

import (
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/gogpu/gpucontext"
)

// Entry is one cached rendering of a node: either a vector display list or
// a raster surface, plus the geometry it was produced for.
type Entry struct {
	Kind Kind
	// Bounds is the area covered by the entry, in the coordinates the node
	// was painted in when the entry was written (inflated for shadow bleed).
	Bounds graphics.Rect
	// Anchor is the node's drawing origin at write time. Drawing the entry
	// for a different origin shifts it by the difference.
	Anchor graphics.Offset

	Picture *graphics.DisplayList
	Surface graphics.Surface
	// Device is the hardware context the surface was allocated against.
	Device gpucontext.DeviceProvider
}

// NewPictureEntry wraps a recorded display list.
func NewPictureEntry(kind Kind, bounds graphics.Rect, anchor graphics.Offset, list *graphics.DisplayList) *Entry {
	return &Entry{Kind: kind, Bounds: bounds, Anchor: anchor, Picture: list}
}

// NewSurfaceEntry wraps a flushed raster surface.
func NewSurfaceEntry(kind Kind, bounds graphics.Rect, anchor graphics.Offset, surface graphics.Surface) *Entry {
	return &Entry{
		Kind:    kind,
		Bounds:  bounds,
		Anchor:  anchor,
		Surface: surface,
		Device:  surface.Device(),
	}
}

// Drift returns how far origin has moved from the entry's anchor.
func (e *Entry) Drift(origin graphics.Offset) graphics.Offset {
	return origin.Sub(e.Anchor)
}

// IsValidFor reports whether the entry can still be drawn given the live
// hardware context. Accelerated entries are invalid once the context that
// allocated them has been replaced.
func (e *Entry) IsValidFor(live gpucontext.DeviceProvider) bool {
	if e == nil {
		return false
	}
	if e.Surface != nil && e.Surface.Disposed() {
		return false
	}
	if e.Kind.Accelerated() && e.Device != live {
		return false
	}
	return true
}

// Draw paints the entry onto canvas for a node whose drawing origin is now
// origin.
func (e *Entry) Draw(canvas graphics.Canvas, origin graphics.Offset) {
	drift := e.Drift(origin)
	switch {
	case e.Picture != nil:
		canvas.Save()
		canvas.Translate(drift.X, drift.Y)
		canvas.DrawPicture(e.Picture)
		canvas.Restore()
	case e.Surface != nil:
		img := e.Surface.Image()
		if img == nil {
			return
		}
		canvas.DrawImage(img, e.Bounds.Translate(drift.X, drift.Y))
	}
}

// Dispose releases the entry's surface. Display lists are left to the
// garbage collector since a parent recording may still replay them.
func (e *Entry) Dispose() {
	if e == nil || e.Surface == nil {
		return
	}
	e.Surface.Dispose()
}
