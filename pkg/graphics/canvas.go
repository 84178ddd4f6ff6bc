package graphics

import "image"

// Canvas records or renders drawing commands.
type Canvas interface {
	// Save pushes the current transform and clip state.
	Save()

	// Restore pops the most recent transform and clip state.
	Restore()

	// Translate moves the origin by the given offset.
	Translate(dx, dy float64)

	// Concat multiplies the current transform by m.
	Concat(m Matrix)

	// ClipRect restricts future drawing to the given rectangle.
	ClipRect(rect Rect)

	// Clear fills the entire canvas with the given color.
	Clear(color Color)

	// DrawRect draws a rectangle with the provided paint.
	DrawRect(rect Rect, paint Paint)

	// DrawImage draws the whole of img into dst, scaling when the pixel
	// size of dst differs from the image.
	DrawImage(img image.Image, dst Rect)

	// DrawPicture replays a recorded display list at the current transform.
	DrawPicture(list *DisplayList)

	// Size returns the size of the canvas in pixels.
	Size() Size
}
