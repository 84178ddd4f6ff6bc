package graphics

import "image"

type opCode uint8

const (
	opSave opCode = iota
	opRestore
	opTranslate
	opConcat
	opClipRect
	opClear
	opRect
	opImage
	opPicture
)

// op is one recorded canvas call. Only the fields its code needs are set.
type op struct {
	code  opCode
	rect  Rect
	dx    float64
	dy    float64
	m     Matrix
	paint Paint
	color Color
	img   image.Image
	list  *DisplayList
}

// DisplayList is an immutable list of drawing operations that can be
// replayed onto any Canvas. Buffered caches record one on the UI goroutine
// and rasterize it in the background, so a list must not reference state
// that changes after EndRecording.
type DisplayList struct {
	ops  []op
	size Size
}

// Paint replays the list onto canvas. A nested picture is replayed inside
// its own save/restore pair.
func (d *DisplayList) Paint(canvas Canvas) {
	if d == nil {
		return
	}
	for i := range d.ops {
		o := &d.ops[i]
		switch o.code {
		case opSave:
			canvas.Save()
		case opRestore:
			canvas.Restore()
		case opTranslate:
			canvas.Translate(o.dx, o.dy)
		case opConcat:
			canvas.Concat(o.m)
		case opClipRect:
			canvas.ClipRect(o.rect)
		case opClear:
			canvas.Clear(o.color)
		case opRect:
			canvas.DrawRect(o.rect, o.paint)
		case opImage:
			canvas.DrawImage(o.img, o.rect)
		case opPicture:
			canvas.Save()
			o.list.Paint(canvas)
			canvas.Restore()
		}
	}
}

// Size returns the size the list was recorded at.
func (d *DisplayList) Size() Size {
	if d == nil {
		return Size{}
	}
	return d.size
}

// Len returns the number of recorded operations, not counting the contents
// of nested pictures.
func (d *DisplayList) Len() int {
	if d == nil {
		return 0
	}
	return len(d.ops)
}

// PictureRecorder records drawing commands into a display list. The zero
// value is ready to use; a recorder may be reused after EndRecording.
type PictureRecorder struct {
	ops       []op
	recording bool
	size      Size
}

// BeginRecording starts a new recording session and returns the canvas
// that captures it.
func (r *PictureRecorder) BeginRecording(size Size) Canvas {
	r.ops = r.ops[:0]
	r.recording = true
	r.size = size
	return (*recordingCanvas)(r)
}

// EndRecording finishes the session and returns its display list. Without
// a matching BeginRecording the list is empty.
func (r *PictureRecorder) EndRecording() *DisplayList {
	if !r.recording {
		return &DisplayList{size: r.size}
	}
	r.recording = false
	ops := make([]op, len(r.ops))
	copy(ops, r.ops)
	return &DisplayList{ops: ops, size: r.size}
}

// recordingCanvas appends to its recorder while a session is open and
// drops calls otherwise.
type recordingCanvas PictureRecorder

func (c *recordingCanvas) add(o op) {
	if c.recording {
		c.ops = append(c.ops, o)
	}
}

func (c *recordingCanvas) Save()    { c.add(op{code: opSave}) }
func (c *recordingCanvas) Restore() { c.add(op{code: opRestore}) }

func (c *recordingCanvas) Translate(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	c.add(op{code: opTranslate, dx: dx, dy: dy})
}

func (c *recordingCanvas) Concat(m Matrix) {
	if m.IsIdentity() {
		return
	}
	c.add(op{code: opConcat, m: m})
}

func (c *recordingCanvas) ClipRect(rect Rect) { c.add(op{code: opClipRect, rect: rect}) }
func (c *recordingCanvas) Clear(color Color)  { c.add(op{code: opClear, color: color}) }

func (c *recordingCanvas) DrawRect(rect Rect, paint Paint) {
	c.add(op{code: opRect, rect: rect, paint: paint})
}

func (c *recordingCanvas) DrawImage(img image.Image, dst Rect) {
	if img == nil || dst.IsEmpty() {
		return
	}
	c.add(op{code: opImage, img: img, rect: dst})
}

func (c *recordingCanvas) DrawPicture(list *DisplayList) {
	if list.Len() == 0 {
		return
	}
	c.add(op{code: opPicture, list: list})
}

func (c *recordingCanvas) Size() Size { return c.size }
