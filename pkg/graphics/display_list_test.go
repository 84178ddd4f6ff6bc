package graphics

import (
	"image"
	"strings"
	"testing"
)

type countingCanvas struct {
	Canvas
	rects, saves, restores int
}

func (c *countingCanvas) Save()                 { c.saves++ }
func (c *countingCanvas) Restore()              { c.restores++ }
func (c *countingCanvas) Translate(_, _ float64) {}
func (c *countingCanvas) DrawRect(Rect, Paint)  { c.rects++ }
func (c *countingCanvas) DrawPicture(list *DisplayList) {
	c.Save()
	list.Paint(c)
	c.Restore()
}

func TestDisplayListReplay(t *testing.T) {
	var inner PictureRecorder
	c := inner.BeginRecording(Size{Width: 10, Height: 10})
	c.DrawRect(RectFromLTWH(0, 0, 5, 5), FillPaint(ColorRed))
	nested := inner.EndRecording()

	var rec PictureRecorder
	c = rec.BeginRecording(Size{Width: 20, Height: 20})
	c.Save()
	c.Translate(2, 2)
	c.DrawRect(RectFromLTWH(0, 0, 5, 5), FillPaint(ColorBlue))
	c.DrawPicture(nested)
	c.Restore()
	list := rec.EndRecording()

	if got := list.Size(); got != (Size{Width: 20, Height: 20}) {
		t.Errorf("Size() = %v, want 20x20", got)
	}

	counter := &countingCanvas{}
	list.Paint(counter)
	if counter.rects != 2 {
		t.Errorf("rects = %d, want 2", counter.rects)
	}
	if counter.saves != counter.restores {
		t.Errorf("saves = %d, restores = %d", counter.saves, counter.restores)
	}
}

func TestEndRecordingWithoutBegin(t *testing.T) {
	var rec PictureRecorder
	list := rec.EndRecording()
	if list.Len() != 0 {
		t.Errorf("Len() = %d, want 0", list.Len())
	}
	var nilList *DisplayList
	nilList.Paint(&countingCanvas{})
}

type opLog struct {
	Canvas
	calls []string
}

func (c *opLog) Save()                       { c.calls = append(c.calls, "save") }
func (c *opLog) Restore()                    { c.calls = append(c.calls, "restore") }
func (c *opLog) Translate(_, _ float64)      { c.calls = append(c.calls, "translate") }
func (c *opLog) Concat(Matrix)               { c.calls = append(c.calls, "concat") }
func (c *opLog) ClipRect(Rect)               { c.calls = append(c.calls, "clip") }
func (c *opLog) Clear(Color)                 { c.calls = append(c.calls, "clear") }
func (c *opLog) DrawRect(Rect, Paint)        { c.calls = append(c.calls, "rect") }
func (c *opLog) DrawImage(image.Image, Rect) { c.calls = append(c.calls, "image") }

func TestDisplayListReplaysInOrder(t *testing.T) {
	var inner PictureRecorder
	c := inner.BeginRecording(Size{Width: 4, Height: 4})
	c.DrawRect(RectFromLTWH(0, 0, 4, 4), FillPaint(ColorRed))
	nested := inner.EndRecording()

	var rec PictureRecorder
	c = rec.BeginRecording(Size{Width: 10, Height: 10})
	c.Save()
	c.Translate(1, 2)
	c.Concat(ScaleMatrix(2, 2))
	c.ClipRect(RectFromLTWH(0, 0, 5, 5))
	c.Clear(ColorTransparent)
	c.DrawImage(image.NewRGBA(image.Rect(0, 0, 2, 2)), RectFromLTWH(0, 0, 2, 2))
	c.DrawPicture(nested)
	c.Restore()
	list := rec.EndRecording()

	log := &opLog{}
	list.Paint(log)
	want := []string{"save", "translate", "concat", "clip", "clear", "image", "save", "rect", "restore", "restore"}
	if got := strings.Join(log.calls, " "); got != strings.Join(want, " ") {
		t.Errorf("replay = %q, want %q", got, strings.Join(want, " "))
	}
}

func TestRecordingSkipsNoOps(t *testing.T) {
	var rec PictureRecorder
	c := rec.BeginRecording(Size{Width: 10, Height: 10})
	c.Translate(0, 0)
	c.Concat(IdentityMatrix())
	c.DrawImage(nil, RectFromLTWH(0, 0, 2, 2))
	c.DrawImage(image.NewRGBA(image.Rect(0, 0, 2, 2)), Rect{})
	c.DrawPicture(nil)
	c.DrawPicture((&PictureRecorder{}).EndRecording())
	if got := rec.EndRecording().Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestRecorderReuse(t *testing.T) {
	var rec PictureRecorder
	c := rec.BeginRecording(Size{Width: 10, Height: 10})
	c.DrawRect(RectFromLTWH(0, 0, 1, 1), FillPaint(ColorRed))
	first := rec.EndRecording()

	c = rec.BeginRecording(Size{Width: 5, Height: 5})
	c.Save()
	c.Restore()
	second := rec.EndRecording()

	if first.Len() != 1 || second.Len() != 2 {
		t.Errorf("Len() = %d, %d; want 1, 2", first.Len(), second.Len())
	}
	c.DrawRect(RectFromLTWH(0, 0, 1, 1), FillPaint(ColorRed))
	if second.Len() != 2 {
		t.Error("a closed recording still captured ops")
	}
}
