package scene

import (
	"sync"
	"testing"
	"time"

	"github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/gestures"
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/layout"
)

var frameSize = graphics.Size{Width: 400, Height: 400}

func recordingCanvas() graphics.Canvas {
	var rec graphics.PictureRecorder
	return rec.BeginRecording(frameSize)
}

func sized(tag string, w, h float64) *Node {
	n := NewNode(tag)
	n.Width.Set(w)
	n.Height.Set(h)
	return n
}

func filling(tag string) *Node {
	n := NewNode(tag)
	n.HorizontalAlign.Set(layout.AlignFill)
	n.VerticalAlign.Set(layout.AlignFill)
	return n
}

func newTestScene(t *testing.T, root *Node, opts Options) *Scene {
	t.Helper()
	if opts.Grace == 0 {
		opts.Grace = -1
	}
	s := New(root, opts)
	t.Cleanup(s.Dispose)
	return s
}

func renderFrame(s *Scene) {
	s.Render(recordingCanvas(), frameSize)
}

func renderRaster(s *Scene) *graphics.RasterCanvas {
	c := graphics.NewRasterCanvasSize(int(frameSize.Width), int(frameSize.Height))
	s.Render(c, frameSize)
	return c
}

type paintFunc func(n *Node, ctx *DrawingContext)

func (f paintFunc) Paint(n *Node, ctx *DrawingContext) {
	f(n, ctx)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

// recorder is a gesture listener that logs the phases it saw.
type recorder struct {
	consume bool
	phases  []gestures.Phase
	infos   []gestures.Info
}

func (r *recorder) OnGesture(event gestures.Event, info gestures.Info) bool {
	r.phases = append(r.phases, event.Phase)
	r.infos = append(r.infos, info)
	return r.consume
}

func (r *recorder) count(p gestures.Phase) int {
	n := 0
	for _, got := range r.phases {
		if got == p {
			n++
		}
	}
	return n
}

// captureHandler collects reported errors for the duration of a test.
type captureHandler struct {
	mu     sync.Mutex
	errs   []*errors.SceneError
	panics []*errors.PanicError
}

func (h *captureHandler) HandleError(err *errors.SceneError) {
	h.mu.Lock()
	h.errs = append(h.errs, err)
	h.mu.Unlock()
}

func (h *captureHandler) HandlePanic(err *errors.PanicError) {
	h.mu.Lock()
	h.panics = append(h.panics, err)
	h.mu.Unlock()
}

func captureErrors(t *testing.T) *captureHandler {
	t.Helper()
	h := &captureHandler{}
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(nil) })
	return h
}
