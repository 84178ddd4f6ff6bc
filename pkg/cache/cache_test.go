package cache

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/graphics"
)

func TestKind_TextRoundTrip(t *testing.T) {
	for k := None; k <= Composite; k++ {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) error = %v", k, err)
		}
		var got Kind
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) error = %v", text, err)
		}
		if got != k {
			t.Errorf("round trip of %v = %v", k, got)
		}
	}
	if _, err := ParseKind("sepia"); err == nil {
		t.Error("ParseKind(sepia) should fail")
	}
	if k, err := ParseKind(" DoubleBuffered "); err != nil || k != DoubleBuffered {
		t.Errorf("ParseKind = (%v, %v), want doublebuffered", k, err)
	}
}

func TestKind_Classification(t *testing.T) {
	tests := []struct {
		kind     Kind
		buffered bool
		raster   bool
		accel    bool
	}{
		{None, false, false, false},
		{Operations, false, false, false},
		{Image, false, true, false},
		{GPU, false, true, true},
		{DoubleBuffered, true, true, false},
		{Composite, true, true, false},
	}
	for _, tt := range tests {
		if got := tt.kind.IsBuffered(); got != tt.buffered {
			t.Errorf("%v.IsBuffered() = %v, want %v", tt.kind, got, tt.buffered)
		}
		if got := tt.kind.RequiresClip(); got != tt.raster {
			t.Errorf("%v.RequiresClip() = %v, want %v", tt.kind, got, tt.raster)
		}
		if got := tt.kind.Accelerated(); got != tt.accel {
			t.Errorf("%v.Accelerated() = %v, want %v", tt.kind, got, tt.accel)
		}
	}
}

type countingItem struct {
	disposed atomic.Int32
}

func (c *countingItem) Dispose() {
	c.disposed.Add(1)
}

func newSurfaceEntry(t *testing.T, kind Kind, w, h int) *Entry {
	t.Helper()
	surf, err := graphics.NewAllocator(nil).Allocate(w, h, false)
	if err != nil {
		t.Fatalf("Allocate error = %v", err)
	}
	return NewSurfaceEntry(kind, graphics.RectFromLTWH(0, 0, float64(w), float64(h)), graphics.Offset{}, surf)
}

func TestSlots_SetFrontTwiceIsContractViolation(t *testing.T) {
	s := NewSlots(nil)
	s.SetKind(Image)

	if err := s.SetFront(newSurfaceEntry(t, Image, 4, 4)); err != nil {
		t.Fatalf("first SetFront error = %v", err)
	}
	err := s.SetFront(newSurfaceEntry(t, Image, 4, 4))
	var ce *errors.ContractError
	if !stderrors.As(err, &ce) {
		t.Fatalf("second SetFront error = %v, want *ContractError", err)
	}
}

func TestSlots_BufferedKeepsPrevious(t *testing.T) {
	d := NewDisposer(time.Hour, nil)
	s := NewSlots(d)
	s.SetKind(DoubleBuffered)

	first := newSurfaceEntry(t, DoubleBuffered, 4, 4)
	second := newSurfaceEntry(t, DoubleBuffered, 4, 4)
	third := newSurfaceEntry(t, DoubleBuffered, 4, 4)

	for _, e := range []*Entry{first, second} {
		if err := s.SetFront(e); err != nil {
			t.Fatalf("SetFront error = %v", err)
		}
	}
	if s.Front() != second || s.Previous() != first {
		t.Fatal("expected second as front and first as previous")
	}

	s.Prepare(third)
	if !s.Promote(DoubleBuffered) {
		t.Fatal("Promote() = false, want true")
	}
	if s.Front() != third || s.Previous() != second {
		t.Error("expected third as front and second as previous")
	}
	if got := d.Pending(); got != 1 {
		t.Errorf("disposer pending = %d, want 1 (the demoted previous)", got)
	}
}

func TestSlots_NonBufferedHasNoPrevious(t *testing.T) {
	d := NewDisposer(0, nil)
	s := NewSlots(d)
	s.SetKind(Image)

	first := newSurfaceEntry(t, Image, 4, 4)
	_ = s.SetFront(first)
	s.Invalidate()
	if s.Front() != nil {
		t.Fatal("expected front cleared by Invalidate")
	}
	if got := s.TakeReusable(4, 4, nil); got != first.Surface {
		t.Error("expected the invalidated surface to be reusable at the same size")
	}

	second := newSurfaceEntry(t, Image, 4, 4)
	_ = s.SetFront(second)
	s.Invalidate()
	if got := s.TakeReusable(8, 8, nil); got != nil {
		t.Error("expected no reusable surface for a different size")
	}
	if s.Previous() != nil {
		t.Error("non-buffered kinds must not retain a previous entry")
	}
	d.Drain()
	if !second.Surface.Disposed() {
		t.Error("expected mismatched surface to be disposed")
	}
}

func TestSlots_PromoteWaitsForReaders(t *testing.T) {
	s := NewSlots(nil)
	s.SetKind(DoubleBuffered)
	_ = s.SetFront(newSurfaceEntry(t, DoubleBuffered, 2, 2))

	front := s.Acquire()
	next := newSurfaceEntry(t, DoubleBuffered, 2, 2)
	s.Prepare(next)

	done := make(chan struct{})
	go func() {
		s.Promote(DoubleBuffered)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Promote completed while a reader held the front")
	case <-time.After(20 * time.Millisecond):
	}
	if front.Surface.Disposed() {
		t.Fatal("front disposed while being read")
	}

	s.Release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Promote did not complete after Release")
	}
	if s.Front() != next {
		t.Error("expected prepared entry promoted")
	}
}

func TestSlots_PromoteAfterKindChangeDiscards(t *testing.T) {
	s := NewSlots(nil)
	s.SetKind(Composite)
	e := newSurfaceEntry(t, Composite, 2, 2)
	s.Prepare(e)
	s.SetKind(Image)

	if s.Promote(Composite) {
		t.Error("Promote() = true after kind change, want false")
	}
	if !e.Surface.Disposed() {
		t.Error("expected discarded entry to be disposed")
	}
}

func TestSlots_DirtyRegions(t *testing.T) {
	s := NewSlots(nil)
	s.SetKind(Composite)
	s.MarkRegionDirty(graphics.RectFromLTWH(0, 0, 10, 10))
	s.MarkRegionDirty(graphics.Rect{})

	regions, requested := s.TakeRefresh()
	if !requested || len(regions) != 1 {
		t.Errorf("TakeRefresh = (%v, %v), want one region requested", regions, requested)
	}
	if _, requested := s.TakeRefresh(); requested {
		t.Error("expected refresh cleared after TakeRefresh")
	}
}

func TestEntry_GPUValidity(t *testing.T) {
	live := graphics.NewDevice("first")
	alloc := graphics.NewAllocator(live)
	surf, err := alloc.Allocate(2, 2, true)
	if err != nil {
		t.Fatal(err)
	}
	e := NewSurfaceEntry(GPU, graphics.RectFromLTWH(0, 0, 2, 2), graphics.Offset{}, surf)

	if !e.IsValidFor(live) {
		t.Error("entry should be valid for the device that allocated it")
	}
	if e.IsValidFor(graphics.NewDevice("second")) {
		t.Error("entry should be invalid after the device is replaced")
	}
	cpu := newSurfaceEntry(t, Image, 2, 2)
	if !cpu.IsValidFor(graphics.NewDevice("other")) {
		t.Error("CPU entries ignore the live device")
	}
}

func TestEntry_DriftShiftsDraw(t *testing.T) {
	rec := &graphics.PictureRecorder{}
	c := rec.BeginRecording(graphics.Size{Width: 10, Height: 10})
	c.DrawRect(graphics.RectFromLTWH(5, 5, 2, 2), graphics.FillPaint(graphics.ColorRed))
	list := rec.EndRecording()

	e := NewPictureEntry(Operations, graphics.RectFromLTWH(5, 5, 2, 2), graphics.Offset{X: 5, Y: 5}, list)
	if got := e.Drift(graphics.Offset{X: 8, Y: 4}); got != (graphics.Offset{X: 3, Y: -1}) {
		t.Errorf("Drift = %v, want {3 -1}", got)
	}

	canvas := graphics.NewRasterCanvasSize(20, 20)
	e.Draw(canvas, graphics.Offset{X: 10, Y: 10})
	img := canvas.Image()
	if _, _, _, a := img.At(11, 11).RGBA(); a == 0 {
		t.Error("expected drifted rect drawn at (10,10)")
	}
	if _, _, _, a := img.At(6, 6).RGBA(); a != 0 {
		t.Error("expected nothing at the original position")
	}
}

func TestRegenerator_LatestWins(t *testing.T) {
	r := NewRegenerator("test")
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resume, err := r.Pause(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var ran []string
	job := func(name string) Job {
		return func() error {
			ran = append(ran, name)
			return nil
		}
	}

	if r.Submit(job("first")) {
		t.Error("first Submit reported superseded")
	}
	if !r.Submit(job("second")) {
		t.Error("second Submit should supersede the unstarted first job")
	}
	resume()

	if err := r.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if len(ran) != 1 || ran[0] != "second" {
		t.Errorf("ran = %v, want [second]", ran)
	}
	if got := r.Runs(); got != 1 {
		t.Errorf("Runs() = %d, want 1", got)
	}
	if got := r.Superseded(); got != 1 {
		t.Errorf("Superseded() = %d, want 1", got)
	}
}

func TestRegenerator_RecoversPanicAndKeepsRunning(t *testing.T) {
	oldHandler := errors.DefaultHandler
	var panics atomic.Int32
	errors.SetHandler(&recordingHandler{onPanic: func() { panics.Add(1) }})
	defer errors.SetHandler(oldHandler)

	r := NewRegenerator("panicky")
	defer r.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r.Submit(func() error { panic("boom") })
	if err := r.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	var ok atomic.Bool
	r.Submit(func() error { ok.Store(true); return nil })
	if err := r.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if panics.Load() != 1 {
		t.Errorf("panics reported = %d, want 1", panics.Load())
	}
	if !ok.Load() {
		t.Error("worker did not survive the panic")
	}
}

func TestRegenerator_CloseDropsQueued(t *testing.T) {
	r := NewRegenerator("closing")
	ctx := context.Background()
	resume, err := r.Pause(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ran atomic.Bool
	r.Submit(func() error { ran.Store(true); return nil })
	r.Close()
	resume()

	if err := r.Wait(ctx); err != nil {
		t.Fatal(err)
	}
	if ran.Load() {
		t.Error("queued job ran after Close")
	}
	if r.Submit(func() error { return nil }) {
		t.Error("Submit after Close should be ignored")
	}
}

func TestRegenerator_CloseDoesNotWaitForRunningJob(t *testing.T) {
	r := NewRegenerator("slow")
	started := make(chan struct{})
	release := make(chan struct{})
	r.Submit(func() error {
		close(started)
		<-release
		return nil
	})
	<-started

	closed := make(chan struct{})
	go func() {
		r.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close() blocked on the running job")
	}
	select {
	case <-r.Done():
		t.Error("Done() closed while a job is still running")
	default:
	}

	close(release)
	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit after the running job finished")
	}
}

func TestRegenerator_DoneWithoutWorker(t *testing.T) {
	r := NewRegenerator("idle")
	select {
	case <-r.Done():
		t.Fatal("Done() closed before Close")
	default:
	}
	r.Close()
	select {
	case <-r.Done():
	default:
		t.Error("Done() not closed after Close with no worker")
	}
}

func TestSlots_CloseReleasesLateResults(t *testing.T) {
	d := NewDisposer(time.Hour, nil)
	s := NewSlots(d)
	s.SetKind(DoubleBuffered)
	if err := s.SetFront(newSurfaceEntry(t, DoubleBuffered, 4, 4)); err != nil {
		t.Fatalf("SetFront error = %v", err)
	}

	s.Close()
	if got := d.Pending(); got != 1 {
		t.Errorf("disposer pending after Close = %d, want 1", got)
	}

	s.Prepare(newSurfaceEntry(t, DoubleBuffered, 4, 4))
	if s.Promote(DoubleBuffered) {
		t.Error("Promote() = true on closed slots")
	}
	if s.Front() != nil {
		t.Error("Front() != nil after a late promotion")
	}
	if got := d.Pending(); got != 2 {
		t.Errorf("disposer pending = %d, want 2", got)
	}
}

func TestDisposer_GracePeriod(t *testing.T) {
	now := time.Unix(0, 0)
	d := NewDisposer(3*time.Second, func() time.Time { return now })

	item := &countingItem{}
	d.Schedule(item)

	if got := d.Drain(); got != 0 {
		t.Errorf("Drain() before grace = %d, want 0", got)
	}
	now = now.Add(3 * time.Second)
	if got := d.Drain(); got != 1 {
		t.Errorf("Drain() after grace = %d, want 1", got)
	}
	if item.disposed.Load() != 1 {
		t.Errorf("disposed = %d, want 1", item.disposed.Load())
	}

	d.Schedule(&countingItem{})
	if got := d.Flush(); got != 1 {
		t.Errorf("Flush() = %d, want 1", got)
	}
	if d.Pending() != 0 {
		t.Error("expected empty queue after Flush")
	}
}

type recordingHandler struct {
	onPanic func()
}

func (h *recordingHandler) HandleError(*errors.SceneError) {}

func (h *recordingHandler) HandlePanic(*errors.PanicError) {
	if h.onPanic != nil {
		h.onPanic()
	}
}

func TestSlots_FullRefreshDropsRegions(t *testing.T) {
	s := NewSlots(nil)
	s.SetKind(Composite)
	s.MarkRegionDirty(graphics.RectFromLTWH(0, 0, 10, 10))
	s.Invalidate()
	s.MarkRegionDirty(graphics.RectFromLTWH(5, 5, 10, 10))

	regions, requested := s.TakeRefresh()
	if !requested || regions != nil {
		t.Errorf("TakeRefresh = (%v, %v), want full refresh", regions, requested)
	}
}
