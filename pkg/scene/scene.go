package scene

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-drift/drawn/pkg/cache"
	"github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/gestures"
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/gogpu/gpucontext"
)

// Options configures a Scene.
type Options struct {
	// Scale is the device pixel ratio. Defaults to 1.
	Scale float64
	// Grace delays disposal of released cache entries. Zero means
	// cache.DefaultGrace; a negative value disposes at the end of the next
	// frame.
	Grace time.Duration
	// Now is the clock used by the disposer. Defaults to time.Now.
	Now func() time.Time
	// Device is the live hardware context used for accelerated caches.
	Device gpucontext.DeviceProvider
}

// Scene hosts a root node on a drawing surface. It drives frames, owns the
// surface allocator and the disposer shared by every node's cache, and
// routes gestures into the tree.
type Scene struct {
	root      *Node
	allocator *graphics.Allocator
	disposer  *cache.Disposer
	scale     float64

	frame      atomic.Uint64
	needsFrame atomic.Bool

	promotedMu sync.Mutex
	promoted   []*Node

	focusMu sync.Mutex
	focus   gestures.Listener
}

// New attaches root to a new scene. root must not have a parent.
func New(root *Node, opts Options) *Scene {
	if root == nil {
		errors.Contract("scene.New", "root node is nil")
	}
	if root.parent != nil {
		errors.Contract("scene.New", "root node %q has a parent", root.Tag)
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Grace == 0 {
		opts.Grace = cache.DefaultGrace
	}
	s := &Scene{
		root:      root,
		allocator: graphics.NewAllocator(opts.Device),
		disposer:  cache.NewDisposer(opts.Grace, opts.Now),
		scale:     opts.Scale,
	}
	root.scene = s
	s.needsFrame.Store(true)
	return s
}

// Root returns the root node.
func (s *Scene) Root() *Node {
	return s.root
}

// Render draws one frame of size pixels onto canvas.
//
// Cache promotions finished by background jobs since the previous frame are
// propagated to the ancestors first. Released cache entries whose grace
// period elapsed are disposed after the frame.
func (s *Scene) Render(canvas graphics.Canvas, size graphics.Size) {
	s.frame.Add(1)
	s.needsFrame.Store(false)
	s.applyPromotions()

	bounds := graphics.Rect{Right: size.Width, Bottom: size.Height}
	s.root.Measure(size.Width, size.Height, s.scale)
	s.root.Render(canvas, bounds, s.scale)

	if n := s.disposer.Drain(); n > 0 {
		errors.Logger().Debug("disposed cache entries", "count", n, "frame", s.frame.Load())
	}
}

func (s *Scene) applyPromotions() {
	s.promotedMu.Lock()
	promoted := s.promoted
	s.promoted = nil
	s.promotedMu.Unlock()
	for _, n := range promoted {
		if !n.disposed {
			n.InvalidateParent()
		}
	}
}

// notePromoted is called from a regeneration job after a new front entry
// went live for n.
func (s *Scene) notePromoted(n *Node) {
	s.promotedMu.Lock()
	s.promoted = append(s.promoted, n)
	s.promotedMu.Unlock()
	s.RequestFrame()
}

// RequestFrame flags the scene as needing a new frame.
func (s *Scene) RequestFrame() {
	s.needsFrame.Store(true)
}

// NeedsFrame reports whether something changed since the last frame.
func (s *Scene) NeedsFrame() bool {
	return s.needsFrame.Load()
}

// Frame returns the number of the frame being rendered or last rendered.
func (s *Scene) Frame() uint64 {
	return s.frame.Load()
}

// Scale returns the device pixel ratio.
func (s *Scene) Scale() float64 {
	return s.scale
}

// SetScale changes the device pixel ratio and re-measures the tree.
func (s *Scene) SetScale(scale float64) {
	if scale <= 0 || scale == s.scale {
		return
	}
	s.scale = scale
	s.root.InvalidateMeasure()
}

// Device returns the live hardware context.
func (s *Scene) Device() gpucontext.DeviceProvider {
	return s.allocator.Device()
}

// SetDevice replaces the live hardware context, typically after the host
// recreated it. Accelerated cache entries allocated against the old context
// are regenerated on their next render.
func (s *Scene) SetDevice(device gpucontext.DeviceProvider) {
	s.allocator.SetDevice(device)
	errors.Logger().Info("hardware context replaced", "frame", s.frame.Load())
	s.RequestFrame()
}

// Allocator returns the surface allocator shared by node caches.
func (s *Scene) Allocator() *graphics.Allocator {
	return s.allocator
}

// Disposer returns the disposer that releases cache entries.
func (s *Scene) Disposer() *cache.Disposer {
	return s.disposer
}

// Focus returns the focused listener, or nil.
func (s *Scene) Focus() gestures.Listener {
	s.focusMu.Lock()
	defer s.focusMu.Unlock()
	return s.focus
}

// SetFocus sets the focused listener. A Down that does not hit it clears it.
func (s *Scene) SetFocus(l gestures.Listener) {
	s.focusMu.Lock()
	s.focus = l
	s.focusMu.Unlock()
}

// OnGestureEvent dispatches event from the root and returns the listener
// that consumed it, or nil. Gestures are delivered on the UI goroutine.
func (s *Scene) OnGestureEvent(event gestures.Event) gestures.Listener {
	p := event.Position
	if inv, ok := s.root.transform.Invert(); ok {
		if q, ok := inv.MapPoint(p); ok {
			p = q
		}
	}
	return s.root.OnGestureEvent(event, gestures.Info{Position: p})
}

// Dispose tears down the tree and disposes every released entry at once.
func (s *Scene) Dispose() {
	s.root.Dispose()
	s.disposer.Flush()
}
