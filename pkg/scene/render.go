package scene

import (
	"math"

	"github.com/go-drift/drawn/pkg/cache"
	"github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/graphics"
)

// Render measures (if needed), arranges and draws the node inside dest.
//
// Invalidations raised while the node renders are held and applied right
// after the pass. A node with a cache kind other than None draws through its
// cache when it is attached to a scene.
func (n *Node) Render(canvas graphics.Canvas, dest graphics.Rect, scale float64) {
	if n.disposed {
		return
	}
	if !n.Visible.Get() {
		n.drawable = false
		return
	}
	n.rendering = true
	defer n.finishRender()

	if n.needMeasure || !n.hasMeasured {
		w, h := dest.Width(), dest.Height()
		if n.hasMeasured {
			w, h = n.lastRequest.WidthConstraint, n.lastRequest.HeightConstraint
		}
		n.Measure(w, h, scale)
	}
	size := n.measured.Pixels
	n.Arrange(dest, size.Width, size.Height, scale)
	if !n.drawable || n.Ghost.Get() {
		return
	}

	n.transform = n.computeTransform(scale)
	canvas.Save()
	defer canvas.Restore()
	if !n.transform.IsIdentity() {
		canvas.Concat(n.transform)
	}
	if n.ClipEffects.Get() {
		canvas.ClipRect(n.drawingRect)
	}

	ctx := &DrawingContext{Canvas: canvas, Rect: n.drawingRect, Scale: scale}
	if kind := n.Cache.Get(); kind != cache.None {
		if s := n.Scene(); s != nil {
			n.renderCached(ctx, s, kind)
			return
		}
	}
	n.paintContent(ctx)
	n.renderNeedsUpdate = false
}

func (n *Node) finishRender() {
	n.rendering = false
	n.clearDirtyMark()
	n.dirtyChildren = nil
	n.replayDeferred()
}

// PaintChildren renders the children in z-order into the content rectangle
// and publishes the snapshot used for hit testing.
func (n *Node) PaintChildren(ctx *DrawingContext) {
	content := n.ContentRect(ctx.Scale)
	var rendered []RenderedChild
	for i, child := range n.ZOrder() {
		child.Render(ctx.Canvas, content, ctx.Scale)
		if !child.drawable || !child.Visible.Get() || child.Ghost.Get() || child.disposed {
			continue
		}
		hit := child.transform.MapRect(child.drawingRect)
		child.lastHitRect = hit
		rendered = append(rendered, RenderedChild{
			Node:      child,
			DrawnRect: child.drawingRect,
			HitRect:   hit,
			Transform: child.transform,
			Index:     i,
		})
	}
	n.snapshot.Store(&renderSnapshot{children: rendered, origin: n.drawingRect.Origin()})
}

func (n *Node) paintContent(ctx *DrawingContext) {
	n.paintCount.Add(1)
	defer errors.Recover("scene.Paint")
	n.paintable().Paint(n, ctx)
}

// record paints the node into a display list.
func (n *Node) record(scale float64) *graphics.DisplayList {
	var rec graphics.PictureRecorder
	c := rec.BeginRecording(n.drawingRect.Size())
	n.paintContent(&DrawingContext{Canvas: c, Rect: n.drawingRect, Scale: scale})
	return rec.EndRecording()
}

// cacheBounds is the area a raster cache covers: the drawing rectangle grown
// by CacheInflate.
func (n *Node) cacheBounds(scale float64) graphics.Rect {
	inflate := n.CacheInflate.Get() * scale
	if inflate <= 0 {
		return n.drawingRect
	}
	return n.drawingRect.Inflate(graphics.UniformThickness(inflate))
}

func pixelSize(r graphics.Rect) (int, int) {
	return int(math.Ceil(r.Width())), int(math.Ceil(r.Height()))
}

func sameSize(a, b graphics.Rect) bool {
	return math.Abs(a.Width()-b.Width()) <= 0.5 && math.Abs(a.Height()-b.Height()) <= 0.5
}

func (n *Node) ensureSlots(s *Scene, kind cache.Kind) {
	if n.slots == nil {
		n.slots = cache.NewSlots(s.disposer)
	}
	n.slots.SetKind(kind)
	if kind.IsBuffered() && n.regen == nil {
		n.regen = cache.NewRegenerator(n.String())
	}
}

func (n *Node) renderCached(ctx *DrawingContext, s *Scene, kind cache.Kind) {
	if kind.RequiresClip() && !n.ClipEffects.Get() {
		errors.Contract("scene.Render", "cache kind %s on node %q requires ClipEffects", kind, n.Tag)
	}
	n.ensureSlots(s, kind)
	if kind.IsBuffered() {
		n.renderBuffered(ctx, s, kind)
		return
	}
	if n.drawFromCache(ctx.Canvas) {
		return
	}
	n.writeCache(ctx, s, kind)
}

// drawFromCache draws the front entry if it is still usable. A stale entry
// (lost hardware context, disposed surface, different size) is invalidated.
func (n *Node) drawFromCache(canvas graphics.Canvas) bool {
	if n.slots == nil {
		return false
	}
	s := n.Scene()
	if s == nil {
		return false
	}
	front := n.slots.Acquire()
	ok := front.IsValidFor(s.Device()) && sameSize(front.Bounds, n.cacheBounds(n.arrange.scale))
	if ok {
		front.Draw(canvas, n.drawingRect.Origin())
	}
	n.slots.Release()

	if !ok && front != nil {
		errors.Logger().Debug("cache entry stale", "node", n.Tag, "kind", front.Kind.String())
		n.slots.Invalidate()
	}
	return ok
}

func (n *Node) writeCache(ctx *DrawingContext, s *Scene, kind cache.Kind) {
	var entry *cache.Entry
	if kind == cache.Operations {
		entry = cache.NewPictureEntry(kind, n.drawingRect, n.drawingRect.Origin(), n.record(ctx.Scale))
	} else {
		e, err := n.rasterize(s, kind, ctx.Scale)
		if err != nil {
			errors.Report(&errors.SceneError{Op: "scene.writeCache", Kind: errors.KindCache, Err: err, Node: n.Tag})
			n.paintContent(ctx)
			return
		}
		entry = e
	}
	if err := n.slots.SetFront(entry); err != nil {
		entry.Dispose()
		panic(err)
	}
	n.cacheWrites++
	n.renderNeedsUpdate = false
	entry.Draw(ctx.Canvas, n.drawingRect.Origin())
}

// rasterize paints the node into a surface covering its cache bounds,
// reusing the surface of the last invalidated entry when possible.
func (n *Node) rasterize(s *Scene, kind cache.Kind, scale float64) (*cache.Entry, error) {
	bounds := n.cacheBounds(scale)
	w, h := pixelSize(bounds)
	accelerated := kind.Accelerated()
	device := s.Device()
	if !accelerated {
		device = nil
	}

	surf := n.slots.TakeReusable(w, h, device)
	if surf == nil {
		var err error
		if surf, err = s.allocator.Allocate(w, h, accelerated); err != nil {
			return nil, err
		}
	}
	c := surf.Canvas()
	c.Clear(graphics.ColorTransparent)
	c.Save()
	c.Translate(-bounds.Left, -bounds.Top)
	n.paintContent(&DrawingContext{Canvas: c, Rect: n.drawingRect, Scale: scale})
	c.Restore()
	if err := surf.Flush(); err != nil {
		surf.Dispose()
		return nil, err
	}
	return cache.NewSurfaceEntry(kind, bounds, n.drawingRect.Origin(), surf), nil
}

// renderBuffered draws the current front entry and, when a refresh was
// requested, records the node's paint and hands it to the regenerator. The
// caller never waits for rasterization.
func (n *Node) renderBuffered(ctx *DrawingContext, s *Scene, kind cache.Kind) {
	bounds := n.cacheBounds(ctx.Scale)
	front := n.slots.Acquire()
	drawn := front.IsValidFor(s.Device())
	if drawn {
		front.Draw(ctx.Canvas, n.drawingRect.Origin())
	}
	resized := front != nil && !sameSize(front.Bounds, bounds)
	n.slots.Release()

	regions, requested := n.slots.TakeRefresh()
	if drawn && !requested && !resized {
		return
	}
	inFlight := n.regenPending.Load() && sameSize(n.regenBounds, bounds)
	if !requested && inFlight && (resized || !drawn) {
		// the raster for these bounds is still in flight
		if !drawn {
			n.paintContent(ctx)
		}
		return
	}
	if resized {
		regions = nil
	}

	list := n.record(ctx.Scale)
	if !drawn {
		ctx.Canvas.DrawPicture(list)
	}
	n.regenPending.Store(true)
	n.regenBounds = bounds
	n.cacheWrites++
	n.renderNeedsUpdate = false
	n.regen.Submit(n.regenerate(s, kind, list, bounds, regions))
}

// regenerate returns the background job rasterizing list. With dirty
// regions and a front surface of the same bounds, only the regions are
// redrawn over a copy of the front.
func (n *Node) regenerate(s *Scene, kind cache.Kind, list *graphics.DisplayList, bounds graphics.Rect, regions []graphics.Rect) cache.Job {
	slots := n.slots
	anchor := n.drawingRect.Origin()
	return func() error {
		defer n.regenPending.Store(false)
		w, h := pixelSize(bounds)
		surf, err := s.allocator.Allocate(w, h, false)
		if err != nil {
			return err
		}

		c := surf.Canvas()
		partial := false
		if kind == cache.Composite && len(regions) > 0 {
			front := slots.Acquire()
			if front != nil && front.Surface != nil && front.Bounds.ApproxEqual(bounds, 0.5) {
				partial = surf.CopyFrom(front.Surface)
			}
			slots.Release()
		}

		c.Save()
		if partial {
			clip := regions[0]
			for _, r := range regions[1:] {
				clip = clip.Union(r)
			}
			clip = clip.Translate(-bounds.Left, -bounds.Top)
			surf.ClearRect(clip)
			c.ClipRect(clip)
		} else {
			c.Clear(graphics.ColorTransparent)
		}
		c.Translate(-bounds.Left, -bounds.Top)
		c.DrawPicture(list)
		c.Restore()

		if err := surf.Flush(); err != nil {
			surf.Dispose()
			return err
		}
		slots.Prepare(cache.NewSurfaceEntry(kind, bounds, anchor, surf))
		if slots.Promote(kind) {
			errors.Logger().Debug("cache promoted", "node", n.Tag, "kind", kind.String(), "partial", partial)
			s.notePromoted(n)
		}
		return nil
	}
}
