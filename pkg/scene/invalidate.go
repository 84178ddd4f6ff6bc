package scene

import (
	"slices"

	"github.com/go-drift/drawn/pkg/cache"
	"github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/property"
)

// Invalidation is split in two parts. The node's own kind ("own") says what
// to recompute on the node itself; the upward kind ("up") is what a child or
// a transform change asks of it:
//
//	up = Measure   re-measure the node (not its children) and escalate
//	up = Update    drop the node's cache and escalate
//	up = Repaint   keep the node's cache but tell the parent it changed
//
// Both are held while the node renders (replayed after the pass) or while it
// is update-locked (replayed on unlock), and collapse to a single outward
// notification when applied.

// InvalidateMeasure marks the node and its whole subtree for measurement,
// drops their caches and escalates to the parent. Children are invalidated
// under an update lock so they produce one outward notification in total.
func (n *Node) InvalidateMeasure() {
	n.raise(property.Measure, 0)
}

// InvalidateViewport marks the arranged rectangle stale and drops the cache.
func (n *Node) InvalidateViewport() {
	n.raise(property.Viewport, 0)
}

// Update drops the node's rendered cache without touching layout.
func (n *Node) Update() {
	n.raise(property.Update, 0)
}

// Repaint requests a frame. Caches stay valid.
func (n *Node) Repaint() {
	n.raise(property.Repaint, 0)
}

// InvalidateParent tells the parent that the node's drawing changed while
// its own content did not, as happens for transform or z-order changes.
func (n *Node) InvalidateParent() {
	n.raise(0, property.Repaint)
}

// LockUpdate suspends outward propagation until the matching UnlockUpdate.
// Locks nest.
func (n *Node) LockUpdate() {
	n.updateLocks++
}

// UnlockUpdate releases one lock. Releasing the last one applies everything
// raised in between as a single invalidation.
func (n *Node) UnlockUpdate() {
	if n.updateLocks == 0 {
		errors.Contract("scene.UnlockUpdate", "node %q is not locked", n.Tag)
	}
	n.updateLocks--
	if n.updateLocks > 0 {
		return
	}
	own, up := n.pending, n.pendingUp
	n.pending, n.pendingUp = 0, 0
	n.raise(own, up)
}

// Batch runs fn with outward propagation locked.
func (n *Node) Batch(fn func()) {
	n.LockUpdate()
	defer n.UnlockUpdate()
	fn()
}

// DirtyChildren returns the children that reported a change since the node
// was last rendered.
func (n *Node) DirtyChildren() []*Node {
	return slices.Clone(n.dirtyChildren)
}

// OutwardInvalidations returns how many times the node notified its parent.
func (n *Node) OutwardInvalidations() int {
	return n.outward
}

func (n *Node) raise(own, up property.Kind) {
	if n.disposed || own|up == 0 {
		return
	}
	switch {
	case n.rendering:
		n.deferred |= own
		n.deferredUp |= up
	case n.updateLocks > 0:
		n.pending |= own
		n.pendingUp |= up
	default:
		n.apply(own.Strongest(), up.Strongest())
	}
}

func (n *Node) apply(own, up property.Kind) {
	measure := own == property.Measure || up == property.Measure
	if measure || own == property.Viewport {
		n.isLayoutDirty = true
	}
	if measure {
		n.needMeasure = true
	}
	if own >= property.Update || up >= property.Update {
		n.invalidateCache()
	}
	if own == property.Measure {
		n.invalidateChildren()
	}

	switch {
	case measure:
		n.invalidateParent(property.Measure)
	case own >= property.Update || up != 0:
		n.invalidateParent(property.Update)
	}
	n.requestFrame()
}

func (n *Node) invalidateChildren() {
	if len(n.children) == 0 {
		return
	}
	n.updateLocks++
	for _, c := range n.children {
		c.InvalidateMeasure()
	}
	n.updateLocks--
	// the caller escalates Measure, which covers whatever the children raised
	n.pending, n.pendingUp = 0, 0
}

func (n *Node) invalidateCache() {
	n.renderNeedsUpdate = true
	if n.slots != nil {
		n.slots.Invalidate()
	}
}

// invalidateParent notifies the parent. Within one frame a parent that is
// already dirty for an equal or stronger kind only records the child. A
// Composite parent receives the child's changed region and keeps the rest of
// its raster.
func (n *Node) invalidateParent(kind property.Kind) {
	p := n.parent
	if p == nil {
		return
	}
	n.outward++
	frame := p.frame()
	composite := kind != property.Measure && p.Cache.Get() == cache.Composite

	if p.dirtyMarked && p.dirtyFrame == frame && kind <= p.dirtyKind && p.stillDirty(kind) {
		p.addDirtyChild(n)
		if composite {
			p.markRegion(n)
		}
		return
	}
	if !p.dirtyMarked || p.dirtyFrame != frame {
		p.dirtyKind = 0
	}
	p.dirtyMarked = true
	p.dirtyFrame = frame
	p.dirtyKind = max(p.dirtyKind, kind)
	p.addDirtyChild(n)

	if composite {
		p.markRegion(n)
		p.raise(0, property.Repaint)
		return
	}
	p.raise(0, kind)
}

// stillDirty reports whether the state a kind leaves behind is still
// pending on n. A parent that was re-measured or redrawn since it was marked
// must be notified again.
func (n *Node) stillDirty(kind property.Kind) bool {
	if kind == property.Measure {
		return n.needMeasure
	}
	return n.renderNeedsUpdate
}

// clearDirtyMark forgets the per-frame dirty mark once the node has
// consumed it.
func (n *Node) clearDirtyMark() {
	n.dirtyMarked = false
	n.dirtyKind = 0
}

// markRegion records the area child covered when last drawn plus the area
// it covers now.
func (n *Node) markRegion(child *Node) {
	if n.slots == nil {
		n.invalidateCache()
		return
	}
	scale := 1.0
	if s := n.Scene(); s != nil {
		scale = s.Scale()
	}
	region := child.computeTransform(scale).MapRect(child.drawingRect)
	if !child.lastHitRect.IsEmpty() {
		region = region.Union(child.lastHitRect)
	}
	n.slots.MarkRegionDirty(region)
}

func (n *Node) addDirtyChild(child *Node) {
	if !slices.Contains(n.dirtyChildren, child) {
		n.dirtyChildren = append(n.dirtyChildren, child)
	}
}

func (n *Node) removeDirtyChild(child *Node) {
	n.dirtyChildren = slices.DeleteFunc(n.dirtyChildren, func(c *Node) bool { return c == child })
}

// replayDeferred applies what was raised while the node was rendering.
func (n *Node) replayDeferred() {
	own, up := n.deferred, n.deferredUp
	n.deferred, n.deferredUp = 0, 0
	if own|up == 0 {
		return
	}
	errors.Logger().Debug("replaying deferred invalidation", "node", n.Tag, "own", own.String(), "up", up.String())
	n.raise(own, up)
}

func (n *Node) frame() uint64 {
	if s := n.Scene(); s != nil {
		return s.Frame()
	}
	return 0
}

func (n *Node) requestFrame() {
	if s := n.Scene(); s != nil {
		s.RequestFrame()
	}
}
