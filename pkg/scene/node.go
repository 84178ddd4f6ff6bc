// Package scene implements the retained node tree: measure and arrange,
// dirty-invalidation propagation, per-node render caching and gesture
// dispatch over the last rendered snapshot.
//
// The tree is owned and mutated by a single UI goroutine. The only state
// touched from other goroutines is a node's cache slots (promoted by its
// background regenerator), its render snapshot and its gesture active set.
package scene

import (
	"slices"
	"sync/atomic"

	"github.com/go-drift/drawn/pkg/cache"
	"github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/gestures"
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/layout"
	"github.com/go-drift/drawn/pkg/property"
)

// Node is a drawable element of the scene tree.
//
// Public parameters are reactive properties: setting one routes the change
// into the matching invalidation (measure, viewport, cache update or plain
// repaint). A new node starts dirty and is measured on first use.
type Node struct {
	// Tag names the node in log records and test finders.
	Tag string

	// Requested size in logical units; negative means auto.
	Width     property.Property[float64]
	Height    property.Property[float64]
	MinWidth  property.Property[float64]
	MaxWidth  property.Property[float64]
	MinHeight property.Property[float64]
	MaxHeight property.Property[float64]
	// LockRatio squares the box from the larger (positive) or smaller
	// (negative) side.
	LockRatio property.Property[float64]

	Margin  property.Property[graphics.Thickness]
	Padding property.Property[graphics.Thickness]

	HorizontalAlign property.Property[layout.Alignment]
	VerticalAlign   property.Property[layout.Alignment]
	// OffsetX and OffsetY shift the arranged box by a fraction of its own size.
	OffsetX property.Property[float64]
	OffsetY property.Property[float64]

	// ViewportWidth and ViewportHeight clip the measured size, in logical
	// units; negative means unlimited.
	ViewportWidth  property.Property[float64]
	ViewportHeight property.Property[float64]

	Visible property.Property[bool]
	// Ghost nodes take part in layout but are neither painted nor hit.
	Ghost property.Property[bool]
	// InputTransparent nodes are painted but never hit.
	InputTransparent property.Property[bool]
	ZIndex           property.Property[int]

	// ClipEffects clips painting to the drawing rectangle. Raster cache
	// kinds require it.
	ClipEffects property.Property[bool]
	// CacheInflate grows raster cache bounds, in logical units.
	CacheInflate property.Property[float64]
	Cache        property.Property[cache.Kind]
	Background   property.Property[graphics.Color]

	// Transform parameters, applied around the pivot.
	TranslationX property.Property[float64]
	TranslationY property.Property[float64]
	ScaleX       property.Property[float64]
	ScaleY       property.Property[float64]
	Rotation     property.Property[float64]
	SkewX        property.Property[float64]
	SkewY        property.Property[float64]
	Perspective1 property.Property[float64]
	Perspective2 property.Property[float64]
	RotationX    property.Property[float64]
	RotationY    property.Property[float64]
	RotationZ    property.Property[float64]
	// PivotX and PivotY are fractions of the drawing rectangle.
	PivotX property.Property[float64]
	PivotY property.Property[float64]

	parent   *Node
	children []*Node
	zorder   []*Node
	scene    *Scene
	behavior any
	listener gestures.Listener

	// layout state
	needMeasure   bool
	isLayoutDirty bool
	hasMeasured   bool
	lastRequest   layout.MeasureRequest
	measured      layout.ScaledSize
	measureCount  int
	arrange       arrangeState
	arrangeCount  int
	arranged      graphics.Rect
	drawingRect   graphics.Rect
	drawable      bool
	transform     graphics.Matrix

	// invalidation state
	renderNeedsUpdate bool
	rendering         bool
	updateLocks       int
	pending           property.Kind
	pendingUp         property.Kind
	deferred          property.Kind
	deferredUp        property.Kind
	dirtyFrame        uint64
	dirtyMarked       bool
	dirtyKind         property.Kind
	dirtyChildren     []*Node
	outward           int
	lastHitRect       graphics.Rect

	// cache state
	slots         *cache.Slots
	regen         *cache.Regenerator
	regenPending  atomic.Bool
	// regenBounds are the cache bounds of the last submitted regeneration.
	regenBounds graphics.Rect
	paintCount    atomic.Int64
	cacheWrites   int
	snapshot      atomic.Pointer[renderSnapshot]
	active        gestures.ActiveSet
	disposed      bool
}

// RenderedChild is one entry of a node's render snapshot: a child as it was
// drawn during the node's last paint.
type RenderedChild struct {
	Node *Node
	// DrawnRect is the child's drawing rectangle.
	DrawnRect graphics.Rect
	// HitRect is DrawnRect mapped through Transform.
	HitRect   graphics.Rect
	Transform graphics.Matrix
	// Index is the child's position in z-order.
	Index int
}

type renderSnapshot struct {
	children []RenderedChild
	// origin is the node's drawing origin when the children were drawn.
	origin graphics.Offset
}

// NewNode returns a visible, auto-sized node with the given tag.
func NewNode(tag string) *Node {
	n := &Node{Tag: tag}
	n.bind()
	n.needMeasure = true
	n.isLayoutDirty = true
	n.renderNeedsUpdate = true
	n.transform = graphics.IdentityMatrix()
	return n
}

// parentInvalidator routes a property change to the parent: the node's own
// cache stays valid but whatever contains its drawing does not.
type parentInvalidator struct {
	n *Node
}

func (p parentInvalidator) Invalidate(property.Kind) {
	p.n.InvalidateParent()
}

func (n *Node) bind() {
	for _, p := range []*property.Property[float64]{&n.Width, &n.Height, &n.MinWidth, &n.MaxWidth, &n.MinHeight, &n.MaxHeight, &n.ViewportWidth, &n.ViewportHeight} {
		p.Bind(n, layout.Unset, property.Measure)
	}
	n.LockRatio.Bind(n, 0, property.Measure)
	n.Margin.Bind(n, graphics.Thickness{}, property.Measure)
	n.Padding.Bind(n, graphics.Thickness{}, property.Measure)
	n.HorizontalAlign.Bind(n, layout.AlignStart, property.Measure)
	n.VerticalAlign.Bind(n, layout.AlignStart, property.Measure)
	n.OffsetX.Bind(n, 0, property.Viewport)
	n.OffsetY.Bind(n, 0, property.Viewport)
	n.Visible.Bind(n, true, property.Measure)
	n.InputTransparent.Bind(nil, false, 0)
	n.ClipEffects.Bind(n, false, property.Update)
	n.CacheInflate.Bind(n, 0, property.Update)
	n.Background.Bind(n, graphics.ColorTransparent, property.Update)

	n.Cache.Bind(n, cache.None, property.Update)
	n.Cache.OnChange(func(_, kind cache.Kind) {
		if n.slots != nil {
			n.slots.SetKind(kind)
		}
		n.renderNeedsUpdate = true
	})

	parent := parentInvalidator{n}
	n.Ghost.Bind(parent, false, property.Update)
	n.ZIndex.Bind(parent, 0, property.Update)
	n.ZIndex.OnChange(func(_, _ int) {
		if n.parent != nil {
			n.parent.zorder = nil
		}
	})
	for _, p := range []*property.Property[float64]{&n.TranslationX, &n.TranslationY, &n.Rotation, &n.SkewX, &n.SkewY, &n.Perspective1, &n.Perspective2, &n.RotationX, &n.RotationY, &n.RotationZ} {
		p.Bind(parent, 0, property.Repaint)
	}
	n.ScaleX.Bind(parent, 1, property.Repaint)
	n.ScaleY.Bind(parent, 1, property.Repaint)
	n.PivotX.Bind(parent, 0.5, property.Repaint)
	n.PivotY.Bind(parent, 0.5, property.Repaint)
}

// Invalidate implements property.Invalidator.
func (n *Node) Invalidate(kind property.Kind) {
	n.raise(kind.Strongest(), 0)
}

// SetBehavior installs the capability implementation of the node. b may
// implement any of Measurable, Arrangeable and Paintable; missing ones fall
// back to the defaults.
func (n *Node) SetBehavior(b any) {
	n.behavior = b
	n.InvalidateMeasure()
}

// Behavior returns the installed behavior, or nil.
func (n *Node) Behavior() any {
	return n.behavior
}

// SetListener sets the gesture listener of the node.
func (n *Node) SetListener(l gestures.Listener) {
	n.listener = l
}

// Listener returns the gesture listener of the node, or nil.
func (n *Node) Listener() gestures.Listener {
	return n.listener
}

// Parent returns the parent node, or nil for a root or detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the children in insertion order. The slice must not be
// modified.
func (n *Node) Children() []*Node {
	return n.children
}

// AddChild appends child. A child that already has a parent is a contract
// violation.
func (n *Node) AddChild(child *Node) {
	n.InsertChild(len(n.children), child)
}

// InsertChild inserts child at index.
func (n *Node) InsertChild(index int, child *Node) {
	if child == nil {
		return
	}
	if child.parent != nil {
		errors.Contract("scene.InsertChild", "node %q already has parent %q", child.Tag, child.parent.Tag)
	}
	if child == n || child.isAncestorOf(n) {
		errors.Contract("scene.InsertChild", "node %q cannot contain itself", child.Tag)
	}
	index = max(0, min(index, len(n.children)))
	n.children = slices.Insert(n.children, index, child)
	child.parent = n
	n.zorder = nil
	n.InvalidateMeasure()
}

// RemoveChild detaches child. Returns false if child is not a child of n.
func (n *Node) RemoveChild(child *Node) bool {
	i := slices.Index(n.children, child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	n.zorder = nil
	n.removeDirtyChild(child)
	n.InvalidateMeasure()
	return true
}

func (n *Node) isAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// ZOrder returns the children sorted by ZIndex, insertion order breaking
// ties. The result is cached until children or a ZIndex change.
func (n *Node) ZOrder() []*Node {
	if n.zorder != nil || len(n.children) == 0 {
		return n.zorder
	}
	ordered := slices.Clone(n.children)
	slices.SortStableFunc(ordered, func(a, b *Node) int {
		return a.ZIndex.Get() - b.ZIndex.Get()
	})
	n.zorder = ordered
	return ordered
}

// Scene returns the scene the node is attached to, or nil.
func (n *Node) Scene() *Scene {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root.scene
}

// MeasuredSize returns the last measured size, margins included.
func (n *Node) MeasuredSize() layout.ScaledSize {
	return n.measured
}

// ArrangedRect returns the last arranged rectangle, margins included.
func (n *Node) ArrangedRect() graphics.Rect {
	return n.arranged
}

// DrawingRect returns the arranged rectangle minus margins.
func (n *Node) DrawingRect() graphics.Rect {
	return n.drawingRect
}

// IsDrawable reports whether the last arrange produced a paintable box.
func (n *Node) IsDrawable() bool {
	return n.drawable
}

// NeedsMeasure reports whether the next Measure recomputes.
func (n *Node) NeedsMeasure() bool {
	return n.needMeasure
}

// IsLayoutDirty reports whether the next Arrange recomputes.
func (n *Node) IsLayoutDirty() bool {
	return n.isLayoutDirty
}

// RenderNeedsUpdate reports whether the cached rendering is stale.
func (n *Node) RenderNeedsUpdate() bool {
	return n.renderNeedsUpdate
}

// MeasureCount returns how many times Measure recomputed.
func (n *Node) MeasureCount() int {
	return n.measureCount
}

// ArrangeCount returns how many times Arrange recomputed.
func (n *Node) ArrangeCount() int {
	return n.arrangeCount
}

// PaintCount returns how many times the node's content was painted.
func (n *Node) PaintCount() int64 {
	return n.paintCount.Load()
}

// CacheWrites returns how many cache entries were produced on the UI thread
// or submitted for background regeneration.
func (n *Node) CacheWrites() int {
	return n.cacheWrites
}

// Snapshot returns the children drawn during the last paint, in z-order.
func (n *Node) Snapshot() []RenderedChild {
	p := n.snapshot.Load()
	if p == nil {
		return nil
	}
	return p.children
}

// Transform returns the matrix applied during the last render.
func (n *Node) Transform() graphics.Matrix {
	return n.transform
}

// Slots returns the node's cache slots, or nil before the first cached
// render.
func (n *Node) Slots() *cache.Slots {
	return n.slots
}

// Regenerator returns the node's background regenerator, or nil if the node
// never used a buffered cache kind.
func (n *Node) Regenerator() *cache.Regenerator {
	return n.regen
}

// ActiveListeners returns the listeners currently mid-gesture on this node.
func (n *Node) ActiveListeners() []gestures.Listener {
	return n.active.Snapshot()
}

// Find returns the first node in the subtree (n included) with the given tag.
func (n *Node) Find(tag string) *Node {
	if n.Tag == tag {
		return n
	}
	for _, c := range n.children {
		if found := c.Find(tag); found != nil {
			return found
		}
	}
	return nil
}

// Dispose releases the subtree's cache resources and stops background
// regeneration. Entries go through the scene's disposer so nothing is freed
// while a reader may still hold it.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.disposed = true
	for _, c := range n.children {
		c.Dispose()
	}
	if n.regen != nil {
		n.regen.Close()
	}
	if n.slots != nil {
		n.slots.Close()
	}
	n.snapshot.Store(nil)
	n.active.Drain()
}

// IsDisposed reports whether Dispose has run.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

func (n *Node) sizeRequest() layout.SizeRequest {
	return layout.SizeRequest{
		Width:     n.Width.Get(),
		Height:    n.Height.Get(),
		MinWidth:  n.MinWidth.Get(),
		MaxWidth:  n.MaxWidth.Get(),
		MinHeight: n.MinHeight.Get(),
		MaxHeight: n.MaxHeight.Get(),
		LockRatio: n.LockRatio.Get(),
	}
}

// fillsWidth reports a horizontal Fill with no explicit width.
func (n *Node) fillsWidth() bool {
	return n.HorizontalAlign.Get() == layout.AlignFill && n.Width.Get() < 0
}

// fillsHeight reports a vertical Fill with no explicit height.
func (n *Node) fillsHeight() bool {
	return n.VerticalAlign.Get() == layout.AlignFill && n.Height.Get() < 0
}

func (n *Node) String() string {
	if n.Tag == "" {
		return "node"
	}
	return n.Tag
}
