package scene

import (
	"slices"
	"testing"

	"github.com/go-drift/drawn/pkg/graphics"
)

// tree builds root -> parent -> {a, b, c} and renders one frame so every
// dirty mark is cleared.
func tree(t *testing.T) (*Scene, *Node, []*Node) {
	t.Helper()
	root := filling("root")
	parent := NewNode("parent")
	root.AddChild(parent)
	var kids []*Node
	for _, tag := range []string{"a", "b", "c"} {
		k := sized(tag, 10, 10)
		parent.AddChild(k)
		kids = append(kids, k)
	}
	s := newTestScene(t, root, Options{})
	renderFrame(s)
	return s, parent, kids
}

func TestBatchCollapsesInvalidations(t *testing.T) {
	_, parent, kids := tree(t)
	a := kids[0]

	before := a.OutwardInvalidations()
	a.Batch(func() {
		a.Width.Set(20)
		a.Height.Set(30)
		a.Margin.Set(graphics.UniformThickness(2))
		a.Background.Set(graphics.ColorRed)
	})
	if got := a.OutwardInvalidations() - before; got != 1 {
		t.Errorf("outward invalidations in batch = %d, want 1", got)
	}
	if !a.NeedsMeasure() {
		t.Error("NeedsMeasure() = false after batch")
	}
	if !parent.NeedsMeasure() {
		t.Error("parent NeedsMeasure() = false after batch")
	}

	b := kids[1]
	before = b.OutwardInvalidations()
	b.Width.Set(20)
	b.Height.Set(30)
	b.Background.Set(graphics.ColorRed)
	if got := b.OutwardInvalidations() - before; got != 3 {
		t.Errorf("outward invalidations without batch = %d, want 3", got)
	}
}

func TestNestedLocksReplayOnce(t *testing.T) {
	_, _, kids := tree(t)
	a := kids[0]
	before := a.OutwardInvalidations()

	a.LockUpdate()
	a.LockUpdate()
	a.Background.Set(graphics.ColorRed)
	a.UnlockUpdate()
	if got := a.OutwardInvalidations() - before; got != 0 {
		t.Errorf("outward invalidations while still locked = %d, want 0", got)
	}
	a.UnlockUpdate()
	if got := a.OutwardInvalidations() - before; got != 1 {
		t.Errorf("outward invalidations after unlock = %d, want 1", got)
	}
}

func TestUnlockWithoutLockPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a contract panic")
		}
	}()
	NewNode("n").UnlockUpdate()
}

func TestInvalidateMeasureNotifiesParentOnce(t *testing.T) {
	s, parent, kids := tree(t)
	root := s.Root()

	before := parent.OutwardInvalidations()
	parent.InvalidateMeasure()

	if got := parent.OutwardInvalidations() - before; got != 1 {
		t.Errorf("parent outward invalidations = %d, want 1", got)
	}
	for _, k := range kids {
		if !k.NeedsMeasure() {
			t.Errorf("%s NeedsMeasure() = false", k.Tag)
		}
		if !k.RenderNeedsUpdate() {
			t.Errorf("%s RenderNeedsUpdate() = false", k.Tag)
		}
	}
	if !root.NeedsMeasure() {
		t.Error("root NeedsMeasure() = false")
	}
	if got := parent.DirtyChildren(); len(got) != len(kids) {
		t.Errorf("parent DirtyChildren() = %v, want %v", got, kids)
	}
	if !s.NeedsFrame() {
		t.Error("NeedsFrame() = false")
	}
}

func TestDirtyFastPath(t *testing.T) {
	s, parent, kids := tree(t)
	root := s.Root()

	parentBefore := parent.OutwardInvalidations()
	kids[0].Background.Set(graphics.ColorRed)
	kids[1].Background.Set(graphics.ColorRed)
	kids[2].Background.Set(graphics.ColorRed)

	// the first child walks up; the others only register with the parent
	if got := parent.OutwardInvalidations() - parentBefore; got != 1 {
		t.Errorf("parent outward invalidations = %d, want 1", got)
	}
	if got := root.DirtyChildren(); !slices.Equal(got, []*Node{parent}) {
		t.Errorf("root DirtyChildren() = %v, want [parent]", got)
	}
	if got := parent.DirtyChildren(); !slices.Equal(got, kids) {
		t.Errorf("DirtyChildren() = %v, want %v", got, kids)
	}

	// a stronger kind walks up again
	kids[0].Width.Set(12)
	if got := parent.OutwardInvalidations() - parentBefore; got != 2 {
		t.Errorf("parent outward invalidations after measure = %d, want 2", got)
	}

	renderFrame(s)
	if got := parent.DirtyChildren(); len(got) != 0 {
		t.Errorf("DirtyChildren() after frame = %v, want none", got)
	}
}

func TestRemoveChildDropsDirtyEntry(t *testing.T) {
	_, parent, kids := tree(t)
	kids[0].Background.Set(graphics.ColorRed)
	parent.RemoveChild(kids[0])
	if slices.Contains(parent.DirtyChildren(), kids[0]) {
		t.Error("removed child still listed as dirty")
	}
	if kids[0].Parent() != nil {
		t.Error("Parent() != nil after RemoveChild")
	}
}

func TestInvalidationDuringRenderIsDeferred(t *testing.T) {
	root := filling("root")
	child := sized("child", 20, 20)
	root.AddChild(child)

	var outwardDuringPaint, outwardBefore int
	var renderingSeen bool
	painted := 0
	child.SetBehavior(paintFunc(func(n *Node, ctx *DrawingContext) {
		painted++
		if painted > 1 {
			return
		}
		outwardBefore = n.OutwardInvalidations()
		n.Background.Set(graphics.ColorBlue)
		outwardDuringPaint = n.OutwardInvalidations()
		renderingSeen = n.rendering
	}))
	s := newTestScene(t, root, Options{})
	renderFrame(s)

	if !renderingSeen {
		t.Fatal("paint ran outside the render pass")
	}
	if outwardDuringPaint != outwardBefore {
		t.Errorf("outward invalidations during paint = %d, want %d", outwardDuringPaint, outwardBefore)
	}
	if got := child.OutwardInvalidations(); got != outwardBefore+1 {
		t.Errorf("outward invalidations after pass = %d, want %d", got, outwardBefore+1)
	}
	if !child.RenderNeedsUpdate() {
		t.Error("RenderNeedsUpdate() = false, want the deferred update applied")
	}
	if !s.NeedsFrame() {
		t.Error("NeedsFrame() = false after deferred replay")
	}

	renderFrame(s)
	if painted != 2 {
		t.Errorf("painted = %d, want 2", painted)
	}
}

func TestTransformChangeKeepsOwnCache(t *testing.T) {
	_, parent, kids := tree(t)
	a := kids[0]
	parentBefore := parent.RenderNeedsUpdate()
	if parentBefore {
		t.Fatal("parent RenderNeedsUpdate() = true after frame")
	}

	a.TranslationX.Set(5)

	if a.RenderNeedsUpdate() {
		t.Error("RenderNeedsUpdate() = true after a transform change")
	}
	if !parent.RenderNeedsUpdate() {
		t.Error("parent RenderNeedsUpdate() = false after a child transform change")
	}
}

func TestPropertyKindsRouteInvalidation(t *testing.T) {
	tests := []struct {
		name        string
		set         func(n *Node)
		wantMeasure bool
		wantLayout  bool
		wantUpdate  bool
	}{
		{"width", func(n *Node) { n.Width.Set(11) }, true, true, true},
		{"offset", func(n *Node) { n.OffsetX.Set(0.5) }, false, true, true},
		{"background", func(n *Node) { n.Background.Set(graphics.ColorGreen) }, false, false, true},
		{"rotation", func(n *Node) { n.Rotation.Set(45) }, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, kids := tree(t)
			n := kids[0]
			tt.set(n)
			if got := n.NeedsMeasure(); got != tt.wantMeasure {
				t.Errorf("NeedsMeasure() = %v, want %v", got, tt.wantMeasure)
			}
			if got := n.IsLayoutDirty(); got != tt.wantLayout {
				t.Errorf("IsLayoutDirty() = %v, want %v", got, tt.wantLayout)
			}
			if got := n.RenderNeedsUpdate(); got != tt.wantUpdate {
				t.Errorf("RenderNeedsUpdate() = %v, want %v", got, tt.wantUpdate)
			}
		})
	}
}

func TestRemeasureBetweenInvalidations(t *testing.T) {
	chain := func() (*Node, *Node) {
		r := NewNode("r")
		c := NewNode("c")
		g := sized("g", 10, 10)
		r.AddChild(c)
		c.AddChild(g)
		return r, g
	}

	t.Run("detached", func(t *testing.T) {
		r, g := chain()
		r.Measure(400, 400, 1)
		for _, w := range []float64{50, 80} {
			g.Width.Set(w)
			if got := r.Measure(400, 400, 1).Pixels.Width; got != w {
				t.Errorf("width after setting %v = %v, want %v", w, got, w)
			}
		}
	})

	t.Run("attached", func(t *testing.T) {
		r, g := chain()
		s := newTestScene(t, r, Options{})
		renderFrame(s)
		for _, w := range []float64{50, 80} {
			g.Width.Set(w)
			if !r.NeedsMeasure() {
				t.Fatalf("root NeedsMeasure() = false after setting %v", w)
			}
			if got := r.Measure(400, 400, 1).Pixels.Width; got != w {
				t.Errorf("width after setting %v = %v, want %v", w, got, w)
			}
		}
		renderFrame(s)
		if got := g.Parent().MeasuredSize().Pixels.Width; got != 80 {
			t.Errorf("parent width after frame = %v, want 80", got)
		}
	})
}

func TestUpdateAfterRedrawNotifiesParentAgain(t *testing.T) {
	_, parent, kids := tree(t)
	before := parent.OutwardInvalidations()

	kids[0].Background.Set(graphics.ColorRed)
	parent.renderNeedsUpdate = false // redrawn without ending the frame
	kids[1].Background.Set(graphics.ColorRed)

	if got := parent.OutwardInvalidations() - before; got != 2 {
		t.Errorf("parent outward invalidations = %d, want 2", got)
	}
	if !parent.RenderNeedsUpdate() {
		t.Error("parent RenderNeedsUpdate() = false after second child update")
	}
}
