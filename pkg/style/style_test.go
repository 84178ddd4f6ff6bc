package style

import (
	"testing"

	"github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/layout"
	"github.com/go-drift/drawn/pkg/scene"
)

func names(setters []Setter) []string {
	out := make([]string, len(setters))
	for i, s := range setters {
		out[i] = s.Name
	}
	return out
}

func TestResolveFlattensBasedOn(t *testing.T) {
	c := NewCache()
	base := &Style{Name: "base", Setters: []Setter{Width(10), Background(graphics.ColorRed), Height(5)}}
	mid := &Style{Name: "mid", BasedOn: base, Setters: []Setter{Background(graphics.ColorBlue), Margin(graphics.UniformThickness(1))}}
	leaf := &Style{Name: "leaf", BasedOn: mid, Setters: []Setter{Width(20)}}

	got := c.Resolve(leaf)
	want := []string{"width", "background", "height", "margin"}
	if g := names(got); len(g) != len(want) {
		t.Fatalf("setters = %v, want %v", g, want)
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("setter %d = %q, want %q", i, got[i].Name, name)
		}
	}

	n := scene.NewNode("n")
	for _, s := range got {
		s.Apply(n)
	}
	if n.Width.Get() != 20 {
		t.Errorf("Width = %v, want 20", n.Width.Get())
	}
	if n.Background.Get() != graphics.ColorBlue {
		t.Errorf("Background = %v, want blue", n.Background.Get())
	}
}

func TestResolveIsCachedUntilInvalidate(t *testing.T) {
	c := NewCache()
	s := &Style{Name: "s", Setters: []Setter{Width(1)}}

	first := c.Resolve(s)
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}

	s.Setters = append(s.Setters, Height(2))
	if got := c.Resolve(s); len(got) != len(first) {
		t.Errorf("cached setters = %d, want %d (stale until Invalidate)", len(got), len(first))
	}

	c.Invalidate()
	if c.Len() != 0 {
		t.Errorf("Len() after Invalidate = %d, want 0", c.Len())
	}
	if got := c.Resolve(s); len(got) != 2 {
		t.Errorf("setters after Invalidate = %d, want 2", len(got))
	}
}

func TestResolveCycleIsContractViolation(t *testing.T) {
	a := &Style{Name: "a"}
	b := &Style{Name: "b", BasedOn: a}
	a.BasedOn = b
	defer func() {
		if r := recover(); !errors.IsContract(r) {
			t.Errorf("recovered %v, want a contract violation", r)
		}
	}()
	NewCache().Resolve(a)
}

func TestApplyCollapsesInvalidations(t *testing.T) {
	root := scene.NewNode("root")
	root.HorizontalAlign.Set(layout.AlignFill)
	root.VerticalAlign.Set(layout.AlignFill)
	child := scene.NewNode("child")
	root.AddChild(child)
	s := scene.New(root, scene.Options{Grace: -1})
	t.Cleanup(s.Dispose)

	var rec graphics.PictureRecorder
	size := graphics.Size{Width: 100, Height: 100}
	s.Render(rec.BeginRecording(size), size)

	st := &Style{Name: "card", Setters: []Setter{
		Width(40), Height(30), Padding(graphics.UniformThickness(2)), Background(graphics.ColorGreen),
	}}
	before := child.OutwardInvalidations()
	Apply(child, st)
	t.Cleanup(Invalidate)

	if got := child.OutwardInvalidations() - before; got != 1 {
		t.Errorf("outward invalidations = %d, want 1", got)
	}
	if child.Width.Get() != 40 || child.Height.Get() != 30 {
		t.Errorf("size = %vx%v, want 40x30", child.Width.Get(), child.Height.Get())
	}
	if !child.NeedsMeasure() {
		t.Error("NeedsMeasure() = false after Apply")
	}
}

func TestApplyNilStyle(t *testing.T) {
	n := scene.NewNode("n")
	NewCache().Apply(n, nil)
	if n.Width.IsSet() {
		t.Error("Width set by a nil style")
	}
}
