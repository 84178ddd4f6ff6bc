package testing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-drift/drawn/pkg/cache"
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/testing/internal/testbed"
)

func snapshotTester(t *testing.T, color graphics.Color) *SceneTester {
	t.Helper()
	root := fillingNode("root")
	root.Background.Set(color)
	card, _ := testbed.NewSwatch("card", 120, 60, graphics.ColorBlue)
	card.ClipEffects.Set(true)
	card.Cache.Set(cache.Operations)
	card.TranslationX.Set(10)
	root.AddChild(card)
	tester := NewSceneTesterWithT(t, root)
	if err := tester.Pump(); err != nil {
		t.Fatalf("Pump() error = %v", err)
	}
	return tester
}

func TestCaptureSnapshotTree(t *testing.T) {
	snap := snapshotTester(t, graphics.ColorWhite).CaptureSnapshot()

	root := snap.Tree
	if root.ID != "root#0" {
		t.Errorf("root ID = %q, want %q", root.ID, "root#0")
	}
	if root.Rect != [4]float64{0, 0, DefaultTestWidth, DefaultTestHeight} {
		t.Errorf("root Rect = %v", root.Rect)
	}
	if root.Props["background"] != serializeColor(graphics.ColorWhite) {
		t.Errorf("root background = %v", root.Props["background"])
	}
	if len(root.Children) != 1 {
		t.Fatalf("root children = %d, want 1", len(root.Children))
	}
	card := root.Children[0]
	if card.ID != "card#0" || card.Cache != "operations" {
		t.Errorf("card = %+v", card)
	}
	if card.Rect != [4]float64{0, 0, 120, 60} {
		t.Errorf("card Rect = %v, want untransformed drawing rect", card.Rect)
	}
	if card.Props["translation"] != [2]float64{10, 0} {
		t.Errorf("card translation = %v", card.Props["translation"])
	}
	if len(snap.DisplayOps) == 0 {
		t.Error("DisplayOps is empty")
	}
}

func TestSnapshotDiff(t *testing.T) {
	a := snapshotTester(t, graphics.ColorWhite).CaptureSnapshot()
	b := snapshotTester(t, graphics.ColorWhite).CaptureSnapshot()
	if diff := a.Diff(b); diff != "" {
		t.Errorf("Diff() of equal snapshots = %q", diff)
	}

	c := snapshotTester(t, graphics.ColorBlack).CaptureSnapshot()
	diff := c.Diff(a)
	if !strings.Contains(diff, "-") || !strings.Contains(diff, "+") {
		t.Errorf("Diff() = %q, want removed and added lines", diff)
	}
	if !strings.Contains(diff, serializeColor(graphics.ColorBlack)) {
		t.Errorf("Diff() does not mention the new color:\n%s", diff)
	}
}

func TestSnapshotUpdateAndMatch(t *testing.T) {
	t.Setenv(updateEnv, "")
	snap := snapshotTester(t, graphics.ColorWhite).CaptureSnapshot()
	path := filepath.Join(t.TempDir(), "testdata", "board.snapshot.json")

	if err := snap.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file not written: %v", err)
	}
	snap.MatchesFile(t, path)
}

func TestSnapshotMatchesFileFailures(t *testing.T) {
	t.Setenv(updateEnv, "")
	first := snapshotTester(t, graphics.ColorWhite).CaptureSnapshot()
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := first.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile() error = %v", err)
	}

	rec := &failRecorder{name: t.Name()}
	first.MatchesFile(rec, filepath.Join(t.TempDir(), "missing.json"))
	if !rec.fatal {
		t.Error("MatchesFile() on a missing file did not fail")
	}

	rec = &failRecorder{name: t.Name()}
	snapshotTester(t, graphics.ColorBlack).CaptureSnapshot().MatchesFile(rec, path)
	if !rec.errored {
		t.Error("MatchesFile() on a mismatch did not report")
	}
}

func TestSnapshotUpdateMode(t *testing.T) {
	snap := snapshotTester(t, graphics.ColorWhite).CaptureSnapshot()
	path := filepath.Join(t.TempDir(), "update.snapshot.json")

	t.Setenv(updateEnv, "1")
	snap.MatchesFile(t, path)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("snapshot file not created in update mode: %v", err)
	}
}

// failRecorder intercepts failures reported by MatchesFile.
type failRecorder struct {
	name    string
	fatal   bool
	errored bool
}

func (r *failRecorder) Helper()                        {}
func (r *failRecorder) Name() string                   { return r.name }
func (r *failRecorder) Fatalf(format string, _ ...any) { r.fatal = true }
func (r *failRecorder) Errorf(format string, _ ...any) { r.errored = true }
