package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/drawn/pkg/cache"
	"github.com/go-drift/drawn/pkg/scene"
)

// updateEnv enables rewriting golden files instead of comparing them.
const updateEnv = "DRAWN_UPDATE_SNAPSHOTS"

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the node tree as laid out by the last frame and the
// operations that frame drew.
type Snapshot struct {
	Tree       *TreeNode   `json:"tree"`
	DisplayOps []DisplayOp `json:"displayOps,omitempty"`
}

// TreeNode is a node in the serialized tree.
type TreeNode struct {
	ID       string         `json:"id"`
	Tag      string         `json:"tag,omitempty"`
	Rect     [4]float64     `json:"rect"`
	Cache    string         `json:"cache,omitempty"`
	Props    map[string]any `json:"props,omitempty"`
	Children []*TreeNode    `json:"children,omitempty"`
}

// CaptureSnapshot captures the tree and the operations of the last Pump.
func (t *SceneTester) CaptureSnapshot() *Snapshot {
	ids := &idCounter{}
	return &Snapshot{
		Tree:       captureNode(t.Root(), ids),
		DisplayOps: t.LastFrame(),
	}
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When DRAWN_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(updateEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: %s=1 go test -run %s", path, updateEnv, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: %s=1 go test -run %s", path, diff, updateEnv, t.Name())
	}
}

// UpdateFile writes this snapshot to path, creating directories as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a line diff between other (expected) and this snapshot.
// Returns an empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// idCounter assigns stable IDs like "card#0", "card#1" per tag.
type idCounter struct {
	counts map[string]int
}

func (c *idCounter) next(tag string) string {
	if tag == "" {
		tag = "node"
	}
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	n := c.counts[tag]
	c.counts[tag] = n + 1
	return fmt.Sprintf("%s#%d", tag, n)
}

func captureNode(n *scene.Node, ids *idCounter) *TreeNode {
	r := n.DrawingRect()
	node := &TreeNode{
		ID:   ids.next(n.Tag),
		Tag:  n.Tag,
		Rect: [4]float64{round2(r.Left), round2(r.Top), round2(r.Width()), round2(r.Height())},
	}
	if kind := n.Cache.Get(); kind != cache.None {
		node.Cache = kind.String()
	}
	if props := captureProps(n); len(props) > 0 {
		node.Props = props
	}
	for _, c := range n.Children() {
		node.Children = append(node.Children, captureNode(c, ids))
	}
	return node
}

// captureProps records explicitly set properties that affect drawing.
func captureProps(n *scene.Node) map[string]any {
	props := make(map[string]any)
	if n.Background.IsSet() {
		props["background"] = serializeColor(n.Background.Get())
	}
	if n.ClipEffects.IsSet() {
		props["clip"] = n.ClipEffects.Get()
	}
	if n.Visible.IsSet() {
		props["visible"] = n.Visible.Get()
	}
	if n.Ghost.IsSet() {
		props["ghost"] = n.Ghost.Get()
	}
	if n.Rotation.IsSet() {
		props["rotation"] = round2(n.Rotation.Get())
	}
	if n.TranslationX.IsSet() || n.TranslationY.IsSet() {
		props["translation"] = [2]float64{round2(n.TranslationX.Get()), round2(n.TranslationY.Get())}
	}
	if n.ScaleX.IsSet() || n.ScaleY.IsSet() {
		props["scale"] = [2]float64{round2(n.ScaleX.Get()), round2(n.ScaleY.Get())}
	}
	return props
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a line-by-line diff of two JSON documents.
func unifiedDiff(expected, actual string) string {
	want := strings.Split(expected, "\n")
	got := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")
	for i := range max(len(want), len(got)) {
		var e, a string
		if i < len(want) {
			e = want[i]
		}
		if i < len(got) {
			a = got[i]
		}
		if e == a {
			continue
		}
		if i < len(want) {
			fmt.Fprintf(&buf, "-%s\n", e)
		}
		if i < len(got) {
			fmt.Fprintf(&buf, "+%s\n", a)
		}
	}
	return buf.String()
}
