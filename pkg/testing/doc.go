// Package testing drives a scene offscreen for tests.
//
// # Quick Start
//
// Build a node tree, pump frames, simulate gestures and assert:
//
//	func TestCard(t *testing.T) {
//	    root := scene.NewNode("root")
//	    button := scene.NewNode("button")
//	    root.AddChild(button)
//
//	    tester := drawntest.NewSceneTesterWithT(t, root)
//	    tester.Pump()
//
//	    tester.Tap(drawntest.ByTag("button"))
//	    tester.Pump()
//	}
//
// # Snapshot Testing
//
// Capture and compare the node tree and the operations of the last frame:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/card.snapshot.json")
//
// Update snapshots with:
//
//	DRAWN_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Cache Disposal
//
// Released cache surfaces wait for a grace period measured on the tester's
// fake clock:
//
//	tester.Clock().Advance(cache.DefaultGrace)
//	tester.Pump()
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import drawntest "github.com/go-drift/drawn/pkg/testing"
package testing
