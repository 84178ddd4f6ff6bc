package testing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-drift/drawn/pkg/cache"
	drawnerrors "github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/scene"
)

const (
	// DefaultTestWidth is the default pixel width of the test surface.
	DefaultTestWidth = 800
	// DefaultTestHeight is the default pixel height of the test surface.
	DefaultTestHeight = 600
	// DefaultScale is the default device pixel ratio.
	DefaultScale = 1.0
)

// frameDuration is how far PumpAndSettle advances the clock per frame.
const frameDuration = 16 * time.Millisecond

// ErrSettleTimeout is returned when PumpAndSettle exceeds its timeout.
var ErrSettleTimeout = errors.New("PumpAndSettle timed out: scene did not settle")

// SceneTester renders a scene offscreen. Frames are recorded into a
// serializing canvas, cache disposal runs on a fake clock and the hardware
// context is a test device that can be replaced to simulate context loss.
type SceneTester struct {
	scene    *scene.Scene
	clock    *FakeClock
	size     graphics.Size
	last     *serializingCanvas
	frames   int
	pointers map[int64]graphics.Offset
}

// NewSceneTester attaches root to a new scene with the test defaults.
// Call Cleanup when done, or use NewSceneTesterWithT instead.
func NewSceneTester(root *scene.Node) *SceneTester {
	clk := NewFakeClock()
	return &SceneTester{
		scene: scene.New(root, scene.Options{
			Scale:  DefaultScale,
			Grace:  cache.DefaultGrace,
			Now:    clk.Now,
			Device: graphics.NewDevice("test"),
		}),
		clock:    clk,
		size:     graphics.Size{Width: DefaultTestWidth, Height: DefaultTestHeight},
		pointers: make(map[int64]graphics.Offset),
	}
}

// NewSceneTesterWithT creates a tester that is disposed via t.Cleanup().
// This is the recommended constructor for tests.
func NewSceneTesterWithT(t testing.TB, root *scene.Node) *SceneTester {
	tester := NewSceneTester(root)
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup disposes the scene, waiting for background regeneration to stop.
func (t *SceneTester) Cleanup() {
	t.scene.Dispose()
}

// Scene returns the scene under test.
func (t *SceneTester) Scene() *scene.Scene {
	return t.scene
}

// Root returns the root node.
func (t *SceneTester) Root() *scene.Node {
	return t.scene.Root()
}

// Clock returns the fake clock driving cache disposal.
func (t *SceneTester) Clock() *FakeClock {
	return t.clock
}

// SetSize sets the pixel size used by later frames.
func (t *SceneTester) SetSize(size graphics.Size) {
	t.size = size
}

// SetScale changes the device pixel ratio.
func (t *SceneTester) SetScale(scale float64) {
	t.scene.SetScale(scale)
}

// LoseDevice replaces the hardware context with a fresh one, as a host does
// after its context was lost.
func (t *SceneTester) LoseDevice() *graphics.Device {
	dev := graphics.NewDevice("test-restored")
	t.scene.SetDevice(dev)
	return dev
}

// Frames returns how many frames were pumped.
func (t *SceneTester) Frames() int {
	return t.frames
}

// Pump renders a single frame. A broken usage contract detected while
// rendering is returned as a *errors.ContractError.
func (t *SceneTester) Pump() error {
	c := &serializingCanvas{size: t.size}
	if err := t.render(c); err != nil {
		return err
	}
	t.last = c
	return nil
}

// PumpRaster renders a single frame into pixels.
func (t *SceneTester) PumpRaster() (*graphics.RasterCanvas, error) {
	c := graphics.NewRasterCanvasSize(int(t.size.Width), int(t.size.Height))
	if err := t.render(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (t *SceneTester) render(c graphics.Canvas) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*drawnerrors.ContractError)
			if !ok {
				panic(r)
			}
			err = ce
		}
	}()
	t.frames++
	t.scene.Render(c, t.size)
	return nil
}

// PumpAndSettle runs frames until no frame is requested and no background
// regeneration is pending, or the timeout is reached. Each frame advances
// the fake clock by 16ms; the timeout is measured on real time so a stuck
// regeneration cannot hang the test.
func (t *SceneTester) PumpAndSettle(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for {
		if err := t.Pump(); err != nil {
			return err
		}
		if err := t.WaitForCaches(ctx); err != nil {
			return ErrSettleTimeout
		}
		if !t.scene.NeedsFrame() {
			return nil
		}
		if ctx.Err() != nil {
			return ErrSettleTimeout
		}
		t.clock.Advance(frameDuration)
	}
}

// WaitForCaches blocks until every background regeneration in the tree has
// finished.
func (t *SceneTester) WaitForCaches(ctx context.Context) error {
	var err error
	walkTree(t.Root(), func(n *scene.Node) bool {
		if r := n.Regenerator(); r != nil {
			if err = r.Wait(ctx); err != nil {
				return false
			}
		}
		return true
	})
	return err
}

// LastFrame returns the operations drawn by the last Pump.
func (t *SceneTester) LastFrame() []DisplayOp {
	if t.last == nil {
		return nil
	}
	return t.last.ops
}

// CountOps returns how many operations named op the last Pump drew.
func (t *SceneTester) CountOps(op string) int {
	if t.last == nil {
		return 0
	}
	return t.last.count(op)
}

// Find evaluates a finder against the node tree.
func (t *SceneTester) Find(finder Finder) FinderResult {
	return FinderResult{
		nodes:  finder.Evaluate(t.Root()),
		finder: finder,
	}
}
