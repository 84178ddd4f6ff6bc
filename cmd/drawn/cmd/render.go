package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-drift/drawn/pkg/cache"
	"github.com/go-drift/drawn/pkg/config"
	"github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/scene"
)

// maxFrames bounds how many frames render pumps while background caches
// catch up.
const maxFrames = 8

func init() {
	RegisterCommand(&Command{
		Name:  "render",
		Short: "Render the demo scene to a PNG file",
		Long: `Render the demo scene offscreen and write it as a PNG.

The scene holds one card per cache kind. Frames are rendered until every
background cache regeneration has finished, so buffered kinds show their
rasterized content.

Flags:
  --cache KIND   Cache kind of the scene root (default from drawn.yaml)
  --size WxH     Surface size in pixels (default from drawn.yaml)`,
		Usage: "drawn render [--cache KIND] [--size WxH] [output.png]",
		Run:   runRender,
	})
}

type renderOptions struct {
	output string
	cache  *cache.Kind
	width  int
	height int
}

func parseRenderArgs(args []string) (renderOptions, error) {
	var opts renderOptions
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, inline := strings.Cut(arg, "=")
		switch name {
		case "--cache", "--size":
			if !inline {
				if i+1 >= len(args) {
					return opts, fmt.Errorf("%s requires a value", name)
				}
				i++
				value = args[i]
			}
			if name == "--cache" {
				kind, err := cache.ParseKind(value)
				if err != nil {
					return opts, err
				}
				opts.cache = &kind
				continue
			}
			if _, err := fmt.Sscanf(value, "%dx%d", &opts.width, &opts.height); err != nil || opts.width <= 0 || opts.height <= 0 {
				return opts, fmt.Errorf("invalid --size %q (want WxH)", value)
			}
		default:
			if strings.HasPrefix(arg, "-") {
				return opts, fmt.Errorf("unknown flag %q", arg)
			}
			if opts.output != "" {
				return opts, fmt.Errorf("unexpected argument %q", arg)
			}
			opts.output = arg
		}
	}
	if opts.output == "" {
		opts.output = "scene.png"
	}
	return opts, nil
}

func runRender(args []string) error {
	opts, err := parseRenderArgs(args)
	if err != nil {
		return err
	}

	root, err := config.FindProjectRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Resolve(root)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	errors.SetLogger(cfg.Logger(os.Stderr))
	errors.SetHandler(&errors.LogHandler{Verbose: cfg.Verbose})
	defer errors.SetHandler(nil)

	kind := cfg.DefaultCache
	if opts.cache != nil {
		kind = *opts.cache
	}
	width, height := cfg.Width, cfg.Height
	if opts.width > 0 {
		width, height = opts.width, opts.height
	}

	sceneOpts := cfg.SceneOptions()
	sceneOpts.Device = graphics.NewDevice(cfg.Name)
	s := scene.New(buildDemo(kind), sceneOpts)
	defer s.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	canvas, frames, err := renderSettled(ctx, s, width, height)
	if err != nil {
		return err
	}
	if err := canvas.SavePNG(opts.output); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}
	fmt.Fprintf(stdout, "Rendered %s (%dx%d, %d frames) to %s\n", cfg.Name, width, height, frames, opts.output)
	return nil
}

// renderSettled renders frames until the scene stops asking for one, waiting
// for background regeneration between frames. It returns the last frame.
func renderSettled(ctx context.Context, s *scene.Scene, width, height int) (*graphics.RasterCanvas, int, error) {
	size := graphics.Size{Width: float64(width), Height: float64(height)}
	var canvas *graphics.RasterCanvas
	for frame := 1; frame <= maxFrames; frame++ {
		canvas = graphics.NewRasterCanvasSize(width, height)
		s.Render(canvas, size)
		if err := waitForCaches(ctx, s.Root()); err != nil {
			return nil, frame, err
		}
		if !s.NeedsFrame() {
			return canvas, frame, nil
		}
	}
	errors.Logger().Warn("scene did not settle", "frames", maxFrames)
	return canvas, maxFrames, nil
}

func waitForCaches(ctx context.Context, n *scene.Node) error {
	if r := n.Regenerator(); r != nil {
		if err := r.Wait(ctx); err != nil {
			return err
		}
	}
	for _, c := range n.Children() {
		if err := waitForCaches(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
