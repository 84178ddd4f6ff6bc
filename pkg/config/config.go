// Package config loads the optional drawn.yaml file that tunes rendering
// and logging for hosts and the drawn CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-drift/drawn/pkg/cache"
	"github.com/go-drift/drawn/pkg/scene"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file looked up in a project
// directory.
const FileName = "drawn.yaml"

// Default values applied by Resolve.
const (
	DefaultScale  = 1.0
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Config represents the optional drawn.yaml configuration.
type Config struct {
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

// RenderConfig contains scene and surface settings.
type RenderConfig struct {
	Name         string        `yaml:"name,omitempty"`
	Scale        float64       `yaml:"scale,omitempty"`
	DefaultCache cache.Kind    `yaml:"defaultCache,omitempty"`
	DisposeGrace time.Duration `yaml:"disposeGrace,omitempty"`
	Width        int           `yaml:"width,omitempty"`
	Height       int           `yaml:"height,omitempty"`
}

// LoggingConfig contains log output settings.
type LoggingConfig struct {
	Level   string `yaml:"level,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

// Resolved contains resolved configuration values.
type Resolved struct {
	Root         string
	ModulePath   string
	Name         string
	Scale        float64
	DefaultCache cache.Kind
	DisposeGrace time.Duration
	Width        int
	Height       int
	LogLevel     slog.Level
	Verbose      bool
}

// LoadOptional reads drawn.yaml if present.
func LoadOptional(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	return &cfg, nil
}

// Resolve loads drawn.yaml (if present) and resolves defaults. A go.mod in
// dir is optional; when present its module path names the project.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}

	modPath, err := modulePath(dir)
	if err != nil {
		return nil, err
	}

	r := &Resolved{
		Root:         dir,
		ModulePath:   modPath,
		Name:         strings.TrimSpace(cfg.Render.Name),
		Scale:        cfg.Render.Scale,
		DefaultCache: cfg.Render.DefaultCache,
		DisposeGrace: cfg.Render.DisposeGrace,
		Width:        cfg.Render.Width,
		Height:       cfg.Render.Height,
		Verbose:      cfg.Logging.Verbose,
	}
	if r.Name == "" {
		r.Name = defaultName(modPath, dir)
	}
	if r.Scale == 0 {
		r.Scale = DefaultScale
	}
	if r.DisposeGrace == 0 {
		r.DisposeGrace = cache.DefaultGrace
	}
	if r.Width == 0 {
		r.Width = DefaultWidth
	}
	if r.Height == 0 {
		r.Height = DefaultHeight
	}

	if level := strings.TrimSpace(cfg.Logging.Level); level != "" {
		if err := r.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("logging.level: %w", err)
		}
	} else {
		r.LogLevel = slog.LevelInfo
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resolved) validate() error {
	if r.Scale < 0 {
		return fmt.Errorf("render.scale must be positive (got %v)", r.Scale)
	}
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("render.width and render.height must be positive (got %dx%d)", r.Width, r.Height)
	}
	return nil
}

// SceneOptions returns the scene options described by the configuration.
func (r *Resolved) SceneOptions() scene.Options {
	return scene.Options{
		Scale: r.Scale,
		Grace: r.DisposeGrace,
	}
}

// Logger returns a text logger writing to w at the configured level.
func (r *Resolved) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: r.LogLevel}))
}

// FindProjectRoot walks up from the current directory to the nearest
// directory holding drawn.yaml or go.mod. It falls back to the current
// directory.
func FindProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for dir := wd; ; {
		for _, marker := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd, nil
		}
		dir = parent
	}
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	return modfile.ModulePath(data), nil
}

func defaultName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modulePath != "" {
		if prefix, _, ok := module.SplitPathVersion(modulePath); ok {
			parts := strings.Split(prefix, "/")
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "scene"
	}
	return base
}
