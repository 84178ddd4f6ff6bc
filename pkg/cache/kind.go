// Package cache implements the mechanics behind per-node render caching:
// cache kinds, cached entries, the front/previous/preparing slot monitor,
// the latest-wins background regenerator and grace-delayed disposal.
//
// The scene package drives these pieces; nothing here knows about nodes.
package cache

import (
	"fmt"
	"strings"
)

// Kind selects how a node's rendered output is persisted between frames.
type Kind int

const (
	// None paints the node every frame.
	None Kind = iota
	// Operations records drawing commands once and replays them.
	Operations
	// Image rasterizes into a CPU surface.
	Image
	// GPU rasterizes into a surface tied to the live hardware context.
	GPU
	// DoubleBuffered rasterizes in the background while the previous
	// raster keeps being shown.
	DoubleBuffered
	// Composite redraws only dirty sub-regions over the previous raster,
	// in the background.
	Composite
)

var kindNames = [...]string{
	None:           "none",
	Operations:     "operations",
	Image:          "image",
	GPU:            "gpu",
	DoubleBuffered: "doublebuffered",
	Composite:      "composite",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return None, fmt.Errorf("cache: unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("cache: invalid kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsBuffered reports whether the kind regenerates in the background and
// retains a previous entry.
func (k Kind) IsBuffered() bool {
	return k == DoubleBuffered || k == Composite
}

// IsRaster reports whether the kind stores pixels rather than commands.
func (k Kind) IsRaster() bool {
	return k == Image || k == GPU || k.IsBuffered()
}

// RequiresClip reports whether the node must clip to its bounds to use
// the kind. Raster kinds cannot represent content outside their surface.
func (k Kind) RequiresClip() bool {
	return k.IsRaster()
}

// Accelerated reports whether surfaces are tied to a hardware context.
func (k Kind) Accelerated() bool {
	return k == GPU
}
