// Package style applies named groups of property values to scene nodes.
//
// A Style may be based on another style; its setters override the base
// setters of the same name. Flattened setter lists are kept in a
// process-wide cache keyed by style identity. The cache is never cleared on
// its own: call Invalidate after mutating a Style that was already resolved.
package style

import (
	"sync"

	"github.com/go-drift/drawn/pkg/cache"
	"github.com/go-drift/drawn/pkg/errors"
	"github.com/go-drift/drawn/pkg/graphics"
	"github.com/go-drift/drawn/pkg/layout"
	"github.com/go-drift/drawn/pkg/property"
	"github.com/go-drift/drawn/pkg/scene"
)

// Setter writes one property of a node.
type Setter struct {
	// Name identifies the property. A derived style overrides the base
	// setter with the same name.
	Name  string
	Apply func(n *scene.Node)
}

// Set returns a setter writing v into the property selected by pick.
func Set[T comparable](name string, pick func(n *scene.Node) *property.Property[T], v T) Setter {
	return Setter{Name: name, Apply: func(n *scene.Node) { pick(n).Set(v) }}
}

// Style is a named list of setters.
type Style struct {
	Name    string
	BasedOn *Style
	Setters []Setter
}

// Cache holds flattened setter lists.
type Cache struct {
	mu       sync.RWMutex
	resolved map[*Style][]Setter
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{resolved: make(map[*Style][]Setter)}
}

var shared = NewCache()

// Resolve returns the flattened setters of s from the process-wide cache.
func Resolve(s *Style) []Setter {
	return shared.Resolve(s)
}

// Invalidate clears the process-wide cache.
func Invalidate() {
	shared.Invalidate()
}

// Apply writes every setter of s into n as one batch, so n and its
// ancestors see a single invalidation.
func Apply(n *scene.Node, s *Style) {
	shared.Apply(n, s)
}

// Resolve returns the flattened setters of s: the BasedOn chain from the
// root style down, later setters replacing earlier ones with the same name
// in place. The result must not be modified.
func (c *Cache) Resolve(s *Style) []Setter {
	if s == nil {
		return nil
	}
	c.mu.RLock()
	setters, ok := c.resolved[s]
	c.mu.RUnlock()
	if ok {
		return setters
	}

	setters = flatten(s)
	c.mu.Lock()
	c.resolved[s] = setters
	c.mu.Unlock()
	return setters
}

// Len returns the number of cached styles.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.resolved)
}

// Invalidate drops every cached entry.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	n := len(c.resolved)
	clear(c.resolved)
	c.mu.Unlock()
	errors.Logger().Debug("style cache cleared", "entries", n)
}

// Apply writes every setter of s into n inside n.Batch.
func (c *Cache) Apply(n *scene.Node, s *Style) {
	setters := c.Resolve(s)
	if len(setters) == 0 {
		return
	}
	n.Batch(func() {
		for _, st := range setters {
			st.Apply(n)
		}
	})
}

func flatten(s *Style) []Setter {
	var chain []*Style
	seen := make(map[*Style]bool)
	for cur := s; cur != nil; cur = cur.BasedOn {
		if seen[cur] {
			errors.Contract("style.Resolve", "style %q is based on itself", cur.Name)
		}
		seen[cur] = true
		chain = append(chain, cur)
	}

	var out []Setter
	index := make(map[string]int)
	for i := len(chain) - 1; i >= 0; i-- {
		for _, st := range chain[i].Setters {
			if st.Apply == nil {
				continue
			}
			if j, ok := index[st.Name]; ok && st.Name != "" {
				out[j] = st
				continue
			}
			index[st.Name] = len(out)
			out = append(out, st)
		}
	}
	return out
}

// Common setters.

func Width(v float64) Setter {
	return Set("width", func(n *scene.Node) *property.Property[float64] { return &n.Width }, v)
}

func Height(v float64) Setter {
	return Set("height", func(n *scene.Node) *property.Property[float64] { return &n.Height }, v)
}

func Margin(t graphics.Thickness) Setter {
	return Set("margin", func(n *scene.Node) *property.Property[graphics.Thickness] { return &n.Margin }, t)
}

func Padding(t graphics.Thickness) Setter {
	return Set("padding", func(n *scene.Node) *property.Property[graphics.Thickness] { return &n.Padding }, t)
}

func Background(c graphics.Color) Setter {
	return Set("background", func(n *scene.Node) *property.Property[graphics.Color] { return &n.Background }, c)
}

func HorizontalAlign(a layout.Alignment) Setter {
	return Set("horizontalAlign", func(n *scene.Node) *property.Property[layout.Alignment] { return &n.HorizontalAlign }, a)
}

func VerticalAlign(a layout.Alignment) Setter {
	return Set("verticalAlign", func(n *scene.Node) *property.Property[layout.Alignment] { return &n.VerticalAlign }, a)
}

// CacheKind sets the cache kind. Raster kinds also need Clip(true).
func CacheKind(k cache.Kind) Setter {
	return Set("cache", func(n *scene.Node) *property.Property[cache.Kind] { return &n.Cache }, k)
}

func Clip(on bool) Setter {
	return Set("clipEffects", func(n *scene.Node) *property.Property[bool] { return &n.ClipEffects }, on)
}
