// Package property provides the reactive property primitive used by scene
// nodes: a typed value with a default, a change hook, and an invalidation
// kind that tells the owning node what to recompute when the value changes.
package property

import "strings"

// Kind identifies what a property change invalidates on its owner.
// Kinds are bit flags so pending invalidations can be accumulated.
type Kind uint8

const (
	// Repaint requests a new frame without invalidating any cache.
	Repaint Kind = 1 << iota
	// Update invalidates the rendered cache; layout is unchanged.
	Update
	// Viewport invalidates the arranged rectangle (viewport clip limits).
	Viewport
	// Measure invalidates measurement for the owner and its subtree.
	Measure
)

// Has reports whether k contains every flag in other.
func (k Kind) Has(other Kind) bool {
	return k&other == other && other != 0
}

// Strongest returns the single most invasive flag in k, or 0.
// Measure > Viewport > Update > Repaint.
func (k Kind) Strongest() Kind {
	for _, c := range []Kind{Measure, Viewport, Update, Repaint} {
		if k&c != 0 {
			return c
		}
	}
	return 0
}

func (k Kind) String() string {
	if k == 0 {
		return "none"
	}
	var parts []string
	if k&Repaint != 0 {
		parts = append(parts, "repaint")
	}
	if k&Update != 0 {
		parts = append(parts, "update")
	}
	if k&Viewport != 0 {
		parts = append(parts, "viewport")
	}
	if k&Measure != 0 {
		parts = append(parts, "measure")
	}
	return strings.Join(parts, "|")
}

// Invalidator receives the invalidation raised by a property change.
type Invalidator interface {
	Invalidate(kind Kind)
}

// Property is a reactive value owned by a node.
//
// The zero value is usable: it holds T's zero value as default and has no
// owner. Bind attaches the owner and default; Set routes changes to the
// owner's Invalidate with the bound kind after running change hooks.
type Property[T comparable] struct {
	value  T
	def    T
	kind   Kind
	isSet  bool
	owner  Invalidator
	hooks  []hook[T]
	nextID int
}

type hook[T comparable] struct {
	id int
	fn func(old, new T)
}

// Bind sets the owner, default value, and invalidation kind. The current
// value is reset to the default without raising an invalidation.
func (p *Property[T]) Bind(owner Invalidator, def T, kind Kind) {
	p.owner = owner
	p.def = def
	p.value = def
	p.kind = kind
	p.isSet = false
}

// Get returns the current value.
func (p *Property[T]) Get() T {
	return p.value
}

// Default returns the bound default value.
func (p *Property[T]) Default() T {
	return p.def
}

// Kind returns the invalidation kind raised on change.
func (p *Property[T]) Kind() Kind {
	return p.kind
}

// IsSet reports whether Set has been called since Bind or Reset.
func (p *Property[T]) IsSet() bool {
	return p.isSet
}

// Set stores v. Setting an equal value is a no-op.
func (p *Property[T]) Set(v T) {
	p.isSet = true
	if p.value == v {
		return
	}
	old := p.value
	p.value = v
	for _, h := range p.hooks {
		h.fn(old, v)
	}
	if p.owner != nil && p.kind != 0 {
		p.owner.Invalidate(p.kind)
	}
}

// Reset restores the default value, raising an invalidation if it differs.
func (p *Property[T]) Reset() {
	p.Set(p.def)
	p.isSet = false
}

// OnChange registers fn to run after every effective change. The returned
// function removes the hook.
func (p *Property[T]) OnChange(fn func(old, new T)) (remove func()) {
	p.nextID++
	id := p.nextID
	p.hooks = append(p.hooks, hook[T]{id: id, fn: fn})
	return func() {
		for i, h := range p.hooks {
			if h.id == id {
				p.hooks = append(p.hooks[:i], p.hooks[i+1:]...)
				return
			}
		}
	}
}
