package testing

import (
	"fmt"
	"reflect"

	"github.com/go-drift/drawn/pkg/cache"
	"github.com/go-drift/drawn/pkg/scene"
)

// Finder locates nodes in the scene tree.
type Finder interface {
	// Evaluate returns all matching nodes under root (depth-first pre-order).
	Evaluate(root *scene.Node) []*scene.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*scene.Node
	finder Finder
}

func (r FinderResult) describe() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *scene.Node {
	if len(r.nodes) == 0 {
		panic(fmt.Sprintf("Finder found no nodes: %s", r.describe()))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *scene.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *scene.Node {
	if index < 0 || index >= len(r.nodes) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), r.describe()))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*scene.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

type predicateFinder struct {
	fn   func(*scene.Node) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *scene.Node) []*scene.Node {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByTag matches nodes with the given tag.
func ByTag(tag string) Finder {
	return &predicateFinder{
		fn:   func(n *scene.Node) bool { return n.Tag == tag },
		desc: fmt.Sprintf("ByTag(%q)", tag),
	}
}

// ByBehavior matches nodes whose installed behavior has type T.
func ByBehavior[T any]() Finder {
	want := reflect.TypeFor[T]()
	return &predicateFinder{
		fn:   func(n *scene.Node) bool { return reflect.TypeOf(n.Behavior()) == want },
		desc: fmt.Sprintf("ByBehavior(%s)", want),
	}
}

// ByCache matches nodes using the given cache kind.
func ByCache(kind cache.Kind) Finder {
	return &predicateFinder{
		fn:   func(n *scene.Node) bool { return n.Cache.Get() == kind },
		desc: fmt.Sprintf("ByCache(%s)", kind),
	}
}

// ByPredicate matches nodes satisfying fn.
func ByPredicate(fn func(*scene.Node) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds nodes matching 'matching' below nodes matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *scene.Node) []*scene.Node {
	var results []*scene.Node
	seen := make(map[*scene.Node]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		for _, child := range ancestor.Children() {
			for _, match := range f.matching.Evaluate(child) {
				if !seen[match] {
					seen[match] = true
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant matches nodes satisfying 'matching' that are strictly below a
// node matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

func collectMatches(root *scene.Node, predicate func(*scene.Node) bool) []*scene.Node {
	var results []*scene.Node
	walkTree(root, func(n *scene.Node) bool {
		if predicate(n) {
			results = append(results, n)
		}
		return true
	})
	return results
}

// walkTree visits root and its subtree depth-first in pre-order. The visitor
// returns false to stop.
func walkTree(root *scene.Node, visitor func(*scene.Node) bool) bool {
	if root == nil {
		return true
	}
	if !visitor(root) {
		return false
	}
	for _, c := range root.Children() {
		if !walkTree(c, visitor) {
			return false
		}
	}
	return true
}
