package testing

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-drift/viewtree/pkg/dom"
	"github.com/go-drift/viewtree/pkg/view"
)

// Finder locates views in a view tree.
type Finder interface {
	// Evaluate returns all matching views under root (depth-first pre-order).
	Evaluate(root view.Instance) []view.Instance
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	views  []view.Instance
	finder Finder
}

// Find evaluates finder against the tree rooted at root.
func Find(root view.Instance, finder Finder) FinderResult {
	if root == nil {
		return FinderResult{finder: finder}
	}
	return FinderResult{views: finder.Evaluate(root), finder: finder}
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() view.Instance {
	if len(r.views) == 0 {
		panic(fmt.Sprintf("Finder found no views: %s", r.description()))
	}
	return r.views[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() view.Instance {
	if len(r.views) == 0 {
		return nil
	}
	return r.views[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) view.Instance {
	if index < 0 || index >= len(r.views) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.views), r.description()))
	}
	return r.views[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []view.Instance {
	return r.views
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.views)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.views) > 0
}

func (r FinderResult) description() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

type typeFinder struct {
	viewType reflect.Type
}

func (f *typeFinder) Evaluate(root view.Instance) []view.Instance {
	return collectMatches(root, func(v view.Instance) bool {
		return reflect.TypeOf(v) == f.viewType
	})
}

func (f *typeFinder) Description() string {
	return fmt.Sprintf("ByType(%s)", f.viewType)
}

// ByType returns a finder that matches views of type T.
func ByType[T view.Instance]() Finder {
	return &typeFinder{viewType: reflect.TypeFor[T]()}
}

type recordFinder struct {
	id string
}

func (f *recordFinder) Evaluate(root view.Instance) []view.Instance {
	return collectMatches(root, func(v view.Instance) bool {
		r := v.Record()
		return r != nil && r.ID() == f.id
	})
}

func (f *recordFinder) Description() string {
	return fmt.Sprintf("ByRecord(%q)", f.id)
}

// ByRecord returns a finder that matches views bound to the record with id.
func ByRecord(id string) Finder {
	return &recordFinder{id: id}
}

type textFinder struct {
	text     string
	contains bool
}

func (f *textFinder) Evaluate(root view.Instance) []view.Instance {
	return collectMatches(root, func(v view.Instance) bool {
		text := dom.Text(v.Element())
		if f.contains {
			return strings.Contains(text, f.text)
		}
		return strings.TrimSpace(text) == f.text
	})
}

func (f *textFinder) Description() string {
	if f.contains {
		return fmt.Sprintf("ByTextContaining(%q)", f.text)
	}
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText returns a finder that matches views whose element text, trimmed,
// equals text.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

// ByTextContaining returns a finder that matches views whose element text
// contains substring.
func ByTextContaining(substring string) Finder {
	return &textFinder{text: substring, contains: true}
}

type predicateFinder struct {
	fn func(view.Instance) bool
}

func (f *predicateFinder) Evaluate(root view.Instance) []view.Instance {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return "ByPredicate(...)"
}

// ByPredicate returns a finder that matches views satisfying fn.
func ByPredicate(fn func(view.Instance) bool) Finder {
	return &predicateFinder{fn: fn}
}

// collectMatches performs depth-first pre-order traversal, collecting
// views that satisfy the predicate.
func collectMatches(root view.Instance, predicate func(view.Instance) bool) []view.Instance {
	var results []view.Instance
	walkTree(root, func(v view.Instance) bool {
		if predicate(v) {
			results = append(results, v)
		}
		return true
	})
	return results
}

// walkTree performs a depth-first pre-order traversal of the view tree.
// The visitor returns false to stop traversal.
func walkTree(root view.Instance, visitor func(view.Instance) bool) bool {
	if !visitor(root) {
		return false
	}
	cont := true
	root.VisitChildren(func(child view.Instance) bool {
		cont = walkTree(child, visitor)
		return cont
	})
	return cont
}
