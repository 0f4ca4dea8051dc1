// Package container holds the ordered child views of a host, indexed by
// view id and by the id of the record each view is bound to.
package container

import (
	"fmt"
	"slices"

	"github.com/go-drift/viewtree/pkg/view"
)

// Container is an ordered list of views with constant time lookup by view id
// and by record id. The list order is the only source of truth for
// positions; the indexes are keyed by identity and survive sorting. When
// several views share a record, FindByRecord returns one of them.
//
// Container is not safe for concurrent use.
type Container struct {
	views    []view.Instance
	byID     map[string]view.Instance
	byRecord map[string]view.Instance
}

// New returns an empty container.
func New() *Container {
	return &Container{
		byID:     make(map[string]view.Instance),
		byRecord: make(map[string]view.Instance),
	}
}

// Len returns the number of views.
func (c *Container) Len() int {
	return len(c.views)
}

// Add inserts v at index, or appends it when index is negative or past the
// end. Adding a view that is already present panics.
func (c *Container) Add(v view.Instance, index int) {
	if _, ok := c.byID[v.ID()]; ok {
		panic(fmt.Sprintf("container: view %s added twice", v.ID()))
	}
	if index < 0 || index >= len(c.views) {
		c.views = append(c.views, v)
	} else {
		c.views = slices.Insert(c.views, index, v)
	}
	c.index(v)
}

func (c *Container) index(v view.Instance) {
	c.byID[v.ID()] = v
	if r := v.Record(); r != nil {
		c.byRecord[r.ID()] = v
	}
}

// Remove deletes v. Absent views are ignored.
func (c *Container) Remove(v view.Instance) {
	if v == nil {
		return
	}
	if _, ok := c.byID[v.ID()]; !ok {
		return
	}
	if i := slices.Index(c.views, v); i >= 0 {
		c.views = slices.Delete(c.views, i, i+1)
	}
	delete(c.byID, v.ID())
	if r := v.Record(); r != nil && c.byRecord[r.ID()] == v {
		delete(c.byRecord, r.ID())
		// Another view bound to the same record takes over the entry.
		for _, other := range c.views {
			if or := other.Record(); or != nil && or.ID() == r.ID() {
				c.byRecord[r.ID()] = other
				break
			}
		}
	}
}

// Has reports whether v is in the container.
func (c *Container) Has(v view.Instance) bool {
	if v == nil {
		return false
	}
	_, ok := c.byID[v.ID()]
	return ok
}

// FindByID returns the view with id, or nil.
func (c *Container) FindByID(id string) view.Instance {
	return c.byID[id]
}

// FindByRecord returns the view bound to the record with recordID, or nil.
func (c *Container) FindByRecord(recordID string) view.Instance {
	return c.byRecord[recordID]
}

// FindByIndex returns the view at i, or nil when out of range.
func (c *Container) FindByIndex(i int) view.Instance {
	if i < 0 || i >= len(c.views) {
		return nil
	}
	return c.views[i]
}

// IndexOf returns the position of v, or -1.
func (c *Container) IndexOf(v view.Instance) int {
	if !c.Has(v) {
		return -1
	}
	return slices.Index(c.views, v)
}

// Views returns the backing slice. Callers must not modify it; ReplaceAll
// and the sorts update it in place.
func (c *Container) Views() []view.Instance {
	return c.views
}

// Each calls fn for every view in order until fn returns false. The views
// are copied first so fn may mutate the container.
func (c *Container) Each(fn func(i int, v view.Instance) bool) {
	for i, v := range slices.Clone(c.views) {
		if !fn(i, v) {
			return
		}
	}
}

// SortFunc stable sorts the views in place with cmp.
func (c *Container) SortFunc(cmp func(a, b view.Instance) int) {
	slices.SortStableFunc(c.views, cmp)
}

// SortBy stable sorts the views in place by the key of each view, ordered
// with compare. key runs once per view.
func (c *Container) SortBy(key func(view.Instance) any, compare func(a, b any) int) {
	keys := make(map[view.Instance]any, len(c.views))
	for _, v := range c.views {
		keys[v] = key(v)
	}
	slices.SortStableFunc(c.views, func(a, b view.Instance) int {
		return compare(keys[a], keys[b])
	})
}

// ReplaceAll swaps the contents of the container for views, reusing the
// backing array. When reindex is true the id and record indexes are rebuilt
// from views; otherwise they are kept, which is only correct when views is
// a subset of the current indexed set.
func (c *Container) ReplaceAll(views []view.Instance, reindex bool) {
	next := slices.Clone(views)
	clear(c.views)
	c.views = append(c.views[:0], next...)
	if !reindex {
		return
	}
	clear(c.byID)
	clear(c.byRecord)
	for _, v := range c.views {
		c.index(v)
	}
}

// Swap exchanges the positions of a and b. Nothing happens unless both are
// present.
func (c *Container) Swap(a, b view.Instance) {
	i, j := c.IndexOf(a), c.IndexOf(b)
	if i < 0 || j < 0 {
		return
	}
	c.views[i], c.views[j] = c.views[j], c.views[i]
}

// Clear removes every view.
func (c *Container) Clear() {
	c.ReplaceAll(nil, true)
}
