package collection

import (
	"fmt"

	"github.com/go-drift/viewtree/pkg/errors"
	"github.com/go-drift/viewtree/pkg/model"
	"github.com/go-drift/viewtree/pkg/view"
)

// Constructor builds a view from options. The reconciler fills in the DOM
// adapter, id generator, and bound record before calling it.
type Constructor func(opts view.Options) (view.Instance, error)

// StaticView returns a Constructor of view.Static leaves rendering tmpl
// inside a tag element.
func StaticView(tag string, tmpl view.Template) Constructor {
	return func(opts view.Options) (view.Instance, error) {
		if opts.Tag == "" {
			opts.Tag = tag
		}
		return view.NewStatic(opts, tmpl)
	}
}

// ChildView selects how child views are built for records. The zero value
// builds nothing.
type ChildView struct {
	fixed  Constructor
	choose func(model.Record) Constructor
}

// ChildViewOf builds every child with c.
func ChildViewOf(c Constructor) ChildView {
	return ChildView{fixed: c}
}

// ChildViewFor picks the constructor per record.
func ChildViewFor(choose func(model.Record) Constructor) ChildView {
	return ChildView{choose: choose}
}

// IsZero reports whether no child view was configured.
func (c ChildView) IsZero() bool {
	return c.fixed == nil && c.choose == nil
}

func (c ChildView) constructor(record model.Record) Constructor {
	if c.fixed != nil {
		return c.fixed
	}
	if c.choose != nil {
		return c.choose(record)
	}
	return nil
}

type comparatorKind int

const (
	comparatorDefault comparatorKind = iota
	comparatorNone
	comparatorIndex
	comparatorField
	comparatorKey
	comparatorFunc
)

// Comparator orders a collection view's children. The zero value sorts by
// the position of each child's record in the collection, unless sorting
// with the collection is disabled.
type Comparator struct {
	kind  comparatorKind
	field string
	key   func(view.Instance) any
	cmp   func(a, b view.Instance) int
}

// ByIndex orders children by the position of their record in the
// collection. Children without a record come first.
func ByIndex() Comparator { return Comparator{kind: comparatorIndex} }

// ByField orders children by a record attribute.
func ByField(attr string) Comparator { return Comparator{kind: comparatorField, field: attr} }

// ByKey orders children by the value key returns for each of them.
func ByKey(key func(view.Instance) any) Comparator {
	return Comparator{kind: comparatorKey, key: key}
}

// ByFunc orders children with a three-way compare function.
func ByFunc(cmp func(a, b view.Instance) int) Comparator {
	return Comparator{kind: comparatorFunc, cmp: cmp}
}

// NoSort keeps children in arrival order.
func NoSort() Comparator { return Comparator{kind: comparatorNone} }

func (c Comparator) String() string {
	switch c.kind {
	case comparatorNone:
		return "none"
	case comparatorIndex:
		return "index"
	case comparatorField:
		return "field:" + c.field
	case comparatorKey:
		return "key"
	case comparatorFunc:
		return "func"
	default:
		return "default"
	}
}

// ParseComparator resolves a loosely typed value, as found in configuration,
// into a Comparator:
//
//   - nil, "" or true: the default
//   - false: NoSort
//   - a string: ByField
//   - func(view.Instance) any: ByKey
//   - func(a, b view.Instance) int: ByFunc
//   - a Comparator: itself
func ParseComparator(v any) (Comparator, error) {
	switch c := v.(type) {
	case nil:
		return Comparator{}, nil
	case Comparator:
		return c, nil
	case bool:
		if c {
			return Comparator{}, nil
		}
		return NoSort(), nil
	case string:
		if c == "" {
			return Comparator{}, nil
		}
		return ByField(c), nil
	case func(view.Instance) any:
		return ByKey(c), nil
	case func(a, b view.Instance) int:
		return ByFunc(c), nil
	default:
		return Comparator{}, errors.Configuration("collection.ParseComparator",
			fmt.Errorf("%w: got %T", errors.ErrInvalidComparator, v))
	}
}

// FilterPredicate decides whether the child at index is shown.
type FilterPredicate func(child view.Instance, index int) bool

// Filter selects which children are shown. The zero value shows every
// child.
type Filter struct {
	desc string
	pred FilterPredicate
}

// FilterFunc shows the children fn accepts.
func FilterFunc(fn FilterPredicate) Filter {
	if fn == nil {
		return Filter{}
	}
	return Filter{desc: "func", pred: fn}
}

// FilterMatch shows children whose record has every attribute of pattern
// with an equal value.
func FilterMatch(pattern map[string]any) Filter {
	return Filter{
		desc: fmt.Sprintf("match:%v", pattern),
		pred: func(child view.Instance, _ int) bool {
			rec := child.Record()
			if rec == nil {
				return false
			}
			for k, want := range pattern {
				if !model.Equal(rec.Get(k), want) {
					return false
				}
			}
			return true
		},
	}
}

// FilterAttr shows children whose record attribute is truthy.
func FilterAttr(attr string) Filter {
	return Filter{
		desc: "attr:" + attr,
		pred: func(child view.Instance, _ int) bool {
			rec := child.Record()
			return rec != nil && model.Truthy(rec.Get(attr))
		},
	}
}

// IsZero reports whether the filter shows every child.
func (f Filter) IsZero() bool { return f.pred == nil }

func (f Filter) String() string {
	if f.pred == nil {
		return "none"
	}
	return f.desc
}

// ParseFilter resolves a loosely typed value, as found in configuration,
// into a Filter:
//
//   - nil, false or "": no filter
//   - a string: FilterAttr
//   - map[string]any: FilterMatch
//   - FilterPredicate, func(view.Instance, int) bool or
//     func(view.Instance) bool: FilterFunc
//   - a Filter: itself
func ParseFilter(v any) (Filter, error) {
	switch f := v.(type) {
	case nil:
		return Filter{}, nil
	case Filter:
		return f, nil
	case bool:
		if !f {
			return Filter{}, nil
		}
	case string:
		if f == "" {
			return Filter{}, nil
		}
		return FilterAttr(f), nil
	case map[string]any:
		return FilterMatch(f), nil
	case FilterPredicate:
		return FilterFunc(f), nil
	case func(view.Instance, int) bool:
		return FilterFunc(f), nil
	case func(view.Instance) bool:
		return FilterFunc(func(child view.Instance, _ int) bool { return f(child) }), nil
	}
	return Filter{}, errors.Configuration("collection.ParseFilter",
		fmt.Errorf("%w: got %T", errors.ErrInvalidFilter, v))
}
