package model

import (
	"cmp"
	"reflect"
	"slices"
)

// ChangeKind identifies what a collection change did.
type ChangeKind int

const (
	// ChangeUpdate reports records added and/or removed.
	ChangeUpdate ChangeKind = iota
	// ChangeReset reports that every record was replaced.
	ChangeReset
	// ChangeSort reports a reorder with no membership change.
	ChangeSort
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeUpdate:
		return "update"
	case ChangeReset:
		return "reset"
	case ChangeSort:
		return "sort"
	default:
		return "unknown"
	}
}

// Change describes a single mutation of a Collection.
type Change struct {
	Kind    ChangeKind
	Added   []Record
	Removed []Record
	// At is the insertion index of Added, or -1 when records were appended
	// or merged at several positions.
	At int
}

// Observer is notified after each collection mutation. A returned error stops
// notification of later observers and is returned by the mutating call.
type Observer func(Change) error

type observerEntry struct {
	fn Observer
}

// Collection is an ordered, observable set of records keyed by id.
//
// Collection is not safe for concurrent use.
type Collection struct {
	records   []Record
	byID      map[string]Record
	observers []*observerEntry
	less      func(a, b Record) int
}

// NewCollection returns a collection holding records in order. Records with
// a duplicate id are ignored.
func NewCollection(records ...Record) *Collection {
	c := &Collection{byID: make(map[string]Record)}
	for _, r := range records {
		if r == nil || c.byID[r.ID()] != nil {
			continue
		}
		c.byID[r.ID()] = r
		c.records = append(c.records, r)
	}
	return c
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (c *Collection) Subscribe(fn Observer) func() {
	if fn == nil {
		return func() {}
	}
	entry := &observerEntry{fn: fn}
	c.observers = append(c.observers, entry)
	return func() {
		c.observers = slices.DeleteFunc(c.observers, func(e *observerEntry) bool {
			return e == entry
		})
	}
}

// ObserverCount returns the number of subscribed observers.
func (c *Collection) ObserverCount() int {
	return len(c.observers)
}

func (c *Collection) notify(change Change) error {
	observers := slices.Clone(c.observers)
	for _, o := range observers {
		if err := o.fn(change); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of records.
func (c *Collection) Len() int {
	return len(c.records)
}

// At returns the record at index, or nil when out of range.
func (c *Collection) At(index int) Record {
	if index < 0 || index >= len(c.records) {
		return nil
	}
	return c.records[index]
}

// Get returns the record with id, or nil.
func (c *Collection) Get(id string) Record {
	return c.byID[id]
}

// IndexOf returns the position of record, or -1.
func (c *Collection) IndexOf(record Record) int {
	if record == nil {
		return -1
	}
	id := record.ID()
	return slices.IndexFunc(c.records, func(r Record) bool { return r.ID() == id })
}

// Records returns a copy of the records in order.
func (c *Collection) Records() []Record {
	return slices.Clone(c.records)
}

// SetComparator keeps the collection sorted by less. Passing nil stops
// automatic sorting.
func (c *Collection) SetComparator(less func(a, b Record) int) {
	c.less = less
}

// Add inserts records at index, or appends them when index is negative or
// past the end. Records whose id is already present are skipped.
func (c *Collection) Add(records []Record, index int) error {
	added := make([]Record, 0, len(records))
	for _, r := range records {
		if r == nil || c.byID[r.ID()] != nil {
			continue
		}
		c.byID[r.ID()] = r
		added = append(added, r)
	}
	if len(added) == 0 {
		return nil
	}
	at := index
	if index < 0 || index >= len(c.records) {
		at = -1
		c.records = append(c.records, added...)
	} else {
		c.records = slices.Insert(c.records, index, added...)
	}
	if c.less != nil {
		slices.SortStableFunc(c.records, c.less)
		at = -1
	}
	return c.notify(Change{Kind: ChangeUpdate, Added: added, At: at})
}

// Remove deletes records by id. Unknown records are ignored.
func (c *Collection) Remove(records ...Record) error {
	removed := make([]Record, 0, len(records))
	for _, r := range records {
		if r == nil {
			continue
		}
		existing := c.byID[r.ID()]
		if existing == nil {
			continue
		}
		delete(c.byID, r.ID())
		removed = append(removed, existing)
	}
	if len(removed) == 0 {
		return nil
	}
	c.records = slices.DeleteFunc(c.records, func(r Record) bool {
		return c.byID[r.ID()] == nil
	})
	return c.notify(Change{Kind: ChangeUpdate, Removed: removed, At: -1})
}

// Set merges records into the collection: records not in the new list are
// removed, new ones are added, and the order of the new list is adopted. A
// single update change carries both the removals and the additions, followed
// by a sort change when only the order of kept records moved.
func (c *Collection) Set(records []Record) error {
	next := make(map[string]Record, len(records))
	ordered := make([]Record, 0, len(records))
	for _, r := range records {
		if r == nil || next[r.ID()] != nil {
			continue
		}
		next[r.ID()] = r
		ordered = append(ordered, r)
	}

	var added, removed []Record
	for _, r := range c.records {
		if next[r.ID()] == nil {
			removed = append(removed, r)
		}
	}
	for i, r := range ordered {
		if existing := c.byID[r.ID()]; existing != nil {
			// Keep the existing identity so bound views stay valid.
			ordered[i] = existing
			continue
		}
		added = append(added, r)
	}

	before := make([]string, 0, len(c.records))
	for _, r := range c.records {
		if next[r.ID()] != nil {
			before = append(before, r.ID())
		}
	}

	c.records = ordered
	if c.less != nil {
		slices.SortStableFunc(c.records, c.less)
	}
	c.byID = make(map[string]Record, len(c.records))
	for _, r := range c.records {
		c.byID[r.ID()] = r
	}

	if len(added) > 0 || len(removed) > 0 {
		return c.notify(Change{Kind: ChangeUpdate, Added: added, Removed: removed, At: -1})
	}
	after := make([]string, 0, len(c.records))
	for _, r := range c.records {
		after = append(after, r.ID())
	}
	if !slices.Equal(before, after) {
		return c.notify(Change{Kind: ChangeSort, At: -1})
	}
	return nil
}

// Merge is like Set, but a kept record whose replacement differs from it,
// as reported by same, is removed first and added again so observers
// rebuild it. The removal is a separate update change.
func (c *Collection) Merge(records []Record, same func(a, b Record) bool) error {
	var stale []Record
	for _, r := range records {
		if r == nil {
			continue
		}
		if old := c.byID[r.ID()]; old != nil && !same(old, r) {
			stale = append(stale, old)
		}
	}
	if len(stale) > 0 {
		if err := c.Remove(stale...); err != nil {
			return err
		}
	}
	return c.Set(records)
}

// SameAttributes reports whether a and b expose deeply equal attributes.
// Records without Attributes are only the same when they are identical.
func SameAttributes(a, b Record) bool {
	aa, ok := a.(Attributes)
	ba, ok2 := b.(Attributes)
	if !ok || !ok2 {
		return a == b
	}
	return reflect.DeepEqual(aa.Attributes(), ba.Attributes())
}

// Reset replaces every record and emits a reset change.
func (c *Collection) Reset(records []Record) error {
	c.records = nil
	c.byID = make(map[string]Record, len(records))
	for _, r := range records {
		if r == nil || c.byID[r.ID()] != nil {
			continue
		}
		c.byID[r.ID()] = r
		c.records = append(c.records, r)
	}
	if c.less != nil {
		slices.SortStableFunc(c.records, c.less)
	}
	return c.notify(Change{Kind: ChangeReset, Added: slices.Clone(c.records), At: -1})
}

// Sort reorders the records with less, which must not be nil, and emits a
// sort change.
func (c *Collection) Sort(less func(a, b Record) int) error {
	slices.SortStableFunc(c.records, less)
	return c.notify(Change{Kind: ChangeSort, At: -1})
}

// SortBy sorts the records by the value of attr.
func (c *Collection) SortBy(attr string) error {
	return c.Sort(func(a, b Record) int {
		return CompareValues(a.Get(attr), b.Get(attr))
	})
}

// CompareValues orders attribute values. Numbers compare numerically,
// strings lexically, false before true, and nil after everything else.
// Values of different kinds order by kind.
func CompareValues(a, b any) int {
	ka, kb := valueKind(a), valueKind(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch ka {
	case kindNumber:
		return cmp.Compare(toFloat(a), toFloat(b))
	case kindString:
		return cmp.Compare(a.(string), b.(string))
	case kindBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	}
	return 0
}

const (
	kindNumber = iota
	kindString
	kindBool
	kindOther
	kindNil
)

func valueKind(v any) int {
	switch v.(type) {
	case nil:
		return kindNil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return kindNumber
	case string:
		return kindString
	case bool:
		return kindBool
	default:
		return kindOther
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// Truthy reports whether v counts as set for attribute filters: nil, false,
// zero numbers and empty strings are false.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if valueKind(v) == kindNumber {
		return toFloat(v) != 0
	}
	return true
}

// Equal reports whether two attribute values are equal, treating numbers of
// different types as equal when their values match.
func Equal(a, b any) bool {
	if valueKind(a) == kindNumber && valueKind(b) == kindNumber {
		return toFloat(a) == toFloat(b)
	}
	switch a.(type) {
	case nil, string, bool:
		return a == b
	}
	return false
}
