package container

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/viewtree/pkg/dom"
	"github.com/go-drift/viewtree/pkg/model"
	"github.com/go-drift/viewtree/pkg/view"
)

type fixture struct {
	doc *dom.HTMLDocument
	ids *view.Sequence
}

func newFixture() *fixture {
	return &fixture{doc: dom.NewHTMLDocument(), ids: view.NewSequence("v")}
}

func (f *fixture) view(t *testing.T, recordID string, attrs map[string]any) view.Instance {
	t.Helper()
	var rec model.Record
	if recordID != "" {
		rec = model.NewMapRecord(recordID, attrs)
	}
	v, err := view.NewStatic(view.Options{DOM: f.doc, IDs: f.ids, Record: rec}, nil)
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	return v
}

func ids(c *Container) []string {
	var out []string
	for _, v := range c.Views() {
		out = append(out, v.ID())
	}
	return out
}

// checkIndexes verifies that every indexed view is in the list and that
// every listed view is indexed.
func checkIndexes(t *testing.T, c *Container) {
	t.Helper()
	if len(c.byID) != len(c.views) {
		t.Errorf("id index has %d entries, list has %d", len(c.byID), len(c.views))
	}
	for id, v := range c.byID {
		if !containsView(c.views, v) {
			t.Errorf("id index entry %s is not in the list", id)
		}
	}
	for rid, v := range c.byRecord {
		if !containsView(c.views, v) {
			t.Errorf("record index entry %s is not in the list", rid)
		}
	}
	for _, v := range c.views {
		if r := v.Record(); r != nil && c.byRecord[r.ID()] != v {
			t.Errorf("view %s bound to %s is missing from the record index", v.ID(), r.ID())
		}
	}
}

func containsView(views []view.Instance, v view.Instance) bool {
	for _, x := range views {
		if x == v {
			return true
		}
	}
	return false
}

func TestAddAndLookup(t *testing.T) {
	f := newFixture()
	c := New()
	a := f.view(t, "1", nil)
	b := f.view(t, "2", nil)
	x := f.view(t, "", nil)

	c.Add(a, -1)
	c.Add(b, -1)
	c.Add(x, 0)

	if diff := cmp.Diff([]string{"v3", "v1", "v2"}, ids(c)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if c.FindByRecord("2") != b {
		t.Error("expected record 2 to resolve to b")
	}
	if c.FindByID("v1") != a || c.FindByIndex(2) != b || c.FindByIndex(3) != nil {
		t.Error("lookup mismatch")
	}
	if c.IndexOf(a) != 1 || c.Len() != 3 {
		t.Errorf("expected index 1 of 3, got %d of %d", c.IndexOf(a), c.Len())
	}
	checkIndexes(t, c)
}

func TestAddDuplicatePanics(t *testing.T) {
	f := newFixture()
	c := New()
	a := f.view(t, "1", nil)
	c.Add(a, -1)
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate add")
		}
	}()
	c.Add(a, -1)
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	f := newFixture()
	c := New()
	a := f.view(t, "1", nil)
	c.Add(a, -1)

	c.Remove(f.view(t, "9", nil))
	c.Remove(nil)
	if c.Len() != 1 {
		t.Fatalf("expected 1 view, got %d", c.Len())
	}

	c.Remove(a)
	if c.Len() != 0 || c.FindByRecord("1") != nil || c.Has(a) {
		t.Error("expected a to be removed from list and indexes")
	}
}

func TestRemoveKeepsListAndIndexesInStep(t *testing.T) {
	f := newFixture()
	c := New()
	a := f.view(t, "1", nil)
	b := f.view(t, "2", nil)
	c.Add(a, -1)
	c.Add(b, -1)

	c.Remove(a)
	if c.Len() != 1 || c.FindByIndex(0) != b {
		t.Errorf("expected only b to remain, got %v", ids(c))
	}
	if c.IndexOf(a) != -1 || c.IndexOf(b) != 0 {
		t.Errorf("expected indexes -1 and 0, got %d and %d", c.IndexOf(a), c.IndexOf(b))
	}
	checkIndexes(t, c)
}

func TestRemoveReindexesSharedRecord(t *testing.T) {
	f := newFixture()
	c := New()
	first := f.view(t, "1", nil)
	second := f.view(t, "1", nil)
	c.Add(first, -1)
	c.Add(second, -1)

	c.Remove(second)
	if got := c.FindByRecord("1"); got != first {
		t.Errorf("expected record 1 to resolve to the remaining view, got %v", got)
	}
	c.Remove(first)
	if c.FindByRecord("1") != nil {
		t.Error("expected record 1 to be unindexed")
	}
}

func TestSortKeepsReferenceAndIndexes(t *testing.T) {
	f := newFixture()
	c := New()
	for i, rank := range []int{3, 1, 2, 1} {
		c.Add(f.view(t, string(rune('a'+i)), map[string]any{"rank": rank}), -1)
	}
	held := c.Views()

	c.SortBy(func(v view.Instance) any { return v.Record().Get("rank") }, model.CompareValues)

	if diff := cmp.Diff([]string{"v2", "v4", "v3", "v1"}, ids(c)); diff != "" {
		t.Errorf("stable sort mismatch (-want +got):\n%s", diff)
	}
	if &held[0] != &c.Views()[0] {
		t.Error("sort should mutate the backing slice in place")
	}
	checkIndexes(t, c)
}

func TestReplaceAllReusesSlice(t *testing.T) {
	f := newFixture()
	c := New()
	a, b, d := f.view(t, "a", nil), f.view(t, "b", nil), f.view(t, "d", nil)
	c.Add(a, -1)
	c.Add(b, -1)
	c.Add(d, -1)
	held := c.Views()

	c.ReplaceAll([]view.Instance{d, a}, true)

	if held[0] != d || held[1] != a {
		t.Error("holders of the old slice should observe the new contents")
	}
	if c.FindByRecord("b") != nil || c.Has(b) {
		t.Error("reindex should drop b")
	}
	checkIndexes(t, c)
}

func TestSwap(t *testing.T) {
	f := newFixture()
	c := New()
	a, b := f.view(t, "a", nil), f.view(t, "b", nil)
	c.Add(a, -1)
	c.Add(b, -1)

	c.Swap(a, f.view(t, "z", nil))
	if diff := cmp.Diff([]string{"v1", "v2"}, ids(c)); diff != "" {
		t.Errorf("swap with absent view should be a no-op (-want +got):\n%s", diff)
	}
	c.Swap(a, b)
	if diff := cmp.Diff([]string{"v2", "v1"}, ids(c)); diff != "" {
		t.Errorf("swap mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexConsistencyUnderRandomOps(t *testing.T) {
	f := newFixture()
	c := New()
	rng := rand.New(rand.NewPCG(1, 2))
	var pool []view.Instance
	for i := range 40 {
		pool = append(pool, f.view(t, string(rune('A'+i)), map[string]any{"n": rng.IntN(10)}))
	}
	for range 500 {
		v := pool[rng.IntN(len(pool))]
		switch rng.IntN(4) {
		case 0, 1:
			if !c.Has(v) {
				c.Add(v, rng.IntN(c.Len()+1))
			}
		case 2:
			c.Remove(v)
		case 3:
			c.SortFunc(func(a, b view.Instance) int {
				return model.CompareValues(a.Record().Get("n"), b.Record().Get("n"))
			})
		}
		checkIndexes(t, c)
		if t.Failed() {
			return
		}
	}
}
