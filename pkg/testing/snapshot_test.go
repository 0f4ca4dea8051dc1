package testing

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-drift/viewtree/pkg/collection"
	"github.com/go-drift/viewtree/pkg/model"
	"github.com/go-drift/viewtree/pkg/view"
)

func mountList(t *testing.T, h *Harness, names ...string) *collection.View {
	t.Helper()
	records := make([]model.Record, 0, len(names))
	for _, n := range names {
		records = append(records, model.NewMapRecord(n, map[string]any{"name": n}))
	}
	list, err := collection.New(collection.Options{
		Options:    h.Options(),
		Collection: model.NewCollection(records...),
		ChildView:  collection.ChildViewOf(collection.StaticView("li", view.MustTextTemplate("{{.name}}"))),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Mount(list); err != nil {
		t.Fatal(err)
	}
	return list
}

func TestCapture_Tree(t *testing.T) {
	h := NewHarness(t)
	list := mountList(t, h, "a", "b")

	snap := Capture(list, nil)
	if snap.Tree == nil {
		t.Fatal("expected non-nil tree")
	}
	if snap.Tree.Type != "collection.View" {
		t.Errorf("expected collection.View root, got %s", snap.Tree.Type)
	}
	if len(snap.Tree.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(snap.Tree.Children))
	}
	first := snap.Tree.Children[0]
	if first.ID != "view.Static#0" || first.Record != "a" {
		t.Errorf("expected view.Static#0 bound to a, got %s bound to %q", first.ID, first.Record)
	}
	if got := strings.Join(first.State, ","); got != "rendered,attached,shown" {
		t.Errorf("expected rendered,attached,shown, got %s", got)
	}
	if snap.Markup != "<div><li>a</li><li>b</li></div>" {
		t.Errorf("unexpected markup %s", snap.Markup)
	}
}

func TestCapture_IncludesEvents(t *testing.T) {
	h := NewHarness(t)
	list := mountList(t, h)
	h.Events.Watch("list", list)
	if err := list.AddChildView(mustStatic(t, h, "x"), -1); err != nil {
		t.Fatal(err)
	}

	snap := Capture(list, h.Events)
	if len(snap.Events) == 0 {
		t.Fatal("expected events in snapshot")
	}
	if snap.Events[0] != "list before:add:child" {
		t.Errorf("expected list before:add:child first, got %s", snap.Events[0])
	}
}

func TestSnapshot_DiffIdentical(t *testing.T) {
	h := NewHarness(t)
	list := mountList(t, h, "a")

	a := Capture(list, nil)
	b := Capture(list, nil)
	if diff := a.Diff(b); diff != "" {
		t.Errorf("expected no diff, got:\n%s", diff)
	}
}

func TestSnapshot_UpdateAndMatch(t *testing.T) {
	t.Setenv("VIEWTREE_UPDATE_SNAPSHOTS", "")
	h := NewHarness(t)
	list := mountList(t, h, "a", "b")
	snap := Capture(list, nil)

	path := filepath.Join(t.TempDir(), "nested", "list.snapshot.json")
	if err := snap.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}
	snap.MatchesFile(t, path)
}

func TestSnapshot_MatchesFile_MissingFile(t *testing.T) {
	t.Setenv("VIEWTREE_UPDATE_SNAPSHOTS", "")
	h := NewHarness(t)
	snap := Capture(mountList(t, h, "a"), nil)

	failed := false
	sub := &fatalRecorder{name: t.Name(), onFatal: func() { failed = true }}
	snap.MatchesFile(sub, "/nonexistent/path/snap.json")

	if !failed {
		t.Error("expected MatchesFile to fail for missing file")
	}
}

func TestSnapshot_MatchesFile_Mismatch(t *testing.T) {
	t.Setenv("VIEWTREE_UPDATE_SNAPSHOTS", "")
	h := NewHarness(t)
	first := Capture(mountList(t, h, "a"), nil)

	path := filepath.Join(t.TempDir(), "snap.json")
	if err := first.UpdateFile(path); err != nil {
		t.Fatal(err)
	}

	second := Capture(mountList(t, h, "a", "b"), nil)
	errored := false
	sub := &errorRecorder{name: t.Name(), onError: func() { errored = true }}
	second.MatchesFile(sub, path)

	if !errored {
		t.Error("expected MatchesFile to report error for mismatch")
	}
}

func TestSnapshot_UpdateMode(t *testing.T) {
	h := NewHarness(t)
	snap := Capture(mountList(t, h, "a"), nil)
	path := filepath.Join(t.TempDir(), "update.snapshot.json")

	t.Setenv("VIEWTREE_UPDATE_SNAPSHOTS", "1")
	snap.MatchesFile(t, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("snapshot file should be created in update mode")
	}
}

func TestUnifiedDiff(t *testing.T) {
	diff := unifiedDiff("a\nb\nc", "a\nx\nc")
	if !strings.Contains(diff, "-b\n+x\n") {
		t.Errorf("expected changed line in diff, got:\n%s", diff)
	}
	if strings.Contains(diff, "-a") {
		t.Errorf("unchanged lines should not appear, got:\n%s", diff)
	}
}

func mustStatic(t *testing.T, h *Harness, text string) *view.Static {
	t.Helper()
	opts := h.Options()
	opts.Tag = "li"
	v, err := view.NewStatic(opts, view.MustTextTemplate(text))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

// fatalRecorder intercepts Fatalf calls for testing MatchesFile failures.
type fatalRecorder struct {
	name    string
	onFatal func()
}

func (r *fatalRecorder) Fatalf(format string, args ...any) { r.onFatal() }
func (r *fatalRecorder) Errorf(format string, args ...any) {}
func (r *fatalRecorder) Helper()                           {}
func (r *fatalRecorder) Name() string                      { return r.name }

// errorRecorder intercepts Errorf calls for testing MatchesFile mismatches.
type errorRecorder struct {
	name    string
	onError func()
}

func (r *errorRecorder) Fatalf(format string, args ...any) {}
func (r *errorRecorder) Errorf(format string, args ...any) { r.onError() }
func (r *errorRecorder) Helper()                           {}
func (r *errorRecorder) Name() string                      { return r.name }
