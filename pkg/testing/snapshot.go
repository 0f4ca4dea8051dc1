package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-drift/viewtree/pkg/dom"
	"github.com/go-drift/viewtree/pkg/view"
)

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures a view tree, its markup, and optionally an event log.
type Snapshot struct {
	Tree   *ViewNode `json:"tree"`
	Markup string    `json:"markup"`
	Events []string  `json:"events,omitempty"`
}

// ViewNode represents a view in the serialized tree. Ids are assigned per
// type in traversal order so snapshots do not depend on view ids.
type ViewNode struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Record   string      `json:"record,omitempty"`
	State    []string    `json:"state,omitempty"`
	Children []*ViewNode `json:"children,omitempty"`
}

// Capture snapshots the tree rooted at root. When log is not nil its lines
// are included.
func Capture(root view.Instance, log *EventLog) *Snapshot {
	snap := &Snapshot{}
	if root != nil {
		snap.Tree = captureViewNode(root, &typeCounter{})
		snap.Markup = dom.Render(root.Element())
	}
	if log != nil {
		snap.Events = log.Lines()
	}
	return snap
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When
// VIEWTREE_UPDATE_SNAPSHOTS=1 is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv("VIEWTREE_UPDATE_SNAPSHOTS") == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: VIEWTREE_UPDATE_SNAPSHOTS=1 go test -run %s", path, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: VIEWTREE_UPDATE_SNAPSHOTS=1 go test -run %s", path, diff, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a line diff between this snapshot and other. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// typeCounter assigns stable IDs like "Static#0", "Static#1".
type typeCounter struct {
	counts map[string]int
}

func (c *typeCounter) next(typeName string) string {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	n := c.counts[typeName]
	c.counts[typeName] = n + 1
	return fmt.Sprintf("%s#%d", typeName, n)
}

func captureViewNode(v view.Instance, counter *typeCounter) *ViewNode {
	typeName := viewTypeName(v)
	node := &ViewNode{
		ID:    counter.next(typeName),
		Type:  typeName,
		State: viewState(v),
	}
	if r := v.Record(); r != nil {
		node.Record = r.ID()
	}
	v.VisitChildren(func(child view.Instance) bool {
		node.Children = append(node.Children, captureViewNode(child, counter))
		return true
	})
	return node
}

func viewState(v view.Instance) []string {
	var state []string
	if v.IsRendered() {
		state = append(state, "rendered")
	}
	if v.IsAttached() {
		state = append(state, "attached")
	}
	if v.IsShown() {
		state = append(state, "shown")
	}
	if v.IsDestroyed() {
		state = append(state, "destroyed")
	}
	return state
}

func viewTypeName(v view.Instance) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.Name()
	// Qualify by package so collection.View and layout.View differ.
	if pkg := t.PkgPath(); pkg != "" {
		name = pkg[strings.LastIndex(pkg, "/")+1:] + "." + name
	}
	return name
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	for i := range max(len(expectedLines), len(actualLines)) {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}
