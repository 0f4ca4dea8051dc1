// Package testing provides a harness for testing view trees.
//
// # Quick Start
//
// Create a harness, build views with its options, and mount them:
//
//	func TestList(t *testing.T) {
//	    h := vtest.NewHarness(t)
//	    list, _ := collection.New(collection.Options{
//	        Options:    h.Options(),
//	        Collection: model.NewCollection(records...),
//	        ChildView:  collection.ChildViewOf(collection.StaticView("li", tmpl)),
//	    })
//	    h.Events.Watch("list", list)
//	    if err := h.Mount(list); err != nil {
//	        t.Fatal(err)
//	    }
//
//	    if n := h.DOM.Inserts(list.Element()); n != 1 {
//	        t.Errorf("expected 1 insertion, got %d", n)
//	    }
//	}
//
// The harness adapter counts AppendInto calls per parent, which makes
// buffered insertion observable. Ids come from a Sequence, so they are
// stable across runs.
//
// # Finders
//
// Finders locate views in a mounted tree:
//
//	row := vtest.Find(list, vtest.ByRecord("42")).First()
//
// # Snapshot Testing
//
// Capture and compare view tree snapshots:
//
//	snap := vtest.Capture(list, h.Events)
//	snap.MatchesFile(t, "testdata/list.snapshot.json")
//
// Set VIEWTREE_UPDATE_SNAPSHOTS=1 to create or refresh golden files.
//
// Import this package with an alias to avoid conflict with the standard
// library testing package:
//
//	import vtest "github.com/go-drift/viewtree/pkg/testing"
package testing
