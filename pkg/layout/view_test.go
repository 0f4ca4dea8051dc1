package layout

import (
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/viewtree/pkg/dom"
	"github.com/go-drift/viewtree/pkg/errors"
	"github.com/go-drift/viewtree/pkg/view"
)

const shell = `<header id="hd"></header><main id="content"></main>`

func newLayout(t *testing.T, doc *dom.HTMLDocument, ids view.IDGenerator) *View {
	t.Helper()
	l, err := New(Options{
		Options:  view.Options{DOM: doc, IDs: ids},
		Template: view.MustTextTemplate(shell),
		Regions: []RegionDef{
			{Name: "header", ElementID: "hd"},
			{Name: "content", ElementID: "content"},
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func newChild(t *testing.T, doc *dom.HTMLDocument, ids view.IDGenerator, markup string) *view.Static {
	t.Helper()
	v, err := view.NewStatic(view.Options{DOM: doc, IDs: ids, Tag: "p"}, view.MustTextTemplate(markup))
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	return v
}

func TestShowChildViewInAttachedLayout(t *testing.T) {
	doc := dom.NewHTMLDocument()
	ids := view.NewSequence("v")
	l := newLayout(t, doc, ids)
	if err := l.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	view.AttachWith(l, true, func() { doc.AppendInto(doc.Body(), l.Element()) })

	child := newChild(t, doc, ids, "hello")
	if err := l.ShowChildView("content", child); err != nil {
		t.Fatalf("ShowChildView: %v", err)
	}

	if !child.IsAttached() || l.GetChildView("content") != child {
		t.Error("expected child attached in content region")
	}
	want := `<div><header id="hd"></header><main id="content"><p>hello</p></main></div>`
	if got := dom.Render(l.Element()); got != want {
		t.Errorf("markup mismatch\nwant %s\n got %s", want, got)
	}
}

func TestUnknownRegion(t *testing.T) {
	doc := dom.NewHTMLDocument()
	ids := view.NewSequence("v")
	l := newLayout(t, doc, ids)
	_ = l.Render()
	err := l.ShowChildView("footer", newChild(t, doc, ids, "x"))
	if !errors.IsConfiguration(err) || !stderrors.Is(err, errors.ErrUnknownRegion) {
		t.Fatalf("expected unknown region error, got %v", err)
	}
}

func TestShowBeforeRenderFails(t *testing.T) {
	doc := dom.NewHTMLDocument()
	ids := view.NewSequence("v")
	l := newLayout(t, doc, ids)
	err := l.ShowChildView("content", newChild(t, doc, ids, "x"))
	if !stderrors.Is(err, errors.ErrMissingAnchor) {
		t.Fatalf("expected missing anchor error, got %v", err)
	}
}

func TestAttachCascadesToRegionViews(t *testing.T) {
	doc := dom.NewHTMLDocument()
	ids := view.NewSequence("v")
	l := newLayout(t, doc, ids)
	_ = l.Render()
	child := newChild(t, doc, ids, "x")
	if err := l.ShowChildView("header", child); err != nil {
		t.Fatalf("ShowChildView: %v", err)
	}
	if child.IsAttached() {
		t.Fatal("child of a detached layout must not be attached")
	}

	var order []string
	child.On(view.Attach, func(view.Args) { order = append(order, "child") })
	l.On(view.Attach, func(view.Args) { order = append(order, "layout") })
	view.AttachWith(l, true, func() { doc.AppendInto(doc.Body(), l.Element()) })

	if diff := cmp.Diff([]string{"child", "layout"}, order); diff != "" {
		t.Errorf("attach order mismatch (-want +got):\n%s", diff)
	}
}

func TestRerenderResetsRegions(t *testing.T) {
	doc := dom.NewHTMLDocument()
	ids := view.NewSequence("v")
	l := newLayout(t, doc, ids)
	_ = l.Render()
	first := newChild(t, doc, ids, "one")
	_ = l.ShowChildView("content", first)

	if err := l.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !first.IsDestroyed() || l.GetChildView("content") != nil {
		t.Fatal("expected re-render to destroy shown views")
	}

	second := newChild(t, doc, ids, "two")
	if err := l.ShowChildView("content", second); err != nil {
		t.Fatalf("ShowChildView after re-render: %v", err)
	}
	if !doc.IsDescendant(l.Element(), second.Element()) {
		t.Error("expected second inside the new anchor")
	}
}

func TestDestroyDestroysRegionViews(t *testing.T) {
	doc := dom.NewHTMLDocument()
	ids := view.NewSequence("v")
	l := newLayout(t, doc, ids)
	_ = l.Render()
	view.AttachWith(l, true, func() { doc.AppendInto(doc.Body(), l.Element()) })
	child := newChild(t, doc, ids, "x")
	_ = l.ShowChildView("content", child)

	var bubbled []string
	l.OnAny(func(ev view.Event, _ view.Args) {
		if ev.IsChildView() {
			bubbled = append(bubbled, ev.String())
		}
	})
	l.Destroy()

	if !child.IsDestroyed() || child.IsAttached() {
		t.Error("expected child destroyed and detached")
	}
	if l.GetRegion("content") == nil || !l.GetRegion("content").IsDestroyed() {
		t.Error("expected region destroyed")
	}
	want := []string{
		"childview:before:detach",
		"childview:dom:remove",
		"childview:detach",
		"childview:before:destroy",
		"childview:destroy",
	}
	if diff := cmp.Diff(want, bubbled); diff != "" {
		t.Errorf("bubbled events mismatch (-want +got):\n%s", diff)
	}
}

func TestDetachAndRemoveRegion(t *testing.T) {
	doc := dom.NewHTMLDocument()
	ids := view.NewSequence("v")
	l := newLayout(t, doc, ids)
	_ = l.Render()
	child := newChild(t, doc, ids, "x")
	_ = l.ShowChildView("header", child)

	if got := l.DetachChildView("header"); got != child || child.IsDestroyed() {
		t.Fatal("expected child detached intact")
	}
	_ = l.ShowChildView("header", child)
	l.RemoveRegion("header")
	if !child.IsDestroyed() || l.GetRegion("header") != nil {
		t.Error("expected region removal to destroy its view")
	}
	if diff := cmp.Diff([]string{"content"}, l.RegionNames()); diff != "" {
		t.Errorf("region names mismatch (-want +got):\n%s", diff)
	}
}
