package testing

import (
	"testing"

	"github.com/go-drift/viewtree/pkg/dom"
	"github.com/go-drift/viewtree/pkg/view"
)

// Harness bundles a document, a recording adapter over it, deterministic
// view ids, and an event log. Views built with Options use all three.
type Harness struct {
	// Doc is the in-memory document.
	Doc *dom.HTMLDocument
	// DOM records every insertion made through it. Views should use it
	// rather than Doc directly.
	DOM *RecordingAdapter
	// IDs issues v1, v2, ... in creation order.
	IDs *view.Sequence
	// Events records the events of watched views and regions.
	Events *EventLog

	mounted []view.Instance
}

// NewHarness returns a harness whose mounted views are destroyed when the
// test ends.
func NewHarness(t *testing.T) *Harness {
	doc := dom.NewHTMLDocument()
	h := &Harness{
		Doc:    doc,
		DOM:    NewRecordingAdapter(doc),
		IDs:    view.NewSequence("v"),
		Events: &EventLog{},
	}
	t.Cleanup(h.Cleanup)
	return h
}

// Options returns view options bound to the harness adapter and ids.
func (h *Harness) Options() view.Options {
	return view.Options{DOM: h.DOM, IDs: h.IDs}
}

// Mount renders v and attaches it to the document body, firing the attach
// cascade the way a region would.
func (h *Harness) Mount(v view.Instance) error {
	if err := view.RenderView(v); err != nil {
		return err
	}
	view.AttachWith(v, true, func() { h.DOM.AppendInto(h.Doc.Body(), v.Element()) })
	h.mounted = append(h.mounted, v)
	return nil
}

// Attach appends v's element to the body and marks it attached, without
// rendering it first.
func (h *Harness) Attach(v view.Instance) {
	view.AttachWith(v, true, func() { h.DOM.AppendInto(h.Doc.Body(), v.Element()) })
	h.mounted = append(h.mounted, v)
}

// Cleanup destroys every mounted view.
func (h *Harness) Cleanup() {
	for _, v := range h.mounted {
		view.DestroyView(v)
	}
	h.mounted = nil
}

// Markup returns the markup of v's element.
func (h *Harness) Markup(v view.Instance) string {
	return dom.Render(v.Element())
}

// Texts returns the text of each element child of node.
func Texts(node dom.Node) []string {
	var out []string
	for _, c := range dom.Children(node) {
		out = append(out, dom.Text(c))
	}
	return out
}
