package testing

import "github.com/go-drift/viewtree/pkg/dom"

// RecordingAdapter wraps an Adapter and counts the insertions made into
// each parent node.
type RecordingAdapter struct {
	dom.Adapter
	inserts  map[dom.Node]int
	detaches int
}

// NewRecordingAdapter returns a RecordingAdapter over inner.
func NewRecordingAdapter(inner dom.Adapter) *RecordingAdapter {
	return &RecordingAdapter{Adapter: inner, inserts: make(map[dom.Node]int)}
}

// AppendInto records the call and forwards it.
func (a *RecordingAdapter) AppendInto(parent, node dom.Node) {
	a.inserts[parent]++
	a.Adapter.AppendInto(parent, node)
}

// Detach records the call and forwards it.
func (a *RecordingAdapter) Detach(node dom.Node) {
	a.detaches++
	a.Adapter.Detach(node)
}

// Inserts returns the number of AppendInto calls made with parent.
func (a *RecordingAdapter) Inserts(parent dom.Node) int {
	return a.inserts[parent]
}

// Detaches returns the number of Detach calls.
func (a *RecordingAdapter) Detaches() int {
	return a.detaches
}

// Reset clears the counters.
func (a *RecordingAdapter) Reset() {
	clear(a.inserts)
	a.detaches = 0
}
