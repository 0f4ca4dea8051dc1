package testing

import (
	"slices"
	"strings"

	"github.com/go-drift/viewtree/pkg/view"
)

// Entry is one recorded event.
type Entry struct {
	// Name is the label given to Watch.
	Name  string
	Event view.Event
	Args  view.Args
}

// String formats the entry as "name event".
func (e Entry) String() string {
	return e.Name + " " + e.Event.String()
}

// EventLog records events from any number of views and regions in the
// order they fire.
type EventLog struct {
	entries []Entry
	offs    []func()
}

// Watch records every event of o under name.
func (l *EventLog) Watch(name string, o view.Observable) {
	l.offs = append(l.offs, o.OnAny(func(ev view.Event, args view.Args) {
		l.entries = append(l.entries, Entry{Name: name, Event: ev, Args: args})
	}))
}

// Stop unsubscribes from every watched object.
func (l *EventLog) Stop() {
	for _, off := range l.offs {
		off()
	}
	l.offs = nil
}

// Entries returns the recorded entries.
func (l *EventLog) Entries() []Entry {
	return slices.Clone(l.entries)
}

// Lines returns the entries formatted with Entry.String.
func (l *EventLog) Lines() []string {
	out := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.String())
	}
	return out
}

// Count returns how many times ev was recorded, for any watched name.
func (l *EventLog) Count(ev view.Event) int {
	n := 0
	for _, e := range l.entries {
		if e.Event == ev {
			n++
		}
	}
	return n
}

// Of returns the entries of ev, in order.
func (l *EventLog) Of(ev view.Event) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Event == ev {
			out = append(out, e)
		}
	}
	return out
}

// Index returns the position of the first line with the given prefix, or -1.
func (l *EventLog) Index(prefix string) int {
	for i, e := range l.entries {
		if strings.HasPrefix(e.String(), prefix) {
			return i
		}
	}
	return -1
}

// Reset forgets the recorded entries but keeps watching.
func (l *EventLog) Reset() {
	l.entries = nil
}
