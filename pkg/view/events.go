package view

import (
	"slices"
	"strings"
)

// Event identifies a lifecycle notification.
type Event int

const (
	BeforeRender Event = iota + 1
	Render
	BeforeAttach
	Attach
	BeforeDetach
	Detach
	BeforeDestroy
	Destroy
	BeforeAddChild
	AddChild
	BeforeRemoveChild
	RemoveChild
	BeforeSort
	Sort
	BeforeFilter
	Filter
	BeforeRenderChildren
	RenderChildren
	BeforeDestroyChildren
	DestroyChildren
	BeforeShow
	Show
	BeforeEmpty
	Empty
	DOMRefresh
	DOMRemove

	lastEvent
)

// childViewBit marks an event re-emitted by a structural parent.
const childViewBit Event = 1 << 8

// ChildViewPrefix is prepended to the name of bubbled events.
const ChildViewPrefix = "childview:"

var eventNames = [...]string{
	BeforeRender:          "before:render",
	Render:                "render",
	BeforeAttach:          "before:attach",
	Attach:                "attach",
	BeforeDetach:          "before:detach",
	Detach:                "detach",
	BeforeDestroy:         "before:destroy",
	Destroy:               "destroy",
	BeforeAddChild:        "before:add:child",
	AddChild:              "add:child",
	BeforeRemoveChild:     "before:remove:child",
	RemoveChild:           "remove:child",
	BeforeSort:            "before:sort",
	Sort:                  "sort",
	BeforeFilter:          "before:filter",
	Filter:                "filter",
	BeforeRenderChildren:  "before:render:children",
	RenderChildren:        "render:children",
	BeforeDestroyChildren: "before:destroy:children",
	DestroyChildren:       "destroy:children",
	BeforeShow:            "before:show",
	Show:                  "show",
	BeforeEmpty:           "before:empty",
	Empty:                 "empty",
	DOMRefresh:            "dom:refresh",
	DOMRemove:             "dom:remove",
}

func (e Event) String() string {
	if e.IsChildView() {
		return ChildViewPrefix + e.Unwrap().String()
	}
	if e > 0 && e < lastEvent {
		return eventNames[e]
	}
	return "unknown"
}

// ChildView returns the bubbled form of e, as seen on a structural parent.
func (e Event) ChildView() Event {
	return e | childViewBit
}

// IsChildView reports whether e is a bubbled event.
func (e Event) IsChildView() bool {
	return e&childViewBit != 0
}

// Unwrap returns the original event of a bubbled event.
func (e Event) Unwrap() Event {
	return e &^ childViewBit
}

// ParseEvent resolves an event name such as "before:attach" or
// "childview:render".
func ParseEvent(name string) (Event, bool) {
	bubbled := false
	if rest, ok := strings.CutPrefix(name, ChildViewPrefix); ok {
		bubbled = true
		name = rest
	}
	for e := BeforeRender; e < lastEvent; e++ {
		if eventNames[e] == name {
			if bubbled {
				return e.ChildView(), true
			}
			return e, true
		}
	}
	return 0, false
}

// Args carries the payload of an event.
type Args struct {
	// Source is the object that emitted the event: a view, a region, or a
	// collection view.
	Source any
	// View is the view the event is about: the view itself for lifecycle
	// events, the child for add/remove events, the shown view for region
	// events.
	View Instance
	// Child is the child that originally emitted a bubbled event.
	Child Instance
	// Views lists the views involved in batch events (render:children,
	// filter).
	Views []Instance
	// Detached lists the views a filter pass detached.
	Detached []Instance
	// Options carries caller-provided options, if any.
	Options any
}

// Listener receives a single event.
type Listener func(Args)

// AnyListener receives every event emitted.
type AnyListener func(Event, Args)

// Handler is implemented by views that want a single well-known callback for
// every event they trigger. It runs before any listener.
type Handler interface {
	HandleEvent(ev Event, args Args)
}

type listener struct {
	fn      Listener
	any     AnyListener
	removed bool
}

// Emitter dispatches events to listeners synchronously, in subscription
// order. Listeners added or removed during dispatch take effect on the next
// event, except that a removed listener is never called again.
//
// The zero value is ready to use.
type Emitter struct {
	listeners map[Event][]*listener
	all       []*listener
}

// On subscribes fn to ev and returns a function that removes it.
func (e *Emitter) On(ev Event, fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	if e.listeners == nil {
		e.listeners = make(map[Event][]*listener)
	}
	l := &listener{fn: fn}
	e.listeners[ev] = append(e.listeners[ev], l)
	return func() {
		l.removed = true
		if e.listeners == nil {
			return
		}
		e.listeners[ev] = slices.DeleteFunc(e.listeners[ev], func(x *listener) bool { return x == l })
	}
}

// Once subscribes fn to the next occurrence of ev only.
func (e *Emitter) Once(ev Event, fn Listener) func() {
	var off func()
	off = e.On(ev, func(args Args) {
		off()
		fn(args)
	})
	return off
}

// OnAny subscribes fn to every event and returns a function that removes it.
func (e *Emitter) OnAny(fn AnyListener) func() {
	if fn == nil {
		return func() {}
	}
	l := &listener{any: fn}
	e.all = append(e.all, l)
	return func() {
		l.removed = true
		e.all = slices.DeleteFunc(e.all, func(x *listener) bool { return x == l })
	}
}

// Emit calls the listeners of ev, then the catch-all listeners.
func (e *Emitter) Emit(ev Event, args Args) {
	specific := slices.Clone(e.listeners[ev])
	all := slices.Clone(e.all)
	for _, l := range specific {
		if !l.removed {
			l.fn(args)
		}
	}
	for _, l := range all {
		if !l.removed {
			l.any(ev, args)
		}
	}
}

// ListenerCount returns the number of listeners subscribed to ev, not
// counting catch-all listeners.
func (e *Emitter) ListenerCount(ev Event) int {
	return len(e.listeners[ev])
}

// Clear removes every listener.
func (e *Emitter) Clear() {
	for _, ls := range e.listeners {
		for _, l := range ls {
			l.removed = true
		}
	}
	for _, l := range e.all {
		l.removed = true
	}
	e.listeners = nil
	e.all = nil
}
