package view

import (
	"slices"

	"github.com/go-drift/viewtree/pkg/dom"
	"github.com/go-drift/viewtree/pkg/errors"
	"github.com/go-drift/viewtree/pkg/model"
)

// Renderable is implemented by anything that produces its own element
// contents.
type Renderable interface {
	Render() error
	IsRendered() bool
	// SupportsRenderLifecycle reports whether Render fires before:render and
	// render itself. Hosts fire them for views that do not.
	SupportsRenderLifecycle() bool
}

// Attachable is implemented by anything whose element can be connected to the
// document.
type Attachable interface {
	Element() dom.Node
	IsAttached() bool
}

// Destroyable is implemented by anything with a terminal teardown.
type Destroyable interface {
	Destroy()
	IsDestroyed() bool
}

// EntityBindable is implemented by views bound to at most one record.
type EntityBindable interface {
	Record() model.Record
}

// Observable is implemented by anything that emits lifecycle events.
type Observable interface {
	On(ev Event, fn Listener) func()
	OnAny(fn AnyListener) func()
	Trigger(ev Event, args Args)
}

// Instance is a view hosted by a region or a collection view. Concrete views
// satisfy it by embedding Base.
type Instance interface {
	Renderable
	Attachable
	Destroyable
	EntityBindable
	Observable

	// ID returns the view's process-unique id.
	ID() string
	// IsShown reports whether a region or collection view currently owns
	// the view.
	IsShown() bool
	// VisitChildren calls visitor for each structural child until it
	// returns false.
	VisitChildren(visitor func(Instance) bool)

	lifecycle() *Base
}

// Options configures a Base.
type Options struct {
	// DOM is the adapter used to create and remove the view's element.
	// Required.
	DOM dom.Adapter
	// IDs generates the view id. Defaults to UUIDGenerator.
	IDs IDGenerator
	// Tag is the element tag name. Defaults to "div".
	Tag string
	// Attrs are set on the created element.
	Attrs []dom.Attr
	// Element, when set, is used instead of creating a new element.
	Element dom.Node
	// Record binds the view to a record.
	Record model.Record
}

// Hooks are the parts of the lifecycle a concrete view supplies.
type Hooks struct {
	// Render fills the view's element. Called between before:render and
	// render.
	Render func() error
	// Children visits the view's structural children.
	Children func(visitor func(Instance) bool)
	// DestroyChildren destroys the view's structural children.
	DestroyChildren func()
	// Unbind releases declarative element bindings before teardown.
	Unbind func()
	// NoRenderLifecycle marks views whose Render does not fire render
	// events, like plain adapter views.
	NoRenderLifecycle bool
}

// Base implements the lifecycle state machine shared by every view:
// Created → Rendered ⇄ (Attached ⇄ Detached) → Destroyed.
//
// Base is not safe for concurrent use.
type Base struct {
	id     string
	el     dom.Node
	dom    dom.Adapter
	record model.Record
	self   Instance
	hooks  Hooks
	events Emitter

	disposers []func()

	rendered   bool
	attached   bool
	destroyed  bool
	destroying bool
	shown      bool
}

// Init prepares b for use by self, the concrete view embedding it.
func (b *Base) Init(self Instance, opts Options, hooks Hooks) error {
	if opts.DOM == nil {
		return errors.Configuration("view.Init", errors.ErrNoDOM)
	}
	ids := opts.IDs
	if ids == nil {
		ids = DefaultIDs
	}
	b.id = ids.NextID()
	b.dom = opts.DOM
	b.record = opts.Record
	b.self = self
	b.hooks = hooks
	b.el = opts.Element
	if b.el == nil {
		tag := opts.Tag
		if tag == "" {
			tag = "div"
		}
		b.el = b.dom.CreateElement(tag, opts.Attrs...)
	}
	return nil
}

func (b *Base) lifecycle() *Base { return b }

// ID returns the view's id.
func (b *Base) ID() string { return b.id }

// Element returns the view's root element.
func (b *Base) Element() dom.Node { return b.el }

// DOM returns the adapter the view was created with.
func (b *Base) DOM() dom.Adapter { return b.dom }

// Record returns the bound record, or nil.
func (b *Base) Record() model.Record { return b.record }

func (b *Base) IsRendered() bool  { return b.rendered }
func (b *Base) IsAttached() bool  { return b.attached }
func (b *Base) IsDestroyed() bool { return b.destroyed }
func (b *Base) IsShown() bool     { return b.shown }

// SupportsRenderLifecycle reports whether Render fires its own render events.
func (b *Base) SupportsRenderLifecycle() bool {
	return !b.hooks.NoRenderLifecycle
}

// VisitChildren calls visitor for each structural child.
func (b *Base) VisitChildren(visitor func(Instance) bool) {
	if b.hooks.Children != nil {
		b.hooks.Children(visitor)
	}
}

// On subscribes fn to ev on this view.
func (b *Base) On(ev Event, fn Listener) func() {
	return b.events.On(ev, fn)
}

// Once subscribes fn to the next ev on this view.
func (b *Base) Once(ev Event, fn Listener) func() {
	return b.events.Once(ev, fn)
}

// OnAny subscribes fn to every event on this view.
func (b *Base) OnAny(fn AnyListener) func() {
	return b.events.OnAny(fn)
}

// Trigger invokes the view's Handler, if any, then its listeners.
func (b *Base) Trigger(ev Event, args Args) {
	if args.Source == nil {
		args.Source = b.self
	}
	if h, ok := b.self.(Handler); ok {
		h.HandleEvent(ev, args)
	}
	b.events.Emit(ev, args)
}

// ListenTo subscribes fn to ev on target. The subscription is released when
// this view is destroyed or StopListening is called.
func (b *Base) ListenTo(target Observable, ev Event, fn Listener) func() {
	off := target.On(ev, fn)
	b.disposers = append(b.disposers, off)
	return off
}

// ListenToAny subscribes fn to every event on target, released like
// ListenTo.
func (b *Base) ListenToAny(target Observable, fn AnyListener) func() {
	off := target.OnAny(fn)
	b.disposers = append(b.disposers, off)
	return off
}

// OnDispose registers cleanup to run when the view releases its
// subscriptions. Cleanup registered after destruction runs immediately.
func (b *Base) OnDispose(cleanup func()) {
	if cleanup == nil {
		return
	}
	if b.destroyed {
		cleanup()
		return
	}
	b.disposers = append(b.disposers, cleanup)
}

// StopListening releases every subscription made through ListenTo and every
// OnDispose cleanup, most recent first.
func (b *Base) StopListening() {
	disposers := b.disposers
	b.disposers = nil
	for _, dispose := range slices.Backward(disposers) {
		dispose()
	}
}

// Render runs the view's render hook. It may be called any number of times
// until the view is destroyed; rendering a destroyed view does nothing.
func (b *Base) Render() error {
	if b.destroyed {
		return nil
	}
	native := b.SupportsRenderLifecycle()
	if native {
		b.Trigger(BeforeRender, Args{View: b.self})
		if b.attached && b.rendered {
			b.Trigger(DOMRemove, Args{View: b.self})
		}
	}
	if b.hooks.Render != nil {
		if err := b.hooks.Render(); err != nil {
			if _, ok := err.(*errors.ViewError); ok {
				return err
			}
			return errors.Render("view.Render", b.id, err)
		}
	}
	b.rendered = true
	if native {
		b.Trigger(Render, Args{View: b.self})
		if b.attached {
			b.Trigger(DOMRefresh, Args{View: b.self})
		}
	}
	return nil
}

// Destroy tears the view down. The order is fixed: before:destroy, unbind,
// detach (when attached), element removal, structural children, then the
// destroyed flag, destroy, and release of subscriptions. Destroying an
// already destroyed view does nothing.
func (b *Base) Destroy() {
	if b.destroyed || b.destroying {
		return
	}
	b.destroying = true
	shouldDetach := b.attached

	b.Trigger(BeforeDestroy, Args{View: b.self})
	if b.hooks.Unbind != nil {
		b.hooks.Unbind()
	}
	if shouldDetach {
		TriggerBeforeDetach(b.self)
	}
	b.dom.Detach(b.el)
	if shouldDetach {
		MarkDetached(b.self)
	}
	if b.hooks.DestroyChildren != nil {
		b.hooks.DestroyChildren()
	}

	b.destroyed = true
	b.destroying = false
	b.rendered = false
	b.attached = false
	b.shown = false
	b.Trigger(Destroy, Args{View: b.self})

	b.StopListening()
	b.events.Clear()
}
