// Package region implements a single-slot host that shows exactly one view
// against a fixed anchor element.
package region

import (
	"log/slog"

	"github.com/go-drift/viewtree/pkg/dom"
	"github.com/go-drift/viewtree/pkg/errors"
	"github.com/go-drift/viewtree/pkg/view"
)

// Options configures a Region.
type Options struct {
	// DOM is the adapter used for every element operation. Required.
	DOM dom.Adapter
	// Anchor is the element views are shown in.
	Anchor dom.Node
	// Resolve locates the anchor lazily when Anchor is nil. It is called
	// again after Reset.
	Resolve func() dom.Node
	// AllowMissingAnchor turns Show into a no-op when no anchor can be
	// found, instead of failing with a configuration error.
	AllowMissingAnchor bool
	// ReplaceElement makes shown views take the anchor's place in the
	// document instead of being appended into it.
	ReplaceElement bool
	// KeepContents stops Empty from clearing the anchor when no view is
	// shown. Hosts that share the anchor with other content set it.
	KeepContents bool
	// Name identifies the region in logs and in its parent.
	Name string
	// Parent receives the shown view's events as childview events.
	Parent view.Observable
	// Logger receives debug records. Nil discards them.
	Logger *slog.Logger
}

// ShowOption adjusts a single Show call.
type ShowOption func(*showConfig)

type showConfig struct {
	replace bool
	options any
}

// WithReplaceElement overrides the region's ReplaceElement setting for one
// show.
func WithReplaceElement(replace bool) ShowOption {
	return func(c *showConfig) { c.replace = replace }
}

// WithOptions attaches caller data, delivered as Args.Options on the
// before:show and show events.
func WithOptions(options any) ShowOption {
	return func(c *showConfig) { c.options = options }
}

// Region hosts at most one view. Showing a new view empties the slot first,
// destroying the previous view.
//
// Region is not safe for concurrent use.
type Region struct {
	dom      dom.Adapter
	initial  dom.Node
	resolve  func() dom.Node
	allowNil bool
	replace  bool
	keep     bool
	name     string
	parent   view.Observable
	log      *slog.Logger

	anchor     dom.Node
	current    view.Instance
	offDestroy func()
	offProxy   func()
	events     view.Emitter

	replaced  bool
	swapping  bool
	destroyed bool
}

// New returns a region for opts.
func New(opts Options) (*Region, error) {
	if opts.DOM == nil {
		return nil, errors.Configuration("region.New", errors.ErrNoDOM)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Name != "" {
		log = log.With("region", opts.Name)
	}
	return &Region{
		dom:      opts.DOM,
		initial:  opts.Anchor,
		resolve:  opts.Resolve,
		allowNil: opts.AllowMissingAnchor,
		replace:  opts.ReplaceElement,
		keep:     opts.KeepContents,
		name:     opts.Name,
		parent:   opts.Parent,
		log:      log,
	}, nil
}

// Name returns the region's name.
func (r *Region) Name() string { return r.name }

// Anchor returns the anchor element, resolving it if needed. It returns nil
// when no anchor exists.
func (r *Region) Anchor() dom.Node {
	a, _ := r.ensureAnchor("region.Anchor", true)
	return a
}

// CurrentView returns the shown view, or nil.
func (r *Region) CurrentView() view.Instance { return r.current }

// HasView reports whether a view is shown.
func (r *Region) HasView() bool { return r.current != nil }

// IsReplaced reports whether the shown view's element currently stands in
// for the anchor.
func (r *Region) IsReplaced() bool { return r.replaced }

// IsSwapping reports whether a show is replacing a previous view. It is true
// only while the previous view is being emptied and the new one shown.
func (r *Region) IsSwapping() bool { return r.swapping }

// IsDestroyed reports whether Destroy was called.
func (r *Region) IsDestroyed() bool { return r.destroyed }

// On subscribes fn to ev on the region.
func (r *Region) On(ev view.Event, fn view.Listener) func() {
	return r.events.On(ev, fn)
}

// OnAny subscribes fn to every region event.
func (r *Region) OnAny(fn view.AnyListener) func() {
	return r.events.OnAny(fn)
}

// Trigger emits ev to the region's listeners.
func (r *Region) Trigger(ev view.Event, args view.Args) {
	if args.Source == nil {
		args.Source = r
	}
	r.events.Emit(ev, args)
}

func (r *Region) ensureAnchor(op string, allowMissing bool) (dom.Node, error) {
	if r.anchor == nil {
		if r.initial != nil {
			r.anchor = r.initial
		} else if r.resolve != nil {
			r.anchor = r.resolve()
		}
	}
	if r.anchor != nil {
		return r.anchor, nil
	}
	if allowMissing {
		return nil, nil
	}
	return nil, errors.Configuration(op, errors.ErrMissingAnchor)
}

// Show renders v and attaches it to the anchor, emptying the slot first when
// another view is shown. Showing the current view again, or a nil view,
// does nothing. When v fails to render the slot is left empty.
//
// Show fails with a state error when v is destroyed or already shown by
// another host, and with a configuration error when the anchor is missing
// and AllowMissingAnchor is not set.
func (r *Region) Show(v view.Instance, opts ...ShowOption) error {
	const op = "region.Show"
	if v == nil {
		return nil
	}
	if r.destroyed {
		return errors.State(op, v.ID(), errors.ErrDestroyed)
	}
	cfg := showConfig{replace: r.replace}
	for _, o := range opts {
		o(&cfg)
	}
	anchor, err := r.ensureAnchor(op, r.allowNil)
	if err != nil || anchor == nil {
		return err
	}
	if v == r.current {
		return nil
	}
	if v.IsDestroyed() {
		return errors.State(op, v.ID(), errors.ErrDestroyed)
	}
	if v.IsShown() {
		return errors.State(op, v.ID(), errors.ErrAlreadyShown)
	}

	r.swapping = r.current != nil
	r.Trigger(view.BeforeShow, view.Args{View: v, Options: cfg.options})

	// An attached view is assumed to already be in place under the anchor.
	if r.current != nil || !v.IsAttached() {
		r.Empty()
	}

	r.setup(v)
	r.current = v
	if err := view.RenderView(v); err != nil {
		r.teardown()
		r.current = nil
		r.swapping = false
		return err
	}
	r.attach(v, anchor, cfg.replace)
	view.SetShown(v, true)

	r.log.Debug("region show", "view", v.ID(), "replaced", r.replaced, "swapping", r.swapping)
	r.Trigger(view.Show, view.Args{View: v, Options: cfg.options})
	r.swapping = false
	return nil
}

func (r *Region) setup(v view.Instance) {
	if r.parent != nil {
		r.offProxy = view.ProxyChildEvents(r.parent, v)
	}
	r.offDestroy = v.On(view.Destroy, func(view.Args) {
		r.empty(v, true)
	})
}

func (r *Region) teardown() {
	if r.offDestroy != nil {
		r.offDestroy()
		r.offDestroy = nil
	}
	if r.offProxy != nil {
		r.offProxy()
		r.offProxy = nil
	}
}

func (r *Region) attach(v view.Instance, anchor dom.Node, replace bool) {
	notify := dom.IsAttached(r.dom, anchor)
	view.AttachWith(v, notify, func() {
		if replace {
			r.replaceAnchor(v, anchor)
			return
		}
		r.dom.AppendInto(anchor, v.Element())
	})
}

// replaceAnchor swaps the anchor out for the view's element. An orphan
// anchor cannot be replaced, so the view is appended into it instead.
func (r *Region) replaceAnchor(v view.Instance, anchor dom.Node) {
	if r.dom.Parent(anchor) == nil {
		r.dom.AppendInto(anchor, v.Element())
		return
	}
	r.dom.Replace(v.Element(), anchor)
	r.replaced = true
}

// Empty destroys the shown view and clears the slot. With no view shown it
// clears any stray content under the anchor.
func (r *Region) Empty() {
	if r.current == nil {
		if r.keep {
			return
		}
		if anchor, _ := r.ensureAnchor("region.Empty", true); anchor != nil {
			r.dom.DetachContents(anchor)
		}
		return
	}
	r.empty(r.current, true)
}

// DetachView removes the shown view from the region without destroying it
// and returns it. Ownership passes back to the caller.
func (r *Region) DetachView() view.Instance {
	v := r.current
	if v == nil {
		return nil
	}
	r.empty(v, false)
	return v
}

func (r *Region) empty(v view.Instance, destroy bool) {
	if r.offDestroy != nil {
		r.offDestroy()
		r.offDestroy = nil
	}
	r.Trigger(view.BeforeEmpty, view.Args{View: v})
	r.restoreAnchor(v)
	r.current = nil

	if !v.IsDestroyed() {
		if destroy {
			view.DestroyView(v)
		} else {
			r.detach(v)
		}
		view.SetShown(v, false)
	}
	if r.offProxy != nil && !v.IsDestroyed() {
		r.offProxy()
	}
	r.offProxy = nil
	r.log.Debug("region empty", "view", v.ID(), "destroyed", v.IsDestroyed())
	r.Trigger(view.Empty, view.Args{View: v})
}

// restoreAnchor puts the anchor back in place of a view that replaced it.
func (r *Region) restoreAnchor(v view.Instance) {
	if !r.replaced {
		return
	}
	r.detach(v)
}

func (r *Region) detach(v view.Instance) {
	view.DetachWith(v, func() {
		if r.replaced {
			r.dom.Replace(r.anchor, v.Element())
			r.replaced = false
			return
		}
		r.dom.Detach(v.Element())
	})
}

// Reset empties the region and forgets the resolved anchor, so the next show
// resolves it again.
func (r *Region) Reset() {
	r.Empty()
	r.anchor = nil
}

// Destroy empties the region and makes it unusable. Destroying a destroyed
// region does nothing.
func (r *Region) Destroy() {
	if r.destroyed {
		return
	}
	r.Trigger(view.BeforeDestroy, view.Args{})
	r.destroyed = true
	r.Reset()
	r.Trigger(view.Destroy, view.Args{})
	r.events.Clear()
}
