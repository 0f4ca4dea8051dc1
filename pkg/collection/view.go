// Package collection keeps a list of child views in sync with an observable,
// ordered collection of records.
//
// A collection View creates one child per record, sorts and filters the
// children, and inserts the shown ones into its element in a single DOM
// operation per pass. Collection changes are applied incrementally: views of
// removed records are destroyed before views for added records are created.
// When no child is shown, an optional empty view is displayed through an
// internal region.
package collection

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-drift/viewtree/pkg/container"
	"github.com/go-drift/viewtree/pkg/dom"
	"github.com/go-drift/viewtree/pkg/errors"
	"github.com/go-drift/viewtree/pkg/model"
	"github.com/go-drift/viewtree/pkg/region"
	"github.com/go-drift/viewtree/pkg/view"
)

// Source is the record collection a View observes. *model.Collection
// implements it.
type Source interface {
	Subscribe(fn model.Observer) func()
	Len() int
	At(index int) model.Record
	IndexOf(record model.Record) int
}

// Options configures a collection View.
type Options struct {
	view.Options

	// Collection supplies the records. Optional; without it children are
	// added with AddChildView only.
	Collection Source
	// ChildView builds a child for each record. Required with Collection.
	ChildView ChildView
	// ChildViewOptions returns per-record options for the child
	// constructor. DOM, IDs and Record are filled in when unset.
	ChildViewOptions func(record model.Record, index int) view.Options
	// EmptyView builds the placeholder shown when no child is shown.
	EmptyView Constructor
	// Comparator orders the children. See Comparator.
	Comparator Comparator
	// Filter selects the shown children. See Filter.
	Filter Filter
	// DisableSortWithCollection stops the default comparator from
	// following the collection order and ignores collection sort changes.
	DisableSortWithCollection bool
	// Template renders the view's own markup before the children.
	Template view.Template
	// ChildViewContainerID names the element inside Template that hosts
	// the children. Defaults to the view's element.
	ChildViewContainerID string
	// Logger receives debug records for every reconciliation pass. Nil
	// discards them.
	Logger *slog.Logger
}

type childSubs struct {
	offDestroy func()
	offProxy   func()
}

// View reconciles child views against a record collection.
//
// View is not safe for concurrent use.
type View struct {
	view.Base

	source             Source
	childView          ChildView
	childViewOptions   func(model.Record, int) view.Options
	emptyView          Constructor
	comparator         Comparator
	filter             Filter
	sortWithCollection bool
	template           view.Template
	containerID        string
	ids                view.IDGenerator
	log                *slog.Logger

	// all holds every child in sorted order; shown holds the filter
	// keepers and is what gets attached.
	all   *container.Container
	shown *container.Container
	subs  map[view.Instance]*childSubs
	// added holds the views of the current pass that can be appended at
	// the end without re-inserting the others.
	added []view.Instance
	host  dom.Node
	empty *region.Region
}

// New returns a collection view for opts. It fails with a configuration
// error when a collection is given without a child view.
func New(opts Options) (*View, error) {
	if opts.Collection != nil && opts.ChildView.IsZero() {
		return nil, errors.Configuration("collection.New", errors.ErrMissingChildView)
	}
	ids := opts.IDs
	if ids == nil {
		ids = view.DefaultIDs
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	v := &View{
		source:             opts.Collection,
		childView:          opts.ChildView,
		childViewOptions:   opts.ChildViewOptions,
		emptyView:          opts.EmptyView,
		comparator:         opts.Comparator,
		filter:             opts.Filter,
		sortWithCollection: !opts.DisableSortWithCollection,
		template:           opts.Template,
		containerID:        opts.ChildViewContainerID,
		ids:                ids,
		all:                container.New(),
		shown:              container.New(),
		subs:               make(map[view.Instance]*childSubs),
	}
	opts.Options.IDs = ids
	err := v.Init(v, opts.Options, view.Hooks{
		Render:          v.render,
		Children:        v.visitChildren,
		DestroyChildren: v.destroyAll,
	})
	if err != nil {
		return nil, err
	}
	v.log = log.With("view", v.ID())
	if v.empty, err = v.newEmptyRegion(); err != nil {
		return nil, err
	}
	if v.source != nil {
		v.OnDispose(v.source.Subscribe(v.onChange))
	}
	return v, nil
}

// Children returns the shown children, in display order.
func (v *View) Children() *container.Container { return v.shown }

// AllChildren returns every child, shown or filtered out, in sorted order.
func (v *View) AllChildren() *container.Container { return v.all }

// IsEmpty reports whether no child is shown.
func (v *View) IsEmpty() bool { return v.shown.Len() == 0 }

// CurrentComparator returns the configured comparator.
func (v *View) CurrentComparator() Comparator { return v.comparator }

// CurrentFilter returns the configured filter.
func (v *View) CurrentFilter() Filter { return v.filter }

// EmptyRegion returns the region hosting the empty view. It is anchored at
// the children's host element.
func (v *View) EmptyRegion() *region.Region { return v.empty }

func (v *View) newEmptyRegion() (*region.Region, error) {
	return region.New(region.Options{
		DOM:                v.DOM(),
		Resolve:            func() dom.Node { return v.host },
		AllowMissingAnchor: true,
		KeepContents:       true,
		Name:               "empty",
		Parent:             v,
		Logger:             v.log,
	})
}

func (v *View) visitChildren(visit func(view.Instance) bool) {
	for _, c := range v.shown.Views() {
		if !visit(c) {
			return
		}
	}
	if v.empty != nil {
		if ev := v.empty.CurrentView(); ev != nil {
			visit(ev)
		}
	}
}

func (v *View) render() error {
	v.destroyChildren()
	v.added = nil
	if v.empty != nil {
		v.empty.Reset()
	}
	if v.source != nil {
		records := make([]model.Record, 0, v.source.Len())
		for i := range v.source.Len() {
			records = append(records, v.source.At(i))
		}
		if _, err := v.addChildRecords(records); err != nil {
			return err
		}
	}
	if v.template != nil {
		markup, err := v.template(view.RecordData(v.Record()))
		if err != nil {
			return err
		}
		if err := v.DOM().SetContents(v.Element(), markup); err != nil {
			return err
		}
	}
	host := v.Element()
	if v.containerID != "" {
		host = v.DOM().FindByID(v.Element(), v.containerID)
		if host == nil {
			return errors.Configuration("collection.Render",
				fmt.Errorf("%w: #%s", errors.ErrMissingContainer, v.containerID))
		}
	}
	v.host = host
	return v.Sort()
}

func (v *View) onChange(change model.Change) error {
	// Before the first render the records are read in full by render.
	if v.host == nil || v.IsDestroyed() {
		return nil
	}
	switch change.Kind {
	case model.ChangeSort:
		if !v.sortWithCollection || v.comparator.kind == comparatorNone {
			return nil
		}
		return v.Sort()
	case model.ChangeReset:
		v.destroyChildren()
		records := make([]model.Record, 0, v.source.Len())
		for i := range v.source.Len() {
			records = append(records, v.source.At(i))
		}
		if _, err := v.addChildRecords(records); err != nil {
			return err
		}
		v.log.Debug("collection reset", "records", len(records))
		return v.Sort()
	default:
		return v.update(change)
	}
}

// update applies an incremental change. Views of removed records are
// destroyed and taken out of the containers before any view for an added
// record is created.
func (v *View) update(change model.Change) error {
	removed := 0
	for _, rec := range change.Removed {
		c := v.all.FindByRecord(rec.ID())
		if c == nil {
			continue
		}
		v.releaseChild(c, true)
		v.removeChild(c)
		removed++
	}
	added, err := v.addChildRecords(change.Added)
	if len(added) > 0 {
		v.added = added
	}
	if err != nil {
		return err
	}
	if err := v.Sort(); err != nil {
		return err
	}
	v.log.Debug("collection update",
		"added", len(added), "removed", removed,
		"children", v.all.Len(), "shown", v.shown.Len())
	return nil
}

func (v *View) addChildRecords(records []model.Record) ([]view.Instance, error) {
	views := make([]view.Instance, 0, len(records))
	for _, rec := range records {
		index := -1
		if v.source != nil {
			index = v.source.IndexOf(rec)
		}
		c, err := v.buildChild(rec, index)
		if err != nil {
			return views, err
		}
		v.addChild(c, -1)
		views = append(views, c)
	}
	return views, nil
}

func (v *View) buildChild(rec model.Record, index int) (view.Instance, error) {
	const op = "collection.buildChild"
	build := v.childView.constructor(rec)
	if build == nil {
		return nil, errors.Configuration(op, errors.ErrMissingChildView)
	}
	var opts view.Options
	if v.childViewOptions != nil {
		opts = v.childViewOptions(rec, index)
	}
	if opts.DOM == nil {
		opts.DOM = v.DOM()
	}
	if opts.IDs == nil {
		opts.IDs = v.ids
	}
	opts.Record = rec
	c, err := build(opts)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.Configuration(op, errors.ErrMissingChildView)
	}
	return c, nil
}

func (v *View) addChild(c view.Instance, index int) {
	v.Trigger(view.BeforeAddChild, view.Args{View: c})
	v.subs[c] = &childSubs{
		offDestroy: c.On(view.Destroy, func(view.Args) {
			if err := v.RemoveChildView(c); err != nil {
				errors.ReportError("collection.RemoveChildView", err)
			}
		}),
		offProxy: view.ProxyChildEvents(v, c),
	}
	v.all.Add(c, index)
	v.shown.Add(c, index)
	view.SetShown(c, true)
	v.Trigger(view.AddChild, view.Args{View: c})
}

// releaseChild destroys or detaches c and drops the reconciler's
// subscriptions on it. Its destroy event still bubbles.
func (v *View) releaseChild(c view.Instance, destroy bool) {
	s := v.subs[c]
	delete(v.subs, c)
	if s != nil {
		s.offDestroy()
	}
	if destroy {
		view.DestroyView(c)
	} else {
		v.detachChild(c)
	}
	view.SetShown(c, false)
	// A destroyed child has already dropped its listeners.
	if s != nil && !c.IsDestroyed() {
		s.offProxy()
	}
}

func (v *View) removeChild(c view.Instance) {
	v.Trigger(view.BeforeRemoveChild, view.Args{View: c})
	v.shown.Remove(c)
	v.all.Remove(c)
	v.Trigger(view.RemoveChild, view.Args{View: c})
}

func (v *View) detachChild(c view.Instance) {
	view.DetachWith(c, func() { v.DOM().Detach(c.Element()) })
}

// destroyChildren destroys every child and clears both containers.
func (v *View) destroyChildren() {
	if v.all.Len() == 0 {
		return
	}
	v.Trigger(view.BeforeDestroyChildren, view.Args{Views: slices.Clone(v.all.Views())})
	for _, c := range slices.Clone(v.all.Views()) {
		v.releaseChild(c, true)
	}
	v.all.Clear()
	v.shown.Clear()
	v.Trigger(view.DestroyChildren, view.Args{})
}

func (v *View) destroyAll() {
	v.destroyChildren()
	if v.empty != nil {
		v.empty.Destroy()
	}
	v.added = nil
	v.host = nil
}

// AddChildView adds a child that is not bound to the collection, at index
// or at the end when index is negative. The view is rendered first if
// needed. Adding a view shown elsewhere fails with a state error.
func (v *View) AddChildView(c view.Instance, index int) error {
	const op = "collection.AddChildView"
	if c == nil {
		return nil
	}
	if c.IsDestroyed() {
		return errors.State(op, c.ID(), errors.ErrDestroyed)
	}
	if c.IsShown() {
		return errors.State(op, c.ID(), errors.ErrAlreadyShown)
	}
	if !v.IsRendered() {
		if err := v.Render(); err != nil {
			return err
		}
	}
	atEnd := index < 0 || index >= v.all.Len()
	v.addChild(c, index)
	if atEnd && v.filter.IsZero() {
		v.added = []view.Instance{c}
	}
	if index >= 0 {
		return v.renderChildren()
	}
	return v.Sort()
}

// RemoveChildView destroys c and removes it from the view. Views that are
// not children are ignored.
func (v *View) RemoveChildView(c view.Instance) error {
	if c == nil || !v.all.Has(c) {
		return nil
	}
	v.releaseChild(c, true)
	v.removeChild(c)
	v.log.Debug("child removed", "child", c.ID())
	if v.IsEmpty() {
		return v.showEmptyView()
	}
	return nil
}

// DetachChildView removes c from the view without destroying it and returns
// it. Views that are not children are ignored and nil is returned.
func (v *View) DetachChildView(c view.Instance) (view.Instance, error) {
	if c == nil || !v.all.Has(c) {
		return nil, nil
	}
	v.releaseChild(c, false)
	v.removeChild(c)
	if v.IsEmpty() {
		return c, v.showEmptyView()
	}
	return c, nil
}

// SwapChildViews exchanges the positions of a and b. Nothing happens unless
// both are children.
func (v *View) SwapChildViews(a, b view.Instance) error {
	if !v.all.Has(a) || !v.all.Has(b) {
		return nil
	}
	v.all.Swap(a, b)
	v.DOM().Swap(a.Element(), b.Element())
	if v.shown.Has(a) != v.shown.Has(b) {
		return v.Filter()
	}
	v.shown.Swap(a, b)
	return nil
}

// SetComparator replaces the comparator and sorts, unless preventRender is
// set.
func (v *View) SetComparator(c Comparator, preventRender bool) error {
	v.comparator = c
	if preventRender {
		return nil
	}
	return v.Sort()
}

// RemoveComparator restores the default comparator.
func (v *View) RemoveComparator(preventRender bool) error {
	return v.SetComparator(Comparator{}, preventRender)
}

// SetFilter replaces the filter and filters, unless preventRender is set.
func (v *View) SetFilter(f Filter, preventRender bool) error {
	v.filter = f
	if preventRender {
		return nil
	}
	return v.Filter()
}

// RemoveFilter shows every child again.
func (v *View) RemoveFilter(preventRender bool) error {
	return v.SetFilter(Filter{}, preventRender)
}

// Sort orders the children, then filters and renders them. Sorting always
// happens before filtering.
func (v *View) Sort() error {
	v.sortChildren()
	return v.Filter()
}

func (v *View) sortChildren() {
	if v.all.Len() == 0 {
		return
	}
	key, cmp := v.effectiveComparator()
	if key == nil && cmp == nil {
		return
	}
	// A sorted pass re-inserts every child.
	v.added = nil
	v.Trigger(view.BeforeSort, view.Args{})
	if cmp != nil {
		v.all.SortFunc(cmp)
	} else {
		v.all.SortBy(key, model.CompareValues)
	}
	v.Trigger(view.Sort, view.Args{})
}

func (v *View) effectiveComparator() (func(view.Instance) any, func(a, b view.Instance) int) {
	c := v.comparator
	if c.kind == comparatorDefault {
		if !v.sortWithCollection || v.source == nil {
			return nil, nil
		}
		c = ByIndex()
	}
	switch c.kind {
	case comparatorIndex:
		if v.source == nil {
			return nil, nil
		}
		return func(child view.Instance) any {
			return v.source.IndexOf(child.Record())
		}, nil
	case comparatorField:
		return func(child view.Instance) any {
			if rec := child.Record(); rec != nil {
				return rec.Get(c.field)
			}
			return nil
		}, nil
	case comparatorKey:
		return c.key, nil
	case comparatorFunc:
		return nil, c.cmp
	default:
		return nil, nil
	}
}

// Filter partitions the children with the filter, detaches the ones
// dropped, and renders the rest. Dropped children are kept and can be shown
// again by a later pass.
func (v *View) Filter() error {
	if v.IsDestroyed() {
		return nil
	}
	v.filterChildren()
	return v.renderChildren()
}

func (v *View) filterChildren() {
	if v.all.Len() == 0 {
		return
	}
	if v.filter.IsZero() {
		reindex := v.shown.Len() != v.all.Len()
		v.shown.ReplaceAll(v.all.Views(), reindex)
		return
	}
	v.added = nil
	v.Trigger(view.BeforeFilter, view.Args{})
	var keep, drop []view.Instance
	for i, c := range slices.Clone(v.all.Views()) {
		if v.filter.pred(c, i) {
			keep = append(keep, c)
		} else {
			drop = append(drop, c)
		}
	}
	for _, c := range drop {
		v.detachChild(c)
	}
	v.shown.ReplaceAll(keep, true)
	v.Trigger(view.Filter, view.Args{Views: keep, Detached: drop})
}

// renderChildren renders the shown children into a buffer and inserts the
// buffer into the host once. Children only receive attach events when this
// view is attached, and only after the insertion.
func (v *View) renderChildren() error {
	if v.host == nil {
		return nil
	}
	views := v.added
	if views == nil {
		views = slices.Clone(v.shown.Views())
	}
	v.added = nil
	v.Trigger(view.BeforeRenderChildren, view.Args{Views: views})
	if v.IsEmpty() {
		if err := v.showEmptyView(); err != nil {
			return err
		}
	} else {
		v.destroyEmptyView()
		buf := v.DOM().CreateBuffer()
		err := v.buffer(buf, views)
		views = v.stillShown(views)
		v.attachChildren(buf, views)
		if err != nil {
			return err
		}
		if v.IsEmpty() {
			// Every child was destroyed while the pass ran.
			if err := v.showEmptyView(); err != nil {
				return err
			}
		}
	}
	v.Trigger(view.RenderChildren, view.Args{Views: views})
	return nil
}

// buffer renders views into buf. A child destroyed or removed by another
// child's render is skipped.
func (v *View) buffer(buf dom.Node, views []view.Instance) error {
	for _, c := range views {
		if c.IsDestroyed() || !v.shown.Has(c) {
			continue
		}
		if err := view.RenderView(c); err != nil {
			return err
		}
		if c.IsDestroyed() || !v.shown.Has(c) {
			continue
		}
		v.DOM().AppendInto(buf, c.Element())
	}
	return nil
}

func (v *View) stillShown(views []view.Instance) []view.Instance {
	return slices.DeleteFunc(slices.Clone(views), func(c view.Instance) bool {
		return c.IsDestroyed() || !v.shown.Has(c)
	})
}

func (v *View) attachChildren(buf dom.Node, views []view.Instance) {
	var pending []view.Instance
	if v.IsAttached() {
		for _, c := range views {
			if !c.IsAttached() && v.DOM().Parent(c.Element()) == buf {
				pending = append(pending, c)
			}
		}
	}
	for _, c := range pending {
		view.TriggerBeforeAttach(c)
	}
	v.DOM().AppendInto(v.host, buf)
	for _, c := range pending {
		view.MarkAttached(c)
	}
}

func (v *View) showEmptyView() error {
	if v.emptyView == nil || v.host == nil {
		return nil
	}
	r := v.empty
	if r.HasView() {
		return nil
	}
	ev, err := v.emptyView(view.Options{DOM: v.DOM(), IDs: v.ids})
	if err != nil {
		return err
	}
	v.log.Debug("showing empty view", "empty", ev.ID())
	return r.Show(ev)
}

func (v *View) destroyEmptyView() {
	if v.empty != nil && v.empty.HasView() {
		v.empty.Empty()
	}
}
