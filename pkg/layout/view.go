// Package layout provides a composite view that renders a template and hosts
// named regions inside it.
package layout

import (
	"log/slog"
	"slices"

	"github.com/go-drift/viewtree/pkg/dom"
	"github.com/go-drift/viewtree/pkg/errors"
	"github.com/go-drift/viewtree/pkg/region"
	"github.com/go-drift/viewtree/pkg/view"
)

// RegionDef declares a region hosted by a layout view.
type RegionDef struct {
	// Name is used to address the region.
	Name string
	// ElementID is the id of the anchor element inside the layout's
	// rendered template.
	ElementID string
	// ReplaceElement makes shown views replace the anchor.
	ReplaceElement bool
	// AllowMissingAnchor turns shows into no-ops when the anchor is absent.
	AllowMissingAnchor bool
}

// Options configures a layout View.
type Options struct {
	view.Options
	// Template renders the layout's own markup, which holds the region
	// anchors.
	Template view.Template
	// Regions are created with the view.
	Regions []RegionDef
	// Logger is handed to every region. Nil discards.
	Logger *slog.Logger
}

// View is a composite view. Its regions' shown views are its structural
// children: they follow its attach and detach transitions, are destroyed
// with it, and their events bubble to it as childview events.
type View struct {
	view.Base
	template view.Template
	log      *slog.Logger

	names   []string
	regions map[string]*region.Region
}

// New returns a layout view for opts.
func New(opts Options) (*View, error) {
	v := &View{
		template: opts.Template,
		log:      opts.Logger,
		regions:  make(map[string]*region.Region),
	}
	err := v.Init(v, opts.Options, view.Hooks{
		Render:          v.render,
		Children:        v.visitChildren,
		DestroyChildren: v.destroyRegions,
	})
	if err != nil {
		return nil, err
	}
	for _, def := range opts.Regions {
		if _, err := v.AddRegion(def); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (v *View) render() error {
	// Re-rendering replaces the anchors, so regions let go of their views.
	if v.IsRendered() {
		for _, name := range v.names {
			v.regions[name].Reset()
		}
	}
	if v.template == nil {
		v.DOM().DetachContents(v.Element())
		return nil
	}
	markup, err := v.template(view.RecordData(v.Record()))
	if err != nil {
		return err
	}
	return v.DOM().SetContents(v.Element(), markup)
}

func (v *View) visitChildren(visit func(view.Instance) bool) {
	for _, name := range v.names {
		if c := v.regions[name].CurrentView(); c != nil {
			if !visit(c) {
				return
			}
		}
	}
}

func (v *View) destroyRegions() {
	for _, name := range v.names {
		v.regions[name].Destroy()
	}
}

// AddRegion creates a region anchored at def.ElementID within the layout's
// element. A region with the same name is removed first.
func (v *View) AddRegion(def RegionDef) (*region.Region, error) {
	if def.Name == "" || def.ElementID == "" {
		return nil, errors.Configuration("layout.AddRegion", errors.ErrMissingAnchor)
	}
	v.RemoveRegion(def.Name)
	id := def.ElementID
	r, err := region.New(region.Options{
		DOM: v.DOM(),
		Resolve: func() dom.Node {
			return v.DOM().FindByID(v.Element(), id)
		},
		AllowMissingAnchor: def.AllowMissingAnchor,
		ReplaceElement:     def.ReplaceElement,
		Name:               def.Name,
		Parent:             v,
		Logger:             v.log,
	})
	if err != nil {
		return nil, err
	}
	v.names = append(v.names, def.Name)
	v.regions[def.Name] = r
	return r, nil
}

// RemoveRegion destroys the named region and the view it shows.
func (v *View) RemoveRegion(name string) {
	r, ok := v.regions[name]
	if !ok {
		return
	}
	r.Destroy()
	delete(v.regions, name)
	v.names = slices.DeleteFunc(v.names, func(n string) bool { return n == name })
}

// GetRegion returns the named region, or nil.
func (v *View) GetRegion(name string) *region.Region {
	return v.regions[name]
}

// RegionNames returns the region names in creation order.
func (v *View) RegionNames() []string {
	return slices.Clone(v.names)
}

// ShowChildView shows child in the named region. The layout must be
// rendered so the region anchor exists.
func (v *View) ShowChildView(name string, child view.Instance, opts ...region.ShowOption) error {
	r, ok := v.regions[name]
	if !ok {
		return errors.Configuration("layout.ShowChildView", errors.ErrUnknownRegion)
	}
	return r.Show(child, opts...)
}

// GetChildView returns the view shown in the named region, or nil.
func (v *View) GetChildView(name string) view.Instance {
	if r, ok := v.regions[name]; ok {
		return r.CurrentView()
	}
	return nil
}

// DetachChildView removes the view shown in the named region without
// destroying it and returns it.
func (v *View) DetachChildView(name string) view.Instance {
	if r, ok := v.regions[name]; ok {
		return r.DetachView()
	}
	return nil
}
