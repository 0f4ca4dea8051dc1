package cmd

import (
	"fmt"
	"log/slog"

	"github.com/go-drift/viewtree/pkg/collection"
	"github.com/go-drift/viewtree/pkg/config"
	"github.com/go-drift/viewtree/pkg/dom"
	"github.com/go-drift/viewtree/pkg/errors"
	"github.com/go-drift/viewtree/pkg/model"
	"github.com/go-drift/viewtree/pkg/view"
)

// session is a fixture reconciled into an attached document.
type session struct {
	doc    *dom.HTMLDocument
	coll   *model.Collection
	list   *collection.View
	res    *config.Resolved
	log    *slog.Logger
	events []string
}

func newSession(res *config.Resolved, log *slog.Logger) (*session, error) {
	doc := dom.NewHTMLDocument()
	coll := model.NewCollection(res.Records...)
	opts := res.Options(view.Options{DOM: doc, IDs: view.NewSequence("v")}, coll)
	opts.Logger = log
	list, err := collection.New(opts)
	if err != nil {
		return nil, err
	}

	s := &session{doc: doc, coll: coll, list: list, res: res, log: log}
	list.OnAny(func(ev view.Event, args view.Args) {
		s.events = append(s.events, formatEvent(ev, args))
	})

	if err := view.RenderView(list); err != nil {
		list.Destroy()
		return nil, err
	}
	view.AttachWith(list, true, func() { doc.AppendInto(doc.Body(), list.Element()) })
	log.Debug("fixture mounted", "fixture", res.Path, "records", coll.Len(), "shown", list.Children().Len())
	return s, nil
}

func formatEvent(ev view.Event, args view.Args) string {
	if args.View == nil {
		return ev.String()
	}
	line := ev.String() + " " + args.View.ID()
	if r := args.View.Record(); r != nil {
		line += " (" + r.ID() + ")"
	}
	return line
}

func (s *session) markup() string {
	return dom.Render(s.list.Element())
}

// drainEvents returns the events recorded since the last call.
func (s *session) drainEvents() []string {
	events := s.events
	s.events = nil
	return events
}

// apply reconciles a freshly resolved fixture against the mounted tree.
// Records are merged so that only added, removed and changed records are
// touched. Tag and template changes are not applied.
func (s *session) apply(res *config.Resolved) error {
	resort := false
	if res.Comparator.String() != s.res.Comparator.String() {
		if err := s.list.SetComparator(res.Comparator, true); err != nil {
			return err
		}
		resort = true
	}
	if res.Filter.String() != s.res.Filter.String() {
		if err := s.list.SetFilter(res.Filter, true); err != nil {
			return err
		}
		resort = true
	}
	if err := s.coll.Merge(res.Records, model.SameAttributes); err != nil {
		return err
	}
	s.res = res
	if resort {
		return s.list.Sort()
	}
	return nil
}

// reload resolves the fixture again and applies it. A panic while
// reconciling is reported and returned as an error.
func (s *session) reload(path string, sets []string) (err error) {
	defer errors.RecoverWithCallback("viewtree.reload", func(r any) {
		err = fmt.Errorf("reload panicked: %v", r)
	})
	res, err := loadFixture(path, sets)
	if err != nil {
		return err
	}
	return s.apply(res)
}

func (s *session) close() {
	view.DestroyView(s.list)
}

// loadFixture resolves the fixture at path and applies --set patches.
func loadFixture(path string, sets []string) (*config.Resolved, error) {
	res, err := config.Resolve(path)
	if err != nil {
		return nil, err
	}
	patches := make([]config.Patch, 0, len(sets))
	for _, s := range sets {
		p, err := config.ParsePatch(s)
		if err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}
	if err := config.ApplyPatches(res.Records, patches); err != nil {
		return nil, err
	}
	return res, nil
}
