package view

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-drift/viewtree/pkg/dom"
	"github.com/go-drift/viewtree/pkg/model"
)

// Template turns view data into markup.
type Template func(data map[string]any) (string, error)

// noValue is what text/template prints for a missing or nil map entry.
const noValue = "<no value>"

// TextTemplate compiles src with text/template. Missing and nil attributes
// render as empty text.
func TextTemplate(src string) (Template, error) {
	tmpl, err := template.New("view").Option("missingkey=default").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("view: parse template: %w", err)
	}
	return func(data map[string]any) (string, error) {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return "", err
		}
		return strings.ReplaceAll(buf.String(), noValue, ""), nil
	}, nil
}

// MustTextTemplate is like TextTemplate but panics on a parse error.
func MustTextTemplate(src string) Template {
	t, err := TextTemplate(src)
	if err != nil {
		panic(err)
	}
	return t
}

// RecordData returns the template data for record: its attributes plus "id".
func RecordData(record model.Record) map[string]any {
	data := map[string]any{}
	if record == nil {
		return data
	}
	if attrs, ok := record.(model.Attributes); ok {
		for k, v := range attrs.Attributes() {
			data[k] = v
		}
	}
	data["id"] = record.ID()
	return data
}

// Static is a leaf view without a native render lifecycle: its Render only
// fills the element, and hosts fire before:render and render around it.
type Static struct {
	Base
	template Template
}

// NewStatic returns a Static view rendering tmpl with the bound record's
// data. A nil tmpl renders an empty element.
func NewStatic(opts Options, tmpl Template) (*Static, error) {
	v := &Static{template: tmpl}
	err := v.Init(v, opts, Hooks{
		Render:            v.render,
		NoRenderLifecycle: true,
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Static) render() error {
	if v.template == nil {
		v.DOM().DetachContents(v.Element())
		return nil
	}
	markup, err := v.template(RecordData(v.Record()))
	if err != nil {
		return err
	}
	return v.DOM().SetContents(v.Element(), markup)
}

// Markup returns the view's current markup.
func (v *Static) Markup() string {
	return dom.Render(v.Element())
}
