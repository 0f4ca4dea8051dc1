package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/viewtree/pkg/model"
)

// Patch sets one attribute of one record.
type Patch struct {
	ID    string
	Attr  string
	Value any
}

// ParsePatch parses "id:attr=value". The value is read as a YAML scalar,
// so true, 3 and "3" yield a bool, an int and a string.
func ParsePatch(s string) (Patch, error) {
	target, value, ok := strings.Cut(s, "=")
	if !ok {
		return Patch{}, fmt.Errorf("patch %q: expected id:attr=value", s)
	}
	id, attr, ok := strings.Cut(target, ":")
	if !ok || id == "" || attr == "" {
		return Patch{}, fmt.Errorf("patch %q: expected id:attr=value", s)
	}
	var v any
	if err := yaml.Unmarshal([]byte(value), &v); err != nil {
		return Patch{}, fmt.Errorf("patch %q: %w", s, err)
	}
	return Patch{ID: id, Attr: attr, Value: v}, nil
}

// ApplyPatches applies patches to records in order. JSON records are
// updated through their sjson paths.
func ApplyPatches(records []model.Record, patches []Patch) error {
	byID := make(map[string]model.Record, len(records))
	for _, r := range records {
		byID[r.ID()] = r
	}
	for _, p := range patches {
		switch r := byID[p.ID].(type) {
		case nil:
			return fmt.Errorf("patch %s:%s: no record %q", p.ID, p.Attr, p.ID)
		case *model.MapRecord:
			r.Set(p.Attr, p.Value)
		case *model.JSONRecord:
			if err := r.Set(p.Attr, p.Value); err != nil {
				return err
			}
		default:
			return fmt.Errorf("patch %s:%s: record type %T is read-only", p.ID, p.Attr, r)
		}
	}
	return nil
}
