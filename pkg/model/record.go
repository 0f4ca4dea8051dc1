// Package model provides records and the observable ordered collection that
// collection views reconcile against.
package model

import (
	"fmt"
	"maps"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Record is an externally owned data item with a stable identity.
type Record interface {
	// ID returns the record's stable identity.
	ID() string
	// Get returns the value of attr, or nil if it is not set.
	Get(attr string) any
}

// Attributes is implemented by records that can expose all of their
// attributes at once. Match filters use it when present.
type Attributes interface {
	Attributes() map[string]any
}

// MapRecord is a Record backed by an attribute map.
type MapRecord struct {
	id    string
	attrs map[string]any
}

// NewMapRecord returns a record with the given id and attributes.
// The attribute map is copied.
func NewMapRecord(id string, attrs map[string]any) *MapRecord {
	return &MapRecord{id: id, attrs: maps.Clone(attrs)}
}

func (r *MapRecord) ID() string { return r.id }

func (r *MapRecord) Get(attr string) any {
	return r.attrs[attr]
}

// Set updates attr.
func (r *MapRecord) Set(attr string, value any) {
	if r.attrs == nil {
		r.attrs = make(map[string]any)
	}
	r.attrs[attr] = value
}

// Attributes returns a copy of the record's attributes.
func (r *MapRecord) Attributes() map[string]any {
	return maps.Clone(r.attrs)
}

func (r *MapRecord) String() string {
	return fmt.Sprintf("MapRecord(%s)", r.id)
}

// JSONRecord is a Record backed by a raw JSON object. Attribute names are
// gjson paths, so nested values such as "meta.rank" can be read directly.
type JSONRecord struct {
	id  string
	raw []byte
}

// NewJSONRecord returns a record over raw. When idPath is non-empty the id is
// read from that path, otherwise fallbackID is used.
func NewJSONRecord(raw []byte, idPath, fallbackID string) (*JSONRecord, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("model: invalid JSON record")
	}
	id := fallbackID
	if idPath != "" {
		if v := gjson.GetBytes(raw, idPath); v.Exists() {
			id = v.String()
		}
	}
	if id == "" {
		return nil, fmt.Errorf("model: JSON record has no id")
	}
	return &JSONRecord{id: id, raw: append([]byte(nil), raw...)}, nil
}

func (r *JSONRecord) ID() string { return r.id }

// Get returns the value at the gjson path attr.
func (r *JSONRecord) Get(attr string) any {
	v := gjson.GetBytes(r.raw, attr)
	if !v.Exists() {
		return nil
	}
	return v.Value()
}

// Set writes value at the sjson path attr.
func (r *JSONRecord) Set(attr string, value any) error {
	raw, err := sjson.SetBytes(r.raw, attr, value)
	if err != nil {
		return fmt.Errorf("model: set %s on %s: %w", attr, r.id, err)
	}
	r.raw = raw
	return nil
}

// Attributes returns the top-level attributes of the record.
func (r *JSONRecord) Attributes() map[string]any {
	out, _ := gjson.ParseBytes(r.raw).Value().(map[string]any)
	return out
}

// Raw returns a copy of the record's JSON.
func (r *JSONRecord) Raw() []byte {
	return append([]byte(nil), r.raw...)
}

// ParseJSONRecords reads a JSON array of objects into records. Ids come from
// idPath; elements without one are numbered by position.
func ParseJSONRecords(data []byte, idPath string) ([]Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("model: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("model: expected a JSON array of records")
	}
	var (
		records []Record
		err     error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		var rec *JSONRecord
		rec, err = NewJSONRecord([]byte(value.Raw), idPath, fmt.Sprintf("%d", key.Int()+1))
		if err != nil {
			return false
		}
		records = append(records, rec)
		return true
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}
