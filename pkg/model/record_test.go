package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestJSONRecord_GetNestedPath(t *testing.T) {
	r, err := NewJSONRecord([]byte(`{"id":7,"title":"x","meta":{"rank":2}}`), "id", "")
	if err != nil {
		t.Fatalf("NewJSONRecord: %v", err)
	}
	if r.ID() != "7" {
		t.Errorf("ID = %q, want 7", r.ID())
	}
	if got := r.Get("meta.rank"); got != 2.0 {
		t.Errorf("Get(meta.rank) = %#v, want 2.0", got)
	}
	if r.Get("missing") != nil {
		t.Error("missing path should be nil")
	}
}

func TestJSONRecord_Set(t *testing.T) {
	r, err := NewJSONRecord([]byte(`{"title":"x"}`), "id", "fallback")
	if err != nil {
		t.Fatalf("NewJSONRecord: %v", err)
	}
	if r.ID() != "fallback" {
		t.Errorf("ID = %q, want fallback", r.ID())
	}
	if err := r.Set("flags.active", true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if r.Get("flags.active") != true {
		t.Errorf("Set value not visible, raw=%s", r.Raw())
	}
}

func TestParseJSONRecords(t *testing.T) {
	records, err := ParseJSONRecords([]byte(`[{"id":"a"},{"name":"no id"},{"id":"c"}]`), "id")
	if err != nil {
		t.Fatalf("ParseJSONRecords: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "2", "c"}, recordIDs(records)); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParseJSONRecords([]byte(`{"id":1}`), "id"); err == nil {
		t.Error("expected error for non-array input")
	}
	if _, err := NewJSONRecord([]byte(`{`), "", "x"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMapRecord(t *testing.T) {
	attrs := map[string]any{"a": 1}
	r := NewMapRecord("m", attrs)
	attrs["a"] = 2
	if r.Get("a") != 1 {
		t.Error("NewMapRecord should copy attributes")
	}
	r.Set("b", "x")
	if diff := cmp.Diff(map[string]any{"a": 1, "b": "x"}, r.Attributes()); diff != "" {
		t.Errorf("attributes mismatch (-want +got):\n%s", diff)
	}
}
