package config

import (
	"testing"

	"github.com/go-drift/viewtree/pkg/model"
)

func TestParsePatch(t *testing.T) {
	tests := []struct {
		in   string
		want Patch
	}{
		{"1:done=true", Patch{ID: "1", Attr: "done", Value: true}},
		{"1:rank=3", Patch{ID: "1", Attr: "rank", Value: 3}},
		{"a:title=hello world", Patch{ID: "a", Attr: "title", Value: "hello world"}},
		{"a:meta.rank=\"3\"", Patch{ID: "a", Attr: "meta.rank", Value: "3"}},
	}
	for _, tt := range tests {
		got, err := ParsePatch(tt.in)
		if err != nil {
			t.Errorf("ParsePatch(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePatch(%q): expected %+v, got %+v", tt.in, tt.want, got)
		}
	}

	for _, bad := range []string{"nope", "1=2", ":a=1", "1:=2"} {
		if _, err := ParsePatch(bad); err == nil {
			t.Errorf("ParsePatch(%q): expected error", bad)
		}
	}
}

func TestApplyPatches(t *testing.T) {
	m := model.NewMapRecord("m", map[string]any{"done": false})
	j, err := model.NewJSONRecord([]byte(`{"id":"j","meta":{"rank":1}}`), "id", "")
	if err != nil {
		t.Fatal(err)
	}

	err = ApplyPatches([]model.Record{m, j}, []Patch{
		{ID: "m", Attr: "done", Value: true},
		{ID: "j", Attr: "meta.rank", Value: 5},
	})
	if err != nil {
		t.Fatalf("ApplyPatches: %v", err)
	}
	if m.Get("done") != true {
		t.Errorf("expected done=true, got %v", m.Get("done"))
	}
	if got := j.Get("meta.rank"); got != float64(5) {
		t.Errorf("expected meta.rank=5, got %v", got)
	}

	if err := ApplyPatches([]model.Record{m}, []Patch{{ID: "x", Attr: "a", Value: 1}}); err == nil {
		t.Error("expected error for unknown record")
	}
}
