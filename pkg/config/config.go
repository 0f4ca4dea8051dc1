// Package config loads viewtree.yaml fixtures: a collection view
// description plus the records it reconciles.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/viewtree/pkg/collection"
	"github.com/go-drift/viewtree/pkg/errors"
	"github.com/go-drift/viewtree/pkg/model"
	"github.com/go-drift/viewtree/pkg/view"
)

// FileName is the fixture looked up by LoadOptional and FindFixture.
const FileName = "viewtree.yaml"

// CurrentSchema is assumed when a fixture does not declare one.
const CurrentSchema = "v1.0.0"

// Config represents a viewtree.yaml fixture.
type Config struct {
	Schema      string           `yaml:"schema,omitempty"`
	Collection  CollectionConfig `yaml:"collection"`
	Records     []map[string]any `yaml:"records,omitempty"`
	RecordsFile string           `yaml:"recordsFile,omitempty"`
	IDField     string           `yaml:"idField,omitempty"`
}

// CollectionConfig describes the collection view.
type CollectionConfig struct {
	Tag string `yaml:"tag,omitempty"`
	// Comparator is a field name, or false to keep arrival order.
	Comparator any `yaml:"comparator,omitempty"`
	// Filter is an attribute name or a match pattern.
	Filter             any    `yaml:"filter,omitempty"`
	SortWithCollection *bool  `yaml:"sortWithCollection,omitempty"`
	Template           string `yaml:"template,omitempty"`
	ContainerID        string `yaml:"containerId,omitempty"`
	ChildTag           string `yaml:"childTag,omitempty"`
	ChildTemplate      string `yaml:"childTemplate,omitempty"`
	EmptyTemplate      string `yaml:"emptyTemplate,omitempty"`
}

// Resolved contains the fixture with defaults applied and values parsed.
type Resolved struct {
	Path               string
	Schema             string
	Tag                string
	ChildTag           string
	Comparator         collection.Comparator
	Filter             collection.Filter
	SortWithCollection bool
	Template           view.Template
	ContainerID        string
	ChildTemplate      view.Template
	EmptyTemplate      view.Template
	Records            []model.Record

	// RecordsPath is the resolved recordsFile path, if any.
	RecordsPath string
}

// Load reads and parses the fixture at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses fixture YAML.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Configuration("config.Parse",
			fmt.Errorf("%w: %w", errors.ErrInvalidFixture, err))
	}
	return &cfg, nil
}

// LoadOptional reads viewtree.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Resolve loads the fixture at path and resolves it. Relative recordsFile
// paths are taken from the fixture's directory.
func Resolve(path string) (*Resolved, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	res, err := cfg.Resolve(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	res.Path = path
	return res, nil
}

// FindFixture walks up from the current directory to find viewtree.yaml.
func FindFixture() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found", FileName)
		}
		dir = parent
	}
}

// Resolve applies defaults and parses every value of c. dir is used for a
// relative recordsFile.
func (c *Config) Resolve(dir string) (*Resolved, error) {
	const op = "config.Resolve"
	schema, err := checkSchema(c.Schema)
	if err != nil {
		return nil, errors.Configuration(op, err)
	}

	col := c.Collection
	res := &Resolved{
		Schema:             schema,
		Tag:                orDefault(col.Tag, "ul"),
		ChildTag:           orDefault(col.ChildTag, "li"),
		SortWithCollection: col.SortWithCollection == nil || *col.SortWithCollection,
		ContainerID:        strings.TrimSpace(col.ContainerID),
	}

	if res.Comparator, err = collection.ParseComparator(col.Comparator); err != nil {
		return nil, err
	}
	if res.Filter, err = collection.ParseFilter(col.Filter); err != nil {
		return nil, err
	}

	if res.ChildTemplate, err = parseTemplate("childTemplate", orDefault(col.ChildTemplate, "{{.id}}")); err != nil {
		return nil, err
	}
	if col.Template != "" {
		if res.Template, err = parseTemplate("template", col.Template); err != nil {
			return nil, err
		}
	}
	if col.EmptyTemplate != "" {
		if res.EmptyTemplate, err = parseTemplate("emptyTemplate", col.EmptyTemplate); err != nil {
			return nil, err
		}
	}

	if res.Records, err = c.records(dir); err != nil {
		return nil, err
	}
	res.RecordsPath = c.recordsPath(dir)
	return res, nil
}

func (c *Config) records(dir string) ([]model.Record, error) {
	const op = "config.Resolve"
	idField := orDefault(c.IDField, "id")

	if c.RecordsFile != "" {
		if len(c.Records) > 0 {
			return nil, errors.Configuration(op,
				fmt.Errorf("%w: records and recordsFile are exclusive", errors.ErrInvalidFixture))
		}
		data, err := os.ReadFile(c.recordsPath(dir))
		if err != nil {
			return nil, errors.Configuration(op, fmt.Errorf("failed to read recordsFile: %w", err))
		}
		records, err := model.ParseJSONRecords(data, idField)
		if err != nil {
			return nil, errors.Configuration(op, fmt.Errorf("%w: %s: %w", errors.ErrInvalidFixture, c.RecordsFile, err))
		}
		return records, nil
	}

	records := make([]model.Record, 0, len(c.Records))
	for i, attrs := range c.Records {
		raw, ok := attrs[idField]
		if !ok || raw == nil {
			return nil, errors.Configuration(op,
				fmt.Errorf("%w: record %d has no %q", errors.ErrInvalidFixture, i, idField))
		}
		records = append(records, model.NewMapRecord(fmt.Sprint(raw), attrs))
	}
	return records, nil
}

func (c *Config) recordsPath(dir string) string {
	if c.RecordsFile == "" || filepath.IsAbs(c.RecordsFile) {
		return c.RecordsFile
	}
	return filepath.Join(dir, c.RecordsFile)
}

// Options returns collection view options for the fixture. base supplies
// the adapter and ids; its tag defaults to the fixture's.
func (r *Resolved) Options(base view.Options, source collection.Source) collection.Options {
	if base.Tag == "" {
		base.Tag = r.Tag
	}
	opts := collection.Options{
		Options:                   base,
		Collection:                source,
		ChildView:                 collection.ChildViewOf(collection.StaticView(r.ChildTag, r.ChildTemplate)),
		Comparator:                r.Comparator,
		Filter:                    r.Filter,
		DisableSortWithCollection: !r.SortWithCollection,
		Template:                  r.Template,
		ChildViewContainerID:      r.ContainerID,
	}
	if r.EmptyTemplate != nil {
		opts.EmptyView = collection.StaticView(r.ChildTag, r.EmptyTemplate)
	}
	return opts
}

func checkSchema(schema string) (string, error) {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		return CurrentSchema, nil
	}
	if !strings.HasPrefix(schema, "v") {
		schema = "v" + schema
	}
	if !semver.IsValid(schema) {
		return "", fmt.Errorf("%w: schema %q is not a semantic version", errors.ErrInvalidFixture, schema)
	}
	if major := semver.Major(schema); major != semver.Major(CurrentSchema) {
		return "", fmt.Errorf("%w: unsupported schema %s (want %s)", errors.ErrInvalidFixture, major, semver.Major(CurrentSchema))
	}
	return semver.Canonical(schema), nil
}

func parseTemplate(field, src string) (view.Template, error) {
	tmpl, err := view.TextTemplate(src)
	if err != nil {
		return nil, errors.Configuration("config.Resolve",
			fmt.Errorf("%w: %s: %w", errors.ErrInvalidFixture, field, err))
	}
	return tmpl, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
