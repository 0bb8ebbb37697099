// Package schema provides the embedded JSON Schemas used to check ToC
// metadata and site-map snapshots.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ErrNotFound is returned for a schema name that is not registered.
var ErrNotFound = errors.New("schema not found")

// Schema is one embedded JSON Schema document.
type Schema struct {
	Name   string // e.g. "meta"
	Source string // JSON Schema text
}

var registry = []string{
	"meta",    // the meta block of a ToC
	"sitemap", // SiteMap.AsJSON output
}

var (
	mu       sync.Mutex
	compiled = make(map[string]*jsonschema.Schema)
)

// Get returns a single schema by name.
func Get(name string) (*Schema, error) {
	if !slices.Contains(registry, name) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	content, err := schemaFS.ReadFile(filename(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
	}
	return &Schema{Name: name, Source: string(content)}, nil
}

// Compile returns the compiled form of a registered schema. Results are
// cached for the life of the process.
func Compile(name string) (*jsonschema.Schema, error) {
	mu.Lock()
	defer mu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}
	def, err := Get(name)
	if err != nil {
		return nil, err
	}
	s, err := compile([]byte(def.Source))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	compiled[name] = s
	return s, nil
}

// Validate checks doc against a registered schema.
func Validate(name string, doc any) error {
	s, err := Compile(name)
	if err != nil {
		return err
	}
	return validate(s, name, doc)
}

// ValidateWith checks doc against a caller-supplied JSON Schema.
func ValidateWith(schemaJSON []byte, doc any) error {
	s, err := compile(schemaJSON)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}
	return validate(s, "custom", doc)
}

func compile(source []byte) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", bytes.NewReader(source)); err != nil {
		return nil, err
	}
	return c.Compile("schema.json")
}

// validate normalizes doc through encoding/json so that Go integers, typed
// slices and nested maps reach the validator as plain JSON values.
func validate(s *jsonschema.Schema, name string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s schema: failed to encode document: %w", name, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("%s schema: failed to decode document: %w", name, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%s schema: %w", name, err)
	}
	return nil
}

func filename(name string) string {
	return fmt.Sprintf("schemas/%s.json", strings.ToLower(name))
}
