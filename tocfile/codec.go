// Package tocfile reads and writes ToC files and keeps a parsed site map in
// sync with the file on disk.
package tocfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/executablebooks/sphinx-external-toc/toc"
)

// ErrUnsupportedSource is returned for file extensions with no decoder.
var ErrUnsupportedSource = errors.New("unsupported toc source")

// Source is the textual format of a ToC file.
type Source string

const (
	SourceYAML Source = "yaml"
	SourceJSON Source = "json"
	SourceTOML Source = "toml"
)

// SourceFor picks the source format from a file extension.
func SourceFor(path string) (Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return SourceYAML, nil
	case ".json":
		return SourceJSON, nil
	case ".toml":
		return SourceTOML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSource, path)
	}
}

// Decode reads one ToC mapping from r.
func Decode(r io.Reader, src Source) (map[string]any, error) {
	var data map[string]any
	switch src {
	case SourceYAML:
		if err := yaml.NewDecoder(r).Decode(&data); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("empty yaml document")
			}
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	case SourceJSON:
		if err := json.NewDecoder(r).Decode(&data); err != nil {
			return nil, fmt.Errorf("failed to decode json: %w", err)
		}
	case SourceTOML:
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if err := toml.Unmarshal(b, &data); err != nil {
			return nil, fmt.Errorf("failed to decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, src)
	}
	if data == nil {
		return nil, fmt.Errorf("toc is not a mapping")
	}
	return data, nil
}

// Encode writes data to w. YAML output keeps ToC keys in reading order; JSON
// and TOML fall back to their encoders' key order.
func Encode(w io.Writer, src Source, data map[string]any) error {
	switch src {
	case SourceYAML:
		node, err := toNode(data)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(node)
	case SourceJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case SourceTOML:
		// TOML has no null.
		return toml.NewEncoder(w).Encode(dropNulls(data))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedSource, src)
	}
}

// keyOrder ranks the keys of a ToC node. Unlisted keys (subtrees and items
// keys of every profile, user metadata) sort alphabetically after them, and
// meta always comes last.
var keyOrder = func() map[string]int {
	keys := append([]string{"root", "file", "glob", "url", "title", "format", "defaults", "options"}, toc.TreeOptions...)
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		m[k] = i
	}
	return m
}()

func orderedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	rank := func(k string) int {
		if k == "meta" {
			return len(keyOrder) + 1
		}
		if r, ok := keyOrder[k]; ok {
			return r
		}
		return len(keyOrder)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func toNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case map[string]any:
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range orderedKeys(val) {
			child, err := toNode(val[k])
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, child)
		}
		return node, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range val {
			child, err := toNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	}

	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return node, nil
}

func dropNulls(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if item == nil {
				continue
			}
			out[k] = dropNulls(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if item == nil {
				continue
			}
			out = append(out, dropNulls(item))
		}
		return out
	}
	return v
}
