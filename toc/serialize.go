package toc

import (
	"fmt"
	"reflect"
)

type serializeOptions struct {
	withDefaults bool
}

// SerializeOption configures CreateTocDict.
type SerializeOption func(*serializeOptions)

// WithDefaults keeps tree options whose value equals the default.
func WithDefaults() SerializeOption {
	return func(o *serializeOptions) { o.withDefaults = true }
}

// CreateTocDict rebuilds the declarative mapping of a site map. Parsing the
// result yields a site map equal to sm. A document reached twice during the
// walk fails with ErrCyclicReference.
func CreateTocDict(sm *SiteMap, opts ...SerializeOption) (map[string]any, error) {
	var o serializeOptions
	for _, opt := range opts {
		opt(&o)
	}

	name := sm.FileFormat()
	if name == "" {
		name = DefaultFormat
	}
	format, ok := LookupFormat(name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownFormat, name)
	}

	defaults, err := effectiveDefaults(format)
	if err != nil {
		return nil, err
	}
	s := &serializer{
		sm:       sm,
		format:   format,
		opts:     o,
		defaults: defaults,
		visited:  make(map[string]bool),
	}

	data, err := s.document(sm.Root(), 0, true)
	if err != nil {
		return nil, err
	}
	if name != DefaultFormat {
		data[formatKey] = name
	}
	if len(sm.Meta()) > 0 {
		data[metaKey] = cloneMeta(sm.Meta())
	}
	return data, nil
}

// effectiveDefaults returns the option values a tree gets when the source
// sets nothing: the declared defaults overlaid with the profile's.
func effectiveDefaults(format FileFormat) (map[string]any, error) {
	t := NewTree()
	for _, k := range sortedKeys(format.TocDefaults) {
		if err := applyOption(t, k, format.TocDefaults[k]); err != nil {
			return nil, fmt.Errorf("format %s: %w", format.Name, err)
		}
	}
	return optionValues(t), nil
}

// optionValues returns the declarative value of every tree option.
func optionValues(t *Tree) map[string]any {
	var style any
	switch len(t.Style) {
	case 0:
	case 1:
		style = t.Style[0]
	default:
		list := make([]any, len(t.Style))
		for i, s := range t.Style {
			list[i] = s
		}
		style = list
	}
	var restart any
	if t.RestartNumbering != nil {
		restart = *t.RestartNumbering
	}
	return map[string]any{
		"caption":           nullable(t.Caption),
		"hidden":            t.Hidden,
		"maxdepth":          t.MaxDepth,
		"numbered":          t.Numbered.Value(),
		"reversed":          t.Reversed,
		"titlesonly":        t.TitlesOnly,
		"style":             style,
		"restart_numbering": restart,
	}
}

type serializer struct {
	sm       *SiteMap
	format   FileFormat
	opts     serializeOptions
	defaults map[string]any
	visited  map[string]bool
}

func (s *serializer) document(doc *Document, depth int, isRoot bool) (map[string]any, error) {
	if s.visited[doc.Name] {
		return nil, fmt.Errorf("%w: '%s' in site map multiple times", ErrCyclicReference, doc.Name)
	}
	s.visited[doc.Name] = true

	docKey := fileKey
	if isRoot {
		docKey = rootKey
	}
	data := map[string]any{docKey: doc.Name}
	if doc.Title != "" {
		data[titleKey] = doc.Title
	}
	if len(doc.Subtrees) == 0 {
		return data, nil
	}

	subtreesKey := s.format.SubtreesKey(depth)
	itemsKey := s.format.ItemsKey(depth)

	trees := make([]map[string]any, 0, len(doc.Subtrees))
	for _, t := range doc.Subtrees {
		td := make(map[string]any)
		values := optionValues(t)
		for _, k := range TreeOptions {
			if s.opts.withDefaults || !reflect.DeepEqual(values[k], s.defaults[k]) {
				td[k] = values[k]
			}
		}
		items := make([]any, 0, len(t.Entries))
		for _, e := range t.Entries {
			item, err := s.item(e, depth)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		td[itemsKey] = items
		trees = append(trees, td)
	}

	if len(trees) == 1 && len(trees[0]) == 1 {
		data[itemsKey] = trees[0][itemsKey]
		return data, nil
	}
	list := make([]any, len(trees))
	for i, td := range trees {
		list[i] = td
	}
	data[subtreesKey] = list
	return data, nil
}

func (s *serializer) item(e Entry, depth int) (map[string]any, error) {
	switch v := e.(type) {
	case FileEntry:
		if child, ok := s.sm.Get(string(v)); ok {
			return s.document(child, depth+1, false)
		}
		return map[string]any{fileKey: string(v)}, nil
	case GlobEntry:
		return map[string]any{globKey: string(v)}, nil
	case URLEntry:
		out := map[string]any{urlKey: v.URL}
		if v.Title != "" {
			out[titleKey] = v.Title
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported entry type %T", e)
	}
}
