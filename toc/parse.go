package toc

import (
	"fmt"
	"slices"
)

const (
	rootKey     = "root"
	fileKey     = "file"
	globKey     = "glob"
	urlKey      = "url"
	titleKey    = "title"
	optionsKey  = "options"
	formatKey   = "format"
	defaultsKey = "defaults"
	metaKey     = "meta"
)

var linkKeys = []string{fileKey, globKey, urlKey}

// TreeOptions lists the option keys of a tree in their serialization order.
var TreeOptions = []string{
	"caption",
	"hidden",
	"maxdepth",
	"numbered",
	"reversed",
	"titlesonly",
	"style",
	"restart_numbering",
}

func isTreeOption(key string) bool {
	return slices.Contains(TreeOptions, key)
}

// Parse builds a site map from a decoded ToC mapping. Every failure is a
// *MalformedError and no partial result is returned.
func Parse(data any) (*SiteMap, error) {
	m, ok := asMapping(data)
	if !ok {
		return nil, &MalformedError{Reason: fmt.Sprintf("toc is not a mapping: %T", data)}
	}

	formatName := ""
	if raw, ok := m[formatKey]; ok && raw != nil {
		s, isString := raw.(string)
		if !isString {
			return nil, malformed("/"+formatKey, "'%v' key not recognised", raw)
		}
		formatName = s
	}
	lookup := formatName
	if lookup == "" {
		lookup = DefaultFormat
	}
	format, ok := LookupFormat(lookup)
	if !ok {
		return nil, malformed("/"+formatKey, "'%s' key not recognised", formatName)
	}
	// An explicit default profile is stored like an absent one.
	if formatName == DefaultFormat {
		formatName = ""
	}

	defaults := format.TocDefaults
	if defaults == nil {
		defaults = make(map[string]any)
	}
	if raw, ok := m[defaultsKey]; ok && raw != nil {
		dm, ok := asMapping(raw)
		if !ok {
			return nil, malformed("/", "'%s' key not a mapping", defaultsKey)
		}
		for _, k := range sortedKeys(dm) {
			if !isTreeOption(k) {
				return nil, &MalformedError{
					Path:   "/" + defaultsKey + "/",
					Reason: "toctree validation",
					Err:    &ValidationError{Field: k, Reason: "is not a recognised option"},
				}
			}
			defaults[k] = dm[k]
		}
	}

	var meta map[string]any
	if raw, ok := m[metaKey]; ok && raw != nil {
		mm, ok := asMapping(raw)
		if !ok {
			return nil, malformed("/", "'%s' key not a mapping", metaKey)
		}
		meta = cloneMeta(mm)
	}

	p := &parser{format: format, defaults: defaults}
	root, children, err := p.parseDoc(m, "/", 0, true)
	if err != nil {
		return nil, err
	}

	sm := NewSiteMap(root, meta, formatName)
	if err := p.parseDocs(sm, children, 1); err != nil {
		return nil, err
	}
	return sm, nil
}

type parser struct {
	format   FileFormat
	defaults map[string]any
}

// pending is a file item still to be parsed as a document.
type pending struct {
	path string
	data map[string]any
}

func (p *parser) parseDocs(sm *SiteMap, docs []pending, depth int) error {
	for _, c := range docs {
		name, _ := c.data[fileKey].(string)
		if sm.Has(name) {
			return malformed(c.path, "document file used multiple times: '%s'", name)
		}
		doc, children, err := p.parseDoc(c.data, c.path, depth, false)
		if err != nil {
			return err
		}
		sm.put(doc)
		if err := p.parseDocs(sm, children, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseDoc(data map[string]any, path string, depth int, isRoot bool) (*Document, []pending, error) {
	docKey := fileKey
	if isRoot {
		docKey = rootKey
	}
	if _, ok := data[docKey]; !ok {
		return nil, nil, malformed(path, "'%s' key not found", docKey)
	}

	subtreesKey := p.format.SubtreesKey(depth)
	itemsKey := p.format.ItemsKey(depth)

	allowed := []string{docKey, titleKey, optionsKey, subtreesKey, itemsKey}
	if isRoot {
		allowed = append(allowed, formatKey, defaultsKey, metaKey)
	}
	var unknown []string
	for _, k := range sortedKeys(data) {
		if !slices.Contains(allowed, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(allowed)
		return nil, nil, malformed(path, "Unknown keys found: %s, allowed: %s", formatKeys(unknown), formatKeys(allowed))
	}

	var treesData []any
	shorthand := false
	treesPath := path
	if items, ok := data[itemsKey]; ok {
		if _, both := data[subtreesKey]; both {
			return nil, nil, malformed(path, "Both '%s' and '%s' found", subtreesKey, itemsKey)
		}
		tree := map[string]any{}
		if raw, ok := data[optionsKey]; ok && raw != nil {
			opts, ok := asMapping(raw)
			if !ok {
				return nil, nil, malformed(path, "'%s' key not a mapping", optionsKey)
			}
			for _, k := range sortedKeys(opts) {
				if !isTreeOption(k) {
					return nil, nil, &MalformedError{
						Path:   path + optionsKey + "/",
						Reason: "toctree validation",
						Err:    &ValidationError{Field: k, Reason: "is not a recognised option"},
					}
				}
				tree[k] = opts[k]
			}
		}
		tree[itemsKey] = items
		treesData = []any{tree}
		shorthand = true
	} else if raw, ok := data[subtreesKey]; ok {
		seq, ok := asSequence(raw)
		if !ok || len(seq) == 0 {
			return nil, nil, malformed(path, "'%s' not a non-empty list", subtreesKey)
		}
		treesData = seq
		treesPath = path + subtreesKey + "/"
	}

	var (
		trees    []*Tree
		children []pending
	)
	for ti, raw := range treesData {
		tocPath := treesPath
		if !shorthand {
			tocPath = fmt.Sprintf("%s%d/", treesPath, ti)
		}

		tm, ok := asMapping(raw)
		if !ok {
			return nil, nil, malformed(tocPath, "entry not a mapping containing '%s' key", itemsKey)
		}
		if _, ok := tm[itemsKey]; !ok {
			return nil, nil, malformed(tocPath, "entry not a mapping containing '%s' key", itemsKey)
		}
		items, ok := asSequence(tm[itemsKey])
		if !ok || len(items) == 0 {
			return nil, nil, malformed(tocPath, "'%s' not a non-empty list", itemsKey)
		}

		entries := make([]Entry, 0, len(items))
		for ii, rawItem := range items {
			itemPath := fmt.Sprintf("%s%s/%d/", tocPath, itemsKey, ii)
			e, im, err := parseItem(rawItem, itemPath, subtreesKey, itemsKey)
			if err != nil {
				return nil, nil, err
			}
			entries = append(entries, e)
			if e.Kind() == FileKind {
				children = append(children, pending{path: itemPath, data: im})
			}
		}

		tree, err := p.buildTree(entries, tm, itemsKey, depth)
		if err != nil {
			return nil, nil, &MalformedError{Path: tocPath, Reason: "toctree validation", Err: err}
		}
		trees = append(trees, tree)
	}

	name, ok := data[docKey].(string)
	if !ok || name == "" {
		return nil, nil, &MalformedError{
			Path:   path,
			Reason: "doc validation",
			Err:    &ValidationError{Field: docKey, Reason: "must be a non-empty string"},
		}
	}
	title, ok := asOptionalString(data[titleKey])
	if !ok {
		return nil, nil, &MalformedError{
			Path:   path,
			Reason: "doc validation",
			Err:    &ValidationError{Field: titleKey, Reason: "must be a string"},
		}
	}
	doc, err := NewDocument(name, title, trees...)
	if err != nil {
		return nil, nil, &MalformedError{Path: path, Reason: "doc validation", Err: err}
	}
	return doc, children, nil
}

func parseItem(raw any, path, subtreesKey, itemsKey string) (Entry, map[string]any, error) {
	m, ok := asMapping(raw)
	if !ok {
		return nil, nil, malformed(path, "entry not a mapping type")
	}

	var found []string
	for _, k := range linkKeys {
		if _, ok := m[k]; ok {
			found = append(found, k)
		}
	}
	switch len(found) {
	case 0:
		return nil, nil, malformed(path, "entry does not contain one of %s", formatKeys(linkKeys))
	case 1:
	default:
		return nil, nil, malformed(path, "entry contains incompatible keys %s", formatKeys(found))
	}

	key := found[0]
	if key != fileKey {
		for _, other := range []string{subtreesKey, itemsKey} {
			if _, ok := m[other]; ok {
				return nil, nil, malformed(path, "entry contains incompatible keys '%s' and '%s'", key, other)
			}
		}
	}

	invalid := func(err error) error {
		return &MalformedError{Path: path, Reason: "entry validation", Err: err}
	}

	switch key {
	case fileKey, globKey:
		s, ok := m[key].(string)
		if !ok || s == "" {
			return nil, nil, invalid(&ValidationError{Field: key, Reason: "must be a non-empty string"})
		}
		if key == globKey {
			return GlobEntry(s), m, nil
		}
		return FileEntry(s), m, nil
	default:
		u, ok := m[urlKey].(string)
		if !ok {
			return nil, nil, invalid(&ValidationError{Field: urlKey, Reason: "must be a string"})
		}
		title, ok := asOptionalString(m[titleKey])
		if !ok {
			return nil, nil, invalid(&ValidationError{Field: titleKey, Reason: "must be a string"})
		}
		e, err := NewURLEntry(u, title)
		if err != nil {
			return nil, nil, invalid(err)
		}
		return e, m, nil
	}
}

// buildTree applies node-local options, falling back to the merged defaults.
func (p *parser) buildTree(entries []Entry, data map[string]any, itemsKey string, depth int) (*Tree, error) {
	for _, k := range sortedKeys(data) {
		if k != itemsKey && !isTreeOption(k) {
			return nil, &ValidationError{Field: k, Reason: "is not a recognised option"}
		}
	}

	t := NewTree(entries...)
	for _, key := range TreeOptions {
		v, ok := data[key]
		if !ok {
			v, ok = p.defaults[key]
		}
		if !ok {
			continue
		}
		if err := applyOption(t, key, v); err != nil {
			return nil, err
		}
	}
	// Only trees of the root document are numbered; nested ones inherit.
	if depth > 0 {
		t.Numbered = Numbered{}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func applyOption(t *Tree, key string, v any) error {
	boolOpt := func(dst *bool) error {
		b, ok := v.(bool)
		if !ok {
			return &ValidationError{Field: key, Reason: "must be a bool"}
		}
		*dst = b
		return nil
	}

	switch key {
	case "caption":
		s, ok := asOptionalString(v)
		if !ok {
			return &ValidationError{Field: key, Reason: "must be a string"}
		}
		t.Caption = s
	case "hidden":
		return boolOpt(&t.Hidden)
	case "reversed":
		return boolOpt(&t.Reversed)
	case "titlesonly":
		return boolOpt(&t.TitlesOnly)
	case "maxdepth":
		n, ok := asInt(v)
		if !ok {
			return &ValidationError{Field: key, Reason: "must be an integer"}
		}
		t.MaxDepth = n
	case "numbered":
		if b, ok := v.(bool); ok {
			t.Numbered = Numbered{Enabled: b}
			return nil
		}
		n, ok := asInt(v)
		if !ok || n < 0 {
			return &ValidationError{Field: key, Reason: "must be a bool or a positive integer"}
		}
		t.Numbered = NumberedTo(n)
	case "style":
		names, err := styleNames(v)
		if err != nil {
			return err
		}
		t.Style = names
	case "restart_numbering":
		if v == nil {
			t.RestartNumbering = nil
			return nil
		}
		b, ok := v.(bool)
		if !ok {
			return &ValidationError{Field: key, Reason: "must be a bool"}
		}
		t.RestartNumbering = &b
	default:
		return &ValidationError{Field: key, Reason: "is not a recognised option"}
	}
	return nil
}

func styleNames(v any) ([]string, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{s}, nil
	}
	seq, ok := asSequence(v)
	if !ok {
		return nil, &ValidationError{Field: "style", Reason: "must be a string or a list of strings"}
	}
	if len(seq) == 0 {
		return nil, nil
	}
	names := make([]string, len(seq))
	for i, item := range seq {
		s, ok := item.(string)
		if !ok {
			return nil, &ValidationError{Field: "style", Reason: "must be a string or a list of strings"}
		}
		names[i] = s
	}
	return names, nil
}
