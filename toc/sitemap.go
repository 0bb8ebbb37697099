package toc

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"sort"
)

// SiteMap maps docnames to documents. The root document is always present.
// A SiteMap is not safe for concurrent writes.
type SiteMap struct {
	root       string
	docs       map[string]*Document
	order      []string
	meta       map[string]any
	fileFormat string
}

// NewSiteMap creates a site map holding only root. fileFormat may be empty
// when the source did not name a profile.
func NewSiteMap(root *Document, meta map[string]any, fileFormat string) *SiteMap {
	if meta == nil {
		meta = map[string]any{}
	}
	sm := &SiteMap{
		root:       root.Name,
		docs:       make(map[string]*Document),
		meta:       meta,
		fileFormat: fileFormat,
	}
	sm.put(root)
	return sm
}

func (sm *SiteMap) put(doc *Document) {
	if _, ok := sm.docs[doc.Name]; !ok {
		sm.order = append(sm.order, doc.Name)
	}
	sm.docs[doc.Name] = doc
}

// Root returns the root document.
func (sm *SiteMap) Root() *Document { return sm.docs[sm.root] }

// Meta returns the free-form metadata block.
func (sm *SiteMap) Meta() map[string]any { return sm.meta }

// FileFormat returns the profile tag the map was parsed with, or "".
func (sm *SiteMap) FileFormat() string { return sm.fileFormat }

// Get returns the document for name.
func (sm *SiteMap) Get(name string) (*Document, bool) {
	d, ok := sm.docs[name]
	return d, ok
}

// Doc is like Get but returns ErrDocumentNotFound for a missing name.
func (sm *SiteMap) Doc(name string) (*Document, error) {
	d, ok := sm.docs[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrDocumentNotFound, name)
	}
	return d, nil
}

// Has reports whether name is in the map.
func (sm *SiteMap) Has(name string) bool {
	_, ok := sm.docs[name]
	return ok
}

// Set stores doc under name, replacing any existing document.
func (sm *SiteMap) Set(name string, doc *Document) error {
	if doc == nil || doc.Name != name {
		return fmt.Errorf("%w: '%s'", ErrDocnameMismatch, name)
	}
	sm.put(doc)
	return nil
}

// Delete removes a non-root document.
func (sm *SiteMap) Delete(name string) error {
	if name == sm.root {
		return fmt.Errorf("%w: '%s'", ErrRootDeletion, name)
	}
	if _, ok := sm.docs[name]; !ok {
		return fmt.Errorf("%w: '%s'", ErrDocumentNotFound, name)
	}
	delete(sm.docs, name)
	sm.order = slices.DeleteFunc(sm.order, func(n string) bool { return n == name })
	return nil
}

// Len returns the number of documents.
func (sm *SiteMap) Len() int { return len(sm.docs) }

// Names returns the docnames in insertion order; the root comes first.
func (sm *SiteMap) Names() []string { return slices.Clone(sm.order) }

// All iterates the documents in insertion order.
func (sm *SiteMap) All() iter.Seq2[string, *Document] {
	return func(yield func(string, *Document) bool) {
		for _, name := range sm.order {
			if !yield(name, sm.docs[name]) {
				return
			}
		}
	}
}

// Globs returns every glob pattern used in any document, sorted and without
// duplicates.
func (sm *SiteMap) Globs() []string {
	seen := make(map[string]struct{})
	for _, doc := range sm.docs {
		for _, g := range doc.ChildGlobs() {
			seen[g] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// GetChanged returns the sorted docnames present in both maps whose title or
// subtrees differ. Documents added or removed are not reported. A nil
// previous map reports every document.
func (sm *SiteMap) GetChanged(previous *SiteMap) []string {
	if previous == nil {
		names := sm.Names()
		sort.Strings(names)
		return names
	}
	var changed []string
	for name, doc := range sm.docs {
		old, ok := previous.docs[name]
		if !ok {
			continue
		}
		if !doc.Equal(old) {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

// Equal reports whether both maps have the same root, documents, metadata
// and format tag. Insertion order is ignored.
func (sm *SiteMap) Equal(other *SiteMap) bool {
	if sm.root != other.root || sm.fileFormat != other.fileFormat || len(sm.docs) != len(other.docs) {
		return false
	}
	for name, doc := range sm.docs {
		if !doc.Equal(other.docs[name]) {
			return false
		}
	}
	return reflect.DeepEqual(sm.meta, other.meta)
}

// Clone returns a deep copy.
func (sm *SiteMap) Clone() *SiteMap {
	c := &SiteMap{
		root:       sm.root,
		docs:       make(map[string]*Document, len(sm.docs)),
		order:      slices.Clone(sm.order),
		meta:       cloneMeta(sm.meta),
		fileFormat: sm.fileFormat,
	}
	for name, doc := range sm.docs {
		c.docs[name] = doc.Clone()
	}
	return c
}

// AsJSON returns a JSON-compatible snapshot of the whole map. It is an
// export view; CreateTocDict produces the form that parses back.
func (sm *SiteMap) AsJSON() map[string]any {
	docs := make(map[string]any, len(sm.docs))
	for name, doc := range sm.docs {
		docs[name] = documentJSON(doc)
	}
	out := map[string]any{
		"root":      sm.root,
		"documents": docs,
		"meta":      cloneMeta(sm.meta),
	}
	if sm.fileFormat != "" {
		out["file_format"] = sm.fileFormat
	}
	return out
}

func documentJSON(doc *Document) map[string]any {
	subtrees := make([]any, len(doc.Subtrees))
	for i, t := range doc.Subtrees {
		subtrees[i] = treeJSON(t)
	}
	return map[string]any{
		"docname":  doc.Name,
		"title":    nullable(doc.Title),
		"subtrees": subtrees,
	}
}

func treeJSON(t *Tree) map[string]any {
	items := make([]any, len(t.Entries))
	for i, e := range t.Entries {
		switch v := e.(type) {
		case FileEntry:
			items[i] = string(v)
		case GlobEntry:
			items[i] = string(v)
		case URLEntry:
			items[i] = map[string]any{"url": v.URL, "title": nullable(v.Title)}
		}
	}
	var restart any
	if t.RestartNumbering != nil {
		restart = *t.RestartNumbering
	}
	var style any
	if len(t.Style) > 0 {
		style = slices.Clone(t.Style)
	}
	return map[string]any{
		"items":             items,
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

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
