package toc

import (
	"fmt"
	"slices"

	"github.com/executablebooks/sphinx-external-toc/numbering"
)

// Numbered is the numbered option of a tree. It is set either as a bool or
// as a positive depth; a zero Depth on an enabled value numbers all levels.
type Numbered struct {
	Enabled bool
	Depth   int
}

// NumberedTo returns a value numbering down to depth levels.
func NumberedTo(depth int) Numbered {
	if depth <= 0 {
		return Numbered{}
	}
	return Numbered{Enabled: true, Depth: depth}
}

// Value returns the option in its declarative form: false, true or the depth.
func (n Numbered) Value() any {
	switch {
	case !n.Enabled:
		return false
	case n.Depth > 0:
		return n.Depth
	default:
		return true
	}
}

// Tree is one navigation tree of a document: an ordered list of entries plus
// its display options.
type Tree struct {
	Entries    []Entry
	Caption    string
	Hidden     bool
	MaxDepth   int
	Numbered   Numbered
	Reversed   bool
	TitlesOnly bool
	// Style holds one style name or one per level, outermost first.
	Style []string
	// RestartNumbering is nil when the site-wide setting applies.
	RestartNumbering *bool
}

// NewTree returns a tree with the declared option defaults.
func NewTree(entries ...Entry) *Tree {
	return &Tree{
		Entries:  entries,
		Hidden:   true,
		MaxDepth: -1,
	}
}

// Validate checks the entries and option values.
func (t *Tree) Validate() error {
	if len(t.Entries) == 0 {
		return &ValidationError{Field: "items", Reason: "must be a non-empty list"}
	}
	for i, e := range t.Entries {
		switch v := e.(type) {
		case FileEntry:
			if v == "" {
				return &ValidationError{Field: fileKey, Reason: fmt.Sprintf("must not be empty (item %d)", i)}
			}
		case GlobEntry:
			if v == "" {
				return &ValidationError{Field: globKey, Reason: fmt.Sprintf("must not be empty (item %d)", i)}
			}
		case URLEntry:
			if _, err := NewURLEntry(v.URL, v.Title); err != nil {
				return err
			}
		case nil:
			return &ValidationError{Field: "items", Reason: fmt.Sprintf("item %d is nil", i)}
		}
	}
	if t.Numbered.Depth < 0 {
		return &ValidationError{Field: "numbered", Reason: "must be a bool or a positive integer"}
	}
	for _, name := range t.Style {
		if _, ok := numbering.ParseStyle(name); !ok {
			return &ValidationError{Field: "style", Reason: fmt.Sprintf("unknown numbering style %q", name)}
		}
	}
	return nil
}

// Files returns the file entries in order.
func (t *Tree) Files() []string {
	var out []string
	for _, e := range t.Entries {
		if f, ok := e.(FileEntry); ok {
			out = append(out, string(f))
		}
	}
	return out
}

// Globs returns the glob entries in order.
func (t *Tree) Globs() []string {
	var out []string
	for _, e := range t.Entries {
		if g, ok := e.(GlobEntry); ok {
			out = append(out, string(g))
		}
	}
	return out
}

// Equal reports whether both trees have the same entries and options.
func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if !slices.Equal(t.Entries, other.Entries) {
		return false
	}
	if t.Caption != other.Caption ||
		t.Hidden != other.Hidden ||
		t.MaxDepth != other.MaxDepth ||
		t.Numbered != other.Numbered ||
		t.Reversed != other.Reversed ||
		t.TitlesOnly != other.TitlesOnly {
		return false
	}
	if !slices.Equal(t.Style, other.Style) {
		return false
	}
	switch {
	case t.RestartNumbering == nil || other.RestartNumbering == nil:
		return t.RestartNumbering == other.RestartNumbering
	default:
		return *t.RestartNumbering == *other.RestartNumbering
	}
}

// Clone returns a deep copy.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	c := *t
	c.Entries = slices.Clone(t.Entries)
	c.Style = slices.Clone(t.Style)
	if t.RestartNumbering != nil {
		r := *t.RestartNumbering
		c.RestartNumbering = &r
	}
	return &c
}
