package toc

import "slices"

// Document is one node of the site map.
type Document struct {
	Name  string
	Title string
	// Subtrees are the navigation trees shown in the document, in order.
	Subtrees []*Tree
}

// NewDocument validates the docname and builds a document.
func NewDocument(name, title string, subtrees ...*Tree) (*Document, error) {
	if name == "" {
		return nil, &ValidationError{Field: "docname", Reason: "must be a non-empty string"}
	}
	return &Document{Name: name, Title: title, Subtrees: subtrees}, nil
}

// ChildFiles returns the file entries of all subtrees, in order.
func (d *Document) ChildFiles() []string {
	var out []string
	for _, t := range d.Subtrees {
		out = append(out, t.Files()...)
	}
	return out
}

// ChildGlobs returns the glob entries of all subtrees, in order.
func (d *Document) ChildGlobs() []string {
	var out []string
	for _, t := range d.Subtrees {
		out = append(out, t.Globs()...)
	}
	return out
}

// Equal compares name, title and subtrees.
func (d *Document) Equal(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.Name != other.Name || d.Title != other.Title {
		return false
	}
	return slices.EqualFunc(d.Subtrees, other.Subtrees, (*Tree).Equal)
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := &Document{Name: d.Name, Title: d.Title}
	if d.Subtrees != nil {
		c.Subtrees = make([]*Tree, len(d.Subtrees))
		for i, t := range d.Subtrees {
			c.Subtrees[i] = t.Clone()
		}
	}
	return c
}
