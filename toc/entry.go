// Package toc models an external table of contents: the entries, navigation
// trees and documents of a site map, and the parser and serializer that
// convert it from and to its declarative nested-mapping form.
package toc

import "regexp"

// EntryKind identifies the variant of an Entry.
type EntryKind uint8

const (
	FileKind EntryKind = iota
	GlobKind
	URLKind
)

func (k EntryKind) String() string {
	switch k {
	case FileKind:
		return "file"
	case GlobKind:
		return "glob"
	case URLKind:
		return "url"
	default:
		return "unknown"
	}
}

// Entry is one item of a navigation tree. The set of implementations is
// closed: FileEntry, GlobEntry and URLEntry.
type Entry interface {
	Kind() EntryKind
	entry()
}

// FileEntry references a document by its posix-style path, with or without
// extension.
type FileEntry string

func (FileEntry) Kind() EntryKind { return FileKind }
func (FileEntry) entry()          {}

// GlobEntry is a document pattern. It is resolved by the host against the
// known documents, never by the parser.
type GlobEntry string

func (GlobEntry) Kind() EntryKind { return GlobKind }
func (GlobEntry) entry()          {}

// URLEntry is an external link with an optional title.
type URLEntry struct {
	URL   string
	Title string
}

func (URLEntry) Kind() EntryKind { return URLKind }
func (URLEntry) entry()          {}

var urlPattern = regexp.MustCompile(`^.+://.*$`)

// NewURLEntry validates url against the scheme://... shape.
func NewURLEntry(url, title string) (URLEntry, error) {
	if !urlPattern.MatchString(url) {
		return URLEntry{}, &ValidationError{Field: urlKey, Reason: "must match regex '.+://.*'"}
	}
	return URLEntry{URL: url, Title: title}, nil
}
