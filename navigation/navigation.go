// Package navigation realizes the navigation trees of documents from a site
// map, in the form the numbering engine consumes.
package navigation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/executablebooks/sphinx-external-toc/config"
	"github.com/executablebooks/sphinx-external-toc/numbering"
	"github.com/executablebooks/sphinx-external-toc/toc"
)

// ErrNoSiteMap is returned when no site map is given.
var ErrNoSiteMap = errors.New("navigation: nil site map")

// Options controls how entries are resolved against the host's documents.
type Options struct {
	// Suffixes are stripped from docnames; the first match wins.
	Suffixes []string
	// Exists reports whether a document was found by the host. Nil means
	// every document exists.
	Exists func(docname string) bool
	// Glob expands a pattern to docnames. Nil means patterns match nothing.
	Glob func(pattern string) []string
	// ExcludeMissing drops references to missing documents without a warning.
	ExcludeMissing bool
}

// Warning reports an entry that could not be realized.
type Warning struct {
	Doc     string
	Ref     string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Doc, w.Message)
}

// Tree is one realized subtree of a document: the resolved entries together
// with the presentation options a host needs to render it.
type Tree struct {
	// Doc is the hosting docname with its source suffix stripped.
	Doc string
	// Index is the position of the source tree in the document's subtrees.
	Index   int
	Entries []numbering.Entry
	// Includes lists the docnames referenced by the tree, in display order.
	Includes []string

	Caption    string
	Hidden     bool
	MaxDepth   int
	Numbered   toc.Numbered
	Reversed   bool
	TitlesOnly bool
	Style      []string
	Restart    *bool
}

// Numbering returns the view of t consumed by a numbering session.
func (t *Tree) Numbering() *numbering.Tree {
	nt := &numbering.Tree{
		Doc:      t.Doc,
		Entries:  slices.Clone(t.Entries),
		Numbered: t.Numbered.Enabled,
		Style:    slices.Clone(t.Style),
	}
	if t.Restart != nil {
		restart := *t.Restart
		nt.Restart = &restart
	}
	return nt
}

// Result holds the realized trees and the warnings raised while building them.
type Result struct {
	Trees    []*Tree
	Warnings []Warning
}

// NumberingTrees returns the numbering view of every tree, in order.
func (r Result) NumberingTrees() []*numbering.Tree {
	out := make([]*numbering.Tree, len(r.Trees))
	for i, t := range r.Trees {
		out[i] = t.Numbering()
	}
	return out
}

// OptionsFromConfig takes the source suffixes and the missing-document
// policy from cfg. Exists and Glob are left to the host.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Suffixes:       slices.Clone(cfg.SourceSuffixes),
		ExcludeMissing: cfg.ExcludeMissing,
	}
}

// NewSession starts a numbering session. With multitoc numbering enabled,
// trees without their own restart flag continue the count of earlier trees.
func NewSession(cfg *config.Config, opts ...numbering.SessionOption) *numbering.Session {
	return numbering.NewSession(cfg.MultitocNumbering, opts...)
}

// Build realizes the navigation trees of one document. A docname that is not
// in the site map, or has no subtrees, yields an empty result.
func Build(sm *toc.SiteMap, docname string, opts Options) (Result, error) {
	if sm == nil {
		return Result{}, ErrNoSiteMap
	}
	var res Result
	doc, ok := sm.Get(docname)
	if !ok {
		return res, nil
	}
	host := opts.strip(doc.Name)

	for i, t := range doc.Subtrees {
		tree := &Tree{
			Doc:        host,
			Index:      i,
			Caption:    t.Caption,
			Hidden:     t.Hidden,
			MaxDepth:   t.MaxDepth,
			Numbered:   t.Numbered,
			Reversed:   t.Reversed,
			TitlesOnly: t.TitlesOnly,
			Style:      slices.Clone(t.Style),
		}
		if t.RestartNumbering != nil {
			restart := *t.RestartNumbering
			tree.Restart = &restart
		}

		for _, e := range t.Entries {
			switch v := e.(type) {
			case toc.URLEntry:
				tree.Entries = append(tree.Entries, numbering.Entry{Title: v.Title, Ref: v.URL})
			case toc.FileEntry:
				if entry, ok := res.resolve(sm, host, string(v), opts); ok {
					tree.add(entry)
				}
			case toc.GlobEntry:
				var matches []string
				if opts.Glob != nil {
					matches = opts.Glob(string(v))
				}
				if len(matches) == 0 {
					res.warn(host, string(v), fmt.Sprintf("toctree glob pattern '%s' didn't match any documents", v))
					continue
				}
				for _, m := range matches {
					if entry, ok := res.resolve(sm, host, m, opts); ok {
						tree.add(entry)
					}
				}
			}
		}

		if t.Reversed {
			slices.Reverse(tree.Entries)
			slices.Reverse(tree.Includes)
		}
		res.Trees = append(res.Trees, tree)
	}
	return res, nil
}

// BuildAll realizes the trees of every document in site-map order.
func BuildAll(sm *toc.SiteMap, opts Options) (Result, error) {
	if sm == nil {
		return Result{}, ErrNoSiteMap
	}
	var all Result
	for name := range sm.All() {
		res, err := Build(sm, name, opts)
		if err != nil {
			return Result{}, err
		}
		all.Trees = append(all.Trees, res.Trees...)
		all.Warnings = append(all.Warnings, res.Warnings...)
	}
	return all, nil
}

// Renumber builds every tree of the site map and applies them to the
// session. Titles and anchors are updated in place.
func Renumber(s *numbering.Session, sm *toc.SiteMap, titles numbering.Titles, anchors numbering.Anchors, opts Options) ([]Warning, error) {
	res, err := BuildAll(sm, opts)
	if err != nil {
		return nil, err
	}
	s.Apply(res.NumberingTrees(), titles, anchors)
	return res.Warnings, nil
}

func (r *Result) resolve(sm *toc.SiteMap, host, ref string, opts Options) (numbering.Entry, bool) {
	var title string
	if child, ok := sm.Get(ref); ok {
		title = child.Title
	}
	name := opts.strip(ref)

	if opts.Exists != nil && !opts.Exists(name) {
		if !opts.ExcludeMissing {
			r.warn(host, name, fmt.Sprintf("toctree contains reference to nonexisting document '%s'", name))
		}
		return numbering.Entry{}, false
	}
	return numbering.Entry{Title: title, Ref: name}, true
}

func (t *Tree) add(e numbering.Entry) {
	t.Entries = append(t.Entries, e)
	t.Includes = append(t.Includes, e.Ref)
}

func (r *Result) warn(doc, ref, msg string) {
	r.Warnings = append(r.Warnings, Warning{Doc: doc, Ref: ref, Message: msg})
}

func (o Options) strip(docname string) string {
	for _, suffix := range o.Suffixes {
		if suffix != "" && strings.HasSuffix(docname, suffix) {
			return strings.TrimSuffix(docname, suffix)
		}
	}
	return docname
}
