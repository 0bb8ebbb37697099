package numbering

import (
	"log/slog"

	"github.com/google/uuid"
)

// Entry is one realized navigation entry: the display title (possibly empty)
// and the referenced docname or URL.
type Entry struct {
	Title string
	Ref   string
}

// Tree is a realized navigation tree owned by the host. Style may hold one
// name or several (outermost level first); nil means numerical.
type Tree struct {
	Doc      string
	Entries  []Entry
	Numbered bool
	Style    []string
	Restart  *bool
}

// Heading is the title and assigned section number of one document.
// A nil Number means the document is not numbered.
type Heading struct {
	Title  string
	Number Number
}

// Titles maps docname to its heading.
type Titles map[string]*Heading

// Anchors maps docname to the section numbers of the anchors inside it.
type Anchors map[string]map[string]Number

// RestartPolicy is the resolved form of a tree's restart flag.
type RestartPolicy uint8

const (
	// Inherit restarts unless numbering is continuous across trees.
	Inherit RestartPolicy = iota
	// Restart always resets the style counter before the tree.
	Restart
	// Continue never resets the style counter.
	Continue
)

// PolicyOf maps an optional restart flag to a policy.
func PolicyOf(flag *bool) RestartPolicy {
	switch {
	case flag == nil:
		return Inherit
	case *flag:
		return Restart
	default:
		return Continue
	}
}

// Resolve reports whether the counter restarts, given the site-wide
// continuous numbering flag.
func (p RestartPolicy) Resolve(continuous bool) bool {
	switch p {
	case Restart:
		return true
	case Continue:
		return false
	default:
		return !continuous
	}
}

func (p RestartPolicy) String() string {
	switch p {
	case Restart:
		return "restart"
	case Continue:
		return "continue"
	default:
		return "inherit"
	}
}

// Change records how the leading part of a document's number was rewritten.
type Change struct {
	Old Part
	New Part
}

// Session holds the running counters of one numbering pass over a site.
// Counters survive repeated Apply calls; a Session must not be shared by
// concurrent passes.
type Session struct {
	id         string
	continuous bool
	counters   map[Style]int
	changes    map[string]Change
	logger     *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a session with all counters at zero. continuous is the
// site-wide flag used by trees that do not set their own restart flag.
func NewSession(continuous bool, opts ...SessionOption) *Session {
	s := &Session{
		id:         uuid.New().String(),
		continuous: continuous,
		counters:   make(map[Style]int, len(Styles)),
		changes:    make(map[string]Change),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, st := range Styles {
		s.counters[st] = 0
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID identifies the session in log records. It is only used for log
// correlation and never appears in numbers or Changes.
func (s *Session) ID() string { return s.id }

// Count returns the current counter of a style.
func (s *Session) Count(style Style) int {
	st, _ := ParseStyle(string(style))
	return s.counters[st]
}

// Changes returns the leading-part rewrites of the last Apply, by docname.
func (s *Session) Changes() map[string]Change {
	out := make(map[string]Change, len(s.changes))
	for k, v := range s.changes {
		out[k] = v
	}
	return out
}

// Apply walks the numbered trees in order, rewrites the leading part of each
// referenced document's number in the configured style, and then patches
// the anchor numbers of every rewritten document. Titles and anchors are
// modified in place.
func (s *Session) Apply(trees []*Tree, titles Titles, anchors Anchors) {
	s.changes = make(map[string]Change)

	byDoc := make(map[string][]*Tree)
	for _, t := range trees {
		if t != nil {
			byDoc[t.Doc] = append(byDoc[t.Doc], t)
		}
	}

	walked := 0
	for _, t := range trees {
		if t == nil || !t.Numbered {
			continue
		}
		s.numberTree(t, byDoc, titles)
		walked++
	}

	patched := s.reconcile(anchors)

	s.logger.Debug("numbering pass complete",
		"session", s.id,
		"trees", walked,
		"documents", len(s.changes),
		"anchors", patched)
}

func (s *Session) numberTree(t *Tree, byDoc map[string][]*Tree, titles Titles) {
	styles := NormalizeStyles(t.Style)
	lead := styles[0]

	policy := PolicyOf(t.Restart)
	if policy.Resolve(s.continuous) && lead.Known() {
		s.counters[lead] = 0
	}

	visited := map[string]bool{t.Doc: true}
	for _, e := range t.Entries {
		h := titles[e.Ref]
		if h == nil || h.Number == nil {
			continue
		}
		if lead.Known() {
			s.counters[lead]++
		}
		s.rewrite(e.Ref, h, styles)
		s.descend(e.Ref, styles, byDoc, titles, visited)
	}
}

// descend applies the styles of an outer tree to the trees nested in doc.
// Nested documents share the outer counter value; nothing is incremented.
func (s *Session) descend(doc string, styles []Style, byDoc map[string][]*Tree, titles Titles, visited map[string]bool) {
	if visited[doc] {
		return
	}
	visited[doc] = true

	for _, t := range byDoc[doc] {
		for _, e := range t.Entries {
			h := titles[e.Ref]
			if h == nil || h.Number == nil {
				continue
			}
			s.rewrite(e.Ref, h, styles)
			s.descend(e.Ref, styles, byDoc, titles, visited)
		}
	}
}

func (s *Session) rewrite(doc string, h *Heading, styles []Style) {
	old := h.Number
	h.Number = s.renumber(old, styles)
	if len(old) == 0 {
		return
	}
	if c, ok := s.changes[doc]; ok {
		c.New = h.Number[0]
		s.changes[doc] = c
		return
	}
	s.changes[doc] = Change{Old: old[0], New: h.Number[0]}
}

// renumber sets the leading part to the current counter of the first style
// and renders deeper parts in their own style without counting.
func (s *Session) renumber(n Number, styles []Style) Number {
	if len(n) == 0 || len(styles) == 0 {
		return n
	}
	out := n.Clone()

	lead := styles[0]
	switch {
	case !lead.Known():
		s.logger.Debug("unknown numbering style, leaving number unchanged",
			"session", s.id, "style", string(lead))
	case lead == Numerical:
		out[0] = Int(s.counters[lead])
	default:
		out[0] = Label(Render(lead, s.counters[lead]))
	}

	for i := 1; i < len(out) && i < len(styles); i++ {
		st := styles[i]
		if out[i].Rendered() || st == Numerical || !st.Known() {
			continue
		}
		out[i] = Label(Render(st, out[i].Value))
	}
	return out
}

// reconcile substitutes the new leading part into anchor numbers that still
// start with the document's previous leading part.
func (s *Session) reconcile(anchors Anchors) int {
	patched := 0
	for doc, table := range anchors {
		c, ok := s.changes[doc]
		if !ok {
			continue
		}
		for name, num := range table {
			if len(num) == 0 || num[0] != c.Old {
				continue
			}
			updated := num.Clone()
			updated[0] = c.New
			table[name] = updated
			patched++
		}
	}
	return patched
}
