package numbering

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func placeholderTitles(docs ...string) Titles {
	titles := make(Titles, len(docs))
	for _, d := range docs {
		titles[d] = &Heading{Title: d, Number: Ints(0)}
	}
	return titles
}

func leading(titles Titles, docs ...string) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = titles[d].Number[0].String()
	}
	return out
}

func rootTree(style []string, restart *bool, docs ...string) *Tree {
	t := &Tree{Doc: "index", Numbered: true, Style: style, Restart: restart}
	for _, d := range docs {
		t.Entries = append(t.Entries, Entry{Title: d, Ref: d})
	}
	return t
}

func TestApply_Decimal(t *testing.T) {
	titles := placeholderTitles("a", "b", "c")
	s := NewSession(false)

	s.Apply([]*Tree{rootTree(nil, boolPtr(true), "a", "b", "c")}, titles, nil)

	assert.Equal(t, []string{"1", "2", "3"}, leading(titles, "a", "b", "c"))
	assert.Equal(t, Int(1), titles["a"].Number[0])
	assert.Equal(t, 3, s.Count(Numerical))
}

func TestApply_RomanUpper(t *testing.T) {
	titles := placeholderTitles("a", "b", "c")
	s := NewSession(false)

	s.Apply([]*Tree{rootTree([]string{"romanupper"}, boolPtr(true), "a", "b", "c")}, titles, nil)

	assert.Equal(t, []string{"I", "II", "III"}, leading(titles, "a", "b", "c"))
	assert.Equal(t, 0, s.Count(Numerical))
	assert.Equal(t, 3, s.Count(RomanUpper))
}

func TestApply_SkipsUnnumberedDocuments(t *testing.T) {
	titles := placeholderTitles("a", "c")
	titles["b"] = &Heading{Title: "b"}
	s := NewSession(false)

	s.Apply([]*Tree{rootTree(nil, nil, "a", "b", "c", "missing")}, titles, nil)

	assert.Equal(t, []string{"1", "2"}, leading(titles, "a", "c"))
	assert.Nil(t, titles["b"].Number)
}

func TestApply_IgnoresTreesNotNumbered(t *testing.T) {
	titles := placeholderTitles("a")
	tree := rootTree(nil, nil, "a")
	tree.Numbered = false

	NewSession(false).Apply([]*Tree{tree}, titles, nil)

	assert.Equal(t, Ints(0), titles["a"].Number)
}

func TestApply_Monotonic(t *testing.T) {
	docs := []string{"d1", "d2", "d3", "d4", "d5", "d6", "d7", "d8"}
	titles := placeholderTitles(docs...)
	s := NewSession(true)

	s.Apply([]*Tree{rootTree([]string{"alphalower"}, nil, docs...)}, titles, nil)

	got := leading(titles, docs...)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, got)
}

func TestApply_RestartSemantics(t *testing.T) {
	t.Run("restart resets only its own style", func(t *testing.T) {
		titles := placeholderTitles("a", "b", "c", "d", "e")
		first := rootTree(nil, nil, "a", "b")
		second := rootTree([]string{"romanupper"}, nil, "c")
		third := rootTree(nil, boolPtr(true), "d", "e")

		s := NewSession(true)
		s.Apply([]*Tree{first, second, third}, titles, nil)

		assert.Equal(t, []string{"1", "2", "I", "1", "2"}, leading(titles, "a", "b", "c", "d", "e"))
		assert.Equal(t, 1, s.Count(RomanUpper))
	})

	t.Run("continuous numbering carries across trees", func(t *testing.T) {
		titles := placeholderTitles("a", "b", "c")
		s := NewSession(true)
		s.Apply([]*Tree{rootTree(nil, nil, "a", "b"), rootTree(nil, nil, "c")}, titles, nil)

		assert.Equal(t, []string{"1", "2", "3"}, leading(titles, "a", "b", "c"))
	})

	t.Run("non-continuous numbering restarts each tree", func(t *testing.T) {
		titles := placeholderTitles("a", "b", "c")
		s := NewSession(false)
		s.Apply([]*Tree{rootTree(nil, nil, "a", "b"), rootTree(nil, nil, "c")}, titles, nil)

		assert.Equal(t, []string{"1", "2", "1"}, leading(titles, "a", "b", "c"))
	})

	t.Run("explicit continue overrides global restart", func(t *testing.T) {
		titles := placeholderTitles("a", "b", "c")
		s := NewSession(false)
		s.Apply([]*Tree{rootTree(nil, nil, "a", "b"), rootTree(nil, boolPtr(false), "c")}, titles, nil)

		assert.Equal(t, []string{"1", "2", "3"}, leading(titles, "a", "b", "c"))
	})

	t.Run("counters persist across passes", func(t *testing.T) {
		titles := placeholderTitles("a", "b")
		s := NewSession(true)
		s.Apply([]*Tree{rootTree([]string{"alphaupper"}, nil, "a")}, titles, nil)
		s.Apply([]*Tree{rootTree([]string{"alphaupper"}, nil, "b")}, titles, nil)

		assert.Equal(t, []string{"A", "B"}, leading(titles, "a", "b"))
	})
}

func TestApply_NestedTreesShareOuterStyle(t *testing.T) {
	titles := Titles{
		"ch1":   {Title: "Chapter 1", Number: Ints(1)},
		"ch2":   {Title: "Chapter 2", Number: Ints(2)},
		"ch2.1": {Title: "Section", Number: Ints(2, 1)},
		"ch2.2": {Title: "Section", Number: Ints(2, 2)},
	}
	trees := []*Tree{
		rootTree([]string{"romanupper", "alphalower"}, nil, "ch1", "ch2"),
		{Doc: "ch2", Entries: []Entry{{Ref: "ch2.1"}, {Ref: "ch2.2"}}},
	}

	s := NewSession(false)
	s.Apply(trees, titles, nil)

	assert.Equal(t, "I", titles["ch1"].Number.String())
	assert.Equal(t, "II", titles["ch2"].Number.String())
	assert.Equal(t, "II.a", titles["ch2.1"].Number.String())
	assert.Equal(t, "II.b", titles["ch2.2"].Number.String())
	assert.Equal(t, 2, s.Count(RomanUpper), "nested entries must not count")
}

func TestApply_CyclicHostTreesTerminate(t *testing.T) {
	titles := Titles{
		"a": {Number: Ints(1)},
		"b": {Number: Ints(1, 1)},
	}
	trees := []*Tree{
		rootTree(nil, nil, "a"),
		{Doc: "a", Entries: []Entry{{Ref: "b"}}},
		{Doc: "b", Entries: []Entry{{Ref: "a"}}},
	}

	require.NotPanics(t, func() { NewSession(false).Apply(trees, titles, nil) })
}

func TestApply_ReconcilesAnchors(t *testing.T) {
	titles := Titles{
		"a": {Number: Ints(1)},
		"b": {Number: Ints(2)},
	}
	anchors := Anchors{
		"a": {"": Ints(1), "#intro": Ints(1, 1), "#stale": Ints(7, 1), "#empty": Number{}},
		"b": {"": Ints(2), "#deep": Ints(2, 3, 1)},
		"x": {"": Ints(1)},
	}

	s := NewSession(false)
	s.Apply([]*Tree{rootTree([]string{"alphaupper"}, nil, "a", "b")}, titles, anchors)

	assert.Equal(t, "A", anchors["a"][""].String())
	assert.Equal(t, "A.1", anchors["a"]["#intro"].String())
	assert.Equal(t, "7.1", anchors["a"]["#stale"].String(), "prefix mismatch is left untouched")
	assert.Empty(t, anchors["a"]["#empty"])
	assert.Equal(t, "B.3.1", anchors["b"]["#deep"].String())
	assert.Equal(t, "1", anchors["x"][""].String(), "documents not renumbered are untouched")

	changes := s.Changes()
	require.Contains(t, changes, "a")
	assert.Equal(t, Change{Old: Int(1), New: Label("A")}, changes["a"])
}

func TestApply_UnknownStylePassesThrough(t *testing.T) {
	titles := Titles{"a": {Number: Ints(5, 2)}}
	s := NewSession(false)

	s.Apply([]*Tree{rootTree([]string{"hebrew"}, nil, "a")}, titles, nil)

	assert.Equal(t, Ints(5, 2), titles["a"].Number)
	for _, st := range Styles {
		assert.Zero(t, s.Count(st))
	}
}

func TestRenumber(t *testing.T) {
	t.Run("numerical", func(t *testing.T) {
		s := NewSession(false)
		s.counters[Numerical] = 5
		out := s.renumber(Ints(1, 2, 3), []Style{Numerical})
		assert.Equal(t, Int(5), out[0])
	})

	t.Run("roman and alpha", func(t *testing.T) {
		s := NewSession(false)
		s.counters[RomanUpper] = 3
		s.counters[RomanLower] = 4
		s.counters[AlphaUpper] = 1
		s.counters[AlphaLower] = 2
		assert.Equal(t, Label("III"), s.renumber(Ints(1, 2), []Style{RomanUpper})[0])
		assert.Equal(t, Label("iv"), s.renumber(Ints(1, 2), []Style{RomanLower})[0])
		assert.Equal(t, Label("A"), s.renumber(Ints(1), []Style{AlphaUpper})[0])
		assert.Equal(t, Label("b"), s.renumber(Ints(1), []Style{AlphaLower})[0])
	})

	t.Run("empty input", func(t *testing.T) {
		s := NewSession(false)
		assert.Empty(t, s.renumber(Number{}, nil))
		assert.Nil(t, s.renumber(nil, nil))
	})

	t.Run("mixed styles", func(t *testing.T) {
		s := NewSession(false)
		s.counters[Numerical] = 2
		out := s.renumber(Ints(1, 5, 10), []Style{Numerical, RomanUpper, Numerical})
		assert.Equal(t, Int(2), out[0])
		assert.Equal(t, Label("V"), out[1])
		assert.Equal(t, Int(10), out[2])
	})

	t.Run("rendered parts are kept", func(t *testing.T) {
		s := NewSession(false)
		s.counters[Numerical] = 1
		in := Number{Int(1), Label("ii"), Int(3)}
		out := s.renumber(in, []Style{Numerical, RomanLower})
		assert.Equal(t, Label("ii"), out[1])
		assert.Equal(t, Int(3), out[2])
		assert.Equal(t, Int(1), in[0], "input is not modified")
	})
}

func TestRestartPolicy(t *testing.T) {
	assert.Equal(t, Inherit, PolicyOf(nil))
	assert.Equal(t, Restart, PolicyOf(boolPtr(true)))
	assert.Equal(t, Continue, PolicyOf(boolPtr(false)))

	assert.True(t, Inherit.Resolve(false))
	assert.False(t, Inherit.Resolve(true))
	assert.True(t, Restart.Resolve(true))
	assert.False(t, Continue.Resolve(false))
	assert.Equal(t, "inherit", Inherit.String())
}

func TestNewSession(t *testing.T) {
	a := NewSession(false)
	b := NewSession(false)
	assert.NotEqual(t, a.ID(), b.ID())
	for _, st := range Styles {
		assert.Zero(t, a.Count(st))
	}
	assert.Empty(t, a.Changes())
}

func TestSession_LogsCarryID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewSession(false, WithLogger(logger))

	tree := &Tree{
		Doc:      "index",
		Numbered: true,
		Style:    []string{"fancy"},
		Entries:  []Entry{{Ref: "a"}},
	}
	s.Apply([]*Tree{tree}, placeholderTitles("a"), nil)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2, "unknown style and pass summary")
	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		assert.Equal(t, s.ID(), rec["session"])
	}
}
