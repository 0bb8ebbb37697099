package tocfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/executablebooks/sphinx-external-toc/toc"
)

const bookYAML = `
root: intro
format: jb-book
parts:
  - caption: Part One
    chapters:
      - file: chapter1
        sections:
          - file: chapter1/section1
      - url: https://example.com
        title: Example
meta:
  regress: true
`

const bookJSON = `{
  "root": "intro",
  "format": "jb-book",
  "parts": [
    {
      "caption": "Part One",
      "chapters": [
        {"file": "chapter1", "sections": [{"file": "chapter1/section1"}]},
        {"url": "https://example.com", "title": "Example"}
      ]
    }
  ],
  "meta": {"regress": true}
}`

const bookTOML = `
root = "intro"
format = "jb-book"

[meta]
regress = true

[[parts]]
caption = "Part One"

[[parts.chapters]]
file = "chapter1"

[[parts.chapters.sections]]
file = "chapter1/section1"

[[parts.chapters]]
url = "https://example.com"
title = "Example"
`

func TestSourceFor(t *testing.T) {
	tests := []struct {
		path string
		want Source
	}{
		{"_toc.yml", SourceYAML},
		{"docs/_toc.YAML", SourceYAML},
		{"toc.json", SourceJSON},
		{"toc.toml", SourceTOML},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := SourceFor(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := SourceFor("toc.ini")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestDecode_AllSourcesAgree(t *testing.T) {
	parse := func(src Source, text string) *toc.SiteMap {
		t.Helper()
		raw, err := Decode(strings.NewReader(text), src)
		require.NoError(t, err)
		sm, err := toc.Parse(raw)
		require.NoError(t, err)
		return sm
	}

	fromYAML := parse(SourceYAML, bookYAML)
	fromJSON := parse(SourceJSON, bookJSON)
	fromTOML := parse(SourceTOML, bookTOML)

	assert.Equal(t, []string{"intro", "chapter1", "chapter1/section1"}, fromYAML.Names())
	assert.Equal(t, "jb-book", fromYAML.FileFormat())
	assert.True(t, fromYAML.Equal(fromJSON), "json differs from yaml")
	assert.True(t, fromYAML.Equal(fromTOML), "toml differs from yaml")
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		text string
	}{
		{"empty yaml", SourceYAML, ""},
		{"yaml list", SourceYAML, "- a\n- b\n"},
		{"broken json", SourceJSON, "{"},
		{"json null", SourceJSON, "null"},
		{"broken toml", SourceTOML, "root = "},
		{"unknown source", Source("ini"), "root=a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.text), tt.src)
			assert.Error(t, err)
		})
	}
}

func TestEncode_YAMLKeyOrder(t *testing.T) {
	data := map[string]any{
		"meta":   map[string]any{"regress": true},
		"format": "jb-book",
		"parts": []any{
			map[string]any{
				"chapters": []any{map[string]any{"title": "Chapter", "file": "chapter1"}},
				"caption":  "Part One",
			},
		},
		"root": "intro",
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, SourceYAML, data))
	out := buf.String()

	order := []string{"root:", "format:", "parts:", "caption: Part One", "chapters:", "file: chapter1", "title: Chapter", "meta:"}
	last := -1
	for _, key := range order {
		idx := strings.Index(out, key)
		require.GreaterOrEqual(t, idx, 0, "missing %q in:\n%s", key, out)
		assert.Greater(t, idx, last, "%q out of order in:\n%s", key, out)
		last = idx
	}
}

func TestEncode_TOMLDropsNulls(t *testing.T) {
	data := map[string]any{
		"root":  "intro",
		"title": nil,
		"items": []any{"a", nil, "b"},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, SourceTOML, data))
	assert.NotContains(t, buf.String(), "title")

	back, err := Decode(&buf, SourceTOML)
	require.NoError(t, err)
	assert.Equal(t, "intro", back["root"])
	assert.Equal(t, []any{"a", "b"}, back["items"])
}

func TestEncode_UnknownSource(t *testing.T) {
	err := Encode(&bytes.Buffer{}, Source("ini"), map[string]any{})
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}
