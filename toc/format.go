package toc

import "maps"

// DefaultFormat is the profile used when a ToC names none.
const DefaultFormat = "default"

// FileFormat is a named parsing profile. It selects the key names used for
// subtrees and items at each nesting depth and may supply option defaults.
type FileFormat struct {
	Name string
	// TocDefaults are applied to every tree unless overridden by the
	// author's defaults or the tree itself.
	TocDefaults        map[string]any
	SubtreesKeys       []string
	ItemsKeys          []string
	DefaultSubtreesKey string
	DefaultItemsKey    string
}

// SubtreesKey returns the subtrees key used at depth.
func (f FileFormat) SubtreesKey(depth int) string {
	if depth >= 0 && depth < len(f.SubtreesKeys) {
		return f.SubtreesKeys[depth]
	}
	return f.DefaultSubtreesKey
}

// ItemsKey returns the items key used at depth.
func (f FileFormat) ItemsKey(depth int) string {
	if depth >= 0 && depth < len(f.ItemsKeys) {
		return f.ItemsKeys[depth]
	}
	return f.DefaultItemsKey
}

// formats holds the known profiles; formatOrder keeps registration order.
var (
	formats     = make(map[string]FileFormat)
	formatOrder []string
)

func registerFormat(f FileFormat) {
	if _, exists := formats[f.Name]; !exists {
		formatOrder = append(formatOrder, f.Name)
	}
	formats[f.Name] = f
}

func init() {
	registerFormat(FileFormat{
		Name:               DefaultFormat,
		DefaultSubtreesKey: "subtrees",
		DefaultItemsKey:    "items",
	})
	registerFormat(FileFormat{
		Name:               "jb-book",
		TocDefaults:        map[string]any{"titlesonly": true},
		SubtreesKeys:       []string{"parts"},
		ItemsKeys:          []string{"chapters"},
		DefaultSubtreesKey: "subtrees",
		DefaultItemsKey:    "sections",
	})
	registerFormat(FileFormat{
		Name:               "jb-article",
		TocDefaults:        map[string]any{"titlesonly": true},
		DefaultSubtreesKey: "subtrees",
		DefaultItemsKey:    "sections",
	})
}

// LookupFormat returns the profile registered under name.
func LookupFormat(name string) (FileFormat, bool) {
	f, ok := formats[name]
	if !ok {
		return FileFormat{}, false
	}
	f.TocDefaults = maps.Clone(f.TocDefaults)
	return f, true
}

// FormatNames returns the registered profile names in registration order.
func FormatNames() []string {
	out := make([]string, len(formatOrder))
	copy(out, formatOrder)
	return out
}
