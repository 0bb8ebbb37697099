// Package numbering assigns section numbers across navigation trees in
// decimal, Roman or alphabetic styles.
package numbering

import (
	"strconv"
	"strings"
)

// Style is a section numbering style.
type Style string

const (
	// Numerical renders plain decimal numbers (1, 2, 3).
	Numerical Style = "numerical"
	// RomanUpper renders upper-case Roman numerals (I, II, III).
	RomanUpper Style = "romanupper"
	// RomanLower renders lower-case Roman numerals (i, ii, iii).
	RomanLower Style = "romanlower"
	// AlphaUpper renders bijective base-26 letters (A ... Z, AA).
	AlphaUpper Style = "alphaupper"
	// AlphaLower renders lower-case bijective base-26 letters (a ... z, aa).
	AlphaLower Style = "alphalower"
)

// decimalAlias is accepted wherever a style name is read.
const decimalAlias = "decimal"

// Styles lists the recognised styles in counter order.
var Styles = []Style{Numerical, RomanUpper, RomanLower, AlphaUpper, AlphaLower}

// ParseStyle resolves a style name. "decimal" is an alias of Numerical.
// The second return value is false for unrecognised names.
func ParseStyle(name string) (Style, bool) {
	switch Style(name) {
	case Numerical, RomanUpper, RomanLower, AlphaUpper, AlphaLower:
		return Style(name), true
	}
	if name == decimalAlias {
		return Numerical, true
	}
	return Style(name), false
}

// Known reports whether s is one of the five recognised styles.
func (s Style) Known() bool {
	_, ok := ParseStyle(string(s))
	return ok
}

// NormalizeStyles turns a style option (a single name, a list of names, or
// nothing) into a non-empty style list. Unknown names are kept as-is so the
// numbering pass can pass them through.
func NormalizeStyles(v any) []Style {
	var names []string
	switch s := v.(type) {
	case nil:
	case string:
		names = []string{s}
	case Style:
		names = []string{string(s)}
	case []string:
		names = s
	case []Style:
		for _, st := range s {
			names = append(names, string(st))
		}
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok {
				names = append(names, str)
			}
		}
	}

	out := make([]Style, 0, len(names))
	for _, name := range names {
		st, _ := ParseStyle(name)
		out = append(out, st)
	}
	if len(out) == 0 {
		out = append(out, Numerical)
	}
	return out
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// ToRoman renders n as an upper-case Roman numeral using subtractive
// notation. Zero and negative numbers render as "". Values above 3999 are
// written with repeated "M".
func ToRoman(n int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String()
}

// ToAlpha renders n in bijective base-26: 1 → A, 26 → Z, 27 → AA.
// Zero and negative numbers render as "".
func ToAlpha(n int) string {
	if n <= 0 {
		return ""
	}
	var buf []byte
	for n > 0 {
		n--
		buf = append(buf, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

// Render formats n in the given style. Unknown styles fall back to decimal.
func Render(style Style, n int) string {
	st, _ := ParseStyle(string(style))
	switch st {
	case RomanUpper:
		return ToRoman(n)
	case RomanLower:
		return strings.ToLower(ToRoman(n))
	case AlphaUpper:
		return ToAlpha(n)
	case AlphaLower:
		return strings.ToLower(ToAlpha(n))
	default:
		return strconv.Itoa(n)
	}
}
