package numbering

import (
	"strconv"
	"strings"
)

// Part is one component of a section number. A part with a non-empty Label
// has already been rendered in a non-decimal style; otherwise Value is the
// plain counter.
type Part struct {
	Value int
	Label string
}

// Int returns a decimal part.
func Int(n int) Part { return Part{Value: n} }

// Label returns a part already rendered as text.
func Label(s string) Part { return Part{Label: s} }

// Rendered reports whether the part carries a styled label.
func (p Part) Rendered() bool { return p.Label != "" }

// String returns the label, or the decimal value.
func (p Part) String() string {
	if p.Label != "" {
		return p.Label
	}
	return strconv.Itoa(p.Value)
}

// Number is a section number such as 2.1.3, outermost part first.
type Number []Part

// Ints builds a decimal section number.
func Ints(values ...int) Number {
	n := make(Number, len(values))
	for i, v := range values {
		n[i] = Int(v)
	}
	return n
}

// String joins the parts with dots.
func (n Number) String() string {
	parts := make([]string, len(n))
	for i, p := range n {
		parts[i] = p.String()
	}
	return strings.Join(parts, ".")
}

// Clone returns a copy that can be modified independently.
func (n Number) Clone() Number {
	if n == nil {
		return nil
	}
	out := make(Number, len(n))
	copy(out, n)
	return out
}

// Equal reports whether both numbers have the same parts.
func (n Number) Equal(other Number) bool {
	if len(n) != len(other) {
		return false
	}
	for i := range n {
		if n[i] != other[i] {
			return false
		}
	}
	return true
}
