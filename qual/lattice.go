// Package qual implements the pointer-qualifier lattice Q used by the
// constraint store and solver: a four-element total order
//
//	Ptr < NTArr < Arr < Wild
//
// Ptr is the bottom (a single-object pointer, most precise); Wild is
// the top (unconvertible, least precise). The lattice is a total order,
// so leq/join reduce to a static table lookup: a handful of named
// constants plus a height table, no general algebraic machinery.
package qual

import "github.com/fatih/color"

// Qualifier is an element of the four-element pointer-qualifier lattice.
type Qualifier uint8

const (
	// Ptr is the bottom element: a safe single-object pointer.
	Ptr Qualifier = iota
	// NTArr is a null-terminated array pointer.
	NTArr
	// Arr is a general array pointer.
	Arr
	// Wild is the top element: the pointer could not be refined.
	Wild
)

// height gives the static total order of Q; index is the Qualifier value.
var height = [...]int{
	Ptr:   0,
	NTArr: 1,
	Arr:   2,
	Wild:  3,
}

var names = [...]string{
	Ptr:   "Ptr",
	NTArr: "NTArr",
	Arr:   "Arr",
	Wild:  "Wild",
}

var colorOf = [...]func(...interface{}) string{
	Ptr:   color.New(color.FgGreen).SprintFunc(),
	NTArr: color.New(color.FgYellow).SprintFunc(),
	Arr:   color.New(color.FgHiYellow).SprintFunc(),
	Wild:  color.New(color.FgRed).SprintFunc(),
}

// NoColorize, when set by the CLI's -no-colorize flag, disables the
// coloring of String() output.
var NoColorize = false

func (q Qualifier) String() string {
	if int(q) >= len(names) {
		return "invalid-qualifier"
	}
	if NoColorize {
		return names[q]
	}
	return colorOf[q](names[q])
}

// Name returns q's bare, uncolorized name, for contexts like JSON dumps
// where ANSI escapes would corrupt the output regardless of NoColorize.
func (q Qualifier) Name() string {
	if int(q) >= len(names) {
		return "invalid-qualifier"
	}
	return names[q]
}

// Height returns the distance from Ptr (the bottom) to q.
func (q Qualifier) Height() int {
	return height[q]
}

// Leq reports whether a is less than or equal to b in Q.
func Leq(a, b Qualifier) bool {
	return height[a] <= height[b]
}

// Join returns the least upper bound of a and b. Since Q is a total
// order, join is just max.
func Join(a, b Qualifier) Qualifier {
	if height[a] >= height[b] {
		return a
	}
	return b
}

// IsWild reports whether q is the top element.
func IsWild(q Qualifier) bool {
	return q == Wild
}

// Collapse maps NTArr and Arr down to Wild when allTypes is false,
// implementing the -AllTypes configuration flag: with the full lattice
// disabled, only Ptr and Wild are meaningful results.
func Collapse(q Qualifier, allTypes bool) Qualifier {
	if allTypes {
		return q
	}
	if q == NTArr || q == Arr {
		return Wild
	}
	return q
}
