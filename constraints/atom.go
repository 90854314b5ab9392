package constraints

import "fmt"

// AtomKey identifies a variable atom: a freshly minted placeholder with
// a stable integer key and a current assignment tracked in the Store's
// environment. Constant atoms need no identity beyond a qual.Qualifier
// value, so only variable atoms get a key type.
type AtomKey int

func (k AtomKey) String() string {
	return fmt.Sprintf("v%d", int(k))
}

// Location is the source position a PVC is attached to.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}
