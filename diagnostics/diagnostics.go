// Package diagnostics computes equivalence classes of wild atoms and
// the diagnostic bridge surfacing them: classifying wild atoms into
// equivalence classes via union-find over the equality graph, and
// surfacing one diagnostic per located wild atom, aggregated by file.
//
// The equivalence-class grouping idiom follows a familiar points-to-set
// construction (building one *disjoint.Element per value, then
// unioning along same-set edges and grouping by representative),
// applied here to wild-atom equality edges instead of points-to edges.
package diagnostics

import (
	uf "github.com/spakin/disjoint"

	"github.com/cs-au-dk/ccinfer/constraints"
)

// DefaultPtrSize is the column-width fallback used to synthesize a
// diagnostic range's end column from a single point location.
const DefaultPtrSize = 4

// WildClass is one equivalence class of atoms that ended up Wild
// because they are connected by an equality edge, together with the
// reason string recorded for one of its members. When several members
// have a recorded reason, which one is chosen is not defined; the
// order in which members were pinned Wild is not tracked.
type WildClass struct {
	Atoms  []constraints.AtomKey
	Reason string
}

// DisjointSet is the result of ComputePointerDisjointSet: every wild
// atom's equivalence class, plus a reverse lookup from atom to reason.
type DisjointSet struct {
	Classes []WildClass

	// reasons maps every wild atom with a known reason to that reason
	// string, regardless of which class member it came from.
	reasons map[constraints.AtomKey]string
}

// ReasonFor returns the wild-reason recorded for atom, if any.
func (d *DisjointSet) ReasonFor(atom constraints.AtomKey) (string, bool) {
	r, ok := d.reasons[atom]
	return r, ok
}

// ComputePointerDisjointSet classifies every currently-Wild atom into
// equivalence classes by traversing active equality edges, and records
// for each class the Store.WildReason of one member that has one (see
// WildClass for which).
func ComputePointerDisjointSet(s *constraints.Store) *DisjointSet {
	elements := make(map[constraints.AtomKey]*uf.Element)
	n := s.NumAtoms()

	for i := 0; i < n; i++ {
		a := constraints.AtomKey(i)
		if s.IsWild(a) {
			elements[a] = uf.NewElement()
		}
	}

	for a, el := range elements {
		for _, b := range s.EqNeighbors(a) {
			if bel, ok := elements[b]; ok {
				uf.Union(el, bel)
			}
		}
	}

	groups := make(map[*uf.Element][]constraints.AtomKey)
	for a, el := range elements {
		rep := el.Find()
		groups[rep] = append(groups[rep], a)
	}

	ds := &DisjointSet{reasons: make(map[constraints.AtomKey]string)}
	for _, atoms := range groups {
		reason := ""
		for _, a := range atoms {
			if r, ok := s.WildReason(a); ok {
				reason = r
				break
			}
		}
		if reason != "" {
			for _, a := range atoms {
				ds.reasons[a] = reason
			}
		}
		ds.Classes = append(ds.Classes, WildClass{Atoms: atoms, Reason: reason})
	}

	return ds
}

// Severity mirrors the DiagnosticsEngine::Level the bridge surfaces;
// the core only ever emits Error-severity diagnostics, but the field
// is kept open for a collaborator to downgrade.
type Severity int

const (
	Error Severity = iota
)

// Diagnostic is the diagnostic bridge's unit: one per wild atom with a
// known source location.
type Diagnostic struct {
	FilePath   string
	Line       int // zero-based, matching the LSP range convention
	Column     int
	EndColumn  int
	Code       int // = ptr ID (the atom key)
	Severity   Severity
	Message    string
}

// PtrIDFromCode recovers the atom key a diagnostic's Code field
// encodes: a caller that only has a diagnostic (e.g. one the user
// clicked on in an editor) can map it straight back to the atom to
// invalidate.
func PtrIDFromCode(code int) constraints.AtomKey {
	return constraints.AtomKey(code)
}

// Collect builds one Diagnostic per Wild atom with a known location,
// aggregated by file path: one-based source lines become zero-based
// diagnostic ranges, and the end column is the start column plus
// DefaultPtrSize since atoms carry only a point location, not a true
// source range.
func Collect(s *constraints.Store, locs map[constraints.AtomKey]constraints.Location, ds *DisjointSet) map[string][]Diagnostic {
	byFile := make(map[string][]Diagnostic)

	for atom, loc := range locs {
		if !s.IsWild(atom) {
			continue
		}
		reason, _ := ds.ReasonFor(atom)

		d := Diagnostic{
			FilePath:  loc.File,
			Line:      loc.Line - 1,
			Column:    loc.Column,
			EndColumn: loc.Column + DefaultPtrSize,
			Code:      int(atom),
			Severity:  Error,
			Message:   "Pointer is wild because of: " + reason,
		}
		byFile[loc.File] = append(byFile[loc.File], d)
	}

	return byFile
}
