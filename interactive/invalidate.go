// Package interactive implements the optional language-server edge:
// makeSinglePtrNonWild, the only operation in the core that is
// thread-safe by contract. Every other package assumes single-owner
// access; this one serializes through a mutex owned by the session.
package interactive

import (
	"sync"

	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/qual"
	"github.com/cs-au-dk/ccinfer/refine"
)

// Invalidator serializes calls to Invalidate. A session owns exactly
// one Invalidator for the lifetime of an analysis.
type Invalidator struct {
	mu     sync.Mutex
	driver *refine.Driver
}

// NewInvalidator constructs an Invalidator that drives refinement
// rounds with d after every invalidation.
func NewInvalidator(d *refine.Driver) *Invalidator {
	return &Invalidator{driver: d}
}

// Invalidate implements makeSinglePtrNonWild(key): take a snapshot of
// the current wild-atom set, reset all atoms' erased constraints,
// install fixedMap[key] := Wild via replaceEqConstraints, re-run the
// full refinement driver, and report whether the set of wild atoms
// shrank as a result (was-wild, is-no-longer-wild is non-empty).
//
// This is the only exported entry point in the package, and it is the
// only operation in the whole core guarded by a mutex: every other
// package's functions assume the caller is not calling concurrently.
func (inv *Invalidator) Invalidate(s *constraints.Store, key constraints.AtomKey) (bool, error) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	wasWild := wildSet(s)

	s.ResetErasedConstraints()
	wild := qual.Wild
	removed := s.ReplaceEqConstraints(map[constraints.AtomKey]*qual.Qualifier{key: &wild})

	// Total reset-and-restore: since we just erased equalities the same
	// way a freshly detected itype would, every other atom must
	// re-derive from Ptr rather than keep whatever the solver left
	// behind from before the invalidation.
	if removed > 0 {
		resetAndRestoreItypes(s)
	}

	if _, err := refine.RunRounds(s, inv.driver); err != nil {
		return false, err
	}

	isWild := wildSet(s)

	for atom := range wasWild {
		if !isWild[atom] {
			return true, nil
		}
	}
	return false, nil
}

func resetAndRestoreItypes(s *constraints.Store) {
	type snap struct {
		atom constraints.AtomKey
		val  qual.Qualifier
	}
	var snapshot []snap
	s.ItypeVarMap().ForEach(func(atom constraints.AtomKey, _ qual.Qualifier) {
		snapshot = append(snapshot, snap{atom: atom, val: s.Env(atom)})
	})

	s.Reset()

	for _, e := range snapshot {
		s.SetEnv(e.atom, e.val)
	}
}

func wildSet(s *constraints.Store) map[constraints.AtomKey]bool {
	set := make(map[constraints.AtomKey]bool)
	for i := 0; i < s.NumAtoms(); i++ {
		a := constraints.AtomKey(i)
		if s.IsWild(a) {
			set[a] = true
		}
	}
	return set
}
