// Package refine implements the iterative itype-refinement driver: the
// outermost loop that alternates the solve+subtyping loop with itype
// detection, constraint erasure, and a full reset-and-restore, until no
// more equality edges are removed in a round.
package refine

import (
	"fmt"

	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/qual"
	"github.com/cs-au-dk/ccinfer/solver"
	"github.com/cs-au-dk/ccinfer/subtyping"
)

// Options configures the refinement driver.
type Options struct {
	// AllAtoms resolves the "outermost atom vs. every atom" ambiguity
	// the driver's detection step inherited from having two divergent
	// upstream implementations (see DESIGN.md): false compares only the
	// outermost atom of each PVC (the standalone-tool variant), true
	// walks every atom (the in-IDE variant).
	AllAtoms bool

	// EnablePropThruIType is forwarded to every solver.Solve call this
	// driver makes; see solver.Options.
	EnablePropThruIType bool
}

// Driver owns the per-function saved-values table across rounds of
// refinement. A fresh Driver should be constructed once per analysis
// session and reused across every Run/RunRounds call so modified-function
// detection has something to compare against.
type Driver struct {
	opts Options

	// saved holds, per function key, the last-observed environment
	// value for every parameter/return atom. A nil entry records "not
	// yet observed."
	saved map[string]map[constraints.AtomKey]*qual.Qualifier

	// currRound accumulates decl-atom -> new-constant pairs detected in
	// the round currently in progress; rebuilt at the start of every
	// detectAndUpdateITypeVars call.
	currRound currIterationItypeMap
}

// NewDriver constructs a refinement driver with the given options.
func NewDriver(opts Options) *Driver {
	return &Driver{
		opts:  opts,
		saved: make(map[string]map[constraints.AtomKey]*qual.Qualifier),
	}
}

// Stats reports what happened across the rounds of a Run call, for
// DumpStats consumption.
type Stats struct {
	Rounds               int
	TotalITypeVars       int
	TotalEdgesRemoved    int
	SolveSubtypingRounds int
}

// Run executes the pre-pass (performConstraintSetup plus the initial
// environment sanity assertion) and then the outer refinement loop to
// completion. Use Run for the first refinement of a session; use
// RunRounds to re-enter the loop later (e.g. from interactive
// invalidation) without re-asserting a pristine environment that no
// longer holds.
func Run(s *constraints.Store, d *Driver) (Stats, error) {
	if err := s.CheckInitialEnvSanity(); err != nil {
		return Stats{}, fmt.Errorf("refine: pre-pass sanity check failed: %w", err)
	}

	d.performConstraintSetup(s)

	return RunRounds(s, d)
}

// RunRounds runs the outer refinement loop to a fixed point, without
// the pre-pass setup or sanity assertion Run performs. d must already
// have been primed by a prior call to Run.
func RunRounds(s *constraints.Store, d *Driver) (Stats, error) {
	// The itype map grows monotonically and is bounded by the number of
	// atoms, so the outer loop cannot run more rounds than that without
	// a bug in detection or erasure; bail out with a diagnostic instead
	// of looping forever if that invariant is somehow violated.
	maxRounds := s.NumAtoms() + 1

	var stats Stats
	for {
		stats.Rounds++
		if stats.Rounds > maxRounds {
			return stats, fmt.Errorf("refine: exceeded %d rounds without reaching a fixed point", maxRounds)
		}

		combined := subtyping.SolveWithSubtyping(s, solver.Options{EnablePropThruIType: d.opts.EnablePropThruIType})
		stats.SolveSubtypingRounds += combined.Rounds

		modified := d.identifyModifiedFunctions(s)

		numITypeVars := d.detectAndUpdateITypeVars(s, modified)
		stats.TotalITypeVars += numITypeVars

		removed := resetWithItypeConstraints(s, d.currentRoundItypeMap())
		stats.TotalEdgesRemoved += removed

		if removed == 0 {
			break
		}
	}

	return stats, nil
}

// performConstraintSetup snapshots every parameter/return atom of
// every function that has both a definition and a declaration FVC, at
// nil (unobserved), seeding the saved-values table that
// identifyModifiedFunctions compares against on round 1.
func (d *Driver) performConstraintSetup(s *constraints.Store) bool {
	hasSome := false
	for key, defns := range s.FuncDefnVarMap() {
		if _, ok := s.FuncDeclMap()[key]; !ok {
			continue
		}
		hasSome = true
		table := d.saved[key]
		if table == nil {
			table = make(map[constraints.AtomKey]*qual.Qualifier)
			d.saved[key] = table
		}
		for _, fvc := range defns {
			for i := 0; i < fvc.NumParams(); i++ {
				for _, pvc := range fvc.ParamVar(i) {
					for _, a := range pvc.Atoms {
						table[a] = nil
					}
				}
			}
			for _, pvc := range fvc.ReturnVars() {
				for _, a := range pvc.Atoms {
					table[a] = nil
				}
			}
		}
	}
	return hasSome
}

// identifyModifiedFunctions compares every saved atom's value against
// its current environment value, updating the saved table in place and
// returning the set of function keys where at least one atom moved.
func (d *Driver) identifyModifiedFunctions(s *constraints.Store) map[string]bool {
	modified := make(map[string]bool)
	for key, table := range d.saved {
		for atom, prev := range table {
			cur := s.Env(atom)
			if prev == nil || *prev != cur {
				curCopy := cur
				table[atom] = &curCopy
				modified[key] = true
			}
		}
	}
	return modified
}

// currIterationItypeMap accumulates decl-atom → new-constant pairs
// detected in the current round; it is reset at the start of each call
// to detectAndUpdateITypeVars.
type currIterationItypeMap = map[constraints.AtomKey]qual.Qualifier

func (d *Driver) currentRoundItypeMap() currIterationItypeMap {
	return d.currRound
}

// detectAndUpdateITypeVars walks every modified function key and, for
// each parameter and the return, checks whether the definition-side
// atom is non-Wild while the declaration-side atom is Wild. If so, the
// declaration's recorded itype is updated to the definition's value in
// both the current-round map and the store's persistent itypeVarMap.
func (d *Driver) detectAndUpdateITypeVars(s *constraints.Store, modified map[string]bool) int {
	d.currRound = make(currIterationItypeMap)
	numITypeVars := 0

	for key := range modified {
		declFVCs := s.FuncDeclMap()[key]
		defnFVCs := s.FuncDefnVarMap()[key]
		if len(declFVCs) == 0 || len(defnFVCs) == 0 {
			continue
		}
		decl := constraints.HighestPriority(flattenReturns(declFVCs))
		defn := constraints.HighestPriority(flattenReturns(defnFVCs))

		declNumParams := maxNumParams(declFVCs)
		for i := 0; i < declNumParams; i++ {
			declP := constraints.HighestPriority(flattenParam(declFVCs, i))
			defnP := constraints.HighestPriority(flattenParam(defnFVCs, i))
			if d.detectOne(s, declP, defnP) {
				numITypeVars++
			}
		}

		if d.detectOne(s, decl, defn) {
			numITypeVars++
		}
	}

	return numITypeVars
}

// detectOne implements the per-pair detection rule, resolving the
// outermost-vs-all-atoms ambiguity via d.opts.AllAtoms.
func (d *Driver) detectOne(s *constraints.Store, decl, defn *constraints.PVC) bool {
	if !constraints.IsValidPVC(decl) || !constraints.IsValidPVC(defn) {
		return false
	}

	if !d.opts.AllAtoms {
		declOuter, ok := decl.Outermost()
		if !ok {
			return false
		}
		defnOuter, ok := defn.Outermost()
		if !ok {
			return false
		}
		return d.detectAtomPair(s, declOuter, defnOuter)
	}

	n := len(decl.Atoms)
	if len(defn.Atoms) < n {
		n = len(defn.Atoms)
	}
	any := false
	for i := 0; i < n; i++ {
		if d.detectAtomPair(s, decl.Atoms[i], defn.Atoms[i]) {
			any = true
		}
	}
	return any
}

func (d *Driver) detectAtomPair(s *constraints.Store, declAtom, defnAtom constraints.AtomKey) bool {
	if s.IsWild(defnAtom) || !s.IsWild(declAtom) {
		return false
	}
	itypeVal := s.Env(defnAtom)

	existing, ok := s.ItypeVarMap().Lookup(declAtom)
	if ok && existing == itypeVal {
		return false
	}

	s.RecordItype(declAtom, itypeVal)
	d.currRound[declAtom] = itypeVal
	return true
}

func flattenReturns(fvcs []*constraints.FVC) []*constraints.PVC {
	var out []*constraints.PVC
	for _, f := range fvcs {
		out = append(out, f.ReturnVars()...)
	}
	return out
}

func flattenParam(fvcs []*constraints.FVC, i int) []*constraints.PVC {
	var out []*constraints.PVC
	for _, f := range fvcs {
		out = append(out, f.ParamVar(i)...)
	}
	return out
}

func maxNumParams(fvcs []*constraints.FVC) int {
	max := 0
	for _, f := range fvcs {
		if f.NumParams() > max {
			max = f.NumParams()
		}
	}
	return max
}

// resetWithItypeConstraints builds a replacement map from the
// current-round itype map (NTArr values survive as new fixed edges,
// everything else is erase-only), applies resetErasedConstraints then
// replaceEqConstraints per atom, and if any edges were removed,
// snapshots the itype map's recorded values, resets the whole
// environment to Ptr, and restores the snapshot.
func resetWithItypeConstraints(s *constraints.Store, currRound currIterationItypeMap) int {
	replacement := make(map[constraints.AtomKey]*qual.Qualifier, len(currRound))
	for atom, val := range currRound {
		if val == qual.NTArr {
			v := val
			replacement[atom] = &v
		} else {
			replacement[atom] = nil
		}
	}

	s.ResetErasedConstraints()
	removed := s.ReplaceEqConstraints(replacement)

	if removed > 0 {
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

	return removed
}
