// Package solver implements a monotone worklist propagator: it drives
// a constraints.Store's environment to the unique least fixed point
// consistent with every equality, implication, and fixed constraint
// currently recorded in the store.
package solver

import (
	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/qual"
	"github.com/cs-au-dk/ccinfer/utils/worklist"
)

// Options configures a single Solve call.
type Options struct {
	// EnablePropThruIType allows propagation to continue past an atom
	// that already has a recorded itype (constraints.ItypeMap entry).
	// When false (the default), such an atom still receives its own
	// raised value but does not forward it to its equality/implication
	// neighbors — the itype edge is treated as a propagation boundary.
	EnablePropThruIType bool
}

// Result is the outcome of a single Solve call.
type Result struct {
	// Converged is always true: the solver never fails (an atom
	// forced above Wild is impossible, since Wild is absorbing).
	Converged bool
	// NumIterations counts pop-and-process steps, not outer passes.
	NumIterations int
	// Changed reports whether any atom's assignment actually rose
	// above its pre-solve value.
	Changed bool
}

// Solve propagates every fixed, equality, and implication constraint
// in s to a fixed point, starting from s's current environment (not
// necessarily all-Ptr — refine's outer rounds call Solve repeatedly
// without resetting fixed floors each time).
func Solve(s *constraints.Store, opts Options) Result {
	w := worklist.Empty[constraints.AtomKey]()
	changed := false

	// Seed: every atom whose fixed floor is above its current value gets
	// raised, and every atom above Ptr is enqueued, so values carried
	// over from an earlier solve still reach edges added since then.
	for i := 0; i < s.NumAtoms(); i++ {
		a := constraints.AtomKey(i)
		fixed := s.Fixed(a)
		if fixed > qual.Ptr && s.Env(a) < fixed {
			s.SetEnv(a, fixed)
			changed = true
		}
		if s.Env(a) > qual.Ptr {
			w.Add(a)
		}
	}

	iterations := 0
	for !w.IsEmpty() {
		iterations++
		a := w.GetNext()
		k := s.Env(a)

		if !opts.EnablePropThruIType {
			if _, ok := s.ItypeVarMap().Lookup(a); ok {
				continue
			}
		}

		for _, b := range s.EqNeighbors(a) {
			if s.Env(b) < k {
				s.SetEnv(b, k)
				changed = true
				w.Add(b)
			}
		}

		for _, e := range s.ImpTargets(a, k) {
			if s.Env(e.To) < e.K {
				s.SetEnv(e.To, e.K)
				changed = true
				w.Add(e.To)
			}
		}
	}

	if iterations == 0 {
		iterations = 1
	}

	return Result{Converged: true, NumIterations: iterations, Changed: changed}
}
