package solver

import (
	"testing"

	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/qual"
)

func TestSolveEmptyStoreNoOp(t *testing.T) {
	s := constraints.NewStore(true)
	s.FreshVar()
	res := Solve(s, Options{})
	if !res.Converged {
		t.Error("Converged = false, expected true")
	}
	if res.Changed {
		t.Error("Changed = true on an unconstrained store, expected false")
	}
	if res.NumIterations != 1 {
		t.Errorf("NumIterations = %d, expected 1 for a no-op solve", res.NumIterations)
	}
}

// Simple promotion: addEq(a,b); addFixed(a, Wild) -> after solve, both
// atoms are Wild.
func TestSolveSimplePromotion(t *testing.T) {
	s := constraints.NewStore(true)
	a, b := s.FreshVar(), s.FreshVar()
	s.AddEq(a, b)
	s.AddFixed(a, qual.Wild)

	res := Solve(s, Options{})
	if !res.Changed {
		t.Fatal("Changed = false, expected true")
	}
	if got := s.Env(a); got != qual.Wild {
		t.Errorf("Env(a) = %s, expected Wild", got)
	}
	if got := s.Env(b); got != qual.Wild {
		t.Errorf("Env(b) = %s, expected Wild", got)
	}
	if res.NumIterations <= 1 {
		t.Errorf("NumIterations = %d, expected > 1 (propagation happened)", res.NumIterations)
	}
}

func TestSolveImplicationRequiresGuard(t *testing.T) {
	s := constraints.NewStore(true)
	a, b := s.FreshVar(), s.FreshVar()
	// a >= Arr => b >= Arr, but a is never raised to Arr.
	s.AddImp(a, b, qual.Arr)
	s.AddFixed(a, qual.NTArr)

	Solve(s, Options{})
	if got := s.Env(b); got != qual.Ptr {
		t.Errorf("Env(b) = %s, expected Ptr (implication guard not satisfied)", got)
	}
}

func TestSolveImplicationFires(t *testing.T) {
	s := constraints.NewStore(true)
	a, b := s.FreshVar(), s.FreshVar()
	s.AddImp(a, b, qual.Arr)
	s.AddFixed(a, qual.Wild)

	Solve(s, Options{})
	if got := s.Env(b); got != qual.Arr {
		t.Errorf("Env(b) = %s, expected Arr", got)
	}
}

// Chained equalities all converge to the single fixed floor introduced
// anywhere in the chain.
func TestSolveChainedEqualityConvergesToSingleFixedPoint(t *testing.T) {
	s := constraints.NewStore(true)
	atoms := make([]constraints.AtomKey, 5)
	for i := range atoms {
		atoms[i] = s.FreshVar()
	}
	for i := 0; i < len(atoms)-1; i++ {
		s.AddEq(atoms[i], atoms[i+1])
	}
	s.AddFixed(atoms[len(atoms)-1], qual.Arr)

	Solve(s, Options{})
	for i, a := range atoms {
		if got := s.Env(a); got != qual.Arr {
			t.Errorf("Env(atoms[%d]) = %s, expected Arr", i, got)
		}
	}
}

func TestSolveIsIdempotent(t *testing.T) {
	s := constraints.NewStore(true)
	a, b := s.FreshVar(), s.FreshVar()
	s.AddEq(a, b)
	s.AddFixed(a, qual.Wild)

	Solve(s, Options{})
	envAfterFirst := s.Environment()

	res := Solve(s, Options{})
	if res.Changed {
		t.Error("second Solve on an already-converged store reported Changed = true")
	}
	for k, v := range envAfterFirst {
		if s.Env(k) != v {
			t.Errorf("Env(%s) changed across idempotent re-solve: %s -> %s", k, v, s.Env(k))
		}
	}
}

// By default (EnablePropThruIType unset), an atom already recorded in
// the itype map still takes its own raised value but does not forward
// it to its equality neighbors.
func TestSolveBlocksPropagationThroughItypeAtomByDefault(t *testing.T) {
	s := constraints.NewStore(true)
	a, b := s.FreshVar(), s.FreshVar()
	s.AddEq(a, b)
	s.RecordItype(a, qual.NTArr)
	s.AddFixed(a, qual.Wild)

	Solve(s, Options{})
	if got := s.Env(a); got != qual.Wild {
		t.Errorf("Env(a) = %s, expected Wild (itype atom still takes its own fixed value)", got)
	}
	if got := s.Env(b); got != qual.Ptr {
		t.Errorf("Env(b) = %s, expected Ptr (propagation through itype atom blocked by default)", got)
	}
}

// EnablePropThruIType reverts to the unconditional propagation
// behavior: an itype atom's neighbors still see its raised value.
func TestSolveAllowsPropagationThroughItypeAtomWhenEnabled(t *testing.T) {
	s := constraints.NewStore(true)
	a, b := s.FreshVar(), s.FreshVar()
	s.AddEq(a, b)
	s.RecordItype(a, qual.NTArr)
	s.AddFixed(a, qual.Wild)

	Solve(s, Options{EnablePropThruIType: true})
	if got := s.Env(b); got != qual.Wild {
		t.Errorf("Env(b) = %s, expected Wild (propagation through itype atom allowed)", got)
	}
}

func TestSolveNeverExceedsWild(t *testing.T) {
	s := constraints.NewStore(true)
	a := s.FreshVar()
	s.AddFixed(a, qual.Wild)
	s.AddFixed(a, qual.Wild)
	Solve(s, Options{})
	if got := s.Env(a); got != qual.Wild {
		t.Errorf("Env(a) = %s, expected Wild (absorbing top)", got)
	}
}
