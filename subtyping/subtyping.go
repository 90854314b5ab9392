// Package subtyping implements the function-subtyping reconciliation
// pass: after the solver converges once, it walks every function key
// with both definition and declaration FVCs and promotes a
// declaration atom upward when the definition is strictly more
// restrictive.
package subtyping

import (
	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/solver"
)

// Pass walks every function key present in both s.FuncDeclMap and
// s.FuncDefnVarMap and reconciles the declaration-side PVCs against
// the definition-side ones, param by param and for the return. It
// returns true iff it raised any declaration atom's fixed floor; the
// environment does not change until the next solver.Solve applies it.
func Pass(s *constraints.Store) bool {
	changed := false

	for key, decls := range s.FuncDeclMap() {
		defns, ok := s.FuncDefnVarMap()[key]
		if !ok || len(defns) == 0 {
			continue
		}
		decl := constraints.HighestPriority(flattenFVCReturns(decls))
		defn := constraints.HighestPriority(flattenFVCReturns(defns))
		if reconcileOne(s, decl, defn) {
			changed = true
		}

		numParams := 0
		for _, d := range decls {
			if d.NumParams() > numParams {
				numParams = d.NumParams()
			}
		}
		for i := 0; i < numParams; i++ {
			declParam := constraints.HighestPriority(flattenFVCParam(decls, i))
			defnParam := constraints.HighestPriority(flattenFVCParam(defns, i))
			if reconcileOne(s, declParam, defnParam) {
				changed = true
			}
		}
	}

	return changed
}

func flattenFVCReturns(fvcs []*constraints.FVC) []*constraints.PVC {
	var out []*constraints.PVC
	for _, f := range fvcs {
		out = append(out, f.ReturnVars()...)
	}
	return out
}

func flattenFVCParam(fvcs []*constraints.FVC, i int) []*constraints.PVC {
	var out []*constraints.PVC
	for _, f := range fvcs {
		out = append(out, f.ParamVar(i)...)
	}
	return out
}

// reconcileOne implements the single-pair rule: if the definition's
// outermost atom is strictly more restrictive than the declaration's,
// the declaration is promoted up to match. There is no explicit
// parameter-count check against the declaration and definition: Pass's
// param loop bounds itself on the declaration's arity, and a definition
// missing that slot simply yields an invalid PVC here, which the
// IsValidPVC guard below turns into a no-op rather than a panic. An
// actual arity mismatch between a function's declaration and its
// definition is a link-time failure, caught before this pass ever runs.
func reconcileOne(s *constraints.Store, decl, defn *constraints.PVC) bool {
	if !constraints.IsValidPVC(decl) || !constraints.IsValidPVC(defn) {
		return false
	}
	declOuter, ok := decl.Outermost()
	if !ok {
		return false
	}
	defnOuter, ok := defn.Outermost()
	if !ok {
		return false
	}

	envDef := s.Env(defnOuter)
	envDecl := s.Env(declOuter)

	if envDef > envDecl {
		s.AddFixed(declOuter, envDef)
		return true
	}
	return false
}

// CombinedResult is the outcome of running the solve+subtyping loop
// to a fixed point.
type CombinedResult struct {
	Rounds  int
	Changed bool
}

// SolveWithSubtyping runs the combined loop:
//
//	repeat
//	  (_, _) = solve()
//	  if solveChanged then changed = subtypingPass()
//	  else changed = false
//	until not changed
//
// Termination follows from the environment rising monotonically in a
// finite lattice: each outer round either leaves the environment
// unchanged (stopping the loop) or raises at least one atom, which can
// happen only finitely many times.
func SolveWithSubtyping(s *constraints.Store, opts solver.Options) CombinedResult {
	result := CombinedResult{}
	everChanged := false

	for {
		result.Rounds++
		res := solver.Solve(s, opts)

		var changed bool
		if res.Changed {
			changed = Pass(s)
		}

		if changed {
			everChanged = true
		}
		if !changed {
			break
		}
	}

	result.Changed = everChanged
	return result
}
