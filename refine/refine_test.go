package refine

import (
	"testing"

	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/qual"
)

func setupFunc(s *constraints.Store, key string, declOuter, defnOuter constraints.AtomKey) {
	decl := constraints.NewFVC(key, 0, 0)
	decl.Returns = []*constraints.PVC{constraints.NewPVC([]constraints.AtomKey{declOuter}, constraints.Location{}, "", 0)}
	defn := constraints.NewFVC(key, 0, 0)
	defn.Returns = []*constraints.PVC{constraints.NewPVC([]constraints.AtomKey{defnOuter}, constraints.Location{}, "", 0)}
	s.AddFuncDecl(decl)
	s.AddFuncDefn(defn)
}

func TestRunDetectsITypeOnWildDeclaration(t *testing.T) {
	s := constraints.NewStore(true)
	d, n := s.FreshVar(), s.FreshVar()
	setupFunc(s, "f", d, n)

	s.AddFixed(n, qual.Arr)
	s.AddFixed(d, qual.Wild)

	driver := NewDriver(Options{})
	if _, err := Run(s, driver); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	val, ok := s.ItypeVarMap().Lookup(d)
	if !ok {
		t.Fatalf("itypeVarMap has no entry for d")
	}
	if val != qual.Arr {
		t.Errorf("itypeVarMap[d] = %s, expected Arr", val)
	}
}

// Boundary scenario 3: "NTArr preservation" — NTArr is the one
// qualifier kept as a brand-new fixed edge rather than simply erased.
// d is driven Wild through an equality edge to a separately-fixed atom
// rather than by AddFixed(d, Wild) directly, so d's own fixed floor
// stays at Ptr and the NTArr install actually takes — AddFixed joins
// monotonically, so a Wild floor on d would otherwise absorb it.
func TestRunPreservesNTArrAsFixedEdge(t *testing.T) {
	s := constraints.NewStore(true)
	d, n := s.FreshVar(), s.FreshVar()
	setupFunc(s, "f", d, n)

	w := s.FreshVar()
	s.AddEq(d, w)
	s.AddFixed(w, qual.Wild)
	s.AddFixed(n, qual.NTArr)

	driver := NewDriver(Options{})
	if _, err := Run(s, driver); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	val, ok := s.ItypeVarMap().Lookup(d)
	if !ok || val != qual.NTArr {
		t.Fatalf("itypeVarMap[d] = (%s, %v), expected (NTArr, true)", val, ok)
	}
	if got := s.Fixed(d); got != qual.NTArr {
		t.Errorf("Fixed(d) = %s, expected NTArr installed as a new fixed edge", got)
	}
}

func TestRunFailsSanityCheckOnDirtyStore(t *testing.T) {
	s := constraints.NewStore(true)
	a := s.FreshVar()
	s.SetEnv(a, qual.Wild)

	driver := NewDriver(Options{})
	if _, err := Run(s, driver); err == nil {
		t.Error("expected Run to fail pre-pass sanity check, got nil error")
	}
}

// Itype map entries are only ever added, never removed.
func TestItypeMapOnlyGrows(t *testing.T) {
	s := constraints.NewStore(true)
	d, n := s.FreshVar(), s.FreshVar()
	setupFunc(s, "f", d, n)
	s.AddFixed(n, qual.Arr)
	s.AddFixed(d, qual.Wild)

	sizeBefore := s.ItypeVarMap().Size()

	driver := NewDriver(Options{})
	if _, err := Run(s, driver); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if s.ItypeVarMap().Size() <= sizeBefore {
		t.Errorf("itypeVarMap.Size() did not grow: before=%d after=%d", sizeBefore, s.ItypeVarMap().Size())
	}
}

func TestAllAtomsOptionWalksEveryAtom(t *testing.T) {
	s := constraints.NewStore(true)
	declOuter, declInner := s.FreshVar(), s.FreshVar()
	defnOuter, defnInner := s.FreshVar(), s.FreshVar()

	decl := constraints.NewFVC("f", 0, 0)
	decl.Returns = []*constraints.PVC{constraints.NewPVC([]constraints.AtomKey{declOuter, declInner}, constraints.Location{}, "", 0)}
	defn := constraints.NewFVC("f", 0, 0)
	defn.Returns = []*constraints.PVC{constraints.NewPVC([]constraints.AtomKey{defnOuter, defnInner}, constraints.Location{}, "", 0)}
	s.AddFuncDecl(decl)
	s.AddFuncDefn(defn)

	s.AddFixed(defnOuter, qual.Arr)
	s.AddFixed(defnInner, qual.Arr)
	s.AddFixed(declOuter, qual.Wild)
	s.AddFixed(declInner, qual.Wild)

	driver := NewDriver(Options{AllAtoms: true})
	if _, err := Run(s, driver); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if _, ok := s.ItypeVarMap().Lookup(declInner); !ok {
		t.Errorf("AllAtoms=true should have detected an itype on the inner atom too")
	}
}
