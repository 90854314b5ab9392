package diagnostics

import (
	"testing"

	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/qual"
	"github.com/cs-au-dk/ccinfer/solver"
)

func TestComputePointerDisjointSetGroupsConnectedWildAtoms(t *testing.T) {
	s := constraints.NewStore(true)
	a, b, c := s.FreshVar(), s.FreshVar(), s.FreshVar()
	s.AddEq(a, b)
	s.AddFixedWithReason(a, qual.Wild, "unsafe cast")
	solver.Solve(s, solver.Options{})

	ds := ComputePointerDisjointSet(s)

	var classOf = func(atom constraints.AtomKey) *WildClass {
		for i := range ds.Classes {
			for _, x := range ds.Classes[i].Atoms {
				if x == atom {
					return &ds.Classes[i]
				}
			}
		}
		return nil
	}

	cls := classOf(a)
	if cls == nil {
		t.Fatal("atom a not found in any wild class")
	}
	found := false
	for _, x := range cls.Atoms {
		if x == b {
			found = true
		}
	}
	if !found {
		t.Error("a and b should be in the same wild class (connected by equality edge)")
	}
	if cls.Reason != "unsafe cast" {
		t.Errorf("class reason = %q, expected %q", cls.Reason, "unsafe cast")
	}

	if classOf(c) != nil {
		t.Error("c should not be classified (never wild)")
	}
}

func TestReasonForUnknownAtom(t *testing.T) {
	s := constraints.NewStore(true)
	ds := ComputePointerDisjointSet(s)
	if _, ok := ds.ReasonFor(constraints.AtomKey(99)); ok {
		t.Error("ReasonFor on an unclassified atom should report ok=false")
	}
}

func TestCollectAggregatesByFile(t *testing.T) {
	s := constraints.NewStore(true)
	a, b := s.FreshVar(), s.FreshVar()
	s.AddFixedWithReason(a, qual.Wild, "escapes to union")
	s.AddFixed(b, qual.Ptr)
	solver.Solve(s, solver.Options{})

	locs := map[constraints.AtomKey]constraints.Location{
		a: {File: "foo.c", Line: 10, Column: 5},
		b: {File: "foo.c", Line: 20, Column: 1},
	}

	ds := ComputePointerDisjointSet(s)
	byFile := Collect(s, locs, ds)

	diags, ok := byFile["foo.c"]
	if !ok {
		t.Fatal("expected a diagnostic entry for foo.c")
	}
	if len(diags) != 1 {
		t.Fatalf("len(diags) = %d, expected 1 (only a is wild)", len(diags))
	}
	d := diags[0]
	if d.Line != 9 {
		t.Errorf("Line = %d, expected 9 (zero-based from 1-based source line 10)", d.Line)
	}
	if d.EndColumn != 5+DefaultPtrSize {
		t.Errorf("EndColumn = %d, expected %d", d.EndColumn, 5+DefaultPtrSize)
	}
	if d.Code != int(a) {
		t.Errorf("Code = %d, expected %d", d.Code, int(a))
	}
	if PtrIDFromCode(d.Code) != a {
		t.Errorf("PtrIDFromCode round trip failed: got %s, expected %s", PtrIDFromCode(d.Code), a)
	}
}
