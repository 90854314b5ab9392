package session

import (
	"testing"

	"github.com/cs-au-dk/ccinfer/qual"
)

func TestNewHonorsAllTypes(t *testing.T) {
	sess := New(&Options{AllTypes: true})
	a := sess.Store.FreshVar()
	sess.Store.AddFixed(a, qual.NTArr)
	if got := sess.Store.Fixed(a); got != qual.NTArr {
		t.Errorf("Fixed(a) = %s, expected NTArr preserved under AllTypes", got)
	}
}

func TestNewDefaultsCollapseLattice(t *testing.T) {
	sess := New(Default())
	a := sess.Store.FreshVar()
	sess.Store.AddFixed(a, qual.NTArr)
	if got := sess.Store.Fixed(a); got != qual.Wild {
		t.Errorf("Fixed(a) = %s, expected Wild (default options collapse the lattice)", got)
	}
}

func TestCanColorizeIdentityWhenDisabled(t *testing.T) {
	sess := New(&Options{NoColorize: true})
	f := sess.CanColorize(func(args ...interface{}) string { return "COLORED" })
	if got := f("x"); got != "x" {
		t.Errorf("CanColorize(disabled)(x) = %q, expected %q", got, "x")
	}
}

func TestDriverAndInvalidatorAreConstructed(t *testing.T) {
	sess := New(Default())
	if sess.Driver() == nil {
		t.Error("Driver() returned nil")
	}
	if sess.Invalidator() == nil {
		t.Error("Invalidator() returned nil")
	}
}
