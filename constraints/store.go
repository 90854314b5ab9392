// Package constraints implements the constraint store: the atom arena,
// the equality/implication/fixed constraint edges, the environment, the
// itype map, and the function declaration/definition indices. It is
// deliberately the only package that owns mutable atom state; every
// other core package (solver, subtyping, refine, diagnostics,
// interactive) operates on a *Store handed to it by the session.
package constraints

import (
	"fmt"

	"github.com/cs-au-dk/ccinfer/qual"
)

// ItypeMap maps declaration-side atoms to the constant their paired
// definition-side atom was observed to hold. Entries are only ever
// added, never removed. The map is never forked — every per-round
// snapshot goes through ForEach into a slice rather than branching the
// map itself — so a plain map needs no structural-sharing machinery.
type ItypeMap map[AtomKey]qual.Qualifier

// Lookup reports the recorded value for an atom, if any.
func (m ItypeMap) Lookup(k AtomKey) (qual.Qualifier, bool) {
	v, ok := m[k]
	return v, ok
}

// Size returns the number of recorded entries.
func (m ItypeMap) Size() int {
	return len(m)
}

// ForEach calls f for every recorded entry, in unspecified order.
func (m ItypeMap) ForEach(f func(AtomKey, qual.Qualifier)) {
	for k, v := range m {
		f(k, v)
	}
}

// Store is the constraint store: an arena of variable atoms plus the
// equality/implication/fixed edges between them, the current
// environment, and the function declaration/definition indices used
// by the itype refinement driver.
//
// Storage invariant: equality edges are an undirected adjacency list
// keyed on atom key; implication edges a directed list. Each equality
// edge carries an active/erased flag instead of being removed outright,
// so erasure and restoration are O(1) per edge.
type Store struct {
	allTypes bool

	env   []qual.Qualifier // env[key] is the current assignment
	fixed []qual.Qualifier // fixed[key] is the pinned floor (Ptr = none)

	eqAdj  [][]*eqEdge
	impAdj [][]impEdge

	// erasedBatch holds the equality edges erased by the most recent
	// ReplaceEqConstraints call, so ResetErasedConstraints can flip
	// them back on. This is a one-level undo log, not a general
	// transactional system.
	erasedBatch []*eqEdge

	// itypeVarMap maps declaration-side atoms to the constant their
	// paired definition-side atom was observed to hold.
	itypeVarMap ItypeMap

	funcDefnVarMap map[string][]*FVC
	funcDeclMap    map[string][]*FVC

	// wildReasons records, for atoms promoted to Wild by a collection
	// failure, the reason string the collaborator supplied. First
	// reason wins; later calls for the same atom are no-ops.
	wildReasons map[AtomKey]string
}

// NewStore constructs an empty constraint store. allTypes mirrors the
// -AllTypes configuration flag: when false, NTArr/Arr constants passed
// to AddFixed/AddImp collapse to Wild at the moment they are recorded,
// so the rest of the core never has to special-case the two-element vs
// four-element lattice.
func NewStore(allTypes bool) *Store {
	return &Store{
		allTypes:       allTypes,
		itypeVarMap:    make(ItypeMap),
		funcDefnVarMap: make(map[string][]*FVC),
		funcDeclMap:    make(map[string][]*FVC),
		wildReasons:    make(map[AtomKey]string),
	}
}

func (s *Store) grow(upTo AtomKey) {
	for AtomKey(len(s.env)) <= upTo {
		s.env = append(s.env, qual.Ptr)
		s.fixed = append(s.fixed, qual.Ptr)
		s.eqAdj = append(s.eqAdj, nil)
		s.impAdj = append(s.impAdj, nil)
	}
}

// FreshVar allocates a variable atom at Ptr and returns its key.
func (s *Store) FreshVar() AtomKey {
	k := AtomKey(len(s.env))
	s.grow(k)
	return k
}

// GetVar locates an already-allocated variable atom by key.
func (s *Store) GetVar(key AtomKey) (AtomKey, bool) {
	if key < 0 || int(key) >= len(s.env) {
		return 0, false
	}
	return key, true
}

// GetOrCreateVar locates the variable atom for key, allocating the
// backing slots (at Ptr) if key has not been seen before. Used by
// collaborators that mint their own numeric identifiers ahead of
// registering them with the store.
func (s *Store) GetOrCreateVar(key AtomKey) AtomKey {
	s.grow(key)
	return key
}

// NumAtoms returns the number of variable atoms allocated so far.
func (s *Store) NumAtoms() int {
	return len(s.env)
}

// AddEq adds a symmetric equality constraint a = b.
func (s *Store) AddEq(a, b AtomKey) {
	s.grow(a)
	s.grow(b)
	if a == b {
		return
	}
	e := &eqEdge{x: a, y: b, active: true}
	s.eqAdj[a] = append(s.eqAdj[a], e)
	s.eqAdj[b] = append(s.eqAdj[b], e)
}

// AddImp adds a directed implication constraint "a ≥ k ⇒ b ≥ k".
func (s *Store) AddImp(a, b AtomKey, k qual.Qualifier) {
	s.grow(a)
	s.grow(b)
	k = qual.Collapse(k, s.allTypes)
	s.impAdj[a] = append(s.impAdj[a], impEdge{to: b, k: k})
}

// AddFixed pins atom a's floor to k, joined monotonically with any
// previous fixed value — addFixed(a, Wild) is therefore idempotent.
// AddFixed never mutates the environment directly; Solve applies fixed
// floors when it seeds the worklist, keeping CheckInitialEnvSanity
// meaningful right up until the first Solve call.
func (s *Store) AddFixed(a AtomKey, k qual.Qualifier) {
	s.grow(a)
	k = qual.Collapse(k, s.allTypes)
	s.fixed[a] = qual.Join(s.fixed[a], k)
}

// AddFixedWithReason is AddFixed plus a recorded reason string, used
// by collaborators reporting a collection failure: the failure is
// treated as promoting the relevant atom to Wild with a recorded
// reason string. The first reason recorded for an atom wins; later
// calls do not overwrite it.
func (s *Store) AddFixedWithReason(a AtomKey, k qual.Qualifier, reason string) {
	s.AddFixed(a, k)
	if _, ok := s.wildReasons[a]; !ok {
		s.wildReasons[a] = reason
	}
}

// WildReason returns the reason string recorded for atom a, if any.
func (s *Store) WildReason(a AtomKey) (string, bool) {
	r, ok := s.wildReasons[a]
	return r, ok
}

// Fixed returns the pinned floor for atom a (Ptr if none).
func (s *Store) Fixed(a AtomKey) qual.Qualifier {
	if int(a) >= len(s.fixed) {
		return qual.Ptr
	}
	return s.fixed[a]
}

// Env returns atom a's current assignment.
func (s *Store) Env(a AtomKey) qual.Qualifier {
	if int(a) >= len(s.env) {
		return qual.Ptr
	}
	return s.env[a]
}

// SetEnv forces atom a's assignment directly. The solver raises atoms
// through it; refine and the interactive invalidation path use it to
// re-install an itype snapshot after a reset.
func (s *Store) SetEnv(a AtomKey, q qual.Qualifier) {
	s.grow(a)
	s.env[a] = q
}

// Environment returns a snapshot of the full assignment, keyed by atom.
func (s *Store) Environment() map[AtomKey]qual.Qualifier {
	m := make(map[AtomKey]qual.Qualifier, len(s.env))
	for i, q := range s.env {
		m[AtomKey(i)] = q
	}
	return m
}

// IsWild reports whether atom key's current assignment is Wild.
func (s *Store) IsWild(key AtomKey) bool {
	return qual.IsWild(s.Env(key))
}

// EqNeighbors returns the atoms currently connected to a by an active
// equality edge.
func (s *Store) EqNeighbors(a AtomKey) []AtomKey {
	if int(a) >= len(s.eqAdj) {
		return nil
	}
	var out []AtomKey
	for _, e := range s.eqAdj[a] {
		if e.active {
			out = append(out, e.other(a))
		}
	}
	return out
}

// ImpEdge is an implication target exposed to the solver: "since a ≥
// K, To must be at least K too."
type ImpEdge struct {
	To AtomKey
	K  qual.Qualifier
}

// ImpTargets returns every implication edge out of a whose guard k'
// is satisfied by the atom's current rank k (k ≥ k').
func (s *Store) ImpTargets(a AtomKey, k qual.Qualifier) []ImpEdge {
	if int(a) >= len(s.impAdj) {
		return nil
	}
	var out []ImpEdge
	for _, e := range s.impAdj[a] {
		if k >= e.k {
			out = append(out, ImpEdge{To: e.to, K: e.k})
		}
	}
	return out
}

// Reset sets every variable atom's assignment back to Ptr. It does not
// touch the constraint graph itself (fixed floors, equality or
// implication edges survive) — only the derived environment is reset,
// as distinct from ResetErasedConstraints, which restores edges.
func (s *Store) Reset() {
	for i := range s.env {
		s.env[i] = qual.Ptr
	}
}

// ResetErasedConstraints restores every equality edge erased by the
// most recent call to ReplaceEqConstraints.
func (s *Store) ResetErasedConstraints() {
	for _, e := range s.erasedBatch {
		e.active = true
	}
	s.erasedBatch = nil
}

// ReplaceEqConstraints erases every active equality edge touching an
// atom that is a key of repl, then — unless the mapped value is nil —
// installs a fresh fixed constraint pinning that atom to the mapped
// constant. Returns the number of equality edges removed.
//
// A nil value means "erase only, install no fixed edge": NTArr is the
// only qualifier kept as a new fixed fact when an itype is detected;
// everything else is simply erased and left to re-derive from Ptr on
// the next reset.
func (s *Store) ReplaceEqConstraints(repl map[AtomKey]*qual.Qualifier) int {
	removed := 0
	var batch []*eqEdge
	for key, val := range repl {
		if int(key) >= len(s.eqAdj) {
			continue
		}
		for _, e := range s.eqAdj[key] {
			if e.active {
				e.active = false
				removed++
				batch = append(batch, e)
			}
		}
		if val != nil {
			s.AddFixed(key, *val)
		}
	}
	s.erasedBatch = batch
	return removed
}

// CheckInitialEnvSanity reports whether every variable atom currently
// holds Ptr. Callers treat a violation as an invariant failure that
// aborts with a diagnostic.
func (s *Store) CheckInitialEnvSanity() error {
	for i, q := range s.env {
		if q != qual.Ptr {
			return fmt.Errorf("initial environment sanity violated: atom %s = %s, expected Ptr", AtomKey(i), q)
		}
	}
	return nil
}

// ItypeVarMap returns the itype map (declaration-side atom → the
// constant its paired definition-side atom was observed to hold).
func (s *Store) ItypeVarMap() ItypeMap {
	return s.itypeVarMap
}

// RecordItype inserts decl → value into the itype map. Itype map
// entries are only ever added, never removed.
func (s *Store) RecordItype(decl AtomKey, value qual.Qualifier) {
	s.itypeVarMap[decl] = value
}

// FuncDefnVarMap returns the function-key → definition-site FVCs index.
func (s *Store) FuncDefnVarMap() map[string][]*FVC {
	return s.funcDefnVarMap
}

// FuncDeclMap returns the function-key → declaration-site FVCs index.
func (s *Store) FuncDeclMap() map[string][]*FVC {
	return s.funcDeclMap
}

// AddFuncDefn registers fvc as (one of the) definition-site FVCs for
// its key.
func (s *Store) AddFuncDefn(fvc *FVC) {
	s.funcDefnVarMap[fvc.Key] = append(s.funcDefnVarMap[fvc.Key], fvc)
}

// AddFuncDecl registers fvc as (one of the, possibly several across
// headers) declaration-site FVCs for its key.
func (s *Store) AddFuncDecl(fvc *FVC) {
	s.funcDeclMap[fvc.Key] = append(s.funcDeclMap[fvc.Key], fvc)
}
