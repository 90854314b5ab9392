// Package programinfo implements the ProgramInfo facade: the narrow
// surface collaborators (AST walkers, rewriters, the CLI) use to drive
// the core without reaching into constraints, solver, subtyping, or
// refine directly.
package programinfo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/diagnostics"
	"github.com/cs-au-dk/ccinfer/qual"
	"github.com/cs-au-dk/ccinfer/refine"
	"github.com/cs-au-dk/ccinfer/session"
	"github.com/cs-au-dk/ccinfer/subtyping"
)

// ProgramInfo is the facade constructed once per analysis session.
type ProgramInfo struct {
	sess *session.Session
	locs map[constraints.AtomKey]constraints.Location

	stats refine.Stats
}

// New constructs a ProgramInfo over sess.
func New(sess *session.Session) *ProgramInfo {
	return &ProgramInfo{
		sess: sess,
		locs: make(map[constraints.AtomKey]constraints.Location),
	}
}

// Constraints returns the underlying constraint store.
func (pi *ProgramInfo) Constraints() *constraints.Store {
	return pi.sess.Store
}

// RecordLocation associates a source location with an atom, for later
// diagnostic surfacing.
func (pi *ProgramInfo) RecordLocation(atom constraints.AtomKey, loc constraints.Location) {
	pi.locs[atom] = loc
}

// Link cross-references declarations to definitions across
// translation units for every function key present in the store.
// Fails if the declaration and definition FVCs sharing a function key
// disagree in arity.
//
// When -seperate-multiple-func-decls is unset (the default, "merge"),
// Link additionally unifies every parameter and return atom across
// all declaration and definition FVCs sharing a key by installing
// equality constraints between them, level by level.
func (pi *ProgramInfo) Link() (bool, error) {
	store := pi.sess.Store
	merge := !pi.sess.Opts.SeperateMultipleFuncDecls

	for key, decls := range store.FuncDeclMap() {
		all := append(append([]*constraints.FVC{}, decls...), store.FuncDefnVarMap()[key]...)
		if len(all) < 2 {
			continue
		}
		arity := all[0].NumParams()
		for _, d := range all[1:] {
			if d.NumParams() != arity {
				return false, errors.Wrapf(errLinkArity, "function %q: %d vs %d params", key, arity, d.NumParams())
			}
		}
	}

	if !merge {
		return true, nil
	}

	for key, decls := range store.FuncDeclMap() {
		all := append(append([]*constraints.FVC{}, decls...), store.FuncDefnVarMap()[key]...)
		if len(all) < 2 {
			continue
		}
		unifyFVCs(store, all)
	}

	return true, nil
}

var errLinkArity = errors.New("arity mismatch between declarations/definitions of the same function key")

func unifyFVCs(store *constraints.Store, fvcs []*constraints.FVC) {
	numParams := 0
	for _, f := range fvcs {
		if f.NumParams() > numParams {
			numParams = f.NumParams()
		}
	}

	for i := 0; i < numParams; i++ {
		unifyPVCSets(store, collectParamPVCs(fvcs, i))
	}
	unifyPVCSets(store, collectReturnPVCs(fvcs))
}

func collectParamPVCs(fvcs []*constraints.FVC, i int) []*constraints.PVC {
	var out []*constraints.PVC
	for _, f := range fvcs {
		out = append(out, f.ParamVar(i)...)
	}
	return out
}

func collectReturnPVCs(fvcs []*constraints.FVC) []*constraints.PVC {
	var out []*constraints.PVC
	for _, f := range fvcs {
		out = append(out, f.ReturnVars()...)
	}
	return out
}

// unifyPVCSets adds equality constraints between each atom of pvcs[0]
// and the atom at the same pointer level of every other pvcs[i],
// placing same-level atoms in the same equality class. Levels beyond
// the shorter of two PVCs are left alone.
func unifyPVCSets(store *constraints.Store, pvcs []*constraints.PVC) {
	if len(pvcs) < 2 {
		return
	}
	first := pvcs[0]
	if !constraints.IsValidPVC(first) {
		return
	}
	for _, p := range pvcs[1:] {
		if !constraints.IsValidPVC(p) {
			continue
		}
		n := len(first.Atoms)
		if len(p.Atoms) < n {
			n = len(p.Atoms)
		}
		for j := 0; j < n; j++ {
			store.AddEq(first.Atoms[j], p.Atoms[j])
		}
	}
}

// HandleFunctionSubtyping drives the function-subtyping pass directly
// (outside the full refinement driver), returning true iff it raised
// any declaration atom's fixed floor. The environment itself picks up
// the raised floors on the next solve.
func (pi *ProgramInfo) HandleFunctionSubtyping() bool {
	return subtyping.Pass(pi.sess.Store)
}

// FuncDeclConstraintSet returns the declaration-side FVCs for key, or
// nil if none are registered.
func (pi *ProgramInfo) FuncDeclConstraintSet(key string) []*constraints.FVC {
	return pi.sess.Store.FuncDeclMap()[key]
}

// FuncDefnVarMap returns the full definition-side FVC index.
func (pi *ProgramInfo) FuncDefnVarMap() map[string][]*constraints.FVC {
	return pi.sess.Store.FuncDefnVarMap()
}

// ComputePointerDisjointSet classifies all wild atoms into equivalence
// classes, for the diagnostic bridge to consume.
func (pi *ProgramInfo) ComputePointerDisjointSet() *diagnostics.DisjointSet {
	return diagnostics.ComputePointerDisjointSet(pi.sess.Store)
}

// Diagnostics runs the full diagnostic bridge over every recorded
// location.
func (pi *ProgramInfo) Diagnostics() map[string][]diagnostics.Diagnostic {
	ds := pi.ComputePointerDisjointSet()
	return diagnostics.Collect(pi.sess.Store, pi.locs, ds)
}

// Run executes the full iterative itype refinement driver and records
// its stats for PrintStats/DumpJSON.
func (pi *ProgramInfo) Run() error {
	stats, err := refine.Run(pi.sess.Store, pi.sess.Driver())
	pi.stats = stats
	if err != nil {
		return errors.Wrap(err, "programinfo: refinement failed")
	}
	return nil
}

// PrintStats prints the last Run call's statistics, gated by
// -dump-stats. The figures are totals over all rounds; there is no
// per-round breakdown.
func (pi *ProgramInfo) PrintStats(w io.Writer) {
	if !pi.sess.Opts.DumpStats {
		return
	}
	fmt.Fprintf(w, "rounds=%d solve+subtyping-rounds=%d itype-vars=%d edges-removed=%d\n",
		pi.stats.Rounds, pi.stats.SolveSubtypingRounds, pi.stats.TotalITypeVars, pi.stats.TotalEdgesRemoved)
}

// DumpStatsJSON writes the last Run call's statistics as JSON to
// path, gated by -dump-stats, so a later `ccinfer stats` invocation
// can re-emit the table without re-running the pipeline. I/O failure
// here falls back to stderr and never aborts.
func (pi *ProgramInfo) DumpStatsJSON(path string) {
	if !pi.sess.Opts.DumpStats {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "programinfo: could not open %s for stats dump: %v\n", path, err)
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pi.stats); err != nil {
		fmt.Fprintf(os.Stderr, "programinfo: could not write stats dump to %s: %v\n", path, err)
	}
}

// Qualifier is re-exported so collaborators constructing ProgramInfo
// fixtures don't need a direct import of qual for the common case of
// seeding a few fixed constraints before Run.
type Qualifier = qual.Qualifier

// jsonDump is the shape DumpJSON serializes: the current environment
// plus the itype map, keyed by atom.
type jsonDump struct {
	Environment map[string]string `json:"environment"`
	ItypeVars   map[string]string `json:"itypeVars"`
}

// DumpJSON writes the current environment and itype map as JSON to
// path. An I/O error here never aborts the analysis: it is reported
// on stderr and swallowed.
func (pi *ProgramInfo) DumpJSON(path string) {
	store := pi.sess.Store
	dump := jsonDump{
		Environment: make(map[string]string, store.NumAtoms()),
		ItypeVars:   make(map[string]string),
	}
	for i := 0; i < store.NumAtoms(); i++ {
		a := constraints.AtomKey(i)
		dump.Environment[a.String()] = store.Env(a).Name()
	}
	store.ItypeVarMap().ForEach(func(a constraints.AtomKey, q qual.Qualifier) {
		dump.ItypeVars[a.String()] = q.Name()
	})

	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "programinfo: could not open %s for JSON dump: %v\n", path, err)
		return
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		fmt.Fprintf(os.Stderr, "programinfo: could not write JSON dump to %s: %v\n", path, err)
	}
}
