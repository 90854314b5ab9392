// Package collab defines the narrow contracts the out-of-scope
// collaborators sit behind: AST traversal, source rewriting, and
// compilation-database lookup. The core never imports a concrete
// implementation of these; cmd/ccinfer wires a stub in-memory
// ASTCollector for demonstration, since real Clang AST traversal is
// out of scope for this repository.
package collab

import (
	"github.com/cs-au-dk/ccinfer/constraints"
)

// ASTCollector walks a translation unit's AST and populates a
// constraint store with PVCs, FVCs, and the three constraint forms.
// Collection failures are not core errors: a collector that cannot
// build a constraint for some AST node should call
// Store.AddFixedWithReason(atom, qual.Wild, reason) itself rather than
// returning an error from Collect.
type ASTCollector interface {
	// Collect walks file and adds whatever constraints, PVCs, and FVCs
	// it discovers into store, recording source locations via
	// RecordLocation for every atom it introduces.
	Collect(store *constraints.Store, file string, recordLocation func(constraints.AtomKey, constraints.Location)) error
}

// Rewriter emits Checked C source reflecting the final environment.
// Wrapping converted regions in _Checked blocks is explicitly a
// Rewriter-side concern: the core never decides where those regions go.
type Rewriter interface {
	// Rewrite produces the rewritten contents of file given the final
	// environment, writing to the location dictated by outputPostfix
	// ("-" for stdout).
	Rewrite(store *constraints.Store, file string, outputPostfix string) error
}

// CompilationDatabase resolves the set of translation units for a
// BaseDir-rooted project, e.g. from a compile_commands.json. It
// exposes file names only, not their compile flags.
type CompilationDatabase interface {
	// Files returns every translation unit the database knows about.
	Files() ([]string, error)
}
