package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cs-au-dk/ccinfer/session"
)

// sharedOpts holds the session.Options every subcommand binds its own
// cobra flags onto, plus the -config path layered underneath them.
// Flags always win over the config file: resolve loads the file
// first, then overwrites only the fields whose flag was actually
// passed on the command line.
type sharedOpts struct {
	cmd        *cobra.Command
	opts       *session.Options
	configPath string
}

func newSharedOpts(cmd *cobra.Command) *sharedOpts {
	so := &sharedOpts{cmd: cmd, opts: &session.Options{}}
	flags := cmd.Flags()
	flags.StringVar(&so.configPath, "config", "", "Path to a YAML config file layered underneath the flags above.")
	flags.BoolVar(&so.opts.DumpIntermediate, "dump-intermediate", false, "Dump constraint JSON at named pipeline stages. Accepted but not read by any subcommand.")
	flags.BoolVar(&so.opts.Verbose, "verbose", false, "Enable verbose progress output. Accepted but not read by any subcommand.")
	flags.BoolVar(&so.opts.SeperateMultipleFuncDecls, "seperate-multiple-func-decls", false, "Give multiple declarations of the same function distinct constraint variables instead of merging them.")
	flags.StringVar(&so.opts.OutputPostfix, "output-postfix", "", `Suffix appended to rewritten file names. "-" means stdout, valid only with a single input file.`)
	flags.StringVar(&so.opts.ConstraintOutputJson, "constraint-output-json", "", "Destination path prefix for constraint JSON dumps.")
	flags.BoolVar(&so.opts.DumpStats, "dump-stats", false, "Emit refinement statistics, totalled over all rounds (no per-round breakdown).")
	flags.BoolVar(&so.opts.HandleVARARGS, "handle-varargs", false, "Treat variadic parameters as carrying pointer constraints. Accepted but not read by any subcommand.")
	flags.BoolVar(&so.opts.EnablePropThruIType, "enable-prop-thru-itype", false, "Allow constraint propagation through atoms already installed as itype.")
	flags.BoolVar(&so.opts.ConsiderAllocUnsafe, "consider-alloc-unsafe", false, "Pin allocator return atoms to Wild. Accepted but not read by any subcommand.")
	flags.BoolVar(&so.opts.AllTypes, "all-types", false, "Enable the full {Ptr, NTArr, Arr, Wild} lattice; otherwise NTArr/Arr collapse into Wild.")
	flags.BoolVar(&so.opts.AddCheckedRegions, "add-checked-regions", false, "Post-rewrite only: wrap converted regions in _Checked blocks. Accepted but not read by any subcommand.")
	flags.StringVar(&so.opts.BaseDir, "base-dir", "", "Path root used to resolve relative source file paths. Accepted but not read by any subcommand.")
	flags.BoolVar(&so.opts.AllAtoms, "all-atoms", false, "Compare every atom of a PVC, not just the outermost, when detecting itype candidates.")
	flags.BoolVar(&so.opts.NoColorize, "no-colorize", false, "Disable colorized diagnostic output.")
	return so
}

// resolve loads the config file (if any) and overlays every
// explicitly-passed flag on top, so flags always win.
func (so *sharedOpts) resolve() (*session.Options, error) {
	base := session.Default()
	if so.configPath != "" {
		fromFile, err := session.LoadConfigFile(so.configPath)
		if err != nil {
			return nil, fmt.Errorf("ccinfer: %w", err)
		}
		base = fromFile
	}

	changed := so.cmd.Flags().Changed
	if changed("dump-intermediate") {
		base.DumpIntermediate = so.opts.DumpIntermediate
	}
	if changed("verbose") {
		base.Verbose = so.opts.Verbose
	}
	if changed("seperate-multiple-func-decls") {
		base.SeperateMultipleFuncDecls = so.opts.SeperateMultipleFuncDecls
	}
	if changed("output-postfix") {
		base.OutputPostfix = so.opts.OutputPostfix
	}
	if changed("constraint-output-json") {
		base.ConstraintOutputJson = so.opts.ConstraintOutputJson
	}
	if changed("dump-stats") {
		base.DumpStats = so.opts.DumpStats
	}
	if changed("handle-varargs") {
		base.HandleVARARGS = so.opts.HandleVARARGS
	}
	if changed("enable-prop-thru-itype") {
		base.EnablePropThruIType = so.opts.EnablePropThruIType
	}
	if changed("consider-alloc-unsafe") {
		base.ConsiderAllocUnsafe = so.opts.ConsiderAllocUnsafe
	}
	if changed("all-types") {
		base.AllTypes = so.opts.AllTypes
	}
	if changed("add-checked-regions") {
		base.AddCheckedRegions = so.opts.AddCheckedRegions
	}
	if changed("base-dir") {
		base.BaseDir = so.opts.BaseDir
	}
	if changed("all-atoms") {
		base.AllAtoms = so.opts.AllAtoms
	}
	if changed("no-colorize") {
		base.NoColorize = so.opts.NoColorize
	}

	return base, nil
}
