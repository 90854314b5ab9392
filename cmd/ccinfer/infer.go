package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cs-au-dk/ccinfer/collab"
	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/programinfo"
	"github.com/cs-au-dk/ccinfer/session"
)

var inferShared *sharedOpts

var inferCmd = &cobra.Command{
	Use:   "infer <files...>",
	Short: "Run the full constraint-collection, solve, and refinement pipeline over the given files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInfer,
}

func init() {
	inferShared = newSharedOpts(inferCmd)
}

func runInfer(cmd *cobra.Command, args []string) error {
	if _, err := os.Getwd(); err != nil {
		return fmt.Errorf("ccinfer: could not resolve working directory: %w", err)
	}

	opts, err := inferShared.resolve()
	if err != nil {
		return err
	}

	if opts.OutputPostfix == "-" && len(args) > 1 {
		return fmt.Errorf("ccinfer: -output-postfix=- (stdout) is only valid with a single input file")
	}

	sess := session.New(opts)
	pi := programinfo.New(sess)

	collector := collab.LineCollector{}
	for _, file := range args {
		if err := collector.Collect(pi.Constraints(), file, pi.RecordLocation); err != nil {
			return fmt.Errorf("ccinfer: collecting %s: %w", file, err)
		}
	}

	ok, err := pi.Link()
	if err != nil {
		return fmt.Errorf("ccinfer: link failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("ccinfer: link failed")
	}

	if err := pi.Run(); err != nil {
		return fmt.Errorf("ccinfer: refinement failed: %w", err)
	}

	pi.PrintStats(os.Stdout)

	if opts.ConstraintOutputJson != "" {
		pi.DumpJSON(opts.ConstraintOutputJson + ".json")
		pi.DumpStatsJSON(opts.ConstraintOutputJson + ".stats.json")
	}

	diags := pi.Diagnostics()
	colorize := sess.Colorize()
	for file, ds := range diags {
		for _, d := range ds {
			fmt.Printf("%s:%d:%d: %s (code=%d)\n", file, d.Line, d.Column, colorize(d.Message), d.Code)
		}
	}

	printEnvironment(pi)
	return nil
}

func printEnvironment(pi *programinfo.ProgramInfo) {
	store := pi.Constraints()
	for i := 0; i < store.NumAtoms(); i++ {
		a := constraints.AtomKey(i)
		fmt.Printf("%s = %s\n", a, store.Env(a))
	}
}
