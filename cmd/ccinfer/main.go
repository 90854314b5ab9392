// Command ccinfer drives the pointer-qualifier inference core from
// the command line: a one-shot inference pipeline, an interactive
// language-server loop, and a stats re-emitter, over the narrow
// ASTCollector/Rewriter/CompilationDatabase collaborator contracts the
// core depends on but never implements itself.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "ccinfer [subcommand]",
	Short:        "ccinfer infers Checked C pointer qualifiers from a constraint graph",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(statsCmd)
}
