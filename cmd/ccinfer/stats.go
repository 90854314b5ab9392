package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cs-au-dk/ccinfer/refine"
)

var statsCmd = &cobra.Command{
	Use:   "stats <dump.stats.json>",
	Short: "Re-emit a previous infer run's refinement statistics (totals over all rounds)",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("ccinfer: reading %s: %w", args[0], err)
	}

	var stats refine.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return fmt.Errorf("ccinfer: parsing %s: %w", args[0], err)
	}

	fmt.Printf("rounds=%d solve+subtyping-rounds=%d itype-vars=%d edges-removed=%d\n",
		stats.Rounds, stats.SolveSubtypingRounds, stats.TotalITypeVars, stats.TotalEdgesRemoved)
	return nil
}
