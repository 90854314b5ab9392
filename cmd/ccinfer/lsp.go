package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cs-au-dk/ccinfer/collab"
	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/diagnostics"
	"github.com/cs-au-dk/ccinfer/programinfo"
	"github.com/cs-au-dk/ccinfer/session"
)

var lspShared *sharedOpts

var lspCmd = &cobra.Command{
	Use:   "lsp <files...>",
	Short: "Keep one session resident and serve diagnostics/invalidation requests over stdin/stdout",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLSP,
}

func init() {
	lspShared = newSharedOpts(lspCmd)
}

// lspRequest is the five-line-of-encoding/json wire shape: one JSON
// object per line on stdin, one per line on stdout in response.
// "diagnostics" takes no params; "invalidate" takes the atom key to
// call interactive.Invalidate on.
type lspRequest struct {
	Method string `json:"method"`
	Atom   int    `json:"atom,omitempty"`
}

type lspResponse struct {
	Method      string                                `json:"method"`
	OK          bool                                  `json:"ok"`
	Error       string                                `json:"error,omitempty"`
	Diagnostics map[string][]diagnostics.Diagnostic `json:"diagnostics,omitempty"`
	Shrank      bool                                  `json:"shrank,omitempty"`
}

func runLSP(cmd *cobra.Command, args []string) error {
	opts, err := lspShared.resolve()
	if err != nil {
		return err
	}

	sess := session.New(opts)
	pi := programinfo.New(sess)

	collector := collab.LineCollector{}
	for _, file := range args {
		if err := collector.Collect(pi.Constraints(), file, pi.RecordLocation); err != nil {
			return fmt.Errorf("ccinfer: collecting %s: %w", file, err)
		}
	}
	if ok, err := pi.Link(); err != nil {
		return fmt.Errorf("ccinfer: link failed: %w", err)
	} else if !ok {
		return fmt.Errorf("ccinfer: link failed")
	}
	if err := pi.Run(); err != nil {
		return fmt.Errorf("ccinfer: refinement failed: %w", err)
	}

	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	enc := json.NewEncoder(os.Stdout)

	for in.Scan() {
		var req lspRequest
		if err := json.Unmarshal(in.Bytes(), &req); err != nil {
			enc.Encode(lspResponse{Method: "error", Error: err.Error()})
			continue
		}

		switch req.Method {
		case "diagnostics":
			enc.Encode(lspResponse{Method: req.Method, OK: true, Diagnostics: pi.Diagnostics()})

		case "invalidate":
			shrank, err := sess.Invalidator().Invalidate(pi.Constraints(), constraints.AtomKey(req.Atom))
			if err != nil {
				enc.Encode(lspResponse{Method: req.Method, Error: err.Error()})
				continue
			}
			enc.Encode(lspResponse{Method: req.Method, OK: true, Shrank: shrank})

		default:
			enc.Encode(lspResponse{Method: req.Method, Error: "unknown method"})
		}
	}

	return in.Err()
}
