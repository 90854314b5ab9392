package collab

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/qual"
)

// LineCollector is a minimal in-memory ASTCollector standing in for a
// real Clang-backed implementation, which is explicitly out of scope.
// It reads a toy line-oriented format instead of C source, just
// enough to drive the core end to end from the command line:
//
//	var <ref>              fresh pointer variable atom named ref
//	wild <ref> <reason>     pin ref to Wild with the given reason
//	decl <func> <n>         n-ary function declaration named func,
//	                        using refs "<func>.decl.p0".."p<n-1>" and
//	                        "<func>.decl.ret"
//	defn <func> <n>         same shape for the definition side
//
// Any ref not already minted by a "var" line is minted on first use.
type LineCollector struct{}

// Collect implements ASTCollector by parsing file's toy-format
// contents line by line.
func (LineCollector) Collect(store *constraints.Store, file string, recordLocation func(constraints.AtomKey, constraints.Location)) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("collab: opening %s: %w", file, err)
	}
	defer f.Close()

	refs := make(map[string]constraints.AtomKey)
	ref := func(name string) constraints.AtomKey {
		if a, ok := refs[name]; ok {
			return a
		}
		a := store.FreshVar()
		refs[name] = a
		return a
	}

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "var":
			if len(fields) != 2 {
				continue
			}
			a := ref(fields[1])
			recordLocation(a, constraints.Location{File: file, Line: lineNo, Column: 1})

		case "wild":
			if len(fields) < 2 {
				continue
			}
			a := ref(fields[1])
			reason := strings.Join(fields[2:], " ")
			store.AddFixedWithReason(a, qual.Wild, reason)
			recordLocation(a, constraints.Location{File: file, Line: lineNo, Column: 1})

		case "decl", "defn":
			if len(fields) != 3 {
				continue
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil {
				return fmt.Errorf("collab: %s:%d: bad param count %q", file, lineNo, fields[2])
			}
			fvc := constraints.NewFVC(fields[1], n, lineNo)
			for i := 0; i < n; i++ {
				a := ref(fmt.Sprintf("%s.%s.p%d", fields[1], fields[0], i))
				recordLocation(a, constraints.Location{File: file, Line: lineNo, Column: 1})
				fvc.Params[i] = []*constraints.PVC{constraints.NewPVC([]constraints.AtomKey{a}, constraints.Location{File: file, Line: lineNo, Column: 1}, fields[1], i)}
			}
			retAtom := ref(fmt.Sprintf("%s.%s.ret", fields[1], fields[0]))
			recordLocation(retAtom, constraints.Location{File: file, Line: lineNo, Column: 1})
			fvc.Returns = []*constraints.PVC{constraints.NewPVC([]constraints.AtomKey{retAtom}, constraints.Location{File: file, Line: lineNo, Column: 1}, fields[1], -1)}
			if fields[0] == "decl" {
				store.AddFuncDecl(fvc)
			} else {
				store.AddFuncDefn(fvc)
			}
		}
	}

	return sc.Err()
}
