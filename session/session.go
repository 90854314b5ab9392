// Package session owns the configuration, constraint store, and
// shared mutable state of one analysis, rendered as a struct every
// top-level operation takes by pointer instead of package-level
// globals.
package session

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/cs-au-dk/ccinfer/constraints"
	"github.com/cs-au-dk/ccinfer/interactive"
	"github.com/cs-au-dk/ccinfer/qual"
	"github.com/cs-au-dk/ccinfer/refine"
)

// Session owns the configuration, the constraint store, and the
// refinement driver's saved-values table and itype buffer for the
// lifetime of one analysis. The core packages above constraints are
// handed the session's *constraints.Store (and, for refinement, its
// Driver) rather than reaching for ambient globals.
type Session struct {
	Opts  *Options
	Store *constraints.Store

	driver *refine.Driver
	inv    *interactive.Invalidator
}

// New constructs a Session whose constraint store honors opts.AllTypes.
func New(opts *Options) *Session {
	if opts == nil {
		opts = Default()
	}
	qual.NoColorize = opts.NoColorize
	driver := refine.NewDriver(refine.Options{
		AllAtoms:            opts.AllAtoms,
		EnablePropThruIType: opts.EnablePropThruIType,
	})
	return &Session{
		Opts:   opts,
		Store:  constraints.NewStore(opts.AllTypes),
		driver: driver,
		inv:    interactive.NewInvalidator(driver),
	}
}

// Driver returns the session's refinement driver, for packages (like
// programinfo) that need to invoke refine.Run/RunRounds directly.
func (sess *Session) Driver() *refine.Driver {
	return sess.driver
}

// Invalidator returns the session's interactive invalidator.
func (sess *Session) Invalidator() *interactive.Invalidator {
	return sess.inv
}

// VerbosePrint prints args via fmt.Println only when -verbose is set.
func (sess *Session) VerbosePrint(args ...interface{}) {
	if sess.Opts.Verbose {
		fmt.Println(args...)
	}
}

// CanColorize wraps a fatih/color coloring function so it becomes the
// identity formatter when -no-colorize is set.
func (sess *Session) CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if sess.Opts.NoColorize {
		return func(args ...interface{}) string {
			return fmt.Sprint(args...)
		}
	}
	return col
}

// Colorize is a ready-to-use bold-red highlighter gated by
// -no-colorize, used by the CLI and diagnostic printers for wild-atom
// callouts.
func (sess *Session) Colorize() func(...interface{}) string {
	return sess.CanColorize(color.New(color.FgRed, color.Bold).SprintFunc())
}
