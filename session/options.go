package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Options carries every configuration flag the pipeline accepts.
// Field names match the flag names bit-exact, Go-cased.
type Options struct {
	DumpIntermediate          bool   `yaml:"dumpIntermediate"`
	Verbose                   bool   `yaml:"verbose"`
	SeperateMultipleFuncDecls bool   `yaml:"seperateMultipleFuncDecls"`
	OutputPostfix             string `yaml:"outputPostfix"`
	ConstraintOutputJson      string `yaml:"constraintOutputJson"`
	DumpStats                 bool   `yaml:"dumpStats"`
	HandleVARARGS             bool   `yaml:"handleVarargs"`
	EnablePropThruIType       bool   `yaml:"enablePropThruItype"`
	ConsiderAllocUnsafe       bool   `yaml:"considerAllocUnsafe"`
	AllTypes                  bool   `yaml:"allTypes"`
	AddCheckedRegions         bool   `yaml:"addCheckedRegions"`
	BaseDir                   string `yaml:"baseDir"`

	// AllAtoms resolves the detectAndUpdateITypeVars outermost-vs-all-
	// atoms ambiguity. Default false: compare only the outermost atom.
	AllAtoms bool `yaml:"allAtoms"`

	// NoColorize disables fatih/color output.
	NoColorize bool `yaml:"noColorize"`
}

// LoadConfigFile unmarshals a YAML config file into an Options value.
// Flags always win over file-based config: callers load the file
// first, via this function, then overlay whichever flags were
// actually passed on top of the result (see cmd/ccinfer/opts.go).
func LoadConfigFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("session: reading config file %s: %w", path, err)
	}
	cfg := &Options{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("session: parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the zero-value Options a fresh session should use
// absent any flags or config file (AllTypes defaults to false, so the
// collapsed two-element lattice is the baseline).
func Default() *Options {
	return &Options{}
}
