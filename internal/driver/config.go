package driver

import (
	"errors"
	"path/filepath"
	"strings"
)

// Defaults used when building a Config from command-line flags.
const (
	DefaultCollection = "g4tree"
	DefaultPrintFreq  = 10
	DefaultMaxRecords = -1
)

// Config is the configuration of one run over one input file.
type Config struct {
	// InputPath is the record source to open.
	InputPath string
	// Collection names the table/tree inside the input.
	Collection string
	// OutDir is where the output file is created. Must already exist.
	OutDir string
	// MaxRecords caps the number of records iterated; < 0 means all.
	MaxRecords int64
	// PrintFreq is the progress interval in records; <= 0 disables it.
	PrintFreq int64
	Verbose   int
	// Params is the per-analysis parameter snapshot stored with the run.
	Params map[string]any
}

// Validate checks the fields the driver depends on.
func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("input path is required")
	}
	if c.Collection == "" {
		return errors.New("collection name is required")
	}
	return nil
}

// OutputNamer lets an analysis choose the output file name. The returned
// basename has no directory and no extension.
type OutputNamer interface {
	OutputBasename(inputPath string) string
}

// DefaultOutputBasename strips directory and extension and appends "_out".
func DefaultOutputBasename(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_out"
}

// OutputExt is the extension of output files.
const OutputExt = ".db"

// outputPath resolves the output file for cfg and a.
func outputPath(cfg Config, a Analysis) string {
	base := DefaultOutputBasename(cfg.InputPath)
	if n, ok := a.(OutputNamer); ok {
		base = n.OutputBasename(cfg.InputPath)
	}
	dir := cfg.OutDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, base+OutputExt)
}

// samePath reports whether a and b name the same file after cleaning.
func samePath(a, b string) bool {
	aa, errA := filepath.Abs(a)
	bb, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}
