package recsrc

import (
	"io"
	"log/slog"
)

// Environment carries process-wide settings that are fixed before the
// first run starts. It is immutable; one value is shared read-only by
// every run in the process.
type Environment struct {
	batch   bool
	verbose int
	outDir  string
	logger  *slog.Logger
}

// EnvironmentOptions configures NewEnvironment.
type EnvironmentOptions struct {
	// Batch suppresses interactive output such as progress bars drawn
	// with carriage returns.
	Batch   bool
	Verbose int
	OutDir  string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewEnvironment builds an Environment from opts.
func NewEnvironment(opts EnvironmentOptions) *Environment {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	outDir := opts.OutDir
	if outDir == "" {
		outDir = "."
	}
	return &Environment{
		batch:   opts.Batch,
		verbose: opts.Verbose,
		outDir:  outDir,
		logger:  logger,
	}
}

// DiscardEnvironment returns an Environment whose logger drops everything.
// Intended for tests.
func DiscardEnvironment() *Environment {
	return NewEnvironment(EnvironmentOptions{
		Batch:  true,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func (e *Environment) Batch() bool          { return e.batch }
func (e *Environment) Verbose() int         { return e.verbose }
func (e *Environment) OutDir() string       { return e.outDir }
func (e *Environment) Logger() *slog.Logger { return e.logger }
