package testutil

import (
	"context"

	"github.com/roach88/evloop/internal/store"
)

// MemoryOutput collects artifacts and run records in memory. It
// satisfies driver.Output.
type MemoryOutput struct {
	Path      string
	Artifacts map[string]store.Artifact
	Runs      []store.RunRecord
	Closed    bool

	WriteErr  error
	RecordErr error
	CloseErr  error
}

// NewMemoryOutput returns an empty output.
func NewMemoryOutput() *MemoryOutput {
	return &MemoryOutput{Artifacts: map[string]store.Artifact{}}
}

// Write stores a by name.
func (o *MemoryOutput) Write(_ context.Context, a store.Artifact) error {
	if o.WriteErr != nil {
		return o.WriteErr
	}
	o.Artifacts[a.ArtifactName()] = a
	return nil
}

// RecordRun appends r.
func (o *MemoryOutput) RecordRun(_ context.Context, r store.RunRecord) error {
	if o.RecordErr != nil {
		return o.RecordErr
	}
	o.Runs = append(o.Runs, r)
	return nil
}

// Close marks the output closed.
func (o *MemoryOutput) Close() error {
	o.Closed = true
	return o.CloseErr
}
