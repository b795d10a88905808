package driver

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// RunIDGenerator names runs. The id is stored with each run record so runs
// sharing an output file stay distinguishable.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator names runs with UUIDv7 values, which sort by start time.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic(fmt.Sprintf("driver: cannot generate run id: %v", err))
	}
	return id.String()
}

// FixedGenerator hands out a fixed list of run ids, then panics. Tests use it
// to get stable ids in summaries and stored runs.
type FixedGenerator struct {
	mu   sync.Mutex
	next []string
}

func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{next: slices.Clone(ids)}
}

func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.next) == 0 {
		panic("driver: FixedGenerator has no run ids left")
	}
	id := g.next[0]
	g.next = g.next[1:]
	return id
}
