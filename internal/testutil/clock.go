package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic wall clock for tests.
//
// Each call to Now advances the clock by Step, so elapsed times and
// progress ETAs computed from it are reproducible. Pass clock.Now to
// driver.WithClock.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	step  time.Duration
	calls int
}

// NewStepClock creates a clock at a fixed epoch that advances by step
// on every Now call. The first call returns the epoch.
func NewStepClock(step time.Duration) *StepClock {
	epoch := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &StepClock{start: epoch, now: epoch, step: step}
}

// Now returns the current time and advances the clock.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	c.calls++
	return t
}

// Calls returns how many times Now has been called.
func (c *StepClock) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock to its epoch.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
	c.calls = 0
}
