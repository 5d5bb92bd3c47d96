package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/rpsarena/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// It is safe for use from concurrent goroutines.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time

	// Waits records every duration passed to After
	waits []time.Duration
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

// After advances the clock by d and fires immediately
func (c *MockClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.currentTime = c.currentTime.Add(d)
	c.waits = append(c.waits, d)
	now := c.currentTime
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Waits returns the durations requested through After, in order
func (c *MockClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = c.currentTime.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}
