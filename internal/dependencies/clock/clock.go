package clock

import "time"

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time

	// After waits for the duration to elapse and then sends the current time
	After(d time.Duration) <-chan time.Time
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// After delegates to time.After
func (c *RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
