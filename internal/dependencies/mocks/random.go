package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/rpsarena/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	mu sync.Mutex

	// StringResults is a queue of results to return from String
	StringResults []string
	stringIndex   int

	// IDResults is a queue of results to return from ID
	IDResults []string
	idIndex   int
	idCounter int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// String returns the next queued result, or empty string if none remaining
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stringIndex >= len(r.StringResults) {
		return ""
	}
	result := r.StringResults[r.stringIndex]
	r.stringIndex++
	return result
}

// ID returns the next queued id, or a sequential "id-N" once the queue is drained
func (r *MockRandom) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.idIndex < len(r.IDResults) {
		result := r.IDResults[r.idIndex]
		r.idIndex++
		return result
	}
	r.idCounter++
	return fmt.Sprintf("id-%d", r.idCounter)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StringResults = append(r.StringResults, values...)
}

// QueueID adds values to the ID result queue
func (r *MockRandom) QueueID(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IDResults = append(r.IDResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StringResults = nil
	r.stringIndex = 0
	r.IDResults = nil
	r.idIndex = 0
	r.idCounter = 0
}
