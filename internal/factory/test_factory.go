package factory

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/rpsarena/internal/dependencies/hasher"
	"github.com/mcoot/rpsarena/internal/dependencies/mocks"
	"github.com/mcoot/rpsarena/internal/storage/memory"
	"github.com/mcoot/rpsarena/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock   *mocks.MockClock
	MockRandom  *mocks.MockRandom
	MemoryStore *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(
		store,
		nil,
		mockClock,
		mockRandom,
		hasher.NewBcrypt(bcrypt.MinCost),
		ServiceConfig{}.withDefaults(),
		testutil.NopLogger(),
	)

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockRandom:  mockRandom,
		MemoryStore: store,
	}
}
