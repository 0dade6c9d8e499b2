package testing

import (
	"testing"
	"time"

	"github.com/dcnetdisk/dcdisk/pkg/metadata"
)

// RepositoryTestSuite is a test suite for metadata.Repository implementations.
// It tests the interface contract, not implementation details, making it
// reusable across the memory, badger and postgres repositories.
type RepositoryTestSuite struct {
	// NewRepository creates a fresh, empty repository for each test. The
	// repository must take timestamps from clock so time-ordered tests are
	// deterministic.
	NewRepository func(t *testing.T, clock func() time.Time) metadata.Repository
}

// Run executes all tests in the suite.
func (suite *RepositoryTestSuite) Run(test *testing.T) {
	test.Run("Save", suite.RunSaveTests)
	test.Run("QueryAll", suite.RunQueryAllTests)
	test.Run("QuerySlice", suite.RunQuerySliceTests)
	test.Run("Healthcheck", suite.RunHealthcheckTests)
}

func (suite *RepositoryTestSuite) newRepository(t *testing.T) (metadata.Repository, *StepClock) {
	clock := NewStepClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), time.Second)
	return suite.NewRepository(t, clock.Now), clock
}
