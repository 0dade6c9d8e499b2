package testing

import (
	"context"
	"testing"

	"github.com/dcnetdisk/dcdisk/pkg/content"
)

// StoreTestSuite is a test suite for content.Store implementations.
// It tests the interface contract, not implementation details, making it
// reusable across the filesystem and S3 stores.
//
// Usage:
//
//	func TestMyStore(t *testing.T) {
//	    suite := &contenttesting.StoreTestSuite{
//	        NewStore: func(t *testing.T) content.Store {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func(t *testing.T) content.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Directories", suite.RunDirectoryTests)
	t.Run("WriteOperations", suite.RunWriteTests)
	t.Run("ReadOperations", suite.RunReadTests)
	t.Run("KeyValidation", suite.RunKeyValidationTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
