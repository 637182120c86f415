// Package testing provides a reusable conformance suite for
// storage.Backend implementations.
package testing

import (
	"context"
	"testing"

	"github.com/marmos91/shardfs/pkg/storage"
)

// BackendTestSuite is a conformance test suite for storage.Backend
// implementations. It tests the interface contract, not implementation
// details, making it reusable across backends (memory, local, badger,
// s3, ...).
//
// Usage:
//
//	func TestMyBackend(t *testing.T) {
//	    suite := &testing.BackendTestSuite{
//	        NewBackend: func(t *testing.T) storage.Backend {
//	            return mybackend.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type BackendTestSuite struct {
	// NewBackend creates a fresh, empty backend for each test. This
	// ensures test isolation.
	NewBackend func(t *testing.T) storage.Backend
}

// Run executes all tests in the suite.
func (suite *BackendTestSuite) Run(t *testing.T) {
	t.Run("Files", suite.RunFileTests)
	t.Run("Directories", suite.RunDirectoryTests)
	t.Run("Listing", suite.RunListingTests)
	t.Run("Attributes", suite.RunAttributeTests)
	t.Run("Transfer", suite.RunTransferTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
