package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/shardfs/pkg/storage"
)

// RunDirectoryTests executes all directory operation tests.
func (suite *BackendTestSuite) RunDirectoryTests(t *testing.T) {
	t.Run("Create", suite.testCreateDirectory)
	t.Run("Create_Nested", suite.testCreateDirectoryNested)
	t.Run("Create_Idempotent", suite.testCreateDirectoryIdempotent)
	t.Run("RootExists", suite.testRootExists)
	t.Run("Delete", suite.testDeleteDirectory)
	t.Run("Delete_Subtree", suite.testDeleteDirectorySubtree)
	t.Run("Delete_NotFound", suite.testDeleteDirectoryNotFound)
	t.Run("Delete_Root", suite.testDeleteDirectoryRoot)
}

func (suite *BackendTestSuite) testCreateDirectory(t *testing.T) {
	backend := suite.NewBackend(t)

	assertDirectoryExists(t, backend, "docs", false)
	mustMkdir(t, backend, "docs")
	assertDirectoryExists(t, backend, "docs", true)
}

func (suite *BackendTestSuite) testCreateDirectoryNested(t *testing.T) {
	backend := suite.NewBackend(t)

	mustMkdir(t, backend, "x/y/z")

	assertDirectoryExists(t, backend, "x", true)
	assertDirectoryExists(t, backend, "x/y", true)
	assertDirectoryExists(t, backend, "x/y/z", true)
}

func (suite *BackendTestSuite) testCreateDirectoryIdempotent(t *testing.T) {
	backend := suite.NewBackend(t)

	mustMkdir(t, backend, "docs")
	mustMkdir(t, backend, "docs")
	assertDirectoryExists(t, backend, "docs", true)
}

func (suite *BackendTestSuite) testRootExists(t *testing.T) {
	backend := suite.NewBackend(t)

	assertDirectoryExists(t, backend, "", true)
}

func (suite *BackendTestSuite) testDeleteDirectory(t *testing.T) {
	backend := suite.NewBackend(t)

	mustMkdir(t, backend, "tmp")
	require.NoError(t, backend.DeleteDirectory(testContext(), "tmp"))
	assertDirectoryExists(t, backend, "tmp", false)
}

func (suite *BackendTestSuite) testDeleteDirectorySubtree(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "tree/a.txt", []byte("a"))
	mustWrite(t, backend, "tree/sub/b.txt", []byte("b"))
	mustWrite(t, backend, "other/c.txt", []byte("c"))

	require.NoError(t, backend.DeleteDirectory(testContext(), "tree"))

	assertDirectoryExists(t, backend, "tree", false)
	assertFileExists(t, backend, "tree/a.txt", false)
	assertFileExists(t, backend, "tree/sub/b.txt", false)

	// Siblings survive.
	assertContentEquals(t, backend, "other/c.txt", []byte("c"))
}

func (suite *BackendTestSuite) testDeleteDirectoryNotFound(t *testing.T) {
	backend := suite.NewBackend(t)

	err := backend.DeleteDirectory(testContext(), "ghost")
	AssertErrorIs(t, storage.ErrNotFound, err)
}

func (suite *BackendTestSuite) testDeleteDirectoryRoot(t *testing.T) {
	backend := suite.NewBackend(t)

	err := backend.DeleteDirectory(testContext(), "")
	AssertErrorIs(t, storage.ErrRootViolation, err)
}
