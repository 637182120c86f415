package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/shardfs/pkg/storage"
)

// RunTransferTests executes Move and Copy tests.
func (suite *BackendTestSuite) RunTransferTests(t *testing.T) {
	t.Run("Move", suite.testMove)
	t.Run("Move_Overwrite", suite.testMoveOverwrite)
	t.Run("Move_CreatesParents", suite.testMoveCreatesParents)
	t.Run("Move_NotFound", suite.testMoveNotFound)
	t.Run("Copy", suite.testCopy)
	t.Run("Copy_Independent", suite.testCopyIndependent)
	t.Run("Copy_NotFound", suite.testCopyNotFound)
}

func (suite *BackendTestSuite) testMove(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "old.txt", []byte("payload"))
	require.NoError(t, backend.Move(testContext(), "old.txt", "new.txt"))

	assertFileExists(t, backend, "old.txt", false)
	assertContentEquals(t, backend, "new.txt", []byte("payload"))
}

func (suite *BackendTestSuite) testMoveOverwrite(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "src.txt", []byte("winner"))
	mustWrite(t, backend, "dst.txt", []byte("loser"))

	require.NoError(t, backend.Move(testContext(), "src.txt", "dst.txt"))
	assertContentEquals(t, backend, "dst.txt", []byte("winner"))
}

func (suite *BackendTestSuite) testMoveCreatesParents(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "flat.txt", []byte("x"))
	require.NoError(t, backend.Move(testContext(), "flat.txt", "deep/nested/flat.txt"))

	assertContentEquals(t, backend, "deep/nested/flat.txt", []byte("x"))
	assertDirectoryExists(t, backend, "deep/nested", true)
}

func (suite *BackendTestSuite) testMoveNotFound(t *testing.T) {
	backend := suite.NewBackend(t)

	err := backend.Move(testContext(), "ghost.txt", "anywhere.txt")
	AssertErrorIs(t, storage.ErrNotFound, err)
}

func (suite *BackendTestSuite) testCopy(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "orig.txt", []byte("payload"))
	require.NoError(t, backend.Copy(testContext(), "orig.txt", "dup.txt"))

	assertContentEquals(t, backend, "orig.txt", []byte("payload"))
	assertContentEquals(t, backend, "dup.txt", []byte("payload"))
}

func (suite *BackendTestSuite) testCopyIndependent(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "orig.txt", []byte("before"))
	require.NoError(t, backend.Copy(testContext(), "orig.txt", "dup.txt"))

	// Rewriting the original must not touch the copy.
	mustWrite(t, backend, "orig.txt", []byte("after"))
	assertContentEquals(t, backend, "dup.txt", []byte("before"))
}

func (suite *BackendTestSuite) testCopyNotFound(t *testing.T) {
	backend := suite.NewBackend(t)

	err := backend.Copy(testContext(), "ghost.txt", "anywhere.txt")
	AssertErrorIs(t, storage.ErrNotFound, err)
}
