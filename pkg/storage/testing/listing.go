package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/shardfs/pkg/storage"
)

// RunListingTests executes all List and Stat tests.
func (suite *BackendTestSuite) RunListingTests(t *testing.T) {
	t.Run("List_Flat", suite.testListFlat)
	t.Run("List_NotRecursiveIsShallow", suite.testListShallow)
	t.Run("List_Recursive", suite.testListRecursive)
	t.Run("List_Missing", suite.testListMissing)
	t.Run("Stat_File", suite.testStatFile)
	t.Run("Stat_Directory", suite.testStatDirectory)
	t.Run("Stat_Root", suite.testStatRoot)
	t.Run("Stat_NotFound", suite.testStatNotFound)
}

func (suite *BackendTestSuite) testListFlat(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "a/one.txt", []byte("1"))
	mustWrite(t, backend, "a/two.txt", []byte("2"))
	mustMkdir(t, backend, "a/sub")

	entries, err := backend.List(testContext(), "a", false)
	require.NoError(t, err, "List should succeed")

	paths := entryPaths(entries)
	require.Len(t, paths, 3)
	require.Equal(t, storage.TypeFile, paths["a/one.txt"])
	require.Equal(t, storage.TypeFile, paths["a/two.txt"])
	require.Equal(t, storage.TypeDirectory, paths["a/sub"])
}

func (suite *BackendTestSuite) testListShallow(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "a/one.txt", []byte("1"))
	mustWrite(t, backend, "a/sub/deep.txt", []byte("d"))

	entries, err := backend.List(testContext(), "a", false)
	require.NoError(t, err)

	paths := entryPaths(entries)
	require.Contains(t, paths, "a/one.txt")
	require.Contains(t, paths, "a/sub")
	require.NotContains(t, paths, "a/sub/deep.txt")
}

func (suite *BackendTestSuite) testListRecursive(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "a/one.txt", []byte("1"))
	mustWrite(t, backend, "a/sub/deep.txt", []byte("d"))

	entries, err := backend.List(testContext(), "a", true)
	require.NoError(t, err)

	paths := entryPaths(entries)
	require.Equal(t, storage.TypeFile, paths["a/one.txt"])
	require.Equal(t, storage.TypeDirectory, paths["a/sub"])
	require.Equal(t, storage.TypeFile, paths["a/sub/deep.txt"])
}

func (suite *BackendTestSuite) testListMissing(t *testing.T) {
	backend := suite.NewBackend(t)

	entries, err := backend.List(testContext(), "nowhere", false)
	require.NoError(t, err, "listing a missing directory is not an error")
	require.Empty(t, entries)
}

func (suite *BackendTestSuite) testStatFile(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "docs/readme.md", []byte("# hi\n"))

	meta, err := backend.Stat(testContext(), "docs/readme.md")
	require.NoError(t, err, "Stat should succeed")

	require.True(t, meta.IsFile())
	require.Equal(t, "docs/readme.md", meta.Path)
	require.Equal(t, "readme.md", meta.Name)
	require.Equal(t, "docs", meta.Dir)
	require.Equal(t, int64(5), meta.Size)
}

func (suite *BackendTestSuite) testStatDirectory(t *testing.T) {
	backend := suite.NewBackend(t)

	mustMkdir(t, backend, "docs")

	meta, err := backend.Stat(testContext(), "docs")
	require.NoError(t, err)
	require.True(t, meta.IsDir())
	require.Equal(t, "docs", meta.Path)
}

func (suite *BackendTestSuite) testStatRoot(t *testing.T) {
	backend := suite.NewBackend(t)

	meta, err := backend.Stat(testContext(), "")
	require.NoError(t, err, "the root always stats")
	require.True(t, meta.IsDir())
}

func (suite *BackendTestSuite) testStatNotFound(t *testing.T) {
	backend := suite.NewBackend(t)

	_, err := backend.Stat(testContext(), "ghost")
	AssertErrorIs(t, storage.ErrNotFound, err)
}
