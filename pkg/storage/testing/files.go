package testing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/shardfs/pkg/storage"
)

// RunFileTests executes all file operation tests.
func (suite *BackendTestSuite) RunFileTests(t *testing.T) {
	t.Run("Write_Read", suite.testWriteRead)
	t.Run("Write_Overwrite", suite.testWriteOverwrite)
	t.Run("Write_CreatesParents", suite.testWriteCreatesParents)
	t.Run("Write_Empty", suite.testWriteEmpty)
	t.Run("Write_Root", suite.testWriteRoot)
	t.Run("Read_NotFound", suite.testReadNotFound)
	t.Run("ReadStream", suite.testReadStream)
	t.Run("ReadStream_NotFound", suite.testReadStreamNotFound)
	t.Run("Delete", suite.testDelete)
	t.Run("Delete_NotFound", suite.testDeleteNotFound)
	t.Run("Exists", suite.testExists)
}

func (suite *BackendTestSuite) testWriteRead(t *testing.T) {
	backend := suite.NewBackend(t)

	data := []byte("hello world\n")
	mustWrite(t, backend, "greeting.txt", data)

	assertContentEquals(t, backend, "greeting.txt", data)
	assertFileExists(t, backend, "greeting.txt", true)
}

func (suite *BackendTestSuite) testWriteOverwrite(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "doc.txt", []byte("first version"))
	mustWrite(t, backend, "doc.txt", []byte("second version, longer than before"))

	assertContentEquals(t, backend, "doc.txt", []byte("second version, longer than before"))
}

func (suite *BackendTestSuite) testWriteCreatesParents(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "a/b/c.txt", []byte("nested"))

	assertDirectoryExists(t, backend, "a", true)
	assertDirectoryExists(t, backend, "a/b", true)
	assertContentEquals(t, backend, "a/b/c.txt", []byte("nested"))
}

func (suite *BackendTestSuite) testWriteEmpty(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "empty.bin", nil)

	assertFileExists(t, backend, "empty.bin", true)
	size, err := backend.FileSize(testContext(), "empty.bin")
	require.NoError(t, err)
	require.Equal(t, int64(0), size)
}

func (suite *BackendTestSuite) testWriteRoot(t *testing.T) {
	backend := suite.NewBackend(t)

	err := backend.Write(testContext(), "", bytes.NewReader([]byte("x")), storage.WriteOptions{})
	AssertErrorIs(t, storage.ErrInvalidPath, err)
}

func (suite *BackendTestSuite) testReadNotFound(t *testing.T) {
	backend := suite.NewBackend(t)

	_, err := backend.Read(testContext(), "nope.txt")
	AssertErrorIs(t, storage.ErrNotFound, err)
}

func (suite *BackendTestSuite) testReadStream(t *testing.T) {
	backend := suite.NewBackend(t)

	data := []byte("streamed content")
	mustWrite(t, backend, "stream.txt", data)

	rc, err := backend.ReadStream(testContext(), "stream.txt")
	require.NoError(t, err, "ReadStream should succeed")
	require.Equal(t, data, readAll(t, rc))
}

func (suite *BackendTestSuite) testReadStreamNotFound(t *testing.T) {
	backend := suite.NewBackend(t)

	_, err := backend.ReadStream(testContext(), "nope.txt")
	AssertErrorIs(t, storage.ErrNotFound, err)
}

func (suite *BackendTestSuite) testDelete(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "doomed.txt", []byte("bye"))
	require.NoError(t, backend.Delete(testContext(), "doomed.txt"))

	assertFileExists(t, backend, "doomed.txt", false)
	_, err := backend.Read(testContext(), "doomed.txt")
	AssertErrorIs(t, storage.ErrNotFound, err)
}

func (suite *BackendTestSuite) testDeleteNotFound(t *testing.T) {
	backend := suite.NewBackend(t)

	err := backend.Delete(testContext(), "never-existed.txt")
	AssertErrorIs(t, storage.ErrNotFound, err)
}

func (suite *BackendTestSuite) testExists(t *testing.T) {
	backend := suite.NewBackend(t)

	assertFileExists(t, backend, "f.txt", false)
	mustWrite(t, backend, "f.txt", []byte("x"))
	assertFileExists(t, backend, "f.txt", true)

	// A file never doubles as a directory.
	assertDirectoryExists(t, backend, "f.txt", false)
}
