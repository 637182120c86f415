package testing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/shardfs/pkg/storage"
)

// RunAttributeTests executes size, mime type, modification time and
// visibility tests.
func (suite *BackendTestSuite) RunAttributeTests(t *testing.T) {
	t.Run("FileSize", suite.testFileSize)
	t.Run("FileSize_NotFound", suite.testFileSizeNotFound)
	t.Run("MimeType_Detected", suite.testMimeTypeDetected)
	t.Run("MimeType_NotFound", suite.testMimeTypeNotFound)
	t.Run("LastModified", suite.testLastModified)
	t.Run("Visibility_Default", suite.testVisibilityDefault)
	t.Run("Visibility_Private", suite.testVisibilityPrivate)
	t.Run("SetVisibility", suite.testSetVisibility)
	t.Run("SetVisibility_NotFound", suite.testSetVisibilityNotFound)
}

func (suite *BackendTestSuite) testFileSize(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "sized.bin", make([]byte, 1234))

	size, err := backend.FileSize(testContext(), "sized.bin")
	require.NoError(t, err, "FileSize should succeed")
	require.Equal(t, int64(1234), size)
}

func (suite *BackendTestSuite) testFileSizeNotFound(t *testing.T) {
	backend := suite.NewBackend(t)

	_, err := backend.FileSize(testContext(), "ghost.bin")
	AssertErrorIs(t, storage.ErrNotFound, err)
}

func (suite *BackendTestSuite) testMimeTypeDetected(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "note.txt", []byte("plain text content\n"))

	mime, err := backend.MimeType(testContext(), "note.txt")
	require.NoError(t, err, "MimeType should succeed")
	require.True(t, strings.HasPrefix(mime, "text/plain"), "expected text/plain, got %q", mime)
}

func (suite *BackendTestSuite) testMimeTypeNotFound(t *testing.T) {
	backend := suite.NewBackend(t)

	_, err := backend.MimeType(testContext(), "ghost.txt")
	AssertErrorIs(t, storage.ErrNotFound, err)
}

func (suite *BackendTestSuite) testLastModified(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "ts.txt", []byte("x"))

	modified, err := backend.LastModified(testContext(), "ts.txt")
	require.NoError(t, err, "LastModified should succeed")
	require.False(t, modified.IsZero(), "modification time should be set")
}

func (suite *BackendTestSuite) testVisibilityDefault(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "open.txt", []byte("x"))

	v, err := backend.Visibility(testContext(), "open.txt")
	require.NoError(t, err)
	require.Equal(t, storage.VisibilityPublic, v)
}

func (suite *BackendTestSuite) testVisibilityPrivate(t *testing.T) {
	backend := suite.NewBackend(t)

	err := backend.Write(testContext(), "secret.txt", bytes.NewReader([]byte("x")), storage.WriteOptions{
		Visibility: storage.VisibilityPrivate,
	})
	require.NoError(t, err)

	v, err := backend.Visibility(testContext(), "secret.txt")
	require.NoError(t, err)
	require.Equal(t, storage.VisibilityPrivate, v)
}

func (suite *BackendTestSuite) testSetVisibility(t *testing.T) {
	backend := suite.NewBackend(t)

	mustWrite(t, backend, "flip.txt", []byte("x"))

	require.NoError(t, backend.SetVisibility(testContext(), "flip.txt", storage.VisibilityPrivate))
	v, err := backend.Visibility(testContext(), "flip.txt")
	require.NoError(t, err)
	require.Equal(t, storage.VisibilityPrivate, v)

	require.NoError(t, backend.SetVisibility(testContext(), "flip.txt", storage.VisibilityPublic))
	v, err = backend.Visibility(testContext(), "flip.txt")
	require.NoError(t, err)
	require.Equal(t, storage.VisibilityPublic, v)
}

func (suite *BackendTestSuite) testSetVisibilityNotFound(t *testing.T) {
	backend := suite.NewBackend(t)

	err := backend.SetVisibility(testContext(), "ghost.txt", storage.VisibilityPrivate)
	AssertErrorIs(t, storage.ErrNotFound, err)
}
