package testing

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/shardfs/pkg/storage"
)

// AssertErrorIs checks that the error matches the expected sentinel
// using errors.Is.
func AssertErrorIs(t *testing.T, expected error, actual error) {
	t.Helper()
	if !errors.Is(actual, expected) {
		t.Errorf("Expected error %v, got %v", expected, actual)
	}
}

// mustWrite writes a file and fails the test if it errors.
func mustWrite(t *testing.T, backend storage.Backend, path string, data []byte) {
	t.Helper()
	err := backend.Write(testContext(), path, bytes.NewReader(data), storage.WriteOptions{})
	require.NoError(t, err, "Write should succeed")
}

// mustRead reads a file's full content and fails the test if it errors.
func mustRead(t *testing.T, backend storage.Backend, path string) []byte {
	t.Helper()
	data, err := backend.Read(testContext(), path)
	require.NoError(t, err, "Read should succeed")
	return data
}

// mustMkdir creates a directory and fails the test if it errors.
func mustMkdir(t *testing.T, backend storage.Backend, path string) {
	t.Helper()
	err := backend.CreateDirectory(testContext(), path)
	require.NoError(t, err, "CreateDirectory should succeed")
}

// assertContentEquals reads a file and compares its content.
func assertContentEquals(t *testing.T, backend storage.Backend, path string, expected []byte) {
	t.Helper()
	data := mustRead(t, backend, path)
	if !bytes.Equal(data, expected) {
		t.Errorf("Content mismatch at %s: expected %q, got %q", path, expected, data)
	}
}

// assertFileExists checks the FileExists answer for a path.
func assertFileExists(t *testing.T, backend storage.Backend, path string, expected bool) {
	t.Helper()
	ok, err := backend.FileExists(testContext(), path)
	require.NoError(t, err, "FileExists should succeed")
	if ok != expected {
		t.Errorf("FileExists(%q) = %v, expected %v", path, ok, expected)
	}
}

// assertDirectoryExists checks the DirectoryExists answer for a path.
func assertDirectoryExists(t *testing.T, backend storage.Backend, path string, expected bool) {
	t.Helper()
	ok, err := backend.DirectoryExists(testContext(), path)
	require.NoError(t, err, "DirectoryExists should succeed")
	if ok != expected {
		t.Errorf("DirectoryExists(%q) = %v, expected %v", path, ok, expected)
	}
}

// readAll drains and closes a stream.
func readAll(t *testing.T, rc io.ReadCloser) []byte {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err, "Reading stream should succeed")
	return data
}

// entryPaths collects the paths of a listing keyed by entry type.
func entryPaths(entries []storage.Metadata) map[string]storage.EntryType {
	out := make(map[string]storage.EntryType, len(entries))
	for _, entry := range entries {
		out[entry.Path] = entry.Type
	}
	return out
}
