package local

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/shardfs/pkg/storage"
	storagetesting "github.com/marmos91/shardfs/pkg/storage/testing"
)

// TestLocalBackend runs the complete Backend conformance suite against
// the filesystem implementation, each test rooted in its own temp dir.
func TestLocalBackend(t *testing.T) {
	suite := &storagetesting.BackendTestSuite{
		NewBackend: func(t *testing.T) storage.Backend {
			backend, err := New(context.Background(), t.TempDir())
			require.NoError(t, err, "Failed to create local backend")
			return backend
		},
	}

	suite.Run(t)
}

func TestLocalBackend_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "does", "not", "exist")

	_, err := New(context.Background(), root)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestLocalBackend_VisibilityMapsToMode(t *testing.T) {
	root := t.TempDir()
	backend, err := New(context.Background(), root)
	require.NoError(t, err)

	ctx := context.Background()
	err = backend.Write(ctx, "secret.txt", bytes.NewReader([]byte("x")), storage.WriteOptions{
		Visibility: storage.VisibilityPrivate,
	})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(root, "secret.txt"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(filePrivate), info.Mode().Perm())

	require.NoError(t, backend.SetVisibility(ctx, "secret.txt", storage.VisibilityPublic))
	info, err = os.Stat(filepath.Join(root, "secret.txt"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(filePublic), info.Mode().Perm())
}

func TestLocalBackend_FileOpsRejectDirectories(t *testing.T) {
	backend, err := New(context.Background(), t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, backend.CreateDirectory(ctx, "docs"))

	_, err = backend.FileSize(ctx, "docs")
	storagetesting.AssertErrorIs(t, storage.ErrNotFound, err)

	_, err = backend.Visibility(ctx, "docs")
	storagetesting.AssertErrorIs(t, storage.ErrNotFound, err)
}
