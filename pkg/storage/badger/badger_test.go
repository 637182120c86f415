package badger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/shardfs/pkg/storage"
	storagetesting "github.com/marmos91/shardfs/pkg/storage/testing"
)

// TestBadgerBackend runs the complete Backend conformance suite against
// an in-memory BadgerDB instance.
func TestBadgerBackend(t *testing.T) {
	suite := &storagetesting.BackendTestSuite{
		NewBackend: func(t *testing.T) storage.Backend {
			backend, err := New(context.Background(), Config{InMemory: true})
			require.NoError(t, err, "Failed to open in-memory BadgerDB")
			t.Cleanup(func() { backend.Close() })
			return backend
		},
	}

	suite.Run(t)
}

func TestBadgerBackend_RequiresPath(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err, "on-disk mode needs a db_path")
}

func TestBadgerBackend_Persistence(t *testing.T) {
	dbPath := t.TempDir()
	ctx := context.Background()

	backend, err := New(ctx, Config{DBPath: dbPath})
	require.NoError(t, err)

	err = backend.Write(ctx, "kept/file.txt", bytes.NewReader([]byte("survives")), storage.WriteOptions{})
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	reopened, err := New(ctx, Config{DBPath: dbPath})
	require.NoError(t, err)
	defer reopened.Close()

	data, err := reopened.Read(ctx, "kept/file.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("survives"), data)

	ok, err := reopened.DirectoryExists(ctx, "kept")
	require.NoError(t, err)
	require.True(t, ok, "parent directory records persist too")
}

func TestBadgerBackend_MimeTypePassthrough(t *testing.T) {
	backend, err := New(context.Background(), Config{InMemory: true})
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	err = backend.Write(ctx, "data.json", bytes.NewReader([]byte("{}")), storage.WriteOptions{
		MimeType: "application/json",
	})
	require.NoError(t, err)

	mime, err := backend.MimeType(ctx, "data.json")
	require.NoError(t, err)
	require.Equal(t, "application/json", mime)
}

func TestBadgerBackend_DirectoryIsNotAFile(t *testing.T) {
	backend, err := New(context.Background(), Config{InMemory: true})
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, backend.CreateDirectory(ctx, "docs"))

	err = backend.Delete(ctx, "docs")
	storagetesting.AssertErrorIs(t, storage.ErrNotFound, err)

	_, err = backend.FileSize(ctx, "docs")
	storagetesting.AssertErrorIs(t, storage.ErrNotFound, err)
}
