package memory

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/shardfs/pkg/storage"
	storagetesting "github.com/marmos91/shardfs/pkg/storage/testing"
)

// TestMemoryBackend runs the complete Backend conformance suite against
// the in-memory implementation.
func TestMemoryBackend(t *testing.T) {
	suite := &storagetesting.BackendTestSuite{
		NewBackend: func(t *testing.T) storage.Backend {
			return New()
		},
	}

	suite.Run(t)
}

func TestMemoryBackend_MimeTypePassthrough(t *testing.T) {
	backend := New()
	ctx := context.Background()

	err := backend.Write(ctx, "data.bin", bytes.NewReader([]byte("{}")), storage.WriteOptions{
		MimeType: "application/json",
	})
	require.NoError(t, err)

	mime, err := backend.MimeType(ctx, "data.bin")
	require.NoError(t, err)
	require.Equal(t, "application/json", mime)
}

func TestMemoryBackend_ReadReturnsCopy(t *testing.T) {
	backend := New()
	ctx := context.Background()

	err := backend.Write(ctx, "f.txt", bytes.NewReader([]byte("abc")), storage.WriteOptions{})
	require.NoError(t, err)

	data, err := backend.Read(ctx, "f.txt")
	require.NoError(t, err)
	data[0] = 'X'

	again, err := backend.Read(ctx, "f.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), again, "stored content must not be aliased by readers")
}

// Exercises attribute reads against concurrent visibility flips on the
// same entry. Run with -race; a lookup that hands out the stored entry
// instead of a snapshot fails here.
func TestMemoryBackend_ConcurrentAttributeAccess(t *testing.T) {
	backend := New()
	ctx := context.Background()

	err := backend.Write(ctx, "shared.txt", bytes.NewReader([]byte("payload")), storage.WriteOptions{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				v, err := backend.Visibility(ctx, "shared.txt")
				assert.NoError(t, err)
				assert.Contains(t, []storage.Visibility{storage.VisibilityPublic, storage.VisibilityPrivate}, v)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				v := storage.VisibilityPrivate
				if i%2 == 0 {
					v = storage.VisibilityPublic
				}
				assert.NoError(t, backend.SetVisibility(ctx, "shared.txt", v))
			}
		}()
	}
	wg.Wait()

	_, err = backend.LastModified(ctx, "shared.txt")
	require.NoError(t, err)
}
