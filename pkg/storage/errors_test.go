package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathError_Message(t *testing.T) {
	err := &PathError{Op: "read", Path: "a/b.txt", Err: ErrNotFound}
	assert.Equal(t, "read a/b.txt: path not found", err.Error())
}

func TestPathError_Unwrap(t *testing.T) {
	err := &PathError{Op: "delete", Path: "x", Err: ErrNotFound}

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrAlreadyExists)

	// Wrapping once more keeps both the sentinel and the PathError
	// reachable.
	wrapped := fmt.Errorf("cleanup failed: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)

	var pathErr *PathError
	require.True(t, errors.As(wrapped, &pathErr))
	assert.Equal(t, "x", pathErr.Path)
}
