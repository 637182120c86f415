package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty is root", "", ""},
		{"dot is root", ".", ""},
		{"slash is root", "/", ""},
		{"plain", "a/b/c.txt", "a/b/c.txt"},
		{"leading slash stripped", "/a/b", "a/b"},
		{"trailing slash stripped", "a/b/", "a/b"},
		{"backslashes converted", `a\b\c.txt`, "a/b/c.txt"},
		{"double slashes collapsed", "a//b", "a/b"},
		{"dot segments collapsed", "a/./b", "a/b"},
		{"internal dotdot resolved", "a/b/../c", "a/c"},
		{"dotdot to root", "a/..", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePath(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizePath_RejectsEscape(t *testing.T) {
	for _, input := range []string{"..", "../x", "a/../../x", "/.."} {
		t.Run(input, func(t *testing.T) {
			_, err := NormalizePath(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPath)

			var pathErr *PathError
			require.ErrorAs(t, err, &pathErr)
			assert.Equal(t, "normalize", pathErr.Op)
		})
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		input string
		dir   string
		name  string
	}{
		{"", "", ""},
		{"file.txt", "", "file.txt"},
		{"a/file.txt", "a", "file.txt"},
		{"a/b/c", "a/b", "c"},
	}

	for _, tt := range tests {
		dir, name := SplitPath(tt.input)
		assert.Equal(t, tt.dir, dir, "dir of %q", tt.input)
		assert.Equal(t, tt.name, name, "name of %q", tt.input)
	}
}
