package storage

import (
	gopath "path"
	"strings"
)

// NormalizePath converts a caller-supplied path into the canonical form
// used throughout the storage layer: forward slashes, no leading or
// trailing slash, "." segments collapsed, "" for the root.
//
// Paths attempting to escape the root via ".." are rejected with
// ErrInvalidPath; backends never see them.
func NormalizePath(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "/")

	if p == "" || p == "." {
		return "", nil
	}

	cleaned := gopath.Clean(p)
	if cleaned == "." {
		return "", nil
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", &PathError{Op: "normalize", Path: p, Err: ErrInvalidPath}
	}

	return cleaned, nil
}
