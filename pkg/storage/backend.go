// Package storage defines the contract between the path-sharding layer and
// the hierarchical key/blob stores it fronts.
//
// A Backend speaks slash-delimited paths with standard file-operation
// semantics. It has no opinion about whether the paths it receives are
// logical or physical; the sharding layer in pkg/shard wraps any Backend
// and rewrites paths on the way in and metadata on the way out.
package storage

import (
	"context"
	"io"
	"time"
)

// Backend is the operation set required from a storage provider.
//
// All paths are normalized (slash-separated, no leading slash, "" = root).
// Implementations report failures using the sentinel errors in this
// package, wrapped in *PathError so callers can recover the offending
// path. Operations are synchronous; cancellation and timeouts are the
// backend's responsibility via ctx.
//
// Thread safety: implementations must be safe for concurrent use. No
// atomicity is guaranteed across multiple calls.
type Backend interface {
	// FileExists reports whether a regular file exists at path.
	FileExists(ctx context.Context, path string) (bool, error)

	// DirectoryExists reports whether a directory exists at path.
	DirectoryExists(ctx context.Context, path string) (bool, error)

	// Read returns the entire content of the file at path.
	// Returns ErrNotFound if the file does not exist.
	Read(ctx context.Context, path string) ([]byte, error)

	// ReadStream returns a reader over the content of the file at path.
	// The caller must close the returned reader.
	ReadStream(ctx context.Context, path string) (io.ReadCloser, error)

	// Write creates or replaces the file at path with the content read
	// from r. Missing parent directories are created implicitly.
	Write(ctx context.Context, path string, r io.Reader, opts WriteOptions) error

	// Delete removes the file at path. Deleting a missing file returns
	// ErrNotFound.
	Delete(ctx context.Context, path string) error

	// CreateDirectory creates the directory at path, including missing
	// parents. Creating an existing directory is not an error.
	CreateDirectory(ctx context.Context, path string) error

	// DeleteDirectory removes the directory at path and everything below
	// it. Deleting the root ("") returns ErrRootViolation.
	DeleteDirectory(ctx context.Context, path string) error

	// List returns the entries of the directory at path. With recursive
	// set, all transitively contained entries are returned. Listing a
	// missing directory returns an empty slice, not an error.
	List(ctx context.Context, path string, recursive bool) ([]Metadata, error)

	// Stat returns metadata for the file or directory at path.
	Stat(ctx context.Context, path string) (*Metadata, error)

	// FileSize returns the size in bytes of the file at path.
	FileSize(ctx context.Context, path string) (int64, error)

	// MimeType returns the content type of the file at path.
	MimeType(ctx context.Context, path string) (string, error)

	// LastModified returns the modification time of the file at path.
	LastModified(ctx context.Context, path string) (time.Time, error)

	// Visibility returns the visibility of the file at path.
	Visibility(ctx context.Context, path string) (Visibility, error)

	// SetVisibility changes the visibility of the file at path.
	SetVisibility(ctx context.Context, path string, v Visibility) error

	// Move renames the file at src to dst, replacing any existing file.
	Move(ctx context.Context, src, dst string) error

	// Copy duplicates the file at src to dst, replacing any existing file.
	Copy(ctx context.Context, src, dst string) error

	// Close releases any resources held by the backend.
	Close() error
}
