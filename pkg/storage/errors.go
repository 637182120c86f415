package storage

import (
	"errors"
	"fmt"
)

// ============================================================================
// Standard Backend Errors
// ============================================================================

// These errors provide a consistent way to indicate common failure conditions
// across all backend implementations. The sharding layer checks for these
// kinds when deciding whether an error message needs its embedded physical
// path rewritten back to the caller's logical path.
//
// Usage Pattern:
//
//	data, err := backend.Read(ctx, p)
//	if err != nil {
//	    if errors.Is(err, storage.ErrNotFound) {
//	        // handle missing file
//	    }
//	    return err
//	}
//
// Error Wrapping:
// Implementations should wrap these sentinels in a *PathError so the
// offending path stays machine-readable:
//
//	return &storage.PathError{Op: "read", Path: p, Err: storage.ErrNotFound}

var (
	// ErrNotFound indicates the requested file or directory does not exist.
	ErrNotFound = errors.New("path not found")

	// ErrAlreadyExists indicates the target path already exists and the
	// operation has exclusive-create semantics.
	ErrAlreadyExists = errors.New("path already exists")

	// ErrRootViolation indicates an attempt to delete the storage root.
	ErrRootViolation = errors.New("cannot delete storage root")

	// ErrInvalidPath indicates the path is malformed or uses a name
	// reserved by the storage layer.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotSupported indicates the backend does not implement the
	// requested operation.
	ErrNotSupported = errors.New("operation not supported")
)

// PathError records an error and the path that caused it.
//
// Backends attach the path they were called with (a physical path once the
// sharding layer is in front of them); the sharding layer rewrites the
// rendered message back to logical coordinates before errors reach the
// caller, while Path keeps the physical form the backend saw so the
// original error stays available as a diagnostic via errors.As.
type PathError struct {
	// Op is the failing operation ("read", "write", "list", ...).
	Op string

	// Path is the path the operation was invoked with.
	Path string

	// Err is the underlying cause, usually one of the sentinel errors above.
	Err error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}
