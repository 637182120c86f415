package shard

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/marmos91/shardfs/pkg/storage"
)

// Sharded wraps a storage.Backend and re-exposes the same interface over
// logical paths.
//
// Every operation computes the sharded physical path with the
// operation-appropriate role (directory role for directory operations,
// file role otherwise), forwards the call to the inner backend with
// arguments and options unmodified, and passes the result back verbatim.
// Only Stat and List surface path-shaped data, so only they translate
// records back to logical coordinates. Errors carrying a physical path
// are rewritten so callers only ever see logical paths.
//
// Sharded holds no mutable state beyond the inner backend: the shard
// configuration is immutable for its lifetime and every call recomputes
// its paths from scratch. Multi-call operations (Move, Copy) are not
// atomic beyond whatever the inner backend guarantees per call.
type Sharded struct {
	backend storage.Backend
	sharder Sharder
	cfg     Config
}

// Ensure the facade keeps satisfying the backend contract.
var _ storage.Backend = (*Sharded)(nil)

// New wraps backend with path sharding under the given configuration.
func New(backend storage.Backend, cfg Config) (*Sharded, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Sharded{
		backend: backend,
		sharder: NewSharder(cfg),
		cfg:     cfg,
	}, nil
}

// Config returns the sharding parameters the facade was built with.
func (s *Sharded) Config() Config { return s.cfg }

// PhysicalPath exposes the logical-to-physical mapping for diagnostics
// and offline tooling. dirRole selects the role of the final segment.
func (s *Sharded) PhysicalPath(logical string, dirRole bool) (string, error) {
	norm, err := s.logicalPath(logical)
	if err != nil {
		return "", err
	}
	return s.sharder.ToPhysical(norm, dirRole), nil
}

// FileExists reports whether a logical file exists.
func (s *Sharded) FileExists(ctx context.Context, path string) (bool, error) {
	phys, norm, err := s.physical(path, false)
	if err != nil {
		return false, err
	}
	ok, err := s.backend.FileExists(ctx, phys)
	return ok, s.remap(err, norm)
}

// DirectoryExists reports whether a logical directory exists.
func (s *Sharded) DirectoryExists(ctx context.Context, path string) (bool, error) {
	phys, norm, err := s.physical(path, true)
	if err != nil {
		return false, err
	}
	ok, err := s.backend.DirectoryExists(ctx, phys)
	return ok, s.remap(err, norm)
}

// Read returns the entire content of a logical file.
func (s *Sharded) Read(ctx context.Context, path string) ([]byte, error) {
	phys, norm, err := s.physical(path, false)
	if err != nil {
		return nil, err
	}
	data, err := s.backend.Read(ctx, phys)
	return data, s.remap(err, norm)
}

// ReadStream returns a reader over the content of a logical file.
func (s *Sharded) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	phys, norm, err := s.physical(path, false)
	if err != nil {
		return nil, err
	}
	rc, err := s.backend.ReadStream(ctx, phys)
	return rc, s.remap(err, norm)
}

// Write creates or replaces a logical file. Options pass through to the
// inner backend unmodified.
func (s *Sharded) Write(ctx context.Context, path string, r io.Reader, opts storage.WriteOptions) error {
	phys, norm, err := s.physical(path, false)
	if err != nil {
		return err
	}
	return s.remap(s.backend.Write(ctx, phys, r, opts), norm)
}

// Delete removes a logical file.
func (s *Sharded) Delete(ctx context.Context, path string) error {
	phys, norm, err := s.physical(path, false)
	if err != nil {
		return err
	}
	return s.remap(s.backend.Delete(ctx, phys), norm)
}

// CreateDirectory creates a logical directory.
func (s *Sharded) CreateDirectory(ctx context.Context, path string) error {
	phys, norm, err := s.physical(path, true)
	if err != nil {
		return err
	}
	return s.remap(s.backend.CreateDirectory(ctx, phys), norm)
}

// DeleteDirectory removes a logical directory and everything below it.
// Deleting the logical root maps to the physical root and is refused by
// the inner backend with ErrRootViolation.
func (s *Sharded) DeleteDirectory(ctx context.Context, path string) error {
	phys, norm, err := s.physical(path, true)
	if err != nil {
		return err
	}
	return s.remap(s.backend.DeleteDirectory(ctx, phys), norm)
}

// Stat returns translated metadata for a logical path.
//
// The path is first tried in file role; if nothing is there, it is
// retried in directory role so a stat on a logical directory also
// resolves. The returned record refers exclusively to logical
// coordinates, with the raw physical record attached for diagnostics.
func (s *Sharded) Stat(ctx context.Context, path string) (*storage.Metadata, error) {
	norm, err := s.logicalPath(path)
	if err != nil {
		return nil, err
	}

	meta, err := s.backend.Stat(ctx, s.sharder.ToPhysical(norm, false))
	if err != nil && errors.Is(err, storage.ErrNotFound) {
		meta, err = s.backend.Stat(ctx, s.sharder.ToPhysical(norm, true))
	}
	if err != nil {
		return nil, s.remap(err, norm)
	}

	translated := ToLogical(*meta)
	return &translated, nil
}

// FileSize returns the size of a logical file.
func (s *Sharded) FileSize(ctx context.Context, path string) (int64, error) {
	phys, norm, err := s.physical(path, false)
	if err != nil {
		return 0, err
	}
	size, err := s.backend.FileSize(ctx, phys)
	return size, s.remap(err, norm)
}

// MimeType returns the content type of a logical file.
func (s *Sharded) MimeType(ctx context.Context, path string) (string, error) {
	phys, norm, err := s.physical(path, false)
	if err != nil {
		return "", err
	}
	mime, err := s.backend.MimeType(ctx, phys)
	return mime, s.remap(err, norm)
}

// LastModified returns the modification time of a logical file.
func (s *Sharded) LastModified(ctx context.Context, path string) (time.Time, error) {
	phys, norm, err := s.physical(path, false)
	if err != nil {
		return time.Time{}, err
	}
	t, err := s.backend.LastModified(ctx, phys)
	return t, s.remap(err, norm)
}

// Visibility returns the visibility of a logical file.
func (s *Sharded) Visibility(ctx context.Context, path string) (storage.Visibility, error) {
	phys, norm, err := s.physical(path, false)
	if err != nil {
		return "", err
	}
	v, err := s.backend.Visibility(ctx, phys)
	return v, s.remap(err, norm)
}

// SetVisibility changes the visibility of a logical file.
func (s *Sharded) SetVisibility(ctx context.Context, path string, v storage.Visibility) error {
	phys, norm, err := s.physical(path, false)
	if err != nil {
		return err
	}
	return s.remap(s.backend.SetVisibility(ctx, phys, v), norm)
}

// Move renames a logical file. The two underlying backend calls are not
// covered by any cross-call atomicity; a crash in between leaves the
// physical tree partially renamed.
func (s *Sharded) Move(ctx context.Context, src, dst string) error {
	physSrc, normSrc, err := s.physical(src, false)
	if err != nil {
		return err
	}
	physDst, normDst, err := s.physical(dst, false)
	if err != nil {
		return err
	}
	return s.remap(s.backend.Move(ctx, physSrc, physDst), normSrc, normDst)
}

// Copy duplicates a logical file.
func (s *Sharded) Copy(ctx context.Context, src, dst string) error {
	physSrc, normSrc, err := s.physical(src, false)
	if err != nil {
		return err
	}
	physDst, normDst, err := s.physical(dst, false)
	if err != nil {
		return err
	}
	return s.remap(s.backend.Copy(ctx, physSrc, physDst), normSrc, normDst)
}

// Close closes the inner backend.
func (s *Sharded) Close() error {
	return s.backend.Close()
}

// logicalPath normalizes a caller path and enforces the marker
// reservation: no logical segment may begin with the marker character,
// since translation back would misread it as a real segment of a
// different path.
func (s *Sharded) logicalPath(p string) (string, error) {
	norm, err := storage.NormalizePath(p)
	if err != nil {
		return "", err
	}

	if norm != "" {
		for _, segment := range strings.Split(norm, "/") {
			if strings.HasPrefix(segment, Marker) {
				return "", &storage.PathError{Op: "shard", Path: p, Err: storage.ErrInvalidPath}
			}
		}
	}

	return norm, nil
}

// physical normalizes a caller path and computes its sharded form for the
// given role, returning both.
func (s *Sharded) physical(p string, dirRole bool) (phys, norm string, err error) {
	norm, err = s.logicalPath(p)
	if err != nil {
		return "", "", err
	}
	return s.sharder.ToPhysical(norm, dirRole), norm, nil
}

// remap rewrites physical paths embedded in not-found, already-exists and
// root-violation errors back to the logical paths the caller used. Both
// role renderings of each logical path are tried, since the failing call
// may have used either. All other errors pass through untouched.
func (s *Sharded) remap(err error, logicalPaths ...string) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) &&
		!errors.Is(err, storage.ErrAlreadyExists) &&
		!errors.Is(err, storage.ErrRootViolation) {
		return err
	}

	msg := err.Error()
	for _, logical := range logicalPaths {
		if logical == "" {
			continue
		}
		for _, phys := range []string{
			s.sharder.ToPhysical(logical, false),
			s.sharder.ToPhysical(logical, true),
		} {
			msg = strings.ReplaceAll(msg, phys, logical)
		}
	}

	if msg == err.Error() {
		return err
	}
	return &remappedError{msg: msg, cause: err}
}

// remappedError re-raises a backend error with its message rewritten to
// logical coordinates. The original error stays reachable through Unwrap
// so the kind is preserved and the physical path remains available for
// diagnostics.
type remappedError struct {
	msg   string
	cause error
}

func (e *remappedError) Error() string { return e.msg }

func (e *remappedError) Unwrap() error { return e.cause }
