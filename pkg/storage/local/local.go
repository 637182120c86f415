// Package local implements a storage backend rooted at a directory on the
// local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/marmos91/shardfs/pkg/storage"
)

// File and directory modes per visibility. Visibility maps onto the
// world-readable bit: public entries are readable by everyone, private
// ones by the owner only.
const (
	filePublic  = 0o644
	filePrivate = 0o600
	dirPublic   = 0o755
	dirPrivate  = 0o700
)

// Backend stores files under a base directory on the local filesystem.
//
// Paths are joined under the base directory after normalization, so a
// backend can never read or write outside its root. Filesystem operations
// are thread-safe at the OS level; concurrent writes to the same path are
// the caller's problem, as with any filesystem.
type Backend struct {
	root string
}

var _ storage.Backend = (*Backend)(nil)

// New creates a local backend rooted at root, creating the directory if
// it does not exist.
func New(ctx context.Context, root string) (*Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(root, dirPublic); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{root: root}, nil
}

// fullPath resolves a normalized storage path to an absolute filesystem
// path under the root.
func (b *Backend) fullPath(p string) string {
	return filepath.Join(b.root, filepath.FromSlash(p))
}

func (b *Backend) FileExists(ctx context.Context, path string) (bool, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(b.fullPath(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (b *Backend) DirectoryExists(ctx context.Context, path string) (bool, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(b.fullPath(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (b *Backend) Read(ctx context.Context, path string) ([]byte, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.fullPath(p))
	if err != nil {
		return nil, mapError("read", p, err)
	}
	return data, nil
}

func (b *Backend) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(b.fullPath(p))
	if err != nil {
		return nil, mapError("read", p, err)
	}
	return f, nil
}

func (b *Backend) Write(ctx context.Context, path string, r io.Reader, opts storage.WriteOptions) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if p == "" {
		return &storage.PathError{Op: "write", Path: path, Err: storage.ErrInvalidPath}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full := b.fullPath(p)
	if err := os.MkdirAll(filepath.Dir(full), dirPublic); err != nil {
		return mapError("write", p, err)
	}

	mode := os.FileMode(filePublic)
	if opts.Visibility == storage.VisibilityPrivate {
		mode = filePrivate
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return mapError("write", p, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return mapError("write", p, err)
	}
	return f.Close()
}

func (b *Backend) Delete(ctx context.Context, path string) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(b.fullPath(p)); err != nil {
		return mapError("delete", p, err)
	}
	return nil
}

func (b *Backend) CreateDirectory(ctx context.Context, path string) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(b.fullPath(p), dirPublic); err != nil {
		return mapError("create_directory", p, err)
	}
	return nil
}

func (b *Backend) DeleteDirectory(ctx context.Context, path string) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if p == "" {
		return &storage.PathError{Op: "delete_directory", Path: p, Err: storage.ErrRootViolation}
	}

	info, err := os.Stat(b.fullPath(p))
	if err != nil {
		return mapError("delete_directory", p, err)
	}
	if !info.IsDir() {
		return &storage.PathError{Op: "delete_directory", Path: p, Err: storage.ErrNotFound}
	}

	return os.RemoveAll(b.fullPath(p))
}

func (b *Backend) List(ctx context.Context, path string, recursive bool) ([]storage.Metadata, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if recursive {
		return b.listRecursive(p)
	}

	entries, err := os.ReadDir(b.fullPath(p))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]storage.Metadata, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info.
			continue
		}
		out = append(out, infoMetadata(childPath(p, entry.Name()), info))
	}
	return out, nil
}

func (b *Backend) listRecursive(p string) ([]storage.Metadata, error) {
	root := b.fullPath(p)

	var out []storage.Metadata
	err := filepath.WalkDir(root, func(fsPath string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if fsPath == root {
			return nil
		}

		rel, err := filepath.Rel(b.root, fsPath)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, infoMetadata(filepath.ToSlash(rel), info))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (b *Backend) Stat(ctx context.Context, path string) (*storage.Metadata, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(b.fullPath(p))
	if err != nil {
		return nil, mapError("stat", p, err)
	}

	meta := infoMetadata(p, info)
	return &meta, nil
}

func (b *Backend) FileSize(ctx context.Context, path string) (int64, error) {
	meta, err := b.statFile(ctx, path, "file_size")
	if err != nil {
		return 0, err
	}
	return meta.Size, nil
}

func (b *Backend) MimeType(ctx context.Context, path string) (string, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mime, err := mimetype.DetectFile(b.fullPath(p))
	if err != nil {
		return "", mapError("mime_type", p, err)
	}
	return mime.String(), nil
}

func (b *Backend) LastModified(ctx context.Context, path string) (time.Time, error) {
	meta, err := b.statFile(ctx, path, "last_modified")
	if err != nil {
		return time.Time{}, err
	}
	return meta.LastModified, nil
}

func (b *Backend) Visibility(ctx context.Context, path string) (storage.Visibility, error) {
	meta, err := b.statFile(ctx, path, "visibility")
	if err != nil {
		return "", err
	}
	return meta.Visibility, nil
}

func (b *Backend) SetVisibility(ctx context.Context, path string, v storage.Visibility) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full := b.fullPath(p)
	info, err := os.Stat(full)
	if err != nil {
		return mapError("set_visibility", p, err)
	}

	var mode os.FileMode
	switch {
	case info.IsDir() && v == storage.VisibilityPrivate:
		mode = dirPrivate
	case info.IsDir():
		mode = dirPublic
	case v == storage.VisibilityPrivate:
		mode = filePrivate
	default:
		mode = filePublic
	}

	if err := os.Chmod(full, mode); err != nil {
		return mapError("set_visibility", p, err)
	}
	return nil
}

func (b *Backend) Move(ctx context.Context, src, dst string) error {
	s, d, err := b.pair(ctx, src, dst)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(b.fullPath(d)), dirPublic); err != nil {
		return mapError("move", d, err)
	}
	if err := os.Rename(b.fullPath(s), b.fullPath(d)); err != nil {
		return mapError("move", s, err)
	}
	return nil
}

func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	s, d, err := b.pair(ctx, src, dst)
	if err != nil {
		return err
	}

	in, err := os.Open(b.fullPath(s))
	if err != nil {
		return mapError("copy", s, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return mapError("copy", s, err)
	}

	if err := os.MkdirAll(filepath.Dir(b.fullPath(d)), dirPublic); err != nil {
		return mapError("copy", d, err)
	}

	out, err := os.OpenFile(b.fullPath(d), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return mapError("copy", d, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return mapError("copy", d, err)
	}
	return out.Close()
}

func (b *Backend) Close() error { return nil }

func (b *Backend) pair(ctx context.Context, src, dst string) (s, d string, err error) {
	s, err = storage.NormalizePath(src)
	if err != nil {
		return "", "", err
	}
	d, err = storage.NormalizePath(dst)
	if err != nil {
		return "", "", err
	}
	return s, d, ctx.Err()
}

func (b *Backend) statFile(ctx context.Context, path, op string) (*storage.Metadata, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(b.fullPath(p))
	if err != nil {
		return nil, mapError(op, p, err)
	}
	if info.IsDir() {
		return nil, &storage.PathError{Op: op, Path: p, Err: storage.ErrNotFound}
	}

	meta := infoMetadata(p, info)
	return &meta, nil
}

// mapError converts filesystem errors into the storage taxonomy.
func mapError(op, p string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &storage.PathError{Op: op, Path: p, Err: storage.ErrNotFound}
	case errors.Is(err, fs.ErrExist):
		return &storage.PathError{Op: op, Path: p, Err: storage.ErrAlreadyExists}
	default:
		return fmt.Errorf("%s %s: %w", op, p, err)
	}
}

func childPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func infoMetadata(p string, info fs.FileInfo) storage.Metadata {
	dir, name := storage.SplitPath(p)

	meta := storage.Metadata{
		Path:         p,
		Name:         name,
		Dir:          dir,
		Type:         storage.TypeFile,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		Visibility:   storage.VisibilityPrivate,
	}
	if info.IsDir() {
		meta.Type = storage.TypeDirectory
		meta.Size = 0
	}
	if info.Mode().Perm()&0o044 != 0 {
		meta.Visibility = storage.VisibilityPublic
	}
	return meta
}
