// Package memory implements an in-memory storage backend.
//
// It exists for tests, development and ephemeral deployments: all state
// lives in two maps and disappears with the process. The implementation
// is deliberately dependency-free so test packages can use it without any
// infrastructure.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/marmos91/shardfs/pkg/storage"
)

// file is a stored regular file with its content and attributes.
type file struct {
	data       []byte
	mimeType   string
	visibility storage.Visibility
	modified   time.Time
}

// Backend is a thread-safe in-memory storage.Backend.
//
// Files and directories are separate namespaces keyed by normalized path.
// Parent directories are created implicitly on write, mirroring how
// object stores materialize prefixes. The root ("") always exists.
type Backend struct {
	mu    sync.RWMutex
	files map[string]*file
	dirs  map[string]time.Time
}

var _ storage.Backend = (*Backend)(nil)

// New returns an empty in-memory backend.
func New() *Backend {
	return &Backend{
		files: make(map[string]*file),
		dirs:  make(map[string]time.Time),
	}
}

func (b *Backend) FileExists(ctx context.Context, path string) (bool, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.files[p]
	return ok, nil
}

func (b *Backend) DirectoryExists(ctx context.Context, path string) (bool, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if p == "" {
		return true, nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.dirs[p]
	return ok, nil
}

func (b *Backend) Read(ctx context.Context, path string) ([]byte, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	f, ok := b.files[p]
	if !ok {
		return nil, &storage.PathError{Op: "read", Path: p, Err: storage.ErrNotFound}
	}

	// Copy so callers cannot mutate stored content.
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, nil
}

func (b *Backend) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	data, err := b.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
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

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	visibility := opts.Visibility
	if visibility == "" {
		visibility = storage.VisibilityPublic
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.mkdirAllLocked(parentOf(p))
	b.files[p] = &file{
		data:       data,
		mimeType:   opts.MimeType,
		visibility: visibility,
		modified:   time.Now(),
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, path string) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.files[p]; !ok {
		return &storage.PathError{Op: "delete", Path: p, Err: storage.ErrNotFound}
	}
	delete(b.files, p)
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

	b.mu.Lock()
	defer b.mu.Unlock()
	b.mkdirAllLocked(p)
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

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.dirs[p]; !ok {
		return &storage.PathError{Op: "delete_directory", Path: p, Err: storage.ErrNotFound}
	}

	prefix := p + "/"
	for name := range b.files {
		if strings.HasPrefix(name, prefix) {
			delete(b.files, name)
		}
	}
	for name := range b.dirs {
		if name == p || strings.HasPrefix(name, prefix) {
			delete(b.dirs, name)
		}
	}
	return nil
}

func (b *Backend) List(ctx context.Context, path string, recursive bool) ([]storage.Metadata, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []storage.Metadata

	for name, modified := range b.dirs {
		if inScope(name, p, recursive) {
			out = append(out, dirMetadata(name, modified))
		}
	}
	for name, f := range b.files {
		if inScope(name, p, recursive) {
			out = append(out, fileMetadata(name, f))
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
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

	b.mu.RLock()
	defer b.mu.RUnlock()

	if f, ok := b.files[p]; ok {
		meta := fileMetadata(p, f)
		return &meta, nil
	}
	if modified, ok := b.dirs[p]; ok || p == "" {
		meta := dirMetadata(p, modified)
		return &meta, nil
	}
	return nil, &storage.PathError{Op: "stat", Path: p, Err: storage.ErrNotFound}
}

func (b *Backend) FileSize(ctx context.Context, path string) (int64, error) {
	f, _, err := b.lookup(ctx, path, "file_size")
	if err != nil {
		return 0, err
	}
	return int64(len(f.data)), nil
}

func (b *Backend) MimeType(ctx context.Context, path string) (string, error) {
	f, _, err := b.lookup(ctx, path, "mime_type")
	if err != nil {
		return "", err
	}
	if f.mimeType != "" {
		return f.mimeType, nil
	}
	return mimetype.Detect(f.data).String(), nil
}

func (b *Backend) LastModified(ctx context.Context, path string) (time.Time, error) {
	f, _, err := b.lookup(ctx, path, "last_modified")
	if err != nil {
		return time.Time{}, err
	}
	return f.modified, nil
}

func (b *Backend) Visibility(ctx context.Context, path string) (storage.Visibility, error) {
	f, _, err := b.lookup(ctx, path, "visibility")
	if err != nil {
		return "", err
	}
	return f.visibility, nil
}

func (b *Backend) SetVisibility(ctx context.Context, path string, v storage.Visibility) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.files[p]
	if !ok {
		return &storage.PathError{Op: "set_visibility", Path: p, Err: storage.ErrNotFound}
	}
	f.visibility = v
	return nil
}

func (b *Backend) Move(ctx context.Context, src, dst string) error {
	return b.transfer(ctx, src, dst, "move", true)
}

func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	return b.transfer(ctx, src, dst, "copy", false)
}

func (b *Backend) Close() error { return nil }

// transfer implements Move and Copy; removeSrc distinguishes them.
func (b *Backend) transfer(ctx context.Context, src, dst, op string, removeSrc bool) error {
	s, err := storage.NormalizePath(src)
	if err != nil {
		return err
	}
	d, err := storage.NormalizePath(dst)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	f, ok := b.files[s]
	if !ok {
		return &storage.PathError{Op: op, Path: s, Err: storage.ErrNotFound}
	}

	data := make([]byte, len(f.data))
	copy(data, f.data)

	b.mkdirAllLocked(parentOf(d))
	b.files[d] = &file{
		data:       data,
		mimeType:   f.mimeType,
		visibility: f.visibility,
		modified:   time.Now(),
	}
	if removeSrc {
		delete(b.files, s)
	}
	return nil
}

// lookup copies a file entry while the read lock is held. Callers get a
// snapshot they can inspect after the lock is released; SetVisibility
// mutates the stored entry under the write lock, so handing out the
// shared pointer would race.
func (b *Backend) lookup(ctx context.Context, path, op string) (file, string, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return file{}, "", err
	}
	if err := ctx.Err(); err != nil {
		return file{}, "", err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	f, ok := b.files[p]
	if !ok {
		return file{}, "", &storage.PathError{Op: op, Path: p, Err: storage.ErrNotFound}
	}
	return *f, p, nil
}

// mkdirAllLocked materializes a directory and all its ancestors. Caller
// holds the write lock.
func (b *Backend) mkdirAllLocked(p string) {
	for p != "" {
		if _, ok := b.dirs[p]; ok {
			return
		}
		b.dirs[p] = time.Now()
		p = parentOf(p)
	}
}

func parentOf(p string) string {
	dir, _ := storage.SplitPath(p)
	return dir
}

// inScope reports whether entry name belongs to a listing of dir.
func inScope(name, dir string, recursive bool) bool {
	parent, _ := storage.SplitPath(name)
	if parent == dir {
		return true
	}
	if !recursive {
		return false
	}
	if dir == "" {
		return true
	}
	return strings.HasPrefix(name, dir+"/")
}

func fileMetadata(p string, f *file) storage.Metadata {
	dir, name := storage.SplitPath(p)
	return storage.Metadata{
		Path:         p,
		Name:         name,
		Dir:          dir,
		Type:         storage.TypeFile,
		Size:         int64(len(f.data)),
		MimeType:     f.mimeType,
		LastModified: f.modified,
		Visibility:   f.visibility,
	}
}

func dirMetadata(p string, modified time.Time) storage.Metadata {
	dir, name := storage.SplitPath(p)
	return storage.Metadata{
		Path:         p,
		Name:         name,
		Dir:          dir,
		Type:         storage.TypeDirectory,
		LastModified: modified,
	}
}
