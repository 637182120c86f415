// Package badger implements a persistent storage backend on BadgerDB.
//
// Key Namespace Design
// ====================
//
// BadgerDB is a flat key-value store, so paths are organized with prefixed
// keys, one namespace per record type:
//
//	Data Type    Prefix   Key Format     Value
//	=======================================================
//	Metadata     "m:"     m:<path>       record (JSON)
//	Blob         "b:"     b:<path>       raw content bytes
//
// Directory listings are range scans over "m:<dir>/". JSON for the
// metadata records keeps the database debuggable; blobs stay raw.
package badger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/gabriel-vasile/mimetype"

	"github.com/marmos91/shardfs/pkg/storage"
)

const (
	metaPrefix = "m:"
	blobPrefix = "b:"
)

// record is the stored JSON form of an entry's metadata.
type record struct {
	Type       storage.EntryType  `json:"type"`
	Size       int64              `json:"size"`
	MimeType   string             `json:"mime_type,omitempty"`
	Modified   time.Time          `json:"modified"`
	Visibility storage.Visibility `json:"visibility,omitempty"`
}

// Config contains configuration for the Badger backend.
type Config struct {
	// DBPath is the directory where BadgerDB stores its files.
	DBPath string

	// InMemory opens the database without touching disk. For tests.
	InMemory bool
}

// Backend implements storage.Backend on a BadgerDB database.
//
// Transactions give each operation atomicity; no atomicity is provided
// across operations, matching the backend contract.
type Backend struct {
	db *badger.DB
}

var _ storage.Backend = (*Backend)(nil)

// New opens (creating if necessary) a Badger-backed storage backend.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger backend: db_path is required")
	}

	opts := badger.DefaultOptions(cfg.DBPath)
	opts = opts.WithLoggingLevel(badger.WARNING)
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	return &Backend{db: db}, nil
}

func metaKey(p string) []byte { return []byte(metaPrefix + p) }
func blobKey(p string) []byte { return []byte(blobPrefix + p) }

func (b *Backend) FileExists(ctx context.Context, path string) (bool, error) {
	rec, _, err := b.getRecord(ctx, path, "file_exists")
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return rec.Type == storage.TypeFile, nil
}

func (b *Backend) DirectoryExists(ctx context.Context, path string) (bool, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return false, err
	}
	if p == "" {
		return true, nil
	}

	rec, _, err := b.getRecord(ctx, p, "directory_exists")
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return rec.Type == storage.TypeDirectory, nil
}

func (b *Backend) Read(ctx context.Context, path string) ([]byte, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(p))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, &storage.PathError{Op: "read", Path: p, Err: storage.ErrNotFound}
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
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

	rec := record{
		Type:       storage.TypeFile,
		Size:       int64(len(data)),
		MimeType:   opts.MimeType,
		Modified:   time.Now(),
		Visibility: visibility,
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if err := putRecord(txn, p, rec); err != nil {
			return err
		}
		if err := txn.Set(blobKey(p), data); err != nil {
			return err
		}
		return ensureParents(txn, p)
	})
}

func (b *Backend) Delete(ctx context.Context, path string) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		rec, err := readRecord(txn, p)
		if err != nil {
			return err
		}
		if rec.Type != storage.TypeFile {
			return badger.ErrKeyNotFound
		}
		if err := txn.Delete(metaKey(p)); err != nil {
			return err
		}
		return txn.Delete(blobKey(p))
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return &storage.PathError{Op: "delete", Path: p, Err: storage.ErrNotFound}
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (b *Backend) CreateDirectory(ctx context.Context, path string) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if p == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		if err := putRecord(txn, p, record{Type: storage.TypeDirectory, Modified: time.Now()}); err != nil {
			return err
		}
		return ensureParents(txn, p)
	})
}

func (b *Backend) DeleteDirectory(ctx context.Context, path string) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if p == "" {
		return &storage.PathError{Op: "delete_directory", Path: p, Err: storage.ErrRootViolation}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		rec, err := readRecord(txn, p)
		if err != nil {
			return err
		}
		if rec.Type != storage.TypeDirectory {
			return badger.ErrKeyNotFound
		}

		// Collect first, delete second: Badger iterators must not see
		// writes made inside the same loop.
		var doomed [][]byte
		prefix := []byte(metaPrefix + p + "/")
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		for it.Rewind(); it.Valid(); it.Next() {
			entry := strings.TrimPrefix(string(it.Item().Key()), metaPrefix)
			doomed = append(doomed, metaKey(entry), blobKey(entry))
		}
		it.Close()
		doomed = append(doomed, metaKey(p))

		for _, key := range doomed {
			if err := txn.Delete(key); err != nil && err != badger.ErrKeyNotFound {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return &storage.PathError{Op: "delete_directory", Path: p, Err: storage.ErrNotFound}
		}
		return fmt.Errorf("failed to delete directory: %w", err)
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

	scanPrefix := metaPrefix
	if p != "" {
		scanPrefix = metaPrefix + p + "/"
	}

	var out []storage.Metadata
	err = b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{
			Prefix:         []byte(scanPrefix),
			PrefetchValues: true,
			PrefetchSize:   100,
		})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			entry := strings.TrimPrefix(string(item.Key()), metaPrefix)

			if !recursive {
				parent, _ := storage.SplitPath(entry)
				if parent != p {
					continue
				}
			}

			var rec record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec.metadata(entry))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}
	return out, nil
}

func (b *Backend) Stat(ctx context.Context, path string) (*storage.Metadata, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}

	if p == "" {
		meta := record{Type: storage.TypeDirectory}.metadata("")
		return &meta, nil
	}

	rec, p, err := b.getRecord(ctx, p, "stat")
	if err != nil {
		return nil, err
	}
	meta := rec.metadata(p)
	return &meta, nil
}

func (b *Backend) FileSize(ctx context.Context, path string) (int64, error) {
	rec, _, err := b.getFileRecord(ctx, path, "file_size")
	if err != nil {
		return 0, err
	}
	return rec.Size, nil
}

func (b *Backend) MimeType(ctx context.Context, path string) (string, error) {
	rec, p, err := b.getFileRecord(ctx, path, "mime_type")
	if err != nil {
		return "", err
	}
	if rec.MimeType != "" {
		return rec.MimeType, nil
	}

	data, err := b.Read(ctx, p)
	if err != nil {
		return "", err
	}
	return mimetype.Detect(data).String(), nil
}

func (b *Backend) LastModified(ctx context.Context, path string) (time.Time, error) {
	rec, _, err := b.getFileRecord(ctx, path, "last_modified")
	if err != nil {
		return time.Time{}, err
	}
	return rec.Modified, nil
}

func (b *Backend) Visibility(ctx context.Context, path string) (storage.Visibility, error) {
	rec, _, err := b.getFileRecord(ctx, path, "visibility")
	if err != nil {
		return "", err
	}
	return rec.Visibility, nil
}

func (b *Backend) SetVisibility(ctx context.Context, path string, v storage.Visibility) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		rec, err := readRecord(txn, p)
		if err != nil {
			return err
		}
		rec.Visibility = v
		return putRecord(txn, p, rec)
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return &storage.PathError{Op: "set_visibility", Path: p, Err: storage.ErrNotFound}
		}
		return fmt.Errorf("failed to update visibility: %w", err)
	}
	return nil
}

func (b *Backend) Move(ctx context.Context, src, dst string) error {
	return b.transfer(ctx, src, dst, "move", true)
}

func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	return b.transfer(ctx, src, dst, "copy", false)
}

// Close closes the underlying database. The backend is unusable after.
func (b *Backend) Close() error {
	return b.db.Close()
}

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

	err = b.db.Update(func(txn *badger.Txn) error {
		rec, err := readRecord(txn, s)
		if err != nil {
			return err
		}
		if rec.Type != storage.TypeFile {
			return badger.ErrKeyNotFound
		}

		item, err := txn.Get(blobKey(s))
		if err != nil {
			return err
		}
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		rec.Modified = time.Now()
		if err := putRecord(txn, d, rec); err != nil {
			return err
		}
		if err := txn.Set(blobKey(d), data); err != nil {
			return err
		}
		if err := ensureParents(txn, d); err != nil {
			return err
		}

		if removeSrc {
			if err := txn.Delete(metaKey(s)); err != nil {
				return err
			}
			return txn.Delete(blobKey(s))
		}
		return nil
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return &storage.PathError{Op: op, Path: s, Err: storage.ErrNotFound}
		}
		return fmt.Errorf("failed to %s blob: %w", op, err)
	}
	return nil
}

func (b *Backend) getRecord(ctx context.Context, path, op string) (record, string, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return record{}, "", err
	}
	if err := ctx.Err(); err != nil {
		return record{}, "", err
	}

	var rec record
	err = b.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = readRecord(txn, p)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return record{}, "", &storage.PathError{Op: op, Path: p, Err: storage.ErrNotFound}
		}
		return record{}, "", fmt.Errorf("failed to read record: %w", err)
	}
	return rec, p, nil
}

func (b *Backend) getFileRecord(ctx context.Context, path, op string) (record, string, error) {
	rec, p, err := b.getRecord(ctx, path, op)
	if err != nil {
		return record{}, "", err
	}
	if rec.Type != storage.TypeFile {
		return record{}, "", &storage.PathError{Op: op, Path: p, Err: storage.ErrNotFound}
	}
	return rec, p, nil
}

func readRecord(txn *badger.Txn, p string) (record, error) {
	item, err := txn.Get(metaKey(p))
	if err != nil {
		return record{}, err
	}

	var rec record
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

func putRecord(txn *badger.Txn, p string, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return txn.Set(metaKey(p), data)
}

// ensureParents materializes directory records for every ancestor of p.
func ensureParents(txn *badger.Txn, p string) error {
	dir, _ := storage.SplitPath(p)
	for dir != "" {
		if _, err := txn.Get(metaKey(dir)); err == nil {
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if err := putRecord(txn, dir, record{Type: storage.TypeDirectory, Modified: time.Now()}); err != nil {
			return err
		}
		dir, _ = storage.SplitPath(dir)
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

func (r record) metadata(p string) storage.Metadata {
	dir, name := storage.SplitPath(p)
	return storage.Metadata{
		Path:         p,
		Name:         name,
		Dir:          dir,
		Type:         r.Type,
		Size:         r.Size,
		MimeType:     r.MimeType,
		LastModified: r.Modified,
		Visibility:   r.Visibility,
	}
}
