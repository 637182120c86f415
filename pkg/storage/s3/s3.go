// Package s3 implements a storage backend on Amazon S3 or S3-compatible
// object storage.
//
// Path-Based Key Design:
//   - Object keys mirror storage paths under an optional key prefix
//   - Directories are zero-byte marker objects with a trailing "/"
//   - Human-readable and inspectable bucket contents
//
// Characteristics:
//   - Listings use ListObjectsV2 with "/" as delimiter for one level
//   - Visibility is recorded as object metadata, not as an S3 ACL
//   - Concurrent writes to the same key are last-write-wins
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"

	"github.com/marmos91/shardfs/pkg/storage"
)

// visibilityMetadataKey is the object metadata key holding the entry's
// visibility.
const visibilityMetadataKey = "visibility"

// deleteBatchSize is the DeleteObjects API limit per request.
const deleteBatchSize = 1000

// Config contains configuration for the S3 backend.
type Config struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the S3 bucket name. The bucket must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	KeyPrefix string
}

// Backend implements storage.Backend on an S3 bucket.
type Backend struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

var _ storage.Backend = (*Backend)(nil)

// New creates an S3 backend from an already configured client.
//
// The bucket is not created or verified here; the first operation will
// surface access problems.
func New(cfg Config) (*Backend, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("s3 backend: client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 backend: bucket is required")
	}

	prefix := strings.Trim(cfg.KeyPrefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	return &Backend{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: prefix,
	}, nil
}

// objectKey maps a normalized storage path to its object key.
func (b *Backend) objectKey(p string) string {
	return b.keyPrefix + p
}

// dirKey maps a normalized storage path to its directory prefix. The root
// maps to the bare key prefix.
func (b *Backend) dirKey(p string) string {
	if p == "" {
		return b.keyPrefix
	}
	return b.keyPrefix + p + "/"
}

// pathFromKey inverts objectKey, returning the storage path for a key.
func (b *Backend) pathFromKey(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, b.keyPrefix), "/")
}

func (b *Backend) FileExists(ctx context.Context, path string) (bool, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return false, err
	}

	_, err = b.head(ctx, b.objectKey(p))
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *Backend) DirectoryExists(ctx context.Context, path string) (bool, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return false, err
	}
	if p == "" {
		return true, nil
	}

	// A directory exists if its marker object exists or anything lives
	// under its prefix.
	if _, err := b.head(ctx, b.dirKey(p)); err == nil {
		return true, nil
	} else if !isNotFound(err) {
		return false, err
	}

	out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(b.bucket),
		Prefix:  aws.String(b.dirKey(p)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("failed to list S3 prefix: %w", err)
	}
	return len(out.Contents) > 0 || len(out.CommonPrefixes) > 0, nil
}

func (b *Backend) Read(ctx context.Context, path string) ([]byte, error) {
	rc, err := b.ReadStream(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (b *Backend) ReadStream(ctx context.Context, path string) (io.ReadCloser, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, &storage.PathError{Op: "read", Path: p, Err: storage.ErrNotFound}
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	return out.Body, nil
}

func (b *Backend) Write(ctx context.Context, path string, r io.Reader, opts storage.WriteOptions) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if p == "" {
		return &storage.PathError{Op: "write", Path: path, Err: storage.ErrInvalidPath}
	}

	// PutObject needs a seekable body for signing; buffer the content.
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	visibility := opts.Visibility
	if visibility == "" {
		visibility = storage.VisibilityPublic
	}

	// Record a content type either way: S3 has no later detection path
	// like the filesystem backends do.
	contentType := opts.MimeType
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(b.objectKey(p)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    map[string]string{visibilityMetadataKey: string(visibility)},
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put object to S3: %w", err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, path string) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}

	// S3 DeleteObject is idempotent; surface missing files explicitly to
	// match the backend contract.
	if _, err := b.head(ctx, b.objectKey(p)); err != nil {
		if isNotFound(err) {
			return &storage.PathError{Op: "delete", Path: p, Err: storage.ErrNotFound}
		}
		return err
	}

	if _, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(p)),
	}); err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
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

	// One marker object per level so intermediate directories list too.
	for _, dir := range ancestorsAndSelf(p) {
		if _, err := b.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(b.dirKey(dir)),
			Body:   bytes.NewReader(nil),
		}); err != nil {
			return fmt.Errorf("failed to create directory marker: %w", err)
		}
	}
	return nil
}

func (b *Backend) DeleteDirectory(ctx context.Context, path string) error {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return err
	}
	if p == "" {
		return &storage.PathError{Op: "delete_directory", Path: p, Err: storage.ErrRootViolation}
	}

	exists, err := b.DirectoryExists(ctx, p)
	if err != nil {
		return err
	}
	if !exists {
		return &storage.PathError{Op: "delete_directory", Path: p, Err: storage.ErrNotFound}
	}

	// Collect and batch-delete everything under the prefix, marker
	// included. DeleteObjects caps at 1000 keys per call.
	var batch []types.ObjectIdentifier
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		_, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(b.bucket),
			Delete: &types.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		batch = batch[:0]
		if err != nil {
			return fmt.Errorf("failed to batch delete from S3: %w", err)
		}
		return nil
	}

	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.dirKey(p)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list S3 prefix: %w", err)
		}
		for _, obj := range page.Contents {
			batch = append(batch, types.ObjectIdentifier{Key: obj.Key})
			if len(batch) == deleteBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

func (b *Backend) List(ctx context.Context, path string, recursive bool) ([]storage.Metadata, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.dirKey(p)),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}

	var out []storage.Metadata
	seen := make(map[string]bool)

	paginator := s3.NewListObjectsV2Paginator(b.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list S3 prefix: %w", err)
		}

		for _, prefix := range page.CommonPrefixes {
			dir := b.pathFromKey(aws.ToString(prefix.Prefix))
			if dir == "" || seen[dir] {
				continue
			}
			seen[dir] = true
			out = append(out, b.entryMetadata(dir, storage.TypeDirectory, 0, time.Time{}))
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			entry := b.pathFromKey(key)
			if entry == "" || entry == p || seen[entry] {
				continue
			}
			seen[entry] = true

			if strings.HasSuffix(key, "/") {
				out = append(out, b.entryMetadata(entry, storage.TypeDirectory, 0, aws.ToTime(obj.LastModified)))
				continue
			}
			out = append(out, b.entryMetadata(entry, storage.TypeFile, aws.ToInt64(obj.Size), aws.ToTime(obj.LastModified)))
		}
	}

	return out, nil
}

func (b *Backend) Stat(ctx context.Context, path string) (*storage.Metadata, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, err
	}

	if p == "" {
		meta := b.entryMetadata("", storage.TypeDirectory, 0, time.Time{})
		return &meta, nil
	}

	head, err := b.head(ctx, b.objectKey(p))
	if err == nil {
		dir, name := storage.SplitPath(p)
		return &storage.Metadata{
			Path:         p,
			Name:         name,
			Dir:          dir,
			Type:         storage.TypeFile,
			Size:         aws.ToInt64(head.ContentLength),
			MimeType:     aws.ToString(head.ContentType),
			LastModified: aws.ToTime(head.LastModified),
			Visibility:   visibilityFromMetadata(head.Metadata),
		}, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	exists, err := b.DirectoryExists(ctx, p)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &storage.PathError{Op: "stat", Path: p, Err: storage.ErrNotFound}
	}

	meta := b.entryMetadata(p, storage.TypeDirectory, 0, time.Time{})
	return &meta, nil
}

func (b *Backend) FileSize(ctx context.Context, path string) (int64, error) {
	head, _, err := b.headFile(ctx, path, "file_size")
	if err != nil {
		return 0, err
	}
	return aws.ToInt64(head.ContentLength), nil
}

func (b *Backend) MimeType(ctx context.Context, path string) (string, error) {
	head, _, err := b.headFile(ctx, path, "mime_type")
	if err != nil {
		return "", err
	}
	return aws.ToString(head.ContentType), nil
}

func (b *Backend) LastModified(ctx context.Context, path string) (time.Time, error) {
	head, _, err := b.headFile(ctx, path, "last_modified")
	if err != nil {
		return time.Time{}, err
	}
	return aws.ToTime(head.LastModified), nil
}

func (b *Backend) Visibility(ctx context.Context, path string) (storage.Visibility, error) {
	head, _, err := b.headFile(ctx, path, "visibility")
	if err != nil {
		return "", err
	}
	return visibilityFromMetadata(head.Metadata), nil
}

func (b *Backend) SetVisibility(ctx context.Context, path string, v storage.Visibility) error {
	head, p, err := b.headFile(ctx, path, "set_visibility")
	if err != nil {
		return err
	}

	// S3 has no metadata-only update; copy the object onto itself with
	// replaced metadata.
	key := b.objectKey(p)
	input := &s3.CopyObjectInput{
		Bucket:            aws.String(b.bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(b.bucket + "/" + key),
		MetadataDirective: types.MetadataDirectiveReplace,
		Metadata:          map[string]string{visibilityMetadataKey: string(v)},
		ContentType:       head.ContentType,
	}
	if _, err := b.client.CopyObject(ctx, input); err != nil {
		return fmt.Errorf("failed to replace object metadata: %w", err)
	}
	return nil
}

func (b *Backend) Move(ctx context.Context, src, dst string) error {
	if err := b.Copy(ctx, src, dst); err != nil {
		return err
	}
	return b.Delete(ctx, src)
}

func (b *Backend) Copy(ctx context.Context, src, dst string) error {
	s, err := storage.NormalizePath(src)
	if err != nil {
		return err
	}
	d, err := storage.NormalizePath(dst)
	if err != nil {
		return err
	}

	_, err = b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(b.bucket),
		Key:        aws.String(b.objectKey(d)),
		CopySource: aws.String(b.bucket + "/" + b.objectKey(s)),
	})
	if err != nil {
		if isNotFound(err) {
			return &storage.PathError{Op: "copy", Path: s, Err: storage.ErrNotFound}
		}
		return fmt.Errorf("failed to copy object in S3: %w", err)
	}
	return nil
}

func (b *Backend) Close() error { return nil }

func (b *Backend) head(ctx context.Context, key string) (*s3.HeadObjectOutput, error) {
	return b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
}

func (b *Backend) headFile(ctx context.Context, path, op string) (*s3.HeadObjectOutput, string, error) {
	p, err := storage.NormalizePath(path)
	if err != nil {
		return nil, "", err
	}

	head, err := b.head(ctx, b.objectKey(p))
	if err != nil {
		if isNotFound(err) {
			return nil, "", &storage.PathError{Op: op, Path: p, Err: storage.ErrNotFound}
		}
		return nil, "", fmt.Errorf("failed to head object in S3: %w", err)
	}
	return head, p, nil
}

func (b *Backend) entryMetadata(p string, t storage.EntryType, size int64, modified time.Time) storage.Metadata {
	dir, name := storage.SplitPath(p)
	return storage.Metadata{
		Path:         p,
		Name:         name,
		Dir:          dir,
		Type:         t,
		Size:         size,
		LastModified: modified,
	}
}

// isNotFound reports whether an S3 error means the object does not exist.
// GetObject reports *types.NoSuchKey, HeadObject reports *types.NotFound.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// visibilityFromMetadata reads the recorded visibility, defaulting to
// private when absent.
func visibilityFromMetadata(md map[string]string) storage.Visibility {
	if v, ok := md[visibilityMetadataKey]; ok && storage.Visibility(v) == storage.VisibilityPublic {
		return storage.VisibilityPublic
	}
	return storage.VisibilityPrivate
}

// ancestorsAndSelf returns p and every ancestor, shallowest first.
func ancestorsAndSelf(p string) []string {
	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	for i := range segments {
		out = append(out, strings.Join(segments[:i+1], "/"))
	}
	return out
}
