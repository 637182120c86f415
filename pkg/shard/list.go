package shard

import (
	"context"
	"errors"
	"strings"

	"github.com/marmos91/shardfs/pkg/storage"
)

// List enumerates the logical entries of a logical directory.
//
// The physical tree interleaves shard buckets with real entries, so a
// logical directory is enumerated with two bucket descents: one at the
// directory shard depth collecting marked directory entries, one at the
// file shard depth collecting marked file entries. Directories are
// emitted before files; with recursive set, each discovered directory is
// then listed the same way, depth first, its results appended after the
// current level.
//
// Bucket names never reach the caller: every emitted record is translated
// to logical coordinates first.
func (s *Sharded) List(ctx context.Context, path string, recursive bool) ([]storage.Metadata, error) {
	norm, err := s.logicalPath(path)
	if err != nil {
		return nil, err
	}
	return s.listLogical(ctx, norm, recursive)
}

func (s *Sharded) listLogical(ctx context.Context, logicalDir string, recursive bool) ([]storage.Metadata, error) {
	physDir := s.sharder.ToPhysical(logicalDir, true)

	dirs, err := s.descend(ctx, physDir, s.cfg.DirFanout, storage.TypeDirectory)
	if err != nil {
		return nil, err
	}
	files, err := s.descend(ctx, physDir, s.cfg.FileFanout, storage.TypeFile)
	if err != nil {
		return nil, err
	}

	out := make([]storage.Metadata, 0, len(dirs)+len(files))
	out = append(out, dirs...)
	out = append(out, files...)

	if recursive {
		for _, dir := range dirs {
			sub, err := s.listLogical(ctx, dir.Path, true)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}

	return out, nil
}

// descend walks the shard-bucket levels below physDir. While shard depth
// remains it recurses into every directory entry (those are the bucket
// directories of this level); at depth zero it emits the entries whose
// base name carries the marker and whose type matches want, translated to
// logical form. Unmarked entries at depth zero belong to the other role's
// bucket chain, or are foreign to the shard layout entirely, and are
// skipped either way.
func (s *Sharded) descend(ctx context.Context, physDir string, depth int, want storage.EntryType) ([]storage.Metadata, error) {
	entries, err := s.backend.List(ctx, physDir, false)
	if err != nil {
		// A missing level means nothing was ever written below it.
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var out []storage.Metadata

	if depth > 0 {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			sub, err := s.descend(ctx, entry.Path, depth-1, want)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
		return out, nil
	}

	for _, entry := range entries {
		if entry.Type != want || !strings.HasPrefix(entry.Name, Marker) {
			continue
		}
		translated := ToLogical(entry)
		if translated.Path == "" {
			// No marked segment anywhere in the path: a corrupt record
			// the translator could not place. Dropped rather than
			// surfaced as a phantom root entry.
			continue
		}
		out = append(out, translated)
	}

	return out, nil
}
