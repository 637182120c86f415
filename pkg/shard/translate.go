package shard

import (
	"strings"

	"github.com/marmos91/shardfs/pkg/storage"
)

// ToLogical translates a physical metadata record into logical
// coordinates.
//
// The logical path is recovered by keeping only the marker-prefixed
// segments of the physical path and stripping their markers; shard-bucket
// segments never carry the marker, so they drop out and the original
// logical nesting is restored exactly. Name and Dir are recomputed from
// the logical path, every other attribute is preserved, and the untouched
// physical record is retained under Raw.
//
// A record whose path contains no marked segment is a malformed or
// foreign entry (backend-tree corruption, not a normal case). It
// translates to the empty logical path rather than failing; callers that
// enumerate entries skip such records.
func ToLogical(m storage.Metadata) storage.Metadata {
	raw := m
	out := m
	out.Raw = &raw

	out.Path = logicalFromPhysical(m.Path)
	out.Dir, out.Name = storage.SplitPath(out.Path)

	// A backend may report a marker-prefixed basename even when the
	// record's path was already consumed above; keep the attribute
	// consistent with the translated path either way.
	if strings.HasPrefix(m.Name, Marker) {
		out.Name = strings.TrimPrefix(m.Name, Marker)
	}

	return out
}

// logicalFromPhysical recovers the logical path from a physical one by
// discarding all unmarked (bucket) segments.
func logicalFromPhysical(physical string) string {
	if physical == "" {
		return ""
	}

	segments := strings.Split(physical, "/")
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if strings.HasPrefix(segment, Marker) {
			kept = append(kept, segment[len(Marker):])
		}
	}

	return strings.Join(kept, "/")
}
