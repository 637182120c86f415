package shard

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// Marker is the reserved character prefixed to every real path segment in
// the physical tree, distinguishing it from the shard-bucket directories
// around it. No escaping is performed, so logical segment names must never
// begin with it; the sharded backend rejects such names at its boundary.
const Marker = "%"

// Sharder deterministically maps logical paths to their sharded physical
// form. It is a pure value: same input, same output, no I/O.
type Sharder struct {
	cfg Config
}

// NewSharder returns a Sharder for the given (already validated) config.
func NewSharder(cfg Config) Sharder {
	return Sharder{cfg: cfg}
}

// ToPhysical computes the physical path for a logical path.
//
// Every segment but the last is sharded in directory role; the last
// segment's role is decided by dirRole, i.e. by whether the caller is
// addressing a directory or a file. Each segment becomes
//
//	bucket(fanout)/.../bucket(1)/<Marker><segment>
//
// where bucket(level) is the prefixLen-character substring of the
// segment's SHA-1 hex digest starting at offset level*prefixLen. Deeper
// levels read further into the digest; bucket(fanout) is the outermost
// path component. This offset rule is load-bearing: existing sharded
// trees were written with it, so it must be reproduced exactly.
//
// The empty or root path maps to the empty physical path. A fanout of 0
// degrades to the marker-only renaming of each segment.
func (s Sharder) ToPhysical(logical string, dirRole bool) string {
	logical = strings.TrimPrefix(logical, "/")
	if logical == "" {
		return ""
	}

	segments := strings.Split(logical, "/")
	parts := make([]string, 0, len(segments))

	for i, segment := range segments {
		isDir := dirRole || i < len(segments)-1
		fanout, prefixLen := s.cfg.params(isDir)

		part := Marker + segment
		if fanout > 0 {
			digest := segmentDigest(segment)
			for level := 1; level <= fanout; level++ {
				offset := level * prefixLen
				part = digest[offset:offset+prefixLen] + "/" + part
			}
		}

		parts = append(parts, part)
	}

	return strings.Join(parts, "/")
}

// segmentDigest returns the lowercase hex SHA-1 digest of a segment name.
func segmentDigest(segment string) string {
	sum := sha1.Sum([]byte(segment))
	return hex.EncodeToString(sum[:])
}
