// Package shard spreads the entries of a hierarchical storage backend
// across many small directories.
//
// Filesystems and object stores degrade when a single directory
// accumulates a very large number of entries. This package avoids that by
// rewriting every path segment into a short chain of hash-derived bucket
// directories followed by the marker-prefixed segment itself, and by
// inverting the rewrite whenever the backend reports paths back
// (listings, metadata). The transformation is deterministic and bijective
// per configuration, so the same logical tree always lands in the same
// physical layout.
//
// The entry point is New, which wraps any storage.Backend:
//
//	inner := memory.New()
//	sharded, _ := shard.New(inner, shard.DefaultConfig())
//	_ = sharded.Write(ctx, "reports/2026/q3.pdf", r, storage.WriteOptions{})
//
// With the default configuration the write above lands at
//
//	ec6/%reports/655/%2026/9e/6f/47/%q3.pdf
//
// where each bucket component is a slice of the segment name's SHA-1
// digest. Callers only ever see "reports/2026/q3.pdf".
//
// Segment names must not begin with the marker character '%'; the facade
// rejects them, since the physical layout relies on the marker to tell
// real segments from bucket directories and performs no escaping.
package shard
