package storage

import (
	"strings"
	"time"
)

// EntryType distinguishes files from directories in listings and metadata.
type EntryType string

const (
	// TypeFile marks a regular file entry.
	TypeFile EntryType = "file"

	// TypeDirectory marks a directory entry.
	TypeDirectory EntryType = "directory"
)

// Visibility is the caller-facing permission hint attached to an entry.
//
// Backends map it to whatever their storage supports (file modes on the
// local filesystem, object metadata on S3). Only the two standard values
// are defined; backends treat anything else as private.
type Visibility string

const (
	// VisibilityPublic marks an entry readable by everyone.
	VisibilityPublic Visibility = "public"

	// VisibilityPrivate marks an entry readable by the owner only.
	VisibilityPrivate Visibility = "private"
)

// Metadata describes a single file or directory as reported by a backend.
//
// Path, Name and Dir always refer to the same coordinate space the record
// was produced in: backends emit physical coordinates, and the sharding
// layer translates them to logical coordinates before records reach the
// caller. After translation the untouched backend record is retained in
// Raw for diagnostics.
type Metadata struct {
	// Path is the full slash-separated path of the entry, no leading slash.
	Path string

	// Name is the base name of the entry (final path segment).
	Name string

	// Dir is the parent directory of Path; empty at the root.
	Dir string

	// Type is TypeFile or TypeDirectory.
	Type EntryType

	// Size is the content size in bytes; zero for directories.
	Size int64

	// MimeType is the detected or recorded content type; may be empty.
	MimeType string

	// LastModified is the modification timestamp; zero if unknown.
	LastModified time.Time

	// Visibility is the entry's visibility; may be empty if the backend
	// does not track it.
	Visibility Visibility

	// Raw holds the untranslated backend record after path translation.
	// Nil on records coming straight from a backend. Diagnostics only.
	Raw *Metadata
}

// IsDir reports whether the entry is a directory.
func (m *Metadata) IsDir() bool { return m.Type == TypeDirectory }

// IsFile reports whether the entry is a regular file.
func (m *Metadata) IsFile() bool { return m.Type == TypeFile }

// SplitPath returns the parent directory and base name of a normalized
// path. The root splits into two empty strings.
func SplitPath(p string) (dir, name string) {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[:i], p[i+1:]
	}
	return "", p
}

// WriteOptions carries operation-specific options for Write.
//
// Options are passed through to the backend unmodified; the sharding layer
// never inspects them.
type WriteOptions struct {
	// Visibility to assign to the written file. Empty means backend default.
	Visibility Visibility

	// MimeType to record for the written file. Empty means detect or omit,
	// at the backend's discretion.
	MimeType string
}
