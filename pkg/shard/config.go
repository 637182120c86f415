package shard

import "fmt"

// digestHexLen is the length of the hex-rendered SHA-1 digest the bucket
// substrings are read from.
const digestHexLen = 40

// Config holds the four sharding parameters.
//
// The parameters are fixed at construction of the sharded backend and
// never change for its lifetime: changing them against an existing tree
// would silently orphan every entry written under the old layout.
type Config struct {
	// DirFanout is the number of shard-bucket levels prepended for a
	// segment in directory role. 0 disables sharding for directories.
	DirFanout int

	// FileFanout is the number of shard-bucket levels prepended for the
	// final segment when the path addresses a file. 0 disables sharding
	// for files.
	FileFanout int

	// DirPrefixLen is the number of hex digest characters per bucket
	// level for directory-role segments.
	DirPrefixLen int

	// FilePrefixLen is the number of hex digest characters per bucket
	// level for file-role segments.
	FilePrefixLen int
}

// DefaultConfig returns the standard sharding parameters: one 3-character
// bucket level for directories, three 2-character bucket levels for files.
func DefaultConfig() Config {
	return Config{
		DirFanout:     1,
		FileFanout:    3,
		DirPrefixLen:  3,
		FilePrefixLen: 2,
	}
}

// Validate checks that the parameters are non-negative and that every
// bucket substring falls inside the hex digest.
//
// The deepest bucket level for a role reads prefixLen characters starting
// at offset fanout*prefixLen, so (fanout+1)*prefixLen must not exceed the
// digest length.
func (c Config) Validate() error {
	if c.DirFanout < 0 || c.FileFanout < 0 || c.DirPrefixLen < 0 || c.FilePrefixLen < 0 {
		return fmt.Errorf("shard config: all parameters must be non-negative (got %+v)", c)
	}

	if c.DirFanout > 0 && c.DirPrefixLen == 0 {
		return fmt.Errorf("shard config: dir_prefix_len must be at least 1 when dir_fanout is %d", c.DirFanout)
	}
	if c.FileFanout > 0 && c.FilePrefixLen == 0 {
		return fmt.Errorf("shard config: file_prefix_len must be at least 1 when file_fanout is %d", c.FileFanout)
	}

	if (c.DirFanout+1)*c.DirPrefixLen > digestHexLen {
		return fmt.Errorf("shard config: dir_fanout %d with dir_prefix_len %d exceeds the %d-character digest",
			c.DirFanout, c.DirPrefixLen, digestHexLen)
	}
	if (c.FileFanout+1)*c.FilePrefixLen > digestHexLen {
		return fmt.Errorf("shard config: file_fanout %d with file_prefix_len %d exceeds the %d-character digest",
			c.FileFanout, c.FilePrefixLen, digestHexLen)
	}

	return nil
}

// params returns the fanout and prefix length for the given role.
func (c Config) params(dirRole bool) (fanout, prefixLen int) {
	if dirRole {
		return c.DirFanout, c.DirPrefixLen
	}
	return c.FileFanout, c.FilePrefixLen
}
