// Package manifest implements the tree-inventory model that the rest of
// baycat is built on: an Entry describes one path under a synchronized
// root, and a Manifest is the ordered collection of Entries that describes
// an entire endpoint (a local directory tree or an object-store bucket and
// prefix) at a point in time.
package manifest

import (
	"os"
	"time"
)

// DefaultChecksumType is the digest algorithm used when an Entry doesn't
// specify one, matching baycat's historical default.
const DefaultChecksumType = "MD5"

// Metadata holds the POSIX metadata fields that may or may not be available
// for a given Entry, depending on the endpoint that produced it. A nil field
// means "unknown": the object store doesn't carry uid/gid/mode, and callers
// restoring metadata from such an Entry must supply their own default (the
// current process's uid/gid, or leave mode unchanged) rather than treat zero
// as a real value.
type Metadata struct {
	// UID is the owning user id, or nil if unknown.
	UID *uint32 `json:"uid,omitempty"`
	// GID is the owning group id, or nil if unknown.
	GID *uint32 `json:"gid,omitempty"`
	// Mode is the POSIX permission and type bits, or nil if unknown.
	Mode *os.FileMode `json:"mode,omitempty"`
	// AtimeNs is the last-access time in nanoseconds since the epoch, or nil
	// if unknown. Atime is never compared or restored deliberately (see
	// Entry.Equal and the update/changed_from contract) but is carried for
	// completeness in the persisted document.
	AtimeNs *int64 `json:"atime_ns,omitempty"`
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	out := Metadata{}
	if m.UID != nil {
		v := *m.UID
		out.UID = &v
	}
	if m.GID != nil {
		v := *m.GID
		out.GID = &v
	}
	if m.Mode != nil {
		v := *m.Mode
		out.Mode = &v
	}
	if m.AtimeNs != nil {
		v := *m.AtimeNs
		out.AtimeNs = &v
	}
	return out
}

// Entry is an immutable-ish record describing one path under a Manifest's
// root. The empty RelPath denotes the root of the tree itself.
type Entry struct {
	// RelPath is the root-relative path using '/' separators, with no
	// leading or trailing slash. The empty string denotes the root.
	RelPath string `json:"rel_path"`
	// IsDir indicates whether this Entry represents a directory.
	IsDir bool `json:"is_dir"`
	// Size is the byte length of the content. It is 0 (and advisory) for
	// directories.
	Size int64 `json:"size"`
	// MtimeNs is the modification time, in nanoseconds since the epoch.
	MtimeNs int64 `json:"mtime_ns"`
	// Cksum is the content digest, hex-encoded. It is empty until computed
	// and is never set for directories.
	Cksum string `json:"cksum,omitempty"`
	// CksumType names the digest algorithm used for Cksum.
	CksumType string `json:"cksum_type,omitempty"`
	// Metadata carries the POSIX fields that may be partially unknown.
	Metadata Metadata `json:"metadata"`
	// Collected is the wall-clock time this Entry was produced. It is for
	// debugging only: it never participates in equality or comparison.
	Collected time.Time `json:"collected"`
}

// HasChecksum reports whether this Entry carries a content digest.
func (e *Entry) HasChecksum() bool {
	return e.Cksum != ""
}

// checksumType returns e's declared checksum algorithm, defaulting to
// DefaultChecksumType if unset.
func (e *Entry) checksumType() string {
	if e.CksumType == "" {
		return DefaultChecksumType
	}
	return e.CksumType
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Metadata = e.Metadata.Clone()
	return &clone
}

// Equal reports whether two Entries are equivalent for manifest-comparison
// purposes. Per the data model, equality ignores Collected, atime, and
// anything about the absolute path or owning root: two Entries compare equal
// iff their RelPath and kind match, their size, mtime and checksum match
// (compared for non-directories only), and their uid/gid/mode match, where a
// field that is unknown (nil) on either side is not a difference.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.RelPath != other.RelPath {
		return false
	}
	if e.IsDir != other.IsDir {
		return false
	}
	if !e.IsDir {
		if e.Size != other.Size || e.MtimeNs != other.MtimeNs {
			return false
		}
		if e.Cksum != other.Cksum || (e.Cksum != "" && e.checksumType() != other.checksumType()) {
			return false
		}
	}
	return knownMetadataEqual(e.Metadata, other.Metadata)
}

// knownMetadataEqual compares uid/gid/mode, treating a field that is unknown
// (nil) on either side as equal.
func knownMetadataEqual(a, b Metadata) bool {
	return (a.UID == nil || b.UID == nil || *a.UID == *b.UID) &&
		(a.GID == nil || b.GID == nil || *a.GID == *b.GID) &&
		(a.Mode == nil || b.Mode == nil || *a.Mode == *b.Mode)
}

func uint32PtrEqual(a, b *uint32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func modePtrEqual(a, b *os.FileMode) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func metadataEqualIgnoringAtime(a, b Metadata) bool {
	return uint32PtrEqual(a.UID, b.UID) &&
		uint32PtrEqual(a.GID, b.GID) &&
		modePtrEqual(a.Mode, b.Mode)
}
