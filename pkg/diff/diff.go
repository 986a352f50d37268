// Package diff implements the pure function from a pair of manifests to a
// DiffPlan: the minimal, declarative description of what must change to
// bring a destination manifest in line with a source manifest.
package diff

import (
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/jbm9/baycat/pkg/manifest"
)

// Errors raised while computing an entry-to-entry delta. These indicate a
// programmer error or a stale/incompatible manifest pairing and are not
// caught by the Differ: they propagate to the caller.
var (
	// ErrChecksumMissing is raised when checksum comparison is requested but
	// one side of the pair has no digest.
	ErrChecksumMissing = errors.New("checksum comparison requested but a digest is missing")
	// ErrChecksumKind is raised when both sides carry a digest but under
	// different algorithms; callers must regenerate rather than compare.
	ErrChecksumKind = errors.New("entries use different checksum algorithms")
	// ErrPathMismatch is raised when two Entries being compared don't share
	// a relative path; this can only happen if a caller mismatches its own
	// bookkeeping.
	ErrPathMismatch = errors.New("entries being compared have different relative paths")
)

// Options controls how an entry-to-entry delta is computed.
type Options struct {
	// CompareChecksums enables digest comparison for content changes. It
	// defaults to false: without it, content changes are detected purely
	// from size and mtime, and ErrChecksumMissing/ErrChecksumKind can never
	// fire.
	CompareChecksums bool
}

// Plan is the output of Diff: every relative path in either manifest is
// classified into exactly one of the mutually exclusive buckets (added,
// deleted, contents, metadata, unchanged) plus the orthogonal Regressed
// flag, which can co-occur with Contents or Metadata.
type Plan struct {
	Added     []string
	Deleted   []string
	Contents  []string
	Metadata  []string
	Unchanged []string
	Regressed []string

	NewManifest manifest.Manifest
	OldManifest manifest.Manifest
}

// IsRegressed reports whether relPath was classified as regressed.
func (p *Plan) IsRegressed(relPath string) bool {
	for _, r := range p.Regressed {
		if r == relPath {
			return true
		}
	}
	return false
}

// Diff computes the Plan carrying new in line with old. It is pure: it
// reads both manifests but mutates neither.
func Diff(new, old manifest.Manifest, opts Options) (*Plan, error) {
	newEntries := new.Entries()
	oldEntries := old.Entries()

	// mtime comparisons run at the coarser of the two endpoints'
	// resolutions: nanoseconds for a POSIX pair, whole seconds as soon as
	// either side is an object store.
	storeResolution := new.Kind() == manifest.KindObjectStore || old.Kind() == manifest.KindObjectStore

	plan := &Plan{NewManifest: new, OldManifest: old}

	for relPath := range newEntries {
		if _, ok := oldEntries[relPath]; !ok {
			plan.Added = append(plan.Added, relPath)
		}
	}
	for relPath := range oldEntries {
		if _, ok := newEntries[relPath]; !ok {
			plan.Deleted = append(plan.Deleted, relPath)
		}
	}

	for relPath, newEntry := range newEntries {
		oldEntry, ok := oldEntries[relPath]
		if !ok {
			continue
		}

		delta, err := computeDelta(newEntry, oldEntry, opts, storeResolution)
		if err != nil {
			return nil, err
		}

		if delta.regressed {
			plan.Regressed = append(plan.Regressed, relPath)
		}

		switch {
		case !delta.dirty:
			plan.Unchanged = append(plan.Unchanged, relPath)
		case delta.contents:
			plan.Contents = append(plan.Contents, relPath)
		case delta.metadataOnly:
			plan.Metadata = append(plan.Metadata, relPath)
		}
	}

	sort.Strings(plan.Added)
	sort.Strings(plan.Deleted)
	sort.Strings(plan.Contents)
	sort.Strings(plan.Metadata)
	sort.Strings(plan.Unchanged)
	sort.Strings(plan.Regressed)

	return plan, nil
}

// entryDelta is the per-field comparison result for one pair of Entries.
type entryDelta struct {
	sizeChanged  bool
	mtimeChanged bool
	cksumChanged bool
	uidChanged   bool
	gidChanged   bool
	modeChanged  bool
	dirty        bool
	contents     bool
	metadataOnly bool
	regressed    bool
}

// computeDelta classifies the difference between newEntry and oldEntry,
// which must share a relative path: contents is any of {size, mtime, cksum}
// differing on a non-directory; metadata is any of {uid, gid, mode}
// differing, or the contents-triggering set differing on a directory;
// regressed is new.mtime older than old.mtime beyond the comparison's
// resolution.
func computeDelta(newEntry, oldEntry *manifest.Entry, opts Options, storeResolution bool) (entryDelta, error) {
	if newEntry.RelPath != oldEntry.RelPath {
		return entryDelta{}, ErrPathMismatch
	}

	var d entryDelta

	d.sizeChanged = newEntry.Size != oldEntry.Size
	d.mtimeChanged = !mtimeEqual(newEntry.MtimeNs, oldEntry.MtimeNs, storeResolution)
	d.regressed = newEntry.MtimeNs < oldEntry.MtimeNs && d.mtimeChanged

	if opts.CompareChecksums && !newEntry.IsDir && !oldEntry.IsDir {
		if !newEntry.HasChecksum() || !oldEntry.HasChecksum() {
			return entryDelta{}, ErrChecksumMissing
		}
		newType := checksumType(newEntry)
		oldType := checksumType(oldEntry)
		if newType != oldType {
			return entryDelta{}, ErrChecksumKind
		}
		d.cksumChanged = newEntry.Cksum != oldEntry.Cksum
	}

	d.uidChanged = !uint32PtrEqual(newEntry.Metadata.UID, oldEntry.Metadata.UID)
	d.gidChanged = !uint32PtrEqual(newEntry.Metadata.GID, oldEntry.Metadata.GID)
	d.modeChanged = !modePtrEqual(newEntry.Metadata.Mode, oldEntry.Metadata.Mode)

	contentFields := d.sizeChanged || d.mtimeChanged || d.cksumChanged
	metaFields := d.uidChanged || d.gidChanged || d.modeChanged

	d.dirty = contentFields || metaFields

	isDir := newEntry.IsDir
	d.contents = contentFields && !isDir
	d.metadataOnly = metaFields || (contentFields && isDir)
	if d.contents {
		d.metadataOnly = false
	}

	return d, nil
}

// mtimeEqual compares two nanosecond timestamps at the coarser of the two
// endpoints' resolutions: exactly for a POSIX pair (nanosecond resolution
// on both sides), and within one second when either endpoint is an object
// store, whose timestamps are only specified to whole seconds.
func mtimeEqual(a, b int64, storeResolution bool) bool {
	if a == b {
		return true
	}
	if !storeResolution {
		return false
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1_000_000_000
}

func checksumType(e *manifest.Entry) string {
	if e.CksumType == "" {
		return manifest.DefaultChecksumType
	}
	return e.CksumType
}

// uint32PtrEqual and modePtrEqual treat an unknown (nil) field on either
// side as a non-diff: an endpoint that doesn't supply uid/gid/mode (the
// object store) should never manufacture a spurious metadata change against
// an endpoint that does.
func uint32PtrEqual(a, b *uint32) bool {
	if a == nil || b == nil {
		return true
	}
	return *a == *b
}

func modePtrEqual(a, b *os.FileMode) bool {
	if a == nil || b == nil {
		return true
	}
	return *a == *b
}
