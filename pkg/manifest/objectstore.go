package manifest

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/jbm9/baycat/pkg/logging"
	"github.com/jbm9/baycat/pkg/store"
)

// objectStoreManifestKeyName is the key, inside the reserved prefix, where
// an ObjectStoreManifest persists itself (spec §6.4).
const objectStoreManifestKeyName = "s3manifest"

// ObjectStoreManifest is the bucket-scoped flavor of Manifest. It has no
// directory Entries (object stores have no directory namespace). Entries
// built from a listing carry only what a listing provides: size, an
// ETag-derived digest, and a second-resolution mtime, with uid/gid/mode/atime
// unknown. Entries recorded by MarkTransferred keep the source's metadata.
type ObjectStoreManifest struct {
	client         store.Client
	bucket         string
	prefix         string
	entries        map[string]*Entry
	counters       Counters
	reservedPrefix string
	logger         *logging.Logger
}

// CreateObjectStore creates an empty ObjectStoreManifest for the given
// client, scoped to prefix (which may be empty to mean "the whole bucket").
func CreateObjectStore(client store.Client, prefix string, logger *logging.Logger) *ObjectStoreManifest {
	if logger == nil {
		logger = logging.RootLogger
	}
	return &ObjectStoreManifest{
		client:         client,
		bucket:         client.Bucket(),
		prefix:         strings.Trim(prefix, "/"),
		entries:        make(map[string]*Entry),
		reservedPrefix: ReservedDirectoryName,
		logger:         logger,
	}
}

// Kind implements Manifest.Kind.
func (m *ObjectStoreManifest) Kind() string { return KindObjectStore }

// RootDescription implements Manifest.RootDescription.
func (m *ObjectStoreManifest) RootDescription() string {
	return fmt.Sprintf("%s/%s", m.bucket, m.prefix)
}

// ReservedPrefix implements Manifest.ReservedPrefix.
func (m *ObjectStoreManifest) ReservedPrefix() string { return m.reservedPrefix }

// Entries implements Manifest.Entries.
func (m *ObjectStoreManifest) Entries() map[string]*Entry { return m.entries }

// Get implements Manifest.Get.
func (m *ObjectStoreManifest) Get(relPath string) (*Entry, bool) {
	e, ok := m.entries[relPath]
	return e, ok
}

// Counters implements Manifest.Counters.
func (m *ObjectStoreManifest) Counters() *Counters { return &m.counters }

// Copy implements Manifest.Copy.
func (m *ObjectStoreManifest) Copy() Manifest {
	clone := &ObjectStoreManifest{
		client:         m.client,
		bucket:         m.bucket,
		prefix:         m.prefix,
		entries:        make(map[string]*Entry, len(m.entries)),
		counters:       m.counters.Clone(),
		reservedPrefix: m.reservedPrefix,
		logger:         m.logger,
	}
	for k, v := range m.entries {
		clone.entries[k] = v.Clone()
	}
	return clone
}

// joinKey joins an object-store prefix and a relative path without ever
// collapsing when prefix is empty (spec §6.4).
func joinKey(prefix, relPath string) string {
	if prefix == "" {
		return relPath
	}
	if relPath == "" {
		return prefix
	}
	return path.Join(prefix, relPath)
}

// ManifestKey returns the reserved key where this manifest persists itself.
func (m *ObjectStoreManifest) ManifestKey() string {
	return joinKey(m.prefix, path.Join(m.reservedPrefix, objectStoreManifestKeyName))
}

// relPathForKey converts a full listed key back into a path relative to
// m.prefix, or ("", false) if key does not fall under the prefix.
func (m *ObjectStoreManifest) relPathForKey(key string) (string, bool) {
	if m.prefix == "" {
		return strings.TrimPrefix(key, "/"), true
	}
	withSlash := m.prefix + "/"
	if !strings.HasPrefix(key, withSlash) {
		return "", false
	}
	return strings.TrimPrefix(key, withSlash), true
}

func (m *ObjectStoreManifest) isReservedPath(relPath string) bool {
	return relPath == m.reservedPrefix || strings.HasPrefix(relPath, m.reservedPrefix+"/")
}

// entryFromObject builds an Entry from a single listed store.Object. mtime
// is taken from LastModifiedUnix, converted to nanoseconds: store-side
// mtime resolution is one second (spec §9 Open Question 1), so this
// silently discards sub-second precision, which is fine since comparisons
// against this Entry already tolerate one-second resolution.
func entryFromObject(relPath string, obj store.Object) *Entry {
	return &Entry{
		RelPath:   relPath,
		IsDir:     false,
		Size:      obj.Size,
		MtimeNs:   obj.LastModifiedUnix * 1_000_000_000,
		Cksum:     obj.ETag,
		CksumType: DefaultChecksumType,
	}
}

// Update implements the checksum-adoption update described in spec §4.6: it
// lists every object under the manifest's prefix, paginating via
// continuation tokens, and reconciles each listed object into m.entries. An
// Entry that already exists and is unchanged from the listing is left
// alone; otherwise it is replaced, which is what lets a partially uploaded
// prior run be adopted on the next one.
func (m *ObjectStoreManifest) Update(ctx context.Context) error {
	reservedKey := m.ManifestKey()
	token := ""
	for {
		page, err := m.client.List(ctx, m.prefix, token)
		if err != nil {
			return fmt.Errorf("unable to list objects: %w", err)
		}
		m.counters.ListCalls++

		for _, obj := range page.Objects {
			if obj.Key == reservedKey {
				continue
			}
			relPath, ok := m.relPathForKey(obj.Key)
			if !ok || m.isReservedPath(relPath) {
				continue
			}

			fresh := entryFromObject(relPath, obj)
			if existing, ok := m.entries[relPath]; ok && !entryChangedFromListing(fresh, existing) {
				continue
			}
			m.entries[relPath] = fresh
		}

		if !page.IsTruncated {
			break
		}
		token = page.NextContinuationToken
	}
	return nil
}

// entryChangedFromListing reports whether a listing-derived Entry disagrees
// with an existing manifest Entry on content: size, or digest when both
// sides carry one under the same algorithm. The listing's LastModified is
// the object's upload time, not the source file's mtime, so mtime never
// participates here: treating it as a change signal would invalidate every
// recorded entry on every update.
func entryChangedFromListing(fresh, existing *Entry) bool {
	if existing.IsDir {
		return true
	}
	if fresh.Size != existing.Size {
		return true
	}
	if fresh.Cksum != "" && existing.Cksum != "" && fresh.checksumType() == existing.checksumType() {
		return fresh.Cksum != existing.Cksum
	}
	return false
}

// MarkTransferred implements Manifest.MarkTransferred. The full source
// Entry, POSIX metadata included, is recorded: the object store itself
// carries no uid/gid/mode/mtime, so the manifest is where that metadata
// survives the trip (and where a later store-to-local sync restores it
// from).
func (m *ObjectStoreManifest) MarkTransferred(relPath string, src *Entry) {
	m.entries[relPath] = src.Clone()
}

// MarkDeleted implements Manifest.MarkDeleted.
func (m *ObjectStoreManifest) MarkDeleted(relPath string) {
	delete(m.entries, relPath)
}

// MarkMkdir implements Manifest.MarkMkdir. Object stores have no directory
// namespace, so this is a no-op and no directory Entry is recorded. Since
// ObjectStoreManifest has no directory Entries, a sync into a store sees
// every source directory as added and calls this for each of them.
func (m *ObjectStoreManifest) MarkMkdir(string, *Entry) {}

// Save implements Manifest.Save, persisting the manifest document to the
// reserved key rather than a local path. The path argument is accepted for
// interface compatibility but ignored, and so is overwrite: an existing
// document at the key is always replaced, since the object store has no
// notion of atomic create-exclusive.
func (m *ObjectStoreManifest) Save(_ string, _ bool) error {
	data, err := marshalObjectStoreManifest(m)
	if err != nil {
		return err
	}
	return m.client.UploadReader(context.Background(), m.ManifestKey(), newBytesReader(data), int64(len(data)))
}

// LoadObjectStore loads a previously saved ObjectStoreManifest from its
// reserved key. A *store.NotFoundError is treated as "start fresh": the
// caller gets a valid empty manifest rather than an error (spec §7,
// "Lookup failures on manifest load").
func LoadObjectStore(ctx context.Context, client store.Client, prefix string, logger *logging.Logger) (*ObjectStoreManifest, error) {
	m := CreateObjectStore(client, prefix, logger)

	tmp, err := downloadToTemp(ctx, client, m.ManifestKey())
	if err != nil {
		if _, ok := err.(*store.NotFoundError); ok {
			return m, nil
		}
		return nil, err
	}
	defer removeTemp(tmp, logger)

	doc, err := loadManifestDocument(tmp)
	if err != nil {
		return nil, err
	}
	entries, err := doc.decodeEntries()
	if err != nil {
		return nil, err
	}
	m.entries = entries
	m.bucket = doc.Bucket
	m.prefix = doc.Prefix
	return m, nil
}
