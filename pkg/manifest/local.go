package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/jbm9/baycat/pkg/checksum"
	"github.com/jbm9/baycat/pkg/logging"
)

// localManifestFileName is the file, inside the reserved directory, where a
// LocalManifest persists itself.
const localManifestFileName = "manifest"

// LocalManifest is the POSIX-endpoint flavor of Manifest: its root is a
// local directory, its reserved prefix is ReservedDirectoryName, and every
// non-root Entry's parent directory is itself an Entry.
type LocalManifest struct {
	root           string
	path           string
	entries        map[string]*Entry
	selectors      []Selector
	checksumPool   int
	checksumType   string
	counters       Counters
	reservedPrefix string
	logger         *logging.Logger
}

// CreateLocal creates an empty LocalManifest rooted at root. poolSize
// controls checksum parallelism during Populate (1 means sequential); path,
// if non-empty, overrides the canonical persistence location
// (<root>/.baycat/manifest). CreateLocal fails if root and path are both
// empty; an empty root is later adopted from the first selector added.
func CreateLocal(root string, poolSize int, path string, logger *logging.Logger) (*LocalManifest, error) {
	if root == "" && path == "" {
		return nil, ErrNoRoot
	}
	if poolSize < 1 {
		poolSize = 1
	}
	if logger == nil {
		logger = logging.RootLogger
	}
	if root != "" {
		root = filepath.Clean(root)
	}
	return &LocalManifest{
		root:           root,
		path:           path,
		entries:        make(map[string]*Entry),
		checksumPool:   poolSize,
		checksumType:   DefaultChecksumType,
		reservedPrefix: ReservedDirectoryName,
		logger:         logger,
	}, nil
}

// Kind implements Manifest.Kind.
func (m *LocalManifest) Kind() string { return KindLocal }

// RootDescription implements Manifest.RootDescription.
func (m *LocalManifest) RootDescription() string { return m.root }

// ReservedPrefix implements Manifest.ReservedPrefix.
func (m *LocalManifest) ReservedPrefix() string { return m.reservedPrefix }

// Entries implements Manifest.Entries.
func (m *LocalManifest) Entries() map[string]*Entry { return m.entries }

// Get implements Manifest.Get.
func (m *LocalManifest) Get(relPath string) (*Entry, bool) {
	e, ok := m.entries[relPath]
	return e, ok
}

// Counters implements Manifest.Counters.
func (m *LocalManifest) Counters() *Counters { return &m.counters }

// SetPoolSize overrides the number of checksum workers used by subsequent
// Update/AddSelector calls. The override is in-memory only: it is never
// persisted, so a manifest loaded from disk always starts with a pool size
// of 1, whatever pool size it was saved with.
func (m *LocalManifest) SetPoolSize(poolSize int) {
	if poolSize < 1 {
		poolSize = 1
	}
	m.checksumPool = poolSize
}

// ManifestPath returns the canonical (or overridden) persistence path for
// this manifest.
func (m *LocalManifest) ManifestPath() string {
	if m.path != "" {
		return m.path
	}
	return filepath.Join(m.root, ReservedDirectoryName, localManifestFileName)
}

// Copy implements Manifest.Copy, returning an independent value copy.
func (m *LocalManifest) Copy() Manifest {
	clone := &LocalManifest{
		root:           m.root,
		path:           m.path,
		entries:        make(map[string]*Entry, len(m.entries)),
		selectors:      append([]Selector(nil), m.selectors...),
		checksumPool:   m.checksumPool,
		checksumType:   m.checksumType,
		counters:       m.counters.Clone(),
		reservedPrefix: m.reservedPrefix,
		logger:         m.logger,
	}
	for k, v := range m.entries {
		clone.entries[k] = v.Clone()
	}
	return clone
}

// isReservedPath reports whether relPath falls under this manifest's
// reserved prefix.
func (m *LocalManifest) isReservedPath(relPath string) bool {
	return relPath == m.reservedPrefix || strings.HasPrefix(relPath, m.reservedPrefix+"/")
}

// AddSelector records sel as one of the selectors that populate this
// manifest, adopting its root if the manifest has none yet, then re-runs
// every selector from scratch. Running the same selector set twice yields
// equal manifests (idempotence), since population always starts from an
// empty entry map.
func (m *LocalManifest) AddSelector(sel Selector, computeChecksums bool) error {
	if m.root == "" {
		m.root = sel.Root()
	} else if m.root != sel.Root() {
		return ErrDifferentRootPath
	}
	m.selectors = append(m.selectors, sel)
	return m.runSelectors(computeChecksums)
}

// runSelectors re-walks every selector into a fresh entry map.
func (m *LocalManifest) runSelectors(computeChecksums bool) error {
	entries := make(map[string]*Entry)

	for _, sel := range m.selectors {
		err := sel.Walk(func(e *Entry, walkErr error) error {
			if walkErr != nil {
				if reserved, ok := walkErr.(*ErrReservedName); ok {
					m.logger.Debugf("skipping reserved path %s", reserved.Path)
					return nil
				}
				return walkErr
			}
			if m.isReservedPath(e.RelPath) {
				m.logger.Debugf("skipping reserved path %s", e.RelPath)
				return nil
			}
			entries[e.RelPath] = e
			return nil
		})
		if err != nil {
			return err
		}
	}

	m.entries = entries

	if computeChecksums {
		return m.computeMissingChecksums()
	}
	return nil
}

// computeMissingChecksums computes a digest for every non-directory Entry
// with no digest yet, using m.checksumPool workers.
func (m *LocalManifest) computeMissingChecksums() error {
	var requests []checksum.Request
	for relPath, e := range m.entries {
		if e.IsDir || e.HasChecksum() {
			continue
		}
		requests = append(requests, checksum.Request{
			RelPath: relPath,
			AbsPath: filepath.Join(m.root, filepath.FromSlash(relPath)),
		})
	}
	if len(requests) == 0 {
		return nil
	}

	results := checksum.ComputeAll(requests, m.checksumType, m.checksumPool)
	for _, r := range results {
		if r.Err != nil {
			return errors.Wrapf(r.Err, "unable to compute checksum for %s", r.RelPath)
		}
		e := m.entries[r.RelPath]
		e.Cksum = r.Digest
		e.CksumType = m.checksumType
	}
	return nil
}

// Update re-runs this manifest's selectors to produce a fresh sibling
// manifest with no digests, then reconciles it into m in place: paths
// present only on disk are added, paths present only in m are removed, and
// paths present in both are replaced iff changedFrom reports a difference.
// If forceChecksum is set, digests are recomputed and compared for every
// surviving non-directory Entry (atime is never considered).
func (m *LocalManifest) Update(forceChecksum bool) error {
	fresh := make(map[string]*Entry)
	for _, sel := range m.selectors {
		err := sel.Walk(func(e *Entry, walkErr error) error {
			if walkErr != nil {
				if _, ok := walkErr.(*ErrReservedName); ok {
					return nil
				}
				return walkErr
			}
			if m.isReservedPath(e.RelPath) {
				return nil
			}
			fresh[e.RelPath] = e
			return nil
		})
		if err != nil {
			return err
		}
	}

	if forceChecksum {
		var requests []checksum.Request
		for relPath, e := range fresh {
			if e.IsDir {
				continue
			}
			requests = append(requests, checksum.Request{
				RelPath: relPath,
				AbsPath: filepath.Join(m.root, filepath.FromSlash(relPath)),
			})
		}
		for _, r := range checksum.ComputeAll(requests, m.checksumType, m.checksumPool) {
			if r.Err != nil {
				return errors.Wrapf(r.Err, "unable to compute checksum for %s", r.RelPath)
			}
			e := fresh[r.RelPath]
			e.Cksum = r.Digest
			e.CksumType = m.checksumType
		}
	}

	for relPath := range m.entries {
		if _, ok := fresh[relPath]; !ok {
			delete(m.entries, relPath)
		}
	}
	for relPath, freshEntry := range fresh {
		old, existed := m.entries[relPath]
		if !existed || entryChangedFrom(freshEntry, old, forceChecksum) {
			m.entries[relPath] = freshEntry
		}
	}

	return nil
}

// entryChangedFrom reports whether freshEntry differs from old in any field
// that Update cares about: size, mtime (nanosecond), and non-atime metadata.
// If forceChecksum is set and both sides carry a digest, checksum is also
// compared. atime is never considered.
func entryChangedFrom(fresh, old *Entry, forceChecksum bool) bool {
	if fresh.IsDir != old.IsDir {
		return true
	}
	if !fresh.IsDir {
		if fresh.Size != old.Size || fresh.MtimeNs != old.MtimeNs {
			return true
		}
		if forceChecksum && fresh.Cksum != "" && old.Cksum != "" && fresh.Cksum != old.Cksum {
			return true
		}
	}
	return !metadataEqualIgnoringAtime(fresh.Metadata, old.Metadata)
}

// MarkTransferred implements Manifest.MarkTransferred.
func (m *LocalManifest) MarkTransferred(relPath string, src *Entry) {
	m.entries[relPath] = src.Clone()
}

// MarkDeleted implements Manifest.MarkDeleted.
func (m *LocalManifest) MarkDeleted(relPath string) {
	delete(m.entries, relPath)
}

// MarkMkdir implements Manifest.MarkMkdir.
func (m *LocalManifest) MarkMkdir(relPath string, src *Entry) {
	m.entries[relPath] = src.Clone()
}

// Save implements Manifest.Save.
func (m *LocalManifest) Save(path string, overwrite bool) error {
	if len(m.selectors) == 0 {
		return ErrVacuousManifest
	}
	if path == "" {
		path = m.ManifestPath()
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return ErrManifestAlreadyExists
		} else if !os.IsNotExist(err) {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "unable to create manifest directory")
	}
	return saveManifestDocument(path, m, m.logger)
}

// LoadLocal loads a previously saved LocalManifest from path. If path is
// empty, it defaults to the canonical location under root
// (<root>/.baycat/manifest).
func LoadLocal(root, path string, logger *logging.Logger) (*LocalManifest, error) {
	if logger == nil {
		logger = logging.RootLogger
	}
	if path == "" {
		path = filepath.Join(filepath.Clean(root), ReservedDirectoryName, localManifestFileName)
	}
	doc, err := loadManifestDocument(path)
	if err != nil {
		return nil, err
	}
	m, err := doc.toLocalManifest(logger)
	if err != nil {
		return nil, err
	}
	if root != "" {
		m.root = filepath.Clean(root)
	}
	m.path = path
	return m, nil
}
