package manifest

// Kind values returned by Manifest.Kind, doubling as the _json_classname
// tags the persisted document carries for each flavor.
const (
	// KindLocal identifies a LocalManifest.
	KindLocal = "Manifest"
	// KindObjectStore identifies an ObjectStoreManifest. Consumers use this
	// to tell whether an endpoint's timestamps are only second-resolution.
	KindObjectStore = "ObjectStoreManifest"
)

// Manifest is the shared contract between LocalManifest and
// ObjectStoreManifest. Differences between the two endpoints (directory
// entries present or absent, digest source, metadata completeness) are data
// carried by the concrete type, not a separate class hierarchy: the Differ
// and SyncEngine speak to both exclusively through this interface.
type Manifest interface {
	// Kind identifies the concrete manifest type for serialization
	// ("Manifest" for LocalManifest, "ObjectStoreManifest" otherwise).
	Kind() string
	// RootDescription is a human-readable description of the endpoint root
	// (a local path, or "bucket/prefix"), used for logging only. It plays
	// no part in equality.
	RootDescription() string
	// ReservedPrefix returns the path prefix that must never appear as a
	// user Entry: the location where this manifest persists itself.
	ReservedPrefix() string
	// Entries returns the full rel_path -> Entry map. Callers must not
	// mutate the returned map or its Entries; use the Mark* methods instead.
	Entries() map[string]*Entry
	// Get looks up a single Entry by relative path.
	Get(relPath string) (*Entry, bool)
	// Counters returns the manifest's operation counters.
	Counters() *Counters
	// Copy returns an independent value copy suitable for use as a
	// SyncEngine's working "xfer" manifest.
	Copy() Manifest

	// MarkTransferred records that src's content and metadata now exist at
	// relPath in this manifest's endpoint.
	MarkTransferred(relPath string, src *Entry)
	// MarkDeleted removes relPath from this manifest's Entry map.
	MarkDeleted(relPath string)
	// MarkMkdir records that a directory now exists at relPath, with
	// metadata adopted from src.
	MarkMkdir(relPath string, src *Entry)

	// Save persists the manifest to its canonical or overridden path.
	// ErrVacuousManifest is returned if the manifest has no selectors (for
	// a LocalManifest) and ErrManifestAlreadyExists if the target exists
	// and overwrite is false.
	Save(path string, overwrite bool) error
}

// Equal reports whether two manifests describe the same set of Entries.
// Per the data model, root, path, selectors, and counters never participate:
// two Manifests are equal iff their Entry maps are equal over the full key
// set.
func Equal(a, b Manifest) bool {
	ae, be := a.Entries(), b.Entries()
	if len(ae) != len(be) {
		return false
	}
	for path, entry := range ae {
		other, ok := be[path]
		if !ok || !entry.Equal(other) {
			return false
		}
	}
	return true
}
