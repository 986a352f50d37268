package manifest

import "github.com/pkg/errors"

// Structural errors raised by Manifest operations. These propagate to the
// caller rather than being absorbed: they indicate a programmer error or an
// invalid manifest, not a transient transfer failure.
var (
	// ErrDifferentRootPath is raised by AddSelector when a selector's root
	// disagrees with a root the Manifest has already adopted.
	ErrDifferentRootPath = errors.New("selector root does not match manifest root")
	// ErrVacuousManifest is raised by Save when a Manifest has no selectors
	// and therefore nothing meaningful to persist.
	ErrVacuousManifest = errors.New("manifest has no selectors")
	// ErrManifestAlreadyExists is raised by Save when the target path exists
	// and the caller did not request overwrite.
	ErrManifestAlreadyExists = errors.New("manifest already exists at target path")
	// ErrNoRoot is raised by Create when neither a root nor a persistence
	// path is supplied.
	ErrNoRoot = errors.New("manifest requires a root or a path")
)

// ErrReservedName is raised by a Selector when it encounters a path whose
// base name collides with the manifest's reserved directory-placeholder
// token (".baycat"). Manifest population logs and skips entries that raise
// this rather than aborting the walk.
type ErrReservedName struct {
	// Path is the offending path, relative to the selector's root.
	Path string
}

func (e *ErrReservedName) Error() string {
	return "reserved name encountered at " + e.Path
}
