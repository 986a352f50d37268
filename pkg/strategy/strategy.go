// Package strategy implements the TransferStrategy capability interface
// (spec §4.5): the four primitive operations the SyncEngine calls to carry a
// DiffPlan to completion, realized once per endpoint pair.
package strategy

import (
	"context"

	"github.com/jbm9/baycat/pkg/manifest"
)

// Kind identifies which endpoint pair a Strategy was built for, so the
// SyncEngine can attribute TransferContent's byte count to the right
// counter (bytes_up for an upload, bytes_down for a download) without the
// strategy itself needing to know about Counters.
type Kind int

const (
	// KindLocalToLocal copies between two POSIX directories.
	KindLocalToLocal Kind = iota
	// KindLocalToStore uploads from a POSIX directory to an object store.
	KindLocalToStore
	// KindStoreToLocal downloads from an object store to a POSIX directory.
	KindStoreToLocal
)

// Strategy is the capability interface the SyncEngine calls for the four
// primitive operations named in spec §4.5. Every method takes the
// manifest-relative path it operates on; on failure it returns a descriptive
// error, which the engine logs and folds into its dirty-run tracking rather
// than aborting the run.
type Strategy interface {
	// Kind reports which endpoint pair this Strategy realizes.
	Kind() Kind

	// Remove deletes relPath from the destination. oldEntry is the
	// destination's Entry being removed (used to distinguish a directory
	// removal from a file removal). Local->Store is unsupported and
	// returns nil after logging a warning (spec §9, Open Question 2).
	Remove(ctx context.Context, relPath string, oldEntry *manifest.Entry) error

	// Mkdir creates relPath as a directory at the destination. Local->Store
	// is a no-op: object stores have no directory namespace.
	Mkdir(ctx context.Context, relPath string, srcEntry *manifest.Entry) error

	// TransferContent copies relPath's content from the source to the
	// destination, returning the number of bytes moved.
	TransferContent(ctx context.Context, relPath string, srcEntry *manifest.Entry) (int64, error)

	// TransferMetadata restores relPath's POSIX metadata. For Local->Store
	// it does nothing, since the object store itself carries none of it;
	// the engine records srcEntry's metadata in the xfer manifest.
	TransferMetadata(ctx context.Context, relPath string, srcEntry *manifest.Entry) error
}
