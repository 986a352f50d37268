package strategy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jbm9/baycat/pkg/filesystem"
	"github.com/jbm9/baycat/pkg/logging"
	"github.com/jbm9/baycat/pkg/manifest"
	"github.com/jbm9/baycat/pkg/must"
	"github.com/jbm9/baycat/pkg/store"
)

// StoreToLocal implements Strategy downloading from an object-store
// bucket/prefix to a POSIX directory.
type StoreToLocal struct {
	client  store.Client
	prefix  string
	dstRoot string
	logger  *logging.Logger
}

// NewStoreToLocal creates a Strategy that downloads from the given client,
// scoped under prefix, into dstRoot.
func NewStoreToLocal(client store.Client, prefix, dstRoot string, logger *logging.Logger) *StoreToLocal {
	if logger == nil {
		logger = logging.RootLogger
	}
	return &StoreToLocal{client: client, prefix: prefix, dstRoot: dstRoot, logger: logger}
}

// Kind implements Strategy.Kind.
func (s *StoreToLocal) Kind() Kind { return KindStoreToLocal }

func (s *StoreToLocal) key(relPath string) string {
	if s.prefix == "" {
		return relPath
	}
	if relPath == "" {
		return s.prefix
	}
	return s.prefix + "/" + relPath
}

func (s *StoreToLocal) dstPath(relPath string) string {
	return filepath.Join(s.dstRoot, filepath.FromSlash(relPath))
}

// Remove implements Strategy.Remove: rmdir or unlink locally, exactly as
// Local.Remove does.
func (s *StoreToLocal) Remove(_ context.Context, relPath string, oldEntry *manifest.Entry) error {
	path := s.dstPath(relPath)
	if err := os.Remove(path); err != nil {
		if oldEntry != nil && oldEntry.IsDir {
			return fmt.Errorf("unable to rmdir %s: %w", relPath, err)
		}
		return fmt.Errorf("unable to unlink %s: %w", relPath, err)
	}
	return nil
}

// Mkdir implements Strategy.Mkdir via a recursive local mkdir.
func (s *StoreToLocal) Mkdir(_ context.Context, relPath string, _ *manifest.Entry) error {
	if err := os.MkdirAll(s.dstPath(relPath), 0755); err != nil {
		return fmt.Errorf("unable to mkdir %s: %w", relPath, err)
	}
	return nil
}

// TransferContent implements Strategy.TransferContent: a get-object to a
// uuid-suffixed owned temp file, then an atomic rename into place. The
// parent directory is created first: an object-store manifest carries no
// directory entries, so the engine's mkdir pass never sees the intermediate
// directories a downloaded key implies.
func (s *StoreToLocal) TransferContent(ctx context.Context, relPath string, srcEntry *manifest.Entry) (int64, error) {
	dst := s.dstPath(relPath)

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("unable to create parent directory for %s: %w", relPath, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filesystem.TemporaryNamePrefix+"download-"+uuid.NewString())
	if err != nil {
		return 0, fmt.Errorf("unable to create temporary file for %s: %w", relPath, err)
	}
	tmpPath := tmp.Name()
	must.Close(tmp, s.logger)

	if err := s.client.Download(ctx, s.key(relPath), tmpPath); err != nil {
		must.OSRemove(tmpPath, s.logger)
		return 0, fmt.Errorf("unable to download %s: %w", relPath, err)
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		must.OSRemove(tmpPath, s.logger)
		return 0, fmt.Errorf("unable to rename downloaded file into place for %s: %w", relPath, err)
	}

	size := int64(0)
	if srcEntry != nil {
		size = srcEntry.Size
	}
	return size, nil
}

// TransferMetadata implements Strategy.TransferMetadata. The objects carry
// no uid/gid/mode, so an Entry adopted from a store listing has those fields
// unknown; for unknown fields uid/gid fall back to the current process's own, and mode is left
// unchanged (skipped) if unknown, exactly as the spec's §4.5 table
// specifies for Store->Local.
func (s *StoreToLocal) TransferMetadata(_ context.Context, relPath string, srcEntry *manifest.Entry) error {
	path := s.dstPath(relPath)

	uid := os.Getuid()
	gid := os.Getgid()
	if srcEntry.Metadata.UID != nil {
		uid = int(*srcEntry.Metadata.UID)
	}
	if srcEntry.Metadata.GID != nil {
		gid = int(*srcEntry.Metadata.GID)
	}
	if err := os.Chown(path, uid, gid); err != nil {
		return fmt.Errorf("unable to chown %s: %w", relPath, err)
	}

	if srcEntry.Metadata.Mode != nil {
		if err := os.Chmod(path, *srcEntry.Metadata.Mode); err != nil {
			return fmt.Errorf("unable to chmod %s: %w", relPath, err)
		}
	}

	atime := time.Now()
	if srcEntry.Metadata.AtimeNs != nil {
		atime = time.Unix(0, *srcEntry.Metadata.AtimeNs)
	}
	mtime := time.Unix(0, srcEntry.MtimeNs)
	if err := os.Chtimes(path, atime, mtime); err != nil {
		return fmt.Errorf("unable to set times on %s: %w", relPath, err)
	}

	return nil
}
