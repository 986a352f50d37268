package strategy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jbm9/baycat/pkg/filesystem"
	"github.com/jbm9/baycat/pkg/logging"
	"github.com/jbm9/baycat/pkg/manifest"
)

// Local implements Strategy between two POSIX directories.
type Local struct {
	srcRoot string
	dstRoot string
	logger  *logging.Logger
}

// NewLocal creates a Strategy that copies from srcRoot to dstRoot, both
// local directory paths.
func NewLocal(srcRoot, dstRoot string, logger *logging.Logger) *Local {
	if logger == nil {
		logger = logging.RootLogger
	}
	return &Local{srcRoot: srcRoot, dstRoot: dstRoot, logger: logger}
}

// Kind implements Strategy.Kind.
func (s *Local) Kind() Kind { return KindLocalToLocal }

func (s *Local) srcPath(relPath string) string {
	return filepath.Join(s.srcRoot, filepath.FromSlash(relPath))
}

func (s *Local) dstPath(relPath string) string {
	return filepath.Join(s.dstRoot, filepath.FromSlash(relPath))
}

// Remove implements Strategy.Remove: rmdir for a directory Entry, unlink
// otherwise.
func (s *Local) Remove(_ context.Context, relPath string, oldEntry *manifest.Entry) error {
	path := s.dstPath(relPath)
	if oldEntry != nil && oldEntry.IsDir {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("unable to rmdir %s: %w", relPath, err)
		}
		return nil
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("unable to unlink %s: %w", relPath, err)
	}
	return nil
}

// Mkdir implements Strategy.Mkdir via a recursive mkdir.
func (s *Local) Mkdir(_ context.Context, relPath string, _ *manifest.Entry) error {
	if err := os.MkdirAll(s.dstPath(relPath), 0755); err != nil {
		return fmt.Errorf("unable to mkdir %s: %w", relPath, err)
	}
	return nil
}

// TransferContent implements Strategy.TransferContent: it streams the
// source file through a temp file owned by the destination filesystem, then
// renames it into place atomically.
func (s *Local) TransferContent(_ context.Context, relPath string, srcEntry *manifest.Entry) (int64, error) {
	src, err := os.Open(s.srcPath(relPath))
	if err != nil {
		return 0, fmt.Errorf("unable to open source file %s: %w", relPath, err)
	}
	defer src.Close()

	permissions := os.FileMode(0644)
	if srcEntry != nil && srcEntry.Metadata.Mode != nil {
		permissions = *srcEntry.Metadata.Mode
	}

	written, err := filesystem.StreamFileAtomic(s.dstPath(relPath), src, permissions, s.logger)
	if err != nil {
		return 0, fmt.Errorf("unable to transfer content for %s: %w", relPath, err)
	}
	return written, nil
}

// TransferMetadata implements Strategy.TransferMetadata: chown, chmod, and
// utime on the destination path, then records the restored Entry into xfer
// via the caller (the engine calls Manifest.MarkTransferred/MarkMkdir
// itself; this method only performs the filesystem-level restoration).
func (s *Local) TransferMetadata(_ context.Context, relPath string, srcEntry *manifest.Entry) error {
	path := s.dstPath(relPath)

	if srcEntry.Metadata.UID != nil && srcEntry.Metadata.GID != nil {
		uid := int(*srcEntry.Metadata.UID)
		gid := int(*srcEntry.Metadata.GID)
		if err := os.Chown(path, uid, gid); err != nil {
			return fmt.Errorf("unable to chown %s: %w", relPath, err)
		}
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
