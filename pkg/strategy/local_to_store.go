package strategy

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jbm9/baycat/pkg/logging"
	"github.com/jbm9/baycat/pkg/manifest"
	"github.com/jbm9/baycat/pkg/store"
)

// LocalToStore implements Strategy uploading from a POSIX directory to an
// object-store bucket/prefix.
type LocalToStore struct {
	srcRoot string
	client  store.Client
	prefix  string
	logger  *logging.Logger
}

// NewLocalToStore creates a Strategy that uploads from srcRoot to the given
// client, scoped under prefix.
func NewLocalToStore(srcRoot string, client store.Client, prefix string, logger *logging.Logger) *LocalToStore {
	if logger == nil {
		logger = logging.RootLogger
	}
	return &LocalToStore{srcRoot: srcRoot, client: client, prefix: prefix, logger: logger}
}

// Kind implements Strategy.Kind.
func (s *LocalToStore) Kind() Kind { return KindLocalToStore }

func (s *LocalToStore) key(relPath string) string {
	if s.prefix == "" {
		return relPath
	}
	if relPath == "" {
		return s.prefix
	}
	return s.prefix + "/" + relPath
}

func (s *LocalToStore) srcPath(relPath string) string {
	return filepath.Join(s.srcRoot, filepath.FromSlash(relPath))
}

// Remove implements Strategy.Remove. Deletion against an object store is
// unsupported (spec §4.5 table, §9 Open Question 2): this logs a warning and
// returns nil so enable_delete's idempotence contract still holds.
func (s *LocalToStore) Remove(_ context.Context, relPath string, _ *manifest.Entry) error {
	s.logger.Warnf("object-store deletion is unsupported; leaving %s in place", relPath)
	return nil
}

// Mkdir implements Strategy.Mkdir. Object stores have no directory
// namespace, so this is a no-op.
func (s *LocalToStore) Mkdir(context.Context, string, *manifest.Entry) error {
	return nil
}

// TransferContent implements Strategy.TransferContent via a put-object call
// from the local source path to the store.
func (s *LocalToStore) TransferContent(ctx context.Context, relPath string, srcEntry *manifest.Entry) (int64, error) {
	if err := s.client.Upload(ctx, s.key(relPath), s.srcPath(relPath)); err != nil {
		return 0, fmt.Errorf("unable to upload %s: %w", relPath, err)
	}
	size := int64(0)
	if srcEntry != nil {
		size = srcEntry.Size
	}
	return size, nil
}

// TransferMetadata implements Strategy.TransferMetadata. The object store
// carries no POSIX metadata of its own: the metadata "lives in the
// manifest" (spec §4.5 table), so there is nothing to do at the storage
// layer. The engine's xfer.MarkTransferred/MarkMkdir calls are what actually
// record srcEntry's metadata into the destination manifest.
func (s *LocalToStore) TransferMetadata(context.Context, string, *manifest.Entry) error {
	return nil
}
