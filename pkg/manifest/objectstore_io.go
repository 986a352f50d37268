package manifest

import (
	"bytes"
	"context"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/jbm9/baycat/pkg/logging"
	"github.com/jbm9/baycat/pkg/store"
)

// marshalObjectStoreManifest builds the tagged-document bytes for m.
func marshalObjectStoreManifest(m *ObjectStoreManifest) ([]byte, error) {
	return buildManifestDocumentBytes(m)
}

// newBytesReader wraps data for use with store.Client.UploadReader.
func newBytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}

// downloadToTemp downloads key to a uuid-suffixed temporary file so that
// concurrent loads of manifests under the same prefix never collide.
func downloadToTemp(ctx context.Context, client store.Client, key string) (string, error) {
	tmp, err := os.CreateTemp("", "baycat-manifest-"+uuid.NewString())
	if err != nil {
		return "", err
	}
	path := tmp.Name()
	tmp.Close()

	if err := client.Download(ctx, key, path); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// removeTemp best-effort removes a temporary file downloaded by
// downloadToTemp, logging a warning on failure.
func removeTemp(path string, logger *logging.Logger) {
	if err := os.Remove(path); err != nil {
		logger.Warnf("unable to remove temporary manifest file %s: %s", path, err.Error())
	}
}
