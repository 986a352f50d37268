package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jbm9/baycat/pkg/logging"
	"github.com/jbm9/baycat/pkg/must"
)

// streamChunkSize is the buffer size used when streaming transfer content,
// matching baycat's historical 32 KiB chunk size (also used for checksum
// computation; see pkg/checksum.ChunkSize).
const streamChunkSize = 32 * 1024

// StreamFileAtomic copies r's content to path using the same stage-then-
// rename discipline as WriteFileAtomic, but without buffering the whole
// content in memory: the temporary file is created in path's directory (so
// the final rename is guaranteed atomic) and filled via io.CopyBuffer in
// streamChunkSize-sized pieces. The uuid suffix keeps two concurrent
// transfers into the same directory (as happens when several object-store
// keys share a destination directory) from colliding on the same staged
// name. It returns the number of bytes copied.
func StreamFileAtomic(path string, r io.Reader, permissions os.FileMode, logger *logging.Logger) (int64, error) {
	temporary, err := os.CreateTemp(filepath.Dir(path), TemporaryNamePrefix+"xfer-"+uuid.NewString())
	if err != nil {
		return 0, fmt.Errorf("unable to create temporary file: %w", err)
	}

	n, err := io.CopyBuffer(temporary, r, make([]byte, streamChunkSize))
	if err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return 0, fmt.Errorf("unable to stream content to temporary file: %w", err)
	}

	if err := temporary.Close(); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return 0, fmt.Errorf("unable to close temporary file: %w", err)
	}

	if err := os.Chmod(temporary.Name(), permissions); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return 0, fmt.Errorf("unable to change file permissions: %w", err)
	}

	if err := os.Rename(temporary.Name(), path); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return 0, fmt.Errorf("unable to rename file into place: %w", err)
	}

	return n, nil
}
