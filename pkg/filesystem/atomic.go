package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jbm9/baycat/pkg/logging"
	"github.com/jbm9/baycat/pkg/must"
)

const (
	// atomicWriteTemporaryNamePrefix is the file name prefix to use for
	// intermediate temporary files used in atomic writes.
	atomicWriteTemporaryNamePrefix = TemporaryNamePrefix + "atomic-write"
)

// WriteFileAtomic writes a file to disk in an atomic fashion by using an
// intermediate temporary file that is swapped in place using a rename
// operation. The temporary file is created alongside the destination so that
// the final rename is guaranteed to be on the same filesystem.
func WriteFileAtomic(path string, data []byte, permissions os.FileMode, logger *logging.Logger) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), atomicWriteTemporaryNamePrefix)
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}

	if _, err = temporary.Write(data); err != nil {
		must.Close(temporary, logger)
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to write data to temporary file: %w", err)
	}

	if err = temporary.Close(); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to close temporary file: %w", err)
	}

	if err = os.Chmod(temporary.Name(), permissions); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to change file permissions: %w", err)
	}

	if err = os.Rename(temporary.Name(), path); err != nil {
		must.OSRemove(temporary.Name(), logger)
		return fmt.Errorf("unable to rename file into place: %w", err)
	}

	return nil
}
