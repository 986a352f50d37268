// Package must wraps cleanup operations that can themselves fail (closing a
// file after an earlier error, removing a staged temp file) but whose
// failure shouldn't be allowed to mask the original error or abort the
// caller. Failures are logged at warning level instead of being propagated.
package must

import (
	"io"
	"os"

	"github.com/jbm9/baycat/pkg/logging"
)

// Close closes c, logging a warning if it fails.
func Close(c io.Closer, logger *logging.Logger) {
	if err := c.Close(); err != nil {
		logger.Warnf("unable to close: %s", err.Error())
	}
}

// OSRemove removes the file at name, logging a warning if it fails.
func OSRemove(name string, logger *logging.Logger) {
	if err := os.Remove(name); err != nil {
		logger.Warnf("unable to remove '%s': %s", name, err.Error())
	}
}
