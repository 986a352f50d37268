//go:build windows

package manifest

import "os"

// platformMetadata on Windows has no POSIX uid/gid/atime to offer; mode
// reflects only the Go-level permission/type bits.
func platformMetadata(_ string, info os.FileInfo) (Metadata, error) {
	mode := info.Mode()
	return Metadata{Mode: &mode}, nil
}
