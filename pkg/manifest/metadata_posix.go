//go:build !windows

package manifest

import (
	"os"
	"syscall"
)

// platformMetadata extracts uid/gid/mode from a POSIX stat result. atime is
// read from the platform-specific stat_t fields; mode is taken directly from
// os.FileInfo so that it reflects the type bits consistently with IsDir.
func platformMetadata(_ string, info os.FileInfo) (Metadata, error) {
	mode := info.Mode()
	meta := Metadata{Mode: &mode}

	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		uid := stat.Uid
		gid := stat.Gid
		atime := atimeNsFromStat(stat)
		meta.UID = &uid
		meta.GID = &gid
		meta.AtimeNs = &atime
	}

	return meta, nil
}
