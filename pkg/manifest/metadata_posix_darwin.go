//go:build darwin

package manifest

import "syscall"

// atimeNsFromStat extracts the access time, in nanoseconds since the epoch,
// from a Darwin stat_t.
func atimeNsFromStat(stat *syscall.Stat_t) int64 {
	return stat.Atimespec.Sec*1e9 + stat.Atimespec.Nsec
}
