//go:build linux

package manifest

import "syscall"

// atimeNsFromStat extracts the access time, in nanoseconds since the epoch,
// from a Linux stat_t.
func atimeNsFromStat(stat *syscall.Stat_t) int64 {
	return stat.Atim.Sec*1e9 + stat.Atim.Nsec
}
