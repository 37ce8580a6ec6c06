//go:build unix

package fsops

import (
	"io/fs"
	"syscall"
	"time"
)

// atime returns the access time from the platform stat data, falling back
// to the modification time when the underlying type is not a Stat_t.
func atime(info fs.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Atim.Sec, stat.Atim.Nsec)
}
