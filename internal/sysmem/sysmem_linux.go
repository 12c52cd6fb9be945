//go:build linux

package sysmem

import "golang.org/x/sys/unix"

func freeBytes() int64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	// Sysinfo reports in units of info.Unit bytes.
	return int64(info.Freeram) * int64(info.Unit)
}
