//go:build !linux

package sysmem

func freeBytes() int64 { return 0 }
