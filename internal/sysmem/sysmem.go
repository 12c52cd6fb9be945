// Package sysmem reports host memory information used to derive default
// store budgets.
package sysmem

// FreeBytes returns the host's currently free physical memory in bytes, or 0
// when the platform provides no cheap way to determine it. Callers must treat
// 0 as "unknown" and fall back to a fixed default.
func FreeBytes() int64 {
	return freeBytes()
}
