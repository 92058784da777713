// Package backend holds the types shared by every storage variant.
package backend

import "time"

// SpaceInfo reports backend capacity. Free and Total are nil for backends
// that cannot report them (object storage has no native quota API).
type SpaceInfo struct {
	UsedGB  float64
	FreeGB  *float64
	TotalGB *float64
}

// Entry is one listed artifact. ModTime is the zero time when the backend
// listing carries no reliable modification timestamp.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// GB converts a byte count to gigabytes.
func GB(n uint64) float64 {
	return float64(n) / (1 << 30)
}

// Float64Ptr returns a pointer to v, for the nullable SpaceInfo fields.
func Float64Ptr(v float64) *float64 {
	return &v
}
