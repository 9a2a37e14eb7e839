// Package safeconv provides integer conversions that panic on overflow.
package safeconv

import "math"

// MustInt64ToUint64 converts int64 to uint64, panics if negative.
// Use only when negative values are logically impossible.
func MustInt64ToUint64(v int64) uint64 {
	if v < 0 {
		panic("safeconv: negative int64 to uint64 conversion")
	}

	return uint64(v)
}

// MustIntToUint8 converts int to uint8, panics outside [0, 255].
func MustIntToUint8(v int) uint8 {
	if v < 0 || v > math.MaxUint8 {
		panic("safeconv: int to uint8 overflow")
	}

	return uint8(v)
}
