package domain

// ImageVersion packs a (data_id, viewport_id) pair into one lexicographically
// comparable scalar, so the asynchronous handler's latest_png slot — whose
// version space is this pair — can reuse the same Ordered-constrained
// concurrency.Slot as every other versioned slot instead of a bespoke
// pair-comparison type.
//
// data_id occupies the high 32 bits, viewport_id the low 32 bits: as long as
// both stay within uint32 range (true for any single session's lifetime —
// over four billion frames), packed comparison is exactly lexicographic
// comparison of (data_id, viewport_id).
type ImageVersion uint64

// NewImageVersion packs dataID and viewportID into one ImageVersion.
func NewImageVersion(dataID, viewportID int64) ImageVersion {
	return ImageVersion(uint64(dataID)<<32 | (uint64(viewportID) & 0xffffffff))
}

// DataID unpacks the data_id half.
func (v ImageVersion) DataID() int64 { return int64(v >> 32) }

// ViewportID unpacks the viewport_id half.
func (v ImageVersion) ViewportID() int64 { return int64(v & 0xffffffff) }
