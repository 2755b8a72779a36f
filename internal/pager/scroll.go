package pager

// NearBottom reports whether a viewport showing rows [offset, offset+viewport)
// of total rows is within threshold rows of the end.
func NearBottom(offset, viewport, total, threshold int) bool {
	if threshold < 0 {
		threshold = 0
	}
	return offset+viewport >= total-threshold
}
