package geospatial

// Downsample returns at most max elements from the ordered sequence using a
// fractional stride, always keeping the first and last element. Sequences
// already within the budget are returned unchanged.
func Downsample[T any](items []T, max int) []T {
	if max <= 0 || len(items) <= max {
		return items
	}

	step := float64(len(items)) / float64(max)
	if step < 1 {
		step = 1
	}

	out := make([]T, 0, max)
	for pos := 0.0; int(pos) < len(items) && len(out) < max; pos += step {
		out = append(out, items[int(pos)])
	}
	// The fractional stride can land short of the end; the final route point
	// must survive sampling.
	out[len(out)-1] = items[len(items)-1]
	return out
}

// Stride keeps every k-th element plus the last one. Applied before
// Downsample when the per-element cost downstream is especially high.
func Stride[T any](items []T, k int) []T {
	if k <= 1 || len(items) <= 2 {
		return items
	}

	out := make([]T, 0, len(items)/k+2)
	for i := 0; i < len(items); i += k {
		out = append(out, items[i])
	}
	if (len(items)-1)%k != 0 {
		out = append(out, items[len(items)-1])
	}
	return out
}
