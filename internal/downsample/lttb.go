// Package downsample reduces large channel arrays to plot-friendly sizes
// while keeping the visual shape of the signal.
package downsample

// Downsample selects up to target indices from the series (x, y) using the
// largest-triangle-three-buckets method. The first and last points are always
// kept and the returned indices are strictly increasing. When the series
// already fits in target points every index is returned.
func Downsample(x, y []float64, target int) []int {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	if n == 0 {
		return nil
	}
	if target >= n || target <= 0 {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	if target == 1 {
		return []int{0}
	}
	if target == 2 {
		return []int{0, n - 1}
	}

	idx := make([]int, 0, target)
	idx = append(idx, 0)

	// Interior points are split into target-2 buckets. The first and last
	// points form their own buckets.
	bucketSize := float64(n-2) / float64(target-2)
	prev := 0
	for b := 0; b < target-2; b++ {
		start := int(float64(b)*bucketSize) + 1
		end := int(float64(b+1)*bucketSize) + 1
		if end > n-1 {
			end = n - 1
		}
		if start >= end {
			start = end - 1
		}

		// Third triangle vertex is the mean of the next bucket.
		nextStart := end
		nextEnd := int(float64(b+2)*bucketSize) + 1
		if nextEnd > n-1 || b == target-3 {
			nextEnd = n - 1
		}
		meanX, meanY := bucketMean(x, y, nextStart, nextEnd, n)

		best := start
		bestArea := -1.0
		for i := start; i < end; i++ {
			area := triangleArea(x[prev], y[prev], x[i], y[i], meanX, meanY)
			if area > bestArea {
				bestArea = area
				best = i
			}
		}
		idx = append(idx, best)
		prev = best
	}

	idx = append(idx, n-1)
	return idx
}

// Apply materializes the selected indices into new slices.
func Apply(x, y []float64, idx []int) ([]float64, []float64) {
	outX := make([]float64, len(idx))
	outY := make([]float64, len(idx))
	for i, j := range idx {
		outX[i] = x[j]
		outY[i] = y[j]
	}
	return outX, outY
}

func bucketMean(x, y []float64, start, end, n int) (float64, float64) {
	if start >= end {
		// Degenerate bucket, fall back to the last point.
		return x[n-1], y[n-1]
	}
	var sx, sy float64
	for i := start; i < end; i++ {
		sx += x[i]
		sy += y[i]
	}
	c := float64(end - start)
	return sx / c, sy / c
}

func triangleArea(ax, ay, bx, by, cx, cy float64) float64 {
	area := (ax-cx)*(by-ay) - (ax-bx)*(cy-ay)
	if area < 0 {
		area = -area
	}
	return area / 2
}
