// Package lttb reduces an ordered point sequence to a target count with the
// Largest-Triangle-Three-Buckets algorithm, described in
// https://skemman.is/bitstream/1946/15343/3/SS_MSthesis.pdf
package lttb

import (
	"math"

	"git.sr.ht/~whereswaldon/scrollchart/series"
)

// Simplify returns threshold points from points that preserve the visual shape
// of the data. The first and last points are always kept. If there are no more
// points than threshold, or threshold is 2 or less, points is returned as is.
// The returned points are the original values, in their original order.
func Simplify(points []series.Point, threshold int) []series.Point {
	n := len(points)
	if n <= threshold || threshold <= 2 {
		return points
	}

	// Bucket size. Leave room for start and end data points.
	size := float64(n-2) / float64(threshold-2)
	bucketStart := func(i int) int {
		return int(math.Floor(float64(i)*size)) + 1
	}

	samples := make([]series.Point, 0, threshold)
	samples = append(samples, points[0])
	a := points[0]

	for i := 0; i < threshold-2; i++ {
		lo, hi := bucketStart(i), min(bucketStart(i+1), n-1)

		// The third vertex is the centroid of the next bucket, or the final
		// point when there is no next bucket.
		var cx, cy float64
		nextLo, nextHi := hi, min(bucketStart(i+2), n-1)
		if i == threshold-3 || nextLo >= nextHi {
			last := points[n-1]
			cx, cy = last.X, last.Y
		} else {
			for _, p := range points[nextLo:nextHi] {
				cx += p.X
				cy += p.Y
			}
			count := float64(nextHi - nextLo)
			cx, cy = cx/count, cy/count
		}

		// Find the point of the current bucket that, together with a and the
		// centroid, forms the largest triangle.
		largest := -1.0
		pick := lo
		for j := lo; j < hi; j++ {
			b := points[j]
			area := math.Abs((a.X-cx)*(b.Y-a.Y)-(a.X-b.X)*(cy-a.Y)) * 0.5
			if area > largest {
				largest, pick = area, j
			}
		}
		a = points[pick]
		samples = append(samples, a)
	}

	return append(samples, points[n-1])
}
