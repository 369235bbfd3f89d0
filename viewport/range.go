package viewport

import "git.sr.ht/~whereswaldon/scrollchart/series"

const (
	headroomAbove = 0.2
	headroomBelow = 0.1
)

// DataRange is the data-space window mapped onto the full scrollable content.
type DataRange struct {
	XMin, XMax float64
	YMin, YMax float64
	// Valid is false when there is no data to derive a range from.
	Valid bool
}

// XSpan returns XMax-XMin.
func (r DataRange) XSpan() float64 { return r.XMax - r.XMin }

// YSpan returns YMax-YMin.
func (r DataRange) YSpan() float64 { return r.YMax - r.YMin }

// yBounds returns the extreme low and high values across points.
func yBounds(points []series.Point) (lo, hi float64) {
	lo, hi = points[0].Low(), points[0].High()
	for _, p := range points[1:] {
		lo = min(lo, p.Low())
		hi = max(hi, p.High())
	}
	return lo, hi
}

// withHeadroom pads a raw y extent: 20% above, 10% below. Padding below stops
// at zero for data that never goes negative.
func withHeadroom(lo, hi float64) (yMin, yMax float64) {
	r := max(1, hi-lo)
	yMax = hi + r*headroomAbove
	yMin = lo - r*headroomBelow
	if lo >= 0 {
		yMin = max(0, yMin)
	}
	return yMin, yMax
}

// ComputeDataRange derives the range of points, which must be ordered by x. A
// single point is widened by half a unit on either side so that the x range is
// never empty.
func ComputeDataRange(points []series.Point) DataRange {
	if len(points) == 0 {
		return DataRange{}
	}
	lo, hi := yBounds(points)
	yMin, yMax := withHeadroom(lo, hi)
	xMin, xMax := points[0].X, points[len(points)-1].X
	if len(points) == 1 {
		xMin -= 0.5
		xMax += 0.5
	}
	return DataRange{XMin: xMin, XMax: xMax, YMin: yMin, YMax: yMax, Valid: true}
}

// ExtendRange grows cur to cover all of points without ever shrinking its x
// extent. The y extent is recomputed from points. It is used while following
// streamed data, where recomputing x from scratch would undo a saved view.
func ExtendRange(cur DataRange, points []series.Point) DataRange {
	if len(points) == 0 {
		return cur
	}
	if !cur.Valid {
		return ComputeDataRange(points)
	}
	lo, hi := yBounds(points)
	cur.YMin, cur.YMax = withHeadroom(lo, hi)
	cur.XMin = min(cur.XMin, points[0].X)
	cur.XMax = max(cur.XMax, points[len(points)-1].X)
	return cur
}

// ExpandForPrepend widens cur to start at the first prepended point. The y
// extent only changes if the new points fall outside it, in which case the
// headroom is applied again.
func ExpandForPrepend(cur DataRange, prepended []series.Point) DataRange {
	if len(prepended) == 0 {
		return cur
	}
	if !cur.Valid {
		return ComputeDataRange(prepended)
	}
	cur.XMin = prepended[0].X
	lo, hi := yBounds(prepended)
	if lo < cur.YMin || hi > cur.YMax {
		cur.YMin, cur.YMax = withHeadroom(min(lo, cur.YMin), max(hi, cur.YMax))
	}
	return cur
}
