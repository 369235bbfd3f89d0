// Package series holds the data model shared by every part of the chart: points,
// the series that own them, and the mapping between a caller's x values and the
// float64 domain used for all geometry.
package series

import (
	"image/color"
	"slices"
	"sort"
)

// ID identifies a series within a chart.
type ID string

// Well-known series identifiers.
const (
	HeartRate  ID = "heartRate"
	StockPrice ID = "stockPrice"
	Volume     ID = "volume"
)

// Point is a single observation. Points are values and are never modified once
// built. When Banded is set, Min and Max describe a value band around Y (health
// style data); otherwise they are ignored.
type Point struct {
	X      float64
	Y      float64
	Min    float64
	Max    float64
	Banded bool
}

// Low returns the lowest y value this point occupies.
func (p Point) Low() float64 {
	if p.Banded {
		return p.Min
	}
	return p.Y
}

// High returns the highest y value this point occupies.
func (p Point) High() float64 {
	if p.Banded {
		return p.Max
	}
	return p.Y
}

// Series represents one data set in a visualization. Points are ordered by X;
// duplicate X values are permitted.
type Series struct {
	ID        ID
	Name      string
	Points    []Point
	Color     color.NRGBA
	LineWidth float64
}

// DefaultLineWidth is used when a series is created without an explicit width.
const DefaultLineWidth = 2.0

// New returns a series with the default line width.
func New(id ID, name string, c color.NRGBA, points ...Point) *Series {
	return &Series{
		ID:        id,
		Name:      name,
		Points:    points,
		Color:     c,
		LineWidth: DefaultLineWidth,
	}
}

// Len returns the number of points in the series.
func (s *Series) Len() int {
	return len(s.Points)
}

// Append adds a point to the end of the series.
func (s *Series) Append(p ...Point) {
	s.Points = append(s.Points, p...)
}

// ReplaceLast swaps the final point of the series for p. It reports false if the
// series is empty.
func (s *Series) ReplaceLast(p Point) (replaced bool) {
	if len(s.Points) == 0 {
		return false
	}
	s.Points[len(s.Points)-1] = p
	return true
}

// Prepend inserts points at the front of the series, ahead of all existing data.
func (s *Series) Prepend(p ...Point) {
	s.Points = slices.Insert(s.Points, 0, p...)
}

// Last returns the final point of the series.
func (s *Series) Last() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Domain returns the x extent of the series. The ok return is false for an
// empty series.
func (s *Series) Domain() (min, max float64, ok bool) {
	if len(s.Points) == 0 {
		return 0, 0, false
	}
	return s.Points[0].X, s.Points[len(s.Points)-1].X, true
}

// Window returns the inclusive index range of points whose x lies within
// [xMin, xMax]. The ok return is false when no point falls inside.
func (s *Series) Window(xMin, xMax float64) (first, last int, ok bool) {
	return Window(s.Points, xMin, xMax)
}

// Window returns the inclusive index range of the x-ordered points whose x lies
// within [xMin, xMax]: the first point with x >= xMin and the last with x <= xMax.
func Window(points []Point, xMin, xMax float64) (first, last int, ok bool) {
	first = sort.Search(len(points), func(i int) bool {
		return points[i].X >= xMin
	})
	last = sort.Search(len(points), func(i int) bool {
		return points[i].X > xMax
	}) - 1
	if first >= len(points) || last < 0 || first > last {
		return 0, 0, false
	}
	return first, last, true
}
