package backend

import (
	"slices"

	"git.sr.ht/~whereswaldon/scrollchart/series"
)

// Pager hands out the points of a series from newest to oldest, a page at a
// time. It answers a chart's requests for past data.
type Pager struct {
	points []series.Point
	from   int
}

// NewPager returns a pager over points together with the latest n of them,
// which are not handed out again. The returned slice is a copy.
func NewPager(points []series.Point, n int) (*Pager, []series.Point) {
	from := max(0, len(points)-max(0, n))
	return &Pager{points: points, from: from}, slices.Clone(points[from:])
}

// Remaining returns the number of points not yet handed out.
func (p *Pager) Remaining() int {
	return p.from
}

// Previous returns up to n points immediately older than everything handed
// out so far, oldest first. It returns nil once the start has been reached.
func (p *Pager) Previous(n int) []series.Point {
	if p.from == 0 || n <= 0 {
		return nil
	}
	start := max(0, p.from-n)
	page := p.points[start:p.from]
	p.from = start
	return page
}
