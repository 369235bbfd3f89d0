package chart

import (
	"git.sr.ht/~whereswaldon/scrollchart/chunk"
	"git.sr.ht/~whereswaldon/scrollchart/series"
	"git.sr.ht/~whereswaldon/scrollchart/viewport"
)

const (
	gridLineWidth = 0.5
	labelGap      = 5
	minBarHeight  = 2
	areaAlpha     = 0.3
)

var gridDashes = []float64{2, 3}

func (c *Chart) transform() viewport.Transform {
	return c.transformAt(c.state.Zoom, c.state.Offset)
}

// transformAt returns the plot transform for a candidate zoom and offset.
// Bar kinds reserve half a bar at either end.
func (c *Chart) transformAt(zoom, offset float64) viewport.Transform {
	t := viewport.Transform{
		Width:  c.plot.Dx(),
		Height: c.plot.Dy(),
		Zoom:   zoom,
		Offset: offset,
		Range:  c.rng,
	}
	if c.kind.bars() {
		t.EdgePadding = c.lineWidthAt(zoom) / 2
	}
	return t
}

// lineWidthAt is the stroke or bar width at zoom. It grows from 1px at zoom
// 1 to the series width at zoom 5, and never exceeds 80% of the spacing
// between points.
func (c *Chart) lineWidthAt(zoom float64) float64 {
	p := c.primary()
	if p == nil || p.Len() == 0 {
		return series.DefaultLineWidth
	}
	const (
		minWidth  = 1.0
		startZoom = 1.0
		endZoom   = 5.0
	)
	spacing := c.plot.Dx() * zoom / float64(p.Len())
	fromSpacing := max(0.5, spacing*0.8)

	base := p.LineWidth
	if base <= 0 {
		base = series.DefaultLineWidth
	}
	var fromZoom float64
	switch {
	case zoom >= endZoom:
		fromZoom = base
	case zoom <= startZoom:
		fromZoom = minWidth
	default:
		progress := (zoom - startZoom) / (endZoom - startZoom)
		fromZoom = minWidth + progress*(base-minWidth)
	}
	return min(fromZoom, fromSpacing)
}

// LineWidth returns the current stroke width of the primary series.
func (c *Chart) LineWidth() float64 {
	return c.lineWidthAt(c.state.Zoom)
}

// toSurface converts plot coordinates to surface coordinates.
func (c *Chart) toSurface(x, y float64) Pt {
	return Pt{X: c.plot.Min.X + x, Y: c.plot.Min.Y + y}
}

func (c *Chart) paint() {
	if points := c.primaryPoints(); c.state.Following && len(points) > 0 {
		if c.realtime {
			c.rng = viewport.ExtendRange(c.rng, points)
		} else {
			c.rng = viewport.ComputeDataRange(points)
			c.scrollToEnd()
		}
	}
	c.pending = 0
	if c.renderer == nil {
		return
	}
	t := c.transform()
	c.paintGrid(t)
	switch {
	case c.primary() == nil || !c.rng.Valid:
		c.retire(c.cache.RetireAll())
		c.renderer.Bars(nil)
	case c.kind.bars():
		c.retire(c.cache.RetireAll())
		c.paintBars(t)
	default:
		c.renderer.Bars(nil)
		c.paintShapes(t)
	}
}

func (c *Chart) paintGrid(t viewport.Transform) {
	g := Grid{Plot: c.plot}
	if !c.rng.Valid {
		c.renderer.Grid(g)
		return
	}
	for _, v := range viewport.NiceTicks(c.rng.YMin, c.rng.YMax, c.cfg.TickCount) {
		y := t.DataYToScreen(v)
		g.Lines = append(g.Lines, Segment{
			From:   c.toSurface(0, y),
			To:     c.toSurface(t.Width, y),
			Color:  c.cfg.GridColor,
			Width:  gridLineWidth,
			Dashes: gridDashes,
		})
		g.Ticks = append(g.Ticks, Tick{
			At:    Pt{X: c.plot.Min.X - labelGap, Y: c.plot.Min.Y + y},
			Label: c.cfg.FormatTick(v),
			Color: c.cfg.LabelColor,
		})
	}
	c.renderer.Grid(g)
}

func (c *Chart) retire(chunks []int) {
	r, ok := c.renderer.(Retirer)
	if !ok {
		return
	}
	for _, i := range chunks {
		r.Retire(i)
	}
}

// paintShapes emits one shape per simplified chunk in view. Each line is
// extended to the first point of the following chunk so that neighbouring
// shapes join up.
func (c *Chart) paintShapes(t viewport.Transform) {
	p := c.primary()
	visMin, visMax := t.VisibleX()
	plan := c.cache.Resolve(p.Points, visMin, visMax, chunk.Threshold(t.Width))
	c.retire(plan.Retired)
	c.pending = plan.Pending

	width := c.lineWidthAt(t.Zoom)
	fill := p.Color
	fill.A = uint8(float64(fill.A) * areaAlpha)
	base := t.DataYToScreen(c.rng.YMin)

	for _, ch := range plan.Chunks {
		if len(ch.Points) == 0 {
			continue
		}
		pts := make([]Pt, 0, len(ch.Points)+3)
		if c.kind == Area {
			pts = append(pts, c.toSurface(t.DataXToScreen(ch.Points[0].X), base))
		}
		for _, dp := range ch.Points {
			pts = append(pts, c.toSurface(t.DataXToScreen(dp.X), t.DataYToScreen(dp.Y)))
		}
		if next := (ch.Index + 1) * c.cache.Size(); next < p.Len() {
			dp := p.Points[next]
			pts = append(pts, c.toSurface(t.DataXToScreen(dp.X), t.DataYToScreen(dp.Y)))
		}
		s := Shape{Chunk: ch.Index, Points: pts, Stroke: p.Color, Width: width}
		if c.kind == Area {
			pts = append(pts, Pt{X: pts[len(pts)-1].X, Y: c.plot.Min.Y + base})
			s.Points = pts
			s.Width = 0
			s.Fill = fill
			s.Closed = true
		}
		c.renderer.Shape(s)
	}
}

// paintBars emits a bar for every point in view plus one on either side so
// that bars straddling an edge are drawn.
func (c *Chart) paintBars(t viewport.Transform) {
	p := c.primary()
	visMin, visMax := t.VisibleX()
	first, last, ok := series.Window(p.Points, visMin, visMax)
	if !ok {
		c.renderer.Bars(nil)
		return
	}
	first = max(0, first-1)
	last = min(p.Len()-1, last+1)

	width := c.lineWidthAt(t.Zoom)
	base := t.DataYToScreen(c.rng.YMin)
	bars := make([]BarShape, 0, last-first+1)
	for _, dp := range p.Points[first : last+1] {
		x := t.DataXToScreen(dp.X)
		var top, height float64
		if c.kind == Health {
			if !dp.Banded {
				continue
			}
			top = t.DataYToScreen(dp.Max)
			height = max(minBarHeight, t.DataYToScreen(dp.Min)-top)
		} else {
			top = t.DataYToScreen(dp.Y)
			height = max(minBarHeight, base-top)
		}
		bars = append(bars, BarShape{
			Rect: Rect{
				Min: c.toSurface(x-width/2, top),
				Max: c.toSurface(x+width/2, top+height),
			},
			Radius: width / 2,
			Color:  p.Color,
		})
	}
	c.renderer.Bars(bars)
}
