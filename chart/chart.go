// Package chart ties the pieces of a scrollable chart together. A Chart owns
// a set of series, the viewport state, the chunk cache and the render
// scheduler, and exposes the mutation and gesture entry points.
//
// A Chart is not safe for concurrent use. Every method must be called from the
// goroutine that drives its frames; only the wake function passed to New is
// called from elsewhere.
package chart

import (
	"git.sr.ht/~whereswaldon/scrollchart/chunk"
	"git.sr.ht/~whereswaldon/scrollchart/motion"
	"git.sr.ht/~whereswaldon/scrollchart/scheduler"
	"git.sr.ht/~whereswaldon/scrollchart/series"
	"git.sr.ht/~whereswaldon/scrollchart/viewport"
)

type snapshot struct {
	zoom, offset float64
	rng          viewport.DataRange
}

// Chart is an interactive chart of one primary series.
type Chart struct {
	cfg      Config
	kind     Kind
	series   []*series.Series
	renderer Renderer
	delegate LoadDelegate

	motion motion.Controller
	state  viewport.State
	rng    viewport.DataRange
	cache  *chunk.Cache
	sched  *scheduler.Scheduler

	// pending counts visible chunks the last paint drew without a result.
	pending int

	width, height float64
	plot          Rect
	laidOut       bool

	loading  LoadingFlags
	realtime bool
	saved    snapshot
}

// New creates a chart painting through r. hook is started while the chart
// has frames to run and may be nil. wake is called from worker goroutines
// when simplified data is ready and must arrange for Frame to be called soon;
// it may be nil when the caller polls Frame.
func New(cfg Config, r Renderer, hook scheduler.FrameHook, wake func()) *Chart {
	cfg = cfg.withDefaults()
	return &Chart{
		cfg:      cfg,
		renderer: r,
		motion:   motion.New(cfg.Motion),
		state:    viewport.State{Zoom: cfg.Motion.MinZoom, Following: true},
		cache:    chunk.New(cfg.ChunkSize, wake),
		sched:    scheduler.New(hook),
	}
}

// SetDelegate sets the receiver of edge loading requests.
func (c *Chart) SetDelegate(d LoadDelegate) {
	c.delegate = d
}

// Kind returns how the chart is drawn.
func (c *Chart) Kind() Kind { return c.kind }

// State returns the current viewport state.
func (c *Chart) State() viewport.State { return c.state }

// Range returns the current data range.
func (c *Chart) Range() viewport.DataRange { return c.rng }

// Loading returns the edges with outstanding requests.
func (c *Chart) Loading() LoadingFlags { return c.loading }

// RealTime reports whether real-time mode is active.
func (c *Chart) RealTime() bool { return c.realtime }

// Plot returns the plot area in surface pixels.
func (c *Chart) Plot() Rect { return c.plot }

// Series returns the series with the given id, or nil.
func (c *Chart) Series(id series.ID) *series.Series {
	for _, s := range c.series {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (c *Chart) primary() *series.Series {
	if len(c.series) == 0 {
		return nil
	}
	return c.series[0]
}

func (c *Chart) primaryPoints() []series.Point {
	if p := c.primary(); p != nil {
		return p.Points
	}
	return nil
}

// SetBounds sets the size of the whole drawing surface. The plot area is the
// surface less the configured insets. The first non-empty size performs a
// full reload of any data set before it.
func (c *Chart) SetBounds(width, height float64) {
	if width == c.width && height == c.height {
		return
	}
	c.width, c.height = width, height
	in := c.cfg.Insets
	c.plot = Rect{
		Min: Pt{X: in.Left, Y: in.Top},
		Max: Pt{X: max(in.Left, width-in.Right), Y: max(in.Top, height-in.Bottom)},
	}
	if !c.laidOut && c.plot.Dx() > 0 && c.plot.Dy() > 0 {
		c.laidOut = true
		if len(c.series) > 0 {
			c.reload()
		}
		return
	}
	c.state.Offset = viewport.ClampOffset(c.state.Offset, c.plot.Dx(), c.state.Zoom)
	c.Schedule()
}

// Schedule requests a paint pass on the next frame.
func (c *Chart) Schedule() {
	if !c.laidOut {
		return
	}
	c.sched.Schedule()
}

// SetData replaces every series and the chart kind, then resets the view to
// show the most recent points.
func (c *Chart) SetData(kind Kind, ss ...*series.Series) {
	c.kind = kind
	c.series = ss
	c.reload()
}

// SetKind changes how the chart is drawn while keeping the data and view.
func (c *Chart) SetKind(kind Kind) {
	c.kind = kind
	c.Schedule()
}

func (c *Chart) reload() {
	if !c.laidOut {
		return
	}
	c.cache.Clear()
	c.state = viewport.State{Zoom: c.cfg.Motion.MinZoom, Following: true}
	c.rng = viewport.ComputeDataRange(c.primaryPoints())
	c.initialView()
	c.Schedule()
}

// initialView zooms so that the latest InitialPoints points fill the plot and
// scrolls to them.
func (c *Chart) initialView() {
	points := c.primaryPoints()
	if len(points) <= 1 {
		c.state.Zoom = c.cfg.Motion.MinZoom
		c.state.Offset = 0
		return
	}
	latest := points[max(0, len(points)-c.cfg.InitialPoints):]
	latestSpan := latest[len(latest)-1].X - latest[0].X
	totalSpan := points[len(points)-1].X - points[0].X
	c.state.Zoom = c.cfg.Motion.MinZoom
	if latestSpan > 0 && totalSpan > 0 {
		c.state.Zoom = c.motion.ClampZoom(totalSpan / latestSpan)
	}
	c.scrollToEnd()
}

func (c *Chart) scrollToEnd() {
	c.state.Offset, _ = viewport.OffsetBounds(c.plot.Dx(), c.state.Zoom)
}

// Append adds p to the end of the series with the given id. Unknown ids are
// ignored.
func (c *Chart) Append(p series.Point, id series.ID) {
	s := c.Series(id)
	if s == nil {
		return
	}
	s.Append(p)
	if s != c.primary() {
		return
	}
	c.cache.Invalidate(c.cache.IndexOf(s.Len() - 1))
	c.followNewData()
	c.Schedule()
}

// UpdateLast replaces the final point of the series with the given id.
func (c *Chart) UpdateLast(p series.Point, id series.ID) {
	s := c.Series(id)
	if s == nil || !s.ReplaceLast(p) {
		return
	}
	if s != c.primary() {
		return
	}
	c.cache.Invalidate(c.cache.IndexOf(s.Len() - 1))
	if c.state.Following {
		c.rng = viewport.ExtendRange(c.rng, s.Points)
	}
	c.Schedule()
}

// followNewData extends the range over streamed points and, when the newest
// one has moved past the right edge, scrolls to place it at FollowTarget.
func (c *Chart) followNewData() {
	if !c.state.Following || !c.laidOut {
		return
	}
	points := c.primaryPoints()
	c.rng = viewport.ExtendRange(c.rng, points)
	last := points[len(points)-1]
	t := c.transform()
	if _, visMax := t.VisibleX(); last.X <= visMax {
		return
	}
	adjust := t.Width*c.cfg.FollowTarget - t.DataXToScreen(last.X)
	c.state.Offset = viewport.ClampOffset(c.state.Offset+adjust, t.Width, c.state.Zoom)
}

// PrependPast inserts older points at the front of the series with the given
// id and answers an outstanding past data request. The point at the left edge
// of the plot stays where it is.
func (c *Chart) PrependPast(points []series.Point, id series.ID) {
	defer func() { c.loading.Past = false }()
	s := c.Series(id)
	if s == nil || len(points) == 0 {
		return
	}
	if s != c.primary() || !c.laidOut {
		s.Prepend(points...)
		return
	}

	anchor := c.transform().ScreenToDataX(0)
	oldSpan := 0.0
	if c.rng.Valid {
		oldSpan = c.rng.XSpan()
	}

	s.Prepend(points...)
	c.cache.Clear()
	c.rng = viewport.ExpandForPrepend(c.rng, points)
	if newSpan := c.rng.XSpan(); oldSpan > 0 && newSpan > oldSpan {
		c.state.Zoom = min(c.cfg.Motion.MaxZoom, c.state.Zoom*newSpan/oldSpan)
	}
	t := c.transform()
	c.state.Offset = viewport.ClampOffset(c.state.Offset-t.DataXToScreen(anchor), t.Width, c.state.Zoom)
	c.Schedule()
}

// AppendFuture adds newer points to the end of the series with the given id
// and answers an outstanding future data request.
func (c *Chart) AppendFuture(points []series.Point, id series.ID) {
	defer func() { c.loading.Future = false }()
	s := c.Series(id)
	if s == nil || len(points) == 0 {
		return
	}
	first := s.Len()
	s.Append(points...)
	if s != c.primary() {
		return
	}
	if first > 0 {
		c.cache.Invalidate(c.cache.IndexOf(first - 1))
	}
	c.rng = viewport.ExtendRange(c.rng, s.Points)
	c.Schedule()
}

// EndLoading answers outstanding requests on both edges without data.
func (c *Chart) EndLoading() {
	c.loading = LoadingFlags{}
}

// EnterRealTimeMode saves the current view. While in real-time mode the
// range grows with streamed data instead of being recomputed.
func (c *Chart) EnterRealTimeMode() {
	if c.realtime {
		return
	}
	c.saved = snapshot{zoom: c.state.Zoom, offset: c.state.Offset, rng: c.rng}
	c.realtime = true
}

// ExitRealTimeMode restores the view saved by EnterRealTimeMode.
func (c *Chart) ExitRealTimeMode() {
	if !c.realtime {
		return
	}
	c.realtime = false
	c.state.Zoom = c.saved.zoom
	c.state.Offset = c.saved.offset
	c.rng = c.saved.rng
	c.Schedule()
}

// PanBegin starts a horizontal drag.
func (c *Chart) PanBegin() {
	c.state = c.motion.PanBegin(c.state)
}

// PanChange moves the content by dx pixels.
func (c *Chart) PanChange(dx float64) {
	c.state = c.motion.PanChange(c.state, dx, c.plot.Dx())
	c.checkEdges()
	c.Schedule()
}

// PanEnd ends a drag released at vx pixels per second.
func (c *Chart) PanEnd(vx float64) {
	c.state = c.motion.PanEnd(c.state, vx, c.plot.Dx())
	c.Schedule()
}

// PinchBegin starts a zoom gesture. Cached chunks are dropped.
func (c *Chart) PinchBegin() {
	c.state = c.motion.PinchBegin(c.state)
	c.cache.Clear()
}

// PinchChange scales the zoom by scale around focal, in surface pixels.
// Gestures centred outside the plot are ignored.
func (c *Chart) PinchChange(scale float64, focal Pt) {
	if !c.plot.Contains(focal) {
		return
	}
	c.state = c.motion.PinchChange(c.state, motion.GeometryFunc(c.transformAt), scale, focal.X-c.plot.Min.X)
	c.Schedule()
}

// PinchEnd ends a zoom gesture.
func (c *Chart) PinchEnd() {
	c.state = c.motion.PinchEnd(c.state, c.plot.Dx())
	c.Schedule()
}

// checkEdges asks the delegate for more data when the view nears an edge.
func (c *Chart) checkEdges() {
	if c.delegate == nil || !c.rng.Valid {
		return
	}
	req := c.motion.EdgeRequests(c.transform(), c.cfg.Loading,
		motion.Edges{Past: c.cfg.CanLoadPast, Future: c.cfg.CanLoadFuture},
		motion.Edges(c.loading))
	if req.Past {
		c.loading.Past = true
		c.delegate.PastDataRequested()
	}
	if req.Future {
		c.loading.Future = true
		c.delegate.FutureDataRequested()
	}
}

// Frame runs one display refresh: finished simplifications are applied and
// the scheduler ticks. It reports whether another frame is wanted.
func (c *Chart) Frame(dt float64) bool {
	if c.cache.Drain() > 0 {
		c.Schedule()
	}
	if !c.sched.Running() {
		return false
	}
	return c.sched.Tick(dt, (*frameWork)(c))
}

// frameWork adapts a Chart to scheduler.Work.
type frameWork Chart

func (f *frameWork) Decelerating() bool {
	return f.state.Mode == viewport.Decelerating
}

func (f *frameWork) Decelerate(dt float64) {
	c := (*Chart)(f)
	c.state = c.motion.Decelerate(c.state, dt, c.plot.Dx())
	c.checkEdges()
}

func (f *frameWork) Paint() {
	(*Chart)(f).paint()
}

func (f *frameWork) Dragging() bool {
	return f.state.Dragging()
}

// Flush runs frames until a paint leaves no visible chunk waiting on a
// simplification. It blocks, so it is meant for headless rendering and tests.
func (c *Chart) Flush() {
	c.Schedule()
	for {
		c.Frame(0)
		c.cache.Wait()
		if c.pending == 0 {
			// Keep prefetched neighbours for the next scroll.
			c.cache.Drain()
			return
		}
		c.Schedule()
	}
}
