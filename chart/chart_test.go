package chart

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/scrollchart/series"
	"git.sr.ht/~whereswaldon/scrollchart/viewport"
)

const frame = 1.0 / 60

var red = color.NRGBA{R: 0xff, A: 0xff}

type recorder struct {
	grid    Grid
	grids   int
	shapes  map[int]Shape
	bars    []BarShape
	retired []int
}

func newRecorder() *recorder {
	return &recorder{shapes: make(map[int]Shape)}
}

func (r *recorder) Grid(g Grid) {
	r.grid = g
	r.grids++
}

func (r *recorder) Shape(s Shape)        { r.shapes[s.Chunk] = s }
func (r *recorder) Bars(bars []BarShape) { r.bars = bars }
func (r *recorder) Retire(chunk int) {
	delete(r.shapes, chunk)
	r.retired = append(r.retired, chunk)
}

type delegate struct {
	past, future int
}

func (d *delegate) PastDataRequested()   { d.past++ }
func (d *delegate) FutureDataRequested() { d.future++ }

func wave(n int, x0 float64) []series.Point {
	points := make([]series.Point, n)
	for i := range points {
		points[i] = series.Point{X: x0 + float64(i), Y: 50 + 10*math.Sin(float64(i)/7)}
	}
	return points
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ChunkSize = 100
	return cfg
}

// newTestChart returns a chart with a 300x200 plot.
func newTestChart(cfg Config, kind Kind, points []series.Point) (*Chart, *recorder, *series.Series) {
	rec := newRecorder()
	c := New(cfg, rec, nil, nil)
	s := series.New(series.HeartRate, "heart rate", red, points...)
	c.SetBounds(350, 235)
	c.SetData(kind, s)
	return c, rec, s
}

// settle runs frames until every requested chunk has been applied.
func settle(c *Chart) {
	for i := 0; i < 3; i++ {
		c.Frame(frame)
		c.cache.Wait()
	}
	c.Frame(frame)
}

func TestSetBounds(t *testing.T) {
	rec := newRecorder()
	c := New(testConfig(), rec, nil, nil)
	c.SetData(Line, series.New(series.HeartRate, "hr", red, wave(300, 0)...))
	assert.False(t, c.Frame(frame), "nothing is painted before layout")
	assert.Zero(t, rec.grids)

	c.SetBounds(350, 235)
	assert.Equal(t, Rect{Min: Pt{X: 40, Y: 10}, Max: Pt{X: 340, Y: 210}}, c.Plot())
	assert.True(t, c.Range().Valid)
	c.Frame(frame)
	assert.Equal(t, 1, rec.grids)
}

func TestInitialView(t *testing.T) {
	c, _, _ := newTestChart(testConfig(), Line, wave(300, 0))
	st := c.State()
	assert.InDelta(t, 299.0/29, st.Zoom, 1e-9)
	lo, _ := viewport.OffsetBounds(300, st.Zoom)
	assert.Equal(t, lo, st.Offset)
	assert.True(t, st.Following)

	xMin, xMax := c.transform().VisibleX()
	assert.InDelta(t, 270, xMin, 1e-6)
	assert.InDelta(t, 299, xMax, 1e-6)

	c, _, _ = newTestChart(testConfig(), Line, wave(5000, 0))
	assert.Equal(t, 15.0, c.State().Zoom)

	c, _, _ = newTestChart(testConfig(), Line, wave(1, 0))
	assert.Equal(t, 1.0, c.State().Zoom)
	assert.Zero(t, c.State().Offset)
}

func TestPaintShapesPerChunk(t *testing.T) {
	c, rec, _ := newTestChart(testConfig(), Line, wave(300, 0))
	settle(c)

	require.Len(t, rec.shapes, 1)
	s, ok := rec.shapes[2]
	require.True(t, ok)
	assert.Equal(t, red, s.Stroke)
	assert.Equal(t, 2.0, s.Width)
	assert.False(t, s.Closed)

	assert.GreaterOrEqual(t, len(rec.grid.Lines), 5)
	for i, l := range rec.grid.Lines {
		assert.Equal(t, 40.0, l.From.X)
		assert.Equal(t, 340.0, l.To.X)
		assert.Equal(t, []float64{2, 3}, l.Dashes)
		assert.Equal(t, 35.0, rec.grid.Ticks[i].At.X)
		assert.NotEmpty(t, rec.grid.Ticks[i].Label)
	}

	// Zooming out brings earlier chunks into view.
	c.PinchBegin()
	c.PinchChange(0.1, Pt{X: 190, Y: 100})
	c.PinchEnd()
	settle(c)
	assert.Len(t, rec.shapes, 3)
}

func TestPaintArea(t *testing.T) {
	c, rec, _ := newTestChart(testConfig(), Area, wave(50, 0))
	settle(c)

	s, ok := rec.shapes[0]
	require.True(t, ok)
	assert.True(t, s.Closed)
	assert.Zero(t, s.Width)
	assert.Equal(t, uint8(76), s.Fill.A)
	base := c.plot.Min.Y + c.transform().DataYToScreen(c.Range().YMin)
	assert.Equal(t, base, s.Points[0].Y)
	assert.Equal(t, base, s.Points[len(s.Points)-1].Y)
	assert.Equal(t, s.Points[0].X, s.Points[1].X)
}

func TestAppendFollows(t *testing.T) {
	c, rec, s := newTestChart(testConfig(), Line, wave(300, 0))
	settle(c)

	c.Append(series.Point{X: 300, Y: 55}, s.ID)
	c.Append(series.Point{X: 301, Y: 54}, "unknown")
	assert.Equal(t, 301, s.Len())
	settle(c)

	assert.Equal(t, 300.0, c.Range().XMax)
	lo, _ := viewport.OffsetBounds(300, c.State().Zoom)
	assert.Equal(t, lo, c.State().Offset)
	require.Contains(t, rec.shapes, 3)
	chunk2 := rec.shapes[2]
	assert.Equal(t, rec.shapes[3].Points[0], chunk2.Points[len(chunk2.Points)-1], "neighbouring chunks join")
}

func TestUpdateLastInvalidatesChunk(t *testing.T) {
	c, rec, s := newTestChart(testConfig(), Line, wave(250, 0))
	settle(c)
	before := rec.shapes[2]

	c.UpdateLast(series.Point{X: 249, Y: 500}, s.ID)
	settle(c)

	after := rec.shapes[2]
	require.Len(t, after.Points, len(before.Points))
	last := after.Points[len(after.Points)-1]
	assert.InDelta(t, c.plot.Min.Y+c.transform().DataYToScreen(500), last.Y, 1e-9)
	for _, p := range after.Points {
		assert.GreaterOrEqual(t, p.Y, last.Y)
	}
}

func TestPrependKeepsLeftEdge(t *testing.T) {
	for _, kind := range []Kind{Line, Bar} {
		t.Run(kind.String(), func(t *testing.T) {
			c, _, s := newTestChart(testConfig(), kind, wave(300, 100))
			settle(c)
			c.PanBegin()
			c.PanChange(1000)
			c.PanEnd(0)
			require.False(t, c.State().Following)
			c.loading.Past = true

			gen := c.cache.Generation()
			zoom := c.State().Zoom
			anchor := c.transform().ScreenToDataX(0)

			c.PrependPast(wave(50, 50), s.ID)

			assert.Equal(t, 350, s.Len())
			assert.Equal(t, 50.0, c.Range().XMin)
			assert.InDelta(t, zoom*349/299, c.State().Zoom, 1e-9)
			assert.InDelta(t, 0, c.transform().DataXToScreen(anchor), 1)
			assert.False(t, c.Loading().Past)
			assert.Equal(t, gen+1, c.cache.Generation())
		})
	}
}

func TestPrependEmptyClearsFlag(t *testing.T) {
	c, _, s := newTestChart(testConfig(), Line, wave(10, 0))
	c.loading = LoadingFlags{Past: true, Future: true}
	c.PrependPast(nil, s.ID)
	assert.Equal(t, LoadingFlags{Future: true}, c.Loading())

	c.AppendFuture(nil, "missing")
	assert.Equal(t, LoadingFlags{}, c.Loading())
}

func TestAppendFuture(t *testing.T) {
	c, _, s := newTestChart(testConfig(), Line, wave(300, 0))
	c.loading.Future = true
	c.AppendFuture(wave(20, 300), s.ID)
	assert.Equal(t, 320, s.Len())
	assert.Equal(t, 319.0, c.Range().XMax)
	assert.False(t, c.Loading().Future)
}

func TestEdgeLoading(t *testing.T) {
	cfg := testConfig()
	cfg.CanLoadPast = true
	cfg.CanLoadFuture = true
	c, _, _ := newTestChart(cfg, Line, wave(300, 0))
	d := &delegate{}
	c.SetDelegate(d)

	c.PanBegin()
	c.PanChange(1)
	assert.Equal(t, 1, d.future)
	assert.Zero(t, d.past)

	c.PanChange(2700)
	assert.Equal(t, 1, d.past)
	c.PanChange(10)
	assert.Equal(t, 1, d.past, "a request is not repeated while outstanding")
	assert.Equal(t, LoadingFlags{Past: true, Future: true}, c.Loading())

	c.EndLoading()
	c.PanChange(-1)
	assert.Equal(t, 2, d.past)
	c.PanEnd(0)
}

func TestEdgeLoadingSkippedWhenFullyVisible(t *testing.T) {
	cfg := testConfig()
	cfg.CanLoadPast = true
	cfg.CanLoadFuture = true
	c, _, _ := newTestChart(cfg, Line, wave(20, 0))
	d := &delegate{}
	c.SetDelegate(d)
	c.PanBegin()
	c.PanChange(5)
	assert.Zero(t, d.past+d.future)
}

func TestDecelerationThroughFrames(t *testing.T) {
	c, _, _ := newTestChart(testConfig(), Line, wave(300, 0))
	settle(c)
	c.PanBegin()
	c.PanChange(500)
	start := c.State().Offset
	c.PanEnd(800)
	require.Equal(t, viewport.Decelerating, c.State().Mode)

	frames := 0
	for c.Frame(frame) {
		frames++
		require.Less(t, frames, 1000)
	}
	assert.Greater(t, frames, 10)
	assert.Equal(t, viewport.Idle, c.State().Mode)
	assert.Greater(t, c.State().Offset, start)
	assert.False(t, c.State().Following)
}

func TestPinch(t *testing.T) {
	c, _, _ := newTestChart(testConfig(), Line, wave(300, 0))
	settle(c)
	gen := c.cache.Generation()

	c.PinchBegin()
	assert.Equal(t, gen+1, c.cache.Generation())
	assert.Equal(t, viewport.Pinching, c.State().Mode)

	zoom := c.State().Zoom
	c.PinchChange(2, Pt{X: 10, Y: 50})
	assert.Equal(t, zoom, c.State().Zoom, "focal point outside the plot")

	anchor := c.transform().ScreenToDataX(60)
	c.PinchChange(1.2, Pt{X: 100, Y: 100})
	assert.InDelta(t, zoom*1.2, c.State().Zoom, 1e-9)
	assert.InDelta(t, 60, c.transform().DataXToScreen(anchor), 1)

	c.PinchEnd()
	assert.Equal(t, viewport.Idle, c.State().Mode)
	assert.False(t, c.State().Following)
}

func TestRealTimeMode(t *testing.T) {
	c, _, s := newTestChart(testConfig(), Line, wave(300, 0))
	settle(c)
	st, rng := c.State(), c.Range()

	c.EnterRealTimeMode()
	assert.True(t, c.RealTime())
	for i := 0; i < 20; i++ {
		c.Append(series.Point{X: float64(300 + i), Y: 500}, s.ID)
		c.Frame(frame)
	}
	assert.Equal(t, 319.0, c.Range().XMax)
	assert.Greater(t, c.Range().YMax, rng.YMax)

	c.ExitRealTimeMode()
	assert.False(t, c.RealTime())
	assert.Equal(t, st.Zoom, c.State().Zoom)
	assert.Equal(t, st.Offset, c.State().Offset)
	assert.Equal(t, rng, c.Range())
}

func TestHealthBars(t *testing.T) {
	points := make([]series.Point, 40)
	for i := range points {
		points[i] = series.Point{X: float64(i), Y: 80}
		if i%5 != 0 {
			points[i].Min, points[i].Max, points[i].Banded = 60, 100, true
		}
	}
	c, rec, s := newTestChart(testConfig(), Health, points)
	c.Frame(frame)

	tr := c.transform()
	assert.Greater(t, tr.EdgePadding, 0.0)
	xMin, xMax := tr.VisibleX()
	first, last, ok := series.Window(s.Points, xMin, xMax)
	require.True(t, ok)
	first, last = max(0, first-1), min(len(points)-1, last+1)
	want := 0
	for _, p := range points[first : last+1] {
		if p.Banded {
			want++
		}
	}
	require.Len(t, rec.bars, want)

	height := tr.DataYToScreen(60) - tr.DataYToScreen(100)
	width := c.LineWidth()
	for _, b := range rec.bars {
		assert.InDelta(t, height, b.Rect.Dy(), 1e-9)
		assert.InDelta(t, width, b.Rect.Dx(), 1e-9)
		assert.Equal(t, width/2, b.Radius)
	}
}

func TestSwitchKindRetiresShapes(t *testing.T) {
	c, rec, _ := newTestChart(testConfig(), Line, wave(300, 0))
	settle(c)
	require.NotEmpty(t, rec.shapes)

	c.SetKind(Bar)
	c.Frame(frame)
	assert.Empty(t, rec.shapes)
	assert.Contains(t, rec.retired, 2)
	assert.NotEmpty(t, rec.bars)
	for _, b := range rec.bars {
		assert.GreaterOrEqual(t, b.Rect.Dy(), 2.0-1e-9)
	}

	c.SetKind(Line)
	settle(c)
	assert.Empty(t, rec.bars)
	assert.NotEmpty(t, rec.shapes)
}

func TestEmptySeries(t *testing.T) {
	c, rec, _ := newTestChart(testConfig(), Line, nil)
	c.Frame(frame)
	assert.Equal(t, 1, rec.grids)
	assert.Empty(t, rec.grid.Lines)
	assert.Empty(t, rec.shapes)
	assert.Nil(t, rec.bars)
	assert.False(t, c.Range().Valid)
}

func TestLineWidth(t *testing.T) {
	c, _, _ := newTestChart(testConfig(), Line, wave(300, 0))
	for _, tc := range []struct{ zoom, want float64 }{
		{1, 0.8},
		{3, 1.5},
		{5, 2},
		{12, 2},
	} {
		assert.InDelta(t, tc.want, c.lineWidthAt(tc.zoom), 1e-9, "zoom %v", tc.zoom)
	}
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("health")
	assert.True(t, ok)
	assert.Equal(t, Health, k)
	_, ok = ParseKind("pie")
	assert.False(t, ok)
}

func TestFlushPaintsEveryVisibleChunk(t *testing.T) {
	c, rec, _ := newTestChart(testConfig(), Line, wave(1000, 0))
	c.Schedule()
	c.Frame(0)
	assert.Positive(t, c.pending, "the first paint requests every visible chunk")

	c.Flush()
	require.NotEmpty(t, rec.shapes)
	assert.Zero(t, c.pending)
	assert.Zero(t, c.cache.Drain())
	for _, s := range rec.shapes {
		assert.NotEmpty(t, s.Points)
	}
}
