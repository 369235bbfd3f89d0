package chart

import "image/color"

// Pt is a position in surface pixels, y growing downward.
type Pt struct {
	X, Y float64
}

// Rect is an axis aligned rectangle in surface pixels.
type Rect struct {
	Min, Max Pt
}

func (r Rect) Dx() float64 { return r.Max.X - r.Min.X }
func (r Rect) Dy() float64 { return r.Max.Y - r.Min.Y }

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Pt) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Segment is a straight stroked line.
type Segment struct {
	From, To Pt
	Color    color.NRGBA
	Width    float64
	// Dashes alternates on and off lengths. Empty means solid.
	Dashes []float64
}

// Tick is a y axis label whose right edge is vertically centred on At.
type Tick struct {
	At    Pt
	Label string
	Color color.NRGBA
}

// Grid is the static part of a frame.
type Grid struct {
	// Plot is the area content is clipped to.
	Plot  Rect
	Lines []Segment
	Ticks []Tick
}

// Shape is the path drawn for one chunk of a line or area chart.
type Shape struct {
	Chunk  int
	Points []Pt
	// Stroke and Width describe the outline. A zero Width means no outline.
	Stroke color.NRGBA
	Width  float64
	// Fill is used when Closed is set.
	Fill   color.NRGBA
	Closed bool
}

// BarShape is a filled rounded rectangle.
type BarShape struct {
	Rect   Rect
	Radius float64
	Color  color.NRGBA
}

// Renderer paints what a paint pass produces. Each call replaces what the
// previous call of the same kind painted: Grid replaces the grid, Shape
// replaces the shape of its chunk and Bars replaces every bar.
type Renderer interface {
	Grid(g Grid)
	Shape(s Shape)
	Bars(bars []BarShape)
}

// Retirer is implemented by renderers that keep shapes between passes. Retire
// is called for a chunk whose shape is no longer visible.
type Retirer interface {
	Retire(chunk int)
}

// LoadDelegate is asked for more data when the view nears an edge.
//
// A request is issued at most once per edge until the chart is told it has
// been handled through PrependPast, AppendFuture or EndLoading. There is no
// timeout: a delegate that never answers blocks further requests for that
// edge for the life of the chart.
type LoadDelegate interface {
	PastDataRequested()
	FutureDataRequested()
}

// LoadingFlags records which edges have a request outstanding.
type LoadingFlags struct {
	Past, Future bool
}
