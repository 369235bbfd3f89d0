// Package giochart displays a chart.Chart in a gio window. Scene keeps what
// the chart last painted and replays it each frame; Chart decodes pointer
// input into pan and zoom gestures and drives the chart's frames.
package giochart

import (
	"image"
	"image/color"
	"maps"
	"slices"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"
	"gioui.org/x/stroke"

	"git.sr.ht/~whereswaldon/scrollchart/chart"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

// Scene is a retained chart.Renderer. Shapes stay until their chunk is
// retired or repainted.
type Scene struct {
	Background color.NRGBA

	grid   chart.Grid
	shapes map[int]chart.Shape
	bars   []chart.BarShape
}

var (
	_ chart.Renderer = (*Scene)(nil)
	_ chart.Retirer  = (*Scene)(nil)
)

func NewScene() *Scene {
	return &Scene{
		Background: color.NRGBA{A: 0xff},
		shapes:     make(map[int]chart.Shape),
	}
}

func (s *Scene) Grid(g chart.Grid) {
	s.grid = g
}

func (s *Scene) Shape(sh chart.Shape) {
	s.shapes[sh.Chunk] = sh
}

func (s *Scene) Bars(bars []chart.BarShape) {
	s.bars = bars
}

func (s *Scene) Retire(chunk int) {
	delete(s.shapes, chunk)
}

// Chunks returns the chunks that currently have a shape, in order.
func (s *Scene) Chunks() []int {
	return slices.Sorted(maps.Keys(s.shapes))
}

// Layout paints the scene into the constraints of gtx.
func (s *Scene) Layout(gtx C, th *material.Theme) D {
	size := gtx.Constraints.Max
	paint.FillShape(gtx.Ops, s.Background, clip.Rect{Max: size}.Op())

	for _, l := range s.grid.Lines {
		paintSegment(gtx, l)
	}
	for _, t := range s.grid.Ticks {
		s.layoutTick(gtx, th, t)
	}

	plot := clip.Rect(toRect(s.grid.Plot)).Push(gtx.Ops)
	for _, chunk := range s.Chunks() {
		paintShape(gtx, s.shapes[chunk])
	}
	for _, b := range s.bars {
		paintBar(gtx, b)
	}
	plot.Pop()
	return D{Size: size}
}

// rec lays out w into a macro so that it can be measured before placement.
func rec(gtx C, w layout.Widget) (D, op.CallOp) {
	macro := op.Record(gtx.Ops)
	dims := w(gtx)
	return dims, macro.Stop()
}

func (s *Scene) layoutTick(gtx C, th *material.Theme, t chart.Tick) {
	l := material.Body2(th, t.Label)
	l.Color = t.Color
	gtx.Constraints.Min = image.Point{}
	dims, call := rec(gtx, l.Layout)
	stack := op.Offset(image.Point{
		X: int(t.At.X) - dims.Size.X,
		Y: int(t.At.Y) - dims.Size.Y/2,
	}).Push(gtx.Ops)
	call.Add(gtx.Ops)
	stack.Pop()
}

func pt(p chart.Pt) f32.Point {
	return f32.Pt(float32(p.X), float32(p.Y))
}

func toRect(r chart.Rect) image.Rectangle {
	return image.Rect(int(r.Min.X), int(r.Min.Y), int(r.Max.X+0.5), int(r.Max.Y+0.5))
}

func dashes(d []float64) stroke.Dashes {
	if len(d) == 0 {
		return stroke.Dashes{}
	}
	out := make([]float32, len(d))
	for i, v := range d {
		out[i] = float32(v)
	}
	return stroke.Dashes{Dashes: out}
}

func paintSegment(gtx C, seg chart.Segment) {
	var path stroke.Path
	path.Segments = []stroke.Segment{
		stroke.MoveTo(pt(seg.From)),
		stroke.LineTo(pt(seg.To)),
	}
	paint.FillShape(gtx.Ops, seg.Color,
		stroke.Stroke{Path: path, Width: float32(seg.Width), Dashes: dashes(seg.Dashes)}.Op(gtx.Ops),
	)
}

func paintShape(gtx C, sh chart.Shape) {
	if len(sh.Points) < 2 {
		return
	}
	if sh.Closed {
		var p clip.Path
		p.Begin(gtx.Ops)
		p.MoveTo(pt(sh.Points[0]))
		for _, q := range sh.Points[1:] {
			p.LineTo(pt(q))
		}
		p.Close()
		paint.FillShape(gtx.Ops, sh.Fill, clip.Outline{Path: p.End()}.Op())
	}
	if sh.Width <= 0 {
		return
	}
	var path stroke.Path
	path.Segments = make([]stroke.Segment, 0, len(sh.Points))
	path.Segments = append(path.Segments, stroke.MoveTo(pt(sh.Points[0])))
	for _, q := range sh.Points[1:] {
		path.Segments = append(path.Segments, stroke.LineTo(pt(q)))
	}
	paint.FillShape(gtx.Ops, sh.Stroke,
		stroke.Stroke{Path: path, Width: float32(sh.Width), Cap: stroke.RoundCap}.Op(gtx.Ops),
	)
}

func paintBar(gtx C, b chart.BarShape) {
	r := toRect(b.Rect)
	if r.Dx() < 1 {
		r.Max.X = r.Min.X + 1
	}
	if r.Dy() < 1 {
		r.Max.Y = r.Min.Y + 1
	}
	radius := min(int(b.Radius), r.Dx()/2, r.Dy()/2)
	paint.FillShape(gtx.Ops, b.Color, clip.RRect{
		Rect: r,
		NE:   radius,
		NW:   radius,
		SE:   radius,
		SW:   radius,
	}.Op(gtx.Ops))
}
