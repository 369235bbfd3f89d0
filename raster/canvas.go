// Package raster paints a chart.Chart into an in-memory image, for snapshots
// and tests that run without a window.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"maps"
	"math"
	"slices"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"git.sr.ht/~whereswaldon/scrollchart/chart"
)

// Canvas is a retained chart.Renderer backed by an image.RGBA.
type Canvas struct {
	Background color.Color

	img    *image.RGBA
	grid   chart.Grid
	shapes map[int]chart.Shape
	bars   []chart.BarShape
}

var (
	_ chart.Renderer = (*Canvas)(nil)
	_ chart.Retirer  = (*Canvas)(nil)
)

// New returns a canvas of the given size in pixels.
func New(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	return &Canvas{
		Background: color.Black,
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		shapes:     make(map[int]chart.Shape),
	}, nil
}

func (c *Canvas) Grid(g chart.Grid) { c.grid = g }
func (c *Canvas) Shape(s chart.Shape) { c.shapes[s.Chunk] = s }
func (c *Canvas) Bars(bars []chart.BarShape) { c.bars = bars }
func (c *Canvas) Retire(chunk int) { delete(c.shapes, chunk) }
func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

// Render paints everything retained so far and returns the image. The image
// is reused by later calls.
func (c *Canvas) Render() (*image.RGBA, error) {
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(c.Background), image.Point{}, draw.Src)

	gc, err := drawing.NewRasterGraphicContext(c.img)
	if err != nil {
		return nil, fmt.Errorf("failed creating graphic context: %w", err)
	}
	for _, l := range c.grid.Lines {
		strokeSegment(gc, l)
	}
	c.drawTicks()

	// Content is painted on its own layer and copied through the plot rect.
	layer := image.NewRGBA(c.img.Bounds())
	lgc, err := drawing.NewRasterGraphicContext(layer)
	if err != nil {
		return nil, fmt.Errorf("failed creating graphic context: %w", err)
	}
	for _, chunk := range slices.Sorted(maps.Keys(c.shapes)) {
		drawShape(lgc, c.shapes[chunk])
	}
	for _, b := range c.bars {
		fillBar(lgc, b)
	}
	plot := image.Rect(
		int(math.Floor(c.grid.Plot.Min.X)), int(math.Floor(c.grid.Plot.Min.Y)),
		int(math.Ceil(c.grid.Plot.Max.X)), int(math.Ceil(c.grid.Plot.Max.Y)),
	)
	draw.Draw(c.img, plot, layer, plot.Min, draw.Over)
	return c.img, nil
}

// EncodePNG renders the canvas and writes it to w.
func (c *Canvas) EncodePNG(w io.Writer) error {
	img, err := c.Render()
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed encoding png: %w", err)
	}
	return nil
}

func (c *Canvas) drawTicks() {
	face := basicfont.Face7x13
	ascent := face.Metrics().Ascent.Ceil()
	for _, t := range c.grid.Ticks {
		dr := &font.Drawer{Dst: c.img, Src: image.NewUniform(t.Color), Face: face}
		w := dr.MeasureString(t.Label).Ceil()
		x := int(t.At.X) - w
		y := int(t.At.Y) + ascent/2
		dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
		dr.DrawString(t.Label)
	}
}

func strokeSegment(gc *drawing.RasterGraphicContext, seg chart.Segment) {
	gc.SetStrokeColor(seg.Color)
	gc.SetLineWidth(seg.Width)
	gc.SetLineCap(drawing.ButtCap)
	gc.SetLineDash(seg.Dashes, 0)
	gc.BeginPath()
	gc.MoveTo(seg.From.X, seg.From.Y)
	gc.LineTo(seg.To.X, seg.To.Y)
	gc.Stroke()
	gc.SetLineDash(nil, 0)
}

func drawShape(gc *drawing.RasterGraphicContext, s chart.Shape) {
	if len(s.Points) < 2 {
		return
	}
	if s.Closed {
		gc.SetFillColor(s.Fill)
		gc.SetFillRule(drawing.FillRuleWinding)
		gc.BeginPath()
		gc.MoveTo(s.Points[0].X, s.Points[0].Y)
		for _, p := range s.Points[1:] {
			gc.LineTo(p.X, p.Y)
		}
		gc.Close()
		gc.Fill()
	}
	if s.Width <= 0 {
		return
	}
	gc.SetStrokeColor(s.Stroke)
	gc.SetLineWidth(s.Width)
	gc.SetLineCap(drawing.RoundCap)
	gc.SetLineJoin(drawing.RoundJoin)
	gc.BeginPath()
	gc.MoveTo(s.Points[0].X, s.Points[0].Y)
	for _, p := range s.Points[1:] {
		gc.LineTo(p.X, p.Y)
	}
	gc.Stroke()
}

func fillBar(gc *drawing.RasterGraphicContext, b chart.BarShape) {
	x0, y0, x1, y1 := b.Rect.Min.X, b.Rect.Min.Y, b.Rect.Max.X, b.Rect.Max.Y
	r := min(b.Radius, (x1-x0)/2, (y1-y0)/2)
	gc.SetFillColor(b.Color)
	gc.SetFillRule(drawing.FillRuleWinding)
	gc.BeginPath()
	if r <= 0 {
		gc.MoveTo(x0, y0)
		gc.LineTo(x1, y0)
		gc.LineTo(x1, y1)
		gc.LineTo(x0, y1)
	} else {
		const quarter = math.Pi / 2
		gc.ArcTo(x0+r, y0+r, r, r, math.Pi, quarter)
		gc.ArcTo(x1-r, y0+r, r, r, -quarter, quarter)
		gc.ArcTo(x1-r, y1-r, r, r, 0, quarter)
		gc.ArcTo(x0+r, y1-r, r, r, quarter, quarter)
	}
	gc.Close()
	gc.Fill()
}
