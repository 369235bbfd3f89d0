// Package viewport converts between data space and screen space for a chart
// that can be zoomed and scrolled horizontally.
//
// Screen x grows to the right from the left edge of the plot; screen y grows
// downward from its top edge. The scrollable content is Width*Zoom pixels wide
// and is shifted left by a non-positive Offset.
package viewport

// Mode is the interaction state of a viewport.
type Mode uint8

const (
	Idle Mode = iota
	Panning
	Pinching
	Decelerating
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case Pinching:
		return "pinching"
	case Decelerating:
		return "decelerating"
	default:
		return "unknown"
	}
}

// State is the mutable view state of a chart. It is owned by the chart and
// changed only through the transitions in package motion.
type State struct {
	Zoom   float64
	Offset float64
	// Velocity is the horizontal scroll speed in pixels per second while
	// decelerating.
	Velocity float64
	Mode     Mode
	// Following reports whether the view tracks the most recent data.
	Following bool
}

// Dragging reports whether a gesture is currently in progress.
func (s State) Dragging() bool {
	return s.Mode == Panning || s.Mode == Pinching
}

// OffsetBounds returns the permitted scroll offsets for content of the given
// width at the given zoom. The content may only move left of zero, and never
// so far that space beyond its right edge is revealed.
func OffsetBounds(width, zoom float64) (lo, hi float64) {
	return min(0, width*(1-zoom)), 0
}

// ClampOffset limits offset to OffsetBounds.
func ClampOffset(offset, width, zoom float64) float64 {
	lo, hi := OffsetBounds(width, zoom)
	return max(lo, min(hi, offset))
}

// Transform maps between data and screen coordinates for one frame.
type Transform struct {
	Width, Height float64
	Zoom, Offset  float64
	// EdgePadding is reserved at both ends of the content so that bars
	// centred on the first and last points are not cut in half.
	EdgePadding float64
	Range       DataRange
}

func (t Transform) effectiveWidth() float64 {
	return t.Width*t.Zoom - 2*t.EdgePadding
}

// DataXToScreen returns the screen x of data value x.
func (t Transform) DataXToScreen(x float64) float64 {
	ew := t.effectiveWidth()
	if ew <= 0 {
		return t.Width*t.Zoom/2 + t.Offset
	}
	span := t.Range.XSpan()
	if span <= 0 {
		return t.EdgePadding + ew/2 + t.Offset
	}
	ratio := (x - t.Range.XMin) / span
	return t.EdgePadding + ratio*ew + t.Offset
}

// ScreenToDataX is the inverse of DataXToScreen.
func (t Transform) ScreenToDataX(s float64) float64 {
	ew := t.effectiveWidth()
	if ew <= 0 {
		return t.Range.XMin
	}
	ratio := (s - t.Offset - t.EdgePadding) / ew
	return ratio*t.Range.XSpan() + t.Range.XMin
}

// DataYToScreen returns the screen y of data value y.
func (t Transform) DataYToScreen(y float64) float64 {
	span := t.Range.YSpan()
	if span <= 0 {
		return t.Height / 2
	}
	return t.Height - (y-t.Range.YMin)/span*t.Height
}

// ScreenYToData is the inverse of DataYToScreen.
func (t Transform) ScreenYToData(s float64) float64 {
	span := t.Range.YSpan()
	if span <= 0 || t.Height <= 0 {
		return t.Range.YMin
	}
	return (t.Height-s)/t.Height*span + t.Range.YMin
}

// VisibleX returns the data x values at the left and right edges of the plot.
func (t Transform) VisibleX() (xMin, xMax float64) {
	return t.ScreenToDataX(0), t.ScreenToDataX(t.Width)
}

// FullyVisible reports whether the whole data range fits on screen.
func (t Transform) FullyVisible() bool {
	total := t.Range.XSpan()
	if !t.Range.Valid || total <= 0 {
		return true
	}
	xMin, xMax := t.VisibleX()
	return xMax-xMin >= total-1e-9
}

// WithView returns a copy of t at the given zoom and offset.
func (t Transform) WithView(zoom, offset float64) Transform {
	t.Zoom = zoom
	t.Offset = offset
	return t
}
