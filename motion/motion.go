// Package motion implements the interaction state machine of a chart
// viewport: panning with inertia, anchored pinch zoom and the edge checks that
// ask for more data.
//
// Every transition is a pure function from one viewport.State to the next so
// that it can be driven by any gesture source and tested without a clock.
package motion

import (
	"math"

	"git.sr.ht/~whereswaldon/scrollchart/viewport"
)

// Config holds the tunable constants of the controller.
type Config struct {
	MinZoom, MaxZoom float64
	// Decay multiplies the velocity on every deceleration tick.
	Decay float64
	// FlingVelocity is the release speed in pixels per second above which a
	// pan continues inertially.
	FlingVelocity float64
	// StopVelocity is the speed below which deceleration ends.
	StopVelocity float64
}

// DefaultConfig returns the standard constants.
func DefaultConfig() Config {
	return Config{
		MinZoom:       1,
		MaxZoom:       15,
		Decay:         0.92,
		FlingVelocity: 10,
		StopVelocity:  1,
	}
}

// Geometry builds the transform a chart would use at a candidate zoom and
// offset. Implementations may vary edge padding with zoom.
type Geometry interface {
	Transform(zoom, offset float64) viewport.Transform
}

// GeometryFunc adapts a function to Geometry.
type GeometryFunc func(zoom, offset float64) viewport.Transform

func (f GeometryFunc) Transform(zoom, offset float64) viewport.Transform {
	return f(zoom, offset)
}

// Controller applies Config to viewport state transitions.
type Controller struct {
	Config Config
}

// New returns a controller using cfg.
func New(cfg Config) Controller {
	return Controller{Config: cfg}
}

// ClampZoom limits zoom to the configured range.
func (c Controller) ClampZoom(zoom float64) float64 {
	return max(c.Config.MinZoom, min(c.Config.MaxZoom, zoom))
}

// atLeftBound reports whether the content is scrolled as far left as it
// goes, which is where the newest data is visible.
func atLeftBound(s viewport.State, width float64) bool {
	lo, _ := viewport.OffsetBounds(width, s.Zoom)
	return s.Offset <= lo
}

// PanBegin starts a pan, stopping any deceleration in progress.
func (c Controller) PanBegin(s viewport.State) viewport.State {
	s.Mode = viewport.Panning
	s.Velocity = 0
	s.Following = false
	return s
}

// PanChange moves the content by dx pixels.
func (c Controller) PanChange(s viewport.State, dx, width float64) viewport.State {
	s.Mode = viewport.Panning
	s.Following = false
	s.Offset = viewport.ClampOffset(s.Offset+dx, width, s.Zoom)
	return s
}

// PanEnd finishes a pan released at velocity pixels per second. Fast
// releases continue as a deceleration.
func (c Controller) PanEnd(s viewport.State, velocity, width float64) viewport.State {
	s.Mode = viewport.Idle
	s.Velocity = 0
	if math.Abs(velocity) > c.Config.FlingVelocity {
		s.Mode = viewport.Decelerating
		s.Velocity = velocity
		return s
	}
	if atLeftBound(s, width) {
		s.Following = true
	}
	return s
}

// PinchBegin starts a pinch, stopping any deceleration in progress.
func (c Controller) PinchBegin(s viewport.State) viewport.State {
	s.Mode = viewport.Pinching
	s.Velocity = 0
	s.Following = false
	return s
}

// PinchChange multiplies the zoom by scale while keeping the data under the
// screen position focalX in place.
func (c Controller) PinchChange(s viewport.State, g Geometry, scale, focalX float64) viewport.State {
	s.Mode = viewport.Pinching
	s.Following = false
	before := g.Transform(s.Zoom, s.Offset)
	anchor := before.ScreenToDataX(focalX)

	zoom := c.ClampZoom(s.Zoom * scale)
	after := g.Transform(zoom, s.Offset)
	offset := s.Offset - (after.DataXToScreen(anchor) - focalX)

	s.Zoom = zoom
	s.Offset = viewport.ClampOffset(offset, before.Width, zoom)
	return s
}

// PinchEnd finishes a pinch. There is no inertial zoom.
func (c Controller) PinchEnd(s viewport.State, width float64) viewport.State {
	s.Mode = viewport.Idle
	if atLeftBound(s, width) {
		s.Following = true
	}
	return s
}

// Decelerate advances an inertial scroll by dt seconds. The velocity decays
// once per call; the scroll ends at either bound or once it is slow enough.
func (c Controller) Decelerate(s viewport.State, dt, width float64) viewport.State {
	if s.Mode != viewport.Decelerating {
		return s
	}
	s.Offset += s.Velocity * dt
	s.Velocity *= c.Config.Decay

	lo, hi := viewport.OffsetBounds(width, s.Zoom)
	if s.Offset >= hi || s.Offset <= lo {
		s.Offset = max(lo, min(hi, s.Offset))
		s.Velocity = 0
		s.Mode = viewport.Idle
		if s.Offset <= lo {
			s.Following = true
		}
	}
	if math.Abs(s.Velocity) < c.Config.StopVelocity {
		s.Velocity = 0
		s.Mode = viewport.Idle
	}
	return s
}

// Edges is a pair of flags for the past (left) and future (right) ends of
// the data.
type Edges struct {
	Past, Future bool
}

// LoadStrategy selects how edge loading is triggered.
type LoadStrategy struct {
	// Automatic enables requests when the view scrolls near an edge.
	Automatic bool
	// Threshold is the fraction of the plot width from an edge at which a
	// request is made.
	Threshold float64
}

// DefaultLoadStrategy requests data within 40% of a width from either edge.
func DefaultLoadStrategy() LoadStrategy {
	return LoadStrategy{Automatic: true, Threshold: 0.4}
}

// EdgeRequests returns the edges for which new data should be requested.
// allowed gates each edge and loading suppresses edges that already have a
// request outstanding. Nothing is requested when the whole range is visible.
func (c Controller) EdgeRequests(t viewport.Transform, strategy LoadStrategy, allowed, loading Edges) Edges {
	var req Edges
	if !strategy.Automatic || t.FullyVisible() {
		return req
	}
	threshold := t.Width * strategy.Threshold
	if allowed.Past && !loading.Past && t.Offset > -threshold {
		req.Past = true
	}
	if allowed.Future && !loading.Future && t.Offset < t.Width*(1-t.Zoom)+threshold {
		req.Future = true
	}
	return req
}
