package giochart

import (
	"image"
	"time"

	"gioui.org/f32"
	"gioui.org/gesture"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/widget/material"

	"git.sr.ht/~whereswaldon/scrollchart/chart"
)

// maxFrameStep caps the time step fed to deceleration after an idle period.
const maxFrameStep = 0.1

// frameHook wakes the window while the chart has frames to run.
type frameHook struct {
	invalidate func()
	running    bool
}

func (h *frameHook) Start() {
	h.running = true
	if h.invalidate != nil {
		h.invalidate()
	}
}

func (h *frameHook) Stop() {
	h.running = false
}

type drag struct {
	active bool
	id     pointer.ID
	x      float32
	vel    velocityTracker
}

// Chart is an interactive chart widget. Dragging pans, the scroll wheel
// zooms around the pointer.
type Chart struct {
	*chart.Chart
	Scene *Scene

	hook      *frameHook
	zoom      gesture.Scroll
	drag      drag
	hover     f32.Point
	pinching  bool
	lastFrame time.Time
}

// New returns a widget for a chart configured by cfg. invalidate must be
// safe to call from any goroutine; app.Window.Invalidate is.
func New(cfg chart.Config, invalidate func()) *Chart {
	scene := NewScene()
	hook := &frameHook{invalidate: invalidate}
	return &Chart{
		Chart: chart.New(cfg, scene, hook, invalidate),
		Scene: scene,
		hook:  hook,
	}
}

// Update processes input and runs a chart frame.
func (c *Chart) Update(gtx C) {
	size := gtx.Constraints.Max
	c.SetBounds(float64(size.X), float64(size.Y))

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: c,
			Kinds:  pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel | pointer.Enter | pointer.Move,
		})
		if !ok {
			break
		}
		if e, ok := ev.(pointer.Event); ok {
			c.pointer(e)
		}
	}

	dist := c.zoom.Update(gtx.Metric, gtx.Source, gtx.Now, gesture.Vertical, image.Rect(0, -1e6, 0, 1e6))
	switch {
	case dist != 0 && size.Y > 0:
		if !c.pinching {
			c.pinching = true
			c.PinchBegin()
		}
		scale := max(0.1, 1-float64(dist)/float64(size.Y))
		c.PinchChange(scale, chart.Pt{X: float64(c.hover.X), Y: float64(c.hover.Y)})
	case c.pinching:
		c.pinching = false
		c.PinchEnd()
	}

	dt := 1.0 / 60
	if !c.lastFrame.IsZero() {
		dt = min(maxFrameStep, gtx.Now.Sub(c.lastFrame).Seconds())
	}
	c.lastFrame = gtx.Now
	c.Frame(dt)
	if c.wantsFrame() {
		gtx.Execute(op.InvalidateCmd{})
	}
}

// wantsFrame reports whether the window should redraw after this frame.
func (c *Chart) wantsFrame() bool {
	return c.hook.running || c.pinching
}

func (c *Chart) pointer(e pointer.Event) {
	switch e.Kind {
	case pointer.Enter, pointer.Move:
		c.hover = e.Position
	case pointer.Press:
		if c.drag.active {
			return
		}
		c.drag.active = true
		c.drag.id = e.PointerID
		c.drag.x = e.Position.X
		c.drag.vel.reset()
		c.drag.vel.add(e.Time, e.Position.X)
		c.PanBegin()
	case pointer.Drag:
		if !c.drag.active || e.PointerID != c.drag.id {
			return
		}
		dx := e.Position.X - c.drag.x
		c.drag.x = e.Position.X
		c.hover = e.Position
		c.drag.vel.add(e.Time, e.Position.X)
		c.PanChange(float64(dx))
	case pointer.Release:
		if !c.drag.active || e.PointerID != c.drag.id {
			return
		}
		c.drag.vel.add(e.Time, e.Position.X)
		c.drag.active = false
		c.PanEnd(c.drag.vel.velocity())
	case pointer.Cancel:
		if !c.drag.active {
			return
		}
		c.drag.active = false
		c.PanEnd(0)
	}
}

// Layout handles input, then paints the chart over the full constraints.
func (c *Chart) Layout(gtx C, th *material.Theme) D {
	c.Update(gtx)
	dims := c.Scene.Layout(gtx, th)
	area := clip.Rect{Max: dims.Size}.Push(gtx.Ops)
	c.zoom.Add(gtx.Ops)
	event.Op(gtx.Ops, c)
	area.Pop()
	return dims
}
