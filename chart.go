package main

import (
	"fmt"
	"image"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/component"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"git.sr.ht/~whereswaldon/scrollchart/backend"
	"git.sr.ht/~whereswaldon/scrollchart/chart"
	"git.sr.ht/~whereswaldon/scrollchart/config"
	"git.sr.ht/~whereswaldon/scrollchart/giochart"
	"git.sr.ht/~whereswaldon/scrollchart/series"
)

var pauseIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPause)
	return icon
}()

var playIcon = func() *widget.Icon {
	icon, _ := widget.NewIcon(icons.AVPlayArrow)
	return icon
}()

// Viewer displays one series of a trace and keeps the chart in step with
// the trace as it grows. Older points are handed to the chart a page at a
// time as the user scrolls back.
type Viewer struct {
	cfg        config.Config
	invalidate func()
	chart      *giochart.Chart

	trace    backend.Trace
	selected int
	// synced is the number of points of the selected series the chart
	// has been given or can page in.
	synced int
	pager  *backend.Pager
	// Edge requests raised during a frame, answered on the next update.
	past, future bool

	kind     widget.Enum
	pauseBtn widget.Clickable
	rows     []widget.Clickable
	keyTable component.GridState
}

func NewViewer(cfg config.Config, invalidate func()) *Viewer {
	v := &Viewer{
		cfg:        cfg,
		invalidate: invalidate,
		chart:      giochart.New(cfg.Chart, invalidate),
		selected:   -1,
	}
	v.kind.Value = cfg.Kind.String()
	v.chart.SetDelegate(v)
	return v
}

func (v *Viewer) PastDataRequested() {
	v.past = true
	v.invalidate()
}

func (v *Viewer) FutureDataRequested() {
	v.future = true
	v.invalidate()
}

// Sync brings the chart up to date with tr.
func (v *Viewer) Sync(tr backend.Trace) {
	if tr.ID != v.trace.ID {
		v.selected = -1
	}
	v.trace = tr
	if v.selected < 0 {
		if i, ok := tr.Select(v.cfg.Series); ok {
			v.show(i)
		}
		return
	}
	id := tr.IDs[v.selected]
	points := tr.Points[v.selected]
	for _, p := range points[min(v.synced, len(points)):] {
		v.chart.Append(p, id)
	}
	v.synced = len(points)
}

// show replaces the chart contents with the latest points of series i.
func (v *Viewer) show(i int) {
	v.selected = i
	points := v.trace.Points[i]
	pager, latest := backend.NewPager(points, max(v.cfg.PageSize, v.cfg.Chart.InitialPoints))
	v.pager = pager
	v.synced = len(points)
	v.past, v.future = false, false
	v.chart.EndLoading()
	v.chart.ExitRealTimeMode()
	v.chart.SetData(v.chartKind(), series.New(v.trace.IDs[i], v.trace.Names[i], backend.Color(i), latest...))
	if v.cfg.RealTime {
		v.chart.EnterRealTimeMode()
	}
}

func (v *Viewer) chartKind() chart.Kind {
	k, ok := chart.ParseKind(v.kind.Value)
	if !ok {
		return v.cfg.Kind
	}
	return k
}

func (v *Viewer) Update(gtx C) {
	if v.kind.Update(gtx) {
		v.chart.SetKind(v.chartKind())
	}
	if v.pauseBtn.Clicked(gtx) {
		if v.chart.RealTime() {
			v.chart.ExitRealTimeMode()
		} else {
			v.chart.EnterRealTimeMode()
		}
	}
	for len(v.rows) < len(v.trace.IDs) {
		v.rows = append(v.rows, widget.Clickable{})
	}
	for i := range v.rows {
		if v.rows[i].Clicked(gtx) && i != v.selected && i < len(v.trace.IDs) {
			v.show(i)
		}
	}
	v.answerRequests()
}

// answerRequests serves edge requests raised during the previous frame.
func (v *Viewer) answerRequests() {
	if v.past {
		v.past = false
		if page := v.pager.Previous(v.cfg.PageSize); page != nil {
			v.chart.PrependPast(page, v.trace.IDs[v.selected])
		} else {
			v.chart.EndLoading()
		}
	}
	if v.future {
		// Traces only grow at the end, and new rows arrive through Sync.
		v.future = false
		v.chart.EndLoading()
	}
}

func (v *Viewer) Layout(gtx C, th *material.Theme) D {
	v.Update(gtx)
	origConstraints := gtx.Constraints

	// Determine the space occupied by the key.
	macro := op.Record(gtx.Ops)
	gtx.Constraints.Min.X = gtx.Constraints.Max.X
	gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y/3, gtx.Sp(20)*(len(v.trace.IDs)+1)+gtx.Dp(4))
	keyDims := v.layoutKey(gtx, th)
	keyCall := macro.Stop()
	gtx.Constraints = origConstraints

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			return v.layoutControls(gtx, th)
		}),
		layout.Flexed(1, func(gtx C) D {
			gtx.Constraints.Min = gtx.Constraints.Max
			return v.chart.Layout(gtx, th)
		}),
		layout.Rigid(func(gtx C) D {
			keyCall.Add(gtx.Ops)
			return keyDims
		}),
	)
}

func (v *Viewer) layoutControls(gtx C, th *material.Theme) D {
	kinds := []chart.Kind{chart.Line, chart.Area, chart.Bar, chart.Health}
	children := make([]layout.FlexChild, 0, len(kinds)+2)
	children = append(children, layout.Rigid(func(gtx C) D {
		sz := gtx.Dp(32)
		gtx.Constraints = layout.Exact(image.Pt(sz, sz))
		icon := pauseIcon
		if !v.chart.RealTime() {
			icon = playIcon
		}
		return material.Clickable(gtx, &v.pauseBtn, func(gtx C) D {
			return layout.Center.Layout(gtx, func(gtx C) D {
				return icon.Layout(gtx, th.Fg)
			})
		})
	}))
	for _, k := range kinds {
		children = append(children, layout.Rigid(material.RadioButton(th, &v.kind, k.String(), k.String()).Layout))
	}
	children = append(children, layout.Flexed(1, func(gtx C) D {
		l := material.Body2(th, v.status())
		l.Alignment = text.End
		l.MaxLines = 1
		return layout.UniformInset(unit.Dp(4)).Layout(gtx, l.Layout)
	}))
	return component.Surface(th).Layout(gtx, func(gtx C) D {
		gtx.Constraints.Min.X = gtx.Constraints.Max.X
		return layout.Flex{Alignment: layout.Middle}.Layout(gtx, children...)
	})
}

func (v *Viewer) status() string {
	if v.selected < 0 {
		return "Waiting for data"
	}
	s := fmt.Sprintf("%d points, %d older to load", v.trace.Len(v.selected), v.pager.Remaining())
	if v.trace.Tailing {
		s += ", following " + v.trace.Path
	}
	return s
}

func (v *Viewer) layoutKey(gtx C, th *material.Theme) D {
	table := component.Table(th, &v.keyTable)
	table.HScrollbarStyle.Indicator.MinorWidth = 0
	table.HScrollbarStyle.Track.MinorPadding = 0
	colorColWidth := gtx.Dp(50)
	valueColWidth := gtx.Dp(100)
	nameColWidth := gtx.Constraints.Max.X - colorColWidth - 2*valueColWidth - gtx.Dp(table.VScrollbarStyle.Width())
	rowHeight := gtx.Sp(20)
	const (
		colorCol = iota
		seriesNameCol
		pointsCol
		latestCol
		numCols
	)
	return table.Layout(gtx, len(v.trace.IDs), numCols,
		func(axis layout.Axis, index, constraint int) int {
			if axis == layout.Vertical {
				return min(constraint, rowHeight)
			}
			switch index {
			case colorCol:
				return min(colorColWidth, constraint)
			case seriesNameCol:
				return min(max(0, nameColWidth), constraint)
			default:
				return min(valueColWidth, constraint)
			}
		},
		func(gtx C, index int) D {
			var l material.LabelStyle
			switch index {
			case colorCol:
				l = material.Body1(th, "Color")
			case seriesNameCol:
				l = material.Body1(th, "Data Series Name")
				l.Alignment = text.Middle
			case pointsCol:
				l = material.Body1(th, "Points")
				l.Alignment = text.End
			case latestCol:
				l = material.Body1(th, "Latest")
				l.Alignment = text.End
			}
			l.Color = th.ContrastFg
			return layout.Background{}.Layout(gtx,
				func(gtx C) D {
					paint.FillShape(gtx.Ops, th.ContrastBg, clip.Rect{Max: gtx.Constraints.Max}.Op())
					return D{Size: gtx.Constraints.Min}
				}, l.Layout,
			)
		},
		func(gtx C, row, col int) (dims D) {
			defer func() {
				dims.Size = gtx.Constraints.Constrain(dims.Size)
			}()
			if row >= len(v.rows) {
				return D{}
			}
			const unselectedAlpha = 100
			selected := row == v.selected
			return v.rows[row].Layout(gtx, func(gtx C) D {
				return layout.UniformInset(2).Layout(gtx, func(gtx C) D {
					switch col {
					case colorCol:
						return layout.Center.Layout(gtx, func(gtx C) D {
							sideLen := gtx.Dp(10)
							sz := image.Pt(sideLen, sideLen)
							c := backend.Color(row)
							if !selected {
								c.A = unselectedAlpha
							}
							paint.FillShape(gtx.Ops, c, clip.Rect{Max: sz}.Op())
							return D{Size: sz}
						})
					case seriesNameCol:
						l := material.Body2(th, v.trace.Names[row])
						if !selected {
							l.Color.A = unselectedAlpha
						}
						return l.Layout(gtx)
					case pointsCol:
						l := material.Body2(th, fmt.Sprintf("%d", v.trace.Len(row)))
						l.Alignment = text.End
						return l.Layout(gtx)
					default:
						latest := "-"
						if n := v.trace.Len(row); n > 0 {
							latest = fmt.Sprintf("%.2f", v.trace.Points[row][n-1].Y)
						}
						l := material.Body2(th, latest)
						l.Alignment = text.End
						return l.Layout(gtx)
					}
				})
			})
		},
	)
}
