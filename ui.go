package main

import (
	"image"
	"image/color"
	"log"
	"sync/atomic"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/text"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"

	"git.sr.ht/~whereswaldon/scrollchart/backend"
	"git.sr.ht/~whereswaldon/scrollchart/config"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

// UI is responsible for holding the state of and drawing the top-level UI.
type UI struct {
	ws   backend.WindowState
	expl *explorer.Explorer
	cfg  config.Config

	viewer      *Viewer
	explorerBtn widget.Clickable
	choosing    atomic.Bool
	loadErr     string

	th          *material.Theme
	traceStream *stream.Stream[backend.Trace]
	trace       backend.Trace
}

func NewUI(ws backend.WindowState, expl *explorer.Explorer, cfg config.Config, invalidate func()) *UI {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()), text.NoSystemFonts())
	return &UI{
		ws:          ws,
		th:          th,
		expl:        expl,
		cfg:         cfg,
		viewer:      NewViewer(cfg, invalidate),
		traceStream: stream.New(ws.Controller, ws.Bundle.Datasource.Latest),
	}
}

// Update the state of the UI from user input and the latest trace.
func (ui *UI) Update(gtx C) {
	ui.traceStream.ReadInto(gtx, &ui.trace, backend.Trace{})
	if ui.trace.Err != nil {
		ui.loadErr = ui.trace.Err.Error()
	}
	if len(ui.trace.IDs) > 0 {
		ui.viewer.Sync(ui.trace)
	}
	if !ui.choosing.Load() && ui.explorerBtn.Clicked(gtx) {
		ui.choosing.Store(true)
		go func() {
			// ChooseFile blocks until the platform dialog closes.
			if _, err := ui.ws.Bundle.Datasource.LoadFromFile(ui.expl, ui.cfg.Follow); err != nil {
				log.Printf("failed loading trace: %v", err)
			}
			ui.choosing.Store(false)
		}()
	}
}

func (ui *UI) layoutStartScreen(gtx C) D {
	l := material.Body1(ui.th, "No data yet.")
	return layout.Flex{
		Axis:      layout.Vertical,
		Alignment: layout.Middle,
		Spacing:   layout.SpaceAround,
	}.Layout(gtx,
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			return l.Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			if ui.choosing.Load() {
				gtx = gtx.Disabled()
			}
			return material.Button(ui.th, &ui.explorerBtn, "Open Existing Trace").Layout(gtx)
		}),
		layout.Rigid(func(gtx C) D {
			gtx.Constraints.Min = image.Point{}
			l := material.Body2(ui.th, ui.loadErr)
			l.Color = color.NRGBA{R: 150, A: 255}
			return l.Layout(gtx)
		}),
	)
}

// Layout the UI into the provided context.
func (ui *UI) Layout(gtx C) D {
	ui.Update(gtx)
	if len(ui.trace.IDs) > 0 {
		return ui.viewer.Layout(gtx, ui.th)
	}
	return ui.layoutStartScreen(gtx)
}
