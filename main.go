// Command scrollchart explores a CSV trace in a scrollable, zoomable chart.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/spf13/cobra"

	"git.sr.ht/~whereswaldon/scrollchart/backend"
	"git.sr.ht/~whereswaldon/scrollchart/config"
)

func main() {
	v := config.New()
	cmd := &cobra.Command{
		Use:   "scrollchart [trace.csv | -]",
		Short: "Explore a CSV trace in a scrollable chart",
		Long: `Explore a CSV trace in a scrollable chart.

 scrollchart trace.csv

OR

 scrollchart-gen | scrollchart -

Files are followed as they grow unless --follow=false is given.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			var src io.ReadCloser
			if len(args) == 1 {
				if src, err = open(args[0]); err != nil {
					return err
				}
			}
			go func() {
				if err := loop(cfg, src); err != nil {
					log.Fatal(err)
				}
				os.Exit(0)
			}()
			app.Main()
			return nil
		},
	}
	if err := config.AddFlags(cmd, v); err != nil {
		log.Fatal(err)
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func open(name string) (io.ReadCloser, error) {
	if name == "-" {
		// Pipes are read until closed rather than watched.
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed opening trace: %w", err)
	}
	return f, nil
}

func loop(cfg config.Config, src io.ReadCloser) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := app.NewWindow(app.Title("Scroll Chart"))
	bundle := backend.NewBundle(stream.NewMutator(ctx, time.Second))
	ws := backend.NewWindowState(ctx, bundle, w)
	expl := explorer.NewExplorer(w)
	ui := NewUI(ws, expl, cfg, w.Invalidate)
	if src != nil {
		bundle.Datasource.Load(src, cfg.Follow)
	}

	var ops op.Ops
	for {
		ev := w.NextEvent()
		expl.ListenEvents(ev)
		switch ev := ev.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, ev)
			ui.Layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}
