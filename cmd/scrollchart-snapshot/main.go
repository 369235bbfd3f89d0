// Command scrollchart-snapshot renders the initial view of a trace to a PNG
// image without opening a window.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"git.sr.ht/~whereswaldon/scrollchart/backend"
	"git.sr.ht/~whereswaldon/scrollchart/chart"
	"git.sr.ht/~whereswaldon/scrollchart/config"
	"git.sr.ht/~whereswaldon/scrollchart/raster"
)

func main() {
	if err := newCommand(config.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand(v *viper.Viper) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "scrollchart-snapshot [trace.csv]",
		Short: "Render a trace to a PNG image",
		Long: `Render the most recent points of a trace the way scrollchart first shows
them. The trace is read from standard input when no file is given.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed opening trace: %w", err)
				}
				defer f.Close()
				in = f
			}
			out := cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed creating %q: %w", output, err)
				}
				defer func() {
					if err := f.Close(); err != nil {
						log.Printf("failed closing %q: %v", output, err)
					}
				}()
				out = f
			}
			return snapshot(cfg, in, out)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output PNG file")
	if err := config.AddFlags(cmd, v); err != nil {
		log.Fatal(err)
	}
	return cmd
}

func snapshot(cfg config.Config, in io.Reader, out io.Writer) error {
	tr, err := backend.ReadTrace(in)
	if err != nil {
		return err
	}
	i, ok := tr.Select(cfg.Series)
	if !ok {
		return fmt.Errorf("trace has no series %q", cfg.Series)
	}
	canvas, err := raster.New(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	c := chart.New(cfg.Chart, canvas, nil, nil)
	c.SetBounds(float64(cfg.Width), float64(cfg.Height))
	c.SetData(cfg.Kind, tr.Series(i))
	c.Flush()
	log.Printf("rendered %d points of %s", tr.Len(i), tr.Names[i])
	return canvas.EncodePNG(out)
}
