// Command scrollchart-gen writes a synthetic CSV trace that scrollchart can
// display and follow.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"git.sr.ht/~whereswaldon/scrollchart/series"
	"git.sr.ht/~whereswaldon/scrollchart/synth"
)

type options struct {
	interval time.Duration
	output   string
	count    int
	seed     uint64
}

func main() {
	var opts options
	cmd := &cobra.Command{
		Use:   "scrollchart-gen",
		Short: "Generate a synthetic trace",
		Long: `Generate a CSV trace of a heart rate, a stock price and a trading volume.

 scrollchart-gen > file

OR

 scrollchart-gen --count 0 | scrollchart
`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	f := cmd.Flags()
	f.DurationVar(&opts.interval, "sample-interval", 100*time.Millisecond, "Interval between samples; zero writes as fast as possible")
	f.StringVarP(&opts.output, "output", "o", "-", "Output file for CSV trace data")
	f.IntVarP(&opts.count, "count", "n", 0, "Number of samples to write; zero runs until interrupted")
	f.Uint64Var(&opts.seed, "seed", uint64(time.Now().UnixNano()), "Random seed")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func sources(seed uint64) []synth.Source {
	return []synth.Source{
		synth.NewHeartRate(seed),
		synth.NewRandomWalk(series.StockPrice, 100, 0.002, seed),
		synth.NewSine(series.Volume, 4000, 6000, 600, 800, seed),
	}
}

func run(opts options) error {
	var output io.WriteCloser
	if opts.output == "-" {
		output = os.Stdout
	} else {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed opening output file %q: %w", opts.output, err)
		}
		output = f
	}
	defer func() {
		if err := output.Close(); err != nil {
			log.Printf("failed closing output: %v", err)
		}
	}()

	srcs := sources(opts.seed)
	if err := writeHeader(output, srcs); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)

	var tick <-chan time.Time
	if opts.interval > 0 {
		ticker := time.NewTicker(opts.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	now := time.Now()
	for n := 0; opts.count == 0 || n < opts.count; n++ {
		if tick != nil {
			select {
			case <-sigChan:
				// We've gotten an interrupt; shut down.
				return nil
			case now = <-tick:
			}
		} else {
			select {
			case <-sigChan:
				return nil
			default:
			}
			now = now.Add(100 * time.Millisecond)
		}
		if err := writeRow(output, now, srcs); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer, srcs []synth.Source) error {
	headings := []string{"timestamp_ns"}
	for _, s := range srcs {
		headings = append(headings, synth.Headings(s)...)
	}
	if _, err := fmt.Fprintln(w, strings.Join(headings, ", ")); err != nil {
		return fmt.Errorf("failed writing header: %w", err)
	}
	return nil
}

func writeRow(w io.Writer, t time.Time, srcs []synth.Source) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", t.UnixNano())
	for _, s := range srcs {
		for _, v := range synth.Cells(s, s.Next()) {
			fmt.Fprintf(&b, ", %g", v)
		}
	}
	if _, err := fmt.Fprintln(w, b.String()); err != nil {
		return fmt.Errorf("failed writing sample: %w", err)
	}
	return nil
}
