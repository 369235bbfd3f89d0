package backend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cast"
	gochart "github.com/wcharczuk/go-chart/v2"

	"git.sr.ht/~whereswaldon/scrollchart/series"
)

// ErrNoSeries is returned for a trace whose header names no data columns.
var ErrNoSeries = errors.New("trace has no data series")

// Trace is a snapshot of a CSV trace being read.
//
// A trace file starts with a heading row. The first column holds x values;
// a heading ending in "_ns" or "(ns)" marks nanosecond timestamps, which are
// converted to seconds. Every other column is a series, except that columns
// headed "<name> min" and "<name> max" give the value band of series <name>.
//
// Points slices are only ever appended to, so a snapshot stays valid after
// newer ones are produced.
type Trace struct {
	ID     string
	Path   string
	IDs    []series.ID
	Names  []string
	Points [][]series.Point
	// Tailing is set once the reader has caught up with a file that is
	// being watched for more rows.
	Tailing bool
	Err     error
}

// Len returns the number of points of series i.
func (t Trace) Len(i int) int {
	if i < 0 || i >= len(t.Points) {
		return 0
	}
	return len(t.Points[i])
}

// Index returns the position of the series with the given id, or -1.
func (t Trace) Index(id series.ID) int {
	return slices.Index(t.IDs, id)
}

// Color returns the display color of series i.
func Color(i int) color.NRGBA {
	c := gochart.GetDefaultColor(i)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Series returns series i as a chart series with its own copy of the
// points, or nil if there is no such series.
func (t Trace) Series(i int) *series.Series {
	if i < 0 || i >= len(t.IDs) {
		return nil
	}
	return series.New(t.IDs[i], t.Names[i], Color(i), slices.Clone(t.Points[i])...)
}

// Select returns the index of the series with the given id, or of the first
// series when id is empty.
func (t Trace) Select(id series.ID) (int, bool) {
	if id == "" {
		return 0, len(t.IDs) > 0
	}
	i := t.Index(id)
	return i, i >= 0
}

func (t Trace) snapshot() Trace {
	t.Points = slices.Clone(t.Points)
	return t
}

type role uint8

const (
	roleValue role = iota
	roleMin
	roleMax
)

type column struct {
	series int
	role   role
}

// header maps the columns of a trace onto its series.
type header struct {
	// nanos is set when the x column holds Unix nanosecond timestamps.
	nanos   bool
	ids     []series.ID
	names   []string
	columns []column
}

// seriesID derives an id from a heading by dropping any parenthesised unit.
func seriesID(heading string) series.ID {
	if i := strings.Index(heading, "("); i > 0 {
		heading = heading[:i]
	}
	return series.ID(strings.TrimSpace(heading))
}

func parseHeader(headings []string) (header, error) {
	var h header
	if len(headings) < 2 {
		return h, ErrNoSeries
	}
	x := strings.TrimSpace(headings[0])
	if strings.HasSuffix(x, "_ns") || strings.HasSuffix(x, "(ns)") {
		h.nanos = true
	}
	h.columns = make([]column, len(headings)-1)
	bands := map[int]series.ID{}
	for i, heading := range headings[1:] {
		heading = strings.TrimSpace(heading)
		h.columns[i] = column{series: -1}
		if heading == "" {
			continue
		}
		if base, ok := strings.CutSuffix(heading, " min"); ok {
			h.columns[i].role = roleMin
			bands[i] = seriesID(base)
			continue
		}
		if base, ok := strings.CutSuffix(heading, " max"); ok {
			h.columns[i].role = roleMax
			bands[i] = seriesID(base)
			continue
		}
		h.columns[i].series = len(h.ids)
		h.ids = append(h.ids, seriesID(heading))
		h.names = append(h.names, heading)
	}
	if len(h.ids) == 0 {
		return h, ErrNoSeries
	}
	for i, id := range bands {
		s := slices.Index(h.ids, id)
		if s < 0 {
			log.Printf("ignoring band column %q with no matching series", headings[i+1])
			continue
		}
		h.columns[i].series = s
	}
	return h, nil
}

type cell struct {
	y, lo, hi          float64
	hasY, hasLo, hasHi bool
}

// x parses an x cell into a constructor for that row's points.
func (h header) x(raw string) (func(cell) series.Point, error) {
	if !h.nanos {
		x, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, err
		}
		return func(c cell) series.Point { return pointAt(series.Float{}, x, c) }, nil
	}
	ns, err := cast.ToInt64E(raw)
	if err != nil {
		f, ferr := cast.ToFloat64E(raw)
		if ferr != nil {
			return nil, err
		}
		ns = int64(f)
	}
	ts := time.Unix(0, ns)
	return func(c cell) series.Point { return pointAt(series.Time{}, ts, c) }, nil
}

func pointAt[T any](d series.Domain[T], x T, c cell) series.Point {
	if c.hasLo && c.hasHi {
		return series.BandAt(d, x, c.y, min(c.lo, c.hi), max(c.lo, c.hi))
	}
	return series.At(d, x, c.y)
}

// apply parses one record and appends its points to t. Cells that fail to
// parse are logged and skipped.
func (h header) apply(t *Trace, rec []string) {
	if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
		return
	}
	point, err := h.x(strings.TrimSpace(rec[0]))
	if err != nil {
		log.Printf("failed parsing x value %q: %v", rec[0], err)
		return
	}

	cells := make([]cell, len(h.ids))
	for i, raw := range rec[1:] {
		if i >= len(h.columns) {
			break
		}
		col := h.columns[i]
		raw = strings.TrimSpace(raw)
		if col.series < 0 || raw == "" {
			// Skip null cells.
			continue
		}
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			log.Printf("failed parsing data[%d]=%q: %v", i+1, raw, err)
			continue
		}
		c := &cells[col.series]
		switch col.role {
		case roleValue:
			c.y, c.hasY = v, true
		case roleMin:
			c.lo, c.hasLo = v, true
		case roleMax:
			c.hi, c.hasHi = v, true
		}
	}
	for s, c := range cells {
		if !c.hasY {
			continue
		}
		p := point(c)
		if n := len(t.Points[s]); n > 0 && t.Points[s][n-1].X > p.X {
			log.Printf("dropping out of order sample at x=%v in %q", p.X, h.names[s])
			continue
		}
		t.Points[s] = append(t.Points[s], p)
	}
}

// traceReader parses a trace incrementally.
type traceReader struct {
	csv    *csv.Reader
	header header
	trace  Trace
}

// newTraceReader reads the headings of a trace.
func newTraceReader(r io.Reader) (*traceReader, error) {
	csvReader := csv.NewReader(r)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1
	headings, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed reading trace headings: %w", err)
	}
	h, err := parseHeader(headings)
	if err != nil {
		return nil, err
	}
	return &traceReader{
		csv:    csvReader,
		header: h,
		trace: Trace{
			IDs:    h.ids,
			Names:  h.names,
			Points: make([][]series.Point, len(h.ids)),
		},
	}, nil
}

// next reads one row. It returns io.EOF once every complete line has been
// consumed; calling it again later picks up rows written since.
func (tr *traceReader) next() error {
	rec, err := tr.csv.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			log.Printf("skipping malformed trace row: %v", err)
			return nil
		}
		return err
	}
	tr.header.apply(&tr.trace, rec)
	return nil
}

// ReadTrace reads a complete trace from r.
func ReadTrace(r io.Reader) (Trace, error) {
	tr, err := newTraceReader(r)
	if err != nil {
		return Trace{}, err
	}
	for {
		err := tr.next()
		if errors.Is(err, io.EOF) {
			return tr.trace.snapshot(), nil
		}
		if err != nil {
			return tr.trace.snapshot(), fmt.Errorf("failed reading trace: %w", err)
		}
	}
}
