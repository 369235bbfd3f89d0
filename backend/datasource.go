package backend

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"gioui.org/x/explorer"
	"git.sr.ht/~gioverse/skel/stream"
	"github.com/fsnotify/fsnotify"
)

// A snapshot is sent after emitEvery rows, or for the first row read more
// than emitInterval after the previous snapshot. The latter keeps slow
// streams such as pipes flowing.
const (
	emitEvery    = 512
	emitInterval = 100 * time.Millisecond
)

// Datasource loads traces in the background and streams snapshots of them to
// the UI.
type Datasource struct {
	pool *stream.MutationPool[string, Trace]
}

func NewDatasource(mutator *stream.Mutator) *Datasource {
	return &Datasource{
		pool: stream.NewMutationPool[string, Trace](mutator),
	}
}

func generateTraceID() string {
	return strings.Replace(time.Now().UTC().Format("20060102150405.000000000"), ".", "", 1)
}

// TraceStream streams the trace with the given id.
func (d *Datasource) TraceStream(ctx context.Context, id string) <-chan Trace {
	subCtx, cancel := context.WithCancel(ctx)
	m := (<-d.pool.Stream(subCtx))[id]
	cancel()
	if m == nil {
		out := make(chan Trace)
		close(out)
		return out
	}
	return m.Stream(ctx)
}

// Latest streams whichever trace was loaded most recently, switching when a
// newer one is loaded.
func (d *Datasource) Latest(ctx context.Context) <-chan Trace {
	return stream.Multiplex(d.pool.Stream(ctx), func(ctx context.Context, current string, mutations map[string]*stream.Mutation[Trace]) (<-chan Trace, string) {
		latest := ""
		for id := range mutations {
			latest = max(latest, id)
		}
		if latest == "" || latest == current {
			return nil, current
		}
		return mutations[latest].Stream(ctx), latest
	})
}

// LoadFromFile asks the user for a trace and loads it. Files keep being
// followed for new rows when follow is set.
func (d *Datasource) LoadFromFile(expl *explorer.Explorer, follow bool) (string, error) {
	file, err := expl.ChooseFile()
	if err != nil {
		return "", err
	}
	return d.Load(file, follow), nil
}

// Load reads a trace from src in the background and returns its id. src is
// closed once reading stops.
func (d *Datasource) Load(src io.ReadCloser, follow bool) string {
	id := generateTraceID()
	d.LoadWithID(id, src, follow)
	return id
}

func (d *Datasource) LoadWithID(id string, src io.ReadCloser, follow bool) *stream.Mutation[Trace] {
	m, _ := stream.Mutate(d.pool, id, func(ctx context.Context) <-chan Trace {
		out := make(chan Trace, 1)
		go func() {
			defer close(out)
			defer src.Close()
			readTrace(ctx, id, src, follow, out)
		}()
		return out
	})
	return m
}

// readTrace parses src, sending snapshots on out. When follow is set and src
// is a named file, it waits for writes to the file at end of input instead of
// stopping.
func readTrace(ctx context.Context, id string, src io.Reader, follow bool, out chan<- Trace) {
	var path string
	if f, ok := src.(interface{ Name() string }); ok {
		path = f.Name()
	}
	send := func(t Trace) bool {
		select {
		case out <- t:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var watcher *fsnotify.Watcher
	if follow && path != "" {
		var err error
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			log.Printf("failed creating file watcher: %v", err)
		} else {
			defer watcher.Close()
			if err := watcher.Add(path); err != nil {
				log.Printf("failed watching %q: %v", path, err)
				watcher = nil
			}
		}
	}

	var r io.Reader = src
	if watcher != nil {
		r = NewLineReader(src)
	}
	tr, err := newTraceReader(r)
	for watcher != nil && errors.Is(err, io.EOF) {
		// The headings have not been written yet.
		if !waitForWrite(ctx, watcher) {
			return
		}
		tr, err = newTraceReader(r)
	}
	if err != nil {
		send(Trace{ID: id, Path: path, Err: err})
		return
	}
	tr.trace.ID = id
	tr.trace.Path = path

	rows := 0
	lastSent := time.Now()
	for {
		err := tr.next()
		if err == nil {
			rows++
			if rows%emitEvery == 0 || time.Since(lastSent) > emitInterval {
				if !send(tr.trace.snapshot()) {
					return
				}
				lastSent = time.Now()
			}
			continue
		}
		if !errors.Is(err, io.EOF) {
			tr.trace.Err = fmt.Errorf("failed reading trace: %w", err)
			send(tr.trace.snapshot())
			return
		}
		tr.trace.Tailing = watcher != nil
		if !send(tr.trace.snapshot()) || watcher == nil {
			return
		}
		lastSent = time.Now()
		if !waitForWrite(ctx, watcher) {
			return
		}
	}
}

// waitForWrite blocks until the watched file is written to. It reports false
// if ctx ends or the watcher is closed first.
func waitForWrite(ctx context.Context, watcher *fsnotify.Watcher) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-watcher.Events:
			if !ok {
				return false
			}
			if ev.Has(fsnotify.Write) {
				return true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return false
			}
			log.Printf("file watcher error: %v", err)
		}
	}
}

// lineReader is a specialized reader that ensures only entire newline-delimited lines are
// read at a time. This is useful when attempting to parse a file that is being actively
// written to as a CSV, as you don't actually attempt to parse any partial lines.
type lineReader struct {
	r       *bufio.Reader
	partial []byte
}

var _ io.Reader = (*lineReader)(nil)

func NewLineReader(r io.Reader) *lineReader {
	return &lineReader{
		r: bufio.NewReader(r),
	}
}

func (l *lineReader) Read(b []byte) (int, error) {
	data, err := l.r.ReadBytes(byte('\n'))
	if err != nil {
		l.partial = append(l.partial, data...)
		return 0, io.EOF
	}
	var n int
	if len(l.partial) > 0 {
		n = copy(b, l.partial)
		l.partial = l.partial[:copy(l.partial, l.partial[n:])]
		b = b[n:]
	}
	return n + copy(b, data), nil
}
