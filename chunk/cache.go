// Package chunk caches simplified copies of fixed-size slices of a series.
//
// A series is split into chunks of Size consecutive points; chunk i holds the
// points [i*Size, (i+1)*Size). Simplification runs on worker goroutines and
// results are applied by Drain on the goroutine that owns the cache, so all
// methods except the wake callback must be called from that one goroutine.
package chunk

import (
	"runtime"
	"slices"
	"sync"

	"git.sr.ht/~whereswaldon/scrollchart/lttb"
	"git.sr.ht/~whereswaldon/scrollchart/series"
)

// DefaultSize is the number of raw points per chunk.
const DefaultSize = 1024

// prefetch is the number of chunks requested beyond each side of the visible
// range.
const prefetch = 2

// Simplifier reduces points to at most threshold points.
type Simplifier func(points []series.Point, threshold int) []series.Point

// Chunk is a simplified chunk ready to be drawn.
type Chunk struct {
	Index  int
	Points []series.Point
}

// Plan describes what to draw for one paint pass.
type Plan struct {
	// Chunks holds the visible chunks that have results, in index order.
	Chunks []Chunk
	// Retired lists chunks drawn by the previous pass that are not drawn by
	// this one.
	Retired []int
	// Pending counts visible chunks still waiting for a result.
	Pending int
}

type entry struct {
	points    []series.Point
	ready     bool
	stale     bool
	threshold int
	// request is the id of the outstanding request, or zero.
	request uint64
}

type result struct {
	index      int
	generation uint64
	request    uint64
	threshold  int
	points     []series.Point
}

// Cache holds simplified chunks for a single series.
type Cache struct {
	size     int
	simplify Simplifier
	wake     func()

	generation uint64
	nextReq    uint64
	entries    map[int]*entry
	active     []int

	sem chan struct{}
	wg  sync.WaitGroup

	mu    sync.Mutex
	inbox []result
}

// Option configures a Cache.
type Option func(*Cache)

// WithSimplifier replaces the default LTTB simplifier.
func WithSimplifier(s Simplifier) Option {
	return func(c *Cache) { c.simplify = s }
}

// WithWorkers bounds the number of simplifications running at once.
func WithWorkers(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.sem = make(chan struct{}, n)
		}
	}
}

// New creates a cache with chunks of size points. wake is invoked from a
// worker goroutine whenever a result is waiting to be drained. It may be nil.
func New(size int, wake func(), opts ...Option) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	c := &Cache{
		size:     size,
		simplify: lttb.Simplify,
		wake:     wake,
		entries:  make(map[int]*entry),
		sem:      make(chan struct{}, runtime.GOMAXPROCS(0)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns the number of raw points per chunk.
func (c *Cache) Size() int { return c.size }

// Generation returns the number of times the cache has been cleared.
func (c *Cache) Generation() uint64 { return c.generation }

// IndexOf returns the chunk holding the point at index i.
func (c *Cache) IndexOf(i int) int { return i / c.size }

// Threshold converts a plot width in pixels into a per-chunk point budget.
func Threshold(width float64) int {
	return int(width / 2)
}

// Clear drops every entry. Results of requests issued before the call are
// discarded when they arrive.
func (c *Cache) Clear() {
	c.generation++
	clear(c.entries)
}

// Invalidate marks one chunk as out of date so that the next Resolve requests
// it again. Its previous result stays drawable until the replacement arrives;
// an outstanding request for it is discarded when it arrives.
func (c *Cache) Invalidate(index int) {
	if e, ok := c.entries[index]; ok {
		e.stale = true
		e.request = 0
	}
}

// Resolve returns the drawable chunks for the points whose x lies within
// [visMin, visMax]. Chunks without a result are requested, along with a few
// neighbours on either side.
func (c *Cache) Resolve(points []series.Point, visMin, visMax float64, threshold int) Plan {
	var plan Plan
	first, last, ok := series.Window(points, visMin, visMax)
	if !ok || visMax < visMin {
		plan.Retired = c.RetireAll()
		return plan
	}

	firstChunk, lastChunk := c.IndexOf(first), c.IndexOf(last)
	chunks := (len(points) + c.size - 1) / c.size
	for i := max(0, firstChunk-prefetch); i <= min(chunks-1, lastChunk+prefetch); i++ {
		c.ensure(points, i, threshold)
	}

	drawn := make([]int, 0, lastChunk-firstChunk+1)
	for i := firstChunk; i <= lastChunk; i++ {
		e := c.entries[i]
		if e.request != 0 {
			plan.Pending++
		}
		if !e.ready {
			continue
		}
		plan.Chunks = append(plan.Chunks, Chunk{Index: i, Points: e.points})
		drawn = append(drawn, i)
	}
	for _, i := range c.active {
		if _, found := slices.BinarySearch(drawn, i); !found {
			plan.Retired = append(plan.Retired, i)
		}
	}
	c.active = drawn
	return plan
}

// RetireAll forgets which chunks were drawn and returns them.
func (c *Cache) RetireAll() []int {
	retired := c.active
	c.active = nil
	return retired
}

// ensure requests chunk i unless a usable result or request already exists.
// A result computed for a different threshold stays drawable until its
// replacement arrives.
func (c *Cache) ensure(points []series.Point, i, threshold int) {
	e, ok := c.entries[i]
	if !ok {
		e = &entry{}
		c.entries[i] = e
	}
	if e.request != 0 || (e.ready && !e.stale && e.threshold == threshold) {
		return
	}
	start := i * c.size
	end := min(start+c.size, len(points))
	raw := slices.Clone(points[start:end])

	c.nextReq++
	e.request = c.nextReq
	e.stale = false
	req := result{
		index:      i,
		generation: c.generation,
		request:    c.nextReq,
		threshold:  threshold,
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.sem <- struct{}{}
		req.points = c.simplify(raw, threshold)
		<-c.sem
		c.post(req)
	}()
}

func (c *Cache) post(r result) {
	c.mu.Lock()
	c.inbox = append(c.inbox, r)
	c.mu.Unlock()
	if c.wake != nil {
		c.wake()
	}
}

// Drain applies finished results and returns how many were accepted. Results
// from an earlier generation, or for an entry that was invalidated or
// re-requested since, are dropped.
func (c *Cache) Drain() int {
	c.mu.Lock()
	inbox := c.inbox
	c.inbox = nil
	c.mu.Unlock()

	applied := 0
	for _, r := range inbox {
		if r.generation != c.generation {
			continue
		}
		e, ok := c.entries[r.index]
		if !ok || e.request != r.request {
			continue
		}
		e.points = r.points
		e.threshold = r.threshold
		e.ready = true
		e.stale = false
		e.request = 0
		applied++
	}
	return applied
}

// Wait blocks until every outstanding simplification has posted its result.
func (c *Cache) Wait() {
	c.wg.Wait()
}
