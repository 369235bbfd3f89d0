package chunk

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/scrollchart/series"
)

func linear(n int) []series.Point {
	points := make([]series.Point, n)
	for i := range points {
		points[i] = series.Point{X: float64(i), Y: float64(i % 13)}
	}
	return points
}

// settle waits for all requests and applies their results.
func settle(c *Cache) int {
	c.Wait()
	return c.Drain()
}

func indices(plan Plan) []int {
	var out []int
	for _, ch := range plan.Chunks {
		out = append(out, ch.Index)
	}
	return out
}

func TestResolveRequestsVisibleAndNeighbours(t *testing.T) {
	var calls atomic.Int32
	c := New(100, nil, WithSimplifier(func(points []series.Point, threshold int) []series.Point {
		calls.Add(1)
		return points[:min(len(points), threshold)]
	}))
	points := linear(1000)

	plan := c.Resolve(points, 450, 520, 10)
	assert.Empty(t, plan.Chunks, "nothing is ready before the first drain")
	assert.Equal(t, 2, plan.Pending)

	assert.Equal(t, 6, settle(c), "chunks 2 through 7 are requested")
	assert.EqualValues(t, 6, calls.Load())

	plan = c.Resolve(points, 450, 520, 10)
	assert.Equal(t, []int{4, 5}, indices(plan))
	assert.Zero(t, plan.Pending)
	for _, ch := range plan.Chunks {
		assert.Len(t, ch.Points, 10)
		assert.Equal(t, float64(ch.Index*100), ch.Points[0].X)
	}

	// Resolving again with nothing changed issues no work.
	c.Resolve(points, 450, 520, 10)
	assert.Zero(t, settle(c))
	assert.EqualValues(t, 6, calls.Load())
}

func TestResolveRetiresChunksLeavingView(t *testing.T) {
	c := New(100, nil)
	points := linear(1000)

	c.Resolve(points, 0, 250, 20)
	settle(c)
	plan := c.Resolve(points, 0, 250, 20)
	require.Equal(t, []int{0, 1, 2}, indices(plan))
	assert.Empty(t, plan.Retired)

	settle(c)
	plan = c.Resolve(points, 210, 420, 20)
	assert.Equal(t, []int{2, 3, 4}, indices(plan))
	assert.Equal(t, []int{0, 1}, plan.Retired)

	plan = c.Resolve(points, 5000, 6000, 20)
	assert.Zero(t, plan.Pending)
	assert.Empty(t, plan.Chunks)
	assert.Equal(t, []int{2, 3, 4}, plan.Retired)
}

func TestResolveEmpty(t *testing.T) {
	c := New(0, nil)
	assert.Equal(t, DefaultSize, c.Size())

	plan := c.Resolve(nil, 0, 100, 50)
	assert.Zero(t, plan.Pending)
	assert.Empty(t, plan.Chunks)

	plan = c.Resolve(linear(10), 8, 2, 50)
	assert.Zero(t, plan.Pending)
}

func TestShortSeriesSingleChunk(t *testing.T) {
	c := New(DefaultSize, nil)
	points := linear(40)
	c.Resolve(points, 0, 39, 100)
	assert.Equal(t, 1, settle(c))
	plan := c.Resolve(points, 0, 39, 100)
	require.Len(t, plan.Chunks, 1)
	assert.Equal(t, points, plan.Chunks[0].Points)
}

func TestClearDiscardsStaleResults(t *testing.T) {
	release := make(chan struct{})
	c := New(100, nil, WithSimplifier(func(points []series.Point, threshold int) []series.Point {
		<-release
		return points
	}))
	points := linear(100)

	c.Resolve(points, 0, 99, 10)
	c.Clear()
	assert.EqualValues(t, 1, c.Generation())
	close(release)

	assert.Zero(t, settle(c), "a result from before the clear must not be applied")
	plan := c.Resolve(points, 0, 99, 10)
	assert.Empty(t, plan.Chunks)
	assert.Equal(t, 1, plan.Pending)

	assert.Equal(t, 1, settle(c))
	plan = c.Resolve(points, 0, 99, 10)
	assert.Equal(t, []int{0}, indices(plan))
}

func TestInvalidateRecomputesChunk(t *testing.T) {
	c := New(10, nil)
	points := linear(25)
	c.Resolve(points, 0, 24, 100)
	settle(c)

	points[24].Y = 500
	c.Invalidate(c.IndexOf(24))

	plan := c.Resolve(points, 0, 24, 100)
	require.Equal(t, []int{0, 1, 2}, indices(plan), "the previous result stays drawable")
	assert.Equal(t, 1, plan.Pending)
	assert.NotEqual(t, 500.0, plan.Chunks[2].Points[4].Y)

	assert.Equal(t, 1, settle(c))
	plan = c.Resolve(points, 0, 24, 100)
	assert.Equal(t, 500.0, plan.Chunks[2].Points[4].Y)
}

func TestInvalidateDropsOutstandingRequest(t *testing.T) {
	release := make(chan struct{})
	var once sync.Once
	c := New(10, nil, WithSimplifier(func(points []series.Point, threshold int) []series.Point {
		once.Do(func() { <-release })
		return points
	}))
	points := linear(10)
	c.Resolve(points, 0, 9, 100)
	c.Invalidate(0)
	close(release)
	assert.Zero(t, settle(c))
}

func TestThresholdChangeRerequests(t *testing.T) {
	c := New(100, nil)
	points := linear(100)
	c.Resolve(points, 0, 99, 10)
	settle(c)

	plan := c.Resolve(points, 0, 99, 20)
	require.Len(t, plan.Chunks, 1)
	assert.Len(t, plan.Chunks[0].Points, 10)
	assert.Equal(t, 1, plan.Pending)

	settle(c)
	plan = c.Resolve(points, 0, 99, 20)
	assert.Len(t, plan.Chunks[0].Points, 20)
}

func TestWakeCalledPerResult(t *testing.T) {
	var wakes atomic.Int32
	c := New(10, func() { wakes.Add(1) }, WithWorkers(1))
	c.Resolve(linear(50), 0, 49, 4)
	c.Wait()
	assert.EqualValues(t, 5, wakes.Load())
	assert.Equal(t, 5, c.Drain())
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, 150, Threshold(300))
	assert.Equal(t, 0, Threshold(1))
}

func TestRetireAll(t *testing.T) {
	c := New(10, nil)
	points := linear(30)
	c.Resolve(points, 0, 29, 100)
	settle(c)
	c.Resolve(points, 0, 29, 100)
	assert.Equal(t, []int{0, 1, 2}, c.RetireAll())
	assert.Empty(t, c.RetireAll())
}
