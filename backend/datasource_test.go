package backend

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Trace) Trace {
	t.Helper()
	select {
	case tr, ok := <-ch:
		require.True(t, ok, "stream closed")
		return tr
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for trace")
	}
	return Trace{}
}

func TestReadTraceOnce(t *testing.T) {
	out := make(chan Trace, 4)
	readTrace(context.Background(), "a", io.NopCloser(strings.NewReader("x,y\n1,2\n2,3\n")), true, out)
	close(out)
	var tr Trace
	for tr = range out {
	}
	assert.Equal(t, "a", tr.ID)
	assert.False(t, tr.Tailing, "unnamed sources are not followed")
	assert.Len(t, tr.Points[0], 2)
}

func TestReadTraceReportsError(t *testing.T) {
	out := make(chan Trace, 1)
	readTrace(context.Background(), "a", strings.NewReader("x\n"), false, out)
	tr := receive(t, out)
	assert.ErrorIs(t, tr.Err, ErrNoSeries)
}

func TestReadTraceFollowsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()
	_, err = w.WriteString("x,y\n1,10\n2,")
	require.NoError(t, err)

	r, err := os.Open(path)
	require.NoError(t, err)
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Trace)
	done := make(chan struct{})
	go func() {
		defer close(done)
		readTrace(ctx, "b", r, true, out)
	}()

	tr := receive(t, out)
	assert.True(t, tr.Tailing)
	assert.Equal(t, path, tr.Path)
	require.Len(t, tr.Points[0], 1, "partial lines are held back")

	_, err = w.WriteString("20\n3,30\n")
	require.NoError(t, err)
	for tr = receive(t, out); len(tr.Points[0]) < 3; tr = receive(t, out) {
	}
	require.Len(t, tr.Points[0], 3)
	assert.Equal(t, 20.0, tr.Points[0][1].Y)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reader did not stop")
	}
}
