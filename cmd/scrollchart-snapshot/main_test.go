package main

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/scrollchart/config"
)

func trace(n int) string {
	var b strings.Builder
	b.WriteString("x, stockPrice ($), volume (shares)\n")
	for i := range n {
		fmt.Fprintf(&b, "%d, %d, %d\n", i, 100+i%17, 1000+i%29)
	}
	return b.String()
}

func TestSnapshotCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "trace.csv")
	out := filepath.Join(dir, "trace.png")
	require.NoError(t, os.WriteFile(in, []byte(trace(2000)), 0o644))

	cmd := newCommand(config.New())
	cmd.SetArgs([]string{in, "-o", out, "--width", "320", "--height", "200", "-k", "bar", "-s", "volume"})
	require.NoError(t, cmd.Execute())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestSnapshotStdio(t *testing.T) {
	cmd := newCommand(config.New())
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(trace(100)))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	_, err := png.Decode(&out)
	assert.NoError(t, err)
}

func TestSnapshotUnknownSeries(t *testing.T) {
	cmd := newCommand(config.New())
	cmd.SetIn(strings.NewReader(trace(10)))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-s", "heartRate"})
	assert.ErrorContains(t, cmd.Execute(), "heartRate")
}
