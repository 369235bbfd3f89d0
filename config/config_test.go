package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~whereswaldon/scrollchart/chart"
	"git.sr.ht/~whereswaldon/scrollchart/series"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)
	def := chart.DefaultConfig()
	assert.Equal(t, chart.Line, cfg.Kind)
	assert.Equal(t, def.ChunkSize, cfg.Chart.ChunkSize)
	assert.Equal(t, def.Motion, cfg.Chart.Motion)
	assert.Equal(t, def.Loading, cfg.Chart.Loading)
	assert.True(t, cfg.Chart.CanLoadPast)
	assert.False(t, cfg.Chart.CanLoadFuture)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.True(t, cfg.Follow)
	assert.True(t, cfg.RealTime)
}

func TestFollowAndRealTimeAreIndependent(t *testing.T) {
	t.Setenv("SCROLLCHART_REALTIME", "false")
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.True(t, cfg.Follow)
	assert.False(t, cfg.RealTime)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SCROLLCHART_CHUNK_SIZE", "256")
	t.Setenv("SCROLLCHART_KIND", "health")
	t.Setenv("SCROLLCHART_SERIES", "heartRate")
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Chart.ChunkSize)
	assert.Equal(t, chart.Health, cfg.Kind)
	assert.Equal(t, series.HeartRate, cfg.Series)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: bar\nmax-zoom: 30\npage-size: 50\n"), 0o644))

	v := New()
	v.Set("config", path)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, chart.Bar, cfg.Kind)
	assert.Equal(t, 30.0, cfg.Chart.Motion.MaxZoom)
	assert.Equal(t, 50, cfg.PageSize)
}

func TestMissingConfigFile(t *testing.T) {
	v := New()
	v.Set("config", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load(v)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestFlagsTakePrecedence(t *testing.T) {
	t.Setenv("SCROLLCHART_PAGE_SIZE", "10")
	v := New()
	cmd := &cobra.Command{Use: "test"}
	require.NoError(t, AddFlags(cmd, v))
	require.NoError(t, cmd.Flags().Parse([]string{"--page-size", "20", "-k", "area"}))
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, chart.Area, cfg.Kind)
}

func TestValidate(t *testing.T) {
	valid := func() Raw {
		v := New()
		var r Raw
		require.NoError(t, v.Unmarshal(&r))
		return r
	}
	for name, mutate := range map[string]func(*Raw){
		"kind":           func(r *Raw) { r.Kind = "pie" },
		"chunk size":     func(r *Raw) { r.ChunkSize = 0 },
		"min zoom":       func(r *Raw) { r.MinZoom = 0.5 },
		"zoom order":     func(r *Raw) { r.MaxZoom = 0.9 * r.MinZoom },
		"decay":          func(r *Raw) { r.Decay = 1 },
		"stop velocity":  func(r *Raw) { r.StopVelocity = 0 },
		"fling velocity": func(r *Raw) { r.FlingVelocity = r.StopVelocity / 2 },
		"threshold":      func(r *Raw) { r.LoadThreshold = 1.5 },
		"initial points": func(r *Raw) { r.InitialPoints = -1 },
		"follow target":  func(r *Raw) { r.FollowTarget = 0 },
		"tick count":     func(r *Raw) { r.TickCount = 1 },
		"page size":      func(r *Raw) { r.PageSize = 0 },
		"snapshot size":  func(r *Raw) { r.Height = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			r := valid()
			mutate(&r)
			_, err := r.Validate()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := valid().Validate()
	assert.NoError(t, err)
}
