// Package config resolves the settings shared by the scrollchart commands
// from defaults, an optional .scrollchart.yaml file, SCROLLCHART_* environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"git.sr.ht/~whereswaldon/scrollchart/chart"
	"git.sr.ht/~whereswaldon/scrollchart/motion"
	"git.sr.ht/~whereswaldon/scrollchart/series"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Default values that are not part of chart.DefaultConfig.
const (
	DefaultPageSize = 500
	DefaultWidth    = 800
	DefaultHeight   = 400
)

// Raw holds the unvalidated settings as decoded by viper.
type Raw struct {
	Kind          string  `mapstructure:"kind"`
	Series        string  `mapstructure:"series"`
	Follow        bool    `mapstructure:"follow"`
	RealTime      bool    `mapstructure:"realtime"`
	ChunkSize     int     `mapstructure:"chunk-size"`
	MinZoom       float64 `mapstructure:"min-zoom"`
	MaxZoom       float64 `mapstructure:"max-zoom"`
	Decay         float64 `mapstructure:"decay"`
	FlingVelocity float64 `mapstructure:"fling-velocity"`
	StopVelocity  float64 `mapstructure:"stop-velocity"`
	AutoLoad      bool    `mapstructure:"auto-load"`
	LoadThreshold float64 `mapstructure:"load-threshold"`
	LoadPast      bool    `mapstructure:"load-past"`
	LoadFuture    bool    `mapstructure:"load-future"`
	InitialPoints int     `mapstructure:"initial-points"`
	FollowTarget  float64 `mapstructure:"follow-target"`
	TickCount     int     `mapstructure:"tick-count"`
	PageSize      int     `mapstructure:"page-size"`
	Width         int     `mapstructure:"width"`
	Height        int     `mapstructure:"height"`
}

// Config is the validated configuration.
type Config struct {
	Chart chart.Config
	Kind  chart.Kind
	// Series selects the series to display. Empty means the first one.
	Series series.ID
	// Follow keeps reading a trace file as it grows.
	Follow bool
	// RealTime starts the chart in real-time mode, tracking newly appended
	// points without recomputing the whole range.
	RealTime bool
	// PageSize is the number of older points delivered per past data
	// request.
	PageSize int
	// Width and Height size rendered snapshots.
	Width, Height int
}

// SetDefaults registers the default of every setting with v.
func SetDefaults(v *viper.Viper) {
	def := chart.DefaultConfig()
	v.SetDefault("kind", chart.Line.String())
	v.SetDefault("series", "")
	v.SetDefault("follow", true)
	v.SetDefault("realtime", true)
	v.SetDefault("chunk-size", def.ChunkSize)
	v.SetDefault("min-zoom", def.Motion.MinZoom)
	v.SetDefault("max-zoom", def.Motion.MaxZoom)
	v.SetDefault("decay", def.Motion.Decay)
	v.SetDefault("fling-velocity", def.Motion.FlingVelocity)
	v.SetDefault("stop-velocity", def.Motion.StopVelocity)
	v.SetDefault("auto-load", def.Loading.Automatic)
	v.SetDefault("load-threshold", def.Loading.Threshold)
	v.SetDefault("load-past", true)
	v.SetDefault("load-future", false)
	v.SetDefault("initial-points", def.InitialPoints)
	v.SetDefault("follow-target", def.FollowTarget)
	v.SetDefault("tick-count", def.TickCount)
	v.SetDefault("page-size", DefaultPageSize)
	v.SetDefault("width", DefaultWidth)
	v.SetDefault("height", DefaultHeight)
}

// AddFlags defines the chart flags on cmd and binds them to v.
func AddFlags(cmd *cobra.Command, v *viper.Viper) error {
	f := cmd.Flags()
	f.String("config", "", "Path to config file")
	f.StringP("kind", "k", chart.Line.String(), "Chart kind: line or area or bar or health")
	f.StringP("series", "s", "", "Series to display (default: the first in the trace)")
	f.Bool("follow", true, "Keep reading the trace as it grows")
	f.Bool("realtime", true, "Start the chart in real-time mode")
	f.Int("chunk-size", chart.DefaultConfig().ChunkSize, "Number of points simplified together")
	f.Float64("max-zoom", chart.DefaultConfig().Motion.MaxZoom, "Largest zoom factor")
	f.Int("initial-points", chart.DefaultConfig().InitialPoints, "Number of recent points shown after loading")
	f.Int("page-size", DefaultPageSize, "Number of older points loaded per request")
	f.Int("width", DefaultWidth, "Snapshot width in pixels")
	f.Int("height", DefaultHeight, "Snapshot height in pixels")
	if err := v.BindPFlags(f); err != nil {
		return fmt.Errorf("failed binding flags: %w", err)
	}
	return nil
}

// New returns a viper instance with defaults and environment lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SCROLLCHART")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the config file, if any, and returns the validated settings. An
// explicitly named file must exist; otherwise .scrollchart.yaml is looked up
// in the working directory and then $HOME.
func Load(v *viper.Viper) (Config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".scrollchart")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}
	var raw Raw
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return raw.Validate()
}

// Validate checks every setting and converts them to a Config.
func (r Raw) Validate() (Config, error) {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}
	kind, ok := chart.ParseKind(r.Kind)
	check(ok, "unknown chart kind %q", r.Kind)
	check(r.ChunkSize > 0, "chunk-size must be positive, got %d", r.ChunkSize)
	check(r.MinZoom >= 1, "min-zoom must be at least 1, got %v", r.MinZoom)
	check(r.MaxZoom >= r.MinZoom, "max-zoom %v is below min-zoom %v", r.MaxZoom, r.MinZoom)
	check(r.Decay > 0 && r.Decay < 1, "decay must be within (0, 1), got %v", r.Decay)
	check(r.StopVelocity > 0, "stop-velocity must be positive, got %v", r.StopVelocity)
	check(r.FlingVelocity >= r.StopVelocity, "fling-velocity %v is below stop-velocity %v", r.FlingVelocity, r.StopVelocity)
	check(r.LoadThreshold >= 0 && r.LoadThreshold <= 1, "load-threshold must be within [0, 1], got %v", r.LoadThreshold)
	check(r.InitialPoints > 0, "initial-points must be positive, got %d", r.InitialPoints)
	check(r.FollowTarget > 0 && r.FollowTarget <= 1, "follow-target must be within (0, 1], got %v", r.FollowTarget)
	check(r.TickCount >= 2, "tick-count must be at least 2, got %d", r.TickCount)
	check(r.PageSize > 0, "page-size must be positive, got %d", r.PageSize)
	check(r.Width > 0 && r.Height > 0, "snapshot size must be positive, got %dx%d", r.Width, r.Height)
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}

	cc := chart.DefaultConfig()
	cc.ChunkSize = r.ChunkSize
	cc.Motion = motion.Config{
		MinZoom:       r.MinZoom,
		MaxZoom:       r.MaxZoom,
		Decay:         r.Decay,
		FlingVelocity: r.FlingVelocity,
		StopVelocity:  r.StopVelocity,
	}
	cc.Loading = motion.LoadStrategy{Automatic: r.AutoLoad, Threshold: r.LoadThreshold}
	cc.CanLoadPast = r.LoadPast
	cc.CanLoadFuture = r.LoadFuture
	cc.InitialPoints = r.InitialPoints
	cc.FollowTarget = r.FollowTarget
	cc.TickCount = r.TickCount
	return Config{
		Chart:    cc,
		Kind:     kind,
		Series:   series.ID(r.Series),
		Follow:   r.Follow,
		RealTime: r.RealTime,
		PageSize: r.PageSize,
		Width:    r.Width,
		Height:   r.Height,
	}, nil
}
