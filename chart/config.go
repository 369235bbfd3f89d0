package chart

import (
	"image/color"

	"git.sr.ht/~whereswaldon/scrollchart/chunk"
	"git.sr.ht/~whereswaldon/scrollchart/motion"
	"git.sr.ht/~whereswaldon/scrollchart/viewport"
)

// Kind selects how the primary series is drawn.
type Kind uint8

const (
	Line Kind = iota
	Area
	Bar
	// Health draws a bar spanning the Min and Max of each banded point.
	Health
)

func (k Kind) String() string {
	switch k {
	case Line:
		return "line"
	case Area:
		return "area"
	case Bar:
		return "bar"
	case Health:
		return "health"
	default:
		return "unknown"
	}
}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range []Kind{Line, Area, Bar, Health} {
		if k.String() == s {
			return k, true
		}
	}
	return Line, false
}

// bars reports whether k draws one rectangle per point.
func (k Kind) bars() bool {
	return k == Bar || k == Health
}

// Insets reserve room around the plot for axis labels.
type Insets struct {
	Left, Top, Right, Bottom float64
}

// Config holds the tunables of a Chart.
type Config struct {
	// ChunkSize is the number of raw points simplified together.
	ChunkSize int
	Motion    motion.Config
	Loading   motion.LoadStrategy
	// CanLoadPast and CanLoadFuture enable edge requests to the
	// LoadDelegate.
	CanLoadPast, CanLoadFuture bool
	// InitialPoints is the number of most recent points that fill the plot
	// after a full reload.
	InitialPoints int
	// FollowTarget is the fraction of the plot width at which a newly
	// appended point is placed while following.
	FollowTarget float64
	// TickCount guides the density of horizontal grid lines.
	TickCount int
	Insets    Insets

	GridColor  color.NRGBA
	LabelColor color.NRGBA
	// FormatTick renders a y axis value.
	FormatTick func(float64) string
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		ChunkSize:     chunk.DefaultSize,
		Motion:        motion.DefaultConfig(),
		Loading:       motion.DefaultLoadStrategy(),
		InitialPoints: 30,
		FollowTarget:  0.8,
		TickCount:     15,
		Insets:        Insets{Left: 40, Top: 10, Right: 10, Bottom: 25},
		GridColor:     color.NRGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff},
		LabelColor:    color.NRGBA{R: 0xaa, G: 0xaa, B: 0xaa, A: 0xff},
		FormatTick:    viewport.FormatCompact,
	}
}

// withDefaults fills zero fields of cfg from DefaultConfig.
func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.Motion == (motion.Config{}) {
		cfg.Motion = def.Motion
	}
	if cfg.InitialPoints <= 0 {
		cfg.InitialPoints = def.InitialPoints
	}
	if cfg.FollowTarget <= 0 {
		cfg.FollowTarget = def.FollowTarget
	}
	if cfg.TickCount <= 0 {
		cfg.TickCount = def.TickCount
	}
	if cfg.FormatTick == nil {
		cfg.FormatTick = def.FormatTick
	}
	return cfg
}
