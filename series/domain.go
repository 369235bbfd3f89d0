package series

import (
	"math"
	"time"

	"golang.org/x/exp/constraints"
)

// Domain maps a caller's x type onto the float64 axis used internally. Only
// the API boundary deals in T; every computation past it works on float64.
type Domain[T any] interface {
	Float(x T) float64
	Value(f float64) T
}

// Float is the identity domain for plain numbers.
type Float struct{}

func (Float) Float(x float64) float64 { return x }
func (Float) Value(f float64) float64 { return f }

// Int maps integer x values. Converting back rounds to the nearest integer.
type Int[T constraints.Integer] struct{}

func (Int[T]) Float(x T) float64 { return float64(x) }
func (Int[T]) Value(f float64) T  { return T(math.Round(f)) }

// Time maps timestamps to Unix seconds with sub-second precision.
type Time struct{}

func (Time) Float(x time.Time) float64 {
	return float64(x.Unix()) + float64(x.Nanosecond())/float64(time.Second)
}

func (Time) Value(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*float64(time.Second))))
}

// At builds a point from a semantic x value.
func At[T any](d Domain[T], x T, y float64) Point {
	return Point{X: d.Float(x), Y: y}
}

// BandAt builds a banded point whose y occupies [lo, hi].
func BandAt[T any](d Domain[T], x T, y, lo, hi float64) Point {
	return Point{X: d.Float(x), Y: y, Min: lo, Max: hi, Banded: true}
}
