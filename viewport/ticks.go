package viewport

import (
	"math"
	"strconv"
	"strings"
)

const (
	minTickCount     = 5
	defaultTickCount = 15
	minTickInterval  = 1e-9
	maxTicks         = 10_000
)

var niceMultipliers = [...]float64{1, 2, 2.5, 5, 10}

// niceInterval rounds raw up to the nearest of 1, 2, 2.5, 5 or 10 times a
// power of ten.
func niceInterval(raw float64) float64 {
	exponent := math.Pow(10, math.Floor(math.Log10(raw)))
	fraction := raw / exponent
	for _, m := range niceMultipliers {
		if m >= fraction {
			return m * exponent
		}
	}
	return 10 * exponent
}

// ticksWithin returns the multiples of interval that lie in [lo, hi], at
// most maxTicks of them. Ranges too far from zero for interval to step
// through yield no ticks.
func ticksWithin(lo, hi, interval float64) []float64 {
	first := math.Ceil(lo / interval)
	last := math.Floor(hi / interval)
	if last < first || !exact(first) || !exact(last) {
		return nil
	}
	n := min(int(last-first), maxTicks-1)
	values := make([]float64, 0, n+1)
	for k := 0; k <= n; k++ {
		v := (first + float64(k)) * interval
		if v >= lo && v <= hi {
			values = append(values, v)
		}
	}
	return values
}

// exact reports whether consecutive integers around f are representable.
func exact(f float64) bool {
	return f+1 != f && f-1 != f
}

// NiceTicks returns tick values in [min, max] placed at a "nice" interval.
// desired guides the initial spacing; the interval is halved until at least
// five ticks fall in range. Non-finite or empty ranges yield no ticks.
func NiceTicks(min, max float64, desired int) []float64 {
	if math.IsNaN(min) || math.IsInf(min, 0) || math.IsNaN(max) || math.IsInf(max, 0) || max <= min {
		return []float64{}
	}
	if desired < 2 {
		desired = defaultTickCount
	}
	d := float64(desired - 1)
	interval := niceInterval(max/d - min/d)
	if !(interval > 0) || math.IsInf(interval, 0) {
		return []float64{}
	}
	values := ticksWithin(min, max, interval)
	for len(values) < minTickCount {
		interval /= 2
		if interval < minTickInterval || !exact(math.Ceil(min/interval)) || !exact(math.Floor(max/interval)) {
			break
		}
		values = ticksWithin(min, max, interval)
	}
	if values == nil {
		return []float64{}
	}
	return values
}

// FormatCompact renders n with a k or M suffix for large magnitudes, the way
// axis labels are written by default.
func FormatCompact(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs >= 1_000_000:
		return trimZero(strconv.FormatFloat(n/1_000_000, 'f', 1, 64)) + "M"
	case abs >= 1000:
		return trimZero(strconv.FormatFloat(n/1000, 'f', 1, 64)) + "k"
	case abs != math.Trunc(abs):
		s := strings.TrimRight(strconv.FormatFloat(n, 'f', 2, 64), "0")
		return strings.TrimSuffix(s, ".")
	default:
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
}

func trimZero(s string) string {
	return strings.TrimSuffix(s, ".0")
}
