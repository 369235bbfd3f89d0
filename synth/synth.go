// Package synth provides synthetic signal sources for generating chart
// traces.
package synth

import (
	"math"
	"math/rand/v2"

	"git.sr.ht/~whereswaldon/scrollchart/series"
)

type Unit uint8

func (u Unit) String() string {
	switch u {
	case BPM:
		return "bpm"
	case Dollars:
		return "$"
	case Shares:
		return "shares"
	default:
		return "?"
	}
}

const (
	BPM Unit = iota
	Dollars
	Shares
	Unknown
)

// Reading is one sample of a source. Banded readings carry a value range.
type Reading struct {
	Value    float64
	Min, Max float64
	Banded   bool
}

// Source produces an endless signal, one reading per call to Next.
type Source interface {
	ID() series.ID
	Unit() Unit
	Next() Reading
}

// Heart rate limits, in beats per minute.
const (
	MinHeartRate = 50
	MaxHeartRate = 190
)

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

// HeartRate wanders around a resting rate with occasional bursts of
// activity. Each reading is banded by the spread seen within the sample.
type HeartRate struct {
	rng    *rand.Rand
	rate   float64
	target float64
}

func NewHeartRate(seed uint64) *HeartRate {
	return &HeartRate{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		rate:   70,
		target: 70,
	}
}

func (h *HeartRate) ID() series.ID { return series.HeartRate }
func (h *HeartRate) Unit() Unit    { return BPM }

func (h *HeartRate) Next() Reading {
	if h.rng.Float64() < 0.02 {
		// Start or end a burst of activity.
		h.target = 65 + h.rng.Float64()*90
	}
	h.rate += (h.target-h.rate)*0.1 + h.rng.NormFloat64()*1.5
	h.rate = clamp(h.rate, MinHeartRate, MaxHeartRate)
	spread := 2 + h.rng.Float64()*6
	return Reading{
		Value:  math.Round(h.rate),
		Min:    math.Round(clamp(h.rate-spread, MinHeartRate, MaxHeartRate)),
		Max:    math.Round(clamp(h.rate+spread, MinHeartRate, MaxHeartRate)),
		Banded: true,
	}
}

// RandomWalk is a geometric random walk, like a stock price.
type RandomWalk struct {
	rng        *rand.Rand
	id         series.ID
	price      float64
	volatility float64
}

func NewRandomWalk(id series.ID, start, volatility float64, seed uint64) *RandomWalk {
	return &RandomWalk{
		rng:        rand.New(rand.NewPCG(seed, seed+1)),
		id:         id,
		price:      start,
		volatility: volatility,
	}
}

func (w *RandomWalk) ID() series.ID { return w.id }
func (w *RandomWalk) Unit() Unit    { return Dollars }

func (w *RandomWalk) Next() Reading {
	w.price *= math.Exp(w.rng.NormFloat64() * w.volatility)
	return Reading{Value: math.Round(w.price*100) / 100}
}

// Sine is a periodic signal with optional noise. Period is measured in
// readings.
type Sine struct {
	rng       *rand.Rand
	id        series.ID
	n         int
	Amplitude float64
	Offset    float64
	Period    float64
	Noise     float64
}

func NewSine(id series.ID, amplitude, offset, period, noise float64, seed uint64) *Sine {
	return &Sine{
		rng:       rand.New(rand.NewPCG(seed, seed+2)),
		id:        id,
		Amplitude: amplitude,
		Offset:    offset,
		Period:    period,
		Noise:     noise,
	}
}

func (s *Sine) ID() series.ID { return s.id }
func (s *Sine) Unit() Unit    { return Shares }

func (s *Sine) Next() Reading {
	phase := 2 * math.Pi * float64(s.n) / max(1, s.Period)
	s.n++
	v := s.Offset + s.Amplitude*math.Sin(phase)
	if s.Noise > 0 {
		v += s.rng.NormFloat64() * s.Noise
	}
	return Reading{Value: max(0, v)}
}

// Headings returns the trace column headings for src, excluding the x
// column.
func Headings(src Source) []string {
	name := string(src.ID())
	h := []string{name + " (" + src.Unit().String() + ")"}
	if _, banded := src.(*HeartRate); banded {
		h = append(h, name+" min", name+" max")
	}
	return h
}

// Cells formats r as the cells matching Headings.
func Cells(src Source, r Reading) []float64 {
	if _, banded := src.(*HeartRate); banded {
		return []float64{r.Value, r.Min, r.Max}
	}
	return []float64{r.Value}
}
