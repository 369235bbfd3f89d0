package giochart

import "time"

// velocityWindow bounds how far back samples contribute to a release
// velocity.
const velocityWindow = 100 * time.Millisecond

type sample struct {
	t time.Duration
	x float32
}

// velocityTracker estimates horizontal pointer velocity from recent drag
// positions.
type velocityTracker struct {
	samples []sample
}

func (v *velocityTracker) reset() {
	v.samples = v.samples[:0]
}

func (v *velocityTracker) add(t time.Duration, x float32) {
	v.samples = append(v.samples, sample{t: t, x: x})
	cut := 0
	for cut < len(v.samples)-1 && t-v.samples[cut].t > velocityWindow {
		cut++
	}
	v.samples = v.samples[:copy(v.samples, v.samples[cut:])]
}

// velocity returns pixels per second over the retained samples.
func (v *velocityTracker) velocity() float64 {
	if len(v.samples) < 2 {
		return 0
	}
	first, last := v.samples[0], v.samples[len(v.samples)-1]
	dt := (last.t - first.t).Seconds()
	if dt <= 0 {
		return 0
	}
	return float64(last.x-first.x) / dt
}
