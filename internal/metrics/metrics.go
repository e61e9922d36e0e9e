// Package metrics scores an episode from the (observation, heat, time)
// samples an environment reports after each step.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/tempctrl/internal/dynamo"
)

// Set fans one observer callback out to several metrics.
type Set []dynamo.Metric

var _ dynamo.Observer = Set(nil)

func (s Set) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	for _, m := range s {
		m.Observe(x, u, t)
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Standard returns the metrics reported for every thermal episode.
func Standard(setpoint, band float64) Set {
	return Set{
		NewControlEffort(),
		NewHeatEnergy(),
		NewInBand(setpoint, band),
		NewTrackingError(setpoint),
	}
}

// ControlEffort is the mean absolute heater power.
type ControlEffort struct {
	samples []float64
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	sum := 0.0
	for _, val := range u {
		sum += math.Abs(val)
	}
	c.samples = append(c.samples, sum)
}

func (c *ControlEffort) Value() float64 {
	if len(c.samples) == 0 {
		return 0
	}
	return stat.Mean(c.samples, nil)
}

func (c *ControlEffort) Reset() { c.samples = c.samples[:0] }

// HeatEnergy integrates heater power over time in joules. Power reported
// at t was applied over the interval ending at t.
type HeatEnergy struct {
	total float64
	prevT float64
	seen  bool
}

func NewHeatEnergy() *HeatEnergy {
	return &HeatEnergy{}
}

func (e *HeatEnergy) Name() string { return "heat_energy" }

func (e *HeatEnergy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	start := 0.0
	if e.seen {
		start = e.prevT
	}
	if len(u) > 0 && t > start {
		e.total += u[0] * (t - start)
	}
	e.prevT = t
	e.seen = true
}

func (e *HeatEnergy) Value() float64 { return e.total }

func (e *HeatEnergy) Reset() {
	e.total = 0
	e.prevT = 0
	e.seen = false
}

// InBand is the fraction of samples whose temperature lies within band of
// the setpoint.
type InBand struct {
	setpoint float64
	band     float64
	inside   int
	samples  int
}

func NewInBand(setpoint, band float64) *InBand {
	return &InBand{setpoint: setpoint, band: band}
}

func (b *InBand) Name() string { return "in_band" }

func (b *InBand) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) == 0 {
		return
	}
	b.samples++
	if math.Abs(x[0]-b.setpoint) <= b.band {
		b.inside++
	}
}

func (b *InBand) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.inside) / float64(b.samples)
}

func (b *InBand) Reset() {
	b.inside = 0
	b.samples = 0
}

// TrackingError is the RMS distance of the temperature from the setpoint.
type TrackingError struct {
	setpoint float64
	sq       []float64
}

func NewTrackingError(setpoint float64) *TrackingError {
	return &TrackingError{setpoint: setpoint}
}

func (e *TrackingError) Name() string { return "tracking_rms" }

func (e *TrackingError) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if len(x) == 0 {
		return
	}
	d := x[0] - e.setpoint
	e.sq = append(e.sq, d*d)
}

func (e *TrackingError) Value() float64 {
	if len(e.sq) == 0 {
		return 0
	}
	return math.Sqrt(stat.Mean(e.sq, nil))
}

func (e *TrackingError) Reset() { e.sq = e.sq[:0] }

// Summary describes a sample of episode returns or metric values.
type Summary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	N      int
}

func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	s := Summary{Min: xs[0], Max: xs[0], N: len(xs)}
	for _, v := range xs[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if len(xs) == 1 {
		s.Mean = xs[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	return s
}
