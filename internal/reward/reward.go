// Package reward holds the reward policies that score the can temperature
// against a set-point.
package reward

import "math"

// DefaultScale is the peak reward of the window, exponential and quadratic
// policies.
const DefaultScale = 0.1

// Policy scores a post-step temperature. Min and Max bound every value
// Reward can return.
type Policy interface {
	Reward(temp float64) float64
	Min() float64
	Max() float64
}

// Window pays Value while temp is in (Setpoint-HalfWidth, Setpoint+HalfWidth].
type Window struct {
	Setpoint  float64
	HalfWidth float64
	Value     float64
}

func NewWindow(setpoint, width float64) *Window {
	return &Window{Setpoint: setpoint, HalfWidth: width / 2, Value: DefaultScale}
}

func (w *Window) Reward(temp float64) float64 {
	if temp > w.Setpoint-w.HalfWidth && temp <= w.Setpoint+w.HalfWidth {
		return w.Value
	}
	return 0
}

func (w *Window) Min() float64 { return 0 }
func (w *Window) Max() float64 { return w.Value }

// Exponential is a Gaussian bump around the set-point with variance equal
// to the set-point value.
type Exponential struct {
	Setpoint float64
	Scale    float64
}

func NewExponential(setpoint float64) *Exponential {
	return &Exponential{Setpoint: setpoint, Scale: DefaultScale}
}

func (e *Exponential) Reward(temp float64) float64 {
	d := temp - e.Setpoint
	return e.Scale * math.Exp(-d*d/(2*e.Setpoint))
}

func (e *Exponential) Min() float64 { return 0 }
func (e *Exponential) Max() float64 { return e.Scale }

// Quadratic falls off with the squared relative error and goes negative
// beyond one set-point away, so it is clamped at Floor.
type Quadratic struct {
	Setpoint float64
	Scale    float64
	Floor    float64
}

func NewQuadratic(setpoint float64) *Quadratic {
	return &Quadratic{Setpoint: setpoint, Scale: DefaultScale, Floor: 0}
}

func (q *Quadratic) Reward(temp float64) float64 {
	rel := (temp - q.Setpoint) / q.Setpoint
	return math.Max(q.Floor, q.Scale*(1-rel*rel))
}

func (q *Quadratic) Min() float64 { return q.Floor }
func (q *Quadratic) Max() float64 { return q.Scale }

// ReciprocalQuadratic is Scale over the squared relative error. It diverges
// at the set-point, so values are capped at Cap.
type ReciprocalQuadratic struct {
	Setpoint float64
	Scale    float64
	Cap      float64
}

func NewReciprocalQuadratic(setpoint float64) *ReciprocalQuadratic {
	return &ReciprocalQuadratic{Setpoint: setpoint, Scale: DefaultScale, Cap: 1}
}

func (r *ReciprocalQuadratic) Reward(temp float64) float64 {
	rel := (temp - r.Setpoint) / r.Setpoint
	sq := rel * rel
	if sq == 0 || r.Scale/sq > r.Cap {
		return r.Cap
	}
	return r.Scale / sq
}

func (r *ReciprocalQuadratic) Min() float64 { return 0 }
func (r *ReciprocalQuadratic) Max() float64 { return r.Cap }

// Mountain adds a triangular bonus in [0, 1] peaking at the set-point to
// a constant base reward.
type Mountain struct {
	Setpoint float64
	Width    float64
	Base     float64
}

func NewMountain(setpoint float64) *Mountain {
	return &Mountain{Setpoint: setpoint, Width: 5, Base: 0}
}

func (m *Mountain) Reward(temp float64) float64 {
	bonus := 1 - math.Abs(temp-m.Setpoint)/m.Width
	return m.Base + math.Min(1, math.Max(0, bonus))
}

func (m *Mountain) Min() float64 { return m.Base }
func (m *Mountain) Max() float64 { return m.Base + 1 }

// Constant pays Value for every non-terminal step.
type Constant struct {
	Value float64
}

func NewConstant(value float64) *Constant {
	return &Constant{Value: value}
}

func (c *Constant) Reward(float64) float64 { return c.Value }
func (c *Constant) Min() float64           { return c.Value }
func (c *Constant) Max() float64           { return c.Value }
