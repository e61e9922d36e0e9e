package physics

import (
	"math"
	"math/rand/v2"
)

const (
	StandardAmbient = 20.0        // degrees Celsius
	AmbientPeriod   = 24 * 3600.0 // seconds
	AmbientSwing    = 5.0         // degrees Celsius
)

// Ambient gives the surrounding temperature at simulated time t (seconds
// since reset).
type Ambient interface {
	Temperature(t float64) float64
}

// Sampler is implemented by ambient models with a random component.
type Sampler interface {
	Sample(r *rand.Rand)
}

type ConstantAmbient struct {
	Base float64
}

func NewConstantAmbient() *ConstantAmbient {
	return &ConstantAmbient{Base: StandardAmbient}
}

func (a *ConstantAmbient) Temperature(t float64) float64 {
	return a.Base
}

type SineAmbient struct {
	Base      float64
	Amplitude float64
	Period    float64
}

func NewSineAmbient() *SineAmbient {
	return &SineAmbient{Base: StandardAmbient, Amplitude: AmbientSwing, Period: AmbientPeriod}
}

func (a *SineAmbient) Temperature(t float64) float64 {
	return a.Base + a.Amplitude*math.Sin(2*math.Pi*t/a.Period)
}

// RandomAmbient is Base plus a uniform draw in [0, Spread).
type RandomAmbient struct {
	Base   float64
	Spread float64
	offset float64
}

func NewRandomAmbient() *RandomAmbient {
	return &RandomAmbient{Base: StandardAmbient, Spread: AmbientSwing}
}

func (a *RandomAmbient) Sample(r *rand.Rand) {
	a.offset = r.Float64() * a.Spread
}

func (a *RandomAmbient) Temperature(t float64) float64 {
	return a.Base + a.offset
}

// SineRandomAmbient splits the swing between a daily sinusoid and a
// uniform draw.
type SineRandomAmbient struct {
	Sine   SineAmbient
	Random RandomAmbient
}

func NewSineRandomAmbient() *SineRandomAmbient {
	return &SineRandomAmbient{
		Sine:   SineAmbient{Base: StandardAmbient, Amplitude: AmbientSwing / 2, Period: AmbientPeriod},
		Random: RandomAmbient{Spread: AmbientSwing / 2},
	}
}

func (a *SineRandomAmbient) Sample(r *rand.Rand) {
	a.Random.Sample(r)
}

func (a *SineRandomAmbient) Temperature(t float64) float64 {
	return a.Sine.Temperature(t) + a.Random.Temperature(t)
}
