package physics

import (
	"fmt"

	"github.com/san-kum/tempctrl/internal/dynamo"
)

// Params is the physical parameter set of a heated can. All values are SI.
type Params struct {
	Conductivity float64 // k, thermal conductivity of the foam (W/m/K)
	Mass         float64 // m, mass of the can (kg)
	HeatCapacity float64 // C, specific heat capacity of the can (J/kg/K)
	Area         float64 // A, cross-section normal to conduction (m^2)
	Thickness    float64 // d, foam thickness (m)
}

// VacCanParams is the vacuum can of the coating thermal noise experiment.
func VacCanParams() Params {
	return Params{
		Conductivity: 1.136 * 25e-3,
		Mass:         15.76,
		HeatCapacity: 505,
		Area:         1.3,
		Thickness:    5.08e-2,
	}
}

// SeismParams is the seismometer can. It shares the vacuum can numbers
// until measured values are available.
func SeismParams() Params {
	return VacCanParams()
}

func (p Params) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"conductivity", p.Conductivity},
		{"mass", p.Mass},
		{"heat_capacity", p.HeatCapacity},
		{"area", p.Area},
		{"thickness", p.Thickness},
	}
	for _, c := range checks {
		if c.value <= 0 {
			return fmt.Errorf("%s must be positive, got %g: %w", c.name, c.value, dynamo.ErrParameterBounds)
		}
	}
	return nil
}

// LossRate is k*A/(d*m*C) in 1/s.
func (p Params) LossRate() float64 {
	return p.Conductivity * p.Area / (p.Thickness * p.Mass * p.HeatCapacity)
}

// TimeConstant is the e-folding time of the can temperature in seconds.
func (p Params) TimeConstant() float64 {
	return 1 / p.LossRate()
}

// HoldingPower is the heat input that keeps the can at temp when the
// surroundings sit at ambient.
func (p Params) HoldingPower(temp, ambient float64) float64 {
	return p.Conductivity * p.Area * (temp - ambient) / p.Thickness
}

type ThermalCan struct {
	Params  Params
	Ambient Ambient
}

func NewThermalCan(params Params, ambient Ambient) *ThermalCan {
	return &ThermalCan{Params: params, Ambient: ambient}
}

func (c *ThermalCan) StateDim() int {
	return 1
}

func (c *ThermalCan) ControlDim() int {
	return 1
}

func (c *ThermalCan) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	p := c.Params
	heat := 0.0
	if len(u) > 0 {
		heat = u[0]
	}
	tAmb := c.Ambient.Temperature(t)
	dT := -p.Conductivity*p.Area*(x[0]-tAmb)/(p.Thickness*p.Mass*p.HeatCapacity) +
		heat/(p.Mass*p.HeatCapacity)
	return dynamo.State{dT}
}

func (c *ThermalCan) GetParams() map[string]float64 {
	return map[string]float64{
		"k": c.Params.Conductivity,
		"m": c.Params.Mass,
		"C": c.Params.HeatCapacity,
		"A": c.Params.Area,
		"d": c.Params.Thickness,
	}
}

func (c *ThermalCan) SetParam(name string, value float64) error {
	next := c.Params
	switch name {
	case "k":
		next.Conductivity = value
	case "m":
		next.Mass = value
	case "C":
		next.HeatCapacity = value
	case "A":
		next.Area = value
	case "d":
		next.Thickness = value
	default:
		return fmt.Errorf("%q: %w", name, dynamo.ErrUnknownParam)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	c.Params = next
	return nil
}
