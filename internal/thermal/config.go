package thermal

import (
	"fmt"

	"github.com/san-kum/tempctrl/internal/dynamo"
	"github.com/san-kum/tempctrl/internal/gym"
	"github.com/san-kum/tempctrl/internal/integrators"
	"github.com/san-kum/tempctrl/internal/physics"
	"github.com/san-kum/tempctrl/internal/reward"
)

// Config is the resolved configuration of one environment. Ambient and
// Integrator carry state, so every Env needs its own instances.
type Config struct {
	Params      physics.Params
	Ambient     physics.Ambient
	Encoding    Encoding
	Reward      reward.Policy
	Integrator  dynamo.Integrator
	Integration dynamo.Config

	MacroStep float64 // seconds per Step
	Setpoint  float64

	InitLow  float64
	InitHigh float64
	ObsLow   []float64
	ObsHigh  []float64
	MaxSteps int // 0 disables the step cap

	Seed   int64
	Warner gym.Warner
}

// DefaultConfig is the vacuum can with 200 heater levels of 1 W, the
// exponential reward around 45 C and a daily ambient swing.
func DefaultConfig() Config {
	enc, _ := NewScaled(200, 1)
	return Config{
		Params:      physics.VacCanParams(),
		Ambient:     physics.NewSineAmbient(),
		Encoding:    enc,
		Reward:      reward.NewExponential(45),
		Integrator:  integrators.NewRK4(),
		Integration: dynamo.DefaultConfig(),
		MacroStep:   10,
		Setpoint:    45,
		InitLow:     15,
		InitHigh:    30,
		ObsLow:      []float64{15, 0},
		ObsHigh:     []float64{60, 50},
		Seed:        1,
	}
}

func (c Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	switch {
	case c.Ambient == nil:
		return fmt.Errorf("ambient model missing")
	case c.Encoding == nil:
		return fmt.Errorf("action encoding missing")
	case c.Reward == nil:
		return fmt.Errorf("reward policy missing")
	case c.Integrator == nil:
		return fmt.Errorf("integrator missing")
	}
	if err := c.Integration.Validate(c.MacroStep); err != nil {
		return err
	}
	if c.InitLow > c.InitHigh {
		return fmt.Errorf("initial range [%g, %g] is empty", c.InitLow, c.InitHigh)
	}
	if len(c.ObsLow) != 2 || len(c.ObsHigh) != 2 {
		return fmt.Errorf("observation bounds need two entries")
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max steps must not be negative, got %d", c.MaxSteps)
	}
	return nil
}
