package thermal

import (
	"fmt"
	"math"

	"github.com/san-kum/tempctrl/internal/spaces"
)

// Encoding maps agent actions to heater power. level is the commanded
// heater level carried between steps; only Split uses it.
type Encoding interface {
	Space() spaces.Space
	Heat(action, level float64) (heat, nextLevel float64)
	// Action returns the valid action that best requests demand watts.
	Action(demand, level float64) float64
}

// Scaled is a discrete space where action i requests i*Scale watts.
type Scaled struct {
	space *spaces.Discrete
	Scale float64
}

func NewScaled(n int, scale float64) (*Scaled, error) {
	space, err := spaces.NewDiscrete(n)
	if err != nil {
		return nil, err
	}
	if scale <= 0 {
		return nil, fmt.Errorf("action scale must be positive, got %g", scale)
	}
	return &Scaled{space: space, Scale: scale}, nil
}

func (s *Scaled) Space() spaces.Space { return s.space }

func (s *Scaled) Heat(action, level float64) (float64, float64) {
	heat := action * s.Scale
	return heat, heat
}

func (s *Scaled) Action(demand, level float64) float64 {
	idx := math.Round(demand / s.Scale)
	return math.Min(float64(s.space.N-1), math.Max(0, idx))
}

// Continuous passes the action through as watts within [0, Max].
type Continuous struct {
	space *spaces.Box
}

func NewContinuous(maxHeat float64) (*Continuous, error) {
	space, err := spaces.NewBox([]float64{0}, []float64{maxHeat})
	if err != nil {
		return nil, err
	}
	return &Continuous{space: space}, nil
}

func (c *Continuous) Space() spaces.Space { return c.space }

func (c *Continuous) Heat(action, level float64) (float64, float64) {
	return action, action
}

func (c *Continuous) Action(demand, level float64) float64 {
	return c.space.Clip([]float64{demand})[0]
}

// Split packs a ternary increment and an enable flag into Discrete(6):
// action = 2*inc + enable with inc 0 (decrease), 1 (hold), 2 (increase).
// The increment moves the commanded level by Step watts within [0, Max];
// with enable unset the heater is off but the level is kept.
type Split struct {
	space *spaces.Discrete
	Step  float64
	Max   float64
}

const (
	splitDecrease = 0
	splitHold     = 1
	splitIncrease = 2
)

func NewSplit(step, maxHeat float64) (*Split, error) {
	if step <= 0 || maxHeat <= 0 {
		return nil, fmt.Errorf("split encoding needs positive step and max, got %g and %g", step, maxHeat)
	}
	space, _ := spaces.NewDiscrete(6)
	return &Split{space: space, Step: step, Max: maxHeat}, nil
}

func (s *Split) Space() spaces.Space { return s.space }

// Decode splits a valid action into its increment and enable parts.
func (s *Split) Decode(action float64) (inc int, enable bool) {
	a := int(action)
	return a / 2, a%2 == 1
}

func (s *Split) Heat(action, level float64) (float64, float64) {
	inc, enable := s.Decode(action)
	next := level + float64(inc-splitHold)*s.Step
	next = math.Min(s.Max, math.Max(0, next))
	if !enable {
		return 0, next
	}
	return next, next
}

func (s *Split) Action(demand, level float64) float64 {
	if demand <= 0 {
		return 2 * splitDecrease
	}
	inc := splitHold
	switch {
	case demand > level+s.Step/2:
		inc = splitIncrease
	case demand < level-s.Step/2:
		inc = splitDecrease
	}
	return float64(2*inc + 1)
}
