package control

import (
	"github.com/san-kum/tempctrl/internal/dynamo"
	"github.com/san-kum/tempctrl/internal/physics"
)

// StateFeedback applies u = ff(x) - K (x - Target).
type StateFeedback struct {
	K           []float64
	Target      dynamo.State
	Feedforward func(x dynamo.State) float64
}

func NewStateFeedback(k []float64, target dynamo.State, ff func(dynamo.State) float64) *StateFeedback {
	return &StateFeedback{K: k, Target: target, Feedforward: ff}
}

func (s *StateFeedback) Compute(x dynamo.State, t float64) dynamo.Control {
	u := 0.0
	if s.Feedforward != nil {
		u = s.Feedforward(x)
	}
	for j := range x {
		if j >= len(s.K) {
			break
		}
		target := 0.0
		if j < len(s.Target) {
			target = s.Target[j]
		}
		u -= s.K[j] * (x[j] - target)
	}
	return dynamo.Control{u}
}

func (s *StateFeedback) Reset() {}

// NewThermalFeedback regulates the can temperature to setpoint. The
// feedforward is the power that holds setpoint against the observed
// ambient, so gain only has to reject the transient.
func NewThermalFeedback(p physics.Params, setpoint, gain float64) *StateFeedback {
	return NewStateFeedback(
		[]float64{gain},
		dynamo.State{setpoint},
		func(x dynamo.State) float64 {
			if len(x) < 2 {
				return 0
			}
			return p.HoldingPower(setpoint, x[1])
		},
	)
}
