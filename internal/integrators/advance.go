package integrators

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/tempctrl/internal/dynamo"
)

// Advance integrates dyn from t0 over span seconds with u held constant
// (zero-order hold) and returns only the end state. Fixed stepping uses
// round(span/Dt) equal sub-steps so the end point lands exactly on
// t0+span. Adaptive stepping clips the last step to the remaining span.
func Advance(integ dynamo.Integrator, dyn dynamo.System, x0 dynamo.State, u dynamo.Control, t0, span float64, cfg dynamo.Config) (dynamo.State, error) {
	if err := cfg.Validate(span); err != nil {
		return nil, err
	}
	if len(x0) != dyn.StateDim() {
		return nil, fmt.Errorf("advance: state has %d entries, system wants %d: %w",
			len(x0), dyn.StateDim(), dynamo.ErrDimensionMismatch)
	}

	var (
		x   dynamo.State
		err error
	)
	if cfg.Adaptive {
		x, err = advanceAdaptive(integ, dyn, x0, u, t0, span, cfg)
	} else {
		x = advanceFixed(integ, dyn, x0, u, t0, span, cfg.Dt)
	}
	if err != nil {
		return nil, err
	}

	if cfg.ValidateState && !x.IsValid() {
		return nil, &dynamo.SimulationError{Time: t0 + span, State: x, Wrapped: dynamo.ErrInvalidState}
	}
	return x, nil
}

// SubSteps is the number of fixed sub-steps Advance takes over span.
func SubSteps(span, dt float64) int {
	n := int(math.Round(span / dt))
	if n < 1 {
		n = 1
	}
	return n
}

func advanceFixed(integ dynamo.Integrator, dyn dynamo.System, x0 dynamo.State, u dynamo.Control, t0, span, dt float64) dynamo.State {
	n := SubSteps(span, dt)
	h := span / float64(n)

	x := x0.Clone()
	for i := 0; i < n; i++ {
		x = integ.Step(dyn, x, u, t0+float64(i)*h, h)
	}
	return x
}

func advanceAdaptive(integ dynamo.Integrator, dyn dynamo.System, x0 dynamo.State, u dynamo.Control, t0, span float64, cfg dynamo.Config) (dynamo.State, error) {
	x := x0.Clone()
	t := t0
	end := t0 + span
	dt := cfg.Dt

	for end-t > 1e-12*math.Max(1, math.Abs(end)) {
		h := math.Min(dt, end-t)

		newX, next, err := adaptiveStep(integ, dyn, x, u, t, h, cfg)
		if errors.Is(err, ErrStepRejected) {
			if next < cfg.MinDt {
				return nil, &dynamo.SimulationError{Time: t, State: x, Wrapped: dynamo.ErrStepTooSmall}
			}
			dt = next
			continue
		}
		if err != nil {
			return nil, err
		}

		x = newX
		t += h
		dt = next
		if cfg.MaxDt > 0 && dt > cfg.MaxDt {
			dt = cfg.MaxDt
		}
	}
	return x, nil
}

// adaptiveStep uses the integrator's own error control when it has one and
// falls back to step doubling otherwise.
func adaptiveStep(integ dynamo.Integrator, dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64, cfg dynamo.Config) (dynamo.State, float64, error) {
	if adaptive, ok := integ.(dynamo.AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(dyn, x, u, t, dt, cfg.Tolerance)
	}

	x1 := integ.Step(dyn, x, u, t, dt)
	xHalf := integ.Step(dyn, x, u, t, dt/2)
	x2 := integ.Step(dyn, xHalf, u, t+dt/2, dt/2)

	errNorm := x1.Sub(x2).Norm()
	if errNorm > cfg.Tolerance {
		return x, dt / 2, ErrStepRejected
	}
	if errNorm < cfg.Tolerance/10 {
		dt *= 2
	}
	return x2, dt, nil
}
