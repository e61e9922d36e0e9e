package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/tempctrl/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int   { return 2 }
func (h *harmonicOscillator) ControlDim() int { return 0 }

func (h *harmonicOscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// relaxation is dx/dt = -a (x - target) + u, the same shape as the can model.
type relaxation struct {
	a      float64
	target float64
}

func (r *relaxation) StateDim() int   { return 1 }
func (r *relaxation) ControlDim() int { return 1 }

func (r *relaxation) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{-r.a*(x[0]-r.target) + u[0]}
}

func (r *relaxation) exact(x0, u, t float64) float64 {
	eq := r.target + u/r.a
	return eq + (x0-eq)*math.Exp(-r.a*t)
}

func TestEulerStep(t *testing.T) {
	x := dynamo.State{1.0, 2.0}
	got := NewEuler().Step(&harmonicOscillator{}, x, nil, 0, 0.5)

	if got[0] != 2.0 || got[1] != 1.5 {
		t.Errorf("Step = %v, want [2 1.5]", got)
	}
	if x[0] != 1.0 || x[1] != 2.0 {
		t.Errorf("input state modified: %v", x)
	}
}

func TestRK4Accuracy(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	dt := 0.01

	for i := 0; i < 10000; i++ {
		x = integrator.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	drift := math.Abs(dyn.Energy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestRK45_AdaptiveStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x, newDt, err := integrator.StepAdaptive(dyn, x0, nil, 0, 0.1, 1e-8)
	if err != nil && !errors.Is(err, ErrStepRejected) {
		t.Fatalf("StepAdaptive returned error: %v", err)
	}
	if !x.IsValid() {
		t.Error("StepAdaptive produced invalid state")
	}
	if newDt <= 0 {
		t.Errorf("StepAdaptive returned invalid dt: %f", newDt)
	}
}

func TestRK45_RejectsLargeStep(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	x, newDt, err := integrator.StepAdaptive(dyn, x0, nil, 0, 5.0, 1e-12)
	if !errors.Is(err, ErrStepRejected) {
		t.Fatalf("expected ErrStepRejected, got %v", err)
	}
	if newDt >= 5.0 {
		t.Errorf("rejected step should shrink dt, got %f", newDt)
	}
	if x[0] != x0[0] || x[1] != x0[1] {
		t.Errorf("rejected step must return the input state, got %v", x)
	}
}

func TestAdvance_MatchesExactSolution(t *testing.T) {
	dyn := &relaxation{a: 0.05, target: 20}
	x0 := dynamo.State{30}
	u := dynamo.Control{0.2}
	span := 10.0

	want := dyn.exact(30, 0.2, span)

	tests := []struct {
		name  string
		integ dynamo.Integrator
		cfg   dynamo.Config
		tol   float64
	}{
		{"euler", NewEuler(), dynamo.Config{Dt: 0.01}, 1e-2},
		{"rk4", NewRK4(), dynamo.Config{Dt: 0.1}, 1e-9},
		{"rk45 fixed", NewRK45(), dynamo.Config{Dt: 0.1}, 1e-9},
		{"rk45 adaptive", NewRK45(), dynamo.Config{Dt: 0.1, Adaptive: true, Tolerance: 1e-10, MinDt: 1e-9, MaxDt: 5}, 1e-6},
		{"rk4 step doubling", NewRK4(), dynamo.Config{Dt: 0.5, Adaptive: true, Tolerance: 1e-10, MinDt: 1e-9}, 1e-6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := Advance(tt.integ, dyn, x0, u, 0, span, tt.cfg)
			if err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if math.Abs(x[0]-want) > tt.tol {
				t.Errorf("got %.10f, want %.10f", x[0], want)
			}
		})
	}
}

func TestAdvance_FixedPoint(t *testing.T) {
	dyn := &relaxation{a: 0.05, target: 20}
	x, err := Advance(NewRK4(), dyn, dynamo.State{20}, dynamo.Control{0}, 0, 10, dynamo.DefaultConfig())
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if math.Abs(x[0]-20) > 1e-12 {
		t.Errorf("fixed point drifted to %v", x[0])
	}
}

func TestAdvance_DoesNotMutateInput(t *testing.T) {
	dyn := &relaxation{a: 0.05, target: 20}
	x0 := dynamo.State{40}
	if _, err := Advance(NewRK4(), dyn, x0, dynamo.Control{0}, 0, 10, dynamo.DefaultConfig()); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if x0[0] != 40 {
		t.Errorf("input state mutated to %v", x0[0])
	}
}

func TestAdvance_Errors(t *testing.T) {
	dyn := &relaxation{a: 0.05, target: 20}

	_, err := Advance(NewRK4(), dyn, dynamo.State{1, 2}, dynamo.Control{0}, 0, 10, dynamo.DefaultConfig())
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}

	_, err = Advance(NewRK4(), dyn, dynamo.State{1}, dynamo.Control{0}, 0, 0.05, dynamo.DefaultConfig())
	if err == nil {
		t.Error("expected error when sub-step is not smaller than span")
	}

	_, err = Advance(NewRK4(), dyn, dynamo.State{math.Inf(1)}, dynamo.Control{0}, 0, 10, dynamo.DefaultConfig())
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestSubSteps(t *testing.T) {
	if n := SubSteps(10, 0.1); n != 100 {
		t.Errorf("SubSteps(10, 0.1) = %d, want 100", n)
	}
	if n := SubSteps(1, 0.3); n != 3 {
		t.Errorf("SubSteps(1, 0.3) = %d, want 3", n)
	}
}
