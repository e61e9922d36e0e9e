package control

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/tempctrl/internal/dynamo"
	"github.com/san-kum/tempctrl/internal/gym"
	"github.com/san-kum/tempctrl/internal/physics"
	"github.com/san-kum/tempctrl/internal/thermal"
)

func TestPID_Proportional(t *testing.T) {
	pid := NewPID(2, 0, 0, 45)
	u := pid.Compute(dynamo.State{40, 20}, 0)
	if u[0] != 10 {
		t.Errorf("first output = %v, want 10", u[0])
	}
}

func TestPID_IntegralAccumulates(t *testing.T) {
	pid := NewPID(0, 0.5, 0, 45)
	pid.Compute(dynamo.State{44}, 0)
	u := pid.Compute(dynamo.State{44}, 10)
	// integral of error 1 over 10s
	if math.Abs(u[0]-5) > 1e-12 {
		t.Errorf("output = %v, want 5", u[0])
	}

	pid.Limit = 2
	u = pid.Compute(dynamo.State{44}, 20)
	if math.Abs(u[0]-2) > 1e-12 {
		t.Errorf("limited output = %v, want 2", u[0])
	}

	pid.Reset()
	if u := pid.Compute(dynamo.State{44}, 30); u[0] != 0 {
		t.Errorf("output after reset = %v, want 0", u[0])
	}
}

func TestPID_SetParam(t *testing.T) {
	pid := NewPID(1, 0, 0, 45)
	var _ dynamo.Configurable = pid

	if err := pid.SetParam("Kp", 3); err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if pid.GetParams()["Kp"] != 3 {
		t.Errorf("Kp = %v", pid.GetParams()["Kp"])
	}
	if err := pid.SetParam("Kx", 1); !errors.Is(err, dynamo.ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
}

func TestStateFeedback_HoldsAtSetpoint(t *testing.T) {
	p := physics.VacCanParams()
	fb := NewThermalFeedback(p, 45, 10)

	u := fb.Compute(dynamo.State{45, 21}, 0)
	if want := p.HoldingPower(45, 21); math.Abs(u[0]-want) > 1e-12 {
		t.Errorf("at setpoint u = %v, want holding power %v", u[0], want)
	}
	u = fb.Compute(dynamo.State{44, 21}, 0)
	if want := p.HoldingPower(45, 21) + 10; math.Abs(u[0]-want) > 1e-12 {
		t.Errorf("one degree low u = %v, want %v", u[0], want)
	}
}

func TestDemand_MapsThroughEncoding(t *testing.T) {
	g := NewWithT(t)

	scaled, err := thermal.NewScaled(200, 1)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(NewDemand(NewConstant(17.4), scaled, nil).Action(nil, 0)).To(Equal(17.0))
	g.Expect(NewDemand(NewConstant(500), scaled, nil).Action(nil, 0)).To(Equal(199.0))
	g.Expect(NewDemand(NewConstant(-3), scaled, nil).Action(nil, 0)).To(Equal(0.0))

	split, err := thermal.NewSplit(5, 100)
	g.Expect(err).NotTo(HaveOccurred())
	level := 20.0
	a := NewDemand(NewConstant(40), split, func() float64 { return level }).Action(nil, 0)
	heat, next := split.Heat(a, level)
	g.Expect(next).To(Equal(25.0))
	g.Expect(heat).To(Equal(25.0))
}

func TestRandom_StaysInSpace(t *testing.T) {
	scaled, _ := thermal.NewScaled(10, 1)
	r := NewRandom(scaled.Space(), 7)
	for i := 0; i < 100; i++ {
		a := r.Action(gym.Observation{30, 20}, 0)
		if !scaled.Space().Contains([]float64{a}) {
			t.Fatalf("action %v outside %v", a, scaled.Space())
		}
	}
}

func TestFeedback_ClosedLoopReachesSetpoint(t *testing.T) {
	cfg := thermal.DefaultConfig()
	cfg.Ambient = physics.NewConstantAmbient()
	cfg.Seed = 3
	env, err := thermal.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	obs, _ := env.Reset(ctx)

	policy := NewDemand(NewThermalFeedback(cfg.Params, env.Setpoint(), 50), env.Encoding(), env.HeatLevel)
	for i := 0; i < 300; i++ {
		tr, err := env.Step(ctx, policy.Action(obs, float64(i)*env.MacroStep()))
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if tr.Done {
			t.Fatalf("episode ended at step %d with T=%.2f", i, tr.Observation[0])
		}
		obs = tr.Observation
	}
	if math.Abs(obs[0]-45) > 0.5 {
		t.Errorf("final temperature %.3f, want within 0.5 of 45", obs[0])
	}
}
