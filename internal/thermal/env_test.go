package thermal

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/tempctrl/internal/dynamo"
	"github.com/san-kum/tempctrl/internal/physics"
	"github.com/san-kum/tempctrl/internal/reward"
)

func newTestEnv(t *testing.T, mutate func(*Config)) *Env {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	env, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return env
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no ambient", func(c *Config) { c.Ambient = nil }},
		{"no encoding", func(c *Config) { c.Encoding = nil }},
		{"no reward", func(c *Config) { c.Reward = nil }},
		{"no integrator", func(c *Config) { c.Integrator = nil }},
		{"substep not smaller than macro step", func(c *Config) { c.Integration.Dt = 10 }},
		{"zero macro step", func(c *Config) { c.MacroStep = 0 }},
		{"bad params", func(c *Config) { c.Params.Mass = -1 }},
		{"empty init range", func(c *Config) { c.InitLow, c.InitHigh = 30, 15 }},
		{"bad bounds", func(c *Config) { c.ObsLow = []float64{60, 0} }},
		{"negative cap", func(c *Config) { c.MaxSteps = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestStep_InvalidAction(t *testing.T) {
	env := newTestEnv(t, nil)
	before := env.CanTemperature()

	for _, a := range []float64{-1, 200, 1.5, math.NaN()} {
		if _, err := env.Step(context.Background(), a); !errors.Is(err, ErrInvalidAction) {
			t.Errorf("Step(%v): expected ErrInvalidAction, got %v", a, err)
		}
	}
	if env.CanTemperature() != before || env.ElapsedSteps() != 0 {
		t.Error("invalid action must not change the episode")
	}
}

func TestReset_DrawsFromInitialRange(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		obs, err := env.Reset(ctx)
		if err != nil {
			t.Fatalf("Reset: %v", err)
		}
		if obs[0] < 15 || obs[0] > 30 {
			t.Fatalf("initial temperature %v outside [15, 30]", obs[0])
		}
		if obs[1] != physics.StandardAmbient {
			t.Fatalf("ambient at t=0 = %v, want %v", obs[1], physics.StandardAmbient)
		}
		if _, ok := env.StepsBeyondDone(); ok {
			t.Fatal("reset must clear steps beyond done")
		}
		if env.ElapsedSteps() != 0 {
			t.Fatal("reset must zero elapsed steps")
		}
	}
}

func TestStep_FixedPoint(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Ambient = physics.NewConstantAmbient()
		c.InitLow, c.InitHigh = 20, 20
	})

	for i := 0; i < 10; i++ {
		tr, err := env.Step(context.Background(), 0)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if math.Abs(tr.Observation[0]-20) > 1e-12 {
			t.Fatalf("step %d moved fixed point to %v", i, tr.Observation[0])
		}
	}
}

func TestStep_MatchesClosedForm(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Ambient = physics.NewConstantAmbient()
		c.InitLow, c.InitHigh = 30, 30
	})
	p := physics.VacCanParams()
	heat := 50.0

	tr, err := env.Step(context.Background(), heat)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}

	eq := physics.StandardAmbient + heat/(p.Mass*p.HeatCapacity)/p.LossRate()
	want := eq + (30-eq)*math.Exp(-p.LossRate()*10)
	if math.Abs(tr.Observation[0]-want) > 1e-9 {
		t.Errorf("got %.12f, want %.12f", tr.Observation[0], want)
	}
	if env.HeatInput() != heat {
		t.Errorf("HeatInput() = %v, want %v", env.HeatInput(), heat)
	}
}

func TestStep_AmbientFollowsElapsedTime(t *testing.T) {
	env := newTestEnv(t, nil)
	sine := physics.NewSineAmbient()

	for i := 1; i <= 5; i++ {
		tr, err := env.Step(context.Background(), 0)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if want := sine.Temperature(float64(i) * 10); tr.Observation[1] != want {
			t.Errorf("step %d ambient = %v, want %v", i, tr.Observation[1], want)
		}
		if env.ElapsedSteps() != i {
			t.Errorf("ElapsedSteps() = %d, want %d", env.ElapsedSteps(), i)
		}
	}
}

func TestOutOfBounds_Inclusive(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		temp float64
		want bool
	}{
		{15, false},
		{60, false},
		{14, true},
		{61, true},
		{45, false},
	}
	for _, tt := range tests {
		if got := env.outOfBounds(tt.temp); got != tt.want {
			t.Errorf("outOfBounds(%v) = %v, want %v", tt.temp, got, tt.want)
		}
	}
}

func TestStep_StepCap(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Ambient = physics.NewConstantAmbient()
		c.InitLow, c.InitHigh = 20, 20
		c.MaxSteps = 3
	})

	for i := 1; i <= 3; i++ {
		tr, err := env.Step(context.Background(), 0)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if tr.Done != (i == 3) {
			t.Errorf("step %d: done = %v", i, tr.Done)
		}
	}
}

type collector struct {
	states []dynamo.State
	times  []float64
}

func (c *collector) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	c.states = append(c.states, x.Clone())
	c.times = append(c.times, t)
}

func TestStep_NotifiesObservers(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.Reward = reward.NewWindow(45, 10) })
	obs := &collector{}
	env.AddObserver(obs)

	for i := 0; i < 4; i++ {
		if _, err := env.Step(context.Background(), 10); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if len(obs.states) != 4 || obs.times[3] != 40 {
		t.Errorf("observer saw %d steps, last at t=%v", len(obs.states), obs.times)
	}
}

func TestMetadataAndSpaces(t *testing.T) {
	env := newTestEnv(t, nil)

	if got := env.Metadata().RenderModes; len(got) != 2 || got[0] != "human" {
		t.Errorf("RenderModes = %v", got)
	}
	if !env.ObservationSpace().Contains([]float64{15, 0}) {
		t.Error("observation space should contain its lower corner")
	}
	if !env.ActionSpace().Contains([]float64{199}) {
		t.Error("action space should contain 199")
	}
	if seeds := env.Seed(99); len(seeds) != 1 || seeds[0] != 99 {
		t.Errorf("Seed returned %v", seeds)
	}
}

func TestSeedUsed(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.Seed = 0 })
	if env.SeedUsed() == 0 {
		t.Error("zero seed should be replaced by the wall clock")
	}

	if got := env.Seed(7); len(got) != 1 || got[0] != 7 || env.SeedUsed() != 7 {
		t.Errorf("Seed(7) = %v, SeedUsed() = %d", got, env.SeedUsed())
	}
}
