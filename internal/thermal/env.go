package thermal

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/san-kum/tempctrl/internal/dynamo"
	"github.com/san-kum/tempctrl/internal/gym"
	"github.com/san-kum/tempctrl/internal/integrators"
	"github.com/san-kum/tempctrl/internal/physics"
	"github.com/san-kum/tempctrl/internal/spaces"
)

var metadata = gym.Metadata{RenderModes: []string{"human", "rgb_array"}}

type Env struct {
	cfg      Config
	can      *physics.ThermalCan
	obsSpace *spaces.Box

	rng  *rand.Rand
	seed int64

	canTemp     float64
	ambientTemp float64
	heat        float64
	level       float64
	episode     *gym.Episode

	observers []dynamo.Observer
}

var _ gym.Env = (*Env)(nil)

// New validates cfg, seeds the generator and resets the first episode.
// A zero seed is replaced by the wall clock.
func New(cfg Config) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	obsSpace, err := spaces.NewBox(cfg.ObsLow, cfg.ObsHigh)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	e := &Env{
		cfg:      cfg,
		can:      physics.NewThermalCan(cfg.Params, cfg.Ambient),
		obsSpace: obsSpace,
		episode:  gym.NewEpisode(cfg.Warner),
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e.Seed(seed)
	e.reset()
	return e, nil
}

func (e *Env) AddObserver(o dynamo.Observer) { e.observers = append(e.observers, o) }

// Seed reseeds the generator used for initial temperatures and random
// ambient components.
func (e *Env) Seed(seed int64) []int64 {
	e.seed = seed
	e.rng = rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	return []int64{seed}
}

// SeedUsed is the seed the generator was last seeded with, after a zero
// seed has been replaced by the wall clock.
func (e *Env) SeedUsed() int64 { return e.seed }

func (e *Env) Reset(_ context.Context) (gym.Observation, error) {
	return e.reset(), nil
}

func (e *Env) reset() gym.Observation {
	e.canTemp = e.cfg.InitLow + e.rng.Float64()*(e.cfg.InitHigh-e.cfg.InitLow)
	e.heat = 0
	e.level = 0
	e.episode.Reset()
	e.sampleAmbient()
	e.ambientTemp = e.can.Ambient.Temperature(0)
	return e.observation()
}

// Step advances the process by one macro step. The context is unused: a
// simulated step never blocks.
func (e *Env) Step(_ context.Context, action float64) (gym.Transition, error) {
	if !e.cfg.Encoding.Space().Contains([]float64{action}) {
		return gym.Transition{}, fmt.Errorf("%w: %v not in %v", ErrInvalidAction, action, e.cfg.Encoding.Space())
	}
	terminated := e.episode.Terminated()

	heat, level := e.cfg.Encoding.Heat(action, e.level)
	t0 := float64(e.episode.Elapsed()) * e.cfg.MacroStep

	x, err := integrators.Advance(e.cfg.Integrator, e.can, dynamo.State{e.canTemp}, dynamo.Control{heat},
		t0, e.cfg.MacroStep, e.cfg.Integration)
	if err != nil {
		return gym.Transition{}, fmt.Errorf("integrate step %d: %w", e.episode.Elapsed()+1, err)
	}

	steps := e.episode.Advance()
	now := float64(steps) * e.cfg.MacroStep

	e.heat = heat
	e.level = level
	e.canTemp = x[0]
	e.sampleAmbient()
	e.ambientTemp = e.can.Ambient.Temperature(now)

	done := e.outOfBounds(e.canTemp) || (e.cfg.MaxSteps > 0 && steps >= e.cfg.MaxSteps)

	r := 0.0
	if terminated {
		e.episode.AfterDone()
	} else {
		r = e.cfg.Reward.Reward(e.canTemp)
	}
	e.episode.Finish(done)

	obs := e.observation()
	for _, o := range e.observers {
		o.OnStep(dynamo.State(obs), dynamo.Control{heat}, now)
	}

	return gym.Transition{Observation: obs, Reward: r, Done: done, Info: gym.Info{}}, nil
}

func (e *Env) outOfBounds(temp float64) bool {
	return !e.obsSpace.ContainsAt(0, temp)
}

func (e *Env) sampleAmbient() {
	if s, ok := e.can.Ambient.(physics.Sampler); ok {
		s.Sample(e.rng)
	}
}

func (e *Env) observation() gym.Observation {
	return gym.Observation{e.canTemp, e.ambientTemp}
}

func (e *Env) ActionSpace() spaces.Space      { return e.cfg.Encoding.Space() }
func (e *Env) ObservationSpace() spaces.Space { return e.obsSpace }
func (e *Env) Metadata() gym.Metadata         { return metadata }

func (e *Env) Encoding() Encoding                { return e.cfg.Encoding }
func (e *Env) System() *physics.ThermalCan       { return e.can }
func (e *Env) Setpoint() float64                 { return e.cfg.Setpoint }
func (e *Env) MacroStep() float64                { return e.cfg.MacroStep }
func (e *Env) CanTemperature() float64           { return e.canTemp }
func (e *Env) AmbientTemperature() float64       { return e.ambientTemp }
func (e *Env) HeatInput() float64                { return e.heat }
func (e *Env) HeatLevel() float64                { return e.level }
func (e *Env) ElapsedSteps() int                 { return e.episode.Elapsed() }
func (e *Env) StepsBeyondDone() (int, bool)      { return e.episode.StepsBeyondDone() }
func (e *Env) InitialRange() (low, high float64) { return e.cfg.InitLow, e.cfg.InitHigh }
