// Package experiment wires configs into environments and runs baseline
// policies through them.
package experiment

import (
	"context"
	"fmt"
	"sync"

	"github.com/san-kum/tempctrl/internal/config"
	"github.com/san-kum/tempctrl/internal/gym"
	"github.com/san-kum/tempctrl/internal/metrics"
)

// DefaultSteps bounds an episode whose config has no step cap.
const DefaultSteps = 360

// InBand is the half width used by the in_band metric.
const InBand = 1.0

// Result is the trace of one episode. Index 0 of Times and Observations is
// the reset observation; the other slices hold one entry per step.
type Result struct {
	Seed         int64
	Times        []float64
	Observations []gym.Observation
	Actions      []float64
	Heat         []float64
	Rewards      []float64
	Dones        []bool
	Metrics      map[string]float64
	Return       float64
}

func (r *Result) Steps() int { return len(r.Actions) }

type Experiment struct {
	cfg      *config.Config
	registry *Registry
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg, registry: NewRegistry()}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// Run plays one episode with the configured controller. steps caps the
// episode when the config does not; zero means DefaultSteps. A zero seed
// is drawn from the wall clock and the drawn value is recorded in the
// result.
func (e *Experiment) Run(ctx context.Context, seed int64, steps int) (*Result, error) {
	cfg := e.cfg.Clone()
	cfg.Seed = seed
	if cfg.MaxSteps > 0 {
		steps = cfg.MaxSteps
	} else if steps <= 0 {
		steps = DefaultSteps
	}

	env, err := e.registry.NewEnv(cfg)
	if err != nil {
		return nil, err
	}
	seed = env.SeedUsed()
	cfg.Seed = seed
	policy, err := e.registry.Policy(cfg, env, seed)
	if err != nil {
		return nil, err
	}
	ms := metrics.Standard(env.Setpoint(), InBand)
	env.AddObserver(ms)

	obs, err := env.Reset(ctx)
	if err != nil {
		return nil, err
	}
	policy.Reset()

	res := &Result{
		Seed:         seed,
		Times:        make([]float64, 0, steps+1),
		Observations: make([]gym.Observation, 0, steps+1),
		Actions:      make([]float64, 0, steps),
		Heat:         make([]float64, 0, steps),
		Rewards:      make([]float64, 0, steps),
		Dones:        make([]bool, 0, steps),
	}
	res.Times = append(res.Times, 0)
	res.Observations = append(res.Observations, obs.Clone())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		t := float64(i) * env.MacroStep()
		a := policy.Action(obs, t)
		tr, err := env.Step(ctx, a)
		if err != nil {
			return res, fmt.Errorf("step %d: %w", i+1, err)
		}
		obs = tr.Observation

		res.Times = append(res.Times, t+env.MacroStep())
		res.Observations = append(res.Observations, obs.Clone())
		res.Actions = append(res.Actions, a)
		res.Heat = append(res.Heat, env.HeatInput())
		res.Rewards = append(res.Rewards, tr.Reward)
		res.Dones = append(res.Dones, tr.Done)
		res.Return += tr.Reward

		if tr.Done {
			break
		}
	}

	res.Metrics = ms.Values()
	res.Metrics["return"] = res.Return
	res.Metrics["steps"] = float64(res.Steps())
	return res, nil
}

// Ensemble runs n episodes in parallel with seeds seedStart, seedStart+1, ...
func (e *Experiment) Ensemble(ctx context.Context, n int, seedStart int64, steps int) ([]*Result, error) {
	results := make([]*Result, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx], errs[idx] = e.Run(ctx, seedStart+int64(idx), steps)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Returns collects the episode returns of rs.
func Returns(rs []*Result) []float64 {
	out := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.Return
	}
	return out
}
