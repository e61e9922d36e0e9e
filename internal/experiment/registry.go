package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/tempctrl/internal/config"
	"github.com/san-kum/tempctrl/internal/control"
	"github.com/san-kum/tempctrl/internal/dynamo"
	"github.com/san-kum/tempctrl/internal/integrators"
	"github.com/san-kum/tempctrl/internal/physics"
	"github.com/san-kum/tempctrl/internal/reward"
	"github.com/san-kum/tempctrl/internal/thermal"
)

// Registry turns config tokens into fresh components. Ambient models and
// integrators hold per-run state, so every lookup builds new instances.
type Registry struct {
	params      map[string]func() physics.Params
	ambients    map[string]func() physics.Ambient
	integrators map[string]func() dynamo.Integrator
	rewards     map[string]func(setpoint, scale float64) reward.Policy
}

func NewRegistry() *Registry {
	r := &Registry{
		params:      make(map[string]func() physics.Params),
		ambients:    make(map[string]func() physics.Ambient),
		integrators: make(map[string]func() dynamo.Integrator),
		rewards:     make(map[string]func(float64, float64) reward.Policy),
	}

	r.params["Vaccan"] = physics.VacCanParams
	r.params["Seism"] = physics.SeismParams

	r.ambients["Tcon"] = func() physics.Ambient { return physics.NewConstantAmbient() }
	r.ambients["Tsin"] = func() physics.Ambient { return physics.NewSineAmbient() }
	r.ambients["Trand"] = func() physics.Ambient { return physics.NewRandomAmbient() }
	r.ambients["Tsinrand"] = func() physics.Ambient { return physics.NewSineRandomAmbient() }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	r.rewards["Rw10"] = func(sp, scale float64) reward.Policy {
		w := reward.NewWindow(sp, 10)
		w.Value = orDefault(scale, w.Value)
		return w
	}
	r.rewards["Rw4"] = func(sp, scale float64) reward.Policy {
		w := reward.NewWindow(sp, 4)
		w.Value = orDefault(scale, w.Value)
		return w
	}
	r.rewards["Rexp"] = func(sp, scale float64) reward.Policy {
		e := reward.NewExponential(sp)
		e.Scale = orDefault(scale, e.Scale)
		return e
	}
	r.rewards["Rquad"] = func(sp, scale float64) reward.Policy {
		q := reward.NewQuadratic(sp)
		q.Scale = orDefault(scale, q.Scale)
		return q
	}
	r.rewards["Rrecip"] = func(sp, scale float64) reward.Policy {
		q := reward.NewReciprocalQuadratic(sp)
		q.Scale = orDefault(scale, q.Scale)
		return q
	}
	r.rewards["Rmountain"] = func(sp, scale float64) reward.Policy {
		m := reward.NewMountain(sp)
		m.Base = scale
		return m
	}
	r.rewards["Rconst"] = func(sp, scale float64) reward.Policy {
		return reward.NewConstant(orDefault(scale, 1))
	}

	return r
}

func orDefault(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

// Thermal resolves cfg into an environment configuration.
func (r *Registry) Thermal(cfg *config.Config) (thermal.Config, error) {
	if err := cfg.Validate(); err != nil {
		return thermal.Config{}, err
	}
	macro, _ := cfg.MacroStep()

	params, err := r.Params(cfg.ThermalParams, cfg.Params)
	if err != nil {
		return thermal.Config{}, err
	}
	enc, err := r.Encoding(cfg)
	if err != nil {
		return thermal.Config{}, err
	}

	integ := dynamo.DefaultConfig()
	integ.Dt = cfg.Substep
	integ.Tolerance = cfg.Tolerance
	integ.MaxDt = macro
	integ.Adaptive = cfg.Integrator == "rk45"

	return thermal.Config{
		Params:      params,
		Ambient:     r.ambients[cfg.Ambient](),
		Encoding:    enc,
		Reward:      r.rewards[cfg.Reward](cfg.Setpoint, cfg.RewardScale),
		Integrator:  r.integrators[cfg.Integrator](),
		Integration: integ,
		MacroStep:   macro,
		Setpoint:    cfg.Setpoint,
		InitLow:     cfg.InitLow,
		InitHigh:    cfg.InitHigh,
		ObsLow:      append([]float64(nil), cfg.ObsLow...),
		ObsHigh:     append([]float64(nil), cfg.ObsHigh...),
		MaxSteps:    cfg.MaxSteps,
		Seed:        cfg.Seed,
	}, nil
}

func (r *Registry) NewEnv(cfg *config.Config) (*thermal.Env, error) {
	tc, err := r.Thermal(cfg)
	if err != nil {
		return nil, err
	}
	return thermal.New(tc)
}

// Params looks up a parameter set and applies overrides in key order.
func (r *Registry) Params(name string, overrides map[string]float64) (physics.Params, error) {
	fn, ok := r.params[name]
	if !ok {
		return physics.Params{}, fmt.Errorf("%w: %w %q", config.ErrInvalidConfig, config.ErrUnknownParams, name)
	}
	can := physics.NewThermalCan(fn(), nil)
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := can.SetParam(k, overrides[k]); err != nil {
			return physics.Params{}, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
	}
	return can.Params, nil
}

func (r *Registry) Encoding(cfg *config.Config) (thermal.Encoding, error) {
	var (
		enc thermal.Encoding
		err error
	)
	switch cfg.ActionSpace {
	case "C":
		enc, err = thermal.NewContinuous(cfg.HeatMax)
	case "S6":
		enc, err = thermal.NewSplit(cfg.SplitStep, cfg.HeatMax)
	default:
		n, ok := cfg.DiscreteActions()
		if !ok {
			return nil, fmt.Errorf("%w: %w %q", config.ErrInvalidConfig, config.ErrUnknownActionSpace, cfg.ActionSpace)
		}
		enc, err = thermal.NewScaled(n, cfg.ActionScale)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	return enc, nil
}

// Policy builds the baseline policy cfg.Controller names for env.
func (r *Registry) Policy(cfg *config.Config, env *thermal.Env, seed int64) (control.Policy, error) {
	c := cfg.Controller
	var ctrl control.Controller
	switch c.Kind {
	case "", "none":
		ctrl = control.NewConstant(0)
	case "constant":
		ctrl = control.NewConstant(c.Heat)
	case "random":
		return control.NewRandom(env.ActionSpace(), uint64(seed)), nil
	case "pid":
		pid := control.NewPID(c.Kp, c.Ki, c.Kd, env.Setpoint())
		pid.Limit = cfg.HeatMax
		ctrl = pid
	case "feedback":
		ctrl = control.NewThermalFeedback(env.System().Params, env.Setpoint(), c.Gain)
	default:
		return nil, fmt.Errorf("%w: unknown controller %q", config.ErrInvalidConfig, c.Kind)
	}
	return control.NewDemand(ctrl, env.Encoding(), env.HeatLevel), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
