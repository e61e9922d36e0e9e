// Package config holds the YAML description of a thermal environment and
// the named presets. Tokens are checked here; turning them into live
// objects is the experiment registry's job.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidConfig      = errors.New("config: invalid configuration")
	ErrUnknownParams      = errors.New("unknown thermal parameter set")
	ErrUnknownActionSpace = errors.New("unknown action space")
	ErrUnknownAmbient     = errors.New("unknown ambient model")
	ErrUnknownReward      = errors.New("unknown reward")
	ErrBadTimestep        = errors.New("bad timestep")
	ErrBadIntegration     = errors.New("bad integration settings")
	ErrBadSetpoint        = errors.New("bad setpoint")
)

const (
	DefaultSubstep     = 0.1
	DefaultTolerance   = 1e-6
	DefaultSetpoint    = 45.0
	DefaultInitLow     = 15.0
	DefaultInitHigh    = 30.0
	DefaultActionScale = 1.0
	DefaultHeatMax     = 200.0
	DefaultSplitStep   = 5.0
)

var (
	ParamSets    = []string{"Vaccan", "Seism"}
	ActionSpaces = []string{"D10", "D20", "D50", "D100", "D200", "D500", "C", "S6"}
	Rewards      = []string{"Rw10", "Rw4", "Rexp", "Rquad", "Rrecip", "Rmountain", "Rconst"}
	Ambients     = []string{"Tcon", "Tsin", "Trand", "Tsinrand"}
	Timesteps    = []string{"t1", "t10", "t30", "t60", "t100"}
	Integrators  = []string{"euler", "rk4", "rk45"}

	// relativeRewards scale the distance by the set-point and need it positive.
	relativeRewards = []string{"Rexp", "Rquad", "Rrecip"}
)

type Config struct {
	ThermalParams string             `yaml:"thermal_params"`
	Params        map[string]float64 `yaml:"params,omitempty"`
	ActionSpace   string             `yaml:"action_space"`
	Reward        string             `yaml:"reward"`
	RewardScale   float64            `yaml:"reward_scale,omitempty"`
	Ambient       string             `yaml:"ambient"`
	Timestep      string             `yaml:"timestep"`
	Integrator    string             `yaml:"integrator"`
	Substep       float64            `yaml:"substep"`
	Tolerance     float64            `yaml:"tolerance"`
	Setpoint      float64            `yaml:"setpoint"`
	InitLow       float64            `yaml:"init_low"`
	InitHigh      float64            `yaml:"init_high"`
	ObsLow        []float64          `yaml:"obs_low,flow"`
	ObsHigh       []float64          `yaml:"obs_high,flow"`
	MaxSteps      int                `yaml:"max_steps"`
	Seed          int64              `yaml:"seed"`
	ActionScale   float64            `yaml:"action_scale"`
	HeatMax       float64            `yaml:"heat_max"`
	SplitStep     float64            `yaml:"split_step"`
	Controller    ControllerConfig   `yaml:"controller"`
}

// ControllerConfig selects the baseline policy used by run and ensemble.
type ControllerConfig struct {
	Kind string  `yaml:"kind"`
	Kp   float64 `yaml:"kp"`
	Ki   float64 `yaml:"ki"`
	Kd   float64 `yaml:"kd"`
	Gain float64 `yaml:"gain"`
	Heat float64 `yaml:"heat"`
}

var Controllers = []string{"none", "constant", "random", "pid", "feedback"}

func DefaultConfig() *Config {
	return &Config{
		ThermalParams: "Vaccan",
		ActionSpace:   "D200",
		Reward:        "Rexp",
		Ambient:       "Tsin",
		Timestep:      "t10",
		Integrator:    "rk4",
		Substep:       DefaultSubstep,
		Tolerance:     DefaultTolerance,
		Setpoint:      DefaultSetpoint,
		InitLow:       DefaultInitLow,
		InitHigh:      DefaultInitHigh,
		ObsLow:        []float64{15, 0},
		ObsHigh:       []float64{60, 50},
		Seed:          1,
		ActionScale:   DefaultActionScale,
		HeatMax:       DefaultHeatMax,
		SplitStep:     DefaultSplitStep,
		Controller: ControllerConfig{
			Kind: "pid",
			Kp:   40,
			Ki:   0.001,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(DefaultConfig(), path)
}

// LoadOver reads the file at path and decodes it over a copy of base.
func LoadOver(base *Config, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseOver(base, data)
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	return ParseOver(DefaultConfig(), data)
}

// ParseOver decodes data over a copy of base, so keys missing from data
// keep the base values. base itself is not modified.
func ParseOver(base *Config, data []byte) (*Config, error) {
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.ObsLow = append([]float64(nil), c.ObsLow...)
	out.ObsHigh = append([]float64(nil), c.ObsHigh...)
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	return &out
}

// MacroStep is the duration of one agent step in seconds.
func (c *Config) MacroStep() (float64, error) {
	if !oneOf(c.Timestep, Timesteps) {
		return 0, fmt.Errorf("%w %q, want one of %v", ErrBadTimestep, c.Timestep, Timesteps)
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(c.Timestep, "t"), 64)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %v", ErrBadTimestep, c.Timestep, err)
	}
	return v, nil
}

// DiscreteActions returns the number of actions of a D* space.
func (c *Config) DiscreteActions() (int, bool) {
	if !strings.HasPrefix(c.ActionSpace, "D") || !oneOf(c.ActionSpace, ActionSpaces) {
		return 0, false
	}
	n, err := strconv.Atoi(c.ActionSpace[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	if !oneOf(c.ThermalParams, ParamSets) {
		return fmt.Errorf("%w %q, want one of %v", ErrUnknownParams, c.ThermalParams, ParamSets)
	}
	if !oneOf(c.ActionSpace, ActionSpaces) {
		return fmt.Errorf("%w %q, want one of %v", ErrUnknownActionSpace, c.ActionSpace, ActionSpaces)
	}
	if !oneOf(c.Reward, Rewards) {
		return fmt.Errorf("%w %q, want one of %v", ErrUnknownReward, c.Reward, Rewards)
	}
	if oneOf(c.Reward, relativeRewards) && !(c.Setpoint > 0) {
		return fmt.Errorf("%w %g: reward %s needs a positive set-point", ErrBadSetpoint, c.Setpoint, c.Reward)
	}
	if !oneOf(c.Ambient, Ambients) {
		return fmt.Errorf("%w %q, want one of %v", ErrUnknownAmbient, c.Ambient, Ambients)
	}
	macro, err := c.MacroStep()
	if err != nil {
		return err
	}
	if !oneOf(c.Integrator, Integrators) {
		return fmt.Errorf("%w: integrator %q, want one of %v", ErrBadIntegration, c.Integrator, Integrators)
	}
	if c.Substep <= 0 || c.Substep >= macro {
		return fmt.Errorf("%w: substep %g must lie in (0, %g)", ErrBadIntegration, c.Substep, macro)
	}
	if c.Integrator == "rk45" && c.Tolerance <= 0 {
		return fmt.Errorf("%w: rk45 needs a positive tolerance, got %g", ErrBadIntegration, c.Tolerance)
	}
	if c.InitLow > c.InitHigh {
		return fmt.Errorf("initial range [%g, %g] is empty", c.InitLow, c.InitHigh)
	}
	if len(c.ObsLow) != 2 || len(c.ObsHigh) != 2 {
		return fmt.Errorf("observation bounds need two entries, got %d and %d", len(c.ObsLow), len(c.ObsHigh))
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max steps must not be negative, got %d", c.MaxSteps)
	}
	if c.ActionScale <= 0 || c.HeatMax <= 0 || c.SplitStep <= 0 {
		return fmt.Errorf("action_scale, heat_max and split_step must be positive")
	}
	if c.RewardScale < 0 {
		return fmt.Errorf("reward scale must not be negative, got %g", c.RewardScale)
	}
	if c.Controller.Kind != "" && !oneOf(c.Controller.Kind, Controllers) {
		return fmt.Errorf("unknown controller %q, want one of %v", c.Controller.Kind, Controllers)
	}
	return nil
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
