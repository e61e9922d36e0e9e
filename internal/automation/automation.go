// Package automation runs scripted batches of episodes: YAML scenarios
// and sweeps over one physical parameter.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tempctrl/internal/config"
	"github.com/san-kum/tempctrl/internal/experiment"
)

// Scenario defines a scripted sequence of episodes
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one episode. Preset and Config select the base
// configuration (Config wins); Controller and Params override it.
type ScenarioStep struct {
	Preset     string                   `yaml:"preset"`
	Config     string                   `yaml:"config"`
	Controller *config.ControllerConfig `yaml:"controller"`
	Params     map[string]float64       `yaml:"params"`
	Seed       int64                    `yaml:"seed"`
	Steps      int                      `yaml:"steps"`
	SaveAs     string                   `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Resolve builds the validated configuration of the step.
func (s ScenarioStep) Resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
	}
	if s.Config != "" {
		var err error
		if cfg, err = config.Load(s.Config); err != nil {
			return nil, err
		}
	}
	if s.Controller != nil {
		cfg.Controller = *s.Controller
	}
	if len(s.Params) > 0 {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(s.Params))
		}
		for k, v := range s.Params {
			cfg.Params[k] = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Name is the label the step is stored under.
func (s ScenarioStep) Name(scenario string, i int) string {
	if s.SaveAs != "" {
		return s.SaveAs
	}
	return fmt.Sprintf("%s-%d", scenario, i+1)
}

type StepResult struct {
	Name   string
	Config *config.Config
	Result *experiment.Result
}

// RunScenario executes all steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, log *slog.Logger) ([]StepResult, error) {
	if log == nil {
		log = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name(scenario.Name, i)
		log.Info("scenario step", "step", i+1, "of", len(scenario.Steps), "name", name)

		cfg, err := step.Resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		seed := step.Seed
		if seed == 0 {
			seed = cfg.Seed
		}

		result, err := experiment.New(cfg).Run(ctx, seed, step.Steps)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: name, Config: cfg, Result: result})
	}

	return results, nil
}

// ParameterSweep runs one episode per value of a physical parameter.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Seed      int64
	Steps     int
}

// SweepResult holds the outcome for one parameter value
type SweepResult struct {
	ParamValue float64
	FinalTemp  float64
	Return     float64
	InBand     float64
	Steps      int
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, log *slog.Logger) ([]SweepResult, error) {
	if log == nil {
		log = slog.Default()
	}
	if sweep.Base == nil {
		return nil, errors.New("sweep needs a base config")
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one value, got %d", sweep.NumSteps)
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := sweep.ParamMin + float64(i)*paramStep

		cfg := sweep.Base.Clone()
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, 1)
		}
		cfg.Params[sweep.ParamName] = paramVal

		result, err := experiment.New(cfg).Run(ctx, sweep.Seed, sweep.Steps)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.ParamName, paramVal, err)
		}

		last := result.Observations[len(result.Observations)-1]
		results = append(results, SweepResult{
			ParamValue: paramVal,
			FinalTemp:  last[0],
			Return:     result.Return,
			InBand:     result.Metrics["in_band"],
			Steps:      result.Steps(),
		})

		log.Debug("sweep", "i", i+1, "of", sweep.NumSteps, "param", sweep.ParamName, "value", paramVal)
	}

	return results, nil
}
