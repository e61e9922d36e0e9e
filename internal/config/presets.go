package config

import "sort"

// Presets reproduce the environment variants the lab trained against. Each
// carries a fixed seed so a stored run can be replayed.
var Presets = map[string]*Config{
	// Heater steps of 20 W, 100 s steps, paid for every step it survives.
	"vaccan": {
		ThermalParams: "Vaccan", ActionSpace: "D20", ActionScale: 20,
		Reward: "Rconst", RewardScale: 1, Ambient: "Tsin", Timestep: "t100",
		Integrator: "rk4", Substep: DefaultSubstep, Tolerance: DefaultTolerance,
		Setpoint: DefaultSetpoint, InitLow: 15, InitHigh: 30,
		ObsLow: []float64{15, 0}, ObsHigh: []float64{60, 50},
		HeatMax: DefaultHeatMax, SplitStep: DefaultSplitStep, Seed: 1,
	},
	"vaccan-test": {
		ThermalParams: "Vaccan", ActionSpace: "D20", ActionScale: 1,
		Reward: "Rw4", RewardScale: 1, Ambient: "Tsin", Timestep: "t10",
		Integrator: "rk4", Substep: DefaultSubstep, Tolerance: DefaultTolerance,
		Setpoint: DefaultSetpoint, InitLow: 15, InitHigh: 60, MaxSteps: 100,
		ObsLow: []float64{15, 0}, ObsHigh: []float64{60, 50},
		HeatMax: DefaultHeatMax, SplitStep: DefaultSplitStep, Seed: 1,
	},
	"tempctrl": {
		ThermalParams: "Vaccan", ActionSpace: "D200", ActionScale: 1,
		Reward: "Rexp", Ambient: "Tsin", Timestep: "t10",
		Integrator: "rk4", Substep: DefaultSubstep, Tolerance: DefaultTolerance,
		Setpoint: DefaultSetpoint, InitLow: 15, InitHigh: 30,
		ObsLow: []float64{15, 0}, ObsHigh: []float64{60, 50},
		HeatMax: DefaultHeatMax, SplitStep: DefaultSplitStep, Seed: 1,
		Controller: ControllerConfig{Kind: "pid", Kp: 40, Ki: 0.001},
	},
	"seism": {
		ThermalParams: "Seism", ActionSpace: "S6", ActionScale: 1,
		Reward: "Rmountain", Ambient: "Tsinrand", Timestep: "t60",
		Integrator: "rk45", Substep: 1, Tolerance: 1e-8,
		Setpoint: DefaultSetpoint, InitLow: 15, InitHigh: 30, MaxSteps: 1440,
		ObsLow: []float64{15, 0}, ObsHigh: []float64{60, 50},
		HeatMax: 100, SplitStep: 2, Seed: 1,
		Controller: ControllerConfig{Kind: "feedback", Gain: 20},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
