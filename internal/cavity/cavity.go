// Package cavity exposes the laser-cavity lock loop as an environment.
// The agent nudges the laser slow-control voltage and toggles the lock
// switch; the episode ends when the cavity transmits enough light to count
// as locked or when the actuator leaves its safe range.
package cavity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/tempctrl/internal/channel"
	"github.com/san-kum/tempctrl/internal/gym"
	"github.com/san-kum/tempctrl/internal/spaces"
)

var (
	ErrInvalidAction = errors.New("cavity: invalid action")
	ErrInvalidConfig = errors.New("cavity: invalid config")
)

// Channels names the process channels the env touches.
type Channels struct {
	Transmitted string
	Reflected   string
	Actuator    string
	LockSwitch  string
}

func DefaultChannels() Channels {
	return Channels{
		Transmitted: "C3:PSL-SCAV_TRANS_DC",
		Reflected:   "C3:PSL-SCAV_REFL_DC",
		Actuator:    "C3:PSL-SCAV_SLOWDC",
		LockSwitch:  "C3:PSL-SCAV_FSS_SW",
	}
}

type Config struct {
	Channels Channels

	ActuatorLow  float64
	ActuatorHigh float64
	ActuatorStep float64

	LockThreshold float64
	// Settle is the pause after each write before the outputs are read.
	Settle time.Duration
	// WriteInterval is the minimum spacing of channel writes.
	WriteInterval time.Duration
	MaxSteps      int

	Warner gym.Warner
}

func DefaultConfig() Config {
	return Config{
		Channels:      DefaultChannels(),
		ActuatorLow:   3.1,
		ActuatorHigh:  3.8,
		ActuatorStep:  0.01,
		LockThreshold: 2.0,
		Settle:        2 * time.Second,
		WriteInterval: 500 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	switch {
	case c.ActuatorLow >= c.ActuatorHigh:
		return fmt.Errorf("%w: actuator range [%g, %g]", ErrInvalidConfig, c.ActuatorLow, c.ActuatorHigh)
	case c.ActuatorStep <= 0:
		return fmt.Errorf("%w: actuator step %g", ErrInvalidConfig, c.ActuatorStep)
	case c.Settle < 0 || c.WriteInterval < 0:
		return fmt.Errorf("%w: negative duration", ErrInvalidConfig)
	case c.MaxSteps < 0:
		return fmt.Errorf("%w: max steps %d", ErrInvalidConfig, c.MaxSteps)
	}
	return nil
}

// Action layout: action = 2*inc + enable, inc 0 lowers the actuator by one
// step, 1 holds and 2 raises it. enable sets the lock switch.
const nActions = 6

type Env struct {
	cfg      Config
	io       channel.ReadWriter
	actSpace *spaces.Discrete
	obsSpace *spaces.Box
	seed     int64

	actuator float64
	obs      gym.Observation
	episode  *gym.Episode
}

var _ gym.Env = (*Env)(nil)

// New wraps rw in a write limiter. It does not touch the channels; call
// Reset before the first Step.
func New(cfg Config, rw channel.ReadWriter) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	actSpace, err := spaces.NewDiscrete(nActions)
	if err != nil {
		return nil, err
	}
	obsSpace, err := spaces.NewBox([]float64{0, 0}, []float64{10, 10})
	if err != nil {
		return nil, err
	}
	e := &Env{
		cfg:      cfg,
		io:       channel.NewThrottled(rw, cfg.WriteInterval),
		actSpace: actSpace,
		obsSpace: obsSpace,
		episode:  gym.NewEpisode(cfg.Warner),
	}
	e.Seed(time.Now().UnixNano())
	return e, nil
}

// Seed is kept for interface parity; the hardware has no randomness.
func (e *Env) Seed(seed int64) []int64 {
	e.seed = seed
	return []int64{seed}
}

// Reset opens the lock switch and reads the current actuator and outputs.
func (e *Env) Reset(ctx context.Context) (gym.Observation, error) {
	e.episode.Reset()
	if err := e.io.Write(ctx, e.cfg.Channels.LockSwitch, 0); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	act, err := e.io.Read(ctx, e.cfg.Channels.Actuator)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	e.actuator = act
	if err := e.settle(ctx); err != nil {
		return nil, err
	}
	obs, err := e.read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	e.obs = obs
	return obs.Clone(), nil
}

func (e *Env) Step(ctx context.Context, action float64) (gym.Transition, error) {
	if !e.actSpace.Contains([]float64{action}) {
		return gym.Transition{}, fmt.Errorf("%w: %v not in %v", ErrInvalidAction, action, e.actSpace)
	}
	terminated := e.episode.Terminated()
	a := int(action)
	inc, enable := a/2, a%2
	next := e.actuator + float64(inc-1)*e.cfg.ActuatorStep
	steps := e.episode.Advance()

	info := gym.Info{"actuator": next}
	if next < e.cfg.ActuatorLow || next > e.cfg.ActuatorHigh {
		// Never drive the laser outside the safe range.
		info["out_of_range"] = true
		if terminated {
			e.episode.AfterDone()
		}
		e.episode.Finish(true)
		return gym.Transition{Observation: e.obs.Clone(), Done: true, Info: info}, nil
	}

	if err := e.io.Write(ctx, e.cfg.Channels.Actuator, next); err != nil {
		return gym.Transition{}, fmt.Errorf("step %d: %w", steps, err)
	}
	e.actuator = next
	if err := e.io.Write(ctx, e.cfg.Channels.LockSwitch, float64(enable)); err != nil {
		return gym.Transition{}, fmt.Errorf("step %d: %w", steps, err)
	}
	if err := e.settle(ctx); err != nil {
		return gym.Transition{}, err
	}
	obs, err := e.read(ctx)
	if err != nil {
		return gym.Transition{}, fmt.Errorf("step %d: %w", steps, err)
	}
	e.obs = obs

	locked := obs[0] > e.cfg.LockThreshold
	done := locked || (e.cfg.MaxSteps > 0 && steps >= e.cfg.MaxSteps)
	info["locked"] = locked

	r := 0.0
	if terminated {
		e.episode.AfterDone()
	} else if locked {
		r = 1
	}
	e.episode.Finish(done)
	return gym.Transition{Observation: obs.Clone(), Reward: r, Done: done, Info: info}, nil
}

func (e *Env) settle(ctx context.Context) error {
	if e.cfg.Settle == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(e.cfg.Settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (e *Env) read(ctx context.Context) (gym.Observation, error) {
	trans, err := e.io.Read(ctx, e.cfg.Channels.Transmitted)
	if err != nil {
		return nil, err
	}
	refl, err := e.io.Read(ctx, e.cfg.Channels.Reflected)
	if err != nil {
		return nil, err
	}
	return gym.Observation{trans, refl}, nil
}

func (e *Env) ActionSpace() spaces.Space      { return e.actSpace }
func (e *Env) ObservationSpace() spaces.Space { return e.obsSpace }
func (e *Env) Metadata() gym.Metadata         { return gym.Metadata{RenderModes: []string{"human"}} }

func (e *Env) Actuator() float64            { return e.actuator }
func (e *Env) ElapsedSteps() int            { return e.episode.Elapsed() }
func (e *Env) StepsBeyondDone() (int, bool) { return e.episode.StepsBeyondDone() }
