package control

import (
	"math/rand/v2"

	"github.com/san-kum/tempctrl/internal/dynamo"
	"github.com/san-kum/tempctrl/internal/gym"
	"github.com/san-kum/tempctrl/internal/spaces"
	"github.com/san-kum/tempctrl/internal/thermal"
)

// Controller computes a heater demand from the observed state.
type Controller interface {
	Compute(x dynamo.State, t float64) dynamo.Control
	Reset()
}

// Policy picks the next action from an observation.
type Policy interface {
	Action(obs gym.Observation, t float64) float64
	Reset()
}

// Demand adapts a Controller to a Policy. level reports the commanded
// heater level the encoding needs; it may be nil for stateless encodings.
type Demand struct {
	Controller Controller
	enc        thermal.Encoding
	level      func() float64
}

func NewDemand(c Controller, enc thermal.Encoding, level func() float64) *Demand {
	return &Demand{Controller: c, enc: enc, level: level}
}

func (d *Demand) Action(obs gym.Observation, t float64) float64 {
	u := d.Controller.Compute(dynamo.State(obs), t)
	lvl := 0.0
	if d.level != nil {
		lvl = d.level()
	}
	return d.enc.Action(u[0], lvl)
}

func (d *Demand) Reset() { d.Controller.Reset() }

type Random struct {
	space spaces.Space
	rng   *rand.Rand
}

func NewRandom(space spaces.Space, seed uint64) *Random {
	return &Random{space: space, rng: rand.New(rand.NewPCG(seed, seed+1))}
}

func (r *Random) Action(_ gym.Observation, _ float64) float64 {
	return r.space.Sample(r.rng)[0]
}

func (r *Random) Reset() {}

type Constant struct {
	Heat float64
}

func NewConstant(heat float64) *Constant {
	return &Constant{Heat: heat}
}

func (c *Constant) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{c.Heat}
}

func (c *Constant) Reset() {}
