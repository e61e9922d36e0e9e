package gym

import (
	"context"

	"github.com/san-kum/tempctrl/internal/spaces"
)

type Observation []float64

func (o Observation) Clone() Observation {
	c := make(Observation, len(o))
	copy(c, o)
	return c
}

// Info is the auxiliary record returned with each transition.
type Info map[string]any

type Transition struct {
	Observation Observation
	Reward      float64
	Done        bool
	Info        Info
}

// Metadata is static environment information.
type Metadata struct {
	RenderModes []string
}

type Env interface {
	Reset(ctx context.Context) (Observation, error)
	Step(ctx context.Context, action float64) (Transition, error)
	Seed(seed int64) []int64
	ActionSpace() spaces.Space
	ObservationSpace() spaces.Space
	Metadata() Metadata
}
