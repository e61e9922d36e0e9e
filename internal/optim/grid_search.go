// Package optim tunes controller gains by exhaustive search.
package optim

import (
	"context"
	"errors"
	"math"

	"github.com/san-kum/tempctrl/internal/experiment"
)

var ErrNoCandidate = errors.New("optim: no candidate completed")

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	// Seeds are the episodes each candidate is scored on; the score is the
	// mean of the metric over them.
	Seeds []int64
	Steps int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, Seeds: []int64{1}}
}

type Builder func(params map[string]float64) (*experiment.Experiment, error)

// Search returns the parameters with the highest mean metric.
func (g *GridSearch) Search(ctx context.Context, build Builder, metricName string) (map[string]float64, float64, error) {
	s := &search{
		g:      g,
		build:  build,
		metric: metricName,
		best:   math.Inf(-1),
	}
	s.recurse(ctx, 0, make(map[string]float64))

	if err := ctx.Err(); err != nil {
		return s.bestParams, s.best, err
	}
	if s.bestParams == nil {
		if s.lastErr != nil {
			return nil, 0, errors.Join(ErrNoCandidate, s.lastErr)
		}
		return nil, 0, ErrNoCandidate
	}
	return s.bestParams, s.best, nil
}

type search struct {
	g          *GridSearch
	build      Builder
	metric     string
	best       float64
	bestParams map[string]float64
	lastErr    error
}

func (s *search) recurse(ctx context.Context, depth int, current map[string]float64) {
	if ctx.Err() != nil {
		return
	}
	if depth == len(s.g.paramNames) {
		s.score(ctx, current)
		return
	}

	paramName := s.g.paramNames[depth]
	for _, val := range s.g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		s.recurse(ctx, depth+1, newParams)
	}
}

func (s *search) score(ctx context.Context, params map[string]float64) {
	exp, err := s.build(params)
	if err != nil {
		s.lastErr = err
		return
	}

	total := 0.0
	for _, seed := range s.g.Seeds {
		result, err := exp.Run(ctx, seed, s.g.Steps)
		if err != nil {
			s.lastErr = err
			return
		}
		total += result.Metrics[s.metric]
	}
	val := total / float64(len(s.g.Seeds))

	if val > s.best {
		s.best = val
		s.bestParams = params
	}
}

// PIDBuilder returns a Builder that copies base and sets the controller
// to a PID with the kp, ki and kd entries of params.
func PIDBuilder(base *experiment.Experiment) Builder {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Config().Clone()
		cfg.Controller.Kind = "pid"
		if v, ok := params["kp"]; ok {
			cfg.Controller.Kp = v
		}
		if v, ok := params["ki"]; ok {
			cfg.Controller.Ki = v
		}
		if v, ok := params["kd"]; ok {
			cfg.Controller.Kd = v
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return experiment.New(cfg), nil
	}
}
