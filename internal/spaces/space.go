// Package spaces describes the action and observation spaces of an
// environment: their bounds, containment checks and uniform sampling.
package spaces

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Space describes a set of valid actions or observations.
type Space interface {
	// Contains reports whether x is a member of the space. Bounds are
	// inclusive.
	Contains(x []float64) bool

	// Sample draws a uniform member of the space.
	Sample(r *rand.Rand) []float64

	// Low and High return the per-dimension bounds.
	Low() *mat.VecDense
	High() *mat.VecDense

	// Dim is the number of entries of a member.
	Dim() int
}

// Discrete is the integers {0, 1, ..., N-1} encoded as a single float.
type Discrete struct {
	N int
}

func NewDiscrete(n int) (*Discrete, error) {
	if n <= 0 {
		return nil, fmt.Errorf("discrete space needs n > 0, got %d", n)
	}
	return &Discrete{N: n}, nil
}

func (d *Discrete) Contains(x []float64) bool {
	if len(x) != 1 {
		return false
	}
	v := x[0]
	return v == math.Trunc(v) && v >= 0 && v < float64(d.N)
}

func (d *Discrete) Sample(r *rand.Rand) []float64 {
	return []float64{float64(r.IntN(d.N))}
}

func (d *Discrete) Low() *mat.VecDense  { return mat.NewVecDense(1, []float64{0}) }
func (d *Discrete) High() *mat.VecDense { return mat.NewVecDense(1, []float64{float64(d.N - 1)}) }
func (d *Discrete) Dim() int            { return 1 }

func (d *Discrete) String() string {
	return fmt.Sprintf("Discrete(%d)", d.N)
}

// Box is a closed axis-aligned box in R^n.
type Box struct {
	low  *mat.VecDense
	high *mat.VecDense
}

func NewBox(low, high []float64) (*Box, error) {
	if len(low) == 0 || len(low) != len(high) {
		return nil, fmt.Errorf("box bounds need equal non-zero length, got %d and %d", len(low), len(high))
	}
	for i := range low {
		if math.IsNaN(low[i]) || math.IsNaN(high[i]) || low[i] > high[i] {
			return nil, fmt.Errorf("box dimension %d has bad bounds [%g, %g]", i, low[i], high[i])
		}
	}
	return &Box{
		low:  mat.NewVecDense(len(low), append([]float64(nil), low...)),
		high: mat.NewVecDense(len(high), append([]float64(nil), high...)),
	}, nil
}

func (b *Box) Contains(x []float64) bool {
	if len(x) != b.low.Len() {
		return false
	}
	for i, v := range x {
		if math.IsNaN(v) || v < b.low.AtVec(i) || v > b.high.AtVec(i) {
			return false
		}
	}
	return true
}

// ContainsAt checks a single dimension against its bounds.
func (b *Box) ContainsAt(i int, v float64) bool {
	return v >= b.low.AtVec(i) && v <= b.high.AtVec(i)
}

func (b *Box) Sample(r *rand.Rand) []float64 {
	out := make([]float64, b.low.Len())
	for i := range out {
		lo, hi := b.low.AtVec(i), b.high.AtVec(i)
		out[i] = lo + r.Float64()*(hi-lo)
	}
	return out
}

// Clip projects x onto the box.
func (b *Box) Clip(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Min(b.high.AtVec(i), math.Max(b.low.AtVec(i), v))
	}
	return out
}

func (b *Box) Low() *mat.VecDense  { return mat.VecDenseCopyOf(b.low) }
func (b *Box) High() *mat.VecDense { return mat.VecDenseCopyOf(b.high) }
func (b *Box) Dim() int            { return b.low.Len() }

func (b *Box) String() string {
	return fmt.Sprintf("Box(%v, %v)", mat.Formatted(b.low.T(), mat.Squeeze()), mat.Formatted(b.high.T(), mat.Squeeze()))
}
