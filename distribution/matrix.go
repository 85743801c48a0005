package distribution

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mindmesh/simcore/simerr"
	"github.com/mindmesh/simcore/vector"
)

// Matrix is a probability distribution over keyed matrices, used
// wherever dynamics are stochastic (spec.md §3).
type Matrix struct {
	support []*vector.Matrix
	mass    []float64
}

// NewMatrix returns an empty matrix distribution.
func NewMatrix() *Matrix { return &Matrix{} }

// Point returns a matrix distribution with all mass on a single
// deterministic matrix, used to lift a deterministic PLT leaf into the
// same type as a stochastic one.
func Point(m *vector.Matrix) *Matrix {
	return &Matrix{support: []*vector.Matrix{m}, mass: []float64{1.0}}
}

// Insert adds probability p of transformation m.
func (d *Matrix) Insert(m *vector.Matrix, p float64) {
	d.support = append(d.support, m)
	d.mass = append(d.mass, p)
}

// Support returns the distribution's possible transformations.
func (d *Matrix) Support() []*vector.Matrix { return d.support }

// Mass returns the probability of support element i.
func (d *Matrix) Mass(i int) float64 { return d.mass[i] }

// Len returns the number of distinct transformations.
func (d *Matrix) Len() int { return len(d.support) }

// IsDeterministic reports whether the distribution places all mass on
// a single matrix, i.e. can be treated as a point mass.
func (d *Matrix) IsDeterministic() bool { return len(d.support) == 1 }

// Deterministic returns the sole matrix in a point-mass distribution,
// failing if the distribution is not deterministic. Used to enforce
// spec.md §4.2's requirement that turn dynamics be deterministic.
func (d *Matrix) Deterministic() (*vector.Matrix, error) {
	if !d.IsDeterministic() {
		return nil, simerr.New("distribution.Deterministic", simerr.ErrInvariantViolation)
	}
	return d.support[0], nil
}

// Apply folds m's distribution into x: for each support matrix,
// applies it to x and returns the resulting VectorDistribution
// weighted by that matrix's mass.
func (d *Matrix) Apply(x *vector.Keyed) *Vector {
	out := NewVector()
	for i, m := range d.support {
		out.Insert(m.Apply(x), d.mass[i])
	}
	return out
}

// Sample draws one matrix from the distribution.
func (d *Matrix) Sample(src rand.Source) (*vector.Matrix, error) {
	if len(d.support) == 0 {
		return nil, simerr.New("distribution.Sample", simerr.ErrNoConsistentTransition)
	}
	weights := make([]float64, len(d.mass))
	copy(weights, d.mass)
	cat := distuv.NewCategorical(weights, src)
	return d.support[int(cat.Rand())], nil
}
