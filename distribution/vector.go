// Package distribution implements probability distributions over
// keyed vectors and keyed matrices (spec.md §3): mass-combining
// insertion, normalization within tolerance, and weighted sampling via
// gonum's stat/distuv, mirroring the categorical-sampling pattern in
// agent/linear/policy/EGreedy.go.
package distribution

import (
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mindmesh/simcore/simerr"
	"github.com/mindmesh/simcore/vector"
)

// Tolerance is the normalization drift the engine silently absorbs
// before raising ErrInvariantViolation (spec.md §7/§8).
const Tolerance = 1e-6

// Vector is a probability distribution over keyed vectors.
type Vector struct {
	support []*vector.Keyed
	mass    []float64
	index   map[string]int
}

// NewVector returns an empty vector distribution.
func NewVector() *Vector {
	return &Vector{index: make(map[string]int)}
}

// Insert adds probability p of observing x, combining masses when x
// equals (by Hash) a vector already in the support.
func (d *Vector) Insert(x *vector.Keyed, p float64) {
	h := x.Hash()
	if i, ok := d.index[h]; ok {
		d.mass[i] += p
		return
	}
	d.index[h] = len(d.support)
	d.support = append(d.support, x)
	d.mass = append(d.mass, p)
}

// Support returns the distribution's possible worlds.
func (d *Vector) Support() []*vector.Keyed { return d.support }

// Mass returns the probability mass of support element i.
func (d *Vector) Mass(i int) float64 { return d.mass[i] }

// Len returns the number of distinct possible worlds.
func (d *Vector) Len() int { return len(d.support) }

// Sum returns the total probability mass.
func (d *Vector) Sum() float64 { return floats.Sum(d.mass) }

// Normalize rescales mass to sum to 1, tolerating drift up to
// Tolerance silently; drift beyond that raises ErrInvariantViolation
// rather than silently manufacturing a distribution (spec.md §7).
func (d *Vector) Normalize() error {
	sum := d.Sum()
	if sum == 0 {
		return nil
	}
	if diff := sum - 1.0; diff > Tolerance || diff < -Tolerance {
		return simerr.New("distribution.Normalize", simerr.ErrInvariantViolation)
	}
	for i := range d.mass {
		d.mass[i] /= sum
	}
	return nil
}

// IsNormalized reports whether the distribution sums to 1 within
// Tolerance.
func (d *Vector) IsNormalized() bool {
	sum := d.Sum()
	return floats.EqualWithinAbs(sum, 1.0, Tolerance)
}

// Marginal returns the marginal distribution over a single key's
// values: value -> probability.
func (d *Vector) Marginal(k vector.Key) map[float64]float64 {
	out := make(map[float64]float64)
	for i, x := range d.support {
		out[x.Get(k)] += d.mass[i]
	}
	return out
}

// Point returns the single value for k if the distribution assigns
// all mass to one value of k, failing with ErrAmbiguous otherwise
// (spec.md §4.7 get_value).
func (d *Vector) Point(k vector.Key) (float64, error) {
	m := d.Marginal(k)
	if len(m) != 1 {
		return 0, simerr.New("distribution.Point", simerr.ErrAmbiguous)
	}
	for v := range m {
		return v, nil
	}
	return 0, simerr.New("distribution.Point", simerr.ErrAmbiguous)
}

// Sample draws one possible world from the distribution using an
// injected random source, via gonum's distuv.Categorical exactly as
// agent/linear/policy/EGreedy.go samples over action probabilities.
func (d *Vector) Sample(src rand.Source) (*vector.Keyed, error) {
	if len(d.support) == 0 {
		return nil, simerr.New("distribution.Sample", simerr.ErrNoConsistentTransition)
	}
	weights := make([]float64, len(d.mass))
	copy(weights, d.mass)
	cat := distuv.NewCategorical(weights, src)
	i := int(cat.Rand())
	return d.support[i], nil
}

// Clone returns an independent copy of d.
func (d *Vector) Clone() *Vector {
	out := &Vector{
		support: make([]*vector.Keyed, len(d.support)),
		mass:    append([]float64(nil), d.mass...),
		index:   make(map[string]int, len(d.index)),
	}
	copy(out.support, d.support)
	for k, v := range d.index {
		out.index[k] = v
	}
	return out
}

// SortedByHash returns the support indices sorted by the canonical
// hash of each possible world, used wherever iteration order must be
// deterministic (spec.md §5).
func (d *Vector) SortedByHash() []int {
	idx := make([]int, len(d.support))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		return d.support[idx[i]].Hash() < d.support[idx[j]].Hash()
	})
	return idx
}
