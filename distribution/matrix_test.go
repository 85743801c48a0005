package distribution

import (
	"testing"

	"github.com/mindmesh/simcore/simerr"
	"github.com/mindmesh/simcore/vector"
)

func constMatrix(out vector.Key, val float64) *vector.Matrix {
	m := vector.NewMatrix()
	row := vector.New()
	row.Set(vector.Constant, val)
	m.SetRow(out, row)
	return m
}

func TestPointIsDeterministic(t *testing.T) {
	m := constMatrix("coin", 1)
	d := Point(m)
	if !d.IsDeterministic() {
		t.Fatalf("Point() distribution not deterministic")
	}
	got, err := d.Deterministic()
	if err != nil {
		t.Fatalf("Deterministic: %v", err)
	}
	if got != m {
		t.Fatalf("Deterministic() did not return the inserted matrix")
	}
}

func TestDeterministicFailsOnMixture(t *testing.T) {
	d := NewMatrix()
	d.Insert(constMatrix("coin", 0), 0.5)
	d.Insert(constMatrix("coin", 1), 0.5)
	if _, err := d.Deterministic(); !simerr.Is(err, simerr.ErrInvariantViolation) {
		t.Fatalf("Deterministic on mixture error = %v, want ErrInvariantViolation", err)
	}
}

func TestMatrixApplyProducesWeightedVectorDistribution(t *testing.T) {
	d := NewMatrix()
	d.Insert(constMatrix("coin", 0), 0.5)
	d.Insert(constMatrix("coin", 1), 0.5)

	x := vector.New()
	out := d.Apply(x)
	marginal := out.Marginal("coin")
	if marginal[0] != 0.5 || marginal[1] != 0.5 {
		t.Fatalf("marginal = %v, want {0:0.5, 1:0.5}", marginal)
	}
}
