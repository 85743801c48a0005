package distribution

import (
	"testing"

	"golang.org/x/exp/rand"

	"github.com/mindmesh/simcore/simerr"
	"github.com/mindmesh/simcore/vector"
)

func point(k vector.Key, val float64) *vector.Keyed {
	v := vector.New()
	v.Set(k, val)
	return v
}

func TestInsertCombinesEqualSupport(t *testing.T) {
	d := NewVector()
	d.Insert(point("coin", 0), 0.3)
	d.Insert(point("coin", 0), 0.2)
	d.Insert(point("coin", 1), 0.5)

	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
	if d.Sum() != 1.0 {
		t.Fatalf("Sum() = %v, want 1.0", d.Sum())
	}
}

func TestNormalizeWithinTolerance(t *testing.T) {
	d := NewVector()
	d.Insert(point("x", 0), 0.5+1e-9)
	d.Insert(point("x", 1), 0.5)
	if err := d.Normalize(); err != nil {
		t.Fatalf("Normalize within tolerance returned error: %v", err)
	}
	if !d.IsNormalized() {
		t.Fatalf("IsNormalized() = false after Normalize")
	}
}

func TestNormalizeBeyondTolerance(t *testing.T) {
	d := NewVector()
	d.Insert(point("x", 0), 0.5)
	d.Insert(point("x", 1), 0.6)
	if err := d.Normalize(); !simerr.Is(err, simerr.ErrInvariantViolation) {
		t.Fatalf("Normalize beyond tolerance error = %v, want ErrInvariantViolation", err)
	}
}

func TestMarginalAndPoint(t *testing.T) {
	d := NewVector()
	d.Insert(point("x", 7), 1.0)
	v, err := d.Point("x")
	if err != nil {
		t.Fatalf("Point: %v", err)
	}
	if v != 7 {
		t.Fatalf("Point(x) = %v, want 7", v)
	}
}

func TestPointAmbiguous(t *testing.T) {
	d := NewVector()
	d.Insert(point("x", 0), 0.5)
	d.Insert(point("x", 1), 0.5)
	if _, err := d.Point("x"); !simerr.Is(err, simerr.ErrAmbiguous) {
		t.Fatalf("Point on non-singleton error = %v, want ErrAmbiguous", err)
	}
}

func TestSampleRespectsWeights(t *testing.T) {
	d := NewVector()
	d.Insert(point("coin", 0), 1.0)
	src := rand.NewSource(42)
	for i := 0; i < 5; i++ {
		x, err := d.Sample(src)
		if err != nil {
			t.Fatalf("Sample: %v", err)
		}
		if x.Get("coin") != 0 {
			t.Fatalf("Sample returned unexpected support with only one possible world")
		}
	}
}

func TestSampleEmptyDistribution(t *testing.T) {
	d := NewVector()
	if _, err := d.Sample(rand.NewSource(1)); !simerr.Is(err, simerr.ErrNoConsistentTransition) {
		t.Fatalf("Sample on empty distribution error = %v, want ErrNoConsistentTransition", err)
	}
}
