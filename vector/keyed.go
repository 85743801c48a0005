// Package vector implements the keyed vector and keyed matrix algebra
// that the factored-state engine is built on (spec.md §3): a dense-
// sparse numeric vector addressed by Key instead of by integer index,
// and a linear transformation matrix keyed by output key.
package vector

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Keyed is a mapping Key -> float64. The zero value is not usable;
// construct with New.
type Keyed struct {
	values map[Key]float64
}

// New returns an empty keyed vector with CONSTANT already set to 1.0,
// matching the invariant that CONSTANT is always present and equal to
// 1.0 (spec.md §3).
func New() *Keyed {
	v := &Keyed{values: make(map[Key]float64)}
	v.values[Constant] = 1.0
	return v
}

// Get returns the value stored at k, or 0 if k is unset.
func (v *Keyed) Get(k Key) float64 { return v.values[k] }

// Has reports whether k has an explicit value.
func (v *Keyed) Has(k Key) bool {
	_, ok := v.values[k]
	return ok
}

// Set stores val at k.
func (v *Keyed) Set(k Key, val float64) { v.values[k] = val }

// Keys returns the vector's keys in a stable, sorted order so that
// Hash and iteration are deterministic (spec.md §5 determinism
// requirement).
func (v *Keyed) Keys() []Key {
	keys := make([]Key, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Clone returns an independent copy of v.
func (v *Keyed) Clone() *Keyed {
	out := &Keyed{values: make(map[Key]float64, len(v.values))}
	for k, val := range v.values {
		out.values[k] = val
	}
	return out
}

// Add returns v + other, keyed union, missing entries treated as 0.
func (v *Keyed) Add(other *Keyed) *Keyed {
	out := v.Clone()
	for k, val := range other.values {
		out.values[k] += val
	}
	return out
}

// Sub returns v - other, keyed union, missing entries treated as 0.
func (v *Keyed) Sub(other *Keyed) *Keyed {
	out := v.Clone()
	for k, val := range other.values {
		out.values[k] -= val
	}
	return out
}

// Dot returns the dot product of v and other over the union of their
// keys, computed with gonum/floats rather than a hand-rolled loop.
func (v *Keyed) Dot(other *Keyed) float64 {
	seen := make(map[Key]bool, len(v.values)+len(other.values))
	var a, b []float64
	for k := range v.values {
		if seen[k] {
			continue
		}
		seen[k] = true
		a = append(a, v.values[k])
		b = append(b, other.values[k])
	}
	for k := range other.values {
		if seen[k] {
			continue
		}
		seen[k] = true
		a = append(a, v.values[k])
		b = append(b, other.values[k])
	}
	if len(a) == 0 {
		return 0
	}
	return floats.Dot(a, b)
}

// Equal reports whether v and other hold identical values (within
// exact float equality; the engine requires bitwise-equal floats per
// spec.md §5, so no tolerance is applied here).
func (v *Keyed) Equal(other *Keyed) bool {
	if len(v.values) != len(other.values) {
		return false
	}
	for k, val := range v.values {
		ov, ok := other.values[k]
		if !ok || ov != val {
			return false
		}
	}
	return true
}

// Hash returns a canonical string representation of v, suitable for
// use as a map key identifying a possible world in a vector
// distribution's support (spec.md §3).
func (v *Keyed) Hash() string {
	keys := v.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k) + "=" + strconv.FormatFloat(v.values[k], 'g', -1, 64)
	}
	return strings.Join(parts, "|")
}

func (v *Keyed) String() string {
	return fmt.Sprintf("Keyed{%s}", v.Hash())
}
