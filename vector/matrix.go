package vector

import (
	"math"

	"github.com/mindmesh/simcore/utils/floatutils"
)

// Matrix is a keyed linear transformation: each output key is set to
// the dot product of its named row vector with the current state
// vector. Output keys with no row are left untouched (implicit
// identity), matching spec.md §3.
type Matrix struct {
	rows   map[Key]*Keyed
	floors map[Key]float64
	ceils  map[Key]float64
}

// NewMatrix returns an empty keyed matrix.
func NewMatrix() *Matrix {
	return &Matrix{rows: make(map[Key]*Keyed)}
}

// SetRow declares that output key out is computed as row.Dot(x).
func (m *Matrix) SetRow(out Key, row *Keyed) { m.rows[out] = row }

// Row returns the row for out, or nil if out has no explicit row
// (identity).
func (m *Matrix) Row(out Key) (*Keyed, bool) {
	r, ok := m.rows[out]
	return r, ok
}

// Floor clamps the computed value of out to be >= lo.
func (m *Matrix) Floor(out Key, lo float64) {
	if m.floors == nil {
		m.floors = make(map[Key]float64)
	}
	m.floors[out] = lo
}

// Ceil clamps the computed value of out to be <= hi.
func (m *Matrix) Ceil(out Key, hi float64) {
	if m.ceils == nil {
		m.ceils = make(map[Key]float64)
	}
	m.ceils[out] = hi
}

// Update overlays other's rows (and floor/ceil bounds) onto a copy of
// m, with other taking precedence on conflicts, per spec.md §3
// "update overlays one matrix's output keys onto another's".
func (m *Matrix) Update(other *Matrix) *Matrix {
	out := &Matrix{
		rows:   make(map[Key]*Keyed, len(m.rows)+len(other.rows)),
		floors: make(map[Key]float64, len(m.floors)+len(other.floors)),
		ceils:  make(map[Key]float64, len(m.ceils)+len(other.ceils)),
	}
	for k, v := range m.rows {
		out.rows[k] = v
	}
	for k, v := range m.floors {
		out.floors[k] = v
	}
	for k, v := range m.ceils {
		out.ceils[k] = v
	}
	for k, v := range other.rows {
		out.rows[k] = v
	}
	for k, v := range other.floors {
		out.floors[k] = v
	}
	for k, v := range other.ceils {
		out.ceils[k] = v
	}
	return out
}

// Apply computes the new keyed vector obtained by applying m to x:
// every output key with a row gets row.Dot(x) (floor/ceil-clamped via
// utils/floatutils.Clip); every other key keeps its value from x.
func (m *Matrix) Apply(x *Keyed) *Keyed {
	out := x.Clone()
	for k, row := range m.rows {
		val := row.Dot(x)
		lo, hasLo := m.floors[k]
		hi, hasCeil := m.ceils[k]
		if hasLo || hasCeil {
			if !hasLo {
				lo = math.Inf(-1)
			}
			if !hasCeil {
				hi = math.Inf(1)
			}
			val = floatutils.Clip(val, lo, hi)
		}
		out.Set(k, val)
	}
	out.Set(Constant, 1.0)
	return out
}

// KeysOut returns the output keys this matrix defines.
func (m *Matrix) KeysOut() []Key {
	keys := make([]Key, 0, len(m.rows))
	for k := range m.rows {
		keys = append(keys, k)
	}
	return keys
}

// KeysIn returns the union of keys read by every row, used for
// dependency analysis (spec.md §4.2 keys_in).
func (m *Matrix) KeysIn() []Key {
	seen := make(map[Key]bool)
	var keys []Key
	for _, row := range m.rows {
		for _, k := range row.Keys() {
			if k == Constant {
				continue
			}
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// Clone returns an independent copy of m.
func (m *Matrix) Clone() *Matrix {
	out := &Matrix{
		rows:   make(map[Key]*Keyed, len(m.rows)),
		floors: make(map[Key]float64, len(m.floors)),
		ceils:  make(map[Key]float64, len(m.ceils)),
	}
	for k, v := range m.rows {
		out.rows[k] = v.Clone()
	}
	for k, v := range m.floors {
		out.floors[k] = v
	}
	for k, v := range m.ceils {
		out.ceils[k] = v
	}
	return out
}
