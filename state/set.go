package state

import (
	"sort"

	"github.com/mindmesh/simcore/distribution"
	"github.com/mindmesh/simcore/simerr"
	"github.com/mindmesh/simcore/vector"
)

// Set is the factored state: a mapping from substate label to vector
// distribution, plus a key -> substate index, kept consistent with
// the invariants in spec.md §3 (every key belongs to exactly one
// substate; CONSTANT always 1.0; TERMINATED always defined).
//
// Set values are treated as immutable/copy-on-write: every mutating
// method returns a new *Set sharing unchanged substates, so that a
// policy's hypothetical evaluation (spec.md §4.8) never touches the
// real world, at a cost of O(touched substates) per copy rather than
// O(whole state) (design note §9).
type Set struct {
	substates map[string]*distribution.Vector
	index     map[vector.Key]string
}

// New returns an empty distribution set.
func New() *Set {
	return &Set{
		substates: make(map[string]*distribution.Vector),
		index:     make(map[vector.Key]string),
	}
}

// Clone returns a shallow copy of s: the substate map is copied, but
// substates themselves are shared until a mutating operation touches
// them (copy-on-write).
func (s *Set) Clone() *Set {
	out := &Set{
		substates: make(map[string]*distribution.Vector, len(s.substates)),
		index:     make(map[vector.Key]string, len(s.index)),
	}
	for k, v := range s.substates {
		out.substates[k] = v
	}
	for k, v := range s.index {
		out.index[k] = v
	}
	return out
}

// Substate returns the label owning key k.
func (s *Set) Substate(k vector.Key) (string, bool) {
	label, ok := s.index[k]
	return label, ok
}

// Marginal returns the vector distribution for substate label.
func (s *Set) Marginal(label string) (*distribution.Vector, bool) {
	d, ok := s.substates[label]
	return d, ok
}

// MarginalOf returns the vector distribution owning key k.
func (s *Set) MarginalOf(k vector.Key) (*distribution.Vector, error) {
	label, ok := s.index[k]
	if !ok {
		return nil, simerr.New("state.MarginalOf", simerr.ErrUnknownKey)
	}
	return s.substates[label], nil
}

// Domain returns every key currently defined in the state.
func (s *Set) Domain() []vector.Key {
	keys := make([]vector.Key, 0, len(s.index))
	for k := range s.index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Labels returns every substate label, sorted, for deterministic
// iteration.
func (s *Set) Labels() []string {
	labels := make([]string, 0, len(s.substates))
	for l := range s.substates {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Clear removes every substate and key, returning an empty set.
func (s *Set) Clear() *Set { return New() }

// Join inserts or overwrites key k's value in the named substate. If
// label is new, a fresh independent substate is created with a single
// point-mass support vector holding only CONSTANT and k. If label
// already exists, v is joined into every support vector of its
// distribution (the join is against a single value, not a
// distribution, when val is a plain float; for joining a value
// distribution see JoinDistribution).
func (s *Set) Join(k vector.Key, val float64, label string) *Set {
	out := s.Clone()
	out.index[k] = label
	d, ok := out.substates[label]
	if !ok {
		v := vector.New()
		v.Set(k, val)
		nd := distribution.NewVector()
		nd.Insert(v, 1.0)
		out.substates[label] = nd
		return out
	}
	nd := distribution.NewVector()
	for i, x := range d.Support() {
		nx := x.Clone()
		nx.Set(k, val)
		nd.Insert(nx, d.Mass(i))
	}
	out.substates[label] = nd
	return out
}

// JoinDistribution joins a vector distribution over key k's values
// into substate label, crossing it with the substate's existing
// support (independent-factor product, spec.md §3).
func (s *Set) JoinDistribution(k vector.Key, vals map[float64]float64, label string) *Set {
	out := s.Clone()
	out.index[k] = label
	d, ok := out.substates[label]
	if !ok {
		nd := distribution.NewVector()
		for val, p := range vals {
			v := vector.New()
			v.Set(k, val)
			nd.Insert(v, p)
		}
		out.substates[label] = nd
		return out
	}
	nd := distribution.NewVector()
	for i, x := range d.Support() {
		for val, p := range vals {
			nx := x.Clone()
			nx.Set(k, val)
			nd.Insert(nx, d.Mass(i)*p)
		}
	}
	out.substates[label] = nd
	return out
}

// ReplaceSubstate overwrites (or creates) a whole substate's
// distribution directly, used by the dynamics pipeline when
// committing an SCC's jointly-computed new values (spec.md §4.5). Any
// substate a moved key used to belong to is deleted once it no longer
// owns any key, so a key never appears in more than one substate
// (spec.md §3 substate exclusivity) and stale values can't leak back
// in via an orphaned entry.
func (s *Set) ReplaceSubstate(label string, d *distribution.Vector, keys []vector.Key) *Set {
	out := s.Clone()
	stale := make(map[string]bool)
	for _, k := range keys {
		if old, ok := out.index[k]; ok && old != label {
			stale[old] = true
		}
	}

	out.substates[label] = d
	for _, k := range keys {
		out.index[k] = label
	}

	for l := range stale {
		orphaned := true
		for _, owner := range out.index {
			if owner == l {
				orphaned = false
				break
			}
		}
		if orphaned {
			delete(out.substates, l)
		}
	}
	return out
}

// GetFeature returns the marginal distribution over k's values, in
// domain form (spec.md §4.7 get_feature).
func (s *Set) GetFeature(k vector.Key) (map[float64]float64, error) {
	d, err := s.MarginalOf(k)
	if err != nil {
		return nil, err
	}
	return d.Marginal(k), nil
}

// GetValue returns the point value of k, failing ErrAmbiguous if the
// marginal is not a singleton (spec.md §4.7 get_value).
func (s *Set) GetValue(k vector.Key) (float64, error) {
	d, err := s.MarginalOf(k)
	if err != nil {
		return 0, err
	}
	return d.Point(k)
}

// Flatten collapses s to a single representative keyed vector by
// taking, from each substate, the support vector with the greatest
// probability mass (ties broken by the vector's canonical hash), then
// reading every key from its owning substate's chosen vector via the
// key -> substate index. It is an approximation used wherever a
// collaborator needs one concrete vector rather than a full
// distribution set (e.g. Collaborator.GetActions, spec.md §6); exact
// callers that need the true marginal should use GetFeature/GetValue
// instead.
//
// Reading by index rather than merging every support vector's full
// key set matters because a support vector can carry keys beyond the
// ones it owns (e.g. CONSTANT): going through the index guarantees
// each key's value always comes from the substate that actually
// indexes it (spec.md §3 substate exclusivity), not from whichever
// substate happens to sort last among those also holding that key.
func (s *Set) Flatten() *vector.Keyed {
	chosen := make(map[string]*vector.Keyed, len(s.substates))
	for label, d := range s.substates {
		if d.Len() == 0 {
			continue
		}
		best := 0
		for i := 1; i < d.Len(); i++ {
			if d.Mass(i) > d.Mass(best) {
				best = i
			} else if d.Mass(i) == d.Mass(best) && d.Support()[i].Hash() < d.Support()[best].Hash() {
				best = i
			}
		}
		chosen[label] = d.Support()[best]
	}

	out := vector.New()
	for _, k := range s.Domain() {
		label := s.index[k]
		x, ok := chosen[label]
		if !ok {
			continue
		}
		out.Set(k, x.Get(k))
	}
	return out
}

// Terminated reports whether every support vector of the TERMINATED
// substate has TERMINATED set to a nonzero (true) value.
func (s *Set) Terminated() bool {
	v, err := s.GetValue(vector.Terminated)
	if err != nil {
		return false
	}
	return v != 0
}
