// Package dynamics implements the per-key dynamics registry and its
// lookup policy (spec.md §4.3): a table of (action pattern -> PLT)
// per key, resolved against an actual ActionSet at step time.
package dynamics

import (
	"github.com/mindmesh/simcore/action"
	"github.com/mindmesh/simcore/plt"
	"github.com/mindmesh/simcore/vector"
)

const wildcard = "true"

// Registry is the per-key table of (ActionPattern -> PLT).
type Registry struct {
	byKey map[vector.Key]map[string]*plt.Node
}

// New returns an empty dynamics registry.
func New() *Registry {
	return &Registry{byKey: make(map[vector.Key]map[string]*plt.Node)}
}

// SetDynamics replaces the PLT for key under the exact ActionSet
// pattern (or the wildcard, if pattern is nil).
func (r *Registry) SetDynamics(key vector.Key, pattern action.Set, tree *plt.Node) {
	m, ok := r.byKey[key]
	if !ok {
		m = make(map[string]*plt.Node)
		r.byKey[key] = m
	}
	if pattern == nil {
		m[wildcard] = tree
		return
	}
	m[pattern.Key()] = tree
}

// SetWildcardDynamics registers tree as key's dynamics when no
// action-specific PLT matches.
func (r *Registry) SetWildcardDynamics(key vector.Key, tree *plt.Node) {
	m, ok := r.byKey[key]
	if !ok {
		m = make(map[string]*plt.Node)
		r.byKey[key] = m
	}
	m[wildcard] = tree
}

// AddDynamics is an alias for SetDynamics kept for symmetry with the
// spec's SetDynamics/AddDynamics pair (spec.md §6); both register one
// pattern at a time; "Add" signals the caller does not intend to
// overwrite but the registry itself treats them identically.
func (r *Registry) AddDynamics(key vector.Key, pattern action.Set, tree *plt.Node) {
	r.SetDynamics(key, pattern, tree)
}

// Export returns every registered (key, pattern-key, tree) triple,
// used by package persist to serialize the registry without exposing
// byKey directly.
func (r *Registry) Export() map[vector.Key]map[string]*plt.Node {
	out := make(map[vector.Key]map[string]*plt.Node, len(r.byKey))
	for k, m := range r.byKey {
		cp := make(map[string]*plt.Node, len(m))
		for pk, tree := range m {
			cp[pk] = tree
		}
		out[k] = cp
	}
	return out
}

// SetRaw registers tree for key under an already-computed pattern key
// (an action.Set.Key() string, or the literal wildcard), bypassing
// action.Set.Key() recomputation. Used by package persist to restore a
// registry from a snapshot.
func (r *Registry) SetRaw(key vector.Key, patternKey string, tree *plt.Node) {
	m, ok := r.byKey[key]
	if !ok {
		m = make(map[string]*plt.Node)
		r.byKey[key] = m
	}
	m[patternKey] = tree
}

// KeysWithDynamics returns every key that has at least one registered
// PLT, used by the dependency graph to enumerate nodes.
func (r *Registry) KeysWithDynamics() []vector.Key {
	keys := make([]vector.Key, 0, len(r.byKey))
	for k := range r.byKey {
		keys = append(keys, k)
	}
	return keys
}

// AllPLTs returns every PLT registered anywhere for key, used by the
// dependency graph to compute static KeysIn/KeysOut regardless of
// which action pattern ends up applying at step time.
func (r *Registry) AllPLTs(key vector.Key) []*plt.Node {
	m := r.byKey[key]
	nodes := make([]*plt.Node, 0, len(m))
	for _, n := range m {
		nodes = append(nodes, n)
	}
	return nodes
}

// GetDynamics resolves the ordered list of PLTs applicable to key
// given actions, per spec.md §4.3's lookup policy:
//  1. an exact ActionSet match wins outright;
//  2. otherwise every atomic action with its own registered PLT is
//     included (falling back to the action's root PLT with free
//     parameters substituted in, via plt.Node.Substitute, when the
//     action carries parameters not registered verbatim);
//  3. if nothing action-specific matched, the wildcard PLT applies;
//  4. otherwise the key is unchanged (empty result).
func (r *Registry) GetDynamics(key vector.Key, actions action.Set) []*plt.Node {
	m, ok := r.byKey[key]
	if !ok {
		return nil
	}
	if exact, ok := m[actions.Key()]; ok {
		return []*plt.Node{exact}
	}
	var matched []*plt.Node
	for _, a := range actions {
		single := action.Of(a)
		if tree, ok := m[single.Key()]; ok {
			matched = append(matched, tree)
			continue
		}
		if len(a.Params) > 0 {
			root := action.Of(a.Root())
			if tree, ok := m[root.Key()]; ok {
				subst := tree
				for pname, pval := range a.Params {
					subst = subst.Substitute(vector.Key(pname), pval)
				}
				matched = append(matched, subst)
			}
		}
	}
	if len(matched) > 0 {
		return matched
	}
	if wild, ok := m[wildcard]; ok {
		return []*plt.Node{wild}
	}
	return nil
}
