// Package world implements the top-level engine object (spec.md §4.5,
// §4.7): the owner of the symbol table, variable descriptors, dynamics
// registry, dependency graph, turn scheduler, and agent model table,
// exposing the operations collaborators call against it (spec.md §6).
package world

import (
	"sort"

	"golang.org/x/exp/rand"

	"github.com/mindmesh/simcore/action"
	"github.com/mindmesh/simcore/agent"
	"github.com/mindmesh/simcore/depgraph"
	"github.com/mindmesh/simcore/distribution"
	"github.com/mindmesh/simcore/dynamics"
	"github.com/mindmesh/simcore/explain"
	"github.com/mindmesh/simcore/plt"
	"github.com/mindmesh/simcore/simerr"
	"github.com/mindmesh/simcore/state"
	"github.com/mindmesh/simcore/symbol"
	"github.com/mindmesh/simcore/turn"
	"github.com/mindmesh/simcore/vector"
)

// Outcome is one result of stepping the world: the resulting state and
// an ordered narration of what happened, for bookkeeping and
// explanation (spec.md §4.5 step d).
type Outcome struct {
	New    *state.Set
	Effect []string
}

// World owns every piece of engine state and wires the components
// described by spec.md §4 together.
type World struct {
	Symbols   *symbol.Table
	Variables map[vector.Key]*state.Variable
	Dynamics  *dynamics.Registry
	Turns     *turn.Scheduler
	Models    map[string]*agent.Model

	// Collaborators holds the externally-supplied domain agent for
	// each agent name (spec.md §6); an agent with no collaborator
	// simply never acts (its turns are skipped).
	Collaborators map[string]agent.Collaborator

	// ConsistentTieBreaking is passed through to every Collaborator.Decide
	// call this world makes.
	ConsistentTieBreaking bool

	State   *state.Set
	Source  rand.Source
	Memory  bool
	History []Outcome

	// Explain, if non-nil, receives narration of decisions and
	// effects as Step runs (spec.md §6 diagnostics surface).
	Explain *explain.Buffer

	graph      *depgraph.Graph
	graphDirty bool
}

// New returns an empty world seeded with src for any sampling it
// performs (turn-breaking stochastic decisions, select draws).
func New(src rand.Source) *World {
	return &World{
		Symbols:       symbol.New(),
		Variables:     make(map[vector.Key]*state.Variable),
		Dynamics:      dynamics.New(),
		Turns:         turn.New(),
		Models:        make(map[string]*agent.Model),
		Collaborators: make(map[string]agent.Collaborator),
		State:         state.New(),
		Source:        src,
		graphDirty:    true,
	}
}

// DefineVariable registers v's descriptor, failing ErrDuplicateDefinition
// if v.Key was already declared (spec.md §3 "variables ... never
// redefined").
func (w *World) DefineVariable(v state.Variable) error {
	if _, exists := w.Variables[v.Key]; exists {
		return simerr.New("world.DefineVariable", simerr.ErrDuplicateDefinition)
	}
	w.Variables[v.Key] = &v
	return nil
}

// DefineState declares and seeds a feature-of-entity variable,
// joining its initial value into substate label (spec.md §4.7).
func (w *World) DefineState(entity, feature string, v state.Variable, initial float64, label string) error {
	v.Key = vector.Feature(entity, feature)
	v.Substate = label
	if err := w.DefineVariable(v); err != nil {
		return err
	}
	w.State = w.State.Join(v.Key, initial, label)
	return nil
}

// DefineRelation declares and seeds a binary-relation variable
// (spec.md §3).
func (w *World) DefineRelation(rel, a, b string, v state.Variable, initial float64, label string) error {
	v.Key = vector.Relation(rel, a, b)
	v.Substate = label
	if err := w.DefineVariable(v); err != nil {
		return err
	}
	w.State = w.State.Join(v.Key, initial, label)
	return nil
}

// SetDynamics registers tree as key's dynamics under pattern, marking
// the dependency graph for lazy rebuild (spec.md §4.4: "recomputed
// lazily whenever the variable set or dynamics change").
func (w *World) SetDynamics(key vector.Key, pattern action.Set, tree *plt.Node) error {
	if err := tree.Desymbolize(w.Symbols); err != nil {
		return err
	}
	w.Dynamics.SetDynamics(key, pattern, tree)
	w.graphDirty = true
	return nil
}

// AddDynamics is an alias for SetDynamics (spec.md §6).
func (w *World) AddDynamics(key vector.Key, pattern action.Set, tree *plt.Node) error {
	return w.SetDynamics(key, pattern, tree)
}

// SetWildcardDynamics registers tree as key's fallback dynamics.
func (w *World) SetWildcardDynamics(key vector.Key, tree *plt.Node) error {
	if err := tree.Desymbolize(w.Symbols); err != nil {
		return err
	}
	w.Dynamics.SetWildcardDynamics(key, tree)
	w.graphDirty = true
	return nil
}

// SetOrder declares the turn order and seeds every agent's turn-key
// value into substate label (spec.md §4.6).
func (w *World) SetOrder(order []turn.Group, label string) {
	w.Turns.SetOrder(order)
	w.State = w.Turns.InitialState(w.State, label)
}

// SetModel registers model under its name, and the collaborator
// that answers decisions and belief updates for its agent.
func (w *World) SetModel(m *agent.Model, coll agent.Collaborator) {
	w.Models[m.Name] = m
	if coll != nil {
		w.Collaborators[m.Agent] = coll
	}
}

// Model looks up a registered model by name, satisfying agent.Registry.
func (w *World) Model(name string) (*agent.Model, bool) {
	m, ok := w.Models[name]
	return m, ok
}

// ModelNames returns every registered model name, sorted, satisfying
// agent.Registry.
func (w *World) ModelNames() []string {
	names := make([]string, 0, len(w.Models))
	for n := range w.Models {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ModelAt resolves a model-slot's float code to a name via its
// position in the sorted model-name list. This is an engine-wide
// simplification of spec.md §4.1's per-agent symbol bijection, used
// only by the garbage collector (spec.md §4.10), which only needs
// *some* consistent code<->name mapping to trace reachability, not
// the collaborator-specific one used for belief update proper (see
// package estimator, which always goes through the owning
// collaborator's Index2Model/Model2Index).
func (w *World) ModelAt(code float64) (string, bool) {
	names := w.ModelNames()
	i := int(code)
	if i < 0 || i >= len(names) {
		return "", false
	}
	return names[i], true
}

// Reachable runs the model garbage collector (spec.md §4.10) from
// every model named by a model-slot key in the top-level state.
func (w *World) Reachable() map[string]bool {
	var roots []string
	for _, k := range w.State.Domain() {
		if !k.IsModel() {
			continue
		}
		codes, err := w.State.GetFeature(k)
		if err != nil {
			continue
		}
		for code := range codes {
			if name, ok := w.ModelAt(code); ok {
				roots = append(roots, name)
			}
		}
	}
	return agent.GC(w, roots)
}

// GetFeature returns the marginal distribution over key's values in
// the real state (spec.md §4.7).
func (w *World) GetFeature(key vector.Key) (map[float64]float64, error) {
	return w.State.GetFeature(key)
}

// GetValue returns key's point value in the real state, failing
// ErrAmbiguous if its marginal is not a singleton (spec.md §4.7).
func (w *World) GetValue(key vector.Key) (float64, error) {
	return w.State.GetValue(key)
}

// SetFeature stores v under key in the real state, joining it into
// the substate declared when key was defined (spec.md §4.7).
func (w *World) SetFeature(key vector.Key, v float64) error {
	variable, ok := w.Variables[key]
	label := ""
	if ok {
		label = variable.Substate
	} else if existing, ok := w.State.Substate(key); ok {
		label = existing
	} else {
		label = string(key)
	}
	w.State = w.State.Join(key, v, label)
	return nil
}

// Terminated reports whether the real state satisfies TERMINATED.
func (w *World) Terminated() bool { return w.State.Terminated() }

// ensureGraph rebuilds the cached dependency graph if dynamics changed
// since it was last built (spec.md §4.4).
func (w *World) ensureGraph() *depgraph.Graph {
	if w.graphDirty || w.graph == nil {
		w.graph = depgraph.Build(w.Dynamics)
		w.graphDirty = false
	}
	return w.graph
}

// sampleWorld collapses every substate's distribution in st to a
// single sampled support vector, used when Step's select flag is set
// (spec.md §4.5 step 4: "sample one world from new, uniform over its
// support by probability").
func (w *World) sampleWorld(st *state.Set) (*state.Set, error) {
	owned := make(map[string][]vector.Key)
	for _, k := range st.Domain() {
		label, ok := st.Substate(k)
		if ok {
			owned[label] = append(owned[label], k)
		}
	}

	out := st
	for _, label := range st.Labels() {
		d, ok := st.Marginal(label)
		if !ok {
			continue
		}
		x, err := d.Sample(w.Source)
		if err != nil {
			return nil, err
		}
		point := distribution.NewVector()
		point.Insert(x, 1.0)
		out = out.ReplaceSubstate(label, point, owned[label])
	}
	return out, nil
}
