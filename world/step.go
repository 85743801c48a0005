package world

import (
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mindmesh/simcore/action"
	"github.com/mindmesh/simcore/distribution"
	"github.com/mindmesh/simcore/estimator"
	"github.com/mindmesh/simcore/plt"
	"github.com/mindmesh/simcore/simerr"
	"github.com/mindmesh/simcore/state"
	"github.com/mindmesh/simcore/vector"
)

// StepFromState advances a hypothetical state by one turn under
// actionsFixed, without touching the real world (spec.md §4.5 step 2).
// It satisfies policy.Stepper, so the lookahead policy can use it for
// projected evaluation as well as real stepping.
func (w *World) StepFromState(st *state.Set, actionsFixed action.Set) (*state.Set, error) {
	out, _, err := w.stepFromState(st, actionsFixed)
	return out, err
}

// Next resolves whose turn follows in st, satisfying policy.Stepper.
func (w *World) Next(st *state.Set) ([]string, error) {
	return w.Turns.NextFromSet(st)
}

func (w *World) stepFromState(st *state.Set, actionsFixed action.Set) (*state.Set, []string, error) {
	if st.Terminated() {
		// Termination absorption (spec.md §8): step(s, a).new == s.
		return st, nil, nil
	}

	actors, err := w.Turns.NextFromSet(st)
	if err != nil {
		return nil, nil, err
	}

	full := actionsFixed
	var log []string
	var stochasticSubject string
	var stochasticProbs map[string]float64

	for _, a := range actors {
		if _, ok := full.ForSubject(a); ok {
			continue
		}
		coll, ok := w.Collaborators[a]
		if !ok {
			continue
		}
		model := w.activeModel(st, a)
		decision, err := coll.Decide(st, 0, full, model, w.ConsistentTieBreaking)
		if err != nil {
			return nil, nil, err
		}
		if !decision.Stochastic {
			chosen := mustSubjectAction(decision.Action, a)
			full = full.WithAction(chosen)
			log = append(log, a+" decides "+chosen.String())
			continue
		}
		if stochasticSubject != "" {
			return nil, nil, simerr.New("world.StepFromState", simerr.ErrStochasticFanout)
		}
		stochasticSubject = a
		stochasticProbs = decision.Actions
	}

	if stochasticSubject != "" {
		chosen, err := sampleStochasticAction(stochasticSubject, stochasticProbs, w.Source)
		if err != nil {
			return nil, nil, err
		}
		full = full.WithAction(chosen)
		log = append(log, stochasticSubject+" samples "+chosen.String())
	}

	out, effectLog, err := w.effect(st, full)
	if err != nil {
		return nil, nil, err
	}
	return out, append(log, effectLog...), nil
}

// activeModel returns the model name agent's own beliefs are
// currently stored under, as seen from st, or "" if unknown
// (spec.md §4.9).
func (w *World) activeModel(st *state.Set, agentName string) string {
	coll, ok := w.Collaborators[agentName]
	if !ok {
		return ""
	}
	code, err := st.GetValue(vector.Model(agentName))
	if err != nil {
		return ""
	}
	name, err := coll.Index2Model(code)
	if err != nil {
		return ""
	}
	return name
}

// effect applies state dynamics, turn dynamics, and belief update in
// order, exactly as spec.md §4.5 step 3 describes.
func (w *World) effect(st *state.Set, actions action.Set) (*state.Set, []string, error) {
	xOld := st.Flatten()
	out := st
	var log []string

	graph := w.ensureGraph()
	for _, component := range graph.Order {
		jd, err := w.componentDistribution(component, xOld, actions)
		if err != nil {
			return nil, nil, err
		}
		if jd.Len() == 0 {
			return nil, nil, simerr.New("world.effect", simerr.ErrNoConsistentTransition)
		}
		if err := jd.Normalize(); err != nil {
			return nil, nil, err
		}
		out = out.ReplaceSubstate(componentLabel(component), jd, component)
		log = append(log, "dynamics: "+componentLabel(component))
	}

	if agents := w.Turns.Agents(); len(agents) > 0 {
		turnVec := vector.New()
		turnKeys := make([]vector.Key, len(agents))
		for i, a := range agents {
			key := w.Turns.TurnKey(a)
			turnKeys[i] = key
			tree, err := w.turnDynamics(key, a, actions)
			if err != nil {
				return nil, nil, err
			}
			m, err := tree.ApplyDeterministic(xOld)
			if err != nil {
				return nil, nil, err
			}
			turnVec.Set(key, m.Apply(xOld).Get(key))
		}
		point := distribution.NewVector()
		point.Insert(turnVec, 1.0)
		out = out.ReplaceSubstate("turns", point, turnKeys)
		log = append(log, "turn advance")
	}

	xNew := out.Flatten()
	updated, err := estimator.Update(out, xOld, xNew, actions, w.Collaborators, w)
	if err != nil {
		return nil, nil, err
	}
	out = updated
	log = append(log, "belief update")

	return out, log, nil
}

// turnDynamics resolves the single deterministic PLT governing
// agent's turn key, falling back to the scheduler's default
// decrement-or-wrap dynamics, and rejecting non-deterministic or
// ambiguous (combinator) registrations (spec.md §4.5 step ii, §4.2
// determinism requirement).
func (w *World) turnDynamics(key vector.Key, agentName string, actions action.Set) (*plt.Node, error) {
	plts := w.Dynamics.GetDynamics(key, actions)
	var tree *plt.Node
	switch len(plts) {
	case 0:
		tree = w.Turns.DefaultDynamics(agentName)
	case 1:
		tree = plts[0]
	default:
		return nil, simerr.New("world.turnDynamics", simerr.ErrInvariantViolation)
	}
	if !tree.IsDeterministic() {
		return nil, simerr.New("world.turnDynamics", simerr.ErrInvariantViolation)
	}
	return tree, nil
}

// componentDistribution computes the joint distribution over one
// SCC's keys' new values, every key's dynamics reading only xOld
// (spec.md §4.4, §4.5 step 3.i: "a joint distribution ... from the
// old vector").
func (w *World) componentDistribution(component []vector.Key, xOld *vector.Keyed, actions action.Set) (*distribution.Vector, error) {
	joint := distribution.NewVector()
	joint.Insert(vector.New(), 1.0)

	for _, key := range component {
		perKey, err := w.keyDistribution(key, xOld, actions)
		if err != nil {
			return nil, err
		}
		next := distribution.NewVector()
		for i, jx := range joint.Support() {
			jp := joint.Mass(i)
			for val, p := range perKey {
				nx := jx.Clone()
				nx.Set(key, val)
				next.Insert(nx, jp*p)
			}
		}
		joint = next
	}
	return joint, nil
}

// keyDistribution evaluates key's registered dynamics chain (composed
// in list order per spec.md §4.3's combinator rule) against xOld,
// returning the marginal distribution over key's new value.
func (w *World) keyDistribution(key vector.Key, xOld *vector.Keyed, actions action.Set) (map[float64]float64, error) {
	plts := w.Dynamics.GetDynamics(key, actions)
	if len(plts) == 0 {
		return map[float64]float64{xOld.Get(key): 1.0}, nil
	}

	cur := distribution.NewVector()
	cur.Insert(xOld.Clone(), 1.0)
	for _, tree := range plts {
		next, err := tree.ApplyDistribution(cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}

	out := make(map[float64]float64)
	for i, xi := range cur.Support() {
		out[xi.Get(key)] += cur.Mass(i)
	}
	return out, nil
}

// componentLabel derives a deterministic substate label for a
// committed SCC, from its sorted key list.
func componentLabel(keys []vector.Key) string {
	var b []byte
	for i, k := range keys {
		if i > 0 {
			b = append(b, '+')
		}
		b = append(b, []byte(k)...)
	}
	return string(b)
}

// mustSubjectAction extracts subject's move from a deterministic
// Decision's ActionSet, defaulting to a bare no-op if the decision
// did not name the subject.
func mustSubjectAction(set action.Set, subject string) action.Action {
	if a, ok := set.ForSubject(subject); ok {
		return a
	}
	return action.New(subject, "noop")
}

// sampleStochasticAction draws one action for subject from a
// stochastic Decision's probability map, via gonum's distuv.Categorical
// exactly as agent/linear/policy/EGreedy.go samples over action
// probabilities.
func sampleStochasticAction(subject string, probs map[string]float64, src rand.Source) (action.Action, error) {
	keys := make([]string, 0, len(probs))
	for k := range probs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	weights := make([]float64, len(keys))
	for i, k := range keys {
		weights[i] = probs[k]
	}
	cat := distuv.NewCategorical(weights, src)
	i := int(cat.Rand())

	prefix := subject + "."
	key := keys[i]
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return action.Action{}, simerr.New("world.sampleStochasticAction", simerr.ErrInvariantViolation)
	}
	verb := key[len(prefix):]
	for j, r := range verb {
		if r == '(' {
			verb = verb[:j]
			break
		}
	}
	return action.New(subject, verb), nil
}
