// Package estimator implements the belief update (spec.md §4.9): after
// a step produces a new vector, each agent's model slot is
// re-estimated from the modeled agent's observation function and
// state estimator, renormalized over the surviving branches, and
// joined back into the slot's substate as a distribution over model
// codes. Each model-slot key is updated on its own: no joint
// distribution across agents' model slots is formed, and no
// combination of per-agent updates is dropped as inconsistent.
package estimator

import (
	"github.com/mindmesh/simcore/action"
	"github.com/mindmesh/simcore/agent"
	"github.com/mindmesh/simcore/simerr"
	"github.com/mindmesh/simcore/state"
	"github.com/mindmesh/simcore/vector"
)

// Models resolves a model name to its record, used to check whether a
// model is omniscient or static and therefore exempt from re-estimation.
type Models interface {
	Model(name string) (*agent.Model, bool)
}

// Update re-estimates every model-slot key present in st, given the
// prior and posterior flattened vectors and the actions taken, per
// spec.md §4.9. Model-slot keys belonging to agents with no
// registered collaborator are left untouched (the caller did not ask
// this engine to track beliefs about them).
func Update(st *state.Set, oldVec, newVec *vector.Keyed, actions action.Set, collaborators map[string]agent.Collaborator, models Models) (*state.Set, error) {
	out := st
	for _, k := range st.Domain() {
		if !k.IsModel() {
			continue
		}
		agentName := k.Agent()
		coll, ok := collaborators[agentName]
		if !ok {
			continue
		}
		codes, err := st.GetFeature(k)
		if err != nil {
			return nil, err
		}

		next := make(map[float64]float64)
		var total float64
		for code, mass := range codes {
			modelName, err := coll.Index2Model(code)
			if err != nil {
				return nil, err
			}
			m, ok := models.Model(modelName)
			if !ok {
				continue
			}
			if m.Beliefs.Kind == agent.TrueBeliefs || m.Static {
				next[code] += mass
				total += mass
				continue
			}

			omega, err := coll.Observe(newVec, actions)
			if err != nil {
				return nil, err
			}
			if omega.Len() != 1 {
				return nil, simerr.New("estimator.Update", simerr.ErrNotYetImplemented)
			}
			obs := omega.Support()[0]

			newModelName, ok, err := coll.StateEstimator(oldVec, newVec, obs, modelName)
			if err != nil {
				return nil, err
			}
			if !ok {
				// Infeasible branch: its mass is simply not carried
				// forward; the surviving branches are renormalized
				// below (spec.md §4.9 step 3).
				continue
			}
			newCode, err := coll.Model2Index(newModelName)
			if err != nil {
				return nil, err
			}
			next[newCode] += mass
			total += mass
		}

		if total == 0 {
			// Every branch was infeasible: the whole update for this
			// key is discarded and the prior belief is kept
			// (spec.md §4.9 step 3).
			continue
		}
		for code := range next {
			next[code] /= total
		}

		label, _ := out.Substate(k)
		out = out.JoinDistribution(k, next, label)
	}
	return out, nil
}
