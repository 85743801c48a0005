package agent

import (
	"github.com/mindmesh/simcore/action"
	"github.com/mindmesh/simcore/distribution"
	"github.com/mindmesh/simcore/state"
	"github.com/mindmesh/simcore/vector"
)

// Decision is the result of a collaborator's decide call: either a
// single chosen ActionSet, or a distribution over ActionSets, plus
// the value the collaborator assigns to its choice (spec.md §6).
type Decision struct {
	Action      action.Set
	Actions     map[string]float64 // action.Set.Key() -> probability, when stochastic
	Stochastic  bool
	Value       float64
}

// Collaborator is the external, domain-specific agent interface the
// engine calls out to (spec.md §6 "Inputs consumed from
// collaborators"). The engine never implements this itself; it is
// supplied by the caller's domain-specific agent library, which is
// explicitly out of scope (spec.md §1).
type Collaborator interface {
	// Decide returns the collaborator's chosen action(s) for its
	// subject, looking horizon steps ahead under the named model of
	// itself (so it can be asked to decide as projected by another
	// agent's lookahead), given any actions already fixed this turn.
	Decide(st *state.Set, horizon int, actionsSoFar action.Set, model string, tiebreak bool) (Decision, error)

	// Observe returns the collaborator's observation distribution
	// after actions were applied producing vector (spec.md §4.9).
	Observe(vector *vector.Keyed, actions action.Set) (*distribution.Vector, error)

	// StateEstimator maps (prior state, posterior state, observation,
	// prior model name) to a new posterior model name, or "" (ok=false)
	// if the observation is inconsistent with every model (spec.md §4.9).
	StateEstimator(old, new *vector.Keyed, omega *vector.Keyed, oldModel string) (newModel string, ok bool, err error)

	// ActionValue returns the collaborator's assessment of taking
	// action at horizon under state, plus a human-readable
	// explanation string.
	ActionValue(a action.Set, horizon int, st *state.Set, debug, explain bool) (value float64, explanation string, err error)

	// GetActions returns the legal ActionSets available to the
	// collaborator's subject given vector.
	GetActions(vector *vector.Keyed) []action.Set

	// Index2Model and Model2Index form the collaborator's own
	// symbol bijection between a model's float code (as stored in a
	// model-slot key) and its name.
	Index2Model(code float64) (string, error)
	Model2Index(name string) (float64, error)
}
