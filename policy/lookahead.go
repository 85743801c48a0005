// Package policy implements the lookahead policy (spec.md §4.8): a
// per-agent action chooser that projects forward a bounded horizon,
// simulating other agents through the active model's beliefs about
// them, exactly as agent/linear/policy/Greedy.go picks the
// argmax-valued action and agent/linear/policy/EGreedy.go falls back
// to a categorical distribution over ties.
package policy

import (
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mindmesh/simcore/action"
	"github.com/mindmesh/simcore/agent"
	"github.com/mindmesh/simcore/simerr"
	"github.com/mindmesh/simcore/state"
)

// Stepper is the narrow slice of World the lookahead policy needs: it
// must be able to advance a hypothetical state by one turn and report
// whose turn follows. Declared here rather than importing package
// world, so world can depend on policy without a cycle.
type Stepper interface {
	StepFromState(st *state.Set, actions action.Set) (*state.Set, error)
	Next(st *state.Set) ([]string, error)
}

// Evaluation is one candidate action's projected value.
type Evaluation struct {
	Action action.Set
	Value  float64
}

// Lookahead is the per-agent action chooser described by spec.md §4.8.
type Lookahead struct {
	// Agent is the subject this policy chooses actions for.
	Agent string
	// Horizon is the default projection depth.
	Horizon int
	// ConsistentTieBreaking breaks value ties by ascending string
	// representation; otherwise every tied action is kept.
	ConsistentTieBreaking bool
	// SingleChoice returns one action from FindBest rather than a
	// uniform distribution over ties.
	SingleChoice bool

	// Self is the collaborator supplying Agent's own instantaneous
	// reward function and legal-action enumeration.
	Self agent.Collaborator
	// Others maps every other agent's name to the collaborator used
	// to project their decisions during lookahead.
	Others map[string]agent.Collaborator
	// ModelOfOthers maps another agent's name to the model name this
	// policy's agent believes describes them, passed to that
	// collaborator's Decide so it simulates under the right beliefs
	// (spec.md §4.9).
	ModelOfOthers map[string]string

	// World advances hypothetical states and resolves turn order.
	World Stepper
	// Source seeds the uniform tie distribution's sampling, when the
	// caller draws rather than enumerates it.
	Source rand.Source
}

// EvaluateChoices returns every candidate action's projected value,
// per spec.md §4.8: each is evaluated against an independent
// hypothetical copy of st, so the real state is never mutated.
func (l *Lookahead) EvaluateChoices(st *state.Set, choices []action.Action, horizon int) (map[string]Evaluation, error) {
	if len(choices) == 0 {
		return nil, simerr.New("policy.EvaluateChoices", simerr.ErrNoLegalActions)
	}
	out := make(map[string]Evaluation, len(choices))
	for _, c := range choices {
		a := action.Of(c)
		v, err := l.actionValue(a, horizon, st)
		if err != nil {
			return nil, err
		}
		out[a.Key()] = Evaluation{Action: a, Value: v}
	}
	return out, nil
}

// FindBest selects the maximum-value action(s) from choices, per
// spec.md §4.8's tie-breaking and single_choice rules. If choices is
// nil, it is populated from l.Self.GetActions(st.Flatten()).
func (l *Lookahead) FindBest(st *state.Set, choices []action.Action, horizon int) (agent.Decision, error) {
	if choices == nil {
		for _, s := range l.Self.GetActions(st.Flatten()) {
			if a, ok := s.ForSubject(l.Agent); ok {
				choices = append(choices, a)
			}
		}
	}
	evals, err := l.EvaluateChoices(st, choices, horizon)
	if err != nil {
		return agent.Decision{}, err
	}

	best := -1.0
	first := true
	var tied []Evaluation
	for _, e := range evals {
		if first || e.Value > best {
			best = e.Value
			tied = []Evaluation{e}
			first = false
		} else if e.Value == best {
			tied = append(tied, e)
		}
	}
	sort.Slice(tied, func(i, j int) bool { return tied[i].Action.Key() < tied[j].Action.Key() })

	if l.ConsistentTieBreaking || len(tied) == 1 {
		return agent.Decision{Action: tied[0].Action, Value: best}, nil
	}
	if l.SingleChoice {
		return agent.Decision{Action: tied[0].Action, Value: best}, nil
	}

	probs := make(map[string]float64, len(tied))
	p := 1.0 / float64(len(tied))
	for _, e := range tied {
		probs[e.Action.Key()] = p
	}
	return agent.Decision{Stochastic: true, Actions: probs, Value: best}, nil
}

// actionValue implements spec.md §4.8's action_value: the
// instantaneous reward of taking a in st, plus (for horizon > 0 and
// st not terminated) the expected value of projecting one step
// forward with every other actor's move drawn from its modeled
// collaborator, and this agent continuing to act optimally at
// horizon-1.
func (l *Lookahead) actionValue(a action.Set, horizon int, st *state.Set) (float64, error) {
	reward, _, err := l.Self.ActionValue(a, 0, st, false, false)
	if err != nil {
		return 0, err
	}
	if horizon <= 0 || st.Terminated() {
		return reward, nil
	}

	branches, err := l.projectTurn(st, a)
	if err != nil {
		return 0, err
	}

	var future float64
	for _, br := range branches {
		newSt, err := l.World.StepFromState(st, br.actions)
		if err != nil {
			return 0, err
		}
		if newSt.Terminated() {
			continue
		}
		v, err := l.findBestValue(newSt, horizon-1)
		if err != nil {
			return 0, err
		}
		future += br.prob * v
	}
	return reward + future, nil
}

// findBestValue returns the value of this agent's best available
// action at st and horizon, or 0 if horizon is exhausted or st is
// already terminated (spec.md §4.8 termination-in-lookahead).
func (l *Lookahead) findBestValue(st *state.Set, horizon int) (float64, error) {
	if horizon <= 0 || st.Terminated() {
		return 0, nil
	}
	var choices []action.Action
	for _, s := range l.Self.GetActions(st.Flatten()) {
		if a, ok := s.ForSubject(l.Agent); ok {
			choices = append(choices, a)
		}
	}
	if len(choices) == 0 {
		return 0, simerr.New("policy.findBestValue", simerr.ErrNoLegalActions)
	}
	d, err := l.FindBest(st, choices, horizon)
	if err != nil {
		return 0, err
	}
	return d.Value, nil
}

type turnBranch struct {
	actions action.Set
	prob    float64
}

// projectTurn resolves every other actor's move this turn via its
// modeled collaborator's Decide, composing them with a's fixed move
// into one or more weighted ActionSets. At most one other actor may
// return a stochastic Decision (spec.md §4.5c); a second stochastic
// actor raises ErrStochasticFanout.
func (l *Lookahead) projectTurn(st *state.Set, a action.Set) ([]turnBranch, error) {
	actors, err := l.World.Next(st)
	if err != nil {
		return nil, err
	}

	full := a
	var stochasticSubject string
	var stochasticProbs map[string]float64

	for _, other := range actors {
		if other == l.Agent {
			continue
		}
		coll, ok := l.Others[other]
		if !ok {
			continue
		}
		model := l.ModelOfOthers[other]
		d, err := coll.Decide(st, 0, full, model, l.ConsistentTieBreaking)
		if err != nil {
			return nil, err
		}
		if !d.Stochastic {
			full = full.WithAction(mustSubjectAction(d.Action, other))
			continue
		}
		if stochasticSubject != "" {
			return nil, simerr.New("policy.projectTurn", simerr.ErrStochasticFanout)
		}
		stochasticSubject = other
		stochasticProbs = d.Actions
	}

	if stochasticSubject == "" {
		return []turnBranch{{actions: full, prob: 1.0}}, nil
	}

	branches := make([]turnBranch, 0, len(stochasticProbs))
	keys := make([]string, 0, len(stochasticProbs))
	for k := range stochasticProbs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		act, ok := decodeAction(stochasticSubject, key)
		if !ok {
			continue
		}
		branches = append(branches, turnBranch{actions: full.WithAction(act), prob: stochasticProbs[key]})
	}
	return branches, nil
}

// mustSubjectAction extracts subject's move from a deterministic
// Decision's ActionSet, falling back to a bare no-op action if the
// decision did not name the subject (a malformed but non-fatal
// collaborator response).
func mustSubjectAction(set action.Set, subject string) action.Action {
	if a, ok := set.ForSubject(subject); ok {
		return a
	}
	return action.New(subject, "noop")
}

// decodeAction recovers one action's subject.verb form from an
// action.Set.Key() string fragment, since the stochastic Decision
// only names actions by that canonical string. It assumes the key is
// a single action with no parameters, the common stochastic-dynamics
// case in spec.md §8 scenario 2.
func decodeAction(subject, key string) (action.Action, bool) {
	prefix := subject + "."
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return action.Action{}, false
	}
	verb := key[len(prefix):]
	for i, r := range verb {
		if r == '(' {
			verb = verb[:i]
			break
		}
	}
	return action.New(subject, verb), true
}

// Sample draws one concrete action.Set from a stochastic Decision
// using l.Source, mirroring the categorical draw in
// agent/linear/policy/EGreedy.go. It is a no-op returning d.Action
// unchanged when d is not stochastic.
func (l *Lookahead) Sample(d agent.Decision) (action.Set, error) {
	if !d.Stochastic {
		return d.Action, nil
	}
	keys := make([]string, 0, len(d.Actions))
	for k := range d.Actions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	weights := make([]float64, len(keys))
	for i, k := range keys {
		weights[i] = d.Actions[k]
	}
	cat := distuv.NewCategorical(weights, l.Source)
	i := int(cat.Rand())
	act, ok := decodeAction(l.Agent, keys[i])
	if !ok {
		return d.Action, simerr.New("policy.Sample", simerr.ErrInvariantViolation)
	}
	return action.Of(act), nil
}
