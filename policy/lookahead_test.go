package policy

import (
	"testing"

	"golang.org/x/exp/rand"

	"github.com/mindmesh/simcore/action"
	"github.com/mindmesh/simcore/agent"
	"github.com/mindmesh/simcore/distribution"
	"github.com/mindmesh/simcore/state"
	"github.com/mindmesh/simcore/vector"
)

// fakeStepper is a trivial one-agent Stepper that never changes state
// (the scenarios below only need horizon-0 evaluation).
type fakeStepper struct{}

func (fakeStepper) StepFromState(st *state.Set, actions action.Set) (*state.Set, error) {
	return st, nil
}

func (fakeStepper) Next(st *state.Set) ([]string, error) {
	return []string{"solo"}, nil
}

// scriptedValues is a minimal agent.Collaborator whose ActionValue
// looks up a fixed reward by verb, used to drive FindBest/EvaluateChoices
// tests without a real domain agent.
type scriptedValues struct {
	values map[string]float64
}

func (s *scriptedValues) Decide(st *state.Set, horizon int, actionsSoFar action.Set, model string, tiebreak bool) (agent.Decision, error) {
	return agent.Decision{}, nil
}
func (s *scriptedValues) Observe(v *vector.Keyed, actions action.Set) (*distribution.Vector, error) {
	return nil, nil
}
func (s *scriptedValues) StateEstimator(old, new, omega *vector.Keyed, oldModel string) (string, bool, error) {
	return oldModel, true, nil
}
func (s *scriptedValues) ActionValue(a action.Set, horizon int, st *state.Set, debug, explain bool) (float64, string, error) {
	act, _ := a.ForSubject("solo")
	return s.values[act.Verb], "", nil
}
func (s *scriptedValues) GetActions(v *vector.Keyed) []action.Set { return nil }
func (s *scriptedValues) Index2Model(code float64) (string, error) { return "true", nil }
func (s *scriptedValues) Model2Index(name string) (float64, error) { return 0, nil }

func TestFindBestPicksHigherValueAction(t *testing.T) {
	l := &Lookahead{
		Agent:                 "solo",
		ConsistentTieBreaking: true,
		Self:                  &scriptedValues{values: map[string]float64{"alpha": 1, "beta": 2}},
		World:                 fakeStepper{},
		Source:                rand.NewSource(1),
	}
	st := state.New()
	d, err := l.FindBest(st, []action.Action{action.New("solo", "alpha"), action.New("solo", "beta")}, 0)
	if err != nil {
		t.Fatalf("FindBest: %v", err)
	}
	chosen, _ := d.Action.ForSubject("solo")
	if chosen.Verb != "beta" {
		t.Fatalf("FindBest chose %q, want beta (higher value)", chosen.Verb)
	}
}

func TestFindBestBreaksTiesAlphabetically(t *testing.T) {
	l := &Lookahead{
		Agent:                 "solo",
		ConsistentTieBreaking: true,
		Self:                  &scriptedValues{values: map[string]float64{"alpha": 1, "beta": 1}},
		World:                 fakeStepper{},
		Source:                rand.NewSource(1),
	}
	st := state.New()
	d, err := l.FindBest(st, []action.Action{action.New("solo", "beta"), action.New("solo", "alpha")}, 0)
	if err != nil {
		t.Fatalf("FindBest: %v", err)
	}
	chosen, _ := d.Action.ForSubject("solo")
	if chosen.Verb != "alpha" {
		t.Fatalf("consistent tie-breaking chose %q, want alpha", chosen.Verb)
	}
}

func TestFindBestReturnsStochasticWithoutConsistentTieBreaking(t *testing.T) {
	l := &Lookahead{
		Agent: "solo",
		Self:  &scriptedValues{values: map[string]float64{"alpha": 1, "beta": 1}},
		World: fakeStepper{},
	}
	st := state.New()
	d, err := l.FindBest(st, []action.Action{action.New("solo", "alpha"), action.New("solo", "beta")}, 0)
	if err != nil {
		t.Fatalf("FindBest: %v", err)
	}
	if !d.Stochastic {
		t.Fatalf("FindBest without consistent tie-breaking should report a stochastic tie")
	}
	if len(d.Actions) != 2 {
		t.Fatalf("Actions = %v, want both tied actions", d.Actions)
	}
}

func TestEvaluateChoicesRejectsEmptySet(t *testing.T) {
	l := &Lookahead{
		Agent: "solo",
		Self:  &scriptedValues{values: map[string]float64{}},
		World: fakeStepper{},
	}
	if _, err := l.EvaluateChoices(state.New(), nil, 0); err == nil {
		t.Fatalf("EvaluateChoices(nil choices) succeeded, want ErrNoLegalActions")
	}
}

func TestSampleIsNoOpOnDeterministicDecision(t *testing.T) {
	l := &Lookahead{Agent: "solo", Source: rand.NewSource(1)}
	want := action.Of(action.New("solo", "alpha"))
	got, err := l.Sample(agent.Decision{Action: want})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if got.Key() != want.Key() {
		t.Fatalf("Sample() = %v, want unchanged %v", got, want)
	}
}
