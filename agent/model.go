// Package agent implements agent models (spec.md §3): named beliefs
// records addressable via the symbol table, plus the collaborator
// interface the engine calls out to for decisions, observations, and
// belief updates, and the model garbage collector (spec.md §4.10).
package agent

import "github.com/mindmesh/simcore/state"

// BeliefsKind tags which of Beliefs' three shapes is populated
// (design note §9: "tagged variant Beliefs = TrueBeliefs | Pointer(name)
// | Subjective(DistributionSet)").
type BeliefsKind int

const (
	// TrueBeliefs means the model is omniscient: it uses the real
	// world state directly, never an independent subjective copy.
	TrueBeliefs BeliefsKind = iota
	// PointerBeliefs means the model's beliefs are shared with
	// (delegated to) another named model.
	PointerBeliefs
	// SubjectiveBeliefs means the model owns its own distribution-set
	// view of the world.
	SubjectiveBeliefs
)

// Beliefs is the tagged variant describing what an agent model
// believes.
type Beliefs struct {
	Kind       BeliefsKind
	Pointer    string     // valid when Kind == PointerBeliefs
	Subjective *state.Set // valid when Kind == SubjectiveBeliefs
}

// True returns the omniscient Beliefs value.
func True() Beliefs { return Beliefs{Kind: TrueBeliefs} }

// Pointer returns a Beliefs value delegating to another model by name.
func Pointer(model string) Beliefs { return Beliefs{Kind: PointerBeliefs, Pointer: model} }

// Subjective returns a Beliefs value owning its own distribution set.
func Subjective(s *state.Set) Beliefs { return Beliefs{Kind: SubjectiveBeliefs, Subjective: s} }

// Model is a named hypothesis about an agent: its beliefs, a
// rationality parameter governing softmax choice, an optional parent
// model it was derived from, and a static flag suppressing belief
// updates (spec.md §3).
type Model struct {
	Name        string
	Agent       string
	Beliefs     Beliefs
	Rationality float64
	Parent      string // model name, "" if none
	Static      bool
}

// NewModel constructs a Model for agent with the given name and
// beliefs, a default rationality of 1.0, and no parent.
func NewModel(name, agent string, beliefs Beliefs) *Model {
	return &Model{Name: name, Agent: agent, Beliefs: beliefs, Rationality: 1.0}
}
