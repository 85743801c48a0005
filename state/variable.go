// Package state implements the factored state (spec.md §3): a
// distribution set mapping substate label -> vector distribution,
// plus the key -> substate index and variable descriptors that govern
// it.
package state

import "github.com/mindmesh/simcore/vector"

// Domain is the declared value domain of a variable (spec.md §3).
type Domain int

const (
	DomainBool Domain = iota
	DomainInt
	DomainFloat
	DomainEnumList
	DomainEnumSet
	DomainActionSet
)

// Combinator controls how multiple applicable dynamics PLTs for one
// key are combined (spec.md §4.3).
type Combinator int

const (
	// CombinatorSingle requires at most one applicable PLT per step.
	CombinatorSingle Combinator = iota
	// CombinatorSequence composes multiple applicable PLTs by
	// successive application in list order ("*" in spec.md §4.3).
	CombinatorSequence
)

// Variable is the descriptor authored once, before stepping, for a
// single key (spec.md §3).
type Variable struct {
	Key         vector.Key
	Domain      Domain
	Lo, Hi      float64
	Symbols     []string
	Combinator  Combinator
	Description string
	Substate    string
}
