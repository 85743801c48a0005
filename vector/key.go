package vector

import "strings"

// Key is an opaque string identifier for a slot in a keyed vector. It
// may be bare (an author-chosen name) or carry one of the structured
// prefixes below, which the dependency graph and turn scheduler use to
// classify keys without a side table.
type Key string

// Reserved keys present in every vector (spec.md §3).
const (
	Constant   Key = "CONSTANT"
	Terminated Key = "TERMINATED"
)

const (
	featurePrefix  = "F:"
	relationPrefix = "R:"
	turnPrefix     = "T:"
	modelPrefix    = "M:"
)

// Feature builds the key for feature F of entity.
func Feature(entity, feature string) Key {
	return Key(featurePrefix + entity + ":" + feature)
}

// Relation builds the key for the binary relation rel(a, b).
func Relation(rel, a, b string) Key {
	return Key(relationPrefix + rel + ":" + a + ":" + b)
}

// Turn builds the turn-counter key for agent.
func Turn(agent string) Key {
	return Key(turnPrefix + agent)
}

// Model builds the active-model-slot key for agent.
func Model(agent string) Key {
	return Key(modelPrefix + agent)
}

// IsTurn reports whether k is a turn-counter key.
func (k Key) IsTurn() bool { return strings.HasPrefix(string(k), turnPrefix) }

// IsModel reports whether k is a model-slot key.
func (k Key) IsModel() bool { return strings.HasPrefix(string(k), modelPrefix) }

// IsFeature reports whether k is a state-feature key.
func (k Key) IsFeature() bool { return strings.HasPrefix(string(k), featurePrefix) }

// IsRelation reports whether k is a binary-relation key.
func (k Key) IsRelation() bool { return strings.HasPrefix(string(k), relationPrefix) }

// Agent returns the agent name encoded in a turn or model key. It
// panics if k is not a turn or model key; callers must check IsTurn/
// IsModel first.
func (k Key) Agent() string {
	switch {
	case k.IsTurn():
		return string(k)[len(turnPrefix):]
	case k.IsModel():
		return string(k)[len(modelPrefix):]
	default:
		panic("vector: Agent() called on non turn/model key " + string(k))
	}
}

func (k Key) String() string { return string(k) }
