// Package action implements the engine's Action and ActionSet records
// (spec.md §3): a required subject (the acting agent), a verb, free
// parameters, and the unordered multiset of actions performed
// simultaneously in one turn.
package action

import (
	"sort"
	"strconv"
	"strings"
)

// Action is a single agent's move: subject is the acting agent's
// name, Verb names the action, and Params carries free parameters
// (e.g. the target of a "give" action).
type Action struct {
	Subject string
	Verb    string
	Params  map[string]float64
}

// New constructs an Action with no parameters.
func New(subject, verb string) Action {
	return Action{Subject: subject, Verb: verb}
}

// WithParam returns a copy of a with param k set to v.
func (a Action) WithParam(k string, v float64) Action {
	params := make(map[string]float64, len(a.Params)+1)
	for pk, pv := range a.Params {
		params[pk] = pv
	}
	params[k] = v
	a.Params = params
	return a
}

// Root strips free parameters, returning the atomic action identity
// used for dynamics fallback lookup (spec.md §4.3 step 2).
func (a Action) Root() Action {
	return Action{Subject: a.Subject, Verb: a.Verb}
}

// String returns a as "subject.verb(k=v,...)" sorted by parameter
// name, used as the canonical representation for tie-breaking
// (spec.md §4.8 consistent_tie_breaking) and dynamics lookup keys.
func (a Action) String() string {
	var b strings.Builder
	b.WriteString(a.Subject)
	b.WriteByte('.')
	b.WriteString(a.Verb)
	if len(a.Params) > 0 {
		keys := make([]string, 0, len(a.Params))
		for k := range a.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('(')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(strconv.FormatFloat(a.Params[k], 'g', -1, 64))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// Set is the unordered multiset of actions performed simultaneously
// by all actors in one turn.
type Set []Action

// Of constructs a Set from the given actions.
func Of(actions ...Action) Set { return Set(actions) }

// Key returns a canonical string identifying this set regardless of
// element order, used both as a dynamics-registry lookup key and as
// an exact-match test.
func (s Set) Key() string {
	strs := make([]string, len(s))
	for i, a := range s {
		strs[i] = a.String()
	}
	sort.Strings(strs)
	return strings.Join(strs, "+")
}

// ForSubject returns the action subject performs in s, if any.
func (s Set) ForSubject(subject string) (Action, bool) {
	for _, a := range s {
		if a.Subject == subject {
			return a, true
		}
	}
	return Action{}, false
}

// WithAction returns a copy of s with a appended (or replacing any
// existing action by the same subject).
func (s Set) WithAction(a Action) Set {
	out := make(Set, 0, len(s)+1)
	replaced := false
	for _, existing := range s {
		if existing.Subject == a.Subject {
			out = append(out, a)
			replaced = true
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, a)
	}
	return out
}
