// Package turn implements the turn scheduler (spec.md §4.6): integer
// turn counters, one per agent (or per parallel-acting group), that
// determine whose move is next.
package turn

import (
	"log"
	"sort"

	"github.com/mindmesh/simcore/plt"
	"github.com/mindmesh/simcore/simerr"
	"github.com/mindmesh/simcore/state"
	"github.com/mindmesh/simcore/utils/intutils"
	"github.com/mindmesh/simcore/vector"
)

// Group is one element of a turn order: a single agent acting alone,
// or several agents acting in parallel.
type Group []string

// Scheduler tracks the declared turn order and the maximum turn
// value, and computes default turn dynamics.
type Scheduler struct {
	order    []Group
	maxTurn  int
	substate string
}

// New returns an empty scheduler.
func New() *Scheduler { return &Scheduler{} }

// SetOrder declares the turn order. Agents in the same Group act in
// parallel; maxTurn becomes len(order)-1 (spec.md §4.6).
func (s *Scheduler) SetOrder(order []Group) {
	s.order = order
	s.maxTurn = intutils.Max(len(order)-1, 0)
}

// MaxTurn returns the highest turn-counter value in the order.
func (s *Scheduler) MaxTurn() int { return s.maxTurn }

// AllGroups returns a copy of the declared turn order, used by
// package persist to serialize turn configuration.
func (s *Scheduler) AllGroups() []Group {
	out := make([]Group, len(s.order))
	for i, g := range s.order {
		out[i] = append(Group(nil), g...)
	}
	return out
}

// Agents returns every agent named in the order, in declaration
// order.
func (s *Scheduler) Agents() []string {
	var agents []string
	for _, g := range s.order {
		agents = append(agents, g...)
	}
	return agents
}

// InitialState returns the state.Set mutations needed to seed every
// agent's turn key to its index in the order, joined into substate
// label (spec.md §4.6: "initial turn-key value is i").
func (s *Scheduler) InitialState(st *state.Set, label string) *state.Set {
	s.substate = label
	for i, g := range s.order {
		for _, agent := range g {
			st = st.Join(vector.Turn(agent), float64(i), label)
		}
	}
	return st
}

// TurnKey returns the turn-counter key for agent.
func (s *Scheduler) TurnKey(agent string) vector.Key { return vector.Turn(agent) }

// Next returns the agents whose turn key holds the minimum value in
// x, i.e. whose move is next (spec.md §4.6).
func (s *Scheduler) Next(x *vector.Keyed) []string {
	agents := s.Agents()
	if len(agents) == 0 {
		return nil
	}
	min := x.Get(vector.Turn(agents[0]))
	for _, a := range agents[1:] {
		if v := x.Get(vector.Turn(a)); v < min {
			min = v
		}
	}
	var next []string
	for _, a := range agents {
		if x.Get(vector.Turn(a)) == min {
			next = append(next, a)
		}
	}
	sort.Strings(next)
	return next
}

// NextFromSet resolves whose turn is next from a full distribution
// set, requiring every turn key to live in the same substate
// (spec.md §4.6). If possible worlds in that substate's support
// disagree on whose turn it is, the disagreement is logged at error
// level and the plurality (most probability mass) choice is used,
// ties broken by ascending agent name — the arbitrary-but-deterministic
// fallback spec.md §9 leaves open.
func (s *Scheduler) NextFromSet(st *state.Set) ([]string, error) {
	agents := s.Agents()
	if len(agents) == 0 {
		return nil, nil
	}
	label, ok := st.Substate(vector.Turn(agents[0]))
	if !ok {
		return nil, simerr.New("turn.NextFromSet", simerr.ErrUnknownKey)
	}
	for _, a := range agents[1:] {
		l, ok := st.Substate(vector.Turn(a))
		if !ok || l != label {
			return nil, simerr.New("turn.NextFromSet", simerr.ErrInvariantViolation)
		}
	}
	d, ok := st.Marginal(label)
	if !ok {
		return nil, simerr.New("turn.NextFromSet", simerr.ErrUnknownKey)
	}

	votes := make(map[string]float64)
	for i, x := range d.Support() {
		for _, a := range s.Next(x) {
			votes[a] += d.Mass(i)
		}
	}
	if len(votes) == 0 {
		return nil, nil
	}

	// Determine whether every support vector agreed; if not, log and
	// fall back to the plurality choice.
	first := s.Next(d.Support()[0])
	agree := true
	for _, x := range d.Support()[1:] {
		if !sameAgents(first, s.Next(x)) {
			agree = false
			break
		}
	}
	if agree {
		return first, nil
	}
	log.Printf("ERROR: turn.NextFromSet: possible worlds disagree on whose turn it is; falling back to plurality choice")

	var best []string
	var bestMass float64 = -1
	for a, mass := range votes {
		if mass > bestMass {
			bestMass = mass
			best = []string{a}
		} else if mass == bestMass {
			best = append(best, a)
		}
	}
	sort.Strings(best)
	return best, nil
}

func sameAgents(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DefaultDynamics builds the default turn-advance PLT for agent:
// decrement the turn by 1, or wrap to maxTurn if already 0
// (spec.md §4.5 step ii). Expressed as a branch testing turn >= 1
// (threshold 0.5, since turns are non-negative integers), with a
// decrement leaf on the true side and a wraparound leaf on the false
// side — both deterministic, satisfying spec.md §4.2's requirement
// that turn dynamics be deterministic.
func (s *Scheduler) DefaultDynamics(agent string) *plt.Node {
	key := vector.Turn(agent)

	w := vector.New()
	w.Set(key, 1)

	decRow := vector.New()
	decRow.Set(key, 1)
	decRow.Set(vector.Constant, -1)
	decMatrix := vector.NewMatrix()
	decMatrix.SetRow(key, decRow)

	wrapRow := vector.New()
	wrapRow.Set(vector.Constant, float64(s.maxTurn))
	wrapMatrix := vector.NewMatrix()
	wrapMatrix.SetRow(key, wrapRow)

	return plt.Branch(w, 0.5, plt.Leaf(decMatrix), plt.Leaf(wrapMatrix))
}
