// Package persist implements whole-engine checkpointing (spec.md §6
// "Persistence"): everything gob-serializable is written as one
// Snapshot, with piecewise-linear trees carried as their existing JSON
// tagged-union encoding (package plt) rather than taught to gob
// directly, since their private fields need the custom marshaler
// plt.Node already implements. Grounded on
// experiment/checkpointer/NStep.go's gob.NewEncoder-to-file shape and
// experiment/tracker/Tracker.go's LoadFData/LoadIData gob-decode shape.
package persist

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/mindmesh/simcore/agent"
	"github.com/mindmesh/simcore/distribution"
	"github.com/mindmesh/simcore/plt"
	"github.com/mindmesh/simcore/state"
	"github.com/mindmesh/simcore/symbol"
	"github.com/mindmesh/simcore/turn"
	"github.com/mindmesh/simcore/vector"
	"github.com/mindmesh/simcore/world"
)

// VariableRecord is the gob-serializable form of state.Variable.
type VariableRecord struct {
	Key         string
	Domain      int
	Lo, Hi      float64
	Symbols     []string
	Combinator  int
	Description string
	Substate    string
}

// DynamicsRecord is one (key, action pattern) -> PLT entry, the tree
// carried as its JSON encoding (package plt).
type DynamicsRecord struct {
	Key        string
	PatternKey string
	TreeJSON   []byte
}

// ModelRecord is the gob-serializable form of agent.Model; Subjective
// beliefs are flattened to a SubstateRecord list since state.Set
// itself is not gob-friendly.
type ModelRecord struct {
	Name          string
	Agent         string
	BeliefsKind   int
	Pointer       string
	Subjective    []SubstateRecord
	Rationality   float64
	Parent        string
	Static        bool
}

// SupportRecord is one possible world in a vector distribution: its
// keyed values and its probability mass.
type SupportRecord struct {
	Values map[string]float64
	Mass   float64
}

// SubstateRecord is one substate label's full vector distribution.
type SubstateRecord struct {
	Label   string
	Support []SupportRecord
}

// Snapshot is the self-describing persisted form of a World
// (spec.md §6): every variable descriptor, every dynamics PLT, every
// agent model, the state distribution-set, turn configuration, and
// the symbol list, in intern order.
type Snapshot struct {
	Symbols     []string
	Variables   []VariableRecord
	Dynamics    []DynamicsRecord
	Models      []ModelRecord
	TurnOrder   [][]string
	Substates   []SubstateRecord
	HistoryLen  int
}

// Save builds a Snapshot of w and gob-encodes it to path, overwriting
// any existing file.
func Save(w *world.World, path string) error {
	snap, err := Build(w)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("persist.Save: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("persist.Save: %w", err)
	}
	return nil
}

// Load decodes a Snapshot from path and restores a new World from it.
func Load(path string) (*world.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persist.Load: %w", err)
	}
	defer f.Close()
	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("persist.Load: %w", err)
	}
	return Restore(&snap)
}

// Build captures w's serializable state into a Snapshot.
func Build(w *world.World) (*Snapshot, error) {
	snap := &Snapshot{Symbols: w.Symbols.Symbols()}

	for key, v := range w.Variables {
		_ = key
		snap.Variables = append(snap.Variables, VariableRecord{
			Key:         string(v.Key),
			Domain:      int(v.Domain),
			Lo:          v.Lo,
			Hi:          v.Hi,
			Symbols:     v.Symbols,
			Combinator:  int(v.Combinator),
			Description: v.Description,
			Substate:    v.Substate,
		})
	}
	sort.Slice(snap.Variables, func(i, j int) bool { return snap.Variables[i].Key < snap.Variables[j].Key })

	for key, patterns := range w.Dynamics.Export() {
		for patternKey, tree := range patterns {
			treeJSON, err := json.Marshal(tree)
			if err != nil {
				return nil, fmt.Errorf("persist.Build: %w", err)
			}
			snap.Dynamics = append(snap.Dynamics, DynamicsRecord{
				Key:        string(key),
				PatternKey: patternKey,
				TreeJSON:   treeJSON,
			})
		}
	}
	sort.Slice(snap.Dynamics, func(i, j int) bool {
		if snap.Dynamics[i].Key != snap.Dynamics[j].Key {
			return snap.Dynamics[i].Key < snap.Dynamics[j].Key
		}
		return snap.Dynamics[i].PatternKey < snap.Dynamics[j].PatternKey
	})

	for _, name := range w.ModelNames() {
		m, _ := w.Model(name)
		rec := ModelRecord{
			Name:        m.Name,
			Agent:       m.Agent,
			BeliefsKind: int(m.Beliefs.Kind),
			Pointer:     m.Beliefs.Pointer,
			Rationality: m.Rationality,
			Parent:      m.Parent,
			Static:      m.Static,
		}
		if m.Beliefs.Kind == agent.SubjectiveBeliefs && m.Beliefs.Subjective != nil {
			rec.Subjective = substateRecords(m.Beliefs.Subjective)
		}
		snap.Models = append(snap.Models, rec)
	}

	for _, g := range w.Turns.AllGroups() {
		snap.TurnOrder = append(snap.TurnOrder, append([]string(nil), g...))
	}

	snap.Substates = substateRecords(w.State)
	snap.HistoryLen = len(w.History)

	return snap, nil
}

// substateRecords flattens every substate of s into SubstateRecords.
func substateRecords(s *state.Set) []SubstateRecord {
	var out []SubstateRecord
	for _, label := range s.Labels() {
		d, ok := s.Marginal(label)
		if !ok {
			continue
		}
		rec := SubstateRecord{Label: label}
		for i, x := range d.Support() {
			values := make(map[string]float64, len(x.Keys()))
			for _, k := range x.Keys() {
				values[string(k)] = x.Get(k)
			}
			rec.Support = append(rec.Support, SupportRecord{Values: values, Mass: d.Mass(i)})
		}
		out = append(out, rec)
	}
	return out
}

// buildSet reconstructs a *state.Set from recorded substates.
func buildSet(records []SubstateRecord) *state.Set {
	out := state.New()
	for _, rec := range records {
		d := distribution.NewVector()
		keys := make([]vector.Key, 0)
		seen := make(map[vector.Key]bool)
		for _, sup := range rec.Support {
			x := vector.New()
			for k, v := range sup.Values {
				key := vector.Key(k)
				x.Set(key, v)
				if !seen[key] {
					seen[key] = true
					keys = append(keys, key)
				}
			}
			d.Insert(x, sup.Mass)
		}
		out = out.ReplaceSubstate(rec.Label, d, keys)
	}
	return out
}

// Restore rebuilds a World from a Snapshot. Collaborators are not
// part of the snapshot (they are external behavior, not data per
// spec.md §1's scope) and must be re-registered by the caller via
// World.SetModel after Restore returns.
func Restore(snap *Snapshot) (*world.World, error) {
	w := world.New(nil)
	w.Symbols = symbol.Restore(snap.Symbols)

	for _, v := range snap.Variables {
		w.Variables[vector.Key(v.Key)] = &state.Variable{
			Key:         vector.Key(v.Key),
			Domain:      state.Domain(v.Domain),
			Lo:          v.Lo,
			Hi:          v.Hi,
			Symbols:     v.Symbols,
			Combinator:  state.Combinator(v.Combinator),
			Description: v.Description,
			Substate:    v.Substate,
		}
	}

	for _, rec := range snap.Dynamics {
		var tree plt.Node
		if err := json.Unmarshal(rec.TreeJSON, &tree); err != nil {
			return nil, fmt.Errorf("persist.Restore: %w", err)
		}
		w.Dynamics.SetRaw(vector.Key(rec.Key), rec.PatternKey, &tree)
	}

	for _, rec := range snap.Models {
		var beliefs agent.Beliefs
		switch agent.BeliefsKind(rec.BeliefsKind) {
		case agent.TrueBeliefs:
			beliefs = agent.True()
		case agent.PointerBeliefs:
			beliefs = agent.Pointer(rec.Pointer)
		case agent.SubjectiveBeliefs:
			beliefs = agent.Subjective(buildSet(rec.Subjective))
		}
		m := &agent.Model{
			Name:        rec.Name,
			Agent:       rec.Agent,
			Beliefs:     beliefs,
			Rationality: rec.Rationality,
			Parent:      rec.Parent,
			Static:      rec.Static,
		}
		w.SetModel(m, nil)
	}

	var order []turn.Group
	for _, g := range snap.TurnOrder {
		order = append(order, turn.Group(g))
	}
	w.Turns.SetOrder(order)

	w.State = buildSet(snap.Substates)

	return w, nil
}
