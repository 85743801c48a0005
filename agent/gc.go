package agent

import "github.com/mindmesh/simcore/simerr"

// Registry is the minimal view of the world's model table the
// collector needs: lookup by name, and the full set of model names
// (used to resolve a model-key's float code back to a name).
type Registry interface {
	Model(name string) (*Model, bool)
	ModelNames() []string
	ModelAt(code float64) (string, bool)
}

// GC performs the model garbage collector's reachability traversal
// (spec.md §4.10): starting from roots, follow (a) models named by
// model-keys of any vector in any subjective Beliefs, and (b) parent
// pointers. Deletion is optional and left to the caller (this
// function only computes what is reachable); the caller is
// responsible for actually removing unreachable models and ensuring
// no live vector still references one.
func GC(reg Registry, roots []string) map[string]bool {
	reachable := make(map[string]bool, len(roots))
	bound := len(reg.ModelNames()) + 1
	var visit func(name string, depth int)
	visit = func(name string, depth int) {
		if depth > bound {
			// Cycles are forbidden by construction (design note §9);
			// this bound only guards against a caller-supplied
			// Registry that violates that contract.
			return
		}
		if reachable[name] {
			return
		}
		reachable[name] = true
		m, ok := reg.Model(name)
		if !ok {
			return
		}
		if m.Parent != "" {
			visit(m.Parent, depth+1)
		}
		if m.Beliefs.Kind == PointerBeliefs {
			visit(m.Beliefs.Pointer, depth+1)
		}
		if m.Beliefs.Kind == SubjectiveBeliefs && m.Beliefs.Subjective != nil {
			for _, k := range m.Beliefs.Subjective.Domain() {
				if !k.IsModel() {
					continue
				}
				code, err := m.Beliefs.Subjective.GetValue(k)
				if err != nil {
					continue
				}
				if ref, ok := reg.ModelAt(code); ok {
					visit(ref, depth+1)
				}
			}
		}
	}
	for _, r := range roots {
		visit(r, 0)
	}
	return reachable
}

// Sweep returns the subset of names not present in reachable, i.e.
// the models GC considers eligible for deletion.
func Sweep(names []string, reachable map[string]bool) []string {
	var dead []string
	for _, n := range names {
		if !reachable[n] {
			dead = append(dead, n)
		}
	}
	return dead
}

// ErrCycle is unused by GC (cycles are simply not re-visited) but is
// exported for callers that want to assert acyclicity explicitly.
var ErrCycle = simerr.New("agent.GC", simerr.ErrInvariantViolation)
