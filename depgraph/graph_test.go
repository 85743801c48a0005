package depgraph

import (
	"testing"

	"github.com/mindmesh/simcore/action"
	"github.com/mindmesh/simcore/dynamics"
	"github.com/mindmesh/simcore/plt"
	"github.com/mindmesh/simcore/vector"
)

func readerLeaf(out, in vector.Key) *plt.Node {
	m := vector.NewMatrix()
	row := vector.New()
	row.Set(in, 1)
	m.SetRow(out, row)
	return plt.Leaf(m)
}

func indexOf(order [][]vector.Key, key vector.Key) int {
	for i, comp := range order {
		for _, k := range comp {
			if k == key {
				return i
			}
		}
	}
	return -1
}

func TestBuildOrdersIndependentChain(t *testing.T) {
	reg := dynamics.New()
	// b depends on a: b's dynamics read a.
	reg.SetWildcardDynamics(vector.Key("a"), readerLeaf("a", vector.Constant))
	reg.SetWildcardDynamics(vector.Key("b"), readerLeaf("b", vector.Key("a")))

	g := Build(reg)
	ai := indexOf(g.Order, "a")
	bi := indexOf(g.Order, "b")
	if ai == -1 || bi == -1 {
		t.Fatalf("Build() order missing a key: %v", g.Order)
	}
	if ai >= bi {
		t.Fatalf("a (depended upon) must be evaluated before b: order = %v", g.Order)
	}
}

func TestBuildCollapsesCycleIntoOneComponent(t *testing.T) {
	reg := dynamics.New()
	reg.SetWildcardDynamics(vector.Key("a"), readerLeaf("a", vector.Key("b")))
	reg.SetWildcardDynamics(vector.Key("b"), readerLeaf("b", vector.Key("a")))

	g := Build(reg)
	if len(g.Order) != 1 {
		t.Fatalf("Order = %v, want the mutually dependent a/b collapsed into one component", g.Order)
	}
	if len(g.Order[0]) != 2 {
		t.Fatalf("single component = %v, want both a and b", g.Order[0])
	}
}

func TestBuildIgnoresUnregisteredDependencySources(t *testing.T) {
	reg := dynamics.New()
	// "exogenous" has no dynamics of its own but is read by "a".
	reg.SetWildcardDynamics(vector.Key("a"), readerLeaf("a", vector.Key("exogenous")))

	g := Build(reg)
	if len(g.Order) != 1 || len(g.Order[0]) != 1 || g.Order[0][0] != "a" {
		t.Fatalf("Order = %v, want only [[a]]", g.Order)
	}
}

func TestGetDynamicsIgnoredKeysStillParticipate(t *testing.T) {
	reg := dynamics.New()
	key := vector.Key("ready")
	reg.SetDynamics(key, action.Of(action.New("A", "set")), readerLeaf("ready", vector.Constant))
	g := Build(reg)
	if len(g.Order) != 1 {
		t.Fatalf("Order = %v, want a single component for the sole key", g.Order)
	}
}
