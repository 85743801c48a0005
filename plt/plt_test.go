package plt

import (
	"encoding/json"
	"testing"

	"github.com/mindmesh/simcore/distribution"
	"github.com/mindmesh/simcore/symbol"
	"github.com/mindmesh/simcore/vector"
)

func constLeaf(out vector.Key, val float64) *Node {
	m := vector.NewMatrix()
	row := vector.New()
	row.Set(vector.Constant, val)
	m.SetRow(out, row)
	return Leaf(m)
}

func TestApplyBranchSelectsChild(t *testing.T) {
	w := vector.New()
	w.Set("x", 1)
	node := Branch(w, 0.5, constLeaf("y", 1), constLeaf("y", 0))

	low := vector.New()
	low.Set("x", 0)
	d, err := node.Apply(low)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	m, err := d.Deterministic()
	if err != nil {
		t.Fatalf("Deterministic: %v", err)
	}
	if got := m.Apply(low).Get("y"); got != 0 {
		t.Fatalf("false branch leaf applied y = %v, want 0", got)
	}

	high := vector.New()
	high.Set("x", 1)
	d, err = node.Apply(high)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	m, _ = d.Deterministic()
	if got := m.Apply(high).Get("y"); got != 1 {
		t.Fatalf("true branch leaf applied y = %v, want 1", got)
	}
}

func TestApplyDeterministicRejectsStochasticLeaf(t *testing.T) {
	md := distribution.NewMatrix()
	md.Insert(constLeaf("coin", 0).Leaf, 0.5)
	md.Insert(constLeaf("coin", 1).Leaf, 0.5)
	node := StochasticLeaf(md)

	if _, err := node.ApplyDeterministic(vector.New()); err == nil {
		t.Fatalf("ApplyDeterministic succeeded on a stochastic leaf")
	}
}

func TestIsDeterministic(t *testing.T) {
	det := constLeaf("y", 1)
	if !det.IsDeterministic() {
		t.Fatalf("deterministic leaf reports IsDeterministic() = false")
	}

	md := distribution.NewMatrix()
	md.Insert(constLeaf("coin", 0).Leaf, 0.5)
	md.Insert(constLeaf("coin", 1).Leaf, 0.5)
	stoch := StochasticLeaf(md)
	if stoch.IsDeterministic() {
		t.Fatalf("mixed stochastic leaf reports IsDeterministic() = true")
	}
}

func TestSubstituteReplacesLeafRow(t *testing.T) {
	node := constLeaf("y", 0)
	subst := node.Substitute("y", 7)
	d, err := subst.Apply(vector.New())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	m, _ := d.Deterministic()
	if got := m.Apply(vector.New()).Get("y"); got != 7 {
		t.Fatalf("Substitute(y, 7) applied y = %v, want 7", got)
	}
	// original untouched
	d0, _ := node.Apply(vector.New())
	m0, _ := d0.Deterministic()
	if got := m0.Apply(vector.New()).Get("y"); got != 0 {
		t.Fatalf("Substitute mutated the original node: y = %v, want 0", got)
	}
}

func TestDesymbolizeResolvesSymbolicThreshold(t *testing.T) {
	table := symbol.New()
	table.Intern("idle")
	code := table.Intern("ready")

	w := vector.New()
	w.Set("state", 1)
	node := Branch(w, 0, constLeaf("y", 1), constLeaf("y", 0)).WithSymbolicThreshold("ready")

	if err := node.Desymbolize(table); err != nil {
		t.Fatalf("Desymbolize: %v", err)
	}
	if node.Threshold != code {
		t.Fatalf("Threshold = %v, want %v", node.Threshold, code)
	}
}

func TestDesymbolizeUnknownSymbolFails(t *testing.T) {
	table := symbol.New()
	node := Branch(vector.New(), 0, constLeaf("y", 1), constLeaf("y", 0)).WithSymbolicThreshold("missing")
	if err := node.Desymbolize(table); err == nil {
		t.Fatalf("Desymbolize succeeded on an uninterned symbol")
	}
}

func TestKeysInIncludesBranchWeightsExcludesConstant(t *testing.T) {
	w := vector.New()
	w.Set("x", 1)
	node := Branch(w, 0.5, constLeaf("y", 1), constLeaf("y", 0))
	keysIn := node.KeysIn()
	found := false
	for _, k := range keysIn {
		if k == vector.Constant {
			t.Fatalf("KeysIn() leaked CONSTANT")
		}
		if k == vector.Key("x") {
			found = true
		}
	}
	if !found {
		t.Fatalf("KeysIn() = %v, missing branch weight key x", keysIn)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	w := vector.New()
	w.Set("x", 1)
	node := Branch(w, 0.5, constLeaf("y", 1), constLeaf("y", 0))

	data, err := json.Marshal(node)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var restored Node
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	x := vector.New()
	x.Set("x", 1)
	got, err := restored.ApplyDeterministic(x)
	if err != nil {
		t.Fatalf("ApplyDeterministic on restored node: %v", err)
	}
	if v := got.Apply(x).Get("y"); v != 1 {
		t.Fatalf("restored node applied y = %v, want 1", v)
	}
}
