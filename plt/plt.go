// Package plt implements the piecewise-linear tree (spec.md §4.2): a
// decision tree whose internal nodes are linear thresholds and whose
// leaves are keyed matrices or distributions of keyed matrices.
package plt

import (
	"github.com/mindmesh/simcore/distribution"
	"github.com/mindmesh/simcore/simerr"
	"github.com/mindmesh/simcore/symbol"
	"github.com/mindmesh/simcore/vector"
)

// Kind tags which of the three constructors a Node is (a tagged
// variant, not inheritance).
type Kind int

const (
	// KindBranch is a linear threshold with a true/false child.
	KindBranch Kind = iota
	// KindLeaf is a deterministic keyed matrix.
	KindLeaf
	// KindStochasticLeaf is a distribution over keyed matrices.
	KindStochasticLeaf
)

// Node is one node of a piecewise-linear tree.
type Node struct {
	Kind Kind

	// Branch fields. True child is taken when Weights.Dot(x) >= Threshold.
	Weights     *vector.Keyed
	Threshold   float64
	TrueChild   *Node
	FalseChild  *Node

	// Leaf field (KindLeaf).
	Leaf *vector.Matrix

	// StochasticLeaf field (KindStochasticLeaf).
	StochasticLeaf *distribution.Matrix

	// symbolicThreshold holds an unresolved symbol name for a branch's
	// threshold (authoring-time only); Desymbolize consumes and clears
	// this.
	symbolicThreshold string
}

// Branch constructs a threshold node.
func Branch(weights *vector.Keyed, threshold float64, trueChild, falseChild *Node) *Node {
	return &Node{Kind: KindBranch, Weights: weights, Threshold: threshold, TrueChild: trueChild, FalseChild: falseChild}
}

// Leaf constructs a deterministic leaf.
func Leaf(m *vector.Matrix) *Node {
	return &Node{Kind: KindLeaf, Leaf: m}
}

// StochasticLeaf constructs a stochastic leaf.
func StochasticLeaf(d *distribution.Matrix) *Node {
	return &Node{Kind: KindStochasticLeaf, StochasticLeaf: d}
}

// Apply descends the tree based on x's thresholds and returns the
// matrix distribution at the reached leaf (a deterministic leaf is
// lifted to a point-mass distribution).
func (n *Node) Apply(x *vector.Keyed) (*distribution.Matrix, error) {
	cur := n
	for cur.Kind == KindBranch {
		if cur.Weights.Dot(x) >= cur.Threshold {
			cur = cur.TrueChild
		} else {
			cur = cur.FalseChild
		}
		if cur == nil {
			return nil, simerr.New("plt.Apply", simerr.ErrInvariantViolation)
		}
	}
	switch cur.Kind {
	case KindLeaf:
		return distribution.Point(cur.Leaf), nil
	case KindStochasticLeaf:
		return cur.StochasticLeaf, nil
	default:
		return nil, simerr.New("plt.Apply", simerr.ErrInvariantViolation)
	}
}

// ApplyDeterministic is Apply, but fails with ErrInvariantViolation if
// the reached leaf is stochastic. Required for turn dynamics
// (spec.md §4.2 determinism requirement).
func (n *Node) ApplyDeterministic(x *vector.Keyed) (*vector.Matrix, error) {
	d, err := n.Apply(x)
	if err != nil {
		return nil, err
	}
	m, err := d.Deterministic()
	if err != nil {
		return nil, simerr.New("plt.ApplyDeterministic", simerr.ErrInvariantViolation)
	}
	return m, nil
}

// ApplyDistribution applies n to every support vector of d, combining
// the results into a new VectorDistribution weighted by both the
// support vector's prior mass and the leaf distribution's mass
// (spec.md §4.2 apply_distribution).
func (n *Node) ApplyDistribution(d *distribution.Vector) (*distribution.Vector, error) {
	out := distribution.NewVector()
	for i, x := range d.Support() {
		p := d.Mass(i)
		md, err := n.Apply(x)
		if err != nil {
			return nil, err
		}
		for j, m := range md.Support() {
			out.Insert(m.Apply(x), p*md.Mass(j))
		}
	}
	return out, nil
}

// IsDeterministic reports whether every reachable leaf in the tree is
// deterministic. Used to validate turn dynamics PLTs at authoring
// time (spec.md §4.2).
func (n *Node) IsDeterministic() bool {
	switch n.Kind {
	case KindLeaf:
		return true
	case KindStochasticLeaf:
		return n.StochasticLeaf.IsDeterministic()
	case KindBranch:
		return n.TrueChild.IsDeterministic() && n.FalseChild.IsDeterministic()
	}
	return false
}

// Floor clamps the output of key across every leaf reachable from n.
func (n *Node) Floor(key vector.Key, lo float64) {
	n.walkLeaves(func(m *vector.Matrix) { m.Floor(key, lo) })
}

// Ceil clamps the output of key across every leaf reachable from n.
func (n *Node) Ceil(key vector.Key, hi float64) {
	n.walkLeaves(func(m *vector.Matrix) { m.Ceil(key, hi) })
}

func (n *Node) walkLeaves(f func(*vector.Matrix)) {
	switch n.Kind {
	case KindLeaf:
		f(n.Leaf)
	case KindStochasticLeaf:
		for _, m := range n.StochasticLeaf.Support() {
			f(m)
		}
	case KindBranch:
		n.TrueChild.walkLeaves(f)
		n.FalseChild.walkLeaves(f)
	}
}

// KeysIn returns every key read anywhere in the tree: branch weight
// keys and every leaf row's input keys.
func (n *Node) KeysIn() []vector.Key {
	seen := make(map[vector.Key]bool)
	var keys []vector.Key
	add := func(ks []vector.Key) {
		for _, k := range ks {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	var walk func(*Node)
	walk = func(n *Node) {
		switch n.Kind {
		case KindBranch:
			for _, k := range n.Weights.Keys() {
				if k != vector.Constant && !seen[k] {
					seen[k] = true
					keys = append(keys, k)
				}
			}
			walk(n.TrueChild)
			walk(n.FalseChild)
		case KindLeaf:
			add(n.Leaf.KeysIn())
		case KindStochasticLeaf:
			for _, m := range n.StochasticLeaf.Support() {
				add(m.KeysIn())
			}
		}
	}
	walk(n)
	return keys
}

// KeysOut returns the union of output keys across every reachable
// leaf.
func (n *Node) KeysOut() []vector.Key {
	seen := make(map[vector.Key]bool)
	var keys []vector.Key
	add := func(m *vector.Matrix) {
		for _, k := range m.KeysOut() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	n.walkLeaves(add)
	return keys
}

// Desymbolize replaces symbol-name thresholds with their float codes,
// recursively. PLTs are authored against symbol names for enum
// comparisons and stored in purely numeric form thereafter
// (spec.md §4.2 desymbolize; §4.1 symbol table).
func (n *Node) Desymbolize(table *symbol.Table) error {
	switch n.Kind {
	case KindBranch:
		if n.symbolicThreshold != "" {
			code, err := table.Code(n.symbolicThreshold)
			if err != nil {
				return simerr.New("plt.Desymbolize", simerr.ErrUnknownSymbol)
			}
			n.Threshold = code
			n.symbolicThreshold = ""
		}
		if err := n.TrueChild.Desymbolize(table); err != nil {
			return err
		}
		return n.FalseChild.Desymbolize(table)
	default:
		return nil
	}
}

// WithSymbolicThreshold marks a branch's threshold as a symbol name to
// be resolved by Desymbolize, rather than an already-numeric constant.
func (n *Node) WithSymbolicThreshold(symbolName string) *Node {
	n.symbolicThreshold = symbolName
	return n
}

// Substitute returns a deep copy of n with every leaf matrix row for
// key replaced by a constant row producing value val, used to
// substitute an action's free parameters into a parametrized PLT
// during dynamics lookup fallback (spec.md §4.3 step 2).
func (n *Node) Substitute(key vector.Key, val float64) *Node {
	switch n.Kind {
	case KindBranch:
		return Branch(n.Weights.Clone(), n.Threshold, n.TrueChild.Substitute(key, val), n.FalseChild.Substitute(key, val))
	case KindLeaf:
		m := n.Leaf.Clone()
		row := vector.New()
		row.Set(vector.Constant, val)
		m.SetRow(key, row)
		return Leaf(m)
	case KindStochasticLeaf:
		d := distribution.NewMatrix()
		for i, m := range n.StochasticLeaf.Support() {
			mc := m.Clone()
			row := vector.New()
			row.Set(vector.Constant, val)
			mc.SetRow(key, row)
			d.Insert(mc, n.StochasticLeaf.Mass(i))
		}
		return StochasticLeaf(d)
	}
	return n
}
