package plt

import (
	"encoding/json"
	"fmt"

	"github.com/mindmesh/simcore/distribution"
	"github.com/mindmesh/simcore/vector"
)

// jsonNode is the wire shape for a Node, tagged by Kind exactly as
// solver/Solver.go tags its Config union by a "Type" string field and
// dispatches into the matching concrete struct on decode.
type jsonNode struct {
	Kind       string            `json:"kind"`
	Weights    map[string]float64 `json:"weights,omitempty"`
	Threshold  float64           `json:"threshold,omitempty"`
	SymbolicThreshold string     `json:"symbolicThreshold,omitempty"`
	TrueChild  *jsonNode         `json:"trueChild,omitempty"`
	FalseChild *jsonNode         `json:"falseChild,omitempty"`
	Leaf       *jsonMatrix       `json:"leaf,omitempty"`
	Stochastic []jsonWeightedMat `json:"stochastic,omitempty"`
}

type jsonMatrix struct {
	Rows   map[string]map[string]float64 `json:"rows"`
	Floors map[string]float64            `json:"floors,omitempty"`
	Ceils  map[string]float64            `json:"ceils,omitempty"`
}

type jsonWeightedMat struct {
	Matrix jsonMatrix `json:"matrix"`
	Mass   float64    `json:"mass"`
}

func toJSONMatrix(m *vector.Matrix) *jsonMatrix {
	jm := &jsonMatrix{Rows: make(map[string]map[string]float64)}
	for _, out := range m.KeysOut() {
		row, _ := m.Row(out)
		r := make(map[string]float64)
		for _, k := range row.Keys() {
			r[string(k)] = row.Get(k)
		}
		jm.Rows[string(out)] = r
	}
	return jm
}

func fromJSONMatrix(jm *jsonMatrix) *vector.Matrix {
	m := vector.NewMatrix()
	for out, row := range jm.Rows {
		v := vector.New()
		for k, val := range row {
			v.Set(vector.Key(k), val)
		}
		m.SetRow(vector.Key(out), v)
	}
	for k, v := range jm.Floors {
		m.Floor(vector.Key(k), v)
	}
	for k, v := range jm.Ceils {
		m.Ceil(vector.Key(k), v)
	}
	return m
}

// MarshalJSON implements json.Marshaler.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.toJSON())
}

func (n *Node) toJSON() *jsonNode {
	switch n.Kind {
	case KindBranch:
		w := make(map[string]float64)
		for _, k := range n.Weights.Keys() {
			w[string(k)] = n.Weights.Get(k)
		}
		return &jsonNode{
			Kind: "branch", Weights: w, Threshold: n.Threshold,
			SymbolicThreshold: n.symbolicThreshold,
			TrueChild:         n.TrueChild.toJSON(),
			FalseChild:        n.FalseChild.toJSON(),
		}
	case KindLeaf:
		return &jsonNode{Kind: "leaf", Leaf: toJSONMatrix(n.Leaf)}
	case KindStochasticLeaf:
		var wm []jsonWeightedMat
		for i, m := range n.StochasticLeaf.Support() {
			wm = append(wm, jsonWeightedMat{Matrix: *toJSONMatrix(m), Mass: n.StochasticLeaf.Mass(i)})
		}
		return &jsonNode{Kind: "stochasticLeaf", Stochastic: wm}
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler, dispatching on the
// "kind" field the same way solver.Solver.UnmarshalJSON dispatches on
// its "Type" field.
func (n *Node) UnmarshalJSON(data []byte) error {
	var jn jsonNode
	if err := json.Unmarshal(data, &jn); err != nil {
		return err
	}
	node, err := fromJSON(&jn)
	if err != nil {
		return err
	}
	*n = *node
	return nil
}

func fromJSON(jn *jsonNode) (*Node, error) {
	switch jn.Kind {
	case "branch":
		w := vector.New()
		for k, v := range jn.Weights {
			w.Set(vector.Key(k), v)
		}
		trueChild, err := fromJSON(jn.TrueChild)
		if err != nil {
			return nil, err
		}
		falseChild, err := fromJSON(jn.FalseChild)
		if err != nil {
			return nil, err
		}
		node := Branch(w, jn.Threshold, trueChild, falseChild)
		node.symbolicThreshold = jn.SymbolicThreshold
		return node, nil
	case "leaf":
		return Leaf(fromJSONMatrix(jn.Leaf)), nil
	case "stochasticLeaf":
		d := distribution.NewMatrix()
		for _, wm := range jn.Stochastic {
			m := wm.Matrix
			d.Insert(fromJSONMatrix(&m), wm.Mass)
		}
		return StochasticLeaf(d), nil
	default:
		return nil, fmt.Errorf("plt: unknown node kind %q", jn.Kind)
	}
}
