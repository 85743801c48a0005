// Package depgraph computes the evaluation order over keys that the
// dynamics pipeline must follow so that no key's dynamics reads the
// not-yet-updated value of a key it depends on (spec.md §4.4). SCC
// detection and topological ordering are delegated to
// gonum.org/v1/gonum/graph/topo rather than hand-rolled, since gonum
// already ships a maintained implementation and is the engine's core
// numeric dependency anyway.
package depgraph

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/mindmesh/simcore/dynamics"
	"github.com/mindmesh/simcore/vector"
)

// Graph is the cached evaluation order: a list of strongly-connected
// components (the condensation's keys), in dependency order. Each
// component's keys are computed simultaneously from the pre-step
// state and then committed before the next component is evaluated.
type Graph struct {
	Order [][]vector.Key
}

// Build derives the evaluation order for every key that has
// registered dynamics, from the KeysIn of every PLT registered for
// every key (spec.md §4.4: "an edge u -> v iff some PLT for v reads
// u").
func Build(reg *dynamics.Registry) *Graph {
	keys := reg.KeysWithDynamics()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	ids := make(map[vector.Key]int64, len(keys))
	rev := make(map[int64]vector.Key, len(keys))
	g := simple.NewDirectedGraph()
	for i, k := range keys {
		id := int64(i)
		ids[k] = id
		rev[id] = k
		g.AddNode(simple.Node(id))
	}

	for _, v := range keys {
		for _, tree := range reg.AllPLTs(v) {
			for _, u := range tree.KeysIn() {
				uid, ok := ids[u]
				if !ok {
					// u has no dynamics of its own (e.g. an
					// authored constant or exogenous input); its
					// value never changes during a step, so it is
					// not a node and contributes no edge.
					continue
				}
				vid := ids[v]
				if uid == vid {
					continue
				}
				g.SetEdge(simple.Edge{F: simple.Node(uid), T: simple.Node(vid)})
			}
		}
	}

	sccs := topo.TarjanSCC(g)
	compOf := make(map[int64]int, len(keys))
	for ci, comp := range sccs {
		for _, n := range comp {
			compOf[n.ID()] = ci
		}
	}

	cg := simple.NewDirectedGraph()
	for ci := range sccs {
		cg.AddNode(simple.Node(int64(ci)))
	}
	edges := g.Edges()
	for edges.Next() {
		e := edges.Edge()
		cu, cv := compOf[e.From().ID()], compOf[e.To().ID()]
		if cu == cv {
			continue
		}
		cg.SetEdge(simple.Edge{F: simple.Node(int64(cu)), T: simple.Node(int64(cv))})
	}

	sorted, err := topo.Sort(cg)
	if err != nil {
		// cg is a condensation over SCCs and is therefore acyclic by
		// construction; a cycle here indicates a bug in the
		// condensation step above, not a user-authoring error.
		panic("depgraph: condensation graph is not acyclic: " + err.Error())
	}

	order := make([][]vector.Key, 0, len(sorted))
	for _, n := range sorted {
		ci := int(n.ID())
		comp := sccs[ci]
		compKeys := make([]vector.Key, 0, len(comp))
		for _, gn := range comp {
			compKeys = append(compKeys, rev[gn.ID()])
		}
		sort.Slice(compKeys, func(i, j int) bool { return compKeys[i] < compKeys[j] })
		order = append(order, compKeys)
	}
	return &Graph{Order: order}
}

