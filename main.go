// Command simcore runs the two-agent alternation scenario a few turns,
// narrating each step, then checkpoints and restores the engine to
// show persistence round-tripping the factored state.
package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/exp/rand"

	"github.com/mindmesh/simcore/action"
	"github.com/mindmesh/simcore/examples/alternation"
	"github.com/mindmesh/simcore/explain"
	"github.com/mindmesh/simcore/persist"
)

func main() {
	w, err := alternation.Build(rand.NewSource(1))
	if err != nil {
		log.Fatal(err)
	}
	w.Memory = true
	w.Explain = explain.New(explain.Effects)

	for i := 0; i < 4; i++ {
		out, err := w.Step(action.Of(), true, true)
		if err != nil {
			log.Fatal(err)
		}
		ready, err := w.GetValue(alternation.ReadyKey)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("step %d: ready=%v effect=%v\n", i, ready != 0, out.Effect)
	}

	for _, e := range w.Explain.Entries() {
		fmt.Println(e.Message)
	}

	const snapshot = "alternation.snapshot"
	if err := persist.Save(w, snapshot); err != nil {
		log.Fatal(err)
	}
	defer os.Remove(snapshot)

	restored, err := persist.Load(snapshot)
	if err != nil {
		log.Fatal(err)
	}
	ready, err := restored.GetValue(alternation.ReadyKey)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("restored: ready=%v\n", ready != 0)
}
