package world

import (
	"time"

	"github.com/samuelfneumann/progressbar"

	"github.com/mindmesh/simcore/action"
)

// Step advances the real world by one turn, per spec.md §4.5 step 4-5:
// actionsFixed pre-specifies any actors' moves the caller already
// decided; real commits the result as the new real state; selectFlag
// collapses the outcome to one sampled world; if w.Memory is set the
// outcome is appended to History.
func (w *World) Step(actionsFixed action.Set, real, selectFlag bool) (Outcome, error) {
	newSt, log, err := w.stepFromState(w.State, actionsFixed)
	if err != nil {
		return Outcome{}, err
	}
	if selectFlag {
		newSt, err = w.sampleWorld(newSt)
		if err != nil {
			return Outcome{}, err
		}
	}
	if real {
		w.State = newSt
	}
	if w.Explain != nil {
		for _, line := range log {
			w.Explain.Effect(line)
		}
	}
	outcome := Outcome{New: newSt, Effect: log}
	if w.Memory {
		w.History = append(w.History, outcome)
	}
	return outcome, nil
}

// Run steps the real world maxSteps times or until TERMINATED becomes
// true, reporting progress on a terminal progress bar exactly as
// experiment/Online.go does for an RL training loop.
func (w *World) Run(maxSteps int, real, selectFlag bool) ([]Outcome, error) {
	bar := progressbar.New(50, maxSteps, time.Second, true)
	bar.Display()
	defer bar.Close()

	outcomes := make([]Outcome, 0, maxSteps)
	for i := 0; i < maxSteps; i++ {
		bar.Increment()
		if w.Terminated() {
			break
		}
		outcome, err := w.Step(action.Of(), real, selectFlag)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, outcome)
		if !real {
			// Without committing to the real state, repeating Step
			// would just replay the same turn; batch running only
			// makes sense when real advances the world.
			break
		}
	}
	return outcomes, nil
}
