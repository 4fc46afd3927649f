package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the terminal state of one pipeline run.
type State int

const (
	Running State = iota
	Completed
	Aborted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Step is one named unit of work. Action runs exactly once per run.
type Step struct {
	Label  string
	Action func(ctx context.Context) error
}

func NewStep(label string, action func(ctx context.Context) error) Step {
	return Step{Label: label, Action: action}
}

// Scenario is a named, ordered list of steps. Variants are built by
// different constructors, each returning its own step list.
type Scenario struct {
	Name  string
	Steps []Step
}

func New(name string, steps ...Step) Scenario {
	return Scenario{Name: name, Steps: steps}
}

// Run executes the scenario with r, or with a logging runner when r is nil.
func (s Scenario) Run(ctx context.Context, r *Runner) error {
	if r == nil {
		r = NewRunner(NewLogSink(zap.L()))
	}
	return r.Run(ctx, s.Name, s.Steps)
}

// Runner executes steps in order and reports their timings to a Sink.
type Runner struct {
	sink Sink
}

func NewRunner(sink Sink) *Runner {
	if sink == nil {
		sink = NewLogSink(zap.L())
	}
	return &Runner{sink: sink}
}

// Run executes steps strictly one after another. The first step that returns
// an error stops the run; Run then returns a *StepError carrying the step
// position and label. Panics raised by a step are not recovered.
func (r *Runner) Run(ctx context.Context, name string, steps []Step) error {
	runID := uuid.New()
	start := time.Now()

	finish := func(state State, done int, err error) {
		r.sink.ScenarioFinished(ScenarioEvent{
			RunID:    runID,
			Scenario: name,
			State:    state,
			Steps:    done,
			Elapsed:  time.Since(start),
			Err:      err,
		})
	}

	for i, step := range steps {
		ev := StepEvent{RunID: runID, Scenario: name, Index: i, Label: step.Label}

		if err := ctx.Err(); err != nil {
			serr := &StepError{Scenario: name, Index: i, Label: step.Label, Err: err}
			r.sink.StepAborted(ev, serr)
			finish(Aborted, i, serr)
			return serr
		}

		stepStart := time.Now()
		err := step.Action(ctx)
		ev.Elapsed = time.Since(stepStart)

		if err != nil {
			serr := &StepError{Scenario: name, Index: i, Label: step.Label, Err: err}
			r.sink.StepAborted(ev, serr)
			finish(Aborted, i, serr)
			return serr
		}
		r.sink.StepCompleted(ev)
	}

	finish(Completed, len(steps), nil)
	return nil
}
