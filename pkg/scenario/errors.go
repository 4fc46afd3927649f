package scenario

import (
	"errors"
	"fmt"
)

// StepError is an error that escaped a step and aborted its pipeline run.
type StepError struct {
	Scenario string
	// Index is the 0-based position of the failing step
	Index int
	Label string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s aborted at step %d (%s): %v", e.Scenario, e.Index+1, e.Label, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// AsStepError unwraps err to a StepError if it holds one.
func AsStepError(err error) (*StepError, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
