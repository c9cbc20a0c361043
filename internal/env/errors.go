package env

import "fmt"

// PhaseError reports an operation attempted in a lifecycle phase that does
// not permit it.
type PhaseError struct {
	Op    string
	Phase Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s not valid in phase %s", e.Op, e.Phase)
}

// SetupError reports a failed setup stage (cluster or images). The failing
// stage's diagnostic text travels in the wrapped error.
type SetupError struct {
	Stage string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup stage %s: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}
