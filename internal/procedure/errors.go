package procedure

import (
	"fmt"
	"strings"

	"github.com/imamik/hoc/internal/record"
)

// FailureError is returned when a run ends in a failure outcome.
type FailureError struct {
	Procedure     string
	Step          string
	Outcome       record.Outcome
	Err           error
	Compensations []RollbackFailure
}

func (e *FailureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "procedure %q failed at step %q: %v", e.Procedure, e.Step, e.Err)
	if len(e.Compensations) > 0 {
		fmt.Fprintf(&b, "; rollback failed for %s", strings.Join(e.FailedCompensations(), ", "))
	}
	return b.String()
}

func (e *FailureError) Unwrap() error { return e.Err }

// FailedCompensations returns the names of the steps whose revert failed.
func (e *FailureError) FailedCompensations() []string {
	names := make([]string, len(e.Compensations))
	for i, c := range e.Compensations {
		names[i] = c.Step
	}
	return names
}

// RollbackFailure is a compensation that did not succeed.
type RollbackFailure struct {
	Step string
	Err  error
}

func (e RollbackFailure) Error() string {
	return fmt.Sprintf("rollback of step %q failed: %v", e.Step, e.Err)
}

func (e RollbackFailure) Unwrap() error { return e.Err }

// ResumeConflictError reports a run record naming a step the procedure no
// longer has.
type ResumeConflictError struct {
	Procedure string
	Step      string
}

func (e *ResumeConflictError) Error() string {
	return fmt.Sprintf("run record of procedure %q references step %q, which is not part of the procedure; start a fresh run to discard it", e.Procedure, e.Step)
}

// MissingOutputError reports a declared output the command did not emit.
type MissingOutputError struct {
	Step string
	Name string
}

func (e *MissingOutputError) Error() string {
	return fmt.Sprintf("step %q did not emit declared output %q", e.Step, e.Name)
}

// ReferenceError reports a placeholder that no input, parameter or earlier
// output can bind.
type ReferenceError struct {
	Step   string
	Name   string
	Revert bool
}

func (e *ReferenceError) Error() string {
	what := "command"
	if e.Revert {
		what = "revert command"
	}
	return fmt.Sprintf("%s of step %q references {%s}, which is neither an input, a parameter nor an output of an earlier step", what, e.Step, e.Name)
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
