package procedure

import (
	"fmt"

	"github.com/imamik/hoc/internal/record"
)

// TransitionError reports a step state change the state machine forbids.
type TransitionError struct {
	Step     string
	From, To record.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("disallowed transition for step %q: %s -> %s", e.Step, e.From, e.To)
}

// IsTerminal reports whether a step in status s will not change again
// during the forward run.
func IsTerminal(s record.Status) bool {
	switch s {
	case record.StatusSucceeded, record.StatusFailed, record.StatusRolledBack, record.StatusRollbackFailed:
		return true
	default:
		return false
	}
}

func isAllowedTransition(from, to record.Status) bool {
	switch from {
	case record.StatusPending:
		// Failed directly when the run is cancelled before the step starts.
		return to == record.StatusRendering || to == record.StatusFailed
	case record.StatusRendering:
		return to == record.StatusDispatching || to == record.StatusFailed
	case record.StatusDispatching:
		return to == record.StatusSucceeded || to == record.StatusFailed
	case record.StatusSucceeded:
		return to == record.StatusRolledBack || to == record.StatusRollbackFailed
	default:
		return false
	}
}
