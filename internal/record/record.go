// Package record persists run records: an append-only JSONL journal per
// (procedure, target) holding one entry per step transition. The journal is
// the source of truth for resuming interrupted runs and for audit.
package record

import (
	"strings"
	"time"

	"github.com/imamik/hoc/internal/vars"
)

// Kind distinguishes run-level from step-level entries.
type Kind string

const (
	KindRun  Kind = "run"
	KindStep Kind = "step"
)

// Status is the state recorded by an entry.
type Status string

// Step statuses.
const (
	StatusPending        Status = "pending"
	StatusRendering      Status = "rendering"
	StatusDispatching    Status = "dispatching"
	StatusSucceeded      Status = "succeeded"
	StatusFailed         Status = "failed"
	StatusRolledBack     Status = "rolled_back"
	StatusRollbackFailed Status = "rollback_failed"
)

// Run statuses.
const (
	RunStarted  Status = "started"
	RunResumed  Status = "resumed"
	RunFinished Status = "finished"
)

// Outcome is the terminal result of a run.
type Outcome string

const (
	OutcomeSucceeded       Outcome = "succeeded"
	OutcomeRolledBack      Outcome = "failed_rolled_back"
	OutcomePartialRollback Outcome = "failed_partial_rollback"
)

// Failed reports whether o is one of the failure outcomes.
func (o Outcome) Failed() bool {
	return o == OutcomeRolledBack || o == OutcomePartialRollback
}

// Entry is one line of the journal. Commands, output and values are stored
// with secrets already redacted.
type Entry struct {
	Seq       int       `json:"seq"`
	RunID     string    `json:"run_id"`
	Time      time.Time `json:"time"`
	Kind      Kind      `json:"kind"`
	Procedure string    `json:"procedure"`
	Target    string    `json:"target"`
	Status    Status    `json:"status"`

	Step     string            `json:"step,omitempty"`
	Command  string            `json:"command,omitempty"`
	Stdout   string            `json:"stdout,omitempty"`
	Stderr   string            `json:"stderr,omitempty"`
	ExitCode *int              `json:"exit_code,omitempty"`
	Duration time.Duration     `json:"duration,omitempty"`
	Outputs  map[string]string `json:"outputs,omitempty"`
	Error    string            `json:"error,omitempty"`

	// Set on run entries.
	From                string   `json:"from,omitempty"`
	Outcome             Outcome  `json:"outcome,omitempty"`
	FailedCompensations []string `json:"failed_compensations,omitempty"`
}

// Redacted reports whether the entry carries a redaction marker.
func (e Entry) Redacted() bool {
	if strings.Contains(e.Command, vars.RedactedMarker) ||
		strings.Contains(e.Stdout, vars.RedactedMarker) ||
		strings.Contains(e.Stderr, vars.RedactedMarker) {
		return true
	}
	for _, v := range e.Outputs {
		if v == vars.RedactedMarker {
			return true
		}
	}
	return false
}
