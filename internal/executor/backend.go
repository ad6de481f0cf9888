package executor

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/imamik/hoc/internal/platform/ssh"
)

// Request is one command to run.
type Request struct {
	Command string
	Stdin   string
	Target  Target
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Backend runs commands.
type Backend interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

// ExitError reports a command that completed with a non-success exit code.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("command exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("command exited with code %d: %s", e.ExitCode, lastLine(e.Stderr))
}

// CheckExit returns an ExitError unless res.ExitCode is one of successCodes.
// An empty successCodes means only 0 is success.
func CheckExit(res *Result, successCodes []int) error {
	if len(successCodes) == 0 {
		successCodes = []int{0}
	}
	if slices.Contains(successCodes, res.ExitCode) {
		return nil
	}
	return &ExitError{ExitCode: res.ExitCode, Stderr: res.Stderr}
}

// ConnectionError reports that a target could not be reached or the
// connection broke while a command ran.
type ConnectionError struct {
	Target string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Transient reports whether the failure belongs to the retryable class
// (timeouts, connection resets).
func (e *ConnectionError) Transient() bool {
	return ssh.IsTransient(e.Err)
}

func lastLine(s string) string {
	end := len(s)
	for end > 0 && (s[end-1] == '\n' || s[end-1] == '\r' || s[end-1] == ' ') {
		end--
	}
	start := end
	for start > 0 && s[start-1] != '\n' {
		start--
	}
	return s[start:end]
}
