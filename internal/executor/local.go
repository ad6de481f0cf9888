package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultWaitDelay = 5 * time.Second

// LocalBackend runs commands with the host shell.
type LocalBackend struct {
	// Shell is the interpreter invoked as `<Shell> -c <command>`. Defaults to sh.
	Shell string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
	// WaitDelay bounds how long output pipes are drained after the process
	// was killed on cancellation.
	WaitDelay time.Duration
}

// Execute implements Backend.
func (b *LocalBackend) Execute(ctx context.Context, req Request) (*Result, error) {
	shell := b.Shell
	if shell == "" {
		shell = "sh"
	}
	waitDelay := b.WaitDelay
	if waitDelay == 0 {
		waitDelay = defaultWaitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, shell, "-c", req.Command)
	cmd.Dir = b.Dir
	if len(b.Env) > 0 {
		cmd.Env = append(cmd.Environ(), b.Env...)
	}
	cmd.Stdin = strings.NewReader(req.Stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return nil, fmt.Errorf("failed to run local command: %w", err)
	}
	return res, nil
}
