// Package docker drives the docker CLI to provide transient containers.
package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/util/retry"
)

const (
	defaultBinary    = "docker"
	defaultReadyWait = 60 * time.Second
)

// Runner runs a CLI invocation. A non-zero exit is reported in the result.
type Runner func(ctx context.Context, stdin string, name string, args ...string) (*executor.Result, error)

// CLI implements executor.ContainerRuntime on top of the docker binary.
type CLI struct {
	// Binary is the docker executable. Defaults to "docker".
	Binary string
	// Run overrides process execution, mainly for tests.
	Run Runner
	// WaitTimeout, when positive, makes the first Create wait up to this
	// long for the daemon to answer.
	WaitTimeout time.Duration

	mu    sync.Mutex
	ready bool
}

// New returns a CLI using the docker binary on PATH.
func New() *CLI {
	return &CLI{Binary: defaultBinary, Run: runProcess}
}

func (c *CLI) run(ctx context.Context, stdin string, args ...string) (*executor.Result, error) {
	binary := c.Binary
	if binary == "" {
		binary = defaultBinary
	}
	run := c.Run
	if run == nil {
		run = runProcess
	}
	return run(ctx, stdin, binary, args...)
}

// Create starts a detached container that idles until it is removed.
func (c *CLI) Create(ctx context.Context, image string, mounts []executor.Mount) (string, error) {
	if err := c.ensureReady(ctx); err != nil {
		return "", err
	}

	res, err := c.run(ctx, "", createArgs(image, mounts)...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("docker run exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	id := strings.TrimSpace(res.Stdout)
	if id == "" {
		return "", fmt.Errorf("docker run returned no container id")
	}
	return id, nil
}

func createArgs(image string, mounts []executor.Mount) []string {
	args := []string{"run", "--detach", "--interactive", "--entrypoint", "cat"}
	for _, m := range mounts {
		spec := m.Source + ":" + m.Target
		if m.ReadOnly {
			spec += ":ro"
		}
		args = append(args, "--volume", spec)
	}
	return append(args, image)
}

// Exec runs command inside the container through sh, feeding stdin.
func (c *CLI) Exec(ctx context.Context, handle, command, stdin string) (*executor.Result, error) {
	return c.run(ctx, stdin, "exec", "--interactive", handle, "sh", "-c", command)
}

// Destroy force-removes the container.
func (c *CLI) Destroy(ctx context.Context, handle string) error {
	res, err := c.run(ctx, "", "rm", "--force", handle)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("docker rm exited with code %d: %s", res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// Ping checks that the docker daemon answers.
func (c *CLI) Ping(ctx context.Context) error {
	res, err := c.run(ctx, "", "info", "--format", "{{.ServerVersion}}")
	if err != nil {
		return fmt.Errorf("docker is not available: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("docker daemon is not ready: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// WaitReady polls Ping until the daemon answers or timeout elapses. A
// missing docker binary fails immediately.
func (c *CLI) WaitReady(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultReadyWait
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return retry.WithExponentialBackoff(ctx, func() error {
		err := c.Ping(ctx)
		if errors.Is(err, exec.ErrNotFound) {
			return retry.Fatal(err)
		}
		return err
	},
		retry.WithMaxRetries(30),
		retry.WithInitialDelay(500*time.Millisecond),
		retry.WithMaxDelay(5*time.Second),
	)
}

func (c *CLI) ensureReady(ctx context.Context) error {
	if c.WaitTimeout <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ready {
		return nil
	}
	if err := c.WaitReady(ctx, c.WaitTimeout); err != nil {
		return err
	}
	c.ready = true
	return nil
}

func runProcess(ctx context.Context, stdin string, name string, args ...string) (*executor.Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	res := &executor.Result{
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
		return nil, fmt.Errorf("failed to execute %s: %w", name, err)
	}
	return res, nil
}
