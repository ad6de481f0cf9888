package docker

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hoc/internal/executor"
)

type call struct {
	stdin string
	args  []string
}

type recorder struct {
	mu      sync.Mutex
	calls   []call
	respond func(args []string) (*executor.Result, error)
}

func (r *recorder) run(_ context.Context, stdin string, name string, args ...string) (*executor.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, call{stdin: stdin, args: append([]string{name}, args...)})
	r.mu.Unlock()
	if r.respond != nil {
		return r.respond(args)
	}
	return &executor.Result{}, nil
}

func TestCreate(t *testing.T) {
	t.Parallel()

	rec := &recorder{respond: func([]string) (*executor.Result, error) {
		return &executor.Result{Stdout: "abc123\n"}, nil
	}}
	c := &CLI{Run: rec.run}

	id, err := c.Create(context.Background(), "alpine:3.20", []executor.Mount{
		{Source: "/srv/data", Target: "/data"},
		{Source: "/etc/hoc", Target: "/config", ReadOnly: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)
	assert.Equal(t, []string{
		"docker", "run", "--detach", "--interactive", "--entrypoint", "cat",
		"--volume", "/srv/data:/data",
		"--volume", "/etc/hoc:/config:ro",
		"alpine:3.20",
	}, rec.calls[0].args)
}

func TestCreate_Failure(t *testing.T) {
	t.Parallel()

	c := &CLI{Run: func(context.Context, string, string, ...string) (*executor.Result, error) {
		return &executor.Result{ExitCode: 125, Stderr: "Unable to find image\n"}, nil
	}}
	_, err := c.Create(context.Background(), "nope", nil)
	assert.EqualError(t, err, "docker run exited with code 125: Unable to find image")
}

func TestExec(t *testing.T) {
	t.Parallel()

	rec := &recorder{respond: func([]string) (*executor.Result, error) {
		return &executor.Result{Stdout: "ok", ExitCode: 3}, nil
	}}
	c := &CLI{Binary: "podman", Run: rec.run}

	res, err := c.Exec(context.Background(), "abc123", "echo hi && exit 3", "pw\n")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "pw\n", rec.calls[0].stdin)
	assert.Equal(t, []string{"podman", "exec", "--interactive", "abc123", "sh", "-c", "echo hi && exit 3"}, rec.calls[0].args)
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c := &CLI{Run: rec.run}
	require.NoError(t, c.Destroy(context.Background(), "abc123"))
	assert.Equal(t, []string{"docker", "rm", "--force", "abc123"}, rec.calls[0].args)

	rec.respond = func([]string) (*executor.Result, error) {
		return &executor.Result{ExitCode: 1, Stderr: "No such container"}, nil
	}
	assert.ErrorContains(t, c.Destroy(context.Background(), "gone"), "No such container")
}

func TestWaitReady(t *testing.T) {
	t.Parallel()

	attempts := 0
	c := &CLI{Run: func(_ context.Context, _ string, _ string, args ...string) (*executor.Result, error) {
		assert.Equal(t, "info", args[0])
		attempts++
		if attempts < 3 {
			return &executor.Result{ExitCode: 1, Stderr: "Cannot connect to the Docker daemon"}, nil
		}
		return &executor.Result{Stdout: "27.0.1"}, nil
	}}

	require.NoError(t, c.WaitReady(context.Background(), 10*time.Second))
	assert.Equal(t, 3, attempts)
}

func TestWaitReady_MissingBinary(t *testing.T) {
	t.Parallel()

	attempts := 0
	c := &CLI{Run: func(context.Context, string, string, ...string) (*executor.Result, error) {
		attempts++
		return nil, fmt.Errorf("failed to execute docker: %w", exec.ErrNotFound)
	}}

	err := c.WaitReady(context.Background(), 10*time.Second)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "fatal error"))
	assert.Equal(t, 1, attempts)
}

func TestRunProcess(t *testing.T) {
	t.Parallel()

	res, err := runProcess(context.Background(), "abc", "sh", "-c", "cat; exit 2")
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Stdout)
	assert.Equal(t, 2, res.ExitCode)
}

func TestContainerBackendWithCLI(t *testing.T) {
	t.Parallel()

	rec := &recorder{respond: func(args []string) (*executor.Result, error) {
		if args[0] == "run" {
			return &executor.Result{Stdout: "cid\n"}, nil
		}
		return &executor.Result{Stdout: "done"}, nil
	}}
	b := &executor.ContainerBackend{Runtime: &CLI{Run: rec.run}}

	res, err := b.Execute(context.Background(), executor.Request{Command: "id", Target: executor.Containerized("alpine")})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Stdout)
	require.Len(t, rec.calls, 3)
	assert.Equal(t, "rm", rec.calls[2].args[1])
}

func TestCreate_WaitsForDaemonOnce(t *testing.T) {
	t.Parallel()

	rec := &recorder{respond: func(args []string) (*executor.Result, error) {
		return &executor.Result{Stdout: "cid\n"}, nil
	}}
	c := &CLI{Run: rec.run, WaitTimeout: time.Second}

	_, err := c.Create(context.Background(), "alpine", nil)
	require.NoError(t, err)
	_, err = c.Create(context.Background(), "alpine", nil)
	require.NoError(t, err)

	var verbs []string
	for _, call := range rec.calls {
		verbs = append(verbs, call.args[1])
	}
	assert.Equal(t, []string{"info", "run", "run"}, verbs)
}
