package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuntime struct {
	mu            sync.Mutex
	created       []string
	destroyed     []string
	createErr     error
	exec          func(ctx context.Context, command, stdin string) (*Result, error)
	destroyCtxErr error
}

func (f *fakeRuntime) Create(_ context.Context, image string, _ []Mount) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, image)
	return "c1", nil
}

func (f *fakeRuntime) Exec(ctx context.Context, _, command, stdin string) (*Result, error) {
	return f.exec(ctx, command, stdin)
}

func (f *fakeRuntime) Destroy(ctx context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyCtxErr = ctx.Err()
	f.destroyed = append(f.destroyed, handle)
	return nil
}

func TestContainerBackend_DestroysAfterSuccess(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{exec: func(_ context.Context, command, stdin string) (*Result, error) {
		return &Result{Stdout: command + "|" + stdin}, nil
	}}
	b := &ContainerBackend{Runtime: rt}

	res, err := b.Execute(context.Background(), Request{Command: "id", Stdin: "in", Target: Containerized("alpine")})
	require.NoError(t, err)
	assert.Equal(t, "id|in", res.Stdout)
	assert.Equal(t, []string{"alpine"}, rt.created)
	assert.Equal(t, []string{"c1"}, rt.destroyed)
}

func TestContainerBackend_DestroysAfterFailure(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{exec: func(context.Context, string, string) (*Result, error) {
		return &Result{ExitCode: 2}, nil
	}}
	b := &ContainerBackend{Runtime: rt}

	res, err := b.Execute(context.Background(), Request{Command: "false", Target: Containerized("alpine")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, []string{"c1"}, rt.destroyed)
}

func TestContainerBackend_DestroysAfterCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	rt := &fakeRuntime{exec: func(ctx context.Context, _, _ string) (*Result, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	b := &ContainerBackend{Runtime: rt}

	_, err := b.Execute(ctx, Request{Command: "sleep 100", Target: Containerized("alpine")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"c1"}, rt.destroyed)
	assert.NoError(t, rt.destroyCtxErr, "cleanup must not inherit the cancellation")
}

func TestContainerBackend_CreateFailure(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{createErr: errors.New("image not found")}
	b := &ContainerBackend{Runtime: rt}

	_, err := b.Execute(context.Background(), Request{Command: "id", Target: Containerized("missing")})
	assert.ErrorContains(t, err, "image not found")
	assert.Empty(t, rt.destroyed)
}

func TestContainerBackend_WrongTarget(t *testing.T) {
	t.Parallel()

	b := &ContainerBackend{Runtime: &fakeRuntime{}}
	_, err := b.Execute(context.Background(), Request{Command: "id", Target: Local()})
	assert.Error(t, err)
}
