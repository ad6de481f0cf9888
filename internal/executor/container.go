package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

const defaultDestroyTimeout = 30 * time.Second

// ContainerRuntime manages transient containers.
type ContainerRuntime interface {
	// Create starts a container from image and returns its handle.
	Create(ctx context.Context, image string, mounts []Mount) (string, error)
	// Exec runs command inside the container.
	Exec(ctx context.Context, handle, command, stdin string) (*Result, error)
	// Destroy removes the container.
	Destroy(ctx context.Context, handle string) error
}

// ContainerBackend runs every command in its own container.
type ContainerBackend struct {
	Runtime ContainerRuntime
	Log     logr.Logger

	// DestroyTimeout bounds the cleanup, which runs even when ctx was
	// cancelled.
	DestroyTimeout time.Duration
}

// Execute implements Backend. The container is destroyed whether the command
// succeeded, failed or was cancelled.
func (b *ContainerBackend) Execute(ctx context.Context, req Request) (*Result, error) {
	t, ok := req.Target.(ContainerTarget)
	if !ok {
		return nil, fmt.Errorf("container backend cannot run on %T", req.Target)
	}

	handle, err := b.Runtime.Create(ctx, t.Image, t.Mounts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to create container from %s: %w", t.Image, err)
	}
	defer b.destroy(ctx, handle)

	start := time.Now()
	res, err := b.Runtime.Exec(ctx, handle, req.Command, req.Stdin)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to run command in container %s: %w", handle, err)
	}
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}
	return res, nil
}

func (b *ContainerBackend) destroy(ctx context.Context, handle string) {
	timeout := b.DestroyTimeout
	if timeout == 0 {
		timeout = defaultDestroyTimeout
	}
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := b.Runtime.Destroy(cleanupCtx, handle); err != nil {
		b.Log.Error(err, "failed to destroy container", "container", handle)
	}
}
