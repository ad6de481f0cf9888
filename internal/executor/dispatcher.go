package executor

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
)

// Dispatcher routes requests to the backend matching their target.
type Dispatcher struct {
	Local     Backend
	Container Backend
	Remote    Backend

	pool *Pool
}

// NewDispatcher creates a dispatcher. Remote commands go through a fresh
// pool over dialer, released by Close. A nil runtime or dialer leaves that
// kind of target unsupported.
func NewDispatcher(local *LocalBackend, runtime ContainerRuntime, dialer Dialer, log logr.Logger) *Dispatcher {
	d := &Dispatcher{}
	if local != nil {
		d.Local = local
	}
	if runtime != nil {
		d.Container = &ContainerBackend{Runtime: runtime, Log: log}
	}
	if dialer != nil {
		d.pool = NewPool(dialer)
		d.Remote = &RemoteBackend{Pool: d.pool}
	}
	return d
}

// Execute implements Backend.
func (d *Dispatcher) Execute(ctx context.Context, req Request) (*Result, error) {
	var b Backend
	switch req.Target.(type) {
	case LocalTarget:
		b = d.Local
	case ContainerTarget:
		b = d.Container
	case RemoteTarget:
		b = d.Remote
	}
	if b == nil {
		return nil, fmt.Errorf("no backend configured for target %T", req.Target)
	}
	return b.Execute(ctx, req)
}

// Close releases pooled connections.
func (d *Dispatcher) Close() error {
	if d.pool == nil {
		return nil
	}
	return d.pool.Close()
}
