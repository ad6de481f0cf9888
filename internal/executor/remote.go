package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/hoc/internal/platform/ssh"
)

// Session runs commands over an established connection.
type Session interface {
	Run(ctx context.Context, command, stdin string) (*Result, error)
	Close() error
}

// Dialer opens sessions to remote targets.
type Dialer interface {
	Dial(ctx context.Context, t RemoteTarget) (Session, error)
}

// HostResolver maps a host reference to a dialable address.
type HostResolver interface {
	ResolveHost(ctx context.Context, host string) (string, error)
}

// Hosts resolves aliases from a static table. Unknown hosts resolve to
// themselves.
type Hosts map[string]string

// ResolveHost implements HostResolver.
func (h Hosts) ResolveHost(_ context.Context, host string) (string, error) {
	if addr, ok := h[host]; ok {
		return addr, nil
	}
	return host, nil
}

// SSHDialer dials RemoteTargets with the platform SSH client.
type SSHDialer struct {
	// Resolver maps host references before dialing. Optional.
	Resolver HostResolver

	DialTimeout time.Duration
	MaxRetries  int
	RetryDelay  time.Duration

	Log logr.Logger
}

// Dial implements Dialer.
func (d *SSHDialer) Dial(ctx context.Context, t RemoteTarget) (Session, error) {
	host := t.Host
	if d.Resolver != nil {
		resolved, err := d.Resolver.ResolveHost(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve host %s: %w", host, err)
		}
		host = resolved
	}

	client, err := ssh.NewClient(&ssh.Config{
		Host:        host,
		Port:        t.Port,
		User:        t.Credentials.User,
		PrivateKey:  t.Credentials.PrivateKey,
		Password:    t.Credentials.Password,
		DialTimeout: d.DialTimeout,
		MaxRetries:  d.MaxRetries,
		RetryDelay:  d.RetryDelay,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			d.Log.V(1).Info("retrying SSH connection", "host", host, "attempt", attempt, "delay", delay, "error", err.Error())
		},
	})
	if err != nil {
		return nil, err
	}

	conn, err := client.Dial(ctx)
	if err != nil {
		return nil, err
	}
	return &sshSession{conn: conn}, nil
}

type sshSession struct {
	conn *ssh.Conn
}

func (s *sshSession) Run(ctx context.Context, command, stdin string) (*Result, error) {
	start := time.Now()
	out, err := s.conn.Run(ctx, command, strings.NewReader(stdin))
	if err != nil {
		return nil, err
	}
	return &Result{
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		ExitCode: out.ExitCode,
		Duration: time.Since(start),
	}, nil
}

func (s *sshSession) Close() error { return s.conn.Close() }

// Pool keeps at most one session per remote target identity. Sessions live
// until Close.
type Pool struct {
	dialer Dialer

	mu       sync.Mutex
	sessions map[string]Session
	closed   bool
}

// NewPool creates a pool that opens sessions with dialer.
func NewPool(dialer Dialer) *Pool {
	return &Pool{dialer: dialer, sessions: make(map[string]Session)}
}

// Acquire returns the pooled session for t, dialing on first use.
func (p *Pool) Acquire(ctx context.Context, t RemoteTarget) (Session, error) {
	key := t.Identity()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, fmt.Errorf("connection pool is closed")
	}
	if s, ok := p.sessions[key]; ok {
		return s, nil
	}

	s, err := p.dialer.Dial(ctx, t)
	if err != nil {
		return nil, err
	}
	p.sessions[key] = s
	return s, nil
}

// Discard closes and forgets the session for t so the next Acquire redials.
func (p *Pool) Discard(t RemoteTarget) {
	key := t.Identity()

	p.mu.Lock()
	s, ok := p.sessions[key]
	delete(p.sessions, key)
	p.mu.Unlock()

	if ok {
		_ = s.Close()
	}
}

// Len returns the number of open sessions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

// Close releases every session. The pool cannot be used afterwards.
func (p *Pool) Close() error {
	p.mu.Lock()
	sessions := p.sessions
	p.sessions = make(map[string]Session)
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for key, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close session %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// RemoteBackend runs commands over pooled sessions.
type RemoteBackend struct {
	Pool *Pool
}

// Execute implements Backend.
func (b *RemoteBackend) Execute(ctx context.Context, req Request) (*Result, error) {
	t, ok := req.Target.(RemoteTarget)
	if !ok {
		return nil, fmt.Errorf("remote backend cannot run on %T", req.Target)
	}

	session, err := b.Pool.Acquire(ctx, t)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ConnectionError{Target: t.Identity(), Err: err}
	}

	res, err := session.Run(ctx, req.Command, req.Stdin)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The connection is no longer trusted; a later step redials.
		b.Pool.Discard(t)
		return nil, &ConnectionError{Target: t.Identity(), Err: err}
	}
	return res, nil
}
