package executor

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hoc/internal/testing/sshtest"
)

type fakeSession struct {
	mu     sync.Mutex
	run    func(command string) (*Result, error)
	closed bool
}

func (s *fakeSession) Run(_ context.Context, command, _ string) (*Result, error) {
	return s.run(command)
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeDialer struct {
	mu       sync.Mutex
	dials    map[string]int
	sessions []*fakeSession
	err      error
	run      func(command string) (*Result, error)
}

func (d *fakeDialer) Dial(_ context.Context, t RemoteTarget) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	if d.dials == nil {
		d.dials = make(map[string]int)
	}
	d.dials[t.Host]++
	run := d.run
	if run == nil {
		run = func(command string) (*Result, error) { return &Result{Stdout: command}, nil }
	}
	s := &fakeSession{run: run}
	d.sessions = append(d.sessions, s)
	return s, nil
}

func TestRemoteBackend_ReusesConnectionPerHost(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{}
	pool := NewPool(dialer)
	b := &RemoteBackend{Pool: pool}

	a := Remote("a", Credentials{User: "u"})
	c := Remote("c", Credentials{User: "u"})
	for _, target := range []Target{a, a, c, a} {
		_, err := b.Execute(context.Background(), Request{Command: "uptime", Target: target})
		require.NoError(t, err)
	}

	assert.Equal(t, map[string]int{"a": 1, "c": 1}, dialer.dials)
	assert.Equal(t, 2, pool.Len())

	require.NoError(t, pool.Close())
	for _, s := range dialer.sessions {
		assert.True(t, s.closed)
	}
	assert.Equal(t, 0, pool.Len())

	_, err := b.Execute(context.Background(), Request{Command: "uptime", Target: a})
	assert.Error(t, err)
}

func TestRemoteBackend_DialFailure(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{err: io.EOF}
	b := &RemoteBackend{Pool: NewPool(dialer)}

	_, err := b.Execute(context.Background(), Request{Command: "uptime", Target: Remote("a", Credentials{User: "u"})})
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "remote/u@a", connErr.Target)
	assert.True(t, connErr.Transient())
}

func TestRemoteBackend_BrokenSessionIsDiscarded(t *testing.T) {
	t.Parallel()

	dialer := &fakeDialer{run: func(string) (*Result, error) {
		return nil, errors.New("session closed")
	}}
	pool := NewPool(dialer)
	b := &RemoteBackend{Pool: pool}
	target := Remote("a", Credentials{User: "u"})

	_, err := b.Execute(context.Background(), Request{Command: "uptime", Target: target})
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 0, pool.Len())
	assert.True(t, dialer.sessions[0].closed)

	_, _ = b.Execute(context.Background(), Request{Command: "uptime", Target: target})
	assert.Equal(t, 2, dialer.dials["a"])
}

func TestSSHDialer_RunsOverSSH(t *testing.T) {
	t.Parallel()

	srv := sshtest.NewServer(t, "admin", "secret")
	dialer := &SSHDialer{
		Resolver: Hosts{"box": srv.Host()},
		Log:      logr.Discard(),
	}
	pool := NewPool(dialer)
	defer func() { _ = pool.Close() }()
	b := &RemoteBackend{Pool: pool}

	target := RemoteTarget{
		Host:        "box",
		Port:        srv.Port(),
		Credentials: Credentials{User: "admin", Password: "secret"},
	}

	res, err := b.Execute(context.Background(), Request{Command: "cat; exit 4", Stdin: "ping", Target: target})
	require.NoError(t, err)
	assert.Equal(t, "ping", res.Stdout)
	assert.Equal(t, 4, res.ExitCode)

	_, err = b.Execute(context.Background(), Request{Command: "true", Target: target})
	require.NoError(t, err)
	assert.EqualValues(t, 1, srv.Connections())
}

func TestSSHDialer_AuthFailure(t *testing.T) {
	t.Parallel()

	srv := sshtest.NewServer(t, "admin", "secret")
	dialer := &SSHDialer{MaxRetries: 3, Log: logr.Discard()}
	b := &RemoteBackend{Pool: NewPool(dialer)}

	target := RemoteTarget{
		Host:        srv.Host(),
		Port:        srv.Port(),
		Credentials: Credentials{User: "admin", Password: "wrong"},
	}

	_, err := b.Execute(context.Background(), Request{Command: "true", Target: target})
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.False(t, connErr.Transient())
}

func TestHosts_ResolveHost(t *testing.T) {
	t.Parallel()

	h := Hosts{"pi": "192.168.1.20"}
	addr, err := h.ResolveHost(context.Background(), "pi")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", addr)

	addr, err = h.ResolveHost(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", addr)
}
