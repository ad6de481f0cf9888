package testing

import (
	"context"
	"strings"
	"sync"

	"github.com/go-logr/logr"

	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/procedure"
	"github.com/imamik/hoc/internal/progress"
	"github.com/imamik/hoc/internal/record"
	"github.com/imamik/hoc/internal/resolve"
)

type scripted struct {
	match string
	fn    func(executor.Request) (*executor.Result, error)
}

// ScriptedExecutor answers commands from a script. The first rule whose
// match is contained in the command wins; unmatched commands exit 0.
type ScriptedExecutor struct {
	mu       sync.Mutex
	rules    []scripted
	requests []executor.Request
	closed   int
}

// NewScriptedExecutor creates an executor with no rules.
func NewScriptedExecutor() *ScriptedExecutor {
	return &ScriptedExecutor{}
}

// On registers fn for commands containing match.
func (s *ScriptedExecutor) On(match string, fn func(executor.Request) (*executor.Result, error)) *ScriptedExecutor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, scripted{match: match, fn: fn})
	return s
}

// Reply makes commands containing match print stdout and exit 0.
func (s *ScriptedExecutor) Reply(match, stdout string) *ScriptedExecutor {
	return s.On(match, func(executor.Request) (*executor.Result, error) {
		return &executor.Result{Stdout: stdout}, nil
	})
}

// Fail makes commands containing match exit with code and stderr.
func (s *ScriptedExecutor) Fail(match string, code int, stderr string) *ScriptedExecutor {
	return s.On(match, func(executor.Request) (*executor.Result, error) {
		return &executor.Result{ExitCode: code, Stderr: stderr}, nil
	})
}

// Execute implements procedure.Executor.
func (s *ScriptedExecutor) Execute(ctx context.Context, req executor.Request) (*executor.Result, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	rules := s.rules
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, r := range rules {
		if strings.Contains(req.Command, r.match) {
			return r.fn(req)
		}
	}
	return &executor.Result{}, nil
}

// Close implements procedure.Executor.
func (s *ScriptedExecutor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

// Requests returns every request received.
func (s *ScriptedExecutor) Requests() []executor.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]executor.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Commands returns the commands received in order.
func (s *ScriptedExecutor) Commands() []string {
	var out []string
	for _, r := range s.Requests() {
		out = append(out, r.Command)
	}
	return out
}

// Closed returns how often Close was called.
func (s *ScriptedExecutor) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// TB is the part of testing.TB the fixtures need. Both *testing.T and
// GinkgoT() satisfy it.
type TB interface {
	Helper()
	TempDir() string
	Fatalf(format string, args ...any)
}

// EngineFixture is an engine wired to a temporary record store.
type EngineFixture struct {
	Engine   *procedure.Engine
	Records  *record.Store
	Progress *progress.Collector
}

// NewEngineFixture creates an unattended engine using exec for every run.
func NewEngineFixture(t TB, exec procedure.Executor) *EngineFixture {
	t.Helper()
	store := record.NewStore(t.TempDir())
	collector := &progress.Collector{}
	return &EngineFixture{
		Engine: &procedure.Engine{
			Records:     store,
			NewExecutor: func() procedure.Executor { return exec },
			Resolver:    &resolve.Resolver{Terminal: resolve.Unattended, Log: logr.Discard()},
			Progress:    collector,
			Log:         logr.Discard(),
		},
		Records:  store,
		Progress: collector,
	}
}

// Entries returns the record of proc on its default target.
func (f *EngineFixture) Entries(t TB, proc *procedure.Procedure) []record.Entry {
	t.Helper()
	entries, err := f.Records.Read(proc.Name, proc.Target.Identity())
	if err != nil {
		t.Fatalf("failed to read run record: %v", err)
	}
	return entries
}

// StepStatuses returns "step=status" for every step entry in journal
// order, skipping the rendering and dispatching transitions.
func StepStatuses(entries []record.Entry) []string {
	var out []string
	for _, e := range entries {
		if e.Kind != record.KindStep {
			continue
		}
		if e.Status == record.StatusRendering || e.Status == record.StatusDispatching {
			continue
		}
		out = append(out, e.Step+"="+string(e.Status))
	}
	return out
}
