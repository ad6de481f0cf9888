package procedure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/imamik/hoc/internal/executor"
	"github.com/imamik/hoc/internal/metrics"
	"github.com/imamik/hoc/internal/progress"
	"github.com/imamik/hoc/internal/record"
	"github.com/imamik/hoc/internal/resolve"
	"github.com/imamik/hoc/internal/template"
	"github.com/imamik/hoc/internal/vars"
)

// Executor runs the commands of one run. Close releases pooled connections
// and is called once the run reaches a terminal state.
type Executor interface {
	Execute(ctx context.Context, req executor.Request) (*executor.Result, error)
	Close() error
}

// Archiver copies the entries of a finished run elsewhere.
type Archiver interface {
	Archive(ctx context.Context, procedure, target, runID string, entries []record.Entry) error
}

// Engine runs procedures. An Engine holds no per-run state and may run
// several procedures concurrently.
type Engine struct {
	Records     *record.Store
	NewExecutor func() Executor

	// Resolver supplies inputs. Nil resolves from the run context only.
	Resolver *resolve.Resolver
	// Templates backs steps that reference a named template.
	Templates template.Store

	Progress progress.Sink
	Metrics  *metrics.Metrics
	Archiver Archiver
	Log      logr.Logger

	// CommandTimeout bounds each forward command. Zero means no limit.
	CommandTimeout time.Duration
	// RollbackTimeout bounds each compensation. Zero means no limit.
	RollbackTimeout time.Duration

	// NewRunID defaults to random UUIDs.
	NewRunID func() string
}

// RunOptions tune a single run.
type RunOptions struct {
	// Params are bound before the run starts.
	Params []vars.Value
	// From starts a new run at the named step. Earlier steps must have
	// succeeded in the latest run and are skipped.
	From string
	// Fresh ignores the latest run record and starts over.
	Fresh bool
}

// StepReport describes what happened to one step.
type StepReport struct {
	Name     string
	Status   record.Status
	Skipped  bool
	ExitCode int
	Duration time.Duration
	Err      error
}

// Report is the result of a run.
type Report struct {
	Procedure string
	Target    string
	RunID     string
	Outcome   record.Outcome
	Resumed   bool
	Steps     []StepReport
	// Compensations lists the reverts that failed.
	Compensations []RollbackFailure
	// Values is the final run context.
	Values   []vars.Value
	Duration time.Duration
}

// Executed returns the names of the steps that ran in this invocation.
func (r *Report) Executed() []string {
	var names []string
	for _, s := range r.Steps {
		if !s.Skipped && s.Status != record.StatusPending {
			names = append(names, s.Name)
		}
	}
	return names
}

type compiledStep struct {
	step    *Step
	target  executor.Target
	command *template.Template
	stdin   *template.Template
	revert  *template.Template
}

// Run executes proc. When the run ends in a failure outcome the returned
// error is a *FailureError and the report is still returned.
func (e *Engine) Run(ctx context.Context, proc *Procedure, opts RunOptions) (*Report, error) {
	if e.Records == nil || e.NewExecutor == nil {
		return nil, fmt.Errorf("engine requires a record store and an executor factory")
	}
	if err := proc.Validate(); err != nil {
		return nil, err
	}
	steps, err := e.compile(ctx, proc, opts)
	if err != nil {
		return nil, err
	}

	target := proc.Target.Identity()
	journal, err := e.Records.Open(proc.Name, target)
	if err != nil {
		return nil, fmt.Errorf("failed to open run record: %w", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			e.Log.Error(err, "failed to close run record", "procedure", proc.Name)
		}
	}()

	entries, err := journal.Entries()
	if err != nil {
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}

	r := &run{
		engine:  e,
		proc:    proc,
		steps:   steps,
		journal: journal,
		target:  target,
		set:     vars.NewSet(opts.Params...),
		states:  make([]record.Status, len(steps)),
		skip:    make([]bool, len(steps)),
		report: &Report{
			Procedure: proc.Name,
			Target:    target,
			Steps:     make([]StepReport, len(steps)),
		},
	}
	for i, s := range proc.Steps {
		r.states[i] = record.StatusPending
		r.report.Steps[i] = StepReport{Name: s.Name, Status: record.StatusPending}
	}

	done, err := r.plan(record.Replay(entries), opts)
	if err != nil {
		return nil, err
	}
	if done {
		return r.alreadySucceeded(), nil
	}
	if err := r.restoreInputs(ctx); err != nil {
		return nil, err
	}
	return r.execute(ctx)
}

// Check compiles proc without running it. Named templates are loaded and
// every placeholder must be bound by a parameter, an input, the sudo
// password or an earlier output.
func (e *Engine) Check(ctx context.Context, proc *Procedure, params []vars.Value) error {
	if err := proc.Validate(); err != nil {
		return err
	}
	_, err := e.compile(ctx, proc, RunOptions{Params: params})
	return err
}

// compile loads and parses every template and checks that each placeholder
// can be bound when its step runs.
func (e *Engine) compile(ctx context.Context, proc *Procedure, opts RunOptions) ([]*compiledStep, error) {
	available := make(map[string]bool)
	for _, v := range opts.Params {
		available[v.Name] = true
	}
	for _, in := range proc.Params {
		available[in.Name] = true
	}

	steps := make([]*compiledStep, len(proc.Steps))
	for i := range proc.Steps {
		s := &proc.Steps[i]
		cs := &compiledStep{step: s, target: proc.TargetFor(s)}

		var err error
		if cs.command, err = e.load(ctx, s.Command, s.Template); err != nil {
			return nil, fmt.Errorf("step %q: %w", s.Name, err)
		}
		if s.Stdin != "" {
			if cs.stdin, err = template.Parse(s.Stdin); err != nil {
				return nil, fmt.Errorf("step %q stdin: %w", s.Name, err)
			}
		}
		if s.HasRevert() {
			if cs.revert, err = e.load(ctx, s.Revert, s.RevertTemplate); err != nil {
				return nil, fmt.Errorf("step %q revert: %w", s.Name, err)
			}
		}

		own := make(map[string]bool, len(available)+len(s.Inputs)+1)
		for name := range available {
			own[name] = true
		}
		for _, in := range s.Inputs {
			own[in.Name] = true
		}
		if s.Sudo {
			own[SudoPasswordInput(cs.target).Name] = true
		}

		for _, tpl := range []*template.Template{cs.command, cs.stdin} {
			if tpl == nil {
				continue
			}
			for _, name := range tpl.Placeholders() {
				if !own[name] {
					return nil, &ReferenceError{Step: s.Name, Name: name}
				}
			}
		}
		for _, name := range s.Outputs {
			own[name] = true
		}
		if cs.revert != nil {
			for _, name := range cs.revert.Placeholders() {
				if !own[name] {
					return nil, &ReferenceError{Step: s.Name, Name: name, Revert: true}
				}
			}
		}

		for _, name := range s.Outputs {
			available[name] = true
		}
		steps[i] = cs
	}
	return steps, nil
}

func (e *Engine) load(ctx context.Context, text, name string) (*template.Template, error) {
	if name != "" {
		if e.Templates == nil {
			return nil, fmt.Errorf("template %q requested but no template store is configured", name)
		}
		var err error
		if text, err = e.Templates.Get(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to load template %q: %w", name, err)
		}
	}
	return template.Parse(text)
}

func (e *Engine) resolver() *resolve.Resolver {
	if e.Resolver != nil {
		return e.Resolver
	}
	return &resolve.Resolver{Terminal: resolve.Unattended, Log: e.Log}
}

func (e *Engine) sink() progress.Sink {
	if e.Progress != nil {
		return e.Progress
	}
	return progress.Discard
}

func (e *Engine) newRunID() string {
	if e.NewRunID != nil {
		return e.NewRunID()
	}
	return uuid.NewString()
}

type run struct {
	engine  *Engine
	proc    *Procedure
	steps   []*compiledStep
	journal *record.Journal
	target  string
	log     logr.Logger

	runID   string
	resumed bool
	from    string

	set    *vars.Set
	lost   []string
	states []record.Status
	skip   []bool
	report *Report
}

// plan decides between resuming, rewinding, starting over and doing
// nothing. It reports done when every step already succeeded.
func (r *run) plan(prev *record.RunState, opts RunOptions) (bool, error) {
	switch {
	case opts.From != "":
		idx := r.proc.Index(opts.From)
		if idx < 0 {
			return false, fmt.Errorf("step %q is not part of procedure %q", opts.From, r.proc.Name)
		}
		for i := 0; i < idx; i++ {
			name := r.proc.Steps[i].Name
			if !prev.Succeeded(name) {
				return false, fmt.Errorf("cannot start procedure %q at step %q: step %q has not succeeded", r.proc.Name, opts.From, name)
			}
			r.markSkipped(i, prev)
		}
		r.runID = r.engine.newRunID()
		r.from = opts.From

	case !opts.Fresh && prev != nil && (prev.Interrupted() || prev.Outcome == record.OutcomeSucceeded):
		for _, s := range prev.Steps() {
			if r.proc.Index(s.Name) < 0 {
				return false, &ResumeConflictError{Procedure: r.proc.Name, Step: s.Name}
			}
		}
		all := true
		for i, s := range r.proc.Steps {
			if prev.Succeeded(s.Name) {
				r.markSkipped(i, prev)
			} else {
				all = false
			}
		}
		r.runID = prev.RunID
		if prev.Interrupted() {
			r.resumed = true
			break
		}
		if all {
			return true, nil
		}
		// The procedure gained steps since it last succeeded.
		r.runID = r.engine.newRunID()
		for i := range r.skip {
			r.skip[i] = false
		}
		r.set = vars.NewSet(opts.Params...)
		r.lost = nil

	default:
		r.runID = r.engine.newRunID()
	}
	return false, nil
}

// markSkipped records that step i already succeeded and rebinds its
// recorded outputs. Redacted secrets cannot be restored; they are noted in
// lost unless the caller supplied them.
func (r *run) markSkipped(i int, prev *record.RunState) {
	r.skip[i] = true
	st, _ := prev.Step(r.proc.Steps[i].Name)
	names := make([]string, 0, len(st.Outputs))
	for name := range st.Outputs {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if _, bound := r.set.Get(name); bound {
			continue
		}
		if value := st.Outputs[name]; value != vars.RedactedMarker {
			r.set.Bind(vars.Value{Name: name, Data: value})
		} else {
			r.lost = append(r.lost, name)
		}
	}
}

// restoreInputs resolves the procedure parameters and every lost secret
// output that a pending command or any revert still references. It runs
// before anything is recorded, so a run interrupted earlier stays
// resumable when it fails.
func (r *run) restoreInputs(ctx context.Context) error {
	inputs := slices.Clone(r.proc.Params)
	for _, name := range r.lost {
		if r.referenced(name) {
			inputs = append(inputs, resolve.Input{Name: name, Secret: true})
		}
	}
	return r.engine.resolver().ResolveAll(ctx, r.set, inputs)
}

func (r *run) referenced(name string) bool {
	for i, cs := range r.steps {
		tpls := []*template.Template{cs.revert}
		if !r.skip[i] {
			tpls = append(tpls, cs.command, cs.stdin)
		}
		for _, tpl := range tpls {
			if tpl != nil && slices.Contains(tpl.Placeholders(), name) {
				return true
			}
		}
	}
	return false
}

func (r *run) alreadySucceeded() *Report {
	r.report.RunID = r.runID
	r.report.Outcome = record.OutcomeSucceeded
	for i := range r.steps {
		r.report.Steps[i].Status = record.StatusSucceeded
		r.report.Steps[i].Skipped = true
		r.emit(i, progress.PhaseForward, record.StatusSucceeded, true, 0, "")
	}
	r.report.Values = r.set.Values()
	r.engine.Log.Info("procedure already succeeded, nothing to do", "procedure", r.proc.Name, "target", r.target, "run", r.runID)
	r.emitRun(record.RunFinished, record.OutcomeSucceeded, 0, "")
	return r.report
}

func (r *run) execute(ctx context.Context) (*Report, error) {
	e := r.engine
	start := time.Now()
	r.log = e.Log.WithValues("procedure", r.proc.Name, "run", r.runID, "target", r.target)
	r.report.RunID = r.runID
	r.report.Resumed = r.resumed

	status := record.RunStarted
	if r.resumed {
		status = record.RunResumed
	}
	if _, err := r.journal.Append(r.runEntry(status)); err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}
	r.log.Info("run started", "resumed", r.resumed, "from", r.from, "steps", len(r.steps))
	r.emitRun(status, "", 0, "")

	exec := e.NewExecutor()
	defer func() {
		if err := exec.Close(); err != nil {
			r.log.Error(err, "failed to release connections")
		}
	}()

	var succeeded []int
	for i := range r.steps {
		if r.skip[i] {
			r.states[i] = record.StatusSucceeded
			r.report.Steps[i].Status = record.StatusSucceeded
			r.report.Steps[i].Skipped = true
			succeeded = append(succeeded, i)
			r.emit(i, progress.PhaseForward, record.StatusSucceeded, true, 0, "")
		}
	}

	var failure error
	failedStep := ""
	for i := range r.steps {
		if r.skip[i] {
			continue
		}
		if err := ctx.Err(); err != nil {
			failure = fmt.Errorf("run cancelled before step started: %w", err)
			failedStep = r.steps[i].step.Name
			r.fail(i, record.Entry{Error: failure.Error()}, 0)
			break
		}
		if err := r.runStep(ctx, exec, i); err != nil {
			failure = r.redact(err)
			failedStep = r.steps[i].step.Name
			if r.states[i] == record.StatusSucceeded {
				succeeded = append(succeeded, i)
			}
			break
		}
		succeeded = append(succeeded, i)
	}

	outcome := record.OutcomeSucceeded
	if failure != nil {
		r.log.Error(failure, "step failed, rolling back", "step", failedStep)
		r.report.Compensations = r.rollback(ctx, exec, succeeded)
		outcome = record.OutcomeRolledBack
		if len(r.report.Compensations) > 0 {
			outcome = record.OutcomePartialRollback
		}
	}

	r.finish(ctx, outcome, time.Since(start))

	if failure != nil {
		return r.report, &FailureError{
			Procedure:     r.proc.Name,
			Step:          failedStep,
			Outcome:       outcome,
			Err:           failure,
			Compensations: r.report.Compensations,
		}
	}
	return r.report, nil
}

func (r *run) runStep(ctx context.Context, exec Executor, i int) error {
	cs := r.steps[i]
	name := cs.step.Name
	log := r.log.WithValues("step", name)
	start := time.Now()

	if err := r.advance(i, record.StatusRendering, record.Entry{}, 0); err != nil {
		r.fail(i, record.Entry{Error: err.Error()}, 0)
		return err
	}

	req, shown, err := r.render(ctx, cs, cs.command, cs.stdin)
	if err != nil {
		r.fail(i, record.Entry{Error: r.set.Redact(err.Error())}, time.Since(start))
		return err
	}

	if err := r.advance(i, record.StatusDispatching, record.Entry{Command: shown}, 0); err != nil {
		r.fail(i, record.Entry{Command: shown, Error: err.Error()}, time.Since(start))
		return err
	}
	log.V(1).Info("dispatching", "command", shown)

	cctx, cancel := withTimeout(ctx, r.engine.CommandTimeout)
	res, err := exec.Execute(cctx, req)
	cancel()
	if err == nil {
		err = executor.CheckExit(res, cs.step.SuccessCodes)
	}

	entry := record.Entry{Command: shown}
	if res != nil {
		code := res.ExitCode
		entry.ExitCode = &code
		entry.Duration = res.Duration
		r.report.Steps[i].ExitCode = code
	}

	var outputs map[string]string
	if err == nil {
		outputs, err = r.bindOutputs(cs, res.Stdout)
	}
	if res != nil {
		entry.Stdout = r.scrub(res.Stdout)
		entry.Stderr = r.scrub(res.Stderr)
	}

	if err != nil {
		entry.Error = r.set.Redact(err.Error())
		r.fail(i, entry, time.Since(start))
		return err
	}

	entry.Outputs = outputs
	elapsed := time.Since(start)
	if err := r.advance(i, record.StatusSucceeded, entry, elapsed); err != nil {
		// The step ran but its success is not durable. It stays succeeded
		// so that rollback compensates it.
		return err
	}
	r.report.Steps[i].Duration = elapsed
	r.engine.Metrics.ObserveStep(r.proc.Name, string(progress.PhaseForward), string(record.StatusSucceeded), elapsed)
	log.Info("step succeeded", "duration", elapsed.String())
	return nil
}

// render resolves the step inputs and fills command and stdin. It returns
// the request to dispatch and the command with secrets masked.
func (r *run) render(ctx context.Context, cs *compiledStep, command, stdin *template.Template) (executor.Request, string, error) {
	inputs := cs.step.Inputs
	var password resolve.Input
	if cs.step.Sudo {
		password = SudoPasswordInput(cs.target)
		inputs = append(slices.Clone(inputs), password)
	}
	if err := r.engine.resolver().ResolveAll(ctx, r.set, inputs); err != nil {
		return executor.Request{}, "", err
	}

	text, err := command.Execute(r.set)
	if err != nil {
		return executor.Request{}, "", err
	}
	shown, err := command.Execute(r.set.Redacted())
	if err != nil {
		return executor.Request{}, "", err
	}

	in := ""
	if stdin != nil {
		if in, err = stdin.Execute(r.set); err != nil {
			return executor.Request{}, "", err
		}
	}

	if cs.step.Sudo {
		secret, _ := r.set.Lookup(password.Name)
		text = WrapSudo(text)
		shown = WrapSudo(shown)
		in = secret + "\n" + in
	}

	return executor.Request{Command: text, Stdin: in, Target: cs.target}, r.set.Redact(shown), nil
}

// bindOutputs binds the declared outputs found in stdout and returns them
// as they may be recorded.
func (r *run) bindOutputs(cs *compiledStep, stdout string) (map[string]string, error) {
	if len(cs.step.Outputs) == 0 {
		return nil, nil
	}
	parsed := make(map[string]vars.Value)
	for _, v := range ParseOutputs(stdout) {
		parsed[v.Name] = v
	}

	values := make([]vars.Value, 0, len(cs.step.Outputs))
	for _, name := range cs.step.Outputs {
		v, ok := parsed[name]
		if !ok {
			return nil, &MissingOutputError{Step: cs.step.Name, Name: name}
		}
		values = append(values, v)
	}

	recorded := make(map[string]string, len(values))
	for _, v := range values {
		r.set.Bind(v)
		bound, _ := r.set.Get(v.Name)
		recorded[v.Name] = r.set.Redact(bound.String())
	}
	return recorded, nil
}

// rollback compensates the succeeded steps in reverse order. Every revert
// is attempted; failures are collected.
func (r *run) rollback(ctx context.Context, exec Executor, succeeded []int) []RollbackFailure {
	var failures []RollbackFailure
	for k := len(succeeded) - 1; k >= 0; k-- {
		i := succeeded[k]
		cs := r.steps[i]
		if cs.revert == nil {
			continue
		}
		if err := r.compensate(ctx, exec, i); err != nil {
			failures = append(failures, RollbackFailure{Step: cs.step.Name, Err: err})
		}
	}
	return failures
}

func (r *run) compensate(ctx context.Context, exec Executor, i int) error {
	cs := r.steps[i]
	log := r.log.WithValues("step", cs.step.Name)
	start := time.Now()

	// Rollback must complete even when the run was cancelled.
	cctx, cancel := withTimeout(context.WithoutCancel(ctx), r.engine.RollbackTimeout)
	defer cancel()

	req, shown, err := r.render(cctx, cs, cs.revert, nil)
	entry := record.Entry{Command: shown}
	if err == nil {
		var res *executor.Result
		res, err = exec.Execute(cctx, req)
		if err == nil {
			err = executor.CheckExit(res, cs.step.SuccessCodes)
		}
		if res != nil {
			code := res.ExitCode
			entry.ExitCode = &code
			entry.Duration = res.Duration
			entry.Stdout = r.scrub(res.Stdout)
			entry.Stderr = r.scrub(res.Stderr)
		}
	}

	elapsed := time.Since(start)
	status := record.StatusRolledBack
	if err != nil {
		err = r.redact(err)
		status = record.StatusRollbackFailed
		entry.Error = err.Error()
		log.Error(err, "rollback failed")
	} else {
		log.Info("rolled back", "duration", elapsed.String())
	}

	if aerr := r.advance(i, status, entry, elapsed); aerr != nil {
		log.Error(aerr, "failed to record rollback")
	}
	r.report.Steps[i].Status = status
	r.engine.Metrics.ObserveStep(r.proc.Name, string(progress.PhaseRollback), string(status), elapsed)
	return err
}

// advance moves step i to status, appends the journal entry and emits
// progress.
func (r *run) advance(i int, to record.Status, entry record.Entry, elapsed time.Duration) error {
	from := r.states[i]
	name := r.steps[i].step.Name
	if !isAllowedTransition(from, to) {
		return &TransitionError{Step: name, From: from, To: to}
	}
	r.states[i] = to
	r.report.Steps[i].Status = to

	phase := progress.PhaseForward
	if to == record.StatusRolledBack || to == record.StatusRollbackFailed {
		phase = progress.PhaseRollback
	}
	r.emit(i, phase, to, false, elapsed, entry.Error)

	entry.RunID = r.runID
	entry.Kind = record.KindStep
	entry.Procedure = r.proc.Name
	entry.Target = r.target
	entry.Step = name
	entry.Status = to
	if _, err := r.journal.Append(entry); err != nil {
		return fmt.Errorf("failed to record step %q: %w", name, err)
	}
	return nil
}

// fail moves step i to failed from whatever forward state it is in.
func (r *run) fail(i int, entry record.Entry, elapsed time.Duration) {
	if err := r.advance(i, record.StatusFailed, entry, elapsed); err != nil {
		var terr *TransitionError
		if !errors.As(err, &terr) {
			r.log.Error(err, "failed to record step failure", "step", r.steps[i].step.Name)
		}
	}
	if entry.Error != "" {
		r.report.Steps[i].Err = errors.New(entry.Error)
	}
	r.report.Steps[i].Duration = elapsed
	r.engine.Metrics.ObserveStep(r.proc.Name, string(progress.PhaseForward), string(record.StatusFailed), elapsed)
}

func (r *run) finish(ctx context.Context, outcome record.Outcome, elapsed time.Duration) {
	e := r.engine
	r.report.Outcome = outcome
	r.report.Duration = elapsed
	r.report.Values = r.set.Values()

	entry := r.runEntry(record.RunFinished)
	entry.Outcome = outcome
	entry.Duration = elapsed
	for _, c := range r.report.Compensations {
		entry.FailedCompensations = append(entry.FailedCompensations, c.Step)
	}
	if _, err := r.journal.Append(entry); err != nil {
		r.log.Error(err, "failed to record run outcome")
	}

	message := ""
	if len(entry.FailedCompensations) > 0 {
		message = fmt.Sprint(entry.FailedCompensations)
	}
	r.emitRun(record.RunFinished, outcome, elapsed, message)
	e.Metrics.ObserveRun(r.proc.Name, string(outcome))
	r.log.Info("run finished", "outcome", string(outcome), "duration", elapsed.String())

	if e.Archiver == nil {
		return
	}
	entries, err := r.journal.Entries()
	if err == nil {
		err = e.Archiver.Archive(context.WithoutCancel(ctx), r.proc.Name, r.target, r.runID, entries)
	}
	if err != nil {
		r.log.Error(err, "failed to archive run record")
	}
}

func (r *run) runEntry(status record.Status) record.Entry {
	return record.Entry{
		RunID:     r.runID,
		Kind:      record.KindRun,
		Procedure: r.proc.Name,
		Target:    r.target,
		Status:    status,
		From:      r.from,
	}
}

func (r *run) emit(i int, phase progress.Phase, status record.Status, skipped bool, elapsed time.Duration, message string) {
	r.engine.sink().Emit(progress.Event{
		Procedure: r.proc.Name,
		RunID:     r.runID,
		Phase:     phase,
		Step:      r.steps[i].step.Name,
		Index:     i,
		Total:     len(r.steps),
		Status:    status,
		Skipped:   skipped,
		Elapsed:   elapsed,
		Message:   message,
	})
}

func (r *run) emitRun(status record.Status, outcome record.Outcome, elapsed time.Duration, message string) {
	r.engine.sink().Emit(progress.Event{
		Procedure: r.proc.Name,
		RunID:     r.runID,
		Phase:     progress.PhaseRun,
		Total:     len(r.steps),
		Status:    status,
		Outcome:   outcome,
		Elapsed:   elapsed,
		Message:   message,
	})
}

// redact masks secret values in the message of err. The cause stays
// reachable through errors.As.
func (r *run) redact(err error) error {
	if err == nil {
		return nil
	}
	msg := r.set.Redact(err.Error())
	if msg == err.Error() {
		return err
	}
	return &redactedError{msg: msg, err: err}
}

func (r *run) scrub(text string) string {
	return r.set.Redact(scrubSecretOutputs(text))
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
