package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/imamik/hoc/internal/procedure"
	"github.com/imamik/hoc/internal/progress"
	"github.com/imamik/hoc/internal/record"
	"github.com/imamik/hoc/internal/ui/tui"
	"github.com/imamik/hoc/internal/vars"
)

// RunOptions are the flags of the run command.
type RunOptions struct {
	ConfigPath string
	// From re-runs a succeeded procedure starting at this step.
	From string
	// Fresh ignores the previous run record.
	Fresh bool
	// Set binds plain values, Secrets binds secret values. Both take
	// name=value pairs.
	Set     []string
	Secrets []string
	// TUI shows the live step view. Inputs are never prompted for while it
	// is shown.
	TUI       bool
	Verbosity int
}

// Run executes the procedure defined in procedurePath.
//
// A previous interrupted run of the same procedure on the same target is
// resumed, a previous succeeded run makes this a no-op unless From is set.
// On failure the completed steps are rolled back and the returned error
// describes the outcome.
func Run(ctx context.Context, procedurePath string, opts RunOptions) error {
	params, err := parseAssignments(opts.Set, false)
	if err != nil {
		return err
	}
	secrets, err := parseAssignments(opts.Secrets, true)
	if err != nil {
		return err
	}
	params = append(params, secrets...)

	logOut := stderr
	if opts.TUI {
		f, err := openLogFile(opts.ConfigPath)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}

	env, err := newEnvironment(opts.ConfigPath, logOut, opts.Verbosity)
	if err != nil {
		return err
	}
	defer env.writeMetrics()

	proc, err := loadProcedure(procedurePath, env.cfg)
	if err != nil {
		return err
	}

	runOpts := procedure.RunOptions{Params: params, From: opts.From, Fresh: opts.Fresh}

	if !opts.TUI {
		engine, err := env.engine(ctx, true, progress.NewConsoleSink(stdout))
		if err != nil {
			return err
		}
		report, err := engine.Run(ctx, proc, runOpts)
		printReport(stdout, report)
		return err
	}

	model := tui.NewModel(proc.Name, proc.Target.Identity(), proc.StepNames())
	return tui.Run(ctx, model, func(ctx context.Context, sink progress.Sink) error {
		engine, err := env.engine(ctx, false, sink)
		if err != nil {
			return err
		}
		_, err = engine.Run(ctx, proc, runOpts)
		return err
	})
}

// openLogFile opens the log file used while the TUI owns the terminal.
func openLogFile(configPath string) (*os.File, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	path := filepath.Join(cfg.StateDir, "hoc.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// parseAssignments parses name=value pairs.
func parseAssignments(pairs []string, secret bool) ([]vars.Value, error) {
	values := make([]vars.Value, 0, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected name=value", pair)
		}
		values = append(values, vars.Value{Name: name, Data: value, Secret: secret})
	}
	return values, nil
}

// printReport prints what the run did. Nothing is printed for runs that
// never started.
func printReport(w io.Writer, report *procedure.Report) {
	if report == nil {
		return
	}

	switch {
	case len(report.Steps) > 0 && len(report.Executed()) == 0 && report.Outcome == record.OutcomeSucceeded:
		fmt.Fprintf(w, "\n%s on %s already succeeded, nothing to do.\n", report.Procedure, report.Target)
		fmt.Fprintf(w, "Use --from <step> to run steps again.\n")
		return
	case report.Outcome == record.OutcomeSucceeded:
		fmt.Fprintf(w, "\n%s on %s succeeded (run %s).\n", report.Procedure, report.Target, report.RunID)
	case report.Outcome == record.OutcomeRolledBack:
		fmt.Fprintf(w, "\n%s on %s failed, completed steps were rolled back (run %s).\n", report.Procedure, report.Target, report.RunID)
	case report.Outcome == record.OutcomePartialRollback:
		fmt.Fprintf(w, "\n%s on %s failed and rollback was incomplete (run %s).\n", report.Procedure, report.Target, report.RunID)
		fmt.Fprintf(w, "Manual cleanup is required for:\n")
		for _, f := range report.Compensations {
			fmt.Fprintf(w, "  - %s: %v\n", f.Step, f.Err)
		}
	}

	if report.Resumed {
		fmt.Fprintf(w, "Resumed an interrupted run.\n")
	}

	set := vars.NewSet(report.Values...)
	var outputs []string
	for _, v := range report.Values {
		outputs = append(outputs, fmt.Sprintf("  %s = %s", v.Name, set.Redact(v.String())))
	}
	if len(outputs) > 0 && report.Outcome == record.OutcomeSucceeded {
		fmt.Fprintf(w, "Values:\n%s\n", strings.Join(outputs, "\n"))
	}
}

// IsFailure reports whether err means the procedure ran and failed, as
// opposed to not being able to start.
func IsFailure(err error) bool {
	var fe *procedure.FailureError
	return errors.As(err, &fe)
}
