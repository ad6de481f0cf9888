package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"sigs.k8s.io/yaml"

	"github.com/imamik/hoc/internal/record"
)

// Output formats of the history command.
const (
	OutputTable = "table"
	OutputYAML  = "yaml"
	OutputJSON  = "json"
)

// HistoryOptions are the flags of the history command.
type HistoryOptions struct {
	ConfigPath string
	// Target overrides the target identity of the procedure file, e.g.
	// "remote/root@node-1".
	Target string
	// Run limits entry output to one run.
	Run string
	// Output is table, yaml or json. Table prints one line per run, the
	// other formats print the raw entries.
	Output string
	// Archived lists the runs uploaded to the archive bucket instead.
	Archived bool
}

// History prints the run record of the procedure defined in procedurePath.
func History(ctx context.Context, procedurePath string, opts HistoryOptions) error {
	env, err := newEnvironment(opts.ConfigPath, stderr, 0)
	if err != nil {
		return err
	}

	proc, err := loadProcedure(procedurePath, env.cfg)
	if err != nil {
		return err
	}
	target := opts.Target
	if target == "" {
		target = proc.Target.Identity()
	}

	if opts.Archived {
		return printArchived(ctx, env, proc.Name, target, opts.Run)
	}

	entries, err := env.records.Read(proc.Name, target)
	if err != nil {
		return fmt.Errorf("failed to read run record: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintf(stdout, "No runs recorded for %s on %s.\n", proc.Name, target)
		return nil
	}
	return printEntries(stdout, entries, opts)
}

func printEntries(w io.Writer, entries []record.Entry, opts HistoryOptions) error {
	if opts.Run != "" {
		entries = filterRun(entries, opts.Run)
		if len(entries) == 0 {
			return fmt.Errorf("run %q not found", opts.Run)
		}
	}

	switch opts.Output {
	case "", OutputTable:
		if opts.Run != "" {
			printSteps(w, entries)
			return nil
		}
		printRuns(w, record.Summarize(entries))
		return nil
	case OutputYAML:
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to encode entries: %w", err)
		}
		_, err = w.Write(data)
		return err
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	default:
		return fmt.Errorf("unknown output format %q", opts.Output)
	}
}

func filterRun(entries []record.Entry, runID string) []record.Entry {
	var out []record.Entry
	for _, e := range entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out
}

func printRuns(w io.Writer, runs []record.RunSummary) {
	t := newTable("RUN", "STARTED", "STEPS", "RESUMED", "OUTCOME")
	for _, r := range runs {
		outcome := string(r.Outcome)
		if !r.Finished {
			outcome = "interrupted"
		}
		t.Row(r.RunID, r.Started.Format(time.RFC3339), strconv.Itoa(r.Steps), strconv.Itoa(r.Resumed), outcome)
	}
	fmt.Fprintln(w, t.Render())
}

func printSteps(w io.Writer, entries []record.Entry) {
	t := newTable("TIME", "STEP", "STATUS", "EXIT", "DETAIL")
	for _, e := range entries {
		if e.Kind != record.KindStep {
			continue
		}
		exit := ""
		if e.ExitCode != nil {
			exit = strconv.Itoa(*e.ExitCode)
		}
		detail := e.Error
		if detail == "" {
			detail = e.Command
		}
		t.Row(e.Time.Format(time.TimeOnly), e.Step, string(e.Status), exit, firstLine(detail))
	}
	fmt.Fprintln(w, t.Render())
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// printArchived lists archived runs, or prints one archived run.
func printArchived(ctx context.Context, env *environment, procedure, target, runID string) error {
	if env.cfg.Archive.Bucket == "" {
		return fmt.Errorf("no archive bucket configured")
	}
	client, err := env.archiveClient(ctx)
	if err != nil {
		return err
	}
	archiver := &record.S3Archiver{Uploader: client, Prefix: env.cfg.Archive.Prefix}

	if runID != "" {
		data, err := client.GetObject(ctx, archiver.Key(procedure, target, runID))
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	prefix := path.Dir(archiver.Key(procedure, target, "run")) + "/"
	keys, err := client.ListObjects(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintf(stdout, "No archived runs for %s on %s.\n", procedure, target)
		return nil
	}
	for _, key := range keys {
		fmt.Fprintln(stdout, strings.TrimSuffix(path.Base(key), ".jsonl"))
	}
	return nil
}
