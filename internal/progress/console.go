package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/hoc/internal/record"
)

const (
	checkMark    = "[OK]"
	crossMark    = "[!!]"
	runningMark  = "[..]"
	skippedMark  = "[--]"
	rollbackMark = "[<-]"
)

// ConsoleSink prints one line per transition.
type ConsoleSink struct {
	out io.Writer
	mu  sync.Mutex

	ok      lipgloss.Style
	failed  lipgloss.Style
	warning lipgloss.Style
	dim     lipgloss.Style
	title   lipgloss.Style
}

// NewConsoleSink writes to out. Colors are used only when out is a terminal.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	r := lipgloss.NewRenderer(out)
	return &ConsoleSink{
		out:     out,
		ok:      r.NewStyle().Foreground(lipgloss.Color("#22c55e")),
		failed:  r.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		warning: r.NewStyle().Foreground(lipgloss.Color("#eab308")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		title:   r.NewStyle().Bold(true),
	}
}

// Emit implements Sink.
func (c *ConsoleSink) Emit(e Event) {
	line := c.format(e)
	if line == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, line)
}

func (c *ConsoleSink) format(e Event) string {
	if e.Step == "" {
		return c.formatRun(e)
	}

	counter := c.dim.Render(fmt.Sprintf("(%d/%d)", e.Index+1, e.Total))
	name := e.Step

	if e.Skipped {
		return fmt.Sprintf("%s %s %s %s", c.dim.Render(skippedMark), counter, name, c.dim.Render("already done"))
	}

	if e.Phase == PhaseRollback {
		switch e.Status {
		case record.StatusRolledBack:
			return fmt.Sprintf("%s %s %s %s", c.warning.Render(rollbackMark), counter, name, c.dim.Render("rolled back "+formatDuration(e.Elapsed)))
		case record.StatusRollbackFailed:
			return fmt.Sprintf("%s %s %s %s", c.failed.Render(crossMark), counter, name, c.failed.Render("rollback failed: "+e.Message))
		default:
			return ""
		}
	}

	switch e.Status {
	case record.StatusRendering:
		return fmt.Sprintf("%s %s %s", runningMark, counter, c.title.Render(name))
	case record.StatusSucceeded:
		return fmt.Sprintf("%s %s %s %s", c.ok.Render(checkMark), counter, name, c.dim.Render(formatDuration(e.Elapsed)))
	case record.StatusFailed:
		return fmt.Sprintf("%s %s %s %s", c.failed.Render(crossMark), counter, name, c.failed.Render(e.Message))
	default:
		return ""
	}
}

func (c *ConsoleSink) formatRun(e Event) string {
	switch e.Status {
	case record.RunStarted:
		return c.title.Render(fmt.Sprintf("Running %s (%d steps)", e.Procedure, e.Total))
	case record.RunResumed:
		return c.title.Render(fmt.Sprintf("Resuming %s (%d steps)", e.Procedure, e.Total))
	case record.RunFinished:
		switch e.Outcome {
		case record.OutcomeSucceeded:
			return c.ok.Render(fmt.Sprintf("%s succeeded in %s", e.Procedure, formatDuration(e.Elapsed)))
		case record.OutcomeRolledBack:
			return c.failed.Render(fmt.Sprintf("%s failed, all completed steps were rolled back", e.Procedure))
		case record.OutcomePartialRollback:
			return c.failed.Render(fmt.Sprintf("%s failed, rollback incomplete: %s", e.Procedure, e.Message))
		}
	}
	return ""
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		d = d.Round(time.Second)
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
