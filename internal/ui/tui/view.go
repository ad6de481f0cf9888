package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/imamik/hoc/internal/progress"
	"github.com/imamik/hoc/internal/record"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)
	renderSteps(&b, m)
	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("hoc: %s", m.Procedure)
	if m.Target != "" {
		title += fmt.Sprintf(" on %s", m.Target)
	}
	b.WriteString(headerStyle.Render(title))

	status := " "
	switch {
	case m.Outcome == record.OutcomeSucceeded:
		status += succeededStyle.Render("Succeeded")
	case m.Outcome == record.OutcomeRolledBack:
		status += failedStyle.Render("Failed, rolled back")
	case m.Outcome == record.OutcomePartialRollback:
		status += failedStyle.Render("Failed, rollback incomplete")
	case m.Done && m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Phase == progress.PhaseRollback:
		status += m.Spinner.View() + rollbackStyle.Render("Rolling back")
	case m.Active >= 0:
		status += m.Spinner.View() + runningStyle.Render(m.Steps[m.Active].Name)
	default:
		status += mutedStyle.Render("Starting...")
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	progress := calculateProgress(m)
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = m.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
	}
	filled := int(float64(barWidth) * progress)
	if filled > barWidth {
		filled = barWidth
	}

	bar := barDoneStyle.Render(strings.Repeat("█", filled)) +
		barTodoStyle.Render(strings.Repeat("░", barWidth-filled))

	fmt.Fprintf(b, "  %s %d%%  elapsed %s\n", bar, int(progress*100), formatDuration(time.Since(m.StartTime)))
}

func renderSteps(b *strings.Builder, m Model) {
	b.WriteString(stepsStyle.Render("  Steps"))
	b.WriteString("\n")

	width := 0
	for _, row := range m.Steps {
		width = max(width, len(row.Name))
	}

	for i, row := range m.Steps {
		icon, style := rowStyle(m, i, row)
		line := fmt.Sprintf("    %s %s", style(icon), style(fmt.Sprintf("%-*s", width, row.Name)))
		if detail := rowDetail(row); detail != "" {
			line += "  " + mutedStyle.Render(detail)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func rowStyle(m Model, i int, row StepRow) (string, styleFunc) {
	switch {
	case row.Skipped:
		return skippedMark, sf(mutedStyle)
	case row.Status == record.StatusFailed || row.Status == record.StatusRollbackFailed:
		return failedMark, sf(failedStyle)
	case row.Status == record.StatusRolledBack:
		return rolledBackMark, sf(rollbackStyle)
	case row.Status == record.StatusSucceeded:
		return succeededMark, sf(succeededStyle)
	case i == m.Active:
		return "[" + strings.TrimSpace(m.Spinner.View()) + " ]", sf(runningStyle)
	default:
		return pendingMark, sf(mutedStyle)
	}
}

func rowDetail(row StepRow) string {
	switch {
	case row.Skipped:
		return "already done"
	case row.Status == record.StatusFailed:
		return row.Message
	case row.Status == record.StatusRollbackFailed:
		return "rollback failed: " + row.Message
	case row.Status == record.StatusRolledBack:
		return "rolled back"
	case row.Status == record.StatusSucceeded && row.Elapsed > 0:
		return formatDuration(row.Elapsed)
	}
	return ""
}

func renderFooter(b *strings.Builder, m Model) {
	if m.Done {
		return
	}
	b.WriteString(hintStyle.Render("  q: stop (completed steps are rolled back)"))
	b.WriteString("\n")
}

func calculateProgress(m Model) float64 {
	if m.Outcome == record.OutcomeSucceeded {
		return 1.0
	}
	if len(m.Steps) == 0 {
		return 0
	}
	done := 0
	for _, row := range m.Steps {
		if row.Status == record.StatusSucceeded {
			done++
		}
	}
	return float64(done) / float64(len(m.Steps))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
