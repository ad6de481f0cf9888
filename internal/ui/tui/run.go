package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/hoc/internal/progress"
)

// Sink forwards events to a running program.
type Sink struct {
	program *tea.Program
}

// Emit implements progress.Sink.
func (s Sink) Emit(e progress.Event) {
	s.program.Send(EventMsg(e))
}

// Run shows m while fn executes. Quitting the view cancels the context
// passed to fn; Run still waits for fn so that rollback completes.
func Run(ctx context.Context, m Model, fn func(ctx context.Context, sink progress.Sink) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(m)
	result := make(chan error, 1)

	go func() {
		err := fn(ctx, Sink{program: p})
		result <- err
		p.Send(DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-result
		return fmt.Errorf("TUI error: %w", err)
	}

	cancel()
	return <-result
}
