package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/hoc/internal/progress"
	"github.com/imamik/hoc/internal/record"
)

// StepRow is the display state of one step.
type StepRow struct {
	Name    string
	Status  record.Status
	Skipped bool
	Elapsed time.Duration
	Message string
}

// Model is the Bubble Tea model for a procedure run.
type Model struct {
	Procedure string
	Target    string

	Steps  []StepRow
	Active int
	Phase  progress.Phase

	Outcome record.Outcome
	Message string

	StartTime time.Time
	Spinner   spinner.Model

	// UI state
	Width       int
	Height      int
	Err         error
	Done        bool
	Interrupted bool
}

// NewModel creates a model listing steps as pending.
func NewModel(procedure, target string, steps []string) Model {
	rows := make([]StepRow, len(steps))
	for i, name := range steps {
		rows[i] = StepRow{Name: name, Status: record.StatusPending}
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle

	return Model{
		Procedure: procedure,
		Target:    target,
		Steps:     rows,
		Active:    -1,
		Phase:     progress.PhaseForward,
		StartTime: time.Now(),
		Spinner:   s,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.Spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Interrupted = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case EventMsg:
		m.apply(progress.Event(msg))

	case DoneMsg:
		m.Done = true
		m.Err = msg.Err
		m.Active = -1
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) apply(e progress.Event) {
	if e.Step == "" {
		if e.Status == record.RunFinished {
			m.Outcome = e.Outcome
			m.Message = e.Message
		}
		return
	}

	idx := m.index(e.Step, e.Index)
	if idx < 0 {
		return
	}
	m.Phase = e.Phase
	row := &m.Steps[idx]

	if e.Skipped {
		row.Skipped = true
		row.Status = record.StatusSucceeded
		return
	}

	switch e.Status {
	case record.StatusRendering, record.StatusDispatching:
		m.Active = idx
		row.Status = e.Status
	case record.StatusSucceeded, record.StatusFailed, record.StatusRolledBack, record.StatusRollbackFailed:
		row.Status = e.Status
		row.Elapsed = e.Elapsed
		row.Message = e.Message
		if m.Active == idx {
			m.Active = -1
		}
	}
}

func (m *Model) index(name string, hint int) int {
	if hint >= 0 && hint < len(m.Steps) && m.Steps[hint].Name == name {
		return hint
	}
	for i, row := range m.Steps {
		if row.Name == name {
			return i
		}
	}
	return -1
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}
