package tui

import "github.com/charmbracelet/lipgloss"

// Palette keyed by step status.
var (
	colorSucceeded = lipgloss.Color("#22c55e")
	colorFailed    = lipgloss.Color("#ef4444")
	colorRollback  = lipgloss.Color("#eab308")
	colorHeading   = lipgloss.Color("#3b82f6")
	colorMuted     = lipgloss.Color("#6b7280")
	colorText      = lipgloss.Color("#f9fafb")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	stepsStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorHeading).MarginTop(1)
	hintStyle   = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)

	succeededStyle = lipgloss.NewStyle().Foreground(colorSucceeded)
	failedStyle    = lipgloss.NewStyle().Foreground(colorFailed)
	rollbackStyle  = lipgloss.NewStyle().Foreground(colorRollback)
	runningStyle   = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(colorMuted)

	barDoneStyle = lipgloss.NewStyle().Foreground(colorSucceeded)
	barTodoStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// Row markers in the step list.
const (
	succeededMark  = "[OK]"
	failedMark     = "[!!]"
	pendingMark    = "[  ]"
	skippedMark    = "[--]"
	rolledBackMark = "[<-]"
)
