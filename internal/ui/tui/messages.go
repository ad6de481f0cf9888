// Package tui renders a live step list for interactive runs.
package tui

import "github.com/imamik/hoc/internal/progress"

// EventMsg carries one step transition.
type EventMsg progress.Event

// DoneMsg signals that the run returned.
type DoneMsg struct{ Err error }
