package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/crate/internal/domain"
)

// Message types for the TUI

// SyncEventMsg carries one event from the sync stream
type SyncEventMsg struct {
	Event domain.SyncEvent
	// NextCmd reads the following event; nil once the stream is done
	NextCmd tea.Cmd
}

// syncStreamClosedMsg signals the event channel closed without a Done event
type syncStreamClosedMsg struct{}
