package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/crate/internal/domain"
)

// listenToSyncCmd returns a command that reads the next event from the stream
func listenToSyncCmd(events <-chan domain.SyncEvent) tea.Cmd {
	return func() tea.Msg {
		return readSyncEvent(events)
	}
}

// readSyncEvent reads one event and attaches the continuation command
func readSyncEvent(events <-chan domain.SyncEvent) tea.Msg {
	ev, ok := <-events
	if !ok {
		return syncStreamClosedMsg{}
	}

	msg := SyncEventMsg{Event: ev}
	if !ev.Done {
		msg.NextCmd = listenToSyncCmd(events)
	}
	return msg
}
