package tui

import (
	"github.com/andy/fuellog/internal/domain"
	"github.com/andy/fuellog/internal/repository"
	tea "github.com/charmbracelet/bubbletea"
)

// SwitchScreenMsg requests a screen change
type SwitchScreenMsg struct {
	Screen Screen
}

// OpenHistoryMsg asks the root model to show the history of Entry
type OpenHistoryMsg struct {
	Entry *domain.FuelEntry
}

// ErrorMsg carries error information
type ErrorMsg struct {
	Err error
}

// entriesUpdateMsg is one snapshot from the entries stream
type entriesUpdateMsg struct {
	update repository.Update[*domain.FuelEntry]
	closed bool
}

// historyUpdateMsg is one snapshot from the history stream of entryID
type historyUpdateMsg struct {
	entryID int64
	update  repository.Update[*domain.FuelEntryHistory]
	closed  bool
}

func waitForEntries(ch <-chan repository.Update[*domain.FuelEntry]) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		return entriesUpdateMsg{update: u, closed: !ok}
	}
}

func waitForHistory(entryID int64, ch <-chan repository.Update[*domain.FuelEntryHistory]) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		return historyUpdateMsg{entryID: entryID, update: u, closed: !ok}
	}
}
