package tui

import (
	"context"
	"fmt"

	"github.com/andy/fuellog/internal/domain"
	"github.com/andy/fuellog/internal/repository"
	"github.com/andy/fuellog/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// HistoryModel shows the live edit history of one entry
type HistoryModel struct {
	fuel    service.FuelService
	entry   *domain.FuelEntry
	ctx     context.Context
	cancel  context.CancelFunc
	updates <-chan repository.Update[*domain.FuelEntryHistory]
	records []*domain.FuelEntryHistory
	offset  int
	loading bool
	err     error
}

// NewHistoryModel creates a history screen for entry. Its subscription lives
// until Close is called or parent is cancelled.
func NewHistoryModel(parent context.Context, fuel service.FuelService, entry *domain.FuelEntry) *HistoryModel {
	ctx, cancel := context.WithCancel(parent)
	return &HistoryModel{
		fuel:    fuel,
		entry:   entry,
		ctx:     ctx,
		cancel:  cancel,
		loading: true,
	}
}

func (m *HistoryModel) Init() tea.Cmd {
	m.updates = m.fuel.WatchHistoryForEntry(m.ctx, m.entry.ID)
	return waitForHistory(m.entry.ID, m.updates)
}

// Close stops the history subscription
func (m *HistoryModel) Close() {
	m.cancel()
}

func (m *HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case historyUpdateMsg:
		// snapshots from a previously opened entry are dropped
		if msg.entryID != m.entry.ID || msg.closed {
			return m, nil
		}
		m.loading = false
		m.err = msg.update.Err
		if msg.update.Err == nil {
			m.records = msg.update.Items
		}
		return m, waitForHistory(m.entry.ID, m.updates)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Back):
			m.Close()
			return m, func() tea.Msg { return SwitchScreenMsg{Screen: ScreenEntries} }
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.offset > 0 {
				m.offset--
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.offset < len(m.records)-1 {
				m.offset++
			}
		}
	}
	return m, nil
}

func (m *HistoryModel) View() string {
	var s string
	e := m.entry

	s += titleStyle.Render(fmt.Sprintf("History of Entry #%d", e.ID)) + "\n"
	s += subtitleStyle.Render(fmt.Sprintf("  %s  %.1f km  %.2f l  %s",
		e.Date.Local().Format(formDateLayout), e.OdometerKm, e.Liters, e.FuelType)) + "\n\n"

	if m.loading {
		return s + "Loading history..."
	}
	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
	}
	if len(m.records) == 0 {
		s += subtitleStyle.Render("  No history recorded for this entry.") + "\n"
	}

	for _, h := range m.records[m.offset:] {
		style := updatedStyle
		if h.Action == domain.ActionCreated {
			style = createdStyle
		}
		s += fmt.Sprintf("  %s  %s  %s\n",
			subtitleStyle.Render(h.ModifiedAt.Local().Format("2006-01-02 15:04:05")),
			style.Render(fmt.Sprintf("%-7s", h.Action)),
			describeHistory(h),
		)
	}

	s += "\n" + helpStyle.Render("  j/k: scroll  esc: back")
	return s
}
