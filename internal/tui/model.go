package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/fuellog/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen represents the current active screen
type Screen int

const (
	ScreenEntries Screen = iota
	ScreenHistory
)

// String returns the screen name
func (s Screen) String() string {
	switch s {
	case ScreenEntries:
		return "Fuel Entries"
	case ScreenHistory:
		return "History"
	default:
		return "Unknown"
	}
}

// Model is the root Bubble Tea model
type Model struct {
	fuel          service.FuelService
	ctx           context.Context
	currentScreen Screen
	width         int
	height        int

	entries *EntriesModel
	history *HistoryModel // set while the history screen is open

	err error
}

// New creates a new root model. Streams opened by the screens end when ctx is done.
func New(ctx context.Context, fuel service.FuelService) Model {
	return Model{
		fuel:          fuel,
		ctx:           ctx,
		currentScreen: ScreenEntries,
		entries:       NewEntriesModel(ctx, fuel),
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return m.entries.Init()
}

// activeScreenCapturingInput reports whether a form owns the keyboard, in
// which case the global quit key is suppressed
func (m *Model) activeScreenCapturingInput() bool {
	if m.currentScreen != ScreenEntries {
		return false
	}
	return m.entries.IsCapturingInput()
}

// Update implements tea.Model - routes keys to screens
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if !m.activeScreenCapturingInput() && key.Matches(msg, DefaultKeyMap.Quit) {
			if m.history != nil {
				m.history.Close()
			}
			return m, tea.Quit
		}

	case OpenHistoryMsg:
		if m.history != nil {
			m.history.Close()
		}
		m.history = NewHistoryModel(m.ctx, m.fuel, msg.Entry)
		m.currentScreen = ScreenHistory
		return m, m.history.Init()

	case SwitchScreenMsg:
		m.currentScreen = msg.Screen
		if msg.Screen != ScreenHistory && m.history != nil {
			m.history.Close()
			m.history = nil
		}
		return m, nil

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case entriesUpdateMsg:
		// the entries list stays subscribed while history is shown
		_, cmd := m.entries.Update(msg)
		return m, cmd

	case historyUpdateMsg:
		if m.history == nil {
			return m, nil
		}
		_, cmd := m.history.Update(msg)
		return m, cmd
	}

	// Route message to current screen
	var cmd tea.Cmd
	switch m.currentScreen {
	case ScreenEntries:
		_, cmd = m.entries.Update(msg)
	case ScreenHistory:
		if m.history != nil {
			_, cmd = m.history.Update(msg)
		}
	}

	return m, cmd
}

// View implements tea.Model - renders header + current screen + footer
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := headerStyle.Render(fmt.Sprintf("fuellog - %s", m.currentScreen.String()))
	footer := footerStyle.Render("[N]ew  [E]dit  [D]elete  [Enter] History  [Esc] Back  [Q]uit")

	var content string
	switch m.currentScreen {
	case ScreenEntries:
		content = m.entries.View()
	case ScreenHistory:
		if m.history != nil {
			content = m.history.View()
		} else {
			content = "Loading..."
		}
	}

	errorDisplay := ""
	if m.err != nil {
		errorDisplay = errorStyle.Render(fmt.Sprintf("\nError: %s", m.err.Error()))
	}

	// Divider line between header and content
	innerWidth := m.width - 6 // account for border (2) + padding (4)
	if innerWidth < 20 {
		innerWidth = 20
	}
	dividerWidth := innerWidth - 12
	if dividerWidth < 10 {
		dividerWidth = 10
	}
	divider := lipgloss.NewStyle().Foreground(frameColor).Render(strings.Repeat("─", dividerWidth))

	body := fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s\n%s", header, divider, content, errorDisplay, divider, footer)

	// Wrap in border, sized to terminal
	frame := appBorderStyle.
		Width(innerWidth).
		Height(m.height - 4)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame.Render(body))
}

// Run starts the TUI and blocks until the user quits
func Run(ctx context.Context, fuel service.FuelService) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, fuel), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
