package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andy/fuellog/internal/domain"
	"github.com/andy/fuellog/internal/repository"
	"github.com/andy/fuellog/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type entryMode int

const (
	entryModeList          entryMode = iota
	entryModeForm                    // text input form for a new or edited entry
	entryModeConfirmDelete           // y/n confirmation before delete
)

// entry form field indices
const (
	entryFieldDate = iota
	entryFieldOdometer
	entryFieldLiters
	entryFieldPrice
	entryFieldType
	entryFieldNotes
	entryFieldCount
)

var entryFieldLabels = []string{"Date:", "Odometer (km):", "Liters:", "Price per liter:", "Fuel type:", "Notes:"}

// EntriesModel shows the live list of fuel entries with a stats header
type EntriesModel struct {
	fuel       service.FuelService
	ctx        context.Context
	updates    <-chan repository.Update[*domain.FuelEntry]
	series     []service.EntryConsumption
	summary    *service.Summary
	cursor     int
	offset     int
	maxVisible int
	loading    bool
	err        error
	statusMsg  string

	// Form state
	mode       entryMode
	fields     []textinput.Model
	fieldFocus int
	editing    *domain.FuelEntry // nil when adding
}

type entrySavedMsg struct {
	changes int
	created bool
	err     error
}

type entryDeletedMsg struct {
	err error
}

// IsCapturingInput returns true when the form or delete confirmation is active
func (m *EntriesModel) IsCapturingInput() bool {
	return m.mode == entryModeForm || m.mode == entryModeConfirmDelete
}

// NewEntriesModel creates a new entries screen model
func NewEntriesModel(ctx context.Context, fuel service.FuelService) *EntriesModel {
	return &EntriesModel{
		fuel:       fuel,
		ctx:        ctx,
		summary:    &service.Summary{},
		maxVisible: 15,
		loading:    true,
	}
}

// Init subscribes to the entries stream
func (m *EntriesModel) Init() tea.Cmd {
	m.updates = m.fuel.WatchAllEntries(m.ctx)
	return waitForEntries(m.updates)
}

func (m *EntriesModel) selected() *domain.FuelEntry {
	if m.cursor < 0 || m.cursor >= len(m.series) {
		return nil
	}
	return m.series[m.cursor].Entry
}

func (m *EntriesModel) openForm(editing *domain.FuelEntry) tea.Cmd {
	form := entryForm{
		Date:     time.Now().Format(formDateLayout),
		FuelType: string(domain.FuelTypeGasoline),
	}
	if editing != nil {
		form = formFromEntry(editing)
	}

	values := []string{form.Date, form.Odometer, form.Liters, form.Price, form.FuelType, form.Notes}
	placeholders := []string{formDateLayout, "15230.5", "40", "5.79", "GASOLINE or ETHANOL", "optional"}
	widths := []int{18, 12, 10, 10, 20, 50}

	m.fields = make([]textinput.Model, entryFieldCount)
	for i := range m.fields {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.Width = widths[i]
		ti.CharLimit = 200
		ti.SetValue(values[i])
		m.fields[i] = ti
	}

	m.editing = editing
	m.err = nil
	m.mode = entryModeForm
	m.fieldFocus = entryFieldDate
	if editing == nil {
		m.fieldFocus = entryFieldOdometer
	}
	return m.fields[m.fieldFocus].Focus()
}

func (m *EntriesModel) currentForm() entryForm {
	return entryForm{
		Date:     m.fields[entryFieldDate].Value(),
		Odometer: m.fields[entryFieldOdometer].Value(),
		Liters:   m.fields[entryFieldLiters].Value(),
		Price:    m.fields[entryFieldPrice].Value(),
		FuelType: m.fields[entryFieldType].Value(),
		Notes:    m.fields[entryFieldNotes].Value(),
	}
}

func (m *EntriesModel) saveEntry() tea.Cmd {
	form := m.currentForm()
	var entry domain.FuelEntry
	if m.editing != nil {
		entry = *m.editing
	}

	if err := form.apply(&entry); err != nil {
		m.err = err
		return nil
	}

	return func() tea.Msg {
		if entry.ID == 0 {
			_, err := m.fuel.Insert(m.ctx, &entry)
			return entrySavedMsg{created: true, err: err}
		}
		changes, err := m.fuel.UpdateWithHistory(m.ctx, &entry)
		return entrySavedMsg{changes: len(changes), err: err}
	}
}

func (m *EntriesModel) deleteEntry(id int64) tea.Cmd {
	return func() tea.Msg {
		return entryDeletedMsg{err: m.fuel.Delete(m.ctx, id)}
	}
}

func (m *EntriesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Stream snapshots arrive in every mode
	if msg, ok := msg.(entriesUpdateMsg); ok {
		if msg.closed {
			return m, nil
		}
		m.loading = false
		if msg.update.Err != nil {
			m.err = msg.update.Err
		} else {
			m.series = service.ConsumptionSeries(msg.update.Items)
			m.summary = service.Summarize(msg.update.Items)
			m.clampCursor()
		}
		return m, waitForEntries(m.updates)
	}

	switch m.mode {
	case entryModeForm:
		return m.updateForm(msg)
	case entryModeConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		m.statusMsg = ""
		m.err = nil

		switch {
		case key.Matches(msg, DefaultKeyMap.Up):
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case key.Matches(msg, DefaultKeyMap.Down):
			if m.cursor < len(m.series)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.maxVisible {
					m.offset = m.cursor - m.maxVisible + 1
				}
			}
		case key.Matches(msg, DefaultKeyMap.New):
			return m, m.openForm(nil)
		case key.Matches(msg, DefaultKeyMap.Edit):
			if entry := m.selected(); entry != nil {
				c := *entry
				return m, m.openForm(&c)
			}
		case key.Matches(msg, DefaultKeyMap.Select):
			if entry := m.selected(); entry != nil {
				return m, func() tea.Msg { return OpenHistoryMsg{Entry: entry} }
			}
		case key.Matches(msg, DefaultKeyMap.Delete):
			if m.selected() != nil {
				m.mode = entryModeConfirmDelete
			}
		}
	}

	return m, nil
}

func (m *EntriesModel) clampCursor() {
	if m.cursor >= len(m.series) {
		m.cursor = len(m.series) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

func (m *EntriesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case entrySavedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.mode = entryModeList
		switch {
		case msg.created:
			m.statusMsg = "Entry saved"
		case msg.changes == 0:
			m.statusMsg = "No changes"
		default:
			m.statusMsg = fmt.Sprintf("Entry updated (%d fields changed)", msg.changes)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.mode = entryModeList
			m.err = nil
			return m, nil

		case "tab", "down":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus + 1) % entryFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "shift+tab", "up":
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus = (m.fieldFocus - 1 + entryFieldCount) % entryFieldCount
			return m, m.fields[m.fieldFocus].Focus()

		case "enter":
			if m.fieldFocus == entryFieldCount-1 {
				return m, m.saveEntry()
			}
			m.fields[m.fieldFocus].Blur()
			m.fieldFocus++
			return m, m.fields[m.fieldFocus].Focus()

		case "ctrl+s":
			return m, m.saveEntry()
		}
	}

	// Update the focused text input
	var cmd tea.Cmd
	m.fields[m.fieldFocus], cmd = m.fields[m.fieldFocus].Update(msg)
	return m, cmd
}

func (m *EntriesModel) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case entryDeletedMsg:
		m.mode = entryModeList
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.statusMsg = "Entry deleted (history kept)"
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "y" {
			if entry := m.selected(); entry != nil {
				return m, m.deleteEntry(entry.ID)
			}
		}
		// Any other key cancels
		m.mode = entryModeList
	}
	return m, nil
}

func (m *EntriesModel) View() string {
	if m.loading {
		return "Loading entries..."
	}

	switch m.mode {
	case entryModeForm:
		return m.viewForm()
	case entryModeConfirmDelete:
		return m.viewConfirmDelete()
	default:
		return m.viewList()
	}
}

func (m *EntriesModel) viewStats() string {
	s := m.summary
	stat := func(label, value string) string {
		return statLabelStyle.Render(label+" ") + statValueStyle.Render(value)
	}
	return "  " + strings.Join([]string{
		stat("entries", fmt.Sprintf("%d", s.EntryCount)),
		stat("distance", fmt.Sprintf("%.0f km", s.DistanceKm)),
		stat("fuel", fmt.Sprintf("%.1f l", s.TotalLiters)),
		stat("spent", formatMoney(s.TotalSpent)),
		stat("last", formatConsumption(s.LastConsumption)+" km/l"),
		stat("avg", formatConsumption(s.AverageConsumption)+" km/l"),
	}, "  |  ")
}

func (m *EntriesModel) viewList() string {
	var s string

	s += titleStyle.Render("Fuel Entries") + "\n"

	if m.statusMsg != "" {
		s += createdStyle.Render("  "+m.statusMsg) + "\n"
	}
	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n"
	}

	if len(m.series) == 0 {
		s += "\n" + subtitleStyle.Render("  No fuel entries yet. Press 'n' to add one.")
		return s
	}

	s += m.viewStats() + "\n\n"

	s += subtitleStyle.Render(fmt.Sprintf(
		"  %-16s  %10s  %7s  %-8s  %7s  %9s  %6s  %s",
		"Date", "Odometer", "Liters", "Fuel", "Price/l", "Total", "km/l", "Notes",
	)) + "\n"

	end := m.offset + m.maxVisible
	if end > len(m.series) {
		end = len(m.series)
	}

	for i := m.offset; i < end; i++ {
		s += m.renderEntry(m.series[i], i == m.cursor) + "\n"
	}

	// Scroll indicators
	if m.offset > 0 {
		s += subtitleStyle.Render("  ... more above") + "\n"
	}
	if end < len(m.series) {
		s += subtitleStyle.Render("  ... more below") + "\n"
	}

	s += "\n" + helpStyle.Render("  j/k: navigate  enter: history  n: new  e: edit  d: delete")

	return s
}

func (m *EntriesModel) renderEntry(point service.EntryConsumption, selected bool) string {
	e := point.Entry
	line := fmt.Sprintf("%-16s  %10.1f  %7.2f  %-8s  %7.3f  %9s  %6s  %s",
		e.Date.Local().Format(formDateLayout),
		e.OdometerKm,
		e.Liters,
		e.FuelType,
		e.PricePerLiter,
		formatMoney(e.TotalPrice),
		formatConsumption(point.Consumption),
		truncateStr(e.Notes, 30),
	)

	if selected {
		return "  " + selectedStyle.Render(line)
	}
	return "  " + line
}

func (m *EntriesModel) viewConfirmDelete() string {
	e := m.selected()
	if e == nil {
		return ""
	}

	var s string
	s += titleStyle.Render("Delete Entry") + "\n\n"
	s += fmt.Sprintf("  %s  %.1f km  %.2f l  %s\n\n",
		e.Date.Local().Format(formDateLayout), e.OdometerKm, e.Liters, formatMoney(e.TotalPrice))
	s += lipgloss.NewStyle().Foreground(warningColor).Render("  Delete this entry? (y/n)") + "\n"
	return s
}

func (m *EntriesModel) viewForm() string {
	var s string

	if m.editing != nil {
		s += titleStyle.Render(fmt.Sprintf("Edit Entry #%d", m.editing.ID)) + "\n\n"
	} else {
		s += titleStyle.Render("New Entry") + "\n\n"
	}

	for i, label := range entryFieldLabels {
		indicator := "  "
		labelStyle := fieldLabelStyle
		if i == m.fieldFocus {
			indicator = "> "
			labelStyle = activeLabelStyle
		}
		s += fmt.Sprintf("%s%s\n  %s\n\n", indicator, labelStyle.Render(label), m.fields[i].View())
	}

	var preview domain.FuelEntry
	if err := m.currentForm().apply(&preview); err == nil {
		s += subtitleStyle.Render(fmt.Sprintf("  Total: %s", formatMoney(preview.TotalPrice))) + "\n\n"
	}

	if m.err != nil {
		s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
	}

	s += helpStyle.Render("  tab/shift+tab: navigate fields  ctrl+s: save  enter: next/save  esc: cancel")

	return s
}
