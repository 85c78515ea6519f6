package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("39")
	accentColor  = lipgloss.Color("205")
	mutedColor   = lipgloss.Color("241")
	successColor = lipgloss.Color("76")
	warningColor = lipgloss.Color("214")
	errorColor   = lipgloss.Color("196")
	frameColor   = lipgloss.Color("63")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	subtitleStyle = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Background(primaryColor).
			Foreground(lipgloss.Color("0"))

	// form field labels
	fieldLabelStyle  = subtitleStyle
	activeLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)

	appBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(frameColor).
			Padding(1, 2)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)

	statLabelStyle = lipgloss.NewStyle().Foreground(mutedColor)
	statValueStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)

	// history change types
	createdStyle = lipgloss.NewStyle().Foreground(successColor)
	updatedStyle = lipgloss.NewStyle().Foreground(warningColor)
)
