package ui

import "github.com/charmbracelet/lipgloss"

// Palette shared across the dashboard views.
var (
	ColorAccent = lipgloss.Color("#7C3AED")
	ColorDanger = lipgloss.Color("#EF4444")
	ColorMuted  = lipgloss.Color("#6B7280")
	colorBorder = lipgloss.Color("#374151")
)

// TitleStyle renders the top banner.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(ColorAccent).
	Padding(0, 2)

// BoxStyle frames the dashboard columns.
var BoxStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorBorder).
	Padding(0, 1)

// HelpStyle dims the footer key hints.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorMuted).
	Padding(0, 1)

// MutedValue dims secondary values in the status bar.
var MutedValue = lipgloss.NewStyle().
	Foreground(ColorMuted)
