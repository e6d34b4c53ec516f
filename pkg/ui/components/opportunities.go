// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// OpportunityRow represents a detected triangular cycle in the list.
type OpportunityRow struct {
	Timestamp string
	Route     string
	Exchange  string
	ProfitBps float64
	RiskScore float64
	VolumeUSD float64
	Status    string
	Accepted  bool
}

// OpportunitiesComponent renders the opportunities list.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
	offset  int
	visible int
}

// NewOpportunitiesComponent creates a new opportunities component.
func NewOpportunitiesComponent(maxRows int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		rows:    make([]OpportunityRow, 0),
		maxRows: maxRows,
		visible: 10,
	}
}

// Add adds a new opportunity to the list.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
	o.offset = 0
}

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = make([]OpportunityRow, 0)
	o.offset = 0
}

// ScrollUp moves the view window toward newer rows.
func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

// ScrollDown moves the view window toward older rows.
func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset+o.visible < len(o.rows) {
		o.offset++
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	if len(o.rows) == 0 {
		return "No opportunities detected yet..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	acceptedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	rejectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))

	result := headerStyle.Render(fmt.Sprintf("OPPORTUNITIES (last %d)\n", o.maxRows))
	result += "┌──────────┬──────────────────────┬──────────┬────────┬──────┬────────────┐\n"
	result += "│   Time   │        Route         │ Exchange │ Profit │ Risk │   Status   │\n"
	result += "├──────────┼──────────────────────┼──────────┼────────┼──────┼────────────┤\n"

	end := o.offset + o.visible
	if end > len(o.rows) {
		end = len(o.rows)
	}
	for _, row := range o.rows[o.offset:end] {
		statusStyle := acceptedStyle
		statusIcon := "✓"
		if !row.Accepted {
			statusStyle = rejectedStyle
			statusIcon = "✗"
		}

		result += fmt.Sprintf("│ %-8s │ %-20s │ %-8s │%+6.1fb │%5.0f │ %s %-9s│\n",
			row.Timestamp,
			truncate(row.Route, 20),
			truncate(row.Exchange, 8),
			row.ProfitBps,
			row.RiskScore,
			statusIcon,
			statusStyle.Render(truncate(row.Status, 9)),
		)
	}

	result += "└──────────┴──────────────────────┴──────────┴────────┴──────┴────────────┘"

	return result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
