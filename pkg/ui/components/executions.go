package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ExecutionRow represents one finished execution attempt.
type ExecutionRow struct {
	Timestamp     string
	OpportunityID string
	State         string
	Profit        string
	LegsFilled    int
	Rollbacks     int
	Accepted      bool
}

// ExecutionsComponent renders the execution results feed.
type ExecutionsComponent struct {
	rows    []ExecutionRow
	maxRows int
}

// NewExecutionsComponent creates a new executions component.
func NewExecutionsComponent(maxRows int) *ExecutionsComponent {
	return &ExecutionsComponent{
		rows:    make([]ExecutionRow, 0),
		maxRows: maxRows,
	}
}

// Add adds an execution result to the feed.
func (e *ExecutionsComponent) Add(row ExecutionRow) {
	e.rows = append([]ExecutionRow{row}, e.rows...)
	if len(e.rows) > e.maxRows {
		e.rows = e.rows[:e.maxRows]
	}
}

// Clear clears the feed.
func (e *ExecutionsComponent) Clear() {
	e.rows = make([]ExecutionRow, 0)
}

// View renders the executions component.
func (e *ExecutionsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var result string
	result += headerStyle.Render("EXECUTIONS")
	result += "\n\n"

	if len(e.rows) == 0 {
		result += mutedStyle.Render("  No executions yet...")
		return result
	}

	for _, row := range e.rows {
		style := okStyle
		icon := "✓"
		if !row.Accepted {
			style = failStyle
			icon = "✗"
		}
		line := fmt.Sprintf("  %s [%s] %s  %s  legs=%d", icon, row.Timestamp,
			truncate(row.OpportunityID, 8), row.State, row.LegsFilled)
		if row.Rollbacks > 0 {
			line += fmt.Sprintf("  rollbacks=%d", row.Rollbacks)
		}
		result += style.Render(line)
		result += mutedStyle.Render("  " + row.Profit)
		result += "\n"
	}

	return result
}
