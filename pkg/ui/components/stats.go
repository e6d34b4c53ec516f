package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	statsLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	statsValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	statsErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

// Stats holds engine counters for display.
type Stats struct {
	CyclesRun        uint64
	PathsEvaluated   uint64
	Opportunities    uint64
	Executions       uint64
	Rollbacks        uint64
	CumulativeProfit string
	LastCycleMs      float64
	Errors           int64
}

// StatsComponent renders the aggregate counters panel.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent returns a zeroed stats panel.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update replaces the displayed counters.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the panel as two counter rows under a header.
func (s *StatsComponent) View() string {
	st := s.stats

	hitRate := 0.0
	if st.CyclesRun > 0 {
		hitRate = float64(st.Opportunities) / float64(st.CyclesRun) * 100
	}

	errors := statsValueStyle.Render(count(st.Errors))
	if st.Errors > 0 {
		errors = statsErrorStyle.Render(count(st.Errors))
	}

	profit := st.CumulativeProfit
	if profit == "" {
		profit = "0"
	}

	row1 := fmt.Sprintf("Cycles: %s  │  Paths: %s  │  Opportunities: %s (%.1f%%)",
		statsValueStyle.Render(count(st.CyclesRun)),
		statsValueStyle.Render(count(st.PathsEvaluated)),
		statsValueStyle.Render(count(st.Opportunities)),
		hitRate)
	row2 := fmt.Sprintf("Executions: %s  │  Rollbacks: %s  │  P&L: %s  │  Cycle: %s  │  Errors: %s",
		statsValueStyle.Render(count(st.Executions)),
		statsValueStyle.Render(count(st.Rollbacks)),
		statsValueStyle.Render(profit),
		statsValueStyle.Render(fmt.Sprintf("%.0fms", st.LastCycleMs)),
		errors)

	return statsLabelStyle.Render("STATS") + "\n" + row1 + "\n" + row2
}

func count[T int64 | uint64](n T) string {
	return fmt.Sprintf("%d", n)
}
