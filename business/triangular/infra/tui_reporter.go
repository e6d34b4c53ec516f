package infra

import (
	"context"

	"github.com/ming198921/taoli5.1-sub000/business/triangular/app"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/pkg/ui"
)

// TUIReporter implements Reporter by forwarding events to the Bubble Tea
// program. The program itself is started by the command entrypoint; this
// adapter only sends messages into it.
type TUIReporter struct{}

// NewTUIReporter creates a new TUIReporter.
func NewTUIReporter() *TUIReporter {
	return &TUIReporter{}
}

// Start marks the strategy startup step as complete.
func (r *TUIReporter) Start(ctx context.Context) error {
	ui.Send(ui.StartupMsg{Step: "strategies", Status: "done"})
	return nil
}

// Report forwards a detected opportunity to the TUI.
func (r *TUIReporter) Report(opp *domain.Opportunity) {
	ui.Send(ui.OpportunityMsg{Opportunity: opp})
}

// ReportExecution forwards a finished execution attempt to the TUI.
func (r *TUIReporter) ReportExecution(result *domain.ExecutionResult) {
	ui.Send(ui.ExecutionMsg{Result: result})
}

// UpdateStats forwards the aggregate counters to the TUI.
func (r *TUIReporter) UpdateStats(stats app.Stats) {
	ui.Send(ui.StatsMsg{
		CyclesRun:        stats.CyclesRun,
		PathsEvaluated:   stats.PathsEvaluated,
		Opportunities:    stats.Opportunities,
		Executions:       stats.Executions,
		Rollbacks:        stats.Rollbacks,
		CumulativeProfit: stats.CumulativeProfit.String(),
		LastCycle:        stats.LastCycleDuration,
	})
}

// Stop shuts down the TUI reporter.
func (r *TUIReporter) Stop() error {
	return nil
}
