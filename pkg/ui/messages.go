package ui

import (
	"time"

	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
)

// Messages pushed into the Bubble Tea program from the engine goroutines.
// The UI only formats what it receives; all numbers arrive pre-computed.

// TickMsg drives animations and phase timeouts.
type TickMsg struct{}

// StartModulesMsg tells the host process to begin loading modules.
type StartModulesMsg struct{}

// StartupMsg reports progress of one named startup step.
// Status is one of "pending", "connecting", "connected", "done", "failed".
type StartupMsg struct {
	Step    string
	Status  string
	Message string
}

// ConnectionStatusMsg updates one upstream connection's state.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// CycleMsg reports one completed detection cycle.
type CycleMsg struct {
	Snapshots int
	Paths     int
	Duration  time.Duration
}

// OpportunityMsg carries a freshly detected triangular opportunity.
type OpportunityMsg struct {
	Opportunity *domain.Opportunity
}

// ExecutionMsg carries the outcome of one execution attempt.
type ExecutionMsg struct {
	Result *domain.ExecutionResult
}

// StatsMsg carries the aggregate engine counters.
type StatsMsg struct {
	CyclesRun        uint64
	PathsEvaluated   uint64
	Opportunities    uint64
	Executions       uint64
	Rollbacks        uint64
	CumulativeProfit string
	LastCycle        time.Duration
}

// LogMsg surfaces a log line in the dashboard. Level is "info", "warn"
// or "error".
type LogMsg struct {
	Level   string
	Message string
}

// ErrorMsg surfaces an error in the persistent error panel.
type ErrorMsg struct {
	Error error
}
