// Package app contains application services and port definitions for the
// triangular context.
package app

import (
	"context"
	"time"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
)

// FeeRates holds the maker and taker fee fractions for one exchange.
type FeeRates struct {
	Maker fixedpoint.Value
	Taker fixedpoint.Value
}

// FeeSource defines the interface for dynamic fee-rate lookup.
type FeeSource interface {
	// Rates returns the current fee schedule for an exchange.
	Rates(ctx context.Context, exchange string) (FeeRates, error)
}

// DepthReport is the result of walking an order book ladder for one leg.
type DepthReport struct {
	// MaxQuantity is the largest quantity fillable within the slippage
	// tolerance.
	MaxQuantity fixedpoint.Value

	// SlippagePct is the cumulative slippage fraction for the requested
	// quantity.
	SlippagePct float64

	RiskScore      float64 // 0-100
	LiquidityScore float64 // 0-1

	OK bool
}

// DepthAnalyzer defines the interface for order-book depth inspection.
type DepthAnalyzer interface {
	// Analyze walks the ladder on the given side for the requested
	// quantity.
	Analyze(ctx context.Context, book *marketDomain.OrderBook, side marketDomain.Side, quantity fixedpoint.Value) (DepthReport, error)
}

// RiskVerdict is the risk assessor's decision for one candidate path.
type RiskVerdict struct {
	Passes         bool
	Score          float64 // 0-100
	ProfitFloor    fixedpoint.Value
	LiquidityFloor fixedpoint.Value
	Reason         string
}

// RiskAssessor defines the interface for external risk scoring and
// execution-outcome learning.
type RiskAssessor interface {
	// Assess scores a candidate path.
	Assess(ctx context.Context, path *domain.TriangularPath) (RiskVerdict, error)

	// RecordOutcome feeds an execution result back for future scoring.
	RecordOutcome(ctx context.Context, record domain.ExecutionRecord)
}

// Venue defines the interface for order placement and fresh market reads.
type Venue interface {
	// FetchBook returns the current order book for a symbol.
	FetchBook(ctx context.Context, exchange, symbol string) (*marketDomain.OrderBook, error)

	// PlaceOrder submits one leg and returns its fill.
	PlaceOrder(ctx context.Context, order domain.LegOrder) (domain.LegFill, error)

	// CancelOrder cancels an unfilled order.
	CancelOrder(ctx context.Context, exchange, orderID string) error

	// ReverseOrder places the compensating trade for a filled leg.
	ReverseOrder(ctx context.Context, order domain.LegOrder, fill domain.LegFill) (domain.LegFill, error)
}

// Strategy is the capability interface the scheduler invokes polymorphically.
type Strategy interface {
	// Name identifies the strategy in the registry.
	Name() string

	// Detect scans one snapshot batch for an executable opportunity.
	Detect(ctx context.Context, snapshots []marketDomain.Snapshot) (*domain.Opportunity, error)

	// Execute trades a previously detected opportunity.
	Execute(ctx context.Context, opp *domain.Opportunity) (*domain.ExecutionResult, error)
}

// Reporter defines the interface for surfacing opportunities and results.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report sends a detected opportunity to be displayed/logged.
	Report(opp *domain.Opportunity)

	// ReportExecution sends a finished execution attempt.
	ReportExecution(result *domain.ExecutionResult)

	// UpdateStats updates the aggregate counters display.
	UpdateStats(stats Stats)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// Stats holds aggregate engine counters for display.
type Stats struct {
	CyclesRun         uint64
	PathsEvaluated    uint64
	Opportunities     uint64
	Executions        uint64
	Rollbacks         uint64
	CumulativeProfit  fixedpoint.Value
	LastCycleDuration time.Duration
}
