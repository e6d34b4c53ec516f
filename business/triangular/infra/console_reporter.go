// Package infra contains infrastructure adapters for the triangular context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ming198921/taoli5.1-sub000/business/triangular/app"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
)

// ConsoleReporter implements Reporter for CLI output.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a new ConsoleReporter.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{
		out: os.Stdout,
	}
}

// Start initializes the console reporter.
func (r *ConsoleReporter) Start(ctx context.Context) error {
	fmt.Fprintln(r.out, "Triangular Arbitrage Engine Started")
	fmt.Fprintln(r.out, "===================================")
	return nil
}

// Report outputs a detected opportunity to the console.
func (r *ConsoleReporter) Report(opp *domain.Opportunity) {
	if opp == nil || opp.Path == nil {
		return
	}
	path := opp.Path

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintln(r.out, "TRIANGULAR OPPORTUNITY DETECTED")
	fmt.Fprintln(r.out, "================================================================================")
	fmt.Fprintf(r.out, "ID:             %s\n", opp.ID)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", opp.DetectedAt.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Exchange:       %s\n", path.Exchange)
	fmt.Fprintf(r.out, "Route:          %s\n", path.Route())
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "LEGS")
	for i := 0; i < domain.Legs; i++ {
		fmt.Fprintf(r.out, "  %d. %-4s %-12s price=%s qty=%s\n",
			i+1,
			path.Directions[i],
			path.TradingPairs[i],
			path.Prices[i].String(),
			path.Quantities[i].String(),
		)
	}
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(r.out, "PROFIT")
	fmt.Fprintf(r.out, "  Net rate:       %.2f bps\n", path.ProfitBps())
	fmt.Fprintf(r.out, "  Max volume:     $%s\n", path.MaxTradableVolume.String())
	fmt.Fprintf(r.out, "  Risk score:     %.0f/100\n", path.RiskScore)
	fmt.Fprintf(r.out, "  Est. slippage:  %.2f bps\n", path.ExpectedSlippage*10000)
	fmt.Fprintln(r.out, "================================================================================")
}

// ReportExecution outputs a finished execution attempt.
func (r *ConsoleReporter) ReportExecution(result *domain.ExecutionResult) {
	if result == nil {
		return
	}

	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
	if result.Accepted {
		fmt.Fprintf(r.out, "EXECUTION COMPLETED  %s\n", result.OpportunityID)
		fmt.Fprintf(r.out, "  Quantity:       %s\n", result.ExecutedQuantity.String())
		fmt.Fprintf(r.out, "  Profit:         %s\n", result.RealizedProfit.String())
		fmt.Fprintf(r.out, "  Fees:           %s\n", result.FeesPaid.String())
		fmt.Fprintf(r.out, "  Slippage:       %.2f bps\n", result.Slippage*10000)
	} else {
		fmt.Fprintf(r.out, "EXECUTION FAILED  %s\n", result.OpportunityID)
		fmt.Fprintf(r.out, "  State:          %s\n", result.FinalState.String())
		fmt.Fprintf(r.out, "  Reason:         %s\n", result.FailureReason)
		if len(result.Rollbacks) > 0 {
			fmt.Fprintf(r.out, "  Rollbacks:      %d\n", len(result.Rollbacks))
			for _, rb := range result.Rollbacks {
				outcome := "ok"
				if !rb.Succeeded {
					outcome = "failed: " + rb.Error
				}
				fmt.Fprintf(r.out, "    leg %d %s %s (%s)\n", rb.LegIndex, rb.Kind, rb.OrderID, outcome)
			}
		}
	}
	fmt.Fprintf(r.out, "  Duration:       %s\n", result.ExecutionTime.Round(time.Millisecond))
	fmt.Fprintln(r.out, "--------------------------------------------------------------------------------")
}

// UpdateStats outputs aggregate counters periodically.
func (r *ConsoleReporter) UpdateStats(stats app.Stats) {
	fmt.Fprintf(r.out, "[%s] cycles=%d paths=%d opportunities=%d executions=%d rollbacks=%d pnl=%s cycle=%s\n",
		time.Now().Format("15:04:05"),
		stats.CyclesRun,
		stats.PathsEvaluated,
		stats.Opportunities,
		stats.Executions,
		stats.Rollbacks,
		stats.CumulativeProfit.String(),
		stats.LastCycleDuration.Round(time.Millisecond),
	)
}

// Stop gracefully shuts down the console reporter.
func (r *ConsoleReporter) Stop() error {
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, "Triangular Arbitrage Engine Stopped")
	return nil
}
