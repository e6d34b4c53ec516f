package app

import (
	"context"
	"fmt"
	"time"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

// CoordinatorConfig holds execution settings.
type CoordinatorConfig struct {
	// MaxOpportunityAge rejects opportunities older than this before any
	// leg is sent.
	MaxOpportunityAge time.Duration

	// MaxBookAge rejects validation when any refetched book is older.
	MaxBookAge time.Duration

	// LegTimeout bounds each leg submission.
	LegTimeout time.Duration

	// InterLegDelay is inserted between legs at normal priority.
	InterLegDelay time.Duration

	// CautiousDelay is inserted between legs at cautious priority.
	CautiousDelay time.Duration

	// MaxSlippageBps rejects validation when the combined fresh slippage
	// estimate exceeds this bound.
	MaxSlippageBps float64
}

// DefaultCoordinatorConfig returns the standard execution settings.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		MaxOpportunityAge: time.Second,
		MaxBookAge:        3 * time.Second,
		LegTimeout:        5 * time.Second,
		InterLegDelay:     50 * time.Millisecond,
		CautiousDelay:     200 * time.Millisecond,
		MaxSlippageBps:    100,
	}
}

// Coordinator executes one opportunity at a time through the
// pending/validating/executing state machine with saga-style compensation
// on partial failure.
type Coordinator struct {
	cfg      CoordinatorConfig
	venue    Venue
	depth    DepthAnalyzer
	assessor RiskAssessor
	log      logger.LoggerInterface
}

// NewCoordinator creates an execution coordinator.
func NewCoordinator(cfg CoordinatorConfig, venue Venue, depth DepthAnalyzer, assessor RiskAssessor, log logger.LoggerInterface) *Coordinator {
	if cfg.LegTimeout <= 0 {
		cfg.LegTimeout = 5 * time.Second
	}
	return &Coordinator{cfg: cfg, venue: venue, depth: depth, assessor: assessor, log: log}
}

// Execute runs the full state machine for one opportunity and returns its
// terminal record. The three legs are strictly sequential; a failed leg
// triggers best-effort rollback of the completed ones in reverse order.
func (c *Coordinator) Execute(ctx context.Context, opp *domain.Opportunity) (*domain.ExecutionResult, error) {
	started := time.Now()
	path := opp.Path

	result := &domain.ExecutionResult{
		OpportunityID:    opp.ID,
		FinalState:       domain.ExecutionState{Phase: domain.PhasePending},
		ExecutedQuantity: fixedpoint.Zero(),
		RealizedProfit:   fixedpoint.Zero(),
		FeesPaid:         fixedpoint.Zero(),
	}

	check := c.validate(ctx, opp)
	if !check.IsViable || check.Priority == domain.PriorityReject {
		result.FinalState = domain.ExecutionState{Phase: domain.PhaseRejected}
		result.FailureReason = check.RejectionReason
		result.ExecutionTime = time.Since(started)
		c.log.Info(ctx, "opportunity rejected before execution",
			"opportunity_id", opp.ID, "reason", check.RejectionReason)
		c.reportOutcome(ctx, opp, result)
		return result, nil
	}

	quantities := c.scaleQuantities(path, check.RiskAdjustedSize)
	fills := make([]domain.LegFill, 0, domain.Legs)

	for i := 0; i < domain.Legs; i++ {
		result.FinalState = domain.ExecutionState{Phase: domain.PhaseExecuting, Leg: i}

		order := domain.LegOrder{
			Exchange: path.Exchange,
			Symbol:   path.TradingPairs[i],
			Side:     path.Directions[i],
			Price:    path.Prices[i],
			Quantity: quantities[i],
		}

		legStarted := time.Now()
		legCtx, cancel := context.WithTimeout(ctx, c.cfg.LegTimeout)
		fill, err := c.venue.PlaceOrder(legCtx, order)
		cancel()

		if err != nil {
			c.log.Warn(ctx, "leg execution failed",
				"opportunity_id", opp.ID, "leg", i, "symbol", order.Symbol, "error", err)
			result.Rollbacks = c.rollback(ctx, path, quantities, fills)
			if len(result.Rollbacks) > 0 {
				result.FinalState = domain.ExecutionState{Phase: domain.PhaseRolledBack}
			} else {
				result.FinalState = domain.ExecutionState{Phase: domain.PhaseRejected}
			}
			result.FailureReason = fmt.Sprintf("leg %d failed: %v", i, err)
			result.ExecutedQuantity = fixedpoint.Zero()
			result.ExecutionTime = time.Since(started)
			c.reportOutcome(ctx, opp, result)
			return result, nil
		}

		fills = append(fills, fill)
		result.OrderIDs = append(result.OrderIDs, fill.OrderID)
		result.FeesPaid = result.FeesPaid.Add(fill.Fee)
		result.Legs = append(result.Legs, domain.LegResult{
			Index:        i,
			OrderID:      fill.OrderID,
			Symbol:       order.Symbol,
			Side:         order.Side,
			Price:        fill.AvgPrice,
			RequestedQty: order.Quantity,
			ExecutedQty:  fill.ExecutedQty,
			Fee:          fill.Fee,
			Slippage:     realizedSlippage(order.Price, fill.AvgPrice, order.Side),
			Latency:      time.Since(legStarted),
		})

		if i < domain.Legs-1 {
			c.interLegPause(ctx, check.Priority)
		}
	}

	result.Accepted = true
	result.FinalState = domain.ExecutionState{Phase: domain.PhaseCompleted}
	result.ExecutedQuantity = quantities[0]
	result.RealizedProfit = c.realizedProfit(path, quantities[0], fills)
	result.Slippage = averageLegSlippage(result.Legs)
	result.ExecutionTime = time.Since(started)

	c.log.Info(ctx, "opportunity executed",
		"opportunity_id", opp.ID, "route", path.Route(),
		"realized_profit", result.RealizedProfit.String(),
		"duration", result.ExecutionTime)
	c.reportOutcome(ctx, opp, result)
	return result, nil
}

// validate re-checks the opportunity against fresh books and classifies the
// execution priority.
func (c *Coordinator) validate(ctx context.Context, opp *domain.Opportunity) domain.PreExecutionCheck {
	path := opp.Path
	now := time.Now()

	if c.cfg.MaxOpportunityAge > 0 && opp.Age(now) > c.cfg.MaxOpportunityAge {
		return rejected("opportunity is stale")
	}

	var (
		slipBps   float64
		condition float64
	)
	for i := 0; i < domain.Legs; i++ {
		book, err := c.venue.FetchBook(ctx, path.Exchange, path.TradingPairs[i])
		if err != nil || book == nil {
			return rejected(fmt.Sprintf("leg %d book unavailable", i))
		}
		if c.cfg.MaxBookAge > 0 && book.Age(now) > c.cfg.MaxBookAge {
			return rejected(fmt.Sprintf("leg %d book is stale", i))
		}

		report, err := c.depth.Analyze(ctx, book, path.Directions[i], path.Quantities[i])
		if err != nil || !report.OK {
			slipBps += 20
			condition += 0.3
			continue
		}
		slipBps += report.SlippagePct * 10000
		condition += report.LiquidityScore
	}
	condition /= domain.Legs

	if c.cfg.MaxSlippageBps > 0 && slipBps > c.cfg.MaxSlippageBps {
		return rejected("combined slippage estimate too high")
	}

	size := path.MaxTradableVolume
	if condition < 0.5 {
		size = size.Mul(fixedpoint.MustFromString("0.5"))
	}

	return domain.PreExecutionCheck{
		IsViable:             true,
		EstimatedSlippageBps: slipBps,
		RiskAdjustedSize:     size,
		Priority:             classifyPriority(path.ProfitBps(), slipBps, condition),
		MarketConditionScore: condition,
	}
}

func rejected(reason string) domain.PreExecutionCheck {
	return domain.PreExecutionCheck{
		IsViable:        false,
		RejectionReason: reason,
		Priority:        domain.PriorityReject,
	}
}

// classifyPriority weighs profit headroom against the fresh slippage
// estimate and overall market condition.
func classifyPriority(profitBps, slipBps, condition float64) domain.ExecutionPriority {
	switch {
	case profitBps <= slipBps || condition < 0.3:
		return domain.PriorityReject
	case profitBps >= 2*slipBps && condition >= 0.7:
		return domain.PriorityImmediate
	case condition >= 0.5:
		return domain.PriorityNormal
	default:
		return domain.PriorityCautious
	}
}

// scaleQuantities shrinks the probe quantities to the risk-adjusted size.
func (c *Coordinator) scaleQuantities(path *domain.TriangularPath, size fixedpoint.Value) [domain.Legs]fixedpoint.Value {
	// Recover the probe notional from leg 1: a sell leg's quantity is the
	// notional itself, a buy leg's quantity is notional / price.
	probe := path.Quantities[0]
	if path.Directions[0] == marketDomain.SideBuy {
		probe = path.Quantities[0].Mul(path.Prices[0])
	}

	var out [domain.Legs]fixedpoint.Value
	ratio := fixedpoint.One()
	if probe.IsPositive() && size.IsPositive() && size.LessThan(probe) {
		ratio = size.MustDiv(probe)
	}
	for i := 0; i < domain.Legs; i++ {
		out[i] = path.Quantities[i].Mul(ratio)
	}
	return out
}

// rollback compensates completed legs in reverse order. Failures are logged
// and recorded but never raised.
func (c *Coordinator) rollback(ctx context.Context, path *domain.TriangularPath, quantities [domain.Legs]fixedpoint.Value, fills []domain.LegFill) []domain.RollbackAction {
	actions := make([]domain.RollbackAction, 0, len(fills))

	for i := len(fills) - 1; i >= 0; i-- {
		fill := fills[i]
		action := domain.RollbackAction{
			LegIndex: i,
			OrderID:  fill.OrderID,
			At:       time.Now(),
		}

		if fill.ExecutedQty.IsZero() {
			action.Kind = domain.RollbackCancel
			if err := c.venue.CancelOrder(ctx, path.Exchange, fill.OrderID); err != nil {
				action.Error = err.Error()
				c.log.Warn(ctx, "rollback cancel failed",
					"leg", i, "order_id", fill.OrderID, "error", err)
			} else {
				action.Succeeded = true
			}
		} else {
			action.Kind = domain.RollbackReverse
			order := domain.LegOrder{
				Exchange: path.Exchange,
				Symbol:   path.TradingPairs[i],
				Side:     path.Directions[i],
				Price:    path.Prices[i],
				Quantity: quantities[i],
			}
			if _, err := c.venue.ReverseOrder(ctx, order, fill); err != nil {
				action.Error = err.Error()
				c.log.Warn(ctx, "rollback reverse trade failed",
					"leg", i, "order_id", fill.OrderID, "error", err)
			} else {
				action.Succeeded = true
			}
		}

		actions = append(actions, action)
	}
	return actions
}

// realizedProfit replays the fills to compute the final amount in the start
// currency and subtracts the initial size.
func (c *Coordinator) realizedProfit(path *domain.TriangularPath, initial fixedpoint.Value, fills []domain.LegFill) fixedpoint.Value {
	amount := initial
	for i, fill := range fills {
		if path.Directions[i] == marketDomain.SideSell {
			amount = fill.ExecutedQty.Mul(fill.AvgPrice).Sub(fill.Fee)
		} else {
			amount = fill.ExecutedQty.Sub(fill.Fee)
		}
	}
	return amount.Sub(initial)
}

// realizedSlippage measures the adverse move between the quoted and the
// filled price, as a fraction.
func realizedSlippage(quoted, filled fixedpoint.Value, side marketDomain.Side) float64 {
	if !quoted.IsPositive() {
		return 0
	}
	diff := filled.Sub(quoted).MustDiv(quoted).Float64()
	if side == marketDomain.SideSell {
		return -diff // a lower fill hurts the seller
	}
	return diff
}

func averageLegSlippage(legs []domain.LegResult) float64 {
	if len(legs) == 0 {
		return 0
	}
	sum := 0.0
	for _, leg := range legs {
		sum += leg.Slippage
	}
	return sum / float64(len(legs))
}

func (c *Coordinator) interLegPause(ctx context.Context, priority domain.ExecutionPriority) {
	var delay time.Duration
	switch priority {
	case domain.PriorityNormal:
		delay = c.cfg.InterLegDelay
	case domain.PriorityCautious:
		delay = c.cfg.CautiousDelay
	default:
		return
	}
	if delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func (c *Coordinator) reportOutcome(ctx context.Context, opp *domain.Opportunity, result *domain.ExecutionResult) {
	if c.assessor == nil {
		return
	}
	c.assessor.RecordOutcome(ctx, domain.ExecutionRecord{
		OpportunityID:      opp.ID,
		PathSignature:      opp.Path.Signature(),
		Exchange:           opp.Path.Exchange,
		Accepted:           result.Accepted,
		ExpectedProfitRate: opp.Path.NetProfitRate,
		RealizedProfit:     result.RealizedProfit,
		Slippage:           result.Slippage,
		Duration:           result.ExecutionTime,
		FailureReason:      result.FailureReason,
		At:                 time.Now(),
	})
}
