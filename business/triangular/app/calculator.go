package app

import (
	"context"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/apperror"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

// Leg pairs an order book with the side consumed when converting the leg's
// input currency: SideSell hits the bid of a book quoted input/output,
// SideBuy hits the ask of a book quoted output/input.
type Leg struct {
	Book *marketDomain.OrderBook
	Side marketDomain.Side
}

// CalculatorConfig holds profitability evaluation settings.
type CalculatorConfig struct {
	// StartNotional is the fixed probe amount the walk starts from.
	StartNotional fixedpoint.Value

	// DefaultTaker is the fee fraction used when the fee source fails.
	DefaultTaker fixedpoint.Value

	// DefaultSlippagePct is the fallback slippage percentage per leg when
	// depth analysis fails.
	DefaultSlippagePct float64

	// DefaultQuantityRatio is the fallback tradable fraction of the
	// requested quantity when depth analysis fails.
	DefaultQuantityRatio float64
}

// DefaultCalculatorConfig returns conservative evaluation defaults.
func DefaultCalculatorConfig() CalculatorConfig {
	return CalculatorConfig{
		StartNotional:        fixedpoint.FromInt64(1000),
		DefaultTaker:         fixedpoint.MustFromString("0.001"),
		DefaultSlippagePct:   0.2,
		DefaultQuantityRatio: 0.6,
	}
}

// Calculator computes exact, fee- and slippage-adjusted profitability for
// candidate cycles. All chained arithmetic is fixed point.
type Calculator struct {
	cfg   CalculatorConfig
	fees  FeeSource
	depth DepthAnalyzer
	log   logger.LoggerInterface
}

// NewCalculator creates a calculator.
func NewCalculator(cfg CalculatorConfig, fees FeeSource, depth DepthAnalyzer, log logger.LoggerInterface) *Calculator {
	if cfg.StartNotional.IsZero() {
		cfg.StartNotional = fixedpoint.FromInt64(1000)
	}
	if cfg.DefaultQuantityRatio <= 0 {
		cfg.DefaultQuantityRatio = 0.6
	}
	return &Calculator{cfg: cfg, fees: fees, depth: depth, log: log}
}

// Evaluate walks the cycle in both directions and returns the better path,
// or nil when neither direction nets a positive profit. A non-nil error
// marks a structurally invalid candidate, not an unprofitable one.
func (c *Calculator) Evaluate(ctx context.Context, currencies [domain.Legs]string, legs [domain.Legs]Leg, exchange string) (*domain.TriangularPath, error) {
	for _, leg := range legs {
		if leg.Book == nil {
			return nil, apperror.New(apperror.CodeInvalidPath,
				apperror.WithContext("candidate leg has no order book"))
		}
		if leg.Book.Exchange != exchange {
			return nil, apperror.New(apperror.CodeExchangeMismatch,
				apperror.WithContext(leg.Book.Exchange+" != "+exchange))
		}
	}

	taker := c.takerRate(ctx, exchange)

	forward := c.walk(ctx, currencies, legs, taker)

	reverseCurrencies := [domain.Legs]string{currencies[0], currencies[2], currencies[1]}
	reverseLegs := [domain.Legs]Leg{
		{Book: legs[2].Book, Side: legs[2].Side.Opposite()},
		{Book: legs[1].Book, Side: legs[1].Side.Opposite()},
		{Book: legs[0].Book, Side: legs[0].Side.Opposite()},
	}
	reverse := c.walk(ctx, reverseCurrencies, reverseLegs, taker)

	best := forward
	if reverse != nil && (best == nil || reverse.NetProfitRate.GreaterThan(best.NetProfitRate)) {
		best = reverse
	}
	if best == nil || !best.NetProfitRate.IsPositive() {
		return nil, nil
	}
	best.Exchange = exchange
	return best, nil
}

func (c *Calculator) takerRate(ctx context.Context, exchange string) fixedpoint.Value {
	rates, err := c.fees.Rates(ctx, exchange)
	if err != nil {
		c.log.Debug(ctx, "fee lookup failed, using default taker rate",
			"exchange", exchange, "error", err)
		return c.cfg.DefaultTaker
	}
	return rates.Taker
}

// walk simulates the three conversions from the fixed start notional and
// returns the evaluated path, or nil when a leg cannot be priced.
func (c *Calculator) walk(ctx context.Context, currencies [domain.Legs]string, legs [domain.Legs]Leg, taker fixedpoint.Value) *domain.TriangularPath {
	start := c.cfg.StartNotional
	amount := start
	feeKeep := fixedpoint.One().Sub(taker)

	var (
		prices     [domain.Legs]fixedpoint.Value
		quantities [domain.Legs]fixedpoint.Value
		slips      [domain.Legs]float64
		volumeCap  fixedpoint.Value
		missing    int
		slipSum    float64
	)

	for i := 0; i < domain.Legs; i++ {
		book, side := legs[i].Book, legs[i].Side

		price, ok := legPrice(book, side)
		if !ok {
			return nil
		}

		// Quantity requested from the book, in its base units.
		baseQty := amount
		if side == marketDomain.SideBuy {
			var err error
			baseQty, err = amount.Div(price)
			if err != nil {
				return nil
			}
		}

		report, err := c.depth.Analyze(ctx, book, side, baseQty)
		slip := report.SlippagePct
		maxQty := report.MaxQuantity
		if err != nil || !report.OK {
			slip = c.cfg.DefaultSlippagePct / 100
			maxQty = baseQty.Mul(fixedpoint.FromFloat(c.cfg.DefaultQuantityRatio))
		}

		effective := effectivePrice(price, side, slip)
		next := convert(amount, effective, side)
		if next == nil {
			return nil
		}
		amount = next.Mul(feeKeep)

		prices[i] = price
		quantities[i] = baseQty
		slips[i] = slip
		slipSum += slip

		// Scale the leg's depth cap back to start-notional units.
		ratio, err := maxQty.Div(baseQty)
		if err == nil {
			legCap := start.Mul(ratio)
			if volumeCap.IsZero() || legCap.LessThan(volumeCap) {
				volumeCap = legCap
			}
		}
		if len(book.Bids) == 0 || len(book.Asks) == 0 {
			missing++
		}
	}

	netRate := amount.Sub(start).MustDiv(start)

	path := &domain.TriangularPath{
		Currencies:        currencies,
		NetProfitRate:     netRate,
		MaxTradableVolume: volumeCap,
		ExpectedSlippage:  slipSum / domain.Legs,
	}
	for i := 0; i < domain.Legs; i++ {
		path.TradingPairs[i] = legs[i].Book.Symbol
		path.Directions[i] = legs[i].Side
		path.Prices[i] = prices[i]
		path.Quantities[i] = quantities[i]
	}
	path.RiskScore = riskScore(legs, slips, missing)
	return path
}

// legPrice picks the book side the conversion consumes.
func legPrice(book *marketDomain.OrderBook, side marketDomain.Side) (fixedpoint.Value, bool) {
	if side == marketDomain.SideSell {
		level, ok := book.BestBid()
		if !ok {
			return fixedpoint.Zero(), false
		}
		return level.Price, true
	}
	level, ok := book.BestAsk()
	if !ok {
		return fixedpoint.Zero(), false
	}
	return level.Price, true
}

// effectivePrice moves the quoted price against the trader by the slippage
// fraction.
func effectivePrice(price fixedpoint.Value, side marketDomain.Side, slip float64) fixedpoint.Value {
	adj := fixedpoint.FromFloat(slip)
	if side == marketDomain.SideSell {
		return price.Mul(fixedpoint.One().Sub(adj))
	}
	return price.Mul(fixedpoint.One().Add(adj))
}

// convert applies one leg: selling multiplies by the bid, buying divides by
// the ask.
func convert(amount, price fixedpoint.Value, side marketDomain.Side) *fixedpoint.Value {
	if side == marketDomain.SideSell {
		out := amount.Mul(price)
		return &out
	}
	out, err := amount.Div(price)
	if err != nil {
		return nil
	}
	return &out
}

// riskScore builds the additive 0-100 score from per-leg spread, liquidity
// and depth tiers plus the overall slippage estimate.
func riskScore(legs [domain.Legs]Leg, slips [domain.Legs]float64, missing int) float64 {
	score := 0.0

	for _, leg := range legs {
		book := leg.Book

		if spread, ok := book.SpreadRatio(); ok {
			switch s := spread.Float64(); {
			case s > 0.05:
				score += 15
			case s > 0.02:
				score += 10
			case s > 0.005:
				score += 5
			}
		}

		if notional, ok := book.TopNotional(); ok {
			switch n := notional.Float64(); {
			case n < 500:
				score += 10
			case n < 2000:
				score += 5
			}
		}

		levels := (len(book.Bids) + len(book.Asks)) / 2
		switch {
		case levels < 2:
			score += 10
		case levels < 5:
			score += 5
		}
	}

	score += 25 * float64(missing)

	avgSlip := (slips[0] + slips[1] + slips[2]) / domain.Legs
	switch {
	case avgSlip > 0.005:
		score += 15
	case avgSlip > 0.002:
		score += 8
	}

	if score > 100 {
		score = 100
	}
	return score
}
