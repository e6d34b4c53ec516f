// Package risk implements the default multi-factor risk assessor with
// execution-history learning.
package risk

import (
	"context"
	"sync"

	"github.com/ming198921/taoli5.1-sub000/business/triangular/app"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

// Config holds assessor thresholds.
type Config struct {
	// MaxRiskScore is the pass/fail score bound.
	MaxRiskScore float64

	// BaseProfitFloor is the minimum profit fraction before history
	// adjustment.
	BaseProfitFloor fixedpoint.Value

	// LiquidityFloor is the minimum tradable volume in notional units.
	LiquidityFloor fixedpoint.Value

	// HistoryWindow caps how many outcomes are kept per signature.
	HistoryWindow int
}

// DefaultConfig returns the standard assessor settings.
func DefaultConfig() Config {
	return Config{
		MaxRiskScore:    80,
		BaseProfitFloor: fixedpoint.MustFromString("0.001"),
		LiquidityFloor:  fixedpoint.FromInt64(200),
		HistoryWindow:   50,
	}
}

// signatureStats aggregates execution outcomes for one cycle signature.
type signatureStats struct {
	attempts  int
	successes int
	recent    []bool // ring of latest outcomes, oldest first
}

func (s *signatureStats) successRate() float64 {
	if s.attempts == 0 {
		return 1
	}
	return float64(s.successes) / float64(s.attempts)
}

// Assessor implements app.RiskAssessor. Scores combine the path's own
// additive risk with per-signature execution history.
type Assessor struct {
	cfg Config
	log logger.LoggerInterface

	mu    sync.RWMutex
	stats map[string]*signatureStats
}

// NewAssessor creates the default assessor.
func NewAssessor(cfg Config, log logger.LoggerInterface) *Assessor {
	if cfg.MaxRiskScore <= 0 {
		cfg.MaxRiskScore = 80
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 50
	}
	return &Assessor{cfg: cfg, log: log, stats: make(map[string]*signatureStats)}
}

// Assess implements app.RiskAssessor.
func (a *Assessor) Assess(ctx context.Context, path *domain.TriangularPath) (app.RiskVerdict, error) {
	sig := path.Signature()

	a.mu.RLock()
	stats, known := a.stats[sig]
	var rate float64 = 1
	var attempts int
	if known {
		rate = stats.successRate()
		attempts = stats.attempts
	}
	a.mu.RUnlock()

	score := path.RiskScore

	// Slippage beyond half the expected profit adds pressure.
	if path.ExpectedSlippage*2 > path.NetProfitRate.Float64() {
		score += 10
	}

	// A signature that keeps failing gets progressively harder to pass.
	if attempts >= 3 {
		score += (1 - rate) * 30
	}
	if score > 100 {
		score = 100
	}

	floor := a.cfg.BaseProfitFloor
	if attempts >= 3 && rate < 0.5 {
		floor = floor.Mul(fixedpoint.FromInt64(2))
	}

	verdict := app.RiskVerdict{
		Score:          score,
		ProfitFloor:    floor,
		LiquidityFloor: a.cfg.LiquidityFloor,
	}

	switch {
	case score > a.cfg.MaxRiskScore:
		verdict.Reason = "combined risk score too high"
	case path.NetProfitRate.LessThan(floor):
		verdict.Reason = "profit below adjusted floor"
	case path.MaxTradableVolume.LessThan(a.cfg.LiquidityFloor):
		verdict.Reason = "tradable volume below liquidity floor"
	default:
		verdict.Passes = true
	}
	return verdict, nil
}

// RecordOutcome implements app.RiskAssessor.
func (a *Assessor) RecordOutcome(ctx context.Context, record domain.ExecutionRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats, ok := a.stats[record.PathSignature]
	if !ok {
		stats = &signatureStats{}
		a.stats[record.PathSignature] = stats
	}

	stats.attempts++
	if record.Accepted {
		stats.successes++
	}
	stats.recent = append(stats.recent, record.Accepted)
	if len(stats.recent) > a.cfg.HistoryWindow {
		drop := stats.recent[0]
		stats.recent = stats.recent[1:]
		stats.attempts--
		if drop {
			stats.successes--
		}
	}
}

// SuccessRate reports the recorded success rate for a signature; 1.0 for
// unknown signatures.
func (a *Assessor) SuccessRate(signature string) float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if stats, ok := a.stats[signature]; ok {
		return stats.successRate()
	}
	return 1
}
