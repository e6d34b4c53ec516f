package risk

import (
	"context"
	"io"
	"testing"
	"time"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testPath() *domain.TriangularPath {
	return &domain.TriangularPath{
		Currencies:        [domain.Legs]string{"AAA", "BBB", "CCC"},
		TradingPairs:      [domain.Legs]string{"AAABBB", "BBBCCC", "CCCAAA"},
		Directions:        [domain.Legs]marketDomain.Side{marketDomain.SideSell, marketDomain.SideSell, marketDomain.SideSell},
		NetProfitRate:     fixedpoint.MustFromString("0.0098"),
		MaxTradableVolume: fixedpoint.FromInt64(1000),
		Exchange:          "binance",
		RiskScore:         20,
	}
}

func failedRecord(sig string) domain.ExecutionRecord {
	return domain.ExecutionRecord{
		PathSignature: sig,
		Exchange:      "binance",
		Accepted:      false,
		At:            time.Now(),
	}
}

func TestAssessPassesFreshPath(t *testing.T) {
	a := NewAssessor(DefaultConfig(), testLogger())

	verdict, err := a.Assess(context.Background(), testPath())
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !verdict.Passes {
		t.Fatalf("Passes = false, reason %q", verdict.Reason)
	}
	if verdict.Score != 20 {
		t.Errorf("Score = %v, want the path's own 20", verdict.Score)
	}
	if !verdict.ProfitFloor.Equal(fixedpoint.MustFromString("0.001")) {
		t.Errorf("ProfitFloor = %s, want base 0.001", verdict.ProfitFloor)
	}
}

func TestAssessRejectsHighScore(t *testing.T) {
	a := NewAssessor(DefaultConfig(), testLogger())

	path := testPath()
	path.RiskScore = 90

	verdict, err := a.Assess(context.Background(), path)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if verdict.Passes {
		t.Fatal("Passes = true for score 90")
	}
	if verdict.Reason != "combined risk score too high" {
		t.Errorf("Reason = %q", verdict.Reason)
	}
}

func TestAssessSlippagePressure(t *testing.T) {
	a := NewAssessor(DefaultConfig(), testLogger())

	// Slippage above half the profit adds ten points, pushing a borderline
	// path over the bound.
	path := testPath()
	path.RiskScore = 75
	path.ExpectedSlippage = 0.01

	verdict, err := a.Assess(context.Background(), path)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if verdict.Passes {
		t.Fatal("Passes = true despite slippage pressure")
	}
	if verdict.Score != 85 {
		t.Errorf("Score = %v, want 85", verdict.Score)
	}
}

func TestAssessRejectsThinVolume(t *testing.T) {
	a := NewAssessor(DefaultConfig(), testLogger())

	path := testPath()
	path.MaxTradableVolume = fixedpoint.FromInt64(100)

	verdict, err := a.Assess(context.Background(), path)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if verdict.Passes {
		t.Fatal("Passes = true below the liquidity floor")
	}
	if verdict.Reason != "tradable volume below liquidity floor" {
		t.Errorf("Reason = %q", verdict.Reason)
	}
}

func TestAssessHistoryDoublesFloor(t *testing.T) {
	a := NewAssessor(DefaultConfig(), testLogger())
	ctx := context.Background()

	// Marginally profitable above the base floor.
	path := testPath()
	path.NetProfitRate = fixedpoint.MustFromString("0.0015")

	verdict, err := a.Assess(ctx, path)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !verdict.Passes {
		t.Fatalf("fresh path rejected: %q", verdict.Reason)
	}

	// Three straight failures double the floor past the path's rate.
	sig := path.Signature()
	for i := 0; i < 3; i++ {
		a.RecordOutcome(ctx, failedRecord(sig))
	}

	verdict, err = a.Assess(ctx, path)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if verdict.Passes {
		t.Fatal("Passes = true after repeated failures")
	}
	if verdict.Reason != "profit below adjusted floor" {
		t.Errorf("Reason = %q", verdict.Reason)
	}
	if !verdict.ProfitFloor.Equal(fixedpoint.MustFromString("0.002")) {
		t.Errorf("ProfitFloor = %s, want doubled 0.002", verdict.ProfitFloor)
	}
}

func TestAssessFailingHistoryRaisesScore(t *testing.T) {
	a := NewAssessor(DefaultConfig(), testLogger())
	ctx := context.Background()

	path := testPath()
	path.RiskScore = 60
	sig := path.Signature()

	for i := 0; i < 3; i++ {
		a.RecordOutcome(ctx, failedRecord(sig))
	}

	// Zero success rate adds the full 30-point penalty: 60 + 30 > 80.
	verdict, err := a.Assess(ctx, path)
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if verdict.Passes {
		t.Fatal("Passes = true for a consistently failing signature")
	}
	if verdict.Score != 90 {
		t.Errorf("Score = %v, want 90", verdict.Score)
	}
}

func TestRecordOutcomeWindowEviction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryWindow = 2
	a := NewAssessor(cfg, testLogger())
	ctx := context.Background()

	sig := testPath().Signature()

	// One success followed by two failures; the window drops the success.
	a.RecordOutcome(ctx, domain.ExecutionRecord{PathSignature: sig, Accepted: true, At: time.Now()})
	a.RecordOutcome(ctx, failedRecord(sig))
	a.RecordOutcome(ctx, failedRecord(sig))

	if rate := a.SuccessRate(sig); rate != 0 {
		t.Errorf("SuccessRate = %v, want 0 after eviction", rate)
	}
}

func TestSuccessRateUnknownSignature(t *testing.T) {
	a := NewAssessor(DefaultConfig(), testLogger())
	if rate := a.SuccessRate("never-seen@binance"); rate != 1 {
		t.Errorf("SuccessRate = %v, want optimistic 1", rate)
	}
}
