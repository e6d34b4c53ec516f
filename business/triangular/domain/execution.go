package domain

import (
	"fmt"
	"time"

	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
)

// ExecutionPhase is the lifecycle phase of one execution attempt.
type ExecutionPhase string

const (
	PhasePending    ExecutionPhase = "pending"
	PhaseValidating ExecutionPhase = "validating"
	PhaseExecuting  ExecutionPhase = "executing"
	PhaseCompleted  ExecutionPhase = "completed"
	PhaseRolledBack ExecutionPhase = "rolled_back"
	PhaseRejected   ExecutionPhase = "rejected"
)

// ExecutionState is the coordinator's position in the per-opportunity state
// machine. Leg is meaningful only while Phase is PhaseExecuting.
type ExecutionState struct {
	Phase ExecutionPhase
	Leg   int
}

// Terminal reports whether no further transitions are possible.
func (s ExecutionState) Terminal() bool {
	switch s.Phase {
	case PhaseCompleted, PhaseRolledBack, PhaseRejected:
		return true
	}
	return false
}

func (s ExecutionState) String() string {
	if s.Phase == PhaseExecuting {
		return fmt.Sprintf("%s(leg %d)", s.Phase, s.Leg)
	}
	return string(s.Phase)
}

// ExecutionPriority classifies how urgently an opportunity should trade.
type ExecutionPriority string

const (
	PriorityImmediate ExecutionPriority = "immediate"
	PriorityNormal    ExecutionPriority = "normal"
	PriorityCautious  ExecutionPriority = "cautious"
	PriorityReject    ExecutionPriority = "reject"
)

// PreExecutionCheck is the result of re-validating an opportunity against
// fresh market data immediately before trading. Never cached.
type PreExecutionCheck struct {
	IsViable             bool
	RejectionReason      string
	EstimatedSlippageBps float64
	RiskAdjustedSize     fixedpoint.Value
	Priority             ExecutionPriority
	MarketConditionScore float64 // 0-1, higher is healthier
}

// LegOrder is one leg submission sent to a venue.
type LegOrder struct {
	Exchange string
	Symbol   string
	Side     marketDomain.Side
	Price    fixedpoint.Value
	Quantity fixedpoint.Value
}

// LegFill is the venue's response to a leg submission.
type LegFill struct {
	OrderID     string
	ExecutedQty fixedpoint.Value
	AvgPrice    fixedpoint.Value
	Fee         fixedpoint.Value
	FullyFilled bool
}

// LegResult records the outcome of one executed leg.
type LegResult struct {
	Index        int
	OrderID      string
	Symbol       string
	Side         marketDomain.Side
	Price        fixedpoint.Value
	RequestedQty fixedpoint.Value
	ExecutedQty  fixedpoint.Value
	Fee          fixedpoint.Value
	Slippage     float64 // realized fraction vs expected price
	Latency      time.Duration
}

// RollbackKind distinguishes the two compensating actions.
type RollbackKind string

const (
	RollbackCancel  RollbackKind = "cancel"
	RollbackReverse RollbackKind = "reverse"
)

// RollbackAction records one best-effort compensation of an executed leg.
type RollbackAction struct {
	LegIndex  int
	OrderID   string
	Kind      RollbackKind
	Succeeded bool
	Error     string
	At        time.Time
}

// ExecutionResult is the terminal record of one execution attempt.
// Written once per opportunity.
type ExecutionResult struct {
	OpportunityID    string
	Accepted         bool
	FinalState       ExecutionState
	OrderIDs         []string
	Legs             []LegResult
	Rollbacks        []RollbackAction
	ExecutedQuantity fixedpoint.Value
	RealizedProfit   fixedpoint.Value
	FeesPaid         fixedpoint.Value
	Slippage         float64
	ExecutionTime    time.Duration
	FailureReason    string
}

// ExecutionRecord is the feedback handed to the risk assessor after each
// execution attempt.
type ExecutionRecord struct {
	OpportunityID      string
	PathSignature      string
	Exchange           string
	Accepted           bool
	ExpectedProfitRate fixedpoint.Value
	RealizedProfit     fixedpoint.Value
	Slippage           float64
	Duration           time.Duration
	FailureReason      string
	At                 time.Time
}
