package domain

import (
	"time"

	"github.com/google/uuid"
)

// Opportunity is a detected, risk-accepted triangular path surfaced for
// execution.
type Opportunity struct {
	ID         string
	Path       *TriangularPath
	DetectedAt time.Time
}

// NewOpportunity wraps an accepted path with a fresh identity.
func NewOpportunity(path *TriangularPath) *Opportunity {
	return &Opportunity{
		ID:         uuid.NewString(),
		Path:       path,
		DetectedAt: time.Now(),
	}
}

// Age returns how long ago the opportunity was detected.
func (o *Opportunity) Age(now time.Time) time.Duration {
	return now.Sub(o.DetectedAt)
}
