// Package app contains application services and port definitions for the market context.
package app

import (
	"math"
	"sort"
	"sync"
)

// QuoteFrequencies is the long-lived table of observed quote currencies.
// It survives graph rebuilds and feeds the frequency-learned parsing
// strategy. Guarded by a reader/writer lock with short critical sections.
type QuoteFrequencies struct {
	mu     sync.RWMutex
	counts map[string]uint64
}

// NewQuoteFrequencies creates an empty frequency table.
func NewQuoteFrequencies() *QuoteFrequencies {
	return &QuoteFrequencies{counts: make(map[string]uint64)}
}

// Observe records one occurrence of quote as a resolved quote currency.
func (q *QuoteFrequencies) Observe(quote string) {
	q.mu.Lock()
	q.counts[quote]++
	q.mu.Unlock()
}

// Count returns the occurrence count for quote.
func (q *QuoteFrequencies) Count(quote string) uint64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.counts[quote]
}

// Top returns up to n quote currencies ranked by occurrence count.
// Ties break lexicographically so the ranking is deterministic.
func (q *QuoteFrequencies) Top(n int) []string {
	q.mu.RLock()
	quotes := make([]string, 0, len(q.counts))
	for quote := range q.counts {
		quotes = append(quotes, quote)
	}
	counts := make(map[string]uint64, len(q.counts))
	for quote, c := range q.counts {
		counts[quote] = c
	}
	q.mu.RUnlock()

	sort.Slice(quotes, func(i, j int) bool {
		if counts[quotes[i]] != counts[quotes[j]] {
			return counts[quotes[i]] > counts[quotes[j]]
		}
		return quotes[i] < quotes[j]
	})

	if len(quotes) > n {
		quotes = quotes[:n]
	}
	return quotes
}

// ConfidenceBoost converts an occurrence count into a logarithmic confidence
// bonus, capped so a frequent quote can never fabricate certainty.
func (q *QuoteFrequencies) ConfidenceBoost(count uint64) float64 {
	if count == 0 {
		return 0
	}
	boost := 0.05 * math.Log10(float64(1+count))
	if boost > 0.15 {
		boost = 0.15
	}
	return boost
}

// Len returns the number of distinct quotes observed.
func (q *QuoteFrequencies) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.counts)
}

// Reset clears the table. Operator action only.
func (q *QuoteFrequencies) Reset() {
	q.mu.Lock()
	q.counts = make(map[string]uint64)
	q.mu.Unlock()
}
