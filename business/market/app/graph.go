package app

import (
	"context"
	"sort"
	"time"

	"github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/apperror"
	"github.com/ming198921/taoli5.1-sub000/internal/fixedpoint"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

// GraphConfig holds quality filters applied during graph construction.
type GraphConfig struct {
	MaxSpreadRatio      float64
	MinPairLiquidityUSD float64
}

// DefaultGraphConfig returns the standard graph quality filters.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		MaxSpreadRatio:      0.10,
		MinPairLiquidityUSD: 100,
	}
}

type bookKey struct {
	Base     string
	Quote    string
	Exchange string
}

// RelationshipGraph is the per-cycle view of tradable currency
// relationships. It is rebuilt wholesale every detection cycle and owned
// exclusively by that cycle; only the quote-frequency table survives
// rebuilds.
type RelationshipGraph struct {
	adjacency map[string]map[string]struct{}
	books     map[bookKey]*domain.OrderBook
	weights   map[string]fixedpoint.Value
	active    []string
	exchanges []string
	pairCount int
	builtAt   time.Time
}

// BuildGraph constructs a RelationshipGraph from a snapshot batch. Snapshots
// failing symbol resolution or quality filters are skipped; an empty batch
// is a configuration error.
func BuildGraph(
	snapshots []domain.Snapshot,
	resolver *SymbolResolver,
	freqs *QuoteFrequencies,
	cfg GraphConfig,
	log logger.LoggerInterface,
) (*RelationshipGraph, error) {
	if len(snapshots) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("graph build requires a non-empty snapshot batch"))
	}

	maxSpread := fixedpoint.FromFloat(cfg.MaxSpreadRatio)
	minLiquidity := fixedpoint.FromFloat(cfg.MinPairLiquidityUSD)

	g := &RelationshipGraph{
		adjacency: make(map[string]map[string]struct{}),
		books:     make(map[bookKey]*domain.OrderBook),
		weights:   make(map[string]fixedpoint.Value),
		builtAt:   time.Now(),
	}
	exchangeSet := make(map[string]struct{})

	for i := range snapshots {
		snap := &snapshots[i]
		if !snap.HasBothSides() {
			continue
		}

		pair, ok := resolver.Resolve(snap.Symbol)
		if !ok {
			continue
		}

		book := domain.BookFromSnapshot(snap)

		spread, ok := book.SpreadRatio()
		if !ok || spread.GreaterThan(maxSpread) {
			log.Debug(context.Background(), "pair rejected on spread",
				"symbol", snap.Symbol, "spread", spread.String())
			continue
		}

		liquidity, ok := book.TopNotional()
		if !ok || liquidity.LessThan(minLiquidity) {
			log.Debug(context.Background(), "pair rejected on liquidity",
				"symbol", snap.Symbol, "liquidity", liquidity.String())
			continue
		}

		g.addEdge(pair.Base, pair.Quote)
		g.books[bookKey{Base: pair.Base, Quote: pair.Quote, Exchange: snap.Exchange}] = book
		exchangeSet[snap.Exchange] = struct{}{}
		g.pairCount++

		// Spread-penalized liquidity weight accumulates on both ends.
		penalty := fixedpoint.One().Sub(spread)
		if penalty.IsNegative() {
			penalty = fixedpoint.Zero()
		}
		weight := liquidity.Mul(penalty)
		g.weights[pair.Base] = g.weights[pair.Base].Add(weight)
		g.weights[pair.Quote] = g.weights[pair.Quote].Add(weight)

		freqs.Observe(pair.Quote)
	}

	g.active = g.rankActive()
	g.exchanges = sortedKeys(exchangeSet)
	return g, nil
}

func (g *RelationshipGraph) addEdge(a, b string) {
	if g.adjacency[a] == nil {
		g.adjacency[a] = make(map[string]struct{})
	}
	if g.adjacency[b] == nil {
		g.adjacency[b] = make(map[string]struct{})
	}
	g.adjacency[a][b] = struct{}{}
	g.adjacency[b][a] = struct{}{}
}

// rankActive sorts currencies by accumulated weight and applies the tiered
// market-size cap.
func (g *RelationshipGraph) rankActive() []string {
	currencies := make([]string, 0, len(g.weights))
	for c := range g.weights {
		currencies = append(currencies, c)
	}
	sort.Slice(currencies, func(i, j int) bool {
		cmp := g.weights[currencies[i]].Cmp(g.weights[currencies[j]])
		if cmp != 0 {
			return cmp > 0
		}
		return currencies[i] < currencies[j]
	})

	limit := activeCurrencyCap(g.pairCount)
	if len(currencies) > limit {
		currencies = currencies[:limit]
	}
	return currencies
}

// activeCurrencyCap scales the shortlist with observed market size.
func activeCurrencyCap(validPairs int) int {
	switch {
	case validPairs <= 100:
		return 50
	case validPairs <= 500:
		return 150
	case validPairs <= 1000:
		return 200
	default:
		return 300
	}
}

// Neighbors returns the adjacent currencies of c in deterministic order.
func (g *RelationshipGraph) Neighbors(c string) []string {
	set := g.adjacency[c]
	if len(set) == 0 {
		return nil
	}
	out := sortedKeys(set)
	return out
}

// Connected reports whether a and b share an edge.
func (g *RelationshipGraph) Connected(a, b string) bool {
	_, ok := g.adjacency[a][b]
	return ok
}

// Book returns the order book that converts between from and to on the
// given exchange, along with the side of the trade from the perspective of
// the stored pair's base. Selling the base consumes the bid; buying it
// consumes the ask.
func (g *RelationshipGraph) Book(from, to, exchange string) (*domain.OrderBook, domain.Side, bool) {
	if book, ok := g.books[bookKey{Base: from, Quote: to, Exchange: exchange}]; ok {
		return book, domain.SideSell, true
	}
	if book, ok := g.books[bookKey{Base: to, Quote: from, Exchange: exchange}]; ok {
		return book, domain.SideBuy, true
	}
	return nil, "", false
}

// ActiveCurrencies returns the liquidity-ranked shortlist.
func (g *RelationshipGraph) ActiveCurrencies() []string {
	return g.active
}

// Exchanges returns the exchanges present in the graph, sorted.
func (g *RelationshipGraph) Exchanges() []string {
	return g.exchanges
}

// Weight returns the accumulated liquidity weight of c.
func (g *RelationshipGraph) Weight(c string) fixedpoint.Value {
	return g.weights[c]
}

// PairCount returns the number of pairs that passed the quality filters.
func (g *RelationshipGraph) PairCount() int {
	return g.pairCount
}

// BuiltAt returns the construction timestamp.
func (g *RelationshipGraph) BuiltAt() time.Time {
	return g.builtAt
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
