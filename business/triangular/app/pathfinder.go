package app

import (
	"context"
	"sort"
	"sync"
	"time"

	marketApp "github.com/ming198921/taoli5.1-sub000/business/market/app"
	marketDomain "github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/business/triangular/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

// PathFinderConfig holds path discovery settings.
type PathFinderConfig struct {
	// MaxPaths caps the number of paths returned per discovery run.
	MaxPaths int

	// MinProfitRate is the pre-estimate prune floor, as a fraction.
	MinProfitRate float64

	// ApproxFee is the flat fee fraction used by the cheap pre-estimate
	// before exact evaluation.
	ApproxFee float64
}

// DefaultPathFinderConfig returns the standard discovery settings.
func DefaultPathFinderConfig() PathFinderConfig {
	return PathFinderConfig{
		MaxPaths:      10,
		MinProfitRate: 0.001,
		ApproxFee:     0.003,
	}
}

// PathFinder searches a relationship graph for profitable 3-cycles. The
// number of starting currencies examined per run adapts to recent discovery
// latency.
type PathFinder struct {
	cfg  PathFinderConfig
	calc *Calculator
	log  logger.LoggerInterface

	mu      sync.Mutex
	ceiling int
}

// NewPathFinder creates a path finder.
func NewPathFinder(cfg PathFinderConfig, calc *Calculator, log logger.LoggerInterface) *PathFinder {
	if cfg.MaxPaths <= 0 {
		cfg.MaxPaths = 10
	}
	if cfg.ApproxFee <= 0 {
		cfg.ApproxFee = 0.003
	}
	return &PathFinder{cfg: cfg, calc: calc, log: log}
}

// Discover walks two adjacency hops from each active currency and returns
// up to MaxPaths profitable cycles, weight-sorted. An empty exchangeFilter
// searches every exchange present in the graph.
func (f *PathFinder) Discover(ctx context.Context, graph *marketApp.RelationshipGraph, exchangeFilter string) []*domain.TriangularPath {
	started := time.Now()

	active := graph.ActiveCurrencies()
	limit := f.currencyBudget(len(active))
	if limit < len(active) {
		active = active[:limit]
	}

	exchanges := []string{exchangeFilter}
	if exchangeFilter == "" {
		exchanges = graph.Exchanges()
	}

	var (
		paths  []*domain.TriangularPath
		seen   = map[string]struct{}{}
		stopAt = 2 * f.cfg.MaxPaths
	)

search:
	for _, a := range active {
		if ctx.Err() != nil {
			break
		}
		for _, b := range graph.Neighbors(a) {
			if b == a {
				continue
			}
			for _, c := range graph.Neighbors(b) {
				if c == a || c == b || !graph.Connected(c, a) {
					continue
				}
				for _, exchange := range exchanges {
					path := f.evaluate(ctx, graph, [domain.Legs]string{a, b, c}, exchange, seen)
					if path != nil {
						paths = append(paths, path)
					}
					// Unique closed triples examined, profitable or not.
					if len(seen) >= stopAt {
						break search
					}
				}
			}
		}
	}

	elapsed := time.Since(started)
	f.tuneBudget(elapsed, len(active), len(graph.ActiveCurrencies()))

	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Weight.GreaterThan(paths[j].Weight)
	})
	if len(paths) > f.cfg.MaxPaths {
		paths = paths[:f.cfg.MaxPaths]
	}

	f.log.Debug(ctx, "path discovery finished",
		"paths", len(paths), "currencies", len(active), "elapsed", elapsed)
	return paths
}

// evaluate resolves the triple's books, prunes on the cheap estimate and
// hands survivors to the calculator. Duplicate cycles are dropped by
// signature before any pricing work.
func (f *PathFinder) evaluate(ctx context.Context, graph *marketApp.RelationshipGraph, triple [domain.Legs]string, exchange string, seen map[string]struct{}) *domain.TriangularPath {
	probe := domain.TriangularPath{Currencies: triple, Exchange: exchange}
	sig := probe.Signature()
	if _, dup := seen[sig]; dup {
		return nil
	}

	var legs [domain.Legs]Leg
	for i := 0; i < domain.Legs; i++ {
		from, to := triple[i], triple[(i+1)%domain.Legs]
		book, side, ok := graph.Book(from, to, exchange)
		if !ok {
			return nil
		}
		legs[i] = Leg{Book: book, Side: side}
	}

	// Count the cycle once whether or not it survives pricing.
	seen[sig] = struct{}{}

	if !f.preEstimate(legs) {
		return nil
	}

	path, err := f.calc.Evaluate(ctx, triple, legs, exchange)
	if err != nil {
		f.log.Debug(ctx, "candidate rejected", "signature", sig, "error", err)
		return nil
	}
	if path == nil || !path.NetProfitRate.IsPositive() {
		return nil
	}

	path.Weight = graph.Weight(triple[0]).
		Add(graph.Weight(triple[1])).
		Add(graph.Weight(triple[2]))
	return path
}

// preEstimate multiplies the three best-price ratios in floating point and
// subtracts a flat fee approximation. Candidates below the profit floor are
// discarded before exact fixed-point evaluation.
func (f *PathFinder) preEstimate(legs [domain.Legs]Leg) bool {
	product := 1.0
	for _, leg := range legs {
		price, ok := legPrice(leg.Book, leg.Side)
		if !ok || !price.IsPositive() {
			return false
		}
		p := price.Float64()
		if leg.Side == marketDomain.SideSell {
			product *= p
		} else {
			product /= p
		}
	}
	return product-1-f.cfg.ApproxFee >= f.cfg.MinProfitRate
}

// currencyBudget returns how many starting currencies this run may expand.
func (f *PathFinder) currencyBudget(activeLen int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ceiling <= 0 || f.ceiling > activeLen {
		f.ceiling = activeLen
	}
	return f.ceiling
}

// tuneBudget shrinks the ceiling multiplicatively when discovery ran slow
// and grows it additively when it ran fast.
func (f *PathFinder) tuneBudget(elapsed time.Duration, used, activeLen int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case elapsed > 50*time.Millisecond:
		f.ceiling = used * 8 / 10
		if f.ceiling < 10 {
			f.ceiling = 10
		}
	case elapsed < 10*time.Millisecond:
		f.ceiling = used + 5
		if f.ceiling > activeLen {
			f.ceiling = activeLen
		}
	}
}
